package game

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"log"
	"reflect"
	"strings"
	"testing"

	"github.com/naveenspark/pong/pkg/domain"
	"github.com/naveenspark/pong/pkg/socket"
)

type emitted struct {
	event   string
	payload any
}

// fakeTransport records calls and lets tests push server events.
type fakeTransport struct {
	connected   bool
	connectErr  error
	connects    int
	disconnects int
	emits       []emitted
	handlers    map[string][]socket.Handler
}

func newFakeTransport() *fakeTransport {
	return &fakeTransport{handlers: make(map[string][]socket.Handler)}
}

func (f *fakeTransport) Connected() bool { return f.connected }

func (f *fakeTransport) Connect(context.Context) error {
	f.connects++
	if f.connectErr != nil {
		return f.connectErr
	}
	f.connected = true
	return nil
}

func (f *fakeTransport) Disconnect() {
	f.disconnects++
	f.connected = false
}

func (f *fakeTransport) Emit(event string, payload any) error {
	if !f.connected {
		return socket.ErrNotConnected
	}
	f.emits = append(f.emits, emitted{event: event, payload: payload})
	return nil
}

func (f *fakeTransport) On(event string, h socket.Handler) {
	f.handlers[event] = append(f.handlers[event], h)
}

func (f *fakeTransport) push(t *testing.T, event string, v any) {
	t.Helper()
	data, err := json.Marshal(v)
	if err != nil {
		t.Fatal(err)
	}
	for _, h := range f.handlers[event] {
		h(data)
	}
}

func quietLogger() (*log.Logger, *bytes.Buffer) {
	var buf bytes.Buffer
	return log.New(&buf, "", 0), &buf
}

func initialized(t *testing.T, opts ...Option) (*Session, *fakeTransport, *SceneGraph) {
	t.Helper()
	ft := newFakeTransport()
	l, _ := quietLogger()
	s := NewSession(ft, append([]Option{WithLogger(l)}, opts...)...)
	scene := NewSceneGraph()
	if err := s.Initialize(context.Background(), "game-1", "alice", "bob", true, scene); err != nil {
		t.Fatalf("Initialize() error: %v", err)
	}
	return s, ft, scene
}

func TestInitializeBuildsSceneAndConnects(t *testing.T) {
	ft := newFakeTransport()
	l, logs := quietLogger()
	s := NewSession(ft, WithLogger(l))
	if s.State() != StateUninitialized {
		t.Fatalf("State() = %v, want uninitialized", s.State())
	}

	scene := NewSceneGraph()
	if err := s.Initialize(context.Background(), "game-1", "alice", "bob", false, scene); err != nil {
		t.Fatalf("Initialize() error: %v", err)
	}

	if s.State() != StateActive {
		t.Errorf("State() = %v, want active", s.State())
	}
	if ft.connects != 1 || !s.Connected() {
		t.Errorf("connects = %d connected = %v, want 1 and true", ft.connects, s.Connected())
	}

	kinds := []EntityKind{}
	for _, e := range scene.Entities() {
		kinds = append(kinds, e.Kind())
	}
	want := []EntityKind{KindField, KindPaddle, KindPaddle, KindBall}
	if !reflect.DeepEqual(kinds, want) {
		t.Errorf("scene kinds = %v, want %v", kinds, want)
	}

	_, left, right, ball := s.Entities()
	if left.Position() != LeftPaddleStart || left.Color != LeftPaddleColor {
		t.Errorf("left paddle = %+v color %#x", left.Position(), left.Color)
	}
	if right.Position() != RightPaddleStart || right.Color != RightPaddleColor {
		t.Errorf("right paddle = %+v color %#x", right.Position(), right.Color)
	}
	if ball.Position() != (domain.Vec{}) {
		t.Errorf("ball = %+v, want origin", ball.Position())
	}

	info := s.Info()
	if info.GameID != "game-1" || info.Player1ID != "alice" || info.Player2ID != "bob" || info.Remote {
		t.Errorf("Info() = %+v", info)
	}
	if !strings.Contains(logs.String(), "gameId=game-1") {
		t.Errorf("logs = %q, want initialization entry", logs.String())
	}
	if len(ft.handlers[EventGameState]) != 1 {
		t.Errorf("game_state handlers = %d, want 1", len(ft.handlers[EventGameState]))
	}
}

func TestInitializeSkipsConnectWhenConnected(t *testing.T) {
	ft := newFakeTransport()
	ft.connected = true
	l, _ := quietLogger()
	s := NewSession(ft, WithLogger(l))

	if err := s.Initialize(context.Background(), "g", "a", "b", true, NewSceneGraph()); err != nil {
		t.Fatalf("Initialize() error: %v", err)
	}
	if ft.connects != 0 {
		t.Errorf("connects = %d, want 0", ft.connects)
	}
}

func TestInitializeConnectFailure(t *testing.T) {
	ft := newFakeTransport()
	ft.connectErr = errors.New("refused")
	l, _ := quietLogger()
	s := NewSession(ft, WithLogger(l))
	scene := NewSceneGraph()

	err := s.Initialize(context.Background(), "g", "a", "b", true, scene)
	if err == nil || !strings.Contains(err.Error(), "refused") {
		t.Fatalf("Initialize() error = %v, want connect failure", err)
	}
	if s.State() != StateActive || s.Connected() {
		t.Errorf("state = %v connected = %v, want active and disconnected", s.State(), s.Connected())
	}
	if scene.Len() != 4 {
		t.Errorf("scene.Len() = %d, want 4", scene.Len())
	}
	if len(ft.handlers[EventGameState]) != 1 {
		t.Error("handlers not installed after connect failure")
	}
}

func TestReinitializeInstallsHandlersOnce(t *testing.T) {
	s, ft, _ := initialized(t)
	if err := s.Initialize(context.Background(), "game-2", "c", "d", false, NewSceneGraph()); err != nil {
		t.Fatalf("second Initialize() error: %v", err)
	}
	if n := len(ft.handlers[EventGameState]); n != 1 {
		t.Errorf("game_state handlers = %d, want 1", n)
	}
	if s.Info().GameID != "game-2" {
		t.Errorf("GameID = %q, want game-2", s.Info().GameID)
	}
}

func TestSendMovementEmitsPayloadUnchanged(t *testing.T) {
	s, ft, _ := initialized(t)

	payloads := []any{
		domain.PaddleMove{GameID: "game-1", PlayerID: "alice", Direction: domain.DirectionUp},
		map[string]any{"key": "ArrowDown", "pressed": true},
		"w",
	}
	for _, p := range payloads {
		if err := s.SendMovement(p); err != nil {
			t.Fatalf("SendMovement(%v) error: %v", p, err)
		}
	}

	if len(ft.emits) != len(payloads) {
		t.Fatalf("emits = %d, want %d", len(ft.emits), len(payloads))
	}
	for i, e := range ft.emits {
		if e.event != "move_paddle" {
			t.Errorf("emit[%d].event = %q, want move_paddle", i, e.event)
		}
		if !reflect.DeepEqual(e.payload, payloads[i]) {
			t.Errorf("emit[%d].payload = %#v, want %#v", i, e.payload, payloads[i])
		}
	}
}

func TestSendMovementNotConnected(t *testing.T) {
	s, ft, _ := initialized(t)
	ft.connected = false

	err := s.SendMovement(domain.PaddleMove{Direction: domain.DirectionDown})
	if !errors.Is(err, socket.ErrNotConnected) {
		t.Errorf("SendMovement() error = %v, want ErrNotConnected", err)
	}
}

func TestHandleGameStateUpdate(t *testing.T) {
	updates := 0
	s, _, scene := initialized(t, WithUpdateHook(func() { updates++ }))
	field, left, right, ball := s.Entities()
	fieldBefore := *field

	in := domain.GameState{
		Player1Position: domain.Vec{X: 20, Y: 100},
		Player2Position: domain.Vec{X: 780, Y: 300},
		Ball:            domain.Vec{X: 400, Y: 200},
	}
	if err := s.HandleGameStateUpdate(in); err != nil {
		t.Fatalf("HandleGameStateUpdate() error: %v", err)
	}

	tr := DefaultTranslator
	if got, want := left.Position(), tr.Point(in.Player1Position); got != want {
		t.Errorf("left = %+v, want %+v", got, want)
	}
	if got, want := right.Position(), tr.Point(in.Player2Position); got != want {
		t.Errorf("right = %+v, want %+v", got, want)
	}
	if got, want := ball.Position(), tr.Point(in.Ball); got != want {
		t.Errorf("ball = %+v, want %+v", got, want)
	}
	if left.Updates() != 1 || right.Updates() != 1 || ball.Updates() != 1 {
		t.Errorf("updates = %d/%d/%d, want 1 each", left.Updates(), right.Updates(), ball.Updates())
	}
	if *field != fieldBefore {
		t.Errorf("field mutated: %+v, was %+v", *field, fieldBefore)
	}
	if scene.Len() != 4 {
		t.Errorf("scene.Len() = %d, want 4", scene.Len())
	}
	if updates != 1 {
		t.Errorf("update hook ran %d times, want 1", updates)
	}
}

func TestHandleGameStateUpdateLastWins(t *testing.T) {
	s, _, _ := initialized(t)
	_, _, _, ball := s.Entities()

	s.HandleGameStateUpdate(domain.GameState{Ball: domain.Vec{X: 0, Y: 0}})     //nolint:errcheck
	s.HandleGameStateUpdate(domain.GameState{Ball: domain.Vec{X: 800, Y: 400}}) //nolint:errcheck

	if got, want := ball.Position(), (domain.Vec{X: 10, Y: -5}); got != want {
		t.Errorf("ball = %+v, want %+v", got, want)
	}
}

func TestHandleGameStateUpdateBeforeInitialize(t *testing.T) {
	s := NewSession(newFakeTransport())
	if err := s.HandleGameStateUpdate(domain.GameState{}); !errors.Is(err, ErrNotInitialized) {
		t.Errorf("error = %v, want ErrNotInitialized", err)
	}
}

func TestServerGameStateEvent(t *testing.T) {
	s, ft, _ := initialized(t)
	_, left, _, _ := s.Entities()

	ft.push(t, EventGameState, map[string]any{
		"player1_position": map[string]float64{"x": 0, "y": 0},
		"player2_position": map[string]float64{"x": 800, "y": 0},
		"ball":             map[string]float64{"x": 400, "y": 200},
		"score":            map[string]int{"player1": 2, "player2": 1},
	})

	if got, want := left.Position(), (domain.Vec{X: -10, Y: 5}); got != want {
		t.Errorf("left = %+v, want %+v", got, want)
	}
	sc := s.Info().Score
	if sc == nil || sc.Player1 != 2 || sc.Player2 != 1 {
		t.Errorf("score = %+v, want 2-1", sc)
	}
}

func TestServerGameStateEventMalformed(t *testing.T) {
	ft := newFakeTransport()
	l, logs := quietLogger()
	s := NewSession(ft, WithLogger(l))
	if err := s.Initialize(context.Background(), "g", "a", "b", true, NewSceneGraph()); err != nil {
		t.Fatal(err)
	}
	_, left, _, _ := s.Entities()

	for _, h := range ft.handlers[EventGameState] {
		h(json.RawMessage(`{"ball": "nope"}`))
	}
	if left.Updates() != 0 {
		t.Errorf("left updated %d times on malformed payload", left.Updates())
	}
	if !strings.Contains(logs.String(), "bad game_state payload") {
		t.Errorf("logs = %q, want bad payload entry", logs.String())
	}
}

func TestServerGameOverEvent(t *testing.T) {
	var got domain.GameOver
	s, ft, _ := initialized(t, WithGameOverHook(func(o domain.GameOver) { got = o }))

	ft.push(t, EventGameOver, domain.GameOver{Winner: "alice", Score: domain.Score{Player1: 5, Player2: 3}})

	if got.Winner != "alice" {
		t.Errorf("winner = %q, want alice", got.Winner)
	}
	if sc := s.Info().Score; sc == nil || sc.Player1 != 5 {
		t.Errorf("score = %+v, want 5-3", sc)
	}
}

func TestDisconnect(t *testing.T) {
	s, ft, _ := initialized(t)

	s.Disconnect()
	if ft.disconnects != 1 {
		t.Errorf("disconnects = %d, want 1", ft.disconnects)
	}
	if s.State() != StateTornDown {
		t.Errorf("State() = %v, want torn down", s.State())
	}

	s.Disconnect()
	if ft.disconnects != 1 {
		t.Errorf("disconnects = %d after second call, want 1", ft.disconnects)
	}
}

func TestDisconnectNotConnectedIsNoop(t *testing.T) {
	ft := newFakeTransport()
	s := NewSession(ft)
	s.Disconnect()
	if ft.disconnects != 0 {
		t.Errorf("disconnects = %d, want 0", ft.disconnects)
	}
}
