// Package game holds the client-side game session: the entities attached to
// a scene and the bridge between local input, the realtime transport, and
// server-pushed state.
package game

import (
	"context"
	"errors"
	"fmt"
	"log"
	"sync"

	"github.com/naveenspark/pong/pkg/domain"
	"github.com/naveenspark/pong/pkg/socket"
)

// Events exchanged with the game server.
const (
	EventMovePaddle = "move_paddle"
	EventGameState  = "game_state"
	EventGameOver   = "game_over"
)

// ErrNotInitialized is returned by operations that need Initialize first.
var ErrNotInitialized = errors.New("game session not initialized")

// Transport is the realtime connection a session drives. *socket.Socket
// satisfies it.
type Transport interface {
	Connected() bool
	Connect(ctx context.Context) error
	Disconnect()
	Emit(event string, payload any) error
	On(event string, h socket.Handler)
}

// State is the lifecycle of a session.
type State int

const (
	StateUninitialized State = iota
	StateActive
	StateTornDown
)

func (s State) String() string {
	switch s {
	case StateUninitialized:
		return "uninitialized"
	case StateActive:
		return "active"
	case StateTornDown:
		return "torn down"
	}
	return "unknown"
}

// Session is one game as seen by this client.
type Session struct {
	transport  Transport
	translator Translator
	logger     *log.Logger
	onUpdate   func()
	onGameOver func(domain.GameOver)
	handlers   sync.Once

	mu          sync.Mutex
	state       State
	gameID      string
	player1ID   string
	player2ID   string
	remote      bool
	score       *domain.Score
	field       *PlayingField
	leftPaddle  *Paddle
	rightPaddle *Paddle
	ball        *Ball
}

// Option configures a Session.
type Option func(*Session)

// WithLogger sets the session logger.
func WithLogger(l *log.Logger) Option {
	return func(s *Session) { s.logger = l }
}

// WithTranslator overrides DefaultTranslator.
func WithTranslator(t Translator) Option {
	return func(s *Session) { s.translator = t }
}

// WithUpdateHook registers fn to run after every applied state update.
func WithUpdateHook(fn func()) Option {
	return func(s *Session) { s.onUpdate = fn }
}

// WithGameOverHook registers fn to run when the server ends the game.
func WithGameOverHook(fn func(domain.GameOver)) Option {
	return func(s *Session) { s.onGameOver = fn }
}

// NewSession creates an uninitialized session driving t.
func NewSession(t Transport, opts ...Option) *Session {
	s := &Session{
		transport:  t,
		translator: DefaultTranslator,
		logger:     log.Default(),
	}
	for _, o := range opts {
		o(s)
	}
	return s
}

// Initialize builds the field, both paddles and the ball on scene, connects
// the transport if needed, and installs the server event handlers. A connect
// failure leaves the session active but disconnected and is returned.
// Calling Initialize again builds a fresh set of entities on the new scene;
// handlers are installed on the transport only once per session.
func (s *Session) Initialize(ctx context.Context, gameID, player1ID, player2ID string, remote bool, scene Scene) error {
	s.mu.Lock()
	s.gameID = gameID
	s.player1ID = player1ID
	s.player2ID = player2ID
	s.remote = remote
	s.score = nil

	s.field = NewPlayingField(scene)
	s.leftPaddle = NewPaddle(scene, LeftPaddleStart, LeftPaddleColor)
	s.rightPaddle = NewPaddle(scene, RightPaddleStart, RightPaddleColor)
	s.ball = NewBall(scene)

	s.field.AddToScene()
	s.leftPaddle.AddToScene()
	s.rightPaddle.AddToScene()
	s.ball.AddToScene()
	s.state = StateActive
	s.mu.Unlock()

	var connErr error
	if !s.transport.Connected() {
		if err := s.transport.Connect(ctx); err != nil {
			connErr = fmt.Errorf("game.Initialize: %w", err)
		}
	}
	s.handlers.Do(func() { installEventHandlers(s) })

	s.logger.Printf("game session initialized: gameId=%s player1Id=%s player2Id=%s remote=%t",
		gameID, player1ID, player2ID, remote)
	return connErr
}

// SendMovement emits data to the server as a move_paddle event, unchanged.
func (s *Session) SendMovement(data any) error {
	if err := s.transport.Emit(EventMovePaddle, data); err != nil {
		return fmt.Errorf("game.SendMovement: %w", err)
	}
	return nil
}

// HandleGameStateUpdate translates a server update and applies it to both
// paddles and the ball. The latest update wins.
func (s *Session) HandleGameStateUpdate(data domain.GameState) error {
	t := s.translator.State(data)

	s.mu.Lock()
	if s.state == StateUninitialized {
		s.mu.Unlock()
		return ErrNotInitialized
	}
	s.leftPaddle.UpdatePosition(t.Player1Position)
	s.rightPaddle.UpdatePosition(t.Player2Position)
	s.ball.UpdatePosition(t.Ball)
	if t.Score != nil {
		sc := *t.Score
		s.score = &sc
	}
	s.mu.Unlock()

	if s.onUpdate != nil {
		s.onUpdate()
	}
	return nil
}

// Disconnect tears down the transport when it is connected.
func (s *Session) Disconnect() {
	if s.transport.Connected() {
		s.transport.Disconnect()
	}
	s.mu.Lock()
	if s.state == StateActive {
		s.state = StateTornDown
	}
	s.mu.Unlock()
}

// Connected reports the transport state.
func (s *Session) Connected() bool {
	return s.transport.Connected()
}

// State returns the lifecycle state.
func (s *Session) State() State {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state
}

// Info describes the current game.
type Info struct {
	GameID    string
	Player1ID string
	Player2ID string
	Remote    bool
	Score     *domain.Score
}

// Info returns the identifiers the session was initialized with.
func (s *Session) Info() Info {
	s.mu.Lock()
	defer s.mu.Unlock()
	var sc *domain.Score
	if s.score != nil {
		v := *s.score
		sc = &v
	}
	return Info{
		GameID:    s.gameID,
		Player1ID: s.player1ID,
		Player2ID: s.player2ID,
		Remote:    s.remote,
		Score:     sc,
	}
}

// Entities returns the session's field, paddles and ball, or nils before Initialize.
func (s *Session) Entities() (*PlayingField, *Paddle, *Paddle, *Ball) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.field, s.leftPaddle, s.rightPaddle, s.ball
}
