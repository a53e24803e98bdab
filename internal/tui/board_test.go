package tui

import (
	"context"
	"strings"
	"testing"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/naveenspark/pong/internal/game"
	"github.com/naveenspark/pong/pkg/domain"
)

func TestBoardMoveKeys(t *testing.T) {
	tests := []struct {
		name   string
		remote bool
		key    string
		want   domain.PaddleMove
		ok     bool
	}{
		{"local w", false, "w", domain.PaddleMove{GameID: "g1", PlayerID: "alice", Direction: domain.DirectionUp}, true},
		{"local s", false, "s", domain.PaddleMove{GameID: "g1", PlayerID: "alice", Direction: domain.DirectionDown}, true},
		{"local up", false, "up", domain.PaddleMove{GameID: "g1", PlayerID: "bob", Direction: domain.DirectionUp}, true},
		{"local down", false, "down", domain.PaddleMove{GameID: "g1", PlayerID: "bob", Direction: domain.DirectionDown}, true},
		{"space stops", false, " ", domain.PaddleMove{GameID: "g1", PlayerID: "alice", Direction: domain.DirectionStop}, true},
		{"remote up drives player 1", true, "up", domain.PaddleMove{GameID: "g1", PlayerID: "alice", Direction: domain.DirectionUp}, true},
		{"unbound key", false, "x", domain.PaddleMove{}, false},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			m := newBoardModel(nil, nil, startGameMsg{gameID: "g1", player1: "alice", player2: "bob", remote: tc.remote})
			got, ok := m.move(tc.key)
			if ok != tc.ok || got != tc.want {
				t.Errorf("move(%q) = %+v, %v; want %+v, %v", tc.key, got, ok, tc.want, tc.ok)
			}
		})
	}
}

func TestBoardKeyEmitsMovement(t *testing.T) {
	tr := newStubTransport()
	s := game.NewSession(tr)
	scene := game.NewSceneGraph()
	if err := s.Initialize(context.Background(), "g1", "alice", "bob", false, scene); err != nil {
		t.Fatalf("Initialize: %v", err)
	}
	m := newBoardModel(s, scene, startGameMsg{gameID: "g1", player1: "alice", player2: "bob"})

	m, cmd := m.Update(tea.KeyMsg{Type: tea.KeyUp})
	if cmd == nil {
		t.Fatal("up returned no command")
	}
	if res, ok := cmd().(moveSentMsg); !ok || res.err != nil {
		t.Fatalf("move result = %+v", res)
	}
	want := domain.PaddleMove{GameID: "g1", PlayerID: "bob", Direction: domain.DirectionUp}
	if len(tr.emits) != 1 || tr.emits[0] != want {
		t.Errorf("emits = %+v, want [%+v]", tr.emits, want)
	}

	m, _ = m.Update(gameOverMsg{over: domain.GameOver{Winner: "bob"}})
	if _, cmd = m.Update(runes("w")); cmd != nil {
		t.Error("keys still move paddles after game over")
	}
}

func TestCourtSize(t *testing.T) {
	tests := []struct {
		name          string
		width, height int
		cols, rows    int
	}{
		{"wide terminal caps at 80", 200, 60, 80, 20},
		{"narrow terminal floors at 20", 10, 60, 20, 5},
		{"short terminal limits rows", 84, 12, 80, 10},
		{"zero height keeps ratio", 44, 0, 40, 10},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			cols, rows := courtSize(tc.width, tc.height)
			if cols != tc.cols || rows != tc.rows {
				t.Errorf("courtSize(%d, %d) = %d, %d; want %d, %d", tc.width, tc.height, cols, rows, tc.cols, tc.rows)
			}
		})
	}
}

func TestCell(t *testing.T) {
	tests := []struct {
		name string
		p    domain.Vec
		c, r int
	}{
		{"top left", domain.Vec{X: -10, Y: 5}, 0, 0},
		{"bottom right", domain.Vec{X: 10, Y: -5}, 39, 9},
		{"outside clamps", domain.Vec{X: -50, Y: 50}, 0, 0},
		{"outside clamps far corner", domain.Vec{X: 50, Y: -50}, 39, 9},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			c, r := cell(tc.p, 40, 10)
			if c != tc.c || r != tc.r {
				t.Errorf("cell(%+v) = %d, %d; want %d, %d", tc.p, c, r, tc.c, tc.r)
			}
		})
	}
}

func TestRenderCourtEmptyScene(t *testing.T) {
	out := renderCourt(nil, 20, 5)
	lines := strings.Split(out, "\n")
	if len(lines) != 5 {
		t.Fatalf("got %d lines, want 5", len(lines))
	}
	for i, l := range lines {
		if l != strings.Repeat(" ", 20) {
			t.Errorf("line %d = %q, want blank", i, l)
		}
	}
}

func TestRenderCourtDrawsEntities(t *testing.T) {
	scene := game.NewSceneGraph()
	game.NewPlayingField(scene).AddToScene()
	game.NewPaddle(scene, game.LeftPaddleStart, game.LeftPaddleColor).AddToScene()
	game.NewPaddle(scene, game.RightPaddleStart, game.RightPaddleColor).AddToScene()
	game.NewBall(scene).AddToScene()

	out := renderCourt(scene, 40, 10)
	if strings.Count(out, "●") != 1 {
		t.Errorf("want exactly one ball in\n%s", out)
	}
	if strings.Count(out, "█") < 4 {
		t.Errorf("want two paddles of at least two cells in\n%s", out)
	}
	if !strings.Contains(out, "┊") {
		t.Errorf("want a centre line in\n%s", out)
	}
}

func TestBoardViewBeforeStart(t *testing.T) {
	m := newBoardModel(nil, game.NewSceneGraph(), startGameMsg{gameID: "g1", player1: "alice", player2: "bob", remote: true})
	m, _ = m.Update(tea.WindowSizeMsg{Width: 80, Height: 30})
	v := m.View()
	for _, want := range []string{"g1", "remote", "connecting...", "alice", "bob", "0 : 0"} {
		if !strings.Contains(v, want) {
			t.Errorf("view missing %q", want)
		}
	}
}
