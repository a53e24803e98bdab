package tui

import (
	"context"
	"errors"
	"fmt"
	"log"
	"math"
	"strings"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/naveenspark/pong/internal/game"
	"github.com/naveenspark/pong/pkg/domain"
)

// connectTimeout bounds the dial to the game server when a game starts.
const connectTimeout = 10 * time.Second

// gameStartedMsg reports the outcome of Session.Initialize. seq identifies
// the start it answers.
type gameStartedMsg struct {
	seq int
	err error
}

type moveSentMsg struct {
	err error
}

// sessionEventMsg is emitted whenever the session applied a server event.
type sessionEventMsg struct{}

type gameOverMsg struct {
	over domain.GameOver
}

// waitForSessionEvent blocks on the session event channel and returns the
// next event. The App re-arms it after each delivery.
func waitForSessionEvent(ch <-chan tea.Msg) tea.Cmd {
	return func() tea.Msg {
		return <-ch
	}
}

// startSession dials the game server under ctx. If ctx is cancelled while
// dialing, the half-open session is torn down before reporting.
func startSession(ctx context.Context, cancel context.CancelFunc, s *game.Session, start startGameMsg, scene game.Scene, seq int) tea.Cmd {
	return func() tea.Msg {
		defer cancel()
		err := s.Initialize(ctx, start.gameID, start.player1, start.player2, start.remote, scene)
		if errors.Is(ctx.Err(), context.Canceled) {
			s.Disconnect()
			return gameStartedMsg{seq: seq, err: context.Canceled}
		}
		return gameStartedMsg{seq: seq, err: err}
	}
}

// boardModel is the in-game view.
type boardModel struct {
	session *game.Session
	scene   *game.SceneGraph
	info    game.Info
	over    *domain.GameOver
	ready   bool
	width   int
	height  int
}

func newBoardModel(s *game.Session, scene *game.SceneGraph, start startGameMsg) boardModel {
	return boardModel{
		session: s,
		scene:   scene,
		info: game.Info{
			GameID:    start.gameID,
			Player1ID: start.player1,
			Player2ID: start.player2,
			Remote:    start.remote,
		},
	}
}

// move builds the movement for a key, or false when the key moves nothing.
// In a remote game both key sets drive the local player.
func (m boardModel) move(key string) (domain.PaddleMove, bool) {
	var player, dir string
	switch key {
	case "w":
		player, dir = m.info.Player1ID, domain.DirectionUp
	case "s":
		player, dir = m.info.Player1ID, domain.DirectionDown
	case "up":
		player, dir = m.info.Player2ID, domain.DirectionUp
	case "down":
		player, dir = m.info.Player2ID, domain.DirectionDown
	case " ":
		player, dir = m.info.Player1ID, domain.DirectionStop
	default:
		return domain.PaddleMove{}, false
	}
	if m.info.Remote {
		player = m.info.Player1ID
	}
	return domain.PaddleMove{GameID: m.info.GameID, PlayerID: player, Direction: dir}, true
}

func (m boardModel) Update(msg tea.Msg) (boardModel, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height

	case gameStartedMsg:
		m.ready = true
		if m.session != nil {
			m.info = m.session.Info()
		}

	case sessionEventMsg:
		if m.session != nil {
			m.info = m.session.Info()
		}

	case gameOverMsg:
		over := msg.over
		m.over = &over

	case moveSentMsg:
		if msg.err != nil {
			log.Printf("move_paddle: %v", msg.err)
		}

	case tea.KeyMsg:
		if m.over != nil || m.session == nil {
			return m, nil
		}
		mv, ok := m.move(msg.String())
		if !ok {
			return m, nil
		}
		s := m.session
		return m, func() tea.Msg {
			return moveSentMsg{err: s.SendMovement(mv)}
		}
	}
	return m, nil
}

func (m boardModel) View() string {
	var b strings.Builder

	status := presenceDotStyle.Render("●") + " " + dimStyle.Render("connected")
	if m.session == nil || !m.session.Connected() {
		status = rejectStyle.Render("○") + " " + dimStyle.Render("disconnected")
	}
	if !m.ready {
		status = dimStyle.Render("connecting...")
	}
	mode := "local"
	if m.info.Remote {
		mode = "remote"
	}
	fmt.Fprintf(&b, " %s  %s  %s\n", metaStyle.Render(m.info.GameID), dimStyle.Render(mode), status)

	left := PaddleStyle(game.LeftPaddleColor).Render(m.info.Player1ID)
	right := PaddleStyle(game.RightPaddleColor).Render(m.info.Player2ID)
	score := "0 : 0"
	if m.info.Score != nil {
		score = fmt.Sprintf("%d : %d", m.info.Score.Player1, m.info.Score.Player2)
	}
	fmt.Fprintf(&b, " %s  %s  %s\n", left, selectedStyle.Render(score), right)

	cols, rows := courtSize(m.width, m.height-4)
	court := lipgloss.NewStyle().
		Border(lipgloss.RoundedBorder()).
		BorderForeground(borderColor).
		Render(renderCourt(m.scene, cols, rows))
	b.WriteString(court + "\n")

	if m.over != nil {
		fmt.Fprintf(&b, " %s %s\n", goldStyle.Render("game over:"), selectedStyle.Render(m.over.Winner+" wins"))
	}
	return b.String()
}

// courtSize fits a 2:1 court into the available cells. Terminal cells are
// about twice as tall as wide, so rows are a quarter of the columns.
func courtSize(width, height int) (int, int) {
	cols := width - 4
	if cols > 80 {
		cols = 80
	}
	if cols < 20 {
		cols = 20
	}
	rows := cols / 4
	if height > 2 && rows > height-2 {
		rows = height - 2
	}
	if rows < 5 {
		rows = 5
	}
	return cols, rows
}

// cell maps a local-space point onto the cols×rows grid.
func cell(p domain.Vec, cols, rows int) (int, int) {
	c := int(math.Round((p.X + game.FieldWidth/2) / game.FieldWidth * float64(cols-1)))
	r := int(math.Round((game.FieldHeight/2 - p.Y) / game.FieldHeight * float64(rows-1)))
	return clampInt(c, 0, cols-1), clampInt(r, 0, rows-1)
}

func clampInt(v, lo, hi int) int {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}

// renderCourt draws the scene entities onto a character grid.
func renderCourt(scene *game.SceneGraph, cols, rows int) string {
	grid := make([][]string, rows)
	for r := range grid {
		grid[r] = make([]string, cols)
		for c := range grid[r] {
			grid[r][c] = " "
		}
	}
	if scene == nil {
		return joinGrid(grid)
	}

	for _, e := range scene.Entities() {
		switch e := e.(type) {
		case *game.PlayingField:
			mid := cols / 2
			for r := 0; r < rows; r += 2 {
				grid[r][mid] = courtLineStyle.Render("┊")
			}
		case *game.Paddle:
			top := e.Position().Add(domain.Vec{Y: e.Height / 2})
			bottom := e.Position().Add(domain.Vec{Y: -e.Height / 2})
			c, r0 := cell(top, cols, rows)
			_, r1 := cell(bottom, cols, rows)
			for r := r0; r <= r1; r++ {
				grid[r][c] = PaddleStyle(e.Color).Render("█")
			}
		case *game.Ball:
			c, r := cell(e.Position(), cols, rows)
			grid[r][c] = ballStyle.Render("●")
		}
	}
	return joinGrid(grid)
}

func joinGrid(grid [][]string) string {
	lines := make([]string, len(grid))
	for i, row := range grid {
		lines[i] = strings.Join(row, "")
	}
	return strings.Join(lines, "\n")
}
