package tui

import (
	"context"
	"fmt"
	"log"
	"strings"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/naveenspark/pong/internal/game"
	"github.com/naveenspark/pong/pkg/client"
	"github.com/naveenspark/pong/pkg/domain"
)

type view int

const (
	viewLobby view = iota
	viewGame
	viewProfile
	viewHall
)

// App is the root Bubbletea model.
type App struct {
	client  *client.Client
	session *game.Session
	events  chan tea.Msg
	version string

	// cancelStart aborts the dial of the game being started; gameSeq
	// numbers starts so late results of an abandoned start are ignored.
	cancelStart context.CancelFunc
	gameSeq     int

	view    view
	lobby   lobbyModel
	board   boardModel
	profile profileModel
	hall    hallModel

	notice    *noticeMsg
	noticeSeq int

	width  int
	height int
	frame  int // logo shimmer animation frame
}

// NewApp creates the TUI. t is the game server connection shared by every
// game started from this App; the App never dials it outside a game. s is
// the user service link behind the hall and may be nil.
func NewApp(c *client.Client, t game.Transport, s Social, creds domain.Credentials, version string) App {
	events := make(chan tea.Msg, 64)
	session := game.NewSession(t,
		game.WithUpdateHook(func() {
			select {
			case events <- sessionEventMsg{}:
			default: // a redraw is already pending
			}
		}),
		game.WithGameOverHook(func(o domain.GameOver) {
			select {
			case events <- gameOverMsg{over: o}:
			default:
				log.Printf("game over event dropped: winner=%s", o.Winner)
			}
		}),
	)

	if s != nil {
		s.OnStatus(func(u domain.StatusUpdate) {
			select {
			case events <- presenceMsg{update: u}:
			default:
				log.Printf("presence event dropped: %s", u.Username)
			}
		})
		s.OnChat(func(m domain.ChatMessage) {
			select {
			case events <- chatReceivedMsg{msg: m, at: time.Now()}:
			default:
				log.Printf("chat message dropped: from=%s", m.Username)
			}
		})
		s.OnUnread(func(n int) {
			select {
			case events <- unreadMsg{count: n}:
			default:
			}
		})
	}

	return App{
		client:  c,
		session: session,
		events:  events,
		version: version,
		lobby:   newLobbyModel(),
		profile: newProfileModel(c, creds),
		hall:    newHallModel(c, s),
	}
}

func (a App) Init() tea.Cmd {
	return tea.Batch(shimmerTickCmd(), waitForSessionEvent(a.events), a.profile.loadUser())
}

func (a App) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		a.width = msg.Width
		a.height = msg.Height
		// Chrome: header(2) + notice(1) + help(1) = 4 lines
		bodyMsg := tea.WindowSizeMsg{Width: msg.Width, Height: msg.Height - 4}
		a.board, _ = a.board.Update(bodyMsg)
		a.profile, _ = a.profile.Update(bodyMsg)
		a.hall, _ = a.hall.Update(bodyMsg)
		return a, nil

	case shimmerTickMsg:
		a.frame++
		return a, shimmerTickCmd()

	case noticeMsg:
		n := msg
		a.notice = &n
		a.noticeSeq++
		return a, expireNotice(a.noticeSeq)

	case noticeExpiredMsg:
		if msg.seq == a.noticeSeq {
			a.notice = nil
		}
		return a, nil

	case userLoadedMsg:
		if msg.err == nil && msg.user != nil {
			a.lobby = a.lobby.setPlayer1(msg.user.Username)
		}
		a.profile, _ = a.profile.Update(msg)
		var cmd tea.Cmd
		a.hall, cmd = a.hall.Update(msg)
		return a, cmd

	case friendsLoadedMsg, presenceStartedMsg, chatOpenedMsg, chatSentMsg:
		var cmd tea.Cmd
		a.hall, cmd = a.hall.Update(msg)
		return a, cmd

	case presenceMsg, chatReceivedMsg, unreadMsg:
		a.hall, _ = a.hall.Update(msg)
		return a, waitForSessionEvent(a.events)

	case passwordUpdatedMsg:
		var cmd tea.Cmd
		a.profile, cmd = a.profile.Update(msg)
		return a, cmd

	case startGameMsg:
		scene := game.NewSceneGraph()
		a.board = newBoardModel(a.session, scene, msg)
		a.board, _ = a.board.Update(tea.WindowSizeMsg{Width: a.width, Height: a.height - 4})
		a.view = viewGame
		a.gameSeq++
		ctx, cancel := context.WithTimeout(context.Background(), connectTimeout)
		a.cancelStart = cancel
		return a, startSession(ctx, cancel, a.session, msg, scene, a.gameSeq)

	case gameStartedMsg:
		if msg.seq != a.gameSeq {
			return a, nil
		}
		a.cancelStart = nil
		if a.view != viewGame {
			// Left while dialing.
			a.session.Disconnect()
			return a, nil
		}
		a.board, _ = a.board.Update(msg)
		if msg.err != nil {
			log.Printf("start game: %v", msg.err)
			return a, notify("could not reach the game server", noticeError, viewGame)
		}
		return a, nil

	case sessionEventMsg, gameOverMsg:
		a.board, _ = a.board.Update(msg)
		return a, waitForSessionEvent(a.events)

	case tea.KeyMsg:
		switch msg.String() {
		case "ctrl+c":
			a.leaveGame()
			return a, tea.Quit
		case "ctrl+p":
			if a.view != viewGame {
				a.view = viewProfile
				return a, a.profile.loadUser()
			}
		case "ctrl+t":
			if a.view != viewGame {
				a.view = viewHall
				a.hall.unread = 0
				return a, nil
			}
		case "ctrl+l":
			if a.view == viewProfile || a.view == viewHall {
				a.view = viewLobby
				return a, nil
			}
		}

		if !a.isEditing() {
			switch msg.String() {
			case "q":
				a.leaveGame()
				return a, tea.Quit
			case "esc":
				if a.view == viewGame {
					a.leaveGame()
				}
				a.view = viewLobby
				return a, nil
			}
		}
	}

	var cmd tea.Cmd
	switch a.view {
	case viewLobby:
		a.lobby, cmd = a.lobby.Update(msg)
	case viewGame:
		a.board, cmd = a.board.Update(msg)
	case viewProfile:
		a.profile, cmd = a.profile.Update(msg)
	case viewHall:
		a.hall, cmd = a.hall.Update(msg)
	}
	return a, cmd
}

// leaveGame aborts a pending dial and tears down the transport of a
// running game.
func (a App) leaveGame() {
	if a.view != viewGame {
		return
	}
	if a.cancelStart != nil {
		a.cancelStart()
	}
	if a.session != nil {
		a.session.Disconnect()
	}
}

func (a App) isEditing() bool {
	switch a.view {
	case viewLobby:
		return true
	case viewProfile:
		return a.profile.editing()
	case viewHall:
		return a.hall.editing()
	}
	return false
}

func (a App) View() string {
	logo := renderShimmerLogo(a.frame)
	logoPad := (a.width - lipgloss.Width(logo)) / 2
	if logoPad < 0 {
		logoPad = 0
	}
	header := strings.Repeat(" ", logoPad) + logo

	tabs := []struct {
		name string
		v    view
	}{
		{"lobby", viewLobby},
		{"game", viewGame},
		{"profile", viewProfile},
		{"hall", viewHall},
	}
	var tabLine []string
	for _, t := range tabs {
		name := t.name
		if t.v == viewHall && a.hall.unread > 0 && a.view != viewHall {
			name += fmt.Sprintf(" (%d)", a.hall.unread)
		}
		if t.v == a.view {
			tabLine = append(tabLine, selectedStyle.Underline(true).Render(name))
		} else {
			tabLine = append(tabLine, dimStyle.Render(name))
		}
	}
	if a.version != "" {
		tabLine = append(tabLine, metaStyle.Render(a.version))
	}
	header += "\n " + strings.Join(tabLine, "  ")

	noticeLine := ""
	if a.notice != nil && a.notice.target == a.view {
		noticeLine = " " + renderNotice(*a.notice)
	}

	var body, help string
	switch a.view {
	case viewLobby:
		body = a.lobby.View()
		help = " " + helpEntry("tab", "next") + "  " + helpEntry("enter", "play") + "  " + helpEntry("ctrl+n", "new id") + "  " + helpEntry("ctrl+y", "copy id") + "  " + helpEntry("ctrl+p", "profile") + "  " + helpEntry("ctrl+t", "hall") + "  " + helpEntry("ctrl+c", "quit")
	case viewGame:
		body = a.board.View()
		if a.board.info.Remote {
			help = " " + helpEntry("w/s ↑/↓", "move") + "  " + helpEntry("space", "stop") + "  " + helpEntry("esc", "leave") + "  " + helpEntry("q", "quit")
		} else {
			help = " " + helpEntry("w/s", "left") + "  " + helpEntry("↑/↓", "right") + "  " + helpEntry("esc", "leave") + "  " + helpEntry("q", "quit")
		}
	case viewProfile:
		body = a.profile.View()
		if a.profile.formVisible {
			help = " " + helpEntry("enter", "submit") + "  " + helpEntry("esc", "hide form")
		} else {
			help = " " + helpEntry("e", "change password") + "  " + helpEntry("esc", "lobby") + "  " + helpEntry("q", "quit")
		}
	case viewHall:
		body = a.hall.View()
		if a.hall.inputFocused {
			help = " " + helpEntry("enter", "send") + "  " + helpEntry("esc", "done")
		} else {
			help = " " + helpEntry("j/k", "select") + "  " + helpEntry("enter", "chat") + "  " + helpEntry("i", "type") + "  " + helpEntry("pgup/pgdn", "scroll") + "  " + helpEntry("esc", "lobby")
		}
	}

	chrome := 4
	body = strings.TrimRight(truncateToHeight(body, a.height-chrome), "\n")

	return fmt.Sprintf("%s\n%s\n%s\n%s", header, noticeLine, body, help)
}
