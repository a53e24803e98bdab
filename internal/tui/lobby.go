package tui

import (
	"fmt"
	"strings"

	"github.com/atotto/clipboard"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/google/uuid"
)

type lobbyField int

const (
	fieldGameID lobbyField = iota
	fieldPlayer1
	fieldPlayer2
	fieldRemote
	numLobbyFields
)

// startGameMsg asks the App to initialize a session with these settings.
type startGameMsg struct {
	gameID  string
	player1 string
	player2 string
	remote  bool
}

type lobbyModel struct {
	fields    [fieldRemote]string
	remote    bool
	focus     lobbyField
	statusMsg string
}

func newLobbyModel() lobbyModel {
	m := lobbyModel{remote: true}
	m.fields[fieldGameID] = uuid.NewString()
	m.fields[fieldPlayer1] = "player1"
	m.fields[fieldPlayer2] = "player2"
	return m
}

// setPlayer1 prefills the local player with the signed-in username.
func (m lobbyModel) setPlayer1(name string) lobbyModel {
	if name != "" && m.fields[fieldPlayer1] == "player1" {
		m.fields[fieldPlayer1] = name
	}
	return m
}

func (m lobbyModel) Update(msg tea.Msg) (lobbyModel, tea.Cmd) {
	if msg, ok := msg.(tea.KeyMsg); ok {
		return m.updateKeys(msg)
	}
	return m, nil
}

func (m lobbyModel) updateKeys(msg tea.KeyMsg) (lobbyModel, tea.Cmd) {
	m.statusMsg = ""

	switch msg.String() {
	case "ctrl+s":
		return m.submit()
	case "tab", "down":
		m.focus = (m.focus + 1) % numLobbyFields
	case "shift+tab", "up":
		m.focus = (m.focus - 1 + numLobbyFields) % numLobbyFields
	case "enter":
		if m.focus == fieldRemote {
			return m.submit()
		}
		m.focus++
	case "ctrl+n":
		m.fields[fieldGameID] = uuid.NewString()
	case "ctrl+y":
		if err := clipboard.WriteAll(m.fields[fieldGameID]); err != nil {
			m.statusMsg = "clipboard unavailable"
		} else {
			m.statusMsg = "game id copied"
		}
	default:
		if m.focus == fieldRemote {
			switch msg.String() {
			case " ", "h", "l", "left", "right":
				m.remote = !m.remote
			}
			return m, nil
		}
		f := &m.fields[m.focus]
		if msg.String() == "backspace" {
			*f = editRune(*f, "backspace")
			return m, nil
		}
		if msg.Type == tea.KeyRunes {
			for _, r := range msg.Runes {
				*f = editRune(*f, string(r))
			}
		}
	}
	return m, nil
}

func (m lobbyModel) submit() (lobbyModel, tea.Cmd) {
	gameID := strings.TrimSpace(m.fields[fieldGameID])
	p1 := strings.TrimSpace(m.fields[fieldPlayer1])
	p2 := strings.TrimSpace(m.fields[fieldPlayer2])

	switch {
	case gameID == "":
		m.statusMsg = "game id is required"
		return m, nil
	case p1 == "":
		m.statusMsg = "player 1 is required"
		return m, nil
	case p2 == "" && !m.remote:
		m.statusMsg = "player 2 is required for a local game"
		return m, nil
	}

	start := startGameMsg{gameID: gameID, player1: p1, player2: p2, remote: m.remote}
	return m, func() tea.Msg { return start }
}

func (m lobbyModel) View() string {
	var b strings.Builder

	labels := [numLobbyFields]string{"game", "player 1", "player 2", "mode"}
	b.WriteString("\n")
	for i := lobbyField(0); i < numLobbyFields; i++ {
		cursor := " "
		style := metaStyle
		if i == m.focus {
			cursor = ">"
			style = selectedStyle
		}

		if i == fieldRemote {
			mode := "local (w/s and ↑/↓ on this keyboard)"
			if m.remote {
				mode = "remote (opponent joins over the network)"
			}
			fmt.Fprintf(&b, " %s %s %s  %s\n", cursor, style.Render(fmt.Sprintf("%-9s", labels[i])), accentStyle.Render(mode), metaStyle.Render("(space to toggle)"))
			continue
		}
		value := m.fields[i]
		if i == m.focus {
			value += "█"
		}
		fmt.Fprintf(&b, " %s %s %s\n", cursor, style.Render(fmt.Sprintf("%-9s", labels[i])), normalStyle.Render(value))
	}

	b.WriteString("\n")
	if m.statusMsg != "" {
		b.WriteString(" " + goldStyle.Render(m.statusMsg))
	}
	return b.String()
}
