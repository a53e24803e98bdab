package tui

import (
	"context"
	"errors"
	"fmt"
	"log"
	"strings"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/naveenspark/pong/pkg/client"
	"github.com/naveenspark/pong/pkg/domain"
)

type userLoadedMsg struct {
	user *domain.User
	err  error
}

type passwordUpdatedMsg struct {
	user *domain.User
	err  error
}

// profileModel is the profile modal with its password update form.
type profileModel struct {
	client      *client.Client
	creds       domain.Credentials
	user        *domain.User
	loadErr     string
	formVisible bool
	newPassword string
	submitting  bool
	width       int
}

func newProfileModel(c *client.Client, creds domain.Credentials) profileModel {
	return profileModel{client: c, creds: creds}
}

func (m profileModel) loadUser() tea.Cmd {
	if m.client == nil || !m.creds.Valid() {
		return nil
	}
	c, id := m.client, m.creds.UserID
	return func() tea.Msg {
		u, err := c.GetUser(context.Background(), id)
		return userLoadedMsg{user: u, err: err}
	}
}

// editing reports whether keystrokes belong to the password input.
func (m profileModel) editing() bool {
	return m.formVisible
}

func (m profileModel) toggleForm() profileModel {
	m.formVisible = !m.formVisible
	return m
}

func (m profileModel) Update(msg tea.Msg) (profileModel, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width

	case userLoadedMsg:
		if msg.err != nil {
			m.loadErr = msg.err.Error()
		} else {
			m.user = msg.user
			m.loadErr = ""
		}

	case passwordUpdatedMsg:
		m.submitting = false
		m.newPassword = ""
		if msg.err != nil {
			log.Printf("error updating password: %v", msg.err)
			text := "Error updating password"
			var httpErr *client.HTTPError
			if errors.As(msg.err, &httpErr) && httpErr.Message != "" {
				text += ": " + httpErr.Message
			}
			return m, notify(text, noticeError, viewProfile)
		}
		if msg.user != nil {
			log.Printf("password updated successfully for %s", msg.user.Username)
		}
		m.formVisible = false
		return m, notify("Password updated successfully", noticeAccept, viewProfile)

	case tea.KeyMsg:
		return m.updateKeys(msg)
	}
	return m, nil
}

func (m profileModel) updateKeys(msg tea.KeyMsg) (profileModel, tea.Cmd) {
	if !m.formVisible {
		if msg.String() == "e" {
			m = m.toggleForm()
		}
		return m, nil
	}
	if m.submitting {
		return m, nil
	}

	switch msg.String() {
	case "esc":
		m = m.toggleForm()
	case "enter":
		return m.submit()
	case "backspace":
		m.newPassword = editRune(m.newPassword, "backspace")
	default:
		if msg.Type == tea.KeyRunes || msg.Type == tea.KeySpace {
			for _, r := range msg.Runes {
				m.newPassword = editRune(m.newPassword, string(r))
			}
		}
	}
	return m, nil
}

func (m profileModel) submit() (profileModel, tea.Cmd) {
	if m.newPassword == "" {
		log.Print("password cannot be empty")
		return m, nil
	}
	if m.client == nil || !m.creds.Valid() {
		m.newPassword = ""
		return m, notify("Error updating password: not signed in (run pong auth)", noticeError, viewProfile)
	}

	m.submitting = true
	c, id, pw := m.client, m.creds.UserID, m.newPassword
	return m, func() tea.Msg {
		u, err := c.UpdatePassword(context.Background(), id, pw)
		return passwordUpdatedMsg{user: u, err: err}
	}
}

func (m profileModel) View() string {
	var sb strings.Builder

	switch {
	case m.user != nil:
		sb.WriteString(selectedStyle.Render(m.user.Username))
		if m.user.OnlineStatus {
			sb.WriteString("  " + presenceDotStyle.Render("●") + " " + presenceDotStyle.Render("online"))
		}
		sb.WriteString("\n")
		if m.user.Email != "" {
			sb.WriteString(metaStyle.Render(m.user.Email) + "\n")
		}
		sb.WriteString(metaStyle.Render(fmt.Sprintf("%d friends", len(m.user.Friends))) + "\n")
	case m.loadErr != "":
		sb.WriteString(rejectStyle.Render("profile unavailable: "+m.loadErr) + "\n")
	case !m.creds.Valid():
		sb.WriteString(dimStyle.Render("not signed in. run: pong auth <user-id> <token>") + "\n")
	default:
		sb.WriteString(dimStyle.Render("loading...") + "\n")
	}

	sb.WriteString("\n")
	if !m.formVisible {
		sb.WriteString(helpKeyStyle.Render("e") + " " + helpLabelStyle.Render("change password"))
	} else {
		sb.WriteString(goldStyle.Render("Update password") + "\n")
		value := inputPlaceholderStyle.Render("new password")
		if m.newPassword != "" {
			value = normalStyle.Render(mask(m.newPassword))
		}
		sb.WriteString(inputPromptStyle.Render("> ") + value + accentStyle.Render("█") + "\n")
		if m.submitting {
			sb.WriteString(dimStyle.Render("updating..."))
		}
	}

	cardWidth := min(50, m.width-4)
	if cardWidth < 30 {
		cardWidth = 30
	}
	border := lipgloss.NewStyle().
		Border(lipgloss.RoundedBorder()).
		BorderForeground(borderColor).
		Padding(1, 2).
		Width(cardWidth)
	return "\n" + border.Render(sb.String())
}
