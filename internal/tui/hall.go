package tui

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/naveenspark/pong/pkg/client"
	"github.com/naveenspark/pong/pkg/domain"
)

// socialTimeout bounds dials to the user service and friend lookups.
const socialTimeout = 10 * time.Second

// hallMaxMessages bounds the chat log kept in memory.
const hallMaxMessages = 200

// presenceWidth is the width of the friends column.
const presenceWidth = 24

// Social is the user-service realtime link the hall drives. *social.Hub
// satisfies it.
type Social interface {
	Start(ctx context.Context, username string) error
	OpenChat(ctx context.Context, peerID int) error
	SendChat(m domain.ChatMessage) error
	Stop()
	OnStatus(fn func(domain.StatusUpdate))
	OnChat(fn func(domain.ChatMessage))
	OnUnread(fn func(int))
}

// friendsLoadedMsg carries the signed-in user's friends.
type friendsLoadedMsg struct {
	friends []domain.User
	err     error
}

type presenceStartedMsg struct {
	err error
}

// presenceMsg is an online-status broadcast from the user service.
type presenceMsg struct {
	update domain.StatusUpdate
}

type chatOpenedMsg struct {
	peer domain.User
	err  error
}

// chatReceivedMsg is a message on the open chat, our own echoes included.
type chatReceivedMsg struct {
	msg domain.ChatMessage
	at  time.Time
}

type chatSentMsg struct {
	err error
}

// unreadMsg is the latest unread chat count.
type unreadMsg struct {
	count int
}

// chatMessage is a rendered message ready for display.
type chatMessage struct {
	Username  string
	Body      string
	CreatedAt time.Time
	IsSelf    bool
	IsSystem  bool
}

// hallModel lists friends with their live online status and runs one
// personal chat at a time.
type hallModel struct {
	client       *client.Client
	social       Social
	myName       string
	friends      []domain.User
	cursor       int
	peer         *domain.User
	messages     []chatMessage
	input        string
	inputFocused bool
	online       bool
	unread       int
	status       string // ephemeral status line
	err          string
	width        int
	height       int
	scroll       int // lines scrolled up from bottom (0 = at bottom)
}

func newHallModel(c *client.Client, s Social) hallModel {
	return hallModel{client: c, social: s}
}

// editing reports whether keystrokes belong to the chat input.
func (m hallModel) editing() bool {
	return m.inputFocused
}

// loadFriends fetches every friend profile by id.
func loadFriends(c *client.Client, ids []int) tea.Cmd {
	if c == nil || len(ids) == 0 {
		return nil
	}
	ids = append([]int(nil), ids...)
	return func() tea.Msg {
		ctx, cancel := context.WithTimeout(context.Background(), socialTimeout)
		defer cancel()
		friends := make([]domain.User, 0, len(ids))
		for _, id := range ids {
			u, err := c.GetUser(ctx, id)
			if err != nil {
				return friendsLoadedMsg{friends: friends, err: err}
			}
			friends = append(friends, *u)
		}
		return friendsLoadedMsg{friends: friends}
	}
}

// startPresence announces username as online.
func (m hallModel) startPresence(username string) tea.Cmd {
	s := m.social
	if s == nil || username == "" {
		return nil
	}
	return func() tea.Msg {
		ctx, cancel := context.WithTimeout(context.Background(), socialTimeout)
		defer cancel()
		return presenceStartedMsg{err: s.Start(ctx, username)}
	}
}

func (m hallModel) openChat(peer domain.User) tea.Cmd {
	s := m.social
	return func() tea.Msg {
		ctx, cancel := context.WithTimeout(context.Background(), socialTimeout)
		defer cancel()
		return chatOpenedMsg{peer: peer, err: s.OpenChat(ctx, peer.ID)}
	}
}

func (m hallModel) sendChat(body string) tea.Cmd {
	s := m.social
	msg := domain.ChatMessage{Message: body, Username: m.myName, Receiver: m.peer.Username}
	return func() tea.Msg {
		return chatSentMsg{err: s.SendChat(msg)}
	}
}

func (m hallModel) Update(msg tea.Msg) (hallModel, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height

	case userLoadedMsg:
		if msg.err != nil || msg.user == nil {
			return m, nil
		}
		m.myName = msg.user.Username
		return m, tea.Batch(loadFriends(m.client, msg.user.Friends), m.startPresence(m.myName))

	case friendsLoadedMsg:
		if msg.err != nil {
			m.err = msg.err.Error()
		} else {
			m.err = ""
		}
		m.friends = msg.friends
		sort.SliceStable(m.friends, func(i, j int) bool {
			return m.friends[i].Username < m.friends[j].Username
		})
		if m.cursor >= len(m.friends) {
			m.cursor = max(0, len(m.friends)-1)
		}

	case presenceStartedMsg:
		if msg.err != nil {
			m.online = false
			m.status = "offline: " + msg.err.Error()
			return m, nil
		}
		m.online = true

	case presenceMsg:
		u := msg.update
		if u.Username == m.myName {
			return m, nil
		}
		for i := range m.friends {
			if m.friends[i].Username != u.Username || m.friends[i].OnlineStatus == u.OnlineStatus {
				continue
			}
			m.friends[i].OnlineStatus = u.OnlineStatus
			text := u.Username + " is online"
			if !u.OnlineStatus {
				text = u.Username + " went offline"
			}
			m = m.appendMessage(chatMessage{IsSystem: true, Body: text})
		}

	case chatOpenedMsg:
		if msg.err != nil {
			m.status = "could not open chat: " + msg.err.Error()
			return m, nil
		}
		peer := msg.peer
		m.peer = &peer
		m.messages = nil
		m.scroll = 0
		m.status = ""
		m.inputFocused = true
		m = m.appendMessage(chatMessage{IsSystem: true, Body: "chat with " + peer.Username})

	case chatReceivedMsg:
		if m.peer == nil {
			return m, nil
		}
		m = m.appendMessage(chatMessage{
			Username:  msg.msg.Username,
			Body:      msg.msg.Message,
			CreatedAt: msg.at,
			IsSelf:    msg.msg.Username == m.myName,
		})
		m.scroll = 0

	case chatSentMsg:
		if msg.err != nil {
			m.status = "error: " + msg.err.Error()
		}

	case unreadMsg:
		m.unread = msg.count

	case tea.KeyMsg:
		if m.inputFocused {
			return m.updateInput(msg)
		}
		return m.updateNav(msg)
	}
	return m, nil
}

func (m hallModel) appendMessage(cm chatMessage) hallModel {
	m.messages = append(m.messages, cm)
	if len(m.messages) > hallMaxMessages {
		trimmed := make([]chatMessage, hallMaxMessages)
		copy(trimmed, m.messages[len(m.messages)-hallMaxMessages:])
		m.messages = trimmed
	}
	return m
}

// updateInput handles key events when the chat input is focused.
func (m hallModel) updateInput(msg tea.KeyMsg) (hallModel, tea.Cmd) {
	switch key := msg.String(); key {
	case "esc":
		m.inputFocused = false
		m.status = ""
	case "enter":
		body := strings.TrimSpace(m.input)
		if body == "" {
			return m, nil
		}
		if m.myName == "" || m.social == nil {
			m.status = "run: pong auth <user-id> <token>"
			return m, nil
		}
		if m.peer == nil {
			m.status = "pick a friend first"
			return m, nil
		}
		m.input = ""
		m.status = ""
		return m, m.sendChat(body)
	default:
		m.input = editRune(m.input, key)
	}
	return m, nil
}

// updateNav handles key events when the input is not focused.
func (m hallModel) updateNav(msg tea.KeyMsg) (hallModel, tea.Cmd) {
	switch msg.String() {
	case "j", "down":
		if m.cursor < len(m.friends)-1 {
			m.cursor++
		}
	case "k", "up":
		if m.cursor > 0 {
			m.cursor--
		}
	case "pgup":
		if m.scroll < len(m.messages)*3 {
			m.scroll++
		}
	case "pgdown":
		if m.scroll > 0 {
			m.scroll--
		}
	case "enter":
		if len(m.friends) == 0 || m.social == nil {
			return m, nil
		}
		friend := m.friends[m.cursor]
		if m.peer != nil && m.peer.ID == friend.ID {
			m.inputFocused = true
			return m, nil
		}
		return m, m.openChat(friend)
	case "i", "/":
		if m.peer != nil {
			m.inputFocused = true
			m.status = ""
		}
	}
	return m, nil
}

// View renders the friends column next to the chat.
func (m hallModel) View() string {
	height := m.height
	if height < 6 {
		height = 6
	}
	left := lipgloss.NewStyle().Width(presenceWidth).Height(height).Render(m.renderPresence())
	chatWidth := m.width - presenceWidth - 1
	if chatWidth < 30 {
		chatWidth = 30
	}
	right := lipgloss.NewStyle().Width(chatWidth).Render(m.renderChat(chatWidth, height))
	return lipgloss.JoinHorizontal(lipgloss.Top, left, " ", right)
}

func (m hallModel) renderPresence() string {
	var b strings.Builder
	b.WriteString(" " + presenceTitleStyle.Render("friends"))
	if m.online {
		b.WriteString("  " + presenceDotStyle.Render("●") + " " + dimStyle.Render("online"))
	} else {
		b.WriteString("  " + dimStyle.Render("○ offline"))
	}
	b.WriteString("\n\n")

	switch {
	case m.err != "" && len(m.friends) == 0:
		b.WriteString(" " + rejectStyle.Render("could not load friends") + "\n")
	case len(m.friends) == 0:
		b.WriteString(" " + dimStyle.Render("no friends yet") + "\n")
	}
	for i, f := range m.friends {
		cursor := "  "
		name := normalStyle.Render(f.Username)
		if i == m.cursor {
			cursor = " >"
			name = selectedStyle.Render(f.Username)
		}
		dot := dimStyle.Render("○")
		if f.OnlineStatus {
			dot = presenceDotStyle.Render("●")
		}
		fmt.Fprintf(&b, "%s %s %s\n", cursor, dot, name)
	}
	if m.unread > 0 {
		fmt.Fprintf(&b, "\n %s\n", goldStyle.Render(fmt.Sprintf("%d unread", m.unread)))
	}
	return b.String()
}

func (m hallModel) renderChat(width, height int) string {
	var b strings.Builder

	title := dimStyle.Render("select a friend and press enter to chat")
	if m.peer != nil {
		title = selectedStyle.Render(m.peer.Username)
	}
	b.WriteString(" " + title + "\n")

	chrome := 2 // title + input
	if m.status != "" {
		chrome++
	}
	viewportHeight := height - chrome
	if viewportHeight < 2 {
		viewportHeight = 2
	}
	b.WriteString(m.renderMessages(width, viewportHeight))
	b.WriteString(m.renderInput())
	if m.status != "" {
		b.WriteString("\n " + dimStyle.Render(m.status))
	}
	return b.String()
}

// renderMessages renders the chat log clipped to viewportHeight lines,
// respecting the scroll offset. Newest messages appear at the bottom.
func (m hallModel) renderMessages(width, viewportHeight int) string {
	var allLines []string
	for _, msg := range m.messages {
		allLines = append(allLines, strings.Split(m.renderMessage(msg, width), "\n")...)
	}

	total := len(allLines)
	maxScroll := max(0, total-viewportHeight)
	scroll := min(m.scroll, maxScroll)
	end := total - scroll
	start := max(0, end-viewportHeight)
	visible := allLines[start:end]

	var b strings.Builder
	padLines(viewportHeight-len(visible), &b)
	for _, line := range visible {
		b.WriteString(line)
		b.WriteByte('\n')
	}
	return b.String()
}

// renderMessage renders a single chat message, wrapping the body to width.
func (m hallModel) renderMessage(msg chatMessage, width int) string {
	if msg.IsSystem {
		return " " + chatSysStyle.Render("· "+msg.Body+" ·")
	}

	timePart := metaStyle.Render(fmt.Sprintf("%8s", formatChatTime(msg.CreatedAt)))
	sep := chatSepStyle.Render(" · ")
	namePart := chatTextStyle.Render(msg.Username)
	bodyStyle := chatTextStyle
	if msg.IsSelf {
		namePart = chatSelfNameStyle.Render(msg.Username)
		bodyStyle = chatSelfTextStyle
	}

	prefixWidth := 1 + 8 + 2 + lipgloss.Width(namePart) + 3
	bodyWidth := max(20, width-prefixWidth)
	lines := strings.Split(hardWrap(msg.Body, bodyWidth), "\n")

	result := " " + timePart + "  " + namePart + sep + bodyStyle.Render(lines[0])
	indent := strings.Repeat(" ", prefixWidth)
	for _, line := range lines[1:] {
		result += "\n" + indent + bodyStyle.Render(line)
	}
	return result
}

func (m hallModel) renderInput() string {
	const timeIndent = "           " // " " + 8-char timestamp + "  "
	name := m.myName
	if name == "" {
		name = "you"
	}
	namePart := chatInputNameStyle.Render(name)
	sep := chatSepStyle.Render(" · ")
	if !m.inputFocused {
		placeholder := "press i to type"
		if m.peer == nil {
			placeholder = "no chat open"
		}
		if m.input != "" {
			return timeIndent + namePart + sep + dimStyle.Render(m.input)
		}
		return timeIndent + namePart + sep + inputPlaceholderStyle.Render(placeholder)
	}
	return timeIndent + namePart + sep + normalStyle.Render(m.input) + accentStyle.Render("█")
}

// padLines writes blank lines to fill dead space above sparse message lists.
func padLines(n int, b *strings.Builder) {
	for i := 0; i < n; i++ {
		b.WriteByte('\n')
	}
}

// formatChatTime formats a message timestamp as a short wall-clock time (H:MM).
// For messages older than today it shows "Nd ago" to save column space.
func formatChatTime(t time.Time) string {
	if t.IsZero() {
		return ""
	}
	now := time.Now()
	y1, mo1, d1 := t.Date()
	y2, mo2, d2 := now.Date()
	if y1 == y2 && mo1 == mo2 && d1 == d2 {
		return fmt.Sprintf("%d:%02d", t.Hour(), t.Minute())
	}
	days := int(now.Sub(t).Hours() / 24)
	if days < 1 {
		days = 1
	}
	return fmt.Sprintf("%dd ago", days)
}

// hardWrap breaks lines that exceed width at rune boundaries.
func hardWrap(s string, width int) string {
	if width <= 0 {
		return s
	}
	var result []string
	for _, line := range strings.Split(s, "\n") {
		if lipgloss.Width(line) <= width {
			result = append(result, line)
			continue
		}
		runes := []rune(line)
		for len(runes) > 0 {
			end := len(runes)
			for end > 0 && lipgloss.Width(string(runes[:end])) > width {
				end--
			}
			if end == 0 {
				end = 1 // at least one rune per line to avoid an infinite loop
			}
			result = append(result, string(runes[:end]))
			runes = runes[end:]
		}
	}
	return strings.Join(result, "\n")
}
