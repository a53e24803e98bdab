package tui

import (
	"time"

	tea "github.com/charmbracelet/bubbletea"
)

// noticeTTL is how long a notice stays on screen.
const noticeTTL = 4 * time.Second

type noticeKind int

const (
	noticeAccept noticeKind = iota
	noticeError
)

// noticeMsg asks the App to show a notice on the target view.
type noticeMsg struct {
	text   string
	kind   noticeKind
	target view
}

// noticeExpiredMsg clears the notice with the matching sequence number.
type noticeExpiredMsg struct {
	seq int
}

// notify returns a command that emits exactly one notice.
func notify(text string, kind noticeKind, target view) tea.Cmd {
	return func() tea.Msg {
		return noticeMsg{text: text, kind: kind, target: target}
	}
}

func expireNotice(seq int) tea.Cmd {
	return tea.Tick(noticeTTL, func(time.Time) tea.Msg {
		return noticeExpiredMsg{seq: seq}
	})
}

func renderNotice(n noticeMsg) string {
	if n.kind == noticeError {
		return noticeErrorStyle.Render("✗ " + n.text)
	}
	return noticeAcceptStyle.Render("✓ " + n.text)
}
