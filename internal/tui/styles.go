package tui

import (
	"fmt"
	"math"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
)

// Shimmer animation for the PONG logo.
type shimmerTickMsg time.Time

func shimmerTickCmd() tea.Cmd {
	return tea.Tick(80*time.Millisecond, func(t time.Time) tea.Msg {
		return shimmerTickMsg(t)
	})
}

// renderShimmerLogo renders "P O N G" as a wave of light travelling from the
// left paddle colour to the right one.
func renderShimmerLogo(frame int) string {
	const text = "PONG"
	n := len(text)
	t := float64(frame)

	var out string
	for i := 0; i < n; i++ {
		x := float64(i) / float64(n-1)

		phase := t*0.1 - x*3.0
		b := math.Sin(phase)*0.5 + 0.5
		b = b*0.7 + 0.3

		// Green (#4ade80) blends into red (#f87171) across the word.
		r := clampByte(b * (74 + x*(248-74)))
		g := clampByte(b * (222 + x*(113-222)))
		bl := clampByte(b * (128 + x*(113-128)))

		s := lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color(fmt.Sprintf("#%02X%02X%02X", r, g, bl)))
		out += s.Render(string(text[i]))

		if i < n-1 {
			out += "  "
		}
	}
	return out
}

func clampByte(v float64) int {
	if v > 255 {
		return 255
	}
	if v < 0 {
		return 0
	}
	return int(v)
}

var (
	dimStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#8890a0"))

	selectedStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#e4e4ec")).
			Bold(true)

	normalStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#c0c4d0"))

	metaStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#505868"))

	// Help bar
	helpKeyStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#8890a0"))

	helpLabelStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#505868"))

	accentStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#34d474"))

	rejectStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#b45555"))

	goldStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#d4a844"))

	inputPromptStyle = lipgloss.NewStyle().
				Foreground(lipgloss.Color("#34d474")).
				Bold(true)

	inputPlaceholderStyle = lipgloss.NewStyle().
				Foreground(lipgloss.Color("#343c4a"))

	presenceDotStyle = lipgloss.NewStyle().
				Foreground(lipgloss.Color("#34d474"))

	// Notices
	noticeAcceptStyle = lipgloss.NewStyle().
				Foreground(lipgloss.Color("#4ade80")).
				Bold(true)

	noticeErrorStyle = lipgloss.NewStyle().
				Foreground(lipgloss.Color("#f87171")).
				Bold(true)

	// Court
	borderColor = lipgloss.Color("#1e1e2a")

	courtLineStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#343c4a"))

	ballStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#e4e4ec")).
			Bold(true)
)

// Chat
var (
	chatSelfNameStyle = lipgloss.NewStyle().
				Foreground(lipgloss.Color("#e4e4ec"))

	chatInputNameStyle = lipgloss.NewStyle().
				Foreground(lipgloss.Color("#4ade80"))

	chatSelfTextStyle = lipgloss.NewStyle().
				Foreground(lipgloss.Color("#c0c4d0"))

	chatTextStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#8890a0"))

	chatSepStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#404858"))

	chatSysStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#404858"))

	presenceTitleStyle = lipgloss.NewStyle().
				Foreground(lipgloss.Color("#505868")).
				Bold(true)
)

// PaddleStyle returns a bold style in the paddle's 0xRRGGBB colour.
func PaddleStyle(color int) lipgloss.Style {
	return lipgloss.NewStyle().
		Foreground(lipgloss.Color(fmt.Sprintf("#%06x", color&0xffffff))).
		Bold(true)
}

// helpEntry renders a single "key label" pair for help bars.
func helpEntry(key, label string) string {
	return helpKeyStyle.Render(key) + " " + helpLabelStyle.Render(label)
}
