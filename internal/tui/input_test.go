package tui

import (
	"strings"
	"testing"
	"unicode/utf8"
)

func TestEditRuneAddCharacters(t *testing.T) {
	tests := []struct {
		name  string
		start string
		key   string
		want  string
	}{
		{"append to empty", "", "a", "a"},
		{"append letter", "pon", "g", "pong"},
		{"append digit", "abc", "1", "abc1"},
		{"append space", "hello", " ", "hello "},
		{"append special", "abc", "!", "abc!"},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			got := editRune(tc.start, tc.key)
			if got != tc.want {
				t.Errorf("editRune(%q, %q) = %q, want %q", tc.start, tc.key, got, tc.want)
			}
		})
	}
}

func TestEditRuneBackspace(t *testing.T) {
	tests := []struct {
		name  string
		start string
		want  string
	}{
		{"backspace on single char", "a", ""},
		{"backspace on longer string", "hello", "hell"},
		{"backspace on empty does nothing", "", ""},
		{"backspace removes whole rune", "hellé", "hell"},
		{"backspace removes emoji", "hello\U0001f600", "hello"},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			got := editRune(tc.start, "backspace")
			if got != tc.want {
				t.Errorf("editRune(%q, 'backspace') = %q, want %q", tc.start, got, tc.want)
			}
		})
	}
}

func TestEditRuneIgnoresNonPrintableKeys(t *testing.T) {
	original := "abc"
	for _, key := range []string{"enter", "esc", "tab", "ctrl+c", "up", "shift+tab"} {
		t.Run(key, func(t *testing.T) {
			got := editRune(original, key)
			if got != original {
				t.Errorf("editRune(%q, %q) = %q, want unchanged %q", original, key, got, original)
			}
		})
	}
}

func TestEditRuneMaxInputLen(t *testing.T) {
	atLimit := strings.Repeat("a", maxInputLen)
	belowLimit := strings.Repeat("a", maxInputLen-1)
	cjkAtLimit := strings.Repeat("你", maxInputLen)

	tests := []struct {
		name string
		text string
		key  string
		want string
	}{
		{"below limit accepts", belowLimit, "b", belowLimit + "b"},
		{"at limit rejects", atLimit, "b", atLimit},
		{"limit counts runes not bytes", cjkAtLimit, "x", cjkAtLimit},
		{"at limit backspace still works", atLimit, "backspace", atLimit[:len(atLimit)-1]},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := editRune(tt.text, tt.key)
			if got != tt.want {
				t.Errorf("editRune(..., %q): len(got)=%d runes, len(want)=%d runes",
					tt.key, utf8.RuneCountInString(got), utf8.RuneCountInString(tt.want))
			}
		})
	}
}

func TestTruncateToHeightLimitsLines(t *testing.T) {
	input := "line1\nline2\nline3\nline4\nline5\n"
	result := truncateToHeight(input, 3)

	if lines := strings.Count(result, "\n"); lines > 3 {
		t.Errorf("truncateToHeight(5 lines, 3) produced %d newlines, want <= 3", lines)
	}
	if !strings.Contains(result, "line1") {
		t.Errorf("truncateToHeight result missing first line: %q", result)
	}
	if strings.Contains(result, "line4") {
		t.Errorf("truncateToHeight result should not contain line4: %q", result)
	}
}

func TestTruncateToHeightReturnsFullStringWhenWithinLimit(t *testing.T) {
	input := "a\nb\n"
	if got := truncateToHeight(input, 10); got != input {
		t.Errorf("truncateToHeight with maxLines > linecount: got %q, want %q", got, input)
	}
	if got := truncateToHeight(input, 0); got != input {
		t.Errorf("truncateToHeight with maxLines 0: got %q, want %q", got, input)
	}
}

func TestMask(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{"", ""},
		{"abc", "•••"},
		{"pässwörd", "••••••••"},
	}
	for _, tc := range tests {
		if got := mask(tc.in); got != tc.want {
			t.Errorf("mask(%q) = %q, want %q", tc.in, got, tc.want)
		}
	}
}
