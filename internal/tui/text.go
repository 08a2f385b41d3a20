package tui

import (
	"fmt"
	"regexp"
	"strings"
)

var ansiPattern = regexp.MustCompile(`\x1b\[[0-9;]*[a-zA-Z]`)

// stripANSI removes terminal escape sequences from task text.
func stripANSI(s string) string {
	return ansiPattern.ReplaceAllString(s, "")
}

// truncate shortens s to maxLen runes, ending with "..." when cut.
func truncate(s string, maxLen int) string {
	if maxLen <= 0 {
		return ""
	}
	runes := []rune(s)
	if len(runes) <= maxLen {
		return s
	}
	if maxLen <= 3 {
		return string(runes[:maxLen])
	}
	return string(runes[:maxLen-3]) + "..."
}

// singleLine collapses whitespace so s fits on one row.
func singleLine(s string) string {
	return strings.Join(strings.Fields(stripANSI(s)), " ")
}

// wordWrap wraps text at word boundaries. Words longer than width are split.
func wordWrap(text string, width int) string {
	if width <= 0 {
		return text
	}

	var out []string
	for _, para := range strings.Split(text, "\n") {
		words := strings.Fields(para)
		if len(words) == 0 {
			out = append(out, "")
			continue
		}

		var line []rune
		for _, w := range words {
			word := []rune(w)
			for len(word) > width {
				if len(line) > 0 {
					out = append(out, string(line))
					line = nil
				}
				out = append(out, string(word[:width]))
				word = word[width:]
			}
			switch {
			case len(line) == 0:
				line = word
			case len(line)+1+len(word) <= width:
				line = append(append(line, ' '), word...)
			default:
				out = append(out, string(line))
				line = word
			}
		}
		if len(line) > 0 {
			out = append(out, string(line))
		}
	}
	return strings.Join(out, "\n")
}

// pluralize returns "1 task" or "3 tasks".
func pluralize(n int, singular, plural string) string {
	if n == 1 {
		return fmt.Sprintf("%d %s", n, singular)
	}
	return fmt.Sprintf("%d %s", n, plural)
}

// statusIcon maps a task status to a single-cell marker.
func statusIcon(status string) string {
	switch strings.ToLower(strings.TrimSpace(status)) {
	case "completed", "done":
		return "✓"
	case "started", "in progress", "in_progress":
		return "●"
	case "issues", "blocked":
		return "!"
	default:
		return "○"
	}
}

// safeWidth keeps lipgloss widths positive.
func safeWidth(w int) int {
	if w < 1 {
		return 1
	}
	return w
}

// safeHeight keeps heights positive.
func safeHeight(h int) int {
	if h < 1 {
		return 1
	}
	return h
}
