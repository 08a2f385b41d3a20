package tui

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"
)

const (
	minWidth     = 60
	minHeight    = 15
	headerHeight = 2
)

// View implements tea.Model.
func (m model) View() string {
	if m.quitting {
		return ""
	}
	if m.width == 0 || m.height == 0 {
		return "Loading..."
	}
	if m.width < minWidth || m.height < minHeight {
		return m.renderTooSmall()
	}

	if m.modal.IsOpen() {
		return lipgloss.Place(m.width, m.height, lipgloss.Center, lipgloss.Center,
			m.modal.View(m.width, m.height))
	}

	sections := []string{
		m.renderHeader(),
		styles.Divider.Render(strings.Repeat("─", safeWidth(m.width))),
		m.pane.View(),
	}
	return strings.Join(sections, "\n")
}

func (m model) renderHeader() string {
	scene := m.pane.Scene()
	left := styles.Header.Render("stagegraph")
	right := ""
	if scene.Preset != "" {
		right = styles.Preset.Render(fmt.Sprintf("%s %s", scene.Preset, scene.Direction))
	}
	gap := safeWidth(m.width - lipgloss.Width(left) - lipgloss.Width(right))
	return left + strings.Repeat(" ", gap) + right
}

func (m model) renderTooSmall() string {
	msg := fmt.Sprintf("Terminal too small (%dx%d)\nNeed at least %dx%d", m.width, m.height, minWidth, minHeight)
	return lipgloss.Place(m.width, m.height, lipgloss.Center, lipgloss.Center, styles.Error.Render(msg))
}
