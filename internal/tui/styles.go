package tui

import "github.com/charmbracelet/lipgloss"

// styles contains the chrome styles used by the TUI.
var styles = struct {
	Header  lipgloss.Style
	Preset  lipgloss.Style
	Footer  lipgloss.Style
	Divider lipgloss.Style
	Error   lipgloss.Style
	Muted   lipgloss.Style

	Modal       lipgloss.Style
	ModalTitle  lipgloss.Style
	ModalLabel  lipgloss.Style
	ModalFooter lipgloss.Style
}{
	Header: lipgloss.NewStyle().
		Bold(true).
		Foreground(lipgloss.Color("212")),

	Preset: lipgloss.NewStyle().
		Foreground(lipgloss.Color("220")),

	Footer: lipgloss.NewStyle().
		Foreground(lipgloss.Color("245")),

	Divider: lipgloss.NewStyle().
		Foreground(lipgloss.Color("240")),

	Error: lipgloss.NewStyle().
		Foreground(lipgloss.Color("196")),

	Muted: lipgloss.NewStyle().
		Foreground(lipgloss.Color("240")).
		Italic(true),

	Modal: lipgloss.NewStyle().
		Border(lipgloss.RoundedBorder()).
		BorderForeground(lipgloss.Color("205")).
		Padding(1, 2),

	ModalTitle: lipgloss.NewStyle().
		Bold(true).
		Foreground(lipgloss.Color("205")),

	ModalLabel: lipgloss.NewStyle().Bold(true),

	ModalFooter: lipgloss.NewStyle().
		Foreground(lipgloss.Color("240")).
		Italic(true),
}

// paintStyles maps canvas paint layers to styles.
var paintStyles = map[paint]lipgloss.Style{
	paintLane: lipgloss.NewStyle().
		Foreground(lipgloss.Color("238")),
	paintLaneLabel: lipgloss.NewStyle().
		Bold(true).
		Foreground(lipgloss.Color("245")),
	paintEdge: lipgloss.NewStyle().
		Foreground(lipgloss.Color("244")),
	paintNode: lipgloss.NewStyle().
		Foreground(lipgloss.Color("252")),
	paintNodeCollapsed: lipgloss.NewStyle().
		Foreground(lipgloss.Color("214")),
	paintSelected: lipgloss.NewStyle().
		Bold(true).
		Foreground(lipgloss.Color("39")).
		Background(lipgloss.Color("236")),
}
