package tui

import (
	"time"

	tea "github.com/charmbracelet/bubbletea"
)

// Update implements tea.Model.
func (m model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		return m.handleKey(msg)

	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		m.pane.SetSize(msg.Width, m.height-headerHeight)
		m.modal.SetSize(msg.Width, msg.Height)

		m.resizeSeq++
		seq := m.resizeSeq
		settled := func(time.Time) tea.Msg { return resizeSettledMsg{seq: seq} }
		if m.resizeDebounce <= 0 {
			return m, func() tea.Msg { return settled(time.Now()) }
		}
		return m, tea.Tick(m.resizeDebounce, settled)

	case resizeSettledMsg:
		if msg.seq != m.resizeSeq {
			return m, nil
		}
		changed, err := m.engine.SetViewportWidth(float64(m.width) * m.cellWidth)
		if err != nil {
			m.logger.Warn("relayout after resize failed", "error", err)
		}
		if changed {
			m.pane.SetScene(m.engine.Scene())
		}
		return m, nil

	case sceneMsg:
		m.pane.SetScene(msg.scene)
		return m, waitForScene(m.scenes)

	case sourceChangedMsg:
		m.logger.Debug("task source changed, reloading")
		return m, tea.Batch(m.pane.Reload(), waitForChange(m.changes))

	case GraphOpenModalMsg:
		if !m.engine.Open(msg.NodeID) {
			return m, nil
		}
		return m, m.modal.Open(msg.NodeID)

	case modalFetchResultMsg:
		return m, m.modal.Update(msg)
	}

	var cmd tea.Cmd
	m.pane, cmd = m.pane.Update(msg)
	return m, cmd
}

func (m model) handleKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	if msg.String() == "ctrl+c" {
		return m.quit()
	}
	if m.modal.IsOpen() {
		return m, m.modal.Update(msg)
	}
	if msg.String() == "q" {
		return m.quit()
	}

	var cmd tea.Cmd
	m.pane, cmd = m.pane.Update(msg)
	return m, cmd
}

func (m model) quit() (tea.Model, tea.Cmd) {
	m.quitting = true
	if m.onQuit != nil {
		m.onQuit()
	}
	if m.unsubscribe != nil {
		m.unsubscribe()
	}
	return m, tea.Quit
}
