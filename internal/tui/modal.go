package tui

import (
	"context"
	"fmt"
	"strings"
	"time"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/npratt/stagegraph/internal/graph"
	"github.com/npratt/stagegraph/internal/taskstore"
)

// TaskFetcher resolves the full record behind a task node.
type TaskFetcher func(ctx context.Context, id string) (taskstore.Task, error)

// DetailModal displays a task's details in an overlay.
type DetailModal struct {
	fetcher   TaskFetcher
	taskID    string
	task      *taskstore.Task
	loading   bool
	errorMsg  string
	width     int
	height    int
	scrollPos int
	open      bool
	requestID int
}

// modalFetchResultMsg carries the result of a task fetch.
type modalFetchResultMsg struct {
	task      taskstore.Task
	err       error
	requestID int
}

// NewDetailModal creates a DetailModal.
func NewDetailModal(fetcher TaskFetcher) *DetailModal {
	return &DetailModal{fetcher: fetcher}
}

// Open shows the modal for taskID and starts fetching its details.
func (m *DetailModal) Open(taskID string) tea.Cmd {
	m.open = true
	m.taskID = taskID
	m.task = nil
	m.loading = true
	m.errorMsg = ""
	m.scrollPos = 0
	m.requestID++

	if m.fetcher == nil {
		m.loading = false
		return nil
	}

	reqID := m.requestID
	fetcher := m.fetcher
	return func() tea.Msg {
		ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()

		task, err := fetcher(ctx, taskID)
		return modalFetchResultMsg{task: task, err: err, requestID: reqID}
	}
}

// Close hides the modal.
func (m *DetailModal) Close() {
	m.open = false
	m.taskID = ""
	m.task = nil
	m.loading = false
	m.errorMsg = ""
	m.scrollPos = 0
}

// IsOpen reports whether the modal is shown.
func (m *DetailModal) IsOpen() bool {
	return m.open
}

// TaskID returns the task the modal is showing.
func (m *DetailModal) TaskID() string {
	return m.taskID
}

// SetSize updates the modal's parent dimensions.
func (m *DetailModal) SetSize(width, height int) {
	m.width = width
	m.height = height
}

// Update handles messages for the modal.
func (m *DetailModal) Update(msg tea.Msg) tea.Cmd {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		return m.handleKey(msg)

	case modalFetchResultMsg:
		if msg.requestID != m.requestID || !m.open {
			return nil
		}
		m.loading = false
		if msg.err != nil {
			m.errorMsg = msg.err.Error()
			return nil
		}
		task := msg.task
		m.task = &task
		m.errorMsg = ""
	}
	return nil
}

func (m *DetailModal) handleKey(msg tea.KeyMsg) tea.Cmd {
	switch msg.String() {
	case "esc", "enter", "q":
		m.Close()
	case "up", "k":
		if m.scrollPos > 0 {
			m.scrollPos--
		}
	case "down", "j":
		// capped in View
		m.scrollPos++
	case "home", "g":
		m.scrollPos = 0
	case "end", "G":
		m.scrollPos = 9999
	}
	return nil
}

// View renders the modal sized to its parent.
func (m *DetailModal) View(parentWidth, parentHeight int) string {
	if !m.open {
		return ""
	}

	modalWidth := max(40, parentWidth*80/100)
	modalHeight := max(10, parentHeight*80/100)
	textWidth := safeWidth(modalWidth - 6)

	var content strings.Builder
	content.WriteString(styles.ModalTitle.Render(truncate(m.taskID, textWidth)))
	content.WriteString("\n")
	content.WriteString(styles.Muted.Render(graph.DetailRoute(m.taskID)))
	content.WriteString("\n\n")

	switch {
	case m.loading:
		content.WriteString(styles.Muted.Render("Loading task..."))
		content.WriteString("\n")
	case m.errorMsg != "":
		content.WriteString(styles.Error.Render("Error: " + m.errorMsg))
		content.WriteString("\n")
	case m.task != nil:
		content.WriteString(m.renderTask(textWidth))
	}

	lines := strings.Split(content.String(), "\n")
	visible := max(3, modalHeight-6)
	maxScroll := max(0, len(lines)-visible)
	if m.scrollPos > maxScroll {
		m.scrollPos = maxScroll
	}
	end := min(len(lines), m.scrollPos+visible)

	hint := "[Enter/Esc] close | [j/k] scroll"
	if maxScroll > 0 {
		hint += fmt.Sprintf(" | Line %d/%d", m.scrollPos+1, len(lines))
	}

	body := strings.Join(lines[m.scrollPos:end], "\n") + "\n\n" + styles.ModalFooter.Render(hint)
	return styles.Modal.
		Width(modalWidth).
		Height(modalHeight).
		Render(body)
}

func (m *DetailModal) renderTask(width int) string {
	t := m.task
	var sb strings.Builder

	section := func(label, text string) {
		sb.WriteString(styles.ModalLabel.Render(label))
		sb.WriteString("\n")
		sb.WriteString(wordWrap(text, width))
		sb.WriteString("\n\n")
	}

	section("Title:", stripANSI(t.Title))

	status := t.Status
	if status == "" {
		status = "Not Started"
	}
	sb.WriteString(fmt.Sprintf("%s %s | Stage: %s", statusIcon(status), status, t.Stage))
	if !t.IsVisible {
		sb.WriteString(" | hidden")
	}
	sb.WriteString("\n\n")

	if t.Description != "" {
		section("Description:", stripANSI(t.Description))
	}
	if len(t.ChildTasks) > 0 {
		sb.WriteString(styles.ModalLabel.Render("Child tasks:"))
		sb.WriteString("\n")
		for _, id := range t.ChildTasks {
			sb.WriteString("  - " + id + "\n")
		}
	}
	return sb.String()
}
