package tui

import (
	"strings"
	"testing"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/npratt/stagegraph/internal/graph"
	"github.com/npratt/stagegraph/internal/testutil"
)

func newTestModel(t *testing.T, onOpen func(string)) (model, *graph.Engine) {
	t.Helper()
	e := newTestEngine(t, onOpen)
	m := newModel(e, chainSource(t), testTUIConfig, nil, nil, nil)
	t.Cleanup(m.unsubscribe)

	updated, _ := m.Update(graphLoadResultMsg{tasks: parseTasks(t, testutil.ChainTasksJSON), requestID: m.pane.requestID})
	return updated.(model), e
}

func resize(t *testing.T, m model, w, h int) model {
	t.Helper()
	updated, cmd := m.Update(tea.WindowSizeMsg{Width: w, Height: h})
	if cmd == nil {
		t.Fatal("resize should schedule a settle command")
	}
	updated, _ = updated.Update(cmd())
	return updated.(model)
}

func TestModel_ResizeSelectsPreset(t *testing.T) {
	m, e := newTestModel(t, nil)

	m = resize(t, m, 80, 24)
	if got := e.Preset().Name; got != graph.PresetCompact {
		t.Errorf("80 cols * 10px: preset = %q, want compact", got)
	}
	if m.pane.Scene().Preset != graph.PresetCompact {
		t.Error("pane should show the relaid scene")
	}

	m = resize(t, m, 200, 40)
	if got := e.Preset().Name; got != graph.PresetExpanded {
		t.Errorf("200 cols * 10px: preset = %q, want expanded", got)
	}
}

func TestModel_StaleResizeIgnored(t *testing.T) {
	m, e := newTestModel(t, nil)

	updated, first := m.Update(tea.WindowSizeMsg{Width: 80, Height: 24})
	updated, _ = updated.Update(tea.WindowSizeMsg{Width: 200, Height: 40})
	updated, _ = updated.Update(first())

	if got := e.Preset().Name; got != graph.PresetExpanded {
		t.Errorf("superseded resize applied: preset = %q", got)
	}
	_ = updated
}

func TestModel_OpenModal(t *testing.T) {
	var opened []string
	m, _ := newTestModel(t, func(id string) { opened = append(opened, id) })
	m = resize(t, m, 100, 30)

	updated, cmd := m.Update(GraphOpenModalMsg{NodeID: "B"})
	m = updated.(model)
	if !m.modal.IsOpen() {
		t.Fatal("modal should open")
	}
	if len(opened) != 1 || opened[0] != "B" {
		t.Errorf("open hook calls = %v, want [B]", opened)
	}

	updated, _ = m.Update(cmd())
	m = updated.(model)
	if !strings.Contains(m.View(), "Write migrations") {
		t.Errorf("View() should render the modal:\n%s", m.View())
	}

	// keys go to the modal while it is open
	updated, cmd = m.Update(keyMsg("q"))
	m = updated.(model)
	if m.modal.IsOpen() || m.quitting || cmd != nil {
		t.Error("q should close the modal without quitting")
	}
}

func TestModel_OpenUnknownIsNoop(t *testing.T) {
	var opened int
	m, _ := newTestModel(t, func(string) { opened++ })

	updated, cmd := m.Update(GraphOpenModalMsg{NodeID: "S-1"})
	if updated.(model).modal.IsOpen() || cmd != nil || opened != 0 {
		t.Error("opening a group node should do nothing")
	}
}

func TestModel_SceneMsgUpdatesPane(t *testing.T) {
	m, e := newTestModel(t, nil)
	e.Toggle("A")

	updated, cmd := m.Update(sceneMsg{scene: e.Scene()})
	m = updated.(model)
	if cmd == nil {
		t.Error("sceneMsg should keep waiting on the subscription")
	}
	if n, _ := (graph.Graph{Nodes: m.pane.Scene().Nodes}).Node("B"); !n.Hidden {
		t.Error("pane should show B hidden")
	}
}

func TestModel_Quit(t *testing.T) {
	quit := false
	e := newTestEngine(t, nil)
	m := newModel(e, chainSource(t), testTUIConfig, nil, func() { quit = true }, nil)

	updated, cmd := m.Update(keyMsg("q"))
	if !updated.(model).quitting || !quit {
		t.Error("q should quit and call the hook")
	}
	if _, ok := cmd().(tea.QuitMsg); !ok {
		t.Error("q should return tea.Quit")
	}
	if updated.(model).View() != "" {
		t.Error("View() should be empty after quit")
	}
}

func TestModel_ViewStates(t *testing.T) {
	m, _ := newTestModel(t, nil)
	if m.View() != "Loading..." {
		t.Errorf("View() before size = %q", m.View())
	}

	m = resize(t, m, 40, 10)
	if !strings.Contains(m.View(), "too small") {
		t.Error("small terminal should show the too-small message")
	}

	m = resize(t, m, 120, 30)
	view := m.View()
	for _, want := range []string{"stagegraph", "Design", "Stage 1", "3 tasks"} {
		if !strings.Contains(view, want) {
			t.Errorf("View() missing %q:\n%s", want, view)
		}
	}
}
