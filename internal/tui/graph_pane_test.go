package tui

import (
	"errors"
	"strings"
	"testing"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/npratt/stagegraph/internal/graph"
	"github.com/npratt/stagegraph/internal/testutil"
)

func keyMsg(s string) tea.KeyMsg {
	switch s {
	case "enter":
		return tea.KeyMsg{Type: tea.KeyEnter}
	case "esc":
		return tea.KeyMsg{Type: tea.KeyEsc}
	case " ":
		return tea.KeyMsg{Type: tea.KeySpace, Runes: []rune{' '}}
	case "right":
		return tea.KeyMsg{Type: tea.KeyRight}
	case "left":
		return tea.KeyMsg{Type: tea.KeyLeft}
	case "ctrl+c":
		return tea.KeyMsg{Type: tea.KeyCtrlC}
	}
	return tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune(s)}
}

func TestGraphPane_LoadSelectsFirstTask(t *testing.T) {
	p, _ := loadedPane(t)

	if !p.Scene().Ready {
		t.Fatal("scene should be ready after load")
	}
	if p.Selected() != "A" {
		t.Errorf("Selected() = %q, want A", p.Selected())
	}
	if p.loading {
		t.Error("loading should be cleared")
	}
}

func TestGraphPane_DiscardsStaleLoad(t *testing.T) {
	e := newTestEngine(t, nil)
	p := NewGraphPane(e, chainSource(t), 10, 20)
	_ = p.Reload()
	stale := p.requestID
	_ = p.Reload()

	p, _ = p.Update(graphLoadResultMsg{tasks: parseTasks(t, testutil.ChainTasksJSON), requestID: stale})
	if p.Scene().Ready {
		t.Error("stale load result should be ignored")
	}
	if !p.loading {
		t.Error("pane should still be loading")
	}
}

func TestGraphPane_LoadError(t *testing.T) {
	e := newTestEngine(t, nil)
	p := NewGraphPane(e, chainSource(t), 10, 20)
	p.SetSize(80, 10)
	_ = p.Reload()

	p, _ = p.Update(graphLoadResultMsg{err: errors.New("disk gone"), requestID: p.requestID})
	if !strings.Contains(p.View(), "disk gone") {
		t.Errorf("View() should show load error, got:\n%s", p.View())
	}
}

func TestGraphPane_EmptyView(t *testing.T) {
	e := newTestEngine(t, nil)
	p := NewGraphPane(e, nil, 10, 20)
	p.SetSize(80, 10)

	if cmd := p.Reload(); cmd != nil {
		t.Error("Reload() without a source should be a no-op")
	}
	if !strings.Contains(p.View(), "No tasks to display") {
		t.Errorf("View() = %q, want empty message", p.View())
	}
}

func TestGraphPane_MoveSelection(t *testing.T) {
	p, _ := loadedPane(t)

	p, _ = p.Update(keyMsg("right"))
	if p.Selected() != "B" {
		t.Fatalf("after right: Selected() = %q, want B", p.Selected())
	}
	p, _ = p.Update(keyMsg("l"))
	if p.Selected() != "C" {
		t.Fatalf("after l: Selected() = %q, want C", p.Selected())
	}
	p, _ = p.Update(keyMsg("l"))
	if p.Selected() != "C" {
		t.Errorf("moving past the last node should keep C, got %q", p.Selected())
	}
	p, _ = p.Update(keyMsg("h"))
	if p.Selected() != "B" {
		t.Errorf("after h: Selected() = %q, want B", p.Selected())
	}
}

func TestGraphPane_ToggleHidesSubtree(t *testing.T) {
	p, e := loadedPane(t)

	p, _ = p.Update(keyMsg("t"))

	g := e.Graph()
	for _, id := range []string{"B", "C"} {
		if n, _ := g.Node(id); !n.Hidden {
			t.Errorf("%s should be hidden after toggle", id)
		}
	}
	if !strings.Contains(p.View(), "2 hidden") {
		t.Errorf("status bar should count hidden tasks:\n%s", p.View())
	}

	p, _ = p.Update(keyMsg(" "))
	if n, _ := e.Graph().Node("C"); n.Hidden {
		t.Error("second toggle should show C again")
	}
	if strings.Contains(p.View(), "hidden") {
		t.Error("status bar should drop the hidden count")
	}
}

func TestGraphPane_EnterRequestsModal(t *testing.T) {
	p, _ := loadedPane(t)

	_, cmd := p.Update(keyMsg("enter"))
	if cmd == nil {
		t.Fatal("enter should return a command")
	}
	msg, ok := cmd().(GraphOpenModalMsg)
	if !ok || msg.NodeID != "A" {
		t.Errorf("cmd() = %#v, want GraphOpenModalMsg{A}", msg)
	}
}

func TestGraphPane_ReloadKey(t *testing.T) {
	p, _ := loadedPane(t)
	before := p.requestID

	p, cmd := p.Update(keyMsg("R"))
	if cmd == nil || !p.loading || p.requestID != before+1 {
		t.Error("R should start a reload")
	}
}

func TestGraphPane_Pan(t *testing.T) {
	p, _ := loadedPane(t)
	p.panX, p.panY = 0, 0

	p, _ = p.Update(keyMsg("H"))
	if p.panX != 0 {
		t.Errorf("panX = %d, should not go negative", p.panX)
	}
	p, _ = p.Update(keyMsg("L"))
	if p.panX != panStep {
		t.Errorf("panX = %d, want %d", p.panX, panStep)
	}
	p, _ = p.Update(keyMsg("J"))
	if p.panY != panStep/2 {
		t.Errorf("panY = %d, want %d", p.panY, panStep/2)
	}
}

func TestGraphPane_EnsureVisibleFollowsSelection(t *testing.T) {
	p, _ := loadedPane(t)
	p.SetSize(20, 10)

	p, _ = p.Update(keyMsg("right"))
	p, _ = p.Update(keyMsg("right"))

	n, _ := graph.Graph{Nodes: p.Scene().Nodes}.Node("C")
	r := newProjection(p.Scene().Nodes, 10, 20, 0, 0).rect(n)
	if r.x1 >= p.panX+p.width || r.x0 < p.panX {
		t.Errorf("selected node cols %d..%d not within pan %d width %d", r.x0, r.x1, p.panX, p.width)
	}
}

func TestGraphPane_SetSceneIgnoresOlderVersion(t *testing.T) {
	p, _ := loadedPane(t)
	current := p.Scene().Version

	p.SetScene(graph.Scene{Version: current - 1})
	if p.Scene().Version != current || !p.Scene().Ready {
		t.Error("older scene should be ignored")
	}
}

func TestNextInDirection(t *testing.T) {
	nodes := []graph.Node{
		taskNode("center", "", 200, 200),
		taskNode("right", "", 400, 210),
		taskNode("farRight", "", 600, 200),
		taskNode("up", "", 200, 0),
		taskNode("diag", "", 300, 50),
	}
	hidden := taskNode("hiddenLeft", "", 0, 200)
	hidden.Hidden = true
	nodes = append(nodes, hidden)

	tests := []struct {
		from   string
		dx, dy int
		want   string
	}{
		{"center", 1, 0, "right"},
		{"center", 0, -1, "up"},
		{"center", -1, 0, ""},
		{"right", 1, 0, "farRight"},
		{"missing", 1, 0, "up"},
	}
	for _, tt := range tests {
		if got := nextInDirection(nodes, tt.from, tt.dx, tt.dy); got != tt.want {
			t.Errorf("nextInDirection(%s, %d, %d) = %q, want %q", tt.from, tt.dx, tt.dy, got, tt.want)
		}
	}
}
