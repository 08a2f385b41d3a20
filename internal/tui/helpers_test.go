package tui

import (
	"testing"

	"github.com/npratt/stagegraph/internal/config"
	"github.com/npratt/stagegraph/internal/graph"
	"github.com/npratt/stagegraph/internal/taskstore"
	"github.com/npratt/stagegraph/internal/testutil"
)

var testTUIConfig = config.TUIConfig{CellWidth: 10, CellHeight: 20}

func newTestEngine(t *testing.T, onOpen func(string)) *graph.Engine {
	t.Helper()
	compact := graph.Preset{
		Name:        graph.PresetCompact,
		NodeWidth:   100,
		NodeHeight:  60,
		LaneWidth:   120,
		Margin:      10,
		RankSep:     40,
		NodeSep:     20,
		StageOffset: 50,
	}
	expanded := compact
	expanded.Name = graph.PresetExpanded
	expanded.NodeWidth = 160
	expanded.LaneWidth = 180

	e, err := graph.NewEngine(graph.EngineOptions{
		Direction:  graph.DirectionLR,
		Compact:    compact,
		Expanded:   expanded,
		Breakpoint: 1000,
		ToggleMode: graph.ToggleShared,
		OnOpen:     onOpen,
	})
	if err != nil {
		t.Fatalf("NewEngine() error = %v", err)
	}
	return e
}

func parseTasks(t *testing.T, data string) []taskstore.Task {
	t.Helper()
	tasks, err := taskstore.ParseTasks([]byte(data), taskstore.FormatJSON)
	if err != nil {
		t.Fatalf("ParseTasks() error = %v", err)
	}
	return tasks
}

func chainSource(t *testing.T) *taskstore.Collection {
	t.Helper()
	return taskstore.NewCollection(parseTasks(t, testutil.ChainTasksJSON)...)
}

// loadedPane returns a sized pane whose engine holds the chain tasks.
func loadedPane(t *testing.T) (GraphPane, *graph.Engine) {
	t.Helper()
	e := newTestEngine(t, nil)
	p := NewGraphPane(e, chainSource(t), testTUIConfig.CellWidth, testTUIConfig.CellHeight)
	p.SetSize(100, 20)
	_ = p.Reload()
	p, _ = p.Update(graphLoadResultMsg{tasks: parseTasks(t, testutil.ChainTasksJSON), requestID: p.requestID})
	return p, e
}

func taskNode(id, title string, x, y float64) graph.Node {
	return graph.Node{
		ID:       id,
		Kind:     graph.KindTask,
		Stage:    "1",
		Position: graph.Point{X: x, Y: y},
		Size:     graph.Size{Width: 100, Height: 60},
		ParentID: graph.GroupID("1"),
		Task:     &taskstore.Task{ID: id, Title: title, Stage: "1", IsVisible: true},
	}
}
