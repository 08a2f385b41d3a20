package graph

import (
	"testing"

	"github.com/npratt/stagegraph/internal/taskstore"
)

var testPreset = Preset{
	Name:        "test",
	NodeWidth:   100,
	NodeHeight:  50,
	LaneWidth:   120,
	Margin:      10,
	RankSep:     40,
	NodeSep:     20,
	StageOffset: 50,
}

func testOptions() LayoutOptions {
	return LayoutOptions{Direction: DirectionLR, Preset: testPreset}
}

func task(id, stage string, children ...string) taskstore.Task {
	return taskstore.Task{
		ID:         id,
		Title:      "Task " + id,
		Stage:      taskstore.Stage(stage),
		ChildTasks: children,
		IsVisible:  true,
	}
}

// chainTasks is A(1) -> B(2) -> C(2).
func chainTasks() []taskstore.Task {
	return []taskstore.Task{
		task("A", "1", "B"),
		task("B", "2", "C"),
		task("C", "2"),
	}
}

// diamondTasks is root(1) -> left, right(2) -> sink(3).
func diamondTasks() []taskstore.Task {
	return []taskstore.Task{
		task("root", "1", "left", "right"),
		task("left", "2", "sink"),
		task("right", "2", "sink"),
		task("sink", "3"),
	}
}

func laidOut(t *testing.T, tasks []taskstore.Task, opts LayoutOptions) Graph {
	t.Helper()
	g, err := Layout(Build(tasks), opts)
	if err != nil {
		t.Fatalf("Layout() error = %v", err)
	}
	g, _ = RecomputeGroupBounds(g, opts)
	return g
}

func mustNode(t *testing.T, g Graph, id string) Node {
	t.Helper()
	n, ok := g.Node(id)
	if !ok {
		t.Fatalf("node %q not found", id)
	}
	return n
}

func mustEdge(t *testing.T, g Graph, id string) Edge {
	t.Helper()
	for _, e := range g.Edges {
		if e.ID == id {
			return e
		}
	}
	t.Fatalf("edge %q not found", id)
	return Edge{}
}

func nodeIDs(g Graph) []string {
	ids := make([]string, len(g.Nodes))
	for i, n := range g.Nodes {
		ids[i] = n.ID
	}
	return ids
}

func edgeIDs(g Graph) []string {
	ids := make([]string, len(g.Edges))
	for i, e := range g.Edges {
		ids[i] = e.ID
	}
	return ids
}

func equalStrings(a, b []string) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i] != b[i] {
			return false
		}
	}
	return true
}
