// Package graph turns a task collection into a laid-out stage graph.
//
// The pipeline is Build (tasks to nodes and edges), Layout (layered placement
// of task nodes), RecomputeGroupBounds (stage lanes sized around their
// visible members) and VisibilityController (subtree show/hide). Every step
// takes a Graph value and returns a new one; published values are never
// mutated in place.
package graph

import (
	"github.com/npratt/stagegraph/internal/taskstore"
)

// GroupIDPrefix prefixes the ID of every stage group node.
const GroupIDPrefix = "S-"

// NodeKind discriminates the two node variants.
type NodeKind int

const (
	// KindGroup is a synthetic stage lane.
	KindGroup NodeKind = iota
	// KindTask wraps a visible task.
	KindTask
)

// String returns a string representation of the NodeKind.
func (k NodeKind) String() string {
	switch k {
	case KindGroup:
		return "group"
	case KindTask:
		return "task"
	default:
		return "unknown"
	}
}

// MarshalText lets NodeKind serialize as its name.
func (k NodeKind) MarshalText() ([]byte, error) {
	return []byte(k.String()), nil
}

// Node is a graph node. Kind selects which fields are meaningful: group
// nodes carry Label and Size, task nodes carry ParentID and Task.
type Node struct {
	ID       string          `json:"id"`
	Kind     NodeKind        `json:"type"`
	Stage    string          `json:"stage"`
	Label    string          `json:"label,omitempty"`
	Position Point           `json:"position"`
	Size     Size            `json:"size"`
	ParentID string          `json:"parentId,omitempty"`
	Hidden   bool            `json:"hidden"`
	Task     *taskstore.Task `json:"task,omitempty"`
}

// IsGroup reports whether n is a stage group node.
func (n Node) IsGroup() bool { return n.Kind == KindGroup }

// IsTask reports whether n is a task node.
func (n Node) IsTask() bool { return n.Kind == KindTask }

// Bounds returns the node rectangle.
func (n Node) Bounds() Rect {
	return Rect{Min: n.Position, Max: n.Position.Add(Point{X: n.Size.Width, Y: n.Size.Height})}
}

// Edge is a directed dependency between two task nodes.
type Edge struct {
	ID     string `json:"id"`
	Source string `json:"source"`
	Target string `json:"target"`
	Hidden bool   `json:"hidden"`
}

// Graph is an immutable node/edge collection.
type Graph struct {
	Nodes []Node `json:"nodes"`
	Edges []Edge `json:"edges"`
}

// GroupID returns the group node ID for a stage.
func GroupID(stage string) string {
	return GroupIDPrefix + stage
}

// EdgeID returns the ID of the edge from source to target.
func EdgeID(source, target string) string {
	return source + "->" + target
}

// Clone returns a copy whose slices can be modified freely.
func (g Graph) Clone() Graph {
	out := Graph{
		Nodes: make([]Node, len(g.Nodes)),
		Edges: make([]Edge, len(g.Edges)),
	}
	copy(out.Nodes, g.Nodes)
	copy(out.Edges, g.Edges)
	return out
}

// IsEmpty reports whether the graph has no nodes.
func (g Graph) IsEmpty() bool {
	return len(g.Nodes) == 0
}

// Node returns the node with the given ID.
func (g Graph) Node(id string) (Node, bool) {
	if i := g.nodeIndex(id); i >= 0 {
		return g.Nodes[i], true
	}
	return Node{}, false
}

func (g Graph) nodeIndex(id string) int {
	for i := range g.Nodes {
		if g.Nodes[i].ID == id {
			return i
		}
	}
	return -1
}

// TaskNodes returns only the task nodes, in graph order.
func (g Graph) TaskNodes() []Node {
	var out []Node
	for _, n := range g.Nodes {
		if n.IsTask() {
			out = append(out, n)
		}
	}
	return out
}

// GroupNodes returns only the group nodes, in graph order.
func (g Graph) GroupNodes() []Node {
	var out []Node
	for _, n := range g.Nodes {
		if n.IsGroup() {
			out = append(out, n)
		}
	}
	return out
}

// Outgoing returns the IDs of the targets of edges leaving id, in edge order.
func (g Graph) Outgoing(id string) []string {
	var out []string
	for _, e := range g.Edges {
		if e.Source == id {
			out = append(out, e.Target)
		}
	}
	return out
}
