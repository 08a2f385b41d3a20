package graph

import (
	"fmt"
	"sync"
)

// ToggleMode selects how subtree toggles decide between hiding and showing.
type ToggleMode string

const (
	// ToggleShared uses one controller-wide flag: each toggle applies the
	// opposite of the previous toggle, whichever root it was on.
	ToggleShared ToggleMode = "shared"
	// TogglePerNode keeps a collapsed flag per root node.
	TogglePerNode ToggleMode = "per_node"
)

// ParseToggleMode converts a config string to a ToggleMode.
func ParseToggleMode(s string) (ToggleMode, error) {
	switch ToggleMode(s) {
	case ToggleShared, "":
		return ToggleShared, nil
	case TogglePerNode:
		return TogglePerNode, nil
	default:
		return "", fmt.Errorf("graph: invalid toggle mode %q", s)
	}
}

// VisibilityController hides and reveals dependent subtrees.
type VisibilityController struct {
	mode ToggleMode
	opts LayoutOptions

	mu        sync.Mutex
	hidden    bool
	collapsed map[string]bool
}

// NewVisibilityController creates a controller. opts is used for the group
// bounds pass that follows every toggle.
func NewVisibilityController(mode ToggleMode, opts LayoutOptions) *VisibilityController {
	return &VisibilityController{
		mode:      mode,
		opts:      opts,
		collapsed: make(map[string]bool),
	}
}

// SetLayoutOptions replaces the options used for group bounds.
func (c *VisibilityController) SetLayoutOptions(opts LayoutOptions) {
	c.mu.Lock()
	c.opts = opts
	c.mu.Unlock()
}

// Hidden reports the shared toggle state: true after an odd number of
// toggles.
func (c *VisibilityController) Hidden() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.hidden
}

// Collapsed reports whether rootID is collapsed in per-node mode.
func (c *VisibilityController) Collapsed(rootID string) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.collapsed[rootID]
}

// Reset clears all toggle state.
func (c *VisibilityController) Reset() {
	c.mu.Lock()
	c.hidden = false
	c.collapsed = make(map[string]bool)
	c.mu.Unlock()
}

// Toggle flips the hidden flag of every node reachable from rootID along
// outgoing edges, and of every edge touching those nodes except edges
// that point back at rootID. Group bounds are recomputed before returning.
//
// A rootID that is unknown or names a group node leaves g and the
// controller untouched and reports false: only task nodes are toggle roots,
// so a group root does not flip the shared flag. A task root with no
// outgoing edges flips the flag and nothing else.
func (c *VisibilityController) Toggle(g Graph, rootID string) (Graph, bool) {
	if n, ok := g.Node(rootID); !ok || !n.IsTask() {
		return g, false
	}

	c.mu.Lock()
	var hide bool
	switch c.mode {
	case TogglePerNode:
		c.collapsed[rootID] = !c.collapsed[rootID]
		hide = c.collapsed[rootID]
	default:
		hide = !c.hidden
		c.hidden = !c.hidden
	}
	opts := c.opts
	c.mu.Unlock()

	nodes, edges := Subtree(g, rootID)
	if len(nodes) == 0 && len(edges) == 0 {
		return g, true
	}

	out := g.Clone()
	for i := range out.Nodes {
		if nodes[out.Nodes[i].ID] {
			out.Nodes[i].Hidden = hide
		}
	}
	for i := range out.Edges {
		if edges[out.Edges[i].ID] {
			out.Edges[i].Hidden = hide
		}
	}

	out, _ = RecomputeGroupBounds(out, opts)
	return out, true
}

// Subtree returns the node IDs reachable from rootID via outgoing edges
// (rootID itself excluded) and the IDs of the edges incident to rootID or
// any reached node, minus edges whose target is rootID.
//
// The walk uses an explicit stack so deep graphs cannot exhaust the call
// stack, and a visited set so converging paths are expanded once.
func Subtree(g Graph, rootID string) (nodes, edges map[string]bool) {
	nodes = make(map[string]bool)
	edges = make(map[string]bool)

	visited := map[string]bool{rootID: true}
	stack := []string{rootID}
	for len(stack) > 0 {
		current := stack[len(stack)-1]
		stack = stack[:len(stack)-1]

		for _, e := range g.Edges {
			if e.Source != current && e.Target != current {
				continue
			}
			if e.Target != rootID {
				edges[e.ID] = true
			}
			if e.Source == current && !visited[e.Target] {
				visited[e.Target] = true
				nodes[e.Target] = true
				stack = append(stack, e.Target)
			}
		}
	}

	return nodes, edges
}
