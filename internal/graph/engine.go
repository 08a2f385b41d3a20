package graph

import (
	"fmt"
	"log/slog"
	"net/url"
	"sync"

	"github.com/npratt/stagegraph/internal/taskstore"
)

// Preset names.
const (
	PresetCompact  = "compact"
	PresetExpanded = "expanded"
)

// EngineOptions configures an Engine.
type EngineOptions struct {
	Direction       Direction
	Compact         Preset
	Expanded        Preset
	Breakpoint      float64 // widths at or below this use the compact preset
	MaxOffsetStages int
	ToggleMode      ToggleMode
	Logger          *slog.Logger
	// OnOpen is invoked with the task ID when a task node is opened.
	OnOpen func(taskID string)
}

// Scene is a published snapshot of the laid-out graph.
type Scene struct {
	Ready     bool      `json:"ready"`
	Version   uint64    `json:"version"`
	Preset    string    `json:"preset"`
	Direction Direction `json:"direction"`
	Nodes     []Node    `json:"nodes"`
	Edges     []Edge    `json:"edges"`
}

// RenderNode is a scene node with its interaction hooks bound.
type RenderNode struct {
	Node
	Toggle func() bool
	Open   func() bool
}

// Engine owns the current graph for one task collection and viewport and
// applies rebuilds, resizes and toggles to it.
type Engine struct {
	opts    EngineOptions
	logger  *slog.Logger
	toggles *VisibilityController

	mu      sync.RWMutex
	tasks   []taskstore.Task
	width   float64
	preset  Preset
	graph   Graph
	ready   bool
	version uint64

	subMu     sync.Mutex
	subs      map[int]chan Scene
	nextSub   int
	published uint64
}

// NewEngine validates opts and returns an engine with an empty scene.
func NewEngine(opts EngineOptions) (*Engine, error) {
	if opts.Compact.Name == "" {
		opts.Compact.Name = PresetCompact
	}
	if opts.Expanded.Name == "" {
		opts.Expanded.Name = PresetExpanded
	}
	for _, p := range []Preset{opts.Compact, opts.Expanded} {
		lo := LayoutOptions{Direction: opts.Direction, Preset: p, MaxOffsetStages: opts.MaxOffsetStages}
		if err := lo.Validate(); err != nil {
			return nil, err
		}
	}
	mode, err := ParseToggleMode(string(opts.ToggleMode))
	if err != nil {
		return nil, err
	}

	logger := opts.Logger
	if logger == nil {
		logger = slog.Default()
	}

	e := &Engine{
		opts:   opts,
		logger: logger,
		preset: opts.Expanded,
		subs:   make(map[int]chan Scene),
	}
	e.toggles = NewVisibilityController(mode, e.layoutOptions())
	return e, nil
}

// layoutOptions must be called with mu held (or before publication).
func (e *Engine) layoutOptions() LayoutOptions {
	return LayoutOptions{
		Direction:       e.opts.Direction,
		Preset:          e.preset,
		MaxOffsetStages: e.opts.MaxOffsetStages,
	}
}

// PresetFor returns the preset used for a viewport width. Unknown (zero)
// widths use the expanded preset.
func (e *Engine) PresetFor(width float64) Preset {
	if width > 0 && width <= e.opts.Breakpoint {
		return e.opts.Compact
	}
	return e.opts.Expanded
}

// SetTasks rebuilds the graph from a new task collection. Hidden flags
// start cleared on every rebuild.
func (e *Engine) SetTasks(tasks []taskstore.Task) error {
	e.mu.Lock()
	e.tasks = make([]taskstore.Task, len(tasks))
	for i, t := range tasks {
		e.tasks[i] = t.Clone()
	}
	err := e.relayout()
	scene := e.snapshot()
	e.mu.Unlock()

	if err != nil {
		return err
	}
	e.logger.Debug("graph rebuilt", "tasks", len(tasks), "nodes", len(scene.Nodes), "edges", len(scene.Edges))
	e.publish(scene)
	return nil
}

// SetViewportWidth records the viewport width and re-lays out the graph if
// the width crosses the preset breakpoint. It reports whether the preset
// changed.
func (e *Engine) SetViewportWidth(width float64) (bool, error) {
	e.mu.Lock()
	e.width = width
	next := e.PresetFor(width)
	if next == e.preset {
		e.mu.Unlock()
		return false, nil
	}
	e.preset = next
	e.toggles.SetLayoutOptions(e.layoutOptions())
	err := e.relayout()
	scene := e.snapshot()
	e.mu.Unlock()

	if err != nil {
		return true, err
	}
	e.logger.Debug("layout preset changed", "preset", next.Name, "width", width)
	e.publish(scene)
	return true, nil
}

// relayout must be called with mu held.
func (e *Engine) relayout() error {
	e.version++
	if len(e.tasks) == 0 {
		e.graph = Graph{}
		e.ready = false
		return nil
	}

	opts := e.layoutOptions()
	laid, err := Layout(Build(e.tasks), opts)
	if err != nil {
		e.ready = false
		return fmt.Errorf("layout graph: %w", err)
	}
	e.graph, _ = RecomputeGroupBounds(laid, opts)
	e.ready = !e.graph.IsEmpty()
	return nil
}

// Toggle shows or hides the subtree below nodeID. Unknown IDs are ignored.
func (e *Engine) Toggle(nodeID string) bool {
	e.mu.Lock()
	next, ok := e.toggles.Toggle(e.graph, nodeID)
	if !ok {
		e.mu.Unlock()
		e.logger.Debug("toggle ignored", "node", nodeID)
		return false
	}
	e.graph = next
	e.version++
	scene := e.snapshot()
	e.mu.Unlock()

	e.publish(scene)
	return true
}

// Open invokes the open hook for a task node. Unknown IDs are ignored.
func (e *Engine) Open(taskID string) bool {
	e.mu.RLock()
	n, ok := e.graph.Node(taskID)
	e.mu.RUnlock()
	if !ok || !n.IsTask() {
		return false
	}
	if e.opts.OnOpen != nil {
		e.opts.OnOpen(taskID)
	}
	return true
}

// DetailRoute returns the dashboard route that opens a task's detail view.
func DetailRoute(taskID string) string {
	return "?taskID=" + url.QueryEscape(taskID)
}

// Task returns the task behind a task node.
func (e *Engine) Task(id string) (taskstore.Task, bool) {
	e.mu.RLock()
	defer e.mu.RUnlock()
	for _, t := range e.tasks {
		if t.ID == id {
			return t.Clone(), true
		}
	}
	return taskstore.Task{}, false
}

// Graph returns the current graph value.
func (e *Engine) Graph() Graph {
	e.mu.RLock()
	defer e.mu.RUnlock()
	return e.graph.Clone()
}

// Preset returns the active preset.
func (e *Engine) Preset() Preset {
	e.mu.RLock()
	defer e.mu.RUnlock()
	return e.preset
}

// Scene returns a snapshot of the current scene.
func (e *Engine) Scene() Scene {
	e.mu.RLock()
	defer e.mu.RUnlock()
	return e.snapshot()
}

// snapshot must be called with mu held.
func (e *Engine) snapshot() Scene {
	g := e.graph.Clone()
	return Scene{
		Ready:     e.ready,
		Version:   e.version,
		Preset:    e.preset.Name,
		Direction: e.opts.Direction,
		Nodes:     g.Nodes,
		Edges:     g.Edges,
	}
}

// RenderNodes returns the scene nodes with Toggle and Open bound to this
// engine. Hooks captured before a rebuild stay safe to call: they resolve
// the node by ID at call time.
func (e *Engine) RenderNodes() []RenderNode {
	scene := e.Scene()
	out := make([]RenderNode, len(scene.Nodes))
	for i, n := range scene.Nodes {
		id := n.ID
		out[i] = RenderNode{
			Node:   n,
			Toggle: func() bool { return e.Toggle(id) },
			Open:   func() bool { return e.Open(id) },
		}
	}
	return out
}

// Subscribe returns a channel that receives the latest scene after every
// change, and a cancel function. Only the newest pending scene is kept.
func (e *Engine) Subscribe() (<-chan Scene, func()) {
	e.subMu.Lock()
	defer e.subMu.Unlock()

	id := e.nextSub
	e.nextSub++
	ch := make(chan Scene, 1)
	e.subs[id] = ch

	return ch, func() {
		e.subMu.Lock()
		defer e.subMu.Unlock()
		if sub, ok := e.subs[id]; ok {
			delete(e.subs, id)
			close(sub)
		}
	}
}

// publish fans scene out to subscribers. Writers snapshot under mu but
// publish after releasing it, so a scene older than the last one published
// is dropped.
func (e *Engine) publish(scene Scene) {
	e.subMu.Lock()
	defer e.subMu.Unlock()
	if scene.Version <= e.published {
		return
	}
	e.published = scene.Version
	for _, ch := range e.subs {
		select {
		case <-ch:
		default:
		}
		select {
		case ch <- scene:
		default:
		}
	}
}
