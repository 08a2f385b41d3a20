package tui

import (
	"context"
	"fmt"
	"math"
	"sort"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/spinner"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/npratt/stagegraph/internal/graph"
	"github.com/npratt/stagegraph/internal/taskstore"
)

const (
	loadTimeout = 10 * time.Second
	panStep     = 8
)

// GraphPane renders the stage graph and handles selection, toggling and
// panning.
type GraphPane struct {
	engine *graph.Engine
	source taskstore.Source

	scene    graph.Scene
	selected string
	panX     int
	panY     int

	cellWidth  float64
	cellHeight float64
	width      int
	height     int

	loading   bool
	err       error
	spinner   spinner.Model
	requestID int
}

// GraphOpenModalMsg requests the detail modal for a task node.
type GraphOpenModalMsg struct {
	NodeID string
}

// graphLoadResultMsg carries the outcome of a source load.
type graphLoadResultMsg struct {
	tasks     []taskstore.Task
	err       error
	requestID int
}

// NewGraphPane creates a pane bound to an engine and the source feeding it.
func NewGraphPane(engine *graph.Engine, source taskstore.Source, cellWidth, cellHeight float64) GraphPane {
	s := spinner.New()
	s.Spinner = spinner.Dot
	s.Style = lipgloss.NewStyle().Foreground(lipgloss.Color("205"))

	return GraphPane{
		engine:     engine,
		source:     source,
		scene:      engine.Scene(),
		cellWidth:  cellWidth,
		cellHeight: cellHeight,
		spinner:    s,
	}
}

// SetSize updates the pane dimensions.
func (p *GraphPane) SetSize(width, height int) {
	p.width = width
	p.height = height
	p.ensureVisible()
}

// Selected returns the selected task node ID.
func (p GraphPane) Selected() string {
	return p.selected
}

// Scene returns the scene the pane currently shows.
func (p GraphPane) Scene() graph.Scene {
	return p.scene
}

// Reload starts an asynchronous load from the task source. Results of
// earlier loads still in flight are discarded.
func (p *GraphPane) Reload() tea.Cmd {
	if p.source == nil {
		return nil
	}
	p.requestID++
	p.loading = true
	p.err = nil

	reqID := p.requestID
	source := p.source
	fetch := func() tea.Msg {
		ctx, cancel := context.WithTimeout(context.Background(), loadTimeout)
		defer cancel()

		tasks, err := source.Load(ctx)
		return graphLoadResultMsg{tasks: tasks, err: err, requestID: reqID}
	}
	return tea.Batch(p.spinner.Tick, fetch)
}

// SetScene replaces the shown scene, keeping the selection when its node
// is still visible.
func (p *GraphPane) SetScene(scene graph.Scene) {
	if scene.Version < p.scene.Version {
		return
	}
	p.scene = scene
	if !p.visibleTask(p.selected) {
		p.selected = firstTask(scene.Nodes)
	}
	p.ensureVisible()
}

// Update handles messages for the pane.
func (p GraphPane) Update(msg tea.Msg) (GraphPane, tea.Cmd) {
	switch msg := msg.(type) {
	case graphLoadResultMsg:
		if msg.requestID != p.requestID {
			return p, nil
		}
		p.loading = false
		if msg.err != nil {
			p.err = msg.err
			return p, nil
		}
		if err := p.engine.SetTasks(msg.tasks); err != nil {
			p.err = err
			return p, nil
		}
		p.SetScene(p.engine.Scene())
		return p, nil

	case spinner.TickMsg:
		if !p.loading {
			return p, nil
		}
		var cmd tea.Cmd
		p.spinner, cmd = p.spinner.Update(msg)
		return p, cmd

	case tea.KeyMsg:
		return p.handleKey(msg)
	}
	return p, nil
}

func (p GraphPane) handleKey(msg tea.KeyMsg) (GraphPane, tea.Cmd) {
	switch msg.String() {
	case "left", "h":
		p.move(-1, 0)
	case "right", "l":
		p.move(1, 0)
	case "up", "k":
		p.move(0, -1)
	case "down", "j":
		p.move(0, 1)

	case "H":
		p.panX = max(0, p.panX-panStep)
	case "L":
		p.panX += panStep
	case "K":
		p.panY = max(0, p.panY-panStep/2)
	case "J":
		p.panY += panStep / 2

	case " ", "t":
		if p.selected != "" && p.engine.Toggle(p.selected) {
			p.SetScene(p.engine.Scene())
		}

	case "enter":
		if p.selected == "" {
			return p, nil
		}
		id := p.selected
		return p, func() tea.Msg { return GraphOpenModalMsg{NodeID: id} }

	case "R":
		return p, p.Reload()
	}
	return p, nil
}

func (p *GraphPane) move(dx, dy int) {
	next := nextInDirection(p.scene.Nodes, p.selected, dx, dy)
	if next != "" {
		p.selected = next
		p.ensureVisible()
	}
}

func (p GraphPane) visibleTask(id string) bool {
	if id == "" {
		return false
	}
	for _, n := range p.scene.Nodes {
		if n.ID == id {
			return n.IsTask() && !n.Hidden
		}
	}
	return false
}

func (p GraphPane) canvasHeight() int {
	return safeHeight(p.height - 1)
}

func (p GraphPane) projection() projection {
	return newProjection(p.scene.Nodes, p.cellWidth, p.cellHeight, p.panX, p.panY)
}

// ensureVisible pans so the selected node box is on screen.
func (p *GraphPane) ensureVisible() {
	if p.selected == "" || p.width <= 0 {
		return
	}
	n, ok := graph.Graph{Nodes: p.scene.Nodes}.Node(p.selected)
	if !ok {
		return
	}
	r := newProjection(p.scene.Nodes, p.cellWidth, p.cellHeight, 0, 0).rect(n)
	h := p.canvasHeight()

	if r.x0 < p.panX {
		p.panX = r.x0
	} else if r.x1 >= p.panX+p.width {
		p.panX = r.x1 - p.width + 1
	}
	if r.y0 < p.panY {
		p.panY = r.y0
	} else if r.y1 >= p.panY+h {
		p.panY = r.y1 - h + 1
	}
	p.panX = max(0, p.panX)
	p.panY = max(0, p.panY)
}

// View renders the pane.
func (p GraphPane) View() string {
	width := safeWidth(p.width)
	var body string
	switch {
	case p.err != nil:
		body = styles.Error.Render("Error: " + p.err.Error())
	case !p.scene.Ready && p.loading:
		body = p.spinner.View() + " Loading..."
	case !p.scene.Ready:
		body = styles.Muted.Render("No tasks to display")
	default:
		body = renderScene(p.scene, p.selected, p.projection(), width, p.canvasHeight())
	}

	body = lipgloss.NewStyle().
		Width(width).
		Height(p.canvasHeight()).
		MaxHeight(p.canvasHeight()).
		Render(body)
	return body + "\n" + p.renderStatusBar(width)
}

func (p GraphPane) renderStatusBar(width int) string {
	var tasks, hidden, stages int
	for _, n := range p.scene.Nodes {
		switch {
		case n.IsGroup():
			if !n.Hidden {
				stages++
			}
		case n.Hidden:
			hidden++
		default:
			tasks++
		}
	}

	parts := []string{
		pluralize(tasks, "task", "tasks"),
		pluralize(stages, "stage", "stages"),
	}
	if hidden > 0 {
		parts = append(parts, fmt.Sprintf("%d hidden", hidden))
	}
	if p.scene.Preset != "" {
		parts = append(parts, p.scene.Preset)
	}
	parts = append(parts, "[t] toggle  [enter] open  [R] reload  [q] quit")
	return styles.Footer.Render(truncate(strings.Join(parts, " · "), width))
}

// firstTask returns the top-left visible task node.
func firstTask(nodes []graph.Node) string {
	var best *graph.Node
	for i := range nodes {
		n := &nodes[i]
		if !n.IsTask() || n.Hidden {
			continue
		}
		if best == nil ||
			n.Position.X < best.Position.X ||
			(n.Position.X == best.Position.X && n.Position.Y < best.Position.Y) {
			best = n
		}
	}
	if best == nil {
		return ""
	}
	return best.ID
}

// nextInDirection picks the nearest visible task node whose center lies in
// direction (dx, dy) from the current node. Off-axis distance counts double.
func nextInDirection(nodes []graph.Node, from string, dx, dy int) string {
	centers := make(map[string]graph.Point)
	var ids []string
	for _, n := range nodes {
		if !n.IsTask() || n.Hidden {
			continue
		}
		centers[n.ID] = n.Position.Add(n.Size.Half())
		ids = append(ids, n.ID)
	}
	origin, ok := centers[from]
	if !ok {
		return firstTask(nodes)
	}
	sort.Strings(ids)

	best, bestScore := "", math.Inf(1)
	for _, id := range ids {
		if id == from {
			continue
		}
		d := centers[id].Sub(origin)
		along := d.X*float64(dx) + d.Y*float64(dy)
		if along <= 0 {
			continue
		}
		across := math.Abs(d.X*float64(dy)) + math.Abs(d.Y*float64(dx))
		if score := along + 2*across; score < bestScore {
			best, bestScore = id, score
		}
	}
	return best
}
