package tui

import (
	"math"
	"strings"

	"github.com/npratt/stagegraph/internal/graph"
)

// paint tags each canvas cell with the layer that drew it.
type paint int

const (
	paintNone paint = iota
	paintLane
	paintLaneLabel
	paintEdge
	paintNode
	paintNodeCollapsed
	paintSelected
)

const (
	minBoxWidth  = 6
	minBoxHeight = 3
)

// canvas is a fixed-size character grid with a paint layer per cell.
type canvas struct {
	width, height int
	runes         [][]rune
	paints        [][]paint
}

func newCanvas(width, height int) *canvas {
	width, height = safeWidth(width), safeHeight(height)
	c := &canvas{
		width:  width,
		height: height,
		runes:  make([][]rune, height),
		paints: make([][]paint, height),
	}
	for y := range c.runes {
		c.runes[y] = []rune(strings.Repeat(" ", width))
		c.paints[y] = make([]paint, width)
	}
	return c
}

func (c *canvas) set(x, y int, r rune, p paint) {
	if x < 0 || y < 0 || x >= c.width || y >= c.height {
		return
	}
	c.runes[y][x] = r
	c.paints[y][x] = p
}

func (c *canvas) get(x, y int) rune {
	if x < 0 || y < 0 || x >= c.width || y >= c.height {
		return 0
	}
	return c.runes[y][x]
}

// text writes s starting at (x, y), clipped to maxLen runes.
func (c *canvas) text(x, y int, s string, maxLen int, p paint) {
	for i, r := range []rune(truncate(s, maxLen)) {
		c.set(x+i, y, r, p)
	}
}

// box draws a filled rectangle outline; the interior is cleared.
func (c *canvas) box(r cellRect, rounded bool, p paint) {
	tl, tr, bl, br := '┌', '┐', '└', '┘'
	if rounded {
		tl, tr, bl, br = '╭', '╮', '╰', '╯'
	}
	for x := r.x0 + 1; x < r.x1; x++ {
		c.set(x, r.y0, '─', p)
		c.set(x, r.y1, '─', p)
	}
	for y := r.y0 + 1; y < r.y1; y++ {
		c.set(r.x0, y, '│', p)
		c.set(r.x1, y, '│', p)
	}
	c.set(r.x0, r.y0, tl, p)
	c.set(r.x1, r.y0, tr, p)
	c.set(r.x0, r.y1, bl, p)
	c.set(r.x1, r.y1, br, p)
}

func (c *canvas) fill(r cellRect, p paint) {
	for y := r.y0 + 1; y < r.y1; y++ {
		for x := r.x0 + 1; x < r.x1; x++ {
			c.set(x, y, ' ', p)
		}
	}
}

func (c *canvas) hline(x0, x1, y int) {
	if x0 > x1 {
		x0, x1 = x1, x0
	}
	for x := x0; x <= x1; x++ {
		c.set(x, y, '─', paintEdge)
	}
}

func (c *canvas) vline(x, y0, y1 int) {
	if y0 > y1 {
		y0, y1 = y1, y0
	}
	for y := y0; y <= y1; y++ {
		c.set(x, y, '│', paintEdge)
	}
}

// String renders the grid, styling each run of equally painted cells.
func (c *canvas) String() string {
	var sb strings.Builder
	for y := 0; y < c.height; y++ {
		if y > 0 {
			sb.WriteByte('\n')
		}
		start := 0
		for x := 1; x <= c.width; x++ {
			if x < c.width && c.paints[y][x] == c.paints[y][start] {
				continue
			}
			run := string(c.runes[y][start:x])
			if style, ok := paintStyles[c.paints[y][start]]; ok {
				run = style.Render(run)
			}
			sb.WriteString(run)
			start = x
		}
	}
	return sb.String()
}

// cellRect is an inclusive rectangle in cell coordinates.
type cellRect struct {
	x0, y0, x1, y1 int
}

func (r cellRect) midX() int { return (r.x0 + r.x1) / 2 }
func (r cellRect) midY() int { return (r.y0 + r.y1) / 2 }

// projection maps layout pixels to terminal cells.
type projection struct {
	cellWidth  float64
	cellHeight float64
	origin     graph.Point
	panX, panY int
}

// newProjection anchors the projection at the top-left corner of the
// visible nodes.
func newProjection(nodes []graph.Node, cellWidth, cellHeight float64, panX, panY int) projection {
	if cellWidth <= 0 {
		cellWidth = 1
	}
	if cellHeight <= 0 {
		cellHeight = 1
	}
	origin := graph.Point{}
	first := true
	for _, n := range nodes {
		if n.Hidden {
			continue
		}
		if first || n.Position.X < origin.X {
			origin.X = n.Position.X
		}
		if first || n.Position.Y < origin.Y {
			origin.Y = n.Position.Y
		}
		first = false
	}
	return projection{cellWidth: cellWidth, cellHeight: cellHeight, origin: origin, panX: panX, panY: panY}
}

func (p projection) cell(pt graph.Point) (int, int) {
	x := int(math.Round((pt.X-p.origin.X)/p.cellWidth)) - p.panX
	y := int(math.Round((pt.Y-p.origin.Y)/p.cellHeight)) - p.panY
	return x, y
}

// rect returns the cell rectangle for a node, never smaller than a
// readable box.
func (p projection) rect(n graph.Node) cellRect {
	x0, y0 := p.cell(n.Position)
	x1, y1 := p.cell(n.Position.Add(graph.Point{X: n.Size.Width, Y: n.Size.Height}))
	x1--
	y1--
	if x1 < x0+minBoxWidth-1 {
		x1 = x0 + minBoxWidth - 1
	}
	if y1 < y0+minBoxHeight-1 {
		y1 = y0 + minBoxHeight - 1
	}
	return cellRect{x0: x0, y0: y0, x1: x1, y1: y1}
}

// renderScene draws the visible part of a scene: lanes, then edges, then
// task boxes on top.
func renderScene(scene graph.Scene, selected string, proj projection, width, height int) string {
	c := newCanvas(width, height)

	rects := make(map[string]cellRect, len(scene.Nodes))
	for _, n := range scene.Nodes {
		if !n.Hidden {
			rects[n.ID] = proj.rect(n)
		}
	}

	for _, n := range scene.Nodes {
		if n.Hidden || !n.IsGroup() {
			continue
		}
		r := rects[n.ID]
		c.box(r, false, paintLane)
		c.text(r.x0+2, r.y0, " "+n.Label+" ", r.x1-r.x0-3, paintLaneLabel)
	}

	collapsed := make(map[string]bool)
	for _, e := range scene.Edges {
		if e.Hidden {
			collapsed[e.Source] = true
			continue
		}
		from, okFrom := rects[e.Source]
		to, okTo := rects[e.Target]
		if !okFrom || !okTo {
			continue
		}
		drawEdge(c, from, to, scene.Direction)
	}

	for _, n := range scene.Nodes {
		if n.Hidden || !n.IsTask() {
			continue
		}
		r := rects[n.ID]
		p := paintNode
		switch {
		case n.ID == selected:
			p = paintSelected
		case collapsed[n.ID]:
			p = paintNodeCollapsed
		}
		c.fill(r, p)
		c.box(r, true, p)

		inner := r.x1 - r.x0 - 1
		title, status := n.ID, ""
		if n.Task != nil {
			title = singleLine(n.Task.Title)
			status = n.Task.Status
		}
		c.text(r.x0+1, r.y0+1, statusIcon(status)+" "+title, inner, p)
		if r.y1-r.y0 >= 3 {
			c.text(r.x0+1, r.y0+2, n.ID, inner, p)
		}
		if collapsed[n.ID] {
			c.set(r.x1, r.midY(), '▸', p)
		}
	}

	return c.String()
}

// drawEdge routes an edge as an orthogonal elbow between facing sides.
func drawEdge(c *canvas, from, to cellRect, dir graph.Direction) {
	if dir == graph.DirectionTB {
		sx, sy := from.midX(), from.y1+1
		ex, ey := to.midX(), to.y0-1
		mid := (sy + ey) / 2
		c.vline(sx, sy, mid)
		c.hline(sx, ex, mid)
		c.vline(ex, mid, ey)
		if ex != sx {
			c.set(sx, mid, bend(ex > sx, '└', '┘'), paintEdge)
			c.set(ex, mid, bend(ex > sx, '┐', '┌'), paintEdge)
		}
		c.set(ex, ey, '▼', paintEdge)
		return
	}

	sx, sy := from.x1+1, from.midY()
	ex, ey := to.x0-1, to.midY()
	mid := (sx + ex) / 2
	c.hline(sx, mid, sy)
	c.vline(mid, sy, ey)
	c.hline(mid, ex, ey)
	if ey != sy {
		c.set(mid, sy, bend(ey > sy, '┐', '┘'), paintEdge)
		c.set(mid, ey, bend(ey > sy, '└', '┌'), paintEdge)
	}
	c.set(ex, ey, '▶', paintEdge)
}

func bend(forward bool, a, b rune) rune {
	if forward {
		return a
	}
	return b
}
