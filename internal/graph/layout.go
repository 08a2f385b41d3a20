package graph

import (
	"errors"
	"fmt"
	"sort"
	"strconv"
	"strings"
)

var (
	// ErrInvalidDirection is returned for an unknown layout direction.
	ErrInvalidDirection = errors.New("graph: invalid layout direction")
	// ErrInvalidPreset is returned when preset dimensions are unusable.
	ErrInvalidPreset = errors.New("graph: invalid layout preset")
)

// Direction is the flow direction of ranks.
type Direction string

const (
	// DirectionLR places ranks left to right.
	DirectionLR Direction = "LR"
	// DirectionTB places ranks top to bottom.
	DirectionTB Direction = "TB"
)

// ParseDirection converts a config string to a Direction.
func ParseDirection(s string) (Direction, error) {
	switch strings.ToUpper(strings.TrimSpace(s)) {
	case "LR", "":
		return DirectionLR, nil
	case "TB":
		return DirectionTB, nil
	default:
		return "", fmt.Errorf("%w: %q", ErrInvalidDirection, s)
	}
}

// Preset is a set of node dimensions and spacing constants.
type Preset struct {
	Name        string  `json:"name"`
	NodeWidth   float64 `json:"nodeWidth"`
	NodeHeight  float64 `json:"nodeHeight"`
	LaneWidth   float64 `json:"laneWidth"`
	Margin      float64 `json:"margin"`
	RankSep     float64 `json:"rankSep"`
	NodeSep     float64 `json:"nodeSep"`
	StageOffset float64 `json:"stageOffset"`
}

// NodeSize returns the default task node size.
func (p Preset) NodeSize() Size {
	return Size{Width: p.NodeWidth, Height: p.NodeHeight}
}

// LayoutOptions configures Layout and RecomputeGroupBounds.
type LayoutOptions struct {
	Direction Direction
	Preset    Preset
	// MaxOffsetStages caps the stage index used for lane offsets.
	// Zero means no cap.
	MaxOffsetStages int
	// SizeOf overrides the preset size for individual task nodes.
	SizeOf func(Node) Size
	// OrderIterations bounds the crossing-reduction sweeps. Zero uses the
	// default.
	OrderIterations int
}

const defaultOrderIterations = 8

// Validate checks the options for configuration errors.
func (o LayoutOptions) Validate() error {
	if o.Direction != DirectionLR && o.Direction != DirectionTB {
		return fmt.Errorf("%w: %q", ErrInvalidDirection, o.Direction)
	}
	p := o.Preset
	if p.NodeWidth <= 0 || p.NodeHeight <= 0 || p.LaneWidth <= 0 {
		return fmt.Errorf("%w: %s: node and lane dimensions must be positive", ErrInvalidPreset, p.Name)
	}
	if p.Margin < 0 || p.RankSep < 0 || p.NodeSep < 0 || p.StageOffset < 0 {
		return fmt.Errorf("%w: %s: spacing must not be negative", ErrInvalidPreset, p.Name)
	}
	return nil
}

func (o LayoutOptions) sizeOf(n Node) Size {
	if o.SizeOf != nil {
		if s := o.SizeOf(n); s.Width > 0 && s.Height > 0 {
			return s
		}
	}
	return o.Preset.NodeSize()
}

// Layout assigns positions and sizes to every task node using layered
// placement: longest-path ranks, barycentric crossing reduction and
// median-aligned coordinates. Group nodes are left for RecomputeGroupBounds.
// Positions are top-left corners.
func Layout(g Graph, opts LayoutOptions) (Graph, error) {
	if err := opts.Validate(); err != nil {
		return Graph{}, err
	}

	out := g.Clone()

	var ids []string
	sizes := make(map[string]Size)
	for _, n := range out.Nodes {
		if n.IsTask() {
			ids = append(ids, n.ID)
			sizes[n.ID] = opts.sizeOf(n)
		}
	}
	if len(ids) == 0 {
		return out, nil
	}

	lg := newLayered(ids, out.Edges)
	lg.assignRanks()
	lg.insertVirtualNodes()
	lg.buildLayers()

	iterations := opts.OrderIterations
	if iterations <= 0 {
		iterations = defaultOrderIterations
	}
	lg.reduceCrossings(iterations)

	centers := lg.coordinates(opts, sizes)
	offsets := stageOffsets(out, opts)

	for i := range out.Nodes {
		n := &out.Nodes[i]
		if !n.IsTask() {
			continue
		}
		size := sizes[n.ID]
		center := centers[n.ID]
		center.X += offsets[n.Stage]
		n.Size = size
		n.Position = center.Sub(size.Half())
	}

	return out, nil
}

// layered is the working structure for rank/order/coordinate assignment.
// Indices below real are task nodes; the rest are virtual nodes splitting
// edges that span more than one rank.
type layered struct {
	ids    []string
	real   int
	index  map[string]int
	succ   [][]int
	pred   [][]int
	rank   []int
	layers [][]int
	pos    []int
}

func newLayered(ids []string, edges []Edge) *layered {
	lg := &layered{
		ids:   append([]string(nil), ids...),
		real:  len(ids),
		index: make(map[string]int, len(ids)),
		succ:  make([][]int, len(ids)),
		pred:  make([][]int, len(ids)),
	}
	for i, id := range ids {
		lg.index[id] = i
	}

	seen := make(map[[2]int]bool)
	for _, e := range edges {
		u, okU := lg.index[e.Source]
		v, okV := lg.index[e.Target]
		if !okU || !okV || u == v || seen[[2]int{u, v}] {
			continue
		}
		seen[[2]int{u, v}] = true
		lg.succ[u] = append(lg.succ[u], v)
		lg.pred[v] = append(lg.pred[v], u)
	}
	return lg
}

// assignRanks sets rank to the longest path length from any source.
// Nodes caught in a cycle are ranked after their already-ranked
// predecessors so the layout still terminates.
func (lg *layered) assignRanks() {
	n := lg.real
	lg.rank = make([]int, n)
	indeg := make([]int, n)
	for v := 0; v < n; v++ {
		indeg[v] = len(lg.pred[v])
	}

	done := make([]bool, n)
	queue := make([]int, 0, n)
	for v := 0; v < n; v++ {
		if indeg[v] == 0 {
			queue = append(queue, v)
		}
	}

	drain := func() {
		for len(queue) > 0 {
			u := queue[0]
			queue = queue[1:]
			done[u] = true
			for _, v := range lg.succ[u] {
				if done[v] {
					continue
				}
				if lg.rank[u]+1 > lg.rank[v] {
					lg.rank[v] = lg.rank[u] + 1
				}
				indeg[v]--
				if indeg[v] == 0 {
					queue = append(queue, v)
				}
			}
		}
	}
	drain()

	for v := 0; v < n; v++ {
		if done[v] {
			continue
		}
		r := 0
		for _, u := range lg.pred[v] {
			if done[u] && lg.rank[u]+1 > r {
				r = lg.rank[u] + 1
			}
		}
		lg.rank[v] = r
		queue = append(queue, v)
		drain()
	}
}

// insertVirtualNodes replaces edges spanning several ranks with chains of
// virtual nodes. Edges that do not point to a later rank are dropped from
// the layering.
func (lg *layered) insertVirtualNodes() {
	succ := make([][]int, lg.real)
	pred := make([][]int, lg.real)

	link := func(u, v int) {
		succ[u] = append(succ[u], v)
		pred[v] = append(pred[v], u)
	}

	for u := 0; u < lg.real; u++ {
		for _, v := range lg.succ[u] {
			span := lg.rank[v] - lg.rank[u]
			if span <= 0 {
				continue
			}
			prev := u
			for r := lg.rank[u] + 1; r < lg.rank[v]; r++ {
				d := len(lg.ids)
				lg.ids = append(lg.ids, fmt.Sprintf("\x00%d", d))
				lg.rank = append(lg.rank, r)
				succ = append(succ, nil)
				pred = append(pred, nil)
				link(prev, d)
				prev = d
			}
			link(prev, v)
		}
	}

	lg.succ = succ
	lg.pred = pred
}

func (lg *layered) buildLayers() {
	maxRank := 0
	for _, r := range lg.rank {
		if r > maxRank {
			maxRank = r
		}
	}
	lg.layers = make([][]int, maxRank+1)
	for v, r := range lg.rank {
		lg.layers[r] = append(lg.layers[r], v)
	}
	lg.pos = make([]int, len(lg.ids))
	lg.syncPositions()
}

func (lg *layered) syncPositions() {
	for _, layer := range lg.layers {
		for i, v := range layer {
			lg.pos[v] = i
		}
	}
}

// reduceCrossings runs alternating barycenter sweeps and keeps the ordering
// with the fewest crossings.
func (lg *layered) reduceCrossings(iterations int) {
	best := lg.snapshot()
	bestCrossings := lg.crossings()

	for i := 0; i < iterations && bestCrossings > 0; i++ {
		if i%2 == 0 {
			for r := 1; r < len(lg.layers); r++ {
				lg.sortByBarycenter(r, lg.pred)
			}
		} else {
			for r := len(lg.layers) - 2; r >= 0; r-- {
				lg.sortByBarycenter(r, lg.succ)
			}
		}
		if c := lg.crossings(); c < bestCrossings {
			bestCrossings = c
			best = lg.snapshot()
		}
	}

	lg.layers = best
	lg.syncPositions()
}

func (lg *layered) snapshot() [][]int {
	out := make([][]int, len(lg.layers))
	for i, layer := range lg.layers {
		out[i] = append([]int(nil), layer...)
	}
	return out
}

func (lg *layered) sortByBarycenter(r int, neighbors [][]int) {
	layer := lg.layers[r]
	bary := make(map[int]float64, len(layer))
	for _, v := range layer {
		adj := neighbors[v]
		if len(adj) == 0 {
			bary[v] = float64(lg.pos[v])
			continue
		}
		sum := 0
		for _, u := range adj {
			sum += lg.pos[u]
		}
		bary[v] = float64(sum) / float64(len(adj))
	}
	sort.SliceStable(layer, func(i, j int) bool {
		return bary[layer[i]] < bary[layer[j]]
	})
	for i, v := range layer {
		lg.pos[v] = i
	}
}

// crossings counts edge crossings between every pair of adjacent layers.
func (lg *layered) crossings() int {
	total := 0
	for r := 0; r+1 < len(lg.layers); r++ {
		type seg struct{ a, b int }
		var segs []seg
		for _, u := range lg.layers[r] {
			for _, v := range lg.succ[u] {
				segs = append(segs, seg{lg.pos[u], lg.pos[v]})
			}
		}
		for i := 0; i < len(segs); i++ {
			for j := i + 1; j < len(segs); j++ {
				if (segs[i].a-segs[j].a)*(segs[i].b-segs[j].b) < 0 {
					total++
				}
			}
		}
	}
	return total
}

const alignPasses = 4

// coordinates returns the center point of every real node.
func (lg *layered) coordinates(opts LayoutOptions, sizes map[string]Size) map[string]Point {
	horizontal := opts.Direction == DirectionLR

	// along is the rank-axis extent, across the in-rank extent.
	along := make([]float64, len(lg.ids))
	across := make([]float64, len(lg.ids))
	for v := 0; v < lg.real; v++ {
		s := sizes[lg.ids[v]]
		if horizontal {
			along[v], across[v] = s.Width, s.Height
		} else {
			along[v], across[v] = s.Height, s.Width
		}
	}

	rankPos := make([]float64, len(lg.layers))
	prevExtent := 0.0
	for r, layer := range lg.layers {
		extent := 0.0
		for _, v := range layer {
			if along[v] > extent {
				extent = along[v]
			}
		}
		if r == 0 {
			rankPos[r] = extent / 2
		} else {
			rankPos[r] = rankPos[r-1] + prevExtent/2 + opts.Preset.RankSep + extent/2
		}
		prevExtent = extent
	}

	coord := make([]float64, len(lg.ids))
	for _, layer := range lg.layers {
		c := 0.0
		for i, v := range layer {
			if i == 0 {
				c = across[v] / 2
			} else {
				c += across[layer[i-1]]/2 + opts.Preset.NodeSep + across[v]/2
			}
			coord[v] = c
		}
	}

	for pass := 0; pass < alignPasses; pass++ {
		if pass%2 == 0 {
			for r := 1; r < len(lg.layers); r++ {
				lg.align(lg.layers[r], lg.pred, coord, across, opts.Preset.NodeSep)
			}
		} else {
			for r := len(lg.layers) - 2; r >= 0; r-- {
				lg.align(lg.layers[r], lg.succ, coord, across, opts.Preset.NodeSep)
			}
		}
	}

	low := 0.0
	for v := range coord {
		if edge := coord[v] - across[v]/2; v == 0 || edge < low {
			low = edge
		}
	}

	centers := make(map[string]Point, lg.real)
	for v := 0; v < lg.real; v++ {
		a := rankPos[lg.rank[v]]
		c := coord[v] - low
		if horizontal {
			centers[lg.ids[v]] = Point{X: a, Y: c}
		} else {
			centers[lg.ids[v]] = Point{X: c, Y: a}
		}
	}
	return centers
}

// align pulls each node of a layer toward the median of its neighbours
// while keeping order and minimum separation.
func (lg *layered) align(layer []int, neighbors [][]int, coord, across []float64, sep float64) {
	for i, v := range layer {
		want := coord[v]
		if adj := neighbors[v]; len(adj) > 0 {
			vals := make([]float64, len(adj))
			for k, u := range adj {
				vals[k] = coord[u]
			}
			want = median(vals)
		}
		if i > 0 {
			prev := layer[i-1]
			if floor := coord[prev] + across[prev]/2 + sep + across[v]/2; want < floor {
				want = floor
			}
		}
		coord[v] = want
	}
}

func median(vals []float64) float64 {
	sort.Float64s(vals)
	mid := len(vals) / 2
	if len(vals)%2 == 1 {
		return vals[mid]
	}
	return (vals[mid-1] + vals[mid]) / 2
}

// stageOffsets maps each stage to its lane offset along x.
func stageOffsets(g Graph, opts LayoutOptions) map[string]float64 {
	stages := SortedStages(g)
	offsets := make(map[string]float64, len(stages))
	for i, stage := range stages {
		idx := i
		if opts.MaxOffsetStages > 0 && idx > opts.MaxOffsetStages-1 {
			idx = opts.MaxOffsetStages - 1
		}
		offsets[stage] = float64(idx) * opts.Preset.StageOffset
	}
	return offsets
}

// SortedStages returns the distinct stages of g, numeric stages first in
// numeric order, then the rest lexically.
func SortedStages(g Graph) []string {
	seen := make(map[string]bool)
	var stages []string
	for _, n := range g.Nodes {
		if !seen[n.Stage] {
			seen[n.Stage] = true
			stages = append(stages, n.Stage)
		}
	}
	sort.SliceStable(stages, func(i, j int) bool {
		return stageLess(stages[i], stages[j])
	})
	return stages
}

func stageLess(a, b string) bool {
	fa, errA := strconv.ParseFloat(a, 64)
	fb, errB := strconv.ParseFloat(b, 64)
	switch {
	case errA == nil && errB == nil:
		if fa != fb {
			return fa < fb
		}
		return a < b
	case errA == nil:
		return true
	case errB == nil:
		return false
	default:
		return a < b
	}
}
