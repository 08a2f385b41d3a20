package graph

// RecomputeGroupBounds sizes every group node around the non-hidden task
// nodes of its stage. A group with no such members is hidden and keeps its
// previous geometry.
//
// The group spans (xMin-margin, yMin-margin) with width
// laneWidth+(xMax-xMin) and height yMax-yMin+nodeHeight+margin, where the
// extremes are taken over member positions. When every member shares one x
// the width is exactly the lane width. The width is not fixed at the lane
// width: a stage spanning several ranks would otherwise leave its later
// members outside the box.
//
// The second return value reports whether any group changed. When it is
// false the input graph is returned as is, so repeated calls on stable
// input are free and never trigger another render.
func RecomputeGroupBounds(g Graph, opts LayoutOptions) (Graph, bool) {
	members := make(map[string]*extent)
	for _, n := range g.Nodes {
		if !n.IsTask() || n.Hidden {
			continue
		}
		e, ok := members[n.Stage]
		if !ok {
			e = &extent{}
			members[n.Stage] = e
		}
		e.add(n.Position)
	}

	var out Graph
	changed := false
	margin := opts.Preset.Margin

	for i, n := range g.Nodes {
		if !n.IsGroup() {
			continue
		}

		next := n
		e, ok := members[n.Stage]
		if !ok || e.empty() {
			next.Hidden = true
		} else {
			next.Hidden = false
			next.Position = Point{X: e.min.X - margin, Y: e.min.Y - margin}
			next.Size = Size{
				Width:  opts.Preset.LaneWidth + (e.max.X - e.min.X),
				Height: e.max.Y - e.min.Y + opts.Preset.NodeHeight + margin,
			}
		}

		if next == n {
			continue
		}
		if !changed {
			out = g.Clone()
			changed = true
		}
		out.Nodes[i] = next
	}

	if !changed {
		return g, false
	}
	return out, true
}
