package graph

import "testing"

func TestRecomputeGroupBounds_Chain(t *testing.T) {
	g := laidOut(t, chainTasks(), testOptions())

	tests := []struct {
		id   string
		pos  Point
		size Size
	}{
		// Single member at x=0: width is exactly the lane width.
		{"S-1", Point{X: -10, Y: -10}, Size{Width: 120, Height: 60}},
		// Members at x=190 and x=330.
		{"S-2", Point{X: 180, Y: -10}, Size{Width: 260, Height: 60}},
	}
	for _, tt := range tests {
		n := mustNode(t, g, tt.id)
		if n.Hidden {
			t.Errorf("%s should be visible", tt.id)
		}
		if n.Position != tt.pos {
			t.Errorf("%s position = %+v, want %+v", tt.id, n.Position, tt.pos)
		}
		if n.Size != tt.size {
			t.Errorf("%s size = %+v, want %+v", tt.id, n.Size, tt.size)
		}
	}
}

func TestRecomputeGroupBounds_ContainsMembers(t *testing.T) {
	for _, dir := range []Direction{DirectionLR, DirectionTB} {
		t.Run(string(dir), func(t *testing.T) {
			opts := testOptions()
			opts.Direction = dir
			g := laidOut(t, diamondTasks(), opts)

			for _, group := range g.GroupNodes() {
				box := group.Bounds()
				for _, n := range g.TaskNodes() {
					if n.ParentID != group.ID {
						continue
					}
					if !box.Contains(n.Position) {
						t.Errorf("group %s %+v does not contain %s at %+v", group.ID, box, n.ID, n.Position)
					}
				}
			}
		})
	}
}

func TestRecomputeGroupBounds_WidthSpansAllRanks(t *testing.T) {
	g := laidOut(t, chainTasks(), testOptions())
	group := mustNode(t, g, "S-2")

	if group.Size.Width <= testPreset.LaneWidth {
		t.Errorf("S-2 width = %v, want wider than the %v lane for a two-rank stage", group.Size.Width, testPreset.LaneWidth)
	}
	right := group.Position.X + group.Size.Width
	for _, id := range []string{"B", "C"} {
		n := mustNode(t, g, id)
		if edge := n.Position.X + n.Size.Width; edge > right {
			t.Errorf("%s right edge %v lies outside S-2 (right %v)", id, edge, right)
		}
	}
}

func TestRecomputeGroupBounds_Idempotent(t *testing.T) {
	g := laidOut(t, chainTasks(), testOptions())

	again, changed := RecomputeGroupBounds(g, testOptions())
	if changed {
		t.Error("second pass reported a change")
	}
	for i := range g.Nodes {
		if g.Nodes[i] != again.Nodes[i] {
			t.Errorf("node %s changed on second pass", g.Nodes[i].ID)
		}
	}
}

func TestRecomputeGroupBounds_HidesEmptyGroup(t *testing.T) {
	g := laidOut(t, chainTasks(), testOptions())
	before := mustNode(t, g, "S-2")

	hidden := g.Clone()
	for i := range hidden.Nodes {
		if hidden.Nodes[i].ID == "B" || hidden.Nodes[i].ID == "C" {
			hidden.Nodes[i].Hidden = true
		}
	}

	out, changed := RecomputeGroupBounds(hidden, testOptions())
	if !changed {
		t.Fatal("expected a change")
	}
	s2 := mustNode(t, out, "S-2")
	if !s2.Hidden {
		t.Error("S-2 should be hidden with no visible members")
	}
	if s2.Position != before.Position || s2.Size != before.Size {
		t.Errorf("hidden group geometry changed: %+v %+v", s2.Position, s2.Size)
	}
	if mustNode(t, out, "S-1").Hidden {
		t.Error("S-1 should stay visible")
	}
}

func TestRecomputeGroupBounds_ShrinksToVisibleMembers(t *testing.T) {
	g := laidOut(t, chainTasks(), testOptions())

	hidden := g.Clone()
	for i := range hidden.Nodes {
		if hidden.Nodes[i].ID == "C" {
			hidden.Nodes[i].Hidden = true
		}
	}

	out, _ := RecomputeGroupBounds(hidden, testOptions())
	s2 := mustNode(t, out, "S-2")
	if s2.Size.Width != testPreset.LaneWidth {
		t.Errorf("S-2 width = %v, want lane width %v", s2.Size.Width, testPreset.LaneWidth)
	}
}

func TestRecomputeGroupBounds_DoesNotMutateInput(t *testing.T) {
	g, err := Layout(Build(chainTasks()), testOptions())
	if err != nil {
		t.Fatalf("Layout() error = %v", err)
	}

	if _, changed := RecomputeGroupBounds(g, testOptions()); !changed {
		t.Fatal("first pass should change unsized groups")
	}
	for _, n := range g.GroupNodes() {
		if n.Size != (Size{}) {
			t.Errorf("input group %s was modified", n.ID)
		}
	}
}
