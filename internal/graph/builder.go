package graph

import (
	"github.com/npratt/stagegraph/internal/taskstore"
)

// Build converts tasks into a graph with one group node per stage, one task
// node per visible task and one edge per visible parent/child pair.
//
// Group nodes appear in first-encounter stage order and are created for
// every stage that has any task, visible or not. Child references to
// invisible or unknown tasks are dropped. Output order depends only on the
// input order.
func Build(tasks []taskstore.Task) Graph {
	var g Graph

	seenStage := make(map[string]bool)
	for _, t := range tasks {
		stage := t.Stage.String()
		if seenStage[stage] {
			continue
		}
		seenStage[stage] = true
		g.Nodes = append(g.Nodes, Node{
			ID:    GroupID(stage),
			Kind:  KindGroup,
			Stage: stage,
			Label: "Stage " + stage,
		})
	}

	visible := make(map[string]bool)
	for _, t := range tasks {
		if !t.IsVisible || visible[t.ID] {
			continue
		}
		visible[t.ID] = true

		task := t.Clone()
		g.Nodes = append(g.Nodes, Node{
			ID:       t.ID,
			Kind:     KindTask,
			Stage:    t.Stage.String(),
			ParentID: GroupID(t.Stage.String()),
			Task:     &task,
		})
	}

	emitted := make(map[string]bool)
	for _, t := range tasks {
		if !t.IsVisible {
			continue
		}
		for _, childID := range t.ChildTasks {
			if !visible[childID] {
				continue
			}
			id := EdgeID(t.ID, childID)
			if emitted[id] {
				continue
			}
			emitted[id] = true
			g.Edges = append(g.Edges, Edge{ID: id, Source: t.ID, Target: childID})
		}
	}

	return g
}
