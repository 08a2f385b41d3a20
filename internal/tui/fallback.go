package tui

import (
	"context"
	"fmt"
	"io"
	"os"
	"strings"

	"golang.org/x/term"

	"github.com/npratt/stagegraph/internal/graph"
)

// isTerminal returns true if both stdout and stdin are TTYs.
func isTerminal() bool {
	return term.IsTerminal(int(os.Stdout.Fd())) && term.IsTerminal(int(os.Stdin.Fd()))
}

// terminalSize returns the current terminal width and height.
// Returns 0, 0 if the terminal size cannot be determined.
func terminalSize() (width, height int) {
	width, height, err := term.GetSize(int(os.Stdout.Fd()))
	if err != nil {
		return 0, 0
	}
	return width, height
}

// runSimple prints the graph as an indented outline, once or on every
// source change when watching.
func (t *TUI) runSimple(ctx context.Context) error {
	width, _ := terminalSize()
	if _, err := t.engine.SetViewportWidth(float64(width) * t.cfg.CellWidth); err != nil {
		return err
	}

	refresh := func() error {
		tasks, err := t.source.Load(ctx)
		if err != nil {
			return fmt.Errorf("load tasks: %w", err)
		}
		if err := t.engine.SetTasks(tasks); err != nil {
			return err
		}
		writeOutline(t.out, t.engine.Scene())
		return nil
	}

	if err := refresh(); err != nil {
		return err
	}
	if !t.watch {
		return nil
	}

	changes := make(chan struct{}, 1)
	watchCtx, cancel := context.WithCancel(ctx)
	defer cancel()
	go t.watchSource(watchCtx, changes)

	for {
		select {
		case <-ctx.Done():
			return nil
		case <-changes:
			if err := refresh(); err != nil {
				t.logger.Warn("reload failed", "error", err)
			}
		}
	}
}

// writeOutline prints visible stages and their tasks in layout order.
func writeOutline(w io.Writer, scene graph.Scene) {
	if !scene.Ready {
		fmt.Fprintln(w, "No tasks to display")
		return
	}

	g := graph.Graph{Nodes: scene.Nodes, Edges: scene.Edges}
	for _, group := range g.GroupNodes() {
		if group.Hidden {
			continue
		}
		fmt.Fprintf(w, "%s\n", group.Label)
		for _, n := range g.TaskNodes() {
			if n.ParentID != group.ID || n.Hidden {
				continue
			}
			title, status := "", ""
			if n.Task != nil {
				title, status = singleLine(n.Task.Title), n.Task.Status
			}
			line := fmt.Sprintf("  %s %s  %s", statusIcon(status), n.ID, title)
			if children := g.Outgoing(n.ID); len(children) > 0 {
				line += "  -> " + strings.Join(children, ", ")
			}
			fmt.Fprintln(w, strings.TrimRight(line, " "))
		}
	}
}
