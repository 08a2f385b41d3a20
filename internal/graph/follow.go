package graph

import (
	"context"
	"errors"
	"fmt"

	"github.com/npratt/stagegraph/internal/taskstore"
)

// Follow loads the source into the engine and, when watch is set, reloads
// on every change notification until ctx is done. The initial load error is
// returned; later reload failures are logged and the previous graph kept.
func (e *Engine) Follow(ctx context.Context, source taskstore.Source, watch bool) error {
	if err := e.load(ctx, source); err != nil {
		return err
	}
	if !watch {
		return nil
	}

	err := source.Watch(ctx, func() {
		if err := e.load(ctx, source); err != nil {
			e.logger.Warn("task reload failed", "error", err)
		}
	})
	if err != nil && !errors.Is(err, context.Canceled) {
		return fmt.Errorf("watch tasks: %w", err)
	}
	return nil
}

func (e *Engine) load(ctx context.Context, source taskstore.Source) error {
	tasks, err := source.Load(ctx)
	if err != nil {
		return fmt.Errorf("load tasks: %w", err)
	}
	return e.SetTasks(tasks)
}
