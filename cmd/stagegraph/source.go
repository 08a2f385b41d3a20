package main

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/npratt/stagegraph/internal/config"
	"github.com/npratt/stagegraph/internal/graph"
	"github.com/npratt/stagegraph/internal/taskstore"
)

// openSource opens the task source named by the config. The Postgres
// source gets its table and change trigger installed so that watching works
// on a fresh database.
func openSource(ctx context.Context, cfg config.TasksConfig) (taskstore.Source, error) {
	switch cfg.Source {
	case config.SourceFile:
		return taskstore.NewFileSource(cfg.File), nil
	case config.SourcePostgres:
		src, err := taskstore.OpenPostgres(ctx, cfg.DatabaseURL)
		if err != nil {
			return nil, fmt.Errorf("open postgres task source: %w", err)
		}
		if err := src.CreateSchema(ctx); err != nil {
			_ = src.Close()
			return nil, err
		}
		return src, nil
	default:
		return nil, fmt.Errorf("%w: unknown task source %q", config.ErrInvalidConfig, cfg.Source)
	}
}

// newEngine builds the graph engine from config. Opening a task logs its
// detail route.
func newEngine(cfg *config.Config, logger *slog.Logger) (*graph.Engine, error) {
	opts, err := cfg.EngineOptions()
	if err != nil {
		return nil, err
	}
	opts.Logger = logger
	opts.OnOpen = func(taskID string) {
		logger.Info("task opened", "task", taskID, "route", graph.DetailRoute(taskID))
	}
	return graph.NewEngine(opts)
}

// followSource mirrors source into an in-memory collection and loads it into
// engine. With watch set, the mirror and the engine keep following changes
// in the background until ctx is done.
func followSource(ctx context.Context, engine *graph.Engine, source taskstore.Source, watch bool, logger *slog.Logger) (*taskstore.Collection, error) {
	tasks := taskstore.NewCollection()
	if err := tasks.Mirror(ctx, source, false, logger); err != nil {
		return nil, err
	}
	if err := engine.Follow(ctx, tasks, false); err != nil {
		return nil, err
	}
	if !watch {
		return tasks, nil
	}

	go func() {
		if err := engine.Follow(ctx, tasks, true); err != nil {
			logger.Error("graph follow stopped", "error", err)
		}
	}()
	go func() {
		if err := tasks.Mirror(ctx, source, true, logger); err != nil {
			logger.Error("task watch stopped", "error", err)
		}
	}()
	return tasks, nil
}
