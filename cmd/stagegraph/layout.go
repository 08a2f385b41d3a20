package main

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"

	"github.com/npratt/stagegraph/internal/config"
)

// runLayout loads the tasks once, lays them out for the given viewport
// width and writes the scene as indented JSON.
func runLayout(ctx context.Context, w io.Writer, cfg *config.Config, width float64, logger *slog.Logger) error {
	if width < 0 {
		return fmt.Errorf("--%s must not be negative", FlagWidth)
	}

	source, err := openSource(ctx, cfg.Tasks)
	if err != nil {
		return err
	}
	defer func() { _ = source.Close() }()

	engine, err := newEngine(cfg, logger)
	if err != nil {
		return err
	}
	if _, err := engine.SetViewportWidth(width); err != nil {
		return err
	}
	if _, err := followSource(ctx, engine, source, false, logger); err != nil {
		return err
	}

	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(engine.Scene())
}
