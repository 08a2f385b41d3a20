// Package tui provides a terminal view of the stage graph using bubbletea.
package tui

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"os"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/npratt/stagegraph/internal/config"
	"github.com/npratt/stagegraph/internal/graph"
	"github.com/npratt/stagegraph/internal/taskstore"
)

// TUI is the terminal graph view.
type TUI struct {
	engine *graph.Engine
	source taskstore.Source
	cfg    config.TUIConfig
	watch  bool
	onQuit func()
	logger *slog.Logger
	out    io.Writer
}

// Option configures the TUI.
type Option func(*TUI)

// New creates a TUI that loads tasks from source into engine.
func New(engine *graph.Engine, source taskstore.Source, cfg config.TUIConfig, opts ...Option) *TUI {
	t := &TUI{
		engine: engine,
		source: source,
		cfg:    cfg,
		logger: slog.Default(),
		out:    os.Stdout,
	}
	for _, opt := range opts {
		opt(t)
	}
	return t
}

// WithWatch reloads the graph whenever the source reports a change.
func WithWatch(watch bool) Option {
	return func(t *TUI) {
		t.watch = watch
	}
}

// WithOnQuit sets the callback invoked when the user quits.
func WithOnQuit(fn func()) Option {
	return func(t *TUI) {
		t.onQuit = fn
	}
}

// WithLogger sets the logger for background failures.
func WithLogger(logger *slog.Logger) Option {
	return func(t *TUI) {
		if logger != nil {
			t.logger = logger
		}
	}
}

// WithOutput sets where the non-interactive fallback writes.
func WithOutput(w io.Writer) Option {
	return func(t *TUI) {
		t.out = w
	}
}

// Run starts the TUI and blocks until the user quits or ctx is done. When
// stdout is not a terminal it prints a text outline instead.
func (t *TUI) Run(ctx context.Context) error {
	if !isTerminal() {
		return t.runSimple(ctx)
	}

	changes := make(chan struct{}, 1)
	if t.watch {
		watchCtx, cancel := context.WithCancel(ctx)
		defer cancel()
		go t.watchSource(watchCtx, changes)
	}

	m := newModel(t.engine, t.source, t.cfg, changes, t.onQuit, t.logger)
	p := tea.NewProgram(m, tea.WithAltScreen(), tea.WithContext(ctx))
	_, err := p.Run()
	if errors.Is(err, tea.ErrProgramKilled) && ctx.Err() != nil {
		return nil
	}
	return err
}

// watchSource forwards change notifications, coalescing bursts.
func (t *TUI) watchSource(ctx context.Context, changes chan<- struct{}) {
	err := t.source.Watch(ctx, func() {
		select {
		case changes <- struct{}{}:
		default:
		}
	})
	if err != nil && !errors.Is(err, context.Canceled) {
		t.logger.Warn("task source watch stopped", "error", err)
	}
}
