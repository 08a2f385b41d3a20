package tui

import (
	"context"
	"log/slog"
	"time"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/npratt/stagegraph/internal/config"
	"github.com/npratt/stagegraph/internal/graph"
	"github.com/npratt/stagegraph/internal/taskstore"
)

// model is the bubbletea model for the graph view.
type model struct {
	engine *graph.Engine
	pane   GraphPane
	modal  *DetailModal
	logger *slog.Logger

	scenes      <-chan graph.Scene
	unsubscribe func()
	changes     <-chan struct{}
	initLoad    tea.Cmd
	onQuit      func()

	cellWidth      float64
	resizeDebounce time.Duration
	resizeSeq      int

	width    int
	height   int
	quitting bool
}

// sceneMsg delivers a scene published by the engine.
type sceneMsg struct {
	scene graph.Scene
}

// sourceChangedMsg signals that the task source may have new data.
type sourceChangedMsg struct{}

// resizeSettledMsg fires once window-size changes stop arriving.
type resizeSettledMsg struct {
	seq int
}

func newModel(engine *graph.Engine, source taskstore.Source, cfg config.TUIConfig, changes <-chan struct{}, onQuit func(), logger *slog.Logger) model {
	if logger == nil {
		logger = slog.Default()
	}
	scenes, unsubscribe := engine.Subscribe()

	m := model{
		engine:         engine,
		pane:           NewGraphPane(engine, source, cfg.CellWidth, cfg.CellHeight),
		modal:          NewDetailModal(engineFetcher(engine)),
		logger:         logger,
		scenes:         scenes,
		unsubscribe:    unsubscribe,
		changes:        changes,
		onQuit:         onQuit,
		cellWidth:      cfg.CellWidth,
		resizeDebounce: cfg.ResizeDebounce,
	}
	m.initLoad = m.pane.Reload()
	return m
}

// engineFetcher resolves task details from the engine's current collection.
func engineFetcher(engine *graph.Engine) TaskFetcher {
	return func(_ context.Context, id string) (taskstore.Task, error) {
		t, ok := engine.Task(id)
		if !ok {
			return taskstore.Task{}, taskstore.ErrTaskNotFound
		}
		return t, nil
	}
}

// Init implements tea.Model.
func (m model) Init() tea.Cmd {
	return tea.Batch(
		m.initLoad,
		waitForScene(m.scenes),
		waitForChange(m.changes),
	)
}

// waitForScene blocks on the engine subscription.
func waitForScene(ch <-chan graph.Scene) tea.Cmd {
	return func() tea.Msg {
		scene, ok := <-ch
		if !ok {
			return nil
		}
		return sceneMsg{scene: scene}
	}
}

// waitForChange blocks until the source watcher reports a change.
func waitForChange(ch <-chan struct{}) tea.Cmd {
	if ch == nil {
		return nil
	}
	return func() tea.Msg {
		if _, ok := <-ch; !ok {
			return nil
		}
		return sourceChangedMsg{}
	}
}
