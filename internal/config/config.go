// Package config provides configuration types and defaults for stagegraph.
package config

import (
	"errors"
	"fmt"
	"time"

	"github.com/npratt/stagegraph/internal/graph"
)

// Task source kinds.
const (
	SourceFile     = "file"
	SourcePostgres = "postgres"
)

// ErrInvalidConfig is wrapped by every Validate failure.
var ErrInvalidConfig = errors.New("invalid config")

// Config holds all configuration for stagegraph.
type Config struct {
	Tasks       TasksConfig       `yaml:"tasks" mapstructure:"tasks"`
	Layout      LayoutConfig      `yaml:"layout" mapstructure:"layout"`
	Graph       GraphConfig       `yaml:"graph" mapstructure:"graph"`
	TUI         TUIConfig         `yaml:"tui" mapstructure:"tui"`
	Server      ServerConfig      `yaml:"server" mapstructure:"server"`
	LogRotation LogRotationConfig `yaml:"log_rotation" mapstructure:"log_rotation"`
}

// TasksConfig selects where tasks are read from.
type TasksConfig struct {
	Source      string `yaml:"source" mapstructure:"source"`             // "file" or "postgres"
	File        string `yaml:"file" mapstructure:"file"`                 // JSON or YAML task file
	DatabaseURL string `yaml:"database_url" mapstructure:"database_url"` // Postgres connection string
	Watch       bool   `yaml:"watch" mapstructure:"watch"`               // Reload when the source changes
}

// LayoutConfig holds layout direction and the two size presets.
type LayoutConfig struct {
	Direction       string       `yaml:"direction" mapstructure:"direction"`   // "LR" or "TB"
	Breakpoint      float64      `yaml:"breakpoint" mapstructure:"breakpoint"` // Viewport px at or below which compact applies
	MaxOffsetStages int          `yaml:"max_offset_stages" mapstructure:"max_offset_stages"`
	Compact         PresetConfig `yaml:"compact" mapstructure:"compact"`
	Expanded        PresetConfig `yaml:"expanded" mapstructure:"expanded"`
}

// PresetConfig holds node dimensions and spacing in pixels.
type PresetConfig struct {
	NodeWidth   float64 `yaml:"node_width" mapstructure:"node_width"`
	NodeHeight  float64 `yaml:"node_height" mapstructure:"node_height"`
	LaneWidth   float64 `yaml:"lane_width" mapstructure:"lane_width"`
	Margin      float64 `yaml:"margin" mapstructure:"margin"`
	RankSep     float64 `yaml:"rank_sep" mapstructure:"rank_sep"`
	NodeSep     float64 `yaml:"node_sep" mapstructure:"node_sep"`
	StageOffset float64 `yaml:"stage_offset" mapstructure:"stage_offset"` // Per-stage lane shift
}

// GraphConfig holds interaction settings.
type GraphConfig struct {
	ToggleMode string `yaml:"toggle_mode" mapstructure:"toggle_mode"` // "shared" or "per_node"
}

// TUIConfig holds terminal rendering settings.
type TUIConfig struct {
	CellWidth      float64       `yaml:"cell_width" mapstructure:"cell_width"`   // Pixels per terminal column
	CellHeight     float64       `yaml:"cell_height" mapstructure:"cell_height"` // Pixels per terminal row
	ResizeDebounce time.Duration `yaml:"resize_debounce" mapstructure:"resize_debounce"`
}

// ServerConfig holds HTTP server settings.
type ServerConfig struct {
	Addr         string        `yaml:"addr" mapstructure:"addr"`
	ReadTimeout  time.Duration `yaml:"read_timeout" mapstructure:"read_timeout"`
	WriteTimeout time.Duration `yaml:"write_timeout" mapstructure:"write_timeout"`
}

// LogRotationConfig holds settings for log file rotation.
// Used for the TUI debug log (lumberjack-based automatic rotation).
type LogRotationConfig struct {
	MaxSizeMB  int  `yaml:"max_size_mb" mapstructure:"max_size_mb"`
	MaxBackups int  `yaml:"max_backups" mapstructure:"max_backups"`
	MaxAgeDays int  `yaml:"max_age_days" mapstructure:"max_age_days"`
	Compress   bool `yaml:"compress" mapstructure:"compress"`
}

// Default returns a Config matching the dashboard's stock presets.
func Default() *Config {
	return &Config{
		Tasks: TasksConfig{
			Source: SourceFile,
			File:   "tasks.json",
			Watch:  true,
		},
		Layout: LayoutConfig{
			Direction:       string(graph.DirectionLR),
			Breakpoint:      1536,
			MaxOffsetStages: 4,
			Compact: PresetConfig{
				NodeWidth:   300,
				NodeHeight:  140,
				LaneWidth:   320,
				Margin:      10,
				RankSep:     50,
				NodeSep:     50,
				StageOffset: 50,
			},
			Expanded: PresetConfig{
				NodeWidth:   480,
				NodeHeight:  210,
				LaneWidth:   500,
				Margin:      20,
				RankSep:     50,
				NodeSep:     50,
				StageOffset: 100,
			},
		},
		Graph: GraphConfig{
			ToggleMode: string(graph.ToggleShared),
		},
		TUI: TUIConfig{
			CellWidth:      10,
			CellHeight:     20,
			ResizeDebounce: 100 * time.Millisecond,
		},
		Server: ServerConfig{
			Addr:         ":8080",
			ReadTimeout:  10 * time.Second,
			WriteTimeout: 10 * time.Second,
		},
		LogRotation: LogRotationConfig{
			MaxSizeMB:  100,
			MaxBackups: 3,
			MaxAgeDays: 7,
			Compress:   true,
		},
	}
}

// Validate reports the first configuration error found.
func (c *Config) Validate() error {
	switch c.Tasks.Source {
	case SourceFile:
		if c.Tasks.File == "" {
			return fmt.Errorf("%w: tasks.file is required for the file source", ErrInvalidConfig)
		}
	case SourcePostgres:
		if c.Tasks.DatabaseURL == "" {
			return fmt.Errorf("%w: tasks.database_url is required for the postgres source", ErrInvalidConfig)
		}
	default:
		return fmt.Errorf("%w: unknown tasks.source %q", ErrInvalidConfig, c.Tasks.Source)
	}

	if _, err := graph.ParseDirection(c.Layout.Direction); err != nil {
		return fmt.Errorf("%w: layout.direction: %w", ErrInvalidConfig, err)
	}
	if _, err := graph.ParseToggleMode(c.Graph.ToggleMode); err != nil {
		return fmt.Errorf("%w: graph.toggle_mode: %w", ErrInvalidConfig, err)
	}
	if c.Layout.Breakpoint < 0 {
		return fmt.Errorf("%w: layout.breakpoint must not be negative", ErrInvalidConfig)
	}
	if c.Layout.MaxOffsetStages < 0 {
		return fmt.Errorf("%w: layout.max_offset_stages must not be negative", ErrInvalidConfig)
	}
	presets := []struct {
		name string
		cfg  PresetConfig
	}{
		{graph.PresetCompact, c.Layout.Compact},
		{graph.PresetExpanded, c.Layout.Expanded},
	}
	for _, p := range presets {
		lo := graph.LayoutOptions{Direction: graph.DirectionLR, Preset: p.cfg.Preset(p.name)}
		if err := lo.Validate(); err != nil {
			return fmt.Errorf("%w: layout.%s: %w", ErrInvalidConfig, p.name, err)
		}
	}
	if c.TUI.CellWidth <= 0 || c.TUI.CellHeight <= 0 {
		return fmt.Errorf("%w: tui cell size must be positive", ErrInvalidConfig)
	}
	return nil
}

// Preset converts the config block into a named layout preset.
func (p PresetConfig) Preset(name string) graph.Preset {
	return graph.Preset{
		Name:        name,
		NodeWidth:   p.NodeWidth,
		NodeHeight:  p.NodeHeight,
		LaneWidth:   p.LaneWidth,
		Margin:      p.Margin,
		RankSep:     p.RankSep,
		NodeSep:     p.NodeSep,
		StageOffset: p.StageOffset,
	}
}

// EngineOptions builds graph engine options from the layout and graph
// sections. The config should already be validated.
func (c *Config) EngineOptions() (graph.EngineOptions, error) {
	dir, err := graph.ParseDirection(c.Layout.Direction)
	if err != nil {
		return graph.EngineOptions{}, err
	}
	mode, err := graph.ParseToggleMode(c.Graph.ToggleMode)
	if err != nil {
		return graph.EngineOptions{}, err
	}
	return graph.EngineOptions{
		Direction:       dir,
		Compact:         c.Layout.Compact.Preset(graph.PresetCompact),
		Expanded:        c.Layout.Expanded.Preset(graph.PresetExpanded),
		Breakpoint:      c.Layout.Breakpoint,
		MaxOffsetStages: c.Layout.MaxOffsetStages,
		ToggleMode:      mode,
	}, nil
}
