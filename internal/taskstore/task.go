// Package taskstore provides the task collection the graph engine reads from.
//
// Tasks come from an external store (a JSON/YAML file or a Postgres table).
// The graph engine only ever reads them; nothing in this package is written
// back by the engine.
package taskstore

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strconv"

	"gopkg.in/yaml.v3"
)

// ErrTaskNotFound is returned when a task lookup misses.
var ErrTaskNotFound = errors.New("taskstore: task not found")

// Task is a single task record as supplied by the task store.
type Task struct {
	ID          string   `json:"taskID" yaml:"taskID"`
	Title       string   `json:"title" yaml:"title"`
	Description string   `json:"description,omitempty" yaml:"description,omitempty"`
	Status      string   `json:"status,omitempty" yaml:"status,omitempty"` // Not Started, Started, Issues, Completed
	Stage       Stage    `json:"stage" yaml:"stage"`
	ChildTasks  []string `json:"childTasks,omitempty" yaml:"childTasks,omitempty"`
	IsVisible   bool     `json:"isVisible" yaml:"isVisible"`
}

// Clone returns a deep copy of the task.
func (t Task) Clone() Task {
	c := t
	if t.ChildTasks != nil {
		c.ChildTasks = append([]string(nil), t.ChildTasks...)
	}
	return c
}

// Source loads the full task collection.
type Source interface {
	// Load returns every task in store order.
	Load(ctx context.Context) ([]Task, error)
	// Watch blocks until ctx is done, calling onChange whenever the
	// underlying collection may have changed.
	Watch(ctx context.Context, onChange func()) error
	// Close releases resources held by the source.
	Close() error
}

// Stage identifies a pipeline phase. Stores write it either as a string or
// as a bare number; both decode to the same value. Numbers are normalized,
// so 2, 2.0 and "2" name one stage.
type Stage string

// UnmarshalJSON accepts both "2" and 2.
func (s *Stage) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if len(data) > 0 && data[0] == '"' {
		var str string
		if err := json.Unmarshal(data, &str); err != nil {
			return err
		}
		*s = Stage(str)
		return nil
	}
	var num json.Number
	if err := json.Unmarshal(data, &num); err != nil {
		return fmt.Errorf("stage must be a string or number: %w", err)
	}
	if num == "" {
		*s = ""
		return nil
	}
	f, err := num.Float64()
	if err != nil {
		return fmt.Errorf("stage must be a string or number: %w", err)
	}
	*s = numericStage(f)
	return nil
}

// UnmarshalYAML accepts both "2" and 2.
func (s *Stage) UnmarshalYAML(node *yaml.Node) error {
	if node.Kind != yaml.ScalarNode {
		return fmt.Errorf("stage must be a string or number, got YAML node kind %d", node.Kind)
	}
	switch node.ShortTag() {
	case "!!int", "!!float":
		var f float64
		if err := node.Decode(&f); err != nil {
			return fmt.Errorf("stage must be a string or number: %w", err)
		}
		*s = numericStage(f)
	case "!!null":
		*s = ""
	case "!!str":
		*s = Stage(node.Value)
	default:
		return fmt.Errorf("stage must be a string or number, got %s", node.ShortTag())
	}
	return nil
}

func numericStage(f float64) Stage {
	return Stage(strconv.FormatFloat(f, 'f', -1, 64))
}

// String implements fmt.Stringer.
func (s Stage) String() string {
	return string(s)
}
