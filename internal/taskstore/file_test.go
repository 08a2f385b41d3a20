package taskstore

import (
	"context"
	"os"
	"path/filepath"
	"sync/atomic"
	"testing"
	"time"

	"github.com/npratt/stagegraph/internal/testutil"
)

func TestParseTasks_JSONList(t *testing.T) {
	tasks, err := ParseTasks([]byte(testutil.ChainTasksJSON), FormatJSON)
	if err != nil {
		t.Fatalf("ParseTasks() error = %v", err)
	}
	if len(tasks) != 3 {
		t.Fatalf("got %d tasks, want 3", len(tasks))
	}
	a := tasks[0]
	if a.ID != "A" || a.Stage != "1" || !a.IsVisible || len(a.ChildTasks) != 1 || a.ChildTasks[0] != "B" {
		t.Errorf("task A = %+v", a)
	}
	if tasks[1].Status != "in_progress" {
		t.Errorf("task B status = %q", tasks[1].Status)
	}
}

func TestParseTasks_KeyedObject(t *testing.T) {
	tasks, err := ParseTasks([]byte(testutil.KeyedTasksJSON), FormatJSON)
	if err != nil {
		t.Fatalf("ParseTasks() error = %v", err)
	}
	if len(tasks) != 2 {
		t.Fatalf("got %d tasks, want 2", len(tasks))
	}
	if tasks[0].ID != "t1" || tasks[1].ID != "t2" {
		t.Errorf("IDs = %s, %s; want t1, t2 sorted", tasks[0].ID, tasks[1].ID)
	}
	if tasks[0].Stage != "1" {
		t.Errorf("numeric stage decoded as %q, want %q", tasks[0].Stage, "1")
	}
}

func TestParseTasks_YAML(t *testing.T) {
	tasks, err := ParseTasks([]byte(testutil.ChainTasksYAML), FormatYAML)
	if err != nil {
		t.Fatalf("ParseTasks() error = %v", err)
	}
	if len(tasks) != 3 {
		t.Fatalf("got %d tasks, want 3", len(tasks))
	}
	if tasks[1].ID != "B" || tasks[1].Stage != "2" || tasks[1].ChildTasks[0] != "C" {
		t.Errorf("task B = %+v", tasks[1])
	}
}

func TestParseTasks_Empty(t *testing.T) {
	for _, in := range []string{"", "  \n", testutil.EmptyTasksJSON} {
		tasks, err := ParseTasks([]byte(in), FormatJSON)
		if err != nil {
			t.Errorf("ParseTasks(%q) error = %v", in, err)
		}
		if len(tasks) != 0 {
			t.Errorf("ParseTasks(%q) = %d tasks, want 0", in, len(tasks))
		}
	}
}

func TestParseTasks_Invalid(t *testing.T) {
	if _, err := ParseTasks([]byte(testutil.InvalidTasksJSON), FormatJSON); err == nil {
		t.Error("expected parse error")
	}
}

func TestFormatFor(t *testing.T) {
	tests := map[string]Format{
		"tasks.json":  FormatJSON,
		"tasks.yaml":  FormatYAML,
		"tasks.YML":   FormatYAML,
		"tasks":       FormatJSON,
		"dir/t.jsonl": FormatJSON,
	}
	for path, want := range tests {
		if got := formatFor(path); got != want {
			t.Errorf("formatFor(%q) = %q, want %q", path, got, want)
		}
	}
}

func TestFileSource_Load(t *testing.T) {
	_, path, cleanup := testutil.SetupTestDirWithTasks(t, testutil.ChainTasksJSON)
	defer cleanup()

	src := NewFileSource(path)
	defer func() { _ = src.Close() }()

	tasks, err := src.Load(context.Background())
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if len(tasks) != 3 {
		t.Errorf("got %d tasks, want 3", len(tasks))
	}
}

func TestFileSource_LoadMissing(t *testing.T) {
	dir, cleanup := testutil.TempDir(t)
	defer cleanup()

	src := NewFileSource(filepath.Join(dir, "missing.json"))
	if _, err := src.Load(context.Background()); err == nil {
		t.Error("expected error for missing file")
	}
}

func TestFileSource_Watch(t *testing.T) {
	_, path, cleanup := testutil.SetupTestDirWithTasks(t, testutil.ChainTasksJSON)
	defer cleanup()

	src := NewFileSource(path)
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	var calls atomic.Int32
	done := make(chan error, 1)
	go func() {
		done <- src.Watch(ctx, func() { calls.Add(1) })
	}()

	// The watcher registers asynchronously; keep writing until it reports.
	deadline := time.Now().Add(3 * time.Second)
	for calls.Load() == 0 && time.Now().Before(deadline) {
		if err := os.WriteFile(path, []byte(testutil.HiddenLeafTasksJSON), 0644); err != nil {
			t.Fatal(err)
		}
		time.Sleep(50 * time.Millisecond)
	}
	cancel()

	if err := <-done; err != nil {
		t.Errorf("Watch() error = %v", err)
	}
	if calls.Load() == 0 {
		t.Error("onChange was never called")
	}
}

func TestFileSource_WatchIgnoresOtherFiles(t *testing.T) {
	dir, path, cleanup := testutil.SetupTestDirWithTasks(t, testutil.ChainTasksJSON)
	defer cleanup()

	src := NewFileSource(path)
	ctx, cancel := context.WithTimeout(context.Background(), 300*time.Millisecond)
	defer cancel()

	var calls atomic.Int32
	done := make(chan error, 1)
	go func() {
		done <- src.Watch(ctx, func() { calls.Add(1) })
	}()

	time.Sleep(50 * time.Millisecond)
	testutil.WriteFile(t, dir, "other.json", "[]")

	if err := <-done; err != nil {
		t.Errorf("Watch() error = %v", err)
	}
	if calls.Load() != 0 {
		t.Errorf("onChange called %d times for an unrelated file", calls.Load())
	}
}

func TestFileSource_WatchMissingDir(t *testing.T) {
	src := NewFileSource(filepath.Join(os.TempDir(), "stagegraph-no-such-dir", "tasks.json"))
	if err := src.Watch(context.Background(), func() {}); err == nil {
		t.Error("expected error watching a missing directory")
	}
}

func TestParseTasks_NumericStagesNormalized(t *testing.T) {
	tests := []struct {
		name   string
		format Format
		data   string
	}{
		{"json", FormatJSON, `[
  {"taskID": "A", "stage": 2, "childTasks": ["B"], "isVisible": true},
  {"taskID": "B", "stage": 2.0, "childTasks": [], "isVisible": true},
  {"taskID": "C", "stage": "2", "childTasks": [], "isVisible": true}
]`},
		{"yaml", FormatYAML, `- taskID: A
  stage: 2
  isVisible: true
- taskID: B
  stage: 2.0
  isVisible: true
- taskID: C
  stage: "2"
  isVisible: true
`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			tasks, err := ParseTasks([]byte(tt.data), tt.format)
			if err != nil {
				t.Fatalf("ParseTasks() error = %v", err)
			}
			for _, task := range tasks {
				if task.Stage != "2" {
					t.Errorf("task %s stage = %q, want %q", task.ID, task.Stage, "2")
				}
			}
		})
	}
}

func TestParseTasks_YAMLStageRejectsBool(t *testing.T) {
	if _, err := ParseTasks([]byte("- taskID: A\n  stage: true\n"), FormatYAML); err == nil {
		t.Error("ParseTasks() error = nil, want error for boolean stage")
	}
}
