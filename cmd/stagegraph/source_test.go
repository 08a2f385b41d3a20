package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"sync/atomic"
	"testing"
	"time"

	"github.com/jackc/pgx/v5"

	"github.com/npratt/stagegraph/internal/config"
	"github.com/npratt/stagegraph/internal/graph"
	"github.com/npratt/stagegraph/internal/taskstore"
	"github.com/npratt/stagegraph/internal/testutil"
)

func TestOpenSource_File(t *testing.T) {
	cfg := config.Default().Tasks
	cfg.File = "tasks.json"

	src, err := openSource(context.Background(), cfg)
	if err != nil {
		t.Fatalf("openSource() error = %v", err)
	}
	defer func() { _ = src.Close() }()

	if _, ok := src.(*taskstore.FileSource); !ok {
		t.Errorf("openSource() = %T, want *taskstore.FileSource", src)
	}
}

func TestOpenSource_Unknown(t *testing.T) {
	cfg := config.Default().Tasks
	cfg.Source = "redis"

	if _, err := openSource(context.Background(), cfg); !errors.Is(err, config.ErrInvalidConfig) {
		t.Errorf("openSource() error = %v, want ErrInvalidConfig", err)
	}
}

// A fresh database has no tasks table; opening the source must install it
// along with the trigger that Watch listens for.
func TestOpenSource_PostgresWatchFiresAfterInsert(t *testing.T) {
	url := os.Getenv("STAGEGRAPH_TEST_DATABASE_URL")
	if url == "" {
		t.Skip("STAGEGRAPH_TEST_DATABASE_URL not set")
	}
	ctx := context.Background()

	conn, err := pgx.Connect(ctx, url)
	if err != nil {
		t.Fatalf("connect: %v", err)
	}
	defer func() { _ = conn.Close(ctx) }()
	if _, err := conn.Exec(ctx, "DROP TABLE IF EXISTS tasks CASCADE"); err != nil {
		t.Fatalf("drop tasks: %v", err)
	}

	cfg := config.Default().Tasks
	cfg.Source = config.SourcePostgres
	cfg.DatabaseURL = url
	src, err := openSource(ctx, cfg)
	if err != nil {
		t.Fatalf("openSource() error = %v", err)
	}
	defer func() { _ = src.Close() }()

	watchCtx, cancel := context.WithCancel(ctx)
	defer cancel()
	var calls atomic.Int32
	done := make(chan error, 1)
	go func() {
		done <- src.Watch(watchCtx, func() { calls.Add(1) })
	}()

	// LISTEN is issued asynchronously; keep inserting until a notification lands.
	deadline := time.Now().Add(3 * time.Second)
	for i := 0; calls.Load() == 0 && time.Now().Before(deadline); i++ {
		_, err := conn.Exec(ctx, `INSERT INTO tasks (task_id, stage) VALUES ($1, '1')`, fmt.Sprintf("t%d", i))
		if err != nil {
			t.Fatalf("insert: %v", err)
		}
		time.Sleep(50 * time.Millisecond)
	}
	cancel()

	if err := <-done; err != nil {
		t.Errorf("Watch() error = %v", err)
	}
	if calls.Load() == 0 {
		t.Error("Watch never fired after INSERT")
	}
}

func taskCount(scene graph.Scene) int {
	n := 0
	for _, node := range scene.Nodes {
		if node.IsTask() {
			n++
		}
	}
	return n
}

func TestFollowSource_WatchUpdatesEngine(t *testing.T) {
	cfg := layoutConfig(t, testutil.ChainTasksJSON)
	engine, err := newEngine(cfg, discardLogger())
	if err != nil {
		t.Fatalf("newEngine() error = %v", err)
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	tasks, err := followSource(ctx, engine, taskstore.NewFileSource(cfg.Tasks.File), true, discardLogger())
	if err != nil {
		t.Fatalf("followSource() error = %v", err)
	}
	if tasks.Len() != 3 {
		t.Errorf("mirrored %d tasks, want 3", tasks.Len())
	}
	if got := taskCount(engine.Scene()); got != 3 {
		t.Fatalf("initial scene has %d tasks, want 3", got)
	}

	// Both watchers start asynchronously; keep rewriting until C drops out.
	deadline := time.Now().Add(3 * time.Second)
	for taskCount(engine.Scene()) != 2 && time.Now().Before(deadline) {
		if err := os.WriteFile(cfg.Tasks.File, []byte(testutil.HiddenLeafTasksJSON), 0644); err != nil {
			t.Fatal(err)
		}
		time.Sleep(50 * time.Millisecond)
	}
	if got := taskCount(engine.Scene()); got != 2 {
		t.Errorf("scene has %d tasks after rewrite, want 2", got)
	}
}
