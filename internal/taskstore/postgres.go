package taskstore

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5/pgxpool"
)

// ChangeChannel is the NOTIFY channel PostgresSource listens on.
const ChangeChannel = "tasks_changed"

const createSchemaSQL = `
CREATE TABLE IF NOT EXISTS tasks (
	task_id     TEXT PRIMARY KEY,
	title       TEXT NOT NULL DEFAULT '',
	description TEXT NOT NULL DEFAULT '',
	status      TEXT NOT NULL DEFAULT '',
	stage       TEXT NOT NULL,
	child_tasks TEXT[] NOT NULL DEFAULT '{}',
	is_visible  BOOLEAN NOT NULL DEFAULT TRUE,
	sort_order  INTEGER NOT NULL DEFAULT 0
);

CREATE OR REPLACE FUNCTION notify_tasks_changed() RETURNS trigger AS $$
BEGIN
	PERFORM pg_notify('tasks_changed', '');
	RETURN NULL;
END;
$$ LANGUAGE plpgsql;

DROP TRIGGER IF EXISTS tasks_changed ON tasks;
CREATE TRIGGER tasks_changed
	AFTER INSERT OR UPDATE OR DELETE ON tasks
	FOR EACH STATEMENT EXECUTE FUNCTION notify_tasks_changed();
`

// PostgresSource reads tasks from a Postgres "tasks" table.
type PostgresSource struct {
	db *pgxpool.Pool
}

// NewPostgresSource wraps an existing pool.
func NewPostgresSource(db *pgxpool.Pool) *PostgresSource {
	return &PostgresSource{db: db}
}

// OpenPostgres connects to the database at url.
func OpenPostgres(ctx context.Context, url string) (*PostgresSource, error) {
	pool, err := pgxpool.New(ctx, url)
	if err != nil {
		return nil, fmt.Errorf("taskstore: connect: %w", err)
	}
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("taskstore: ping: %w", err)
	}
	return NewPostgresSource(pool), nil
}

// CreateSchema creates the tasks table and its change trigger.
func (s *PostgresSource) CreateSchema(ctx context.Context) error {
	if _, err := s.db.Exec(ctx, createSchemaSQL); err != nil {
		return fmt.Errorf("taskstore: create schema: %w", err)
	}
	return nil
}

// Load returns every task ordered by sort_order, then task_id.
func (s *PostgresSource) Load(ctx context.Context) ([]Task, error) {
	rows, err := s.db.Query(ctx,
		`SELECT task_id, title, description, status, stage, child_tasks, is_visible
		 FROM tasks ORDER BY sort_order, task_id`)
	if err != nil {
		return nil, fmt.Errorf("taskstore: list tasks: %w", err)
	}
	defer rows.Close()

	var tasks []Task
	for rows.Next() {
		var t Task
		var stage string
		if err := rows.Scan(&t.ID, &t.Title, &t.Description, &t.Status, &stage, &t.ChildTasks, &t.IsVisible); err != nil {
			return nil, fmt.Errorf("taskstore: scan task: %w", err)
		}
		t.Stage = Stage(stage)
		tasks = append(tasks, t)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("taskstore: list tasks: %w", err)
	}
	return tasks, nil
}

// Watch LISTENs on ChangeChannel and calls onChange per notification.
func (s *PostgresSource) Watch(ctx context.Context, onChange func()) error {
	conn, err := s.db.Acquire(ctx)
	if err != nil {
		return fmt.Errorf("taskstore: acquire listener: %w", err)
	}
	defer conn.Release()

	if _, err := conn.Exec(ctx, "LISTEN "+ChangeChannel); err != nil {
		return fmt.Errorf("taskstore: listen: %w", err)
	}

	for {
		if _, err := conn.Conn().WaitForNotification(ctx); err != nil {
			if ctx.Err() != nil {
				return nil
			}
			return fmt.Errorf("taskstore: wait for notification: %w", err)
		}
		onChange()
	}
}

// Close closes the underlying pool.
func (s *PostgresSource) Close() error {
	s.db.Close()
	return nil
}
