package taskstore

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
)

// Collection is an in-memory, observable task collection keyed by task ID.
// Insertion order is preserved so that graph output stays stable.
type Collection struct {
	mu          sync.RWMutex
	order       []string
	tasks       map[string]Task
	subscribers map[int]chan struct{}
	nextSub     int
}

// NewCollection creates a collection seeded with the given tasks.
func NewCollection(tasks ...Task) *Collection {
	c := &Collection{
		tasks:       make(map[string]Task),
		subscribers: make(map[int]chan struct{}),
	}
	for _, t := range tasks {
		c.put(t)
	}
	return c
}

// Put inserts or replaces a task and notifies subscribers.
func (c *Collection) Put(t Task) {
	c.mu.Lock()
	c.put(t)
	c.mu.Unlock()
	c.notify()
}

// Replace swaps the whole collection and notifies subscribers once.
func (c *Collection) Replace(tasks []Task) {
	c.mu.Lock()
	c.order = nil
	c.tasks = make(map[string]Task, len(tasks))
	for _, t := range tasks {
		c.put(t)
	}
	c.mu.Unlock()
	c.notify()
}

// put must be called with mu held.
func (c *Collection) put(t Task) {
	if _, ok := c.tasks[t.ID]; !ok {
		c.order = append(c.order, t.ID)
	}
	c.tasks[t.ID] = t.Clone()
}

// Delete removes a task. Missing IDs are ignored.
func (c *Collection) Delete(id string) {
	c.mu.Lock()
	if _, ok := c.tasks[id]; !ok {
		c.mu.Unlock()
		return
	}
	delete(c.tasks, id)
	for i, oid := range c.order {
		if oid == id {
			c.order = append(c.order[:i:i], c.order[i+1:]...)
			break
		}
	}
	c.mu.Unlock()
	c.notify()
}

// Get returns a copy of the task with the given ID.
func (c *Collection) Get(id string) (Task, error) {
	c.mu.RLock()
	defer c.mu.RUnlock()

	t, ok := c.tasks[id]
	if !ok {
		return Task{}, ErrTaskNotFound
	}
	return t.Clone(), nil
}

// Tasks returns copies of all tasks in insertion order.
func (c *Collection) Tasks() []Task {
	c.mu.RLock()
	defer c.mu.RUnlock()

	result := make([]Task, 0, len(c.order))
	for _, id := range c.order {
		result = append(result, c.tasks[id].Clone())
	}
	return result
}

// Len returns the number of tasks.
func (c *Collection) Len() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.order)
}

// Subscribe returns a channel that receives a signal after each change,
// and a function that cancels the subscription. Signals coalesce: a slow
// reader sees at most one pending notification.
func (c *Collection) Subscribe() (<-chan struct{}, func()) {
	c.mu.Lock()
	defer c.mu.Unlock()

	id := c.nextSub
	c.nextSub++
	ch := make(chan struct{}, 1)
	c.subscribers[id] = ch

	return ch, func() {
		c.mu.Lock()
		defer c.mu.Unlock()
		if sub, ok := c.subscribers[id]; ok {
			delete(c.subscribers, id)
			close(sub)
		}
	}
}

func (c *Collection) notify() {
	c.mu.RLock()
	defer c.mu.RUnlock()
	for _, ch := range c.subscribers {
		select {
		case ch <- struct{}{}:
		default:
		}
	}
}

// Load implements Source.
func (c *Collection) Load(ctx context.Context) ([]Task, error) {
	return c.Tasks(), nil
}

// Watch implements Source by forwarding change notifications until ctx ends.
func (c *Collection) Watch(ctx context.Context, onChange func()) error {
	ch, cancel := c.Subscribe()
	defer cancel()

	for {
		select {
		case <-ctx.Done():
			return nil
		case _, ok := <-ch:
			if !ok {
				return nil
			}
			onChange()
		}
	}
}

// Close implements Source.
func (c *Collection) Close() error {
	return nil
}

// Mirror loads src into c and, when watch is set, replaces c's contents on
// every change src reports until ctx is done. A failed reload keeps the
// previous contents.
func (c *Collection) Mirror(ctx context.Context, src Source, watch bool, logger *slog.Logger) error {
	if logger == nil {
		logger = slog.Default()
	}
	if err := c.refresh(ctx, src); err != nil {
		return err
	}
	if !watch {
		return nil
	}

	err := src.Watch(ctx, func() {
		if err := c.refresh(ctx, src); err != nil {
			logger.Warn("task source reload failed", "error", err)
		}
	})
	if err != nil && !errors.Is(err, context.Canceled) {
		return fmt.Errorf("watch task source: %w", err)
	}
	return nil
}

func (c *Collection) refresh(ctx context.Context, src Source) error {
	tasks, err := src.Load(ctx)
	if err != nil {
		return fmt.Errorf("load tasks: %w", err)
	}
	c.Replace(tasks)
	return nil
}
