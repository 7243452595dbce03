// Package pipeline runs crawl work: a bounded in-memory queue of
// (store, category) items, a worker pool that drives them through fetch,
// normalization, dedup and persistence, and a runner that orchestrates
// whole crawl runs.
package pipeline

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"github.com/pricewatch-vn/grocery-crawler/internal/catalog"
)

// ErrQueueClosed is returned by Dequeue after Close once the queue drains.
var ErrQueueClosed = errors.New("queue closed")

// Queue is a bounded in-memory work queue with context-aware operations.
type Queue struct {
	ch      chan catalog.WorkItem
	closeMu sync.Mutex
	closed  bool
}

// NewQueue constructs a queue with the provided capacity.
func NewQueue(capacity int) *Queue {
	return &Queue{
		ch: make(chan catalog.WorkItem, capacity),
	}
}

// Enqueue pushes a work item or returns if the context ends.
func (q *Queue) Enqueue(ctx context.Context, item catalog.WorkItem) error {
	select {
	case <-ctx.Done():
		return fmt.Errorf("enqueue canceled: %w", ctx.Err())
	case q.ch <- item:
		return nil
	}
}

// Dequeue pops the next item, respecting context cancellation. Once the
// queue is closed and drained it returns ErrQueueClosed.
func (q *Queue) Dequeue(ctx context.Context) (catalog.WorkItem, error) {
	select {
	case <-ctx.Done():
		return catalog.WorkItem{}, fmt.Errorf("dequeue canceled: %w", ctx.Err())
	case item, ok := <-q.ch:
		if !ok {
			return catalog.WorkItem{}, ErrQueueClosed
		}
		return item, nil
	}
}

// Close marks the queue complete. Items already queued still drain.
func (q *Queue) Close() {
	q.closeMu.Lock()
	defer q.closeMu.Unlock()
	if q.closed {
		return
	}
	close(q.ch)
	q.closed = true
}
