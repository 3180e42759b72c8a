// Package queue buffers submitted ratings between the HTTP handler and the
// workers that persist them.
package queue

import (
	"context"
	"sync"

	"github.com/tommyjgunn-msc/student-engagement-pulse/internal/domain/model"
	"github.com/tommyjgunn-msc/student-engagement-pulse/pkg/metrics"
)

const (
	defaultQueueCapacity = 10000
	defaultBufferSize    = 10000
)

// Rating is the payload flowing through the queue.
type Rating = model.RatingRecord

// Queue provides non-blocking enqueue and channel-based dequeue semantics.
type Queue interface {
	// Enqueue returns false if the queue is full or closed.
	Enqueue(ctx context.Context, r Rating) bool

	// Dequeue returns a channel that is closed once the queue is closed and drained.
	Dequeue(ctx context.Context) <-chan Rating

	Len(ctx context.Context) int
	Close() error
	IsClosed() bool
}

// InMemoryQueue implements Queue using a buffered channel.
type InMemoryQueue struct {
	ratings    chan Rating
	capacity   int
	bufferSize int

	mu     sync.RWMutex
	closed bool
}

// NewInMemoryQueue creates a bounded queue.
func NewInMemoryQueue(opts ...Option) *InMemoryQueue {
	q := &InMemoryQueue{
		capacity:   defaultQueueCapacity,
		bufferSize: defaultBufferSize,
	}
	for _, opt := range opts {
		opt(q)
	}
	if q.bufferSize < q.capacity {
		q.bufferSize = q.capacity
	}
	q.ratings = make(chan Rating, q.bufferSize)

	metrics.UpdateQueueCapacity(q.capacity)
	metrics.UpdateQueueSize(0)
	return q
}

// Capacity returns the configured capacity.
func (q *InMemoryQueue) Capacity() int { return q.capacity }

// Enqueue adds a rating without blocking.
func (q *InMemoryQueue) Enqueue(ctx context.Context, r Rating) bool { //nolint:gocritic // hugeParam: passed by value for channel semantics
	q.mu.RLock()
	defer q.mu.RUnlock()

	if q.closed {
		metrics.RecordErrorByComponent("queue", "closed")
		return false
	}
	if len(q.ratings) >= q.capacity {
		metrics.RecordErrorByComponent("queue", "capacity_exceeded")
		return false
	}

	select {
	case q.ratings <- r:
		metrics.UpdateQueueSize(len(q.ratings))
		return true
	case <-ctx.Done():
		metrics.RecordErrorByComponent("queue", "context_cancelled")
		return false
	default:
		metrics.RecordErrorByComponent("queue", "queue_full")
		return false
	}
}

// Dequeue forwards queued ratings until the queue is closed or ctx is done.
func (q *InMemoryQueue) Dequeue(ctx context.Context) <-chan Rating {
	out := make(chan Rating)
	go func() {
		defer close(out)
		for r := range q.ratings {
			select {
			case out <- r:
				metrics.UpdateQueueSize(len(q.ratings))
			case <-ctx.Done():
				return
			}
		}
	}()
	return out
}

// Len returns the number of queued ratings.
func (q *InMemoryQueue) Len(_ context.Context) int {
	size := len(q.ratings)
	metrics.UpdateQueueSize(size)
	return size
}

// Close stops accepting ratings. Already queued ratings are still delivered.
func (q *InMemoryQueue) Close() error {
	q.mu.Lock()
	defer q.mu.Unlock()

	if q.closed {
		return nil
	}
	close(q.ratings)
	q.closed = true
	return nil
}

// IsClosed reports whether Close was called.
func (q *InMemoryQueue) IsClosed() bool {
	q.mu.RLock()
	defer q.mu.RUnlock()
	return q.closed
}
