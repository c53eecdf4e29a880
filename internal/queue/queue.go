// Package queue provides the unbounded multi-producer single-consumer
// queue that sits between writers and the flush daemon.
package queue

import "sync"

// Queue is an unbounded FIFO of encoded lines. Push never blocks; the
// single consumer waits on Ready and takes everything with Drain.
type Queue struct {
	mu     sync.Mutex
	items  []string
	closed bool
	ready  chan struct{}
}

func New(capacity int) *Queue {
	if capacity < 0 {
		capacity = 0
	}

	return &Queue{
		items: make([]string, 0, capacity),
		ready: make(chan struct{}, 1),
	}
}

// Push appends item and wakes the consumer. It returns false, dropping the
// item, once the queue has been closed.
func (q *Queue) Push(item string) bool {
	q.mu.Lock()
	if q.closed {
		q.mu.Unlock()
		return false
	}
	q.items = append(q.items, item)
	q.mu.Unlock()

	select {
	case q.ready <- struct{}{}:
	default:
	}

	return true
}

// Ready is signalled at least once after any Push that happened since the
// last receive.
func (q *Queue) Ready() <-chan struct{} {
	return q.ready
}

// Drain appends every queued item to dst in FIFO order and empties the queue.
func (q *Queue) Drain(dst []string) []string {
	q.mu.Lock()
	defer q.mu.Unlock()

	dst = append(dst, q.items...)
	for i := range q.items {
		q.items[i] = ""
	}
	q.items = q.items[:0]

	return dst
}

// Close rejects further pushes. Items already queued can still be drained.
func (q *Queue) Close() {
	q.mu.Lock()
	q.closed = true
	q.mu.Unlock()
}

func (q *Queue) Closed() bool {
	q.mu.Lock()
	defer q.mu.Unlock()

	return q.closed
}

func (q *Queue) Len() int {
	q.mu.Lock()
	defer q.mu.Unlock()

	return len(q.items)
}
