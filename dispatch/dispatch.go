// Package dispatch provides the affinity context that owns every bound value
// write.
//
// An Executor is captured when a binding is built. Writes requested while
// InContext reports true run inline; any other write is posted to the
// executor and the caller returns without waiting.
package dispatch

import (
	"sync"
)

// Executor is a single logical owner of writes.
type Executor interface {
	// Post enqueues fn. It never blocks on fn running.
	Post(fn func())
	// InContext reports whether the caller is running on the executor.
	InContext() bool
}

// Inline runs everything synchronously on the calling goroutine.
type Inline struct{}

func (Inline) Post(fn func()) { fn() }

func (Inline) InContext() bool { return true }

// Queue is a manually drained executor for tests. Posted tasks run only when
// Drain is called, and InContext is true only while draining.
type Queue struct {
	mu       sync.Mutex
	tasks    []func()
	draining bool
}

// Post enqueues fn.
func (q *Queue) Post(fn func()) {
	q.mu.Lock()
	defer q.mu.Unlock()

	q.tasks = append(q.tasks, fn)
}

// InContext reports whether the queue is being drained.
func (q *Queue) InContext() bool {
	q.mu.Lock()
	defer q.mu.Unlock()

	return q.draining
}

// Pending returns the number of queued tasks.
func (q *Queue) Pending() int {
	q.mu.Lock()
	defer q.mu.Unlock()

	return len(q.tasks)
}

// Drain runs queued tasks, including tasks posted while draining, and
// returns how many ran.
func (q *Queue) Drain() int {
	q.mu.Lock()
	q.draining = true
	q.mu.Unlock()

	defer func() {
		q.mu.Lock()
		q.draining = false
		q.mu.Unlock()
	}()

	n := 0

	for {
		q.mu.Lock()
		if len(q.tasks) == 0 {
			q.mu.Unlock()
			return n
		}

		fn := q.tasks[0]
		q.tasks = q.tasks[1:]
		q.mu.Unlock()

		fn()
		n++
	}
}
