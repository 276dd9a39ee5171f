// Package worker runs side effects of the cycle machine off the caller's goroutine.
package worker

import (
	"context"
	"sync"

	"github.com/sirupsen/logrus"
)

// Inline runs every task on the calling goroutine. Used in tests and tooling.
type Inline struct{}

func (Inline) Execute(task func()) {
	task()
}

// Queue is a FIFO of tasks drained by a single goroutine.
// Execute never blocks: the backlog is unbounded and tasks run in submission order.
type Queue struct {
	mu      sync.Mutex
	pending []func()
	wake    chan struct{}
	idle    *sync.Cond
	busy    bool
	logger  *logrus.Entry
	done    chan struct{}
}

// NewQueue starts the draining goroutine; it exits when ctx is cancelled.
func NewQueue(ctx context.Context, logger *logrus.Entry) *Queue {
	q := &Queue{
		wake:   make(chan struct{}, 1),
		logger: logger,
		done:   make(chan struct{}),
	}
	q.idle = sync.NewCond(&q.mu)
	go q.run(ctx)
	return q
}

// Execute enqueues task.
func (q *Queue) Execute(task func()) {
	q.mu.Lock()
	q.pending = append(q.pending, task)
	q.mu.Unlock()

	select {
	case q.wake <- struct{}{}:
	default:
	}
}

// Wait blocks until every task enqueued so far has run or the queue has stopped.
func (q *Queue) Wait() {
	q.mu.Lock()
	defer q.mu.Unlock()
	for (len(q.pending) > 0 || q.busy) && !q.stoppedLocked() {
		q.idle.Wait()
	}
}

// Done is closed once the draining goroutine has exited.
func (q *Queue) Done() <-chan struct{} {
	return q.done
}

func (q *Queue) stoppedLocked() bool {
	select {
	case <-q.done:
		return true
	default:
		return false
	}
}

func (q *Queue) run(ctx context.Context) {
	defer func() {
		q.mu.Lock()
		close(q.done)
		q.idle.Broadcast()
		q.mu.Unlock()
	}()

	for {
		q.mu.Lock()
		if len(q.pending) == 0 {
			q.busy = false
			q.idle.Broadcast()
			q.mu.Unlock()

			select {
			case <-ctx.Done():
				return
			case <-q.wake:
			}
			continue
		}
		task := q.pending[0]
		q.pending[0] = nil
		q.pending = q.pending[1:]
		q.busy = true
		q.mu.Unlock()

		q.runTask(task)
	}
}

func (q *Queue) runTask(task func()) {
	defer func() {
		if r := recover(); r != nil {
			q.logger.WithField("panic", r).Error("Side-effect task panicked")
		}
	}()
	task()
}
