// Package workqueue runs tasks in submission order with a fixed number of
// concurrent slots. Admission is strictly FIFO: slots are handed out in
// submission order.
package workqueue

import (
	"context"
	"errors"
	"fmt"
	"sync"
)

// DefaultMaxConcurrency is used when New is given a non-positive limit.
const DefaultMaxConcurrency = 2

var ErrClosed = errors.New("workqueue: closed")

// Task is one unit of work. Its ctx is the one passed to Enqueue; a task
// admitted after its ctx ended should return without doing work.
type Task func(ctx context.Context) error

type job struct {
	ctx  context.Context
	task Task
	done chan error
}

// Stats is a point-in-time view of the queue.
type Stats struct {
	Pending   int
	Active    int
	Completed uint64
	Panics    uint64
}

type Queue struct {
	mu        sync.Mutex
	pending   []job
	active    int
	max       int
	completed uint64
	panics    uint64
	closed    bool
	wg        sync.WaitGroup
}

func New(maxConcurrency int) *Queue {
	if maxConcurrency <= 0 {
		maxConcurrency = DefaultMaxConcurrency
	}
	return &Queue{max: maxConcurrency}
}

// Enqueue appends t and returns a channel that receives the task's error (nil
// on success) exactly once. A panicking task is reported as an error and
// does not stop the queue.
func (q *Queue) Enqueue(ctx context.Context, t Task) <-chan error {
	done := make(chan error, 1)
	q.mu.Lock()
	defer q.mu.Unlock()
	if q.closed {
		done <- ErrClosed
		return done
	}
	q.pending = append(q.pending, job{ctx: ctx, task: t, done: done})
	q.dispatchLocked()
	return done
}

func (q *Queue) Stats() Stats {
	q.mu.Lock()
	defer q.mu.Unlock()
	return Stats{Pending: len(q.pending), Active: q.active, Completed: q.completed, Panics: q.panics}
}

// Close fails every pending task with ErrClosed and waits for running tasks.
func (q *Queue) Close() {
	q.mu.Lock()
	if q.closed {
		q.mu.Unlock()
		return
	}
	q.closed = true
	pending := q.pending
	q.pending = nil
	q.mu.Unlock()

	for _, j := range pending {
		j.done <- ErrClosed
	}
	q.wg.Wait()
}

func (q *Queue) dispatchLocked() {
	for !q.closed && q.active < q.max && len(q.pending) > 0 {
		j := q.pending[0]
		q.pending[0] = job{}
		q.pending = q.pending[1:]
		q.active++
		q.wg.Add(1)
		go q.run(j)
	}
}

func (q *Queue) run(j job) {
	defer q.wg.Done()
	panicked, err := call(j)
	j.done <- err

	q.mu.Lock()
	q.active--
	q.completed++
	if panicked {
		q.panics++
	}
	q.dispatchLocked()
	q.mu.Unlock()
}

func call(j job) (panicked bool, err error) {
	defer func() {
		if r := recover(); r != nil {
			panicked, err = true, fmt.Errorf("workqueue: task panicked: %v", r)
		}
	}()
	return false, j.task(j.ctx)
}
