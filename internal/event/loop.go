// Package event runs UI events on a single goroutine and routes them to handlers.
package event

import (
	"context"
	"errors"
	"time"
)

// ErrLoopStopped is returned when a task is posted to a loop that is no longer running.
var ErrLoopStopped = errors.New("event loop stopped")

// Timer is a scheduled task that can be stopped before it fires.
type Timer interface {
	Stop() bool
}

// Scheduler runs fn after d on the same goroutine as the rest of the events.
type Scheduler interface {
	AfterFunc(d time.Duration, fn func()) Timer
}

// Loop executes posted tasks one at a time in posting order.
type Loop struct {
	tasks chan func()
	done  chan struct{}
}

// NewLoop creates a loop with the given queue size.
func NewLoop(queue int) *Loop {
	if queue <= 0 {
		queue = 64
	}

	return &Loop{
		tasks: make(chan func(), queue),
		done:  make(chan struct{}),
	}
}

// Run executes tasks until ctx is canceled.
func (l *Loop) Run(ctx context.Context) {
	defer close(l.done)

	for {
		select {
		case <-ctx.Done():
			return
		case task := <-l.tasks:
			task()
		}
	}
}

// Post queues fn without waiting for it to run.
func (l *Loop) Post(fn func()) bool {
	select {
	case <-l.done:
		return false
	case l.tasks <- fn:
		return true
	}
}

// Do queues fn and waits for its result.
func (l *Loop) Do(ctx context.Context, fn func() error) error {
	result := make(chan error, 1)
	task := func() { result <- fn() }

	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-l.done:
		return ErrLoopStopped
	case l.tasks <- task:
	}

	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-l.done:
		// the task may have run just before the loop stopped
		select {
		case err := <-result:
			return err
		default:
			return ErrLoopStopped
		}
	case err := <-result:
		return err
	}
}

// AfterFunc schedules fn to be posted onto the loop after d.
func (l *Loop) AfterFunc(d time.Duration, fn func()) Timer {
	return time.AfterFunc(d, func() { l.Post(fn) })
}
