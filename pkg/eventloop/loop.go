// Package eventloop runs tasks one at a time on a single goroutine.
//
// State that is only touched from loop tasks needs no locking: the loop is
// the single logical thread of control that the overlay store relies on.
package eventloop

import (
	"context"
	"errors"
	"fmt"

	"github.com/Sternrassler/stade-map/pkg/logging"
	"github.com/rs/zerolog"
)

// ErrStopped is returned when a task is submitted after the loop has exited.
var ErrStopped = errors.New("event loop stopped")

// DefaultQueueSize is the task buffer used by New when size <= 0.
const DefaultQueueSize = 64

// Loop serializes task execution.
type Loop struct {
	tasks  chan func()
	done   chan struct{}
	logger zerolog.Logger
}

// New creates a loop with the given queue size. Run must be called for
// tasks to execute.
func New(size int) *Loop {
	if size <= 0 {
		size = DefaultQueueSize
	}
	return &Loop{
		tasks:  make(chan func(), size),
		done:   make(chan struct{}),
		logger: logging.NewLogger("eventloop"),
	}
}

// Run executes tasks until ctx is done. It must be called exactly once.
// A panicking task is logged and does not stop the loop.
func (l *Loop) Run(ctx context.Context) error {
	defer close(l.done)
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case fn := <-l.tasks:
			l.exec(fn)
		}
	}
}

func (l *Loop) exec(fn func()) {
	defer func() {
		if r := recover(); r != nil {
			l.logger.Error().Interface("panic", r).Msg("Event loop task panicked")
		}
	}()
	fn()
}

// Post queues fn without waiting for it to run.
func (l *Loop) Post(ctx context.Context, fn func()) error {
	select {
	case <-l.done:
		return ErrStopped
	default:
	}

	select {
	case l.tasks <- fn:
		return nil
	case <-l.done:
		return ErrStopped
	case <-ctx.Done():
		return ctx.Err()
	}
}

// Do runs fn on the loop and waits for it to finish. It returns fn's
// error, or an error if fn panicked. Do must not be called from a task.
func (l *Loop) Do(ctx context.Context, fn func() error) error {
	result := make(chan error, 1)
	task := func() {
		defer func() {
			if r := recover(); r != nil {
				result <- fmt.Errorf("event loop task panicked: %v", r)
			}
		}()
		result <- fn()
	}

	if err := l.Post(ctx, task); err != nil {
		return err
	}

	select {
	case err := <-result:
		return err
	case <-l.done:
		// The task may have completed just before the loop exited.
		select {
		case err := <-result:
			return err
		default:
			return ErrStopped
		}
	case <-ctx.Done():
		return ctx.Err()
	}
}
