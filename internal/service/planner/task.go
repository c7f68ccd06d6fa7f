package planner

import (
	"context"

	"github.com/google/uuid"
)

// Task tracks one background orchestration run.
type Task struct {
	TripRequestID uuid.UUID

	done chan struct{}
	err  error
}

func newTask(id uuid.UUID) *Task {
	return &Task{TripRequestID: id, done: make(chan struct{})}
}

func (t *Task) finish(err error) {
	t.err = err
	close(t.done)
}

// Done is closed once the run reached a terminal status or gave up.
func (t *Task) Done() <-chan struct{} {
	return t.done
}

// Err is the run error. It is only meaningful after Done is closed.
func (t *Task) Err() error {
	select {
	case <-t.done:
		return t.err
	default:
		return nil
	}
}

// Wait blocks until the run finishes or ctx ends.
func (t *Task) Wait(ctx context.Context) error {
	select {
	case <-t.done:
		return t.err
	case <-ctx.Done():
		return ctx.Err()
	}
}
