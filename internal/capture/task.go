package capture

import (
	"context"

	"github.com/google/uuid"
	"github.com/jetsetgo/attendance-station/internal/device"
)

// Task is one running capture. It finishes exactly once, either with an
// identification or an error.
type Task struct {
	id     string
	cancel context.CancelFunc
	done   chan struct{}

	result *device.Identification
	err    error
}

func newTask(cancel context.CancelFunc) *Task {
	return &Task{
		id:     uuid.NewString(),
		cancel: cancel,
		done:   make(chan struct{}),
	}
}

// ID returns the task identifier
func (t *Task) ID() string {
	return t.id
}

// Done is closed when the task has finished
func (t *Task) Done() <-chan struct{} {
	return t.done
}

// Cancel stops the poll loop and aborts any in-flight device request
func (t *Task) Cancel() {
	t.cancel()
}

// Wait blocks until the task finishes or ctx is done
func (t *Task) Wait(ctx context.Context) (*device.Identification, error) {
	select {
	case <-t.done:
		return t.result, t.err
	case <-ctx.Done():
		return nil, ctx.Err()
	}
}

func (t *Task) finish(result *device.Identification, err error) {
	t.result = result
	t.err = err
	t.cancel()
	close(t.done)
}
