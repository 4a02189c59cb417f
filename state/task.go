package state

import "context"

// Task is one started directory operation. It always runs to completion
// and applies its state transition, whether or not anyone waits for it.
type Task[R any] struct {
	ID uint64
	Op Op

	done   chan struct{}
	result R
	err    error
}

func newTask[R any](id uint64, op Op) *Task[R] {
	return &Task[R]{ID: id, Op: op, done: make(chan struct{})}
}

// Done is closed once the task settled and its event was applied.
func (t *Task[R]) Done() <-chan struct{} { return t.done }

func (t *Task[R]) Phase() Phase {
	select {
	case <-t.done:
		if t.err != nil {
			return Rejected
		}
		return Fulfilled
	default:
		return Pending
	}
}

// Wait blocks until the task settled or ctx is done. Giving up on ctx does
// not stop the task.
func (t *Task[R]) Wait(ctx context.Context) (R, error) {
	select {
	case <-t.done:
		return t.result, t.err
	case <-ctx.Done():
		return *new(R), ctx.Err()
	}
}

func (t *Task[R]) settle(result R, err error) {
	t.result, t.err = result, err
	close(t.done)
}
