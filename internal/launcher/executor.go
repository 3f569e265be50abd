package launcher

import (
	"context"
	"sync"

	"golang.org/x/sync/semaphore"

	"github.com/handiism/mixlauncher/internal/ctxlog"
)

// Operation is a handle on an asynchronous launcher operation.
type Operation struct {
	name   string
	cancel context.CancelFunc
	done   chan struct{}
	err    error
}

// Name returns the operation name, e.g. "install".
func (o *Operation) Name() string { return o.name }

// Done is closed when the operation has finished.
func (o *Operation) Done() <-chan struct{} { return o.done }

// Wait blocks until the operation finishes and returns its error.
func (o *Operation) Wait() error {
	<-o.done
	return o.err
}

// Err returns the operation's error, or nil while it is still running.
func (o *Operation) Err() error {
	select {
	case <-o.done:
		return o.err
	default:
		return nil
	}
}

// Cancel requests cancellation. The operation still finishes through Done.
func (o *Operation) Cancel() { o.cancel() }

// executor runs operations with bounded concurrency. Operations beyond the
// limit wait for a slot and can be cancelled while waiting.
type executor struct {
	sem    *semaphore.Weighted
	wg     sync.WaitGroup
	onFail func(op string, err error)
}

func newExecutor(limit int, onFail func(op string, err error)) *executor {
	if limit <= 0 {
		limit = 1
	}
	return &executor{sem: semaphore.NewWeighted(int64(limit)), onFail: onFail}
}

func (e *executor) submit(parent context.Context, name string, fn func(ctx context.Context) error) *Operation {
	ctx, cancel := context.WithCancel(parent)
	op := &Operation{name: name, cancel: cancel, done: make(chan struct{})}

	e.wg.Add(1)
	go func() {
		defer e.wg.Done()
		defer close(op.done)
		defer cancel()

		if err := e.sem.Acquire(ctx, 1); err != nil {
			op.err = err
			return
		}
		defer e.sem.Release(1)

		op.err = fn(ctx)
		if op.err != nil {
			ctxlog.FromContext(ctx).Error("operation failed", "op", name, "error", op.err)
			if e.onFail != nil {
				e.onFail(name, op.err)
			}
		}
	}()
	return op
}

func (e *executor) wait() {
	e.wg.Wait()
}
