package launcher

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestExecutor_BoundsConcurrency(t *testing.T) {
	e := newExecutor(2, nil)

	var running, peak atomic.Int32
	release := make(chan struct{})
	ops := make([]*Operation, 5)
	for i := range ops {
		ops[i] = e.submit(context.Background(), "work", func(ctx context.Context) error {
			n := running.Add(1)
			for {
				p := peak.Load()
				if n <= p || peak.CompareAndSwap(p, n) {
					break
				}
			}
			<-release
			running.Add(-1)
			return nil
		})
	}

	time.Sleep(50 * time.Millisecond)
	assert.Equal(t, int32(2), running.Load())
	close(release)

	for _, op := range ops {
		require.NoError(t, op.Wait())
	}
	assert.Equal(t, int32(2), peak.Load())
}

func TestExecutor_CancelWhileQueued(t *testing.T) {
	e := newExecutor(1, nil)

	block := make(chan struct{})
	first := e.submit(context.Background(), "first", func(ctx context.Context) error {
		<-block
		return nil
	})

	var ran atomic.Bool
	queued := e.submit(context.Background(), "queued", func(ctx context.Context) error {
		ran.Store(true)
		return nil
	})
	assert.Nil(t, queued.Err())

	queued.Cancel()
	select {
	case <-queued.Done():
	case <-time.After(time.Second):
		t.Fatal("cancelled operation did not finish")
	}
	assert.ErrorIs(t, queued.Err(), context.Canceled)
	assert.False(t, ran.Load())

	close(block)
	require.NoError(t, first.Wait())
	e.wait()
}

func TestExecutor_ReportsFailures(t *testing.T) {
	var mu sync.Mutex
	var failed []string
	e := newExecutor(4, func(op string, err error) {
		mu.Lock()
		defer mu.Unlock()
		failed = append(failed, op+": "+err.Error())
	})

	boom := errors.New("boom")
	op := e.submit(context.Background(), "search", func(ctx context.Context) error { return boom })
	assert.ErrorIs(t, op.Wait(), boom)
	assert.Equal(t, "search", op.Name())

	e.wait()
	assert.Equal(t, []string{"search: boom"}, failed)
}

func TestExecutor_CancelRunning(t *testing.T) {
	e := newExecutor(1, nil)
	op := e.submit(context.Background(), "long", func(ctx context.Context) error {
		<-ctx.Done()
		return ctx.Err()
	})
	op.Cancel()
	assert.ErrorIs(t, op.Wait(), context.Canceled)
}
