package workerpool

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

func TestSubmitBoundsConcurrency(t *testing.T) {
	p := New(2)
	defer p.Close()

	var running, peak atomic.Int32
	var wg sync.WaitGroup
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			err := p.Submit(context.Background(), func(context.Context) error {
				n := running.Add(1)
				for {
					old := peak.Load()
					if n <= old || peak.CompareAndSwap(old, n) {
						break
					}
				}
				time.Sleep(10 * time.Millisecond)
				running.Add(-1)
				return nil
			})
			assert.NoError(t, err)
		}()
	}
	wg.Wait()

	assert.LessOrEqual(t, peak.Load(), int32(2))
	assert.Equal(t, 2, p.Size())
}

func TestDoReturnsValueAndError(t *testing.T) {
	p := New(1)
	defer p.Close()

	v, err := Do(context.Background(), p, func(context.Context) (int, error) { return 7, nil })
	require.NoError(t, err)
	assert.Equal(t, 7, v)

	boom := errors.New("boom")
	v, err = Do(context.Background(), p, func(context.Context) (int, error) { return 9, boom })
	assert.ErrorIs(t, err, boom)
	assert.Zero(t, v)
}

func TestSubmitRecoversPanics(t *testing.T) {
	p := New(1)
	defer p.Close()

	err := p.Submit(context.Background(), func(context.Context) error { panic("bad") })
	require.Error(t, err)
	assert.Contains(t, err.Error(), "panicked")

	// the slot must be released after a panic
	require.NoError(t, p.Submit(context.Background(), func(context.Context) error { return nil }))
}

func TestSubmitHonoursContextWhileWaiting(t *testing.T) {
	p := New(1)
	defer p.Close()

	release := make(chan struct{})
	started := make(chan struct{})
	go func() {
		_ = p.Submit(context.Background(), func(context.Context) error {
			close(started)
			<-release
			return nil
		})
	}()
	<-started

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()
	err := p.Submit(ctx, func(context.Context) error { return nil })
	assert.ErrorIs(t, err, context.DeadlineExceeded)

	close(release)
}

func TestCloseRejectsNewWork(t *testing.T) {
	p := New(0)
	assert.Positive(t, p.Size())

	p.Close()
	assert.ErrorIs(t, p.Submit(context.Background(), func(context.Context) error { return nil }), ErrClosed)
}
