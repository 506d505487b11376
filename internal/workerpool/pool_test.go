package workerpool

import (
	"context"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newPool(t *testing.T, cfg Config) *Pool {
	t.Helper()
	p, err := New(cfg)
	require.NoError(t, err)
	t.Cleanup(func() {
		p.ShutdownNow()
		p.AwaitTermination(time.Second)
	})
	return p
}

func TestNewRejectsInvalidConfig(t *testing.T) {
	tests := []struct {
		name string
		cfg  Config
	}{
		{name: "zero min", cfg: Config{MinWorkers: 0, MaxWorkers: 1}},
		{name: "max below min", cfg: Config{MinWorkers: 4, MaxWorkers: 2}},
		{name: "negative queue", cfg: Config{MinWorkers: 1, MaxWorkers: 1, QueueSize: -1}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := New(tt.cfg)
			assert.Error(t, err)
		})
	}
}

func TestSubmitRunsTasks(t *testing.T) {
	p := newPool(t, Config{MinWorkers: 2, MaxWorkers: 4, QueueSize: 16})

	var wg sync.WaitGroup
	var ran atomic.Int32
	for i := 0; i < 20; i++ {
		wg.Add(1)
		require.NoError(t, p.Submit(func(ctx context.Context) {
			defer wg.Done()
			ran.Add(1)
		}))
	}
	wg.Wait()
	assert.Equal(t, int32(20), ran.Load())
	assert.LessOrEqual(t, p.Workers(), 4)
}

func TestSubmitRejectsWhenSaturated(t *testing.T) {
	p := newPool(t, Config{MinWorkers: 1, MaxWorkers: 2, QueueSize: 1})

	release := make(chan struct{})
	started := make(chan struct{}, 2)
	blocker := func(ctx context.Context) {
		started <- struct{}{}
		<-release
	}

	// worker 1 (core)
	require.NoError(t, p.Submit(blocker))
	<-started
	// queued
	require.NoError(t, p.Submit(blocker))
	// worker 2 (above core, queue full)
	require.NoError(t, p.Submit(blocker))
	<-started

	err := p.Submit(blocker)
	assert.ErrorIs(t, err, ErrRejected)

	close(release)
}

func TestIdleWorkersRetire(t *testing.T) {
	p := newPool(t, Config{MinWorkers: 1, MaxWorkers: 3, QueueSize: 0, IdleTimeout: 50 * time.Millisecond})

	release := make(chan struct{})
	var wg sync.WaitGroup
	for i := 0; i < 3; i++ {
		wg.Add(1)
		require.NoError(t, p.Submit(func(ctx context.Context) {
			defer wg.Done()
			<-release
		}))
	}
	assert.Equal(t, 3, p.Workers())

	close(release)
	wg.Wait()

	assert.Eventually(t, func() bool { return p.Workers() == 1 }, 2*time.Second, 10*time.Millisecond)
}

func TestShutdownDrainsQueue(t *testing.T) {
	p, err := New(Config{MinWorkers: 1, MaxWorkers: 1, QueueSize: 8})
	require.NoError(t, err)

	var ran atomic.Int32
	for i := 0; i < 5; i++ {
		require.NoError(t, p.Submit(func(ctx context.Context) {
			time.Sleep(5 * time.Millisecond)
			ran.Add(1)
		}))
	}

	p.Shutdown()
	assert.ErrorIs(t, p.Submit(func(ctx context.Context) {}), ErrPoolClosed)
	require.True(t, p.AwaitTermination(2*time.Second))
	assert.Equal(t, int32(5), ran.Load())
	assert.Equal(t, 0, p.Workers())
}

func TestShutdownNowCancelsContext(t *testing.T) {
	p, err := New(Config{MinWorkers: 1, MaxWorkers: 1, QueueSize: 1})
	require.NoError(t, err)

	started := make(chan struct{})
	require.NoError(t, p.Submit(func(ctx context.Context) {
		close(started)
		<-ctx.Done()
	}))
	<-started

	p.Shutdown()
	assert.False(t, p.AwaitTermination(50*time.Millisecond), "blocked task should hold the pool open")

	p.ShutdownNow()
	assert.True(t, p.AwaitTermination(time.Second))
}

func TestPanickingTaskDoesNotKillWorker(t *testing.T) {
	p := newPool(t, Config{MinWorkers: 1, MaxWorkers: 1, QueueSize: 4})

	done := make(chan struct{})
	require.NoError(t, p.Submit(func(ctx context.Context) { panic("boom") }))
	require.NoError(t, p.Submit(func(ctx context.Context) { close(done) }))

	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("task after panic never ran")
	}
	assert.Equal(t, 1, p.Workers())
}
