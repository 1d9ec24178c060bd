package evictor

import (
	"context"
	"io"
	"log/slog"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/krisalay/image-cache/expiration"
	"github.com/krisalay/image-cache/memory"
	"github.com/krisalay/image-cache/types"
)

var discard = slog.New(slog.NewTextHandler(io.Discard, nil))

type countingSweeper struct {
	n atomic.Int32
}

func (s *countingSweeper) Sweep() memory.SweepResult {
	s.n.Add(1)
	return memory.SweepResult{}
}

type recordingMetrics struct {
	types.NoopMetrics
	mu      sync.Mutex
	removed int
	sweeps  int
}

func (m *recordingMetrics) Sweep(removed int, _ time.Duration) {
	m.mu.Lock()
	m.removed += removed
	m.sweeps++
	m.mu.Unlock()
}

func TestRunSweepsOnInterval(t *testing.T) {
	s := &countingSweeper{}
	e := New(s, Options{Interval: 5 * time.Millisecond, Logger: discard})

	e.Start(context.Background())
	e.Start(context.Background())

	require.Eventually(t, func() bool { return s.n.Load() >= 3 }, time.Second, time.Millisecond)

	e.Stop()
	n := s.n.Load()
	time.Sleep(20 * time.Millisecond)
	assert.Equal(t, n, s.n.Load(), "no sweeps after Stop")

	// stopping twice is harmless
	e.Stop()
}

func TestRunStopsWithContext(t *testing.T) {
	e := New(&countingSweeper{}, Options{Interval: time.Hour, Logger: discard})
	ctx, cancel := context.WithCancel(context.Background())

	done := make(chan struct{})
	go func() {
		e.Run(ctx)
		close(done)
	}()
	cancel()

	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("Run did not return after cancel")
	}
}

func TestSweepNowReportsMetrics(t *testing.T) {
	now := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	mem, err := memory.New(memory.Options{
		Expiration: expiration.NewExpireAfterWrite(300 * time.Second),
		Clock:      func() time.Time { return now },
	})
	require.NoError(t, err)

	mem.Insert("/a/cat.jpg", types.CacheEntry{Payload: []byte("x")})
	now = now.Add(301 * time.Second)

	m := &recordingMetrics{}
	e := New(mem, Options{Logger: discard, Metrics: m})

	assert.Equal(t, 1, e.SweepNow().Removed)
	assert.Equal(t, 0, e.SweepNow().Removed)
	assert.Equal(t, 1, m.removed)
	assert.Equal(t, 2, m.sweeps)
}

func TestDefaults(t *testing.T) {
	e := New(&countingSweeper{}, Options{})
	assert.Equal(t, DefaultInterval, e.interval)
}
