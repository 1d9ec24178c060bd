// Package evictor runs the periodic sweep that drops expired images from
// the memory tier.
package evictor

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/krisalay/image-cache/memory"
	"github.com/krisalay/image-cache/types"
)

// DefaultInterval is the time between sweeps.
const DefaultInterval = 300 * time.Second

// Sweeper is the part of the memory tier the evictor drives.
type Sweeper interface {
	Sweep() memory.SweepResult
}

type Options struct {
	Interval time.Duration
	Logger   *slog.Logger
	Metrics  types.Metrics
}

/*
Evictor sweeps a cache on a fixed interval for as long as it runs.

	Idle --tick--> Sweeping --done--> Idle

A sweep cannot fail; its outcome is only logged and reported to metrics.
*/
type Evictor struct {
	cache    Sweeper
	interval time.Duration
	log      *slog.Logger
	metrics  types.Metrics

	mu     sync.Mutex
	cancel context.CancelFunc
	done   chan struct{}
}

// New creates an evictor for cache. It does not start it.
func New(cache Sweeper, opts Options) *Evictor {
	if opts.Interval <= 0 {
		opts.Interval = DefaultInterval
	}
	if opts.Logger == nil {
		opts.Logger = slog.Default()
	}
	if opts.Metrics == nil {
		opts.Metrics = types.NoopMetrics{}
	}
	return &Evictor{
		cache:    cache,
		interval: opts.Interval,
		log:      opts.Logger.With(slog.String("component", "evictor")),
		metrics:  opts.Metrics,
	}
}

// Start launches Run in the background. Calling Start on a running evictor is a no-op.
func (e *Evictor) Start(ctx context.Context) {
	e.mu.Lock()
	defer e.mu.Unlock()

	if e.done != nil {
		return
	}

	ctx, e.cancel = context.WithCancel(ctx)
	e.done = make(chan struct{})
	go func(done chan struct{}) {
		defer close(done)
		e.Run(ctx)
	}(e.done)
}

// Stop cancels a started evictor and waits for it to exit.
func (e *Evictor) Stop() {
	e.mu.Lock()
	cancel, done := e.cancel, e.done
	e.cancel, e.done = nil, nil
	e.mu.Unlock()

	if cancel == nil {
		return
	}
	cancel()
	<-done
}

// Run sweeps every interval until ctx is done.
func (e *Evictor) Run(ctx context.Context) {
	ticker := time.NewTicker(e.interval)
	defer ticker.Stop()

	e.log.Info("evictor started", slog.Duration("interval", e.interval))
	for {
		select {
		case <-ctx.Done():
			e.log.Info("evictor stopped")
			return
		case <-ticker.C:
			e.SweepNow()
		}
	}
}

// SweepNow runs one sweep synchronously and returns its result.
func (e *Evictor) SweepNow() memory.SweepResult {
	res := e.cache.Sweep()

	e.metrics.Sweep(res.Removed, res.Took)
	e.metrics.Size(res.Remaining, res.Bytes)

	level := slog.LevelDebug
	if res.Removed > 0 {
		level = slog.LevelInfo
	}
	e.log.Log(context.Background(), level, "cache swept",
		slog.Int("removed", res.Removed),
		slog.Int("remaining", res.Remaining),
		slog.Int64("bytes", res.Bytes),
		slog.Int("compacted_shards", res.Compacted),
		slog.Duration("took", res.Took),
	)
	return res
}
