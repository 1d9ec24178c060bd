package writeback

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/krisalay/image-cache/types"
)

// This file implements the asynchronous write-back queue that fills the
// faster tiers after a slower tier has answered.

const (
	DefaultWorkers = 4
	DefaultQueue   = 256
	DefaultTimeout = 30 * time.Second
)

// Task is one pending write into a tier.
type Task struct {
	Tier types.Tier
	Key  string
	Run  func(ctx context.Context) error
}

type Options struct {
	// Workers is the number of goroutines draining the queue.
	Workers int

	// Queue is the number of tasks that may wait for a worker.
	Queue int

	// Timeout bounds a single task. Zero uses DefaultTimeout.
	Timeout time.Duration

	Logger  *slog.Logger
	Metrics types.Metrics
}

type queued struct {
	ctx  context.Context
	task Task
}

/*
Dispatcher runs write-backs in the background.

Enqueue never blocks the caller. When the queue is full the task is
dropped and reported; the entry will simply be fetched again from a
slower tier next time. Tasks run on a context detached from the request
that produced them, so a client disconnect does not abort the write.
*/
type Dispatcher struct {
	ch      chan queued
	timeout time.Duration
	log     *slog.Logger
	metrics types.Metrics

	// mu guards closed and the send on ch.
	mu     sync.RWMutex
	closed bool

	workers sync.WaitGroup
	pending sync.WaitGroup
}

// New starts a dispatcher with its workers running.
func New(opts Options) *Dispatcher {
	if opts.Workers <= 0 {
		opts.Workers = DefaultWorkers
	}
	if opts.Queue <= 0 {
		opts.Queue = DefaultQueue
	}
	if opts.Timeout <= 0 {
		opts.Timeout = DefaultTimeout
	}
	if opts.Logger == nil {
		opts.Logger = slog.Default()
	}
	if opts.Metrics == nil {
		opts.Metrics = types.NoopMetrics{}
	}

	d := &Dispatcher{
		ch:      make(chan queued, opts.Queue),
		timeout: opts.Timeout,
		log:     opts.Logger.With(slog.String("component", "writeback")),
		metrics: opts.Metrics,
	}

	d.workers.Add(opts.Workers)
	for i := 0; i < opts.Workers; i++ {
		go d.worker()
	}
	return d
}

// Enqueue schedules t and reports whether it was accepted.
// Values carried by ctx are kept, its cancellation is not.
func (d *Dispatcher) Enqueue(ctx context.Context, t Task) bool {
	d.mu.RLock()
	defer d.mu.RUnlock()

	if d.closed {
		d.drop(t, "dispatcher closed")
		return false
	}

	d.pending.Add(1)
	select {
	case d.ch <- queued{ctx: context.WithoutCancel(ctx), task: t}:
		return true
	default:
		d.pending.Done()
		d.drop(t, "queue full")
		return false
	}
}

func (d *Dispatcher) drop(t Task, reason string) {
	d.metrics.WriteBackDropped(t.Tier)
	d.log.Warn("write-back dropped",
		slog.String("tier", string(t.Tier)),
		slog.String("key", t.Key),
		slog.String("reason", reason),
	)
}

func (d *Dispatcher) worker() {
	defer d.workers.Done()

	for q := range d.ch {
		d.run(q)
		d.pending.Done()
	}
}

func (d *Dispatcher) run(q queued) {
	ctx, cancel := context.WithTimeout(q.ctx, d.timeout)
	defer cancel()

	start := time.Now()
	err := q.task.Run(ctx)
	d.metrics.WriteBack(q.task.Tier, err == nil)

	if err != nil {
		d.log.Error("write-back failed",
			slog.String("tier", string(q.task.Tier)),
			slog.String("key", q.task.Key),
			slog.Any("error", err),
		)
		return
	}
	d.log.Debug("write-back done",
		slog.String("tier", string(q.task.Tier)),
		slog.String("key", q.task.Key),
		slog.Duration("took", time.Since(start)),
	)
}

// Wait blocks until every task accepted so far has finished.
func (d *Dispatcher) Wait() {
	d.pending.Wait()
}

/*
Close stops accepting tasks, lets the workers finish what is queued and
returns once they have exited. It is safe to call more than once.
*/
func (d *Dispatcher) Close() {
	d.mu.Lock()
	if d.closed {
		d.mu.Unlock()
		return
	}
	d.closed = true
	close(d.ch)
	d.mu.Unlock()

	d.workers.Wait()
}
