package types

import "time"

// This file defines how the cache reports what it is doing.

/*
Metrics is the set of events the cache reports.
The pipeline, the memory cache, the evictor and the write-back dispatcher
call these methods; a backend (Prometheus in production) decides what to
do with them.
*/
type Metrics interface {

	// Hit is called when a tier answers a lookup.
	Hit(tier Tier)

	// Miss is called when a tier cannot answer and the next tier is tried.
	Miss(tier Tier)

	// Coalesced is called when a miss joined an in-flight fetch for the same key.
	Coalesced()

	// WriteBack is called once a write-back into tier has finished.
	WriteBack(tier Tier, ok bool)

	// WriteBackDropped is called when a write-back was discarded because the queue was full.
	WriteBackDropped(tier Tier)

	// Eviction is called when an entry is removed to stay within the byte budget.
	Eviction()

	// Sweep is called after every evictor pass with the number of expired entries removed.
	Sweep(removed int, took time.Duration)

	// Size reports the memory tier's current entry count and payload bytes.
	Size(entries int, bytes int64)
}

/*
NoopMetrics ignores every event.
Components default to it so they never need a nil check.
*/
type NoopMetrics struct{}

func (NoopMetrics) Hit(Tier)                 {}
func (NoopMetrics) Miss(Tier)                {}
func (NoopMetrics) Coalesced()               {}
func (NoopMetrics) WriteBack(Tier, bool)     {}
func (NoopMetrics) WriteBackDropped(Tier)    {}
func (NoopMetrics) Eviction()                {}
func (NoopMetrics) Sweep(int, time.Duration) {}
func (NoopMetrics) Size(int, int64)          {}
