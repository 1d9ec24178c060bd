package memory

import (
	"time"

	"github.com/krisalay/image-cache/types"
)

// SweepResult summarises one sweep.
type SweepResult struct {
	Removed   int
	Remaining int
	Bytes     int64
	Compacted int
	Took      time.Duration
}

/*
Sweep removes every entry that is expired at the current clock time.

Per shard it first snapshots the expired keys under the read lock, then
removes exactly those keys under the write lock. A key re-inserted between
the two steps is kept. Sweeping an already swept cache removes nothing.
*/
func (c *Cache) Sweep() SweepResult {
	start := time.Now()
	now := c.clock()
	expired := func(ent types.CacheEntry) bool {
		return c.expiration.IsExpired(ent, now)
	}

	var res SweepResult
	for _, s := range c.shards {
		res.Removed += s.RemoveCandidates(s.Expired(expired))
		if s.Compact() {
			res.Compacted++
		}
		res.Remaining += s.Len()
		res.Bytes += s.Bytes()
	}
	res.Took = time.Since(start)
	return res
}
