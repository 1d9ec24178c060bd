package shard

import (
	"sync"

	"github.com/krisalay/image-cache/eviction"
	"github.com/krisalay/image-cache/types"
)

/*
A Shard is one independently locked piece of the memory tier.

  - mu guards entries and the byte counters; readers share it, writers
    (insert, delete, sweep removal, compaction) hold it exclusively
  - policyMu serialises the optional eviction policy so reads can record
    accesses without upgrading to the write lock

Lock order is always mu before policyMu. No I/O happens under either lock.
*/
type Shard struct {
	mu      sync.RWMutex
	entries map[string]types.CacheEntry
	bytes   int64

	// peak is the largest entry count since the map was last rebuilt.
	peak int

	// budget is the payload byte limit for this shard; 0 means unbounded.
	budget int64

	policyMu sync.Mutex
	policy   eviction.Policy
}

// NewShard returns an empty shard. A nil policy disables budget enforcement.
func NewShard(policy eviction.Policy, budget int64) *Shard {
	if policy == nil {
		budget = 0
	}
	return &Shard{
		entries: make(map[string]types.CacheEntry),
		budget:  budget,
		policy:  policy,
	}
}
