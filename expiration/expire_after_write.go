package expiration

import (
	"time"

	"github.com/krisalay/image-cache/types"
)

// DefaultTTL is how long an image stays eligible in memory after insertion.
const DefaultTTL = 300 * time.Second

/*
ExpireAfterWrite ages an entry from the moment it entered the tier.
Reads do not extend its life: a hot image is still dropped TTL after it was
cached and is fetched again from a slower tier on the next miss.
*/
type ExpireAfterWrite struct {
	TTL time.Duration
}

// NewExpireAfterWrite returns a strategy with ttl, or DefaultTTL when ttl <= 0.
func NewExpireAfterWrite(ttl time.Duration) *ExpireAfterWrite {
	if ttl <= 0 {
		ttl = DefaultTTL
	}
	return &ExpireAfterWrite{TTL: ttl}
}

// IsExpired reports whether the entry's age is strictly greater than TTL.
func (e *ExpireAfterWrite) IsExpired(ent types.CacheEntry, now time.Time) bool {
	return now.Sub(ent.InsertedAt) > e.TTL
}

// OnWrite stamps the insertion time. Any timestamp carried over from another tier is discarded.
func (e *ExpireAfterWrite) OnWrite(ent *types.CacheEntry, now time.Time) {
	ent.InsertedAt = now
}
