package memory

import (
	"fmt"
	"time"

	"github.com/jmgilman/go/errors"

	"github.com/krisalay/image-cache/eviction"
	"github.com/krisalay/image-cache/expiration"
	"github.com/krisalay/image-cache/shard"
	"github.com/krisalay/image-cache/types"
)

// Options configures a Cache. The zero value is a single unbounded shard
// with the default TTL.
type Options struct {
	// Shards is the number of independently locked maps. Defaults to 1.
	Shards int

	// MaxBytes bounds the total payload size. 0 disables the bound.
	// It only takes effect together with an Eviction policy.
	MaxBytes int64

	// Eviction picks victims when MaxBytes is exceeded.
	Eviction eviction.PolicyType

	// Expiration decides when an entry is stale. Defaults to
	// ExpireAfterWrite with the default TTL.
	Expiration expiration.Strategy

	// Clock returns the current time. Defaults to time.Now.
	Clock func() time.Time

	Metrics types.Metrics
}

/*
Cache is the memory tier.

It owns its entries: Insert keeps a private copy of the payload and Lookup
returns a copy, so callers never alias the stored bytes.
*/
type Cache struct {
	shards     []*shard.Shard
	selector   shard.Selector
	expiration expiration.Strategy
	clock      func() time.Time
	metrics    types.Metrics
}

// New builds an empty cache.
func New(opts Options) (*Cache, error) {
	if opts.Shards <= 0 {
		opts.Shards = 1
	}
	if opts.MaxBytes < 0 {
		return nil, errors.WithContext(
			errors.New(errors.CodeInvalidConfig, "max bytes must not be negative"),
			"max_bytes", opts.MaxBytes,
		)
	}
	if opts.Expiration == nil {
		opts.Expiration = expiration.NewExpireAfterWrite(expiration.DefaultTTL)
	}
	if opts.Clock == nil {
		opts.Clock = time.Now
	}
	if opts.Metrics == nil {
		opts.Metrics = types.NoopMetrics{}
	}

	// Total budget is divided across shards.
	var budget int64
	if opts.MaxBytes > 0 {
		budget = max(opts.MaxBytes/int64(opts.Shards), 1)
	}

	shards := make([]*shard.Shard, opts.Shards)
	for i := range shards {
		// Each shard gets its own eviction policy instance
		p, err := eviction.New(opts.Eviction)
		if err != nil {
			return nil, errors.Wrap(err, errors.CodeInvalidConfig, "invalid eviction policy")
		}
		shards[i] = shard.NewShard(p, budget)
	}

	return &Cache{
		shards:     shards,
		selector:   shard.HashSelector{},
		expiration: opts.Expiration,
		clock:      opts.Clock,
		metrics:    opts.Metrics,
	}, nil
}

// Lookup returns a copy of the entry for key, whether or not it is past its TTL.
func (c *Cache) Lookup(key string) (types.CacheEntry, bool) {
	ent, ok := c.selector.Select(key, c.shards).Get(key)
	if !ok {
		return types.CacheEntry{}, false
	}
	return ent.Clone(), true
}

// Insert stores ent under key, replacing any previous entry.
// The entry's Key is set to key and InsertedAt is stamped with the cache clock.
func (c *Cache) Insert(key string, ent types.CacheEntry) {
	ent = ent.Clone()
	ent.Key = key
	c.expiration.OnWrite(&ent, c.clock())

	res := c.selector.Select(key, c.shards).Put(ent)
	for range res.Evicted {
		c.metrics.Eviction()
	}
}

// Remove deletes key and reports whether it was present.
func (c *Cache) Remove(key string) bool {
	return c.selector.Select(key, c.shards).Delete(key)
}

// Len returns the number of stored entries.
func (c *Cache) Len() int {
	n := 0
	for _, s := range c.shards {
		n += s.Len()
	}
	return n
}

// Bytes returns the total stored payload size.
func (c *Cache) Bytes() int64 {
	var n int64
	for _, s := range c.shards {
		n += s.Bytes()
	}
	return n
}

// String implements fmt.Stringer.
func (c *Cache) String() string {
	return fmt.Sprintf("memory.Cache(len=%d, bytes=%d, shards=%d)", c.Len(), c.Bytes(), len(c.shards))
}
