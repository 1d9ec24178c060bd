// This file defines how cache entries expire over time.

package expiration

import (
	"time"

	"github.com/krisalay/image-cache/types"
)

/*
Strategy is the interface that all expiration rules must follow. Instead of hard-coding
expiration logic into the cache, we define a strategy so expiration behavior can be swapped easily.

Expiry is only ever enforced by the evictor's sweep; lookups never consult the strategy.
*/
type Strategy interface {

	// IsExpired checks if the entry is expired at now.
	IsExpired(ent types.CacheEntry, now time.Time) bool

	// OnWrite is called when an entry enters the tier and stamps its insertion time.
	OnWrite(ent *types.CacheEntry, now time.Time)
}
