package api

import (
	"context"
	"time"

	"github.com/krisalay/image-cache/types"
)

/*
Resolver is everything the HTTP layer needs from the cache.
Tiers, write-back and coalescing are hidden behind it.
*/
type Resolver interface {

	/*
		Resolve returns the original image stored under key.

		BEHAVIOR:
		---------
		- Served from the fastest tier that holds the key
		- On a miss the faster tiers are filled in the background
		- Fails only when the origin does: NotFound or Unavailable
	*/
	Resolve(ctx context.Context, key string) (types.Image, error)
}

// RequestMetrics records served requests. *metrics.Prometheus implements it.
type RequestMetrics interface {
	Request(route string, status int, took time.Duration)
}

type noopRequestMetrics struct{}

func (noopRequestMetrics) Request(string, int, time.Duration) {}
