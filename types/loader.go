package types

import "context"

// Tier identifies one layer of the fallback chain.
type Tier string

const (
	TierMemory Tier = "memory"
	TierMirror Tier = "mirror"
	TierOrigin Tier = "origin"
)

func (t Tier) String() string { return string(t) }

/*
Origin is the contract between the pipeline and the remote object store.

It is the slowest tier and the only authoritative one:
  - Fetch returns the raw bytes the store holds for key
  - a missing object is reported with NotFound
  - anything else that prevents an answer is reported with Unavailable

Origins do not cache and do not retry; retries belong to their transport.
*/
type Origin interface {
	Fetch(ctx context.Context, key string) (Object, error)
}

/*
Mirror is a local copy of origin bytes that survives restarts.

  - ReadRaw returns ErrCacheMiss (or any other error, which callers also
    treat as a miss) when it cannot answer
  - WriteRaw stores the bytes under key, creating parents as needed

The mirror stores exactly what the origin returned; no format or
timestamp metadata is persisted.
*/
type Mirror interface {
	ReadRaw(ctx context.Context, key string) ([]byte, error)
	WriteRaw(ctx context.Context, key string, payload []byte) error
}
