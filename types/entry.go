package types

import "time"

// CacheEntry is one cached image in a tier.
// Payload and Format always travel together; a tier never stores one without the other.
type CacheEntry struct {
	Key     string
	Payload []byte
	Format  Format

	// InsertedAt is stamped by the tier that stores the entry, never copied
	// from a slower tier, so every tier ages its entries on its own clock.
	InsertedAt time.Time
}

// Size returns the payload size in bytes.
func (e CacheEntry) Size() int64 {
	return int64(len(e.Payload))
}

// Clone returns a deep copy of the entry.
func (e CacheEntry) Clone() CacheEntry {
	e.Payload = cloneBytes(e.Payload)
	return e
}

// Image is what the retrieval pipeline hands back to request handling.
type Image struct {
	Payload []byte
	Format  Format

	// Tier is the tier that answered the lookup.
	Tier Tier
}

// Object is what an origin returns for a key.
// Format is FormatUnknown when the origin did not say what it sent.
type Object struct {
	Payload []byte
	Format  Format
}

func cloneBytes(b []byte) []byte {
	if b == nil {
		return nil
	}
	out := make([]byte, len(b))
	copy(out, b)
	return out
}
