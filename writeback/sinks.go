package writeback

import (
	"context"

	"github.com/krisalay/image-cache/memory"
	"github.com/krisalay/image-cache/types"
)

// MemoryTask inserts an image into the memory tier.
func MemoryTask(mem *memory.Cache, key string, obj types.Object) Task {
	return Task{
		Tier: types.TierMemory,
		Key:  key,
		Run: func(context.Context) error {
			mem.Insert(key, types.CacheEntry{Payload: obj.Payload, Format: obj.Format})
			return nil
		},
	}
}

// MirrorTask persists the raw image bytes on the mirror.
func MirrorTask(m types.Mirror, key string, payload []byte) Task {
	return Task{
		Tier: types.TierMirror,
		Key:  key,
		Run: func(ctx context.Context) error {
			return m.WriteRaw(ctx, key, payload)
		},
	}
}
