// Package memory is the in-process tier of the image cache.
//
// A [Cache] maps resource keys to encoded image bytes and their format.
// Entries are stamped with their insertion time on [Cache.Insert] and are
// only ever removed by [Cache.Sweep] (normally driven by the evictor),
// by an explicit [Cache.Remove], or by the optional byte budget.
//
// Lookups do not check expiry: an entry may be served up to one sweep
// interval after its TTL has passed.
//
//	mem, err := memory.New(memory.Options{})
//	mem.Insert("/a/cat.jpg", types.CacheEntry{Payload: b, Format: types.JPEG})
//	ent, ok := mem.Lookup("/a/cat.jpg")
package memory
