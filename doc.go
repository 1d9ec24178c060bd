/*
Package imagecache resolves image keys through a layered read-through cache.

A lookup tries the in-process memory tier, then an optional filesystem
mirror, then the remote origin. Misses are filled back into the faster
tiers asynchronously:

	mem, err := memory.New(memory.Options{})
	...
	p, err := imagecache.New(imagecache.Options{
		Memory: mem,
		Mirror: mirror.New("/mnt/shared-cache"),
		Origin: httpOrigin,
	})
	img, err := p.Resolve(ctx, "/a/cat.jpg")

Expired entries are removed from the memory tier by an evictor.Evictor.
*/
package imagecache
