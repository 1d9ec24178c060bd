package imagecache

import (
	"context"
	"log/slog"

	"golang.org/x/sync/singleflight"

	"github.com/krisalay/image-cache/memory"
	"github.com/krisalay/image-cache/types"
	"github.com/krisalay/image-cache/writeback"
)

/*
Options wires a Pipeline. Memory and Origin are required; everything else
is optional.
*/
type Options struct {
	Memory *memory.Cache

	// Mirror is the optional second tier.
	Mirror types.Mirror

	Origin types.Origin

	// WriteBack runs the tier fills. When nil the pipeline starts its own
	// dispatcher with default settings and closes it in Close.
	WriteBack *writeback.Dispatcher

	// DisableCoalescing lets every concurrent miss reach the origin.
	DisableCoalescing bool

	Metrics types.Metrics
	Logger  *slog.Logger
}

/*
Pipeline is the read-through chain Memory -> Mirror -> Origin.

Whichever tier answers, the faster tiers that missed are filled in the
background and the bytes are returned. Only the origin can fail a lookup;
mirror trouble is logged and treated as a miss.
*/
type Pipeline struct {
	memory *memory.Cache
	mirror types.Mirror
	origin types.Origin

	writeback    *writeback.Dispatcher
	ownWriteback bool

	coalesce bool
	sf       singleflight.Group

	metrics types.Metrics
	log     *slog.Logger
}

// New validates opts and builds a pipeline.
func New(opts Options) (*Pipeline, error) {
	if opts.Memory == nil {
		return nil, errInvalid("memory cache is required")
	}
	if opts.Origin == nil {
		return nil, errInvalid("origin is required")
	}
	if opts.Metrics == nil {
		opts.Metrics = types.NoopMetrics{}
	}
	if opts.Logger == nil {
		opts.Logger = slog.Default()
	}

	p := &Pipeline{
		memory:   opts.Memory,
		mirror:   opts.Mirror,
		origin:   opts.Origin,
		coalesce: !opts.DisableCoalescing,
		metrics:  opts.Metrics,
		log:      opts.Logger.With(slog.String("component", "pipeline")),
	}

	p.writeback = opts.WriteBack
	if p.writeback == nil {
		p.writeback = writeback.New(writeback.Options{Logger: opts.Logger, Metrics: opts.Metrics})
		p.ownWriteback = true
	}
	return p, nil
}

// Resolve returns the image stored under key.
func (p *Pipeline) Resolve(ctx context.Context, key string) (types.Image, error) {
	if ent, ok := p.memory.Lookup(key); ok {
		p.metrics.Hit(types.TierMemory)
		return types.Image{Payload: ent.Payload, Format: ent.Format, Tier: types.TierMemory}, nil
	}
	p.metrics.Miss(types.TierMemory)

	if !p.coalesce {
		img, err := p.load(ctx, key)
		if err != nil {
			return types.Image{}, err
		}
		return cloneImage(img), nil
	}

	// The shared load runs detached so one caller going away does not
	// fail the others waiting on it.
	var leader bool
	ch := p.sf.DoChan(key, func() (interface{}, error) {
		leader = true
		return p.load(context.WithoutCancel(ctx), key)
	})

	select {
	case <-ctx.Done():
		return types.Image{}, types.Unavailable(key, ctx.Err())
	case res := <-ch:
		if !leader {
			p.metrics.Coalesced()
		}
		if res.Err != nil {
			return types.Image{}, res.Err
		}
		// Results may be shared between callers.
		return cloneImage(res.Val.(types.Image)), nil
	}
}

// load walks the slower tiers. The returned payload is owned by the
// pipeline and queued write-backs; callers must copy it before handing it out.
func (p *Pipeline) load(ctx context.Context, key string) (types.Image, error) {
	if p.mirror != nil {
		if img, ok := p.fromMirror(ctx, key); ok {
			return img, nil
		}
	}

	obj, err := p.origin.Fetch(ctx, key)
	if err != nil {
		p.log.Warn("origin fetch failed",
			slog.String("key", key),
			slog.Any("error", err),
		)
		return types.Image{}, err
	}
	p.metrics.Hit(types.TierOrigin)

	// The mirror keeps bytes only, so every tier must derive the format the
	// same way.
	format := types.FormatFromKey(key)
	if obj.Format.Known() && obj.Format != format {
		p.log.Debug("origin content type disagrees with key",
			slog.String("key", key),
			slog.String("origin_format", obj.Format.String()),
			slog.String("format", format.String()),
		)
	}
	obj.Format = format

	p.writeback.Enqueue(ctx, writeback.MemoryTask(p.memory, key, obj))
	if p.mirror != nil {
		p.writeback.Enqueue(ctx, writeback.MirrorTask(p.mirror, key, obj.Payload))
	}

	return types.Image{Payload: obj.Payload, Format: obj.Format, Tier: types.TierOrigin}, nil
}

func (p *Pipeline) fromMirror(ctx context.Context, key string) (types.Image, bool) {
	payload, err := p.mirror.ReadRaw(ctx, key)
	if err != nil {
		if !types.IsCacheMiss(err) {
			p.log.Error("mirror read failed, falling back to origin",
				slog.String("key", key),
				slog.Any("error", err),
			)
		}
		p.metrics.Miss(types.TierMirror)
		return types.Image{}, false
	}
	p.metrics.Hit(types.TierMirror)

	obj := types.Object{Payload: payload, Format: types.FormatFromKey(key)}
	p.writeback.Enqueue(ctx, writeback.MemoryTask(p.memory, key, obj))

	return types.Image{Payload: obj.Payload, Format: obj.Format, Tier: types.TierMirror}, true
}

// Wait blocks until all queued write-backs have finished.
func (p *Pipeline) Wait() {
	p.writeback.Wait()
}

// Close flushes pending write-backs if the pipeline owns its dispatcher.
func (p *Pipeline) Close() {
	if p.ownWriteback {
		p.writeback.Close()
	}
}

func cloneImage(img types.Image) types.Image {
	payload := make([]byte, len(img.Payload))
	copy(payload, img.Payload)
	img.Payload = payload
	return img
}
