package main

import (
	"context"
	"flag"
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	imagecache "github.com/krisalay/image-cache"
	"github.com/krisalay/image-cache/memory"
	"github.com/krisalay/image-cache/types"
)

// ================= SLOW ORIGIN =================

type slowOrigin struct {
	latency time.Duration
	size    int
	calls   atomic.Int64
}

func (o *slowOrigin) Fetch(ctx context.Context, key string) (types.Object, error) {
	o.calls.Add(1)
	select {
	case <-time.After(o.latency):
	case <-ctx.Done():
		return types.Object{}, types.Unavailable(key, ctx.Err())
	}
	return types.Object{Payload: make([]byte, o.size), Format: types.JPEG}, nil
}

// ================= COUNTING METRICS =================

type counters struct {
	types.NoopMetrics
	hits      atomic.Int64
	misses    atomic.Int64
	coalesced atomic.Int64
}

func (c *counters) Hit(tier types.Tier) {
	if tier == types.TierMemory {
		c.hits.Add(1)
	}
}

func (c *counters) Miss(tier types.Tier) {
	if tier == types.TierMemory {
		c.misses.Add(1)
	}
}

func (c *counters) Coalesced() { c.coalesced.Add(1) }

// ================= BENCHMARK =================

func main() {
	var (
		shards     = flag.Int("shards", 8, "memory cache shards")
		keys       = flag.Int("keys", 2000, "distinct image keys")
		goroutines = flag.Int("goroutines", 200, "concurrent clients")
		opsPerG    = flag.Int("ops", 5000, "resolves per client")
		latency    = flag.Duration("latency", 20*time.Millisecond, "origin latency")
		size       = flag.Int("size", 64<<10, "image size in bytes")
		coalesce   = flag.Bool("coalesce", true, "coalesce concurrent misses")
	)
	flag.Parse()

	ctx := context.Background()

	fmt.Println("\n================ PIPELINE LOAD BENCHMARK =================")
	fmt.Println("CONFIG")
	fmt.Println("---------------------------------")
	fmt.Println("Shards        :", *shards)
	fmt.Println("Keys          :", *keys)
	fmt.Println("Goroutines    :", *goroutines)
	fmt.Println("Ops/Goroutine :", *opsPerG)
	fmt.Println("Origin latency:", *latency)
	fmt.Println("Image size    :", *size)
	fmt.Println("Coalesce      :", *coalesce)
	fmt.Println("---------------------------------")

	origin := &slowOrigin{latency: *latency, size: *size}
	m := &counters{}

	mem, err := memory.New(memory.Options{Shards: *shards, Metrics: m})
	if err != nil {
		panic(err)
	}
	p, err := imagecache.New(imagecache.Options{
		Memory:            mem,
		Origin:            origin,
		DisableCoalescing: !*coalesce,
		Metrics:           m,
	})
	if err != nil {
		panic(err)
	}
	defer p.Close()

	fmt.Println("Running concurrency benchmark...")
	start := time.Now()

	var failed atomic.Int64
	wg := sync.WaitGroup{}
	wg.Add(*goroutines)
	for i := 0; i < *goroutines; i++ {
		go func(id int) {
			defer wg.Done()
			for j := 0; j < *opsPerG; j++ {
				key := fmt.Sprintf("/img/%d.jpg", (id+j)%*keys)
				if _, err := p.Resolve(ctx, key); err != nil {
					failed.Add(1)
				}
			}
		}(i)
	}
	wg.Wait()

	duration := time.Since(start)
	totalOps := *goroutines * *opsPerG
	hits, misses := m.hits.Load(), m.misses.Load()

	fmt.Println("\n================ RESULTS =================")
	fmt.Printf("Total Operations : %d\n", totalOps)
	fmt.Printf("Total Time       : %v\n", duration)
	fmt.Printf("Throughput       : %.2f ops/sec\n", float64(totalOps)/duration.Seconds())
	fmt.Printf("Hit Ratio        : %.2f%%\n", 100*float64(hits)/float64(hits+misses))
	fmt.Printf("Origin Calls     : %d\n", origin.calls.Load())
	fmt.Printf("Coalesced        : %d\n", m.coalesced.Load())
	fmt.Printf("Failed           : %d\n", failed.Load())
	fmt.Printf("Cached Entries   : %d (%d bytes)\n", mem.Len(), mem.Bytes())
	fmt.Println("=========================================")
}
