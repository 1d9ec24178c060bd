package shard

import (
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/krisalay/image-cache/eviction"
	"github.com/krisalay/image-cache/types"
)

func entry(key string, size int, at time.Time) types.CacheEntry {
	return types.CacheEntry{Key: key, Payload: make([]byte, size), Format: types.JPEG, InsertedAt: at}
}

func TestPutOverwriteTracksBytes(t *testing.T) {
	s := NewShard(nil, 0)
	now := time.Now()

	s.Put(entry("a", 10, now))
	s.Put(entry("a", 4, now))

	assert.Equal(t, 1, s.Len())
	assert.Equal(t, int64(4), s.Bytes())

	ent, ok := s.Get("a")
	require.True(t, ok)
	assert.Len(t, ent.Payload, 4)
}

func TestBudgetEvictsLRU(t *testing.T) {
	p, err := eviction.New(eviction.LRU)
	require.NoError(t, err)
	s := NewShard(p, 25)
	now := time.Now()

	s.Put(entry("a", 10, now))
	s.Put(entry("b", 10, now))
	s.Get("a")

	res := s.Put(entry("c", 10, now))
	assert.True(t, res.Stored)
	assert.Equal(t, []string{"b"}, res.Evicted)

	_, ok := s.Get("b")
	assert.False(t, ok)
	assert.Equal(t, int64(20), s.Bytes())
}

func TestOversizedEntryIsNotStored(t *testing.T) {
	p, _ := eviction.New(eviction.FIFO)
	s := NewShard(p, 8)

	res := s.Put(entry("big", 9, time.Now()))
	assert.False(t, res.Stored)
	assert.Equal(t, 0, s.Len())
}

func TestBudgetIgnoredWithoutPolicy(t *testing.T) {
	s := NewShard(nil, 1)
	res := s.Put(entry("a", 100, time.Now()))
	assert.True(t, res.Stored)
}

func TestSnapshotThenRemoveKeepsReinserted(t *testing.T) {
	s := NewShard(nil, 0)
	t0 := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)

	s.Put(entry("old", 1, t0))
	s.Put(entry("fresh", 1, t0.Add(time.Minute)))

	cands := s.Expired(func(e types.CacheEntry) bool { return e.InsertedAt.Equal(t0) })
	require.Len(t, cands, 1)

	// re-inserted between snapshot and removal
	s.Put(entry("old", 1, t0.Add(2*time.Minute)))

	assert.Equal(t, 0, s.RemoveCandidates(cands))
	assert.Equal(t, 2, s.Len())
}

func TestRemoveCandidatesIsIdempotent(t *testing.T) {
	s := NewShard(nil, 0)
	t0 := time.Now()
	s.Put(entry("a", 1, t0))

	cands := s.Expired(func(types.CacheEntry) bool { return true })
	assert.Equal(t, 1, s.RemoveCandidates(cands))
	assert.Equal(t, 0, s.RemoveCandidates(cands))
	assert.Equal(t, 0, s.RemoveCandidates(nil))
}

func TestCompact(t *testing.T) {
	s := NewShard(nil, 0)
	now := time.Now()
	for i := 0; i < 100; i++ {
		s.Put(entry(fmt.Sprintf("k%d", i), 1, now))
	}
	for i := 0; i < 90; i++ {
		s.Delete(fmt.Sprintf("k%d", i))
	}

	assert.True(t, s.Compact())
	assert.False(t, s.Compact())
	assert.Equal(t, 10, s.Len())
	assert.Equal(t, int64(10), s.Bytes())
}

func TestHashSelectorIsStable(t *testing.T) {
	shards := []*Shard{NewShard(nil, 0), NewShard(nil, 0), NewShard(nil, 0)}
	sel := HashSelector{}

	assert.Same(t, sel.Select("/a/cat.jpg", shards), sel.Select("/a/cat.jpg", shards))
	assert.Same(t, shards[0], sel.Select("anything", shards[:1]))
}
