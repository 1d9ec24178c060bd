package shard

import (
	"time"

	"github.com/krisalay/image-cache/types"
)

// compactMinPeak avoids rebuilding tiny maps; compaction only pays off on large ones.
const compactMinPeak = 64

// PutResult describes what an insert did to the shard.
type PutResult struct {
	// Stored is false when the entry alone exceeds the shard budget.
	Stored bool

	// Evicted lists keys removed to make room.
	Evicted []string
}

// Get returns the stored entry. The payload is shared with the map and must
// be treated as read-only; stored payloads are never mutated in place.
func (s *Shard) Get(key string) (types.CacheEntry, bool) {
	s.mu.RLock()
	ent, ok := s.entries[key]
	s.mu.RUnlock()

	if ok && s.policy != nil {
		s.policyMu.Lock()
		s.policy.OnGet(key)
		s.policyMu.Unlock()
	}
	return ent, ok
}

// Put inserts or replaces the entry for ent.Key and evicts until the shard is within budget.
func (s *Shard) Put(ent types.CacheEntry) PutResult {
	size := ent.Size()

	s.mu.Lock()
	defer s.mu.Unlock()

	if s.budget > 0 && size > s.budget {
		return PutResult{}
	}

	if old, ok := s.entries[ent.Key]; ok {
		s.bytes -= old.Size()
	}
	s.entries[ent.Key] = ent
	s.bytes += size
	if n := len(s.entries); n > s.peak {
		s.peak = n
	}

	res := PutResult{Stored: true}
	if s.policy == nil {
		return res
	}

	s.policyMu.Lock()
	defer s.policyMu.Unlock()

	s.policy.OnPut(ent.Key)
	for s.budget > 0 && s.bytes > s.budget {
		victim := s.policy.Evict()
		if victim == "" {
			break
		}
		if old, ok := s.entries[victim]; ok {
			s.bytes -= old.Size()
			delete(s.entries, victim)
			res.Evicted = append(res.Evicted, victim)
		}
	}
	return res
}

// Delete removes key and reports whether it was present.
func (s *Shard) Delete(key string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.deleteLocked(key)
}

func (s *Shard) deleteLocked(key string) bool {
	old, ok := s.entries[key]
	if !ok {
		return false
	}
	s.bytes -= old.Size()
	delete(s.entries, key)

	if s.policy != nil {
		s.policyMu.Lock()
		s.policy.Remove(key)
		s.policyMu.Unlock()
	}
	return true
}

// Candidate is a key selected by a sweep snapshot together with the
// insertion time it had when it was selected.
type Candidate struct {
	Key        string
	InsertedAt time.Time
}

// Expired snapshots, under the read lock, every entry for which expired returns true.
func (s *Shard) Expired(expired func(types.CacheEntry) bool) []Candidate {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var out []Candidate
	for k, ent := range s.entries {
		if expired(ent) {
			out = append(out, Candidate{Key: k, InsertedAt: ent.InsertedAt})
		}
	}
	return out
}

// RemoveCandidates deletes the snapshotted keys that were not re-inserted
// since the snapshot was taken, and returns how many it removed.
func (s *Shard) RemoveCandidates(cands []Candidate) int {
	if len(cands) == 0 {
		return 0
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	removed := 0
	for _, c := range cands {
		ent, ok := s.entries[c.Key]
		if !ok || !ent.InsertedAt.Equal(c.InsertedAt) {
			continue
		}
		if s.deleteLocked(c.Key) {
			removed++
		}
	}
	return removed
}

// Compact rebuilds the map once it has shrunk to under a quarter of its
// peak size, so the runtime can release the buckets a sweep emptied.
// It reports whether a rebuild happened.
func (s *Shard) Compact() bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	n := len(s.entries)
	if s.peak < compactMinPeak || n*4 > s.peak {
		return false
	}

	m := make(map[string]types.CacheEntry, n)
	for k, v := range s.entries {
		m[k] = v
	}
	s.entries = m
	s.peak = n
	return true
}

// Len returns how many entries are stored.
func (s *Shard) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.entries)
}

// Bytes returns the total payload size stored.
func (s *Shard) Bytes() int64 {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.bytes
}
