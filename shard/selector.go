package shard

import "hash/fnv"

/*
This file decides HOW an image key is assigned to a shard.
Every shard has its own lock, so spreading keys evenly keeps concurrent
requests for different images from contending on one lock.
*/

// Selector decides which shard should handle a given key.
type Selector interface {
	Select(string, []*Shard) *Shard
}

// HashSelector maps a key to a shard by FNV-1a hash modulo shard count.
// The mapping is stable for the life of the process.
type HashSelector struct{}

// hash converts a string key into a number. FNV is a fast, non-cryptographic hash commonly used in systems like this.
func hash(s string) uint32 {
	h := fnv.New32a()
	h.Write([]byte(s))
	return h.Sum32()
}

// Select chooses the shard for a given key.
func (HashSelector) Select(key string, shards []*Shard) *Shard {
	if len(shards) == 1 {
		return shards[0]
	}
	return shards[hash(key)%uint32(len(shards))]
}
