package eviction

import (
	"fmt"
	"strings"
)

/*
This file defines how the memory tier decides what to remove when it runs
over its byte budget. Time-based expiry is handled by the evictor sweep;
a policy only orders keys for capacity pressure.
*/

/*
Policy is the interface that all eviction strategies must follow.

Policies are not safe for concurrent use. The shard that owns a policy
serialises every call.
*/
type Policy interface {

	// OnGet is called whenever a key is served from the tier.
	OnGet(string)

	// OnPut is called whenever a key is inserted or overwritten.
	OnPut(string)

	// Remove is called when a key leaves the tier for any other reason
	// (sweep, explicit removal) so the policy can drop its bookkeeping.
	Remove(string)

	// Evict picks the next victim and forgets it. It returns "" when
	// nothing is tracked.
	Evict() string

	// Len returns how many keys are tracked.
	Len() int
}

// PolicyType is a simple identifier for supported eviction strategies.
type PolicyType string

const (
	// None disables capacity eviction; the byte budget is ignored.
	None PolicyType = ""

	// LRU evicts the image that has not been served for the longest time.
	LRU PolicyType = "LRU"

	// LFU evicts the image served the fewest times, oldest first on ties.
	LFU PolicyType = "LFU"

	// FIFO evicts the oldest inserted image, regardless of access.
	FIFO PolicyType = "FIFO"
)

// ParsePolicyType accepts the names above case-insensitively; "none" and "" mean None.
func ParsePolicyType(s string) (PolicyType, error) {
	switch strings.ToUpper(strings.TrimSpace(s)) {
	case "", "NONE":
		return None, nil
	case string(LRU):
		return LRU, nil
	case string(LFU):
		return LFU, nil
	case string(FIFO):
		return FIFO, nil
	}
	return None, fmt.Errorf("unknown eviction policy %q", s)
}

// New creates the policy for t. It returns nil for None.
func New(t PolicyType) (Policy, error) {
	switch t {
	case None:
		return nil, nil
	case LRU:
		return newLRU(), nil
	case LFU:
		return newLFU(), nil
	case FIFO:
		return newFIFO(), nil
	}
	return nil, fmt.Errorf("unknown eviction policy %q", string(t))
}
