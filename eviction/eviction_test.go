package eviction

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParsePolicyType(t *testing.T) {
	for in, want := range map[string]PolicyType{
		"":      None,
		"none":  None,
		"lru":   LRU,
		" LFU ": LFU,
		"Fifo":  FIFO,
	} {
		got, err := ParsePolicyType(in)
		require.NoError(t, err, in)
		assert.Equal(t, want, got, in)
	}

	_, err := ParsePolicyType("random")
	assert.Error(t, err)
}

func TestNewNoneIsNil(t *testing.T) {
	p, err := New(None)
	require.NoError(t, err)
	assert.Nil(t, p)

	_, err = New(PolicyType("bogus"))
	assert.Error(t, err)
}

func TestLRU(t *testing.T) {
	p := newLRU()
	p.OnPut("a")
	p.OnPut("b")
	p.OnPut("c")

	// a becomes most recently used
	p.OnGet("a")

	assert.Equal(t, "b", p.Evict())
	assert.Equal(t, "c", p.Evict())
	assert.Equal(t, "a", p.Evict())
	assert.Equal(t, "", p.Evict())
}

func TestLRURemove(t *testing.T) {
	p := newLRU()
	p.OnPut("a")
	p.OnPut("b")
	p.Remove("a")
	p.Remove("missing")

	assert.Equal(t, 1, p.Len())
	assert.Equal(t, "b", p.Evict())
}

func TestFIFOIgnoresReads(t *testing.T) {
	p := newFIFO()
	p.OnPut("a")
	p.OnPut("b")
	p.OnGet("a")
	p.OnPut("a")

	assert.Equal(t, "a", p.Evict())
	assert.Equal(t, "b", p.Evict())
	assert.Equal(t, "", p.Evict())
}

func TestFIFORemove(t *testing.T) {
	p := newFIFO()
	p.OnPut("a")
	p.OnPut("b")
	p.OnPut("c")
	p.Remove("b")

	assert.Equal(t, "a", p.Evict())
	assert.Equal(t, "c", p.Evict())
	assert.Equal(t, 0, p.Len())
}

func TestLFU(t *testing.T) {
	p := newLFU()
	p.OnPut("a")
	p.OnPut("b")
	p.OnPut("c")

	p.OnGet("a")
	p.OnGet("a")
	p.OnGet("c")

	// b: 1, c: 2, a: 3
	assert.Equal(t, "b", p.Evict())
	assert.Equal(t, "c", p.Evict())
	assert.Equal(t, "a", p.Evict())
	assert.Equal(t, "", p.Evict())
}

func TestLFUTieBreaksOnArrival(t *testing.T) {
	p := newLFU()
	p.OnPut("a")
	p.OnPut("b")
	p.OnGet("a")
	p.OnGet("b")

	assert.Equal(t, "a", p.Evict())
}

func TestLFURemoveMinimum(t *testing.T) {
	p := newLFU()
	p.OnPut("a")
	p.OnPut("b")
	p.OnGet("b")
	p.Remove("a")

	p.OnPut("c")
	assert.Equal(t, "c", p.Evict())
	assert.Equal(t, "b", p.Evict())
}
