package api

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestTimingString(t *testing.T) {
	assert.Equal(t, "db;dur=56", Timing{Name: "db", Duration: 56 * time.Millisecond}.String())
	assert.Equal(t, `fetch;desc="memory";dur=3`,
		Timing{Name: "fetch", Description: "memory", Duration: 3500 * time.Microsecond}.String())
	assert.Equal(t, `x;desc="a 'b'";dur=0`, Timing{Name: "x", Description: `a "b"`}.String())
}

func TestServerTimingString(t *testing.T) {
	st := ServerTiming{
		{Name: "db", Duration: 56 * time.Millisecond},
		{Name: "ser", Duration: 32 * time.Millisecond},
	}
	assert.Equal(t, "db;dur=56, ser;dur=32", st.String())
	assert.Equal(t, "", ServerTiming{}.String())
}
