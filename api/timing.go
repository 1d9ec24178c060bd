package api

import (
	"strconv"
	"strings"
	"time"
)

// Timing is one entry of a Server-Timing header.
type Timing struct {
	Name        string
	Description string
	Duration    time.Duration
}

// String formats t as name;desc="...";dur=ms.
func (t Timing) String() string {
	var b strings.Builder
	b.WriteString(t.Name)
	if t.Description != "" {
		b.WriteString(`;desc="`)
		b.WriteString(strings.ReplaceAll(t.Description, `"`, `'`))
		b.WriteString(`"`)
	}
	b.WriteString(";dur=")
	b.WriteString(strconv.FormatInt(t.Duration.Milliseconds(), 10))
	return b.String()
}

// ServerTiming is the value of a Server-Timing header.
type ServerTiming []Timing

func (s ServerTiming) String() string {
	parts := make([]string, len(s))
	for i, t := range s {
		parts[i] = t.String()
	}
	return strings.Join(parts, ", ")
}
