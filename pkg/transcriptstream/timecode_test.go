package transcriptstream

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestParseTimecode(t *testing.T) {
	cases := map[string]int64{
		"0m0s0ms":     0,
		"0m2s0ms":     2000,
		"0m2s500ms":   2500,
		"1m0s0ms":     60000,
		"2m3s4ms":     123004,
		"not-a-time":  0,
		"":            0,
	}
	for in, want := range cases {
		assert.Equal(t, want, ParseTimecode(in), "input %q", in)
	}
}

func TestTimecodeRoundTrip(t *testing.T) {
	for _, ms := range []int64{0, 1, 999, 1000, 2500, 60000, 123004, 7199999} {
		formatted := FormatTimecode(ms)
		assert.Equal(t, ms, ParseTimecode(formatted), "round trip of %d via %q", ms, formatted)
		assert.Equal(t, formatted, FormatTimecode(ParseTimecode(formatted)))
	}
}
