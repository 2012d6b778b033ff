package transcriptstream

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func sseBody(events ...string) string {
	return strings.Join(events, "")
}

func TestStream_TwoSegmentsThenEnd(t *testing.T) {
	body := sseBody(
		"event: start\ndata: {\"metadata\":{}}\n\n",
		`event: segment
data: {"sequence":1,"segment":{"sequence":1,"start":"0m0s0ms","end":"0m2s0ms","content_type":"speech","speaker":"A","original":"Hi."},"timestamp":"t"}

`,
		`event: segment
data: {"sequence":2,"segment":{"sequence":2,"start":"0m2s500ms","end":"0m4s0ms","content_type":"speech","speaker":"A","original":"There."},"timestamp":"t"}

`,
		"event: end\ndata: {\"totalSegments\":2,\"endTime\":\"t\"}\n\n",
	)

	var got []RawSegment
	result, err := Stream(strings.NewReader(body), func(s RawSegment) error {
		got = append(got, s)
		return nil
	})

	require.NoError(t, err)
	assert.Equal(t, int64(2), result.TotalSegments)
	require.Len(t, got, 2)
	assert.Equal(t, int64(0), got[0].StartMS)
	assert.Equal(t, int64(2000), got[0].EndMS)
	assert.Equal(t, int64(2500), got[1].StartMS)
	assert.Equal(t, "A", got[1].Speaker)
}

func TestStream_EmptyStreamIsNotAnError(t *testing.T) {
	result, err := Stream(strings.NewReader(""), func(s RawSegment) error {
		t.Fatal("handler should not be called")
		return nil
	})
	require.NoError(t, err)
	assert.Equal(t, int64(0), result.TotalSegments)
}

func TestStream_ErrorEventPropagates(t *testing.T) {
	body := "event: error\ndata: {\"error\":\"model overloaded\",\"timestamp\":\"t\"}\n\n"
	_, err := Stream(strings.NewReader(body), func(s RawSegment) error {
		return nil
	})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "model overloaded")
}

func TestStream_HandlerErrorAborts(t *testing.T) {
	body := sseBody(
		`event: segment
data: {"sequence":1,"segment":{"sequence":1,"start":"0m0s0ms","end":"0m1s0ms","content_type":"speech","speaker":"A","original":"Hi."},"timestamp":"t"}

`,
	)
	calls := 0
	_, err := Stream(strings.NewReader(body), func(s RawSegment) error {
		calls++
		return assert.AnError
	})
	require.Error(t, err)
	assert.Equal(t, 1, calls)
}
