package scanner

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestScanner_WholeArrayAtOnce(t *testing.T) {
	s := New()
	objs := s.Feed([]byte(`[{"a":1},{"b":2}]`))
	require.Len(t, objs, 2)
	assert.JSONEq(t, `{"a":1}`, string(objs[0]))
	assert.JSONEq(t, `{"b":2}`, string(objs[1]))
}

func TestScanner_ArbitraryChunkBoundaries(t *testing.T) {
	whole := `[{"name":"a","nested":{"x":1}},{"name":"b"},{"name":"c,\"quoted\""}]`
	for split := 1; split < len(whole); split++ {
		s := New()
		var got []json.RawMessage
		got = append(got, s.Feed([]byte(whole[:split]))...)
		got = append(got, s.Feed([]byte(whole[split:]))...)

		require.Len(t, got, 3, "split at %d", split)
		assert.JSONEq(t, `{"name":"a","nested":{"x":1}}`, string(got[0]))
		assert.JSONEq(t, `{"name":"b"}`, string(got[1]))
		assert.JSONEq(t, `{"name":"c,\"quoted\""}`, string(got[2]))
	}
}

func TestScanner_ByteAtATime(t *testing.T) {
	whole := []byte(`[{"v":1},{"v":2},{"v":3}]`)
	s := New()
	var got []json.RawMessage
	for _, b := range whole {
		got = append(got, s.Feed([]byte{b})...)
	}
	require.Len(t, got, 3)
}

func TestScanner_MalformedObjectDropped(t *testing.T) {
	s := New()
	// second object's braces balance but the content inside is not valid JSON
	objs := s.Feed([]byte(`[{"a":1},{not json},{"b":2}]`))
	require.Len(t, objs, 2)
	assert.JSONEq(t, `{"a":1}`, string(objs[0]))
	assert.JSONEq(t, `{"b":2}`, string(objs[1]))
}

func TestScanner_NoOpeningBracket(t *testing.T) {
	s := New()
	objs := s.Feed([]byte(`{"a":1}`))
	assert.Empty(t, objs)
}

func TestScanner_IgnoresInputAfterArrayCloses(t *testing.T) {
	s := New()
	objs := s.Feed([]byte(`[{"a":1}]garbage{"b":2}`))
	require.Len(t, objs, 1)
	assert.JSONEq(t, `{"a":1}`, string(objs[0]))
}

func TestScanner_EmptyArray(t *testing.T) {
	s := New()
	objs := s.Feed([]byte(`[]`))
	assert.Empty(t, objs)
}

func TestScanner_BracesInsideStrings(t *testing.T) {
	s := New()
	objs := s.Feed([]byte(`[{"text":"a { b } c"}]`))
	require.Len(t, objs, 1)
	assert.JSONEq(t, `{"text":"a { b } c"}`, string(objs[0]))
}
