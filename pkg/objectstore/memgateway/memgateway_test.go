package memgateway

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/waveshift/subpipeline/pkg/objectstore"
)

func TestMemgateway_PutGetRoundTrip(t *testing.T) {
	ctx := context.Background()
	g := New("")
	require.NoError(t, g.Put(ctx, "clips/a.wav", []byte("data"), "audio/wav"))

	got, err := g.Get(ctx, "clips/a.wav")
	require.NoError(t, err)
	assert.Equal(t, []byte("data"), got)
}

func TestMemgateway_GetMissingKey(t *testing.T) {
	g := New("")
	_, err := g.Get(context.Background(), "missing")
	assert.ErrorIs(t, err, objectstore.ErrNotFound)
}

func TestMemgateway_PublicURL(t *testing.T) {
	withDomain := New("cdn.example.com")
	assert.Equal(t, "https://cdn.example.com/clips/a.wav", withDomain.PublicURL("clips/a.wav"))

	withoutDomain := New("")
	assert.Equal(t, "clips/a.wav", withoutDomain.PublicURL("clips/a.wav"))
}

func TestMemgateway_Head(t *testing.T) {
	ctx := context.Background()
	g := New("")
	require.NoError(t, g.Put(ctx, "k", []byte("hello"), "text/plain"))
	meta, err := g.Head(ctx, "k")
	require.NoError(t, err)
	assert.Equal(t, int64(5), meta.ContentLength)
	assert.Equal(t, "text/plain", meta.ContentType)
}
