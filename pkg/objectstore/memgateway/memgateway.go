// Package memgateway is an in-memory implementation of
// pkg/objectstore.Gateway, used by component tests and the example servers.
package memgateway

import (
	"context"
	"sync"

	"github.com/waveshift/subpipeline/pkg/objectstore"
)

type object struct {
	data        []byte
	contentType string
}

// Gateway is a goroutine-safe in-memory object store.
type Gateway struct {
	mu           sync.Mutex
	objects      map[string]object
	publicDomain string
}

var _ objectstore.Gateway = (*Gateway)(nil)

// New returns an empty Gateway. publicDomain is used to build PublicURL
// results; an empty string falls back to raw keys.
func New(publicDomain string) *Gateway {
	return &Gateway{objects: make(map[string]object), publicDomain: publicDomain}
}

func (g *Gateway) Get(ctx context.Context, key string) ([]byte, error) {
	g.mu.Lock()
	defer g.mu.Unlock()
	obj, ok := g.objects[key]
	if !ok {
		return nil, objectstore.ErrNotFound
	}
	out := make([]byte, len(obj.data))
	copy(out, obj.data)
	return out, nil
}

func (g *Gateway) Put(ctx context.Context, key string, data []byte, contentType string) error {
	g.mu.Lock()
	defer g.mu.Unlock()
	stored := make([]byte, len(data))
	copy(stored, data)
	g.objects[key] = object{data: stored, contentType: contentType}
	return nil
}

func (g *Gateway) Head(ctx context.Context, key string) (objectstore.Metadata, error) {
	g.mu.Lock()
	defer g.mu.Unlock()
	obj, ok := g.objects[key]
	if !ok {
		return objectstore.Metadata{}, objectstore.ErrNotFound
	}
	return objectstore.Metadata{ContentType: obj.contentType, ContentLength: int64(len(obj.data))}, nil
}

func (g *Gateway) PublicURL(key string) string {
	return objectstore.BuildPublicURL(g.publicDomain, key)
}
