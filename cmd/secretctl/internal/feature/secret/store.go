// Package secret reads secret documents from a store and copies their
// values into destinations.
package secret

import (
	"context"
	"strings"
	"sync"
)

// Reader fetches the document stored at mount/path.
type Reader interface {
	Get(ctx context.Context, mount, path string) (Document, error)
}

// Writer stores a document at mount/path as a new version.
type Writer interface {
	Put(ctx context.Context, mount, path string, doc Document) error
}

// Store reads and writes secret documents.
type Store interface {
	Reader
	Writer
}

// Destination receives copied values. Implementations normalize key names
// to their own convention and replace existing values.
type Destination interface {
	Name() string
	Set(ctx context.Context, key, value string) error
}

// StorePath joins mount and path the way errors and logs report them.
func StorePath(mount, path string) string {
	if path == "" {
		return mount
	}
	return strings.TrimRight(mount, "/") + "/" + strings.TrimLeft(path, "/")
}

// MemoryStore is a Store held in memory. It is safe for concurrent use.
type MemoryStore struct {
	mu   sync.RWMutex
	docs map[string]Document
}

// NewMemoryStore returns an empty MemoryStore.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{docs: make(map[string]Document)}
}

func (m *MemoryStore) Get(_ context.Context, mount, path string) (Document, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	key := StorePath(mount, path)
	doc, ok := m.docs[key]
	if !ok {
		return nil, NotFound(key, nil)
	}
	return clone(doc), nil
}

func (m *MemoryStore) Put(_ context.Context, mount, path string, doc Document) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.docs[StorePath(mount, path)] = clone(doc)
	return nil
}

func clone(doc Document) Document {
	out := make(Document, len(doc))
	for k, v := range doc {
		out[k] = v
	}
	return out
}
