package server

import (
	"fmt"
	"sync"

	"github.com/javajack/xlbind"
	"github.com/javajack/xlbind/store"
)

// registry holds the live documents of this process.
type registry struct {
	mu   sync.RWMutex
	docs map[string]*xlbind.Document
}

func newRegistry() *registry {
	return &registry{docs: make(map[string]*xlbind.Document)}
}

func (r *registry) add(d *xlbind.Document) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.docs[d.ID()] = d
}

func (r *registry) get(id string) (*xlbind.Document, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	d, ok := r.docs[id]
	if !ok {
		return nil, fmt.Errorf("document %q: %w", id, store.ErrNotFound)
	}
	return d, nil
}

func (r *registry) remove(id string) bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	_, ok := r.docs[id]
	delete(r.docs, id)
	return ok
}
