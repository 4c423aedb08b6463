package storage

import (
	"bytes"
	"context"
	"sync"

	"github.com/ipfs/go-cid"
)

// MemoryCAS is an in-process CAS.
type MemoryCAS struct {
	mu      sync.RWMutex
	objects map[string][]byte
}

// NewMemoryCAS returns an empty store.
func NewMemoryCAS() *MemoryCAS {
	return &MemoryCAS{objects: make(map[string][]byte)}
}

func (m *MemoryCAS) Put(_ context.Context, data []byte) (cid.Cid, error) {
	id, err := CID(data)
	if err != nil {
		return cid.Undef, err
	}
	k := id.KeyString()

	m.mu.Lock()
	defer m.mu.Unlock()
	if existing, ok := m.objects[k]; ok {
		if !bytes.Equal(existing, data) {
			return cid.Undef, ErrImmutable
		}
		return id, nil
	}
	m.objects[k] = bytes.Clone(data)
	return id, nil
}

func (m *MemoryCAS) Get(_ context.Context, id cid.Cid) ([]byte, error) {
	if !id.Defined() {
		return nil, ErrInvalidCID
	}
	m.mu.RLock()
	b, ok := m.objects[id.KeyString()]
	m.mu.RUnlock()
	if !ok {
		return nil, ErrNotFound
	}
	return bytes.Clone(b), nil
}

func (m *MemoryCAS) Has(_ context.Context, id cid.Cid) bool {
	if !id.Defined() {
		return false
	}
	m.mu.RLock()
	defer m.mu.RUnlock()
	_, ok := m.objects[id.KeyString()]
	return ok
}

// Len returns the number of stored objects.
func (m *MemoryCAS) Len() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.objects)
}

var _ CAS = (*MemoryCAS)(nil)
