package receipt

import (
	"cmp"
	"context"
	"slices"
	"sync"

	"github.com/cod1ng-earth/splicenft/pkg/gate"
)

// MemoryStore keeps receipts in a map.
type MemoryStore struct {
	mu       sync.RWMutex
	receipts map[string]*Receipt
}

// NewMemoryStore creates an empty store.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{receipts: make(map[string]*Receipt)}
}

func (m *MemoryStore) Save(_ context.Context, res *gate.Result) error {
	r := FromResult(res)
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.receipts[r.ID]; !ok {
		m.receipts[r.ID] = r
	}
	return nil
}

func (m *MemoryStore) Get(_ context.Context, id string) (*Receipt, error) {
	id, err := ParseID(id)
	if err != nil {
		return nil, err
	}
	m.mu.RLock()
	defer m.mu.RUnlock()
	r, ok := m.receipts[id]
	if !ok {
		return nil, notFound(id)
	}
	cp := *r
	return &cp, nil
}

func (m *MemoryStore) List(_ context.Context, q Query) ([]*Receipt, error) {
	m.mu.RLock()
	out := make([]*Receipt, 0, len(m.receipts))
	for _, r := range m.receipts {
		if q.matches(r) {
			cp := *r
			out = append(out, &cp)
		}
	}
	m.mu.RUnlock()

	slices.SortFunc(out, func(a, b *Receipt) int {
		if c := b.CreatedAt.Compare(a.CreatedAt); c != 0 {
			return c
		}
		return cmp.Compare(a.ID, b.ID)
	})
	if len(out) > q.limit() {
		out = out[:q.limit()]
	}
	return out, nil
}

// Len returns the number of receipts.
func (m *MemoryStore) Len() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.receipts)
}

func (m *MemoryStore) Close() error { return nil }
