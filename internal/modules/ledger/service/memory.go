package service

import (
	"context"
	"fmt"
	"sort"
	"sync"
)

type Memory struct {
	mu   sync.RWMutex
	data map[string]Record
}

var _ Store = (*Memory)(nil)

func NewMemory() *Memory {
	return &Memory{
		data: make(map[string]Record),
	}
}

func (m *Memory) Save(_ context.Context, rec Record) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.data[rec.Receipt.ID]; ok {
		return fmt.Errorf("memory.Save: receipt %s already stored", rec.Receipt.ID)
	}
	m.data[rec.Receipt.ID] = rec
	return nil
}

func (m *Memory) Get(_ context.Context, id string) (*Record, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	rec, ok := m.data[id]
	if !ok {
		return nil, fmt.Errorf("memory.Get %s: %w", id, ErrNotFound)
	}
	return &rec, nil
}

func (m *Memory) List(_ context.Context, limit int) ([]Record, error) {
	m.mu.RLock()
	out := make([]Record, 0, len(m.data))
	for _, rec := range m.data {
		out = append(out, rec)
	}
	m.mu.RUnlock()

	sort.Slice(out, func(i, j int) bool {
		return out[i].Receipt.CreatedAt.After(out[j].Receipt.CreatedAt)
	})
	if limit > 0 && len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

func (m *Memory) SetAnchor(_ context.Context, id, tx string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	rec, ok := m.data[id]
	if !ok {
		return fmt.Errorf("memory.SetAnchor %s: %w", id, ErrNotFound)
	}
	rec.AnchorTx = tx
	m.data[id] = rec
	return nil
}
