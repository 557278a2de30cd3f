package store

import (
	"context"
	"sync"

	"robot-explorer/api/internal/explore"
)

// Memory keeps the snapshot in process. State is lost on restart.
type Memory struct {
	mu   sync.Mutex
	snap *explore.Snapshot
}

func NewMemory() *Memory { return &Memory{} }

func (m *Memory) Load(context.Context) (explore.Snapshot, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.snap == nil {
		return explore.Snapshot{}, explore.ErrNoSnapshot
	}
	return clone(*m.snap), nil
}

func (m *Memory) Save(_ context.Context, s explore.Snapshot) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	c := clone(s)
	m.snap = &c
	return nil
}

func (m *Memory) Ping(context.Context) error { return nil }

func (m *Memory) Close() error { return nil }

func clone(s explore.Snapshot) explore.Snapshot {
	out := s
	out.Visited = append([]explore.VisitedEntry(nil), s.Visited...)
	out.Frontier = append([]explore.Position(nil), s.Frontier...)
	return out
}
