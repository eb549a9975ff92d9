// Package cache stores simulated frames so they can be restored instead of
// simulated again, either in memory or as a run directory on disk.
package cache

import (
	"sort"
	"sync"

	"github.com/san-kum/smokesim/internal/domain"
)

// Memory keeps snapshots keyed by frame.
type Memory struct {
	mu     sync.Mutex
	frames map[int]*domain.Snapshot
}

func NewMemory() *Memory {
	return &Memory{frames: make(map[int]*domain.Snapshot)}
}

func (m *Memory) Read(frame int) (*domain.Snapshot, bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	s, ok := m.frames[frame]
	return s, ok, nil
}

func (m *Memory) Write(frame int, s *domain.Snapshot) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.frames[frame] = s
	return nil
}

// Frames lists the cached frames in order.
func (m *Memory) Frames() []int {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]int, 0, len(m.frames))
	for f := range m.frames {
		out = append(out, f)
	}
	sort.Ints(out)
	return out
}

// Invalidate drops every frame after frame.
func (m *Memory) Invalidate(frame int) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for f := range m.frames {
		if f > frame {
			delete(m.frames, f)
		}
	}
}
