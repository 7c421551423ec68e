package rankindex

import (
	"context"
	"sync"

	"github.com/riskibarqy/questrank/internal/domain/leaderboard"
	"github.com/riskibarqy/questrank/internal/platform/ostree"
)

type board struct {
	tree    *ostree.Tree[leaderboard.Standing]
	members map[string]leaderboard.Standing
}

func newBoard() *board {
	return &board{
		tree:    ostree.New(leaderboard.Dominates),
		members: make(map[string]leaderboard.Standing),
	}
}

// Memory keeps one order-statistic treap per board in process memory.
type Memory struct {
	mu     sync.RWMutex
	boards map[string]*board
}

func NewMemory() *Memory {
	return &Memory{boards: make(map[string]*board)}
}

func (m *Memory) Upsert(_ context.Context, name string, s leaderboard.Standing) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	b, ok := m.boards[name]
	if !ok {
		b = newBoard()
		m.boards[name] = b
	}
	if prev, exists := b.members[s.ID]; exists {
		b.tree.Delete(prev)
	}
	b.tree.Insert(s)
	b.members[s.ID] = s
	return nil
}

func (m *Memory) Remove(_ context.Context, name, id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	b, ok := m.boards[name]
	if !ok {
		return nil
	}
	if prev, exists := b.members[id]; exists {
		b.tree.Delete(prev)
		delete(b.members, id)
	}
	return nil
}

func (m *Memory) Rank(_ context.Context, name, id string) (int, bool, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	b, ok := m.boards[name]
	if !ok {
		return 0, false, nil
	}
	s, exists := b.members[id]
	if !exists {
		return 0, false, nil
	}
	return b.tree.Rank(s) + 1, true, nil
}

func (m *Memory) Count(_ context.Context, name string) (int, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	b, ok := m.boards[name]
	if !ok {
		return 0, nil
	}
	return b.tree.Len(), nil
}

func (m *Memory) Top(_ context.Context, name string, limit, offset int) ([]string, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	b, ok := m.boards[name]
	if !ok {
		return []string{}, nil
	}
	out := make([]string, 0, max(limit, 0))
	b.tree.Range(offset, limit, func(_ int, s leaderboard.Standing) bool {
		out = append(out, s.ID)
		return true
	})
	return out, nil
}

func (m *Memory) Reset(_ context.Context, name string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	delete(m.boards, name)
	return nil
}
