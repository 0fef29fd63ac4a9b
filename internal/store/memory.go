// internal/store/memory.go
//
// In-memory registry of live matches.
// Characteristics:
//   - Stores *match.Match objects keyed by ID, with a per-player index
//     (each player owns at most one live match).
//   - Concurrency-safe via RWMutex (concurrent reads allowed, writes exclusive).
//   - State is lost when the process restarts; finished scores live in SQLite.

package store

import (
	"context"
	"errors"
	"sync"

	"github.com/robalobadob/typing-game/internal/match"
)

// ErrNotFound is returned for unknown match or player IDs.
var ErrNotFound = errors.New("match not found")

// Store holds live matches.
type Store interface {
	// Save adds m, replacing any match the same player owned before.
	// The replaced match (if any) is returned so the caller can stop it.
	Save(ctx context.Context, m *match.Match) (replaced *match.Match, err error)

	// Get retrieves a match by ID.
	Get(ctx context.Context, id string) (*match.Match, error)

	// ForPlayer retrieves the player's live match.
	ForPlayer(ctx context.Context, playerID string) (*match.Match, error)

	// Delete removes a match by ID. Unknown IDs are ignored.
	Delete(ctx context.Context, id string) error
}

type memory struct {
	mu       sync.RWMutex
	matches  map[string]*match.Match // keyed by match ID
	byPlayer map[string]string       // player ID -> match ID
}

// NewMemoryStore constructs a new in-memory Store.
func NewMemoryStore() Store {
	return &memory{
		matches:  make(map[string]*match.Match),
		byPlayer: make(map[string]string),
	}
}

func (m *memory) Save(ctx context.Context, g *match.Match) (*match.Match, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	var replaced *match.Match
	if prevID, ok := m.byPlayer[g.PlayerID()]; ok && prevID != g.ID() {
		replaced = m.matches[prevID]
		delete(m.matches, prevID)
	}
	m.matches[g.ID()] = g
	m.byPlayer[g.PlayerID()] = g.ID()
	return replaced, nil
}

func (m *memory) Get(ctx context.Context, id string) (*match.Match, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	if g, ok := m.matches[id]; ok {
		return g, nil
	}
	return nil, ErrNotFound
}

func (m *memory) ForPlayer(ctx context.Context, playerID string) (*match.Match, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	if id, ok := m.byPlayer[playerID]; ok {
		if g, ok := m.matches[id]; ok {
			return g, nil
		}
	}
	return nil, ErrNotFound
}

func (m *memory) Delete(ctx context.Context, id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	g, ok := m.matches[id]
	if !ok {
		return nil
	}
	delete(m.matches, id)
	if m.byPlayer[g.PlayerID()] == id {
		delete(m.byPlayer, g.PlayerID())
	}
	return nil
}
