// internal/game/types.go
//
// Core type definitions for the scoring engine.
// Defines:
//   - BonusKind: the reward offered when a streak milestone is hit.
//   - Rand: injectable source of uniform integers for the bonus draw.
//   - State / Resolution: read-only views returned to callers.

package game

import (
	crand "crypto/rand"
	"encoding/binary"
	"math/rand/v2"
)

// BonusKind is the category of a pending (or chained) bonus.
type BonusKind int

const (
	BonusNone        BonusKind = iota // nothing pending
	BonusScore                        // extra score, escalating chain 2 → 4 → 6
	BonusTime                         // extra seconds on the match countdown
	BonusSimpleWords                  // temporary 3-letter word pool
)

// String returns the wire name used in notifications and JSON.
func (k BonusKind) String() string {
	switch k {
	case BonusScore:
		return "score"
	case BonusTime:
		return "time"
	case BonusSimpleWords:
		return "simple_words"
	default:
		return "none"
	}
}

// MarshalText lets BonusKind appear as its wire name in JSON.
func (k BonusKind) MarshalText() ([]byte, error) { return []byte(k.String()), nil }

// Rand yields uniform integers in [0, n). *rand.Rand from math/rand/v2
// satisfies it; tests inject scripted sequences.
type Rand interface {
	IntN(n int) int
}

// NewRand returns a PCG generator seeded from crypto/rand.
func NewRand() *rand.Rand {
	var b [16]byte
	_, _ = crand.Read(b[:])
	return rand.New(rand.NewPCG(
		binary.LittleEndian.Uint64(b[:8]),
		binary.LittleEndian.Uint64(b[8:]),
	))
}

// State is a snapshot of the engine's fields.
type State struct {
	Score       int       `json:"score"`
	Streak      int       `json:"streak"`
	Pending     bool      `json:"bonusPending"`
	Kind        BonusKind `json:"bonusKind"`
	Level       int       `json:"scoreBonusLevel"`
	ChainActive bool      `json:"scoreBonusChainActive"`
}

// Resolution reports what ResolvePending consumed.
type Resolution struct {
	Resolved bool      // false when nothing was pending
	Kind     BonusKind // kind that was consumed
	Granted  int       // score added (Score kind only)
}
