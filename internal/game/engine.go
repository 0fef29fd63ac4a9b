// internal/game/engine.go
//
// Score/streak/bonus state machine for a single match.
// Responsibilities:
//   - Track score (never negative) and the consecutive-correct streak.
//   - Offer a bonus on every streak milestone (3, 6, 9, ...) when nothing is
//     pending and no Score chain is running.
//   - Run the Score chain: each resolution pays 2, 4, then 6 and re-arms
//     itself until the third step ends it.
//   - Resolve or cancel pending bonuses.
//
// Notes:
//   - The engine owns no timers and performs no I/O. Callers serialize
//     access; it is not safe for concurrent use on its own.
//   - Randomness is injected via Rand so every draw outcome is testable.
package game

const (
	// StreakInterval is the milestone spacing that makes a bonus eligible.
	StreakInterval = 3
	// MaxChainLevel is the last step of a Score chain.
	MaxChainLevel = 3
)

// chainPayout maps a chain level to its score grant; levels past the
// table pay the last entry.
var chainPayout = [...]int{1: 2, 2: 4, 3: 6}

// Engine holds ScoreState for one match.
type Engine struct {
	rng Rand

	score       int
	streak      int
	pending     bool
	kind        BonusKind
	level       int
	chainActive bool
}

// NewEngine constructs a zeroed engine. A nil rng falls back to NewRand().
func NewEngine(rng Rand) *Engine {
	if rng == nil {
		rng = NewRand()
	}
	return &Engine{rng: rng}
}

// Reset returns every field to its initial value.
func (e *Engine) Reset() {
	e.score, e.streak = 0, 0
	e.CancelBonus()
}

// RegisterCorrect counts one correctly typed word.
func (e *Engine) RegisterCorrect() {
	e.score++
	e.streak++
}

// RegisterIncorrect costs one point (floored at zero), breaks the streak
// and drops any pending bonus or chain.
func (e *Engine) RegisterIncorrect() {
	if e.score > 0 {
		e.score--
	}
	e.streak = 0
	e.CancelBonus()
}

// MaybeCreateBonus offers a bonus when the streak sits on a milestone.
// It must only be called for a correct answer that did not itself resolve
// a pending bonus. Returns the offered kind and true, or BonusNone/false.
func (e *Engine) MaybeCreateBonus() (BonusKind, bool) {
	if e.pending || e.chainActive {
		return BonusNone, false
	}
	if e.streak < StreakInterval || e.streak%StreakInterval != 0 {
		return BonusNone, false
	}

	switch e.rng.IntN(3) {
	case 0:
		e.chainActive = true
		e.level = 1
		e.kind = BonusScore
	case 1:
		e.kind = BonusTime
	default:
		e.kind = BonusSimpleWords
	}
	e.pending = true
	return e.kind, true
}

// ApplyScoreBonus pays out the current chain step and either re-arms the
// next step or, at MaxChainLevel, ends the chain. Returns 0 and changes
// nothing unless a Score bonus is pending.
func (e *Engine) ApplyScoreBonus() int {
	if !e.pending || e.kind != BonusScore {
		return 0
	}

	lvl := e.level
	if lvl < 1 {
		lvl = 1
	}
	if lvl > MaxChainLevel {
		lvl = MaxChainLevel
	}
	extra := chainPayout[lvl]
	e.score += extra
	e.pending = false

	if e.level >= MaxChainLevel {
		e.chainActive = false
		e.kind = BonusNone
		e.level = 0
		return extra
	}
	e.level++
	e.kind = BonusScore
	e.pending = true
	return extra
}

// ResolvePending consumes whatever bonus is pending. Score bonuses pay out
// through ApplyScoreBonus (and may re-arm the chain); Time and SimpleWords
// are cleared and returned so the caller can apply their effect.
// Resolution.Resolved is false when nothing was pending.
func (e *Engine) ResolvePending() Resolution {
	if !e.pending || e.kind == BonusNone {
		return Resolution{}
	}
	kind := e.kind
	if kind == BonusScore {
		return Resolution{Resolved: true, Kind: kind, Granted: e.ApplyScoreBonus()}
	}
	e.CancelBonus()
	return Resolution{Resolved: true, Kind: kind}
}

// CancelBonus clears pending and chain state. Idempotent.
func (e *Engine) CancelBonus() {
	e.pending = false
	e.kind = BonusNone
	e.level = 0
	e.chainActive = false
}

func (e *Engine) Score() int                  { return e.score }
func (e *Engine) Streak() int                 { return e.streak }
func (e *Engine) BonusPending() bool          { return e.pending }
func (e *Engine) BonusKind() BonusKind        { return e.kind }
func (e *Engine) ScoreBonusLevel() int        { return e.level }
func (e *Engine) ScoreBonusChainActive() bool { return e.chainActive }

// Snapshot copies the current state.
func (e *Engine) Snapshot() State {
	return State{
		Score:       e.score,
		Streak:      e.streak,
		Pending:     e.pending,
		Kind:        e.kind,
		Level:       e.level,
		ChainActive: e.chainActive,
	}
}
