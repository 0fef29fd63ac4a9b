// internal/clock/session.go
//
// The three countdowns of one match.
// Responsibilities:
//   - Match countdown: one tick per second, OnMatchEnd at zero.
//   - Bonus-offer countdown: expires an unclaimed offer.
//   - Easy-mode window: ends the 3-letter word period.
//   - Stale firings are dropped by a per-handle generation counter.

package clock

import (
	"sync"
	"time"
)

// Config holds the fixed countdown durations.
type Config struct {
	Tick       time.Duration // match countdown step
	BonusOffer time.Duration // lifetime of an unclaimed bonus offer
	EasyMode   time.Duration // length of the 3-letter word window
}

// DefaultConfig matches the game's shipped timings.
func DefaultConfig() Config {
	return Config{
		Tick:       time.Second,
		BonusOffer: 7 * time.Second,
		EasyMode:   10 * time.Second,
	}
}

// Hooks are invoked with the serializer held. They must not call back
// into anything that acquires it.
type Hooks struct {
	OnTick        func(remaining int)
	OnMatchEnd    func()
	OnBonusExpire func()
	OnEasyExpire  func()
}

// handle is one owned countdown. gen invalidates callbacks that were
// already dispatched when the handle was canceled or re-armed.
type handle struct {
	t   Timer
	gen uint64
}

func (h *handle) cancel() {
	if h.t != nil {
		h.t.Stop()
		h.t = nil
	}
	h.gen++
}

func (h *handle) armed() bool { return h.t != nil }

// SessionClock drives the match countdown, the bonus-offer countdown and
// the easy-mode countdown of one match.
//
// Methods are not locked: callers invoke them while holding the same
// sync.Locker passed to NewSessionClock. Timer callbacks acquire that lock
// before touching state, so player actions and expirations never interleave.
type SessionClock struct {
	clk   Clock
	mu    sync.Locker
	cfg   Config
	hooks Hooks

	remaining int
	running   bool

	match handle
	bonus handle
	easy  handle
}

// NewSessionClock builds an idle SessionClock.
func NewSessionClock(clk Clock, mu sync.Locker, cfg Config, hooks Hooks) *SessionClock {
	if clk == nil {
		clk = Real()
	}
	return &SessionClock{clk: clk, mu: mu, cfg: cfg, hooks: hooks}
}

// schedule (re-)arms h; any previous instance of h is canceled first.
func (s *SessionClock) schedule(h *handle, d time.Duration, fire func()) {
	h.cancel()
	gen := h.gen
	h.t = s.clk.AfterFunc(d, func() {
		s.mu.Lock()
		defer s.mu.Unlock()
		if h.gen != gen || h.t == nil {
			return
		}
		h.t = nil
		fire()
	})
}

// StartMatch cancels every countdown and starts the match countdown at
// seconds remaining.
func (s *SessionClock) StartMatch(seconds int) {
	s.cancelAll()
	s.remaining = seconds
	s.running = true
	s.schedule(&s.match, s.cfg.Tick, s.tick)
}

// StopMatch cancels every countdown without firing OnMatchEnd and clears
// the remaining count. Idempotent.
func (s *SessionClock) StopMatch() {
	s.running = false
	s.remaining = 0
	s.cancelAll()
}

func (s *SessionClock) cancelAll() {
	s.match.cancel()
	s.bonus.cancel()
	s.easy.cancel()
}

func (s *SessionClock) tick() {
	s.remaining--
	if s.remaining < 0 {
		s.remaining = 0
	}
	if s.hooks.OnTick != nil {
		s.hooks.OnTick(s.remaining)
	}
	if s.remaining > 0 {
		s.schedule(&s.match, s.cfg.Tick, s.tick)
		return
	}
	s.running = false
	s.cancelAll()
	if s.hooks.OnMatchEnd != nil {
		s.hooks.OnMatchEnd()
	}
}

// ArmBonusOffer (re)starts the bonus-offer countdown. Only the newest
// offer has a countdown. No-op when the match is not running.
func (s *SessionClock) ArmBonusOffer() {
	if !s.running {
		return
	}
	s.schedule(&s.bonus, s.cfg.BonusOffer, func() {
		if s.hooks.OnBonusExpire != nil {
			s.hooks.OnBonusExpire()
		}
	})
}

// CancelBonusOffer stops the bonus-offer countdown. Idempotent.
func (s *SessionClock) CancelBonusOffer() { s.bonus.cancel() }

// ArmEasyMode (re)starts the easy-mode window; re-arming restarts the
// window rather than extending it. No-op when the match is not running.
func (s *SessionClock) ArmEasyMode() {
	if !s.running {
		return
	}
	s.schedule(&s.easy, s.cfg.EasyMode, func() {
		if s.hooks.OnEasyExpire != nil {
			s.hooks.OnEasyExpire()
		}
	})
}

// CancelEasyMode stops the easy-mode countdown. Idempotent.
func (s *SessionClock) CancelEasyMode() { s.easy.cancel() }

// AddTime raises the remaining count without touching the tick phase.
func (s *SessionClock) AddTime(seconds int) {
	if !s.running {
		return
	}
	s.remaining += seconds
}

func (s *SessionClock) Remaining() int        { return s.remaining }
func (s *SessionClock) Running() bool         { return s.running }
func (s *SessionClock) BonusOfferArmed() bool { return s.bonus.armed() }
func (s *SessionClock) EasyModeArmed() bool   { return s.easy.armed() }
