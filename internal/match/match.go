// internal/match/match.go
//
// One player's timed match.
// Responsibilities:
//   - Judge each submitted word against the current target.
//   - Drive the score engine and the session clock in the required order:
//     resolve a pending bonus first, then count the answer, then (only if
//     nothing was resolved) check for a new offer.
//   - React to countdown expirations: tick, bonus-offer expiry, easy-mode
//     expiry and match end.
//   - Emit every change to the Notifier and record the final score.
//
// Notes:
//   - m.mu is the single serializer. Public methods and timer callbacks both
//     hold it, so no two transitions ever overlap.
//   - Score recording runs on its own goroutine after the match ends.
package match

import (
	"context"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"

	"github.com/robalobadob/typing-game/internal/clock"
	"github.com/robalobadob/typing-game/internal/game"
	"github.com/robalobadob/typing-game/internal/words"
)

const recordTimeout = 5 * time.Second

// Options configures New. Words is required; everything else has a default.
type Options struct {
	ID       string       // default: random UUID
	PlayerID string       // owner, passed to Recorder
	Words    words.Source // target word supplier
	Rand     game.Rand    // bonus draw; default game.NewRand()
	Clock    clock.Clock  // default clock.Real()
	Timing   clock.Config // zero value selects clock.DefaultConfig()
	Notifier Notifier
	Recorder Recorder
}

// Match is safe for concurrent use.
type Match struct {
	mu sync.Mutex

	id       string
	runID    string // new on every Start; keys the recorded result
	playerID string
	engine   *game.Engine
	clock    *clock.SessionClock
	words    words.Source
	notifier Notifier
	recorder Recorder

	status   Status
	mode     words.Mode
	word     string
	duration Preset
	best     int
	done     chan struct{}
}

// New builds an idle match.
func New(opts Options) *Match {
	if opts.ID == "" {
		opts.ID = uuid.NewString()
	}
	if opts.Timing == (clock.Config{}) {
		opts.Timing = clock.DefaultConfig()
	}
	if opts.Notifier == nil {
		opts.Notifier = NotifierFunc(func(Event) {})
	}
	m := &Match{
		id:       opts.ID,
		playerID: opts.PlayerID,
		engine:   game.NewEngine(opts.Rand),
		words:    opts.Words,
		notifier: opts.Notifier,
		recorder: opts.Recorder,
		done:     make(chan struct{}),
	}
	m.clock = clock.NewSessionClock(opts.Clock, &m.mu, opts.Timing, clock.Hooks{
		OnTick:        m.onTick,
		OnMatchEnd:    m.onMatchEnd,
		OnBonusExpire: m.onBonusExpire,
		OnEasyExpire:  m.onEasyExpire,
	})
	return m
}

func (m *Match) ID() string       { return m.id }
func (m *Match) PlayerID() string { return m.playerID }

// Start (re)starts the match from zero. Any running countdowns are
// canceled before the engine is reset.
func (m *Match) Start(p Preset) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.clock.StopMatch()
	m.engine.Reset()
	m.mode = words.ModeNormal
	m.duration = p
	m.best = 0
	m.runID = uuid.NewString()
	m.done = make(chan struct{})

	w, err := m.words.Next(m.mode)
	if err != nil {
		m.status = StatusIdle
		m.word = ""
		return err
	}
	m.word = w
	m.status = StatusRunning
	m.clock.StartMatch(int(p))

	log.Debug().Str("match", m.id).Str("player", m.playerID).Int("duration", int(p)).Msg("match started")
	m.emit(Event{Type: EventMatchStarted})
	m.emit(Event{Type: EventWord, Word: m.word})
	return nil
}

// Stop abandons the match (logout, reset). Countdowns are canceled first
// so no stale callback can touch the reset engine. No score is recorded.
func (m *Match) Stop() {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.clock.StopMatch()
	m.engine.Reset()
	m.mode = words.ModeNormal
	m.word = ""
	m.status = StatusIdle
}

// Submit judges one typed word. Input is trimmed and lowercased; empty
// input is ignored. When the previous draw failed (empty pool) the input
// is not judged and a new word is drawn instead. A non-nil error wrapping
// words.ErrNoWord means the transition happened but no next word exists.
func (m *Match) Submit(typed string) (Outcome, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.status != StatusRunning {
		return Outcome{State: m.snapshot()}, ErrNotRunning
	}
	typed = strings.ToLower(strings.TrimSpace(typed))
	if typed == "" {
		return Outcome{Ignored: true, State: m.snapshot()}, nil
	}
	if m.word == "" {
		err := m.nextWord()
		return Outcome{Ignored: true, State: m.snapshot()}, err
	}

	if typed != m.word {
		m.answerIncorrect()
		return Outcome{State: m.snapshot()}, nil
	}

	out := Outcome{Correct: true}
	err := m.answerCorrect(&out)
	out.State = m.snapshot()
	return out, err
}

func (m *Match) answerCorrect(out *Outcome) error {
	res := m.resolvePendingBonus()
	out.Resolved = res
	out.Granted = res.Granted

	m.engine.RegisterCorrect()
	m.emit(Event{Type: EventScore})
	err := m.nextWord()

	if !res.Resolved {
		if kind, ok := m.engine.MaybeCreateBonus(); ok {
			m.clock.ArmBonusOffer()
			out.Offered = kind
			m.emit(Event{Type: EventBonusOffered, Bonus: kind, BonusLevel: m.engine.ScoreBonusLevel()})
		}
	}
	return err
}

// resolvePendingBonus is the first phase of a correct answer: it consumes a
// pending bonus, applies its effect and stops the offer countdown.
func (m *Match) resolvePendingBonus() game.Resolution {
	res := m.engine.ResolvePending()
	if !res.Resolved {
		return res
	}
	m.clock.CancelBonusOffer()

	switch res.Kind {
	case game.BonusTime:
		m.clock.AddTime(TimeBonusSeconds)
	case game.BonusSimpleWords:
		m.mode = words.ModeEasy
		m.clock.ArmEasyMode()
		m.emit(Event{Type: EventEasyModeOn})
	}
	m.emit(Event{
		Type:       EventBonusResolved,
		Bonus:      res.Kind,
		BonusLevel: m.engine.ScoreBonusLevel(),
		Granted:    res.Granted,
	})
	return res
}

func (m *Match) answerIncorrect() {
	hadPending := m.engine.BonusPending()
	m.engine.RegisterIncorrect()
	m.emit(Event{Type: EventScore})
	if hadPending {
		m.clock.CancelBonusOffer()
		m.emit(Event{Type: EventBonusCleared})
	}
}

// nextWord draws a target from the active pool. On failure the target is
// cleared so no input can match it.
func (m *Match) nextWord() error {
	w, err := m.words.Next(m.mode)
	if err != nil {
		m.word = ""
		log.Warn().Err(err).Str("match", m.id).Str("mode", m.mode.String()).Msg("no word available")
		return err
	}
	m.word = w
	m.emit(Event{Type: EventWord, Word: w})
	return nil
}

// --- clock hooks; called with m.mu held ---

func (m *Match) onTick(int) {
	m.emit(Event{Type: EventTick})
}

func (m *Match) onBonusExpire() {
	m.engine.CancelBonus()
	m.emit(Event{Type: EventBonusCleared})
}

func (m *Match) onEasyExpire() {
	m.mode = words.ModeNormal
	m.emit(Event{Type: EventEasyModeOff})
}

// onMatchEnd runs after the clock has canceled the bonus and easy timers,
// so their expiry hooks never fire; their state is cleared here instead.
func (m *Match) onMatchEnd() {
	m.status = StatusFinished
	m.engine.CancelBonus()
	m.mode = words.ModeNormal
	final := m.engine.Score()
	m.emit(Event{Type: EventMatchEnded})
	log.Info().Str("match", m.id).Str("player", m.playerID).Int("score", final).Msg("match ended")

	go m.record(m.done, Result{
		RunID:      m.runID,
		MatchID:    m.id,
		PlayerID:   m.playerID,
		Duration:   int(m.duration),
		Score:      final,
		FinishedAt: time.Now().UTC(),
	})
}

func (m *Match) record(done chan struct{}, r Result) {
	defer close(done)
	if m.recorder == nil {
		return
	}
	ctx, cancel := context.WithTimeout(context.Background(), recordTimeout)
	defer cancel()

	best, err := m.recorder.RecordMatch(ctx, r)
	if err != nil {
		log.Error().Err(err).Str("match", r.MatchID).Str("run", r.RunID).Str("player", r.PlayerID).Msg("record match")
		return
	}
	m.mu.Lock()
	if m.done == done {
		m.best = best
	}
	m.mu.Unlock()
}

// Done returns a channel closed once the current match's final score has
// been recorded. A stopped match never closes it.
func (m *Match) Done() <-chan struct{} {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.done
}

// Snapshot returns the current state.
func (m *Match) Snapshot() Snapshot {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.snapshot()
}

func (m *Match) snapshot() Snapshot {
	return Snapshot{
		ID:        m.id,
		RunID:     m.runID,
		PlayerID:  m.playerID,
		Status:    m.status,
		Duration:  int(m.duration),
		Remaining: m.clock.Remaining(),
		Mode:      m.mode,
		Word:      m.word,
		Best:      m.best,
		State:     m.engine.Snapshot(),
	}
}

func (m *Match) emit(e Event) {
	e.MatchID = m.id
	e.Score = m.engine.Score()
	e.Streak = m.engine.Streak()
	e.Remaining = m.clock.Remaining()
	e.Mode = m.mode
	m.notifier.Notify(e)
}
