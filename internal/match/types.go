// internal/match/types.go
//
// Type definitions for a single timed match.
// Defines:
//   - Status / Preset: lifecycle state and the two countdown presets.
//   - Event / Notifier: outward notifications of score, bonus and time changes.
//   - Recorder / Result: persistence of the final score at match end.
//   - Snapshot / Outcome: read-only views returned to callers.

package match

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/robalobadob/typing-game/internal/game"
	"github.com/robalobadob/typing-game/internal/words"
)

// TimeBonusSeconds is added to the countdown when a Time bonus is claimed.
const TimeBonusSeconds = 7

var (
	ErrNotRunning  = errors.New("match: not running")
	ErrBadDuration = errors.New("match: duration must be 30 or 60 seconds")
)

// Status is the lifecycle state of a match.
type Status int

const (
	StatusIdle Status = iota
	StatusRunning
	StatusFinished
)

func (s Status) String() string {
	switch s {
	case StatusRunning:
		return "running"
	case StatusFinished:
		return "finished"
	default:
		return "idle"
	}
}

// MarshalText renders the status name in JSON.
func (s Status) MarshalText() ([]byte, error) { return []byte(s.String()), nil }

// Preset is a countdown length in seconds.
type Preset int

const (
	Preset30 Preset = 30
	Preset60 Preset = 60
)

// ParsePreset validates a requested duration. Zero selects Preset30.
func ParsePreset(seconds int) (Preset, error) {
	switch seconds {
	case 0, 30:
		return Preset30, nil
	case 60:
		return Preset60, nil
	default:
		return 0, fmt.Errorf("%w (got %d)", ErrBadDuration, seconds)
	}
}

// EventType names a notification.
type EventType string

const (
	EventMatchStarted  EventType = "match_started"
	EventWord          EventType = "word"
	EventScore         EventType = "score"
	EventTick          EventType = "tick"
	EventBonusOffered  EventType = "bonus_offered"
	EventBonusResolved EventType = "bonus_resolved"
	EventBonusCleared  EventType = "bonus_cleared"
	EventEasyModeOn    EventType = "easy_mode_on"
	EventEasyModeOff   EventType = "easy_mode_off"
	EventMatchEnded    EventType = "match_ended"
)

// Event is one outward notification. Score, Streak, Remaining and Mode are
// always filled from the state after the transition.
type Event struct {
	Type       EventType      `json:"type"`
	MatchID    string         `json:"matchId"`
	Score      int            `json:"score"`
	Streak     int            `json:"streak"`
	Remaining  int            `json:"remaining"`
	Mode       words.Mode     `json:"mode"`
	Bonus      game.BonusKind `json:"bonus,omitempty"`
	BonusLevel int            `json:"bonusLevel,omitempty"`
	Granted    int            `json:"granted,omitempty"`
	Word       string         `json:"word,omitempty"`
}

// Notifier receives events. Notify runs inside the match's serializer and
// must not block or call back into the match.
type Notifier interface {
	Notify(Event)
}

// NotifierFunc adapts a function to Notifier.
type NotifierFunc func(Event)

func (f NotifierFunc) Notify(e Event) { f(e) }

// Result is the record written when a countdown reaches zero. RunID is
// unique per Start; MatchID is shared by every run of the same Match.
type Result struct {
	RunID      string
	MatchID    string
	PlayerID   string
	Duration   int
	Score      int
	FinishedAt time.Time
}

// Recorder persists a finished match and returns the player's best score.
type Recorder interface {
	RecordMatch(ctx context.Context, r Result) (best int, err error)
}

// Snapshot is a read-only view of a match.
type Snapshot struct {
	ID        string     `json:"id"`
	RunID     string     `json:"runId,omitempty"`
	PlayerID  string     `json:"playerId"`
	Status    Status     `json:"status"`
	Duration  int        `json:"duration"`
	Remaining int        `json:"remaining"`
	Mode      words.Mode `json:"mode"`
	Word      string     `json:"word"`
	Best      int        `json:"best,omitempty"`
	game.State
}

// Outcome describes what one submission did.
type Outcome struct {
	Ignored  bool            `json:"ignored,omitempty"` // empty input, or a word was drawn instead of judging
	Correct  bool            `json:"correct"`
	Resolved game.Resolution `json:"-"`
	Offered  game.BonusKind  `json:"offered,omitempty"`
	Granted  int             `json:"granted,omitempty"`
	State    Snapshot        `json:"state"`
}
