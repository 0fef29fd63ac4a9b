// internal/notify/hub.go
//
// Fan-out of match events to live subscribers.
// Responsibilities:
//   - Implement match.Notifier: marshal each event once, deliver to every
//     subscriber of that match.
//   - Never block the caller. Notify runs inside a match transition, so a
//     subscriber whose buffer is full simply misses the event.

package notify

import (
	"encoding/json"
	"sync"

	"github.com/rs/zerolog/log"

	"github.com/robalobadob/typing-game/internal/match"
)

const defaultBuffer = 64

type subscriber struct {
	ch   chan []byte
	once sync.Once
}

// Hub routes events by match ID.
type Hub struct {
	mu     sync.RWMutex
	subs   map[string]map[*subscriber]struct{}
	buffer int
}

// NewHub builds an empty hub. buffer <= 0 selects the default per-subscriber
// queue length.
func NewHub(buffer int) *Hub {
	if buffer <= 0 {
		buffer = defaultBuffer
	}
	return &Hub{subs: make(map[string]map[*subscriber]struct{}), buffer: buffer}
}

// Subscribe returns a channel of JSON-encoded events for matchID and a
// cancel func that unsubscribes and closes the channel. Cancel is safe to
// call more than once.
func (h *Hub) Subscribe(matchID string) (<-chan []byte, func()) {
	s := &subscriber{ch: make(chan []byte, h.buffer)}

	h.mu.Lock()
	set, ok := h.subs[matchID]
	if !ok {
		set = make(map[*subscriber]struct{})
		h.subs[matchID] = set
	}
	set[s] = struct{}{}
	h.mu.Unlock()

	cancel := func() {
		s.once.Do(func() {
			h.mu.Lock()
			if set, ok := h.subs[matchID]; ok {
				delete(set, s)
				if len(set) == 0 {
					delete(h.subs, matchID)
				}
			}
			h.mu.Unlock()
			close(s.ch)
		})
	}
	return s.ch, cancel
}

// Subscribers reports how many subscribers matchID has.
func (h *Hub) Subscribers(matchID string) int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.subs[matchID])
}

// Notify implements match.Notifier.
func (h *Hub) Notify(e match.Event) {
	h.mu.RLock()
	defer h.mu.RUnlock()

	set := h.subs[e.MatchID]
	if len(set) == 0 {
		return
	}
	data, err := json.Marshal(e)
	if err != nil {
		log.Error().Err(err).Str("match", e.MatchID).Msg("marshal event")
		return
	}
	for s := range set {
		select {
		case s.ch <- data:
		default:
			log.Debug().Str("match", e.MatchID).Str("event", string(e.Type)).Msg("subscriber full, event dropped")
		}
	}
}
