// internal/httpserver/routes_match.go
//
// HTTP routes for timed matches. All require auth and operate only on the
// caller's own match:
//   - POST /match/start   → (re)start the caller's match with a 30 or 60 s countdown
//   - POST /match/submit  → judge one typed word (200 with "error" when the
//     answer counted but no next word was available)
//   - POST /match/stop    → abandon the match without recording a score
//   - GET  /match/{id}    → snapshot
//   - GET  /match/{id}/ws → live event stream (websocket)
//
// Each player owns at most one live match; starting again reuses it so an
// open event stream keeps receiving.

package httpserver

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/rs/zerolog/log"

	"github.com/robalobadob/typing-game/internal/match"
	"github.com/robalobadob/typing-game/internal/notify"
	"github.com/robalobadob/typing-game/internal/store"
	"github.com/robalobadob/typing-game/internal/words"
)

type startReq struct {
	Duration int `json:"duration"` // 30 | 60; 0 selects 30
}

type submitReq struct {
	MatchID string `json:"matchId"`
	Word    string `json:"word"`
}

// submitRes is the judged outcome. Error is set when the answer was counted
// but no next word could be drawn (easy pool empty); the client should
// submit again to draw.
type submitRes struct {
	match.Outcome
	Error string `json:"error,omitempty"`
}

type stopReq struct {
	MatchID string `json:"matchId"`
}

// mountMatchRoutes registers the /match subtree.
func (s *Server) mountMatchRoutes(r chi.Router) {
	r.Use(s.requireAuth())

	// websocket: long-lived, so no timeout and no JSON content type
	r.Get("/{id}/ws", s.handleMatchWS)

	r.Group(func(r chi.Router) {
		r.Use(requestTimeout)
		r.Use(jsonContentType)
		r.Post("/start", s.handleStart)
		r.Post("/submit", s.handleSubmit)
		r.Post("/stop", s.handleStop)
		r.Get("/{id}", s.handleGetMatch)
	})
}

// handleStart creates the caller's match on first use and (re)starts it.
func (s *Server) handleStart(w http.ResponseWriter, r *http.Request) {
	me := currentUser(r)
	var req startReq
	if r.ContentLength != 0 {
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			writeError(w, http.StatusBadRequest, "bad_json")
			return
		}
	}
	preset, err := match.ParsePreset(req.Duration)
	if err != nil {
		writeMatchError(w, err)
		return
	}

	m, err := s.matches.ForPlayer(r.Context(), me.ID)
	if err != nil {
		m = match.New(match.Options{
			PlayerID: me.ID,
			Words:    s.words,
			Rand:     s.rng,
			Clock:    s.clock,
			Timing:   s.timing,
			Notifier: s.hub,
			Recorder: s.recorder,
		})
		if replaced, err := s.matches.Save(r.Context(), m); err != nil {
			writeMatchError(w, err)
			return
		} else if replaced != nil {
			replaced.Stop()
		}
	}

	if err := m.Start(preset); err != nil {
		writeMatchError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, m.Snapshot())
}

// handleSubmit judges one word against the caller's match.
func (s *Server) handleSubmit(w http.ResponseWriter, r *http.Request) {
	var req submitReq
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "bad_json")
		return
	}
	m, ok := s.ownMatch(w, r, req.MatchID)
	if !ok {
		return
	}
	out, err := m.Submit(req.Word)
	switch {
	case err == nil:
		writeJSON(w, http.StatusOK, submitRes{Outcome: out})
	case errors.Is(err, words.ErrNoWord):
		writeJSON(w, http.StatusOK, submitRes{Outcome: out, Error: "no_word_available"})
	default:
		writeMatchError(w, err)
	}
}

// handleStop abandons the match. No score is recorded.
func (s *Server) handleStop(w http.ResponseWriter, r *http.Request) {
	var req stopReq
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "bad_json")
		return
	}
	m, ok := s.ownMatch(w, r, req.MatchID)
	if !ok {
		return
	}
	m.Stop()
	writeJSON(w, http.StatusOK, m.Snapshot())
}

func (s *Server) handleGetMatch(w http.ResponseWriter, r *http.Request) {
	m, ok := s.ownMatch(w, r, chi.URLParam(r, "id"))
	if !ok {
		return
	}
	writeJSON(w, http.StatusOK, m.Snapshot())
}

// handleMatchWS upgrades to a websocket and streams the match's events.
func (s *Server) handleMatchWS(w http.ResponseWriter, r *http.Request) {
	me := currentUser(r)
	m, ok := s.ownMatch(w, r, chi.URLParam(r, "id"))
	if !ok {
		return
	}
	conn, err := s.upgrader.Upgrade(w, r, nil)
	if err != nil {
		log.Warn().Err(err).Str("match", m.ID()).Msg("websocket upgrade")
		return
	}
	log.Debug().Str("match", m.ID()).Str("player", me.ID).Msg("websocket connected")
	notify.NewClient(s.hub, conn, m.ID(), me.ID).Serve()
}

// ownMatch loads id and checks the caller owns it, writing the error
// response otherwise.
func (s *Server) ownMatch(w http.ResponseWriter, r *http.Request, id string) (*match.Match, bool) {
	me := currentUser(r)
	m, err := s.matches.Get(r.Context(), id)
	if err != nil || m.PlayerID() != me.ID {
		writeMatchError(w, store.ErrNotFound)
		return nil, false
	}
	return m, true
}
