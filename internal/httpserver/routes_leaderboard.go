// internal/httpserver/routes_leaderboard.go
//
// Score read models and the match recorder.
// Responsibilities:
//   - GET /leaderboard: top N players, served from the Redis mirror when
//     configured and falling back to SQLite.
//   - GET /players/me/matches: the caller's recent runs.
//   - scoreRecorder: persist each finished run and push the new best to
//     the mirror.

package httpserver

import (
	"context"
	"net/http"
	"strconv"

	"github.com/rs/zerolog/log"

	"github.com/robalobadob/typing-game/internal/match"
	"github.com/robalobadob/typing-game/internal/players"
)

// handleLeaderboard serves GET /leaderboard?n=3 (max 50). Sources are tried
// in order: the Redis mirror when configured, then SQLite.
func (s *Server) handleLeaderboard(w http.ResponseWriter, r *http.Request) {
	n := s.cfg.LeaderboardSize
	if n <= 0 {
		n = 3
	}
	if q := r.URL.Query().Get("n"); q != "" {
		v, err := strconv.Atoi(q)
		if err != nil || v <= 0 {
			writeError(w, http.StatusBadRequest, "n must be a positive integer")
			return
		}
		n = min(v, maxLeaderboard)
	}

	var err error
	for _, b := range s.boards {
		var top []players.Entry
		if top, err = b.Top(r.Context(), n); err == nil {
			writeJSON(w, http.StatusOK, top)
			return
		}
		log.Warn().Err(err).Msgf("leaderboard source %T failed", b)
	}
	log.Error().Err(err).Msg("leaderboard")
	writeError(w, http.StatusInternalServerError, "db_error")
}

// handleHistory serves GET /players/me/matches: the caller's recent scores.
func (s *Server) handleHistory(w http.ResponseWriter, r *http.Request) {
	me := currentUser(r)
	rows, err := s.players.History(r.Context(), me.ID, 50)
	if err != nil {
		log.Error().Err(err).Str("player", me.ID).Msg("history")
		writeError(w, http.StatusInternalServerError, "db_error")
		return
	}
	writeJSON(w, http.StatusOK, rows)
}

// scoreRecorder persists finished matches and mirrors the new best into
// the Redis leaderboard when one is configured.
type scoreRecorder struct {
	players *players.Store
	cache   players.Mirror
}

func (rec scoreRecorder) RecordMatch(ctx context.Context, res match.Result) (int, error) {
	p, err := rec.players.RecordMatch(ctx, players.MatchRecord{
		RunID:      res.RunID,
		MatchID:    res.MatchID,
		PlayerID:   res.PlayerID,
		Duration:   res.Duration,
		Score:      res.Score,
		FinishedAt: res.FinishedAt,
	})
	if err != nil {
		return 0, err
	}
	if rec.cache != nil {
		if err := rec.cache.Set(ctx, p.Username, p.BestScore); err != nil {
			log.Warn().Err(err).Str("player", p.ID).Msg("redis leaderboard update")
		}
	}
	log.Info().Str("player", p.ID).Int("score", res.Score).Int("best", p.BestScore).Msg("score recorded")
	return p.BestScore, nil
}
