// internal/httpserver/server.go
//
// HTTP server wiring for the typing-game backend.
// Responsibilities:
//   - Router + middleware (JSON, CORS, timeouts, panic recovery, request IDs).
//   - Public endpoints: "/", "/health", "/debug/words", "/leaderboard".
//   - Auth endpoints: /auth/login (registers on first use), /auth/logout, /auth/me.
//   - Match endpoints (require auth): /match/start, /match/submit,
//     /match/stop, /match/{id}, /match/{id}/ws.
//
// Notes:
//   - CORS is origin-aware and credentials-enabled (so cookies work).
//   - The websocket route sits outside the request timeout group.

package httpserver

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	"github.com/gorilla/websocket"
	"github.com/rs/zerolog/log"

	"github.com/robalobadob/typing-game/internal/clock"
	"github.com/robalobadob/typing-game/internal/config"
	"github.com/robalobadob/typing-game/internal/game"
	"github.com/robalobadob/typing-game/internal/match"
	"github.com/robalobadob/typing-game/internal/notify"
	"github.com/robalobadob/typing-game/internal/players"
	"github.com/robalobadob/typing-game/internal/store"
	"github.com/robalobadob/typing-game/internal/words"
)

const maxLeaderboard = 50

// Options carries the server's dependencies. Players, Matches, Hub and
// Words are required.
type Options struct {
	Config  config.Config
	Players *players.Store
	Cache   players.Mirror // optional leaderboard copy (Redis); leave nil when absent
	Matches store.Store
	Hub     *notify.Hub
	Words   *words.Dictionary

	Clock  clock.Clock  // default: real time
	Timing clock.Config // zero value selects clock.DefaultConfig()
	Rand   game.Rand    // shared by every match when set; default per-match PCG
}

// Server bundles router and dependencies.
type Server struct {
	r        *chi.Mux
	cfg      config.Config
	players  *players.Store
	cache    players.Mirror
	boards   []players.Leaderboard // read order for GET /leaderboard
	matches  store.Store
	hub      *notify.Hub
	words    *words.Dictionary
	clock    clock.Clock
	timing   clock.Config
	rng      game.Rand
	recorder match.Recorder
	upgrader websocket.Upgrader
	http     *http.Server
}

// New constructs a Server, installs middleware, and registers routes.
func New(opts Options) *Server {
	s := &Server{
		r:       chi.NewRouter(),
		cfg:     opts.Config,
		players: opts.Players,
		cache:   opts.Cache,
		matches: opts.Matches,
		hub:     opts.Hub,
		words:   opts.Words,
		clock:   opts.Clock,
		timing:  opts.Timing,
		rng:     opts.Rand,
	}
	s.recorder = scoreRecorder{players: s.players, cache: s.cache}
	if s.cache != nil {
		s.boards = append(s.boards, s.cache)
	}
	s.boards = append(s.boards, s.players)
	s.upgrader = websocket.Upgrader{
		ReadBufferSize:  1024,
		WriteBufferSize: 1024,
		CheckOrigin:     s.checkOrigin,
	}

	// --- middleware ---
	s.r.Use(chimw.RequestID) // add X-Request-ID
	s.r.Use(chimw.RealIP)    // set RemoteAddr from X-Forwarded-For etc.
	s.r.Use(chimw.Recoverer) // recover from panics
	s.r.Use(s.cors)          // credentials-friendly CORS

	// match routes carry their own websocket endpoint (no timeout)
	s.r.Route("/match", s.mountMatchRoutes)

	s.r.Group(func(r chi.Router) {
		r.Use(requestTimeout)  // bound handler time
		r.Use(jsonContentType) // default JSON responses

		// --- diagnostics ---
		r.Get("/", func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(http.StatusOK)
			_, _ = w.Write([]byte(`{"service":"typing-game","endpoints":["/health","/leaderboard","/auth/*","/match/*"]}`))
		})
		r.Get("/health", func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(http.StatusOK)
			_, _ = w.Write([]byte(`{"ok":true}`))
		})
		r.Get("/debug/words", func(w http.ResponseWriter, r *http.Request) {
			full, easy := s.words.Stats()
			_ = json.NewEncoder(w).Encode(map[string]int{"full": full, "easy": easy})
		})

		r.Get("/leaderboard", s.handleLeaderboard)

		s.mountAuthRoutes(r)

		// JSON 404 for easier debugging
		r.NotFound(func(w http.ResponseWriter, r *http.Request) {
			writeError(w, http.StatusNotFound, "not_found")
		})
	})

	return s
}

// Start begins serving HTTP on addr. It returns http.ErrServerClosed after
// Shutdown.
func (s *Server) Start(addr string) error {
	s.http = &http.Server{
		Addr:              addr,
		Handler:           s.r,
		ReadHeaderTimeout: 5 * time.Second,
	}
	return s.http.ListenAndServe()
}

// Shutdown stops accepting connections and waits for in-flight requests.
func (s *Server) Shutdown(ctx context.Context) error {
	if s.http == nil {
		return nil
	}
	return s.http.Shutdown(ctx)
}

// Router exposes the internal router (useful for tests).
func (s *Server) Router() chi.Router { return s.r }

// ----------------------------- middleware ----------------------------------

// requestTimeout bounds ordinary (non-streaming) handlers.
var requestTimeout = chimw.Timeout(10 * time.Second)

// jsonContentType sets a default JSON Content-Type header on all responses.
func jsonContentType(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json; charset=utf-8")
		next.ServeHTTP(w, r)
	})
}

// cors enables credentialed CORS for the configured client origin.
func (s *Server) cors(next http.Handler) http.Handler {
	origin := s.cfg.ClientOrigin
	if origin == "" {
		origin = "http://localhost:5173"
	}
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Vary", "Origin")
		w.Header().Set("Access-Control-Allow-Origin", origin)
		w.Header().Set("Access-Control-Allow-Credentials", "true")
		w.Header().Set("Access-Control-Allow-Methods", "GET,POST,OPTIONS")
		w.Header().Set("Access-Control-Allow-Headers", "Content-Type, Authorization")
		if r.Method == http.MethodOptions {
			w.WriteHeader(http.StatusNoContent)
			return
		}
		next.ServeHTTP(w, r)
	})
}

// checkOrigin admits same-host requests and the configured client origin.
func (s *Server) checkOrigin(r *http.Request) bool {
	o := r.Header.Get("Origin")
	return o == "" || o == s.cfg.ClientOrigin || o == "http://"+r.Host || o == "https://"+r.Host
}

// ------------------------------- helpers -----------------------------------

func writeJSON(w http.ResponseWriter, status int, v any) {
	if w.Header().Get("Content-Type") == "" {
		w.Header().Set("Content-Type", "application/json; charset=utf-8")
	}
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, map[string]string{"error": msg})
}

// writeMatchError maps match/word errors onto status codes.
func writeMatchError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, words.ErrNoWord):
		writeError(w, http.StatusServiceUnavailable, "no_word_available")
	case errors.Is(err, match.ErrNotRunning):
		writeError(w, http.StatusConflict, "match_not_running")
	case errors.Is(err, match.ErrBadDuration):
		writeError(w, http.StatusBadRequest, err.Error())
	case errors.Is(err, store.ErrNotFound):
		writeError(w, http.StatusNotFound, "match_not_found")
	default:
		log.Error().Err(err).Msg("match request")
		writeError(w, http.StatusInternalServerError, "internal_error")
	}
}
