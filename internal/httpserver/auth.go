// internal/httpserver/auth.go
//
// Cookie/JWT authentication for the typing server.
// Responsibilities:
//   - POST /auth/login registers an unknown username on first use, then
//     issues a signed JWT in an HttpOnly cookie.
//   - POST /auth/logout clears the cookie; GET /auth/me reports the caller.
//   - requireAuth accepts a Bearer header or the cookie and stores the
//     caller in the request context.

package httpserver

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/golang-jwt/jwt/v5"
	"github.com/rs/zerolog/log"

	"github.com/robalobadob/typing-game/internal/players"
)

// loginReq is the POST /auth/login payload.
type loginReq struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

// loginRes echoes the account; Created is true when this login registered it.
type loginRes struct {
	ID        string    `json:"id"`
	Username  string    `json:"username"`
	BestScore int       `json:"bestScore"`
	CreatedAt time.Time `json:"createdAt"`
	Created   bool      `json:"created"`
}

// authUser is placed into request context by auth middleware.
type authUser struct {
	ID       string `json:"id"`
	Username string `json:"username"`
}

// ctxUserKey is the context key type for storing authUser.
type ctxUserKey struct{}

func currentUser(r *http.Request) *authUser {
	u, _ := r.Context().Value(ctxUserKey{}).(*authUser)
	return u
}

// mountAuthRoutes registers /auth/*.
func (s *Server) mountAuthRoutes(r chi.Router) {
	r.Post("/auth/login", s.handleLogin)
	r.Post("/auth/logout", s.handleLogout)
	r.With(s.requireAuth()).Get("/auth/me", s.handleMe)
	r.With(s.requireAuth()).Get("/players/me/matches", s.handleHistory)
}

// handleLogin authenticates, registering unknown usernames on first use.
func (s *Server) handleLogin(w http.ResponseWriter, r *http.Request) {
	var body loginReq
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		writeError(w, http.StatusBadRequest, "invalid_json")
		return
	}
	p, created, err := s.players.Login(r.Context(), body.Username, body.Password)
	switch {
	case err == nil:
	case errors.Is(err, players.ErrMissingCredentials), errors.Is(err, players.ErrInvalidSignup):
		writeError(w, http.StatusBadRequest, err.Error())
		return
	case errors.Is(err, players.ErrWrongPassword):
		writeError(w, http.StatusUnauthorized, "Invalid username or password")
		return
	case errors.Is(err, players.ErrUsernameTaken):
		writeError(w, http.StatusConflict, "Username taken")
		return
	default:
		log.Error().Err(err).Msg("login")
		writeError(w, http.StatusInternalServerError, "login_failed")
		return
	}

	tok, exp, err := s.signJWT(p.ID, p.Username)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "sign_failed")
		return
	}
	s.setAuthCookie(w, tok, exp)
	if created {
		log.Info().Str("player", p.ID).Str("username", p.Username).Msg("player registered")
	}
	writeJSON(w, http.StatusOK, loginRes{
		ID:        p.ID,
		Username:  p.Username,
		BestScore: p.BestScore,
		CreatedAt: p.CreatedAt,
		Created:   created,
	})
}

// handleLogout stops the caller's live match (if any) and clears the cookie.
func (s *Server) handleLogout(w http.ResponseWriter, r *http.Request) {
	if u := s.userFromToken(r); u != nil {
		if m, err := s.matches.ForPlayer(r.Context(), u.ID); err == nil {
			m.Stop()
			_ = s.matches.Delete(r.Context(), m.ID())
		}
	}
	s.clearAuthCookie(w)
	writeJSON(w, http.StatusOK, map[string]bool{"ok": true})
}

func (s *Server) handleMe(w http.ResponseWriter, r *http.Request) {
	me := currentUser(r)
	p, err := s.players.FindByID(r.Context(), me.ID)
	if err != nil {
		writeError(w, http.StatusNotFound, "not_found")
		return
	}
	writeJSON(w, http.StatusOK, p)
}

// ------------------------------ JWT & cookies ------------------------------

// signJWT creates an HS256 JWT with id/username and the configured expiry.
func (s *Server) signJWT(id, username string) (string, time.Time, error) {
	now := time.Now()
	exp := now.Add(s.cfg.TokenTTL())
	t := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.MapClaims{
		"id":       id,
		"username": username,
		"exp":      exp.Unix(),
		"iat":      now.Unix(),
	})
	ss, err := t.SignedString([]byte(s.cfg.JWTSecret))
	return ss, exp, err
}

func (s *Server) cookieName() string {
	if s.cfg.CookieName == "" {
		return "typing_token"
	}
	return s.cfg.CookieName
}

// setAuthCookie writes the auth token cookie with appropriate security attributes.
func (s *Server) setAuthCookie(w http.ResponseWriter, token string, exp time.Time) {
	secure := s.cfg.Production()
	sameSite := http.SameSiteLaxMode
	if secure {
		sameSite = http.SameSiteNoneMode // required for third-party contexts when Secure
	}
	http.SetCookie(w, &http.Cookie{
		Name:     s.cookieName(),
		Value:    token,
		Path:     "/",
		HttpOnly: true,
		Secure:   secure,
		SameSite: sameSite,
		Expires:  exp,
	})
}

// clearAuthCookie deletes the auth token cookie.
func (s *Server) clearAuthCookie(w http.ResponseWriter) {
	secure := s.cfg.Production()
	sameSite := http.SameSiteLaxMode
	if secure {
		sameSite = http.SameSiteNoneMode
	}
	http.SetCookie(w, &http.Cookie{
		Name:     s.cookieName(),
		Value:    "",
		Path:     "/",
		HttpOnly: true,
		Secure:   secure,
		SameSite: sameSite,
		MaxAge:   -1,
	})
}

// bearerOrCookie extracts a bearer token from Authorization header or auth cookie.
func (s *Server) bearerOrCookie(r *http.Request) string {
	// Authorization: Bearer <token>
	if a := r.Header.Get("Authorization"); strings.HasPrefix(strings.ToLower(a), "bearer ") {
		return strings.TrimSpace(a[7:])
	}
	if c, err := r.Cookie(s.cookieName()); err == nil {
		return c.Value
	}
	return ""
}

// userFromToken validates the request's token. Returns nil when absent or invalid.
func (s *Server) userFromToken(r *http.Request) *authUser {
	tokenStr := s.bearerOrCookie(r)
	if tokenStr == "" {
		return nil
	}
	claims := jwt.MapClaims{}
	token, err := jwt.ParseWithClaims(tokenStr, claims, func(t *jwt.Token) (interface{}, error) {
		return []byte(s.cfg.JWTSecret), nil
	}, jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}))
	if err != nil || !token.Valid {
		return nil
	}
	id, _ := claims["id"].(string)
	username, _ := claims["username"].(string)
	if id == "" || username == "" {
		return nil
	}
	return &authUser{ID: id, Username: username}
}

// ---------------------------- auth middleware ------------------------------

// requireAuth enforces a valid JWT and injects authUser into request context.
func (s *Server) requireAuth() func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if s.bearerOrCookie(r) == "" {
				writeError(w, http.StatusUnauthorized, "Unauthorized")
				return
			}
			u := s.userFromToken(r)
			if u == nil {
				writeError(w, http.StatusUnauthorized, "Invalid token")
				return
			}
			// Ensure player still exists
			if _, err := s.players.FindByID(r.Context(), u.ID); err != nil {
				writeError(w, http.StatusUnauthorized, "Invalid token")
				return
			}
			ctx := context.WithValue(r.Context(), ctxUserKey{}, u)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}
