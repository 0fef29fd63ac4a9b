// internal/players/players.go
//
// Player accounts, personal bests and the leaderboard (SQLite).
// Responsibilities:
//   - Login that registers an unknown username on first use.
//   - bcrypt password hashing and verification.
//   - Recording finished matches and raising the personal best.
//   - Top-N leaderboard and per-player match history.

package players

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/mattn/go-sqlite3"
	"golang.org/x/crypto/bcrypt"
)

var (
	ErrMissingCredentials = errors.New("enter username and password")
	ErrWrongPassword      = errors.New("wrong password")
	ErrUsernameTaken      = errors.New("username taken")
	ErrNotFound           = errors.New("player not found")
	ErrInvalidSignup      = errors.New("invalid signup")
)

// Player is one account.
type Player struct {
	ID           string    `json:"id"`
	Username     string    `json:"username"`
	PasswordHash string    `json:"-"`
	BestScore    int       `json:"bestScore"`
	CreatedAt    time.Time `json:"createdAt"`
}

// Entry is one leaderboard row.
type Entry struct {
	Username  string `json:"username"`
	BestScore int    `json:"bestScore"`
}

// MatchRecord is one finished run of a match.
type MatchRecord struct {
	RunID      string    `json:"id"`
	MatchID    string    `json:"matchId"`
	PlayerID   string    `json:"-"`
	Duration   int       `json:"duration"`
	Score      int       `json:"score"`
	FinishedAt time.Time `json:"finishedAt"`
}

// Leaderboard lists the best players. Store and RedisLeaderboard both
// implement it.
type Leaderboard interface {
	Top(ctx context.Context, n int) ([]Entry, error)
}

// Mirror is a leaderboard copy that is told about every new best score.
type Mirror interface {
	Leaderboard
	Set(ctx context.Context, username string, best int) error
}

// Store is the SQLite-backed player repository.
type Store struct {
	db *sql.DB
}

// NewStore wraps an open, migrated database.
func NewStore(db *sql.DB) *Store { return &Store{db: db} }

// Login authenticates username/password. An unknown username is
// registered with the given password and created is true.
func (s *Store) Login(ctx context.Context, username, password string) (p *Player, created bool, err error) {
	username = normalizeUsername(username)
	if username == "" || password == "" {
		return nil, false, ErrMissingCredentials
	}

	p, err = s.findByUsername(ctx, username)
	switch {
	case err == nil:
		if !checkPassword(p.PasswordHash, password) {
			return nil, false, ErrWrongPassword
		}
		return p, false, nil
	case errors.Is(err, ErrNotFound):
		p, err = s.create(ctx, username, password)
		if err != nil {
			return nil, false, err
		}
		return p, true, nil
	default:
		return nil, false, err
	}
}

// create validates input, hashes the password and inserts a new player.
func (s *Store) create(ctx context.Context, username, pw string) (*Player, error) {
	if err := validateSignup(username, pw); err != nil {
		return nil, err
	}
	h, err := bcrypt.GenerateFromPassword([]byte(pw), bcrypt.DefaultCost)
	if err != nil {
		return nil, err
	}
	p := &Player{
		ID:           uuid.NewString(),
		Username:     username,
		PasswordHash: string(h),
		CreatedAt:    time.Now().UTC().Truncate(time.Second),
	}
	_, err = s.db.ExecContext(ctx,
		`INSERT INTO players (id, username, password_hash, best_score, created_at) VALUES (?,?,?,0,?)`,
		p.ID, p.Username, p.PasswordHash, p.CreatedAt.Format(time.RFC3339))
	if err != nil {
		var se sqlite3.Error
		if errors.As(err, &se) && se.ExtendedCode == sqlite3.ErrConstraintUnique {
			return nil, ErrUsernameTaken
		}
		return nil, fmt.Errorf("insert player: %w", err)
	}
	return p, nil
}

// FindByID loads a player or returns ErrNotFound.
func (s *Store) FindByID(ctx context.Context, id string) (*Player, error) {
	row := s.db.QueryRowContext(ctx, `SELECT id, username, password_hash, best_score, created_at
	                                  FROM players WHERE id=?`, id)
	return scanPlayer(row)
}

func (s *Store) findByUsername(ctx context.Context, username string) (*Player, error) {
	row := s.db.QueryRowContext(ctx, `SELECT id, username, password_hash, best_score, created_at
	                                  FROM players WHERE username=?`, username)
	return scanPlayer(row)
}

func scanPlayer(row *sql.Row) (*Player, error) {
	var p Player
	var created string
	if err := row.Scan(&p.ID, &p.Username, &p.PasswordHash, &p.BestScore, &created); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	p.CreatedAt, _ = time.Parse(time.RFC3339, created)
	return &p, nil
}

// RecordMatch stores a finished run and raises the player's best score
// if it was exceeded. A repeated RunID is an error. Returns the player as
// updated.
func (s *Store) RecordMatch(ctx context.Context, r MatchRecord) (*Player, error) {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, err
	}
	defer func() { _ = tx.Rollback() }()

	if _, err := tx.ExecContext(ctx,
		`INSERT INTO matches (id, match_id, player_id, duration, score, finished_at) VALUES (?,?,?,?,?,?)`,
		r.RunID, r.MatchID, r.PlayerID, r.Duration, r.Score, r.FinishedAt.UTC().Format(time.RFC3339)); err != nil {
		return nil, fmt.Errorf("insert match: %w", err)
	}
	if _, err := tx.ExecContext(ctx,
		`UPDATE players SET best_score = ? WHERE id = ? AND best_score < ?`,
		r.Score, r.PlayerID, r.Score); err != nil {
		return nil, fmt.Errorf("update best: %w", err)
	}
	row := tx.QueryRowContext(ctx, `SELECT id, username, password_hash, best_score, created_at
	                                FROM players WHERE id=?`, r.PlayerID)
	p, err := scanPlayer(row)
	if err != nil {
		return nil, err
	}
	if err := tx.Commit(); err != nil {
		return nil, err
	}
	return p, nil
}

// Top returns the n best players, ties broken by earliest registration.
func (s *Store) Top(ctx context.Context, n int) ([]Entry, error) {
	if n <= 0 {
		n = 3
	}
	rows, err := s.db.QueryContext(ctx, `
        SELECT username, best_score
        FROM players
        ORDER BY best_score DESC, created_at ASC
        LIMIT ?`, n)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := make([]Entry, 0, n)
	for rows.Next() {
		var e Entry
		if err := rows.Scan(&e.Username, &e.BestScore); err != nil {
			return nil, err
		}
		out = append(out, e)
	}
	return out, rows.Err()
}

// History returns a player's most recent finished matches.
func (s *Store) History(ctx context.Context, playerID string, limit int) ([]MatchRecord, error) {
	if limit <= 0 {
		limit = 20
	}
	rows, err := s.db.QueryContext(ctx, `
        SELECT id, match_id, player_id, duration, score, finished_at
        FROM matches
        WHERE player_id=?
        ORDER BY finished_at DESC, rowid DESC
        LIMIT ?`, playerID, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := []MatchRecord{}
	for rows.Next() {
		var r MatchRecord
		var finished string
		if err := rows.Scan(&r.RunID, &r.MatchID, &r.PlayerID, &r.Duration, &r.Score, &finished); err != nil {
			return nil, err
		}
		r.FinishedAt, _ = time.Parse(time.RFC3339, finished)
		out = append(out, r)
	}
	return out, rows.Err()
}

func checkPassword(hash, pw string) bool {
	return bcrypt.CompareHashAndPassword([]byte(hash), []byte(pw)) == nil
}

// normalizeUsername trims whitespace.
func normalizeUsername(u string) string {
	return strings.TrimSpace(u)
}

// validateSignup enforces basic username/password rules for new accounts.
func validateSignup(u, p string) error {
	if len(u) < 3 || len(u) > 24 {
		return fmt.Errorf("%w: username must be 3–24 chars", ErrInvalidSignup)
	}
	for _, r := range u {
		if !(r == '_' || r >= 'a' && r <= 'z' || r >= 'A' && r <= 'Z' || r >= '0' && r <= '9') {
			return fmt.Errorf("%w: username must be letters, numbers, underscore only", ErrInvalidSignup)
		}
	}
	if len(p) < 8 || len(p) > 100 {
		return fmt.Errorf("%w: password must be 8–100 chars", ErrInvalidSignup)
	}
	return nil
}
