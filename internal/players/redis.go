// internal/players/redis.go
//
// Redis copy of the leaderboard (sorted set keyed by username).
// Responsibilities:
//   - Connect and verify the server at startup.
//   - Seed the set from SQLite; only ever raise a member's score (ZADD GT).
//   - Serve Top N in descending score order.

package players

import (
	"context"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

// DefaultLeaderboardKey is the sorted set holding best scores.
const DefaultLeaderboardKey = "typing:leaderboard"

// RedisLeaderboard mirrors best scores in a Redis sorted set so the
// leaderboard can be served without touching SQLite.
type RedisLeaderboard struct {
	client *redis.Client
	key    string
}

// NewRedisLeaderboard connects to addr and verifies the connection.
func NewRedisLeaderboard(addr, password string, db int) (*RedisLeaderboard, error) {
	client := redis.NewClient(&redis.Options{
		Addr:     addr,
		Password: password,
		DB:       db,
	})

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := client.Ping(ctx).Err(); err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("failed to connect to Redis: %w", err)
	}
	return &RedisLeaderboard{client: client, key: DefaultLeaderboardKey}, nil
}

// Close releases the connection pool.
func (l *RedisLeaderboard) Close() error {
	if l.client != nil {
		return l.client.Close()
	}
	return nil
}

// Set raises username's score to best; lower values are ignored.
func (l *RedisLeaderboard) Set(ctx context.Context, username string, best int) error {
	return l.client.ZAddGT(ctx, l.key, redis.Z{Score: float64(best), Member: username}).Err()
}

// Seed copies entries (typically from Store.Top) into the set.
func (l *RedisLeaderboard) Seed(ctx context.Context, entries []Entry) error {
	if len(entries) == 0 {
		return nil
	}
	zs := make([]redis.Z, 0, len(entries))
	for _, e := range entries {
		zs = append(zs, redis.Z{Score: float64(e.BestScore), Member: e.Username})
	}
	return l.client.ZAddGT(ctx, l.key, zs...).Err()
}

// Top returns the n highest scores.
func (l *RedisLeaderboard) Top(ctx context.Context, n int) ([]Entry, error) {
	if n <= 0 {
		n = 3
	}
	zs, err := l.client.ZRevRangeWithScores(ctx, l.key, 0, int64(n-1)).Result()
	if err != nil {
		return nil, err
	}
	return entriesFromZ(zs), nil
}

func entriesFromZ(zs []redis.Z) []Entry {
	out := make([]Entry, 0, len(zs))
	for _, z := range zs {
		name, ok := z.Member.(string)
		if !ok {
			name = fmt.Sprint(z.Member)
		}
		out = append(out, Entry{Username: name, BestScore: int(z.Score)})
	}
	return out
}
