// internal/config/config.go
//
// Environment-driven configuration.
// Values come from the process environment (optionally seeded from a .env
// file by main) and fall back to development defaults.

package config

import (
	"fmt"
	"time"

	"github.com/caarlos0/env/v11"
)

// Config is the full server configuration.
type Config struct {
	Port      string `env:"PORT" envDefault:"5175"`
	LogLevel  string `env:"LOG_LEVEL" envDefault:"info"`
	LogPretty bool   `env:"LOG_PRETTY" envDefault:"false"`

	DBPath    string `env:"DB_PATH" envDefault:"./data/app.db"`
	WordsFile string `env:"WORDS_FILE"`

	JWTSecret      string `env:"JWT_SECRET" envDefault:"dev_secret_change_me"`
	JWTExpiresDays int    `env:"JWT_EXPIRES_DAYS" envDefault:"14"`
	CookieName     string `env:"COOKIE_NAME" envDefault:"typing_token"`
	ClientOrigin   string `env:"CLIENT_ORIGIN" envDefault:"http://localhost:5173"`
	NodeEnv        string `env:"NODE_ENV" envDefault:"development"`

	RedisAddr     string `env:"REDIS_ADDR"`
	RedisPassword string `env:"REDIS_PASSWORD"`
	RedisDB       int    `env:"REDIS_DB" envDefault:"0"`

	LeaderboardSize int `env:"LEADERBOARD_SIZE" envDefault:"3"`
}

// Load parses the environment into a Config.
func Load() (Config, error) {
	var c Config
	if err := env.Parse(&c); err != nil {
		return Config{}, fmt.Errorf("parse env: %w", err)
	}
	if c.JWTExpiresDays <= 0 {
		c.JWTExpiresDays = 14
	}
	if c.LeaderboardSize <= 0 {
		c.LeaderboardSize = 3
	}
	return c, nil
}

// Production reports whether cookies must be Secure/SameSite=None.
func (c Config) Production() bool { return c.NodeEnv == "production" }

// TokenTTL is the lifetime of a session token.
func (c Config) TokenTTL() time.Duration {
	return time.Duration(c.JWTExpiresDays) * 24 * time.Hour
}

// Addr is the listen address.
func (c Config) Addr() string { return ":" + c.Port }
