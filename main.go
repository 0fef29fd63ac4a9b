// main.go
//
// Entry point for the typing-game server.
// Boot order: .env → config → logging → word list → SQLite (+ migrations)
// → optional Redis leaderboard → HTTP server. SIGINT/SIGTERM trigger a
// graceful shutdown.

package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"github.com/robalobadob/typing-game/assets"
	"github.com/robalobadob/typing-game/internal/config"
	"github.com/robalobadob/typing-game/internal/db"
	"github.com/robalobadob/typing-game/internal/httpserver"
	"github.com/robalobadob/typing-game/internal/notify"
	"github.com/robalobadob/typing-game/internal/players"
	"github.com/robalobadob/typing-game/internal/store"
	"github.com/robalobadob/typing-game/internal/words"
)

func main() {
	_ = godotenv.Load()

	cfg, err := config.Load()
	if err != nil {
		log.Fatal().Err(err).Msg("invalid configuration")
	}
	if lvl, err := zerolog.ParseLevel(cfg.LogLevel); err == nil {
		zerolog.SetGlobalLevel(lvl)
	}
	if cfg.LogPretty {
		log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stderr, TimeFormat: time.RFC3339})
	}

	dict, err := words.Load(cfg.WordsFile, nil)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to load word list")
	}
	full, easy := dict.Stats()
	log.Info().Int("words", full).Int("easy", easy).Msg("word list loaded")

	sqlDB, err := db.Open(cfg.DBPath)
	if err != nil {
		log.Fatal().Err(err).Str("path", cfg.DBPath).Msg("open database")
	}
	defer sqlDB.Close()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := db.Migrate(ctx, sqlDB, assets.Migrations()); err != nil {
		log.Fatal().Err(err).Msg("migrate database")
	}
	playerStore := players.NewStore(sqlDB)

	var cache *players.RedisLeaderboard
	if cfg.RedisAddr != "" {
		cache, err = players.NewRedisLeaderboard(cfg.RedisAddr, cfg.RedisPassword, cfg.RedisDB)
		if err != nil {
			log.Warn().Err(err).Str("addr", cfg.RedisAddr).Msg("redis unavailable, leaderboard served from sqlite")
			cache = nil
		} else {
			defer cache.Close()
			if top, err := playerStore.Top(ctx, 50); err == nil {
				if err := cache.Seed(ctx, top); err != nil {
					log.Warn().Err(err).Msg("seed redis leaderboard")
				}
			}
		}
	}

	opts := httpserver.Options{
		Config:  cfg,
		Players: playerStore,
		Matches: store.NewMemoryStore(),
		Hub:     notify.NewHub(0),
		Words:   dict,
	}
	if cache != nil {
		opts.Cache = cache // a nil *RedisLeaderboard would be a non-nil Mirror
	}
	srv := httpserver.New(opts)

	errc := make(chan error, 1)
	go func() {
		log.Info().Str("port", cfg.Port).Msg("starting typing-game server")
		errc <- srv.Start(cfg.Addr())
	}()

	select {
	case err := <-errc:
		if !errors.Is(err, http.ErrServerClosed) {
			log.Fatal().Err(err).Msg("server exited")
		}
	case <-ctx.Done():
		log.Info().Msg("shutting down")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			log.Error().Err(err).Msg("shutdown")
		}
	}
}
