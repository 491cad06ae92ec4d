package main

import (
	"context"
	"errors"
	"io"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/rs/zerolog"

	"github.com/Clark-Hu/foodgram/internal/auth"
	"github.com/Clark-Hu/foodgram/internal/config"
	httpserver "github.com/Clark-Hu/foodgram/internal/http"
	"github.com/Clark-Hu/foodgram/internal/logging"
	"github.com/Clark-Hu/foodgram/internal/repository"
	"github.com/Clark-Hu/foodgram/internal/store"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	cfg, err := config.Load()
	if err != nil {
		bootLogger := logging.New(logging.Config{})
		bootLogger.Fatal().Err(err).Msg("config error")
	}

	logger := logging.New(logging.Config{Level: cfg.LogLevel, Format: cfg.LogFormat})

	if cfg.RunMigrations {
		if err := store.Migrate(cfg.DBURL, logger); err != nil {
			logger.Fatal().Err(err).Msg("migrate database")
		}
	}

	dbCtx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()

	storeOpts := store.Options{
		MaxConns:               int32(cfg.DBMaxConns),
		MinConns:               int32(cfg.DBMinConns),
		MaxConnIdleTime:        time.Duration(cfg.DBMaxIdleSecs) * time.Second,
		MaxConnLifetime:        time.Duration(cfg.DBMaxLifeSecs) * time.Second,
		ConnTimeout:            time.Duration(cfg.DBConnTimeoutSecs) * time.Second,
		StatementCacheCapacity: cfg.DBStatementCache,
		Logger:                 logger,
	}

	st, err := store.New(dbCtx, cfg.DBURL, storeOpts)
	if err != nil {
		logger.Fatal().Err(err).Msg("connect database")
	}
	defer st.Close()

	revoker := newRevoker(ctx, cfg, logger)
	if closer, ok := revoker.(io.Closer); ok {
		defer closer.Close()
	}
	tokens := auth.NewTokenManager(cfg.JWTSecret, cfg.TokenTTL, revoker)

	repo := repository.New(st)
	server := httpserver.New(cfg, st, repo, tokens, logger)

	serverErrCh := make(chan error, 1)
	go func() {
		if err := server.Start(ctx); err != nil && !errors.Is(err, context.Canceled) {
			serverErrCh <- err
			return
		}
		serverErrCh <- nil
	}()

	select {
	case err := <-serverErrCh:
		if err != nil && !errors.Is(err, http.ErrServerClosed) && !errors.Is(err, context.Canceled) {
			logger.Error().Err(err).Msg("server error")
		}
	case <-ctx.Done():
	}

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer shutdownCancel()
	if err := server.Shutdown(shutdownCtx); err != nil && !errors.Is(err, http.ErrServerClosed) {
		logger.Error().Err(err).Msg("graceful shutdown error")
	}
}

// newRevoker uses Redis when REDIS_ADDR is set and falls back to process memory.
func newRevoker(ctx context.Context, cfg config.Config, logger zerolog.Logger) auth.Revoker {
	if cfg.RedisAddr == "" {
		logger.Warn().Msg("REDIS_ADDR not set, token revocations are kept in memory")
		return auth.NewMemoryRevoker()
	}
	revoker, err := auth.NewRedisRevoker(ctx, cfg.RedisAddr)
	if err != nil {
		logger.Fatal().Err(err).Str("addr", cfg.RedisAddr).Msg("connect redis")
	}
	return revoker
}
