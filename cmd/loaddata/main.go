package main

import (
	"context"
	"flag"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/Clark-Hu/foodgram/internal/config"
	"github.com/Clark-Hu/foodgram/internal/fixtures"
	"github.com/Clark-Hu/foodgram/internal/logging"
	"github.com/Clark-Hu/foodgram/internal/repository"
	"github.com/Clark-Hu/foodgram/internal/store"
)

func main() {
	var (
		kindFlag = flag.String("kind", "", "fixture kind: tags or ingredients (default: inferred from file name)")
		migrate  = flag.Bool("migrate", false, "apply schema migrations before loading")
	)
	flag.Parse()

	logger := logging.New(logging.Config{Format: "console"})
	if flag.NArg() != 1 {
		logger.Fatal().Msg("usage: loaddata [-kind tags|ingredients] [-migrate] <file.json>")
	}
	path := flag.Arg(0)

	kind := fixtures.Kind(*kindFlag)
	if kind == "" {
		inferred, err := fixtures.KindFromFilename(path)
		if err != nil {
			logger.Fatal().Err(err).Msg("resolve fixture kind")
		}
		kind = inferred
	}

	cfg, err := config.Load()
	if err != nil {
		logger.Fatal().Err(err).Msg("config error")
	}
	logger = logging.New(logging.Config{Level: cfg.LogLevel, Format: "console"})

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if *migrate {
		if err := store.Migrate(cfg.DBURL, logger); err != nil {
			logger.Fatal().Err(err).Msg("migrate database")
		}
	}

	file, err := os.Open(path)
	if err != nil {
		logger.Fatal().Err(err).Str("file", path).Msg("open fixture file")
	}
	defer file.Close()

	st, err := store.New(ctx, cfg.DBURL, store.Options{
		MaxConns:               2,
		ConnTimeout:            time.Duration(cfg.DBConnTimeoutSecs) * time.Second,
		StatementCacheCapacity: cfg.DBStatementCache,
		Logger:                 logger,
	})
	if err != nil {
		logger.Fatal().Err(err).Msg("connect database")
	}
	defer st.Close()

	catalog := repository.NewCatalog(repository.New(st))
	if _, err := fixtures.Load(ctx, kind, file, catalog, logger); err != nil {
		logger.Error().Err(err).Str("file", path).Msg("load fixtures")
		st.Close()
		os.Exit(1)
	}
}
