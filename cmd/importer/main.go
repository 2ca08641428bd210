package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/rs/zerolog/log"

	"hotel_search/internal/adapters/feed"
	"hotel_search/internal/adapters/observability"
	"hotel_search/internal/app"
	"hotel_search/internal/shared"
	"hotel_search/internal/storage"
)

func main() {
	cfg, err := shared.Load()
	if err != nil {
		log.Fatal().Err(err).Msg("invalid configuration")
	}
	log.Logger = observability.NewLogger(cfg.AppEnv, cfg.LogLevel)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	log.Info().
		Str("base", cfg.FeedBaseURL).
		Int("workers", cfg.ImportWorkers).
		Str("backend", cfg.StorageBackend).
		Msg("importer starting")

	if cfg.StorageBackend == shared.BackendMemory {
		log.Warn().Msg("importing into the memory backend; hotels are lost when the process exits")
	}

	repo, closeRepo, err := storage.Open(ctx, cfg)
	if err != nil {
		log.Fatal().Err(err).Msg("storage init failed")
	}
	defer closeRepo()

	client, err := feed.New(cfg.FeedBaseURL, cfg.FeedKey, cfg.FeedRPS)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to initialize feed client")
	}

	start := time.Now()
	imp := app.NewImportService(client, app.NewHotelService(repo, nil, 0))
	stats, err := imp.Run(ctx, cfg.ImportWorkers)
	ev := log.Info()
	if err != nil {
		ev = log.Error().Err(err)
	}
	ev.Int("pages", stats.Pages).
		Int64("created", stats.Created).
		Int64("skipped", stats.Skipped).
		Int64("failed", stats.Failed).
		Dur("took", time.Since(start)).
		Msg("import finished")
	if err != nil {
		closeRepo()
		os.Exit(1)
	}
}
