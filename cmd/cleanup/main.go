// Command cleanup expires overdue reservations and releases their stock.
// It is meant to run under cron at a fixed interval (for example every five
// minutes); exit code 0 means the run completed, including the case of no
// expired reservations, and a nonzero exit means storage was unreachable so
// the next tick should retry.
package main

import (
	"context"
	"flag"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/rs/zerolog"
	"github.com/zglowawpiorach/backend/internal/app"
	"github.com/zglowawpiorach/backend/internal/cache"
	"github.com/zglowawpiorach/backend/internal/clock"
	"github.com/zglowawpiorach/backend/internal/config"
	"github.com/zglowawpiorach/backend/internal/events"
	"github.com/zglowawpiorach/backend/internal/storage/postgres"
)

const runTimeout = 2 * time.Minute

func main() {
	dryRun := flag.Bool("dry-run", false, "list reservations that would be expired without changing anything")
	flag.Parse()

	logger := zerolog.New(zerolog.ConsoleWriter{Out: os.Stderr}).
		With().Timestamp().Str("service", "cleanup").Logger()

	if err := run(logger, *dryRun); err != nil {
		logger.Error().Err(err).Msg("cleanup failed")
		os.Exit(1)
	}
}

func run(logger zerolog.Logger, dryRun bool) error {
	config.LoadEnvFile(logger)
	cfg := config.Load()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	ctx, cancel := context.WithTimeout(ctx, runTimeout)
	defer cancel()

	pool, err := pgxpool.New(ctx, cfg.DatabaseURL)
	if err != nil {
		return err
	}
	defer pool.Close()

	if err := pool.Ping(ctx); err != nil {
		return err
	}

	repo := postgres.NewReservationRepository(pool)

	var opts []app.CleanerOption
	publisher := events.NewPublisher(cfg.KafkaBrokers, cfg.KafkaTopic, logger)
	if publisher != nil {
		defer func() { _ = publisher.Close() }()
		opts = append(opts, app.WithCleanerPublisher(publisher))
	}
	catalogCache := cache.New(cfg.RedisAddr, cfg.RedisPassword, cfg.RedisKeyPrefix, cfg.CacheTTL, logger)
	if catalogCache != nil {
		defer func() { _ = catalogCache.Close() }()
		opts = append(opts, app.WithCleanerCacheInvalidator(catalogCache))
	}

	cleaner := app.NewCleaner(repo, clock.NewSystem(), logger, opts...)

	if dryRun {
		expired, err := cleaner.DryRun(ctx)
		if err != nil {
			return err
		}
		for _, res := range expired {
			logger.Info().
				Str("reservation_id", res.ID).
				Str("product_id", res.ProductID).
				Int("quantity", res.Quantity).
				Time("expires_at", res.ExpiresAt).
				Msg("would expire")
		}
		logger.Info().Int("found", len(expired)).Msg("dry run complete")
		return nil
	}

	_, err = cleaner.Run(ctx)
	return err
}
