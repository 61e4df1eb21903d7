package main

import (
	"context"
	"errors"
	"net/http"
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
	transporthttp "github.com/zglowawpiorach/backend/internal/transport/http"
	"github.com/zglowawpiorach/backend/migrations"
)

const shutdownTimeout = 10 * time.Second

func main() {
	logger := zerolog.New(zerolog.ConsoleWriter{Out: os.Stderr}).
		With().Timestamp().Str("service", "api").Logger()

	config.LoadEnvFile(logger)
	cfg := config.Load()

	startupCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	pool, err := pgxpool.New(startupCtx, cfg.DatabaseURL)
	if err != nil {
		logger.Fatal().Err(err).Msg("connect to db")
	}
	defer pool.Close()

	if err := pool.Ping(startupCtx); err != nil {
		logger.Fatal().Err(err).Msg("db ping")
	}
	if err := migrations.Apply(startupCtx, pool); err != nil {
		logger.Fatal().Err(err).Msg("apply migrations")
	}

	catalogCache := cache.New(cfg.RedisAddr, cfg.RedisPassword, cfg.RedisKeyPrefix, cfg.CacheTTL, logger)
	defer func() { _ = catalogCache.Close() }()

	publisher := events.NewPublisher(cfg.KafkaBrokers, cfg.KafkaTopic, logger)
	defer func() { _ = publisher.Close() }()

	reservationRepo := postgres.NewReservationRepository(pool)
	catalogRepo := postgres.NewCatalogRepository(pool)

	var resOpts []app.ReservationServiceOption
	resOpts = append(resOpts, app.WithReservationTTL(cfg.ReservationTTL))
	var cleanerOpts []app.CleanerOption
	var catalogOpts []app.CatalogServiceOption
	if catalogCache != nil {
		resOpts = append(resOpts, app.WithCacheInvalidator(catalogCache))
		cleanerOpts = append(cleanerOpts, app.WithCleanerCacheInvalidator(catalogCache))
		catalogOpts = append(catalogOpts, app.WithCatalogCache(catalogCache))
	}
	if publisher != nil {
		resOpts = append(resOpts, app.WithPublisher(publisher))
		cleanerOpts = append(cleanerOpts, app.WithCleanerPublisher(publisher))
	}

	reservationSvc := app.NewReservationService(reservationRepo, clock.NewSystem(), logger, resOpts...)
	cleaner := app.NewCleaner(reservationRepo, clock.NewSystem(), logger, cleanerOpts...)
	catalogSvc := app.NewCatalogService(catalogRepo, logger, catalogOpts...)

	mux := http.NewServeMux()
	mux.HandleFunc("/health", transporthttp.HealthHandler)
	mux.Handle("/api/products", transporthttp.HandleProducts(catalogSvc))
	mux.Handle("/api/products/", transporthttp.HandleProducts(catalogSvc))
	mux.Handle("/api/events", transporthttp.HandleEvents(catalogSvc))
	mux.Handle("/api/events/", transporthttp.HandleEvents(catalogSvc))
	mux.Handle("/api/images", transporthttp.HandleImages(catalogSvc))
	mux.Handle("/api/images/", transporthttp.HandleImages(catalogSvc))
	mux.Handle("/api/reservations", transporthttp.HandleReservations(reservationSvc))
	mux.Handle("/api/reservations/", transporthttp.HandleReservations(reservationSvc))
	mux.Handle("/api/check-availability", transporthttp.HandleCheckAvailability(reservationSvc))
	mux.Handle("/api/check-availability/", transporthttp.HandleCheckAvailability(reservationSvc))
	mux.Handle("/api/cleanup-expired-reservations", transporthttp.HandleCleanup(cleaner))
	mux.Handle("/api/cleanup-expired-reservations/", transporthttp.HandleCleanup(cleaner))
	mux.Handle("/", transporthttp.NotFoundHandler())

	handler := transporthttp.RequestLogger(transporthttp.CORS(cfg.CORSOrigins, mux), logger)

	server := &http.Server{
		Addr:    ":" + cfg.Port,
		Handler: handler,
	}

	logger.Info().Str("port", cfg.Port).Msg("api listening")

	srvErr := make(chan error, 1)
	go func() {
		srvErr <- server.ListenAndServe()
	}()

	stopCtx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	select {
	case err := <-srvErr:
		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error().Err(err).Msg("server error")
		}
	case <-stopCtx.Done():
		logger.Info().Msg("shutdown signal received, stopping server")
	}

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer shutdownCancel()
	if err := server.Shutdown(shutdownCtx); err != nil && !errors.Is(err, http.ErrServerClosed) {
		logger.Error().Err(err).Msg("server shutdown error")
	}
	logger.Info().Msg("server stopped")
}
