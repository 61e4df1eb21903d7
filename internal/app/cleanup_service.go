package app

import (
	"context"

	"github.com/rs/zerolog"
	"github.com/zglowawpiorach/backend/internal/clock"
	"github.com/zglowawpiorach/backend/internal/domain"
	"github.com/zglowawpiorach/backend/internal/events"
)

// Cleaner expires overdue reservations and releases their stock. It is
// stateless and safe to invoke at arbitrary intervals; overlapping runs are
// resolved by the conditional transition in storage, so a reservation's
// stock is released exactly once.
type Cleaner struct {
	repo      ReservationRepository
	clock     clock.Clock
	logger    zerolog.Logger
	publisher EventPublisher
	cache     ProductCacheInvalidator
}

type CleanerOption func(*Cleaner)

func WithCleanerPublisher(p EventPublisher) CleanerOption {
	return func(c *Cleaner) {
		c.publisher = p
	}
}

func WithCleanerCacheInvalidator(cache ProductCacheInvalidator) CleanerOption {
	return func(c *Cleaner) {
		c.cache = cache
	}
}

func NewCleaner(repo ReservationRepository, clk clock.Clock, logger zerolog.Logger, opts ...CleanerOption) *Cleaner {
	c := &Cleaner{
		repo:   repo,
		clock:  clk,
		logger: logger,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// CleanupResult summarizes one cleanup run. Expired is the number of
// reservations this run transitioned; Skipped counts reservations another
// run handled first; Failed counts per-reservation errors left for the next
// cycle.
type CleanupResult struct {
	Found   int
	Expired int
	Skipped int
	Failed  int
}

// Run finds every active reservation whose expiry has passed and, one
// transaction per reservation, marks it expired and returns its quantity to
// the product's available stock. A failure on one reservation does not stop
// the batch. Failing to even list candidates is fatal and propagates to the
// caller.
func (c *Cleaner) Run(ctx context.Context) (CleanupResult, error) {
	now := c.clock.Now()

	expired, err := c.repo.ListExpired(ctx, now)
	if err != nil {
		return CleanupResult{}, err
	}

	result := CleanupResult{Found: len(expired)}
	for _, res := range expired {
		released, err := c.expireOne(ctx, res)
		if err != nil {
			result.Failed++
			c.logger.Error().Err(err).
				Str("reservation_id", res.ID).
				Str("product_id", res.ProductID).
				Msg("failed to expire reservation, leaving for next cycle")
			continue
		}
		if !released {
			result.Skipped++
			continue
		}
		result.Expired++
		c.logger.Info().
			Str("reservation_id", res.ID).
			Str("product_id", res.ProductID).
			Int("quantity", res.Quantity).
			Msg("reservation expired, stock released")

		if c.publisher != nil {
			evt := events.ReservationEvent{
				Type:          events.TypeReservationExpired,
				ReservationID: res.ID,
				ProductID:     res.ProductID,
				Quantity:      res.Quantity,
				OccurredAt:    now,
			}
			if err := c.publisher.PublishReservationEvent(ctx, evt); err != nil {
				c.logger.Warn().Err(err).Str("reservation_id", res.ID).Msg("failed to publish expiry event")
			}
		}
	}

	if result.Expired > 0 && c.cache != nil {
		c.cache.InvalidateProducts(ctx)
	}

	c.logger.Info().
		Int("found", result.Found).
		Int("expired", result.Expired).
		Int("skipped", result.Skipped).
		Int("failed", result.Failed).
		Msg("cleanup run complete")
	return result, nil
}

// DryRun lists the reservations a cleanup run would expire without writing
// anything.
func (c *Cleaner) DryRun(ctx context.Context) ([]domain.Reservation, error) {
	return c.repo.ListExpired(ctx, c.clock.Now())
}

// expireOne transitions a single reservation and releases its stock in one
// transaction. Returns false when a concurrent run already moved the
// reservation out of active; that is not an error.
func (c *Cleaner) expireOne(ctx context.Context, res domain.Reservation) (bool, error) {
	now := c.clock.Now()
	released := false

	err := c.repo.WithTx(ctx, func(txCtx context.Context) error {
		transitioned, err := c.repo.Transition(txCtx, res.ID, domain.ReservationStatusActive, domain.ReservationStatusExpired, now)
		if err != nil {
			return err
		}
		if err := c.repo.AdjustAvailable(txCtx, transitioned.ProductID, transitioned.Quantity); err != nil {
			return err
		}
		released = true
		return nil
	})
	if err != nil {
		// Losing the race to another run means the reservation is already
		// handled, not broken.
		if err == domain.ErrReservationNotActive || err == domain.ErrReservationNotFound {
			return false, nil
		}
		return false, err
	}
	return released, nil
}
