package app

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"github.com/zglowawpiorach/backend/internal/clock"
	"github.com/zglowawpiorach/backend/internal/domain"
	"github.com/zglowawpiorach/backend/internal/events"
)

// ReservationRepository is the persistence surface the lifecycle services
// need. Implemented by postgres.ReservationRepository.
type ReservationRepository interface {
	WithTx(ctx context.Context, fn func(ctx context.Context) error) error
	GetProductForUpdate(ctx context.Context, productID string) (domain.Product, error)
	GetProduct(ctx context.Context, productID string) (domain.Product, error)
	AdjustAvailable(ctx context.Context, productID string, delta int) error
	CreateReservation(ctx context.Context, res domain.Reservation) error
	GetReservation(ctx context.Context, id string) (domain.Reservation, error)
	Transition(ctx context.Context, id string, from, to domain.ReservationStatus, at time.Time) (domain.Reservation, error)
	ListExpired(ctx context.Context, now time.Time) ([]domain.Reservation, error)
}

// EventPublisher emits reservation lifecycle events. May be nil-backed; the
// services treat a nil publisher as disabled.
type EventPublisher interface {
	PublishReservationEvent(ctx context.Context, evt events.ReservationEvent) error
}

// ProductCacheInvalidator drops cached product listings after a transition
// changes availability.
type ProductCacheInvalidator interface {
	InvalidateProducts(ctx context.Context)
}

const defaultReservationTTL = 30 * time.Minute

type ReservationService struct {
	repo      ReservationRepository
	clock     clock.Clock
	logger    zerolog.Logger
	ttl       time.Duration
	publisher EventPublisher
	cache     ProductCacheInvalidator
}

type ReservationServiceOption func(*ReservationService)

// WithReservationTTL overrides the default hold window for new reservations.
func WithReservationTTL(d time.Duration) ReservationServiceOption {
	return func(s *ReservationService) {
		if d > 0 {
			s.ttl = d
		}
	}
}

// WithPublisher enables lifecycle event publishing.
func WithPublisher(p EventPublisher) ReservationServiceOption {
	return func(s *ReservationService) {
		s.publisher = p
	}
}

// WithCacheInvalidator wires the catalog cache so availability changes evict
// stale listings.
func WithCacheInvalidator(c ProductCacheInvalidator) ReservationServiceOption {
	return func(s *ReservationService) {
		s.cache = c
	}
}

func NewReservationService(repo ReservationRepository, clk clock.Clock, logger zerolog.Logger, opts ...ReservationServiceOption) *ReservationService {
	svc := &ReservationService{
		repo:   repo,
		clock:  clk,
		logger: logger,
		ttl:    defaultReservationTTL,
	}
	for _, opt := range opts {
		opt(svc)
	}
	return svc
}

type ReserveInput struct {
	ProductID     string
	Quantity      int
	CustomerEmail string
}

// Reserve holds quantity units of a product until the reservation expires,
// is consumed, or is cancelled. The availability check and decrement run
// under a row lock so two customers cannot hold the same unit.
func (s *ReservationService) Reserve(ctx context.Context, in ReserveInput) (domain.Reservation, error) {
	if in.Quantity <= 0 {
		return domain.Reservation{}, domain.ErrInvalidQuantity
	}

	now := s.clock.Now()
	var result domain.Reservation

	err := s.repo.WithTx(ctx, func(txCtx context.Context) error {
		product, err := s.repo.GetProductForUpdate(txCtx, in.ProductID)
		if err != nil {
			return err
		}
		if product.Available < in.Quantity {
			return domain.ErrInsufficientStock
		}
		if err := s.repo.AdjustAvailable(txCtx, in.ProductID, -in.Quantity); err != nil {
			return err
		}

		res := domain.Reservation{
			ID:            uuid.NewString(),
			ProductID:     in.ProductID,
			Quantity:      in.Quantity,
			Status:        domain.ReservationStatusActive,
			CustomerEmail: in.CustomerEmail,
			CreatedAt:     now,
			ExpiresAt:     now.Add(s.ttl),
		}
		if err := s.repo.CreateReservation(txCtx, res); err != nil {
			return err
		}

		result = res
		return nil
	})
	if err != nil {
		return domain.Reservation{}, err
	}

	s.logger.Info().
		Str("reservation_id", result.ID).
		Str("product_id", result.ProductID).
		Int("quantity", result.Quantity).
		Time("expires_at", result.ExpiresAt).
		Msg("reservation created")

	s.afterTransition(ctx, events.TypeReservationCreated, result)
	return result, nil
}

// Consume marks an active reservation as consumed after checkout completes.
// The held stock stays committed; nothing is released.
func (s *ReservationService) Consume(ctx context.Context, id string) (domain.Reservation, error) {
	now := s.clock.Now()
	res, err := s.repo.Transition(ctx, id, domain.ReservationStatusActive, domain.ReservationStatusConsumed, now)
	if err != nil {
		return domain.Reservation{}, err
	}

	s.logger.Info().
		Str("reservation_id", res.ID).
		Str("product_id", res.ProductID).
		Msg("reservation consumed")

	s.afterTransition(ctx, events.TypeReservationConsumed, res)
	return res, nil
}

// Cancel releases an active reservation's stock back to the product. Only
// active reservations can be cancelled; the conditional transition keeps a
// concurrent expiry from double-releasing.
func (s *ReservationService) Cancel(ctx context.Context, id string) (domain.Reservation, error) {
	now := s.clock.Now()
	var result domain.Reservation

	err := s.repo.WithTx(ctx, func(txCtx context.Context) error {
		res, err := s.repo.Transition(txCtx, id, domain.ReservationStatusActive, domain.ReservationStatusCancelled, now)
		if err != nil {
			return err
		}
		if err := s.repo.AdjustAvailable(txCtx, res.ProductID, res.Quantity); err != nil {
			return err
		}
		result = res
		return nil
	})
	if err != nil {
		return domain.Reservation{}, err
	}

	s.logger.Info().
		Str("reservation_id", result.ID).
		Str("product_id", result.ProductID).
		Int("quantity", result.Quantity).
		Msg("reservation cancelled, stock released")

	s.afterTransition(ctx, events.TypeReservationCancelled, result)
	return result, nil
}

type AvailabilityItem struct {
	ProductID string
	Quantity  int
}

type UnavailableItem struct {
	ProductID string
	Reason    string
}

type AvailabilityReport struct {
	Available   []string
	Unavailable []UnavailableItem
}

// CheckAvailability reports, per requested item, whether enough stock exists
// right now. Read-only; it takes no locks and holds nothing.
func (s *ReservationService) CheckAvailability(ctx context.Context, items []AvailabilityItem) (AvailabilityReport, error) {
	report := AvailabilityReport{
		Available:   []string{},
		Unavailable: []UnavailableItem{},
	}

	for _, item := range items {
		if item.Quantity <= 0 {
			report.Unavailable = append(report.Unavailable, UnavailableItem{ProductID: item.ProductID, Reason: "invalid_quantity"})
			continue
		}
		product, err := s.repo.GetProduct(ctx, item.ProductID)
		if err != nil {
			if err == domain.ErrProductNotFound || err == domain.ErrInvalidID {
				report.Unavailable = append(report.Unavailable, UnavailableItem{ProductID: item.ProductID, Reason: "not_found"})
				continue
			}
			return AvailabilityReport{}, err
		}
		if product.Available < item.Quantity {
			report.Unavailable = append(report.Unavailable, UnavailableItem{ProductID: item.ProductID, Reason: "insufficient_stock"})
			continue
		}
		report.Available = append(report.Available, item.ProductID)
	}
	return report, nil
}

// afterTransition handles best-effort side effects once the database change
// is committed. Failures here are logged, never propagated: the transition
// already happened.
func (s *ReservationService) afterTransition(ctx context.Context, eventType string, res domain.Reservation) {
	if s.cache != nil {
		s.cache.InvalidateProducts(ctx)
	}
	if s.publisher != nil {
		evt := events.ReservationEvent{
			Type:          eventType,
			ReservationID: res.ID,
			ProductID:     res.ProductID,
			Quantity:      res.Quantity,
			OccurredAt:    s.clock.Now(),
		}
		if err := s.publisher.PublishReservationEvent(ctx, evt); err != nil {
			s.logger.Warn().Err(err).Str("reservation_id", res.ID).Msg("failed to publish lifecycle event")
		}
	}
}
