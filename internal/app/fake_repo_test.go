package app

import (
	"context"
	"sync"
	"time"

	"github.com/zglowawpiorach/backend/internal/domain"
	"github.com/zglowawpiorach/backend/internal/events"
)

// fakeReservationRepo is an in-memory ReservationRepository. WithTx holds a
// mutex for the duration of the callback (standing in for row locks) and
// restores a snapshot on error (standing in for rollback), so transactional
// behavior is observable from tests.
type fakeReservationRepo struct {
	mu           sync.Mutex
	products     map[string]domain.Product
	reservations map[string]domain.Reservation

	listErr error
	// missingProducts makes AdjustAvailable fail for these ids, simulating a
	// reservation whose product vanished.
	missingProducts map[string]bool
}

type fakeTxKey struct{}

func newFakeReservationRepo(products []domain.Product, reservations []domain.Reservation) *fakeReservationRepo {
	f := &fakeReservationRepo{
		products:        make(map[string]domain.Product),
		reservations:    make(map[string]domain.Reservation),
		missingProducts: make(map[string]bool),
	}
	for _, p := range products {
		f.products[p.ID] = p
	}
	for _, r := range reservations {
		f.reservations[r.ID] = r
	}
	return f
}

func (f *fakeReservationRepo) WithTx(ctx context.Context, fn func(ctx context.Context) error) error {
	if ctx.Value(fakeTxKey{}) != nil {
		return fn(ctx)
	}
	f.mu.Lock()
	defer f.mu.Unlock()

	products := cloneMap(f.products)
	reservations := cloneMap(f.reservations)

	if err := fn(context.WithValue(ctx, fakeTxKey{}, struct{}{})); err != nil {
		f.products = products
		f.reservations = reservations
		return err
	}
	return nil
}

func (f *fakeReservationRepo) lockUnlessTx(ctx context.Context) func() {
	if ctx.Value(fakeTxKey{}) != nil {
		return func() {}
	}
	f.mu.Lock()
	return f.mu.Unlock
}

func (f *fakeReservationRepo) GetProductForUpdate(ctx context.Context, productID string) (domain.Product, error) {
	return f.GetProduct(ctx, productID)
}

func (f *fakeReservationRepo) GetProduct(ctx context.Context, productID string) (domain.Product, error) {
	defer f.lockUnlessTx(ctx)()
	p, ok := f.products[productID]
	if !ok {
		return domain.Product{}, domain.ErrProductNotFound
	}
	return p, nil
}

func (f *fakeReservationRepo) AdjustAvailable(ctx context.Context, productID string, delta int) error {
	defer f.lockUnlessTx(ctx)()
	if f.missingProducts[productID] {
		return domain.ErrProductNotFound
	}
	p, ok := f.products[productID]
	if !ok {
		return domain.ErrProductNotFound
	}
	if p.Available+delta < 0 {
		return domain.ErrInsufficientStock
	}
	p.Available += delta
	f.products[productID] = p
	return nil
}

func (f *fakeReservationRepo) CreateReservation(ctx context.Context, res domain.Reservation) error {
	defer f.lockUnlessTx(ctx)()
	if _, ok := f.products[res.ProductID]; !ok {
		return domain.ErrProductNotFound
	}
	f.reservations[res.ID] = res
	return nil
}

func (f *fakeReservationRepo) GetReservation(ctx context.Context, id string) (domain.Reservation, error) {
	defer f.lockUnlessTx(ctx)()
	res, ok := f.reservations[id]
	if !ok {
		return domain.Reservation{}, domain.ErrReservationNotFound
	}
	return res, nil
}

func (f *fakeReservationRepo) Transition(ctx context.Context, id string, from, to domain.ReservationStatus, at time.Time) (domain.Reservation, error) {
	defer f.lockUnlessTx(ctx)()
	res, ok := f.reservations[id]
	if !ok {
		return domain.Reservation{}, domain.ErrReservationNotFound
	}
	if res.Status != from {
		return domain.Reservation{}, domain.ErrReservationNotActive
	}
	res.Status = to
	if to == domain.ReservationStatusConsumed {
		consumedAt := at
		res.ConsumedAt = &consumedAt
	}
	f.reservations[id] = res
	return res, nil
}

func (f *fakeReservationRepo) ListExpired(ctx context.Context, now time.Time) ([]domain.Reservation, error) {
	defer f.lockUnlessTx(ctx)()
	if f.listErr != nil {
		return nil, f.listErr
	}
	var out []domain.Reservation
	for _, res := range f.reservations {
		if res.Status != domain.ReservationStatusActive {
			continue
		}
		if res.ExpiresAt.After(now) {
			continue
		}
		out = append(out, res)
	}
	return out, nil
}

func (f *fakeReservationRepo) product(id string) domain.Product {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.products[id]
}

func (f *fakeReservationRepo) reservation(id string) domain.Reservation {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.reservations[id]
}

func cloneMap[V any](in map[string]V) map[string]V {
	out := make(map[string]V, len(in))
	for k, v := range in {
		out[k] = v
	}
	return out
}

// recordingPublisher captures lifecycle events emitted by the services.
type recordingPublisher struct {
	mu     sync.Mutex
	events []events.ReservationEvent
	err    error
}

func (p *recordingPublisher) PublishReservationEvent(_ context.Context, evt events.ReservationEvent) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.err != nil {
		return p.err
	}
	p.events = append(p.events, evt)
	return nil
}

func (p *recordingPublisher) published() []events.ReservationEvent {
	p.mu.Lock()
	defer p.mu.Unlock()
	return append([]events.ReservationEvent{}, p.events...)
}
