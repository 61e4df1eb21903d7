package postgres

import (
	"context"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/zglowawpiorach/backend/internal/domain"
)

type ReservationRepository struct {
	pool *pgxpool.Pool
}

func NewReservationRepository(pool *pgxpool.Pool) *ReservationRepository {
	return &ReservationRepository{pool: pool}
}

func (r *ReservationRepository) WithTx(ctx context.Context, fn func(ctx context.Context) error) error {
	return withTx(ctx, r.pool, fn)
}

func (r *ReservationRepository) GetProductForUpdate(ctx context.Context, productID string) (domain.Product, error) {
	const query = `
SELECT id, slug, name, description, price_cents, available, featured, created_at
FROM products
WHERE id = $1
FOR UPDATE`

	var p domain.Product
	err := r.queryRow(ctx, query, productID).
		Scan(&p.ID, &p.Slug, &p.Name, &p.Description, &p.PriceCents, &p.Available, &p.Featured, &p.CreatedAt)
	if err != nil {
		if isInvalidUUID(err) {
			return domain.Product{}, domain.ErrInvalidID
		}
		if err == pgx.ErrNoRows {
			return domain.Product{}, domain.ErrProductNotFound
		}
		return domain.Product{}, fmt.Errorf("get product for update: %w", err)
	}
	return p, nil
}

func (r *ReservationRepository) GetProduct(ctx context.Context, productID string) (domain.Product, error) {
	const query = `
SELECT id, slug, name, description, price_cents, available, featured, created_at
FROM products
WHERE id = $1`

	var p domain.Product
	err := r.queryRow(ctx, query, productID).
		Scan(&p.ID, &p.Slug, &p.Name, &p.Description, &p.PriceCents, &p.Available, &p.Featured, &p.CreatedAt)
	if err != nil {
		if isInvalidUUID(err) {
			return domain.Product{}, domain.ErrInvalidID
		}
		if err == pgx.ErrNoRows {
			return domain.Product{}, domain.ErrProductNotFound
		}
		return domain.Product{}, fmt.Errorf("get product: %w", err)
	}
	return p, nil
}

// AdjustAvailable adds delta to a product's available counter. Negative
// deltas are rejected by the check constraint when they would take the
// counter below zero.
func (r *ReservationRepository) AdjustAvailable(ctx context.Context, productID string, delta int) error {
	const stmt = `UPDATE products SET available = available + $2 WHERE id = $1`

	tag, err := r.exec(ctx, stmt, productID, delta)
	if err != nil {
		if isInvalidUUID(err) {
			return domain.ErrInvalidID
		}
		if isCheckViolation(err) {
			return domain.ErrInsufficientStock
		}
		return fmt.Errorf("adjust available: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return domain.ErrProductNotFound
	}
	return nil
}

func (r *ReservationRepository) CreateReservation(ctx context.Context, res domain.Reservation) error {
	const stmt = `
INSERT INTO reservations (id, product_id, quantity, status, customer_email, created_at, expires_at)
VALUES ($1, $2, $3, $4, $5, $6, $7)`

	_, err := r.exec(ctx, stmt,
		res.ID,
		res.ProductID,
		res.Quantity,
		res.Status,
		res.CustomerEmail,
		res.CreatedAt,
		res.ExpiresAt,
	)
	if err != nil {
		if isInvalidUUID(err) {
			return domain.ErrInvalidID
		}
		if isForeignKeyViolation(err) {
			return domain.ErrProductNotFound
		}
		return fmt.Errorf("create reservation: %w", err)
	}
	return nil
}

func (r *ReservationRepository) GetReservation(ctx context.Context, id string) (domain.Reservation, error) {
	const query = `
SELECT id, product_id, quantity, status, customer_email, created_at, expires_at, consumed_at
FROM reservations
WHERE id = $1`

	res, err := scanReservation(r.queryRow(ctx, query, id))
	if err != nil {
		if isInvalidUUID(err) {
			return domain.Reservation{}, domain.ErrInvalidID
		}
		if err == pgx.ErrNoRows {
			return domain.Reservation{}, domain.ErrReservationNotFound
		}
		return domain.Reservation{}, fmt.Errorf("get reservation: %w", err)
	}
	return res, nil
}

// Transition moves a reservation from one status to another in a single
// conditional update. When the reservation is no longer in the expected
// status (a concurrent run won the race) it returns ErrReservationNotActive;
// unknown ids return ErrReservationNotFound.
func (r *ReservationRepository) Transition(ctx context.Context, id string, from, to domain.ReservationStatus, at time.Time) (domain.Reservation, error) {
	const stmt = `
UPDATE reservations
SET status = $3,
    consumed_at = CASE WHEN $3 = 'consumed' THEN $4 ELSE consumed_at END
WHERE id = $1 AND status = $2
RETURNING id, product_id, quantity, status, customer_email, created_at, expires_at, consumed_at`

	res, err := scanReservation(r.queryRow(ctx, stmt, id, from, to, at))
	if err != nil {
		if isInvalidUUID(err) {
			return domain.Reservation{}, domain.ErrInvalidID
		}
		if err == pgx.ErrNoRows {
			const existsQuery = `SELECT EXISTS (SELECT 1 FROM reservations WHERE id = $1)`
			var exists bool
			if scanErr := r.queryRow(ctx, existsQuery, id).Scan(&exists); scanErr != nil {
				return domain.Reservation{}, fmt.Errorf("check reservation: %w", scanErr)
			}
			if !exists {
				return domain.Reservation{}, domain.ErrReservationNotFound
			}
			return domain.Reservation{}, domain.ErrReservationNotActive
		}
		return domain.Reservation{}, fmt.Errorf("transition reservation: %w", err)
	}
	return res, nil
}

// ListExpired returns active reservations whose expiry is at or before now,
// oldest first.
func (r *ReservationRepository) ListExpired(ctx context.Context, now time.Time) ([]domain.Reservation, error) {
	const query = `
SELECT id, product_id, quantity, status, customer_email, created_at, expires_at, consumed_at
FROM reservations
WHERE status = 'active' AND expires_at <= $1
ORDER BY expires_at ASC`

	rows, err := r.query(ctx, query, now)
	if err != nil {
		return nil, fmt.Errorf("list expired reservations: %w", err)
	}
	defer rows.Close()

	var out []domain.Reservation
	for rows.Next() {
		res, err := scanReservation(rows)
		if err != nil {
			return nil, fmt.Errorf("scan reservation: %w", err)
		}
		out = append(out, res)
	}
	if rows.Err() != nil {
		return nil, fmt.Errorf("iterate reservations: %w", rows.Err())
	}
	return out, nil
}

func scanReservation(row pgx.Row) (domain.Reservation, error) {
	var res domain.Reservation
	var status string
	err := row.Scan(
		&res.ID,
		&res.ProductID,
		&res.Quantity,
		&status,
		&res.CustomerEmail,
		&res.CreatedAt,
		&res.ExpiresAt,
		&res.ConsumedAt,
	)
	if err != nil {
		return domain.Reservation{}, err
	}
	res.Status = domain.ReservationStatus(status)
	return res, nil
}

func (r *ReservationRepository) exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error) {
	if tx := txFromContext(ctx); tx != nil {
		return tx.Exec(ctx, sql, args...)
	}
	return r.pool.Exec(ctx, sql, args...)
}

func (r *ReservationRepository) query(ctx context.Context, sql string, args ...any) (pgx.Rows, error) {
	if tx := txFromContext(ctx); tx != nil {
		return tx.Query(ctx, sql, args...)
	}
	return r.pool.Query(ctx, sql, args...)
}

func (r *ReservationRepository) queryRow(ctx context.Context, sql string, args ...any) pgx.Row {
	if tx := txFromContext(ctx); tx != nil {
		return tx.QueryRow(ctx, sql, args...)
	}
	return r.pool.QueryRow(ctx, sql, args...)
}
