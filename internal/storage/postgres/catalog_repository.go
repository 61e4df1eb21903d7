package postgres

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/zglowawpiorach/backend/internal/domain"
)

type CatalogRepository struct {
	pool *pgxpool.Pool
}

func NewCatalogRepository(pool *pgxpool.Pool) *CatalogRepository {
	return &CatalogRepository{pool: pool}
}

func (r *CatalogRepository) ListProducts(ctx context.Context, filter domain.ProductFilter) ([]domain.Product, error) {
	query := `
SELECT id, slug, name, description, price_cents, available, featured, created_at
FROM products`
	switch filter {
	case domain.ProductFilterSold:
		query += ` WHERE available = 0`
	case domain.ProductFilterAll:
	default:
		query += ` WHERE available > 0`
	}
	query += ` ORDER BY created_at DESC`

	rows, err := r.pool.Query(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("list products: %w", err)
	}
	defer rows.Close()

	var products []domain.Product
	for rows.Next() {
		var p domain.Product
		if err := rows.Scan(&p.ID, &p.Slug, &p.Name, &p.Description, &p.PriceCents, &p.Available, &p.Featured, &p.CreatedAt); err != nil {
			return nil, fmt.Errorf("scan product: %w", err)
		}
		products = append(products, p)
	}
	if rows.Err() != nil {
		return nil, fmt.Errorf("iterate products: %w", rows.Err())
	}

	if err := r.attachProductImages(ctx, products); err != nil {
		return nil, err
	}
	return products, nil
}

func (r *CatalogRepository) GetProductBySlug(ctx context.Context, slug string) (domain.Product, error) {
	const query = `
SELECT id, slug, name, description, price_cents, available, featured, created_at
FROM products
WHERE slug = $1`

	var p domain.Product
	err := r.pool.QueryRow(ctx, query, slug).
		Scan(&p.ID, &p.Slug, &p.Name, &p.Description, &p.PriceCents, &p.Available, &p.Featured, &p.CreatedAt)
	if err != nil {
		if err == pgx.ErrNoRows {
			return domain.Product{}, domain.ErrProductNotFound
		}
		return domain.Product{}, fmt.Errorf("get product by slug: %w", err)
	}

	products := []domain.Product{p}
	if err := r.attachProductImages(ctx, products); err != nil {
		return domain.Product{}, err
	}
	return products[0], nil
}

func (r *CatalogRepository) ListEvents(ctx context.Context) ([]domain.Event, error) {
	const query = `
SELECT id, slug, title, description, starts_at, ends_at, active
FROM events
WHERE active
ORDER BY starts_at DESC`

	rows, err := r.pool.Query(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("list events: %w", err)
	}
	defer rows.Close()

	var events []domain.Event
	for rows.Next() {
		var e domain.Event
		if err := rows.Scan(&e.ID, &e.Slug, &e.Title, &e.Description, &e.StartsAt, &e.EndsAt, &e.Active); err != nil {
			return nil, fmt.Errorf("scan event: %w", err)
		}
		events = append(events, e)
	}
	if rows.Err() != nil {
		return nil, fmt.Errorf("iterate events: %w", rows.Err())
	}

	if err := r.attachEventImages(ctx, events); err != nil {
		return nil, err
	}
	return events, nil
}

// ListImages returns every image in the gallery, newest first.
func (r *CatalogRepository) ListImages(ctx context.Context) ([]domain.Image, error) {
	const query = `
SELECT id, title, url, tags
FROM images
ORDER BY created_at DESC`
	return r.scanImages(r.pool.Query(ctx, query))
}

// ListImagesByTags returns images carrying at least one of the given tags.
func (r *CatalogRepository) ListImagesByTags(ctx context.Context, tags []string) ([]domain.Image, error) {
	const query = `
SELECT id, title, url, tags
FROM images
WHERE tags && $1::text[]
ORDER BY created_at DESC`
	return r.scanImages(r.pool.Query(ctx, query, tags))
}

func (r *CatalogRepository) scanImages(rows pgx.Rows, err error) ([]domain.Image, error) {
	if err != nil {
		return nil, fmt.Errorf("list images: %w", err)
	}
	defer rows.Close()

	var images []domain.Image
	for rows.Next() {
		var img domain.Image
		if err := rows.Scan(&img.ID, &img.Title, &img.URL, &img.Tags); err != nil {
			return nil, fmt.Errorf("scan image: %w", err)
		}
		images = append(images, img)
	}
	if rows.Err() != nil {
		return nil, fmt.Errorf("iterate images: %w", rows.Err())
	}
	return images, nil
}

func (r *CatalogRepository) attachProductImages(ctx context.Context, products []domain.Product) error {
	if len(products) == 0 {
		return nil
	}
	ids := make([]string, 0, len(products))
	for _, p := range products {
		ids = append(ids, p.ID)
	}

	const query = `
SELECT pi.product_id, i.id, i.title, i.url, i.tags
FROM product_images pi
JOIN images i ON i.id = pi.image_id
WHERE pi.product_id = ANY($1)
ORDER BY pi.product_id, pi.position ASC`

	rows, err := r.pool.Query(ctx, query, ids)
	if err != nil {
		return fmt.Errorf("list product images: %w", err)
	}
	defer rows.Close()

	byProduct := make(map[string][]domain.Image)
	for rows.Next() {
		var productID string
		var img domain.Image
		if err := rows.Scan(&productID, &img.ID, &img.Title, &img.URL, &img.Tags); err != nil {
			return fmt.Errorf("scan product image: %w", err)
		}
		byProduct[productID] = append(byProduct[productID], img)
	}
	if rows.Err() != nil {
		return fmt.Errorf("iterate product images: %w", rows.Err())
	}

	for i := range products {
		products[i].Images = byProduct[products[i].ID]
	}
	return nil
}

func (r *CatalogRepository) attachEventImages(ctx context.Context, events []domain.Event) error {
	if len(events) == 0 {
		return nil
	}
	ids := make([]string, 0, len(events))
	for _, e := range events {
		ids = append(ids, e.ID)
	}

	const query = `
SELECT ei.event_id, i.id, i.title, i.url, i.tags
FROM event_images ei
JOIN images i ON i.id = ei.image_id
WHERE ei.event_id = ANY($1)
ORDER BY ei.event_id, ei.position ASC`

	rows, err := r.pool.Query(ctx, query, ids)
	if err != nil {
		return fmt.Errorf("list event images: %w", err)
	}
	defer rows.Close()

	byEvent := make(map[string][]domain.Image)
	for rows.Next() {
		var eventID string
		var img domain.Image
		if err := rows.Scan(&eventID, &img.ID, &img.Title, &img.URL, &img.Tags); err != nil {
			return fmt.Errorf("scan event image: %w", err)
		}
		byEvent[eventID] = append(byEvent[eventID], img)
	}
	if rows.Err() != nil {
		return fmt.Errorf("iterate event images: %w", rows.Err())
	}

	for i := range events {
		events[i].Images = byEvent[events[i].ID]
	}
	return nil
}
