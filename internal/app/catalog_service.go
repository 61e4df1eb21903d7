package app

import (
	"context"
	"strings"

	"github.com/rs/zerolog"
	"github.com/zglowawpiorach/backend/internal/cache"
	"github.com/zglowawpiorach/backend/internal/domain"
)

// CatalogRepository is the read-only persistence surface for the storefront.
// Implemented by postgres.CatalogRepository.
type CatalogRepository interface {
	ListProducts(ctx context.Context, filter domain.ProductFilter) ([]domain.Product, error)
	GetProductBySlug(ctx context.Context, slug string) (domain.Product, error)
	ListEvents(ctx context.Context) ([]domain.Event, error)
	ListImages(ctx context.Context) ([]domain.Image, error)
	ListImagesByTags(ctx context.Context, tags []string) ([]domain.Image, error)
}

// CatalogCache holds product listings between requests. May be nil-backed.
type CatalogCache interface {
	GetProducts(ctx context.Context, key string) ([]domain.Product, bool)
	SetProducts(ctx context.Context, key string, products []domain.Product)
}

type CatalogService struct {
	repo   CatalogRepository
	cache  CatalogCache
	logger zerolog.Logger
}

type CatalogServiceOption func(*CatalogService)

func WithCatalogCache(c CatalogCache) CatalogServiceOption {
	return func(s *CatalogService) {
		s.cache = c
	}
}

func NewCatalogService(repo CatalogRepository, logger zerolog.Logger, opts ...CatalogServiceOption) *CatalogService {
	svc := &CatalogService{
		repo:   repo,
		logger: logger,
	}
	for _, opt := range opts {
		opt(svc)
	}
	return svc
}

// ListProducts returns the catalog slice for a status filter. Unknown filter
// values fall back to active, matching the storefront default.
func (s *CatalogService) ListProducts(ctx context.Context, filter domain.ProductFilter) ([]domain.Product, error) {
	switch filter {
	case domain.ProductFilterSold, domain.ProductFilterAll:
	default:
		filter = domain.ProductFilterActive
	}

	key := cacheKeyForFilter(filter)
	if s.cache != nil {
		if products, ok := s.cache.GetProducts(ctx, key); ok {
			return products, nil
		}
	}

	products, err := s.repo.ListProducts(ctx, filter)
	if err != nil {
		return nil, err
	}
	if s.cache != nil {
		s.cache.SetProducts(ctx, key, products)
	}
	return products, nil
}

func (s *CatalogService) GetProduct(ctx context.Context, slug string) (domain.Product, error) {
	if slug == "" {
		return domain.Product{}, domain.ErrProductNotFound
	}
	return s.repo.GetProductBySlug(ctx, slug)
}

func (s *CatalogService) ListEvents(ctx context.Context) ([]domain.Event, error) {
	return s.repo.ListEvents(ctx)
}

// ListImages returns gallery images, optionally filtered to those carrying
// at least one of the given tags. Tags are trimmed and lowercased; an empty
// filter returns the whole gallery.
func (s *CatalogService) ListImages(ctx context.Context, tags []string) ([]domain.Image, error) {
	normalized := make([]string, 0, len(tags))
	for _, tag := range tags {
		tag = strings.ToLower(strings.TrimSpace(tag))
		if tag == "" {
			continue
		}
		normalized = append(normalized, tag)
	}

	if len(normalized) == 0 {
		return s.repo.ListImages(ctx)
	}
	return s.repo.ListImagesByTags(ctx, normalized)
}

func cacheKeyForFilter(filter domain.ProductFilter) string {
	switch filter {
	case domain.ProductFilterSold:
		return cache.KeyProductsSold
	case domain.ProductFilterAll:
		return cache.KeyProductsAll
	default:
		return cache.KeyProductsActive
	}
}
