package http

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/zglowawpiorach/backend/internal/domain"
)

type stubCatalog struct {
	products  []domain.Product
	bySlug    map[string]domain.Product
	gotFilter domain.ProductFilter
	err       error
}

func (s *stubCatalog) ListProducts(_ context.Context, filter domain.ProductFilter) ([]domain.Product, error) {
	s.gotFilter = filter
	if s.err != nil {
		return nil, s.err
	}
	return s.products, nil
}

func (s *stubCatalog) GetProduct(_ context.Context, slug string) (domain.Product, error) {
	if s.err != nil {
		return domain.Product{}, s.err
	}
	p, ok := s.bySlug[slug]
	if !ok {
		return domain.Product{}, domain.ErrProductNotFound
	}
	return p, nil
}

func TestHandleProducts_List(t *testing.T) {
	created := time.Date(2025, 5, 1, 10, 0, 0, 0, time.UTC)
	catalog := &stubCatalog{
		products: []domain.Product{
			{ID: "p1", Slug: "feather-ring", Name: "Feather Ring", PriceCents: 12500, Available: 3, CreatedAt: created},
		},
	}

	req := httptest.NewRequest(http.MethodGet, "/api/products/", nil)
	rec := httptest.NewRecorder()
	HandleProducts(catalog)(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want %d", rec.Code, http.StatusOK)
	}

	var resp []productResponse
	if err := json.NewDecoder(rec.Body).Decode(&resp); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if len(resp) != 1 {
		t.Fatalf("len(resp) = %d, want 1", len(resp))
	}
	if resp[0].Slug != "feather-ring" {
		t.Errorf("slug = %q, want %q", resp[0].Slug, "feather-ring")
	}
	if resp[0].Images == nil {
		t.Error("images should encode as an empty array, not null")
	}
}

func TestHandleProducts_StatusFilter(t *testing.T) {
	tests := []struct {
		name       string
		query      string
		wantFilter domain.ProductFilter
	}{
		{"default", "", domain.ProductFilter("")},
		{"sold", "?status=sold", domain.ProductFilterSold},
		{"all", "?status=all", domain.ProductFilterAll},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			catalog := &stubCatalog{}
			req := httptest.NewRequest(http.MethodGet, "/api/products/"+tt.query, nil)
			rec := httptest.NewRecorder()
			HandleProducts(catalog)(rec, req)

			if rec.Code != http.StatusOK {
				t.Fatalf("status = %d, want %d", rec.Code, http.StatusOK)
			}
			if catalog.gotFilter != tt.wantFilter {
				t.Errorf("filter = %q, want %q", catalog.gotFilter, tt.wantFilter)
			}
		})
	}
}

func TestHandleProducts_BySlug(t *testing.T) {
	catalog := &stubCatalog{
		bySlug: map[string]domain.Product{
			"feather-ring": {ID: "p1", Slug: "feather-ring", Name: "Feather Ring"},
		},
	}
	handler := HandleProducts(catalog)

	t.Run("found", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodGet, "/api/products/feather-ring", nil)
		rec := httptest.NewRecorder()
		handler(rec, req)

		if rec.Code != http.StatusOK {
			t.Fatalf("status = %d, want %d", rec.Code, http.StatusOK)
		}
		var resp productResponse
		if err := json.NewDecoder(rec.Body).Decode(&resp); err != nil {
			t.Fatalf("decode response: %v", err)
		}
		if resp.ID != "p1" {
			t.Errorf("id = %q, want %q", resp.ID, "p1")
		}
	})

	t.Run("unknown slug", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodGet, "/api/products/nope", nil)
		rec := httptest.NewRecorder()
		handler(rec, req)

		if rec.Code != http.StatusNotFound {
			t.Fatalf("status = %d, want %d", rec.Code, http.StatusNotFound)
		}
	})

	t.Run("path too deep", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodGet, "/api/products/a/b", nil)
		rec := httptest.NewRecorder()
		handler(rec, req)

		if rec.Code != http.StatusNotFound {
			t.Fatalf("status = %d, want %d", rec.Code, http.StatusNotFound)
		}
	})
}

func TestHandleProducts_Errors(t *testing.T) {
	t.Run("method not allowed", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodPost, "/api/products/", nil)
		rec := httptest.NewRecorder()
		HandleProducts(&stubCatalog{})(rec, req)

		if rec.Code != http.StatusMethodNotAllowed {
			t.Fatalf("status = %d, want %d", rec.Code, http.StatusMethodNotAllowed)
		}
	})

	t.Run("repository failure", func(t *testing.T) {
		catalog := &stubCatalog{err: errors.New("boom")}
		req := httptest.NewRequest(http.MethodGet, "/api/products/", nil)
		rec := httptest.NewRecorder()
		HandleProducts(catalog)(rec, req)

		if rec.Code != http.StatusInternalServerError {
			t.Fatalf("status = %d, want %d", rec.Code, http.StatusInternalServerError)
		}
		var resp errorResponse
		if err := json.NewDecoder(rec.Body).Decode(&resp); err != nil {
			t.Fatalf("decode response: %v", err)
		}
		if resp.Code != codeInternalError {
			t.Errorf("code = %q, want %q", resp.Code, codeInternalError)
		}
	})
}
