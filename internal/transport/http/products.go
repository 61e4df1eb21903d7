package http

import (
	"context"
	"net/http"
	"strings"
	"time"

	"github.com/zglowawpiorach/backend/internal/domain"
)

// ProductCatalog is the minimal interface needed by the product endpoints.
type ProductCatalog interface {
	ListProducts(ctx context.Context, filter domain.ProductFilter) ([]domain.Product, error)
	GetProduct(ctx context.Context, slug string) (domain.Product, error)
}

// HandleProducts serves GET /api/products/ (with an optional ?status= filter)
// and GET /api/products/{slug}.
func HandleProducts(svc ProductCatalog) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodGet {
			writeError(w, http.StatusMethodNotAllowed, codeMethodNotAllowed, "method not allowed")
			return
		}

		slug, ok := parseProductPath(r.URL.Path)
		if !ok {
			writeError(w, http.StatusNotFound, codeNotFound, "not found")
			return
		}

		if slug != "" {
			product, err := svc.GetProduct(r.Context(), slug)
			if err != nil {
				if err == domain.ErrProductNotFound {
					writeError(w, http.StatusNotFound, codeProductNotFound, err.Error())
					return
				}
				writeError(w, http.StatusInternalServerError, codeInternalError, "internal error")
				return
			}
			writeJSON(w, http.StatusOK, toProductResponse(product))
			return
		}

		filter := domain.ProductFilter(r.URL.Query().Get("status"))
		products, err := svc.ListProducts(r.Context(), filter)
		if err != nil {
			writeError(w, http.StatusInternalServerError, codeInternalError, "internal error")
			return
		}

		resp := make([]productResponse, 0, len(products))
		for _, p := range products {
			resp = append(resp, toProductResponse(p))
		}
		writeJSON(w, http.StatusOK, resp)
	}
}

// parseProductPath accepts /api/products/ (empty slug) and
// /api/products/{slug}; anything deeper is not found.
func parseProductPath(path string) (string, bool) {
	parts := strings.Split(strings.Trim(path, "/"), "/")
	if len(parts) < 2 || parts[0] != "api" || parts[1] != "products" {
		return "", false
	}
	switch len(parts) {
	case 2:
		return "", true
	case 3:
		return parts[2], parts[2] != ""
	default:
		return "", false
	}
}

type productResponse struct {
	ID          string          `json:"id"`
	Slug        string          `json:"slug"`
	Name        string          `json:"name"`
	Description string          `json:"description"`
	PriceCents  int64           `json:"price_cents"`
	Available   int             `json:"available"`
	Featured    bool            `json:"featured"`
	CreatedAt   time.Time       `json:"created_at"`
	Images      []imageResponse `json:"images"`
}

func toProductResponse(p domain.Product) productResponse {
	return productResponse{
		ID:          p.ID,
		Slug:        p.Slug,
		Name:        p.Name,
		Description: p.Description,
		PriceCents:  p.PriceCents,
		Available:   p.Available,
		Featured:    p.Featured,
		CreatedAt:   p.CreatedAt,
		Images:      toImageResponses(p.Images),
	}
}
