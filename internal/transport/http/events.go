package http

import (
	"context"
	"net/http"
	"time"

	"github.com/zglowawpiorach/backend/internal/domain"
)

// EventLister is the minimal interface needed by the events endpoint.
type EventLister interface {
	ListEvents(ctx context.Context) ([]domain.Event, error)
}

// HandleEvents serves GET /api/events/ with active portfolio events.
func HandleEvents(svc EventLister) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodGet {
			writeError(w, http.StatusMethodNotAllowed, codeMethodNotAllowed, "method not allowed")
			return
		}

		events, err := svc.ListEvents(r.Context())
		if err != nil {
			writeError(w, http.StatusInternalServerError, codeInternalError, "internal error")
			return
		}

		resp := make([]eventResponse, 0, len(events))
		for _, e := range events {
			resp = append(resp, eventResponse{
				ID:          e.ID,
				Slug:        e.Slug,
				Title:       e.Title,
				Description: e.Description,
				StartsAt:    e.StartsAt,
				EndsAt:      e.EndsAt,
				Images:      toImageResponses(e.Images),
			})
		}
		writeJSON(w, http.StatusOK, resp)
	}
}

type eventResponse struct {
	ID          string          `json:"id"`
	Slug        string          `json:"slug"`
	Title       string          `json:"title"`
	Description string          `json:"description"`
	StartsAt    time.Time       `json:"starts_at"`
	EndsAt      *time.Time      `json:"ends_at,omitempty"`
	Images      []imageResponse `json:"images"`
}
