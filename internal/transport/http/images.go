package http

import (
	"context"
	"net/http"
	"strings"

	"github.com/zglowawpiorach/backend/internal/domain"
)

// ImageLister is the minimal interface needed by the gallery endpoint.
type ImageLister interface {
	ListImages(ctx context.Context, tags []string) ([]domain.Image, error)
}

// HandleImages serves GET /api/images/?tag=x,y with gallery images filtered
// by a comma-separated tag list; no tag returns the whole gallery.
func HandleImages(svc ImageLister) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodGet {
			writeError(w, http.StatusMethodNotAllowed, codeMethodNotAllowed, "method not allowed")
			return
		}

		var tags []string
		if raw := r.URL.Query().Get("tag"); raw != "" {
			tags = strings.Split(raw, ",")
		}

		images, err := svc.ListImages(r.Context(), tags)
		if err != nil {
			writeError(w, http.StatusInternalServerError, codeInternalError, "internal error")
			return
		}

		writeJSON(w, http.StatusOK, toImageResponses(images))
	}
}

type imageResponse struct {
	ID    string   `json:"id"`
	Title string   `json:"title"`
	URL   string   `json:"url"`
	Tags  []string `json:"tags"`
}

func toImageResponses(images []domain.Image) []imageResponse {
	resp := make([]imageResponse, 0, len(images))
	for _, img := range images {
		tags := img.Tags
		if tags == nil {
			tags = []string{}
		}
		resp = append(resp, imageResponse{
			ID:    img.ID,
			Title: img.Title,
			URL:   img.URL,
			Tags:  tags,
		})
	}
	return resp
}
