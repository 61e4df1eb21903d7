package http

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"reflect"
	"testing"
	"time"

	"github.com/zglowawpiorach/backend/internal/domain"
)

type stubGallery struct {
	images  []domain.Image
	gotTags []string
}

func (s *stubGallery) ListImages(_ context.Context, tags []string) ([]domain.Image, error) {
	s.gotTags = tags
	return s.images, nil
}

func TestHandleImages(t *testing.T) {
	t.Run("no tag returns everything", func(t *testing.T) {
		gallery := &stubGallery{images: []domain.Image{
			{ID: "i1", Title: "Ring on velvet", URL: "/media/i1.jpg", Tags: []string{"rings"}},
			{ID: "i2", Title: "Workshop bench", URL: "/media/i2.jpg"},
		}}
		req := httptest.NewRequest(http.MethodGet, "/api/images/", nil)
		rec := httptest.NewRecorder()
		HandleImages(gallery)(rec, req)

		if rec.Code != http.StatusOK {
			t.Fatalf("status = %d, want %d", rec.Code, http.StatusOK)
		}
		if gallery.gotTags != nil {
			t.Errorf("tags = %v, want nil", gallery.gotTags)
		}

		var resp []imageResponse
		if err := json.NewDecoder(rec.Body).Decode(&resp); err != nil {
			t.Fatalf("decode response: %v", err)
		}
		if len(resp) != 2 {
			t.Fatalf("len(resp) = %d, want 2", len(resp))
		}
		if resp[1].Tags == nil {
			t.Error("tags should encode as an empty array, not null")
		}
	})

	t.Run("comma separated tags are split", func(t *testing.T) {
		gallery := &stubGallery{}
		req := httptest.NewRequest(http.MethodGet, "/api/images/?tag=rings,feather", nil)
		rec := httptest.NewRecorder()
		HandleImages(gallery)(rec, req)

		if rec.Code != http.StatusOK {
			t.Fatalf("status = %d, want %d", rec.Code, http.StatusOK)
		}
		want := []string{"rings", "feather"}
		if !reflect.DeepEqual(gallery.gotTags, want) {
			t.Errorf("tags = %v, want %v", gallery.gotTags, want)
		}
	})

	t.Run("method not allowed", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodDelete, "/api/images/", nil)
		rec := httptest.NewRecorder()
		HandleImages(&stubGallery{})(rec, req)

		if rec.Code != http.StatusMethodNotAllowed {
			t.Fatalf("status = %d, want %d", rec.Code, http.StatusMethodNotAllowed)
		}
	})
}

type stubEvents struct {
	events []domain.Event
}

func (s *stubEvents) ListEvents(_ context.Context) ([]domain.Event, error) {
	return s.events, nil
}

func TestHandleEvents(t *testing.T) {
	starts := time.Date(2025, 7, 12, 9, 0, 0, 0, time.UTC)
	svc := &stubEvents{events: []domain.Event{
		{ID: "e1", Slug: "summer-fair", Title: "Summer Craft Fair", StartsAt: starts},
	}}

	req := httptest.NewRequest(http.MethodGet, "/api/events/", nil)
	rec := httptest.NewRecorder()
	HandleEvents(svc)(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want %d", rec.Code, http.StatusOK)
	}

	var resp []eventResponse
	if err := json.NewDecoder(rec.Body).Decode(&resp); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if len(resp) != 1 {
		t.Fatalf("len(resp) = %d, want 1", len(resp))
	}
	if resp[0].Slug != "summer-fair" {
		t.Errorf("slug = %q, want %q", resp[0].Slug, "summer-fair")
	}
	if !resp[0].StartsAt.Equal(starts) {
		t.Errorf("starts_at = %v, want %v", resp[0].StartsAt, starts)
	}
}
