package http

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/zglowawpiorach/backend/internal/app"
	"github.com/zglowawpiorach/backend/internal/domain"
)

// ReservationManager is the minimal interface needed by the reservation
// endpoints.
type ReservationManager interface {
	Reserve(ctx context.Context, in app.ReserveInput) (domain.Reservation, error)
	Consume(ctx context.Context, id string) (domain.Reservation, error)
	Cancel(ctx context.Context, id string) (domain.Reservation, error)
	CheckAvailability(ctx context.Context, items []app.AvailabilityItem) (app.AvailabilityReport, error)
}

// ExpiryRunner is the minimal interface needed by the cleanup endpoint.
type ExpiryRunner interface {
	Run(ctx context.Context) (app.CleanupResult, error)
}

// HandleReservations dispatches /api/reservations/ between creation and
// actions on an existing reservation.
func HandleReservations(svc ReservationManager) http.HandlerFunc {
	create := HandleCreateReservation(svc)
	action := HandleReservationAction(svc)
	return func(w http.ResponseWriter, r *http.Request) {
		if strings.Trim(r.URL.Path, "/") == "api/reservations" {
			create(w, r)
			return
		}
		action(w, r)
	}
}

// HandleCreateReservation serves POST /api/reservations/.
func HandleCreateReservation(svc ReservationManager) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost {
			writeError(w, http.StatusMethodNotAllowed, codeMethodNotAllowed, "method not allowed")
			return
		}

		var req createReservationRequest
		dec := json.NewDecoder(r.Body)
		dec.DisallowUnknownFields()
		if err := dec.Decode(&req); err != nil {
			writeError(w, http.StatusBadRequest, codeInvalidRequestBody, "invalid request body")
			return
		}
		if req.ProductID == "" {
			writeError(w, http.StatusBadRequest, codeProductIDRequired, "product_id is required")
			return
		}
		if req.Quantity <= 0 {
			writeError(w, http.StatusBadRequest, codeInvalidQuantity, domain.ErrInvalidQuantity.Error())
			return
		}

		res, err := svc.Reserve(r.Context(), app.ReserveInput{
			ProductID:     req.ProductID,
			Quantity:      req.Quantity,
			CustomerEmail: req.CustomerEmail,
		})
		if err != nil {
			writeReservationError(w, err)
			return
		}

		writeJSON(w, http.StatusCreated, toReservationResponse(res))
	}
}

// HandleReservationAction serves POST /api/reservations/{id}/consume and
// POST /api/reservations/{id}/cancel.
func HandleReservationAction(svc ReservationManager) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost {
			writeError(w, http.StatusMethodNotAllowed, codeMethodNotAllowed, "method not allowed")
			return
		}

		id, action, ok := parseReservationActionPath(r.URL.Path)
		if !ok {
			writeError(w, http.StatusNotFound, codeNotFound, "not found")
			return
		}

		var res domain.Reservation
		var err error
		switch action {
		case "consume":
			res, err = svc.Consume(r.Context(), id)
		case "cancel":
			res, err = svc.Cancel(r.Context(), id)
		default:
			writeError(w, http.StatusNotFound, codeNotFound, "not found")
			return
		}
		if err != nil {
			writeReservationError(w, err)
			return
		}

		writeJSON(w, http.StatusOK, toReservationResponse(res))
	}
}

// HandleCheckAvailability serves POST /api/check-availability/.
func HandleCheckAvailability(svc ReservationManager) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost {
			writeError(w, http.StatusMethodNotAllowed, codeMethodNotAllowed, "method not allowed")
			return
		}

		var req checkAvailabilityRequest
		dec := json.NewDecoder(r.Body)
		dec.DisallowUnknownFields()
		if err := dec.Decode(&req); err != nil {
			writeError(w, http.StatusBadRequest, codeInvalidRequestBody, "invalid request body")
			return
		}
		if len(req.Items) == 0 {
			writeError(w, http.StatusBadRequest, codeInvalidRequestBody, "items are required")
			return
		}

		items := make([]app.AvailabilityItem, 0, len(req.Items))
		for _, item := range req.Items {
			items = append(items, app.AvailabilityItem{
				ProductID: item.ProductID,
				Quantity:  item.Quantity,
			})
		}

		report, err := svc.CheckAvailability(r.Context(), items)
		if err != nil {
			writeError(w, http.StatusInternalServerError, codeInternalError, "internal error")
			return
		}

		resp := availabilityResponse{
			Available:   report.Available,
			Unavailable: make([]unavailableItem, 0, len(report.Unavailable)),
		}
		for _, item := range report.Unavailable {
			resp.Unavailable = append(resp.Unavailable, unavailableItem{
				ProductID: item.ProductID,
				Reason:    item.Reason,
			})
		}
		writeJSON(w, http.StatusOK, resp)
	}
}

// HandleCleanup serves POST /api/cleanup-expired-reservations/. The cron CLI
// is the primary trigger; this endpoint exists for deployments that schedule
// over HTTP instead.
func HandleCleanup(runner ExpiryRunner) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost {
			writeError(w, http.StatusMethodNotAllowed, codeMethodNotAllowed, "method not allowed")
			return
		}

		result, err := runner.Run(r.Context())
		if err != nil {
			writeError(w, http.StatusInternalServerError, codeInternalError, "internal error")
			return
		}

		writeJSON(w, http.StatusOK, cleanupResponse{
			Found:   result.Found,
			Expired: result.Expired,
			Skipped: result.Skipped,
			Failed:  result.Failed,
		})
	}
}

func writeReservationError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, domain.ErrInvalidQuantity):
		writeError(w, http.StatusBadRequest, codeInvalidQuantity, err.Error())
	case errors.Is(err, domain.ErrInvalidID):
		writeError(w, http.StatusBadRequest, codeInvalidID, err.Error())
	case errors.Is(err, domain.ErrProductNotFound):
		writeError(w, http.StatusNotFound, codeProductNotFound, err.Error())
	case errors.Is(err, domain.ErrReservationNotFound):
		writeError(w, http.StatusNotFound, codeReservationNotFound, err.Error())
	case errors.Is(err, domain.ErrInsufficientStock):
		writeError(w, http.StatusConflict, codeInsufficientStock, err.Error())
	case errors.Is(err, domain.ErrReservationNotActive):
		writeError(w, http.StatusConflict, codeReservationNotActive, err.Error())
	default:
		writeError(w, http.StatusInternalServerError, codeInternalError, "internal error")
	}
}

func parseReservationActionPath(path string) (id, action string, ok bool) {
	parts := strings.Split(strings.Trim(path, "/"), "/")
	if len(parts) != 4 || parts[0] != "api" || parts[1] != "reservations" {
		return "", "", false
	}
	if parts[2] == "" || parts[3] == "" {
		return "", "", false
	}
	return parts[2], parts[3], true
}

type createReservationRequest struct {
	ProductID     string `json:"product_id"`
	Quantity      int    `json:"quantity"`
	CustomerEmail string `json:"customer_email"`
}

type checkAvailabilityRequest struct {
	Items []availabilityRequestItem `json:"items"`
}

type availabilityRequestItem struct {
	ProductID string `json:"product_id"`
	Quantity  int    `json:"quantity"`
}

type availabilityResponse struct {
	Available   []string          `json:"available"`
	Unavailable []unavailableItem `json:"unavailable"`
}

type unavailableItem struct {
	ProductID string `json:"product_id"`
	Reason    string `json:"reason"`
}

type reservationResponse struct {
	ID         string     `json:"id"`
	ProductID  string     `json:"product_id"`
	Quantity   int        `json:"quantity"`
	Status     string     `json:"status"`
	CreatedAt  time.Time  `json:"created_at"`
	ExpiresAt  time.Time  `json:"expires_at"`
	ConsumedAt *time.Time `json:"consumed_at,omitempty"`
}

func toReservationResponse(res domain.Reservation) reservationResponse {
	return reservationResponse{
		ID:         res.ID,
		ProductID:  res.ProductID,
		Quantity:   res.Quantity,
		Status:     string(res.Status),
		CreatedAt:  res.CreatedAt,
		ExpiresAt:  res.ExpiresAt,
		ConsumedAt: res.ConsumedAt,
	}
}

type cleanupResponse struct {
	Found   int `json:"found"`
	Expired int `json:"expired"`
	Skipped int `json:"skipped"`
	Failed  int `json:"failed"`
}
