package domain

import "time"

type ReservationStatus string

const (
	ReservationStatusActive    ReservationStatus = "active"
	ReservationStatusExpired   ReservationStatus = "expired"
	ReservationStatusConsumed  ReservationStatus = "consumed"
	ReservationStatusCancelled ReservationStatus = "cancelled"
)

// Reservation holds product inventory for a limited time. Once a reservation
// leaves the active status it never re-enters it; rows are kept as an audit
// record and are never deleted by the cleanup path.
type Reservation struct {
	ID            string
	ProductID     string
	Quantity      int
	Status        ReservationStatus
	CustomerEmail string
	CreatedAt     time.Time
	ExpiresAt     time.Time
	// ConsumedAt is set when checkout completion consumes the reservation.
	ConsumedAt *time.Time
}
