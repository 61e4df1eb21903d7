package domain

import "time"

// Event is an exhibition or fair the shop presents at (portfolio content,
// read-only through the API).
type Event struct {
	ID          string
	Slug        string
	Title       string
	Description string
	StartsAt    time.Time
	EndsAt      *time.Time
	Active      bool
	Images      []Image
}
