package domain

import "time"

// ProductFilter selects which slice of the catalog a product listing returns.
type ProductFilter string

const (
	ProductFilterActive ProductFilter = "active"
	ProductFilterSold   ProductFilter = "sold"
	ProductFilterAll    ProductFilter = "all"
)

// Product is a sellable catalog item. Available counts inventory that is
// neither reserved nor sold; active reservations decrement it and releases
// (expiry, cancellation) add it back.
type Product struct {
	ID          string
	Slug        string
	Name        string
	Description string
	PriceCents  int64
	Available   int
	Featured    bool
	CreatedAt   time.Time
	Images      []Image
}
