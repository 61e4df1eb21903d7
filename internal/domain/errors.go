package domain

import "errors"

var (
	ErrProductNotFound      = errors.New("product not found")
	ErrEventNotFound        = errors.New("event not found")
	ErrInsufficientStock    = errors.New("insufficient stock")
	ErrInvalidQuantity      = errors.New("invalid quantity")
	ErrInvalidID            = errors.New("invalid id")
	ErrReservationNotFound  = errors.New("reservation not found")
	ErrReservationNotActive = errors.New("reservation not active")
)
