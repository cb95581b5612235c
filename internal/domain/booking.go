package domain

import "time"

type BookingStatus string

const (
	BookingStatusConfirmed BookingStatus = "CONFIRMED"
	BookingStatusCancelled BookingStatus = "CANCELLED"
	BookingStatusRefunded  BookingStatus = "REFUNDED"
)

// Booking is created exactly once per completed payment; PaymentID carries a
// unique constraint and acts as the idempotency key.
type Booking struct {
	ID           int64
	PaymentID    int64
	UserID       int64
	EventID      int64
	PackageID    *int64
	Quantity     int
	TotalCents   int64
	Status       BookingStatus
	OverCapacity bool
	CreatedAt    time.Time
	UpdatedAt    time.Time
}
