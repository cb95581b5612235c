package domain

import "time"

type AttendeeStatus string

const (
	AttendeeStatusPending   AttendeeStatus = "PENDING"
	AttendeeStatusConfirmed AttendeeStatus = "CONFIRMED"
	AttendeeStatusCancelled AttendeeStatus = "CANCELLED"
)

type Event struct {
	ID           int64
	Title        string
	Description  string
	Venue        string
	StartsAt     time.Time
	PriceCents   int64
	MaxAttendees int
	CreatedAt    time.Time
	UpdatedAt    time.Time
}

type Attendee struct {
	ID        int64
	EventID   int64
	UserID    int64
	Status    AttendeeStatus
	CreatedAt time.Time
}

// Package is a bookable bundle belonging to exactly one event. BookingCount
// is the only persisted counter; availability is always derived from it.
type Package struct {
	ID           int64
	EventID      int64
	Name         string
	PriceCents   int64
	MaxBookings  int
	BookingCount int
}

// AvailableSlots derives remaining event capacity from the confirmed attendee
// count. Clamped at zero: a negative value means counters drifted (an
// over-capacity booking was honored) and must never be reported as negative.
func AvailableSlots(e *Event, confirmed int) int {
	if n := e.MaxAttendees - confirmed; n > 0 {
		return n
	}
	return 0
}

// AvailableBookings derives remaining package capacity, clamped at zero.
func AvailableBookings(p *Package) int {
	if n := p.MaxBookings - p.BookingCount; n > 0 {
		return n
	}
	return 0
}
