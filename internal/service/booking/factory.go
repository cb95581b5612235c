// Package booking converts a completed payment into a persisted booking and
// applies the inventory adjustments as one unit inside the caller's
// transaction.
package booking

import (
	"context"
	"fmt"

	"github.com/sirupsen/logrus"

	"github.com/maratgil/eventbooking/internal/domain"
	"github.com/maratgil/eventbooking/internal/repository"
)

type Factory struct {
	bookings repository.BookingRepository
	log      *logrus.Logger
}

func NewFactory(bookings repository.BookingRepository, log *logrus.Logger) *Factory {
	return &Factory{bookings: bookings, log: log}
}

// CreateForPayment is an idempotent upsert keyed by payment identity: if a
// booking already references this payment it is returned unchanged and no
// counter moves. Otherwise capacity is re-checked and the booking, attendee
// rows and package counter are written inside tx.
//
// A capacity overrun at this point never blocks creation — the money has
// already been captured. The booking is flagged over-capacity for operator
// reconciliation instead of failing a paid customer.
func (f *Factory) CreateForPayment(ctx context.Context, tx repository.Tx, payment *domain.Payment) (*domain.Booking, error) {
	maxAttendees, confirmed, err := f.bookings.EventCapacity(ctx, tx, payment.EventID)
	if err != nil {
		return nil, fmt.Errorf("check event capacity: %w", err)
	}
	overCapacity := confirmed+payment.Quantity > maxAttendees

	var pkg *domain.Package
	if payment.PackageID != nil {
		pkg, err = f.bookings.PackageForUpdate(ctx, tx, *payment.PackageID)
		if err != nil {
			return nil, fmt.Errorf("check package quota: %w", err)
		}
		if pkg.BookingCount+payment.Quantity > pkg.MaxBookings {
			overCapacity = true
		}
	}

	b := &domain.Booking{
		PaymentID:    payment.ID,
		UserID:       payment.UserID,
		EventID:      payment.EventID,
		PackageID:    payment.PackageID,
		Quantity:     payment.Quantity,
		TotalCents:   payment.AmountCents,
		Status:       domain.BookingStatusConfirmed,
		OverCapacity: overCapacity,
	}

	created, err := f.bookings.Insert(ctx, tx, b)
	if err != nil {
		return nil, err
	}
	if !created {
		// Duplicate settlement lost the insert race; the winner already
		// adjusted inventory.
		return b, nil
	}

	if err := f.bookings.AddAttendees(ctx, tx, payment.EventID, payment.UserID, payment.Quantity); err != nil {
		return nil, err
	}
	if payment.PackageID != nil {
		if err := f.bookings.IncrementPackageBookings(ctx, tx, *payment.PackageID, payment.Quantity); err != nil {
			return nil, err
		}
	}

	if overCapacity {
		f.log.WithFields(logrus.Fields{
			"payment_id": payment.ID,
			"event_id":   payment.EventID,
			"quantity":   payment.Quantity,
			"confirmed":  confirmed,
			"max":        maxAttendees,
		}).Warn("booking created over capacity, flagged for operator reconciliation")
	}

	return b, nil
}
