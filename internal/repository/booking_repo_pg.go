package repository

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/maratgil/eventbooking/internal/domain"
)

const bookingColumns = `id, payment_id, user_id, event_id, package_id, quantity, total_cents, status, over_capacity, created_at, updated_at`

// BookingRepository owns everything the booking factory touches inside one
// transaction: the booking row, attendee rows and the package counter.
type BookingRepository interface {
	GetByPaymentID(ctx context.Context, paymentID int64) (*domain.Booking, error)

	// Insert creates the booking keyed on payment id. A conflicting insert
	// is the idempotency short-circuit: created=false and the existing row
	// is returned unchanged.
	Insert(ctx context.Context, tx Tx, b *domain.Booking) (created bool, err error)

	// EventCapacity locks the event row and returns its capacity together
	// with the current confirmed attendee count, so concurrent capacity
	// checks serialize.
	EventCapacity(ctx context.Context, tx Tx, eventID int64) (maxAttendees, confirmed int, err error)
	AddAttendees(ctx context.Context, tx Tx, eventID, userID int64, quantity int) error

	// PackageForUpdate loads and locks the package row inside tx.
	PackageForUpdate(ctx context.Context, tx Tx, packageID int64) (*domain.Package, error)
	IncrementPackageBookings(ctx context.Context, tx Tx, packageID int64, quantity int) error

	UpdateStatus(ctx context.Context, tx Tx, paymentID int64, status domain.BookingStatus) (*domain.Booking, error)
}

type PGBookingRepository struct {
	db *pgxpool.Pool
}

func NewBookingRepository(db *pgxpool.Pool) BookingRepository {
	return &PGBookingRepository{db: db}
}

func (r *PGBookingRepository) GetByPaymentID(ctx context.Context, paymentID int64) (*domain.Booking, error) {
	row := r.db.QueryRow(ctx, `SELECT `+bookingColumns+` FROM bookings WHERE payment_id=$1`, paymentID)
	return scanBooking(row)
}

func (r *PGBookingRepository) Insert(ctx context.Context, tx Tx, b *domain.Booking) (bool, error) {
	err := unwrap(tx).QueryRow(ctx, `INSERT INTO bookings (payment_id, user_id, event_id, package_id, quantity, total_cents, status, over_capacity)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
		ON CONFLICT (payment_id) DO NOTHING
		RETURNING id, created_at, updated_at`,
		b.PaymentID, b.UserID, b.EventID, b.PackageID, b.Quantity, b.TotalCents, b.Status, b.OverCapacity).
		Scan(&b.ID, &b.CreatedAt, &b.UpdatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			// Another transaction already booked this payment.
			existing, gerr := r.getByPaymentIDTx(ctx, tx, b.PaymentID)
			if gerr != nil {
				return false, gerr
			}
			*b = *existing
			return false, nil
		}
		return false, fmt.Errorf("insert booking: %w", err)
	}
	return true, nil
}

func (r *PGBookingRepository) EventCapacity(ctx context.Context, tx Tx, eventID int64) (int, int, error) {
	pgtx := unwrap(tx)

	// Lock the event row first so the count-then-insert below cannot race
	// with the registration path.
	var maxAttendees int
	if err := pgtx.QueryRow(ctx, `SELECT max_attendees FROM events WHERE id=$1 FOR UPDATE`, eventID).Scan(&maxAttendees); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return 0, 0, domain.ErrNotFound
		}
		return 0, 0, fmt.Errorf("lock event row: %w", err)
	}

	var confirmed int
	err := pgtx.QueryRow(ctx, `SELECT COUNT(*) FROM event_attendees WHERE event_id=$1 AND status=$2`,
		eventID, domain.AttendeeStatusConfirmed).Scan(&confirmed)
	if err != nil {
		return 0, 0, fmt.Errorf("count confirmed attendees: %w", err)
	}
	return maxAttendees, confirmed, nil
}

func (r *PGBookingRepository) AddAttendees(ctx context.Context, tx Tx, eventID, userID int64, quantity int) error {
	pgtx := unwrap(tx)
	for i := 0; i < quantity; i++ {
		_, err := pgtx.Exec(ctx, `INSERT INTO event_attendees (event_id, user_id, status) VALUES ($1, $2, $3)`,
			eventID, userID, domain.AttendeeStatusConfirmed)
		if err != nil {
			return fmt.Errorf("insert attendee: %w", err)
		}
	}
	return nil
}

func (r *PGBookingRepository) PackageForUpdate(ctx context.Context, tx Tx, packageID int64) (*domain.Package, error) {
	var p domain.Package
	err := unwrap(tx).QueryRow(ctx, `SELECT id, event_id, name, price_cents, max_bookings, booking_count
		FROM packages WHERE id=$1 FOR UPDATE`, packageID).
		Scan(&p.ID, &p.EventID, &p.Name, &p.PriceCents, &p.MaxBookings, &p.BookingCount)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, domain.ErrNotFound
		}
		return nil, fmt.Errorf("lock package row: %w", err)
	}
	return &p, nil
}

func (r *PGBookingRepository) IncrementPackageBookings(ctx context.Context, tx Tx, packageID int64, quantity int) error {
	cmd, err := unwrap(tx).Exec(ctx, `UPDATE packages SET booking_count = booking_count + $1 WHERE id=$2`,
		quantity, packageID)
	if err != nil {
		return fmt.Errorf("increment booking_count: %w", err)
	}
	if cmd.RowsAffected() == 0 {
		return domain.ErrNotFound
	}
	return nil
}

func (r *PGBookingRepository) UpdateStatus(ctx context.Context, tx Tx, paymentID int64, status domain.BookingStatus) (*domain.Booking, error) {
	const q = `UPDATE bookings SET status=$1, updated_at=now() WHERE payment_id=$2 RETURNING ` + bookingColumns
	var row pgx.Row
	if tx != nil {
		row = unwrap(tx).QueryRow(ctx, q, status, paymentID)
	} else {
		row = r.db.QueryRow(ctx, q, status, paymentID)
	}
	return scanBooking(row)
}

func (r *PGBookingRepository) getByPaymentIDTx(ctx context.Context, tx Tx, paymentID int64) (*domain.Booking, error) {
	row := unwrap(tx).QueryRow(ctx, `SELECT `+bookingColumns+` FROM bookings WHERE payment_id=$1`, paymentID)
	return scanBooking(row)
}

func scanBooking(row pgx.Row) (*domain.Booking, error) {
	var b domain.Booking
	err := row.Scan(&b.ID, &b.PaymentID, &b.UserID, &b.EventID, &b.PackageID, &b.Quantity,
		&b.TotalCents, &b.Status, &b.OverCapacity, &b.CreatedAt, &b.UpdatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, domain.ErrNotFound
		}
		return nil, fmt.Errorf("scan booking: %w", err)
	}
	return &b, nil
}

var _ BookingRepository = (*PGBookingRepository)(nil)
