package repository

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/maratgil/eventbooking/internal/domain"
)

const eventColumns = `id, title, description, venue, starts_at, price_cents, max_attendees, created_at, updated_at`

type EventRepository interface {
	List(ctx context.Context) ([]domain.Event, error)
	GetByID(ctx context.Context, id int64) (*domain.Event, error)
	GetPackage(ctx context.Context, id int64) (*domain.Package, error)
	ConfirmedCount(ctx context.Context, eventID int64) (int, error)

	// RegisterAttendee adds a confirmed attendee, serialized against
	// concurrent registrations; returns domain.ErrCapacityExceeded when the
	// event is full.
	RegisterAttendee(ctx context.Context, eventID, userID int64) (*domain.Attendee, error)
}

type PGEventRepository struct {
	db *pgxpool.Pool
}

func NewEventRepository(db *pgxpool.Pool) EventRepository {
	return &PGEventRepository{db: db}
}

func (r *PGEventRepository) List(ctx context.Context) ([]domain.Event, error) {
	rows, err := r.db.Query(ctx, `SELECT `+eventColumns+` FROM events ORDER BY starts_at`)
	if err != nil {
		return nil, fmt.Errorf("list events: %w", err)
	}
	defer rows.Close()

	events := make([]domain.Event, 0)
	for rows.Next() {
		var e domain.Event
		if err := rows.Scan(&e.ID, &e.Title, &e.Description, &e.Venue, &e.StartsAt, &e.PriceCents, &e.MaxAttendees, &e.CreatedAt, &e.UpdatedAt); err != nil {
			return nil, fmt.Errorf("scan event: %w", err)
		}
		events = append(events, e)
	}
	return events, rows.Err()
}

func (r *PGEventRepository) GetByID(ctx context.Context, id int64) (*domain.Event, error) {
	row := r.db.QueryRow(ctx, `SELECT `+eventColumns+` FROM events WHERE id=$1`, id)
	var e domain.Event
	if err := row.Scan(&e.ID, &e.Title, &e.Description, &e.Venue, &e.StartsAt, &e.PriceCents, &e.MaxAttendees, &e.CreatedAt, &e.UpdatedAt); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, domain.ErrNotFound
		}
		return nil, fmt.Errorf("get event: %w", err)
	}
	return &e, nil
}

func (r *PGEventRepository) GetPackage(ctx context.Context, id int64) (*domain.Package, error) {
	row := r.db.QueryRow(ctx, `SELECT id, event_id, name, price_cents, max_bookings, booking_count FROM packages WHERE id=$1`, id)
	var p domain.Package
	if err := row.Scan(&p.ID, &p.EventID, &p.Name, &p.PriceCents, &p.MaxBookings, &p.BookingCount); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, domain.ErrNotFound
		}
		return nil, fmt.Errorf("get package: %w", err)
	}
	return &p, nil
}

func (r *PGEventRepository) ConfirmedCount(ctx context.Context, eventID int64) (int, error) {
	var confirmed int
	err := r.db.QueryRow(ctx, `SELECT COUNT(*) FROM event_attendees WHERE event_id=$1 AND status=$2`,
		eventID, domain.AttendeeStatusConfirmed).Scan(&confirmed)
	if err != nil {
		return 0, fmt.Errorf("count confirmed attendees: %w", err)
	}
	return confirmed, nil
}

func (r *PGEventRepository) RegisterAttendee(ctx context.Context, eventID, userID int64) (*domain.Attendee, error) {
	tx, err := r.db.Begin(ctx)
	if err != nil {
		return nil, fmt.Errorf("begin transaction: %w", err)
	}
	defer tx.Rollback(ctx)

	// Row lock serializes concurrent registrations so the capacity check
	// below cannot read a stale count.
	var maxAttendees int
	err = tx.QueryRow(ctx, `SELECT max_attendees FROM events WHERE id=$1 FOR UPDATE`, eventID).Scan(&maxAttendees)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, domain.ErrNotFound
		}
		return nil, fmt.Errorf("lock event row: %w", err)
	}

	var confirmed int
	err = tx.QueryRow(ctx, `SELECT COUNT(*) FROM event_attendees WHERE event_id=$1 AND status=$2`,
		eventID, domain.AttendeeStatusConfirmed).Scan(&confirmed)
	if err != nil {
		return nil, fmt.Errorf("count confirmed attendees: %w", err)
	}
	if confirmed >= maxAttendees {
		return nil, domain.ErrCapacityExceeded
	}

	attendee := &domain.Attendee{
		EventID: eventID,
		UserID:  userID,
		Status:  domain.AttendeeStatusConfirmed,
	}
	err = tx.QueryRow(ctx, `INSERT INTO event_attendees (event_id, user_id, status) VALUES ($1, $2, $3) RETURNING id, created_at`,
		eventID, userID, attendee.Status).Scan(&attendee.ID, &attendee.CreatedAt)
	if err != nil {
		return nil, fmt.Errorf("insert attendee: %w", err)
	}

	if err := tx.Commit(ctx); err != nil {
		return nil, fmt.Errorf("commit transaction: %w", err)
	}
	return attendee, nil
}

var _ EventRepository = (*PGEventRepository)(nil)
