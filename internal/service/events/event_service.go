// Package events exposes event reads, derived availability and the attendee
// registration path.
package events

import (
	"context"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/maratgil/eventbooking/internal/domain"
	"github.com/maratgil/eventbooking/internal/repository"
)

type EventUseCase interface {
	List(ctx context.Context) ([]domain.Event, error)
	GetByID(ctx context.Context, id int64) (*domain.Event, error)
	Availability(ctx context.Context, eventID int64) (*Availability, error)
	PackageAvailability(ctx context.Context, packageID int64) (*PackageAvailability, error)
	Register(ctx context.Context, eventID, userID int64) (*domain.Attendee, error)
}

type Cache interface {
	GetEvents(ctx context.Context) ([]domain.Event, error)
	SetEvents(ctx context.Context, events []domain.Event) error
}

// Availability is derived from persisted counters on every read and is never
// stored, so it cannot drift.
type Availability struct {
	EventID        int64
	MaxAttendees   int
	Confirmed      int
	AvailableSlots int
}

type PackageAvailability struct {
	PackageID         int64
	MaxBookings       int
	BookingCount      int
	AvailableBookings int
}

type EventService struct {
	repo     repository.EventRepository
	cache    Cache
	cacheTTL time.Duration
	log      *logrus.Logger
}

func NewEventService(repo repository.EventRepository, cache Cache, cacheTTL time.Duration, log *logrus.Logger) *EventService {
	return &EventService{repo: repo, cache: cache, cacheTTL: cacheTTL, log: log}
}

func (s *EventService) List(ctx context.Context) ([]domain.Event, error) {
	if s.cache != nil {
		if cached, err := s.cache.GetEvents(ctx); err == nil && cached != nil {
			return cached, nil
		}
	}

	events, err := s.repo.List(ctx)
	if err != nil {
		return nil, err
	}
	if s.cache != nil {
		_ = s.cache.SetEvents(ctx, events)
	}
	return events, nil
}

func (s *EventService) GetByID(ctx context.Context, id int64) (*domain.Event, error) {
	return s.repo.GetByID(ctx, id)
}

func (s *EventService) Availability(ctx context.Context, eventID int64) (*Availability, error) {
	event, err := s.repo.GetByID(ctx, eventID)
	if err != nil {
		return nil, err
	}
	confirmed, err := s.repo.ConfirmedCount(ctx, eventID)
	if err != nil {
		return nil, err
	}

	if confirmed > event.MaxAttendees {
		// Over-capacity bookings are honored by policy, so this state is
		// reportable but not persisted anywhere as a negative value.
		s.log.WithFields(logrus.Fields{
			"event_id":  eventID,
			"confirmed": confirmed,
			"max":       event.MaxAttendees,
		}).Warn("confirmed attendees exceed event capacity")
	}

	return &Availability{
		EventID:        eventID,
		MaxAttendees:   event.MaxAttendees,
		Confirmed:      confirmed,
		AvailableSlots: domain.AvailableSlots(event, confirmed),
	}, nil
}

func (s *EventService) PackageAvailability(ctx context.Context, packageID int64) (*PackageAvailability, error) {
	pkg, err := s.repo.GetPackage(ctx, packageID)
	if err != nil {
		return nil, err
	}

	if pkg.BookingCount > pkg.MaxBookings {
		s.log.WithFields(logrus.Fields{
			"package_id": packageID,
			"bookings":   pkg.BookingCount,
			"max":        pkg.MaxBookings,
		}).Warn("package bookings exceed quota")
	}

	return &PackageAvailability{
		PackageID:         packageID,
		MaxBookings:       pkg.MaxBookings,
		BookingCount:      pkg.BookingCount,
		AvailableBookings: domain.AvailableBookings(pkg),
	}, nil
}

func (s *EventService) Register(ctx context.Context, eventID, userID int64) (*domain.Attendee, error) {
	return s.repo.RegisterAttendee(ctx, eventID, userID)
}

var _ EventUseCase = (*EventService)(nil)
