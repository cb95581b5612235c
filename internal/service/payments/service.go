// Package payments drives the payment lifecycle: opening gateway sessions,
// settling outcomes reported through the redirect, webhook and explicit
// validation channels, and coordinating refunds.
package payments

import (
	"context"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/maratgil/eventbooking/config"
	"github.com/maratgil/eventbooking/internal/domain"
	"github.com/maratgil/eventbooking/internal/gateway"
	"github.com/maratgil/eventbooking/internal/repository"
)

type UseCase interface {
	InitiateSession(ctx context.Context, in SessionInput) (*SessionResult, error)
	Settle(ctx context.Context, in SettleInput) (*SettlementResult, error)
	InitiateRefund(ctx context.Context, paymentID, amountCents int64, remarks string) (*domain.Payment, error)
	GetPayment(ctx context.Context, id int64) (*domain.Payment, error)
}

// BookingFactory creates the booking for a freshly completed payment inside
// the settlement transaction.
type BookingFactory interface {
	CreateForPayment(ctx context.Context, tx repository.Tx, payment *domain.Payment) (*domain.Booking, error)
}

type Cache interface {
	AcquireSettleLock(ctx context.Context, transactionID string, ttl time.Duration) (bool, error)
	ReleaseSettleLock(ctx context.Context, transactionID string) error
}

type Producer interface {
	Publish(ctx context.Context, topic, key string, value interface{}) error
}

type Service struct {
	payments           repository.PaymentRepository
	bookings           repository.BookingRepository
	events             repository.EventRepository
	gateway            gateway.Client
	factory            BookingFactory
	cache              Cache
	producer           Producer
	notificationsTopic string
	settleLockTTL      time.Duration
	gatewayCfg         config.GatewayConfig
	log                *logrus.Logger
}

type ServiceOption func(*Service)

func WithNotifications(producer Producer, topic string) ServiceOption {
	return func(s *Service) {
		s.producer = producer
		s.notificationsTopic = topic
	}
}

func WithSettleLock(cache Cache, ttl time.Duration) ServiceOption {
	return func(s *Service) {
		s.cache = cache
		s.settleLockTTL = ttl
	}
}

func NewService(
	payments repository.PaymentRepository,
	bookings repository.BookingRepository,
	events repository.EventRepository,
	gw gateway.Client,
	factory BookingFactory,
	gatewayCfg config.GatewayConfig,
	log *logrus.Logger,
	opts ...ServiceOption,
) *Service {
	s := &Service{
		payments:   payments,
		bookings:   bookings,
		events:     events,
		gateway:    gw,
		factory:    factory,
		gatewayCfg: gatewayCfg,
		log:        log,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

func (s *Service) GetPayment(ctx context.Context, id int64) (*domain.Payment, error) {
	return s.payments.GetByID(ctx, id)
}

func (s *Service) notify(ctx context.Context, notificationType string, p *domain.Payment) {
	if s.producer == nil || s.notificationsTopic == "" {
		return
	}
	event := notificationEvent(notificationType, p)
	if err := s.producer.Publish(ctx, s.notificationsTopic, p.TransactionID, event); err != nil {
		s.log.WithError(err).WithField("tran_id", p.TransactionID).Warn("failed to publish notification")
	}
}

var _ UseCase = (*Service)(nil)
