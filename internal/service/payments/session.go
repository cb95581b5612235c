package payments

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"

	"github.com/maratgil/eventbooking/internal/domain"
	"github.com/maratgil/eventbooking/internal/gateway"
	"github.com/maratgil/eventbooking/internal/repository"
)

type SessionInput struct {
	UserID        int64
	EventID       int64
	PackageID     *int64
	Quantity      int
	Currency      string
	CustomerName  string
	CustomerEmail string
}

type SessionResult struct {
	TransactionID string
	RedirectURL   string
	Status        domain.PaymentStatus
}

// InitiateSession opens a payment attempt: it prices the intent, persists a
// PENDING payment keyed by a fresh transaction id, and asks the gateway for a
// redirect target. The intent fields travel both on the payment row and as
// gateway passthrough fields, so a later notification can be correlated even
// if the local record is temporarily unreadable.
func (s *Service) InitiateSession(ctx context.Context, in SessionInput) (*SessionResult, error) {
	if in.Quantity < 1 {
		return nil, errors.New("quantity must be positive")
	}
	if in.Currency == "" {
		return nil, errors.New("currency is required")
	}

	event, err := s.events.GetByID(ctx, in.EventID)
	if err != nil {
		return nil, err
	}

	unitPrice := event.PriceCents
	if in.PackageID != nil {
		pkg, err := s.events.GetPackage(ctx, *in.PackageID)
		if err != nil {
			return nil, err
		}
		if pkg.EventID != event.ID {
			return nil, fmt.Errorf("package %d does not belong to event %d: %w", pkg.ID, event.ID, domain.ErrNotFound)
		}
		unitPrice = pkg.PriceCents
	}
	if unitPrice <= 0 {
		return nil, domain.ErrInvalidPrice
	}

	payment := &domain.Payment{
		TransactionID: uuid.NewString(),
		UserID:        in.UserID,
		EventID:       in.EventID,
		PackageID:     in.PackageID,
		Quantity:      in.Quantity,
		AmountCents:   unitPrice * int64(in.Quantity),
		Currency:      in.Currency,
	}
	if err := s.payments.CreatePending(ctx, payment); err != nil {
		return nil, err
	}

	resp, err := s.gateway.InitSession(ctx, gateway.SessionRequest{
		TransactionID: payment.TransactionID,
		AmountCents:   payment.AmountCents,
		Currency:      payment.Currency,
		SuccessURL:    s.gatewayCfg.SuccessURL,
		FailURL:       s.gatewayCfg.FailURL,
		CancelURL:     s.gatewayCfg.CancelURL,
		CallbackURL:   s.gatewayCfg.CallbackURL,
		CustomerName:  in.CustomerName,
		CustomerEmail: in.CustomerEmail,
		EventID:       in.EventID,
		PackageID:     in.PackageID,
		Quantity:      in.Quantity,
		UserID:        in.UserID,
	})
	if err != nil {
		// Transport failure: the payment stays PENDING and a retry simply
		// opens a new session.
		s.log.WithError(err).WithField("tran_id", payment.TransactionID).Warn("gateway session init failed")
		return nil, err
	}

	if resp.Status != gateway.SessionStatusSuccess {
		if _, err := s.payments.MarkClosed(ctx, payment.TransactionID, domain.PaymentStatusFailed); err != nil {
			return nil, err
		}
		s.appendAudit(ctx, nil, payment.ID, domain.AuditGatewayRejected, domain.GatewayRejectedPayload{
			Reason: resp.Reason,
			Raw:    resp.Raw,
		})
		return nil, fmt.Errorf("session init rejected: %s: %w", resp.Reason, domain.ErrGatewayRejected)
	}

	s.appendAudit(ctx, nil, payment.ID, domain.AuditSessionInitiated, domain.SessionInitiatedPayload{
		RedirectURL: resp.RedirectURL,
		Raw:         resp.Raw,
	})

	return &SessionResult{
		TransactionID: payment.TransactionID,
		RedirectURL:   resp.RedirectURL,
		Status:        domain.PaymentStatusPending,
	}, nil
}

func (s *Service) appendAudit(ctx context.Context, tx repository.Tx, paymentID int64, kind domain.AuditKind, payload any) {
	entry, err := domain.NewAuditEntry(paymentID, kind, payload)
	if err != nil {
		s.log.WithError(err).WithField("payment_id", paymentID).Error("failed to build audit entry")
		return
	}
	if err := s.payments.AppendAudit(ctx, tx, entry); err != nil {
		s.log.WithError(err).WithField("payment_id", paymentID).Error("failed to append audit entry")
	}
}
