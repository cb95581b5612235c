package payments

import (
	"context"
	"errors"
	"fmt"

	"github.com/sirupsen/logrus"

	"github.com/maratgil/eventbooking/internal/domain"
	"github.com/maratgil/eventbooking/internal/gateway"
	"github.com/maratgil/eventbooking/internal/kafka"
)

// SettleInput carries the correlation ids extracted from a notification.
// Any amount or status fields the channel supplied are deliberately absent:
// they are never trusted, only the gateway's validate answer is.
type SettleInput struct {
	TransactionID string
	ValidationID  string

	// Channel names the notification source for logging/audit context.
	Channel string
}

// SettlementResult reports the authoritative outcome of one settlement
// attempt. Duplicate marks an idempotent no-op against an already terminal
// payment; the previously recorded outcome is returned unchanged.
type SettlementResult struct {
	Payment   *domain.Payment
	Booking   *domain.Booking
	Completed bool
	Duplicate bool
	Reason    string
}

// Settle drives the payment state machine forward exactly once per
// transaction id, no matter how many channels deliver the notification or
// how many times they retry.
func (s *Service) Settle(ctx context.Context, in SettleInput) (*SettlementResult, error) {
	correlationID := in.ValidationID
	if correlationID == "" {
		correlationID = in.TransactionID
	}
	if correlationID == "" {
		return nil, errors.New("notification carries no correlation id")
	}

	log := s.log.WithFields(logrus.Fields{"correlation_id": correlationID, "channel": in.Channel})

	if s.cache != nil {
		acquired, err := s.cache.AcquireSettleLock(ctx, correlationID, s.settleLockTTL)
		if err != nil {
			log.WithError(err).Warn("settle lock unavailable, relying on status guard")
		} else if acquired {
			defer func() {
				_ = s.cache.ReleaseSettleLock(ctx, correlationID)
			}()
		} else {
			log.Info("concurrent settlement in flight for this correlation id")
		}
	}

	// The gateway is the only authority on the outcome.
	validation, err := s.gateway.Validate(ctx, correlationID)
	if err != nil {
		log.WithError(err).Warn("gateway validation unavailable")
		return nil, err
	}

	transactionID := validation.TransactionID
	if transactionID == "" {
		transactionID = in.TransactionID
	}

	payment, err := s.payments.GetByTransactionID(ctx, transactionID)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			log.WithField("tran_id", transactionID).Warn("notification references unknown payment")
		}
		return nil, err
	}

	// Terminal states short-circuit: return the recorded outcome, mutate
	// nothing.
	switch payment.Status {
	case domain.PaymentStatusCompleted, domain.PaymentStatusRefunded:
		return s.recordedOutcome(ctx, payment)
	case domain.PaymentStatusFailed, domain.PaymentStatusCancelled:
		return &SettlementResult{Payment: payment, Duplicate: true}, nil
	}

	if !validation.Valid() {
		return s.settleFailure(ctx, payment, validation.Status, validation.ValidationID, validation.Raw)
	}

	if validation.AmountCents != payment.AmountCents || (validation.Currency != "" && validation.Currency != payment.Currency) {
		log.WithFields(logrus.Fields{
			"expected": payment.AmountCents,
			"reported": validation.AmountCents,
		}).Error("validated amount does not match payment")
		res, err := s.settleFailure(ctx, payment, gateway.ValidationStatusInvalid, validation.ValidationID, validation.Raw)
		if res != nil {
			res.Reason = "amount mismatch"
		}
		return res, err
	}

	return s.settleSuccess(ctx, payment, validation)
}

func (s *Service) settleSuccess(ctx context.Context, payment *domain.Payment, validation *gateway.ValidationResult) (*SettlementResult, error) {
	tx, err := s.payments.BeginTx(ctx)
	if err != nil {
		return nil, fmt.Errorf("begin settlement transaction: %w", err)
	}
	defer func() {
		_ = tx.Rollback(ctx)
	}()

	won, err := s.payments.MarkCompleted(ctx, tx, payment.TransactionID, validation.BankTransactionID)
	if err != nil {
		return nil, err
	}
	if !won {
		// A concurrent notification completed this payment first. Roll back
		// and return its outcome.
		_ = tx.Rollback(ctx)
		fresh, err := s.payments.GetByTransactionID(ctx, payment.TransactionID)
		if err != nil {
			return nil, err
		}
		return s.recordedOutcome(ctx, fresh)
	}

	entry, err := domain.NewAuditEntry(payment.ID, domain.AuditValidated, domain.ValidatedPayload{
		ValidationID:      validation.ValidationID,
		BankTransactionID: validation.BankTransactionID,
		AmountCents:       validation.AmountCents,
		Currency:          validation.Currency,
		Raw:               validation.Raw,
	})
	if err != nil {
		return nil, err
	}
	if err := s.payments.AppendAudit(ctx, tx, entry); err != nil {
		return nil, err
	}

	// Booking creation shares the transaction: if the factory fails, the
	// rollback returns the payment to PENDING so a later notification can
	// complete it. The system never holds a COMPLETED payment without a
	// booking.
	booking, err := s.factory.CreateForPayment(ctx, tx, payment)
	if err != nil {
		return nil, fmt.Errorf("create booking for payment %d: %w", payment.ID, err)
	}

	if err := tx.Commit(ctx); err != nil {
		return nil, fmt.Errorf("commit settlement transaction: %w", err)
	}

	payment.Status = domain.PaymentStatusCompleted
	payment.BankTransactionID = validation.BankTransactionID

	s.log.WithFields(logrus.Fields{
		"tran_id":    payment.TransactionID,
		"payment_id": payment.ID,
		"booking_id": booking.ID,
	}).Info("payment settled, booking created")
	s.notify(ctx, kafka.NotificationBookingConfirmed, payment)

	return &SettlementResult{Payment: payment, Booking: booking, Completed: true}, nil
}

func (s *Service) settleFailure(ctx context.Context, payment *domain.Payment, validationStatus, validationID string, raw []byte) (*SettlementResult, error) {
	target := domain.PaymentStatusFailed
	if validationStatus == gateway.ValidationStatusCancelled {
		target = domain.PaymentStatusCancelled
	}

	moved, err := s.payments.MarkClosed(ctx, payment.TransactionID, target)
	if err != nil {
		return nil, err
	}
	if !moved {
		fresh, err := s.payments.GetByTransactionID(ctx, payment.TransactionID)
		if err != nil {
			return nil, err
		}
		if fresh.Status == domain.PaymentStatusCompleted || fresh.Status == domain.PaymentStatusRefunded {
			return s.recordedOutcome(ctx, fresh)
		}
		return &SettlementResult{Payment: fresh, Duplicate: true}, nil
	}

	s.appendAudit(ctx, nil, payment.ID, domain.AuditValidationFailed, domain.ValidationFailedPayload{
		ValidationID: validationID,
		Reason:       validationStatus,
		Raw:          raw,
	})

	payment.Status = target
	s.notify(ctx, kafka.NotificationPaymentFailed, payment)
	return &SettlementResult{Payment: payment, Reason: validationStatus}, nil
}

// recordedOutcome returns the previously settled state for an idempotent
// duplicate: the payment as stored and its booking, if one was created.
func (s *Service) recordedOutcome(ctx context.Context, payment *domain.Payment) (*SettlementResult, error) {
	booking, err := s.bookings.GetByPaymentID(ctx, payment.ID)
	if err != nil && !errors.Is(err, domain.ErrNotFound) {
		return nil, err
	}
	return &SettlementResult{
		Payment:   payment,
		Booking:   booking,
		Completed: payment.Status == domain.PaymentStatusCompleted || payment.Status == domain.PaymentStatusRefunded,
		Duplicate: true,
	}, nil
}
