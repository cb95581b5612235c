package payments

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	"github.com/maratgil/eventbooking/internal/domain"
	"github.com/maratgil/eventbooking/internal/gateway"
	"github.com/maratgil/eventbooking/internal/kafka"
)

// InitiateRefund reverses a COMPLETED payment through the gateway. Inventory
// counters are deliberately untouched: releasing the seat is a separate
// cancellation action, so "money returned" and "seat released" never collapse
// into one irreversible step.
func (s *Service) InitiateRefund(ctx context.Context, paymentID, amountCents int64, remarks string) (*domain.Payment, error) {
	payment, err := s.payments.GetByID(ctx, paymentID)
	if err != nil {
		return nil, err
	}

	if payment.Status != domain.PaymentStatusCompleted {
		return nil, fmt.Errorf("refund from status %s: %w", payment.Status, domain.ErrInvalidStateTransition)
	}
	if payment.BankTransactionID == "" {
		// The payment was never fully validated; there is nothing the bank
		// can reverse.
		return nil, domain.ErrMissingGatewayReference
	}
	if amountCents <= 0 || amountCents > payment.AmountCents {
		return nil, errors.New("refund amount must be positive and not exceed the payment amount")
	}

	refundRefID := uuid.NewString()
	resp, err := s.gateway.Refund(ctx, gateway.RefundRequest{
		BankTransactionID: payment.BankTransactionID,
		RefundRefID:       refundRefID,
		AmountCents:       amountCents,
		Remarks:           remarks,
	})
	if err != nil {
		return nil, err
	}
	if resp.Status != gateway.RefundStatusSuccess {
		return nil, fmt.Errorf("refund rejected: %s: %w", resp.Reason, domain.ErrGatewayRejected)
	}

	tx, err := s.payments.BeginTx(ctx)
	if err != nil {
		return nil, fmt.Errorf("begin refund transaction: %w", err)
	}
	defer func() {
		_ = tx.Rollback(ctx)
	}()

	moved, err := s.payments.MarkRefunded(ctx, tx, payment.ID)
	if err != nil {
		return nil, err
	}
	if !moved {
		return nil, fmt.Errorf("payment %d left COMPLETED concurrently: %w", payment.ID, domain.ErrInvalidStateTransition)
	}

	if _, err := s.bookings.UpdateStatus(ctx, tx, payment.ID, domain.BookingStatusRefunded); err != nil {
		return nil, fmt.Errorf("mark booking refunded: %w", err)
	}

	entry, err := domain.NewAuditEntry(payment.ID, domain.AuditRefunded, domain.RefundedPayload{
		AmountCents:       amountCents,
		Remarks:           remarks,
		RefundID:          resp.RefundID,
		BankTransactionID: payment.BankTransactionID,
		Raw:               resp.Raw,
	})
	if err != nil {
		return nil, err
	}
	if err := s.payments.AppendAudit(ctx, tx, entry); err != nil {
		return nil, err
	}

	if err := tx.Commit(ctx); err != nil {
		return nil, fmt.Errorf("commit refund transaction: %w", err)
	}

	payment.Status = domain.PaymentStatusRefunded
	s.log.WithFields(logrus.Fields{
		"payment_id": payment.ID,
		"refund_id":  resp.RefundID,
		"amount":     amountCents,
	}).Info("payment refunded")
	s.notify(ctx, kafka.NotificationPaymentRefunded, payment)

	return payment, nil
}
