package domain

import (
	"encoding/json"
	"time"
)

// AuditKind tags one entry in a payment's append-only audit trail.
type AuditKind string

const (
	AuditSessionInitiated AuditKind = "session_initiated"
	AuditGatewayRejected  AuditKind = "gateway_rejected"
	AuditValidated        AuditKind = "validated"
	AuditValidationFailed AuditKind = "validation_failed"
	AuditRefunded         AuditKind = "refunded"
)

// AuditEntry is one record in the payment audit trail. Payload is the typed
// record for the kind, serialized as JSON; Raw carries the gateway's
// unmodified response snapshot where one exists.
type AuditEntry struct {
	ID        int64
	PaymentID int64
	Kind      AuditKind
	Payload   json.RawMessage
	CreatedAt time.Time
}

// SessionInitiatedPayload records the gateway's answer to session init.
type SessionInitiatedPayload struct {
	RedirectURL string          `json:"redirect_url"`
	Raw         json.RawMessage `json:"raw,omitempty"`
}

// GatewayRejectedPayload records a rejection at session init time.
type GatewayRejectedPayload struct {
	Reason string          `json:"reason"`
	Raw    json.RawMessage `json:"raw,omitempty"`
}

// ValidatedPayload records a successful authoritative validation.
type ValidatedPayload struct {
	ValidationID      string          `json:"validation_id"`
	BankTransactionID string          `json:"bank_transaction_id"`
	AmountCents       int64           `json:"amount_cents"`
	Currency          string          `json:"currency"`
	Raw               json.RawMessage `json:"raw,omitempty"`
}

// ValidationFailedPayload records a failed or mismatched validation.
type ValidationFailedPayload struct {
	ValidationID string          `json:"validation_id"`
	Reason       string          `json:"reason"`
	Raw          json.RawMessage `json:"raw,omitempty"`
}

// RefundedPayload records a completed refund.
type RefundedPayload struct {
	AmountCents       int64           `json:"amount_cents"`
	Remarks           string          `json:"remarks"`
	RefundID          string          `json:"refund_id"`
	BankTransactionID string          `json:"bank_transaction_id"`
	Raw               json.RawMessage `json:"raw,omitempty"`
}

// NewAuditEntry serializes a typed payload into an entry ready for append.
func NewAuditEntry(paymentID int64, kind AuditKind, payload any) (*AuditEntry, error) {
	data, err := json.Marshal(payload)
	if err != nil {
		return nil, err
	}
	return &AuditEntry{
		PaymentID: paymentID,
		Kind:      kind,
		Payload:   data,
		CreatedAt: time.Now().UTC(),
	}, nil
}
