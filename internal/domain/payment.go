package domain

import "time"

type PaymentStatus string

const (
	PaymentStatusPending   PaymentStatus = "PENDING"
	PaymentStatusCompleted PaymentStatus = "COMPLETED"
	PaymentStatusFailed    PaymentStatus = "FAILED"
	PaymentStatusCancelled PaymentStatus = "CANCELLED"
	PaymentStatusRefunded  PaymentStatus = "REFUNDED"
)

// Terminal reports whether no forward completion transition may leave this
// status. Only PENDING payments can still complete; COMPLETED can move to
// REFUNDED through the refund path.
func (s PaymentStatus) Terminal() bool {
	return s != PaymentStatusPending
}

// Payment is one payment attempt against the gateway. The transaction id is
// globally unique and is the correlation key for every notification channel.
// Intent fields (event, package, quantity, user) are persisted here and
// round-tripped through gateway passthrough fields so booking intent can be
// reconstructed without trusting channel-supplied data.
type Payment struct {
	ID                int64
	TransactionID     string
	UserID            int64
	EventID           int64
	PackageID         *int64
	Quantity          int
	AmountCents       int64
	Currency          string
	Status            PaymentStatus
	BankTransactionID string
	CreatedAt         time.Time
	UpdatedAt         time.Time
}
