package repository

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/maratgil/eventbooking/internal/domain"
)

const paymentColumns = `id, transaction_id, user_id, event_id, package_id, quantity, amount_cents, currency, status, bank_transaction_id, created_at, updated_at`

type PaymentRepository interface {
	CreatePending(ctx context.Context, p *domain.Payment) error
	GetByID(ctx context.Context, id int64) (*domain.Payment, error)
	GetByTransactionID(ctx context.Context, transactionID string) (*domain.Payment, error)
	BeginTx(ctx context.Context) (Tx, error)

	// MarkCompleted transitions PENDING → COMPLETED inside tx, recording the
	// bank transaction reference. Returns false when the payment was no
	// longer PENDING, i.e. a concurrent notification won the transition.
	MarkCompleted(ctx context.Context, tx Tx, transactionID, bankTransactionID string) (bool, error)

	// MarkClosed transitions PENDING → FAILED or CANCELLED. Returns false
	// when the payment already left PENDING.
	MarkClosed(ctx context.Context, transactionID string, to domain.PaymentStatus) (bool, error)

	// MarkRefunded transitions COMPLETED → REFUNDED inside tx. Returns
	// false when the payment was not COMPLETED.
	MarkRefunded(ctx context.Context, tx Tx, paymentID int64) (bool, error)

	// AppendAudit appends one audit entry; tx may be nil for standalone
	// appends outside a transaction.
	AppendAudit(ctx context.Context, tx Tx, entry *domain.AuditEntry) error
	ListAudit(ctx context.Context, paymentID int64) ([]domain.AuditEntry, error)
}

type PGPaymentRepository struct {
	db *pgxpool.Pool
}

func NewPaymentRepository(db *pgxpool.Pool) PaymentRepository {
	return &PGPaymentRepository{db: db}
}

func (r *PGPaymentRepository) BeginTx(ctx context.Context) (Tx, error) {
	return BeginTx(ctx, r.db)
}

func (r *PGPaymentRepository) CreatePending(ctx context.Context, p *domain.Payment) error {
	p.Status = domain.PaymentStatusPending
	err := r.db.QueryRow(ctx, `INSERT INTO payments (transaction_id, user_id, event_id, package_id, quantity, amount_cents, currency, status)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
		RETURNING id, created_at, updated_at`,
		p.TransactionID, p.UserID, p.EventID, p.PackageID, p.Quantity, p.AmountCents, p.Currency, p.Status).
		Scan(&p.ID, &p.CreatedAt, &p.UpdatedAt)
	if err != nil {
		return fmt.Errorf("insert payment: %w", err)
	}
	return nil
}

func (r *PGPaymentRepository) GetByID(ctx context.Context, id int64) (*domain.Payment, error) {
	row := r.db.QueryRow(ctx, `SELECT `+paymentColumns+` FROM payments WHERE id=$1`, id)
	return scanPayment(row)
}

func (r *PGPaymentRepository) GetByTransactionID(ctx context.Context, transactionID string) (*domain.Payment, error) {
	row := r.db.QueryRow(ctx, `SELECT `+paymentColumns+` FROM payments WHERE transaction_id=$1`, transactionID)
	return scanPayment(row)
}

func (r *PGPaymentRepository) MarkCompleted(ctx context.Context, tx Tx, transactionID, bankTransactionID string) (bool, error) {
	cmd, err := unwrap(tx).Exec(ctx, `UPDATE payments SET status=$1, bank_transaction_id=$2, updated_at=now()
		WHERE transaction_id=$3 AND status=$4`,
		domain.PaymentStatusCompleted, bankTransactionID, transactionID, domain.PaymentStatusPending)
	if err != nil {
		return false, fmt.Errorf("mark payment completed: %w", err)
	}
	return cmd.RowsAffected() == 1, nil
}

func (r *PGPaymentRepository) MarkClosed(ctx context.Context, transactionID string, to domain.PaymentStatus) (bool, error) {
	if to != domain.PaymentStatusFailed && to != domain.PaymentStatusCancelled {
		return false, fmt.Errorf("mark payment closed: %w: target %s", domain.ErrInvalidStateTransition, to)
	}
	cmd, err := r.db.Exec(ctx, `UPDATE payments SET status=$1, updated_at=now()
		WHERE transaction_id=$2 AND status=$3`,
		to, transactionID, domain.PaymentStatusPending)
	if err != nil {
		return false, fmt.Errorf("mark payment closed: %w", err)
	}
	return cmd.RowsAffected() == 1, nil
}

func (r *PGPaymentRepository) MarkRefunded(ctx context.Context, tx Tx, paymentID int64) (bool, error) {
	cmd, err := unwrap(tx).Exec(ctx, `UPDATE payments SET status=$1, updated_at=now()
		WHERE id=$2 AND status=$3`,
		domain.PaymentStatusRefunded, paymentID, domain.PaymentStatusCompleted)
	if err != nil {
		return false, fmt.Errorf("mark payment refunded: %w", err)
	}
	return cmd.RowsAffected() == 1, nil
}

func (r *PGPaymentRepository) AppendAudit(ctx context.Context, tx Tx, entry *domain.AuditEntry) error {
	const q = `INSERT INTO payment_audit (payment_id, kind, payload, created_at) VALUES ($1, $2, $3, $4) RETURNING id`
	var err error
	if tx != nil {
		err = unwrap(tx).QueryRow(ctx, q, entry.PaymentID, entry.Kind, entry.Payload, entry.CreatedAt).Scan(&entry.ID)
	} else {
		err = r.db.QueryRow(ctx, q, entry.PaymentID, entry.Kind, entry.Payload, entry.CreatedAt).Scan(&entry.ID)
	}
	if err != nil {
		return fmt.Errorf("append payment audit: %w", err)
	}
	return nil
}

func (r *PGPaymentRepository) ListAudit(ctx context.Context, paymentID int64) ([]domain.AuditEntry, error) {
	rows, err := r.db.Query(ctx, `SELECT id, payment_id, kind, payload, created_at FROM payment_audit WHERE payment_id=$1 ORDER BY id`, paymentID)
	if err != nil {
		return nil, fmt.Errorf("list payment audit: %w", err)
	}
	defer rows.Close()

	var entries []domain.AuditEntry
	for rows.Next() {
		var e domain.AuditEntry
		if err := rows.Scan(&e.ID, &e.PaymentID, &e.Kind, &e.Payload, &e.CreatedAt); err != nil {
			return nil, fmt.Errorf("scan audit entry: %w", err)
		}
		entries = append(entries, e)
	}
	return entries, rows.Err()
}

func scanPayment(row pgx.Row) (*domain.Payment, error) {
	var p domain.Payment
	err := row.Scan(&p.ID, &p.TransactionID, &p.UserID, &p.EventID, &p.PackageID, &p.Quantity,
		&p.AmountCents, &p.Currency, &p.Status, &p.BankTransactionID, &p.CreatedAt, &p.UpdatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, domain.ErrNotFound
		}
		return nil, fmt.Errorf("scan payment: %w", err)
	}
	return &p, nil
}

var _ PaymentRepository = (*PGPaymentRepository)(nil)
