package repository

import (
	"context"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

// Tx abstracts a database transaction so services can compose repository
// calls into one atomic unit without importing pgx.
type Tx interface {
	Commit(ctx context.Context) error
	Rollback(ctx context.Context) error
}

type pgTx struct {
	tx pgx.Tx
}

func (t *pgTx) Commit(ctx context.Context) error   { return t.tx.Commit(ctx) }
func (t *pgTx) Rollback(ctx context.Context) error { return t.tx.Rollback(ctx) }

// BeginTx starts a transaction on the shared pool. Repositories accept the
// returned Tx in their transactional methods.
func BeginTx(ctx context.Context, db *pgxpool.Pool) (Tx, error) {
	tx, err := db.Begin(ctx)
	if err != nil {
		return nil, err
	}
	return &pgTx{tx: tx}, nil
}

func unwrap(tx Tx) pgx.Tx {
	return tx.(*pgTx).tx
}
