package postgres

import (
	"context"
	"errors"
	"fmt"

	"multiledger/internal/core/ports"

	"github.com/jackc/pgx/v5"
)

// Transactor implements ports.Transactor on a pgx pool.
type Transactor struct {
	pool Pool
}

// NewTransactor creates a new Transactor wrapping the connection pool.
func NewTransactor(pool Pool) *Transactor {
	return &Transactor{pool: pool}
}

// Begin starts a new database transaction.
func (t *Transactor) Begin(ctx context.Context) (ports.Tx, error) {
	tx, err := t.pool.Begin(ctx)
	if err != nil {
		return nil, fmt.Errorf("begin tx: %w", err)
	}
	return &pgTx{tx: tx}, nil
}

// pgTx adapts pgx.Tx to ports.Tx.
type pgTx struct {
	tx pgx.Tx
}

func (t *pgTx) Commit(ctx context.Context) error {
	return t.tx.Commit(ctx)
}

// Rollback discards the transaction. Rollback after Commit is a no-op so the
// engine can defer it unconditionally.
func (t *pgTx) Rollback(ctx context.Context) error {
	if err := t.tx.Rollback(ctx); err != nil && !errors.Is(err, pgx.ErrTxClosed) {
		return err
	}
	return nil
}

// ownTx unwraps a ports.Tx handed back to a postgres repository.
func ownTx(tx ports.Tx) (pgx.Tx, error) {
	t, ok := tx.(*pgTx)
	if !ok {
		return nil, fmt.Errorf("postgres store requires a postgres transaction, got %T", tx)
	}
	return t.tx, nil
}
