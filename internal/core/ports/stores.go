package ports

import (
	"context"

	"multiledger/internal/core/domain"

	"github.com/shopspring/decimal"
)

// Tx is a staged unit of work against the wallet and ledger stores. Mutations
// requested through ApplyDelta and Append become visible to readers only when
// Commit returns nil; Rollback discards them. Rollback after a successful
// Commit is a no-op, so it is safe to defer.
type Tx interface {
	Commit(ctx context.Context) error
	Rollback(ctx context.Context) error
}

// Transactor begins store transactions. Both storage drivers implement it:
// the memory driver stages in-process, the postgres driver wraps pgx
// transactions.
type Transactor interface {
	Begin(ctx context.Context) (Tx, error)
}

// WalletStore is the durable mapping of (user_id, currency) -> balance.
type WalletStore interface {
	// Get returns the wallet's balance, or zero for a wallet that has never
	// been created. It never fails for a structurally valid key.
	Get(ctx context.Context, userID int64, currency string) (decimal.Decimal, error)

	// GetAll returns every currency balance the user holds. A user with no
	// wallets yields an empty map.
	GetAll(ctx context.Context, userID int64) (map[string]decimal.Decimal, error)

	// ApplyDelta stages delta (positive credit, negative debit) against the
	// wallet's balance inside tx, creating the wallet at zero if absent.
	// Returns domain.ErrInsufficientFunds if the result would be negative;
	// nothing is staged in that case.
	ApplyDelta(ctx context.Context, tx Tx, userID int64, currency string, delta decimal.Decimal) (decimal.Decimal, error)
}

// LedgerLog is the append-only, strictly ordered transaction history.
type LedgerLog interface {
	// Append stages rec as the next entry for its wallet inside tx and
	// returns the sequence number it will commit under: exactly one greater
	// than the wallet's last recorded sequence, or 1 for the first entry.
	// A racing append surfaces as domain.ErrLedgerConflict.
	Append(ctx context.Context, tx Tx, rec *domain.TransactionRecord) (int64, error)

	// ListByUser returns all committed records across the user's wallets,
	// ordered by (currency ASC, sequence ASC). No records is an empty slice,
	// never an error.
	ListByUser(ctx context.Context, userID int64) ([]domain.TransactionRecord, error)
}
