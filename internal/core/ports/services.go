package ports

import (
	"context"
	"time"

	"multiledger/internal/core/domain"

	"github.com/shopspring/decimal"
)

// TransactionEngine orchestrates the write path: validation, per-wallet
// exclusivity, balance mutation and ledger append, committed atomically.
type TransactionEngine interface {
	Deposit(ctx context.Context, userID int64, currency string, amount decimal.Decimal) (*domain.TransactionRecord, error)
	Withdraw(ctx context.Context, userID int64, currency string, amount decimal.Decimal) (*domain.TransactionRecord, error)
}

// QueryService is the read path. Queries never wait behind wallet locks and
// treat missing data as valid empty results.
type QueryService interface {
	Balance(ctx context.Context, userID int64, currency string) (decimal.Decimal, error)
	AllBalances(ctx context.Context, userID int64) (map[string]decimal.Decimal, error)
	History(ctx context.Context, userID int64) ([]domain.TransactionRecord, error)
}

// BalanceCache caches the all-balances projection for a user. Implementations
// are best-effort: callers log and fall through on cache errors.
type BalanceCache interface {
	// Get returns the cached balances, or nil on a miss.
	Get(ctx context.Context, userID int64) (map[string]decimal.Decimal, error)
	Set(ctx context.Context, userID int64, balances map[string]decimal.Decimal, ttl time.Duration) error
	Invalidate(ctx context.Context, userID int64) error
}
