package service

import (
	"context"
	"fmt"
	"strings"
	"time"

	"multiledger/internal/core/domain"
	"multiledger/internal/core/ports"
	"multiledger/pkg/apperror"

	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"
)

const defaultBalanceCacheTTL = 30 * time.Second

// Query implements ports.QueryService. Reads go straight to the stores and
// never touch the engine's wallet locks. A never-seen wallet reads as zero
// and an empty history is a valid result, not an error.
type Query struct {
	wallets  ports.WalletStore
	ledger   ports.LedgerLog
	cache    ports.BalanceCache // nil = caching disabled
	cacheTTL time.Duration
	log      zerolog.Logger
}

// NewQuery creates a new Query service.
func NewQuery(
	wallets ports.WalletStore,
	ledger ports.LedgerLog,
	cache ports.BalanceCache,
	cacheTTL time.Duration,
	log zerolog.Logger,
) *Query {
	if cacheTTL <= 0 {
		cacheTTL = defaultBalanceCacheTTL
	}
	return &Query{
		wallets:  wallets,
		ledger:   ledger,
		cache:    cache,
		cacheTTL: cacheTTL,
		log:      log,
	}
}

var _ ports.QueryService = (*Query)(nil)

// Balance returns the wallet's balance, zero if the wallet was never touched.
func (q *Query) Balance(ctx context.Context, userID int64, currency string) (decimal.Decimal, error) {
	if userID < 1 {
		return decimal.Zero, apperror.ErrInvalidInput("user_id must be a positive integer")
	}
	currency = strings.ToUpper(strings.TrimSpace(currency))

	balance, err := q.wallets.Get(ctx, userID, currency)
	if err != nil {
		return decimal.Zero, apperror.InternalError(fmt.Errorf("get balance: %w", err))
	}
	return balance, nil
}

// AllBalances returns every currency balance the user holds, consulting the
// cache first when one is configured. Cache failures degrade to a store read.
func (q *Query) AllBalances(ctx context.Context, userID int64) (map[string]decimal.Decimal, error) {
	if userID < 1 {
		return nil, apperror.ErrInvalidInput("user_id must be a positive integer")
	}

	if q.cache != nil {
		cached, err := q.cache.Get(ctx, userID)
		if err != nil {
			q.log.Warn().Err(err).Int64("user_id", userID).Msg("balance cache read failed, falling through to store")
		} else if cached != nil {
			return cached, nil
		}
	}

	balances, err := q.wallets.GetAll(ctx, userID)
	if err != nil {
		return nil, apperror.InternalError(fmt.Errorf("get balances: %w", err))
	}

	if q.cache != nil {
		if err := q.cache.Set(ctx, userID, balances, q.cacheTTL); err != nil {
			q.log.Warn().Err(err).Int64("user_id", userID).Msg("failed to cache balances")
		}
	}
	return balances, nil
}

// History returns the user's full transaction history ordered by
// (currency ASC, sequence ASC).
func (q *Query) History(ctx context.Context, userID int64) ([]domain.TransactionRecord, error) {
	if userID < 1 {
		return nil, apperror.ErrInvalidInput("user_id must be a positive integer")
	}

	records, err := q.ledger.ListByUser(ctx, userID)
	if err != nil {
		return nil, apperror.InternalError(fmt.Errorf("list history: %w", err))
	}
	return records, nil
}
