package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"multiledger/internal/core/domain"
	"multiledger/internal/core/ports"
	"multiledger/pkg/apperror"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"
)

const defaultLockTimeout = 5 * time.Second

// Engine implements ports.TransactionEngine. Deposits and withdrawals on the
// same wallet are strictly serialized behind a per-wallet semaphore; each
// movement either fully commits (balance mutated and record appended) or
// fully fails.
type Engine struct {
	wallets     ports.WalletStore
	ledger      ports.LedgerLog
	transactor  ports.Transactor
	cache       ports.BalanceCache // nil = caching disabled
	locks       *walletLocks
	lockTimeout time.Duration
	log         zerolog.Logger
}

// NewEngine creates a new Engine. lockTimeout bounds how long a movement
// waits for a busy wallet; zero or negative selects the default.
func NewEngine(
	wallets ports.WalletStore,
	ledger ports.LedgerLog,
	transactor ports.Transactor,
	cache ports.BalanceCache,
	lockTimeout time.Duration,
	log zerolog.Logger,
) *Engine {
	if lockTimeout <= 0 {
		lockTimeout = defaultLockTimeout
	}
	return &Engine{
		wallets:     wallets,
		ledger:      ledger,
		transactor:  transactor,
		cache:       cache,
		locks:       newWalletLocks(),
		lockTimeout: lockTimeout,
		log:         log,
	}
}

var _ ports.TransactionEngine = (*Engine)(nil)

// Deposit credits amount to the wallet, creating it on first use.
func (e *Engine) Deposit(ctx context.Context, userID int64, currency string, amount decimal.Decimal) (*domain.TransactionRecord, error) {
	return e.execute(ctx, userID, currency, amount, false)
}

// Withdraw debits amount from the wallet. Fails with InsufficientFunds if
// the balance would go negative; the wallet and its history are untouched.
func (e *Engine) Withdraw(ctx context.Context, userID int64, currency string, amount decimal.Decimal) (*domain.TransactionRecord, error) {
	return e.execute(ctx, userID, currency, amount, true)
}

func (e *Engine) execute(ctx context.Context, userID int64, currency string, amount decimal.Decimal, withdraw bool) (*domain.TransactionRecord, error) {
	currency = strings.ToUpper(strings.TrimSpace(currency))
	if err := validateMovement(userID, currency, amount); err != nil {
		return nil, err
	}

	key := domain.WalletKey{UserID: userID, Currency: currency}

	lockCtx, cancel := context.WithTimeout(ctx, e.lockTimeout)
	defer cancel()
	if err := e.locks.acquire(lockCtx, key); err != nil {
		return nil, apperror.ErrLockTimeout(err)
	}
	defer e.locks.release(key)

	tx, err := e.transactor.Begin(ctx)
	if err != nil {
		return nil, apperror.InternalError(fmt.Errorf("begin tx: %w", err))
	}
	defer tx.Rollback(ctx) //nolint:errcheck

	delta := amount
	if withdraw {
		delta = amount.Neg()
	}

	newBalance, err := e.wallets.ApplyDelta(ctx, tx, userID, currency, delta)
	if err != nil {
		if errors.Is(err, domain.ErrInsufficientFunds) {
			return nil, apperror.ErrInsufficientFunds()
		}
		return nil, apperror.InternalError(fmt.Errorf("apply delta: %w", err))
	}

	rec := &domain.TransactionRecord{
		TxnID:       uuid.New(),
		UserID:      userID,
		Currency:    currency,
		From:        domain.LabelExternal,
		To:          domain.LabelWallet,
		PrevBalance: newBalance.Sub(delta),
		Credit:      amount,
		Debit:       decimal.Zero,
		NewBalance:  newBalance,
		CreatedAt:   time.Now().UTC(),
	}
	if withdraw {
		rec.From, rec.To = domain.LabelWallet, domain.LabelExternal
		rec.Debit, rec.Credit = amount, decimal.Zero
	}

	seq, err := e.ledger.Append(ctx, tx, rec)
	if err != nil {
		if errors.Is(err, domain.ErrLedgerConflict) {
			e.log.Error().Err(err).Int64("user_id", userID).Str("currency", currency).
				Msg("sequence conflict despite wallet lock")
			return nil, apperror.ErrLedgerConflict(err)
		}
		return nil, apperror.InternalError(fmt.Errorf("append record: %w", err))
	}
	rec.Sequence = seq

	if err := tx.Commit(ctx); err != nil {
		if errors.Is(err, domain.ErrLedgerConflict) {
			e.log.Error().Err(err).Int64("user_id", userID).Str("currency", currency).
				Msg("sequence conflict despite wallet lock")
			return nil, apperror.ErrLedgerConflict(err)
		}
		return nil, apperror.InternalError(fmt.Errorf("commit tx: %w", err))
	}

	// Post-commit: drop the cached balance projection (best-effort).
	if e.cache != nil {
		if err := e.cache.Invalidate(ctx, userID); err != nil {
			e.log.Warn().Err(err).Int64("user_id", userID).Msg("failed to invalidate balance cache")
		}
	}

	op := "deposit"
	if withdraw {
		op = "withdraw"
	}
	e.log.Info().
		Str("txn_id", rec.TxnID.String()).
		Str("op", op).
		Int64("user_id", userID).
		Str("currency", currency).
		Str("amount", amount.StringFixed(2)).
		Str("new_balance", newBalance.StringFixed(2)).
		Int64("seq", seq).
		Msg("movement committed")

	return rec, nil
}

// validateMovement enforces the write-path input contract: positive integer
// user, 3+ character currency, strictly positive amount at two-decimal
// precision.
func validateMovement(userID int64, currency string, amount decimal.Decimal) *apperror.AppError {
	if userID < 1 {
		return apperror.ErrInvalidInput("user_id must be a positive integer")
	}
	if len(currency) < 3 {
		return apperror.ErrInvalidInput("currency must be at least 3 characters")
	}
	if !amount.IsPositive() {
		return apperror.ErrInvalidInput("amount must be greater than zero")
	}
	if amount.Exponent() < -2 {
		return apperror.ErrInvalidInput("amount precision is limited to two decimal places")
	}
	return nil
}
