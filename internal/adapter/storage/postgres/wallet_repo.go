package postgres

import (
	"context"
	"errors"
	"fmt"

	"multiledger/internal/core/domain"
	"multiledger/internal/core/ports"

	"github.com/jackc/pgx/v5"
	"github.com/shopspring/decimal"
)

// WalletRepo implements ports.WalletStore on PostgreSQL.
type WalletRepo struct {
	pool Pool
}

// NewWalletRepo creates a new WalletRepo.
func NewWalletRepo(pool Pool) *WalletRepo {
	return &WalletRepo{pool: pool}
}

var _ ports.WalletStore = (*WalletRepo)(nil)

// Get returns the wallet's balance without locking. A wallet that has never
// been created reads as zero.
func (r *WalletRepo) Get(ctx context.Context, userID int64, currency string) (decimal.Decimal, error) {
	query := `SELECT balance FROM wallets WHERE user_id = $1 AND currency = $2`

	var balance decimal.Decimal
	err := r.pool.QueryRow(ctx, query, userID, currency).Scan(&balance)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return decimal.Zero, nil
		}
		return decimal.Zero, fmt.Errorf("get wallet balance: %w", err)
	}
	return balance, nil
}

// GetAll returns every currency balance the user holds.
func (r *WalletRepo) GetAll(ctx context.Context, userID int64) (map[string]decimal.Decimal, error) {
	query := `SELECT currency, balance FROM wallets WHERE user_id = $1`

	rows, err := r.pool.Query(ctx, query, userID)
	if err != nil {
		return nil, fmt.Errorf("list wallets: %w", err)
	}
	defer rows.Close()

	out := make(map[string]decimal.Decimal)
	for rows.Next() {
		var currency string
		var balance decimal.Decimal
		if err := rows.Scan(&currency, &balance); err != nil {
			return nil, fmt.Errorf("scan wallet: %w", err)
		}
		out[currency] = balance
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("list wallets: %w", err)
	}
	return out, nil
}

// ApplyDelta adds delta to the wallet's balance inside tx, creating the
// wallet at zero if absent. The row is locked FOR UPDATE for the remainder
// of the transaction.
func (r *WalletRepo) ApplyDelta(ctx context.Context, tx ports.Tx, userID int64, currency string, delta decimal.Decimal) (decimal.Decimal, error) {
	dbTx, err := ownTx(tx)
	if err != nil {
		return decimal.Zero, err
	}

	// Lazy creation on first movement.
	insert := `INSERT INTO wallets (user_id, currency, balance) VALUES ($1, $2, 0)
		ON CONFLICT (user_id, currency) DO NOTHING`
	if _, err := dbTx.Exec(ctx, insert, userID, currency); err != nil {
		return decimal.Zero, fmt.Errorf("ensure wallet: %w", err)
	}

	var balance decimal.Decimal
	lock := `SELECT balance FROM wallets WHERE user_id = $1 AND currency = $2 FOR UPDATE`
	if err := dbTx.QueryRow(ctx, lock, userID, currency).Scan(&balance); err != nil {
		return decimal.Zero, fmt.Errorf("lock wallet: %w", err)
	}

	next := balance.Add(delta)
	if next.IsNegative() {
		return decimal.Zero, domain.ErrInsufficientFunds
	}

	update := `UPDATE wallets SET balance = $3, updated_at = NOW() WHERE user_id = $1 AND currency = $2`
	tag, err := dbTx.Exec(ctx, update, userID, currency, next)
	if err != nil {
		return decimal.Zero, fmt.Errorf("update wallet balance: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return decimal.Zero, fmt.Errorf("wallet %d/%s vanished during update", userID, currency)
	}
	return next, nil
}
