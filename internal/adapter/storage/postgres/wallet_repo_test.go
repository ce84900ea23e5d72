package postgres

import (
	"context"
	"testing"

	"multiledger/internal/core/domain"

	"github.com/pashagolub/pgxmock/v3"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func dec(s string) decimal.Decimal {
	d, err := decimal.NewFromString(s)
	if err != nil {
		panic(err)
	}
	return d
}

func TestWalletRepo_GetReturnsBalance(t *testing.T) {
	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	defer mock.Close()

	repo := NewWalletRepo(mock)

	mock.ExpectQuery("SELECT balance FROM wallets").
		WithArgs(int64(1), "USD").
		WillReturnRows(pgxmock.NewRows([]string{"balance"}).AddRow(dec("42.50")))

	balance, err := repo.Get(context.Background(), 1, "USD")
	require.NoError(t, err)
	assert.True(t, balance.Equal(dec("42.50")))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestWalletRepo_GetUnknownWalletIsZero(t *testing.T) {
	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	defer mock.Close()

	repo := NewWalletRepo(mock)

	mock.ExpectQuery("SELECT balance FROM wallets").
		WithArgs(int64(7), "EUR").
		WillReturnRows(pgxmock.NewRows([]string{"balance"}))

	balance, err := repo.Get(context.Background(), 7, "EUR")
	require.NoError(t, err)
	assert.True(t, balance.IsZero())
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestWalletRepo_GetAll(t *testing.T) {
	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	defer mock.Close()

	repo := NewWalletRepo(mock)

	mock.ExpectQuery("SELECT currency, balance FROM wallets").
		WithArgs(int64(1)).
		WillReturnRows(pgxmock.NewRows([]string{"currency", "balance"}).
			AddRow("EUR", dec("5.00")).
			AddRow("USD", dec("100.00")))

	balances, err := repo.GetAll(context.Background(), 1)
	require.NoError(t, err)
	require.Len(t, balances, 2)
	assert.True(t, balances["USD"].Equal(dec("100.00")))
	assert.True(t, balances["EUR"].Equal(dec("5.00")))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestWalletRepo_ApplyDeltaCreditsLockedRow(t *testing.T) {
	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	defer mock.Close()

	repo := NewWalletRepo(mock)
	transactor := NewTransactor(mock)
	ctx := context.Background()

	mock.ExpectBegin()
	mock.ExpectExec("INSERT INTO wallets").
		WithArgs(int64(1), "USD").
		WillReturnResult(pgxmock.NewResult("INSERT", 0))
	mock.ExpectQuery("SELECT balance FROM wallets .+ FOR UPDATE").
		WithArgs(int64(1), "USD").
		WillReturnRows(pgxmock.NewRows([]string{"balance"}).AddRow(dec("40.00")))
	mock.ExpectExec("UPDATE wallets SET balance").
		WithArgs(int64(1), "USD", dec("100.00")).
		WillReturnResult(pgxmock.NewResult("UPDATE", 1))
	mock.ExpectCommit()

	tx, err := transactor.Begin(ctx)
	require.NoError(t, err)

	next, err := repo.ApplyDelta(ctx, tx, 1, "USD", dec("60.00"))
	require.NoError(t, err)
	assert.True(t, next.Equal(dec("100.00")))

	require.NoError(t, tx.Commit(ctx))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestWalletRepo_ApplyDeltaRejectsOverdraft(t *testing.T) {
	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	defer mock.Close()

	repo := NewWalletRepo(mock)
	transactor := NewTransactor(mock)
	ctx := context.Background()

	mock.ExpectBegin()
	mock.ExpectExec("INSERT INTO wallets").
		WithArgs(int64(1), "USD").
		WillReturnResult(pgxmock.NewResult("INSERT", 0))
	mock.ExpectQuery("SELECT balance FROM wallets .+ FOR UPDATE").
		WithArgs(int64(1), "USD").
		WillReturnRows(pgxmock.NewRows([]string{"balance"}).AddRow(dec("10.00")))
	mock.ExpectRollback()

	tx, err := transactor.Begin(ctx)
	require.NoError(t, err)

	_, err = repo.ApplyDelta(ctx, tx, 1, "USD", dec("-10.01"))
	assert.ErrorIs(t, err, domain.ErrInsufficientFunds)

	require.NoError(t, tx.Rollback(ctx))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestWalletRepo_ApplyDeltaRejectsForeignTx(t *testing.T) {
	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	defer mock.Close()

	repo := NewWalletRepo(mock)

	_, err = repo.ApplyDelta(context.Background(), nil, 1, "USD", dec("5.00"))
	assert.Error(t, err)
}
