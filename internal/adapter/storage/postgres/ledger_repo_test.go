package postgres

import (
	"context"
	"testing"
	"time"

	"multiledger/internal/core/domain"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/pashagolub/pgxmock/v3"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestRecord() *domain.TransactionRecord {
	return &domain.TransactionRecord{
		TxnID:       uuid.New(),
		UserID:      1,
		Currency:    "USD",
		From:        domain.LabelExternal,
		To:          domain.LabelWallet,
		PrevBalance: dec("0"),
		Debit:       dec("0"),
		Credit:      dec("100.00"),
		NewBalance:  dec("100.00"),
		CreatedAt:   time.Now().UTC().Truncate(time.Microsecond),
	}
}

func ledgerColumns() []string {
	return []string{"txn_id", "user_id", "currency", "seq", "from_label", "to_label",
		"prev_balance", "debit", "credit", "new_balance", "created_at"}
}

func TestLedgerRepo_AppendAssignsNextSequence(t *testing.T) {
	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	defer mock.Close()

	repo := NewLedgerRepo(mock)
	transactor := NewTransactor(mock)
	rec := newTestRecord()
	ctx := context.Background()

	mock.ExpectBegin()
	mock.ExpectQuery(`SELECT COALESCE\(MAX\(seq\), 0\) FROM ledger_entries`).
		WithArgs(rec.UserID, rec.Currency).
		WillReturnRows(pgxmock.NewRows([]string{"coalesce"}).AddRow(int64(4)))
	mock.ExpectExec("INSERT INTO ledger_entries").
		WithArgs(rec.TxnID, rec.UserID, rec.Currency, int64(5),
			rec.From, rec.To,
			rec.PrevBalance, rec.Debit, rec.Credit, rec.NewBalance,
			rec.CreatedAt).
		WillReturnResult(pgxmock.NewResult("INSERT", 1))
	mock.ExpectCommit()

	tx, err := transactor.Begin(ctx)
	require.NoError(t, err)

	seq, err := repo.Append(ctx, tx, rec)
	require.NoError(t, err)
	assert.Equal(t, int64(5), seq)

	require.NoError(t, tx.Commit(ctx))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestLedgerRepo_AppendMapsUniqueViolationToConflict(t *testing.T) {
	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	defer mock.Close()

	repo := NewLedgerRepo(mock)
	transactor := NewTransactor(mock)
	rec := newTestRecord()
	ctx := context.Background()

	mock.ExpectBegin()
	mock.ExpectQuery(`SELECT COALESCE\(MAX\(seq\), 0\) FROM ledger_entries`).
		WithArgs(rec.UserID, rec.Currency).
		WillReturnRows(pgxmock.NewRows([]string{"coalesce"}).AddRow(int64(0)))
	mock.ExpectExec("INSERT INTO ledger_entries").
		WithArgs(rec.TxnID, rec.UserID, rec.Currency, int64(1),
			rec.From, rec.To,
			rec.PrevBalance, rec.Debit, rec.Credit, rec.NewBalance,
			rec.CreatedAt).
		WillReturnError(&pgconn.PgError{Code: "23505"})
	mock.ExpectRollback()

	tx, err := transactor.Begin(ctx)
	require.NoError(t, err)

	_, err = repo.Append(ctx, tx, rec)
	assert.ErrorIs(t, err, domain.ErrLedgerConflict)

	require.NoError(t, tx.Rollback(ctx))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestLedgerRepo_ListByUser(t *testing.T) {
	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	defer mock.Close()

	repo := NewLedgerRepo(mock)
	first := newTestRecord()
	first.Sequence = 1
	second := newTestRecord()
	second.Sequence = 2
	second.PrevBalance = dec("100.00")
	second.NewBalance = dec("200.00")

	mock.ExpectQuery("SELECT .+ FROM ledger_entries WHERE user_id").
		WithArgs(int64(1)).
		WillReturnRows(pgxmock.NewRows(ledgerColumns()).
			AddRow(first.TxnID, first.UserID, first.Currency, first.Sequence,
				first.From, first.To, first.PrevBalance, first.Debit, first.Credit,
				first.NewBalance, first.CreatedAt).
			AddRow(second.TxnID, second.UserID, second.Currency, second.Sequence,
				second.From, second.To, second.PrevBalance, second.Debit, second.Credit,
				second.NewBalance, second.CreatedAt))

	records, err := repo.ListByUser(context.Background(), 1)
	require.NoError(t, err)
	require.Len(t, records, 2)
	assert.Equal(t, int64(1), records[0].Sequence)
	assert.Equal(t, int64(2), records[1].Sequence)
	assert.True(t, records[1].PrevBalance.Equal(records[0].NewBalance))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPgTx_RollbackSwallowsTxClosed(t *testing.T) {
	tx := &pgTx{tx: closedTx{}}
	assert.NoError(t, tx.Rollback(context.Background()))
}

// closedTx reports pgx.ErrTxClosed from Rollback, as a committed pgx.Tx does.
type closedTx struct {
	pgx.Tx
}

func (closedTx) Rollback(ctx context.Context) error {
	return pgx.ErrTxClosed
}
