package postgres

import (
	"context"
	"errors"
	"fmt"

	"multiledger/internal/core/domain"
	"multiledger/internal/core/ports"

	"github.com/jackc/pgx/v5/pgconn"
)

// LedgerRepo implements ports.LedgerLog on PostgreSQL. The
// (user_id, currency, seq) primary key makes the per-wallet sequence gapless
// and strictly increasing at the schema level.
type LedgerRepo struct {
	pool Pool
}

// NewLedgerRepo creates a new LedgerRepo.
func NewLedgerRepo(pool Pool) *LedgerRepo {
	return &LedgerRepo{pool: pool}
}

var _ ports.LedgerLog = (*LedgerRepo)(nil)

// Append inserts rec as the next entry for its wallet inside tx. The wallet
// row is already locked FOR UPDATE by ApplyDelta, so MAX(seq)+1 is stable for
// the duration of the transaction; a 23505 means a writer bypassed the
// wallet lock and the append is refused.
func (r *LedgerRepo) Append(ctx context.Context, tx ports.Tx, rec *domain.TransactionRecord) (int64, error) {
	dbTx, err := ownTx(tx)
	if err != nil {
		return 0, err
	}

	var last int64
	seqQuery := `SELECT COALESCE(MAX(seq), 0) FROM ledger_entries WHERE user_id = $1 AND currency = $2`
	if err := dbTx.QueryRow(ctx, seqQuery, rec.UserID, rec.Currency).Scan(&last); err != nil {
		return 0, fmt.Errorf("read last sequence: %w", err)
	}
	seq := last + 1

	insert := `INSERT INTO ledger_entries
		(txn_id, user_id, currency, seq, from_label, to_label, prev_balance, debit, credit, new_balance, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)`

	_, err = dbTx.Exec(ctx, insert,
		rec.TxnID, rec.UserID, rec.Currency, seq,
		rec.From, rec.To,
		rec.PrevBalance, rec.Debit, rec.Credit, rec.NewBalance,
		rec.CreatedAt,
	)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == "23505" {
			return 0, domain.ErrLedgerConflict
		}
		return 0, fmt.Errorf("insert ledger entry: %w", err)
	}
	return seq, nil
}

// ListByUser returns all of the user's records ordered by
// (currency ASC, seq ASC).
func (r *LedgerRepo) ListByUser(ctx context.Context, userID int64) ([]domain.TransactionRecord, error) {
	query := `SELECT txn_id, user_id, currency, seq, from_label, to_label, prev_balance, debit, credit, new_balance, created_at
		FROM ledger_entries WHERE user_id = $1 ORDER BY currency ASC, seq ASC`

	rows, err := r.pool.Query(ctx, query, userID)
	if err != nil {
		return nil, fmt.Errorf("list ledger entries: %w", err)
	}
	defer rows.Close()

	out := make([]domain.TransactionRecord, 0)
	for rows.Next() {
		var rec domain.TransactionRecord
		if err := rows.Scan(
			&rec.TxnID, &rec.UserID, &rec.Currency, &rec.Sequence,
			&rec.From, &rec.To,
			&rec.PrevBalance, &rec.Debit, &rec.Credit, &rec.NewBalance,
			&rec.CreatedAt,
		); err != nil {
			return nil, fmt.Errorf("scan ledger entry: %w", err)
		}
		out = append(out, rec)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("list ledger entries: %w", err)
	}
	return out, nil
}
