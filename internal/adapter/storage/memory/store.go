package memory

import (
	"context"
	"fmt"
	"sort"
	"sync"

	"multiledger/internal/core/domain"
	"multiledger/internal/core/ports"

	"github.com/shopspring/decimal"
)

// Store is the in-memory storage driver. One Store backs all three storage
// ports: WalletStore, LedgerLog and Transactor.
//
// Writes are staged on a transaction and published under a single short
// write-lock in Commit, so a reader always observes a balance together with
// the record that produced it, never one without the other. Readers only take
// the read lock; they never wait behind a wallet's engine-level exclusivity.
type Store struct {
	mu       sync.RWMutex
	balances map[domain.WalletKey]decimal.Decimal
	ledgers  map[domain.WalletKey][]domain.TransactionRecord
}

// NewStore creates an empty in-memory store.
func NewStore() *Store {
	return &Store{
		balances: make(map[domain.WalletKey]decimal.Decimal),
		ledgers:  make(map[domain.WalletKey][]domain.TransactionRecord),
	}
}

var (
	_ ports.WalletStore = (*Store)(nil)
	_ ports.LedgerLog   = (*Store)(nil)
	_ ports.Transactor  = (*Store)(nil)
)

// storeTx stages at most one wallet mutation and one ledger append.
type storeTx struct {
	store *Store

	key      domain.WalletKey
	hasDelta bool
	prev     decimal.Decimal
	next     decimal.Decimal

	rec *domain.TransactionRecord

	done bool
}

// Begin starts a staged transaction.
func (s *Store) Begin(ctx context.Context) (ports.Tx, error) {
	return &storeTx{store: s}, nil
}

// Commit publishes the staged balance and record atomically. It re-verifies
// the balance snapshot and the next sequence number under the write lock;
// a mismatch means a concurrent writer raced past the engine's wallet lock
// and the commit is refused with domain.ErrLedgerConflict.
func (t *storeTx) Commit(ctx context.Context) error {
	if t.done {
		return fmt.Errorf("transaction already finished")
	}
	t.done = true

	if !t.hasDelta && t.rec == nil {
		return nil
	}

	s := t.store
	s.mu.Lock()
	defer s.mu.Unlock()

	if t.hasDelta && !s.balances[t.key].Equal(t.prev) {
		return domain.ErrLedgerConflict
	}
	if t.rec != nil {
		want := int64(len(s.ledgers[t.rec.Key()])) + 1
		if t.rec.Sequence != want {
			return domain.ErrLedgerConflict
		}
	}

	if t.hasDelta {
		s.balances[t.key] = t.next
	}
	if t.rec != nil {
		key := t.rec.Key()
		s.ledgers[key] = append(s.ledgers[key], *t.rec)
	}
	return nil
}

// Rollback discards staged work. Safe to call after Commit.
func (t *storeTx) Rollback(ctx context.Context) error {
	t.done = true
	t.hasDelta = false
	t.rec = nil
	return nil
}

// Get returns the wallet's balance, zero if it has never been created.
func (s *Store) Get(ctx context.Context, userID int64, currency string) (decimal.Decimal, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.balances[domain.WalletKey{UserID: userID, Currency: currency}], nil
}

// GetAll returns every currency balance held by the user.
func (s *Store) GetAll(ctx context.Context, userID int64) (map[string]decimal.Decimal, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make(map[string]decimal.Decimal)
	for key, balance := range s.balances {
		if key.UserID == userID {
			out[key.Currency] = balance
		}
	}
	return out, nil
}

// ApplyDelta stages a balance change on tx. Nothing is visible until Commit.
func (s *Store) ApplyDelta(ctx context.Context, tx ports.Tx, userID int64, currency string, delta decimal.Decimal) (decimal.Decimal, error) {
	t, err := s.ownTx(tx)
	if err != nil {
		return decimal.Zero, err
	}
	if t.hasDelta {
		return decimal.Zero, fmt.Errorf("transaction already carries a balance change")
	}

	key := domain.WalletKey{UserID: userID, Currency: currency}

	s.mu.RLock()
	current := s.balances[key]
	s.mu.RUnlock()

	next := current.Add(delta)
	if next.IsNegative() {
		return decimal.Zero, domain.ErrInsufficientFunds
	}

	t.key = key
	t.hasDelta = true
	t.prev = current
	t.next = next
	return next, nil
}

// Append stages rec on tx and returns the sequence number it will commit
// under.
func (s *Store) Append(ctx context.Context, tx ports.Tx, rec *domain.TransactionRecord) (int64, error) {
	t, err := s.ownTx(tx)
	if err != nil {
		return 0, err
	}
	if t.rec != nil {
		return 0, fmt.Errorf("transaction already carries a ledger record")
	}
	if t.hasDelta && t.key != rec.Key() {
		return 0, fmt.Errorf("record wallet %v does not match staged balance change %v", rec.Key(), t.key)
	}

	s.mu.RLock()
	last := int64(len(s.ledgers[rec.Key()]))
	s.mu.RUnlock()

	staged := *rec
	staged.Sequence = last + 1
	t.rec = &staged
	return staged.Sequence, nil
}

// ListByUser returns all of the user's records ordered by
// (currency ASC, sequence ASC).
func (s *Store) ListByUser(ctx context.Context, userID int64) ([]domain.TransactionRecord, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	currencies := make([]string, 0)
	for key := range s.ledgers {
		if key.UserID == userID {
			currencies = append(currencies, key.Currency)
		}
	}
	sort.Strings(currencies)

	out := make([]domain.TransactionRecord, 0)
	for _, currency := range currencies {
		out = append(out, s.ledgers[domain.WalletKey{UserID: userID, Currency: currency}]...)
	}
	return out, nil
}

func (s *Store) ownTx(tx ports.Tx) (*storeTx, error) {
	t, ok := tx.(*storeTx)
	if !ok || t.store != s {
		return nil, fmt.Errorf("memory store requires its own transaction, got %T", tx)
	}
	if t.done {
		return nil, fmt.Errorf("transaction already finished")
	}
	return t, nil
}
