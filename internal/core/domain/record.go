package domain

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// Movement source/destination labels. A deposit moves external -> wallet,
// a withdrawal moves wallet -> external.
const (
	LabelExternal = "external"
	LabelWallet   = "wallet"
)

// TransactionRecord is an immutable ledger entry capturing one committed
// balance movement. Sequence is the per-wallet monotonic position of the
// record; sequences are gapless and reflect true commit order.
type TransactionRecord struct {
	TxnID       uuid.UUID       `json:"txn_id"`
	UserID      int64           `json:"user_id"`
	Currency    string          `json:"currency"`
	Sequence    int64           `json:"sequence"`
	From        string          `json:"from"`
	To          string          `json:"to"`
	PrevBalance decimal.Decimal `json:"prev_balance"`
	Debit       decimal.Decimal `json:"debit"`
	Credit      decimal.Decimal `json:"credit"`
	NewBalance  decimal.Decimal `json:"new_balance"`
	CreatedAt   time.Time       `json:"time"`
}

// Key returns the identity of the wallet this record belongs to.
func (r *TransactionRecord) Key() WalletKey {
	return WalletKey{UserID: r.UserID, Currency: r.Currency}
}

// Consistent reports whether the record's balance arithmetic holds:
// new_balance == prev_balance - debit + credit.
func (r *TransactionRecord) Consistent() bool {
	return r.PrevBalance.Sub(r.Debit).Add(r.Credit).Equal(r.NewBalance)
}
