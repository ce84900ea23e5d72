package dto

import (
	"sort"
	"time"

	"multiledger/internal/core/domain"

	"github.com/shopspring/decimal"
)

// MovementRequest is the request body for POST /deposit and POST /withdraw.
// Amount accepts JSON numbers and numeric strings; sign and precision are
// enforced by the engine.
type MovementRequest struct {
	UserID   int64           `json:"user_id" binding:"required"`
	Currency string          `json:"currency" binding:"required"`
	Amount   decimal.Decimal `json:"amount" binding:"required"`
}

// MovementResponse is the success body for a committed movement.
type MovementResponse struct {
	Status     string `json:"status"`
	Currency   string `json:"currency"`
	NewBalance string `json:"new_balance"`
}

// WalletBalance is one entry of the balances listing.
type WalletBalance struct {
	Currency string `json:"currency"`
	Balance  string `json:"balance"`
}

// BalancesResponse is the body for GET /balance/{user_id}. A user with no
// wallets gets an empty list, not an error.
type BalancesResponse struct {
	UserID  int64           `json:"user_id"`
	Wallets []WalletBalance `json:"wallets"`
}

// TransactionRecord is the wire rendering of a ledger entry. All amount
// fields are always present, formatted with two decimal places.
type TransactionRecord struct {
	TxnID       string `json:"txn_id"`
	UserID      int64  `json:"user_id"`
	Currency    string `json:"currency"`
	Sequence    int64  `json:"sequence"`
	From        string `json:"from"`
	To          string `json:"to"`
	PrevBalance string `json:"prev_balance"`
	Debit       string `json:"debit"`
	Credit      string `json:"credit"`
	NewBalance  string `json:"new_balance"`
	Time        string `json:"time"`
}

// TransactionsResponse is the body for GET /transactions/{user_id}.
type TransactionsResponse struct {
	Transactions []TransactionRecord `json:"transactions"`
}

// NewMovementResponse renders a committed record as a movement response.
func NewMovementResponse(rec *domain.TransactionRecord) MovementResponse {
	return MovementResponse{
		Status:     "SUCCESS",
		Currency:   rec.Currency,
		NewBalance: rec.NewBalance.StringFixed(2),
	}
}

// NewBalancesResponse renders the balances map with currencies in
// lexicographic order.
func NewBalancesResponse(userID int64, balances map[string]decimal.Decimal) BalancesResponse {
	currencies := make([]string, 0, len(balances))
	for currency := range balances {
		currencies = append(currencies, currency)
	}
	sort.Strings(currencies)

	wallets := make([]WalletBalance, 0, len(currencies))
	for _, currency := range currencies {
		wallets = append(wallets, WalletBalance{
			Currency: currency,
			Balance:  balances[currency].StringFixed(2),
		})
	}
	return BalancesResponse{UserID: userID, Wallets: wallets}
}

// NewTransactionRecord renders a single ledger entry.
func NewTransactionRecord(rec domain.TransactionRecord) TransactionRecord {
	return TransactionRecord{
		TxnID:       rec.TxnID.String(),
		UserID:      rec.UserID,
		Currency:    rec.Currency,
		Sequence:    rec.Sequence,
		From:        rec.From,
		To:          rec.To,
		PrevBalance: rec.PrevBalance.StringFixed(2),
		Debit:       rec.Debit.StringFixed(2),
		Credit:      rec.Credit.StringFixed(2),
		NewBalance:  rec.NewBalance.StringFixed(2),
		Time:        rec.CreatedAt.UTC().Format(time.RFC3339),
	}
}

// NewTransactionsResponse renders a history listing.
func NewTransactionsResponse(records []domain.TransactionRecord) TransactionsResponse {
	out := make([]TransactionRecord, 0, len(records))
	for _, rec := range records {
		out = append(out, NewTransactionRecord(rec))
	}
	return TransactionsResponse{Transactions: out}
}
