package domain

import (
	"time"

	"github.com/shopspring/decimal"
)

// WalletKey identifies a single (user, currency) balance.
type WalletKey struct {
	UserID   int64
	Currency string
}

// Wallet represents a per-user, per-currency balance. Wallets are created
// lazily on first deposit and never deleted; the balance is mutated only by
// the transaction engine while it holds the wallet's exclusivity.
type Wallet struct {
	UserID    int64           `json:"user_id"`
	Currency  string          `json:"currency"`
	Balance   decimal.Decimal `json:"balance"`
	UpdatedAt time.Time       `json:"updated_at"`
}

// Key returns the wallet's identity.
func (w *Wallet) Key() WalletKey {
	return WalletKey{UserID: w.UserID, Currency: w.Currency}
}
