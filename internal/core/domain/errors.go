package domain

import "errors"

var (
	// ErrInsufficientFunds occurs when a debit would drive a wallet balance
	// negative. The staged transaction is left untouched.
	ErrInsufficientFunds = errors.New("insufficient funds")

	// ErrLedgerConflict indicates a concurrent append raced past the
	// sequence check for the same wallet. Unreachable while the engine holds
	// the wallet's exclusivity; storage refuses the commit regardless.
	ErrLedgerConflict = errors.New("ledger sequence conflict")
)
