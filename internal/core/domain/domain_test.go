package domain_test

import (
	"testing"

	"multiledger/internal/core/domain"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
)

func dec(s string) decimal.Decimal {
	d, err := decimal.NewFromString(s)
	if err != nil {
		panic(err)
	}
	return d
}

func TestTransactionRecord_Key(t *testing.T) {
	rec := domain.TransactionRecord{UserID: 42, Currency: "USD"}
	assert.Equal(t, domain.WalletKey{UserID: 42, Currency: "USD"}, rec.Key())
}

func TestTransactionRecord_Consistent(t *testing.T) {
	deposit := domain.TransactionRecord{
		PrevBalance: dec("0"),
		Debit:       dec("0"),
		Credit:      dec("100.00"),
		NewBalance:  dec("100.00"),
	}
	assert.True(t, deposit.Consistent())

	withdrawal := domain.TransactionRecord{
		PrevBalance: dec("100.00"),
		Debit:       dec("30.00"),
		Credit:      dec("0"),
		NewBalance:  dec("70.00"),
	}
	assert.True(t, withdrawal.Consistent())

	corrupt := domain.TransactionRecord{
		PrevBalance: dec("100.00"),
		Debit:       dec("30.00"),
		Credit:      dec("0"),
		NewBalance:  dec("71.00"),
	}
	assert.False(t, corrupt.Consistent())
}

func TestWallet_Key(t *testing.T) {
	w := domain.Wallet{UserID: 7, Currency: "EUR", Balance: dec("12.50")}
	assert.Equal(t, domain.WalletKey{UserID: 7, Currency: "EUR"}, w.Key())
}
