package domain

import (
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
)

func TestBuildRollupKeepsBTCApart(t *testing.T) {
	rollup := BuildRollup("owner-1", []Balance{
		{AccountType: AccountTypeChecking, Currency: CurrencyUSD, Amount: decimal.NewFromInt(100)},
		{AccountType: AccountTypeSavings, Currency: CurrencyUSD, Amount: decimal.NewFromInt(250)},
		{AccountType: AccountTypeChecking, Currency: CurrencyBTC, Amount: decimal.RequireFromString("0.5")},
	})

	assert.True(t, rollup.TotalUSD.Equal(decimal.NewFromInt(350)))
	assert.True(t, rollup.USD[AccountTypeInvestment].IsZero())
	assert.True(t, rollup.BTC[AccountTypeChecking].Equal(decimal.RequireFromString("0.5")))
}

func TestTransactionVocabulary(t *testing.T) {
	got, err := ParseTransactionType("external_transfer")
	assert.NoError(t, err)
	assert.Equal(t, TransactionTypeTransferOut, got)

	tx := Transaction{Type: TransactionTypeFee, Amount: decimal.NewFromInt(3)}
	assert.True(t, tx.SignedDelta().Equal(decimal.NewFromInt(-3)))

	tx.Type = TransactionTypeInterest
	assert.True(t, tx.SignedDelta().Equal(decimal.NewFromInt(3)))

	assert.Equal(t, "completed", TransactionStatusApproved.DisplayStatus())
}
