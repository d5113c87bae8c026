package domain

import (
	"fmt"
	"strings"
	"time"

	"github.com/shopspring/decimal"
)

type AccountType string

const (
	AccountTypeChecking   AccountType = "checking"
	AccountTypeSavings    AccountType = "savings"
	AccountTypeInvestment AccountType = "investment"
)

// AccountTypes lists the sub-accounts every holder owns.
var AccountTypes = []AccountType{AccountTypeChecking, AccountTypeSavings, AccountTypeInvestment}

func ParseAccountType(raw string) (AccountType, error) {
	switch AccountType(strings.ToLower(strings.TrimSpace(raw))) {
	case AccountTypeChecking:
		return AccountTypeChecking, nil
	case AccountTypeSavings:
		return AccountTypeSavings, nil
	case AccountTypeInvestment:
		return AccountTypeInvestment, nil
	default:
		return "", fmt.Errorf("%w: unknown account type %q", ErrValidation, raw)
	}
}

type Currency string

const (
	CurrencyUSD Currency = "USD"
	// CurrencyBTC is the legacy parallel balance. It is posted with the same
	// guarantees as USD but never folded into the USD rollup.
	CurrencyBTC Currency = "BTC"
)

func ParseCurrency(raw string) (Currency, error) {
	value := strings.ToUpper(strings.TrimSpace(raw))
	switch Currency(value) {
	case "":
		return CurrencyUSD, nil
	case CurrencyUSD:
		return CurrencyUSD, nil
	case CurrencyBTC:
		return CurrencyBTC, nil
	default:
		return "", fmt.Errorf("%w: unsupported currency %q", ErrValidation, raw)
	}
}

type Holder struct {
	ID            string
	Email         string
	FullName      string
	PhoneNumber   string
	AccountNumber string
	RoutingNumber string
	CreatedAt     time.Time
}

// Balance is one stored row of the Account Store.
type Balance struct {
	OwnerID     string
	AccountType AccountType
	Currency    Currency
	Amount      decimal.Decimal
	UpdatedAt   time.Time
}

// Rollup is the USD view of a holder used by statements and dashboards.
type Rollup struct {
	OwnerID  string
	USD      map[AccountType]decimal.Decimal
	TotalUSD decimal.Decimal
	BTC      map[AccountType]decimal.Decimal
}

// BuildRollup sums USD rows into the statement figure and keeps BTC apart.
func BuildRollup(ownerID string, balances []Balance) Rollup {
	rollup := Rollup{
		OwnerID:  ownerID,
		USD:      make(map[AccountType]decimal.Decimal, len(AccountTypes)),
		TotalUSD: decimal.Zero,
		BTC:      make(map[AccountType]decimal.Decimal, len(AccountTypes)),
	}
	for _, accountType := range AccountTypes {
		rollup.USD[accountType] = decimal.Zero
		rollup.BTC[accountType] = decimal.Zero
	}

	for _, balance := range balances {
		switch balance.Currency {
		case CurrencyUSD:
			rollup.USD[balance.AccountType] = rollup.USD[balance.AccountType].Add(balance.Amount)
			rollup.TotalUSD = rollup.TotalUSD.Add(balance.Amount)
		case CurrencyBTC:
			rollup.BTC[balance.AccountType] = rollup.BTC[balance.AccountType].Add(balance.Amount)
		}
	}

	return rollup
}
