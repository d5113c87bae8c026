package domain

import (
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/shopspring/decimal"
)

type TransactionType string

const (
	TransactionTypeDeposit          TransactionType = "deposit"
	TransactionTypeWithdraw         TransactionType = "withdraw"
	TransactionTypeTransferIn       TransactionType = "transfer-in"
	TransactionTypeTransferOut      TransactionType = "transfer-out"
	TransactionTypeFee              TransactionType = "fee"
	TransactionTypeInterest         TransactionType = "interest"
	TransactionTypeAdjustmentCredit TransactionType = "adjustment-credit"
	TransactionTypeAdjustmentDebit  TransactionType = "adjustment-debit"
)

// transactionDirections is the closed set of kinds. +1 credits, -1 debits.
var transactionDirections = map[TransactionType]int64{
	TransactionTypeDeposit:          1,
	TransactionTypeTransferIn:       1,
	TransactionTypeInterest:         1,
	TransactionTypeAdjustmentCredit: 1,
	TransactionTypeWithdraw:         -1,
	TransactionTypeTransferOut:      -1,
	TransactionTypeFee:              -1,
	TransactionTypeAdjustmentDebit:  -1,
}

// legacyTransactionTypes maps stored vocabulary from older records.
var legacyTransactionTypes = map[string]TransactionType{
	"credit":            TransactionTypeDeposit,
	"debit":             TransactionTypeWithdraw,
	"withdrawal":        TransactionTypeWithdraw,
	"transfer_in":       TransactionTypeTransferIn,
	"incoming":          TransactionTypeTransferIn,
	"transfer_out":      TransactionTypeTransferOut,
	"outgoing":          TransactionTypeTransferOut,
	"external-transfer": TransactionTypeTransferOut,
	"external_transfer": TransactionTypeTransferOut,
	"charge":            TransactionTypeFee,
	"adjustment":        TransactionTypeAdjustmentCredit,
}

func ParseTransactionType(raw string) (TransactionType, error) {
	value := strings.ToLower(strings.TrimSpace(raw))
	if _, ok := transactionDirections[TransactionType(value)]; ok {
		return TransactionType(value), nil
	}
	if mapped, ok := legacyTransactionTypes[value]; ok {
		return mapped, nil
	}
	return "", fmt.Errorf("%w: unknown transaction type %q", ErrValidation, raw)
}

func (t TransactionType) IsCredit() bool {
	return transactionDirections[t] > 0
}

func (t TransactionType) IsDebit() bool {
	return transactionDirections[t] < 0
}

type TransactionStatus string

const (
	TransactionStatusPending             TransactionStatus = "pending"
	TransactionStatusPendingVerification TransactionStatus = "pending_verification"
	TransactionStatusApproved            TransactionStatus = "approved"
	TransactionStatusRejected            TransactionStatus = "rejected"
)

// OpenStatuses are the states an admin may still approve or reject.
var OpenStatuses = []TransactionStatus{TransactionStatusPending, TransactionStatusPendingVerification}

var statusAliases = map[string]TransactionStatus{
	"completed":  TransactionStatusApproved,
	"cleared":    TransactionStatusApproved,
	"success":    TransactionStatusApproved,
	"processing": TransactionStatusPending,
	"failed":     TransactionStatusRejected,
	"declined":   TransactionStatusRejected,
}

func ParseTransactionStatus(raw string) (TransactionStatus, error) {
	value := strings.ToLower(strings.TrimSpace(raw))
	switch TransactionStatus(value) {
	case TransactionStatusPending, TransactionStatusPendingVerification, TransactionStatusApproved, TransactionStatusRejected:
		return TransactionStatus(value), nil
	}
	if mapped, ok := statusAliases[value]; ok {
		return mapped, nil
	}
	return "", fmt.Errorf("%w: unknown transaction status %q", ErrValidation, raw)
}

// StoredStatusValues expands statuses with the legacy spellings that read back
// as them, for matching raw column values.
func StoredStatusValues(statuses ...TransactionStatus) []string {
	values := make([]string, 0, len(statuses))
	for _, status := range statuses {
		values = append(values, string(status))
		var aliases []string
		for alias, mapped := range statusAliases {
			if mapped == status {
				aliases = append(aliases, alias)
			}
		}
		sort.Strings(aliases)
		values = append(values, aliases...)
	}
	return values
}

func (s TransactionStatus) IsOpen() bool {
	return s == TransactionStatusPending || s == TransactionStatusPendingVerification
}

func (s TransactionStatus) IsCleared() bool {
	return s == TransactionStatusApproved
}

// DisplayStatus is the customer-facing label. Approved renders as completed.
func (s TransactionStatus) DisplayStatus() string {
	if s == TransactionStatusApproved {
		return "completed"
	}
	return string(s)
}

type Transaction struct {
	ID              string
	OwnerID         string
	Type            TransactionType
	Currency        Currency
	Amount          decimal.Decimal
	AccountType     AccountType
	Status          TransactionStatus
	Posted          bool
	PostedAt        *time.Time
	Reference       string
	CorrelationID   string
	Date            time.Time
	EditedByAdmin   bool
	ProcessedBy     string
	ProcessedAt     *time.Time
	RejectionReason string
	Channel         string
	Origin          string
	Description     string
	Metadata        map[string]any
	CreatedAt       time.Time
	UpdatedAt       time.Time
}

// SignedDelta is the balance effect of posting the transaction.
func (t Transaction) SignedDelta() decimal.Decimal {
	if t.Type.IsDebit() {
		return t.Amount.Neg()
	}
	return t.Amount
}

func (t Transaction) Validate() error {
	var errs []string

	if strings.TrimSpace(t.OwnerID) == "" {
		errs = append(errs, "ownerId is required")
	}
	if _, ok := transactionDirections[t.Type]; !ok {
		errs = append(errs, "type is not supported")
	}
	if t.Currency != CurrencyUSD && t.Currency != CurrencyBTC {
		errs = append(errs, "currency is not supported")
	}
	if t.Amount.LessThanOrEqual(decimal.Zero) {
		errs = append(errs, "amount must be greater than zero")
	}
	if _, err := ParseAccountType(string(t.AccountType)); err != nil {
		errs = append(errs, "accountType is not supported")
	}

	if len(errs) > 0 {
		return Invalid(errs)
	}
	return nil
}

// Approval carries the admin inputs of an approve transition.
type Approval struct {
	AdminID       string
	EffectiveDate *time.Time
	At            time.Time
}

// Rejection carries the admin inputs of a reject transition.
type Rejection struct {
	AdminID string
	Reason  string
	At      time.Time
}

type TransactionFilter struct {
	OwnerID       string
	Statuses      []TransactionStatus
	CorrelationID string
	Limit         int
}
