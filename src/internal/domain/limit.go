package domain

import (
	"fmt"
	"strings"
	"time"

	"github.com/shopspring/decimal"
)

type LimitKind string

const (
	LimitKindTransfer   LimitKind = "transfer"
	LimitKindWithdrawal LimitKind = "withdrawal"
)

func ParseLimitKind(raw string) (LimitKind, error) {
	switch LimitKind(strings.ToLower(strings.TrimSpace(raw))) {
	case "", LimitKindTransfer:
		return LimitKindTransfer, nil
	case LimitKindWithdrawal, "withdraw":
		return LimitKindWithdrawal, nil
	default:
		return "", fmt.Errorf("%w: unknown limit kind %q", ErrValidation, raw)
	}
}

// Reasons a limit check may deny a movement.
const (
	LimitReasonPerTransaction = "PER_TRANSACTION_LIMIT"
	LimitReasonAccountDaily   = "ACCOUNT_DAILY_LIMIT"
	LimitReasonDailyTransfer  = "DAILY_TRANSFER_LIMIT"
	LimitReasonDailyWithdraw  = "DAILY_WITHDRAWAL_LIMIT"
)

// DateLayout is the calendar-day key used for limit resets.
const DateLayout = "2006-01-02"

type TransactionLimit struct {
	OwnerID              string
	LimitsEnabled        bool
	MaxTransactionAmount decimal.Decimal
	DailyTransferLimit   decimal.Decimal
	DailyWithdrawalLimit decimal.Decimal
	AccountDailyLimits   map[AccountType]decimal.Decimal
	TodayTransferred     decimal.Decimal
	TodayWithdrawn       decimal.Decimal
	TodayByAccount       map[AccountType]decimal.Decimal
	LastResetDate        string
	CreatedAt            time.Time
	UpdatedAt            time.Time
}

// LimitDefaults seeds a record on first touch.
type LimitDefaults struct {
	MaxTransactionAmount decimal.Decimal
	DailyTransferLimit   decimal.Decimal
	DailyWithdrawalLimit decimal.Decimal
	AccountDailyLimits   map[AccountType]decimal.Decimal
}

func NewTransactionLimit(ownerID string, defaults LimitDefaults, now time.Time) TransactionLimit {
	accountLimits := make(map[AccountType]decimal.Decimal, len(AccountTypes))
	counters := make(map[AccountType]decimal.Decimal, len(AccountTypes))
	for _, accountType := range AccountTypes {
		accountLimits[accountType] = defaults.AccountDailyLimits[accountType]
		counters[accountType] = decimal.Zero
	}

	return TransactionLimit{
		OwnerID:              ownerID,
		LimitsEnabled:        true,
		MaxTransactionAmount: defaults.MaxTransactionAmount,
		DailyTransferLimit:   defaults.DailyTransferLimit,
		DailyWithdrawalLimit: defaults.DailyWithdrawalLimit,
		AccountDailyLimits:   accountLimits,
		TodayTransferred:     decimal.Zero,
		TodayWithdrawn:       decimal.Zero,
		TodayByAccount:       counters,
		LastResetDate:        now.Format(DateLayout),
		CreatedAt:            now,
		UpdatedAt:            now,
	}
}

// ResetIfStale zeroes the counters when the calendar day has rolled over.
// It reports whether a reset happened.
func (l *TransactionLimit) ResetIfStale(now time.Time) bool {
	today := now.Format(DateLayout)
	if l.LastResetDate == today {
		return false
	}

	l.TodayTransferred = decimal.Zero
	l.TodayWithdrawn = decimal.Zero
	if l.TodayByAccount == nil {
		l.TodayByAccount = make(map[AccountType]decimal.Decimal, len(AccountTypes))
	}
	for _, accountType := range AccountTypes {
		l.TodayByAccount[accountType] = decimal.Zero
	}
	l.LastResetDate = today
	l.UpdatedAt = now
	return true
}

type LimitDecision struct {
	Allowed   bool
	Reason    string
	Remaining decimal.Decimal
}

// Evaluate runs the ceiling checks in order. Counters must already be reset.
func (l TransactionLimit) Evaluate(amount decimal.Decimal, kind LimitKind, accountType AccountType) LimitDecision {
	aggregateLimit, aggregateUsed, aggregateReason := l.aggregate(kind)
	remaining := aggregateLimit.Sub(aggregateUsed)

	if !l.LimitsEnabled {
		return LimitDecision{Allowed: true, Remaining: remaining}
	}

	if amount.GreaterThan(l.MaxTransactionAmount) {
		return LimitDecision{Allowed: false, Reason: LimitReasonPerTransaction, Remaining: remaining}
	}

	if accountLimit, ok := l.AccountDailyLimits[accountType]; ok {
		used := l.TodayByAccount[accountType]
		if used.Add(amount).GreaterThan(accountLimit) {
			return LimitDecision{Allowed: false, Reason: LimitReasonAccountDaily, Remaining: remaining}
		}
	}

	if aggregateUsed.Add(amount).GreaterThan(aggregateLimit) {
		return LimitDecision{Allowed: false, Reason: aggregateReason, Remaining: remaining}
	}

	return LimitDecision{Allowed: true, Remaining: remaining.Sub(amount)}
}

// Record adds amount to the counters of kind and accountType. A negative
// amount releases a reservation; counters never go below zero.
func (l *TransactionLimit) Record(amount decimal.Decimal, kind LimitKind, accountType AccountType, now time.Time) {
	switch kind {
	case LimitKindWithdrawal:
		l.TodayWithdrawn = floorZero(l.TodayWithdrawn.Add(amount))
	default:
		l.TodayTransferred = floorZero(l.TodayTransferred.Add(amount))
	}

	if accountType != "" {
		if l.TodayByAccount == nil {
			l.TodayByAccount = make(map[AccountType]decimal.Decimal, len(AccountTypes))
		}
		l.TodayByAccount[accountType] = floorZero(l.TodayByAccount[accountType].Add(amount))
	}
	l.UpdatedAt = now
}

func (l TransactionLimit) aggregate(kind LimitKind) (decimal.Decimal, decimal.Decimal, string) {
	if kind == LimitKindWithdrawal {
		return l.DailyWithdrawalLimit, l.TodayWithdrawn, LimitReasonDailyWithdraw
	}
	return l.DailyTransferLimit, l.TodayTransferred, LimitReasonDailyTransfer
}

func floorZero(value decimal.Decimal) decimal.Decimal {
	if value.IsNegative() {
		return decimal.Zero
	}
	return value
}

// LimitUpdate holds admin changes; nil fields are left untouched.
type LimitUpdate struct {
	LimitsEnabled        *bool
	MaxTransactionAmount *decimal.Decimal
	DailyTransferLimit   *decimal.Decimal
	DailyWithdrawalLimit *decimal.Decimal
	AccountDailyLimits   map[AccountType]decimal.Decimal
}

func (u LimitUpdate) Apply(l *TransactionLimit, now time.Time) error {
	var errs []string
	check := func(name string, value *decimal.Decimal) {
		if value != nil && value.IsNegative() {
			errs = append(errs, name+" cannot be negative")
		}
	}
	check("maxTransactionAmount", u.MaxTransactionAmount)
	check("dailyTransferLimit", u.DailyTransferLimit)
	check("dailyWithdrawalLimit", u.DailyWithdrawalLimit)
	for accountType, value := range u.AccountDailyLimits {
		v := value
		check(string(accountType)+" daily limit", &v)
	}
	if len(errs) > 0 {
		return Invalid(errs)
	}

	if u.LimitsEnabled != nil {
		l.LimitsEnabled = *u.LimitsEnabled
	}
	if u.MaxTransactionAmount != nil {
		l.MaxTransactionAmount = *u.MaxTransactionAmount
	}
	if u.DailyTransferLimit != nil {
		l.DailyTransferLimit = *u.DailyTransferLimit
	}
	if u.DailyWithdrawalLimit != nil {
		l.DailyWithdrawalLimit = *u.DailyWithdrawalLimit
	}
	if l.AccountDailyLimits == nil {
		l.AccountDailyLimits = make(map[AccountType]decimal.Decimal, len(AccountTypes))
	}
	for accountType, value := range u.AccountDailyLimits {
		l.AccountDailyLimits[accountType] = value
	}
	l.UpdatedAt = now
	return nil
}
