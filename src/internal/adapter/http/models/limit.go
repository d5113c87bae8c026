package models

import (
	"strings"

	"github.com/api-sage/backoffice-ledger/src/internal/domain"
	"github.com/shopspring/decimal"
)

// LimitCheckRequest serves both the check and the usage routes.
type LimitCheckRequest struct {
	Amount      decimal.Decimal `json:"amount"`
	Kind        string          `json:"kind"`
	AccountType string          `json:"accountType"`
}

func (r LimitCheckRequest) Parse() (domain.LimitKind, domain.AccountType, error) {
	var errs []string

	if r.Amount.LessThanOrEqual(decimal.Zero) {
		errs = append(errs, "amount must be greater than zero")
	}
	kind, err := domain.ParseLimitKind(r.Kind)
	if err != nil {
		errs = append(errs, "kind is not supported")
	}
	var accountType domain.AccountType
	if strings.TrimSpace(r.AccountType) != "" {
		if accountType, err = domain.ParseAccountType(r.AccountType); err != nil {
			errs = append(errs, "accountType is not supported")
		}
	}

	return kind, accountType, validationError(errs)
}

type LimitDecisionResponse struct {
	Allowed   bool            `json:"allowed"`
	Reason    string          `json:"reason,omitempty"`
	Remaining decimal.Decimal `json:"remaining"`
}

func NewLimitDecisionResponse(d domain.LimitDecision) LimitDecisionResponse {
	return LimitDecisionResponse{Allowed: d.Allowed, Reason: d.Reason, Remaining: d.Remaining}
}

type UpdateLimitsRequest struct {
	OwnerID              string                     `json:"ownerId"`
	LimitsEnabled        *bool                      `json:"limitsEnabled"`
	MaxTransactionAmount *decimal.Decimal           `json:"maxTransactionAmount"`
	DailyTransferLimit   *decimal.Decimal           `json:"dailyTransferLimit"`
	DailyWithdrawalLimit *decimal.Decimal           `json:"dailyWithdrawalLimit"`
	AccountDailyLimits   map[string]decimal.Decimal `json:"accountDailyLimits"`
}

func (r UpdateLimitsRequest) ToDomain() (domain.LimitUpdate, error) {
	var errs []string

	if strings.TrimSpace(r.OwnerID) == "" {
		errs = append(errs, "ownerId is required")
	}

	update := domain.LimitUpdate{
		LimitsEnabled:        r.LimitsEnabled,
		MaxTransactionAmount: r.MaxTransactionAmount,
		DailyTransferLimit:   r.DailyTransferLimit,
		DailyWithdrawalLimit: r.DailyWithdrawalLimit,
	}
	if len(r.AccountDailyLimits) > 0 {
		update.AccountDailyLimits = make(map[domain.AccountType]decimal.Decimal, len(r.AccountDailyLimits))
		for raw, value := range r.AccountDailyLimits {
			accountType, err := domain.ParseAccountType(raw)
			if err != nil {
				errs = append(errs, "accountDailyLimits has an unknown account type")
				continue
			}
			update.AccountDailyLimits[accountType] = value
		}
	}

	if err := validationError(errs); err != nil {
		return domain.LimitUpdate{}, err
	}
	return update, nil
}

type LimitsResponse struct {
	OwnerID              string                     `json:"ownerId"`
	LimitsEnabled        bool                       `json:"limitsEnabled"`
	MaxTransactionAmount decimal.Decimal            `json:"maxTransactionAmount"`
	DailyTransferLimit   decimal.Decimal            `json:"dailyTransferLimit"`
	DailyWithdrawalLimit decimal.Decimal            `json:"dailyWithdrawalLimit"`
	AccountDailyLimits   map[string]decimal.Decimal `json:"accountDailyLimits"`
	TodayTransferred     decimal.Decimal            `json:"todayTransferred"`
	TodayWithdrawn       decimal.Decimal            `json:"todayWithdrawn"`
	TodayByAccount       map[string]decimal.Decimal `json:"todayByAccount"`
	LastResetDate        string                     `json:"lastResetDate"`
}

func NewLimitsResponse(l domain.TransactionLimit) LimitsResponse {
	return LimitsResponse{
		OwnerID:              l.OwnerID,
		LimitsEnabled:        l.LimitsEnabled,
		MaxTransactionAmount: l.MaxTransactionAmount,
		DailyTransferLimit:   l.DailyTransferLimit,
		DailyWithdrawalLimit: l.DailyWithdrawalLimit,
		AccountDailyLimits:   byAccount(l.AccountDailyLimits),
		TodayTransferred:     l.TodayTransferred,
		TodayWithdrawn:       l.TodayWithdrawn,
		TodayByAccount:       byAccount(l.TodayByAccount),
		LastResetDate:        l.LastResetDate,
	}
}

func byAccount(in map[domain.AccountType]decimal.Decimal) map[string]decimal.Decimal {
	out := make(map[string]decimal.Decimal, len(in))
	for accountType, value := range in {
		out[string(accountType)] = value
	}
	return out
}
