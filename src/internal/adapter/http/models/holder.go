package models

import (
	"strings"

	"github.com/api-sage/backoffice-ledger/src/internal/domain"
	"github.com/shopspring/decimal"
)

type CreateHolderRequest struct {
	Email         string `json:"email"`
	FullName      string `json:"fullName"`
	PhoneNumber   string `json:"phoneNumber"`
	RoutingNumber string `json:"routingNumber"`
}

func (r CreateHolderRequest) Validate() error {
	var errs []string

	if strings.TrimSpace(r.Email) == "" {
		errs = append(errs, "email is required")
	}
	if strings.TrimSpace(r.FullName) == "" {
		errs = append(errs, "fullName is required")
	}

	return validationError(errs)
}

func (r CreateHolderRequest) ToDomain() domain.Holder {
	return domain.Holder{
		Email:         strings.TrimSpace(r.Email),
		FullName:      strings.TrimSpace(r.FullName),
		PhoneNumber:   strings.TrimSpace(r.PhoneNumber),
		RoutingNumber: strings.TrimSpace(r.RoutingNumber),
	}
}

type HolderResponse struct {
	ID            string `json:"id"`
	Email         string `json:"email"`
	FullName      string `json:"fullName"`
	PhoneNumber   string `json:"phoneNumber,omitempty"`
	AccountNumber string `json:"accountNumber"`
	RoutingNumber string `json:"routingNumber,omitempty"`
	CreatedAt     string `json:"createdAt"`
}

func NewHolderResponse(h domain.Holder) HolderResponse {
	return HolderResponse{
		ID:            h.ID,
		Email:         h.Email,
		FullName:      h.FullName,
		PhoneNumber:   h.PhoneNumber,
		AccountNumber: h.AccountNumber,
		RoutingNumber: h.RoutingNumber,
		CreatedAt:     formatTime(h.CreatedAt),
	}
}

type RollupResponse struct {
	OwnerID    string                     `json:"ownerId"`
	Checking   decimal.Decimal            `json:"checking"`
	Savings    decimal.Decimal            `json:"savings"`
	Investment decimal.Decimal            `json:"investment"`
	TotalUSD   decimal.Decimal            `json:"totalUsd"`
	BTC        map[string]decimal.Decimal `json:"btc"`
}

func NewRollupResponse(r domain.Rollup) RollupResponse {
	btc := make(map[string]decimal.Decimal, len(r.BTC))
	for accountType, amount := range r.BTC {
		btc[string(accountType)] = amount
	}
	return RollupResponse{
		OwnerID:    r.OwnerID,
		Checking:   r.USD[domain.AccountTypeChecking],
		Savings:    r.USD[domain.AccountTypeSavings],
		Investment: r.USD[domain.AccountTypeInvestment],
		TotalUSD:   r.TotalUSD,
		BTC:        btc,
	}
}
