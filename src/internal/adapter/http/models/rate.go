package models

import (
	"fmt"
	"strings"
	"time"

	"github.com/api-sage/backoffice-ledger/src/internal/domain"
	"github.com/shopspring/decimal"
)

type RateResponse struct {
	ID           int64  `json:"id,omitempty"`
	FromCurrency string `json:"fromCurrency"`
	ToCurrency   string `json:"toCurrency"`
	Rate         string `json:"rate"`
	Derived      bool   `json:"derived,omitempty"`
	Amount       string `json:"amount,omitempty"`
	Converted    string `json:"converted,omitempty"`
	RateDate     string `json:"rateDate"`
	CreatedAt    string `json:"createdAt"`
}

func NewRateResponse(r domain.Rate) RateResponse {
	return RateResponse{
		ID:           r.ID,
		FromCurrency: r.FromCurrency,
		ToCurrency:   r.ToCurrency,
		Rate:         r.Rate.String(),
		Derived:      r.Derived,
		RateDate:     r.RateDate.Format(time.DateOnly),
		CreatedAt:    formatTime(r.CreatedAt),
	}
}

// WithConversion shows amount priced at the quote. It is informational only.
func (resp RateResponse) WithConversion(r domain.Rate, amount decimal.Decimal) RateResponse {
	resp.Amount = amount.String()
	resp.Converted = r.Convert(amount).String()
	return resp
}

func NewRateResponses(rates []domain.Rate) []RateResponse {
	out := make([]RateResponse, 0, len(rates))
	for _, r := range rates {
		out = append(out, NewRateResponse(r))
	}
	return out
}

// ParseQuoteAmount reads the optional amount query parameter.
func ParseQuoteAmount(raw string) (decimal.Decimal, bool, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return decimal.Zero, false, nil
	}
	amount, err := decimal.NewFromString(raw)
	if err != nil || !amount.IsPositive() {
		return decimal.Zero, false, fmt.Errorf("%w: amount must be a positive number", domain.ErrValidation)
	}
	return amount, true, nil
}
