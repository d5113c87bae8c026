package domain

import (
	"time"

	"github.com/shopspring/decimal"
)

// rateScale is the precision stored for quotes and derived inverses.
const rateScale = 8

// Rate is a display-only FX quote. It never drives a balance mutation.
type Rate struct {
	ID           int64
	FromCurrency string
	ToCurrency   string
	Rate         decimal.Decimal
	RateDate     time.Time
	CreatedAt    time.Time
	// Derived marks a quote computed from the opposite pair.
	Derived bool
}

func (r Rate) Pair() string {
	return r.FromCurrency + "/" + r.ToCurrency
}

// Invert returns the quote for the opposite direction. A zero rate has no
// inverse.
func (r Rate) Invert() (Rate, bool) {
	if !r.Rate.IsPositive() {
		return Rate{}, false
	}
	return Rate{
		FromCurrency: r.ToCurrency,
		ToCurrency:   r.FromCurrency,
		Rate:         decimal.NewFromInt(1).DivRound(r.Rate, rateScale),
		RateDate:     r.RateDate,
		CreatedAt:    r.CreatedAt,
		Derived:      true,
	}, true
}

// Convert prices amount in the quote currency. BTC keeps satoshi precision,
// everything else is shown in cents.
func (r Rate) Convert(amount decimal.Decimal) decimal.Decimal {
	places := int32(2)
	if r.ToCurrency == string(CurrencyBTC) {
		places = rateScale
	}
	return amount.Mul(r.Rate).Round(places)
}

// DefaultRates is the quote sheet seeded when storage has none for the day.
func DefaultRates(day time.Time) []Rate {
	day = day.UTC().Truncate(24 * time.Hour)
	seed := []struct {
		from, to, rate string
	}{
		{"USD", "EUR", "0.92"},
		{"USD", "GBP", "0.79"},
		{"EUR", "USD", "1.09"},
		{"GBP", "USD", "1.27"},
		{"BTC", "USD", "62000"},
	}

	rates := make([]Rate, 0, len(seed))
	for _, s := range seed {
		rates = append(rates, Rate{
			FromCurrency: s.from,
			ToCurrency:   s.to,
			Rate:         decimal.RequireFromString(s.rate),
			RateDate:     day,
			CreatedAt:    day,
		})
	}
	return rates
}
