package models

import (
	"strings"

	"github.com/api-sage/backoffice-ledger/src/internal/domain"
	"github.com/shopspring/decimal"
)

type TransferRequest struct {
	Type                   string                         `json:"type"`
	FromAccount            string                         `json:"fromAccount"`
	ToAccount              string                         `json:"toAccount"`
	Amount                 decimal.Decimal                `json:"amount"`
	Currency               string                         `json:"currency"`
	Description            string                         `json:"description"`
	HoldForApproval        bool                           `json:"holdForApproval"`
	RecipientEmail         string                         `json:"recipientEmail"`
	RecipientAccountNumber string                         `json:"recipientAccountNumber"`
	RecipientRoutingNumber string                         `json:"recipientRoutingNumber"`
	ExternalAccountDetails *domain.ExternalAccountDetails `json:"externalAccountDetails"`
	Urgent                 bool                           `json:"urgent"`
	OTPProof               string                         `json:"otpProof"`
}

// ToDomain parses the wire vocabulary. Cross-field rules are checked by the
// transfer service.
func (r TransferRequest) ToDomain(ownerID string) (domain.TransferRequest, error) {
	var errs []string

	class, err := domain.ParseTransferClass(r.Type)
	if err != nil {
		errs = append(errs, "type is not supported")
	}
	currency, err := domain.ParseCurrency(r.Currency)
	if err != nil {
		errs = append(errs, "currency is not supported")
	}

	var from, to domain.AccountType
	if strings.TrimSpace(r.FromAccount) != "" {
		if from, err = domain.ParseAccountType(r.FromAccount); err != nil {
			errs = append(errs, "fromAccount is not supported")
		}
	}
	if strings.TrimSpace(r.ToAccount) != "" {
		if to, err = domain.ParseAccountType(r.ToAccount); err != nil {
			errs = append(errs, "toAccount is not supported")
		}
	}
	if r.Amount.LessThanOrEqual(decimal.Zero) {
		errs = append(errs, "amount must be greater than zero")
	}
	if err := validationError(errs); err != nil {
		return domain.TransferRequest{}, err
	}

	return domain.TransferRequest{
		OwnerID:                ownerID,
		Class:                  class,
		FromAccount:            from,
		ToAccount:              to,
		Amount:                 r.Amount,
		Currency:               currency,
		Description:            strings.TrimSpace(r.Description),
		HoldForApproval:        r.HoldForApproval,
		RecipientEmail:         strings.TrimSpace(r.RecipientEmail),
		RecipientAccountNumber: strings.TrimSpace(r.RecipientAccountNumber),
		RecipientRoutingNumber: strings.TrimSpace(r.RecipientRoutingNumber),
		External:               r.ExternalAccountDetails,
		Urgent:                 r.Urgent,
		OTPProof:               strings.TrimSpace(r.OTPProof),
		Origin:                 "api",
	}, nil
}

type TransferResponse struct {
	RequiresOTP   bool                  `json:"requiresOtp"`
	Reference     string                `json:"reference,omitempty"`
	CorrelationID string                `json:"correlationId,omitempty"`
	Status        string                `json:"status,omitempty"`
	Transactions  []TransactionResponse `json:"transactions,omitempty"`
	Fees          *FeeQuoteResponse     `json:"fees,omitempty"`
}

func NewTransferResponse(result domain.TransferResult) TransferResponse {
	resp := TransferResponse{
		RequiresOTP:   result.RequiresOTP,
		Reference:     result.Reference,
		CorrelationID: result.CorrelationID,
	}
	if result.Status != "" {
		resp.Status = result.Status.DisplayStatus()
	}
	if len(result.Transactions) > 0 {
		resp.Transactions = NewTransactionResponses(result.Transactions)
	}
	if result.Fees != nil {
		fees := NewFeeQuoteResponse(*result.Fees)
		resp.Fees = &fees
	}
	return resp
}

type FeeQuoteRequest struct {
	Type                string          `json:"type"`
	Amount              decimal.Decimal `json:"amount"`
	Urgent              bool            `json:"urgent"`
	DestinationCurrency string          `json:"destinationCurrency"`
}

func (r FeeQuoteRequest) Validate() error {
	var errs []string

	if _, err := domain.ParseTransferClass(r.Type); err != nil {
		errs = append(errs, "type is not supported")
	}
	if r.Amount.LessThanOrEqual(decimal.Zero) {
		errs = append(errs, "amount must be greater than zero")
	}
	ccy := strings.TrimSpace(r.DestinationCurrency)
	if ccy != "" && len(ccy) != 3 {
		errs = append(errs, "destinationCurrency must be 3 characters")
	}

	return validationError(errs)
}

type FeeQuoteResponse struct {
	Type        string          `json:"type"`
	Amount      decimal.Decimal `json:"amount"`
	FlatFee     decimal.Decimal `json:"flatFee"`
	Urgent      decimal.Decimal `json:"urgentFee"`
	FXSurcharge decimal.Decimal `json:"fxSurcharge"`
	TotalFee    decimal.Decimal `json:"totalFee"`
	TotalDebit  decimal.Decimal `json:"totalDebit"`
}

func NewFeeQuoteResponse(f domain.FeeBreakdown) FeeQuoteResponse {
	return FeeQuoteResponse{
		Type:        string(f.Class),
		Amount:      f.Amount,
		FlatFee:     f.FlatFee,
		Urgent:      f.Urgent,
		FXSurcharge: f.FXSurcharge,
		TotalFee:    f.TotalFee,
		TotalDebit:  f.TotalDebit,
	}
}
