package models

import (
	"strings"
	"time"

	"github.com/api-sage/backoffice-ledger/src/internal/domain"
	"github.com/shopspring/decimal"
)

// SubmitTransactionRequest is a back-office movement entered for approval.
type SubmitTransactionRequest struct {
	OwnerID     string          `json:"ownerId"`
	Type        string          `json:"type"`
	AccountType string          `json:"accountType"`
	Currency    string          `json:"currency"`
	Amount      decimal.Decimal `json:"amount"`
	Description string          `json:"description"`
	Date        *time.Time      `json:"date"`
	Metadata    map[string]any  `json:"metadata"`
}

func (r SubmitTransactionRequest) ToDomain() (domain.Transaction, error) {
	var errs []string

	if strings.TrimSpace(r.OwnerID) == "" {
		errs = append(errs, "ownerId is required")
	}
	txType, err := domain.ParseTransactionType(r.Type)
	if err != nil {
		errs = append(errs, "type is not supported")
	}
	accountType, err := domain.ParseAccountType(r.AccountType)
	if err != nil {
		errs = append(errs, "accountType is not supported")
	}
	currency, err := domain.ParseCurrency(r.Currency)
	if err != nil {
		errs = append(errs, "currency is not supported")
	}
	if r.Amount.LessThanOrEqual(decimal.Zero) {
		errs = append(errs, "amount must be greater than zero")
	}
	if err := validationError(errs); err != nil {
		return domain.Transaction{}, err
	}

	tx := domain.Transaction{
		OwnerID:     strings.TrimSpace(r.OwnerID),
		Type:        txType,
		AccountType: accountType,
		Currency:    currency,
		Amount:      r.Amount,
		Description: strings.TrimSpace(r.Description),
		Metadata:    r.Metadata,
	}
	if r.Date != nil {
		tx.Date = r.Date.UTC()
	}
	return tx, nil
}

type ApproveTransactionRequest struct {
	EffectiveDate *time.Time `json:"effectiveDate"`
}

type RejectTransactionRequest struct {
	Reason string `json:"reason"`
}

func (r RejectTransactionRequest) Validate() error {
	if strings.TrimSpace(r.Reason) == "" {
		return validationError([]string{"reason is required"})
	}
	return nil
}

type TransactionResponse struct {
	ID              string          `json:"id"`
	OwnerID         string          `json:"ownerId"`
	Type            string          `json:"type"`
	AccountType     string          `json:"accountType"`
	Currency        string          `json:"currency"`
	Amount          decimal.Decimal `json:"amount"`
	Status          string          `json:"status"`
	Posted          bool            `json:"posted"`
	PostedAt        string          `json:"postedAt,omitempty"`
	Reference       string          `json:"reference,omitempty"`
	CorrelationID   string          `json:"correlationId,omitempty"`
	Date            string          `json:"date"`
	EditedByAdmin   bool            `json:"editedByAdmin"`
	ProcessedBy     string          `json:"processedBy,omitempty"`
	ProcessedAt     string          `json:"processedAt,omitempty"`
	RejectionReason string          `json:"rejectionReason,omitempty"`
	Channel         string          `json:"channel,omitempty"`
	Description     string          `json:"description,omitempty"`
	Metadata        map[string]any  `json:"metadata,omitempty"`
}

func NewTransactionResponse(tx domain.Transaction) TransactionResponse {
	return TransactionResponse{
		ID:              tx.ID,
		OwnerID:         tx.OwnerID,
		Type:            string(tx.Type),
		AccountType:     string(tx.AccountType),
		Currency:        string(tx.Currency),
		Amount:          tx.Amount,
		Status:          tx.Status.DisplayStatus(),
		Posted:          tx.Posted,
		PostedAt:        formatTimePtr(tx.PostedAt),
		Reference:       tx.Reference,
		CorrelationID:   tx.CorrelationID,
		Date:            formatTime(tx.Date),
		EditedByAdmin:   tx.EditedByAdmin,
		ProcessedBy:     tx.ProcessedBy,
		ProcessedAt:     formatTimePtr(tx.ProcessedAt),
		RejectionReason: tx.RejectionReason,
		Channel:         tx.Channel,
		Description:     tx.Description,
		Metadata:        tx.Metadata,
	}
}

func NewTransactionResponses(txs []domain.Transaction) []TransactionResponse {
	out := make([]TransactionResponse, 0, len(txs))
	for _, tx := range txs {
		out = append(out, NewTransactionResponse(tx))
	}
	return out
}

type PostingResultResponse struct {
	Transaction  TransactionResponse `json:"transaction"`
	Applied      bool                `json:"applied"`
	Delta        decimal.Decimal     `json:"delta"`
	BalanceAfter decimal.Decimal     `json:"balanceAfter"`
}

func NewPostingResultResponse(r domain.PostingResult) PostingResultResponse {
	return PostingResultResponse{
		Transaction:  NewTransactionResponse(r.Transaction),
		Applied:      r.Applied,
		Delta:        r.Delta,
		BalanceAfter: r.BalanceAfter,
	}
}
