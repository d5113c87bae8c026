package memory

import (
	"fmt"
	"maps"
	"sync"
	"time"

	"github.com/api-sage/backoffice-ledger/src/internal/domain"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

type balanceKey struct {
	ownerID     string
	accountType domain.AccountType
	currency    domain.Currency
}

type otpKey struct {
	ownerID string
	purpose string
}

// Store is a process-local backing store. One mutex guards every table, so
// each repository call behaves like a serialisable storage transaction.
type Store struct {
	mu           sync.Mutex
	holders      map[string]domain.Holder
	balances     map[balanceKey]domain.Balance
	transactions map[string]domain.Transaction
	txOrder      []string
	audit        []domain.PostingAuditEntry
	schedules    map[string]domain.ScheduledTransfer
	limits       map[string]domain.TransactionLimit
	otps         map[otpKey]domain.OTPChallenge
	rates        []domain.Rate
}

func NewStore() *Store {
	return &Store{
		holders:      make(map[string]domain.Holder),
		balances:     make(map[balanceKey]domain.Balance),
		transactions: make(map[string]domain.Transaction),
		schedules:    make(map[string]domain.ScheduledTransfer),
		limits:       make(map[string]domain.TransactionLimit),
		otps:         make(map[otpKey]domain.OTPChallenge),
	}
}

// postLocked applies the deltas of ids against a staged copy of the touched
// balances and only commits when every leg succeeds. Callers hold s.mu.
func (s *Store) postLocked(ids []string, at time.Time, approval *domain.Approval) ([]domain.PostingResult, error) {
	stagedBalances := make(map[balanceKey]decimal.Decimal)
	stagedTxs := make(map[string]domain.Transaction, len(ids))
	stagedAudit := make([]domain.PostingAuditEntry, 0, len(ids))
	results := make([]domain.PostingResult, 0, len(ids))

	for _, id := range ids {
		tx, ok := stagedTxs[id]
		if !ok {
			tx, ok = s.transactions[id]
			if !ok {
				return nil, domain.ErrRecordNotFound
			}
			tx = cloneTransaction(tx)
		}

		if approval != nil {
			if !tx.Status.IsOpen() {
				return nil, fmt.Errorf("%w: transaction %s is %s", domain.ErrAlreadyProcessed, tx.ID, tx.Status)
			}
			applyApproval(&tx, *approval)
		}

		if !tx.Status.IsCleared() {
			return nil, fmt.Errorf("%w: transaction %s is not cleared", domain.ErrValidation, tx.ID)
		}

		if tx.Posted {
			stagedTxs[id] = tx
			results = append(results, domain.PostingResult{Transaction: tx, Applied: false, Delta: decimal.Zero})
			continue
		}

		key := balanceKey{ownerID: tx.OwnerID, accountType: tx.AccountType, currency: tx.Currency}
		current, ok := stagedBalances[key]
		if !ok {
			row, exists := s.balances[key]
			if !exists {
				return nil, fmt.Errorf("%w: balance row for owner %s", domain.ErrRecordNotFound, tx.OwnerID)
			}
			current = row.Amount
		}

		delta := tx.SignedDelta()
		next := current.Add(delta)
		if next.IsNegative() {
			return nil, domain.ErrInsufficientFunds
		}
		stagedBalances[key] = next

		postedAt := at
		tx.Posted = true
		tx.PostedAt = &postedAt
		tx.UpdatedAt = at
		stagedTxs[id] = tx

		stagedAudit = append(stagedAudit, domain.PostingAuditEntry{
			ID:            uuid.NewString(),
			TransactionID: tx.ID,
			OwnerID:       tx.OwnerID,
			AccountType:   tx.AccountType,
			Currency:      tx.Currency,
			Delta:         delta,
			BalanceAfter:  next,
			CreatedAt:     at,
		})
		results = append(results, domain.PostingResult{Transaction: tx, Applied: true, Delta: delta, BalanceAfter: next})
	}

	for key, amount := range stagedBalances {
		row := s.balances[key]
		row.Amount = amount
		row.UpdatedAt = at
		s.balances[key] = row
	}
	for id, tx := range stagedTxs {
		s.transactions[id] = tx
	}
	s.audit = append(s.audit, stagedAudit...)

	for i := range results {
		results[i].Transaction = cloneTransaction(results[i].Transaction)
	}
	return results, nil
}

func applyApproval(tx *domain.Transaction, approval domain.Approval) {
	processedAt := approval.At
	tx.Status = domain.TransactionStatusApproved
	tx.ProcessedAt = &processedAt
	tx.ProcessedBy = approval.AdminID
	tx.UpdatedAt = approval.At
	if approval.EffectiveDate != nil {
		tx.Date = *approval.EffectiveDate
		tx.EditedByAdmin = true
	}
}

func cloneTransaction(tx domain.Transaction) domain.Transaction {
	out := tx
	if tx.Metadata != nil {
		out.Metadata = maps.Clone(tx.Metadata)
	}
	if tx.PostedAt != nil {
		v := *tx.PostedAt
		out.PostedAt = &v
	}
	if tx.ProcessedAt != nil {
		v := *tx.ProcessedAt
		out.ProcessedAt = &v
	}
	return out
}

func cloneSchedule(s domain.ScheduledTransfer) domain.ScheduledTransfer {
	out := s
	if s.EndDate != nil {
		v := *s.EndDate
		out.EndDate = &v
	}
	if s.LastExecutionDate != nil {
		v := *s.LastExecutionDate
		out.LastExecutionDate = &v
	}
	if s.ExternalAccountDetails != nil {
		v := *s.ExternalAccountDetails
		out.ExternalAccountDetails = &v
	}
	return out
}

func cloneLimit(l domain.TransactionLimit) domain.TransactionLimit {
	out := l
	out.AccountDailyLimits = maps.Clone(l.AccountDailyLimits)
	out.TodayByAccount = maps.Clone(l.TodayByAccount)
	return out
}

func cloneChallenge(c domain.OTPChallenge) domain.OTPChallenge {
	out := c
	if c.Metadata != nil {
		out.Metadata = maps.Clone(c.Metadata)
	}
	if c.VerifiedAt != nil {
		v := *c.VerifiedAt
		out.VerifiedAt = &v
	}
	if c.ProofExpiresAt != nil {
		v := *c.ProofExpiresAt
		out.ProofExpiresAt = &v
	}
	return out
}
