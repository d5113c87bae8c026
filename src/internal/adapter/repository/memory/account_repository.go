package memory

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/api-sage/backoffice-ledger/src/internal/domain"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

type AccountRepository struct {
	store *Store
}

func NewAccountRepository(store *Store) *AccountRepository {
	return &AccountRepository{store: store}
}

// CreateHolder stores the holder and opens a zero balance row for every
// (account type, currency) pair.
func (r *AccountRepository) CreateHolder(_ context.Context, holder domain.Holder) (domain.Holder, error) {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()

	if holder.ID == "" {
		holder.ID = uuid.NewString()
	}
	if holder.CreatedAt.IsZero() {
		holder.CreatedAt = time.Now().UTC()
	}
	holder.Email = strings.ToLower(strings.TrimSpace(holder.Email))

	for _, existing := range r.store.holders {
		if existing.ID == holder.ID || (holder.Email != "" && existing.Email == holder.Email) {
			return domain.Holder{}, fmt.Errorf("%w: holder already exists", domain.ErrValidation)
		}
	}

	r.store.holders[holder.ID] = holder
	for _, accountType := range domain.AccountTypes {
		for _, currency := range []domain.Currency{domain.CurrencyUSD, domain.CurrencyBTC} {
			key := balanceKey{ownerID: holder.ID, accountType: accountType, currency: currency}
			r.store.balances[key] = domain.Balance{
				OwnerID:     holder.ID,
				AccountType: accountType,
				Currency:    currency,
				Amount:      decimal.Zero,
				UpdatedAt:   holder.CreatedAt,
			}
		}
	}

	return holder, nil
}

func (r *AccountRepository) GetHolder(_ context.Context, id string) (domain.Holder, error) {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()

	holder, ok := r.store.holders[strings.TrimSpace(id)]
	if !ok {
		return domain.Holder{}, domain.ErrRecordNotFound
	}
	return holder, nil
}

func (r *AccountRepository) FindHolderByEmail(_ context.Context, email string) (domain.Holder, error) {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()

	normalized := strings.ToLower(strings.TrimSpace(email))
	for _, holder := range r.store.holders {
		if normalized != "" && holder.Email == normalized {
			return holder, nil
		}
	}
	return domain.Holder{}, domain.ErrRecordNotFound
}

func (r *AccountRepository) FindHolderByAccountNumber(_ context.Context, accountNumber string, routingNumber string) (domain.Holder, error) {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()

	account := strings.TrimSpace(accountNumber)
	routing := strings.TrimSpace(routingNumber)
	for _, holder := range r.store.holders {
		if account != "" && holder.AccountNumber == account && holder.RoutingNumber == routing {
			return holder, nil
		}
	}
	return domain.Holder{}, domain.ErrRecordNotFound
}

func (r *AccountRepository) GetBalance(_ context.Context, ownerID string, accountType domain.AccountType, currency domain.Currency) (decimal.Decimal, error) {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()

	row, ok := r.store.balances[balanceKey{ownerID: ownerID, accountType: accountType, currency: currency}]
	if !ok {
		return decimal.Zero, domain.ErrRecordNotFound
	}
	return row.Amount, nil
}

func (r *AccountRepository) ApplyDelta(_ context.Context, ownerID string, accountType domain.AccountType, currency domain.Currency, delta decimal.Decimal) (decimal.Decimal, error) {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()

	key := balanceKey{ownerID: ownerID, accountType: accountType, currency: currency}
	row, ok := r.store.balances[key]
	if !ok {
		return decimal.Zero, domain.ErrRecordNotFound
	}

	next := row.Amount.Add(delta)
	if next.IsNegative() {
		return row.Amount, domain.ErrInsufficientFunds
	}
	row.Amount = next
	row.UpdatedAt = time.Now().UTC()
	r.store.balances[key] = row
	return next, nil
}

func (r *AccountRepository) ListBalances(_ context.Context, ownerID string) ([]domain.Balance, error) {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()

	if _, ok := r.store.holders[ownerID]; !ok {
		return nil, domain.ErrRecordNotFound
	}

	out := make([]domain.Balance, 0, 6)
	for key, row := range r.store.balances {
		if key.ownerID == ownerID {
			out = append(out, row)
		}
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].AccountType != out[j].AccountType {
			return out[i].AccountType < out[j].AccountType
		}
		return out[i].Currency < out[j].Currency
	})
	return out, nil
}
