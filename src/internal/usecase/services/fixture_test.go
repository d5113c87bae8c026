package services_test

import (
	"context"
	"sync"
	"testing"

	"github.com/api-sage/backoffice-ledger/src/internal/adapter/local"
	"github.com/api-sage/backoffice-ledger/src/internal/adapter/repository/memory"
	"github.com/api-sage/backoffice-ledger/src/internal/domain"
	"github.com/api-sage/backoffice-ledger/src/internal/usecase/services"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"
)

type notifierStub struct {
	mu   sync.Mutex
	sent []domain.Notification
}

func (n *notifierStub) Notify(_ context.Context, notification domain.Notification) error {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.sent = append(n.sent, notification)
	return nil
}

func (n *notifierStub) byTemplate(template string) []domain.Notification {
	n.mu.Lock()
	defer n.mu.Unlock()
	var out []domain.Notification
	for _, notification := range n.sent {
		if notification.Template == template {
			out = append(out, notification)
		}
	}
	return out
}

type fixture struct {
	store      *memory.Store
	accounts   *memory.AccountRepository
	txs        *memory.TransactionRepository
	notifier   *notifierStub
	dispatcher *services.Dispatcher
	locker     *local.Locker

	limits    *services.LimitService
	otp       *services.OTPService
	transfers *services.TransferService
	approvals *services.ApprovalService
	schedules *services.ScheduleService
}

func newFixture(t *testing.T) *fixture {
	t.Helper()

	store := memory.NewStore()
	f := &fixture{
		store:    store,
		accounts: memory.NewAccountRepository(store),
		txs:      memory.NewTransactionRepository(store),
		notifier: &notifierStub{},
		locker:   local.NewLocker(),
	}
	f.dispatcher = services.NewDispatcher(f.notifier)

	defaults := domain.LimitDefaults{
		MaxTransactionAmount: decimal.NewFromInt(10000),
		DailyTransferLimit:   decimal.NewFromInt(25000),
		DailyWithdrawalLimit: decimal.NewFromInt(5000),
		AccountDailyLimits: map[domain.AccountType]decimal.Decimal{
			domain.AccountTypeChecking:   decimal.NewFromInt(10000),
			domain.AccountTypeSavings:    decimal.NewFromInt(5000),
			domain.AccountTypeInvestment: decimal.NewFromInt(5000),
		},
	}

	f.limits = services.NewLimitService(memory.NewLimitRepository(store), defaults)
	f.otp = services.NewOTPService(memory.NewOTPRepository(store), f.accounts, f.dispatcher)
	f.transfers = services.NewTransferService(f.accounts, f.txs, f.limits, f.otp, f.dispatcher, decimal.NewFromInt(1000))
	f.approvals = services.NewApprovalService(f.txs, f.accounts, f.limits, f.dispatcher)
	f.schedules = services.NewScheduleService(memory.NewScheduledTransferRepository(store), f.accounts, f.txs, f.dispatcher, f.locker, 2)

	t.Cleanup(f.dispatcher.Flush)
	return f
}

func (f *fixture) holder(t *testing.T, id string) domain.Holder {
	t.Helper()
	holder, err := f.accounts.CreateHolder(context.Background(), domain.Holder{
		ID:       id,
		Email:    id + "@example.com",
		FullName: "Holder " + id,
	})
	require.NoError(t, err)
	return holder
}

func (f *fixture) fund(t *testing.T, ownerID string, accountType domain.AccountType, amount string) {
	t.Helper()
	_, err := f.accounts.ApplyDelta(context.Background(), ownerID, accountType, domain.CurrencyUSD, decimal.RequireFromString(amount))
	require.NoError(t, err)
}

func (f *fixture) balance(t *testing.T, ownerID string, accountType domain.AccountType) decimal.Decimal {
	t.Helper()
	amount, err := f.accounts.GetBalance(context.Background(), ownerID, accountType, domain.CurrencyUSD)
	require.NoError(t, err)
	return amount
}

// lastCode returns the most recent OTP code sent to ownerID.
func (f *fixture) lastCode(t *testing.T, ownerID string) string {
	t.Helper()
	f.dispatcher.Flush()

	sent := f.notifier.byTemplate(domain.NotificationOTPCode)
	for i := len(sent) - 1; i >= 0; i-- {
		if sent[i].OwnerID == ownerID {
			code, ok := sent[i].Data["code"].(string)
			require.True(t, ok)
			return code
		}
	}
	t.Fatalf("no otp code sent to %s", ownerID)
	return ""
}

func amountOf(value string) decimal.Decimal {
	return decimal.RequireFromString(value)
}

func assertAmount(t *testing.T, want string, got decimal.Decimal) {
	t.Helper()
	require.Truef(t, amountOf(want).Equal(got), "want %s, got %s", want, got)
}

// hookedAccounts runs afterBalance once a balance read has returned, letting a
// test change state between a service's check and its write.
type hookedAccounts struct {
	*memory.AccountRepository
	afterBalance func()
}

func (h *hookedAccounts) GetBalance(ctx context.Context, ownerID string, accountType domain.AccountType, currency domain.Currency) (decimal.Decimal, error) {
	balance, err := h.AccountRepository.GetBalance(ctx, ownerID, accountType, currency)
	if h.afterBalance != nil {
		hook := h.afterBalance
		h.afterBalance = nil
		hook()
	}
	return balance, err
}
