package controller_test

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/api-sage/backoffice-ledger/src/internal/adapter/http/controller"
	"github.com/api-sage/backoffice-ledger/src/internal/adapter/http/middleware"
	"github.com/api-sage/backoffice-ledger/src/internal/adapter/http/models"
	"github.com/api-sage/backoffice-ledger/src/internal/adapter/http/router"
	"github.com/api-sage/backoffice-ledger/src/internal/adapter/local"
	"github.com/api-sage/backoffice-ledger/src/internal/adapter/repository/memory"
	"github.com/api-sage/backoffice-ledger/src/internal/domain"
	"github.com/api-sage/backoffice-ledger/src/internal/usecase/services"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const (
	channelID  = "BackOffice"
	channelKey = "BackOfficeKey001"
)

type envelope struct {
	Success bool            `json:"success"`
	Message string          `json:"message"`
	Code    string          `json:"code"`
	Data    json.RawMessage `json:"data"`
	Errors  []string        `json:"errors"`
}

type api struct {
	handler  http.Handler
	accounts *memory.AccountRepository
}

func newAPI(t *testing.T) *api {
	t.Helper()

	store := memory.NewStore()
	accounts := memory.NewAccountRepository(store)
	txs := memory.NewTransactionRepository(store)
	dispatcher := services.NewDispatcher(local.LogNotifier{})
	t.Cleanup(dispatcher.Flush)

	limits := services.NewLimitService(memory.NewLimitRepository(store), domain.LimitDefaults{
		MaxTransactionAmount: decimal.NewFromInt(10000),
		DailyTransferLimit:   decimal.NewFromInt(25000),
		DailyWithdrawalLimit: decimal.NewFromInt(5000),
		AccountDailyLimits: map[domain.AccountType]decimal.Decimal{
			domain.AccountTypeChecking:   decimal.NewFromInt(10000),
			domain.AccountTypeSavings:    decimal.NewFromInt(5000),
			domain.AccountTypeInvestment: decimal.NewFromInt(5000),
		},
	})
	otp := services.NewOTPService(memory.NewOTPRepository(store), accounts, dispatcher)

	mux := router.New(channelID, channelKey,
		controller.NewHolderController(services.NewAccountService(accounts)),
		controller.NewTransferController(services.NewTransferService(accounts, txs, limits, otp, dispatcher, decimal.NewFromInt(1000))),
		controller.NewTransactionController(services.NewApprovalService(txs, accounts, limits, dispatcher), services.NewPostingService(txs)),
		controller.NewOTPController(otp),
		controller.NewLimitController(limits),
		controller.NewScheduleController(services.NewScheduleService(memory.NewScheduledTransferRepository(store), accounts, txs, dispatcher, local.NewLocker(), 1)),
		controller.NewRateController(services.NewRateService(memory.NewRateRepository(store))),
	)

	return &api{handler: mux, accounts: accounts}
}

func (a *api) seed(t *testing.T, id string, checking string) {
	t.Helper()
	ctx := context.Background()
	_, err := a.accounts.CreateHolder(ctx, domain.Holder{ID: id, Email: id + "@example.com", FullName: id})
	require.NoError(t, err)
	if checking != "" {
		_, err = a.accounts.ApplyDelta(ctx, id, domain.AccountTypeChecking, domain.CurrencyUSD, decimal.RequireFromString(checking))
		require.NoError(t, err)
	}
}

func (a *api) do(t *testing.T, method, path, ownerID string, role middleware.Role, body any) (*httptest.ResponseRecorder, envelope) {
	t.Helper()

	var reader *bytes.Reader
	if body != nil {
		raw, err := json.Marshal(body)
		require.NoError(t, err)
		reader = bytes.NewReader(raw)
	} else {
		reader = bytes.NewReader(nil)
	}

	req := httptest.NewRequest(method, path, reader)
	req.SetBasicAuth(channelID, channelKey)
	req.Header.Set("Content-Type", "application/json")
	if ownerID != "" {
		req.Header.Set(middleware.HeaderOwnerID, ownerID)
	}
	if role != "" {
		req.Header.Set(middleware.HeaderRole, string(role))
	}

	rr := httptest.NewRecorder()
	a.handler.ServeHTTP(rr, req)

	var env envelope
	if rr.Header().Get("Content-Type") == "application/json" {
		require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &env))
	}
	return rr, env
}

func decodeData[T any](t *testing.T, env envelope) T {
	t.Helper()
	var out T
	require.NoError(t, json.Unmarshal(env.Data, &out))
	return out
}

func TestTransferEndpointPostsAndReportsBalances(t *testing.T) {
	a := newAPI(t)
	a.seed(t, "u1", "500")

	rr, env := a.do(t, http.MethodPost, "/transfers", "u1", "", map[string]any{
		"type":        "internal",
		"fromAccount": "checking",
		"toAccount":   "savings",
		"amount":      "125.50",
	})
	require.Equal(t, http.StatusCreated, rr.Code, rr.Body.String())
	assert.True(t, env.Success)
	assert.Equal(t, "transfer completed", env.Message)

	transfer := decodeData[models.TransferResponse](t, env)
	assert.Equal(t, "completed", transfer.Status)
	assert.Len(t, transfer.Transactions, 2)

	rr, env = a.do(t, http.MethodGet, "/balances", "u1", "", nil)
	require.Equal(t, http.StatusOK, rr.Code)
	rollup := decodeData[models.RollupResponse](t, env)
	assert.True(t, rollup.Checking.Equal(decimal.RequireFromString("374.50")))
	assert.True(t, rollup.Savings.Equal(decimal.RequireFromString("125.50")))
	assert.True(t, rollup.TotalUSD.Equal(decimal.NewFromInt(500)))
}

func TestTransferEndpointErrorCodes(t *testing.T) {
	a := newAPI(t)
	a.seed(t, "u1", "50")

	rr, env := a.do(t, http.MethodPost, "/transfers", "u1", "", map[string]any{
		"type": "internal", "fromAccount": "checking", "toAccount": "savings", "amount": "80",
	})
	assert.Equal(t, http.StatusBadRequest, rr.Code)
	assert.Equal(t, domain.ReasonInsufficientFunds, env.Code)

	rr, env = a.do(t, http.MethodPost, "/transfers", "u1", "", map[string]any{
		"type": "cross-owner", "amount": "10", "recipientEmail": "ghost@example.com",
	})
	assert.Equal(t, http.StatusNotFound, rr.Code)
	assert.Equal(t, domain.ReasonRecipientNotFound, env.Code)

	rr, env = a.do(t, http.MethodPost, "/transfers", "", "", map[string]any{"type": "internal", "amount": "1"})
	assert.Equal(t, http.StatusUnauthorized, rr.Code)
	assert.Equal(t, domain.ReasonUnauthorized, env.Code)
}

func TestTransferAboveThresholdReturnsAccepted(t *testing.T) {
	a := newAPI(t)
	a.seed(t, "u1", "5000")

	rr, env := a.do(t, http.MethodPost, "/transfers", "u1", "", map[string]any{
		"type": "internal", "fromAccount": "checking", "toAccount": "savings", "amount": "2000",
	})
	require.Equal(t, http.StatusAccepted, rr.Code)
	transfer := decodeData[models.TransferResponse](t, env)
	assert.True(t, transfer.RequiresOTP)
	assert.Empty(t, transfer.Reference)

	rr, env = a.do(t, http.MethodPost, "/otp/verify", "u1", "", map[string]any{"code": "12345"})
	assert.Equal(t, http.StatusBadRequest, rr.Code)
	assert.Equal(t, domain.ReasonValidation, env.Code)
	assert.Equal(t, []string{"code must be exactly 6 digits"}, env.Errors)
}

func TestAdminRoutesRequireAdminRole(t *testing.T) {
	a := newAPI(t)
	a.seed(t, "u1", "")

	body := map[string]any{"ownerId": "u1", "type": "deposit", "accountType": "checking", "amount": "40"}

	rr, _ := a.do(t, http.MethodPost, "/transactions", "u1", middleware.RoleUser, body)
	assert.Equal(t, http.StatusForbidden, rr.Code)

	rr, _ = a.do(t, http.MethodPost, "/transactions", "u1", middleware.Role("root"), body)
	assert.Equal(t, http.StatusForbidden, rr.Code)

	rr, env := a.do(t, http.MethodPost, "/transactions", "admin-1", middleware.RoleAdmin, body)
	require.Equal(t, http.StatusCreated, rr.Code, rr.Body.String())
	submitted := decodeData[models.TransactionResponse](t, env)
	assert.Equal(t, "pending", submitted.Status)
	assert.Equal(t, "admin-1", submitted.Metadata["submittedBy"])

	rr, env = a.do(t, http.MethodPost, "/transactions/"+submitted.ID+"/approve", "admin-1", middleware.RoleAdmin, nil)
	require.Equal(t, http.StatusOK, rr.Code, rr.Body.String())
	approved := decodeData[models.TransactionResponse](t, env)
	assert.Equal(t, "completed", approved.Status)
	assert.True(t, approved.Posted)

	rr, env = a.do(t, http.MethodPost, "/transactions/"+submitted.ID+"/approve", "admin-1", middleware.RoleAdmin, nil)
	assert.Equal(t, http.StatusBadRequest, rr.Code)
	assert.Equal(t, domain.ReasonAlreadyProcessed, env.Code)

	rr, env = a.do(t, http.MethodPost, "/transactions/"+submitted.ID+"/post", "admin-1", middleware.RoleSuperAdmin, nil)
	require.Equal(t, http.StatusOK, rr.Code)
	posting := decodeData[models.PostingResultResponse](t, env)
	assert.False(t, posting.Applied)
}

func TestHolderVisibility(t *testing.T) {
	a := newAPI(t)
	a.seed(t, "u1", "")
	a.seed(t, "u2", "")

	rr, _ := a.do(t, http.MethodGet, "/holders/u1", "u1", "", nil)
	assert.Equal(t, http.StatusOK, rr.Code)

	rr, env := a.do(t, http.MethodGet, "/holders/u1", "u2", "", nil)
	assert.Equal(t, http.StatusNotFound, rr.Code)
	assert.Equal(t, domain.ReasonNotFound, env.Code)

	rr, _ = a.do(t, http.MethodGet, "/holders/u2", "admin-1", middleware.RoleAdmin, nil)
	assert.Equal(t, http.StatusOK, rr.Code)

	rr, env = a.do(t, http.MethodGet, "/balances?ownerId=u2", "admin-1", middleware.RoleAdmin, nil)
	require.Equal(t, http.StatusOK, rr.Code)
	assert.Equal(t, "u2", decodeData[models.RollupResponse](t, env).OwnerID)
}

func TestScheduleLifecycleOverHTTP(t *testing.T) {
	a := newAPI(t)
	a.seed(t, "u1", "300")

	rr, env := a.do(t, http.MethodPost, "/scheduled-transfers", "u1", "", map[string]any{
		"fromAccount": "checking",
		"toAccount":   "investment",
		"amount":      "100",
		"frequency":   "weekly",
		"startDate":   "2026-01-05T00:00:00Z",
	})
	require.Equal(t, http.StatusCreated, rr.Code, rr.Body.String())
	created := decodeData[models.ScheduleResponse](t, env)
	assert.Equal(t, "active", created.Status)

	rr, _ = a.do(t, http.MethodPost, "/scheduled-transfers/"+created.ID+"/pause", "u2", "", nil)
	assert.Equal(t, http.StatusNotFound, rr.Code)

	rr, env = a.do(t, http.MethodPost, "/scheduled-transfers/sweep", "admin-1", middleware.RoleAdmin, map[string]any{"now": "2026-01-05T12:00:00Z"})
	require.Equal(t, http.StatusOK, rr.Code, rr.Body.String())
	report := decodeData[models.SweepReportResponse](t, env)
	assert.Equal(t, 1, report.Succeeded)

	rr, env = a.do(t, http.MethodGet, "/scheduled-transfers", "u1", "", nil)
	require.Equal(t, http.StatusOK, rr.Code)
	listed := decodeData[[]models.ScheduleResponse](t, env)
	require.Len(t, listed, 1)
	assert.Equal(t, 1, listed[0].ExecutedCount)

	rr, env = a.do(t, http.MethodPost, "/scheduled-transfers/"+created.ID+"/cancel", "u1", "", nil)
	require.Equal(t, http.StatusOK, rr.Code)
	assert.Equal(t, "cancelled", decodeData[models.ScheduleResponse](t, env).Status)
}

func TestLimitEndpoints(t *testing.T) {
	a := newAPI(t)
	a.seed(t, "u1", "")

	rr, env := a.do(t, http.MethodPost, "/limits/check", "u1", "", map[string]any{"amount": "20000", "kind": "transfer"})
	require.Equal(t, http.StatusOK, rr.Code, rr.Body.String())
	decision := decodeData[models.LimitDecisionResponse](t, env)
	assert.False(t, decision.Allowed)
	assert.Equal(t, domain.LimitReasonPerTransaction, decision.Reason)

	rr, _ = a.do(t, http.MethodPut, "/limits", "u1", "", map[string]any{"ownerId": "u1", "limitsEnabled": false})
	assert.Equal(t, http.StatusForbidden, rr.Code)

	rr, _ = a.do(t, http.MethodPut, "/limits", "admin-1", middleware.RoleAdmin, map[string]any{"ownerId": "u1", "limitsEnabled": false})
	require.Equal(t, http.StatusOK, rr.Code, rr.Body.String())

	rr, env = a.do(t, http.MethodPost, "/limits/check", "u1", "", map[string]any{"amount": "20000", "kind": "transfer"})
	require.Equal(t, http.StatusOK, rr.Code)
	assert.True(t, decodeData[models.LimitDecisionResponse](t, env).Allowed)
}

func TestRatesEndpoint(t *testing.T) {
	a := newAPI(t)

	rr, env := a.do(t, http.MethodGet, "/rates", "u1", "", nil)
	require.Equal(t, http.StatusOK, rr.Code)
	assert.NotEmpty(t, decodeData[[]models.RateResponse](t, env))

	rr, env = a.do(t, http.MethodGet, "/rates?from=usd&to=usd", "u1", "", nil)
	require.Equal(t, http.StatusOK, rr.Code)
	rates := decodeData[[]models.RateResponse](t, env)
	require.Len(t, rates, 1)
	assert.Equal(t, "1", rates[0].Rate)

	rr, env = a.do(t, http.MethodGet, "/rates?from=usd&to=btc&amount=124", "u1", "", nil)
	require.Equal(t, http.StatusOK, rr.Code)
	rates = decodeData[[]models.RateResponse](t, env)
	require.Len(t, rates, 1)
	assert.True(t, rates[0].Derived)
	assert.Equal(t, "0.00001613", rates[0].Rate)
	assert.Equal(t, "0.00200012", rates[0].Converted)

	rr, env = a.do(t, http.MethodGet, "/rates?from=usd&to=eur&amount=-5", "u1", "", nil)
	assert.Equal(t, http.StatusBadRequest, rr.Code)
	assert.Equal(t, "VALIDATION_ERROR", env.Code)

	rr, env = a.do(t, http.MethodGet, "/rates?from=usd&to=jpy", "u1", "", nil)
	assert.Equal(t, http.StatusNotFound, rr.Code)
	assert.Equal(t, "NOT_FOUND", env.Code)
}
