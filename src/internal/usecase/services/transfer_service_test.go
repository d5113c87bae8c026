package services_test

import (
	"context"
	"testing"

	"github.com/api-sage/backoffice-ledger/src/internal/domain"
	"github.com/api-sage/backoffice-ledger/src/internal/usecase/services"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func internalTransfer(ownerID string, amount string) domain.TransferRequest {
	return domain.TransferRequest{
		OwnerID:     ownerID,
		Class:       domain.TransferClassInternal,
		FromAccount: domain.AccountTypeChecking,
		ToAccount:   domain.AccountTypeSavings,
		Amount:      amountOf(amount),
		Currency:    domain.CurrencyUSD,
	}
}

func achDetails() *domain.ExternalAccountDetails {
	return &domain.ExternalAccountDetails{
		BeneficiaryName: "Jane Roe",
		AccountNumber:   "123456789",
		RoutingNumber:   "021000021",
	}
}

func TestInternalTransferPostsBothLegs(t *testing.T) {
	f := newFixture(t)
	f.holder(t, "u1")
	f.fund(t, "u1", domain.AccountTypeChecking, "500")

	result, err := f.transfers.CreateTransfer(context.Background(), internalTransfer("u1", "200"))
	require.NoError(t, err)

	assert.False(t, result.RequiresOTP)
	assert.Equal(t, domain.TransactionStatusApproved, result.Status)
	assert.Len(t, result.Reference, 30)
	require.Len(t, result.Transactions, 2)
	for _, leg := range result.Transactions {
		assert.True(t, leg.Posted)
		assert.Equal(t, result.CorrelationID, leg.CorrelationID)
	}
	assertAmount(t, "300", f.balance(t, "u1", domain.AccountTypeChecking))
	assertAmount(t, "200", f.balance(t, "u1", domain.AccountTypeSavings))

	f.dispatcher.Flush()
	assert.Len(t, f.notifier.byTemplate(domain.NotificationTransferCreated), 1)
}

func TestTransferInsufficientFundsWritesNothing(t *testing.T) {
	f := newFixture(t)
	f.holder(t, "u1")
	f.fund(t, "u1", domain.AccountTypeChecking, "50")

	_, err := f.transfers.CreateTransfer(context.Background(), internalTransfer("u1", "80"))
	require.ErrorIs(t, err, domain.ErrInsufficientFunds)

	txs, err := f.txs.List(context.Background(), domain.TransactionFilter{OwnerID: "u1"})
	require.NoError(t, err)
	assert.Empty(t, txs)
	assertAmount(t, "50", f.balance(t, "u1", domain.AccountTypeChecking))
}

func TestTransferAboveThresholdNeedsSingleUseProof(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	f.holder(t, "u1")
	f.fund(t, "u1", domain.AccountTypeChecking, "5000")

	req := internalTransfer("u1", "2000")
	result, err := f.transfers.CreateTransfer(ctx, req)
	require.NoError(t, err)
	assert.True(t, result.RequiresOTP)
	assert.Empty(t, result.Transactions)
	assertAmount(t, "5000", f.balance(t, "u1", domain.AccountTypeChecking))

	_, err = f.otp.RequestOTP(ctx, "u1", domain.OTPPurposeTransfer, map[string]any{"amount": "2000"})
	require.NoError(t, err)
	proof, err := f.otp.VerifyOTP(ctx, "u1", domain.OTPPurposeTransfer, f.lastCode(t, "u1"))
	require.NoError(t, err)
	require.NotEmpty(t, proof.Proof)

	req.OTPProof = proof.Proof
	result, err = f.transfers.CreateTransfer(ctx, req)
	require.NoError(t, err)
	assert.False(t, result.RequiresOTP)
	assertAmount(t, "3000", f.balance(t, "u1", domain.AccountTypeChecking))

	_, err = f.transfers.CreateTransfer(ctx, req)
	require.ErrorIs(t, err, domain.ErrInvalidOrExpiredCode)
	assertAmount(t, "3000", f.balance(t, "u1", domain.AccountTypeChecking))
}

func TestFailedWriteKeepsProofUsable(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	f.holder(t, "u1")
	f.fund(t, "u1", domain.AccountTypeChecking, "5000")

	accounts := &hookedAccounts{AccountRepository: f.accounts}
	transfers := services.NewTransferService(accounts, f.txs, f.limits, f.otp, f.dispatcher, decimal.NewFromInt(1000))

	_, err := f.otp.RequestOTP(ctx, "u1", domain.OTPPurposeTransfer, map[string]any{"amount": "2000"})
	require.NoError(t, err)
	proof, err := f.otp.VerifyOTP(ctx, "u1", domain.OTPPurposeTransfer, f.lastCode(t, "u1"))
	require.NoError(t, err)

	// The balance drops between the pre-check and the posting.
	accounts.afterBalance = func() { f.fund(t, "u1", domain.AccountTypeChecking, "-4000") }

	req := internalTransfer("u1", "2000")
	req.OTPProof = proof.Proof
	_, err = transfers.CreateTransfer(ctx, req)
	require.ErrorIs(t, err, domain.ErrInsufficientFunds)
	assertAmount(t, "1000", f.balance(t, "u1", domain.AccountTypeChecking))

	f.fund(t, "u1", domain.AccountTypeChecking, "4000")
	result, err := transfers.CreateTransfer(ctx, req)
	require.NoError(t, err)
	assert.False(t, result.RequiresOTP)
	assertAmount(t, "3000", f.balance(t, "u1", domain.AccountTypeChecking))

	_, err = transfers.CreateTransfer(ctx, req)
	require.ErrorIs(t, err, domain.ErrInvalidOrExpiredCode)
}

func TestRestoredProofYieldsToNewerChallenge(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	f.holder(t, "u1")

	_, err := f.otp.RequestOTP(ctx, "u1", domain.OTPPurposeTransfer, map[string]any{"amount": "2000"})
	require.NoError(t, err)
	proof, err := f.otp.VerifyOTP(ctx, "u1", domain.OTPPurposeTransfer, f.lastCode(t, "u1"))
	require.NoError(t, err)

	consumed, err := f.otp.ConsumeProof(ctx, "u1", domain.OTPPurposeTransfer, proof.Proof)
	require.NoError(t, err)

	_, err = f.otp.RequestOTP(ctx, "u1", domain.OTPPurposeTransfer, map[string]any{"amount": "3000"})
	require.NoError(t, err)
	require.NoError(t, f.otp.RestoreProof(ctx, consumed))

	_, err = f.otp.ConsumeProof(ctx, "u1", domain.OTPPurposeTransfer, proof.Proof)
	require.ErrorIs(t, err, domain.ErrInvalidOrExpiredCode)
}

func TestTransferRejectsProofBoundToAnotherAmount(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	f.holder(t, "u1")
	f.fund(t, "u1", domain.AccountTypeChecking, "5000")

	_, err := f.otp.RequestOTP(ctx, "u1", domain.OTPPurposeTransfer, map[string]any{"amount": "1500"})
	require.NoError(t, err)
	proof, err := f.otp.VerifyOTP(ctx, "u1", domain.OTPPurposeTransfer, f.lastCode(t, "u1"))
	require.NoError(t, err)

	req := internalTransfer("u1", "2000")
	req.OTPProof = proof.Proof
	_, err = f.transfers.CreateTransfer(ctx, req)
	require.ErrorIs(t, err, domain.ErrInvalidOrExpiredCode)
	assertAmount(t, "5000", f.balance(t, "u1", domain.AccountTypeChecking))

	limits, err := f.limits.GetLimits(ctx, "u1")
	require.NoError(t, err)
	assert.True(t, limits.TodayTransferred.IsZero())
}

func TestOTPInvalidatedAfterFiveWrongCodes(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	f.holder(t, "u1")

	_, err := f.otp.RequestOTP(ctx, "u1", domain.OTPPurposeTransfer, nil)
	require.NoError(t, err)
	code := f.lastCode(t, "u1")

	wrong := "000000"
	if code == wrong {
		wrong = "111111"
	}
	for i := 0; i < domain.OTPMaxAttempts; i++ {
		_, err := f.otp.VerifyOTP(ctx, "u1", domain.OTPPurposeTransfer, wrong)
		require.ErrorIs(t, err, domain.ErrInvalidOrExpiredCode)
	}

	_, err = f.otp.VerifyOTP(ctx, "u1", domain.OTPPurposeTransfer, code)
	require.ErrorIs(t, err, domain.ErrInvalidOrExpiredCode)
}

func TestCrossOwnerTransferByEmail(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	f.holder(t, "alice")
	f.holder(t, "bob")
	f.fund(t, "alice", domain.AccountTypeChecking, "300")

	result, err := f.transfers.CreateTransfer(ctx, domain.TransferRequest{
		OwnerID:        "alice",
		Class:          domain.TransferClassCrossOwner,
		Amount:         amountOf("120"),
		RecipientEmail: "BOB@example.com",
	})
	require.NoError(t, err)
	require.Len(t, result.Transactions, 2)

	assertAmount(t, "180", f.balance(t, "alice", domain.AccountTypeChecking))
	assertAmount(t, "120", f.balance(t, "bob", domain.AccountTypeChecking))
	assert.Equal(t, "bob", result.Transactions[0].Metadata["recipientId"])
	assert.Equal(t, "alice", result.Transactions[1].Metadata["senderId"])
}

func TestCrossOwnerTransferRecipientErrors(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	f.holder(t, "alice")
	f.fund(t, "alice", domain.AccountTypeChecking, "300")

	_, err := f.transfers.CreateTransfer(ctx, domain.TransferRequest{
		OwnerID:        "alice",
		Class:          domain.TransferClassCrossOwner,
		Amount:         amountOf("10"),
		RecipientEmail: "nobody@example.com",
	})
	require.ErrorIs(t, err, domain.ErrRecipientNotFound)

	_, err = f.transfers.CreateTransfer(ctx, domain.TransferRequest{
		OwnerID:        "alice",
		Class:          domain.TransferClassCrossOwner,
		Amount:         amountOf("10"),
		RecipientEmail: "alice@example.com",
	})
	require.ErrorIs(t, err, domain.ErrValidation)
}

func TestExternalTransferIsPendingUntilGroupApproval(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	f.holder(t, "u1")
	f.fund(t, "u1", domain.AccountTypeChecking, "1000")

	result, err := f.transfers.CreateTransfer(ctx, domain.TransferRequest{
		OwnerID:  "u1",
		Class:    domain.TransferClassACH,
		Amount:   amountOf("100"),
		Urgent:   true,
		External: achDetails(),
	})
	require.NoError(t, err)
	assert.Equal(t, domain.TransactionStatusPending, result.Status)
	require.NotNil(t, result.Fees)
	assertAmount(t, "13", result.Fees.TotalFee)
	assertAmount(t, "113", result.Fees.TotalDebit)

	require.Len(t, result.Transactions, 2)
	assert.Equal(t, domain.TransactionTypeTransferOut, result.Transactions[0].Type)
	assert.Equal(t, domain.TransactionTypeFee, result.Transactions[1].Type)
	assertAmount(t, "13", result.Transactions[1].Amount)
	assertAmount(t, "1000", f.balance(t, "u1", domain.AccountTypeChecking))

	approved, err := f.approvals.ApproveGroup(ctx, result.CorrelationID, "admin-1")
	require.NoError(t, err)
	assert.Len(t, approved, 2)
	assertAmount(t, "887", f.balance(t, "u1", domain.AccountTypeChecking))
}

func TestWireBelowMinimumIsOutOfRange(t *testing.T) {
	f := newFixture(t)
	f.holder(t, "u1")
	f.fund(t, "u1", domain.AccountTypeChecking, "1000")

	external := achDetails()
	external.BankName = "First Bank"
	_, err := f.transfers.CreateTransfer(context.Background(), domain.TransferRequest{
		OwnerID:  "u1",
		Class:    domain.TransferClassWire,
		Amount:   amountOf("50"),
		External: external,
	})
	require.ErrorIs(t, err, domain.ErrAmountOutOfRange)
	assert.Equal(t, domain.ReasonAmountOutOfRange, domain.ReasonCode(err))
}

func TestTransferOverLimitLeavesCountersUntouched(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	f.holder(t, "u1")
	f.fund(t, "u1", domain.AccountTypeChecking, "1000")

	ceiling := amountOf("50")
	_, err := f.limits.UpdateLimits(ctx, "u1", domain.LimitUpdate{MaxTransactionAmount: &ceiling})
	require.NoError(t, err)

	_, err = f.transfers.CreateTransfer(ctx, internalTransfer("u1", "100"))
	require.ErrorIs(t, err, domain.ErrLimitExceeded)
	assert.Contains(t, err.Error(), domain.LimitReasonPerTransaction)

	limits, err := f.limits.GetLimits(ctx, "u1")
	require.NoError(t, err)
	assert.True(t, limits.TodayTransferred.IsZero())
	assertAmount(t, "1000", f.balance(t, "u1", domain.AccountTypeChecking))
}

func TestHeldTransferPostsOnGroupApproval(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	f.holder(t, "u1")
	f.fund(t, "u1", domain.AccountTypeChecking, "400")

	req := internalTransfer("u1", "150")
	req.HoldForApproval = true
	result, err := f.transfers.CreateTransfer(ctx, req)
	require.NoError(t, err)
	assert.Equal(t, domain.TransactionStatusPending, result.Status)
	assertAmount(t, "400", f.balance(t, "u1", domain.AccountTypeChecking))

	_, err = f.approvals.ApproveGroup(ctx, result.CorrelationID, "admin-1")
	require.NoError(t, err)
	assertAmount(t, "250", f.balance(t, "u1", domain.AccountTypeChecking))
	assertAmount(t, "150", f.balance(t, "u1", domain.AccountTypeSavings))

	_, err = f.approvals.ApproveGroup(ctx, result.CorrelationID, "admin-1")
	require.ErrorIs(t, err, domain.ErrRecordNotFound)
}

func TestQuoteFees(t *testing.T) {
	f := newFixture(t)

	fees, err := f.transfers.QuoteFees(domain.TransferClassInternational, amountOf("1000"), false, "EUR")
	require.NoError(t, err)
	assertAmount(t, "10", fees.FXSurcharge)
	assertAmount(t, "55", fees.TotalFee)

	internal, err := f.transfers.QuoteFees(domain.TransferClassInternal, amountOf("10"), false, "")
	require.NoError(t, err)
	assert.True(t, internal.TotalFee.IsZero())

	_, err = f.transfers.QuoteFees(domain.TransferClass("carrier-pigeon"), amountOf("10"), false, "")
	require.ErrorIs(t, err, domain.ErrValidation)
}
