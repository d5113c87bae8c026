package services

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"sync/atomic"
	"time"

	"github.com/api-sage/backoffice-ledger/src/internal/adapter/repository/repo_interfaces"
	"github.com/api-sage/backoffice-ledger/src/internal/domain"
	"github.com/api-sage/backoffice-ledger/src/internal/logger"
	"github.com/api-sage/backoffice-ledger/src/internal/usecase/service_interfaces"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

var _ service_interfaces.TransferService = (*TransferService)(nil)

type TransferService struct {
	accountRepo  repo_interfaces.AccountRepository
	txRepo       repo_interfaces.TransactionRepository
	limitService service_interfaces.LimitService
	otpService   service_interfaces.OTPService
	dispatcher   *Dispatcher
	otpThreshold decimal.Decimal
	now          func() time.Time
}

func NewTransferService(
	accountRepo repo_interfaces.AccountRepository,
	txRepo repo_interfaces.TransactionRepository,
	limitService service_interfaces.LimitService,
	otpService service_interfaces.OTPService,
	dispatcher *Dispatcher,
	otpThreshold decimal.Decimal,
) *TransferService {
	return &TransferService{
		accountRepo:  accountRepo,
		txRepo:       txRepo,
		limitService: limitService,
		otpService:   otpService,
		dispatcher:   dispatcher,
		otpThreshold: otpThreshold,
		now:          utcNow,
	}
}

var transferRefCounter uint32

// transferPlan is a validated request ready to be written.
type transferPlan struct {
	req        domain.TransferRequest
	recipient  *domain.Holder
	policy     domain.TransferPolicy
	fees       *domain.FeeBreakdown
	totalDebit decimal.Decimal
}

// CreateTransfer validates, gates and writes a transfer. Internal and
// cross-owner transfers post immediately unless held for approval; external
// transfers are written pending with a separate fee record.
func (s *TransferService) CreateTransfer(ctx context.Context, req domain.TransferRequest) (domain.TransferResult, error) {
	logger.Info("transfer service create transfer request", logger.Fields{
		"payload": logger.SanitizePayload(req),
	})

	plan, err := s.plan(ctx, req)
	if err != nil {
		logger.Error("transfer service validation failed", err, logger.Fields{"ownerId": req.OwnerID})
		return domain.TransferResult{}, err
	}
	req = plan.req

	available, err := s.accountRepo.GetBalance(ctx, req.OwnerID, req.FromAccount, req.Currency)
	if err != nil {
		return domain.TransferResult{}, err
	}
	if available.LessThan(plan.totalDebit) {
		logger.Warn("transfer service insufficient funds", logger.Fields{
			"ownerId":    req.OwnerID,
			"available":  available,
			"totalDebit": plan.totalDebit,
		})
		return domain.TransferResult{}, domain.ErrInsufficientFunds
	}

	needsOTP := req.Amount.GreaterThan(s.otpThreshold)
	if needsOTP && strings.TrimSpace(req.OTPProof) == "" {
		logger.Info("transfer service otp required", logger.Fields{
			"ownerId": req.OwnerID,
			"amount":  req.Amount,
		})
		return domain.TransferResult{RequiresOTP: true, Fees: plan.fees}, nil
	}

	if _, err := s.limitService.Reserve(ctx, req.OwnerID, plan.totalDebit, domain.LimitKindTransfer, req.FromAccount); err != nil {
		return domain.TransferResult{}, err
	}

	result, err := s.gateAndWrite(ctx, plan, needsOTP)
	if err != nil {
		if releaseErr := s.limitService.Release(ctx, req.OwnerID, plan.totalDebit, domain.LimitKindTransfer, req.FromAccount); releaseErr != nil {
			logger.Error("transfer service limit release failed", releaseErr, logger.Fields{"ownerId": req.OwnerID})
		}
		logger.Error("transfer service create transfer failed", err, logger.Fields{"ownerId": req.OwnerID})
		return domain.TransferResult{}, err
	}

	s.notifyCreated(ctx, req, result)

	logger.Info("transfer service create transfer success", logger.Fields{
		"ownerId":       req.OwnerID,
		"reference":     result.Reference,
		"correlationId": result.CorrelationID,
		"status":        result.Status,
	})
	return result, nil
}

func (s *TransferService) QuoteFees(class domain.TransferClass, amount decimal.Decimal, urgent bool, destinationCurrency string) (domain.FeeBreakdown, error) {
	policy, ok := domain.PolicyFor(class)
	if !ok {
		if class == domain.TransferClassInternal || class == domain.TransferClassCrossOwner {
			return domain.FeeBreakdown{Class: class, Amount: amount, TotalDebit: amount}, nil
		}
		return domain.FeeBreakdown{}, fmt.Errorf("%w: unknown transfer type %q", domain.ErrValidation, class)
	}
	if amount.LessThanOrEqual(decimal.Zero) {
		return domain.FeeBreakdown{}, fmt.Errorf("%w: amount must be greater than zero", domain.ErrValidation)
	}
	if err := policy.CheckBounds(amount); err != nil {
		return domain.FeeBreakdown{}, err
	}
	return policy.Fees(amount, urgent, destinationCurrency), nil
}

func (s *TransferService) plan(ctx context.Context, req domain.TransferRequest) (transferPlan, error) {
	var errs []string

	if strings.TrimSpace(req.OwnerID) == "" {
		errs = append(errs, "ownerId is required")
	}
	if req.Amount.LessThanOrEqual(decimal.Zero) {
		errs = append(errs, "amount must be greater than zero")
	}
	if req.Currency == "" {
		req.Currency = domain.CurrencyUSD
	}
	if _, err := domain.ParseCurrency(string(req.Currency)); err != nil {
		errs = append(errs, "currency is not supported")
	}
	if req.FromAccount == "" {
		req.FromAccount = domain.AccountTypeChecking
	}
	if _, err := domain.ParseAccountType(string(req.FromAccount)); err != nil {
		errs = append(errs, "fromAccount is not supported")
	}
	if req.Class == "" {
		req.Class = domain.TransferClassInternal
	}
	if len(errs) > 0 {
		return transferPlan{}, domain.Invalid(errs)
	}

	plan := transferPlan{req: req, totalDebit: req.Amount}

	switch req.Class {
	case domain.TransferClassInternal:
		if _, err := domain.ParseAccountType(string(req.ToAccount)); err != nil {
			return transferPlan{}, fmt.Errorf("%w: toAccount is not supported", domain.ErrValidation)
		}
		if req.ToAccount == req.FromAccount {
			return transferPlan{}, fmt.Errorf("%w: fromAccount and toAccount cannot be the same", domain.ErrValidation)
		}

	case domain.TransferClassCrossOwner:
		if req.ToAccount == "" {
			plan.req.ToAccount = domain.AccountTypeChecking
		} else if _, err := domain.ParseAccountType(string(req.ToAccount)); err != nil {
			return transferPlan{}, fmt.Errorf("%w: toAccount is not supported", domain.ErrValidation)
		}
		recipient, err := s.resolveRecipient(ctx, req)
		if err != nil {
			return transferPlan{}, err
		}
		if recipient.ID == req.OwnerID {
			return transferPlan{}, fmt.Errorf("%w: cannot transfer to yourself", domain.ErrValidation)
		}
		plan.recipient = &recipient

	default:
		policy, ok := domain.PolicyFor(req.Class)
		if !ok {
			return transferPlan{}, fmt.Errorf("%w: unknown transfer type %q", domain.ErrValidation, req.Class)
		}
		if req.Currency != domain.CurrencyUSD {
			return transferPlan{}, fmt.Errorf("%w: external transfers are funded in USD", domain.ErrValidation)
		}
		if err := policy.CheckBounds(req.Amount); err != nil {
			return transferPlan{}, err
		}
		if req.External == nil {
			return transferPlan{}, fmt.Errorf("%w: externalAccountDetails are required", domain.ErrValidation)
		}
		if err := req.External.Validate(policy); err != nil {
			return transferPlan{}, err
		}
		fees := policy.Fees(req.Amount, req.Urgent, req.External.Currency)
		plan.policy = policy
		plan.fees = &fees
		plan.totalDebit = fees.TotalDebit
	}

	return plan, nil
}

func (s *TransferService) resolveRecipient(ctx context.Context, req domain.TransferRequest) (domain.Holder, error) {
	var (
		recipient domain.Holder
		err       error
	)
	switch {
	case strings.TrimSpace(req.RecipientEmail) != "":
		recipient, err = s.accountRepo.FindHolderByEmail(ctx, req.RecipientEmail)
	case strings.TrimSpace(req.RecipientAccountNumber) != "":
		recipient, err = s.accountRepo.FindHolderByAccountNumber(ctx, req.RecipientAccountNumber, req.RecipientRoutingNumber)
	default:
		return domain.Holder{}, fmt.Errorf("%w: recipientEmail or recipientAccountNumber is required", domain.ErrValidation)
	}
	if err != nil {
		if errors.Is(err, domain.ErrRecordNotFound) {
			return domain.Holder{}, domain.ErrRecipientNotFound
		}
		return domain.Holder{}, err
	}
	return recipient, nil
}

// gateAndWrite spends the OTP proof when one is required and writes the
// records. Any error here means nothing was written, and a proof spent on a
// failed write is put back.
func (s *TransferService) gateAndWrite(ctx context.Context, plan transferPlan, needsOTP bool) (domain.TransferResult, error) {
	req := plan.req
	if !needsOTP {
		return s.writeTransfer(ctx, plan)
	}

	challenge, err := s.otpService.ConsumeProof(ctx, req.OwnerID, domain.OTPPurposeTransfer, req.OTPProof)
	if err != nil {
		return domain.TransferResult{}, err
	}
	bound, ok := decimalFromMetadata(challenge.Metadata["amount"])
	if !ok || !bound.Equal(req.Amount) {
		return domain.TransferResult{}, fmt.Errorf("%w: code was issued for a different amount", domain.ErrInvalidOrExpiredCode)
	}

	result, err := s.writeTransfer(ctx, plan)
	if err != nil {
		if restoreErr := s.otpService.RestoreProof(ctx, challenge); restoreErr != nil {
			logger.Error("transfer service otp proof restore failed", restoreErr, logger.Fields{"ownerId": req.OwnerID})
		}
		return domain.TransferResult{}, err
	}
	return result, nil
}

func (s *TransferService) writeTransfer(ctx context.Context, plan transferPlan) (domain.TransferResult, error) {
	req := plan.req

	result := domain.TransferResult{
		Reference:     generateThirtyDigitTransferReference(),
		CorrelationID: uuid.NewString(),
		Fees:          plan.fees,
	}
	now := s.now()

	switch req.Class {
	case domain.TransferClassInternal, domain.TransferClassCrossOwner:
		status := domain.TransactionStatusApproved
		if req.HoldForApproval {
			status = domain.TransactionStatusPending
		}

		creditOwner := req.OwnerID
		if plan.recipient != nil {
			creditOwner = plan.recipient.ID
		}

		legs := []domain.Transaction{
			s.leg(req, result, req.OwnerID, domain.TransactionTypeTransferOut, req.FromAccount, req.Amount, status, now),
			s.leg(req, result, creditOwner, domain.TransactionTypeTransferIn, req.ToAccount, req.Amount, status, now),
		}
		if plan.recipient != nil {
			legs[0].Metadata["recipientId"] = plan.recipient.ID
			legs[1].Metadata["senderId"] = req.OwnerID
		}

		written, err := s.write(ctx, legs, status, now)
		if err != nil {
			return domain.TransferResult{}, err
		}
		result.Transactions = written
		result.Status = status

	default:
		principal := s.leg(req, result, req.OwnerID, domain.TransactionTypeTransferOut, req.FromAccount, req.Amount, domain.TransactionStatusPending, now)
		principal.Channel = plan.policy.DefaultChannel
		principal.Metadata["transferType"] = string(req.Class)
		principal.Metadata["urgent"] = req.Urgent
		principal.Metadata["settlementWindow"] = plan.policy.SettlementWindow
		principal.Metadata["externalAccountDetails"] = detailsToMap(req.External)

		legs := []domain.Transaction{principal}
		if plan.fees.TotalFee.GreaterThan(decimal.Zero) {
			fee := s.leg(req, result, req.OwnerID, domain.TransactionTypeFee, req.FromAccount, plan.fees.TotalFee, domain.TransactionStatusPending, now)
			fee.Channel = plan.policy.DefaultChannel
			fee.Description = fmt.Sprintf("%s transfer fee", req.Class)
			fee.Metadata["flatFee"] = plan.fees.FlatFee.StringFixed(2)
			fee.Metadata["urgentFee"] = plan.fees.Urgent.StringFixed(2)
			fee.Metadata["fxSurcharge"] = plan.fees.FXSurcharge.StringFixed(2)
			legs = append(legs, fee)
		}

		written, err := s.write(ctx, legs, domain.TransactionStatusPending, now)
		if err != nil {
			return domain.TransferResult{}, err
		}
		result.Transactions = written
		result.Status = domain.TransactionStatusPending
	}

	return result, nil
}

func (s *TransferService) leg(
	req domain.TransferRequest,
	result domain.TransferResult,
	ownerID string,
	txType domain.TransactionType,
	accountType domain.AccountType,
	amount decimal.Decimal,
	status domain.TransactionStatus,
	now time.Time,
) domain.Transaction {
	origin := req.Origin
	if origin == "" {
		origin = "web"
	}
	return domain.Transaction{
		ID:            uuid.NewString(),
		OwnerID:       ownerID,
		Type:          txType,
		Currency:      req.Currency,
		Amount:        amount,
		AccountType:   accountType,
		Status:        status,
		Reference:     result.Reference,
		CorrelationID: result.CorrelationID,
		Date:          now,
		Channel:       string(req.Class),
		Origin:        origin,
		Description:   strings.TrimSpace(req.Description),
		Metadata: map[string]any{
			"transferType": string(req.Class),
		},
		CreatedAt: now,
	}
}

func (s *TransferService) write(ctx context.Context, legs []domain.Transaction, status domain.TransactionStatus, now time.Time) ([]domain.Transaction, error) {
	if !status.IsCleared() {
		return s.txRepo.Create(ctx, legs)
	}

	results, err := s.txRepo.CreateAndPost(ctx, legs, now)
	if err != nil {
		return nil, err
	}
	written := make([]domain.Transaction, 0, len(results))
	for _, result := range results {
		written = append(written, result.Transaction)
	}
	return written, nil
}

func (s *TransferService) notifyCreated(ctx context.Context, req domain.TransferRequest, result domain.TransferResult) {
	address := ""
	if holder, err := s.accountRepo.GetHolder(ctx, req.OwnerID); err == nil {
		address = holder.Email
	}
	s.dispatcher.Dispatch(ctx, domain.Notification{
		OwnerID:  req.OwnerID,
		Address:  address,
		Template: domain.NotificationTransferCreated,
		Data: map[string]any{
			"reference":    result.Reference,
			"transferType": string(req.Class),
			"amount":       req.Amount.StringFixed(2),
			"status":       result.Status.DisplayStatus(),
		},
	})
}

func generateThirtyDigitTransferReference() string {
	now := time.Now().UTC()
	base := now.Format("20060102150405") + fmt.Sprintf("%09d", now.Nanosecond())
	counter := atomic.AddUint32(&transferRefCounter, 1) % 10000000
	suffix := fmt.Sprintf("%07d", counter)
	return base + suffix
}

func decimalFromMetadata(value any) (decimal.Decimal, bool) {
	switch v := value.(type) {
	case string:
		d, err := decimal.NewFromString(strings.TrimSpace(v))
		return d, err == nil
	case float64:
		return decimal.NewFromFloat(v), true
	case json.Number:
		d, err := decimal.NewFromString(v.String())
		return d, err == nil
	case decimal.Decimal:
		return v, true
	default:
		return decimal.Zero, false
	}
}

func detailsToMap(details *domain.ExternalAccountDetails) map[string]any {
	if details == nil {
		return nil
	}
	raw, err := json.Marshal(details)
	if err != nil {
		return nil
	}
	out := make(map[string]any)
	if err := json.Unmarshal(raw, &out); err != nil {
		return nil
	}
	return out
}
