package services

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"errors"
	"fmt"
	"math/big"
	"strings"
	"time"

	"github.com/api-sage/backoffice-ledger/src/internal/adapter/repository/repo_interfaces"
	"github.com/api-sage/backoffice-ledger/src/internal/domain"
	"github.com/api-sage/backoffice-ledger/src/internal/logger"
	"github.com/api-sage/backoffice-ledger/src/internal/usecase/service_interfaces"
	"golang.org/x/crypto/bcrypt"
)

var _ service_interfaces.OTPService = (*OTPService)(nil)

const otpDigits = 6

type OTPService struct {
	otpRepo     repo_interfaces.OTPRepository
	accountRepo repo_interfaces.AccountRepository
	dispatcher  *Dispatcher
	hashCost    int
	now         func() time.Time
}

func NewOTPService(otpRepo repo_interfaces.OTPRepository, accountRepo repo_interfaces.AccountRepository, dispatcher *Dispatcher) *OTPService {
	return &OTPService{
		otpRepo:     otpRepo,
		accountRepo: accountRepo,
		dispatcher:  dispatcher,
		hashCost:    bcrypt.DefaultCost,
		now:         utcNow,
	}
}

// RequestOTP issues a fresh code for (owner, purpose), replacing any earlier
// challenge, and hands the code to the notifier.
func (s *OTPService) RequestOTP(ctx context.Context, ownerID string, purpose string, metadata map[string]any) (domain.OTPIssued, error) {
	purpose = domain.NormalizePurpose(purpose)
	logger.Info("otp service request", logger.Fields{
		"ownerId": ownerID,
		"purpose": purpose,
	})

	if strings.TrimSpace(ownerID) == "" || purpose == "" {
		return domain.OTPIssued{}, fmt.Errorf("%w: ownerId and purpose are required", domain.ErrValidation)
	}

	holder, err := s.accountRepo.GetHolder(ctx, ownerID)
	if err != nil {
		return domain.OTPIssued{}, err
	}

	code, err := generateOTPCode()
	if err != nil {
		logger.Error("otp service generate code failed", err, nil)
		return domain.OTPIssued{}, err
	}
	codeHash, err := bcrypt.GenerateFromPassword([]byte(code), s.hashCost)
	if err != nil {
		logger.Error("otp service hash code failed", err, nil)
		return domain.OTPIssued{}, fmt.Errorf("hash otp code: %w", err)
	}

	now := s.now()
	challenge, err := s.otpRepo.Upsert(ctx, domain.OTPChallenge{
		OwnerID:   ownerID,
		Purpose:   purpose,
		CodeHash:  string(codeHash),
		ExpiresAt: now.Add(domain.OTPTTL),
		Metadata:  metadata,
		CreatedAt: now,
	})
	if err != nil {
		logger.Error("otp service store challenge failed", err, logger.Fields{"ownerId": ownerID})
		return domain.OTPIssued{}, err
	}

	s.dispatcher.Dispatch(ctx, domain.Notification{
		OwnerID:  ownerID,
		Address:  holder.Email,
		Template: domain.NotificationOTPCode,
		Data: map[string]any{
			"code":      code,
			"purpose":   purpose,
			"expiresAt": challenge.ExpiresAt.Format(time.RFC3339),
		},
	})

	logger.Info("otp service request success", logger.Fields{
		"ownerId":     ownerID,
		"challengeId": challenge.ID,
	})
	return domain.OTPIssued{ChallengeID: challenge.ID, ExpiresAt: challenge.ExpiresAt}, nil
}

// VerifyOTP checks the code and, on a match, returns a single-use proof
// valid for the rest of the challenge window.
func (s *OTPService) VerifyOTP(ctx context.Context, ownerID string, purpose string, code string) (domain.OTPProof, error) {
	purpose = domain.NormalizePurpose(purpose)
	logger.Info("otp service verify", logger.Fields{
		"ownerId": ownerID,
		"purpose": purpose,
	})

	challenge, err := s.otpRepo.Get(ctx, ownerID, purpose)
	if err != nil {
		if errors.Is(err, domain.ErrRecordNotFound) {
			return domain.OTPProof{}, domain.ErrInvalidOrExpiredCode
		}
		return domain.OTPProof{}, err
	}

	now := s.now()
	if challenge.IsVerified() {
		return domain.OTPProof{}, domain.ErrInvalidOrExpiredCode
	}
	if challenge.IsExpired(now) || challenge.Attempts >= domain.OTPMaxAttempts {
		s.discard(ctx, challenge.ID)
		return domain.OTPProof{}, domain.ErrInvalidOrExpiredCode
	}

	if bcrypt.CompareHashAndPassword([]byte(challenge.CodeHash), []byte(strings.TrimSpace(code))) != nil {
		attempts, err := s.otpRepo.IncrementAttempts(ctx, challenge.ID)
		if err == nil && attempts >= domain.OTPMaxAttempts {
			s.discard(ctx, challenge.ID)
		}
		logger.Warn("otp service verify mismatch", logger.Fields{
			"ownerId":  ownerID,
			"attempts": attempts,
		})
		return domain.OTPProof{}, domain.ErrInvalidOrExpiredCode
	}

	proof, err := randomToken()
	if err != nil {
		return domain.OTPProof{}, err
	}
	proofHash, err := bcrypt.GenerateFromPassword([]byte(proof), s.hashCost)
	if err != nil {
		return domain.OTPProof{}, fmt.Errorf("hash otp proof: %w", err)
	}

	if err := s.otpRepo.MarkVerified(ctx, challenge.ID, string(proofHash), challenge.ExpiresAt, now); err != nil {
		if errors.Is(err, domain.ErrRecordNotFound) {
			return domain.OTPProof{}, domain.ErrInvalidOrExpiredCode
		}
		logger.Error("otp service mark verified failed", err, nil)
		return domain.OTPProof{}, err
	}

	logger.Info("otp service verify success", logger.Fields{"ownerId": ownerID})
	return domain.OTPProof{Proof: proof, ExpiresAt: challenge.ExpiresAt, Metadata: challenge.Metadata}, nil
}

// ConsumeProof spends a verified proof and returns the challenge it belonged
// to, metadata included. A proof can be consumed once.
func (s *OTPService) ConsumeProof(ctx context.Context, ownerID string, purpose string, proof string) (domain.OTPChallenge, error) {
	purpose = domain.NormalizePurpose(purpose)

	challenge, err := s.otpRepo.Get(ctx, ownerID, purpose)
	if err != nil {
		if errors.Is(err, domain.ErrRecordNotFound) {
			return domain.OTPChallenge{}, domain.ErrInvalidOrExpiredCode
		}
		return domain.OTPChallenge{}, err
	}
	if !challenge.IsVerified() || challenge.ProofHash == "" {
		return domain.OTPChallenge{}, domain.ErrInvalidOrExpiredCode
	}
	if challenge.ProofExpiresAt != nil && !s.now().Before(*challenge.ProofExpiresAt) {
		s.discard(ctx, challenge.ID)
		return domain.OTPChallenge{}, domain.ErrInvalidOrExpiredCode
	}
	if bcrypt.CompareHashAndPassword([]byte(challenge.ProofHash), []byte(strings.TrimSpace(proof))) != nil {
		return domain.OTPChallenge{}, domain.ErrInvalidOrExpiredCode
	}

	deleted, err := s.otpRepo.Delete(ctx, challenge.ID, true)
	if err != nil {
		return domain.OTPChallenge{}, err
	}
	if !deleted {
		return domain.OTPChallenge{}, domain.ErrInvalidOrExpiredCode
	}

	logger.Info("otp service proof consumed", logger.Fields{
		"ownerId": ownerID,
		"purpose": purpose,
	})
	return challenge, nil
}

// RestoreProof puts back a proof whose transfer wrote nothing, so the caller
// can retry without a new code. An expired proof is dropped, and a challenge
// issued in the meantime wins over the restored one.
func (s *OTPService) RestoreProof(ctx context.Context, challenge domain.OTPChallenge) error {
	if challenge.ProofExpiresAt != nil && !s.now().Before(*challenge.ProofExpiresAt) {
		return nil
	}

	restored, err := s.otpRepo.Restore(ctx, challenge)
	if err != nil {
		logger.Error("otp service restore proof failed", err, logger.Fields{"ownerId": challenge.OwnerID})
		return err
	}

	logger.Info("otp service proof restored", logger.Fields{
		"ownerId":  challenge.OwnerID,
		"purpose":  challenge.Purpose,
		"restored": restored,
	})
	return nil
}

func (s *OTPService) discard(ctx context.Context, id string) {
	if _, err := s.otpRepo.Delete(ctx, id, false); err != nil {
		logger.Error("otp service discard challenge failed", err, nil)
	}
}

func generateOTPCode() (string, error) {
	upper := new(big.Int).Exp(big.NewInt(10), big.NewInt(otpDigits), nil)
	n, err := rand.Int(rand.Reader, upper)
	if err != nil {
		return "", fmt.Errorf("generate otp code: %w", err)
	}
	return fmt.Sprintf("%0*d", otpDigits, n.Int64()), nil
}

func randomToken() (string, error) {
	buf := make([]byte, 32)
	if _, err := rand.Read(buf); err != nil {
		return "", fmt.Errorf("generate otp proof: %w", err)
	}
	return hex.EncodeToString(buf), nil
}
