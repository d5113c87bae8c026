package service_interfaces

import (
	"context"

	"github.com/api-sage/backoffice-ledger/src/internal/domain"
)

type OTPService interface {
	RequestOTP(ctx context.Context, ownerID string, purpose string, metadata map[string]any) (domain.OTPIssued, error)
	VerifyOTP(ctx context.Context, ownerID string, purpose string, code string) (domain.OTPProof, error)
	ConsumeProof(ctx context.Context, ownerID string, purpose string, proof string) (domain.OTPChallenge, error)
	RestoreProof(ctx context.Context, challenge domain.OTPChallenge) error
}
