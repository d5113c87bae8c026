package repo_interfaces

import (
	"context"
	"time"

	"github.com/api-sage/backoffice-ledger/src/internal/domain"
)

type OTPRepository interface {
	// Upsert replaces any challenge held for the same (owner, purpose).
	Upsert(ctx context.Context, challenge domain.OTPChallenge) (domain.OTPChallenge, error)
	Get(ctx context.Context, ownerID string, purpose string) (domain.OTPChallenge, error)
	IncrementAttempts(ctx context.Context, id string) (int, error)
	MarkVerified(ctx context.Context, id string, proofHash string, proofExpiresAt time.Time, verifiedAt time.Time) error
	// Delete reports whether the row existed; it is the single-use gate.
	Delete(ctx context.Context, id string, onlyVerified bool) (bool, error)
	// Restore re-inserts a consumed challenge unless (owner, purpose) is
	// taken again, and reports whether it did.
	Restore(ctx context.Context, challenge domain.OTPChallenge) (bool, error)
}
