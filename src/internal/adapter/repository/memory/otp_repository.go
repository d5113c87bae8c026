package memory

import (
	"context"
	"time"

	"github.com/api-sage/backoffice-ledger/src/internal/domain"
	"github.com/google/uuid"
)

type OTPRepository struct {
	store *Store
}

func NewOTPRepository(store *Store) *OTPRepository {
	return &OTPRepository{store: store}
}

func (r *OTPRepository) Upsert(_ context.Context, challenge domain.OTPChallenge) (domain.OTPChallenge, error) {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()

	if challenge.ID == "" {
		challenge.ID = uuid.NewString()
	}
	if challenge.CreatedAt.IsZero() {
		challenge.CreatedAt = time.Now().UTC()
	}
	challenge.Purpose = domain.NormalizePurpose(challenge.Purpose)

	r.store.otps[otpKey{ownerID: challenge.OwnerID, purpose: challenge.Purpose}] = cloneChallenge(challenge)
	return cloneChallenge(challenge), nil
}

func (r *OTPRepository) Get(_ context.Context, ownerID string, purpose string) (domain.OTPChallenge, error) {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()

	challenge, ok := r.store.otps[otpKey{ownerID: ownerID, purpose: domain.NormalizePurpose(purpose)}]
	if !ok {
		return domain.OTPChallenge{}, domain.ErrRecordNotFound
	}
	return cloneChallenge(challenge), nil
}

func (r *OTPRepository) IncrementAttempts(_ context.Context, id string) (int, error) {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()

	key, challenge, ok := r.findLocked(id)
	if !ok {
		return 0, domain.ErrRecordNotFound
	}
	challenge.Attempts++
	r.store.otps[key] = challenge
	return challenge.Attempts, nil
}

func (r *OTPRepository) MarkVerified(_ context.Context, id string, proofHash string, proofExpiresAt time.Time, verifiedAt time.Time) error {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()

	key, challenge, ok := r.findLocked(id)
	if !ok {
		return domain.ErrRecordNotFound
	}
	challenge.VerifiedAt = &verifiedAt
	challenge.ProofHash = proofHash
	challenge.ProofExpiresAt = &proofExpiresAt
	r.store.otps[key] = challenge
	return nil
}

func (r *OTPRepository) Delete(_ context.Context, id string, onlyVerified bool) (bool, error) {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()

	key, challenge, ok := r.findLocked(id)
	if !ok {
		return false, nil
	}
	if onlyVerified && !challenge.IsVerified() {
		return false, nil
	}
	delete(r.store.otps, key)
	return true, nil
}

func (r *OTPRepository) findLocked(id string) (otpKey, domain.OTPChallenge, bool) {
	for key, challenge := range r.store.otps {
		if challenge.ID == id {
			return key, cloneChallenge(challenge), true
		}
	}
	return otpKey{}, domain.OTPChallenge{}, false
}

func (r *OTPRepository) Restore(_ context.Context, challenge domain.OTPChallenge) (bool, error) {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()

	key := otpKey{ownerID: challenge.OwnerID, purpose: domain.NormalizePurpose(challenge.Purpose)}
	if _, taken := r.store.otps[key]; taken {
		return false, nil
	}
	r.store.otps[key] = cloneChallenge(challenge)
	return true, nil
}
