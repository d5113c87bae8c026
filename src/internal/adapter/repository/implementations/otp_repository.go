package implementations

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/api-sage/backoffice-ledger/src/internal/domain"
	"github.com/api-sage/backoffice-ledger/src/internal/logger"
	"github.com/google/uuid"
)

type OTPRepository struct {
	db *sql.DB
}

func NewOTPRepository(db *sql.DB) *OTPRepository {
	return &OTPRepository{db: db}
}

const otpColumns = `
id, owner_id, purpose, code_hash, expires_at, attempts, metadata,
verified_at, proof_hash, proof_expires_at, created_at`

// Upsert replaces the challenge held for (owner, purpose), which voids any
// earlier code or proof.
func (r *OTPRepository) Upsert(ctx context.Context, challenge domain.OTPChallenge) (domain.OTPChallenge, error) {
	challenge.ID = uuid.NewString()
	challenge.Purpose = domain.NormalizePurpose(challenge.Purpose)

	logger.Info("otp repository upsert", logger.Fields{
		"ownerId": challenge.OwnerID,
		"purpose": challenge.Purpose,
	})

	metadata, err := marshalJSON(challenge.Metadata)
	if err != nil {
		return domain.OTPChallenge{}, err
	}

	query := `
INSERT INTO otp_challenges (id, owner_id, purpose, code_hash, expires_at, attempts, metadata)
VALUES ($1, $2, $3, $4, $5, 0, $6)
ON CONFLICT (owner_id, purpose) DO UPDATE
SET id = EXCLUDED.id,
    code_hash = EXCLUDED.code_hash,
    expires_at = EXCLUDED.expires_at,
    attempts = 0,
    metadata = EXCLUDED.metadata,
    verified_at = NULL,
    proof_hash = '',
    proof_expires_at = NULL,
    created_at = NOW()
RETURNING ` + otpColumns

	saved, err := scanChallenge(r.db.QueryRowContext(ctx, query,
		challenge.ID,
		challenge.OwnerID,
		challenge.Purpose,
		challenge.CodeHash,
		challenge.ExpiresAt,
		metadata,
	))
	if err != nil {
		logger.Error("otp repository upsert failed", err, logger.Fields{"ownerId": challenge.OwnerID})
		return domain.OTPChallenge{}, fmt.Errorf("upsert otp challenge: %w", err)
	}
	return saved, nil
}

func (r *OTPRepository) Get(ctx context.Context, ownerID string, purpose string) (domain.OTPChallenge, error) {
	query := `SELECT ` + otpColumns + ` FROM otp_challenges WHERE owner_id = $1 AND purpose = $2`

	challenge, err := scanChallenge(r.db.QueryRowContext(ctx, query, ownerID, domain.NormalizePurpose(purpose)))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return domain.OTPChallenge{}, domain.ErrRecordNotFound
		}
		logger.Error("otp repository get failed", err, logger.Fields{"ownerId": ownerID})
		return domain.OTPChallenge{}, fmt.Errorf("get otp challenge: %w", err)
	}
	return challenge, nil
}

func (r *OTPRepository) IncrementAttempts(ctx context.Context, id string) (int, error) {
	const query = `
UPDATE otp_challenges
SET attempts = attempts + 1
WHERE id = $1
RETURNING attempts`

	var attempts int
	if err := r.db.QueryRowContext(ctx, query, id).Scan(&attempts); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return 0, domain.ErrRecordNotFound
		}
		return 0, fmt.Errorf("increment otp attempts: %w", err)
	}
	return attempts, nil
}

func (r *OTPRepository) MarkVerified(ctx context.Context, id string, proofHash string, proofExpiresAt time.Time, verifiedAt time.Time) error {
	const query = `
UPDATE otp_challenges
SET verified_at = $2,
    proof_hash = $3,
    proof_expires_at = $4
WHERE id = $1
  AND verified_at IS NULL`

	result, err := r.db.ExecContext(ctx, query, id, verifiedAt, proofHash, proofExpiresAt)
	if err != nil {
		logger.Error("otp repository mark verified failed", err, nil)
		return fmt.Errorf("mark otp verified: %w", err)
	}
	rows, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("mark otp verified rows affected: %w", err)
	}
	if rows == 0 {
		return domain.ErrRecordNotFound
	}
	return nil
}

func (r *OTPRepository) Delete(ctx context.Context, id string, onlyVerified bool) (bool, error) {
	const query = `
DELETE FROM otp_challenges
WHERE id = $1
  AND ($2 = FALSE OR verified_at IS NOT NULL)`

	result, err := r.db.ExecContext(ctx, query, id, onlyVerified)
	if err != nil {
		logger.Error("otp repository delete failed", err, nil)
		return false, fmt.Errorf("delete otp challenge: %w", err)
	}
	rows, err := result.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("delete otp challenge rows affected: %w", err)
	}
	return rows > 0, nil
}

func (r *OTPRepository) Restore(ctx context.Context, challenge domain.OTPChallenge) (bool, error) {
	metadata, err := marshalJSON(challenge.Metadata)
	if err != nil {
		return false, err
	}

	const query = `
INSERT INTO otp_challenges (
	id, owner_id, purpose, code_hash, expires_at, attempts, metadata,
	verified_at, proof_hash, proof_expires_at, created_at
) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)
ON CONFLICT (owner_id, purpose) DO NOTHING`

	result, err := r.db.ExecContext(ctx, query,
		challenge.ID,
		challenge.OwnerID,
		domain.NormalizePurpose(challenge.Purpose),
		challenge.CodeHash,
		challenge.ExpiresAt,
		challenge.Attempts,
		metadata,
		nullTime(challenge.VerifiedAt),
		challenge.ProofHash,
		nullTime(challenge.ProofExpiresAt),
		challenge.CreatedAt,
	)
	if err != nil {
		logger.Error("otp repository restore failed", err, logger.Fields{"ownerId": challenge.OwnerID})
		return false, fmt.Errorf("restore otp challenge: %w", err)
	}
	rows, err := result.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("restore otp challenge rows affected: %w", err)
	}
	return rows > 0, nil
}

func scanChallenge(row rowScanner) (domain.OTPChallenge, error) {
	var (
		c              domain.OTPChallenge
		metadata       []byte
		verifiedAt     sql.NullTime
		proofExpiresAt sql.NullTime
	)
	if err := row.Scan(
		&c.ID,
		&c.OwnerID,
		&c.Purpose,
		&c.CodeHash,
		&c.ExpiresAt,
		&c.Attempts,
		&metadata,
		&verifiedAt,
		&c.ProofHash,
		&proofExpiresAt,
		&c.CreatedAt,
	); err != nil {
		return domain.OTPChallenge{}, err
	}

	c.VerifiedAt = timePtr(verifiedAt)
	c.ProofExpiresAt = timePtr(proofExpiresAt)
	if err := unmarshalJSON(metadata, &c.Metadata); err != nil {
		return domain.OTPChallenge{}, err
	}
	return c, nil
}
