package domain

import (
	"strings"
	"time"
)

// OTPTTL is the fixed lifetime of a challenge and of the proof it yields.
const OTPTTL = 10 * time.Minute

// OTPMaxAttempts invalidates a challenge after this many wrong codes.
const OTPMaxAttempts = 5

const OTPPurposeTransfer = "transfer"

type OTPChallenge struct {
	ID             string
	OwnerID        string
	Purpose        string
	CodeHash       string
	ExpiresAt      time.Time
	Attempts       int
	Metadata       map[string]any
	VerifiedAt     *time.Time
	ProofHash      string
	ProofExpiresAt *time.Time
	CreatedAt      time.Time
}

func (c OTPChallenge) IsExpired(now time.Time) bool {
	return !now.Before(c.ExpiresAt)
}

func (c OTPChallenge) IsVerified() bool {
	return c.VerifiedAt != nil
}

func NormalizePurpose(purpose string) string {
	return strings.ToLower(strings.TrimSpace(purpose))
}

// OTPIssued is returned by a code request. The code itself only travels
// through the notifier.
type OTPIssued struct {
	ChallengeID string
	ExpiresAt   time.Time
}

// OTPProof is handed back after a successful verification and spent by the
// operation it authorises.
type OTPProof struct {
	Proof     string
	ExpiresAt time.Time
	Metadata  map[string]any
}
