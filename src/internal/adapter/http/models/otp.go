package models

import (
	"strings"

	"github.com/api-sage/backoffice-ledger/src/internal/domain"
)

type RequestOTPRequest struct {
	Purpose  string         `json:"purpose"`
	Metadata map[string]any `json:"metadata"`
}

func (r RequestOTPRequest) PurposeOrDefault() string {
	if strings.TrimSpace(r.Purpose) == "" {
		return domain.OTPPurposeTransfer
	}
	return r.Purpose
}

type RequestOTPResponse struct {
	ChallengeID string `json:"challengeId"`
	ExpiresAt   string `json:"expiresAt"`
}

func NewRequestOTPResponse(issued domain.OTPIssued) RequestOTPResponse {
	return RequestOTPResponse{
		ChallengeID: issued.ChallengeID,
		ExpiresAt:   formatTime(issued.ExpiresAt),
	}
}

type VerifyOTPRequest struct {
	Purpose string `json:"purpose"`
	Code    string `json:"code"`
}

func (r VerifyOTPRequest) Validate() error {
	code := strings.TrimSpace(r.Code)
	if len(code) != 6 || !digitsOnly(code) {
		return validationError([]string{"code must be exactly 6 digits"})
	}
	return nil
}

func (r VerifyOTPRequest) PurposeOrDefault() string {
	if strings.TrimSpace(r.Purpose) == "" {
		return domain.OTPPurposeTransfer
	}
	return r.Purpose
}

type VerifyOTPResponse struct {
	OTPProof  string         `json:"otpProof"`
	ExpiresAt string         `json:"expiresAt"`
	Metadata  map[string]any `json:"metadata,omitempty"`
}

func NewVerifyOTPResponse(proof domain.OTPProof) VerifyOTPResponse {
	return VerifyOTPResponse{
		OTPProof:  proof.Proof,
		ExpiresAt: formatTime(proof.ExpiresAt),
		Metadata:  proof.Metadata,
	}
}

func digitsOnly(value string) bool {
	for _, ch := range value {
		if ch < '0' || ch > '9' {
			return false
		}
	}
	return true
}
