package models

import (
	"time"

	"github.com/api-sage/backoffice-ledger/src/internal/domain"
)

func validationError(errs []string) error {
	return domain.Invalid(errs)
}

func formatTime(t time.Time) string {
	if t.IsZero() {
		return ""
	}
	return t.UTC().Format(time.RFC3339)
}

func formatTimePtr(t *time.Time) string {
	if t == nil {
		return ""
	}
	return formatTime(*t)
}
