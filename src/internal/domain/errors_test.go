package domain

import (
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestInvalidCollectsFieldErrors(t *testing.T) {
	assert.NoError(t, Invalid(nil))

	err := fmt.Errorf("create holder: %w", Invalid([]string{"email is invalid", "fullName is required"}))
	require.ErrorIs(t, err, ErrValidation)
	assert.Equal(t, ReasonValidation, ReasonCode(err))

	var details FieldErrors
	require.True(t, errors.As(err, &details))
	assert.Equal(t, FieldErrors{"email is invalid", "fullName is required"}, details)
	assert.Equal(t, "create holder: validation failed: email is invalid; fullName is required", err.Error())
}
