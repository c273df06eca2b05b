package errors

import (
	"errors"
	"fmt"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestFromErrorKeepsTypedErrors(t *testing.T) {
	err := fmt.Errorf("wrapped: %w", Clone(ErrEventFull, ""))

	appErr := FromError(err)
	assert.Equal(t, ErrEventFull.Code, appErr.Code)
	assert.Equal(t, http.StatusBadRequest, appErr.Status)
}

func TestFromErrorHidesUnknownErrors(t *testing.T) {
	appErr := FromError(errors.New("pq: connection refused"))

	assert.Equal(t, ErrInternal.Code, appErr.Code)
	assert.Equal(t, "An error occurred", appErr.Message)
	assert.EqualError(t, appErr.Unwrap(), "pq: connection refused")
}

func TestCloneMatchesTemplate(t *testing.T) {
	clone := Clone(ErrUserNotFound, "no such student")

	assert.True(t, errors.Is(clone, ErrUserNotFound))
	assert.False(t, errors.Is(clone, ErrEventNotFound))
	assert.Equal(t, "User not found", ErrUserNotFound.Message)
}

func TestWithDetails(t *testing.T) {
	cause := errors.New("validation")
	err := WithDetails(ErrValidation, cause, []string{"Please provide a name"})

	assert.Equal(t, []string{"Please provide a name"}, err.Details)
	assert.Nil(t, ErrValidation.Details)
	assert.ErrorIs(t, err, cause)
}
