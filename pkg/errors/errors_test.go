package errors

import (
	"context"
	"errors"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFromErrorKeepsTypedError(t *testing.T) {
	typed := Clone(ErrValidation, "learner id must be a non-negative integer")
	wrapped := errors.Join(errors.New("outer"), typed)

	got := FromError(wrapped)

	require.NotNil(t, got)
	assert.Equal(t, "VALIDATION_ERROR", got.Code)
	assert.Equal(t, http.StatusBadRequest, got.Status)
	assert.Equal(t, "learner id must be a non-negative integer", got.Message)
}

func TestFromErrorDefaultsToInternal(t *testing.T) {
	got := FromError(errors.New("boom"))

	assert.Equal(t, ErrInternal.Code, got.Code)
	assert.Equal(t, http.StatusInternalServerError, got.Status)
	assert.Nil(t, FromError(nil))
}

func TestWrapUnwrapsToCause(t *testing.T) {
	err := Wrap(context.DeadlineExceeded, ErrStorageUnavailable.Code, ErrStorageUnavailable.Status, "load grade records")

	assert.ErrorIs(t, err, context.DeadlineExceeded)
	assert.Equal(t, "load grade records: context deadline exceeded", err.Error())
	assert.Equal(t, http.StatusServiceUnavailable, err.Status)
}

func TestCloneDoesNotMutateSource(t *testing.T) {
	clone := Clone(ErrNotFound, "no grade records for learner")

	assert.Equal(t, "resource not found", ErrNotFound.Message)
	assert.Equal(t, "no grade records for learner", clone.Message)
	assert.Nil(t, Clone(nil, "x"))
}

func TestIsMatchesOnCode(t *testing.T) {
	err := Unavailable(context.Canceled, "failed to load grade records")

	assert.ErrorIs(t, err, ErrStorageUnavailable)
	assert.ErrorIs(t, err, context.Canceled)
	assert.NotErrorIs(t, err, ErrValidation)
	assert.Equal(t, http.StatusServiceUnavailable, err.Status)
}

func TestInvalidFormatsMessage(t *testing.T) {
	err := Invalid("class id must be between %d and %d", 0, 300)

	assert.Equal(t, "class id must be between 0 and 300", err.Message)
	assert.Equal(t, ErrValidation.Code, err.Code)
	assert.ErrorIs(t, err, ErrValidation)
}
