package errors

import (
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestAppError_Error(t *testing.T) {
	assert.Equal(t, "Not found.", NotFound("Not found.").Error())
	assert.Equal(t, "status: bad", ValidationField("status", "bad").Error())
	assert.Equal(t, "invalid input", ValidationFields(map[string][]string{"a": {"b"}}).Error())

	cause := errors.New("boom")
	assert.Equal(t, "failed: boom", Wrap(cause, ErrCodeInternal, "failed").Error())
}

func TestAppError_Unwrap(t *testing.T) {
	cause := errors.New("boom")
	err := fmt.Errorf("outer: %w", Wrap(cause, ErrCodeInternal, "failed"))
	assert.ErrorIs(t, err, cause)
	assert.True(t, IsInternal(err))
	assert.Equal(t, ErrCodeInternal, GetCode(err))
}

func TestDefaults(t *testing.T) {
	assert.Equal(t, MsgNotAuthenticated, Unauthorized("").Message)
	assert.Equal(t, MsgPermissionDenied, Forbidden("").Message)
	assert.Equal(t, "custom", Forbidden("custom").Message)
}

func TestPredicates(t *testing.T) {
	tests := []struct {
		err  error
		pred func(error) bool
	}{
		{NotFound("x"), IsNotFound},
		{Unauthorized(""), IsUnauthorized},
		{Forbidden(""), IsForbidden},
		{Conflict("x"), IsConflict},
		{Validation("x"), IsValidation},
		{ForeignKey("x"), IsForeignKey},
		{RateLimited("x"), IsRateLimited},
		{Internal("x"), IsInternal},
	}
	for _, tt := range tests {
		assert.True(t, tt.pred(tt.err), tt.err.Error())
		assert.False(t, tt.pred(errors.New("plain")))
	}
}

func TestValidationFields_Empty(t *testing.T) {
	assert.Nil(t, ValidationFields(nil))
	assert.Nil(t, ValidationFields(map[string][]string{}))
}

func TestGetField(t *testing.T) {
	assert.Equal(t, "job", GetField(ValidationField("job", "x")))
	assert.Equal(t, "", GetField(errors.New("plain")))
}

func TestAs(t *testing.T) {
	appErr, ok := As(fmt.Errorf("wrap: %w", Conflict("dup")))
	assert.True(t, ok)
	assert.Equal(t, "dup", appErr.Message)

	_, ok = As(errors.New("plain"))
	assert.False(t, ok)
}
