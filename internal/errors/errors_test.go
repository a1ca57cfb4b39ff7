package errors

import (
	"fmt"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestConstructorsCarryStatus(t *testing.T) {
	tests := []struct {
		name   string
		err    *APIError
		code   ErrorCode
		status int
	}{
		{"not found", NotFound("post"), ErrNotFound, http.StatusNotFound},
		{"unauthorized", Unauthorized("nope"), ErrUnauthorized, http.StatusUnauthorized},
		{"forbidden", Forbidden("nope"), ErrForbidden, http.StatusForbidden},
		{"conflict", Conflict("post title"), ErrConflict, http.StatusConflict},
		{"validation", ValidationError("title", "too short"), ErrValidation, http.StatusUnprocessableEntity},
		{"bad request", BadRequest("bad"), ErrBadRequest, http.StatusBadRequest},
		{"internal", InternalError("boom"), ErrInternalError, http.StatusInternalServerError},
		{"rate limited", RateLimited(""), ErrRateLimited, http.StatusTooManyRequests},
		{"unavailable", ServiceUnavailable("storage"), ErrServiceUnavail, http.StatusServiceUnavailable},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.code, tt.err.Code)
			assert.Equal(t, tt.status, tt.err.Status)
			assert.Equal(t, tt.status, tt.code.StatusCode())
		})
	}
}

func TestErrorString(t *testing.T) {
	assert.Equal(t, "NOT_FOUND: post not found", NotFound("post").Error())
	assert.Equal(t, "VALIDATION_ERROR: too short (field: title)", ValidationError("title", "too short").Error())
	assert.Equal(t, "rate limit exceeded", RateLimited("").Message)
}

func TestUnknownCodeMapsTo500(t *testing.T) {
	assert.Equal(t, http.StatusInternalServerError, ErrorCode("WHATEVER").StatusCode())
}

func TestAsAPIError(t *testing.T) {
	wrapped := fmt.Errorf("loading post: %w", NotFound("post"))

	apiErr, ok := AsAPIError(wrapped)
	require.True(t, ok)
	assert.Equal(t, ErrNotFound, apiErr.Code)

	_, ok = AsAPIError(assert.AnError)
	assert.False(t, ok)
}
