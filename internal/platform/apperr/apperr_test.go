// Copyright (c) 2026 Yomira. All rights reserved.
// Author: tai.buivan.jp@gmail.com

package apperr_test

import (
	"errors"
	"fmt"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/taibuivan/bizcore/internal/platform/apperr"
)

/*
TestConstructors pins the status and code of each client-visible error.
*/
func TestConstructors(t *testing.T) {
	tests := []struct {
		err    *apperr.AppError
		status int
		code   string
	}{
		{apperr.NotFound("User"), http.StatusNotFound, "NOT_FOUND"},
		{apperr.ValidationError("Validation failed"), http.StatusBadRequest, "VALIDATION_ERROR"},
		{apperr.RateLimited(3), http.StatusTooManyRequests, "RATE_LIMITED"},
		{apperr.InvalidCredentials(), http.StatusUnauthorized, apperr.CodeInvalidCredentials},
		{apperr.AccountLocked(), http.StatusLocked, apperr.CodeAccountLocked},
		{apperr.InvalidRefreshToken(), http.StatusUnauthorized, apperr.CodeInvalidRefreshToken},
		{apperr.EmailAlreadyExists(), http.StatusConflict, apperr.CodeEmailAlreadyExists},
		{apperr.TokenExpired(), http.StatusUnauthorized, apperr.CodeTokenExpired},
		{apperr.Internal(nil), http.StatusInternalServerError, "INTERNAL_ERROR"},
	}

	for _, tt := range tests {
		t.Run(tt.code, func(t *testing.T) {
			assert.Equal(t, tt.status, tt.err.HTTPStatus)
			assert.Equal(t, tt.code, tt.err.Code)
			assert.NotEmpty(t, tt.err.Message)
		})
	}

	assert.Equal(t, "User not found", apperr.NotFound("User").Error())
	assert.Contains(t, apperr.RateLimited(3).Message, "3s")
}

/*
TestAs finds wrapped errors and keeps the cause reachable.
*/
func TestAs(t *testing.T) {
	cause := errors.New("connection reset")
	wrapped := fmt.Errorf("auth_service_login_failed: %w", apperr.Internal(cause))

	appError := apperr.As(wrapped)
	require.NotNil(t, appError)
	assert.Equal(t, "INTERNAL_ERROR", appError.Code)
	assert.ErrorIs(t, wrapped, cause)
	assert.NotContains(t, appError.Error(), "connection reset")

	assert.Nil(t, apperr.As(cause))
	assert.True(t, apperr.HasCode(wrapped, "INTERNAL_ERROR"))
	assert.False(t, apperr.HasCode(nil, "INTERNAL_ERROR"))
}
