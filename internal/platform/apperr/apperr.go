// Copyright (c) 2026 Yomira. All rights reserved.
// Author: tai.buivan.jp@gmail.com

/*
Package apperr is the error vocabulary shared by the auth service, its stores
and the HTTP layer.

Services return an [*AppError] for every outcome a client is allowed to see;
respond.Error renders it as {"code", "error", "details"} with its HTTPStatus.
Anything else reaching the HTTP layer becomes INTERNAL_ERROR, with the original
error kept in Cause for the log only.

The authentication codes are deliberately coarse: unknown email, wrong
password and inactive account are all INVALID_CREDENTIALS, and every unusable
refresh secret is INVALID_REFRESH_TOKEN.
*/
package apperr

import (
	"errors"
	"fmt"
	"net/http"
)

// Codes clients are expected to branch on.
const (
	CodeInvalidCredentials  = "INVALID_CREDENTIALS"
	CodeAccountLocked       = "ACCOUNT_LOCKED"
	CodeInvalidRefreshToken = "INVALID_REFRESH_TOKEN"
	CodeInvalidMagicLink    = "INVALID_MAGIC_LINK"
	CodeEmailAlreadyExists  = "EMAIL_ALREADY_EXISTS"
	CodeTokenExpired        = "TOKEN_EXPIRED"
)

// AppError is an error with a stable code and a client-safe message.
type AppError struct {
	Code       string       `json:"code"`
	Message    string       `json:"error"`
	HTTPStatus int          `json:"-"`
	Cause      error        `json:"-"` // Logged, never serialized
	Details    []FieldError `json:"details,omitempty"`
}

// FieldError is one failed input field of a VALIDATION_ERROR.
type FieldError struct {
	Field   string `json:"field"`
	Message string `json:"message"`
}

func (e *AppError) Error() string { return e.Message }

func (e *AppError) Unwrap() error { return e.Cause }

func newError(status int, code, message string) *AppError {
	return &AppError{Code: code, Message: message, HTTPStatus: status}
}

// NotFound reports a missing resource as "<resource> not found".
func NotFound(resource string) *AppError {
	return newError(http.StatusNotFound, "NOT_FOUND", resource+" not found")
}

func Unauthorized(message string) *AppError {
	return newError(http.StatusUnauthorized, "UNAUTHORIZED", message)
}

func Forbidden(message string) *AppError {
	return newError(http.StatusForbidden, "FORBIDDEN", message)
}

func Conflict(message string) *AppError {
	return newError(http.StatusConflict, "CONFLICT", message)
}

// ValidationError is a 400 carrying every failing field.
func ValidationError(message string, details ...FieldError) *AppError {
	appError := newError(http.StatusBadRequest, "VALIDATION_ERROR", message)
	appError.Details = details
	return appError
}

// RateLimited is a 429; the caller also sets Retry-After.
func RateLimited(retryAfterSeconds int) *AppError {
	return newError(http.StatusTooManyRequests, "RATE_LIMITED",
		fmt.Sprintf("Too many requests. Try again in %ds.", retryAfterSeconds))
}

// Unprocessable is a 422 for well-formed input the current state refuses.
func Unprocessable(message string) *AppError {
	return newError(http.StatusUnprocessableEntity, "UNPROCESSABLE", message)
}

// InvalidCredentials covers every failed password or magic-link login that
// is not a lockout.
func InvalidCredentials() *AppError {
	return newError(http.StatusUnauthorized, CodeInvalidCredentials, "Invalid email or password")
}

// AccountLocked is a 423. Only an administrator unlock clears it.
func AccountLocked() *AppError {
	return newError(http.StatusLocked, CodeAccountLocked, "Account is locked. Contact an administrator to unlock it.")
}

// InvalidRefreshToken covers unknown, expired, revoked and reused refresh secrets.
func InvalidRefreshToken() *AppError {
	return newError(http.StatusUnauthorized, CodeInvalidRefreshToken, "Invalid or expired refresh token")
}

func InvalidMagicLink() *AppError {
	return newError(http.StatusUnauthorized, CodeInvalidMagicLink, "Invalid or expired login link")
}

func EmailAlreadyExists() *AppError {
	return newError(http.StatusConflict, CodeEmailAlreadyExists, "Email is already registered")
}

// TokenExpired is returned for a well-signed access token past its expiry,
// so clients know to refresh rather than log in again.
func TokenExpired() *AppError {
	return newError(http.StatusUnauthorized, CodeTokenExpired, "Access token has expired")
}

// Internal hides cause behind a generic 500.
func Internal(cause error) *AppError {
	appError := newError(http.StatusInternalServerError, "INTERNAL_ERROR", "An unexpected error occurred")
	appError.Cause = cause
	return appError
}

// HasCode reports whether err wraps an [*AppError] with code.
func HasCode(err error, code string) bool {
	appError := As(err)
	return appError != nil && appError.Code == code
}

// As returns the first [*AppError] in err's chain, or nil.
func As(err error) *AppError {
	var appError *AppError
	if errors.As(err, &appError) {
		return appError
	}
	return nil
}
