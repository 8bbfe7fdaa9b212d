// Copyright (c) 2026 Yomira. All rights reserved.
// Author: tai.buivan.jp@gmail.com

// Package requestutil gives handlers their inputs: the decoded JSON body,
// chi URL parameters, and the caller identity and organization scope that
// the auth middleware stored on the context.
package requestutil

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/taibuivan/bizcore/internal/platform/apperr"
	"github.com/taibuivan/bizcore/internal/platform/ctxutil"
	"github.com/taibuivan/bizcore/internal/platform/sec"
	"github.com/taibuivan/bizcore/internal/platform/tenant"
	"github.com/taibuivan/bizcore/internal/platform/validate"
)

// maxBodyBytes caps auth payloads, which are a handful of short strings.
const maxBodyBytes = 64 << 10

// DecodeJSON decodes exactly one JSON value from the body into target.
// Oversized, malformed or trailing input yields [validate.ErrInvalidJSON].
func DecodeJSON(request *http.Request, target any) error {
	decoder := json.NewDecoder(io.LimitReader(request.Body, maxBodyBytes))
	if err := decoder.Decode(target); err != nil {
		return validate.ErrInvalidJSON
	}
	if err := decoder.Decode(&struct{}{}); !errors.Is(err, io.EOF) {
		return validate.ErrInvalidJSON
	}
	return nil
}

// ID returns the chi URL parameter called name.
func ID(request *http.Request, name string) string {
	return chi.URLParam(request, name)
}

// RequiredClaims returns the verified access-token claims. Without them it
// returns the failure Authenticate recorded (such as TOKEN_EXPIRED), or a
// plain UNAUTHORIZED for anonymous callers.
func RequiredClaims(request *http.Request) (*sec.AuthClaims, error) {
	ctx := request.Context()
	if claims := ctxutil.GetAuthUser(ctx); claims != nil {
		return claims, nil
	}
	if failure := ctxutil.GetAuthFailure(ctx); failure != nil {
		return nil, failure
	}
	return nil, apperr.Unauthorized("Authentication required")
}

// RequiredUserID is RequiredClaims narrowed to the subject.
func RequiredUserID(request *http.Request) (string, error) {
	claims, err := RequiredClaims(request)
	if err != nil {
		return "", err
	}
	return claims.UserID, nil
}

// RequiredScope returns the organization the middleware resolved for the
// caller, or FORBIDDEN when none applies.
func RequiredScope(request *http.Request) (tenant.Scope, error) {
	scope, ok := ctxutil.GetScope(request.Context())
	if !ok || scope.IsZero() {
		return tenant.Scope{}, apperr.Forbidden("No organization selected")
	}
	return scope, nil
}
