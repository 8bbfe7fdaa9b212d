// Copyright (c) 2026 Yomira. All rights reserved.
// Author: tai.buivan.jp@gmail.com

package middleware

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"strings"

	"github.com/taibuivan/bizcore/internal/platform/apperr"
	"github.com/taibuivan/bizcore/internal/platform/constants"
	"github.com/taibuivan/bizcore/internal/platform/ctxutil"
	"github.com/taibuivan/bizcore/internal/platform/respond"
	"github.com/taibuivan/bizcore/internal/platform/sec"
	"github.com/taibuivan/bizcore/internal/platform/tenant"
)

// TokenVerifier defines the interface needed to verify tokens in middleware.
//
// Defining TokenVerifier here decouples the middleware from the token service
// implementation, allowing us to easily inject fakes during unit testing.
type TokenVerifier interface {
	VerifyToken(tokenStr string) (*sec.AuthClaims, error)
}

// ScopeResolver turns an authenticated user and an optional requested
// organization into a [tenant.Scope].
type ScopeResolver interface {
	ResolveScope(ctx context.Context, userID, organizationID string) (tenant.Scope, error)
}

// Authenticate extracts and verifies the JWT from the Authorization header.
//
// # Flow
//  1. Check for 'Authorization: Bearer <token>' header.
//  2. If absent, request proceeds as anonymous.
//  3. If present, parse and verify the JWT via [TokenVerifier].
//  4. A rejected token does not end the request: the failure is recorded in
//     the context and the request proceeds as anonymous, so public endpoints
//     such as /auth/refresh and /auth/logout keep working with a stale
//     header. [RequireAuth] and [RequireRole] answer with the recorded error.
//  5. An expired but well-signed token always sets the X-Token-Expired header.
//  6. Inject [*sec.AuthClaims] into the request context for downstream use.
func Authenticate(verifier TokenVerifier) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(writer http.ResponseWriter, request *http.Request) {
			authHeader := request.Header.Get(constants.HeaderAuthorization)

			// ── 1. Anonymous Access ───────────────────────────────────────────
			if authHeader == "" {
				next.ServeHTTP(writer, request)
				return
			}

			// ── 2. Format Validation ──────────────────────────────────────────
			parts := strings.Split(authHeader, " ")
			if len(parts) != 2 || strings.ToLower(parts[0]) != "bearer" {
				ctx := ctxutil.WithAuthFailure(request.Context(), apperr.Unauthorized("Invalid authorization format"))
				next.ServeHTTP(writer, request.WithContext(ctx))
				return
			}

			// ── 3. Token Verification ─────────────────────────────────────────
			claims, err := verifier.VerifyToken(parts[1])
			if err != nil {
				failure := apperr.Unauthorized("Invalid token")
				if errors.Is(err, sec.ErrTokenExpired) {
					writer.Header().Set(constants.HeaderXTokenExpired, "true")
					failure = apperr.TokenExpired()
				}
				ctx := ctxutil.WithAuthFailure(request.Context(), failure)
				next.ServeHTTP(writer, request.WithContext(ctx))
				return
			}

			// ── 4. Context Injection ──────────────────────────────────────────
			ctx := ctxutil.WithAuthUser(request.Context(), claims)
			ctx = ctxutil.WithLogger(ctx, ctxutil.GetLogger(ctx).With(slog.String("user_id", claims.UserID)))
			next.ServeHTTP(writer, request.WithContext(ctx))
		})
	}
}

// RequireAuth blocks requests that are not authenticated.
//
// Must be registered in the router AFTER [Authenticate].
func RequireAuth(next http.Handler) http.Handler {
	return http.HandlerFunc(func(writer http.ResponseWriter, request *http.Request) {
		if GetUser(request.Context()) == nil {
			respond.Error(writer, request, unauthenticated(request.Context()))
			return
		}
		next.ServeHTTP(writer, request)
	})
}

// unauthenticated returns the failure recorded by [Authenticate], or a plain 401.
func unauthenticated(ctx context.Context) error {
	if failure := ctxutil.GetAuthFailure(ctx); failure != nil {
		return failure
	}
	return apperr.Unauthorized("Authentication required")
}

// ResolveScope builds the organization scope for an authenticated request.
//
// The organization comes from the X-Organization-Id header; when absent the
// resolver falls back to the caller's first active membership. Requests
// without claims pass through untouched.
func ResolveScope(resolver ScopeResolver) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(writer http.ResponseWriter, request *http.Request) {
			claims := GetUser(request.Context())
			if claims == nil {
				next.ServeHTTP(writer, request)
				return
			}

			requested := strings.TrimSpace(request.Header.Get(constants.HeaderXOrganization))
			scope, err := resolver.ResolveScope(request.Context(), claims.UserID, requested)
			if err != nil {
				respond.Error(writer, request, err)
				return
			}

			ctx := ctxutil.WithScope(request.Context(), scope)
			next.ServeHTTP(writer, request.WithContext(ctx))
		})
	}
}

// RequireRole blocks requests whose organization role is below role.
//
// Must be registered AFTER [ResolveScope]. It implies [RequireAuth].
func RequireRole(role sec.Role) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(writer http.ResponseWriter, request *http.Request) {

			// ── 1. Authentication Check ───────────────────────────────────────
			if GetUser(request.Context()) == nil {
				respond.Error(writer, request, unauthenticated(request.Context()))
				return
			}

			// ── 2. Authorization Check ────────────────────────────────────────
			scope, ok := ctxutil.GetScope(request.Context())
			if !ok || !scope.Allows(role) {
				respond.Error(writer, request, apperr.Forbidden("Insufficient permissions"))
				return
			}

			next.ServeHTTP(writer, request)
		})
	}
}

// GetUser retrieves the [*sec.AuthClaims] from the [context.Context].
//
// # Returns
//   - A pointer to [*sec.AuthClaims] if the user is authenticated.
//   - nil if the user is anonymous.
func GetUser(ctx context.Context) *sec.AuthClaims {
	return ctxutil.GetAuthUser(ctx)
}
