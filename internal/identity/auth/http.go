// Copyright (c) 2026 Yomira. All rights reserved.
// Author: tai.buivan.jp@gmail.com

package auth

import (
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/taibuivan/bizcore/internal/platform/constants"
	"github.com/taibuivan/bizcore/internal/platform/ctxutil"
	"github.com/taibuivan/bizcore/internal/platform/middleware"
	requestutil "github.com/taibuivan/bizcore/internal/platform/request"
	"github.com/taibuivan/bizcore/internal/platform/respond"
	"github.com/taibuivan/bizcore/internal/platform/sec"
	"github.com/taibuivan/bizcore/internal/platform/validate"
	"github.com/taibuivan/bizcore/pkg/pagination"
)

// # Definitions & Constructors

// Handler implements the authentication HTTP endpoints.
//
// # Scope
//
// Registration, login, refresh, logout, magic link, self-service password
// change and the administrative credential operations.
type Handler struct {
	authService     *Service
	credentialGuard func(http.Handler) http.Handler
}

// NewHandler constructs a new [Handler] with its service dependency.
//
// credentialGuard wraps the password and magic-link endpoints (typically a
// stricter rate limiter). It may be nil.
func NewHandler(service *Service, credentialGuard func(http.Handler) http.Handler) *Handler {
	return &Handler{authService: service, credentialGuard: credentialGuard}
}

// Routes returns a [chi.Router] configured with authentication routes.
//
// # Endpoints
//   - POST /register, /login, /refresh, /logout
//   - POST /magic-link, /magic-link/verify
//   - GET  /me, POST /change-password (authenticated)
//   - /admin/users/{userID}/... (organization admin)
func (handler *Handler) Routes() chi.Router {
	router := chi.NewRouter()

	// Credential-bearing endpoints
	router.Group(func(r chi.Router) {
		if handler.credentialGuard != nil {
			r.Use(handler.credentialGuard)
		}
		r.Post("/register", handler.register)
		r.Post("/login", handler.login)
		r.Post("/magic-link", handler.requestMagicLink)
		r.Post("/magic-link/verify", handler.verifyMagicLink)
	})

	router.Post("/refresh", handler.refresh)
	router.Post("/logout", handler.logout)

	// Protected endpoints
	router.Group(func(r chi.Router) {
		r.Use(middleware.RequireAuth)
		r.Get("/me", handler.me)
		r.Post("/change-password", handler.changePassword)
	})

	// Administrative endpoints
	router.Route("/admin/users/{userID}", func(r chi.Router) {
		r.Use(middleware.RequireRole(sec.RoleAdmin))
		r.Post("/unlock", handler.unlock)
		r.Post("/reset-password", handler.adminResetPassword)
		r.Post("/activate", handler.activate)
		r.Post("/deactivate", handler.deactivate)
		r.Get("/login-attempts", handler.listLoginAttempts)
	})

	return router
}

// # Request Payloads

type registerRequest struct {
	Name             string `json:"name"`
	Email            string `json:"email"`
	Password         string `json:"password"`
	OrganizationName string `json:"organization_name"`
}

type loginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

type refreshRequest struct {
	RefreshToken string `json:"refresh_token"`
}

type magicLinkRequest struct {
	Email string `json:"email"`
}

type verifyMagicLinkRequest struct {
	Token string `json:"token"`
}

type changePasswordRequest struct {
	CurrentPassword string `json:"current_password"`
	NewPassword     string `json:"new_password"`
	RefreshToken    string `json:"refresh_token"`
}

type adminResetPasswordRequest struct {
	Password string `json:"password"`
}

/*
Register handles the creation of a new user account.

POST /api/v1/auth/register

Request:
  - Body: registerRequest (Name, Email, Password, OrganizationName)

Response:
  - 201: SessionResult
  - 400: VALIDATION_ERROR
  - 409: EMAIL_ALREADY_EXISTS
*/
func (handler *Handler) register(writer http.ResponseWriter, request *http.Request) {
	var input registerRequest

	if err := requestutil.DecodeJSON(request, &input); err != nil {
		respond.Error(writer, request, validate.ErrInvalidJSON)
		return
	}

	validator := &validate.Validator{}
	validator.Required(FieldName, input.Name).
		MaxLen(FieldName, input.Name, 100).
		Required(FieldEmail, input.Email).
		Email(FieldEmail, input.Email).
		Password(FieldPassword, input.Password, MinPasswordLength).
		MaxLen(FieldOrganizationName, input.OrganizationName, 150)

	if err := validator.Err(); err != nil {
		respond.Error(writer, request, err)
		return
	}

	session, err := handler.authService.Register(request.Context(), RegisterInput{
		Name:             input.Name,
		Email:            input.Email,
		Password:         input.Password,
		OrganizationName: input.OrganizationName,
		Client:           clientInfo(request),
	})

	if err != nil {
		respond.Error(writer, request, err)
		return
	}

	setRefreshCookie(writer, session)
	respond.Created(writer, session)
}

/*
Login authenticates a user and establishes a session.

POST /api/v1/auth/login

Request:
  - Body: loginRequest (Email, Password)

Response:
  - 200: SessionResult
  - 401: INVALID_CREDENTIALS
  - 423: ACCOUNT_LOCKED
*/
func (handler *Handler) login(writer http.ResponseWriter, request *http.Request) {
	var input loginRequest

	if err := requestutil.DecodeJSON(request, &input); err != nil {
		respond.Error(writer, request, validate.ErrInvalidJSON)
		return
	}

	validator := &validate.Validator{}
	validator.Required(FieldEmail, input.Email)
	validator.Required(FieldPassword, input.Password)

	if err := validator.Err(); err != nil {
		respond.Error(writer, request, err)
		return
	}

	session, err := handler.authService.Login(request.Context(), LoginInput{
		Email:    input.Email,
		Password: input.Password,
		Client:   clientInfo(request),
	})
	if err != nil {
		respond.Error(writer, request, err)
		return
	}

	setRefreshCookie(writer, session)
	respond.OK(writer, session)
}

/*
Refresh rotates a refresh secret.

POST /api/v1/auth/refresh

Description: The secret is read from the JSON body, falling back to the
refresh cookie.

Response:
  - 200: SessionResult
  - 401: INVALID_REFRESH_TOKEN
*/
func (handler *Handler) refresh(writer http.ResponseWriter, request *http.Request) {
	session, err := handler.authService.Refresh(request.Context(), refreshSecret(request), clientInfo(request))
	if err != nil {
		clearRefreshCookie(writer)
		respond.Error(writer, request, err)
		return
	}

	setRefreshCookie(writer, session)
	respond.OK(writer, session)
}

/*
Logout terminates the session family of the presented secret.

POST /api/v1/auth/logout

Response:
  - 204: Always
*/
func (handler *Handler) logout(writer http.ResponseWriter, request *http.Request) {
	if err := handler.authService.Logout(request.Context(), refreshSecret(request)); err != nil {
		// Logout answers 204 regardless; the failure is only logged
		ctxutil.GetLogger(request.Context()).ErrorContext(request.Context(), "logout_failed",
			slog.String("error", err.Error()),
		)
	}

	clearRefreshCookie(writer)
	respond.NoContent(writer)
}

/*
RequestMagicLink emails a passwordless sign-in link.

POST /api/v1/auth/magic-link

Response:
  - 202: Accepted, whether or not the address is registered
  - 400: VALIDATION_ERROR
*/
func (handler *Handler) requestMagicLink(writer http.ResponseWriter, request *http.Request) {
	var input magicLinkRequest

	if err := requestutil.DecodeJSON(request, &input); err != nil {
		respond.Error(writer, request, validate.ErrInvalidJSON)
		return
	}

	validator := &validate.Validator{}
	validator.Required(FieldEmail, input.Email).Email(FieldEmail, input.Email)

	if err := validator.Err(); err != nil {
		respond.Error(writer, request, err)
		return
	}

	if err := handler.authService.RequestMagicLink(request.Context(), input.Email); err != nil {
		respond.Error(writer, request, err)
		return
	}

	respond.Accepted(writer, map[string]string{
		FieldMessage: "If this email is registered, a sign-in link has been sent.",
	})
}

/*
VerifyMagicLink redeems a magic-link token.

POST /api/v1/auth/magic-link/verify

Response:
  - 200: SessionResult
  - 401: INVALID_MAGIC_LINK or INVALID_CREDENTIALS
  - 423: ACCOUNT_LOCKED
*/
func (handler *Handler) verifyMagicLink(writer http.ResponseWriter, request *http.Request) {
	var input verifyMagicLinkRequest

	if err := requestutil.DecodeJSON(request, &input); err != nil {
		respond.Error(writer, request, validate.ErrInvalidJSON)
		return
	}

	if input.Token == "" {
		respond.Error(writer, request, validate.FieldError(FieldToken, "This field is required"))
		return
	}

	session, err := handler.authService.RedeemMagicLink(request.Context(), input.Token, clientInfo(request))
	if err != nil {
		respond.Error(writer, request, err)
		return
	}

	setRefreshCookie(writer, session)
	respond.OK(writer, session)
}

/*
Me returns the authenticated identity.

GET /api/v1/auth/me

Response:
  - 200: Identity
  - 401: UNAUTHORIZED
*/
func (handler *Handler) me(writer http.ResponseWriter, request *http.Request) {
	userID, err := requestutil.RequiredUserID(request)
	if err != nil {
		respond.Error(writer, request, err)
		return
	}

	identity, err := handler.authService.Me(request.Context(), userID)
	if err != nil {
		respond.Error(writer, request, err)
		return
	}

	respond.OK(writer, identity)
}

/*
ChangePassword updates the authenticated user's password.

POST /api/v1/auth/change-password

Description: Other session families of the user are revoked. The family of
the refresh secret in the body (or cookie) survives.

Response:
  - 204: Password changed
  - 400: VALIDATION_ERROR
  - 401: INVALID_CREDENTIALS
  - 423: ACCOUNT_LOCKED
*/
func (handler *Handler) changePassword(writer http.ResponseWriter, request *http.Request) {
	userID, err := requestutil.RequiredUserID(request)
	if err != nil {
		respond.Error(writer, request, err)
		return
	}

	var input changePasswordRequest
	if err := requestutil.DecodeJSON(request, &input); err != nil {
		respond.Error(writer, request, validate.ErrInvalidJSON)
		return
	}

	validator := &validate.Validator{}
	validator.Required(FieldCurrentPassword, input.CurrentPassword).
		Password(FieldNewPassword, input.NewPassword, MinPasswordLength).
		Custom(FieldNewPassword, input.NewPassword == input.CurrentPassword, "Must differ from the current password")

	if err := validator.Err(); err != nil {
		respond.Error(writer, request, err)
		return
	}

	currentSecret := input.RefreshToken
	if currentSecret == "" {
		currentSecret = cookieSecret(request)
	}

	err = handler.authService.ChangePassword(
		request.Context(),
		userID,
		input.CurrentPassword,
		input.NewPassword,
		currentSecret,
		clientInfo(request),
	)

	if err != nil {
		respond.Error(writer, request, err)
		return
	}

	respond.NoContent(writer)
}

// # Administrative Handlers

// targetUserID reads and validates the {userID} path parameter.
func targetUserID(request *http.Request) (string, error) {
	userID := requestutil.ID(request, "userID")

	validator := &validate.Validator{}
	if err := validator.UUID("user_id", userID).Err(); err != nil {
		return "", err
	}
	return userID, nil
}

// unlock handles POST /api/v1/auth/admin/users/{userID}/unlock.
func (handler *Handler) unlock(writer http.ResponseWriter, request *http.Request) {
	scope, err := requestutil.RequiredScope(request)
	if err != nil {
		respond.Error(writer, request, err)
		return
	}

	userID, err := targetUserID(request)
	if err != nil {
		respond.Error(writer, request, err)
		return
	}

	if err := handler.authService.Unlock(request.Context(), scope, userID); err != nil {
		respond.Error(writer, request, err)
		return
	}

	respond.NoContent(writer)
}

// adminResetPassword handles POST /api/v1/auth/admin/users/{userID}/reset-password.
func (handler *Handler) adminResetPassword(writer http.ResponseWriter, request *http.Request) {
	scope, err := requestutil.RequiredScope(request)
	if err != nil {
		respond.Error(writer, request, err)
		return
	}

	userID, err := targetUserID(request)
	if err != nil {
		respond.Error(writer, request, err)
		return
	}

	var input adminResetPasswordRequest
	if err := requestutil.DecodeJSON(request, &input); err != nil {
		respond.Error(writer, request, validate.ErrInvalidJSON)
		return
	}

	validator := &validate.Validator{}
	validator.Password(FieldPassword, input.Password, MinPasswordLength)

	if err := validator.Err(); err != nil {
		respond.Error(writer, request, err)
		return
	}

	if err := handler.authService.AdminResetPassword(request.Context(), scope, userID, input.Password); err != nil {
		respond.Error(writer, request, err)
		return
	}

	respond.NoContent(writer)
}

// activate handles POST /api/v1/auth/admin/users/{userID}/activate.
func (handler *Handler) activate(writer http.ResponseWriter, request *http.Request) {
	handler.setActive(writer, request, true)
}

// deactivate handles POST /api/v1/auth/admin/users/{userID}/deactivate.
func (handler *Handler) deactivate(writer http.ResponseWriter, request *http.Request) {
	handler.setActive(writer, request, false)
}

func (handler *Handler) setActive(writer http.ResponseWriter, request *http.Request, active bool) {
	scope, err := requestutil.RequiredScope(request)
	if err != nil {
		respond.Error(writer, request, err)
		return
	}

	userID, err := targetUserID(request)
	if err != nil {
		respond.Error(writer, request, err)
		return
	}

	if err := handler.authService.SetActive(request.Context(), scope, userID, active); err != nil {
		respond.Error(writer, request, err)
		return
	}

	respond.NoContent(writer)
}

/*
ListLoginAttempts returns a user's login audit log.

GET /api/v1/auth/admin/users/{userID}/login-attempts?page=&limit=

Response:
  - 200: Paginated LoginAttempt list
  - 403: FORBIDDEN
  - 404: NOT_FOUND
*/
func (handler *Handler) listLoginAttempts(writer http.ResponseWriter, request *http.Request) {
	scope, err := requestutil.RequiredScope(request)
	if err != nil {
		respond.Error(writer, request, err)
		return
	}

	userID, err := targetUserID(request)
	if err != nil {
		respond.Error(writer, request, err)
		return
	}

	params := pagination.FromRequest(request)

	attempts, total, err := handler.authService.ListLoginAttempts(request.Context(), scope, userID, params)
	if err != nil {
		respond.Error(writer, request, err)
		return
	}

	respond.Paginated(writer, attempts, pagination.NewMeta(params.Page, params.Limit, total))
}

// # Transport Helpers

// clientInfo extracts the device identity of a request.
func clientInfo(request *http.Request) ClientInfo {
	return ClientInfo{
		UserAgent: request.UserAgent(),
		IPAddress: middleware.RealIP(request),
	}
}

// refreshSecret reads the refresh secret from the JSON body, then the cookie.
func refreshSecret(request *http.Request) string {
	var input refreshRequest
	if request.ContentLength != 0 {
		if err := requestutil.DecodeJSON(request, &input); err == nil && input.RefreshToken != "" {
			return input.RefreshToken
		}
	}
	return cookieSecret(request)
}

func cookieSecret(request *http.Request) string {
	cookie, err := request.Cookie(constants.RefreshTokenCookieName)
	if err != nil {
		return ""
	}
	return cookie.Value
}

func setRefreshCookie(writer http.ResponseWriter, session *SessionResult) {
	http.SetCookie(writer, &http.Cookie{
		Name:     constants.RefreshTokenCookieName,
		Value:    session.RefreshToken,
		Path:     constants.RefreshTokenCookiePath,
		Expires:  session.RefreshTokenExpiresAt,
		Secure:   true,
		HttpOnly: true,
		SameSite: http.SameSiteStrictMode,
	})
}

func clearRefreshCookie(writer http.ResponseWriter) {
	http.SetCookie(writer, &http.Cookie{
		Name:     constants.RefreshTokenCookieName,
		Value:    "",
		Path:     constants.RefreshTokenCookiePath,
		MaxAge:   -1,
		Secure:   true,
		HttpOnly: true,
		SameSite: http.SameSiteStrictMode,
	})
}
