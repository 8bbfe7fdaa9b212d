// Copyright (c) 2026 Yomira. All rights reserved.
// Author: tai.buivan.jp@gmail.com

// Package sec provides cryptographic primitives and token management.
//
// # Architecture
//
// This package isolates security-sensitive code (Hashing, JWT Signing) from
// the domain logic. It acts as an Infrastructure service injected into the
// Application layer via the auth.TokenIssuer interface.
//
// Two kinds of signed token share one RSA key pair:
//   - Access tokens ([AuthClaims]) carry identity for a short request window.
//   - Magic-link tokens ([MagicLinkClaims]) carry a purpose discriminator and
//     are rejected anywhere an access token is expected, and vice versa.
package sec

import (
	"crypto/rsa"
	"errors"
	"fmt"
	"os"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
)

// PurposeMagicLink is the discriminator carried by magic-link tokens.
const PurposeMagicLink = "magic_link_login"

var (
	// ErrTokenExpired is returned for a well-signed token whose expiry has passed.
	ErrTokenExpired = errors.New("sec: token expired")

	// ErrTokenInvalid is returned for malformed, badly signed or mistyped tokens.
	ErrTokenInvalid = errors.New("sec: token invalid")
)

// AuthClaims represents the payload embedded inside a JWT Access Token.
//
// By embedding the identity directly inside the JWT, [middleware.Authenticate]
// can reconstruct the caller WITHOUT querying the database on every request.
type AuthClaims struct {
	jwt.RegisteredClaims

	UserID      string `json:"uid"`
	Email       string `json:"eml"`
	DisplayName string `json:"nam"`

	// Purpose must be empty on access tokens.
	Purpose string `json:"pur,omitempty"`
}

// MagicLinkClaims represents the payload of a passwordless login token.
type MagicLinkClaims struct {
	jwt.RegisteredClaims

	UserID  string `json:"uid"`
	Email   string `json:"eml"`
	Purpose string `json:"pur"`
}

// TokenService handles generation and verification of JWT tokens using RS256.
type TokenService struct {
	privateKey *rsa.PrivateKey
	publicKey  *rsa.PublicKey
	issuer     string
	now        func() time.Time
}

// NewTokenService creates a new TokenService.
// It reads RSA keys from the provided filesystem paths.
func NewTokenService(privateKeyPath, publicKeyPath, issuer string) (*TokenService, error) {
	privateKeyData, err := os.ReadFile(privateKeyPath)
	if err != nil {
		return nil, fmt.Errorf("auth: failed to read private key from %s: %w", privateKeyPath, err)
	}

	privateKey, err := jwt.ParseRSAPrivateKeyFromPEM(privateKeyData)
	if err != nil {
		return nil, fmt.Errorf("auth: failed to parse private key: %w", err)
	}

	publicKeyData, err := os.ReadFile(publicKeyPath)
	if err != nil {
		return nil, fmt.Errorf("auth: failed to read public key from %s: %w", publicKeyPath, err)
	}

	publicKey, err := jwt.ParseRSAPublicKeyFromPEM(publicKeyData)
	if err != nil {
		return nil, fmt.Errorf("auth: failed to parse public key: %w", err)
	}

	return NewTokenServiceFromKeys(privateKey, publicKey, issuer), nil
}

// NewTokenServiceFromKeys creates a TokenService from already parsed keys.
func NewTokenServiceFromKeys(privateKey *rsa.PrivateKey, publicKey *rsa.PublicKey, issuer string) *TokenService {
	return &TokenService{
		privateKey: privateKey,
		publicKey:  publicKey,
		issuer:     issuer,
		now:        time.Now,
	}
}

// WithClock replaces the time source used for issuing and validating tokens.
func (service *TokenService) WithClock(now func() time.Time) *TokenService {
	service.now = now
	return service
}

// # Access Tokens

// GenerateAccessToken creates a new JWT access token for a user.
func (service *TokenService) GenerateAccessToken(userID, email, displayName string, timeToLive time.Duration) (string, error) {
	currentTime := service.now()
	claims := AuthClaims{
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   userID,
			Issuer:    service.issuer,
			IssuedAt:  jwt.NewNumericDate(currentTime),
			ExpiresAt: jwt.NewNumericDate(currentTime.Add(timeToLive)),
		},
		UserID:      userID,
		Email:       email,
		DisplayName: displayName,
	}

	return service.sign(claims)
}

// VerifyToken checks the signature and validity of an access token.
//
// It returns [ErrTokenExpired] for a well-signed but expired token and
// [ErrTokenInvalid] for everything else, including magic-link tokens.
func (service *TokenService) VerifyToken(tokenString string) (*AuthClaims, error) {
	claims := &AuthClaims{}
	if err := service.parse(tokenString, claims); err != nil {
		return nil, err
	}

	if claims.Purpose != "" || claims.UserID == "" {
		return nil, ErrTokenInvalid
	}

	return claims, nil
}

// # Magic-Link Tokens

// GenerateMagicLinkToken creates a purpose-tagged, short-lived login token.
//
// The token carries a random jti so that redemption can be recorded once.
func (service *TokenService) GenerateMagicLinkToken(userID, email string, timeToLive time.Duration) (string, error) {
	currentTime := service.now()
	claims := MagicLinkClaims{
		RegisteredClaims: jwt.RegisteredClaims{
			ID:        uuid.NewString(),
			Subject:   userID,
			Issuer:    service.issuer,
			IssuedAt:  jwt.NewNumericDate(currentTime),
			ExpiresAt: jwt.NewNumericDate(currentTime.Add(timeToLive)),
		},
		UserID:  userID,
		Email:   email,
		Purpose: PurposeMagicLink,
	}

	return service.sign(claims)
}

// VerifyMagicLinkToken checks signature, expiry and the purpose discriminator.
func (service *TokenService) VerifyMagicLinkToken(tokenString string) (*MagicLinkClaims, error) {
	claims := &MagicLinkClaims{}
	if err := service.parse(tokenString, claims); err != nil {
		return nil, err
	}

	if claims.Purpose != PurposeMagicLink || claims.UserID == "" {
		return nil, ErrTokenInvalid
	}

	return claims, nil
}

// # Internals

func (service *TokenService) sign(claims jwt.Claims) (string, error) {
	token := jwt.NewWithClaims(jwt.SigningMethodRS256, claims)
	signedToken, err := token.SignedString(service.privateKey)
	if err != nil {
		return "", fmt.Errorf("auth: failed to sign token: %w", err)
	}

	return signedToken, nil
}

func (service *TokenService) parse(tokenString string, claims jwt.Claims) error {
	token, err := jwt.ParseWithClaims(tokenString, claims, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodRSA); !ok {
			return nil, fmt.Errorf("auth: unexpected signing method: %v", token.Header["alg"])
		}
		return service.publicKey, nil
	},
		jwt.WithIssuer(service.issuer),
		jwt.WithExpirationRequired(),
		jwt.WithTimeFunc(service.now),
	)

	if err != nil {
		if errors.Is(err, jwt.ErrTokenExpired) {
			return ErrTokenExpired
		}
		return ErrTokenInvalid
	}

	if !token.Valid {
		return ErrTokenInvalid
	}

	return nil
}
