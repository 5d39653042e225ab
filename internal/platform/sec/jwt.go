// Copyright (c) 2026 Plaza. All rights reserved.
// Author: tai.buivan.jp@gmail.com

// Package sec provides cryptographic primitives and token management.
//
// # Architecture
//
// This package isolates security-sensitive code (Hashing, JWT Signing) from
// the domain logic. It acts as an Infrastructure service injected into the
// Application layer via the [auth.TokenProvider] interface.
package sec

import (
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"

	"github.com/taibuivan/plaza/pkg/uuid"
)

// # Verification Outcomes
//
// Verify is a pure cryptographic check. Its two failure modes are kept as
// distinct sentinels because the middleware and the session manager treat
// them differently from the stateful "revoked" state, which only the
// storage-backed session manager can observe.
var (
	// ErrMissingSecret indicates the signing secret was not configured.
	// This is a startup-fatal condition, never a per-request error.
	ErrMissingSecret = errors.New("sec: signing secret is not configured")

	// ErrTokenExpired indicates a well-formed, correctly signed token whose
	// lifetime has elapsed.
	ErrTokenExpired = errors.New("sec: token expired")

	// ErrTokenInvalid indicates a malformed token, a bad signature, or an
	// unexpected signing algorithm.
	ErrTokenInvalid = errors.New("sec: token invalid")
)

// SessionClaims is the payload embedded inside every Plaza JWT.
//
// # Why custom claims?
//
// By embedding the UserID directly inside the JWT, [middleware.Authenticate]
// can reconstruct the active user context WITHOUT querying the database on
// every single API request. The per-issuance Nonce binds the access and
// refresh token of one issuance event together while keeping each token
// independently verifiable.
type SessionClaims struct {
	jwt.RegisteredClaims

	// Custom application claims are abbreviated to keep the JWT payload small.
	UserID string `json:"uid"`
	Nonce  string `json:"rnd"`
}

// TokenPair is one session issuance event: a short-lived access token and a
// longer-lived refresh token sharing the same nonce.
type TokenPair struct {
	AccessToken  string `json:"access_token"`
	RefreshToken string `json:"refresh_token"`
}

// TokenService handles generation and verification of JWT tokens using HS256
// with a single shared secret.
//
// It is stateless with respect to storage: a pure function of the secret and
// the payload. Revocation state lives in the session manager, not here.
type TokenService struct {
	secret     []byte
	issuer     string
	accessTTL  time.Duration
	refreshTTL time.Duration
}

// NewTokenService creates a new TokenService.
//
// The secret is checked once at construction time so that a missing
// configuration surfaces as a startup failure instead of a latent
// per-request error.
func NewTokenService(secret, issuer string, accessTTL, refreshTTL time.Duration) (*TokenService, error) {
	if secret == "" {
		return nil, ErrMissingSecret
	}

	return &TokenService{
		secret:     []byte(secret),
		issuer:     issuer,
		accessTTL:  accessTTL,
		refreshTTL: refreshTTL,
	}, nil
}

// IssuePair generates a fresh access/refresh token pair for the given subject.
//
// Both tokens embed the same random nonce, so the pair is traceable to one
// issuance event. The two tokens differ only in lifetime.
func (service *TokenService) IssuePair(subjectID string) (*TokenPair, error) {
	nonce := uuid.New()

	accessToken, err := service.sign(subjectID, nonce, service.accessTTL)
	if err != nil {
		return nil, fmt.Errorf("sec: failed to sign access token: %w", err)
	}

	refreshToken, err := service.sign(subjectID, nonce, service.refreshTTL)
	if err != nil {
		return nil, fmt.Errorf("sec: failed to sign refresh token: %w", err)
	}

	return &TokenPair{
		AccessToken:  accessToken,
		RefreshToken: refreshToken,
	}, nil
}

// AccessTokenTTL returns the configured access token lifetime.
func (service *TokenService) AccessTokenTTL() time.Duration {
	return service.accessTTL
}

// RefreshTokenTTL returns the configured refresh token lifetime.
func (service *TokenService) RefreshTokenTTL() time.Duration {
	return service.refreshTTL
}

// sign builds and signs a single token with the given lifetime.
func (service *TokenService) sign(subjectID, nonce string, timeToLive time.Duration) (string, error) {
	currentTime := time.Now()
	claims := SessionClaims{
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   subjectID,
			Issuer:    service.issuer,
			IssuedAt:  jwt.NewNumericDate(currentTime),
			ExpiresAt: jwt.NewNumericDate(currentTime.Add(timeToLive)),
		},
		UserID: subjectID,
		Nonce:  nonce,
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString(service.secret)
}

// Verify checks the signature and validity window of a JWT string.
//
// It never consults storage. Failures map onto exactly two sentinels:
// [ErrTokenExpired] for a valid-but-stale token, [ErrTokenInvalid] for
// everything else (bad signature, malformed payload, wrong algorithm).
func (service *TokenService) Verify(tokenString string) (*SessionClaims, error) {
	token, err := jwt.ParseWithClaims(tokenString, &SessionClaims{}, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", token.Header["alg"])
		}
		return service.secret, nil
	})

	if err != nil {
		if errors.Is(err, jwt.ErrTokenExpired) {
			return nil, fmt.Errorf("%w: %v", ErrTokenExpired, err)
		}
		return nil, fmt.Errorf("%w: %v", ErrTokenInvalid, err)
	}

	claims, ok := token.Claims.(*SessionClaims)
	if !ok || !token.Valid {
		return nil, ErrTokenInvalid
	}

	return claims, nil
}
