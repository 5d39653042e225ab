// Copyright (c) 2026 Plaza. All rights reserved.
// Author: tai.buivan.jp@gmail.com

package auth

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/taibuivan/plaza/internal/platform/apperr"
	"github.com/taibuivan/plaza/internal/platform/sec"
	"github.com/taibuivan/plaza/pkg/uuid"
)

// # Error Taxonomy
//
// Every token-path failure maps onto exactly one of these values, so callers
// (and tests) can match with errors.Is. A replayed token and a never-issued
// token both surface as ErrTokenNotActive; callers must not be able to tell
// them apart.
var (
	// ErrMissingToken is returned when no refresh token was supplied at all.
	ErrMissingToken = apperr.ValidationError("Refresh token is required")

	// ErrUserNotFound is returned by Login for an unknown username.
	ErrUserNotFound = apperr.NotFound("User")

	// ErrInvalidCredentials is returned by Login on a password mismatch.
	ErrInvalidCredentials = apperr.Unauthorized("Password is incorrect")

	// ErrInvalidToken covers bad signatures and malformed tokens.
	ErrInvalidToken = apperr.Forbidden("Invalid token")

	// ErrExpiredToken covers correctly signed tokens past their lifetime.
	ErrExpiredToken = apperr.Forbidden("Token has expired")

	// ErrUnknownSubject is returned when a token verifies but its subject
	// user no longer exists.
	ErrUnknownSubject = apperr.Unauthorized("Token subject no longer exists")

	// ErrTokenNotActive is returned when a verified refresh token is not in
	// the subject's active set. As a side effect the ENTIRE set is wiped:
	// presenting a revoked token is treated as evidence of compromise.
	ErrTokenNotActive = apperr.Unauthorized("Token is not active")
)

// # Contracts & Types

// TokenProvider defines the contract for issuing and verifying token pairs.
//
// The provider is stateless with respect to storage, a pure function of the
// signing secret and the payload. Revocation is the Service's concern.
type TokenProvider interface {
	// IssuePair creates a signed access/refresh token pair for the subject,
	// both embedding one fresh per-issuance nonce.
	IssuePair(subjectID string) (*sec.TokenPair, error)

	// Verify checks signature and expiry and returns the embedded claims.
	// Failures are [sec.ErrTokenExpired] or [sec.ErrTokenInvalid].
	Verify(tokenString string) (*sec.SessionClaims, error)

	// AccessTokenTTL reports the configured access token lifetime.
	AccessTokenTTL() time.Duration
}

// Service implements the session lifecycle use cases.
//
// # Review Process
//
// This service is critical for security. Any changes to the rotation or
// reuse-detection logic must be reviewed by the security team.
type Service struct {
	userRepository UserRepository
	tokenProvider  TokenProvider
}

// NewService constructs a new auth [Service] with necessary dependencies.
func NewService(userRepo UserRepository, tokenProv TokenProvider) *Service {
	return &Service{
		userRepository: userRepo,
		tokenProvider:  tokenProv,
	}
}

// # Registration Flow

// RegisterInput holds the data required to enroll a new member.
type RegisterInput struct {
	Username  string
	Email     string
	Password  string
	FirstName string
	LastName  string
	Picture   string
}

/*
Register validates, hashes, and persists a brand new user account.

Description: Enrolls a new member with an empty token and like set, hashing
the password before anything touches storage.

Parameters:
  - context: context.Context
  - input: RegisterInput

Returns:
  - *User: Created entity
  - error: Conflict (if identity exists) or storage errors
*/
func (service *Service) Register(context context.Context, input RegisterInput) (*User, error) {

	// Verify email uniqueness. Return a client-safe Conflict error.
	_, err := service.userRepository.FindByEmail(context, input.Email)
	if err == nil {
		return nil, apperr.Conflict("Email is already registered")
	}

	// Verify username uniqueness. Return a client-safe Conflict error.
	_, err = service.userRepository.FindByUsername(context, input.Username)
	if err == nil {
		return nil, apperr.Conflict("Username is already taken")
	}

	// Prevent storing plain-text passwords. Default cost is used for balance
	// between security and CPU utilization during registration spikes.
	hashedPassword, err := sec.HashPassword(input.Password)
	if err != nil {
		return nil, fmt.Errorf("auth_service_hash_failed: %w", err)
	}

	// Construct the new User entity. Time-sortable ID to prevent PG index fragmentation.
	user := &User{
		ID:            uuid.New(),
		Username:      input.Username,
		Email:         input.Email,
		PasswordHash:  hashedPassword,
		FirstName:     input.FirstName,
		LastName:      input.LastName,
		Picture:       input.Picture,
		RefreshTokens: []string{},
		LikedPosts:    []string{},
	}

	// Persist the user to the database
	if err := service.userRepository.Create(context, user); err != nil {
		return nil, fmt.Errorf("auth_service_register_failed: %w", err)
	}

	return user, nil
}

// # Authentication Flow

// LoginSession represents a successfully established user session.
type LoginSession struct {
	AccessToken  string
	RefreshToken string
	User         *User
}

/*
Login validates user credentials and issues a fresh token pair.

Description: Verifies identity with a constant-time password comparison,
issues an access/refresh pair, and appends the refresh token to the user's
persisted active set. Two logins without a logout produce two independently
active refresh tokens.

Parameters:
  - context: context.Context
  - username: string
  - password: string

Returns:
  - *LoginSession: Transport-ready session identifiers
  - error: ErrUserNotFound, ErrInvalidCredentials, or internal failures
*/
func (service *Service) Login(context context.Context, username, password string) (*LoginSession, error) {

	// Look up the account by exact username.
	user, err := service.userRepository.FindByUsername(context, username)
	if err != nil {
		return nil, ErrUserNotFound
	}

	// Verify password hash using the constant-time comparison in bcrypt.
	if !sec.CheckPasswordHash(password, user.PasswordHash) {
		return nil, ErrInvalidCredentials
	}

	// Issue the paired tokens. One issuance event, one shared nonce.
	pair, err := service.tokenProvider.IssuePair(user.ID)
	if err != nil {
		return nil, fmt.Errorf("auth_service_token_generation_failed: %w", err)
	}

	// Persist the refresh token into the active set.
	if err := service.userRepository.AppendRefreshToken(context, user.ID, pair.RefreshToken); err != nil {
		return nil, fmt.Errorf("auth_service_persist_token_failed: %w", err)
	}

	return &LoginSession{
		AccessToken:  pair.AccessToken,
		RefreshToken: pair.RefreshToken,
		User:         user,
	}, nil
}

// # Session Management

/*
Logout revokes exactly one refresh token.

Description: Verifies the token cryptographically, resolves its subject, and
removes it from the active set.

A verified token that is NOT in the active set triggers the reuse-detection
policy: the entire set is wiped and ErrTokenNotActive is returned. This
makes "already logged out" indistinguishable from "replayed by an attacker".

Parameters:
  - context: context.Context
  - refreshToken: string

Returns:
  - error: ErrMissingToken, ErrInvalidToken, ErrExpiredToken,
    ErrUnknownSubject, ErrTokenNotActive, or storage failures
*/
func (service *Service) Logout(context context.Context, refreshToken string) error {
	user, err := service.resolveRefreshSubject(context, refreshToken)
	if err != nil {
		return err
	}

	removed, err := service.userRepository.RemoveRefreshToken(context, user.ID, refreshToken)
	if err != nil {
		return fmt.Errorf("auth_service_logout_failed: %w", err)
	}

	if !removed {
		return service.wipeSessions(context, user.ID)
	}

	return nil
}

/*
Refresh exchanges a refresh token for a brand-new token pair (rotation).

Description: Validates the presented token exactly like Logout, then issues a
new pair and swaps old-for-new in the active set as one conditional storage
operation. The old token is dead forever the instant the new one is issued;
a client that loses the response must log in again.

A verified token missing from the active set, including the second caller of
a double-submit race, wipes the entire set and fails with ErrTokenNotActive.

Parameters:
  - context: context.Context
  - refreshToken: string

Returns:
  - *sec.TokenPair: The newly issued pair
  - error: Same taxonomy as Logout
*/
func (service *Service) Refresh(context context.Context, refreshToken string) (*sec.TokenPair, error) {
	user, err := service.resolveRefreshSubject(context, refreshToken)
	if err != nil {
		return nil, err
	}

	// Issue first: if signing fails the active set is untouched.
	pair, err := service.tokenProvider.IssuePair(user.ID)
	if err != nil {
		return nil, fmt.Errorf("auth_service_refresh_issue_failed: %w", err)
	}

	rotated, err := service.userRepository.RotateRefreshToken(context, user.ID, refreshToken, pair.RefreshToken)
	if err != nil {
		return nil, fmt.Errorf("auth_service_refresh_rotate_failed: %w", err)
	}

	if !rotated {
		return nil, service.wipeSessions(context, user.ID)
	}

	return pair, nil
}

/*
Authenticate resolves an access token into its subject id.

Description: A pure cryptographic check. Storage is never consulted, which
keeps the per-request hot path free of database access. A deleted user's
unexpired access token therefore still authenticates; handlers must tolerate
a missing subject.

Parameters:
  - accessToken: string

Returns:
  - string: Subject user ID
  - error: ErrInvalidToken or ErrExpiredToken
*/
func (service *Service) Authenticate(accessToken string) (string, error) {
	claims, err := service.tokenProvider.Verify(accessToken)
	if err != nil {
		if errors.Is(err, sec.ErrTokenExpired) {
			return "", ErrExpiredToken
		}
		return "", ErrInvalidToken
	}

	return claims.UserID, nil
}

// resolveRefreshSubject runs the shared validation chain of Logout and
// Refresh: presence check, signature/expiry check, subject lookup.
func (service *Service) resolveRefreshSubject(context context.Context, refreshToken string) (*User, error) {
	if refreshToken == "" {
		return nil, ErrMissingToken
	}

	claims, err := service.tokenProvider.Verify(refreshToken)
	if err != nil {
		if errors.Is(err, sec.ErrTokenExpired) {
			return nil, ErrExpiredToken
		}
		return nil, ErrInvalidToken
	}

	user, err := service.userRepository.FindByID(context, claims.UserID)
	if err != nil {
		return nil, ErrUnknownSubject
	}

	return user, nil
}

// wipeSessions clears every refresh token for the user and returns the
// uniform ErrTokenNotActive outcome.
func (service *Service) wipeSessions(context context.Context, userID string) error {
	if err := service.userRepository.ClearRefreshTokens(context, userID); err != nil {
		return fmt.Errorf("auth_service_wipe_failed: %w", err)
	}
	return ErrTokenNotActive
}

// # Profile Management

// UpdateProfileInput holds the optional fields of a partial profile update.
// A nil field means "leave unchanged".
type UpdateProfileInput struct {
	Username  *string
	FirstName *string
	LastName  *string
	Picture   *string
}

/*
GetProfile returns the public profile view of a user.

Parameters:
  - context: context.Context
  - userID: string

Returns:
  - *Profile: Full name and picture only
  - error: ErrUserNotFound
*/
func (service *Service) GetProfile(context context.Context, userID string) (*Profile, error) {
	user, err := service.userRepository.FindByID(context, userID)
	if err != nil {
		return nil, ErrUserNotFound
	}

	return &Profile{
		FullName: user.FullName(),
		Picture:  user.Picture,
	}, nil
}

/*
UpdateProfile applies a partial update to the caller's own profile.

Description: When the username changes, uniqueness is re-checked before the
write (the database unique index backstops the race).

Parameters:
  - context: context.Context
  - userID: string
  - input: UpdateProfileInput

Returns:
  - *User: The updated entity
  - error: ErrUserNotFound, Conflict, or storage failures
*/
func (service *Service) UpdateProfile(context context.Context, userID string, input UpdateProfileInput) (*User, error) {
	user, err := service.userRepository.FindByID(context, userID)
	if err != nil {
		return nil, ErrUserNotFound
	}

	if input.Username != nil && *input.Username != user.Username {
		if _, err := service.userRepository.FindByUsername(context, *input.Username); err == nil {
			return nil, apperr.Conflict("Username is already taken")
		}
		user.Username = *input.Username
	}

	if input.FirstName != nil {
		user.FirstName = *input.FirstName
	}
	if input.LastName != nil {
		user.LastName = *input.LastName
	}
	if input.Picture != nil {
		user.Picture = *input.Picture
	}

	if err := service.userRepository.UpdateProfile(context, user); err != nil {
		return nil, fmt.Errorf("auth_service_update_profile_failed: %w", err)
	}

	return user, nil
}

/*
DeleteAccount removes the caller's account and everything it owns.

Description: The repository cascades the delete over the user's posts,
comments, and like marks in one transaction. Outstanding refresh tokens die
with the row (ErrUnknownSubject thereafter); unexpired access tokens keep
verifying until they lapse.

Parameters:
  - context: context.Context
  - userID: string

Returns:
  - error: ErrUserNotFound or storage failures
*/
func (service *Service) DeleteAccount(context context.Context, userID string) error {
	if err := service.userRepository.Delete(context, userID); err != nil {
		if apperr.IsAppError(err) {
			return ErrUserNotFound
		}
		return fmt.Errorf("auth_service_delete_account_failed: %w", err)
	}
	return nil
}
