// Copyright (c) 2026 Plaza. All rights reserved.
// Author: tai.buivan.jp@gmail.com

package auth_test

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/taibuivan/plaza/internal/auth"
	"github.com/taibuivan/plaza/internal/platform/apperr"
	"github.com/taibuivan/plaza/internal/platform/sec"
)

// # In-Memory Repository

// memoryUserRepository is a UserRepository fake that honors the conditional
// semantics of the real store: token-set mutations check their precondition
// and report whether they applied, all under one mutex.
type memoryUserRepository struct {
	mu    sync.Mutex
	users map[string]*auth.User
}

func newMemoryUserRepository() *memoryUserRepository {
	return &memoryUserRepository{users: make(map[string]*auth.User)}
}

func (repo *memoryUserRepository) FindByID(_ context.Context, id string) (*auth.User, error) {
	repo.mu.Lock()
	defer repo.mu.Unlock()

	user, ok := repo.users[id]
	if !ok {
		return nil, apperr.NotFound("User")
	}
	clone := *user
	return &clone, nil
}

func (repo *memoryUserRepository) FindByUsername(_ context.Context, username string) (*auth.User, error) {
	repo.mu.Lock()
	defer repo.mu.Unlock()

	for _, user := range repo.users {
		if user.Username == username {
			clone := *user
			return &clone, nil
		}
	}
	return nil, apperr.NotFound("User")
}

func (repo *memoryUserRepository) FindByEmail(_ context.Context, email string) (*auth.User, error) {
	repo.mu.Lock()
	defer repo.mu.Unlock()

	for _, user := range repo.users {
		if user.Email == email {
			clone := *user
			return &clone, nil
		}
	}
	return nil, apperr.NotFound("User")
}

func (repo *memoryUserRepository) Create(_ context.Context, user *auth.User) error {
	repo.mu.Lock()
	defer repo.mu.Unlock()

	clone := *user
	repo.users[user.ID] = &clone
	return nil
}

func (repo *memoryUserRepository) UpdateProfile(_ context.Context, user *auth.User) error {
	repo.mu.Lock()
	defer repo.mu.Unlock()

	stored, ok := repo.users[user.ID]
	if !ok {
		return apperr.NotFound("User")
	}
	stored.Username = user.Username
	stored.FirstName = user.FirstName
	stored.LastName = user.LastName
	stored.Picture = user.Picture
	return nil
}

func (repo *memoryUserRepository) Delete(_ context.Context, id string) error {
	repo.mu.Lock()
	defer repo.mu.Unlock()

	if _, ok := repo.users[id]; !ok {
		return apperr.NotFound("User")
	}
	delete(repo.users, id)
	return nil
}

func (repo *memoryUserRepository) AppendRefreshToken(_ context.Context, userID, token string) error {
	repo.mu.Lock()
	defer repo.mu.Unlock()

	user, ok := repo.users[userID]
	if !ok {
		return apperr.NotFound("User")
	}
	user.RefreshTokens = append(user.RefreshTokens, token)
	return nil
}

func (repo *memoryUserRepository) RemoveRefreshToken(_ context.Context, userID, token string) (bool, error) {
	repo.mu.Lock()
	defer repo.mu.Unlock()

	user, ok := repo.users[userID]
	if !ok {
		return false, apperr.NotFound("User")
	}

	for i, active := range user.RefreshTokens {
		if active == token {
			user.RefreshTokens = append(user.RefreshTokens[:i], user.RefreshTokens[i+1:]...)
			return true, nil
		}
	}
	return false, nil
}

func (repo *memoryUserRepository) RotateRefreshToken(_ context.Context, userID, oldToken, newToken string) (bool, error) {
	repo.mu.Lock()
	defer repo.mu.Unlock()

	user, ok := repo.users[userID]
	if !ok {
		return false, apperr.NotFound("User")
	}

	for i, active := range user.RefreshTokens {
		if active == oldToken {
			user.RefreshTokens[i] = newToken
			return true, nil
		}
	}
	return false, nil
}

func (repo *memoryUserRepository) ClearRefreshTokens(_ context.Context, userID string) error {
	repo.mu.Lock()
	defer repo.mu.Unlock()

	user, ok := repo.users[userID]
	if !ok {
		return apperr.NotFound("User")
	}
	user.RefreshTokens = []string{}
	return nil
}

// activeTokens returns a copy of the user's token set for assertions.
func (repo *memoryUserRepository) activeTokens(userID string) []string {
	repo.mu.Lock()
	defer repo.mu.Unlock()

	user, ok := repo.users[userID]
	if !ok {
		return nil
	}
	return append([]string(nil), user.RefreshTokens...)
}

// # Fixtures

func newTestTokenService(t *testing.T) *sec.TokenService {
	t.Helper()

	service, err := sec.NewTokenService("service-test-secret", "plaza.test", time.Minute, time.Hour)
	require.NoError(t, err)
	return service
}

func newTestService(t *testing.T) (*auth.Service, *memoryUserRepository) {
	t.Helper()

	repo := newMemoryUserRepository()
	return auth.NewService(repo, newTestTokenService(t)), repo
}

func registerTestUser(t *testing.T, service *auth.Service) *auth.User {
	t.Helper()

	user, err := service.Register(context.Background(), auth.RegisterInput{
		Username:  "daniela",
		Email:     "daniela@example.com",
		Password:  "sufficiently-long-pass",
		FirstName: "Daniela",
		LastName:  "Ortiz",
	})
	require.NoError(t, err)
	return user
}

// # Registration & Login

/*
TestService_Register verifies account creation, password hashing, and the
identity conflict checks.
*/
func TestService_Register(t *testing.T) {
	service, repo := newTestService(t)
	ctx := context.Background()

	user := registerTestUser(t, service)
	assert.NotEmpty(t, user.ID)
	assert.NotEqual(t, "sufficiently-long-pass", user.PasswordHash)
	assert.Empty(t, repo.activeTokens(user.ID))

	// Same email
	_, err := service.Register(ctx, auth.RegisterInput{
		Username: "other", Email: "daniela@example.com", Password: "irrelevant-pass",
	})
	require.Error(t, err)
	appErr := apperr.As(err)
	require.NotNil(t, appErr)
	assert.Equal(t, 409, appErr.HTTPStatus)

	// Same username
	_, err = service.Register(ctx, auth.RegisterInput{
		Username: "daniela", Email: "other@example.com", Password: "irrelevant-pass",
	})
	require.Error(t, err)
	appErr = apperr.As(err)
	require.NotNil(t, appErr)
	assert.Equal(t, 409, appErr.HTTPStatus)
}

/*
TestService_Login verifies the credential checks and that a successful login
persists its refresh token into the active set.
*/
func TestService_Login(t *testing.T) {
	service, repo := newTestService(t)
	ctx := context.Background()
	user := registerTestUser(t, service)

	// Unknown username
	_, err := service.Login(ctx, "nobody", "whatever-pass")
	assert.ErrorIs(t, err, auth.ErrUserNotFound)

	// Wrong password
	_, err = service.Login(ctx, "daniela", "wrong-pass")
	assert.ErrorIs(t, err, auth.ErrInvalidCredentials)

	// Username matching is exact, not case-insensitive.
	_, err = service.Login(ctx, "Daniela", "sufficiently-long-pass")
	assert.ErrorIs(t, err, auth.ErrUserNotFound)

	// Success
	session, err := service.Login(ctx, "daniela", "sufficiently-long-pass")
	require.NoError(t, err)
	assert.NotEmpty(t, session.AccessToken)
	assert.NotEmpty(t, session.RefreshToken)
	assert.Contains(t, repo.activeTokens(user.ID), session.RefreshToken)
}

/*
TestService_DoubleLogin verifies that two logins yield two independently
active sessions: using one refresh token leaves the other alive.
*/
func TestService_DoubleLogin(t *testing.T) {
	service, repo := newTestService(t)
	ctx := context.Background()
	user := registerTestUser(t, service)

	first, err := service.Login(ctx, "daniela", "sufficiently-long-pass")
	require.NoError(t, err)
	second, err := service.Login(ctx, "daniela", "sufficiently-long-pass")
	require.NoError(t, err)

	require.Len(t, repo.activeTokens(user.ID), 2)

	// Logging out the first session must not touch the second.
	require.NoError(t, service.Logout(ctx, first.RefreshToken))
	tokens := repo.activeTokens(user.ID)
	assert.Equal(t, []string{second.RefreshToken}, tokens)

	// The second still refreshes normally.
	_, err = service.Refresh(ctx, second.RefreshToken)
	assert.NoError(t, err)
}

// # Logout

/*
TestService_Logout verifies single-token revocation and the whole validation
chain in front of it.
*/
func TestService_Logout(t *testing.T) {
	service, repo := newTestService(t)
	ctx := context.Background()
	user := registerTestUser(t, service)

	session, err := service.Login(ctx, "daniela", "sufficiently-long-pass")
	require.NoError(t, err)

	// Missing token
	assert.ErrorIs(t, service.Logout(ctx, ""), auth.ErrMissingToken)

	// Garbage token
	assert.ErrorIs(t, service.Logout(ctx, "not-a-jwt"), auth.ErrInvalidToken)

	// Success removes exactly that token.
	require.NoError(t, service.Logout(ctx, session.RefreshToken))
	assert.Empty(t, repo.activeTokens(user.ID))
}

/*
TestService_LogoutReplay verifies the reuse-detection policy: a second
logout with the same verified token wipes every remaining session.
*/
func TestService_LogoutReplay(t *testing.T) {
	service, repo := newTestService(t)
	ctx := context.Background()
	user := registerTestUser(t, service)

	victim, err := service.Login(ctx, "daniela", "sufficiently-long-pass")
	require.NoError(t, err)
	bystander, err := service.Login(ctx, "daniela", "sufficiently-long-pass")
	require.NoError(t, err)
	_ = bystander

	require.NoError(t, service.Logout(ctx, victim.RefreshToken))
	require.Len(t, repo.activeTokens(user.ID), 1)

	// The replay verifies cryptographically but is no longer active, so the
	// bystander session is wiped too.
	err = service.Logout(ctx, victim.RefreshToken)
	assert.ErrorIs(t, err, auth.ErrTokenNotActive)
	assert.Empty(t, repo.activeTokens(user.ID))
}

/*
TestService_LogoutExpiredToken verifies the expiry branch of the validation
chain.
*/
func TestService_LogoutExpiredToken(t *testing.T) {
	repo := newMemoryUserRepository()
	expiredIssuer, err := sec.NewTokenService("service-test-secret", "plaza.test", -time.Minute, -time.Minute)
	require.NoError(t, err)
	service := auth.NewService(repo, expiredIssuer)

	user := registerTestUser(t, service)
	pair, err := expiredIssuer.IssuePair(user.ID)
	require.NoError(t, err)

	assert.ErrorIs(t, service.Logout(context.Background(), pair.RefreshToken), auth.ErrExpiredToken)
}

// # Refresh Rotation

/*
TestService_Refresh verifies single-use rotation: the exchange yields a new
pair, the old token leaves the active set, and the new one replaces it.
*/
func TestService_Refresh(t *testing.T) {
	service, repo := newTestService(t)
	ctx := context.Background()
	user := registerTestUser(t, service)

	session, err := service.Login(ctx, "daniela", "sufficiently-long-pass")
	require.NoError(t, err)

	pair, err := service.Refresh(ctx, session.RefreshToken)
	require.NoError(t, err)
	assert.NotEqual(t, session.RefreshToken, pair.RefreshToken)

	tokens := repo.activeTokens(user.ID)
	assert.NotContains(t, tokens, session.RefreshToken)
	assert.Contains(t, tokens, pair.RefreshToken)
}

/*
TestService_RefreshReplay verifies that reusing a rotated-out refresh token
wipes every session, including the one created by the rotation.
*/
func TestService_RefreshReplay(t *testing.T) {
	service, repo := newTestService(t)
	ctx := context.Background()
	user := registerTestUser(t, service)

	session, err := service.Login(ctx, "daniela", "sufficiently-long-pass")
	require.NoError(t, err)

	_, err = service.Refresh(ctx, session.RefreshToken)
	require.NoError(t, err)

	// Replay of the consumed token
	_, err = service.Refresh(ctx, session.RefreshToken)
	assert.ErrorIs(t, err, auth.ErrTokenNotActive)
	assert.Empty(t, repo.activeTokens(user.ID))
}

/*
TestService_RefreshChain verifies a login, two chained refreshes, a replay
of the middle token, and the forced re-login afterwards.
*/
func TestService_RefreshChain(t *testing.T) {
	service, repo := newTestService(t)
	ctx := context.Background()
	user := registerTestUser(t, service)

	session, err := service.Login(ctx, "daniela", "sufficiently-long-pass")
	require.NoError(t, err)

	second, err := service.Refresh(ctx, session.RefreshToken)
	require.NoError(t, err)
	third, err := service.Refresh(ctx, second.RefreshToken)
	require.NoError(t, err)

	// Replaying the middle of the chain kills everything, even the head.
	_, err = service.Refresh(ctx, second.RefreshToken)
	assert.ErrorIs(t, err, auth.ErrTokenNotActive)

	_, err = service.Refresh(ctx, third.RefreshToken)
	assert.ErrorIs(t, err, auth.ErrTokenNotActive)
	assert.Empty(t, repo.activeTokens(user.ID))

	// A fresh login restores service.
	restored, err := service.Login(ctx, "daniela", "sufficiently-long-pass")
	require.NoError(t, err)
	assert.Contains(t, repo.activeTokens(user.ID), restored.RefreshToken)
}

/*
TestService_RefreshUnknownSubject verifies that a valid refresh token whose
user has been deleted fails with ErrUnknownSubject.
*/
func TestService_RefreshUnknownSubject(t *testing.T) {
	service, _ := newTestService(t)
	ctx := context.Background()
	user := registerTestUser(t, service)

	session, err := service.Login(ctx, "daniela", "sufficiently-long-pass")
	require.NoError(t, err)

	require.NoError(t, service.DeleteAccount(ctx, user.ID))

	_, err = service.Refresh(ctx, session.RefreshToken)
	assert.ErrorIs(t, err, auth.ErrUnknownSubject)
}

// # Access Path

/*
TestService_Authenticate verifies that access-token authentication is a pure
token check: no storage state can make a valid unexpired token fail.
*/
func TestService_Authenticate(t *testing.T) {
	service, _ := newTestService(t)
	ctx := context.Background()
	user := registerTestUser(t, service)

	session, err := service.Login(ctx, "daniela", "sufficiently-long-pass")
	require.NoError(t, err)

	subject, err := service.Authenticate(session.AccessToken)
	require.NoError(t, err)
	assert.Equal(t, user.ID, subject)

	// Wiping all refresh tokens does not revoke the access token.
	require.NoError(t, service.Logout(ctx, session.RefreshToken))
	subject, err = service.Authenticate(session.AccessToken)
	require.NoError(t, err)
	assert.Equal(t, user.ID, subject)

	_, err = service.Authenticate("garbage")
	assert.ErrorIs(t, err, auth.ErrInvalidToken)
}

// # Profile Management

/*
TestService_UpdateProfile verifies the partial update semantics and the
username uniqueness re-check.
*/
func TestService_UpdateProfile(t *testing.T) {
	service, _ := newTestService(t)
	ctx := context.Background()
	user := registerTestUser(t, service)

	_, err := service.Register(ctx, auth.RegisterInput{
		Username: "marco", Email: "marco@example.com", Password: "irrelevant-pass",
	})
	require.NoError(t, err)

	// Taking an existing username is a conflict.
	taken := "marco"
	_, err = service.UpdateProfile(ctx, user.ID, auth.UpdateProfileInput{Username: &taken})
	require.Error(t, err)
	appErr := apperr.As(err)
	require.NotNil(t, appErr)
	assert.Equal(t, 409, appErr.HTTPStatus)

	// Partial update leaves omitted fields alone.
	firstName := "Dani"
	updated, err := service.UpdateProfile(ctx, user.ID, auth.UpdateProfileInput{FirstName: &firstName})
	require.NoError(t, err)
	assert.Equal(t, "Dani", updated.FirstName)
	assert.Equal(t, "daniela", updated.Username)
	assert.Equal(t, "Ortiz", updated.LastName)
}

/*
TestService_GetProfile verifies the public profile projection.
*/
func TestService_GetProfile(t *testing.T) {
	service, _ := newTestService(t)
	ctx := context.Background()
	user := registerTestUser(t, service)

	profile, err := service.GetProfile(ctx, user.ID)
	require.NoError(t, err)
	assert.Equal(t, "Daniela Ortiz", profile.FullName)

	_, err = service.GetProfile(ctx, "missing-id")
	assert.ErrorIs(t, err, auth.ErrUserNotFound)
}

/*
TestService_DeleteAccount verifies deletion and the NotFound mapping for a
second attempt.
*/
func TestService_DeleteAccount(t *testing.T) {
	service, _ := newTestService(t)
	ctx := context.Background()
	user := registerTestUser(t, service)

	require.NoError(t, service.DeleteAccount(ctx, user.ID))

	err := service.DeleteAccount(ctx, user.ID)
	assert.ErrorIs(t, err, auth.ErrUserNotFound)
}

// # Concurrency

/*
TestService_ConcurrentRefresh verifies that when many goroutines race to
refresh the same token, at most one wins and every loser observes
ErrTokenNotActive.
*/
func TestService_ConcurrentRefresh(t *testing.T) {
	service, _ := newTestService(t)
	ctx := context.Background()
	registerTestUser(t, service)

	session, err := service.Login(ctx, "daniela", "sufficiently-long-pass")
	require.NoError(t, err)

	const racers = 8
	results := make(chan error, racers)

	var start sync.WaitGroup
	start.Add(1)
	for i := 0; i < racers; i++ {
		go func() {
			start.Wait()
			_, err := service.Refresh(ctx, session.RefreshToken)
			results <- err
		}()
	}
	start.Done()

	winners := 0
	for i := 0; i < racers; i++ {
		err := <-results
		if err == nil {
			winners++
			continue
		}
		assert.True(t, errors.Is(err, auth.ErrTokenNotActive))
	}

	assert.LessOrEqual(t, winners, 1)
}
