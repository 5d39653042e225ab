// Copyright (c) 2026 Plaza. All rights reserved.
// Author: tai.buivan.jp@gmail.com

package middleware_test

import (
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"github.com/taibuivan/plaza/internal/platform/ctxutil"
	"github.com/taibuivan/plaza/internal/platform/middleware"
	"github.com/taibuivan/plaza/internal/platform/sec"
)

// stubVerifier returns fixed claims for the token "good" and an error for
// everything else.
type stubVerifier struct{}

func (stubVerifier) Verify(tokenStr string) (*sec.SessionClaims, error) {
	if tokenStr == "good" {
		return &sec.SessionClaims{UserID: "user-123"}, nil
	}
	return nil, errors.New("bad token")
}

// echoClaims records what the downstream handler observed.
func echoClaims(captured **sec.SessionClaims) http.Handler {
	return http.HandlerFunc(func(writer http.ResponseWriter, request *http.Request) {
		*captured = ctxutil.GetAuthUser(request.Context())
		writer.WriteHeader(http.StatusOK)
	})
}

/*
TestAuthenticate verifies the header state machine: no header passes through
anonymously, a bad header or token terminates with 403, and a valid token
injects claims.
*/
func TestAuthenticate(t *testing.T) {
	tests := []struct {
		name        string
		header      string
		wantStatus  int
		wantReached bool
		wantUserID  string
	}{
		{
			name:        "no header is anonymous",
			header:      "",
			wantStatus:  http.StatusOK,
			wantReached: true,
		},
		{
			name:       "malformed header is forbidden",
			header:     "NotBearer good",
			wantStatus: http.StatusForbidden,
		},
		{
			name:       "missing token part is forbidden",
			header:     "Bearer",
			wantStatus: http.StatusForbidden,
		},
		{
			name:       "invalid token is forbidden",
			header:     "Bearer bad",
			wantStatus: http.StatusForbidden,
		},
		{
			name:        "valid token injects claims",
			header:      "Bearer good",
			wantStatus:  http.StatusOK,
			wantReached: true,
			wantUserID:  "user-123",
		},
	}

	for _, testCase := range tests {
		t.Run(testCase.name, func(t *testing.T) {
			var captured *sec.SessionClaims
			reached := false

			handler := middleware.Authenticate(stubVerifier{})(http.HandlerFunc(
				func(writer http.ResponseWriter, request *http.Request) {
					reached = true
					captured = ctxutil.GetAuthUser(request.Context())
					writer.WriteHeader(http.StatusOK)
				}))

			request := httptest.NewRequest(http.MethodGet, "/", nil)
			if testCase.header != "" {
				request.Header.Set("Authorization", testCase.header)
			}
			recorder := httptest.NewRecorder()

			handler.ServeHTTP(recorder, request)

			assert.Equal(t, testCase.wantStatus, recorder.Code)
			assert.Equal(t, testCase.wantReached, reached)

			if testCase.wantUserID != "" {
				assert.NotNil(t, captured)
				assert.Equal(t, testCase.wantUserID, captured.UserID)
			}
		})
	}
}

/*
TestRequireAuth verifies the 401 gate: anonymous requests are rejected,
authenticated ones pass.
*/
func TestRequireAuth(t *testing.T) {
	var captured *sec.SessionClaims
	handler := middleware.RequireAuth(echoClaims(&captured))

	// Anonymous request, no claims in context.
	request := httptest.NewRequest(http.MethodGet, "/", nil)
	recorder := httptest.NewRecorder()
	handler.ServeHTTP(recorder, request)
	assert.Equal(t, http.StatusUnauthorized, recorder.Code)

	// Authenticated request with claims injected by Authenticate upstream.
	claims := &sec.SessionClaims{UserID: "user-123"}
	request = httptest.NewRequest(http.MethodGet, "/", nil)
	request = request.WithContext(ctxutil.WithAuthUser(request.Context(), claims))
	recorder = httptest.NewRecorder()
	handler.ServeHTTP(recorder, request)

	assert.Equal(t, http.StatusOK, recorder.Code)
	assert.Equal(t, claims, captured)
}

/*
TestAuthenticate_EndToEnd verifies the full chain with a real token service:
an issued access token authenticates, an expired one is rejected with 403.
*/
func TestAuthenticate_EndToEnd(t *testing.T) {
	live, err := sec.NewTokenService("middleware-test-secret", "plaza.test", time.Minute, time.Hour)
	assert.NoError(t, err)
	stale, err := sec.NewTokenService("middleware-test-secret", "plaza.test", -time.Minute, -time.Minute)
	assert.NoError(t, err)

	var captured *sec.SessionClaims
	handler := middleware.Authenticate(live)(middleware.RequireAuth(echoClaims(&captured)))

	// Valid access token
	pair, err := live.IssuePair("user-123")
	assert.NoError(t, err)

	request := httptest.NewRequest(http.MethodGet, "/", nil)
	request.Header.Set("Authorization", "Bearer "+pair.AccessToken)
	recorder := httptest.NewRecorder()
	handler.ServeHTTP(recorder, request)

	assert.Equal(t, http.StatusOK, recorder.Code)
	assert.Equal(t, "user-123", captured.UserID)

	// Expired access token
	expired, err := stale.IssuePair("user-123")
	assert.NoError(t, err)

	request = httptest.NewRequest(http.MethodGet, "/", nil)
	request.Header.Set("Authorization", "Bearer "+expired.AccessToken)
	recorder = httptest.NewRecorder()
	handler.ServeHTTP(recorder, request)

	assert.Equal(t, http.StatusForbidden, recorder.Code)
}
