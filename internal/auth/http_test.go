// Copyright (c) 2026 Plaza. All rights reserved.
// Author: tai.buivan.jp@gmail.com

package auth_test

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/taibuivan/plaza/internal/auth"
	"github.com/taibuivan/plaza/internal/platform/middleware"
)

// testServer mounts the user routes behind the same middleware pair the real
// server uses.
func testServer(t *testing.T) (*httptest.Server, *auth.Service) {
	t.Helper()

	repo := newMemoryUserRepository()
	tokenSvc := newTestTokenService(t)
	service := auth.NewService(repo, tokenSvc)
	handler := auth.NewHandler(service)

	server := httptest.NewServer(middleware.Authenticate(tokenSvc)(handler.Routes()))
	t.Cleanup(server.Close)

	return server, service
}

func postJSON(t *testing.T, url string, body map[string]any) *http.Response {
	t.Helper()

	payload, err := json.Marshal(body)
	require.NoError(t, err)

	response, err := http.Post(url, "application/json", bytes.NewReader(payload))
	require.NoError(t, err)
	return response
}

func decodeBody(t *testing.T, response *http.Response) map[string]any {
	t.Helper()
	defer response.Body.Close()

	var decoded map[string]any
	require.NoError(t, json.NewDecoder(response.Body).Decode(&decoded))
	return decoded
}

var registerBody = map[string]any{
	"username":   "daniela",
	"email":      "daniela@example.com",
	"password":   "sufficiently-long-pass",
	"first_name": "Daniela",
	"last_name":  "Ortiz",
}

/*
TestHTTP_RegisterAndLogin verifies the happy path and the status codes for
conflicts, unknown users, and bad passwords.
*/
func TestHTTP_RegisterAndLogin(t *testing.T) {
	server, _ := testServer(t)

	// Register
	response := postJSON(t, server.URL+"/register", registerBody)
	assert.Equal(t, http.StatusCreated, response.StatusCode)
	response.Body.Close()

	// Duplicate registration
	response = postJSON(t, server.URL+"/register", registerBody)
	assert.Equal(t, http.StatusConflict, response.StatusCode)
	response.Body.Close()

	// Unknown username
	response = postJSON(t, server.URL+"/login", map[string]any{
		"username": "nobody", "password": "whatever-pass",
	})
	assert.Equal(t, http.StatusNotFound, response.StatusCode)
	response.Body.Close()

	// Wrong password
	response = postJSON(t, server.URL+"/login", map[string]any{
		"username": "daniela", "password": "wrong-pass",
	})
	assert.Equal(t, http.StatusUnauthorized, response.StatusCode)
	response.Body.Close()

	// Success returns both tokens and the user
	response = postJSON(t, server.URL+"/login", map[string]any{
		"username": "daniela", "password": "sufficiently-long-pass",
	})
	assert.Equal(t, http.StatusOK, response.StatusCode)
	body := decodeBody(t, response)

	data, ok := body["data"].(map[string]any)
	require.True(t, ok, "body %v", body)
	assert.NotEmpty(t, data["access_token"])
	assert.NotEmpty(t, data["refresh_token"])
}

/*
TestHTTP_RefreshLifecycle verifies the transport status codes of the whole
rotation state machine: 400 missing, 403 invalid, 200 rotation, 401 replay.
*/
func TestHTTP_RefreshLifecycle(t *testing.T) {
	server, _ := testServer(t)

	response := postJSON(t, server.URL+"/register", registerBody)
	require.Equal(t, http.StatusCreated, response.StatusCode)
	response.Body.Close()

	response = postJSON(t, server.URL+"/login", map[string]any{
		"username": "daniela", "password": "sufficiently-long-pass",
	})
	require.Equal(t, http.StatusOK, response.StatusCode)
	refreshToken := decodeBody(t, response)["data"].(map[string]any)["refresh_token"].(string)

	// Missing token
	response = postJSON(t, server.URL+"/refresh", map[string]any{})
	assert.Equal(t, http.StatusBadRequest, response.StatusCode)
	response.Body.Close()

	// Garbage token
	response = postJSON(t, server.URL+"/refresh", map[string]any{"refresh_token": "garbage"})
	assert.Equal(t, http.StatusForbidden, response.StatusCode)
	response.Body.Close()

	// Rotation succeeds and returns a fresh pair
	response = postJSON(t, server.URL+"/refresh", map[string]any{"refresh_token": refreshToken})
	assert.Equal(t, http.StatusOK, response.StatusCode)
	rotated := decodeBody(t, response)["data"].(map[string]any)
	assert.NotEmpty(t, rotated["access_token"])
	assert.NotEqual(t, refreshToken, rotated["refresh_token"])

	// Replay of the consumed token
	response = postJSON(t, server.URL+"/refresh", map[string]any{"refresh_token": refreshToken})
	assert.Equal(t, http.StatusUnauthorized, response.StatusCode)
	response.Body.Close()

	// The wipe killed the rotated session too
	response = postJSON(t, server.URL+"/refresh", map[string]any{"refresh_token": rotated["refresh_token"]})
	assert.Equal(t, http.StatusUnauthorized, response.StatusCode)
	response.Body.Close()
}

/*
TestHTTP_Logout verifies logout status codes including the replay wipe.
*/
func TestHTTP_Logout(t *testing.T) {
	server, _ := testServer(t)

	response := postJSON(t, server.URL+"/register", registerBody)
	require.Equal(t, http.StatusCreated, response.StatusCode)
	response.Body.Close()

	response = postJSON(t, server.URL+"/login", map[string]any{
		"username": "daniela", "password": "sufficiently-long-pass",
	})
	require.Equal(t, http.StatusOK, response.StatusCode)
	refreshToken := decodeBody(t, response)["data"].(map[string]any)["refresh_token"].(string)

	// Success
	response = postJSON(t, server.URL+"/logout", map[string]any{"refresh_token": refreshToken})
	assert.Equal(t, http.StatusNoContent, response.StatusCode)
	response.Body.Close()

	// Replay
	response = postJSON(t, server.URL+"/logout", map[string]any{"refresh_token": refreshToken})
	assert.Equal(t, http.StatusUnauthorized, response.StatusCode)
	response.Body.Close()
}

/*
TestHTTP_ProtectedRoutes verifies the 401/403 split on the profile
endpoints: anonymous is 401 via RequireAuth, a bad token is 403 via
Authenticate, and a valid access token reaches the handler.
*/
func TestHTTP_ProtectedRoutes(t *testing.T) {
	server, service := testServer(t)

	response := postJSON(t, server.URL+"/register", registerBody)
	require.Equal(t, http.StatusCreated, response.StatusCode)
	response.Body.Close()

	session, err := service.Login(context.Background(), "daniela", "sufficiently-long-pass")
	require.NoError(t, err)

	client := server.Client()

	// Anonymous: rejected by the RequireAuth gate.
	request, err := http.NewRequest(http.MethodDelete, server.URL+"/me", nil)
	require.NoError(t, err)
	response, err = client.Do(request)
	require.NoError(t, err)
	assert.Equal(t, http.StatusUnauthorized, response.StatusCode)
	response.Body.Close()

	// Invalid token: rejected earlier, by Authenticate.
	request, err = http.NewRequest(http.MethodDelete, server.URL+"/me", nil)
	require.NoError(t, err)
	request.Header.Set("Authorization", "Bearer garbage")
	response, err = client.Do(request)
	require.NoError(t, err)
	assert.Equal(t, http.StatusForbidden, response.StatusCode)
	response.Body.Close()

	// Valid access token deletes the account.
	request, err = http.NewRequest(http.MethodDelete, server.URL+"/me", nil)
	require.NoError(t, err)
	request.Header.Set("Authorization", "Bearer "+session.AccessToken)
	response, err = client.Do(request)
	require.NoError(t, err)
	assert.Equal(t, http.StatusNoContent, response.StatusCode)
	response.Body.Close()

	// The refresh token now points at a missing subject.
	err = service.Logout(context.Background(), session.RefreshToken)
	assert.ErrorIs(t, err, auth.ErrUnknownSubject)
}
