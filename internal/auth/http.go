// Copyright (c) 2026 Plaza. All rights reserved.
// Author: tai.buivan.jp@gmail.com

package auth

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/taibuivan/plaza/internal/platform/middleware"
	requestutil "github.com/taibuivan/plaza/internal/platform/request"
	"github.com/taibuivan/plaza/internal/platform/respond"
	"github.com/taibuivan/plaza/internal/platform/validate"
)

// # Definitions & Constructors

// Handler implements user and session HTTP endpoints.
type Handler struct {
	authService *Service
}

// NewHandler constructs a new [Handler] with its service dependency.
func NewHandler(service *Service) *Handler {
	return &Handler{authService: service}
}

// Routes returns a [chi.Router] configured with user-facing routes.
//
// # Endpoints
//
// The four session endpoints are public: register and login establish
// identity, and refresh/logout authenticate themselves through the refresh
// token in the request body rather than the Authorization header.
func (handler *Handler) Routes() chi.Router {
	router := chi.NewRouter()

	// Public endpoints
	router.Post("/register", handler.register)
	router.Post("/login", handler.login)
	router.Post("/refresh", handler.refresh)
	router.Post("/logout", handler.logout)

	// Protected endpoints
	router.Group(func(r chi.Router) {
		r.Use(middleware.RequireAuth)
		r.Get("/{id}", handler.getProfile)
		r.Put("/me", handler.updateProfile)
		r.Delete("/me", handler.deleteAccount)
	})

	return router
}

// # Request Payloads

type registerRequest struct {
	Username  string `json:"username"`
	Email     string `json:"email"`
	Password  string `json:"password"`
	FirstName string `json:"first_name"`
	LastName  string `json:"last_name"`
	Picture   string `json:"picture"`
}

type loginRequest struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

type tokenRequest struct {
	RefreshToken string `json:"refresh_token"`
}

type updateProfileRequest struct {
	Username  *string `json:"username"`
	FirstName *string `json:"first_name"`
	LastName  *string `json:"last_name"`
	Picture   *string `json:"picture"`
}

/*
Register handles the creation of a new user account.

POST /api/v1/users/register

Description: Validates input, checks for identity conflicts, and persists
a new user profile to the database.

Request:
  - Body: registerRequest (Username, Email, Password, FirstName, LastName, Picture)

Response:
  - 201: User: Created user profile
  - 400: ErrInvalidJSON: Bad input or validation failure
  - 409: ErrConflict: Username or Email already exists
*/
func (handler *Handler) register(writer http.ResponseWriter, request *http.Request) {
	var input registerRequest

	if err := requestutil.DecodeJSON(request, &input); err != nil {
		respond.Error(writer, request, validate.ErrInvalidJSON)
		return
	}

	validator := &validate.Validator{}
	validator.Required(FieldUsername, input.Username).
		MinLen(FieldUsername, input.Username, 3).
		MaxLen(FieldUsername, input.Username, 32).
		Required(FieldEmail, input.Email).
		Email(FieldEmail, input.Email).
		Required(FieldPassword, input.Password).
		MinLen(FieldPassword, input.Password, 8)

	if err := validator.Err(); err != nil {
		respond.Error(writer, request, err)
		return
	}

	user, err := handler.authService.Register(request.Context(), RegisterInput{
		Username:  input.Username,
		Email:     input.Email,
		Password:  input.Password,
		FirstName: input.FirstName,
		LastName:  input.LastName,
		Picture:   input.Picture,
	})

	if err != nil {
		respond.Error(writer, request, err)
		return
	}

	respond.Created(writer, user)
}

/*
Login authenticates a user and establishes a session.

POST /api/v1/users/login

Description: Verifies credentials against the stored hash, issues an
access/refresh pair, and records the refresh token as active.

Request:
  - Body: loginRequest (Username, Password)

Response:
  - 200: Session: Token pair and user profile
  - 404: ErrNotFound: Unknown username
  - 401: ErrUnauthorized: Password mismatch
*/
func (handler *Handler) login(writer http.ResponseWriter, request *http.Request) {
	var input loginRequest

	if err := requestutil.DecodeJSON(request, &input); err != nil {
		respond.Error(writer, request, validate.ErrInvalidJSON)
		return
	}

	validator := &validate.Validator{}
	validator.Required(FieldUsername, input.Username)
	validator.Required(FieldPassword, input.Password)

	if err := validator.Err(); err != nil {
		respond.Error(writer, request, err)
		return
	}

	session, err := handler.authService.Login(request.Context(), input.Username, input.Password)
	if err != nil {
		respond.Error(writer, request, err)
		return
	}

	respond.OK(writer, map[string]any{
		FieldAccessToken:  session.AccessToken,
		FieldRefreshToken: session.RefreshToken,
		"user":            session.User,
	})
}

/*
Refresh rotates a refresh token into a brand-new token pair.

POST /api/v1/users/refresh

Description: Validates the presented refresh token and swaps it for a new
pair in one conditional operation. The presented token is single-use; a
replay wipes every session of the subject.

Request:
  - Body: tokenRequest (RefreshToken)

Response:
  - 200: RefreshResponse: New token pair
  - 400: ErrValidation: Missing token
  - 403: ErrForbidden: Invalid or expired token
  - 401: ErrUnauthorized: Unknown subject or token not active
*/
func (handler *Handler) refresh(writer http.ResponseWriter, request *http.Request) {
	var input tokenRequest

	if err := requestutil.DecodeJSON(request, &input); err != nil {
		respond.Error(writer, request, validate.ErrInvalidJSON)
		return
	}

	pair, err := handler.authService.Refresh(request.Context(), input.RefreshToken)
	if err != nil {
		respond.Error(writer, request, err)
		return
	}

	respond.OK(writer, map[string]any{
		FieldAccessToken:  pair.AccessToken,
		FieldRefreshToken: pair.RefreshToken,
		"token_type":      "Bearer",
		"expires_in":      handler.authService.tokenProvider.AccessTokenTTL() / time.Second,
	})
}

/*
Logout revokes one refresh token.

POST /api/v1/users/logout

Description: Removes the presented refresh token from the subject's active
set. Presenting a verified but inactive token wipes the whole set.

Request:
  - Body: tokenRequest (RefreshToken)

Response:
  - 204: No Content: Session terminated
  - 400: ErrValidation: Missing token
  - 403: ErrForbidden: Invalid or expired token
  - 401: ErrUnauthorized: Unknown subject or token not active
*/
func (handler *Handler) logout(writer http.ResponseWriter, request *http.Request) {
	var input tokenRequest

	if err := requestutil.DecodeJSON(request, &input); err != nil {
		respond.Error(writer, request, validate.ErrInvalidJSON)
		return
	}

	if err := handler.authService.Logout(request.Context(), input.RefreshToken); err != nil {
		respond.Error(writer, request, err)
		return
	}

	respond.NoContent(writer)
}

/*
GetProfile returns the public profile summary of any user.

GET /api/v1/users/{id}

Response:
  - 200: Profile: Full name and picture
  - 404: ErrNotFound: Unknown user
*/
func (handler *Handler) getProfile(writer http.ResponseWriter, request *http.Request) {
	userID := requestutil.Param(request, "id")

	validator := &validate.Validator{}
	validator.Required("id", userID).UUID("id", userID)
	if err := validator.Err(); err != nil {
		respond.Error(writer, request, err)
		return
	}

	profile, err := handler.authService.GetProfile(request.Context(), userID)
	if err != nil {
		respond.Error(writer, request, err)
		return
	}

	respond.OK(writer, profile)
}

/*
UpdateProfile applies a partial update to the caller's own profile.

PUT /api/v1/users/me

Request:
  - Body: updateProfileRequest (nil fields are left unchanged)

Response:
  - 200: User: Updated entity
  - 409: ErrConflict: Username already taken
*/
func (handler *Handler) updateProfile(writer http.ResponseWriter, request *http.Request) {
	userID, err := requestutil.RequiredUserID(request)
	if err != nil {
		respond.Error(writer, request, err)
		return
	}

	var input updateProfileRequest
	if err := requestutil.DecodeJSON(request, &input); err != nil {
		respond.Error(writer, request, validate.ErrInvalidJSON)
		return
	}

	validator := &validate.Validator{}
	if input.Username != nil {
		validator.Required(FieldUsername, *input.Username).
			MinLen(FieldUsername, *input.Username, 3).
			MaxLen(FieldUsername, *input.Username, 32)
	}
	if err := validator.Err(); err != nil {
		respond.Error(writer, request, err)
		return
	}

	user, err := handler.authService.UpdateProfile(request.Context(), userID, UpdateProfileInput{
		Username:  input.Username,
		FirstName: input.FirstName,
		LastName:  input.LastName,
		Picture:   input.Picture,
	})
	if err != nil {
		respond.Error(writer, request, err)
		return
	}

	respond.OK(writer, user)
}

/*
DeleteAccount removes the caller's account and everything it owns.

DELETE /api/v1/users/me

Response:
  - 204: No Content: Account deleted
*/
func (handler *Handler) deleteAccount(writer http.ResponseWriter, request *http.Request) {
	userID, err := requestutil.RequiredUserID(request)
	if err != nil {
		respond.Error(writer, request, err)
		return
	}

	if err := handler.authService.DeleteAccount(request.Context(), userID); err != nil {
		respond.Error(writer, request, err)
		return
	}

	respond.NoContent(writer)
}
