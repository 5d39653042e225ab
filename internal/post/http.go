// Copyright (c) 2026 Plaza. All rights reserved.
// Author: tai.buivan.jp@gmail.com

package post

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/taibuivan/plaza/internal/platform/middleware"
	requestutil "github.com/taibuivan/plaza/internal/platform/request"
	"github.com/taibuivan/plaza/internal/platform/respond"
	"github.com/taibuivan/plaza/internal/platform/validate"
	"github.com/taibuivan/plaza/pkg/pagination"
)

// # Definitions & Constructors

// Handler implements listing HTTP endpoints.
type Handler struct {
	postService *Service
}

// NewHandler constructs a new [Handler] with its service dependency.
func NewHandler(service *Service) *Handler {
	return &Handler{postService: service}
}

// Routes returns a [chi.Router] configured with listing routes.
//
// The feed and single-listing reads are public; every write requires an
// authenticated caller.
func (handler *Handler) Routes() chi.Router {
	router := chi.NewRouter()

	// Public endpoints
	router.Get("/", handler.list)
	router.Get("/{id}", handler.get)

	// Protected endpoints
	router.Group(func(r chi.Router) {
		r.Use(middleware.RequireAuth)
		r.Post("/", handler.create)
		r.Put("/{id}", handler.update)
		r.Delete("/{id}", handler.delete)
		r.Post("/{id}/like", handler.toggleLike)
	})

	return router
}

// # Request Payloads

type createRequest struct {
	Title       string `json:"title"`
	Description string `json:"description"`
	Picture     string `json:"picture"`
	Category    string `json:"category"`
	Phone       string `json:"phone"`
	Region      string `json:"region"`
	City        string `json:"city"`
}

type updateRequest struct {
	Title       *string `json:"title"`
	Description *string `json:"description"`
	Picture     *string `json:"picture"`
	Category    *string `json:"category"`
	Phone       *string `json:"phone"`
	Region      *string `json:"region"`
	City        *string `json:"city"`

	// Accepted but rejected fields. Decoded so the handler can refuse the
	// request instead of silently dropping them.
	Likes []string `json:"likes"`
}

/*
Create publishes a new listing.

POST /api/v1/posts

Request:
  - Body: createRequest

Response:
  - 201: Post: The published listing
  - 400: ErrInvalidJSON: Bad input or validation failure
*/
func (handler *Handler) create(writer http.ResponseWriter, request *http.Request) {
	userID, err := requestutil.RequiredUserID(request)
	if err != nil {
		respond.Error(writer, request, err)
		return
	}

	var input createRequest
	if err := requestutil.DecodeJSON(request, &input); err != nil {
		respond.Error(writer, request, validate.ErrInvalidJSON)
		return
	}

	validator := &validate.Validator{}
	validator.Required(FieldTitle, input.Title).
		MaxLen(FieldTitle, input.Title, 140).
		Required(FieldDescription, input.Description).
		Required(FieldCategory, input.Category).
		Required(FieldRegion, input.Region).
		Required(FieldCity, input.City)

	if err := validator.Err(); err != nil {
		respond.Error(writer, request, err)
		return
	}

	post, err := handler.postService.Create(request.Context(), userID, CreateInput{
		Title:       input.Title,
		Description: input.Description,
		Picture:     input.Picture,
		Category:    input.Category,
		Phone:       input.Phone,
		Region:      input.Region,
		City:        input.City,
	})
	if err != nil {
		respond.Error(writer, request, err)
		return
	}

	respond.Created(writer, post)
}

/*
List returns a page of the feed.

GET /api/v1/posts?page=&limit=&category=&region=&city=&user_id=

Response:
  - 200: Paginated [Post] collection
*/
func (handler *Handler) list(writer http.ResponseWriter, request *http.Request) {
	params := pagination.FromRequest(request)

	query := request.URL.Query()
	filter := Filter{
		Category: query.Get("category"),
		Region:   query.Get("region"),
		City:     query.Get("city"),
		UserID:   query.Get("user_id"),
	}

	posts, total, err := handler.postService.List(request.Context(), filter, params)
	if err != nil {
		respond.Error(writer, request, err)
		return
	}

	respond.Paginated(writer, posts, pagination.NewMeta(params.Page, params.Limit, total))
}

/*
Get returns one listing.

GET /api/v1/posts/{id}

Response:
  - 200: Post
  - 404: ErrNotFound
*/
func (handler *Handler) get(writer http.ResponseWriter, request *http.Request) {
	id := requestutil.Param(request, "id")

	validator := &validate.Validator{}
	validator.Required("id", id).UUID("id", id)
	if err := validator.Err(); err != nil {
		respond.Error(writer, request, err)
		return
	}

	post, err := handler.postService.Get(request.Context(), id)
	if err != nil {
		respond.Error(writer, request, err)
		return
	}

	respond.OK(writer, post)
}

/*
Update applies a partial update to a listing the caller owns.

PUT /api/v1/posts/{id}

Description: The like set is not updatable through this endpoint; a payload
carrying "likes" is rejected outright.

Request:
  - Body: updateRequest

Response:
  - 200: Post: The updated listing
  - 400: ErrValidation: Attempted to update likes
  - 403: ErrForbidden: Caller does not own the listing
  - 404: ErrNotFound
*/
func (handler *Handler) update(writer http.ResponseWriter, request *http.Request) {
	userID, err := requestutil.RequiredUserID(request)
	if err != nil {
		respond.Error(writer, request, err)
		return
	}

	postID := requestutil.Param(request, "id")

	var input updateRequest
	if err := requestutil.DecodeJSON(request, &input); err != nil {
		respond.Error(writer, request, validate.ErrInvalidJSON)
		return
	}

	validator := &validate.Validator{}
	validator.Custom("likes", input.Likes != nil, "Cannot update likes")
	if input.Title != nil {
		validator.Required(FieldTitle, *input.Title).MaxLen(FieldTitle, *input.Title, 140)
	}
	if err := validator.Err(); err != nil {
		respond.Error(writer, request, err)
		return
	}

	post, err := handler.postService.Update(request.Context(), userID, postID, UpdateInput{
		Title:       input.Title,
		Description: input.Description,
		Picture:     input.Picture,
		Category:    input.Category,
		Phone:       input.Phone,
		Region:      input.Region,
		City:        input.City,
	})
	if err != nil {
		respond.Error(writer, request, err)
		return
	}

	respond.OK(writer, post)
}

/*
Delete removes a listing the caller owns.

DELETE /api/v1/posts/{id}

Response:
  - 204: No Content
  - 403: ErrForbidden: Caller does not own the listing
  - 404: ErrNotFound
*/
func (handler *Handler) delete(writer http.ResponseWriter, request *http.Request) {
	userID, err := requestutil.RequiredUserID(request)
	if err != nil {
		respond.Error(writer, request, err)
		return
	}

	if err := handler.postService.Delete(request.Context(), userID, requestutil.Param(request, "id")); err != nil {
		respond.Error(writer, request, err)
		return
	}

	respond.NoContent(writer)
}

/*
ToggleLike flips the caller's like on a listing.

POST /api/v1/posts/{id}/like

Response:
  - 200: {"liked": bool}
  - 404: ErrNotFound
*/
func (handler *Handler) toggleLike(writer http.ResponseWriter, request *http.Request) {
	userID, err := requestutil.RequiredUserID(request)
	if err != nil {
		respond.Error(writer, request, err)
		return
	}

	liked, err := handler.postService.ToggleLike(request.Context(), userID, requestutil.Param(request, "id"))
	if err != nil {
		respond.Error(writer, request, err)
		return
	}

	respond.OK(writer, map[string]bool{"liked": liked})
}
