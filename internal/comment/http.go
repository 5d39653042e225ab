// Copyright (c) 2026 Plaza. All rights reserved.
// Author: tai.buivan.jp@gmail.com

package comment

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

// Handler implements comment HTTP endpoints.
type Handler struct {
	commentService *Service
}

// NewHandler constructs a new [Handler] with its service dependency.
func NewHandler(service *Service) *Handler {
	return &Handler{commentService: service}
}

// Routes returns a [chi.Router] configured with comment routes.
//
// Threads are mounted under their listing for reads and creation
// (/posts/{postID}/comments); single-comment mutations address the
// comment directly.
func (handler *Handler) Routes() chi.Router {
	router := chi.NewRouter()

	router.Get("/{id}", handler.get)

	router.Group(func(r chi.Router) {
		r.Use(middleware.RequireAuth)
		r.Put("/{id}", handler.update)
		r.Delete("/{id}", handler.delete)
	})

	return router
}

// PostRoutes returns the thread routes mounted under a listing.
func (handler *Handler) PostRoutes() chi.Router {
	router := chi.NewRouter()

	router.Get("/", handler.listByPost)

	router.Group(func(r chi.Router) {
		r.Use(middleware.RequireAuth)
		r.Post("/", handler.create)
	})

	return router
}

// # Request Payloads

type commentRequest struct {
	Content string `json:"content"`

	// Accepted but rejected field: the post binding is immutable.
	PostID *string `json:"post_id"`
}

/*
Create posts a new comment under a listing.

POST /api/v1/posts/{postID}/comments

Request:
  - Body: commentRequest (Content)

Response:
  - 201: Comment: The created comment
  - 404: ErrNotFound: Listing is gone
*/
func (handler *Handler) create(writer http.ResponseWriter, request *http.Request) {
	userID, err := requestutil.RequiredUserID(request)
	if err != nil {
		respond.Error(writer, request, err)
		return
	}

	postID := requestutil.Param(request, "postID")

	var input commentRequest
	if err := requestutil.DecodeJSON(request, &input); err != nil {
		respond.Error(writer, request, validate.ErrInvalidJSON)
		return
	}

	validator := &validate.Validator{}
	validator.Required(FieldContent, input.Content).
		MaxLen(FieldContent, input.Content, 2000).
		Required("post_id", postID).
		UUID("post_id", postID)

	if err := validator.Err(); err != nil {
		respond.Error(writer, request, err)
		return
	}

	comment, err := handler.commentService.Create(request.Context(), userID, postID, input.Content)
	if err != nil {
		respond.Error(writer, request, err)
		return
	}

	respond.Created(writer, comment)
}

/*
ListByPost returns one page of a listing's thread.

GET /api/v1/posts/{postID}/comments?page=&limit=

Response:
  - 200: Paginated [Comment] collection
*/
func (handler *Handler) listByPost(writer http.ResponseWriter, request *http.Request) {
	postID := requestutil.Param(request, "postID")
	params := pagination.FromRequest(request)

	comments, total, err := handler.commentService.ListByPost(request.Context(), postID, params)
	if err != nil {
		respond.Error(writer, request, err)
		return
	}

	respond.Paginated(writer, comments, pagination.NewMeta(params.Page, params.Limit, total))
}

/*
Get returns one comment.

GET /api/v1/comments/{id}

Response:
  - 200: Comment
  - 404: ErrNotFound
*/
func (handler *Handler) get(writer http.ResponseWriter, request *http.Request) {
	comment, err := handler.commentService.Get(request.Context(), requestutil.Param(request, "id"))
	if err != nil {
		respond.Error(writer, request, err)
		return
	}

	respond.OK(writer, comment)
}

/*
Update replaces the body of a comment the caller authored.

PUT /api/v1/comments/{id}

Description: A payload carrying "post_id" is rejected; comments never move
between listings.

Request:
  - Body: commentRequest (Content)

Response:
  - 200: Comment: The updated comment
  - 400: ErrValidation: Attempted to change the post binding
  - 403: ErrForbidden: Caller is not the author
  - 404: ErrNotFound
*/
func (handler *Handler) update(writer http.ResponseWriter, request *http.Request) {
	userID, err := requestutil.RequiredUserID(request)
	if err != nil {
		respond.Error(writer, request, err)
		return
	}

	var input commentRequest
	if err := requestutil.DecodeJSON(request, &input); err != nil {
		respond.Error(writer, request, validate.ErrInvalidJSON)
		return
	}

	validator := &validate.Validator{}
	validator.Custom("post_id", input.PostID != nil, "Cannot update postId").
		Required(FieldContent, input.Content).
		MaxLen(FieldContent, input.Content, 2000)

	if err := validator.Err(); err != nil {
		respond.Error(writer, request, err)
		return
	}

	comment, err := handler.commentService.Update(request.Context(), userID, requestutil.Param(request, "id"), input.Content)
	if err != nil {
		respond.Error(writer, request, err)
		return
	}

	respond.OK(writer, comment)
}

/*
Delete removes a comment the caller authored.

DELETE /api/v1/comments/{id}

Response:
  - 204: No Content
  - 403: ErrForbidden: Caller is not the author
  - 404: ErrNotFound
*/
func (handler *Handler) delete(writer http.ResponseWriter, request *http.Request) {
	userID, err := requestutil.RequiredUserID(request)
	if err != nil {
		respond.Error(writer, request, err)
		return
	}

	if err := handler.commentService.Delete(request.Context(), userID, requestutil.Param(request, "id")); err != nil {
		respond.Error(writer, request, err)
		return
	}

	respond.NoContent(writer)
}
