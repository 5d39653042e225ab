// Copyright (c) 2026 Plaza. All rights reserved.
// Author: tai.buivan.jp@gmail.com

package comment

import (
	"context"
	"fmt"

	"github.com/taibuivan/plaza/internal/platform/apperr"
	"github.com/taibuivan/plaza/pkg/pagination"
	"github.com/taibuivan/plaza/pkg/uuid"
)

// ErrNotAuthor is returned when a caller mutates someone else's comment.
var ErrNotAuthor = apperr.Forbidden("You do not own this comment")

// Service implements the comment use cases.
type Service struct {
	repository Repository
}

// NewService constructs a new comment [Service] with its repository.
func NewService(repository Repository) *Service {
	return &Service{repository: repository}
}

/*
Create posts a new comment under a listing.

Parameters:
  - context: context.Context
  - userID: string (Author)
  - postID: string
  - content: string

Returns:
  - *Comment: The created comment
  - error: apperr.NotFound when the listing is gone, or storage failures
*/
func (service *Service) Create(context context.Context, userID, postID, content string) (*Comment, error) {
	comment := &Comment{
		ID:      uuid.New(),
		PostID:  postID,
		UserID:  userID,
		Content: content,
	}

	if err := service.repository.Create(context, comment); err != nil {
		if apperr.IsAppError(err) {
			return nil, err
		}
		return nil, fmt.Errorf("comment_service_create_failed: %w", err)
	}

	return comment, nil
}

// Get returns one comment by id.
func (service *Service) Get(context context.Context, id string) (*Comment, error) {
	return service.repository.FindByID(context, id)
}

// ListByPost returns one page of a post's thread.
func (service *Service) ListByPost(context context.Context, postID string, params pagination.Params) ([]*Comment, int, error) {
	return service.repository.ListByPost(context, postID, params)
}

/*
Update replaces the body of a comment the caller authored.

Description: Only the content is mutable. The parent post binding is fixed
at creation; attempts to change it are rejected at the transport layer.

Parameters:
  - context: context.Context
  - userID: string (Caller)
  - commentID: string
  - content: string

Returns:
  - *Comment: The updated comment
  - error: apperr.NotFound, ErrNotAuthor, or storage failures
*/
func (service *Service) Update(context context.Context, userID, commentID, content string) (*Comment, error) {
	comment, err := service.repository.FindByID(context, commentID)
	if err != nil {
		return nil, err
	}

	if comment.UserID != userID {
		return nil, ErrNotAuthor
	}

	updated, err := service.repository.UpdateContent(context, commentID, content)
	if err != nil {
		return nil, fmt.Errorf("comment_service_update_failed: %w", err)
	}

	return updated, nil
}

/*
Delete removes a comment the caller authored.

Parameters:
  - context: context.Context
  - userID: string (Caller)
  - commentID: string

Returns:
  - error: apperr.NotFound, ErrNotAuthor, or storage failures
*/
func (service *Service) Delete(context context.Context, userID, commentID string) error {
	comment, err := service.repository.FindByID(context, commentID)
	if err != nil {
		return err
	}

	if comment.UserID != userID {
		return ErrNotAuthor
	}

	if err := service.repository.Delete(context, commentID); err != nil {
		return fmt.Errorf("comment_service_delete_failed: %w", err)
	}

	return nil
}
