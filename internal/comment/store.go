// Copyright (c) 2026 Plaza. All rights reserved.
// Author: tai.buivan.jp@gmail.com

package comment

import (
	"context"

	"github.com/taibuivan/plaza/pkg/pagination"
)

// Repository defines the persistence contract for comments.
type Repository interface {
	// Create persists a new comment.
	Create(ctx context.Context, comment *Comment) error

	// FindByID returns one comment or apperr.NotFound.
	FindByID(ctx context.Context, id string) (*Comment, error)

	// ListByPost returns a page of a post's thread, oldest first, plus the
	// total comment count.
	ListByPost(ctx context.Context, postID string, params pagination.Params) ([]*Comment, int, error)

	// UpdateContent replaces the comment body. PostID never changes.
	UpdateContent(ctx context.Context, id, content string) (*Comment, error)

	// Delete removes the comment.
	Delete(ctx context.Context, id string) error
}
