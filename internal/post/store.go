// Copyright (c) 2026 Plaza. All rights reserved.
// Author: tai.buivan.jp@gmail.com

package post

import (
	"context"
	"time"

	"github.com/taibuivan/plaza/pkg/pagination"
)

// Repository defines the persistence contract for marketplace listings.
type Repository interface {
	// Create persists a new listing.
	Create(ctx context.Context, post *Post) error

	// FindByID returns one listing or apperr.NotFound.
	FindByID(ctx context.Context, id string) (*Post, error)

	// List returns a filtered, paginated feed page plus the total match count.
	List(ctx context.Context, filter Filter, params pagination.Params) ([]*Post, int, error)

	// Update persists the mutable listing fields. Likes are excluded; the
	// like set only changes through ToggleLike.
	Update(ctx context.Context, post *Post) error

	// Delete removes the listing and, via cascade, its comments.
	Delete(ctx context.Context, id string) error

	// ToggleLike flips userID's membership in the post's like set and
	// mirrors the change onto the user's liked-post list, atomically.
	// It reports whether the post is liked after the call.
	ToggleLike(ctx context.Context, postID, userID string) (bool, error)
}

// FeedCache is the read-through cache in front of the unfiltered feed.
type FeedCache interface {
	// GetPage returns a cached feed page, or a miss error.
	GetPage(ctx context.Context, page int) ([]*Post, int, error)

	// SetPage stores a feed page with the given TTL.
	SetPage(ctx context.Context, page int, posts []*Post, total int, ttl time.Duration) error

	// Invalidate drops every cached feed page. Called after any write.
	Invalidate(ctx context.Context) error
}
