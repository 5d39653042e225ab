// Copyright (c) 2026 Plaza. All rights reserved.
// Author: tai.buivan.jp@gmail.com

package post

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/taibuivan/plaza/internal/platform/apperr"
	"github.com/taibuivan/plaza/pkg/pagination"
	"github.com/taibuivan/plaza/pkg/slug"
	"github.com/taibuivan/plaza/pkg/uuid"
)

// feedCacheTTL bounds staleness of the unfiltered feed between writes.
const feedCacheTTL = 60 * time.Second

// ErrNotOwner is returned when a caller mutates a listing they do not own.
var ErrNotOwner = apperr.Forbidden("You do not own this post")

// Service implements the listing use cases.
type Service struct {
	repository Repository
	cache      FeedCache
	logger     *slog.Logger
}

// NewService constructs a new post [Service] with necessary dependencies.
func NewService(repository Repository, cache FeedCache, logger *slog.Logger) *Service {
	return &Service{
		repository: repository,
		cache:      cache,
		logger:     logger,
	}
}

// CreateInput holds the data required to publish a listing.
type CreateInput struct {
	Title       string
	Description string
	Picture     string
	Category    string
	Phone       string
	Region      string
	City        string
}

// UpdateInput holds the optional fields of a partial listing update.
// A nil field means "leave unchanged".
type UpdateInput struct {
	Title       *string
	Description *string
	Picture     *string
	Category    *string
	Phone       *string
	Region      *string
	City        *string
}

/*
Create publishes a new listing for the given owner.

Description: Derives a URL slug from the title, suffixed with a fragment of
the listing id to keep slugs unique without a retry loop.

Parameters:
  - context: context.Context
  - userID: string (Owner)
  - input: CreateInput

Returns:
  - *Post: The published listing
  - error: Storage failures
*/
func (service *Service) Create(context context.Context, userID string, input CreateInput) (*Post, error) {
	id := uuid.New()

	post := &Post{
		ID:          id,
		UserID:      userID,
		Slug:        buildSlug(input.Title, id),
		Title:       input.Title,
		Description: input.Description,
		Picture:     input.Picture,
		Category:    input.Category,
		Phone:       input.Phone,
		Region:      input.Region,
		City:        input.City,
		Likes:       []string{},
	}

	if err := service.repository.Create(context, post); err != nil {
		return nil, fmt.Errorf("post_service_create_failed: %w", err)
	}

	service.invalidateFeed(context)

	return post, nil
}

/*
Get returns one listing by id.

Parameters:
  - context: context.Context
  - id: string

Returns:
  - *Post: The listing
  - error: apperr.NotFound
*/
func (service *Service) Get(context context.Context, id string) (*Post, error) {
	return service.repository.FindByID(context, id)
}

/*
List returns a filtered feed page.

Description: Unfiltered pages are served read-through from Redis; any
filter bypasses the cache entirely. A cache failure degrades to a direct
database read rather than failing the request.

Parameters:
  - context: context.Context
  - filter: Filter
  - params: pagination.Params

Returns:
  - []*Post: The feed page
  - int: Total rows matching the filter
  - error: Storage failures
*/
func (service *Service) List(context context.Context, filter Filter, params pagination.Params) ([]*Post, int, error) {
	cacheable := filter.IsZero() && params.Limit == pagination.DefaultLimit

	if cacheable {
		posts, total, err := service.cache.GetPage(context, params.Page)
		if err == nil {
			return posts, total, nil
		}
		if !errors.Is(err, ErrCacheMiss) {
			service.logger.Warn("feed cache read failed", "error", err)
		}
	}

	posts, total, err := service.repository.List(context, filter, params)
	if err != nil {
		return nil, 0, err
	}

	if cacheable {
		if err := service.cache.SetPage(context, params.Page, posts, total, feedCacheTTL); err != nil {
			service.logger.Warn("feed cache write failed", "error", err)
		}
	}

	return posts, total, nil
}

/*
Update applies a partial update to a listing the caller owns.

Description: The like set cannot be changed here; only ToggleLike mutates
it. A title change re-derives the slug.

Parameters:
  - context: context.Context
  - userID: string (Caller)
  - postID: string
  - input: UpdateInput

Returns:
  - *Post: The updated listing
  - error: apperr.NotFound, ErrNotOwner, or storage failures
*/
func (service *Service) Update(context context.Context, userID, postID string, input UpdateInput) (*Post, error) {
	post, err := service.repository.FindByID(context, postID)
	if err != nil {
		return nil, err
	}

	if post.UserID != userID {
		return nil, ErrNotOwner
	}

	if input.Title != nil && *input.Title != post.Title {
		post.Title = *input.Title
		post.Slug = buildSlug(post.Title, post.ID)
	}
	if input.Description != nil {
		post.Description = *input.Description
	}
	if input.Picture != nil {
		post.Picture = *input.Picture
	}
	if input.Category != nil {
		post.Category = *input.Category
	}
	if input.Phone != nil {
		post.Phone = *input.Phone
	}
	if input.Region != nil {
		post.Region = *input.Region
	}
	if input.City != nil {
		post.City = *input.City
	}

	if err := service.repository.Update(context, post); err != nil {
		return nil, fmt.Errorf("post_service_update_failed: %w", err)
	}

	service.invalidateFeed(context)

	return post, nil
}

/*
Delete removes a listing the caller owns. Comments cascade with it.

Parameters:
  - context: context.Context
  - userID: string (Caller)
  - postID: string

Returns:
  - error: apperr.NotFound, ErrNotOwner, or storage failures
*/
func (service *Service) Delete(context context.Context, userID, postID string) error {
	post, err := service.repository.FindByID(context, postID)
	if err != nil {
		return err
	}

	if post.UserID != userID {
		return ErrNotOwner
	}

	if err := service.repository.Delete(context, postID); err != nil {
		return fmt.Errorf("post_service_delete_failed: %w", err)
	}

	service.invalidateFeed(context)

	return nil
}

/*
ToggleLike flips the caller's like on a listing.

Parameters:
  - context: context.Context
  - userID: string (Caller)
  - postID: string

Returns:
  - bool: Whether the listing is liked after the call
  - error: apperr.NotFound or storage failures
*/
func (service *Service) ToggleLike(context context.Context, userID, postID string) (bool, error) {
	liked, err := service.repository.ToggleLike(context, postID, userID)
	if err != nil {
		return false, err
	}

	service.invalidateFeed(context)

	return liked, nil
}

// invalidateFeed drops the cached feed after a write. Failures are logged
// and swallowed: the TTL caps how long a stale page can live.
func (service *Service) invalidateFeed(context context.Context) {
	if err := service.cache.Invalidate(context); err != nil {
		service.logger.Warn("feed cache invalidation failed", "error", err)
	}
}

// buildSlug derives a unique URL slug from a title and the listing id.
func buildSlug(title, id string) string {
	base := slug.From(title)
	if base == "" {
		base = "post"
	}

	suffix := id
	if len(suffix) > 8 {
		suffix = suffix[len(suffix)-8:]
	}

	return base + "-" + suffix
}
