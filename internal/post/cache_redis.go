// Copyright (c) 2026 Plaza. All rights reserved.
// Author: tai.buivan.jp@gmail.com

package post

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/taibuivan/plaza/internal/platform/constants"
)

// ErrCacheMiss signals that the requested feed page is not cached.
var ErrCacheMiss = errors.New("feed page not cached")

// RedisFeedCache implements FeedCache on top of Redis.
//
// Only the unfiltered feed is cached; filtered queries hit PostgreSQL
// directly. Every page lives under one key so Invalidate can drop the whole
// feed with a single pattern scan.
type RedisFeedCache struct {
	client *redis.Client
}

// NewFeedCache creates a new Redis-backed FeedCache.
func NewFeedCache(client *redis.Client) *RedisFeedCache {
	return &RedisFeedCache{client: client}
}

// cachedFeedPage is the stored shape of one feed page.
type cachedFeedPage struct {
	Posts []*Post `json:"posts"`
	Total int     `json:"total"`
}

func feedPageKey(page int) string {
	return fmt.Sprintf("%s%d", constants.RedisPrefixPostFeed, page)
}

/*
GetPage returns a cached feed page.

Parameters:
  - context: context.Context
  - page: int (1-indexed)

Returns:
  - []*Post: The cached page
  - int: Total rows the page was computed against
  - error: ErrCacheMiss, or connectivity/decoding errors
*/
func (cache *RedisFeedCache) GetPage(context context.Context, page int) ([]*Post, int, error) {
	payload, err := cache.client.Get(context, feedPageKey(page)).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, 0, ErrCacheMiss
		}
		return nil, 0, fmt.Errorf("redis_feed_cache_get_failed: %w", err)
	}

	var stored cachedFeedPage
	if err := json.Unmarshal(payload, &stored); err != nil {
		// A corrupt entry behaves like a miss so the caller repopulates it.
		return nil, 0, ErrCacheMiss
	}

	return stored.Posts, stored.Total, nil
}

/*
SetPage stores one feed page with a TTL.

Parameters:
  - context: context.Context
  - page: int
  - posts: []*Post
  - total: int
  - ttl: time.Duration

Returns:
  - error: Encoding or storage failures
*/
func (cache *RedisFeedCache) SetPage(context context.Context, page int, posts []*Post, total int, ttl time.Duration) error {
	payload, err := json.Marshal(cachedFeedPage{Posts: posts, Total: total})
	if err != nil {
		return fmt.Errorf("redis_feed_cache_encode_failed: %w", err)
	}

	if err := cache.client.Set(context, feedPageKey(page), payload, ttl).Err(); err != nil {
		return fmt.Errorf("redis_feed_cache_set_failed: %w", err)
	}

	return nil
}

/*
Invalidate drops every cached feed page.

Description: Iterates the feed prefix with SCAN rather than KEYS to keep
the operation incremental under load.

Parameters:
  - context: context.Context

Returns:
  - error: Scan or deletion failures
*/
func (cache *RedisFeedCache) Invalidate(context context.Context) error {
	iterator := cache.client.Scan(context, 0, constants.RedisPrefixPostFeed+"*", 0).Iterator()

	for iterator.Next(context) {
		if err := cache.client.Del(context, iterator.Val()).Err(); err != nil {
			return fmt.Errorf("redis_feed_cache_invalidate_failed: %w", err)
		}
	}

	if err := iterator.Err(); err != nil {
		return fmt.Errorf("redis_feed_cache_scan_failed: %w", err)
	}

	return nil
}
