// Copyright (c) 2026 Plaza. All rights reserved.
// Author: tai.buivan.jp@gmail.com

/*
Package comment implements discussion threads under marketplace listings.

A comment belongs to exactly one post for its whole life; moving a comment
between posts is not a supported operation.
*/
package comment

import "time"

// Comment represents one message under a listing.
type Comment struct {
	ID        string    `json:"id"`
	PostID    string    `json:"post_id"`
	UserID    string    `json:"user_id"`
	Content   string    `json:"content"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// FieldContent is the JSON field id used in validation errors.
const FieldContent = "content"
