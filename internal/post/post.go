// Copyright (c) 2026 Plaza. All rights reserved.
// Author: tai.buivan.jp@gmail.com

/*
Package post implements the marketplace listing domain.

A post is a classified listing published by a user: a title, a free-form
description, an optional picture, and the location/contact details buyers
need. Posts carry a like set (user ids) that is only ever mutated through
the toggle operation, never through Update.
*/
package post

import "time"

// Post represents a single marketplace listing.
type Post struct {
	ID          string    `json:"id"`
	UserID      string    `json:"user_id"`
	Slug        string    `json:"slug"`
	Title       string    `json:"title"`
	Description string    `json:"description"`
	Picture     string    `json:"picture,omitempty"`
	Category    string    `json:"category"`
	Phone       string    `json:"phone,omitempty"`
	Region      string    `json:"region"`
	City        string    `json:"city"`
	Likes       []string  `json:"likes"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
}

// LikeCount returns the number of users who liked the post.
func (p *Post) LikeCount() int {
	return len(p.Likes)
}

// Filter narrows a feed query. Zero values mean "no constraint".
type Filter struct {
	Category string
	Region   string
	City     string
	UserID   string
}

// IsZero reports whether the filter applies no constraints at all. Only
// unfiltered feed pages are cached.
func (f Filter) IsZero() bool {
	return f == Filter{}
}

// # Field Identifiers

// JSON field ids shared by validation errors and response payloads.
const (
	FieldTitle       = "title"
	FieldDescription = "description"
	FieldCategory    = "category"
	FieldRegion      = "region"
	FieldCity        = "city"
	FieldPhone       = "phone"
	FieldPostPicture = "picture"
)
