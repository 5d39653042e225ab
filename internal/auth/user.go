// Copyright (c) 2026 Plaza. All rights reserved.
// Author: tai.buivan.jp@gmail.com

/*
Package auth implements the user identity and session management layer.

It defines the core domain entity (User) and the logic for authentication,
session lifecycle, and account management: registration, login, logout,
refresh-token rotation with revocation-on-reuse, and profile CRUD.

# Architecture

This layer is the "Truth" of the system. The entity defined here has no
external dependencies and encapsulates all business rules related to user
identity. The User record exclusively owns its refresh-token set; nothing
outside the session manager may mutate it.
*/
package auth

import "time"

// # Domain Entities

// User represents a registered member of the Plaza marketplace.
type User struct {
	ID           string `json:"id"`
	Username     string `json:"username"`
	Email        string `json:"email"`
	PasswordHash string `json:"-"` // Explicitly omitted from JSON for security.
	FirstName    string `json:"first_name"`
	LastName     string `json:"last_name"`
	Picture      string `json:"picture,omitempty"`

	// RefreshTokens is the ordered set of currently-valid refresh tokens
	// issued to this user. A token present here is "active"; absence means
	// revoked or never-issued. Once removed, a token string is dead forever;
	// rotation always issues a brand-new string.
	RefreshTokens []string `json:"-"`

	// LikedPosts holds the IDs of posts this user has liked.
	LikedPosts []string `json:"liked_posts"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// FullName returns the user's display name as shown on public profiles.
func (u *User) FullName() string {
	return u.FirstName + " " + u.LastName
}

// Profile is the public, safety-mapped view of a user account.
// It exposes only what other members are allowed to see.
type Profile struct {
	FullName string `json:"fullname"`
	Picture  string `json:"picture,omitempty"`
}

// # Field Identifiers

// Global field names for validation and identity mapping in the authentication domain.
const (
	FieldUsername     = "username"
	FieldEmail        = "email"
	FieldPassword     = "password"
	FieldFirstName    = "first_name"
	FieldLastName     = "last_name"
	FieldPicture      = "picture"
	FieldRefreshToken = "refresh_token"
	FieldAccessToken  = "access_token"
	FieldMessage      = "message"
)
