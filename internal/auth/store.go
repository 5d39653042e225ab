// Copyright (c) 2026 Plaza. All rights reserved.
// Author: tai.buivan.jp@gmail.com

package auth

import "context"

// # User Data Access

// UserRepository defines the data access contract for user accounts and
// their refresh-token sets.
//
// # Concurrency
//
// Every mutation of the refresh-token set is a single conditional operation:
// the precondition ("token still present") travels with the write, so two
// concurrent callers racing on the same token cannot both succeed. This is
// the storage-level serialization the session manager relies on: it holds
// no locks of its own.
type UserRepository interface {

	/*
		FindByID returns the account with the given ID.

		Parameters:
		  - context: context.Context
		  - id: string

		Returns:
		  - *User: Hydrated entity
		  - error: apperr.NotFound or database retrieval failures
	*/
	FindByID(context context.Context, id string) (*User, error)

	/*
		FindByUsername returns the account with the given username (exact match).

		Parameters:
		  - context: context.Context
		  - username: string

		Returns:
		  - *User: Hydrated entity
		  - error: apperr.NotFound or database retrieval failures
	*/
	FindByUsername(context context.Context, username string) (*User, error)

	/*
		FindByEmail returns the account with the given email (exact match).

		Parameters:
		  - context: context.Context
		  - email: string

		Returns:
		  - *User: Hydrated entity
		  - error: apperr.NotFound or database retrieval failures
	*/
	FindByEmail(context context.Context, email string) (*User, error)

	/*
		Create persists a brand-new user account to the storage.

		Parameters:
		  - context: context.Context
		  - user: *User

		Returns:
		  - error: apperr.Conflict on unique violations, or persistence failures
	*/
	Create(context context.Context, user *User) error

	/*
		UpdateProfile persists changes to the mutable profile fields
		(username, first/last name, picture).

		Parameters:
		  - context: context.Context
		  - user: *User

		Returns:
		  - error: Persistence failures
	*/
	UpdateProfile(context context.Context, user *User) error

	/*
		Delete removes the account and everything it owns: the user's posts,
		comments, and the user's id from every post like list, in one
		transaction.

		Parameters:
		  - context: context.Context
		  - id: string

		Returns:
		  - error: apperr.NotFound or persistence failures
	*/
	Delete(context context.Context, id string) error

	// # Refresh Token Set

	/*
		AppendRefreshToken adds a newly issued refresh token to the user's
		active set.

		Parameters:
		  - context: context.Context
		  - userID: string
		  - token: string

		Returns:
		  - error: apperr.NotFound if the user is gone, or persistence failures
	*/
	AppendRefreshToken(context context.Context, userID, token string) error

	/*
		RemoveRefreshToken removes exactly the given token from the user's
		active set, conditional on the token being present.

		Returns:
		  - bool: false when the precondition failed (token was not active)
		  - error: Persistence failures
	*/
	RemoveRefreshToken(context context.Context, userID, token string) (bool, error)

	/*
		RotateRefreshToken atomically replaces oldToken with newToken in the
		user's active set, conditional on oldToken being present. Of two
		concurrent callers presenting the same oldToken, exactly one succeeds.

		Returns:
		  - bool: false when the precondition failed (old token was not active)
		  - error: Persistence failures
	*/
	RotateRefreshToken(context context.Context, userID, oldToken, newToken string) (bool, error)

	/*
		ClearRefreshTokens empties the user's active set, the reuse-detection wipe
		applied when a verified-but-inactive token is presented.

		Parameters:
		  - context: context.Context
		  - userID: string

		Returns:
		  - error: Persistence failures
	*/
	ClearRefreshTokens(context context.Context, userID string) error
}
