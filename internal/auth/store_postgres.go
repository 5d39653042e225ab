// Copyright (c) 2026 Plaza. All rights reserved.
// Author: tai.buivan.jp@gmail.com

package auth

import (
	"context"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/taibuivan/plaza/internal/platform/dberr"
)

// # User Repository

// PostgresUserRepository implements the UserRepository interface using pgx.
//
// # Token Set Storage
//
// The refresh-token set lives in a `refreshtokens text[]` column on the
// account row. All mutations are single UPDATE statements whose WHERE clause
// carries the precondition, so the read-check-write sequence of the session
// manager is serialized by PostgreSQL's row-level locking; no application
// lock is required.
type PostgresUserRepository struct {
	pool *pgxpool.Pool
}

// NewUserRepository creates a new PostgreSQL implementation of the UserRepository.
func NewUserRepository(pool *pgxpool.Pool) *PostgresUserRepository {
	return &PostgresUserRepository{pool: pool}
}

const userColumns = `id, username, email, passwordhash, firstname, lastname, picture,
		refreshtokens, likedposts, createdat, updatedat`

/*
Create persists a new user record into the users.account table.

Description: Deep-persists account data, ensuring timestamps and the empty
token/like sets are initialized.

Parameters:
  - context: context.Context
  - user: *User (Entity to persist)

Returns:
  - error: apperr.Conflict on unique violations, or connectivity errors
*/
func (repository *PostgresUserRepository) Create(context context.Context, user *User) error {
	const query = `
		INSERT INTO users.account (
			id, username, email, passwordhash, firstname, lastname, picture,
			refreshtokens, likedposts, createdat, updatedat
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)`

	now := time.Now()
	if user.CreatedAt.IsZero() {
		user.CreatedAt = now
	}
	user.UpdatedAt = now

	if user.RefreshTokens == nil {
		user.RefreshTokens = []string{}
	}
	if user.LikedPosts == nil {
		user.LikedPosts = []string{}
	}

	_, err := repository.pool.Exec(context, query,
		user.ID,
		user.Username,
		user.Email,
		user.PasswordHash,
		user.FirstName,
		user.LastName,
		user.Picture,
		user.RefreshTokens,
		user.LikedPosts,
		user.CreatedAt,
		user.UpdatedAt,
	)

	if err != nil {
		if dberr.IsUniqueViolation(err) {
			return dberr.Wrap(err, "User")
		}
		return fmt.Errorf("postgres_user_repo_create_failed: %w", err)
	}

	return nil
}

/*
FindByID retrieves a user record by their unique ID.

Description: Primary key resolution for user accounts.

Parameters:
  - context: context.Context
  - id: string (UUIDv7)

Returns:
  - *User: Hydrated account entity
  - error: apperr.NotFound or execution errors
*/
func (repository *PostgresUserRepository) FindByID(context context.Context, id string) (*User, error) {
	const query = `
		SELECT ` + userColumns + `
		FROM users.account
		WHERE id = $1`

	return repository.scanOne(context, query, id)
}

/*
FindByUsername retrieves a user record by their unique username.

Description: Standard lookup by username for authentication and profile resolution.
The match is exact, case-sensitive, as stored.

Parameters:
  - context: context.Context
  - username: string

Returns:
  - *User: Hydrated account entity
  - error: apperr.NotFound or database errors
*/
func (repository *PostgresUserRepository) FindByUsername(context context.Context, username string) (*User, error) {
	const query = `
		SELECT ` + userColumns + `
		FROM users.account
		WHERE username = $1`

	return repository.scanOne(context, query, username)
}

/*
FindByEmail retrieves a user record by their unique email address.

Parameters:
  - context: context.Context
  - email: string

Returns:
  - *User: Hydrated account entity
  - error: apperr.NotFound or database errors
*/
func (repository *PostgresUserRepository) FindByEmail(context context.Context, email string) (*User, error) {
	const query = `
		SELECT ` + userColumns + `
		FROM users.account
		WHERE email = $1`

	return repository.scanOne(context, query, email)
}

// scanOne executes a single-row account query and hydrates the entity.
func (repository *PostgresUserRepository) scanOne(context context.Context, query string, arg any) (*User, error) {
	user := &User{}
	err := repository.pool.QueryRow(context, query, arg).Scan(
		&user.ID,
		&user.Username,
		&user.Email,
		&user.PasswordHash,
		&user.FirstName,
		&user.LastName,
		&user.Picture,
		&user.RefreshTokens,
		&user.LikedPosts,
		&user.CreatedAt,
		&user.UpdatedAt,
	)

	if err != nil {
		return nil, dberr.Wrap(err, "User")
	}

	return user, nil
}

/*
UpdateProfile persists changes to the user's mutable profile fields.

Description: Synchronizes the in-memory user state with the database,
refreshing the updatedat timestamp. The token and like sets are NOT touched
here; they have their own conditional operations.

Parameters:
  - context: context.Context
  - user: *User

Returns:
  - error: apperr.Conflict on username collision, or update failures
*/
func (repository *PostgresUserRepository) UpdateProfile(context context.Context, user *User) error {
	const query = `
		UPDATE users.account
		SET username = $2, firstname = $3, lastname = $4, picture = $5, updatedat = $6
		WHERE id = $1`

	user.UpdatedAt = time.Now()
	_, err := repository.pool.Exec(context, query,
		user.ID,
		user.Username,
		user.FirstName,
		user.LastName,
		user.Picture,
		user.UpdatedAt,
	)

	if err != nil {
		if dberr.IsUniqueViolation(err) {
			return dberr.Wrap(err, "Username")
		}
		return fmt.Errorf("postgres_user_repo_update_profile_failed: %w", err)
	}

	return nil
}

/*
Delete removes the account and cascades over everything it owns.

Description: In one transaction, the user's id is removed from every post
like list, then the account row is deleted. Posts and comments owned by the
user are removed by ON DELETE CASCADE foreign keys.

Parameters:
  - context: context.Context
  - id: string

Returns:
  - error: apperr.NotFound if the account does not exist, or execution errors
*/
func (repository *PostgresUserRepository) Delete(context context.Context, id string) error {
	transaction, err := repository.pool.Begin(context)
	if err != nil {
		return fmt.Errorf("postgres_user_repo_delete_begin_failed: %w", err)
	}
	defer func() { _ = transaction.Rollback(context) }()

	// Withdraw the user's likes from all posts before the row disappears.
	const unlikeQuery = `
		UPDATE board.post
		SET likes = array_remove(likes, $1)
		WHERE $1 = ANY(likes)`

	if _, err := transaction.Exec(context, unlikeQuery, id); err != nil {
		return fmt.Errorf("postgres_user_repo_delete_unlike_failed: %w", err)
	}

	const deleteQuery = "DELETE FROM users.account WHERE id = $1"
	tag, err := transaction.Exec(context, deleteQuery, id)
	if err != nil {
		return fmt.Errorf("postgres_user_repo_delete_failed: %w", err)
	}

	if tag.RowsAffected() == 0 {
		return dberr.ErrNoRowsAffected("User")
	}

	if err := transaction.Commit(context); err != nil {
		return fmt.Errorf("postgres_user_repo_delete_commit_failed: %w", err)
	}

	return nil
}

// # Refresh Token Set

/*
AppendRefreshToken adds a newly issued refresh token to the user's active set.

Parameters:
  - context: context.Context
  - userID: string
  - token: string

Returns:
  - error: apperr.NotFound if the user is gone, or execution errors
*/
func (repository *PostgresUserRepository) AppendRefreshToken(context context.Context, userID, token string) error {
	const query = `
		UPDATE users.account
		SET refreshtokens = array_append(refreshtokens, $2), updatedat = NOW()
		WHERE id = $1`

	tag, err := repository.pool.Exec(context, query, userID, token)
	if err != nil {
		return fmt.Errorf("postgres_user_repo_append_token_failed: %w", err)
	}

	if tag.RowsAffected() == 0 {
		return dberr.ErrNoRowsAffected("User")
	}

	return nil
}

/*
RemoveRefreshToken removes exactly the given token, conditional on presence.

Description: The WHERE clause carries the precondition "token still active",
so a concurrent double-submit observes rows-affected 0 instead of silently
succeeding twice.

Returns:
  - bool: false when the token was not in the active set
  - error: Execution errors
*/
func (repository *PostgresUserRepository) RemoveRefreshToken(context context.Context, userID, token string) (bool, error) {
	const query = `
		UPDATE users.account
		SET refreshtokens = array_remove(refreshtokens, $2), updatedat = NOW()
		WHERE id = $1 AND $2 = ANY(refreshtokens)`

	tag, err := repository.pool.Exec(context, query, userID, token)
	if err != nil {
		return false, fmt.Errorf("postgres_user_repo_remove_token_failed: %w", err)
	}

	return tag.RowsAffected() == 1, nil
}

/*
RotateRefreshToken atomically swaps oldToken for newToken, conditional on
oldToken being present.

Description: Remove-then-append expressed as ONE statement, so the rotation is
atomic from every caller's perspective. The losing side of a concurrent race
sees rows-affected 0 and must treat the token as no longer active.

Returns:
  - bool: false when the old token was not in the active set
  - error: Execution errors
*/
func (repository *PostgresUserRepository) RotateRefreshToken(context context.Context, userID, oldToken, newToken string) (bool, error) {
	const query = `
		UPDATE users.account
		SET refreshtokens = array_append(array_remove(refreshtokens, $2), $3), updatedat = NOW()
		WHERE id = $1 AND $2 = ANY(refreshtokens)`

	tag, err := repository.pool.Exec(context, query, userID, oldToken, newToken)
	if err != nil {
		return false, fmt.Errorf("postgres_user_repo_rotate_token_failed: %w", err)
	}

	return tag.RowsAffected() == 1, nil
}

/*
ClearRefreshTokens empties the user's active set.

Description: Every outstanding session for this user is revoked at once.

Parameters:
  - context: context.Context
  - userID: string

Returns:
  - error: Execution errors
*/
func (repository *PostgresUserRepository) ClearRefreshTokens(context context.Context, userID string) error {
	const query = `
		UPDATE users.account
		SET refreshtokens = '{}', updatedat = NOW()
		WHERE id = $1`

	if _, err := repository.pool.Exec(context, query, userID); err != nil {
		return fmt.Errorf("postgres_user_repo_clear_tokens_failed: %w", err)
	}

	return nil
}
