// Copyright (c) 2026 Plaza. All rights reserved.
// Author: tai.buivan.jp@gmail.com

package post

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/taibuivan/plaza/internal/platform/dberr"
	"github.com/taibuivan/plaza/pkg/pagination"
)

// # Post Repository

// PostgresRepository implements the Repository interface using pgx.
type PostgresRepository struct {
	pool *pgxpool.Pool
}

// NewPostgresRepository creates a new PostgreSQL implementation of the Repository.
func NewPostgresRepository(pool *pgxpool.Pool) *PostgresRepository {
	return &PostgresRepository{pool: pool}
}

const postColumns = `id, userid, slug, title, description, picture, category,
		phone, region, city, likes, createdat, updatedat`

/*
Create persists a new listing into the board.post table.

Parameters:
  - context: context.Context
  - post: *Post (Entity to persist)

Returns:
  - error: apperr.Conflict on slug collisions, or connectivity errors
*/
func (repository *PostgresRepository) Create(context context.Context, post *Post) error {
	const query = `
		INSERT INTO board.post (
			id, userid, slug, title, description, picture, category,
			phone, region, city, likes, createdat, updatedat
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13)`

	now := time.Now()
	if post.CreatedAt.IsZero() {
		post.CreatedAt = now
	}
	post.UpdatedAt = now

	if post.Likes == nil {
		post.Likes = []string{}
	}

	_, err := repository.pool.Exec(context, query,
		post.ID,
		post.UserID,
		post.Slug,
		post.Title,
		post.Description,
		post.Picture,
		post.Category,
		post.Phone,
		post.Region,
		post.City,
		post.Likes,
		post.CreatedAt,
		post.UpdatedAt,
	)

	if err != nil {
		if dberr.IsUniqueViolation(err) {
			return dberr.Wrap(err, "Post")
		}
		return fmt.Errorf("postgres_post_repo_create_failed: %w", err)
	}

	return nil
}

/*
FindByID retrieves one listing by its unique ID.

Parameters:
  - context: context.Context
  - id: string (UUIDv7)

Returns:
  - *Post: Hydrated listing
  - error: apperr.NotFound or execution errors
*/
func (repository *PostgresRepository) FindByID(context context.Context, id string) (*Post, error) {
	const query = `
		SELECT ` + postColumns + `
		FROM board.post
		WHERE id = $1`

	post := &Post{}
	err := repository.pool.QueryRow(context, query, id).Scan(
		&post.ID,
		&post.UserID,
		&post.Slug,
		&post.Title,
		&post.Description,
		&post.Picture,
		&post.Category,
		&post.Phone,
		&post.Region,
		&post.City,
		&post.Likes,
		&post.CreatedAt,
		&post.UpdatedAt,
	)
	if err != nil {
		return nil, dberr.Wrap(err, "Post")
	}

	return post, nil
}

/*
List returns a filtered page of the feed, newest first, plus the total count.

Description: Builds the WHERE clause dynamically from the non-zero filter
fields; an empty filter scans the whole board.

Parameters:
  - context: context.Context
  - filter: Filter
  - params: pagination.Params

Returns:
  - []*Post: The feed page
  - int: Total rows matching the filter
  - error: Execution errors
*/
func (repository *PostgresRepository) List(context context.Context, filter Filter, params pagination.Params) ([]*Post, int, error) {
	conditions := make([]string, 0, 4)
	arguments := make([]any, 0, 6)

	appendCondition := func(column, value string) {
		if value == "" {
			return
		}
		arguments = append(arguments, value)
		conditions = append(conditions, fmt.Sprintf("%s = $%d", column, len(arguments)))
	}

	appendCondition("category", filter.Category)
	appendCondition("region", filter.Region)
	appendCondition("city", filter.City)
	appendCondition("userid", filter.UserID)

	whereClause := ""
	if len(conditions) > 0 {
		whereClause = "WHERE " + strings.Join(conditions, " AND ")
	}

	countQuery := fmt.Sprintf(`SELECT COUNT(*) FROM board.post %s`, whereClause)

	var total int
	if err := repository.pool.QueryRow(context, countQuery, arguments...).Scan(&total); err != nil {
		return nil, 0, fmt.Errorf("postgres_post_repo_count_failed: %w", err)
	}

	listQuery := fmt.Sprintf(`
		SELECT %s
		FROM board.post
		%s
		ORDER BY createdat DESC
		LIMIT $%d OFFSET $%d`,
		postColumns, whereClause, len(arguments)+1, len(arguments)+2)

	arguments = append(arguments, params.Limit, params.Offset())

	rows, err := repository.pool.Query(context, listQuery, arguments...)
	if err != nil {
		return nil, 0, fmt.Errorf("postgres_post_repo_list_failed: %w", err)
	}
	defer rows.Close()

	posts := make([]*Post, 0, params.Limit)
	for rows.Next() {
		post := &Post{}
		if err := rows.Scan(
			&post.ID,
			&post.UserID,
			&post.Slug,
			&post.Title,
			&post.Description,
			&post.Picture,
			&post.Category,
			&post.Phone,
			&post.Region,
			&post.City,
			&post.Likes,
			&post.CreatedAt,
			&post.UpdatedAt,
		); err != nil {
			return nil, 0, fmt.Errorf("postgres_post_repo_scan_failed: %w", err)
		}
		posts = append(posts, post)
	}

	if err := rows.Err(); err != nil {
		return nil, 0, fmt.Errorf("postgres_post_repo_rows_failed: %w", err)
	}

	return posts, total, nil
}

/*
Update persists the mutable listing fields.

Description: The likes column is absent from the SET list so a stale entity
can never clobber concurrent like toggles.

Parameters:
  - context: context.Context
  - post: *Post

Returns:
  - error: apperr.NotFound when the listing vanished, or execution errors
*/
func (repository *PostgresRepository) Update(context context.Context, post *Post) error {
	const query = `
		UPDATE board.post
		SET slug = $2, title = $3, description = $4, picture = $5,
		    category = $6, phone = $7, region = $8, city = $9, updatedat = $10
		WHERE id = $1`

	post.UpdatedAt = time.Now()

	tag, err := repository.pool.Exec(context, query,
		post.ID,
		post.Slug,
		post.Title,
		post.Description,
		post.Picture,
		post.Category,
		post.Phone,
		post.Region,
		post.City,
		post.UpdatedAt,
	)
	if err != nil {
		if dberr.IsUniqueViolation(err) {
			return dberr.Wrap(err, "Post")
		}
		return fmt.Errorf("postgres_post_repo_update_failed: %w", err)
	}

	if tag.RowsAffected() == 0 {
		return dberr.ErrNoRowsAffected("Post")
	}

	return nil
}

/*
Delete removes a listing. Comments follow through the FK cascade.

Parameters:
  - context: context.Context
  - id: string

Returns:
  - error: apperr.NotFound or execution errors
*/
func (repository *PostgresRepository) Delete(context context.Context, id string) error {
	const query = `DELETE FROM board.post WHERE id = $1`

	tag, err := repository.pool.Exec(context, query, id)
	if err != nil {
		return fmt.Errorf("postgres_post_repo_delete_failed: %w", err)
	}

	if tag.RowsAffected() == 0 {
		return dberr.ErrNoRowsAffected("Post")
	}

	return nil
}

/*
ToggleLike flips userID's membership in the post's like set.

Description: Runs in one transaction that mutates both sides of the
relation, the post's likes array and the user's likedposts array, so the
two can never drift. The current state is read FOR UPDATE to serialize
concurrent toggles on the same row.

Parameters:
  - context: context.Context
  - postID: string
  - userID: string

Returns:
  - bool: Whether the post is liked after the call
  - error: apperr.NotFound or execution errors
*/
func (repository *PostgresRepository) ToggleLike(context context.Context, postID, userID string) (bool, error) {
	transaction, err := repository.pool.Begin(context)
	if err != nil {
		return false, fmt.Errorf("postgres_post_repo_like_begin_failed: %w", err)
	}
	defer func() { _ = transaction.Rollback(context) }()

	var likes []string
	err = transaction.QueryRow(context,
		`SELECT likes FROM board.post WHERE id = $1 FOR UPDATE`, postID,
	).Scan(&likes)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return false, dberr.Wrap(pgx.ErrNoRows, "Post")
		}
		return false, fmt.Errorf("postgres_post_repo_like_read_failed: %w", err)
	}

	liked := false
	for _, id := range likes {
		if id == userID {
			liked = true
			break
		}
	}

	if liked {
		_, err = transaction.Exec(context,
			`UPDATE board.post SET likes = array_remove(likes, $2) WHERE id = $1`,
			postID, userID)
		if err == nil {
			_, err = transaction.Exec(context,
				`UPDATE users.account SET likedposts = array_remove(likedposts, $2) WHERE id = $1`,
				userID, postID)
		}
	} else {
		_, err = transaction.Exec(context,
			`UPDATE board.post SET likes = array_append(likes, $2) WHERE id = $1 AND NOT ($2 = ANY(likes))`,
			postID, userID)
		if err == nil {
			_, err = transaction.Exec(context,
				`UPDATE users.account SET likedposts = array_append(likedposts, $2) WHERE id = $1 AND NOT ($2 = ANY(likedposts))`,
				userID, postID)
		}
	}
	if err != nil {
		return false, fmt.Errorf("postgres_post_repo_like_write_failed: %w", err)
	}

	if err := transaction.Commit(context); err != nil {
		return false, fmt.Errorf("postgres_post_repo_like_commit_failed: %w", err)
	}

	return !liked, nil
}
