// Copyright (c) 2026 Plaza. All rights reserved.
// Author: tai.buivan.jp@gmail.com

package comment

import (
	"context"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/taibuivan/plaza/internal/platform/dberr"
	"github.com/taibuivan/plaza/pkg/pagination"
)

// PostgresRepository implements the Repository interface using pgx.
type PostgresRepository struct {
	pool *pgxpool.Pool
}

// NewPostgresRepository creates a new PostgreSQL implementation of the Repository.
func NewPostgresRepository(pool *pgxpool.Pool) *PostgresRepository {
	return &PostgresRepository{pool: pool}
}

const commentColumns = `id, postid, userid, content, createdat, updatedat`

/*
Create persists a new comment into the board.comment table.

Description: The FK on postid enforces that the parent listing exists; a
violation is surfaced as NotFound rather than a raw constraint error.

Parameters:
  - context: context.Context
  - comment: *Comment

Returns:
  - error: apperr.NotFound when the post is gone, or execution errors
*/
func (repository *PostgresRepository) Create(context context.Context, comment *Comment) error {
	const query = `
		INSERT INTO board.comment (id, postid, userid, content, createdat, updatedat)
		VALUES ($1, $2, $3, $4, $5, $6)`

	now := time.Now()
	if comment.CreatedAt.IsZero() {
		comment.CreatedAt = now
	}
	comment.UpdatedAt = now

	_, err := repository.pool.Exec(context, query,
		comment.ID,
		comment.PostID,
		comment.UserID,
		comment.Content,
		comment.CreatedAt,
		comment.UpdatedAt,
	)
	if err != nil {
		if dberr.IsForeignKeyViolation(err) {
			return dberr.ErrNoRowsAffected("Post")
		}
		return fmt.Errorf("postgres_comment_repo_create_failed: %w", err)
	}

	return nil
}

/*
FindByID retrieves one comment by its unique ID.

Parameters:
  - context: context.Context
  - id: string (UUIDv7)

Returns:
  - *Comment: Hydrated comment
  - error: apperr.NotFound or execution errors
*/
func (repository *PostgresRepository) FindByID(context context.Context, id string) (*Comment, error) {
	const query = `
		SELECT ` + commentColumns + `
		FROM board.comment
		WHERE id = $1`

	comment := &Comment{}
	err := repository.pool.QueryRow(context, query, id).Scan(
		&comment.ID,
		&comment.PostID,
		&comment.UserID,
		&comment.Content,
		&comment.CreatedAt,
		&comment.UpdatedAt,
	)
	if err != nil {
		return nil, dberr.Wrap(err, "Comment")
	}

	return comment, nil
}

/*
ListByPost returns one page of a post's thread, oldest first.

Parameters:
  - context: context.Context
  - postID: string
  - params: pagination.Params

Returns:
  - []*Comment: The thread page
  - int: Total comments under the post
  - error: Execution errors
*/
func (repository *PostgresRepository) ListByPost(context context.Context, postID string, params pagination.Params) ([]*Comment, int, error) {
	var total int
	err := repository.pool.QueryRow(context,
		`SELECT COUNT(*) FROM board.comment WHERE postid = $1`, postID,
	).Scan(&total)
	if err != nil {
		return nil, 0, fmt.Errorf("postgres_comment_repo_count_failed: %w", err)
	}

	const query = `
		SELECT ` + commentColumns + `
		FROM board.comment
		WHERE postid = $1
		ORDER BY createdat ASC
		LIMIT $2 OFFSET $3`

	rows, err := repository.pool.Query(context, query, postID, params.Limit, params.Offset())
	if err != nil {
		return nil, 0, fmt.Errorf("postgres_comment_repo_list_failed: %w", err)
	}
	defer rows.Close()

	comments := make([]*Comment, 0, params.Limit)
	for rows.Next() {
		comment := &Comment{}
		if err := rows.Scan(
			&comment.ID,
			&comment.PostID,
			&comment.UserID,
			&comment.Content,
			&comment.CreatedAt,
			&comment.UpdatedAt,
		); err != nil {
			return nil, 0, fmt.Errorf("postgres_comment_repo_scan_failed: %w", err)
		}
		comments = append(comments, comment)
	}

	if err := rows.Err(); err != nil {
		return nil, 0, fmt.Errorf("postgres_comment_repo_rows_failed: %w", err)
	}

	return comments, total, nil
}

/*
UpdateContent replaces the comment body and returns the updated row.

Parameters:
  - context: context.Context
  - id: string
  - content: string

Returns:
  - *Comment: The updated comment
  - error: apperr.NotFound or execution errors
*/
func (repository *PostgresRepository) UpdateContent(context context.Context, id, content string) (*Comment, error) {
	const query = `
		UPDATE board.comment
		SET content = $2, updatedat = $3
		WHERE id = $1
		RETURNING ` + commentColumns

	comment := &Comment{}
	err := repository.pool.QueryRow(context, query, id, content, time.Now()).Scan(
		&comment.ID,
		&comment.PostID,
		&comment.UserID,
		&comment.Content,
		&comment.CreatedAt,
		&comment.UpdatedAt,
	)
	if err != nil {
		return nil, dberr.Wrap(err, "Comment")
	}

	return comment, nil
}

/*
Delete removes a comment.

Parameters:
  - context: context.Context
  - id: string

Returns:
  - error: apperr.NotFound or execution errors
*/
func (repository *PostgresRepository) Delete(context context.Context, id string) error {
	const query = `DELETE FROM board.comment WHERE id = $1`

	tag, err := repository.pool.Exec(context, query, id)
	if err != nil {
		return fmt.Errorf("postgres_comment_repo_delete_failed: %w", err)
	}

	if tag.RowsAffected() == 0 {
		return dberr.ErrNoRowsAffected("Comment")
	}

	return nil
}
