// Copyright (c) 2026 Plaza. All rights reserved.
// Author: tai.buivan.jp@gmail.com

package comment_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/taibuivan/plaza/internal/comment"
	"github.com/taibuivan/plaza/internal/platform/apperr"
	"github.com/taibuivan/plaza/pkg/pagination"
)

// memoryRepository fakes the store; the knownPosts set stands in for the
// foreign key on postid.
type memoryRepository struct {
	comments   map[string]*comment.Comment
	order      []string
	knownPosts map[string]bool
}

func newMemoryRepository(posts ...string) *memoryRepository {
	known := make(map[string]bool, len(posts))
	for _, id := range posts {
		known[id] = true
	}
	return &memoryRepository{comments: make(map[string]*comment.Comment), knownPosts: known}
}

func (repo *memoryRepository) Create(_ context.Context, c *comment.Comment) error {
	if !repo.knownPosts[c.PostID] {
		return apperr.NotFound("Post")
	}
	clone := *c
	repo.comments[c.ID] = &clone
	repo.order = append(repo.order, c.ID)
	return nil
}

func (repo *memoryRepository) FindByID(_ context.Context, id string) (*comment.Comment, error) {
	stored, ok := repo.comments[id]
	if !ok {
		return nil, apperr.NotFound("Comment")
	}
	clone := *stored
	return &clone, nil
}

func (repo *memoryRepository) ListByPost(_ context.Context, postID string, params pagination.Params) ([]*comment.Comment, int, error) {
	matched := make([]*comment.Comment, 0)
	for _, id := range repo.order {
		if stored, ok := repo.comments[id]; ok && stored.PostID == postID {
			clone := *stored
			matched = append(matched, &clone)
		}
	}

	total := len(matched)
	offset := params.Offset()
	if offset > total {
		offset = total
	}
	end := offset + params.Limit
	if end > total {
		end = total
	}
	return matched[offset:end], total, nil
}

func (repo *memoryRepository) UpdateContent(_ context.Context, id, content string) (*comment.Comment, error) {
	stored, ok := repo.comments[id]
	if !ok {
		return nil, apperr.NotFound("Comment")
	}
	stored.Content = content
	clone := *stored
	return &clone, nil
}

func (repo *memoryRepository) Delete(_ context.Context, id string) error {
	if _, ok := repo.comments[id]; !ok {
		return apperr.NotFound("Comment")
	}
	delete(repo.comments, id)
	return nil
}

/*
TestService_Create verifies comment creation and the missing-post mapping.
*/
func TestService_Create(t *testing.T) {
	service := comment.NewService(newMemoryRepository("post-1"))
	ctx := context.Background()

	created, err := service.Create(ctx, "u1", "post-1", "Is this still available?")
	require.NoError(t, err)
	assert.NotEmpty(t, created.ID)
	assert.Equal(t, "post-1", created.PostID)

	_, err = service.Create(ctx, "u1", "missing-post", "Hello?")
	assert.True(t, apperr.IsAppError(err))
}

/*
TestService_Update verifies authorship enforcement and that the post binding
survives an update untouched.
*/
func TestService_Update(t *testing.T) {
	repo := newMemoryRepository("post-1")
	service := comment.NewService(repo)
	ctx := context.Background()

	created, err := service.Create(ctx, "u1", "post-1", "Is this still available?")
	require.NoError(t, err)

	_, err = service.Update(ctx, "u2", created.ID, "hijacked")
	assert.ErrorIs(t, err, comment.ErrNotAuthor)

	updated, err := service.Update(ctx, "u1", created.ID, "Never mind, found one.")
	require.NoError(t, err)
	assert.Equal(t, "Never mind, found one.", updated.Content)
	assert.Equal(t, "post-1", updated.PostID)
}

/*
TestService_Delete verifies authorship enforcement on deletion.
*/
func TestService_Delete(t *testing.T) {
	service := comment.NewService(newMemoryRepository("post-1"))
	ctx := context.Background()

	created, err := service.Create(ctx, "u1", "post-1", "Is this still available?")
	require.NoError(t, err)

	assert.ErrorIs(t, service.Delete(ctx, "u2", created.ID), comment.ErrNotAuthor)
	require.NoError(t, service.Delete(ctx, "u1", created.ID))

	_, err = service.Get(ctx, created.ID)
	assert.True(t, apperr.IsAppError(err))
}

/*
TestService_ListByPost verifies ordering and pagination of a thread.
*/
func TestService_ListByPost(t *testing.T) {
	service := comment.NewService(newMemoryRepository("post-1", "post-2"))
	ctx := context.Background()

	for _, content := range []string{"first", "second", "third"} {
		_, err := service.Create(ctx, "u1", "post-1", content)
		require.NoError(t, err)
	}
	_, err := service.Create(ctx, "u1", "post-2", "elsewhere")
	require.NoError(t, err)

	page, total, err := service.ListByPost(ctx, "post-1", pagination.Params{Page: 1, Limit: 2})
	require.NoError(t, err)
	assert.Equal(t, 3, total)
	require.Len(t, page, 2)
	assert.Equal(t, "first", page[0].Content)

	page, _, err = service.ListByPost(ctx, "post-1", pagination.Params{Page: 2, Limit: 2})
	require.NoError(t, err)
	require.Len(t, page, 1)
	assert.Equal(t, "third", page[0].Content)
}
