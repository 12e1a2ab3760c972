package queries

import (
	"context"
	"fmt"
	"strings"

	"masterboxer.com/posts-admin/models"
)

// Placeholder author shown on a comment until the server confirms it.
const (
	PendingUsername = "You"
	PendingFullName = "Current User"
)

type Comments struct {
	client *Client
}

type UpdateComment struct {
	ID     int
	PostID int
	Body   string
}

// LikeComment carries the like count the caller saw when it dispatched the
// like. The new count is CurrentLikes+1 no matter what the cache holds by
// the time the mutation runs.
type LikeComment struct {
	ID           int
	PostID       int
	CurrentLikes int
}

func (b *Comments) ByPost(ctx context.Context, postID int) (*models.CommentsPage, error) {
	if postID == 0 {
		return nil, ErrQueryDisabled
	}
	c := b.client
	return fetch(ctx, c, models.CommentsByPostKey(postID), c.policy.Comments, func(ctx context.Context) (*models.CommentsPage, error) {
		return c.api.FetchComments(ctx, postID)
	})
}

// Add shows a temporary comment at the end of the post's list right away and
// swaps in the server's comment once it is created.
func (b *Comments) Add(ctx context.Context, input models.NewComment) (*models.Comment, error) {
	if input.PostID == 0 || strings.TrimSpace(input.Body) == "" {
		return nil, fmt.Errorf("%w: comment needs a post and a body", ErrInvalidInput)
	}
	c := b.client
	key := models.CommentsByPostKey(input.PostID)

	pending := models.Comment{
		ID:     c.nextTempID(),
		Body:   input.Body,
		PostID: input.PostID,
		User: models.CommentAuthor{
			ID:       input.UserID,
			Username: PendingUsername,
			FullName: PendingFullName,
		},
	}

	m := c.begin(KindAddComment)
	m.patch(key, c.policy.Comments, func(old any, ok bool) (any, bool) {
		page, _ := old.(*models.CommentsPage)
		return AppendComment(page, pending), true
	})

	comment, err := c.api.AddComment(ctx, input)
	if err != nil {
		return nil, m.fail(err)
	}

	m.confirm(func(current any) any {
		return ConfirmComment(current.(*models.CommentsPage), pending.ID, *comment)
	})
	m.invalidateCreated()
	m.commit()
	return comment, nil
}

func (b *Comments) Update(ctx context.Context, input UpdateComment) (*models.Comment, error) {
	if input.ID == 0 || input.PostID == 0 || strings.TrimSpace(input.Body) == "" {
		return nil, fmt.Errorf("%w: comment update needs an id, a post and a body", ErrInvalidInput)
	}
	c := b.client

	m := c.begin(KindUpdateComment)
	m.patch(models.CommentsByPostKey(input.PostID), 0, patchComments(func(page *models.CommentsPage) *models.CommentsPage {
		return ReplaceCommentBody(page, input.ID, input.Body)
	}))

	comment, err := c.api.UpdateComment(ctx, input.ID, input.Body)
	if err != nil {
		return nil, m.fail(err)
	}

	m.confirm(func(current any) any {
		return MergeComment(current.(*models.CommentsPage), *comment)
	})
	m.commit()
	return comment, nil
}

func (b *Comments) Like(ctx context.Context, input LikeComment) (*models.Comment, error) {
	if input.ID == 0 || input.PostID == 0 || input.CurrentLikes < 0 {
		return nil, fmt.Errorf("%w: like needs a comment, a post and a like count", ErrInvalidInput)
	}
	c := b.client
	likes := input.CurrentLikes + 1

	m := c.begin(KindLikeComment)
	m.patch(models.CommentsByPostKey(input.PostID), 0, patchComments(func(page *models.CommentsPage) *models.CommentsPage {
		return SetCommentLikes(page, input.ID, likes)
	}))

	comment, err := c.api.LikeComment(ctx, input.ID, likes)
	if err != nil {
		return nil, m.fail(err)
	}

	m.commit()
	return comment, nil
}

func (b *Comments) Delete(ctx context.Context, id int, postID int) error {
	if id == 0 || postID == 0 {
		return fmt.Errorf("%w: delete needs a comment and a post", ErrInvalidInput)
	}
	c := b.client

	m := c.begin(KindDeleteComment)
	m.patch(models.CommentsByPostKey(postID), 0, patchComments(func(page *models.CommentsPage) *models.CommentsPage {
		return RemoveComment(page, id)
	}))

	if err := c.api.DeleteComment(ctx, id); err != nil {
		return m.fail(err)
	}

	m.commit()
	return nil
}

// patchComments leaves a key alone when nothing is cached under it.
func patchComments(fn func(*models.CommentsPage) *models.CommentsPage) func(any, bool) (any, bool) {
	return func(old any, ok bool) (any, bool) {
		page, isPage := old.(*models.CommentsPage)
		if !ok || !isPage || page == nil {
			return nil, false
		}
		return fn(page), true
	}
}
