package queries

import (
	"context"

	"masterboxer.com/posts-admin/models"
)

// PostAPI is the slice of the remote API the post bindings use.
// *remote.Client implements it.
type PostAPI interface {
	FetchPosts(ctx context.Context, filter models.ListFilter) (*models.PostsPage, error)
	FetchPostsByTag(ctx context.Context, tag string, limit, skip int) (*models.PostsPage, error)
	SearchPosts(ctx context.Context, q string) (*models.PostsPage, error)
	FetchTags(ctx context.Context) ([]models.Tag, error)
	AddPost(ctx context.Context, post models.NewPost) (*models.Post, error)
	UpdatePost(ctx context.Context, post models.Post) (*models.Post, error)
	DeletePost(ctx context.Context, id int) error
}

type CommentAPI interface {
	FetchComments(ctx context.Context, postID int) (*models.CommentsPage, error)
	AddComment(ctx context.Context, comment models.NewComment) (*models.Comment, error)
	UpdateComment(ctx context.Context, id int, body string) (*models.Comment, error)
	LikeComment(ctx context.Context, id int, likes int) (*models.Comment, error)
	DeleteComment(ctx context.Context, id int) error
}

type UserAPI interface {
	FetchUsers(ctx context.Context) (*models.UsersPage, error)
	FetchUser(ctx context.Context, id int) (*models.User, error)
}

type API interface {
	PostAPI
	CommentAPI
	UserAPI
}
