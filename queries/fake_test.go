package queries

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sync"
	"testing"

	"masterboxer.com/posts-admin/cache"
	"masterboxer.com/posts-admin/models"
)

var errServer = errors.New("server said no")

type fakeAPI struct {
	mutex sync.Mutex
	calls []string

	posts    map[string]*models.PostsPage
	tags     []models.Tag
	comments map[int]*models.CommentsPage
	users    *models.UsersPage
	user     *models.User

	readErr  error
	writeErr error
	// runs before a write answers, while the optimistic patch is visible
	beforeWrite func()
	// runs before a read answers; a read whose ctx is done by then fails
	beforeRead func(ctx context.Context)
}

func newFakeAPI() *fakeAPI {
	return &fakeAPI{
		posts:    map[string]*models.PostsPage{},
		comments: map[int]*models.CommentsPage{},
	}
}

func (f *fakeAPI) record(call string) {
	f.mutex.Lock()
	defer f.mutex.Unlock()
	f.calls = append(f.calls, call)
}

func (f *fakeAPI) callCount(call string) int {
	f.mutex.Lock()
	defer f.mutex.Unlock()
	n := 0
	for _, c := range f.calls {
		if c == call {
			n += 1
		}
	}
	return n
}

func (f *fakeAPI) write(call string) error {
	f.record(call)
	if f.beforeWrite != nil {
		f.beforeWrite()
	}
	return f.writeErr
}

func (f *fakeAPI) read(ctx context.Context, call string) error {
	f.record(call)
	if f.beforeRead != nil {
		f.beforeRead(ctx)
	}
	if err := ctx.Err(); err != nil {
		return err
	}
	return f.readErr
}

func (f *fakeAPI) FetchPosts(ctx context.Context, filter models.ListFilter) (*models.PostsPage, error) {
	if err := f.read(ctx, fmt.Sprintf("posts?skip=%d", filter.Skip)); err != nil {
		return nil, err
	}
	return f.posts["list"], nil
}

func (f *fakeAPI) FetchPostsByTag(ctx context.Context, tag string, limit, skip int) (*models.PostsPage, error) {
	if err := f.read(ctx, fmt.Sprintf("tag/%s?skip=%d", tag, skip)); err != nil {
		return nil, err
	}
	return f.posts["tag/"+tag], nil
}

func (f *fakeAPI) SearchPosts(ctx context.Context, q string) (*models.PostsPage, error) {
	if err := f.read(ctx, "search/" + q); err != nil {
		return nil, err
	}
	return f.posts["search/"+q], nil
}

func (f *fakeAPI) FetchTags(ctx context.Context) ([]models.Tag, error) {
	if err := f.read(ctx, "tags"); err != nil {
		return nil, err
	}
	return f.tags, nil
}

func (f *fakeAPI) AddPost(ctx context.Context, post models.NewPost) (*models.Post, error) {
	if err := f.write("add post"); err != nil {
		return nil, err
	}
	return &models.Post{ID: 252, Title: post.Title, Body: post.Body, UserID: post.UserID}, nil
}

func (f *fakeAPI) UpdatePost(ctx context.Context, post models.Post) (*models.Post, error) {
	if err := f.write("update post"); err != nil {
		return nil, err
	}
	post.Views = 999
	return &post, nil
}

func (f *fakeAPI) DeletePost(ctx context.Context, id int) error {
	return f.write("delete post")
}

func (f *fakeAPI) FetchComments(ctx context.Context, postID int) (*models.CommentsPage, error) {
	if err := f.read(ctx, fmt.Sprintf("comments/%d", postID)); err != nil {
		return nil, err
	}
	return f.comments[postID], nil
}

func (f *fakeAPI) AddComment(ctx context.Context, comment models.NewComment) (*models.Comment, error) {
	if err := f.write("add comment"); err != nil {
		return nil, err
	}
	return &models.Comment{
		ID:     341,
		Body:   comment.Body,
		PostID: comment.PostID,
		User:   models.CommentAuthor{ID: comment.UserID, Username: "emilys", FullName: "Emily Johnson"},
	}, nil
}

func (f *fakeAPI) UpdateComment(ctx context.Context, id int, body string) (*models.Comment, error) {
	if err := f.write("update comment"); err != nil {
		return nil, err
	}
	return &models.Comment{ID: id, Body: body}, nil
}

func (f *fakeAPI) LikeComment(ctx context.Context, id int, likes int) (*models.Comment, error) {
	if err := f.write(fmt.Sprintf("like %d=%d", id, likes)); err != nil {
		return nil, err
	}
	return &models.Comment{ID: id, Likes: likes}, nil
}

func (f *fakeAPI) DeleteComment(ctx context.Context, id int) error {
	return f.write("delete comment")
}

func (f *fakeAPI) FetchUsers(ctx context.Context) (*models.UsersPage, error) {
	if err := f.read(ctx, "users"); err != nil {
		return nil, err
	}
	return f.users, nil
}

func (f *fakeAPI) FetchUser(ctx context.Context, id int) (*models.User, error) {
	if err := f.read(ctx, fmt.Sprintf("user/%d", id)); err != nil {
		return nil, err
	}
	return f.user, nil
}

func newTestClient(api *fakeAPI, opts ...Option) *Client {
	return NewClient(api, cache.NewStore(), opts...)
}

func commentsFixture() *models.CommentsPage {
	return &models.CommentsPage{
		Comments: []models.Comment{
			{ID: 1, Body: "hi", PostID: 7, Likes: 0, User: models.CommentAuthor{ID: 5, Username: "emilys", FullName: "Emily Johnson"}},
			{ID: 2, Body: "second", PostID: 7, Likes: 3, User: models.CommentAuthor{ID: 6, Username: "michaelw", FullName: "Michael Williams"}},
		},
		Total: 2,
		Limit: 30,
	}
}

func postsFixture() *models.PostsPage {
	return &models.PostsPage{
		Posts: []models.Post{
			{ID: 1, Title: "His mother had always taught him", Body: "body one", UserID: 5, Tags: []string{"history"}, Reactions: models.Reactions{Likes: 192, Dislikes: 25}, Views: 305},
			{ID: 2, Title: "He was an expert but not in a discipline", Body: "body two", UserID: 6, Tags: []string{"french"}, Views: 10},
		},
		Total: 251,
		Limit: 10,
	}
}

func cachedJSON(t *testing.T, store *cache.Store, key models.QueryKey) string {
	t.Helper()
	value, ok := store.Get(key)
	if !ok {
		return ""
	}
	b, err := json.Marshal(value)
	if err != nil {
		t.Fatal(err)
	}
	return string(b)
}
