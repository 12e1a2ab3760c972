package queries

import (
	"context"
	"fmt"
	"strings"

	"masterboxer.com/posts-admin/models"
)

type Posts struct {
	client *Client
}

func (b *Posts) List(ctx context.Context, filter models.ListFilter) (*models.PostsPage, error) {
	if filter.Limit <= 0 {
		filter.Limit = models.DefaultLimit
	}
	c := b.client
	return fetch(ctx, c, models.PostListKey(filter), c.policy.Posts, func(ctx context.Context) (*models.PostsPage, error) {
		return c.api.FetchPosts(ctx, filter)
	})
}

func (b *Posts) ByTag(ctx context.Context, tag string, limit, skip int) (*models.PostsPage, error) {
	if tag == "" || tag == models.AllTags {
		return nil, ErrQueryDisabled
	}
	if limit <= 0 {
		limit = models.DefaultLimit
	}
	c := b.client
	return fetch(ctx, c, models.PostsByTagKey(tag, limit, skip), c.policy.Posts, func(ctx context.Context) (*models.PostsPage, error) {
		return c.api.FetchPostsByTag(ctx, tag, limit, skip)
	})
}

func (b *Posts) Search(ctx context.Context, q string) (*models.PostsPage, error) {
	if q == "" {
		return nil, ErrQueryDisabled
	}
	c := b.client
	return fetch(ctx, c, models.PostSearchKey(q), c.policy.Posts, func(ctx context.Context) (*models.PostsPage, error) {
		return c.api.SearchPosts(ctx, q)
	})
}

func (b *Posts) Tags(ctx context.Context) ([]models.Tag, error) {
	c := b.client
	return fetch(ctx, c, models.TagsKey, c.policy.Tags, func(ctx context.Context) ([]models.Tag, error) {
		return c.api.FetchTags(ctx)
	})
}

// Add waits for the server before touching the cache. The created post is
// put at the head of every cached plain list.
func (b *Posts) Add(ctx context.Context, input models.NewPost) (*models.Post, error) {
	if strings.TrimSpace(input.Title) == "" || input.UserID == 0 {
		return nil, fmt.Errorf("%w: post needs a title and an owner", ErrInvalidInput)
	}
	c := b.client

	m := c.begin(KindAddPost)
	post, err := c.api.AddPost(ctx, input)
	if err != nil {
		return nil, m.fail(err)
	}

	c.store.UpdateAll(models.PostListsKey, func(key models.QueryKey, old any) (any, bool) {
		page, ok := old.(*models.PostsPage)
		if !ok {
			return nil, false
		}
		m.event.Keys = append(m.event.Keys, key)
		return PrependPost(page, *post), true
	})
	c.store.Invalidate(models.TagsKey)

	m.commit()
	return post, nil
}

// Update patches the post in every cached collection, including search and
// tag results, then lays the server's copy over the patch.
func (b *Posts) Update(ctx context.Context, input models.Post) (*models.Post, error) {
	if input.ID == 0 || strings.TrimSpace(input.Title) == "" {
		return nil, fmt.Errorf("%w: post update needs an id and a title", ErrInvalidInput)
	}
	c := b.client

	m := c.begin(KindUpdatePost)
	m.patchAll(models.PostsKey, patchPosts(func(page *models.PostsPage) *models.PostsPage {
		return MergePost(page, input)
	}))

	post, err := c.api.UpdatePost(ctx, input)
	if err != nil {
		return nil, m.fail(err)
	}

	m.confirm(func(current any) any {
		return MergePost(current.(*models.PostsPage), *post)
	})
	c.store.Invalidate(models.TagsKey)
	m.commit()
	return post, nil
}

func (b *Posts) Delete(ctx context.Context, id int) error {
	if id == 0 {
		return fmt.Errorf("%w: delete needs a post", ErrInvalidInput)
	}
	c := b.client

	m := c.begin(KindDeletePost)
	m.patchAll(models.PostsKey, patchPosts(func(page *models.PostsPage) *models.PostsPage {
		return RemovePost(page, id)
	}))

	if err := c.api.DeletePost(ctx, id); err != nil {
		return m.fail(err)
	}

	c.store.Remove(models.CommentsByPostKey(id))
	m.commit()
	return nil
}

func patchPosts(fn func(*models.PostsPage) *models.PostsPage) func(models.QueryKey, any) (any, bool) {
	return func(key models.QueryKey, old any) (any, bool) {
		page, ok := old.(*models.PostsPage)
		if !ok || page == nil {
			return nil, false
		}
		return fn(page), true
	}
}
