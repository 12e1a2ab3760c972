package queries

import (
	"context"

	"github.com/golang/glog"
	"masterboxer.com/posts-admin/models"
)

// BrowsePosts loads the post table for a console filter. A search wins over
// a tag, and a tag over the plain list. Rows are joined with their authors
// from the cached user list; a failed user read leaves the authors empty.
func (c *Client) BrowsePosts(ctx context.Context, filter models.PostFilter) (*models.PostsView, error) {
	var page *models.PostsPage
	var err error
	switch filter.Source() {
	case models.SourceSearch:
		page, err = c.Posts.Search(ctx, filter.Search)
	case models.SourceTag:
		page, err = c.Posts.ByTag(ctx, filter.Tag, filter.Limit, filter.Skip)
	default:
		page, err = c.Posts.List(ctx, filter.ListFilter())
	}
	if err != nil {
		return nil, err
	}

	users, err := c.Users.List(ctx)
	if err != nil {
		glog.Warningf("[queries]author join skipped: %v\n", err)
		users = nil
	}

	return &models.PostsView{
		Posts: JoinAuthors(page.Posts, users),
		Pagination: models.Pagination{
			Limit: filter.Limit,
			Skip:  filter.Skip,
			Total: page.Total,
		},
		Filter: filter,
	}, nil
}

func JoinAuthors(posts []models.Post, users *models.UsersPage) []models.PostWithAuthor {
	byID := map[int]*models.UserSummary{}
	if users != nil {
		for i := range users.Users {
			byID[users.Users[i].ID] = &users.Users[i]
		}
	}

	rows := make([]models.PostWithAuthor, 0, len(posts))
	for _, post := range posts {
		row := models.PostWithAuthor{Post: post}
		if author, ok := byID[post.UserID]; ok {
			summary := *author
			row.Author = &summary
		}
		rows = append(rows, row)
	}
	return rows
}
