package queries

import (
	"context"

	"masterboxer.com/posts-admin/models"
)

type Users struct {
	client *Client
}

// List returns the summary of every user.
func (b *Users) List(ctx context.Context) (*models.UsersPage, error) {
	c := b.client
	return fetch(ctx, c, models.UsersListKey, c.policy.Users, func(ctx context.Context) (*models.UsersPage, error) {
		return c.api.FetchUsers(ctx)
	})
}

func (b *Users) Get(ctx context.Context, id int) (*models.User, error) {
	if id == 0 {
		return nil, ErrQueryDisabled
	}
	c := b.client
	return fetch(ctx, c, models.UserKey(id), c.policy.Users, func(ctx context.Context) (*models.User, error) {
		return c.api.FetchUser(ctx, id)
	})
}
