// Package queries binds the remote API to the keyed cache. Reads go through
// the cache with a per-kind time-to-live. Writes patch the cache before the
// remote call and roll the patch back when the call fails.
package queries

import (
	"context"
	"errors"
	"sync"
	"time"

	"masterboxer.com/posts-admin/cache"
	"masterboxer.com/posts-admin/models"
)

// ErrQueryDisabled is returned instead of issuing a request when a read has
// nothing to look for: an empty search, no tag, or a zero id.
var ErrQueryDisabled = errors.New("query disabled")

var ErrInvalidInput = errors.New("invalid input")

type Client struct {
	api       API
	store     *cache.Store
	policy    Policy
	observers []Observer
	now       func() time.Time

	tempMutex  sync.Mutex
	lastTempID int

	Posts    *Posts
	Comments *Comments
	Users    *Users
}

type Option func(*Client)

func WithPolicy(policy Policy) Option {
	return func(c *Client) {
		c.policy = policy.WithDefaults()
	}
}

func WithObserver(observer Observer) Option {
	return func(c *Client) {
		c.observers = append(c.observers, observer)
	}
}

func WithClock(now func() time.Time) Option {
	return func(c *Client) {
		c.now = now
	}
}

func NewClient(api API, store *cache.Store, opts ...Option) *Client {
	c := &Client{
		api:    api,
		store:  store,
		policy: DefaultPolicy(),
		now:    time.Now,
	}
	for _, opt := range opts {
		opt(c)
	}
	c.Posts = &Posts{client: c}
	c.Comments = &Comments{client: c}
	c.Users = &Users{client: c}
	return c
}

func (c *Client) Store() *cache.Store {
	return c.store
}

func (c *Client) Policy() Policy {
	return c.policy
}

// nextTempID hands out ids for entities that only exist locally until the
// server confirms them. Ids derive from the clock and never repeat within
// the process.
func (c *Client) nextTempID() int {
	c.tempMutex.Lock()
	defer c.tempMutex.Unlock()

	id := int(c.now().UnixMilli())
	if id <= c.lastTempID {
		id = c.lastTempID + 1
	}
	c.lastTempID = id
	return id
}

func fetch[T any](ctx context.Context, c *Client, key models.QueryKey, ttl time.Duration, fn func(context.Context) (T, error)) (T, error) {
	value, err := c.store.Fetch(ctx, key, ttl, func(ctx context.Context) (any, error) {
		return fn(ctx)
	})
	if err != nil {
		var empty T
		return empty, err
	}
	return value.(T), nil
}
