package remote

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/golang/glog"
	"masterboxer.com/posts-admin/models"
)

const defaultHttpTimeout = 60 * time.Second
const defaultHttpConnectTimeout = 5 * time.Second
const defaultHttpTlsTimeout = 5 * time.Second

func defaultClient() *http.Client {
	dialer := &net.Dialer{
		Timeout: defaultHttpConnectTimeout,
	}
	transport := &http.Transport{
		DialContext:         dialer.DialContext,
		TLSHandshakeTimeout: defaultHttpTlsTimeout,
	}
	return &http.Client{
		Transport: transport,
		Timeout:   defaultHttpTimeout,
	}
}

// Client issues exactly one HTTP call per operation against the posts API.
// Nothing is retried; failures come back as *RemoteFailure.
type Client struct {
	baseURL    string
	httpClient *http.Client
}

func NewClient(baseURL string) *Client {
	return NewClientWithHTTP(baseURL, defaultClient())
}

func NewClientWithHTTP(baseURL string, httpClient *http.Client) *Client {
	return &Client{
		baseURL:    strings.TrimRight(baseURL, "/"),
		httpClient: httpClient,
	}
}

func (c *Client) FetchPosts(ctx context.Context, filter models.ListFilter) (*models.PostsPage, error) {
	query := url.Values{}
	query.Set("limit", strconv.Itoa(filter.Limit))
	query.Set("skip", strconv.Itoa(filter.Skip))
	if filter.SortBy != "" {
		query.Set("sortBy", filter.SortBy)
	}
	if filter.SortOrder != "" {
		query.Set("order", filter.SortOrder)
	}
	return call(ctx, c, OpFetchPosts, http.MethodGet, "/api/posts?"+query.Encode(), nil, &models.PostsPage{})
}

func (c *Client) FetchPostsByTag(ctx context.Context, tag string, limit, skip int) (*models.PostsPage, error) {
	query := url.Values{}
	query.Set("limit", strconv.Itoa(limit))
	query.Set("skip", strconv.Itoa(skip))
	path := fmt.Sprintf("/api/posts/tag/%s?%s", url.PathEscape(tag), query.Encode())
	return call(ctx, c, OpFetchPostsByTag, http.MethodGet, path, nil, &models.PostsPage{})
}

func (c *Client) SearchPosts(ctx context.Context, q string) (*models.PostsPage, error) {
	query := url.Values{}
	query.Set("q", q)
	return call(ctx, c, OpSearchPosts, http.MethodGet, "/api/posts/search?"+query.Encode(), nil, &models.PostsPage{})
}

func (c *Client) FetchTags(ctx context.Context) ([]models.Tag, error) {
	tags, err := call(ctx, c, OpFetchTags, http.MethodGet, "/api/posts/tags", nil, &[]models.Tag{})
	if err != nil {
		return nil, err
	}
	return *tags, nil
}

func (c *Client) AddPost(ctx context.Context, post models.NewPost) (*models.Post, error) {
	return call(ctx, c, OpAddPost, http.MethodPost, "/api/posts/add", post, &models.Post{})
}

func (c *Client) UpdatePost(ctx context.Context, post models.Post) (*models.Post, error) {
	path := fmt.Sprintf("/api/posts/%d", post.ID)
	return call(ctx, c, OpUpdatePost, http.MethodPut, path, post, &models.Post{})
}

func (c *Client) DeletePost(ctx context.Context, id int) error {
	_, err := c.do(ctx, OpDeletePost, http.MethodDelete, fmt.Sprintf("/api/posts/%d", id), nil)
	return err
}

func (c *Client) FetchComments(ctx context.Context, postID int) (*models.CommentsPage, error) {
	path := fmt.Sprintf("/api/comments/post/%d", postID)
	return call(ctx, c, OpFetchComments, http.MethodGet, path, nil, &models.CommentsPage{})
}

func (c *Client) AddComment(ctx context.Context, comment models.NewComment) (*models.Comment, error) {
	return call(ctx, c, OpAddComment, http.MethodPost, "/api/comments/add", comment, &models.Comment{})
}

func (c *Client) UpdateComment(ctx context.Context, id int, body string) (*models.Comment, error) {
	args := struct {
		Body string `json:"body"`
	}{Body: body}
	path := fmt.Sprintf("/api/comments/%d", id)
	return call(ctx, c, OpUpdateComment, http.MethodPut, path, args, &models.Comment{})
}

// LikeComment writes an absolute like count; the caller decides the value.
func (c *Client) LikeComment(ctx context.Context, id int, likes int) (*models.Comment, error) {
	args := struct {
		Likes int `json:"likes"`
	}{Likes: likes}
	path := fmt.Sprintf("/api/comments/%d", id)
	return call(ctx, c, OpLikeComment, http.MethodPatch, path, args, &models.Comment{})
}

func (c *Client) DeleteComment(ctx context.Context, id int) error {
	_, err := c.do(ctx, OpDeleteComment, http.MethodDelete, fmt.Sprintf("/api/comments/%d", id), nil)
	return err
}

func (c *Client) FetchUsers(ctx context.Context) (*models.UsersPage, error) {
	return call(ctx, c, OpFetchUsers, http.MethodGet, "/api/users?limit=0&select=username,image", nil, &models.UsersPage{})
}

func (c *Client) FetchUser(ctx context.Context, id int) (*models.User, error) {
	path := fmt.Sprintf("/api/users/%d", id)
	return call(ctx, c, OpFetchUser, http.MethodGet, path, nil, &models.User{})
}

func call[R any](ctx context.Context, c *Client, op Op, method string, path string, args any, result R) (R, error) {
	responseBodyBytes, err := c.do(ctx, op, method, path, args)
	if err != nil {
		var empty R
		return empty, err
	}

	err = json.Unmarshal(responseBodyBytes, result)
	if err != nil {
		glog.Warningf("[remote]%s decode failed: %v\n", op, err)
		var empty R
		return empty, newFailure(op, http.StatusOK, err)
	}
	return result, nil
}

func (c *Client) do(ctx context.Context, op Op, method string, path string, args any) ([]byte, error) {
	var body io.Reader
	if args != nil {
		requestBodyBytes, err := json.Marshal(args)
		if err != nil {
			return nil, newFailure(op, 0, err)
		}
		body = bytes.NewReader(requestBodyBytes)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, body)
	if err != nil {
		return nil, newFailure(op, 0, err)
	}
	if args != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	req.Header.Set("Accept", "application/json")

	glog.V(1).Infof("[remote]%s %s %s\n", op, method, path)

	r, err := c.httpClient.Do(req)
	if err != nil {
		glog.V(1).Infof("[remote]%s transport error: %v\n", op, err)
		return nil, newFailure(op, 0, err)
	}
	defer r.Body.Close()

	responseBodyBytes, err := io.ReadAll(r.Body)

	if r.StatusCode < 200 || 300 <= r.StatusCode {
		glog.Warningf("[remote]%s %s %s status=%d\n", op, method, path, r.StatusCode)
		return nil, newFailure(op, r.StatusCode, fmt.Errorf("unexpected status %d", r.StatusCode))
	}
	if err != nil {
		return nil, newFailure(op, r.StatusCode, err)
	}
	return responseBodyBytes, nil
}
