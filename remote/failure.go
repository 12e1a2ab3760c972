package remote

import (
	"errors"
	"fmt"
)

type Op string

const (
	OpFetchPosts      Op = "posts.fetch"
	OpFetchPostsByTag Op = "posts.fetch_by_tag"
	OpSearchPosts     Op = "posts.search"
	OpFetchTags       Op = "tags.fetch"
	OpAddPost         Op = "posts.add"
	OpUpdatePost      Op = "posts.update"
	OpDeletePost      Op = "posts.delete"
	OpFetchComments   Op = "comments.fetch"
	OpAddComment      Op = "comments.add"
	OpUpdateComment   Op = "comments.update"
	OpLikeComment     Op = "comments.like"
	OpDeleteComment   Op = "comments.delete"
	OpFetchUsers      Op = "users.fetch"
	OpFetchUser       Op = "users.fetch_one"
)

// Every failure is reported with the fixed message of its operation.
// Whatever the server put in the body is never surfaced.
var failureMessages = map[Op]string{
	OpFetchPosts:      "failed to fetch posts",
	OpFetchPostsByTag: "failed to fetch posts by tag",
	OpSearchPosts:     "failed to search posts",
	OpFetchTags:       "failed to fetch tags",
	OpAddPost:         "failed to add post",
	OpUpdatePost:      "failed to update post",
	OpDeletePost:      "failed to delete post",
	OpFetchComments:   "failed to fetch comments",
	OpAddComment:      "failed to add comment",
	OpUpdateComment:   "failed to update comment",
	OpLikeComment:     "failed to like comment",
	OpDeleteComment:   "failed to delete comment",
	OpFetchUsers:      "failed to fetch users",
	OpFetchUser:       "failed to fetch user",
}

// RemoteFailure is returned for a non-2xx response or a transport error.
// StatusCode is 0 when the request never got a response.
type RemoteFailure struct {
	Op         Op
	Message    string
	StatusCode int
	Err        error
}

func newFailure(op Op, statusCode int, err error) *RemoteFailure {
	message, ok := failureMessages[op]
	if !ok {
		message = fmt.Sprintf("%s failed", op)
	}
	return &RemoteFailure{
		Op:         op,
		Message:    message,
		StatusCode: statusCode,
		Err:        err,
	}
}

func (f *RemoteFailure) Error() string {
	return f.Message
}

func (f *RemoteFailure) Unwrap() error {
	return f.Err
}

func IsRemoteFailure(err error) bool {
	var failure *RemoteFailure
	return errors.As(err, &failure)
}
