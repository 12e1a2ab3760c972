package models

import (
	"fmt"
	"net/url"
	"strconv"
	"strings"
)

// QueryKey addresses one cached collection or item. Segments go from the
// entity kind to the most specific scope, so a shorter key matches every
// longer key it prefixes.
type QueryKey []string

func (k QueryKey) String() string {
	parts := make([]string, len(k))
	for i, s := range k {
		parts[i] = url.PathEscape(s)
	}
	return strings.Join(parts, "/")
}

func (k QueryKey) HasPrefix(prefix QueryKey) bool {
	if len(prefix) > len(k) {
		return false
	}
	for i := range prefix {
		if k[i] != prefix[i] {
			return false
		}
	}
	return true
}

var (
	PostsKey     = QueryKey{"posts"}
	PostListsKey = QueryKey{"posts", "list"}
	TagsKey      = QueryKey{"tags"}
	CommentsKey  = QueryKey{"comments"}
	UsersKey     = QueryKey{"users"}
	UsersListKey = QueryKey{"users", "list"}
)

func PostListKey(f ListFilter) QueryKey {
	scope := fmt.Sprintf("limit=%d&skip=%d&sortBy=%s&sortOrder=%s", f.Limit, f.Skip, f.SortBy, f.SortOrder)
	return QueryKey{"posts", "list", scope}
}

func PostSearchKey(query string) QueryKey {
	return QueryKey{"posts", "search", query}
}

func PostsByTagKey(tag string, limit, skip int) QueryKey {
	return QueryKey{"posts", "tag", tag, fmt.Sprintf("limit=%d&skip=%d", limit, skip)}
}

func CommentsByPostKey(postID int) QueryKey {
	return QueryKey{"comments", "post", strconv.Itoa(postID)}
}

func UserKey(id int) QueryKey {
	return QueryKey{"users", "detail", strconv.Itoa(id)}
}
