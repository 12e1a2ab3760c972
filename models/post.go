package models

type Reactions struct {
	Likes    int `json:"likes"`
	Dislikes int `json:"dislikes"`
}

type Post struct {
	ID        int       `json:"id"`
	Title     string    `json:"title"`
	Body      string    `json:"body"`
	UserID    int       `json:"userId"`
	Tags      []string  `json:"tags"`
	Reactions Reactions `json:"reactions"`
	Views     int       `json:"views"`
}

type PostsPage struct {
	Posts []Post `json:"posts"`
	Total int    `json:"total"`
	Skip  int    `json:"skip"`
	Limit int    `json:"limit"`
}

type NewPost struct {
	Title  string `json:"title"`
	Body   string `json:"body"`
	UserID int    `json:"userId"`
}

type Tag struct {
	Slug string `json:"slug"`
	Name string `json:"name"`
	URL  string `json:"url"`
}

// PostWithAuthor is a post row joined with the summary of its owner.
// Author is nil when the owner is not in the cached user list.
type PostWithAuthor struct {
	Post
	Author *UserSummary `json:"author,omitempty"`
}

type PostsView struct {
	Posts      []PostWithAuthor `json:"posts"`
	Pagination Pagination       `json:"pagination"`
	Filter     PostFilter       `json:"filter"`
}

// ListFilter addresses one page of the plain post list.
type ListFilter struct {
	Limit     int    `json:"limit"`
	Skip      int    `json:"skip"`
	SortBy    string `json:"sortBy,omitempty"`
	SortOrder string `json:"sortOrder,omitempty"`
}
