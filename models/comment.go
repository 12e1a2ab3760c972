package models

type CommentAuthor struct {
	ID       int    `json:"id"`
	Username string `json:"username"`
	FullName string `json:"fullName"`
	Image    string `json:"image,omitempty"`
}

type Comment struct {
	ID     int           `json:"id"`
	Body   string        `json:"body"`
	PostID int           `json:"postId"`
	Likes  int           `json:"likes"`
	User   CommentAuthor `json:"user"`
}

type CommentsPage struct {
	Comments []Comment `json:"comments"`
	Total    int       `json:"total"`
	Skip     int       `json:"skip"`
	Limit    int       `json:"limit"`
}

type NewComment struct {
	Body   string `json:"body"`
	PostID int    `json:"postId"`
	UserID int    `json:"userId"`
}
