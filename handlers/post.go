package handlers

import (
	"encoding/json"
	"errors"
	"log"
	"net/http"

	"masterboxer.com/posts-admin/models"
	"masterboxer.com/posts-admin/queries"
)

type PostRow struct {
	models.PostWithAuthor
	TitleSegments []Segment `json:"titleSegments"`
}

type PaginationView struct {
	models.Pagination
	Page        int    `json:"page"`
	IsFirstPage bool   `json:"isFirstPage"`
	IsLastPage  bool   `json:"isLastPage"`
	PrevSkip    int    `json:"prevSkip"`
	NextSkip    int    `json:"nextSkip"`
	// console query strings for the neighbouring pages
	PrevQuery   string `json:"prevQuery"`
	NextQuery   string `json:"nextQuery"`
}

type PostsResponse struct {
	Posts      []PostRow         `json:"posts"`
	Pagination PaginationView    `json:"pagination"`
	Filter     models.PostFilter `json:"filter"`
	Query      string            `json:"query"`
}

func GetPosts(client *queries.Client) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		filter := models.ParsePostFilter(r.URL.Query())

		view, err := client.BrowsePosts(r.Context(), filter)
		if errors.Is(err, queries.ErrQueryDisabled) {
			view = &models.PostsView{
				Posts:      []models.PostWithAuthor{},
				Pagination: models.Pagination{Limit: filter.Limit, Skip: filter.Skip},
				Filter:     filter,
			}
		} else if err != nil {
			writeError(w, err, "Failed to load posts")
			return
		}

		rows := make([]PostRow, 0, len(view.Posts))
		for _, post := range view.Posts {
			rows = append(rows, PostRow{
				PostWithAuthor: post,
				TitleSegments:  Highlight(post.Title, filter.Search),
			})
		}

		writeJSON(w, http.StatusOK, PostsResponse{
			Posts: rows,
			Pagination: PaginationView{
				Pagination:  view.Pagination,
				Page:        view.Pagination.Page(),
				IsFirstPage: view.Pagination.IsFirstPage(),
				IsLastPage:  view.Pagination.IsLastPage(),
				PrevSkip:    view.Pagination.PrevSkip(),
				NextSkip:    view.Pagination.NextSkip(),
				PrevQuery:   view.Filter.WithPage(view.Pagination.PrevSkip()).Encode().Encode(),
				NextQuery:   view.Filter.WithPage(view.Pagination.NextSkip()).Encode().Encode(),
			},
			Filter: view.Filter,
			Query:  view.Filter.Encode().Encode(),
		})
	}
}

func GetTags(client *queries.Client) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		tags, err := client.Posts.Tags(r.Context())
		if err != nil {
			writeError(w, err, "Failed to load tags")
			return
		}
		if tags == nil {
			tags = []models.Tag{}
		}
		writeJSON(w, http.StatusOK, tags)
	}
}

func CreatePost(client *queries.Client) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var p models.NewPost
		if err := json.NewDecoder(r.Body).Decode(&p); err != nil {
			http.Error(w, "Invalid request body", http.StatusBadRequest)
			return
		}

		if p.Title == "" {
			http.Error(w, "title is required", http.StatusBadRequest)
			return
		}
		if p.UserID == 0 {
			http.Error(w, "userId is required", http.StatusBadRequest)
			return
		}

		post, err := client.Posts.Add(r.Context(), p)
		if err != nil {
			writeError(w, err, "Failed to create post")
			return
		}

		log.Printf("CreatePost created post %d for user %d", post.ID, post.UserID)
		writeJSON(w, http.StatusCreated, post)
	}
}

func UpdatePost(client *queries.Client) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id, ok := pathID(r, "id")
		if !ok {
			http.Error(w, "Invalid post ID", http.StatusBadRequest)
			return
		}

		var p models.Post
		if err := json.NewDecoder(r.Body).Decode(&p); err != nil {
			http.Error(w, "Invalid request body", http.StatusBadRequest)
			return
		}
		p.ID = id

		if p.Title == "" {
			http.Error(w, "title is required", http.StatusBadRequest)
			return
		}

		post, err := client.Posts.Update(r.Context(), p)
		if err != nil {
			writeError(w, err, "Failed to update post")
			return
		}

		writeJSON(w, http.StatusOK, post)
	}
}

func DeletePost(client *queries.Client) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id, ok := pathID(r, "id")
		if !ok {
			http.Error(w, "Invalid post ID", http.StatusBadRequest)
			return
		}

		if err := client.Posts.Delete(r.Context(), id); err != nil {
			writeError(w, err, "Failed to delete post")
			return
		}

		writeJSON(w, http.StatusOK, map[string]string{"message": "Post deleted successfully"})
	}
}
