package handlers

import (
	"encoding/json"
	"errors"
	"net/http"

	"masterboxer.com/posts-admin/models"
	"masterboxer.com/posts-admin/queries"
)

func GetPostComments(client *queries.Client) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		postID, ok := pathID(r, "postId")
		if !ok {
			http.Error(w, "Invalid post ID", http.StatusBadRequest)
			return
		}

		page, err := client.Comments.ByPost(r.Context(), postID)
		if errors.Is(err, queries.ErrQueryDisabled) || (err == nil && page == nil) {
			page = &models.CommentsPage{Comments: []models.Comment{}}
		} else if err != nil {
			writeError(w, err, "Failed to load comments")
			return
		}

		writeJSON(w, http.StatusOK, page)
	}
}

func CreateComment(client *queries.Client) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		postID, ok := pathID(r, "postId")
		if !ok {
			http.Error(w, "Invalid post ID", http.StatusBadRequest)
			return
		}

		var c models.NewComment
		if err := json.NewDecoder(r.Body).Decode(&c); err != nil {
			http.Error(w, "Invalid request body", http.StatusBadRequest)
			return
		}
		c.PostID = postID

		if c.Body == "" {
			http.Error(w, "body is required", http.StatusBadRequest)
			return
		}

		comment, err := client.Comments.Add(r.Context(), c)
		if err != nil {
			writeError(w, err, "Failed to create comment")
			return
		}

		writeJSON(w, http.StatusCreated, comment)
	}
}

func UpdateComment(client *queries.Client) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		postID, ok := pathID(r, "postId")
		if !ok {
			http.Error(w, "Invalid post ID", http.StatusBadRequest)
			return
		}
		id, ok := pathID(r, "id")
		if !ok {
			http.Error(w, "Invalid comment ID", http.StatusBadRequest)
			return
		}

		var req struct {
			Body string `json:"body"`
		}
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			http.Error(w, "Invalid request body", http.StatusBadRequest)
			return
		}
		if req.Body == "" {
			http.Error(w, "body is required", http.StatusBadRequest)
			return
		}

		comment, err := client.Comments.Update(r.Context(), queries.UpdateComment{ID: id, PostID: postID, Body: req.Body})
		if err != nil {
			writeError(w, err, "Failed to update comment")
			return
		}

		writeJSON(w, http.StatusOK, comment)
	}
}

// LikeComment expects the like count the console was showing when the
// button was pressed.
func LikeComment(client *queries.Client) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		postID, ok := pathID(r, "postId")
		if !ok {
			http.Error(w, "Invalid post ID", http.StatusBadRequest)
			return
		}
		id, ok := pathID(r, "id")
		if !ok {
			http.Error(w, "Invalid comment ID", http.StatusBadRequest)
			return
		}

		var req struct {
			CurrentLikes int `json:"currentLikes"`
		}
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			http.Error(w, "Invalid request body", http.StatusBadRequest)
			return
		}

		comment, err := client.Comments.Like(r.Context(), queries.LikeComment{ID: id, PostID: postID, CurrentLikes: req.CurrentLikes})
		if err != nil {
			writeError(w, err, "Failed to like comment")
			return
		}

		writeJSON(w, http.StatusOK, comment)
	}
}

func DeleteComment(client *queries.Client) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		postID, ok := pathID(r, "postId")
		if !ok {
			http.Error(w, "Invalid post ID", http.StatusBadRequest)
			return
		}
		id, ok := pathID(r, "id")
		if !ok {
			http.Error(w, "Invalid comment ID", http.StatusBadRequest)
			return
		}

		if err := client.Comments.Delete(r.Context(), id, postID); err != nil {
			writeError(w, err, "Failed to delete comment")
			return
		}

		writeJSON(w, http.StatusOK, map[string]string{"message": "Comment deleted successfully"})
	}
}
