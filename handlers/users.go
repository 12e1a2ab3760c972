package handlers

import (
	"net/http"

	"masterboxer.com/posts-admin/models"
	"masterboxer.com/posts-admin/queries"
)

func GetUsers(client *queries.Client) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		page, err := client.Users.List(r.Context())
		if err != nil {
			writeError(w, err, "Failed to load users")
			return
		}
		if page == nil {
			page = &models.UsersPage{Users: []models.UserSummary{}}
		}

		writeJSON(w, http.StatusOK, page)
	}
}

func GetUserById(client *queries.Client) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id, ok := pathID(r, "id")
		if !ok {
			http.Error(w, "Invalid user ID", http.StatusBadRequest)
			return
		}

		u, err := client.Users.Get(r.Context(), id)
		if err != nil {
			writeError(w, err, "Failed to load user")
			return
		}
		if u == nil {
			http.Error(w, "User not found", http.StatusNotFound)
			return
		}

		writeJSON(w, http.StatusOK, u)
	}
}
