package routes

import (
	"github.com/gorilla/mux"
	"masterboxer.com/posts-admin/handlers"
	"masterboxer.com/posts-admin/queries"
)

func NewRouter(client *queries.Client, auth *handlers.Authenticator) *mux.Router {
	router := mux.NewRouter()

	CreateAuthRoutes(auth, router)
	CreatePostRoutes(client, auth, router)
	CreateUserRoutes(client, router)

	return router
}
