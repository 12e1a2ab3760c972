package routes

import (
	"github.com/gorilla/mux"
	"masterboxer.com/posts-admin/handlers"
	"masterboxer.com/posts-admin/queries"
)

func CreateUserRoutes(client *queries.Client, router *mux.Router) *mux.Router {

	router.HandleFunc("/users", handlers.GetUsers(client)).Methods("GET")
	router.HandleFunc("/users/{id}", handlers.GetUserById(client)).Methods("GET")

	return router
}
