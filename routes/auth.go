package routes

import (
	"github.com/gorilla/mux"
	"masterboxer.com/posts-admin/handlers"
)

func CreateAuthRoutes(auth *handlers.Authenticator, router *mux.Router) *mux.Router {

	router.HandleFunc("/auth/login", handlers.Login(auth)).Methods("POST")

	return router
}
