package routes

import (
	"github.com/gorilla/mux"
	"masterboxer.com/posts-admin/handlers"
	"masterboxer.com/posts-admin/queries"
)

func CreatePostRoutes(client *queries.Client, auth *handlers.Authenticator, router *mux.Router) *mux.Router {

	router.HandleFunc("/posts/tags", handlers.GetTags(client)).Methods("GET")
	router.HandleFunc("/posts", handlers.GetPosts(client)).Methods("GET")
	router.HandleFunc("/posts", handlers.RequireAdmin(auth, handlers.CreatePost(client))).Methods("POST")
	router.HandleFunc("/posts/{id}", handlers.RequireAdmin(auth, handlers.UpdatePost(client))).Methods("PUT")
	router.HandleFunc("/posts/{id}", handlers.RequireAdmin(auth, handlers.DeletePost(client))).Methods("DELETE")

	router.HandleFunc("/posts/{postId}/comments", handlers.GetPostComments(client)).Methods("GET")
	router.HandleFunc("/posts/{postId}/comments", handlers.RequireAdmin(auth, handlers.CreateComment(client))).Methods("POST")
	router.HandleFunc("/posts/{postId}/comments/{id}", handlers.RequireAdmin(auth, handlers.UpdateComment(client))).Methods("PUT")
	router.HandleFunc("/posts/{postId}/comments/{id}", handlers.RequireAdmin(auth, handlers.DeleteComment(client))).Methods("DELETE")
	router.HandleFunc("/posts/{postId}/comments/{id}/like", handlers.RequireAdmin(auth, handlers.LikeComment(client))).Methods("POST")

	return router
}
