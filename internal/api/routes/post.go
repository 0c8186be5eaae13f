package routes

import (
	"FindIt/internal/api/handlers/post"
	"FindIt/internal/api/middleware"

	"github.com/go-chi/chi/v5"
)

// RegisterPostRoutes registers the feed and post lifecycle endpoints
// Every endpoint requires a signed-in identity
func RegisterPostRoutes(r chi.Router, flows post.Flows) {
	listHandler := post.NewListHandler()
	createHandler := post.NewCreateHandler(flows)
	updateHandler := post.NewUpdateHandler(flows)
	deleteHandler := post.NewDeleteHandler(flows)

	r.Route("/api/posts", func(r chi.Router) {
		r.Use(middleware.RequireAuth)

		r.Get("/", listHandler.HandleList)
		r.Post("/", createHandler.HandleCreate)

		// Only the creator may edit or delete; enforced again by the post service
		r.Patch("/{id}", updateHandler.HandleUpdate)
		r.Delete("/{id}", deleteHandler.HandleDelete)
	})
}
