package routes

import (
	"net/http"

	"FindIt/internal/api/handlers/appstate"
	"FindIt/internal/api/handlers/profile"
	"FindIt/internal/api/middleware"
	"FindIt/internal/core/users"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/cors"
)

// RegisterProfileRoutes registers the profile endpoint
func RegisterProfileRoutes(r chi.Router, userService users.UserService) {
	getHandler := profile.NewGetHandler(userService)
	r.With(middleware.RequireAuth).Get("/api/profile", getHandler.HandleGet)
}

// RegisterStateRoutes registers the application state and modal endpoints.
// State is per session and readable before sign-in.
func RegisterStateRoutes(r chi.Router) {
	handler := appstate.NewHandler()

	r.Get("/api/state", handler.HandleGet)
	r.Post("/api/state/refresh", handler.HandleRefresh)
	r.Post("/api/modals/{modal}/{action}", handler.HandleModal)
}

// CORSMiddleware allows a separately hosted frontend to call the JSON API with cookies
func CORSMiddleware(allowedOrigins []string) func(next http.Handler) http.Handler {
	return cors.Handler(cors.Options{
		AllowedOrigins: allowedOrigins,
		AllowedMethods: []string{"GET", "POST", "PATCH", "DELETE", "OPTIONS"},
		AllowedHeaders: []string{
			"Accept",
			"Content-Type",
			"X-CSRF-Token",
		},
		AllowCredentials: true,
		MaxAge:           300, // 5 minutes
	})
}
