package routes

import (
	"FindIt/internal/api/middleware"
	"FindIt/internal/core/identity"
	"FindIt/internal/core/users"
	"FindIt/internal/web"

	"github.com/go-chi/chi/v5"
)

// RegisterWebRoutes registers the FindIt pages.
// The feed and profile pages wait for the session identity and redirect to /login without one.
func RegisterWebRoutes(r chi.Router, provider identity.Provider, sessions web.SessionBinder, userService users.UserService) error {
	templates, err := web.NewTemplates()
	if err != nil {
		return err
	}

	handlers := web.NewHandlers(templates, provider, sessions, userService)
	gate := middleware.NewPageGate("/login")

	r.Get("/login", handlers.LoginPageHandler)
	r.Post("/login", handlers.LoginSubmitHandler)
	r.Get("/register", handlers.RegisterPageHandler)
	r.Post("/register", handlers.RegisterSubmitHandler)
	r.Post("/password-reset", handlers.PasswordResetHandler)
	r.Post("/logout", handlers.LogoutHandler)

	r.With(gate.Require).Get("/", handlers.FeedHandler)
	r.With(gate.Require).Get("/profile", handlers.ProfileHandler)
	return nil
}
