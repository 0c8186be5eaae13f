package profile

import (
	"errors"
	"log"
	"net/http"

	"FindIt/internal/api/handlers"
	"FindIt/internal/api/middleware"
	"FindIt/internal/core/users"
)

// GetHandler serves the signed-in user's profile
type GetHandler struct {
	service users.UserService
}

// NewGetHandler creates a new profile handler
func NewGetHandler(service users.UserService) *GetHandler {
	return &GetHandler{
		service: service,
	}
}

// ProfileResponse is the profile card with any counter bumps still pending
type ProfileResponse struct {
	*users.User
	Pending []users.PendingIncrement `json:"pending,omitempty"`
}

// HandleGet handles GET /api/profile
func (h *GetHandler) HandleGet(w http.ResponseWriter, r *http.Request) {
	actor := middleware.GetIdentity(r)
	if actor == nil {
		handlers.WriteError(w, http.StatusUnauthorized, "AuthenticationRequired", "Sign in required")
		return
	}

	user, err := h.service.GetProfile(r.Context(), actor.UID)
	if err != nil {
		if errors.Is(err, users.ErrUserNotFound) {
			handlers.WriteError(w, http.StatusNotFound, "ProfileNotFound", "No profile exists for this account")
			return
		}
		log.Printf("[PROFILE] Failed to load profile for %s: %v", actor.UID, err)
		handlers.WriteError(w, http.StatusBadGateway, "StoreUnavailable", "Failed to load profile")
		return
	}

	handlers.WriteJSON(w, http.StatusOK, ProfileResponse{
		User:    user,
		Pending: h.service.PendingIncrements(actor.UID),
	})
}
