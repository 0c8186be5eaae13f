package post

import (
	"net/http"

	"FindIt/internal/api/middleware"
	"FindIt/internal/core/lifecycle"

	"github.com/go-chi/chi/v5"
)

// UpdateHandler handles owner edits
type UpdateHandler struct {
	flows Flows
}

// NewUpdateHandler creates a new update handler
func NewUpdateHandler(flows Flows) *UpdateHandler {
	return &UpdateHandler{
		flows: flows,
	}
}

// HandleUpdate handles PATCH /api/posts/{id}
// An omitted image keeps the current one
func (h *UpdateHandler) HandleUpdate(w http.ResponseWriter, r *http.Request) {
	if err := parseForm(w, r); err != nil {
		writeFormError(w, err)
		return
	}
	defer removeForm(r)

	s := middleware.GetSession(r)
	actor := middleware.GetIdentity(r)
	if s == nil || actor == nil {
		writeError(w, http.StatusUnauthorized, "AuthenticationRequired", "Sign in required")
		return
	}

	postID := chi.URLParam(r, "id")
	if postID == "" {
		writeError(w, http.StatusBadRequest, "InvalidRequest", "post id is required")
		return
	}

	image, err := readImage(r)
	if err != nil {
		writeFormError(w, err)
		return
	}

	err = h.flows.Edit(r.Context(), s.EditForm(postID), actor, postID, lifecycle.EditInput{
		Image:       image,
		Title:       r.FormValue("title"),
		Description: r.FormValue("description"),
		Contact:     r.FormValue("contact"),
	}, s.State)
	if err != nil {
		handleFlowError(w, err)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}
