package post

import (
	"net/http"
	"strconv"

	"FindIt/internal/api/middleware"

	"github.com/go-chi/chi/v5"
)

// DeleteHandler handles confirmed deletes
type DeleteHandler struct {
	flows Flows
}

// NewDeleteHandler creates a new delete handler
func NewDeleteHandler(flows Flows) *DeleteHandler {
	return &DeleteHandler{
		flows: flows,
	}
}

// HandleDelete handles DELETE /api/posts/{id}?confirm=true
func (h *DeleteHandler) HandleDelete(w http.ResponseWriter, r *http.Request) {
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

	confirmed, _ := strconv.ParseBool(r.URL.Query().Get("confirm"))

	if err := h.flows.Delete(r.Context(), s.DeleteForm(postID), actor, postID, confirmed, s.State); err != nil {
		handleFlowError(w, err)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}
