package post

import (
	"net/http"

	"FindIt/internal/api/middleware"
	"FindIt/internal/core/posts"
)

// ListHandler serves the feed
type ListHandler struct{}

// NewListHandler creates a new list handler
func NewListHandler() *ListHandler {
	return &ListHandler{}
}

type listResponse struct {
	Posts []*posts.Post `json:"posts"`
}

// HandleList handles GET /api/posts
// Fetches the feed into the session's state and returns it. A failed fetch
// leaves the previous posts in place, so the response is never an error.
func (h *ListHandler) HandleList(w http.ResponseWriter, r *http.Request) {
	s := middleware.GetSession(r)
	if s == nil {
		writeError(w, http.StatusInternalServerError, "InternalServerError", "An internal error occurred")
		return
	}

	s.State.FetchPosts(r.Context())
	writeJSON(w, http.StatusOK, listResponse{Posts: s.State.Snapshot().Posts})
}
