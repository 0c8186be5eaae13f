package post

import (
	"net/http"

	"FindIt/internal/api/middleware"
	"FindIt/internal/core/lifecycle"
	"FindIt/internal/core/posts"
)

// CreateHandler handles report submissions
type CreateHandler struct {
	flows Flows
}

// NewCreateHandler creates a new create handler
func NewCreateHandler(flows Flows) *CreateHandler {
	return &CreateHandler{
		flows: flows,
	}
}

type createResponse struct {
	ID string `json:"id"`
}

// HandleCreate handles POST /api/posts
// Accepts multipart/form-data with type, title, description, contact and image
func (h *CreateHandler) HandleCreate(w http.ResponseWriter, r *http.Request) {
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

	image, err := readImage(r)
	if err != nil {
		writeFormError(w, err)
		return
	}

	// The report type defaults to the one the report modal was opened with
	itemType := s.State.Snapshot().ReportType
	if raw := r.FormValue("type"); raw != "" {
		itemType = posts.ItemType(raw)
		if parsed, parseErr := posts.ParseItemType(raw); parseErr == nil {
			itemType = parsed
		}
	}

	id, err := h.flows.Create(r.Context(), s.ReportForm(), actor, lifecycle.CreateInput{
		Image:       image,
		Type:        itemType,
		Title:       r.FormValue("title"),
		Description: r.FormValue("description"),
		Contact:     r.FormValue("contact"),
	}, s.State)
	if err != nil {
		handleFlowError(w, err)
		return
	}

	writeJSON(w, http.StatusCreated, createResponse{ID: id})
}
