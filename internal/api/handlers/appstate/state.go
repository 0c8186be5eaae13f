package appstate

import (
	"net/http"

	"FindIt/internal/api/handlers"
	"FindIt/internal/api/middleware"
	"FindIt/internal/core/lifecycle"
	"FindIt/internal/core/posts"
	"FindIt/internal/core/state"

	"github.com/go-chi/chi/v5"
)

// Handler exposes the session's application state
type Handler struct{}

// NewHandler creates a new state handler
func NewHandler() *Handler {
	return &Handler{}
}

// StateResponse is the state snapshot plus the report form it drives
type StateResponse struct {
	state.Snapshot
	ReportForm lifecycle.FormStatus `json:"reportForm"`
}

func respond(w http.ResponseWriter, r *http.Request) {
	s := middleware.GetSession(r)
	handlers.WriteJSON(w, http.StatusOK, StateResponse{
		Snapshot:   s.State.Snapshot(),
		ReportForm: s.ReportForm().Status(),
	})
}

func (h *Handler) requireSession(w http.ResponseWriter, r *http.Request) bool {
	if middleware.GetSession(r) == nil {
		handlers.WriteError(w, http.StatusInternalServerError, "InternalServerError", "An internal error occurred")
		return false
	}
	return true
}

// HandleGet handles GET /api/state
func (h *Handler) HandleGet(w http.ResponseWriter, r *http.Request) {
	if !h.requireSession(w, r) {
		return
	}
	respond(w, r)
}

// HandleRefresh handles POST /api/state/refresh
func (h *Handler) HandleRefresh(w http.ResponseWriter, r *http.Request) {
	if !h.requireSession(w, r) {
		return
	}
	middleware.GetSession(r).State.RefreshPosts(r.Context())
	respond(w, r)
}

// HandleModal handles POST /api/modals/{modal}/{action}
// modal is logout or report; action is open or close.
// Opening the report modal takes ?type=lost|found and defaults to lost.
func (h *Handler) HandleModal(w http.ResponseWriter, r *http.Request) {
	if !h.requireSession(w, r) {
		return
	}
	s := middleware.GetSession(r)

	modal := chi.URLParam(r, "modal")
	action := chi.URLParam(r, "action")
	if action != "open" && action != "close" {
		handlers.WriteError(w, http.StatusBadRequest, "InvalidRequest", "action must be 'open' or 'close'")
		return
	}
	open := action == "open"

	switch modal {
	case "logout":
		if open {
			s.State.OpenLogoutModal()
		} else {
			s.State.CloseLogoutModal()
		}

	case "report":
		if !open {
			s.State.CloseReportModal()
			s.ReportForm().Close()
			break
		}
		t := posts.TypeLost
		if raw := r.URL.Query().Get("type"); raw != "" {
			parsed, err := posts.ParseItemType(raw)
			if err != nil {
				handlers.WriteError(w, http.StatusBadRequest, "InvalidRequest", "type must be 'lost' or 'found'")
				return
			}
			t = parsed
		}
		s.State.OpenReportModal(t)
		s.ReportForm().Open()

	default:
		handlers.WriteError(w, http.StatusNotFound, "NotFound", "unknown modal")
		return
	}

	respond(w, r)
}
