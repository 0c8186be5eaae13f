package post

import (
	"encoding/json"
	"errors"
	"log"
	"net/http"

	"FindIt/internal/core/images"
	"FindIt/internal/core/lifecycle"
	"FindIt/internal/core/posts"
)

type errorResponse struct {
	Error   string `json:"error"`
	Message string `json:"message"`
}

// writeError writes a JSON error response
func writeError(w http.ResponseWriter, statusCode int, errorType, message string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)
	if err := json.NewEncoder(w).Encode(errorResponse{
		Error:   errorType,
		Message: message,
	}); err != nil {
		log.Printf("Failed to encode error response: %v", err)
	}
}

func writeJSON(w http.ResponseWriter, statusCode int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		log.Printf("Failed to encode post response: %v", err)
	}
}

// handleFlowError maps lifecycle errors to HTTP responses.
// The message is the form message the flow would show.
func handleFlowError(w http.ResponseWriter, err error) {
	message := lifecycle.UserMessage(err)

	switch {
	case errors.Is(err, lifecycle.ErrNotAuthenticated):
		writeError(w, http.StatusUnauthorized, "AuthenticationRequired", "Sign in required")

	case errors.Is(err, lifecycle.ErrNotConfirmed):
		writeError(w, http.StatusBadRequest, "ConfirmationRequired",
			"Deleting a post must be confirmed with confirm=true")

	case errors.Is(err, lifecycle.ErrSubmissionInProgress):
		writeError(w, http.StatusConflict, "SubmissionInProgress",
			"A submission for this form is already in progress")

	case errors.Is(err, posts.ErrNotAuthorized):
		writeError(w, http.StatusForbidden, "NotAuthorized", message)

	case errors.Is(err, posts.ErrNotFound):
		writeError(w, http.StatusNotFound, "NotFound", message)

	case posts.IsValidationError(err):
		writeError(w, http.StatusBadRequest, "InvalidRequest", message)

	case images.IsUploadError(err):
		writeError(w, http.StatusBadGateway, "UploadFailed", message)

	case posts.IsWriteError(err), posts.IsReadError(err):
		writeError(w, http.StatusBadGateway, "StoreUnavailable", message)

	default:
		// Don't leak internal error details to clients
		log.Printf("Unexpected error in post handler: %v", err)
		writeError(w, http.StatusInternalServerError, "InternalServerError",
			"An internal error occurred")
	}
}
