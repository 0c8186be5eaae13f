package lifecycle

import (
	"errors"

	"FindIt/internal/core/images"
	"FindIt/internal/core/posts"
)

var (
	// ErrSubmissionInProgress is returned when a form is submitted while a previous submission is unresolved
	ErrSubmissionInProgress = errors.New("submission already in progress")

	// ErrNotAuthenticated is returned when a flow runs without a signed-in identity
	ErrNotAuthenticated = errors.New("sign in required")

	// ErrNotConfirmed is returned when a delete is attempted without confirmation
	ErrNotConfirmed = errors.New("delete not confirmed")
)

// User-facing messages
const (
	MsgCreateInvalid = "Please provide title, image, and description."
	MsgEditInvalid   = "Please provide both title and description."
	MsgCreateFailed  = "Failed to create post: "
	MsgUpdateFailed  = "Failed to update post: "
	MsgDeleteFailed  = "Failed to delete post. Please try again."
)

// FlowError is returned when a lifecycle flow fails. Message is safe to show
// to the user; Err carries the underlying kind for status mapping.
type FlowError struct {
	Err     error
	Message string
}

func (e *FlowError) Error() string {
	return e.Message
}

func (e *FlowError) Unwrap() error {
	return e.Err
}

// UserMessage returns the form message for err, or a generic one
func UserMessage(err error) string {
	var flowErr *FlowError
	if errors.As(err, &flowErr) {
		return flowErr.Message
	}
	return "Something went wrong. Please try again."
}

// describe renders an error kind without exposing store or provider internals
func describe(err error) string {
	switch {
	case images.IsUploadError(err):
		return "image upload failed"
	case errors.Is(err, posts.ErrNotAuthorized):
		return "you can only change your own posts"
	case errors.Is(err, posts.ErrNotFound):
		return "the post no longer exists"
	case posts.IsValidationError(err):
		var valErr *posts.ValidationError
		errors.As(err, &valErr)
		return valErr.Message
	case posts.IsWriteError(err), posts.IsReadError(err):
		return "the post store is unavailable"
	default:
		return "unexpected error"
	}
}
