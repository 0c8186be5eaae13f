package images

import (
	"context"
	"errors"
	"fmt"
)

// File is an image selected in a create or edit form
type File struct {
	Name string
	Data []byte
}

// Upload is the result of a successful transfer to the image store
type Upload struct {
	// URL is the durable https URL stored on the post
	URL string `json:"secure_url"`

	PublicID string `json:"public_id"`

	// DeleteToken is present only when the upload preset returns one
	DeleteToken string `json:"delete_token,omitempty"`
}

// Uploader defines the interface for image hosting
type Uploader interface {
	// Upload transfers file to the image store and returns its durable URL.
	// No retry, no chunking, and no client-side size or type checks.
	Upload(ctx context.Context, file File) (*Upload, error)

	// Discard removes an upload that no post references.
	// It is a no-op when the upload carries no delete token.
	Discard(ctx context.Context, upload *Upload) error
}

// UploadError is returned when the image store rejects an upload or cannot be reached.
// StatusCode is zero for transport failures.
type UploadError struct {
	Err        error
	Message    string
	StatusCode int
}

func (e *UploadError) Error() string {
	if e.StatusCode != 0 {
		return fmt.Sprintf("image upload failed (%d): %s", e.StatusCode, e.Message)
	}
	return fmt.Sprintf("image upload failed: %s", e.Message)
}

func (e *UploadError) Unwrap() error {
	return e.Err
}

// IsUploadError checks if err is an image store failure
func IsUploadError(err error) bool {
	var upErr *UploadError
	return errors.As(err, &upErr)
}
