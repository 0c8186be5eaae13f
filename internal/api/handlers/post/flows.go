package post

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log"
	"net/http"
	"strings"

	"FindIt/internal/core/identity"
	"FindIt/internal/core/images"
	"FindIt/internal/core/lifecycle"
)

const (
	// MaxImageSize is the largest accepted photo upload
	MaxImageSize = 10 * 1024 * 1024

	// maxBodySize leaves room for the text fields around the image
	maxBodySize = MaxImageSize + 1024*1024

	multipartMemory = 2 * 1024 * 1024
)

// Flows is the lifecycle controller surface the handlers drive.
// *lifecycle.Controller satisfies it.
type Flows interface {
	Create(ctx context.Context, form *lifecycle.Form, actor *identity.Identity, in lifecycle.CreateInput, feed lifecycle.FeedState) (string, error)
	Edit(ctx context.Context, form *lifecycle.Form, actor *identity.Identity, postID string, in lifecycle.EditInput, feed lifecycle.FeedState) error
	Delete(ctx context.Context, form *lifecycle.Form, actor *identity.Identity, postID string, confirmed bool, feed lifecycle.FeedState) error
}

var errBodyTooLarge = errors.New("request body too large")

// parseForm reads a multipart or urlencoded post form
func parseForm(w http.ResponseWriter, r *http.Request) error {
	r.Body = http.MaxBytesReader(w, r.Body, maxBodySize)

	var err error
	if strings.HasPrefix(r.Header.Get("Content-Type"), "multipart/form-data") {
		err = r.ParseMultipartForm(multipartMemory)
	} else {
		err = r.ParseForm()
	}
	if err != nil {
		var maxErr *http.MaxBytesError
		if errors.As(err, &maxErr) {
			return errBodyTooLarge
		}
		return err
	}
	return nil
}

// removeForm deletes any temporary files a multipart parse spilled to disk
func removeForm(r *http.Request) {
	if r.MultipartForm == nil {
		return
	}
	if err := r.MultipartForm.RemoveAll(); err != nil {
		log.Printf("Warning: failed to remove multipart temp files: %v", err)
	}
}

// readImage returns the uploaded "image" part, or nil when none was selected
func readImage(r *http.Request) (*images.File, error) {
	if r.MultipartForm == nil {
		return nil, nil
	}
	file, header, err := r.FormFile("image")
	if errors.Is(err, http.ErrMissingFile) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	defer file.Close()

	if header.Size > MaxImageSize {
		return nil, errBodyTooLarge
	}
	data, err := io.ReadAll(io.LimitReader(file, MaxImageSize+1))
	if err != nil {
		return nil, fmt.Errorf("failed to read image: %w", err)
	}
	if len(data) > MaxImageSize {
		return nil, errBodyTooLarge
	}
	if len(data) == 0 {
		return nil, nil
	}
	return &images.File{Name: header.Filename, Data: data}, nil
}

func writeFormError(w http.ResponseWriter, err error) {
	if errors.Is(err, errBodyTooLarge) {
		writeError(w, http.StatusRequestEntityTooLarge, "RequestTooLarge",
			"Image too large (max 10MB)")
		return
	}
	writeError(w, http.StatusBadRequest, "InvalidRequest", "Invalid form body")
}
