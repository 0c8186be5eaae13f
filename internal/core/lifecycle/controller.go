package lifecycle

import (
	"context"
	"errors"
	"log"
	"log/slog"
	"strings"

	"FindIt/internal/core/identity"
	"FindIt/internal/core/images"
	"FindIt/internal/core/posts"
)

// FeedState is the part of the application state a flow touches on completion.
// *state.Store satisfies it.
type FeedState interface {
	RefreshPosts(ctx context.Context)
	CloseReportModal()
}

// CounterReconciler queues counter increments that failed after a post was written.
// users.UserService satisfies it.
type CounterReconciler interface {
	DeferIncrement(uid string, t posts.ItemType)
}

// CreateInput is the submitted report form
type CreateInput struct {
	Image       *images.File
	Type        posts.ItemType
	Title       string
	Description string
	Contact     string
}

// EditInput is the submitted edit form. A nil Image keeps the current one.
type EditInput struct {
	Image       *images.File
	Title       string
	Description string
	Contact     string
}

// Controller orchestrates create, edit and delete
type Controller struct {
	posts    posts.Service
	images   images.Uploader
	counters CounterReconciler
}

// NewController creates a lifecycle controller
func NewController(postService posts.Service, uploader images.Uploader, counters CounterReconciler) *Controller {
	return &Controller{
		posts:    postService,
		images:   uploader,
		counters: counters,
	}
}

// Create runs the report flow
// Flow:
// 1. Validate title, description, image and type
// 2. Upload the image
// 3. Write the post (discard the upload if the write fails)
// 4. Increment the creator's counter (defer it if the increment fails)
// 5. Refresh the feed, reset the form and close the report modal
func (c *Controller) Create(ctx context.Context, form *Form, actor *identity.Identity, in CreateInput, feed FeedState) (string, error) {
	if actor == nil || actor.UID == "" {
		return "", ErrNotAuthenticated
	}
	if err := form.begin(); err != nil {
		return "", err
	}

	title := strings.TrimSpace(in.Title)
	description := strings.TrimSpace(in.Description)
	if title == "" || description == "" || in.Image == nil || len(in.Image.Data) == 0 {
		form.reject(MsgCreateInvalid)
		return "", &FlowError{Message: MsgCreateInvalid, Err: posts.NewValidationError("form", "title, image and description are required")}
	}
	if !in.Type.Valid() {
		form.reject(MsgCreateInvalid)
		return "", &FlowError{Message: MsgCreateInvalid, Err: posts.NewValidationError("type", "type must be 'lost' or 'found'")}
	}

	form.submit()

	upload, err := c.images.Upload(ctx, *in.Image)
	if err != nil {
		return "", c.failed(form, MsgCreateFailed, err)
	}

	id, err := c.posts.CreatePost(ctx, posts.NewPost{
		Type:         in.Type,
		Title:        title,
		Description:  description,
		Contact:      contactOrEmail(in.Contact, actor),
		ImageURL:     upload.URL,
		CreatorUID:   actor.UID,
		CreatorName:  actor.Name(),
		CreatorEmail: actor.Email,
	})
	if err != nil {
		c.discard(ctx, upload)
		return "", c.failed(form, MsgCreateFailed, err)
	}

	if err := c.posts.IncrementUserCount(ctx, actor.UID, in.Type); err != nil {
		log.Printf("[POST-CREATE] Counter increment failed for %s, deferring: %v", actor.UID, err)
		if c.counters != nil {
			c.counters.DeferIncrement(actor.UID, in.Type)
		}
	}

	feed.RefreshPosts(ctx)
	form.succeed()
	feed.CloseReportModal()
	return id, nil
}

// Edit runs the owner edit flow
// Flow:
// 1. Validate title and description
// 2. Load the post and check ownership
// 3. Upload the replacement image, if one was selected
// 4. Merge the edit (discard the new upload if the merge fails)
// 5. Refresh the feed and reset the form
func (c *Controller) Edit(ctx context.Context, form *Form, actor *identity.Identity, postID string, in EditInput, feed FeedState) error {
	if actor == nil || actor.UID == "" {
		return ErrNotAuthenticated
	}
	if err := form.begin(); err != nil {
		return err
	}

	title := strings.TrimSpace(in.Title)
	description := strings.TrimSpace(in.Description)
	if title == "" || description == "" {
		form.reject(MsgEditInvalid)
		return &FlowError{Message: MsgEditInvalid, Err: posts.NewValidationError("form", "title and description are required")}
	}

	form.submit()

	current, err := c.posts.GetPost(ctx, postID)
	if err != nil {
		return c.failed(form, MsgUpdateFailed, err)
	}
	if !current.IsOwnedBy(actor.UID) {
		return c.failed(form, MsgUpdateFailed, posts.ErrNotAuthorized)
	}

	contact := contactOrEmail(in.Contact, actor)
	patch := posts.PostPatch{
		Title:       &title,
		Description: &description,
		Contact:     &contact,
	}

	var upload *images.Upload
	if in.Image != nil && len(in.Image.Data) > 0 {
		upload, err = c.images.Upload(ctx, *in.Image)
		if err != nil {
			return c.failed(form, MsgUpdateFailed, err)
		}
		patch.ImageURL = &upload.URL
	}

	if err := c.posts.UpdatePost(ctx, actor.UID, postID, patch); err != nil {
		c.discard(ctx, upload)
		return c.failed(form, MsgUpdateFailed, err)
	}

	feed.RefreshPosts(ctx)
	form.succeed()
	return nil
}

// Delete removes a confirmed post and refreshes the feed. Counters are left as they are.
func (c *Controller) Delete(ctx context.Context, form *Form, actor *identity.Identity, postID string, confirmed bool, feed FeedState) error {
	if actor == nil || actor.UID == "" {
		return ErrNotAuthenticated
	}
	if !confirmed {
		return ErrNotConfirmed
	}
	if err := form.begin(); err != nil {
		return err
	}
	form.submit()

	if err := c.posts.DeletePost(ctx, actor.UID, postID); err != nil {
		log.Printf("[POST-DELETE] Delete of %s failed: %v", postID, err)
		form.fail(MsgDeleteFailed)
		return &FlowError{Message: MsgDeleteFailed, Err: err}
	}

	feed.RefreshPosts(ctx)
	form.succeed()
	return nil
}

func (c *Controller) failed(form *Form, prefix string, err error) error {
	msg := prefix + describe(err)
	if !errors.Is(err, posts.ErrNotAuthorized) {
		log.Printf("[POST-LIFECYCLE] %s%v", prefix, err)
	}
	form.fail(msg)
	return &FlowError{Message: msg, Err: err}
}

// discard removes an upload that no post references. Failures are only logged.
func (c *Controller) discard(ctx context.Context, upload *images.Upload) {
	if upload == nil {
		return
	}
	if err := c.images.Discard(ctx, upload); err != nil {
		slog.Warn("failed to discard orphaned upload", "public_id", upload.PublicID, "error", err)
	}
}

func contactOrEmail(contact string, actor *identity.Identity) string {
	if c := strings.TrimSpace(contact); c != "" {
		return c
	}
	return actor.Email
}
