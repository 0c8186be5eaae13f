package posts

import (
	"context"
	"errors"
	"fmt"
	"log"
	"strings"
)

type postService struct {
	repo Repository
}

// NewPostService creates a new post service
func NewPostService(repo Repository) Service {
	return &postService{
		repo: repo,
	}
}

// CreatePost stores a new post
// Flow:
// 1. Validate the record (type, title, description, image, creator)
// 2. Insert via repository (store assigns ID and CreatedAt)
// 3. Return the new ID
func (s *postService) CreatePost(ctx context.Context, req NewPost) (string, error) {
	if err := s.validateNewPost(req); err != nil {
		return "", err
	}

	post := &Post{
		Type:         req.Type,
		Title:        strings.TrimSpace(req.Title),
		Description:  strings.TrimSpace(req.Description),
		Contact:      strings.TrimSpace(req.Contact),
		ImageURL:     req.ImageURL,
		CreatorUID:   req.CreatorUID,
		CreatorName:  req.CreatorName,
		CreatorEmail: req.CreatorEmail,
	}

	if err := s.repo.Create(ctx, post); err != nil {
		return "", &WriteError{Op: "create post", Err: err}
	}

	log.Printf("[POST-CREATE] Created %s post %s for %s", post.Type, post.ID, post.CreatorUID)
	return post.ID, nil
}

// GetPost retrieves a post by ID
func (s *postService) GetPost(ctx context.Context, id string) (*Post, error) {
	id = strings.TrimSpace(id)
	if id == "" {
		return nil, NewValidationError("id", "post ID is required")
	}

	post, err := s.repo.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			return nil, ErrNotFound
		}
		return nil, &ReadError{Op: "get post", Err: err}
	}
	return post, nil
}

// ListPosts returns the full feed, newest first
func (s *postService) ListPosts(ctx context.Context) ([]*Post, error) {
	list, err := s.repo.List(ctx)
	if err != nil {
		return nil, &ReadError{Op: "list posts", Err: err}
	}
	return list, nil
}

// UpdatePost applies an owner edit
// Flow:
// 1. Validate patch (edited text fields must stay non-blank)
// 2. Load the post and check ownership against creatorUid
// 3. Merge via repository (store stamps UpdatedAt)
func (s *postService) UpdatePost(ctx context.Context, actorUID, id string, patch PostPatch) error {
	if err := validatePatch(patch); err != nil {
		return err
	}

	if _, err := s.authorize(ctx, actorUID, id, "update"); err != nil {
		return err
	}

	if err := s.repo.Update(ctx, id, trimPatch(patch)); err != nil {
		if errors.Is(err, ErrNotFound) {
			return ErrNotFound
		}
		return &WriteError{Op: "update post", Err: err}
	}

	log.Printf("[POST-UPDATE] Updated post %s", id)
	return nil
}

// DeletePost removes a post owned by actorUID
func (s *postService) DeletePost(ctx context.Context, actorUID, id string) error {
	if _, err := s.authorize(ctx, actorUID, id, "delete"); err != nil {
		return err
	}

	if err := s.repo.Delete(ctx, id); err != nil {
		return &WriteError{Op: "delete post", Err: err}
	}

	log.Printf("[POST-DELETE] Deleted post %s", id)
	return nil
}

// IncrementUserCount adds one to the user's lost or found counter
func (s *postService) IncrementUserCount(ctx context.Context, uid string, t ItemType) error {
	if strings.TrimSpace(uid) == "" {
		return NewValidationError("uid", "user ID is required")
	}
	if !t.Valid() {
		return NewValidationError("type", "type must be 'lost' or 'found'")
	}

	if err := s.repo.IncrementUserCount(ctx, uid, t); err != nil {
		return &WriteError{Op: "increment user count", Err: err}
	}
	return nil
}

// authorize loads the post and checks that actorUID is its creator
func (s *postService) authorize(ctx context.Context, actorUID, id, action string) (*Post, error) {
	if strings.TrimSpace(actorUID) == "" {
		return nil, fmt.Errorf("no authenticated user - authentication required")
	}

	post, err := s.GetPost(ctx, id)
	if err != nil {
		return nil, err
	}

	if !post.IsOwnedBy(actorUID) {
		log.Printf("[SECURITY] Ownership check failed: action=%s post=%s actor=%s owner=%s",
			action, id, actorUID, post.CreatorUID)
		return nil, ErrNotAuthorized
	}
	return post, nil
}

func (s *postService) validateNewPost(req NewPost) error {
	if !req.Type.Valid() {
		return NewValidationError("type", "type must be 'lost' or 'found'")
	}
	if strings.TrimSpace(req.Title) == "" {
		return NewValidationError("title", "title is required")
	}
	if strings.TrimSpace(req.Description) == "" {
		return NewValidationError("description", "description is required")
	}
	if strings.TrimSpace(req.ImageURL) == "" {
		return NewValidationError("imageUrl", "image URL is required")
	}
	if strings.TrimSpace(req.CreatorUID) == "" {
		return NewValidationError("creatorUid", "creator is required")
	}
	return nil
}

func validatePatch(patch PostPatch) error {
	if patch.Empty() {
		return NewValidationError("patch", "no fields to update")
	}
	if patch.Title != nil && strings.TrimSpace(*patch.Title) == "" {
		return NewValidationError("title", "title cannot be blank")
	}
	if patch.Description != nil && strings.TrimSpace(*patch.Description) == "" {
		return NewValidationError("description", "description cannot be blank")
	}
	if patch.ImageURL != nil && strings.TrimSpace(*patch.ImageURL) == "" {
		return NewValidationError("imageUrl", "image URL cannot be blank")
	}
	return nil
}

func trimPatch(patch PostPatch) PostPatch {
	trim := func(s *string) *string {
		if s == nil {
			return nil
		}
		v := strings.TrimSpace(*s)
		return &v
	}
	return PostPatch{
		Title:       trim(patch.Title),
		Description: trim(patch.Description),
		Contact:     trim(patch.Contact),
		ImageURL:    patch.ImageURL,
	}
}
