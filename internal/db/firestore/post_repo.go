package firestore

import (
	"context"
	"fmt"

	"FindIt/internal/core/posts"

	"github.com/google/uuid"
	firestorev1 "google.golang.org/api/firestore/v1"
)

type firestorePostRepo struct {
	store *Store
}

// NewPostRepository creates a Firestore-backed post repository
func NewPostRepository(store *Store) posts.Repository {
	return &firestorePostRepo{store: store}
}

// Create writes posts/<uuid> with createdAt set to the server's request time
func (r *firestorePostRepo) Create(ctx context.Context, post *posts.Post) error {
	id := uuid.NewString()

	resp, err := r.store.commit(ctx, &firestorev1.Write{
		Update: &firestorev1.Document{
			Name: r.store.docName(postsCollection, id),
			Fields: map[string]firestorev1.Value{
				"type":         stringValue(string(post.Type)),
				"title":        stringValue(post.Title),
				"description":  stringValue(post.Description),
				"contact":      stringValue(post.Contact),
				"imageUrl":     stringValue(post.ImageURL),
				"creatorUid":   stringValue(post.CreatorUID),
				"creatorName":  stringValue(post.CreatorName),
				"creatorEmail": stringValue(post.CreatorEmail),
			},
		},
		UpdateTransforms: []*firestorev1.FieldTransform{
			{FieldPath: "createdAt", SetToServerValue: serverTime},
		},
		CurrentDocument: &firestorev1.Precondition{Exists: false, ForceSendFields: []string{"Exists"}},
	})
	if err != nil {
		return fmt.Errorf("failed to commit post: %w", err)
	}

	createdAt, err := serverTimestamp(resp)
	if err != nil {
		return fmt.Errorf("failed to read post creation time: %w", err)
	}

	post.ID = id
	post.CreatedAt = createdAt
	post.UpdatedAt = nil
	return nil
}

// GetByID reads posts/<id>
func (r *firestorePostRepo) GetByID(ctx context.Context, id string) (*posts.Post, error) {
	doc, err := r.store.docs.Get(r.store.docName(postsCollection, id)).Context(ctx).Do()
	if err != nil {
		if isNotFound(err) {
			return nil, posts.ErrNotFound
		}
		return nil, fmt.Errorf("failed to get post: %w", err)
	}
	return decodePost(doc)
}

// List reads the whole collection ordered by createdAt descending
func (r *firestorePostRepo) List(ctx context.Context) ([]*posts.Post, error) {
	result := []*posts.Post{}

	err := r.store.docs.List(r.store.root(), postsCollection).
		OrderBy("createdAt desc").
		PageSize(300).
		Pages(ctx, func(page *firestorev1.ListDocumentsResponse) error {
			for _, doc := range page.Documents {
				post, err := decodePost(doc)
				if err != nil {
					return err
				}
				result = append(result, post)
			}
			return nil
		})
	if err != nil {
		return nil, fmt.Errorf("failed to list posts: %w", err)
	}
	return result, nil
}

// Update merges the patched fields under an exists precondition and stamps updatedAt
func (r *firestorePostRepo) Update(ctx context.Context, id string, patch posts.PostPatch) error {
	fields := map[string]firestorev1.Value{}
	var mask []string
	set := func(key string, v *string) {
		if v != nil {
			fields[key] = stringValue(*v)
			mask = append(mask, key)
		}
	}
	set("title", patch.Title)
	set("description", patch.Description)
	set("contact", patch.Contact)
	set("imageUrl", patch.ImageURL)

	_, err := r.store.commit(ctx, &firestorev1.Write{
		Update: &firestorev1.Document{
			Name:   r.store.docName(postsCollection, id),
			Fields: fields,
		},
		UpdateMask: &firestorev1.DocumentMask{FieldPaths: mask, ForceSendFields: []string{"FieldPaths"}},
		UpdateTransforms: []*firestorev1.FieldTransform{
			{FieldPath: "updatedAt", SetToServerValue: serverTime},
		},
		CurrentDocument: &firestorev1.Precondition{Exists: true},
	})
	if err != nil {
		if isNotFound(err) {
			return posts.ErrNotFound
		}
		return fmt.Errorf("failed to update post: %w", err)
	}
	return nil
}

// Delete removes posts/<id>; a missing document is not an error
func (r *firestorePostRepo) Delete(ctx context.Context, id string) error {
	_, err := r.store.docs.Delete(r.store.docName(postsCollection, id)).Context(ctx).Do()
	if err != nil && !isNotFound(err) {
		return fmt.Errorf("failed to delete post: %w", err)
	}
	return nil
}

// IncrementUserCount applies a server-side increment transform to users/<uid>
func (r *firestorePostRepo) IncrementUserCount(ctx context.Context, uid string, t posts.ItemType) error {
	var field string
	switch t {
	case posts.TypeLost:
		field = "lostItemCount"
	case posts.TypeFound:
		field = "foundItemCount"
	default:
		return fmt.Errorf("unknown item type %q", t)
	}

	one := integerValue(1)
	_, err := r.store.commit(ctx, &firestorev1.Write{
		Transform: &firestorev1.DocumentTransform{
			Document: r.store.docName(usersCollection, uid),
			FieldTransforms: []*firestorev1.FieldTransform{
				{FieldPath: field, Increment: &one},
			},
		},
		CurrentDocument: &firestorev1.Precondition{Exists: true},
	})
	if err != nil {
		if isNotFound(err) {
			return posts.ErrUserNotFound
		}
		return fmt.Errorf("failed to increment %s: %w", field, err)
	}
	return nil
}

func decodePost(doc *firestorev1.Document) (*posts.Post, error) {
	createdAt, err := getTime(doc.Fields, "createdAt")
	if err != nil {
		return nil, err
	}
	updatedAt, err := getTime(doc.Fields, "updatedAt")
	if err != nil {
		return nil, err
	}

	post := &posts.Post{
		ID:           docID(doc.Name),
		Type:         posts.ItemType(getString(doc.Fields, "type")),
		Title:        getString(doc.Fields, "title"),
		Description:  getString(doc.Fields, "description"),
		Contact:      getString(doc.Fields, "contact"),
		ImageURL:     getString(doc.Fields, "imageUrl"),
		CreatorUID:   getString(doc.Fields, "creatorUid"),
		CreatorName:  getString(doc.Fields, "creatorName"),
		CreatorEmail: getString(doc.Fields, "creatorEmail"),
		CreatedAt:    createdAt,
	}
	if !updatedAt.IsZero() {
		post.UpdatedAt = &updatedAt
	}
	return post, nil
}
