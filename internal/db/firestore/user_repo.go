package firestore

import (
	"context"
	"fmt"

	"FindIt/internal/core/users"

	firestorev1 "google.golang.org/api/firestore/v1"
)

type firestoreUserRepo struct {
	store *Store
}

// NewUserRepository creates a Firestore-backed profile repository
func NewUserRepository(store *Store) users.UserRepository {
	return &firestoreUserRepo{store: store}
}

// Create writes users/<uid> with zeroed counters; an existing document yields ErrUserExists
func (r *firestoreUserRepo) Create(ctx context.Context, user *users.User) error {
	resp, err := r.store.commit(ctx, &firestorev1.Write{
		Update: &firestorev1.Document{
			Name: r.store.docName(usersCollection, user.UID),
			Fields: map[string]firestorev1.Value{
				"uid":            stringValue(user.UID),
				"name":           stringValue(user.Name),
				"studentId":      stringValue(user.StudentID),
				"email":          stringValue(user.Email),
				"lostItemCount":  integerValue(0),
				"foundItemCount": integerValue(0),
			},
		},
		UpdateTransforms: []*firestorev1.FieldTransform{
			{FieldPath: "createdAt", SetToServerValue: serverTime},
		},
		CurrentDocument: &firestorev1.Precondition{Exists: false, ForceSendFields: []string{"Exists"}},
	})
	if err != nil {
		if isConflict(err) {
			return users.ErrUserExists
		}
		return fmt.Errorf("failed to create user: %w", err)
	}

	createdAt, err := serverTimestamp(resp)
	if err != nil {
		return fmt.Errorf("failed to read user creation time: %w", err)
	}
	user.CreatedAt = createdAt
	user.LostItemCount = 0
	user.FoundItemCount = 0
	return nil
}

// GetByUID reads users/<uid>
func (r *firestoreUserRepo) GetByUID(ctx context.Context, uid string) (*users.User, error) {
	doc, err := r.store.docs.Get(r.store.docName(usersCollection, uid)).Context(ctx).Do()
	if err != nil {
		if isNotFound(err) {
			return nil, users.ErrUserNotFound
		}
		return nil, fmt.Errorf("failed to get user: %w", err)
	}

	createdAt, err := getTime(doc.Fields, "createdAt")
	if err != nil {
		return nil, err
	}
	return &users.User{
		UID:            docID(doc.Name),
		Name:           getString(doc.Fields, "name"),
		StudentID:      getString(doc.Fields, "studentId"),
		Email:          getString(doc.Fields, "email"),
		LostItemCount:  getInt(doc.Fields, "lostItemCount"),
		FoundItemCount: getInt(doc.Fields, "foundItemCount"),
		CreatedAt:      createdAt,
	}, nil
}
