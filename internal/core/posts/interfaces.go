package posts

import "context"

// Service is the post repository boundary used by the lifecycle flows and the feed.
// It validates records, enforces ownership on mutation, and classifies remote
// failures as ReadError or WriteError. No operation retries.
type Service interface {
	// CreatePost stores a new post and returns its store-assigned ID
	CreatePost(ctx context.Context, req NewPost) (string, error)

	// GetPost retrieves a single post by ID
	GetPost(ctx context.Context, id string) (*Post, error)

	// ListPosts returns every post, newest first
	ListPosts(ctx context.Context) ([]*Post, error)

	// UpdatePost merges patch into the post and stamps UpdatedAt.
	// Only the creator may update.
	UpdatePost(ctx context.Context, actorUID, id string, patch PostPatch) error

	// DeletePost removes the post. Only the creator may delete.
	// User counters are not decremented.
	DeletePost(ctx context.Context, actorUID, id string) error

	// IncrementUserCount atomically adds one to the user's counter for t
	IncrementUserCount(ctx context.Context, uid string, t ItemType) error
}

// Repository defines the data access interface for posts.
// Implementations live in internal/db/postgres and internal/db/firestore.
type Repository interface {
	// Create inserts a post, filling in ID and CreatedAt from the store
	Create(ctx context.Context, post *Post) error

	// GetByID returns ErrNotFound when no post matches
	GetByID(ctx context.Context, id string) (*Post, error)

	// List returns all posts ordered by CreatedAt descending
	List(ctx context.Context) ([]*Post, error)

	// Update merges patch and sets UpdatedAt to the store's current time.
	// Returns ErrNotFound when no post matches.
	Update(ctx context.Context, id string, patch PostPatch) error

	// Delete removes the post unconditionally
	Delete(ctx context.Context, id string) error

	// IncrementUserCount uses the store's atomic increment primitive.
	// Returns ErrUserNotFound when the profile does not exist.
	IncrementUserCount(ctx context.Context, uid string, t ItemType) error
}
