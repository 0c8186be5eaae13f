package users

import (
	"context"

	"FindIt/internal/core/posts"
)

// UserRepository defines the interface for profile persistence
type UserRepository interface {
	// Create inserts the profile with both counters at zero.
	// Returns ErrUserExists when the UID is taken.
	Create(ctx context.Context, user *User) error

	// GetByUID returns ErrUserNotFound when no profile matches
	GetByUID(ctx context.Context, uid string) (*User, error)
}

// Incrementer applies a single counter bump against the document store.
// posts.Service satisfies it.
type Incrementer interface {
	IncrementUserCount(ctx context.Context, uid string, t posts.ItemType) error
}

// UserService defines the interface for profile business logic
type UserService interface {
	// Register writes the profile for a newly signed-up identity
	Register(ctx context.Context, req RegisterRequest) (*User, error)

	// GetProfile flushes deferred increments for uid (best-effort) and reads the profile
	GetProfile(ctx context.Context, uid string) (*User, error)

	// DeferIncrement records a counter bump to be applied on the next profile read
	DeferIncrement(uid string, t posts.ItemType)

	// PendingIncrements lists bumps still waiting for uid
	PendingIncrements(uid string) []PendingIncrement
}
