package users

import (
	"time"

	"FindIt/internal/core/posts"
)

// User is the profile written at registration.
// UID, Name, StudentID and Email never change after creation.
type User struct {
	CreatedAt      time.Time `json:"createdAt" db:"created_at"`
	UID            string    `json:"uid" db:"uid"`
	Name           string    `json:"name" db:"name"`
	StudentID      string    `json:"studentId" db:"student_id"`
	Email          string    `json:"email" db:"email"`
	LostItemCount  int       `json:"lostItemCount" db:"lost_item_count"`
	FoundItemCount int       `json:"foundItemCount" db:"found_item_count"`
}

// Count returns the counter matching t
func (u *User) Count(t posts.ItemType) int {
	if t == posts.TypeFound {
		return u.FoundItemCount
	}
	return u.LostItemCount
}

// RegisterRequest is the input for writing a new profile.
// UID and Email come from the freshly created identity.
type RegisterRequest struct {
	UID       string `json:"uid"`
	Email     string `json:"email"`
	Name      string `json:"name"`
	StudentID string `json:"studentId"`
}

// PendingIncrement is a counter bump that could not be applied when its post was created
type PendingIncrement struct {
	Type  posts.ItemType `json:"type"`
	Count int            `json:"count"`
}
