package posts

import (
	"strings"
	"time"
)

// ItemType distinguishes lost item reports from found item reports
type ItemType string

const (
	TypeLost  ItemType = "lost"
	TypeFound ItemType = "found"
)

// Valid reports whether t is one of the known item types
func (t ItemType) Valid() bool {
	return t == TypeLost || t == TypeFound
}

// ParseItemType normalizes and validates a user-supplied item type
func ParseItemType(s string) (ItemType, error) {
	t := ItemType(strings.ToLower(strings.TrimSpace(s)))
	if !t.Valid() {
		return "", NewValidationError("type", "type must be 'lost' or 'found'")
	}
	return t, nil
}

// Post is a lost/found item listing.
// ID, Type, CreatedAt and the Creator* fields are immutable once written.
// UpdatedAt stays nil until the first edit.
type Post struct {
	CreatedAt    time.Time  `json:"createdAt" db:"created_at"`
	UpdatedAt    *time.Time `json:"updatedAt,omitempty" db:"updated_at"`
	ID           string     `json:"id" db:"id"`
	Type         ItemType   `json:"type" db:"type"`
	Title        string     `json:"title" db:"title"`
	Description  string     `json:"description" db:"description"`
	Contact      string     `json:"contact" db:"contact"`
	ImageURL     string     `json:"imageUrl" db:"image_url"`
	CreatorUID   string     `json:"creatorUid" db:"creator_uid"`
	CreatorName  string     `json:"creatorName" db:"creator_name"`
	CreatorEmail string     `json:"creatorEmail" db:"creator_email"`
}

// Edited reports whether the post has been edited since creation
func (p *Post) Edited() bool {
	return p.UpdatedAt != nil
}

// IsOwnedBy reports whether uid is the post's creator
func (p *Post) IsOwnedBy(uid string) bool {
	return uid != "" && p.CreatorUID == uid
}

// NewPost is a fully populated post record minus the store-assigned ID and CreatedAt
type NewPost struct {
	Type         ItemType
	Title        string
	Description  string
	Contact      string
	ImageURL     string
	CreatorUID   string
	CreatorName  string
	CreatorEmail string
}

// PostPatch carries the owner-mutable fields of an edit.
// Nil fields are left untouched.
type PostPatch struct {
	Title       *string
	Description *string
	Contact     *string
	ImageURL    *string
}

// Empty reports whether the patch changes nothing
func (p PostPatch) Empty() bool {
	return p.Title == nil && p.Description == nil && p.Contact == nil && p.ImageURL == nil
}
