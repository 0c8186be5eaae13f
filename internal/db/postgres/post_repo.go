package postgres

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"

	"FindIt/internal/core/posts"

	"github.com/google/uuid"
)

type postgresPostRepo struct {
	db *sql.DB
}

// NewPostRepository creates a new PostgreSQL post repository
func NewPostRepository(db *sql.DB) posts.Repository {
	return &postgresPostRepo{db: db}
}

const postColumns = `id, type, title, description, contact, image_url,
	creator_uid, creator_name, creator_email, created_at, updated_at`

// Create inserts a new post; the ID is generated here and created_at by the database
func (r *postgresPostRepo) Create(ctx context.Context, post *posts.Post) error {
	query := `
		INSERT INTO posts (
			id, type, title, description, contact, image_url,
			creator_uid, creator_name, creator_email
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
		RETURNING id, created_at`

	err := r.db.QueryRowContext(ctx, query,
		uuid.NewString(), post.Type, post.Title, post.Description, post.Contact, post.ImageURL,
		post.CreatorUID, post.CreatorName, post.CreatorEmail,
	).Scan(&post.ID, &post.CreatedAt)
	if err != nil {
		return fmt.Errorf("failed to insert post: %w", err)
	}

	post.UpdatedAt = nil
	return nil
}

// GetByID retrieves a post by ID
func (r *postgresPostRepo) GetByID(ctx context.Context, id string) (*posts.Post, error) {
	if _, err := uuid.Parse(id); err != nil {
		return nil, posts.ErrNotFound
	}

	query := `SELECT ` + postColumns + ` FROM posts WHERE id = $1`
	post, err := scanPost(r.db.QueryRowContext(ctx, query, id))
	if err == sql.ErrNoRows {
		return nil, posts.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get post: %w", err)
	}
	return post, nil
}

// List returns every post, newest first
func (r *postgresPostRepo) List(ctx context.Context) ([]*posts.Post, error) {
	query := `SELECT ` + postColumns + ` FROM posts ORDER BY created_at DESC, id DESC`

	rows, err := r.db.QueryContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("failed to list posts: %w", err)
	}
	defer func() {
		if closeErr := rows.Close(); closeErr != nil {
			slog.Warn("failed to close rows", "error", closeErr)
		}
	}()

	result := []*posts.Post{}
	for rows.Next() {
		post, err := scanPost(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan post: %w", err)
		}
		result = append(result, post)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating posts: %w", err)
	}
	return result, nil
}

// Update merges the non-nil patch fields and stamps updated_at
func (r *postgresPostRepo) Update(ctx context.Context, id string, patch posts.PostPatch) error {
	if _, err := uuid.Parse(id); err != nil {
		return posts.ErrNotFound
	}

	query := `
		UPDATE posts SET
			title = COALESCE($2, title),
			description = COALESCE($3, description),
			contact = COALESCE($4, contact),
			image_url = COALESCE($5, image_url),
			updated_at = NOW()
		WHERE id = $1`

	result, err := r.db.ExecContext(ctx, query, id,
		nullString(patch.Title), nullString(patch.Description),
		nullString(patch.Contact), nullString(patch.ImageURL),
	)
	if err != nil {
		return fmt.Errorf("failed to update post: %w", err)
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to check update result: %w", err)
	}
	if rowsAffected == 0 {
		return posts.ErrNotFound
	}
	return nil
}

// Delete removes the post. Deleting a missing post is not an error.
func (r *postgresPostRepo) Delete(ctx context.Context, id string) error {
	if _, err := uuid.Parse(id); err != nil {
		return nil
	}

	if _, err := r.db.ExecContext(ctx, `DELETE FROM posts WHERE id = $1`, id); err != nil {
		return fmt.Errorf("failed to delete post: %w", err)
	}
	return nil
}

// IncrementUserCount bumps the matching counter in a single UPDATE
func (r *postgresPostRepo) IncrementUserCount(ctx context.Context, uid string, t posts.ItemType) error {
	var query string
	switch t {
	case posts.TypeLost:
		query = `UPDATE users SET lost_item_count = lost_item_count + 1 WHERE uid = $1`
	case posts.TypeFound:
		query = `UPDATE users SET found_item_count = found_item_count + 1 WHERE uid = $1`
	default:
		return fmt.Errorf("unknown item type %q", t)
	}

	result, err := r.db.ExecContext(ctx, query, uid)
	if err != nil {
		return fmt.Errorf("failed to increment %s count: %w", t, err)
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to check increment result: %w", err)
	}
	if rowsAffected == 0 {
		return posts.ErrUserNotFound
	}
	return nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanPost(row rowScanner) (*posts.Post, error) {
	var post posts.Post
	var updatedAt sql.NullTime

	err := row.Scan(
		&post.ID, &post.Type, &post.Title, &post.Description, &post.Contact, &post.ImageURL,
		&post.CreatorUID, &post.CreatorName, &post.CreatorEmail, &post.CreatedAt, &updatedAt,
	)
	if err != nil {
		return nil, err
	}

	if updatedAt.Valid {
		t := updatedAt.Time
		post.UpdatedAt = &t
	}
	return &post, nil
}

func nullString(s *string) sql.NullString {
	if s == nil {
		return sql.NullString{}
	}
	return sql.NullString{String: *s, Valid: true}
}
