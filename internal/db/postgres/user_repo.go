package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"FindIt/internal/core/users"

	"github.com/lib/pq"
)

type postgresUserRepo struct {
	db *sql.DB
}

// NewUserRepository creates a new PostgreSQL user repository
func NewUserRepository(db *sql.DB) users.UserRepository {
	return &postgresUserRepo{db: db}
}

// Create inserts a new profile with zeroed counters
func (r *postgresUserRepo) Create(ctx context.Context, user *users.User) error {
	query := `
		INSERT INTO users (uid, name, student_id, email)
		VALUES ($1, $2, $3, $4)
		RETURNING lost_item_count, found_item_count, created_at`

	err := r.db.QueryRowContext(ctx, query, user.UID, user.Name, user.StudentID, user.Email).
		Scan(&user.LostItemCount, &user.FoundItemCount, &user.CreatedAt)
	if err != nil {
		var pqErr *pq.Error
		if errors.As(err, &pqErr) && pqErr.Code.Name() == "unique_violation" {
			return users.ErrUserExists
		}
		return fmt.Errorf("failed to create user: %w", err)
	}
	return nil
}

// GetByUID retrieves a profile by UID
func (r *postgresUserRepo) GetByUID(ctx context.Context, uid string) (*users.User, error) {
	user := &users.User{}
	query := `
		SELECT uid, name, student_id, email, lost_item_count, found_item_count, created_at
		FROM users WHERE uid = $1`

	err := r.db.QueryRowContext(ctx, query, uid).
		Scan(&user.UID, &user.Name, &user.StudentID, &user.Email,
			&user.LostItemCount, &user.FoundItemCount, &user.CreatedAt)
	if err == sql.ErrNoRows {
		return nil, users.ErrUserNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get user by UID: %w", err)
	}
	return user, nil
}
