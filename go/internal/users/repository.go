package users

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/watchly/watchly/go/internal/models"
	"github.com/watchly/watchly/go/internal/sqlutil"
)

// ErrNotFound is returned when no user matches the lookup.
var ErrNotFound = errors.New("user not found")

// Repository implements user data access operations
type Repository struct {
	db *sql.DB
}

// NewRepository creates a new users repository
func NewRepository(db *sql.DB) *Repository {
	return &Repository{db: db}
}

const userColumns = "id, username, email, display_name, avatar_url, created_at, last_seen_at"

// CreateUser creates a new user with a pre-hashed password
func (r *Repository) CreateUser(ctx context.Context, req CreateUserRequest, passwordHash string) (*models.User, error) {
	row := r.db.QueryRowContext(ctx, `
		INSERT INTO users (id, username, email, password_hash, display_name, created_at)
		VALUES ($1, $2, $3, $4, $5, now())
		RETURNING `+userColumns,
		uuid.New(), req.Username, req.Email, passwordHash, req.DisplayName,
	)
	return scanUser(row)
}

// GetUser retrieves a user by ID
func (r *Repository) GetUser(ctx context.Context, id uuid.UUID) (*models.User, error) {
	row := r.db.QueryRowContext(ctx, `SELECT `+userColumns+` FROM users WHERE id = $1`, id)
	return scanUser(row)
}

// GetUserByUsername retrieves a user by username
func (r *Repository) GetUserByUsername(ctx context.Context, username string) (*models.User, error) {
	row := r.db.QueryRowContext(ctx, `SELECT `+userColumns+` FROM users WHERE username = $1`, username)
	return scanUser(row)
}

// GetUserByEmail retrieves a user by email
func (r *Repository) GetUserByEmail(ctx context.Context, email string) (*models.User, error) {
	row := r.db.QueryRowContext(ctx, `SELECT `+userColumns+` FROM users WHERE email = $1`, email)
	return scanUser(row)
}

// GetPasswordHash returns the stored bcrypt hash for a username
func (r *Repository) GetPasswordHash(ctx context.Context, username string) (uuid.UUID, string, error) {
	var id uuid.UUID
	var hash string
	err := r.db.QueryRowContext(ctx,
		`SELECT id, password_hash FROM users WHERE username = $1`, username,
	).Scan(&id, &hash)
	if errors.Is(err, sql.ErrNoRows) {
		return uuid.Nil, "", ErrNotFound
	}
	if err != nil {
		return uuid.Nil, "", fmt.Errorf("failed to get password hash: %w", err)
	}
	return id, hash, nil
}

// UpdateUser updates an existing user's profile fields
func (r *Repository) UpdateUser(ctx context.Context, id uuid.UUID, req UpdateUserRequest) (*models.User, error) {
	row := r.db.QueryRowContext(ctx, `
		UPDATE users SET display_name = $2, avatar_url = $3 WHERE id = $1
		RETURNING `+userColumns,
		id, req.DisplayName, sqlutil.ToSqlString(req.AvatarURL),
	)
	return scanUser(row)
}

// TouchLastSeen records user activity for presence display
func (r *Repository) TouchLastSeen(ctx context.Context, id uuid.UUID, at time.Time) error {
	if _, err := r.db.ExecContext(ctx, `UPDATE users SET last_seen_at = $2 WHERE id = $1`, id, at); err != nil {
		return fmt.Errorf("failed to touch last seen: %w", err)
	}
	return nil
}

// ListFriends returns the users on id's friends list
func (r *Repository) ListFriends(ctx context.Context, id uuid.UUID) ([]models.User, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT u.id, u.username, u.email, u.display_name, u.avatar_url, u.created_at, u.last_seen_at
		FROM friendships f
		JOIN users u ON u.id = f.friend_id
		WHERE f.user_id = $1
		ORDER BY u.username`, id)
	if err != nil {
		return nil, fmt.Errorf("failed to list friends: %w", err)
	}
	defer rows.Close()

	var friends []models.User
	for rows.Next() {
		u, err := scanUser(rows)
		if err != nil {
			return nil, err
		}
		friends = append(friends, *u)
	}
	return friends, rows.Err()
}

// DeleteUser deletes a user by ID
func (r *Repository) DeleteUser(ctx context.Context, id uuid.UUID) error {
	if _, err := r.db.ExecContext(ctx, `DELETE FROM users WHERE id = $1`, id); err != nil {
		return fmt.Errorf("failed to delete user: %w", err)
	}
	return nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanUser(row rowScanner) (*models.User, error) {
	var u models.User
	var avatar sql.NullString
	var lastSeen sql.NullTime
	err := row.Scan(&u.ID, &u.Username, &u.Email, &u.DisplayName, &avatar, &u.CreatedAt, &lastSeen)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to scan user: %w", err)
	}
	u.AvatarURL = sqlutil.FromSqlStringPtr(avatar)
	u.LastSeenAt = sqlutil.FromSqlTime(lastSeen)
	return &u, nil
}
