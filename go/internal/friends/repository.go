package friends

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/watchly/watchly/go/internal/models"
)

// ErrRequestNotFound is returned when the request row no longer exists.
// Requests are deleted on resolution, so this is also the signal that a
// request was already accepted or declined by a racing actor.
var ErrRequestNotFound = errors.New("friend request not found")

const requestColumns = `fr.id, fr.from_user_id, fr.to_user_id, u.username, fr.created_at`

// Repository implements friend request data access operations
type Repository struct {
	db *sql.DB
}

// NewRepository creates a new friends repository
func NewRepository(db *sql.DB) *Repository {
	return &Repository{db: db}
}

// Queries binds request resolution to one transaction.
type Queries struct {
	tx *sql.Tx
}

// NewQueries binds a Queries to the given transaction.
func NewQueries(tx *sql.Tx) *Queries {
	return &Queries{tx: tx}
}

// Tx exposes the underlying transaction for sibling repositories.
func (q *Queries) Tx() *sql.Tx {
	return q.tx
}

// DeleteRequest removes the request row and returns it. ErrRequestNotFound
// means another actor resolved it first; the caller must not mutate anything.
func (q *Queries) DeleteRequest(ctx context.Context, id uuid.UUID) (*models.FriendRequest, error) {
	row := q.tx.QueryRowContext(ctx, `
		DELETE FROM friend_requests
		WHERE id = $1
		RETURNING id, from_user_id, to_user_id, created_at`,
		id,
	)
	var req models.FriendRequest
	err := row.Scan(&req.ID, &req.FromUserID, &req.ToUserID, &req.CreatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrRequestNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to delete friend request: %w", err)
	}
	req.Status = models.RequestStatusPending
	return &req, nil
}

// InsertFriendship writes both directions of the friendship.
func (q *Queries) InsertFriendship(ctx context.Context, a, b uuid.UUID) error {
	_, err := q.tx.ExecContext(ctx, `
		INSERT INTO friendships (user_id, friend_id, created_at)
		VALUES ($1, $2, now()), ($2, $1, now())
		ON CONFLICT (user_id, friend_id) DO NOTHING`,
		a, b,
	)
	if err != nil {
		return fmt.Errorf("failed to insert friendship: %w", err)
	}
	return nil
}

// CreateRequest inserts a pending friend request.
func (r *Repository) CreateRequest(ctx context.Context, fromUserID, toUserID uuid.UUID) (*models.FriendRequest, error) {
	row := r.db.QueryRowContext(ctx, `
		INSERT INTO friend_requests (id, from_user_id, to_user_id, created_at)
		VALUES ($1, $2, $3, now())
		RETURNING id, from_user_id, to_user_id, created_at`,
		uuid.New(), fromUserID, toUserID,
	)
	var req models.FriendRequest
	if err := row.Scan(&req.ID, &req.FromUserID, &req.ToUserID, &req.CreatedAt); err != nil {
		return nil, fmt.Errorf("failed to create friend request: %w", err)
	}
	req.Status = models.RequestStatusPending
	return &req, nil
}

// GetRequest retrieves a pending request by ID.
func (r *Repository) GetRequest(ctx context.Context, id uuid.UUID) (*models.FriendRequest, error) {
	row := r.db.QueryRowContext(ctx, `
		SELECT `+requestColumns+`
		FROM friend_requests fr
		JOIN users u ON u.id = fr.from_user_id
		WHERE fr.id = $1`,
		id,
	)
	return scanRequest(row)
}

// HasPendingBetween reports whether a pending request exists in either
// direction between two users.
func (r *Repository) HasPendingBetween(ctx context.Context, a, b uuid.UUID) (bool, error) {
	var exists bool
	err := r.db.QueryRowContext(ctx, `
		SELECT EXISTS (
			SELECT 1 FROM friend_requests
			WHERE (from_user_id = $1 AND to_user_id = $2)
			   OR (from_user_id = $2 AND to_user_id = $1)
		)`, a, b,
	).Scan(&exists)
	if err != nil {
		return false, fmt.Errorf("failed to check pending request: %w", err)
	}
	return exists, nil
}

// AreFriends reports whether two users are already on each other's lists.
func (r *Repository) AreFriends(ctx context.Context, a, b uuid.UUID) (bool, error) {
	var exists bool
	err := r.db.QueryRowContext(ctx, `
		SELECT EXISTS (
			SELECT 1 FROM friendships WHERE user_id = $1 AND friend_id = $2
		)`, a, b,
	).Scan(&exists)
	if err != nil {
		return false, fmt.Errorf("failed to check friendship: %w", err)
	}
	return exists, nil
}

// ListPendingFor returns the pending requests addressed to a user, newest
// first.
func (r *Repository) ListPendingFor(ctx context.Context, userID uuid.UUID) ([]models.FriendRequest, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT `+requestColumns+`
		FROM friend_requests fr
		JOIN users u ON u.id = fr.from_user_id
		WHERE fr.to_user_id = $1
		ORDER BY fr.created_at DESC`,
		userID,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to list pending requests: %w", err)
	}
	defer rows.Close()

	var requests []models.FriendRequest
	for rows.Next() {
		req, err := scanRequest(rows)
		if err != nil {
			return nil, err
		}
		requests = append(requests, *req)
	}
	return requests, rows.Err()
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanRequest(row rowScanner) (*models.FriendRequest, error) {
	var req models.FriendRequest
	err := row.Scan(&req.ID, &req.FromUserID, &req.ToUserID, &req.FromUsername, &req.CreatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrRequestNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to scan friend request: %w", err)
	}
	req.Status = models.RequestStatusPending
	return &req, nil
}
