package invites

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/watchly/watchly/go/internal/models"
)

// ErrInviteNotFound is returned when the invite row no longer exists. Invites
// are deleted on resolution, so this also signals a raced accept or decline.
var ErrInviteNotFound = errors.New("room invite not found")

const inviteColumns = `ri.id, ri.room_id, COALESCE(r.name, ''), ri.from_user_id, ri.to_user_id, u.username, ri.created_at`

// Repository implements room invite data access operations
type Repository struct {
	db *sql.DB
}

// NewRepository creates a new invites repository
func NewRepository(db *sql.DB) *Repository {
	return &Repository{db: db}
}

// Queries binds invite resolution to one transaction.
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

// DeleteInvite removes the invite row and returns it. ErrInviteNotFound means
// another actor resolved it first; the caller must not mutate anything.
func (q *Queries) DeleteInvite(ctx context.Context, id uuid.UUID) (*models.RoomInvite, error) {
	row := q.tx.QueryRowContext(ctx, `
		DELETE FROM room_invites
		WHERE id = $1
		RETURNING id, room_id, from_user_id, to_user_id, created_at`,
		id,
	)
	var inv models.RoomInvite
	err := row.Scan(&inv.ID, &inv.RoomID, &inv.FromUserID, &inv.ToUserID, &inv.CreatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrInviteNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to delete room invite: %w", err)
	}
	inv.Status = models.RequestStatusPending
	return &inv, nil
}

// AddMember inserts the invitee into the room as a viewer.
func (q *Queries) AddMember(ctx context.Context, roomID, userID uuid.UUID) error {
	_, err := q.tx.ExecContext(ctx, `
		INSERT INTO room_members (room_id, user_id, is_host, joined_at)
		VALUES ($1, $2, false, now())
		ON CONFLICT (room_id, user_id) DO NOTHING`,
		roomID, userID,
	)
	if err != nil {
		return fmt.Errorf("failed to add room member: %w", err)
	}
	return nil
}

// CreateInvite inserts a pending room invite.
func (r *Repository) CreateInvite(ctx context.Context, roomID, fromUserID, toUserID uuid.UUID) (*models.RoomInvite, error) {
	row := r.db.QueryRowContext(ctx, `
		INSERT INTO room_invites (id, room_id, from_user_id, to_user_id, created_at)
		VALUES ($1, $2, $3, $4, now())
		RETURNING id, room_id, from_user_id, to_user_id, created_at`,
		uuid.New(), roomID, fromUserID, toUserID,
	)
	var inv models.RoomInvite
	if err := row.Scan(&inv.ID, &inv.RoomID, &inv.FromUserID, &inv.ToUserID, &inv.CreatedAt); err != nil {
		return nil, fmt.Errorf("failed to create room invite: %w", err)
	}
	inv.Status = models.RequestStatusPending
	return &inv, nil
}

// HasPendingFor reports whether a pending invite to the room already exists
// for the user.
func (r *Repository) HasPendingFor(ctx context.Context, roomID, toUserID uuid.UUID) (bool, error) {
	var exists bool
	err := r.db.QueryRowContext(ctx, `
		SELECT EXISTS (
			SELECT 1 FROM room_invites
			WHERE room_id = $1 AND to_user_id = $2
		)`, roomID, toUserID,
	).Scan(&exists)
	if err != nil {
		return false, fmt.Errorf("failed to check pending invite: %w", err)
	}
	return exists, nil
}

// DeleteStale removes an invite outside any transaction. Used when accept
// discovers the room is gone; losing the race here is fine.
func (r *Repository) DeleteStale(ctx context.Context, id uuid.UUID) error {
	_, err := r.db.ExecContext(ctx, `DELETE FROM room_invites WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("failed to delete stale invite: %w", err)
	}
	return nil
}

// ListPendingFor returns the pending invites addressed to a user, newest
// first. Rooms deleted since the invite was sent surface with an empty name;
// the feed still renders them and accept handles the staleness.
func (r *Repository) ListPendingFor(ctx context.Context, userID uuid.UUID) ([]models.RoomInvite, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT `+inviteColumns+`
		FROM room_invites ri
		LEFT JOIN rooms r ON r.id = ri.room_id
		JOIN users u ON u.id = ri.from_user_id
		WHERE ri.to_user_id = $1
		ORDER BY ri.created_at DESC`,
		userID,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to list pending invites: %w", err)
	}
	defer rows.Close()

	var invites []models.RoomInvite
	for rows.Next() {
		var inv models.RoomInvite
		err := rows.Scan(&inv.ID, &inv.RoomID, &inv.RoomName, &inv.FromUserID, &inv.ToUserID, &inv.FromUsername, &inv.CreatedAt)
		if err != nil {
			return nil, fmt.Errorf("failed to scan room invite: %w", err)
		}
		inv.Status = models.RequestStatusPending
		invites = append(invites, inv)
	}
	return invites, rows.Err()
}
