package rooms

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/watchly/watchly/go/internal/models"
)

var (
	// ErrRoomNotFound is returned when no room matches the lookup.
	ErrRoomNotFound = errors.New("room not found")

	// ErrNotMember is returned when the user has not joined the room.
	ErrNotMember = errors.New("user is not a member of the room")

	// ErrQueueEmpty is returned when advancing an empty queue.
	ErrQueueEmpty = errors.New("room queue is empty")
)

const roomColumns = `id, name, video_url, created_by,
	password_hash IS NOT NULL, current_time_sec, is_playing,
	voice_chat_enabled, schema_version, created_at, updated_at`

// Repository implements room data access operations
type Repository struct {
	db *sql.DB
}

// NewRepository creates a new rooms repository
func NewRepository(db *sql.DB) *Repository {
	return &Repository{db: db}
}

// Queries binds room mutations to one transaction. Used with sqlutil.Run so
// playback writes and their outbox events commit atomically.
type Queries struct {
	tx *sql.Tx
}

// NewQueries binds a Queries to the given transaction.
func NewQueries(tx *sql.Tx) *Queries {
	return &Queries{tx: tx}
}

// Tx exposes the underlying transaction for sibling repositories (outbox).
func (q *Queries) Tx() *sql.Tx {
	return q.tx
}

// CreateRoom inserts the room and its host membership row.
func (q *Queries) CreateRoom(ctx context.Context, req CreateRoomRequest, createdBy uuid.UUID, passwordHash *string) (*models.Room, error) {
	row := q.tx.QueryRowContext(ctx, `
		INSERT INTO rooms (id, name, video_url, created_by, password_hash,
			current_time_sec, is_playing, voice_chat_enabled, schema_version,
			created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, 0, false, $6, $7, now(), now())
		RETURNING `+roomColumns,
		uuid.New(), req.Name, req.VideoURL, createdBy, passwordHash,
		req.VoiceChatEnabled, models.RoomSchemaVersion,
	)
	room, err := scanRoom(row)
	if err != nil {
		return nil, fmt.Errorf("failed to create room: %w", err)
	}

	_, err = q.tx.ExecContext(ctx, `
		INSERT INTO room_members (room_id, user_id, is_host, joined_at)
		VALUES ($1, $2, true, now())`,
		room.ID, createdBy,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to add host member: %w", err)
	}
	return room, nil
}

// UpdatePlayback writes the shared playback state.
func (q *Queries) UpdatePlayback(ctx context.Context, roomID uuid.UUID, req UpdatePlaybackRequest) (*models.Room, error) {
	row := q.tx.QueryRowContext(ctx, `
		UPDATE rooms SET current_time_sec = $2, is_playing = $3, updated_at = now()
		WHERE id = $1
		RETURNING `+roomColumns,
		roomID, req.CurrentTime, req.IsPlaying,
	)
	room, err := scanRoom(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrRoomNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to update playback: %w", err)
	}
	return room, nil
}

// SetVideo switches the room's video and resets the shared playback state.
func (q *Queries) SetVideo(ctx context.Context, roomID uuid.UUID, videoURL string, autoplay bool) (*models.Room, error) {
	row := q.tx.QueryRowContext(ctx, `
		UPDATE rooms SET video_url = $2, current_time_sec = 0, is_playing = $3, updated_at = now()
		WHERE id = $1
		RETURNING `+roomColumns,
		roomID, videoURL, autoplay,
	)
	room, err := scanRoom(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrRoomNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to set video: %w", err)
	}
	return room, nil
}

// PopQueueHead removes and returns the first queue entry.
func (q *Queries) PopQueueHead(ctx context.Context, roomID uuid.UUID) (*models.QueueEntry, error) {
	row := q.tx.QueryRowContext(ctx, `
		DELETE FROM room_queue
		WHERE id = (
			SELECT id FROM room_queue WHERE room_id = $1
			ORDER BY position LIMIT 1
		)
		RETURNING id, room_id, video_url, added_by, position, added_at`,
		roomID,
	)
	var e models.QueueEntry
	err := row.Scan(&e.ID, &e.RoomID, &e.VideoURL, &e.AddedBy, &e.Position, &e.AddedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrQueueEmpty
	}
	if err != nil {
		return nil, fmt.Errorf("failed to pop queue head: %w", err)
	}
	return &e, nil
}

// CountQueue returns the number of queued videos.
func (q *Queries) CountQueue(ctx context.Context, roomID uuid.UUID) (int, error) {
	var n int
	if err := q.tx.QueryRowContext(ctx,
		`SELECT count(*) FROM room_queue WHERE room_id = $1`, roomID,
	).Scan(&n); err != nil {
		return 0, fmt.Errorf("failed to count queue: %w", err)
	}
	return n, nil
}

// AddMember inserts a viewer membership row if absent.
func (q *Queries) AddMember(ctx context.Context, roomID, userID uuid.UUID) error {
	_, err := q.tx.ExecContext(ctx, `
		INSERT INTO room_members (room_id, user_id, is_host, joined_at)
		VALUES ($1, $2, false, now())
		ON CONFLICT (room_id, user_id) DO NOTHING`,
		roomID, userID,
	)
	if err != nil {
		return fmt.Errorf("failed to add member: %w", err)
	}
	return nil
}

// RemoveMember deletes a membership row and reports whether it was the host.
func (q *Queries) RemoveMember(ctx context.Context, roomID, userID uuid.UUID) (bool, error) {
	var wasHost bool
	err := q.tx.QueryRowContext(ctx, `
		DELETE FROM room_members WHERE room_id = $1 AND user_id = $2
		RETURNING is_host`,
		roomID, userID,
	).Scan(&wasHost)
	if errors.Is(err, sql.ErrNoRows) {
		return false, ErrNotMember
	}
	if err != nil {
		return false, fmt.Errorf("failed to remove member: %w", err)
	}
	return wasHost, nil
}

// PromoteOldestMember hands the host flag to the earliest-joined remaining
// member. Returns the new host's user ID, or ErrNotMember when the room is
// empty.
func (q *Queries) PromoteOldestMember(ctx context.Context, roomID uuid.UUID) (uuid.UUID, error) {
	var userID uuid.UUID
	err := q.tx.QueryRowContext(ctx, `
		UPDATE room_members SET is_host = true
		WHERE room_id = $1 AND user_id = (
			SELECT user_id FROM room_members WHERE room_id = $1
			ORDER BY joined_at LIMIT 1
		)
		RETURNING user_id`,
		roomID,
	).Scan(&userID)
	if errors.Is(err, sql.ErrNoRows) {
		return uuid.Nil, ErrNotMember
	}
	if err != nil {
		return uuid.Nil, fmt.Errorf("failed to promote member: %w", err)
	}
	return userID, nil
}

// GetRoom retrieves a room by ID
func (r *Repository) GetRoom(ctx context.Context, id uuid.UUID) (*models.Room, error) {
	row := r.db.QueryRowContext(ctx, `SELECT `+roomColumns+` FROM rooms WHERE id = $1`, id)
	room, err := scanRoom(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrRoomNotFound
	}
	return room, err
}

// GetPasswordHash returns the room's password hash, or nil when open.
func (r *Repository) GetPasswordHash(ctx context.Context, id uuid.UUID) (*string, error) {
	var hash sql.NullString
	err := r.db.QueryRowContext(ctx, `SELECT password_hash FROM rooms WHERE id = $1`, id).Scan(&hash)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrRoomNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get room password: %w", err)
	}
	if !hash.Valid {
		return nil, nil
	}
	return &hash.String, nil
}

// GetMember retrieves one membership row.
func (r *Repository) GetMember(ctx context.Context, roomID, userID uuid.UUID) (*models.RoomMember, error) {
	var m models.RoomMember
	err := r.db.QueryRowContext(ctx, `
		SELECT room_id, user_id, is_host, joined_at
		FROM room_members WHERE room_id = $1 AND user_id = $2`,
		roomID, userID,
	).Scan(&m.RoomID, &m.UserID, &m.IsHost, &m.JoinedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotMember
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get member: %w", err)
	}
	return &m, nil
}

// ListMembers returns all members of a room, host first.
func (r *Repository) ListMembers(ctx context.Context, roomID uuid.UUID) ([]models.RoomMember, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT room_id, user_id, is_host, joined_at
		FROM room_members WHERE room_id = $1
		ORDER BY is_host DESC, joined_at`,
		roomID,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to list members: %w", err)
	}
	defer rows.Close()

	var members []models.RoomMember
	for rows.Next() {
		var m models.RoomMember
		if err := rows.Scan(&m.RoomID, &m.UserID, &m.IsHost, &m.JoinedAt); err != nil {
			return nil, fmt.Errorf("failed to scan member: %w", err)
		}
		members = append(members, m)
	}
	return members, rows.Err()
}

// AddQueueEntry appends a video to the room's queue.
func (r *Repository) AddQueueEntry(ctx context.Context, roomID, addedBy uuid.UUID, videoURL string) (*models.QueueEntry, error) {
	row := r.db.QueryRowContext(ctx, `
		INSERT INTO room_queue (id, room_id, video_url, added_by, position, added_at)
		VALUES ($1, $2, $3, $4,
			(SELECT coalesce(max(position), 0) + 1 FROM room_queue WHERE room_id = $2),
			now())
		RETURNING id, room_id, video_url, added_by, position, added_at`,
		uuid.New(), roomID, videoURL, addedBy,
	)
	var e models.QueueEntry
	if err := row.Scan(&e.ID, &e.RoomID, &e.VideoURL, &e.AddedBy, &e.Position, &e.AddedAt); err != nil {
		return nil, fmt.Errorf("failed to add queue entry: %w", err)
	}
	return &e, nil
}

// ListQueue returns the room's queued videos in play order.
func (r *Repository) ListQueue(ctx context.Context, roomID uuid.UUID) ([]models.QueueEntry, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT id, room_id, video_url, added_by, position, added_at
		FROM room_queue WHERE room_id = $1 ORDER BY position`,
		roomID,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to list queue: %w", err)
	}
	defer rows.Close()

	var entries []models.QueueEntry
	for rows.Next() {
		var e models.QueueEntry
		if err := rows.Scan(&e.ID, &e.RoomID, &e.VideoURL, &e.AddedBy, &e.Position, &e.AddedAt); err != nil {
			return nil, fmt.Errorf("failed to scan queue entry: %w", err)
		}
		entries = append(entries, e)
	}
	return entries, rows.Err()
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanRoom(row rowScanner) (*models.Room, error) {
	var room models.Room
	var updatedAt time.Time
	err := row.Scan(&room.ID, &room.Name, &room.VideoURL, &room.CreatedBy,
		&room.HasPassword, &room.CurrentTime, &room.IsPlaying,
		&room.VoiceChatEnabled, &room.SchemaVersion, &room.CreatedAt, &updatedAt)
	if err != nil {
		return nil, err
	}
	room.UpdatedAt = updatedAt
	return &room, nil
}
