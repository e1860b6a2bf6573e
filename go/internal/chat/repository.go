package chat

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/google/uuid"
	"github.com/watchly/watchly/go/internal/models"
)

// Repository implements chat message data access operations
type Repository struct {
	db *sql.DB
}

// NewRepository creates a new chat repository
func NewRepository(db *sql.DB) *Repository {
	return &Repository{db: db}
}

// Queries binds chat writes to one transaction so the message row and its
// outbox event commit together.
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

// InsertMessage appends a chat message to the room.
func (q *Queries) InsertMessage(ctx context.Context, roomID, userID uuid.UUID, body string) (*models.ChatMessage, error) {
	row := q.tx.QueryRowContext(ctx, `
		INSERT INTO chat_messages (id, room_id, user_id, body, sent_at)
		VALUES ($1, $2, $3, $4, now())
		RETURNING id, room_id, user_id, body, sent_at`,
		uuid.New(), roomID, userID, body,
	)
	var msg models.ChatMessage
	if err := row.Scan(&msg.ID, &msg.RoomID, &msg.UserID, &msg.Body, &msg.SentAt); err != nil {
		return nil, fmt.Errorf("failed to insert chat message: %w", err)
	}
	return &msg, nil
}

// ListRecent returns the room's most recent messages in chronological order.
func (r *Repository) ListRecent(ctx context.Context, roomID uuid.UUID, limit int) ([]models.ChatMessage, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT m.id, m.room_id, m.user_id, u.username, m.body, m.sent_at
		FROM (
			SELECT id, room_id, user_id, body, sent_at
			FROM chat_messages
			WHERE room_id = $1
			ORDER BY sent_at DESC
			LIMIT $2
		) m
		JOIN users u ON u.id = m.user_id
		ORDER BY m.sent_at ASC`,
		roomID, limit,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to list chat messages: %w", err)
	}
	defer rows.Close()

	var messages []models.ChatMessage
	for rows.Next() {
		var msg models.ChatMessage
		if err := rows.Scan(&msg.ID, &msg.RoomID, &msg.UserID, &msg.Username, &msg.Body, &msg.SentAt); err != nil {
			return nil, fmt.Errorf("failed to scan chat message: %w", err)
		}
		messages = append(messages, msg)
	}
	return messages, rows.Err()
}
