package signaling

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"sort"

	"github.com/google/uuid"
	"github.com/sqlc-dev/pqtype"
	"github.com/watchly/watchly/go/internal/models"
)

// Repository implements signal record data access operations
type Repository struct {
	db *sql.DB
}

// NewRepository creates a new signaling repository
func NewRepository(db *sql.DB) *Repository {
	return &Repository{db: db}
}

// InsertSignal stores a handshake record awaiting delivery.
func (r *Repository) InsertSignal(ctx context.Context, roomID, fromUserID, targetUserID uuid.UUID, typ models.SignalType, payload json.RawMessage) (*models.Signal, error) {
	row := r.db.QueryRowContext(ctx, `
		INSERT INTO voice_signals (id, room_id, from_user_id, target_user_id, signal_type, payload, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, now())
		RETURNING id, created_at`,
		uuid.New(), roomID, fromUserID, targetUserID, typ,
		pqtype.NullRawMessage{RawMessage: payload, Valid: payload != nil},
	)
	sig := models.Signal{
		RoomID:       roomID,
		FromUserID:   fromUserID,
		TargetUserID: targetUserID,
		Type:         typ,
		Payload:      payload,
	}
	if err := row.Scan(&sig.ID, &sig.CreatedAt); err != nil {
		return nil, fmt.Errorf("failed to insert signal: %w", err)
	}
	return &sig, nil
}

// Delete removes a delivered signal record. Deleting an already-consumed
// record is a no-op.
func (r *Repository) Delete(ctx context.Context, id uuid.UUID) error {
	_, err := r.db.ExecContext(ctx, `DELETE FROM voice_signals WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("failed to delete signal: %w", err)
	}
	return nil
}

// ConsumePending atomically removes and returns the signals addressed to a
// user in a room, oldest first. A second consume of the same records returns
// nothing, which callers treat as already-delivered rather than an error.
func (r *Repository) ConsumePending(ctx context.Context, roomID, targetUserID uuid.UUID) ([]models.Signal, error) {
	rows, err := r.db.QueryContext(ctx, `
		DELETE FROM voice_signals
		WHERE room_id = $1 AND target_user_id = $2
		RETURNING id, room_id, from_user_id, target_user_id, signal_type, payload, created_at`,
		roomID, targetUserID,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to consume signals: %w", err)
	}
	defer rows.Close()

	var signals []models.Signal
	for rows.Next() {
		var sig models.Signal
		var payload pqtype.NullRawMessage
		if err := rows.Scan(&sig.ID, &sig.RoomID, &sig.FromUserID, &sig.TargetUserID, &sig.Type, &payload, &sig.CreatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan signal: %w", err)
		}
		if payload.Valid {
			sig.Payload = payload.RawMessage
		}
		signals = append(signals, sig)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	// DELETE ... RETURNING has no ORDER BY; oldest first so offers precede
	// their candidates.
	sort.Slice(signals, func(i, j int) bool {
		return signals[i].CreatedAt.Before(signals[j].CreatedAt)
	})
	return signals, nil
}

// DeleteForUser removes every record involving a departed peer in a room.
// Peer failure is isolated to its own records; other pairs are untouched.
func (r *Repository) DeleteForUser(ctx context.Context, roomID, userID uuid.UUID) error {
	_, err := r.db.ExecContext(ctx, `
		DELETE FROM voice_signals
		WHERE room_id = $1 AND (from_user_id = $2 OR target_user_id = $2)`,
		roomID, userID,
	)
	if err != nil {
		return fmt.Errorf("failed to delete signals for user: %w", err)
	}
	return nil
}
