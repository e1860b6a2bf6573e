package models

import (
	"time"

	"github.com/google/uuid"
)

// RoomSchemaVersion is the current shape of the room playback record.
// Snapshots carrying an unknown version are rejected on read.
const RoomSchemaVersion = 1

// Room represents a watch room. CurrentTime and IsPlaying form the shared
// playback state; only the room's host may write them.
type Room struct {
	ID               uuid.UUID `json:"id"`
	Name             string    `json:"name"`
	VideoURL         string    `json:"video_url"`
	CreatedBy        uuid.UUID `json:"created_by"`
	HasPassword      bool      `json:"has_password"`
	CurrentTime      float64   `json:"current_time"`
	IsPlaying        bool      `json:"is_playing"`
	VoiceChatEnabled bool      `json:"voice_chat_enabled"`
	SchemaVersion    int       `json:"schema_version"`
	CreatedAt        time.Time `json:"created_at"`
	UpdatedAt        time.Time `json:"updated_at"`
}

// RoomMember is a participant in a room. Exactly one member per room has
// IsHost set; the flag is assigned at join time, never by the client.
type RoomMember struct {
	RoomID   uuid.UUID `json:"room_id"`
	UserID   uuid.UUID `json:"user_id"`
	IsHost   bool      `json:"is_host"`
	JoinedAt time.Time `json:"joined_at"`
}

// QueueEntry is a video waiting to play after the current one ends.
type QueueEntry struct {
	ID       uuid.UUID `json:"id"`
	RoomID   uuid.UUID `json:"room_id"`
	VideoURL string    `json:"video_url"`
	AddedBy  uuid.UUID `json:"added_by"`
	Position int       `json:"position"`
	AddedAt  time.Time `json:"added_at"`
}

// ChatMessage is a single room chat line.
type ChatMessage struct {
	ID       uuid.UUID `json:"id"`
	RoomID   uuid.UUID `json:"room_id"`
	UserID   uuid.UUID `json:"user_id"`
	Username string    `json:"username"`
	Body     string    `json:"body"`
	SentAt   time.Time `json:"sent_at"`
}
