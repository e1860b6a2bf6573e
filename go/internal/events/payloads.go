package events

import (
	"encoding/json"
	"time"
)

// Event payload types shared between the room services and the gateway

// Event type names as they appear on the wire and in the outbox table.
const (
	TypePlaybackUpdated = "PlaybackUpdated"
	TypeVideoChanged    = "VideoChanged"
	TypeQueueAdvanced   = "QueueAdvanced"
	TypeMemberJoined    = "MemberJoined"
	TypeMemberLeft      = "MemberLeft"
	TypeChatMessage     = "ChatMessage"
	TypeVoiceSignal     = "VoiceSignal"
)

// PlaybackUpdatedPayload is the payload for a PlaybackUpdated event. It is
// the room's shared playback state as written by the host.
type PlaybackUpdatedPayload struct {
	CurrentTime   float64   `json:"current_time"`
	IsPlaying     bool      `json:"is_playing"`
	SchemaVersion int       `json:"schema_version"`
	UpdatedBy     string    `json:"updated_by"`
	UpdatedAt     time.Time `json:"updated_at"`
}

// VideoChangedPayload is the payload for a VideoChanged event
type VideoChangedPayload struct {
	VideoURL  string    `json:"video_url"`
	ChangedBy string    `json:"changed_by"`
	ChangedAt time.Time `json:"changed_at"`
}

// QueueAdvancedPayload is the payload for a QueueAdvanced event
type QueueAdvancedPayload struct {
	VideoURL       string    `json:"video_url"`
	QueueRemaining int       `json:"queue_remaining"`
	AdvancedAt     time.Time `json:"advanced_at"`
}

// MemberJoinedPayload is the payload for a MemberJoined event
type MemberJoinedPayload struct {
	UserID   string    `json:"user_id"`
	Username string    `json:"username"`
	IsHost   bool      `json:"is_host"`
	JoinedAt time.Time `json:"joined_at"`
}

// MemberLeftPayload is the payload for a MemberLeft event
type MemberLeftPayload struct {
	UserID string    `json:"user_id"`
	LeftAt time.Time `json:"left_at"`
}

// ChatMessagePayload is the payload for a ChatMessage event
type ChatMessagePayload struct {
	MessageID string    `json:"message_id"`
	UserID    string    `json:"user_id"`
	Username  string    `json:"username"`
	Body      string    `json:"body"`
	SentAt    time.Time `json:"sent_at"`
}

// VoiceSignalPayload is the payload for a VoiceSignal event. Signal is the
// opaque WebRTC handshake blob being relayed between two peers.
type VoiceSignalPayload struct {
	SignalID     string          `json:"signal_id"`
	FromUserID   string          `json:"from_user_id"`
	TargetUserID string          `json:"target_user_id"`
	SignalType   string          `json:"signal_type"`
	Signal       json.RawMessage `json:"signal"`
}
