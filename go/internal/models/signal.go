package models

import (
	"encoding/json"
	"time"

	"github.com/google/uuid"
)

// SignalType defines the kind of WebRTC handshake payload being relayed.
type SignalType string

const (
	SignalTypeOffer     SignalType = "offer"
	SignalTypeAnswer    SignalType = "answer"
	SignalTypeCandidate SignalType = "candidate"
)

// Signal is a relayed WebRTC handshake record. The payload is opaque to the
// server; it is routed to the target user and deleted once consumed, so
// delivery is at-most-once per record. Duplicates before deletion completes
// are possible and tolerated by peers.
type Signal struct {
	ID           uuid.UUID       `json:"id"`
	RoomID       uuid.UUID       `json:"room_id"`
	FromUserID   uuid.UUID       `json:"from_user_id"`
	TargetUserID uuid.UUID       `json:"target_user_id"`
	Type         SignalType      `json:"type"`
	Payload      json.RawMessage `json:"payload"`
	CreatedAt    time.Time       `json:"created_at"`
}
