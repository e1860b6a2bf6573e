package models

import (
	"time"

	"github.com/google/uuid"
)

// RequestStatus defines the lifecycle state of a friend request or room
// invite. Requests only ever exist as PENDING rows; accepting or declining
// deletes the row, so absence of the record is the terminal signal.
type RequestStatus string

const (
	RequestStatusPending RequestStatus = "PENDING"
)

// FriendRequest is a one-directional pending request from one user to another.
type FriendRequest struct {
	ID           uuid.UUID     `json:"id"`
	FromUserID   uuid.UUID     `json:"from_user_id"`
	ToUserID     uuid.UUID     `json:"to_user_id"`
	FromUsername string        `json:"from_username"`
	Status       RequestStatus `json:"status"`
	CreatedAt    time.Time     `json:"created_at"`
}

// RoomInvite is a pending invitation to join a room.
type RoomInvite struct {
	ID           uuid.UUID     `json:"id"`
	RoomID       uuid.UUID     `json:"room_id"`
	RoomName     string        `json:"room_name"`
	FromUserID   uuid.UUID     `json:"from_user_id"`
	ToUserID     uuid.UUID     `json:"to_user_id"`
	FromUsername string        `json:"from_username"`
	Status       RequestStatus `json:"status"`
	CreatedAt    time.Time     `json:"created_at"`
}
