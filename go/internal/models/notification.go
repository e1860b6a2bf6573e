package models

import (
	"time"

	"github.com/google/uuid"
)

// NotificationType defines the kind of notification.
type NotificationType string

const (
	NotificationTypeFriendAccepted NotificationType = "FRIEND_ACCEPTED"
	NotificationTypeFriendRequest  NotificationType = "FRIEND_REQUEST"
	NotificationTypeRoomInvite     NotificationType = "ROOM_INVITE"
	NotificationTypeSystem         NotificationType = "SYSTEM"
)

// Notification is a persisted entry in a user's notification feed.
type Notification struct {
	ID        uuid.UUID        `json:"id"`
	UserID    uuid.UUID        `json:"user_id"`
	Type      NotificationType `json:"type"`
	Message   string           `json:"message"`
	Read      bool             `json:"read"`
	CreatedAt time.Time        `json:"created_at"`
}

// FeedItemKind distinguishes the sources merged into the unified feed.
type FeedItemKind string

const (
	FeedItemFriendRequest FeedItemKind = "friend_request"
	FeedItemRoomInvite    FeedItemKind = "room_invite"
	FeedItemNotification  FeedItemKind = "notification"
)

// FeedItem is one entry of the merged notification feed: pending friend
// requests and room invites interleaved with true notifications, newest first.
type FeedItem struct {
	Kind      FeedItemKind  `json:"kind"`
	CreatedAt time.Time     `json:"created_at"`
	Request   *FriendRequest `json:"friend_request,omitempty"`
	Invite    *RoomInvite    `json:"room_invite,omitempty"`
	Note      *Notification  `json:"notification,omitempty"`
}
