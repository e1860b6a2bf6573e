package gateway

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/watchly/watchly/go/internal/events"
)

// RoomEvent is the envelope pushed to WebSocket clients.
type RoomEvent struct {
	ID        string          `json:"id"`
	RoomID    string          `json:"room_id"`
	Type      string          `json:"type"`
	Timestamp time.Time       `json:"timestamp"`
	Data      json.RawMessage `json:"data"`
}

// EventTypeNotice is a gateway-local event carrying a user-facing message,
// e.g. the rejection notice when a viewer tries a host-only control.
const EventTypeNotice = "Notice"

// NoticePayload is the payload for a Notice event
type NoticePayload struct {
	Message string `json:"message"`
}

// NewRoomEvent wraps a payload in a RoomEvent envelope.
func NewRoomEvent(roomID uuid.UUID, eventType string, payload any) (*RoomEvent, error) {
	data, err := json.Marshal(payload)
	if err != nil {
		return nil, fmt.Errorf("marshal %s payload: %w", eventType, err)
	}
	return &RoomEvent{
		ID:        uuid.New().String(),
		RoomID:    roomID.String(),
		Type:      eventType,
		Timestamp: time.Now(),
		Data:      data,
	}, nil
}

// ParseEventPayload parses event data into the appropriate payload struct
func ParseEventPayload(event *RoomEvent) (any, error) {
	switch event.Type {
	case events.TypePlaybackUpdated:
		var payload events.PlaybackUpdatedPayload
		if err := json.Unmarshal(event.Data, &payload); err != nil {
			return nil, err
		}
		return payload, nil

	case events.TypeVideoChanged:
		var payload events.VideoChangedPayload
		if err := json.Unmarshal(event.Data, &payload); err != nil {
			return nil, err
		}
		return payload, nil

	case events.TypeQueueAdvanced:
		var payload events.QueueAdvancedPayload
		if err := json.Unmarshal(event.Data, &payload); err != nil {
			return nil, err
		}
		return payload, nil

	case events.TypeMemberJoined:
		var payload events.MemberJoinedPayload
		if err := json.Unmarshal(event.Data, &payload); err != nil {
			return nil, err
		}
		return payload, nil

	case events.TypeMemberLeft:
		var payload events.MemberLeftPayload
		if err := json.Unmarshal(event.Data, &payload); err != nil {
			return nil, err
		}
		return payload, nil

	case events.TypeChatMessage:
		var payload events.ChatMessagePayload
		if err := json.Unmarshal(event.Data, &payload); err != nil {
			return nil, err
		}
		return payload, nil

	case events.TypeVoiceSignal:
		var payload events.VoiceSignalPayload
		if err := json.Unmarshal(event.Data, &payload); err != nil {
			return nil, err
		}
		return payload, nil

	case EventTypeNotice:
		var payload NoticePayload
		if err := json.Unmarshal(event.Data, &payload); err != nil {
			return nil, err
		}
		return payload, nil

	default:
		return nil, nil // Unknown event type
	}
}
