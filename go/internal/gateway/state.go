package gateway

import (
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/watchly/watchly/go/internal/events"
)

// RoomState is the folded view of a room's event stream. Late joiners and
// reconnecting clients fetch it instead of replaying history.
type RoomState struct {
	RoomID         string    `json:"room_id"`
	VideoURL       string    `json:"video_url,omitempty"`
	CurrentTime    float64   `json:"current_time"`
	IsPlaying      bool      `json:"is_playing"`
	SchemaVersion  int       `json:"schema_version"`
	MemberCount    int       `json:"member_count"`
	QueueRemaining int       `json:"queue_remaining"`
	UpdatedAt      time.Time `json:"updated_at"`
}

// RoomStateManager folds room events into per-room state in memory.
type RoomStateManager struct {
	mu     sync.RWMutex
	states map[uuid.UUID]*RoomState
}

// NewRoomStateManager creates a new state manager
func NewRoomStateManager() *RoomStateManager {
	return &RoomStateManager{
		states: make(map[uuid.UUID]*RoomState),
	}
}

// GetState returns a copy of the current state for a room, or nil if no
// events have been seen for it.
func (sm *RoomStateManager) GetState(roomID uuid.UUID) *RoomState {
	sm.mu.RLock()
	defer sm.mu.RUnlock()

	state, ok := sm.states[roomID]
	if !ok {
		return nil
	}
	copied := *state
	return &copied
}

// RemoveState drops the state for a room, e.g. when it empties out.
func (sm *RoomStateManager) RemoveState(roomID uuid.UUID) {
	sm.mu.Lock()
	defer sm.mu.Unlock()
	delete(sm.states, roomID)
}

// ProcessEvent updates the room state based on an incoming event
func (sm *RoomStateManager) ProcessEvent(event *RoomEvent) error {
	roomID, err := uuid.Parse(event.RoomID)
	if err != nil {
		return err
	}

	payload, err := ParseEventPayload(event)
	if err != nil {
		return err
	}

	sm.mu.Lock()
	defer sm.mu.Unlock()

	state := sm.states[roomID]
	if state == nil {
		state = &RoomState{RoomID: event.RoomID, SchemaVersion: 1}
		sm.states[roomID] = state
	}

	switch p := payload.(type) {
	case events.PlaybackUpdatedPayload:
		state.CurrentTime = p.CurrentTime
		state.IsPlaying = p.IsPlaying
		state.SchemaVersion = p.SchemaVersion
		state.UpdatedAt = p.UpdatedAt

	case events.VideoChangedPayload:
		state.VideoURL = p.VideoURL
		state.CurrentTime = 0
		state.IsPlaying = false
		state.UpdatedAt = p.ChangedAt

	case events.QueueAdvancedPayload:
		state.VideoURL = p.VideoURL
		state.CurrentTime = 0
		state.IsPlaying = true
		state.QueueRemaining = p.QueueRemaining
		state.UpdatedAt = p.AdvancedAt

	case events.MemberJoinedPayload:
		state.MemberCount++
		state.UpdatedAt = p.JoinedAt

	case events.MemberLeftPayload:
		if state.MemberCount > 0 {
			state.MemberCount--
		}
		state.UpdatedAt = p.LeftAt

	default:
		// Chat and voice signals do not change the folded room state.
	}

	return nil
}
