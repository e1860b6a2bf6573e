package gateway

import (
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/watchly/watchly/go/internal/events"
)

func mustEvent(t *testing.T, roomID uuid.UUID, eventType string, payload any) *RoomEvent {
	t.Helper()
	event, err := NewRoomEvent(roomID, eventType, payload)
	if err != nil {
		t.Fatalf("NewRoomEvent: %v", err)
	}
	return event
}

func TestStateFoldsPlaybackUpdates(t *testing.T) {
	sm := NewRoomStateManager()
	roomID := uuid.New()
	now := time.Now()

	err := sm.ProcessEvent(mustEvent(t, roomID, events.TypePlaybackUpdated, events.PlaybackUpdatedPayload{
		CurrentTime:   42.5,
		IsPlaying:     true,
		SchemaVersion: 1,
		UpdatedAt:     now,
	}))
	if err != nil {
		t.Fatalf("ProcessEvent: %v", err)
	}

	state := sm.GetState(roomID)
	if state == nil {
		t.Fatal("expected state after playback event")
	}
	if state.CurrentTime != 42.5 || !state.IsPlaying {
		t.Fatalf("unexpected state %+v", state)
	}
}

func TestStateVideoChangeResetsPlayback(t *testing.T) {
	sm := NewRoomStateManager()
	roomID := uuid.New()

	sm.ProcessEvent(mustEvent(t, roomID, events.TypePlaybackUpdated, events.PlaybackUpdatedPayload{
		CurrentTime: 120, IsPlaying: true, SchemaVersion: 1,
	}))
	sm.ProcessEvent(mustEvent(t, roomID, events.TypeVideoChanged, events.VideoChangedPayload{
		VideoURL: "https://example.com/next.mp4",
	}))

	state := sm.GetState(roomID)
	if state.VideoURL != "https://example.com/next.mp4" {
		t.Fatalf("expected new video url, got %q", state.VideoURL)
	}
	if state.CurrentTime != 0 || state.IsPlaying {
		t.Fatalf("video change must reset playback, got %+v", state)
	}
}

func TestStateQueueAdvanceAutoplays(t *testing.T) {
	sm := NewRoomStateManager()
	roomID := uuid.New()

	sm.ProcessEvent(mustEvent(t, roomID, events.TypeQueueAdvanced, events.QueueAdvancedPayload{
		VideoURL:       "https://example.com/queued.mp4",
		QueueRemaining: 2,
	}))

	state := sm.GetState(roomID)
	if !state.IsPlaying || state.CurrentTime != 0 {
		t.Fatalf("queue advance must autoplay from zero, got %+v", state)
	}
	if state.QueueRemaining != 2 {
		t.Fatalf("expected queue remaining 2, got %d", state.QueueRemaining)
	}
}

func TestStateMemberCountNeverNegative(t *testing.T) {
	sm := NewRoomStateManager()
	roomID := uuid.New()

	sm.ProcessEvent(mustEvent(t, roomID, events.TypeMemberJoined, events.MemberJoinedPayload{UserID: uuid.NewString()}))
	sm.ProcessEvent(mustEvent(t, roomID, events.TypeMemberLeft, events.MemberLeftPayload{UserID: uuid.NewString()}))
	sm.ProcessEvent(mustEvent(t, roomID, events.TypeMemberLeft, events.MemberLeftPayload{UserID: uuid.NewString()}))

	if count := sm.GetState(roomID).MemberCount; count != 0 {
		t.Fatalf("expected member count 0, got %d", count)
	}
}

func TestStateChatDoesNotTouchPlayback(t *testing.T) {
	sm := NewRoomStateManager()
	roomID := uuid.New()

	sm.ProcessEvent(mustEvent(t, roomID, events.TypePlaybackUpdated, events.PlaybackUpdatedPayload{
		CurrentTime: 30, IsPlaying: true, SchemaVersion: 1,
	}))
	sm.ProcessEvent(mustEvent(t, roomID, events.TypeChatMessage, events.ChatMessagePayload{Body: "hi"}))

	state := sm.GetState(roomID)
	if state.CurrentTime != 30 || !state.IsPlaying {
		t.Fatalf("chat must not change playback state, got %+v", state)
	}
}

func TestGetStateReturnsCopy(t *testing.T) {
	sm := NewRoomStateManager()
	roomID := uuid.New()

	sm.ProcessEvent(mustEvent(t, roomID, events.TypePlaybackUpdated, events.PlaybackUpdatedPayload{
		CurrentTime: 10, SchemaVersion: 1,
	}))

	state := sm.GetState(roomID)
	state.CurrentTime = 999

	if sm.GetState(roomID).CurrentTime != 10 {
		t.Fatal("GetState must return a copy, not the shared instance")
	}
}
