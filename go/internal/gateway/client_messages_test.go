package gateway

import (
	"context"
	"encoding/json"
	"testing"

	"github.com/google/uuid"
	"github.com/watchly/watchly/go/internal/models"
	"github.com/watchly/watchly/go/internal/rooms"
)

type fakePlayback struct {
	hostID  uuid.UUID
	updates []rooms.UpdatePlaybackRequest
}

func (f *fakePlayback) UpdatePlayback(_ context.Context, _ uuid.UUID, userID uuid.UUID, req rooms.UpdatePlaybackRequest) (*models.Room, error) {
	if userID != f.hostID {
		return nil, rooms.ErrNotHost
	}
	f.updates = append(f.updates, req)
	return &models.Room{}, nil
}

func (f *fakePlayback) AdvanceQueue(_ context.Context, _ uuid.UUID, userID uuid.UUID) (*models.Room, error) {
	if userID != f.hostID {
		return nil, rooms.ErrNotHost
	}
	return &models.Room{}, nil
}

type fakeChat struct {
	posted []string
}

func (f *fakeChat) PostMessage(_ context.Context, _ uuid.UUID, _ uuid.UUID, body string) (*models.ChatMessage, error) {
	f.posted = append(f.posted, body)
	return &models.ChatMessage{Body: body}, nil
}

type fakeSignals struct {
	sent int
}

func (f *fakeSignals) Send(_ context.Context, _ uuid.UUID, _, _ uuid.UUID, _ models.SignalType, _ json.RawMessage) (*models.Signal, error) {
	f.sent++
	return &models.Signal{}, nil
}

func frame(t *testing.T, msgType string, data any) []byte {
	t.Helper()
	raw, err := json.Marshal(data)
	if err != nil {
		t.Fatalf("marshal frame data: %v", err)
	}
	out, err := json.Marshal(ClientMessage{Type: msgType, Data: raw})
	if err != nil {
		t.Fatalf("marshal frame: %v", err)
	}
	return out
}

func testConn(userID uuid.UUID) *Connection {
	return &Connection{
		ID:     uuid.NewString(),
		UserID: userID,
		RoomID: uuid.New(),
		Send:   make(chan []byte, 8),
	}
}

func receivedEvent(t *testing.T, conn *Connection) *RoomEvent {
	t.Helper()
	select {
	case data := <-conn.Send:
		var event RoomEvent
		if err := json.Unmarshal(data, &event); err != nil {
			t.Fatalf("unmarshal event: %v", err)
		}
		return &event
	default:
		return nil
	}
}

func TestHostPlaybackIntentApplied(t *testing.T) {
	host := uuid.New()
	playback := &fakePlayback{hostID: host}
	router := NewMessageRouter(playback, &fakeChat{}, &fakeSignals{})
	conn := testConn(host)

	router.HandleClientMessage(conn, frame(t, ClientMsgPlayback, rooms.UpdatePlaybackRequest{CurrentTime: 12, IsPlaying: true}))

	if len(playback.updates) != 1 {
		t.Fatalf("expected one playback write, got %d", len(playback.updates))
	}
	if event := receivedEvent(t, conn); event != nil {
		t.Fatalf("host write must not produce a notice, got %s", event.Type)
	}
}

func TestViewerPlaybackIntentRejectedWithNotice(t *testing.T) {
	playback := &fakePlayback{hostID: uuid.New()}
	router := NewMessageRouter(playback, &fakeChat{}, &fakeSignals{})
	viewer := testConn(uuid.New())

	router.HandleClientMessage(viewer, frame(t, ClientMsgPlayback, rooms.UpdatePlaybackRequest{CurrentTime: 99, IsPlaying: true}))

	if len(playback.updates) != 0 {
		t.Fatalf("viewer intent must not be applied, got %d writes", len(playback.updates))
	}
	event := receivedEvent(t, viewer)
	if event == nil || event.Type != EventTypeNotice {
		t.Fatalf("expected a Notice event, got %+v", event)
	}
	var payload NoticePayload
	if err := json.Unmarshal(event.Data, &payload); err != nil {
		t.Fatalf("unmarshal notice: %v", err)
	}
	if payload.Message != rooms.ErrNotHost.Error() {
		t.Fatalf("unexpected notice message %q", payload.Message)
	}
}

func TestChatFrameRouted(t *testing.T) {
	chat := &fakeChat{}
	router := NewMessageRouter(&fakePlayback{}, chat, &fakeSignals{})
	conn := testConn(uuid.New())

	router.HandleClientMessage(conn, frame(t, ClientMsgChat, map[string]string{"body": "hello"}))

	if len(chat.posted) != 1 || chat.posted[0] != "hello" {
		t.Fatalf("expected chat message routed, got %v", chat.posted)
	}
}

func TestMalformedFrameDropped(t *testing.T) {
	playback := &fakePlayback{}
	router := NewMessageRouter(playback, &fakeChat{}, &fakeSignals{})
	conn := testConn(uuid.New())

	router.HandleClientMessage(conn, []byte("not json"))

	if len(playback.updates) != 0 {
		t.Fatal("malformed frame must not reach services")
	}
	if event := receivedEvent(t, conn); event != nil {
		t.Fatalf("malformed frame is dropped silently, got %s", event.Type)
	}
}
