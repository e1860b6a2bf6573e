package gateway

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"

	"github.com/watchly/watchly/go/internal/models"
	"github.com/watchly/watchly/go/internal/rooms"
)

// Client message types accepted over the room socket.
const (
	ClientMsgPlayback     = "update_playback"
	ClientMsgChat         = "chat"
	ClientMsgVoiceSignal  = "voice_signal"
	ClientMsgAdvanceQueue = "advance_queue"
)

const clientMessageTimeout = 10 * time.Second

// ClientMessage is the inbound frame from a room socket.
type ClientMessage struct {
	Type string          `json:"type"`
	Data json.RawMessage `json:"data"`
}

// PlaybackService is the slice of the rooms app the router needs.
type PlaybackService interface {
	UpdatePlayback(ctx context.Context, roomID, userID uuid.UUID, req rooms.UpdatePlaybackRequest) (*models.Room, error)
	AdvanceQueue(ctx context.Context, roomID, userID uuid.UUID) (*models.Room, error)
}

// ChatService posts chat messages on behalf of connected clients.
type ChatService interface {
	PostMessage(ctx context.Context, roomID, userID uuid.UUID, body string) (*models.ChatMessage, error)
}

// SignalService relays WebRTC handshake blobs between peers.
type SignalService interface {
	Send(ctx context.Context, roomID, fromUserID, targetUserID uuid.UUID, typ models.SignalType, payload json.RawMessage) (*models.Signal, error)
}

// MessageRouter routes inbound socket frames to the owning service. Host-only
// controls are enforced server side: a viewer's playback intent is rejected
// with a Notice event on their own socket, never applied.
type MessageRouter struct {
	playback PlaybackService
	chat     ChatService
	signals  SignalService
}

// NewMessageRouter creates a new client message router.
func NewMessageRouter(playback PlaybackService, chat ChatService, signals SignalService) *MessageRouter {
	return &MessageRouter{playback: playback, chat: chat, signals: signals}
}

type chatFrame struct {
	Body string `json:"body"`
}

type signalFrame struct {
	TargetUserID uuid.UUID       `json:"target_user_id"`
	SignalType   string          `json:"signal_type"`
	Signal       json.RawMessage `json:"signal"`
}

// HandleClientMessage implements ClientMessageHandler.
func (mr *MessageRouter) HandleClientMessage(conn *Connection, message []byte) {
	var msg ClientMessage
	if err := json.Unmarshal(message, &msg); err != nil {
		log.Debug().
			Str("connection_id", conn.ID).
			Msg("dropping malformed client message")
		return
	}

	ctx, cancel := context.WithTimeout(context.Background(), clientMessageTimeout)
	defer cancel()

	switch msg.Type {
	case ClientMsgPlayback:
		mr.handlePlayback(ctx, conn, msg.Data)
	case ClientMsgChat:
		mr.handleChat(ctx, conn, msg.Data)
	case ClientMsgVoiceSignal:
		mr.handleSignal(ctx, conn, msg.Data)
	case ClientMsgAdvanceQueue:
		mr.handleAdvanceQueue(ctx, conn)
	default:
		log.Debug().
			Str("connection_id", conn.ID).
			Str("type", msg.Type).
			Msg("unknown client message type")
	}
}

func (mr *MessageRouter) handlePlayback(ctx context.Context, conn *Connection, data json.RawMessage) {
	var req rooms.UpdatePlaybackRequest
	if err := json.Unmarshal(data, &req); err != nil {
		mr.notify(conn, "invalid playback update")
		return
	}

	_, err := mr.playback.UpdatePlayback(ctx, conn.RoomID, conn.UserID, req)
	if errors.Is(err, rooms.ErrNotHost) {
		mr.notify(conn, rooms.ErrNotHost.Error())
		return
	}
	if err != nil {
		log.Error().
			Err(err).
			Str("room_id", conn.RoomID.String()).
			Str("user_id", conn.UserID.String()).
			Msg("playback update failed")
		mr.notify(conn, "could not update playback")
	}
}

func (mr *MessageRouter) handleChat(ctx context.Context, conn *Connection, data json.RawMessage) {
	var frame chatFrame
	if err := json.Unmarshal(data, &frame); err != nil {
		mr.notify(conn, "invalid chat message")
		return
	}

	if _, err := mr.chat.PostMessage(ctx, conn.RoomID, conn.UserID, frame.Body); err != nil {
		log.Debug().
			Err(err).
			Str("room_id", conn.RoomID.String()).
			Msg("chat message rejected")
		mr.notify(conn, "could not send message")
	}
}

func (mr *MessageRouter) handleSignal(ctx context.Context, conn *Connection, data json.RawMessage) {
	var frame signalFrame
	if err := json.Unmarshal(data, &frame); err != nil {
		mr.notify(conn, "invalid signal")
		return
	}

	_, err := mr.signals.Send(ctx, conn.RoomID, conn.UserID, frame.TargetUserID, models.SignalType(frame.SignalType), frame.Signal)
	if err != nil {
		// One bad peer exchange must not disturb the rest of the room.
		log.Debug().
			Err(err).
			Str("room_id", conn.RoomID.String()).
			Str("from", conn.UserID.String()).
			Msg("signal relay rejected")
		mr.notify(conn, "could not relay signal")
	}
}

func (mr *MessageRouter) handleAdvanceQueue(ctx context.Context, conn *Connection) {
	_, err := mr.playback.AdvanceQueue(ctx, conn.RoomID, conn.UserID)
	switch {
	case errors.Is(err, rooms.ErrNotHost):
		mr.notify(conn, rooms.ErrNotHost.Error())
	case errors.Is(err, rooms.ErrQueueEmpty):
		// Nothing queued after the video ended; the room simply idles.
	case err != nil:
		log.Error().
			Err(err).
			Str("room_id", conn.RoomID.String()).
			Msg("queue advance failed")
		mr.notify(conn, "could not advance queue")
	}
}

// notify sends a Notice event to this connection only.
func (mr *MessageRouter) notify(conn *Connection, message string) {
	event, err := NewRoomEvent(conn.RoomID, EventTypeNotice, NoticePayload{Message: message})
	if err != nil {
		return
	}
	conn.SendEvent(event)
}

var _ ClientMessageHandler = (*MessageRouter)(nil)
