package gateway

import (
	"context"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/rs/zerolog/log"

	"github.com/watchly/watchly/go/internal/events"
	"github.com/watchly/watchly/go/internal/models"
	"github.com/watchly/watchly/go/internal/web"
)

// MemberChecker verifies room membership before the socket upgrade.
type MemberChecker interface {
	GetMember(ctx context.Context, roomID, userID uuid.UUID) (*models.RoomMember, error)
}

// SignalDrainer hands a reconnecting user the handshake records that arrived
// while they were away.
type SignalDrainer interface {
	DrainPending(ctx context.Context, roomID, userID uuid.UUID) ([]events.VoiceSignalPayload, error)
}

// SnapshotProvider loads the authoritative playback state for rooms the
// in-memory fold has not seen yet.
type SnapshotProvider interface {
	PlaybackSnapshot(ctx context.Context, roomID uuid.UUID) (*events.PlaybackUpdatedPayload, error)
}

// WebSocketHandler handles WebSocket upgrade requests for room connections
type WebSocketHandler struct {
	connectionManager *ConnectionManager
	stateManager      *RoomStateManager
	members           MemberChecker
	signals           SignalDrainer
	snapshots         SnapshotProvider
}

// NewWebSocketHandler creates a new WebSocket handler
func NewWebSocketHandler(cm *ConnectionManager, sm *RoomStateManager, members MemberChecker, signals SignalDrainer, snapshots SnapshotProvider) *WebSocketHandler {
	return &WebSocketHandler{
		connectionManager: cm,
		stateManager:      sm,
		members:           members,
		signals:           signals,
		snapshots:         snapshots,
	}
}

// RegisterRoutes mounts the gateway routes on the router
func (h *WebSocketHandler) RegisterRoutes(r chi.Router) {
	r.Get("/ws/rooms", h.HandleRoomConnection)
	r.Get("/ws/stats", h.HandleConnectionStats)
	r.Get("/api/rooms/{id}/state", h.HandleRoomState)
}

// HandleRoomConnection handles WebSocket connections for a specific room
func (h *WebSocketHandler) HandleRoomConnection(w http.ResponseWriter, r *http.Request) {
	roomID, err := uuid.Parse(r.URL.Query().Get("room_id"))
	if err != nil {
		http.Error(w, "room_id is required", http.StatusBadRequest)
		return
	}

	userID, err := web.UserID(r)
	if err != nil {
		// Browsers cannot set headers on the WebSocket handshake, so the
		// identity may ride in the query string instead.
		userID, err = uuid.Parse(r.URL.Query().Get("user_id"))
		if err != nil {
			http.Error(w, "user identity is required", http.StatusUnauthorized)
			return
		}
	}

	if _, err := h.members.GetMember(r.Context(), roomID, userID); err != nil {
		http.Error(w, "not a member of this room", http.StatusForbidden)
		return
	}

	conn, err := h.connectionManager.UpgradeConnection(w, r, userID, roomID)
	if err != nil {
		log.Error().
			Err(err).
			Str("room_id", roomID.String()).
			Str("user_id", userID.String()).
			Msg("failed to upgrade WebSocket connection")
		return
	}

	h.sendStateSnapshot(r.Context(), conn)
	h.drainSignals(conn)
}

// sendStateSnapshot pushes the current playback state so the joiner converges
// immediately instead of waiting for the next host write.
func (h *WebSocketHandler) sendStateSnapshot(ctx context.Context, conn *Connection) {
	if state := h.stateManager.GetState(conn.RoomID); state != nil {
		event, err := NewRoomEvent(conn.RoomID, events.TypePlaybackUpdated, events.PlaybackUpdatedPayload{
			CurrentTime:   state.CurrentTime,
			IsPlaying:     state.IsPlaying,
			SchemaVersion: state.SchemaVersion,
			UpdatedAt:     state.UpdatedAt,
		})
		if err == nil {
			conn.SendEvent(event)
		}
		return
	}

	if h.snapshots == nil {
		return
	}
	snapshot, err := h.snapshots.PlaybackSnapshot(ctx, conn.RoomID)
	if err != nil {
		log.Error().
			Err(err).
			Str("room_id", conn.RoomID.String()).
			Msg("failed to load playback snapshot")
		return
	}
	event, err := NewRoomEvent(conn.RoomID, events.TypePlaybackUpdated, snapshot)
	if err == nil {
		conn.SendEvent(event)
	}
}

// drainSignals delivers handshake records queued while the user was offline.
func (h *WebSocketHandler) drainSignals(conn *Connection) {
	if h.signals == nil {
		return
	}
	pending, err := h.signals.DrainPending(context.Background(), conn.RoomID, conn.UserID)
	if err != nil {
		log.Error().
			Err(err).
			Str("room_id", conn.RoomID.String()).
			Str("user_id", conn.UserID.String()).
			Msg("failed to drain pending signals")
		return
	}
	for i := range pending {
		event, err := NewRoomEvent(conn.RoomID, events.TypeVoiceSignal, pending[i])
		if err != nil {
			continue
		}
		conn.SendEvent(event)
	}
}

// HandleRoomState returns the folded state for late joiners over HTTP.
func (h *WebSocketHandler) HandleRoomState(w http.ResponseWriter, r *http.Request) {
	roomID, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		web.Error(w, http.StatusBadRequest, "invalid room id")
		return
	}

	if state := h.stateManager.GetState(roomID); state != nil {
		web.JSON(w, http.StatusOK, state)
		return
	}

	if h.snapshots != nil {
		snapshot, err := h.snapshots.PlaybackSnapshot(r.Context(), roomID)
		if err == nil {
			web.JSON(w, http.StatusOK, RoomState{
				RoomID:        roomID.String(),
				CurrentTime:   snapshot.CurrentTime,
				IsPlaying:     snapshot.IsPlaying,
				SchemaVersion: snapshot.SchemaVersion,
				UpdatedAt:     snapshot.UpdatedAt,
			})
			return
		}
	}
	web.Error(w, http.StatusNotFound, "no state for room")
}

// HandleConnectionStats returns statistics about active connections
func (h *WebSocketHandler) HandleConnectionStats(w http.ResponseWriter, r *http.Request) {
	web.JSON(w, http.StatusOK, h.connectionManager.GetConnectionStats())
}
