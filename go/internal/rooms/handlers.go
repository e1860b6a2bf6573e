package rooms

import (
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/rs/zerolog/log"

	"github.com/watchly/watchly/go/internal/web"
)

// Handler exposes the rooms HTTP API
type Handler struct {
	app *App
}

// NewHandler creates a new rooms handler
func NewHandler(app *App) *Handler {
	return &Handler{app: app}
}

// RegisterRoutes mounts the rooms routes on the router
func (h *Handler) RegisterRoutes(r chi.Router) {
	r.Post("/api/rooms", h.handleCreateRoom)
	r.Get("/api/rooms/{id}", h.handleGetRoom)
	r.Post("/api/rooms/{id}/join", h.handleJoinRoom)
	r.Post("/api/rooms/{id}/leave", h.handleLeaveRoom)
	r.Put("/api/rooms/{id}/playback", h.handleUpdatePlayback)
	r.Put("/api/rooms/{id}/video", h.handleChangeVideo)
	r.Get("/api/rooms/{id}/members", h.handleListMembers)
	r.Get("/api/rooms/{id}/queue", h.handleListQueue)
	r.Post("/api/rooms/{id}/queue", h.handleAddToQueue)
	r.Post("/api/rooms/{id}/queue/advance", h.handleAdvanceQueue)
}

func (h *Handler) handleCreateRoom(w http.ResponseWriter, r *http.Request) {
	userID, err := web.UserID(r)
	if err != nil {
		web.Error(w, http.StatusUnauthorized, err.Error())
		return
	}

	var req CreateRoomRequest
	if err := web.Decode(r, &req); err != nil {
		web.Error(w, http.StatusBadRequest, "invalid request body")
		return
	}

	room, err := h.app.CreateRoom(r.Context(), userID, req)
	if err != nil {
		web.Error(w, http.StatusBadRequest, err.Error())
		return
	}
	web.JSON(w, http.StatusCreated, room)
}

func (h *Handler) handleGetRoom(w http.ResponseWriter, r *http.Request) {
	roomID, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		web.Error(w, http.StatusBadRequest, "invalid room id")
		return
	}

	room, err := h.app.GetRoom(r.Context(), roomID)
	if errors.Is(err, ErrRoomNotFound) {
		web.Error(w, http.StatusNotFound, "room not found")
		return
	}
	if err != nil {
		log.Error().Err(err).Msg("failed to get room")
		web.Error(w, http.StatusInternalServerError, "failed to get room")
		return
	}
	web.JSON(w, http.StatusOK, room)
}

func (h *Handler) handleJoinRoom(w http.ResponseWriter, r *http.Request) {
	roomID, userID, ok := h.roomAndUser(w, r)
	if !ok {
		return
	}

	var req JoinRoomRequest
	if r.ContentLength > 0 {
		if err := web.Decode(r, &req); err != nil {
			web.Error(w, http.StatusBadRequest, "invalid request body")
			return
		}
	}

	room, err := h.app.JoinRoom(r.Context(), roomID, userID, req)
	switch {
	case errors.Is(err, ErrRoomNotFound):
		web.Error(w, http.StatusNotFound, "room not found")
	case errors.Is(err, ErrWrongPassword):
		web.Error(w, http.StatusForbidden, "wrong room password")
	case err != nil:
		log.Error().Err(err).Msg("failed to join room")
		web.Error(w, http.StatusInternalServerError, "failed to join room")
	default:
		web.JSON(w, http.StatusOK, room)
	}
}

func (h *Handler) handleLeaveRoom(w http.ResponseWriter, r *http.Request) {
	roomID, userID, ok := h.roomAndUser(w, r)
	if !ok {
		return
	}

	err := h.app.LeaveRoom(r.Context(), roomID, userID)
	if errors.Is(err, ErrNotMember) {
		web.Error(w, http.StatusNotFound, "not a member of the room")
		return
	}
	if err != nil {
		log.Error().Err(err).Msg("failed to leave room")
		web.Error(w, http.StatusInternalServerError, "failed to leave room")
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *Handler) handleUpdatePlayback(w http.ResponseWriter, r *http.Request) {
	roomID, userID, ok := h.roomAndUser(w, r)
	if !ok {
		return
	}

	var req UpdatePlaybackRequest
	if err := web.Decode(r, &req); err != nil {
		web.Error(w, http.StatusBadRequest, "invalid request body")
		return
	}

	room, err := h.app.UpdatePlayback(r.Context(), roomID, userID, req)
	switch {
	case errors.Is(err, ErrNotHost):
		web.Error(w, http.StatusForbidden, "only the host can control playback")
	case errors.Is(err, ErrNotMember):
		web.Error(w, http.StatusForbidden, "not a member of the room")
	case errors.Is(err, ErrRoomNotFound):
		web.Error(w, http.StatusNotFound, "room not found")
	case err != nil:
		log.Error().Err(err).Msg("failed to update playback")
		web.Error(w, http.StatusInternalServerError, "failed to update playback")
	default:
		web.JSON(w, http.StatusOK, room)
	}
}

func (h *Handler) handleChangeVideo(w http.ResponseWriter, r *http.Request) {
	roomID, userID, ok := h.roomAndUser(w, r)
	if !ok {
		return
	}

	var req ChangeVideoRequest
	if err := web.Decode(r, &req); err != nil {
		web.Error(w, http.StatusBadRequest, "invalid request body")
		return
	}

	room, err := h.app.ChangeVideo(r.Context(), roomID, userID, req)
	switch {
	case errors.Is(err, ErrNotHost):
		web.Error(w, http.StatusForbidden, "only the host can change the video")
	case errors.Is(err, ErrNotMember):
		web.Error(w, http.StatusForbidden, "not a member of the room")
	case err != nil:
		web.Error(w, http.StatusBadRequest, err.Error())
	default:
		web.JSON(w, http.StatusOK, room)
	}
}

func (h *Handler) handleListMembers(w http.ResponseWriter, r *http.Request) {
	roomID, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		web.Error(w, http.StatusBadRequest, "invalid room id")
		return
	}

	members, err := h.app.ListMembers(r.Context(), roomID)
	if err != nil {
		web.Error(w, http.StatusInternalServerError, "failed to list members")
		return
	}
	web.JSON(w, http.StatusOK, members)
}

func (h *Handler) handleListQueue(w http.ResponseWriter, r *http.Request) {
	roomID, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		web.Error(w, http.StatusBadRequest, "invalid room id")
		return
	}

	queue, err := h.app.ListQueue(r.Context(), roomID)
	if err != nil {
		web.Error(w, http.StatusInternalServerError, "failed to list queue")
		return
	}
	web.JSON(w, http.StatusOK, queue)
}

func (h *Handler) handleAddToQueue(w http.ResponseWriter, r *http.Request) {
	roomID, userID, ok := h.roomAndUser(w, r)
	if !ok {
		return
	}

	var req AddQueueRequest
	if err := web.Decode(r, &req); err != nil {
		web.Error(w, http.StatusBadRequest, "invalid request body")
		return
	}

	entry, err := h.app.AddToQueue(r.Context(), roomID, userID, req)
	switch {
	case errors.Is(err, ErrNotMember):
		web.Error(w, http.StatusForbidden, "not a member of the room")
	case err != nil:
		web.Error(w, http.StatusBadRequest, err.Error())
	default:
		web.JSON(w, http.StatusCreated, entry)
	}
}

func (h *Handler) handleAdvanceQueue(w http.ResponseWriter, r *http.Request) {
	roomID, userID, ok := h.roomAndUser(w, r)
	if !ok {
		return
	}

	room, err := h.app.AdvanceQueue(r.Context(), roomID, userID)
	switch {
	case errors.Is(err, ErrNotHost):
		web.Error(w, http.StatusForbidden, "only the host can advance the queue")
	case errors.Is(err, ErrQueueEmpty):
		web.Error(w, http.StatusConflict, "room queue is empty")
	case errors.Is(err, ErrNotMember):
		web.Error(w, http.StatusForbidden, "not a member of the room")
	case err != nil:
		log.Error().Err(err).Msg("failed to advance queue")
		web.Error(w, http.StatusInternalServerError, "failed to advance queue")
	default:
		web.JSON(w, http.StatusOK, room)
	}
}

func (h *Handler) roomAndUser(w http.ResponseWriter, r *http.Request) (uuid.UUID, uuid.UUID, bool) {
	roomID, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		web.Error(w, http.StatusBadRequest, "invalid room id")
		return uuid.Nil, uuid.Nil, false
	}
	userID, err := web.UserID(r)
	if err != nil {
		web.Error(w, http.StatusUnauthorized, err.Error())
		return uuid.Nil, uuid.Nil, false
	}
	return roomID, userID, true
}
