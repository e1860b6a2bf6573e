package chat

import (
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/rs/zerolog/log"

	"github.com/watchly/watchly/go/internal/rooms"
	"github.com/watchly/watchly/go/internal/web"
)

// PostMessageBody is the payload for posting a chat message
type PostMessageBody struct {
	Body string `json:"body"`
}

// Handler exposes the chat HTTP API
type Handler struct {
	app *App
}

// NewHandler creates a new chat handler
func NewHandler(app *App) *Handler {
	return &Handler{app: app}
}

// RegisterRoutes mounts the chat routes on the router
func (h *Handler) RegisterRoutes(r chi.Router) {
	r.Get("/api/rooms/{id}/chat", h.handleListRecent)
	r.Post("/api/rooms/{id}/chat", h.handlePostMessage)
}

func (h *Handler) handleListRecent(w http.ResponseWriter, r *http.Request) {
	roomID, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		web.Error(w, http.StatusBadRequest, "invalid room id")
		return
	}

	messages, err := h.app.ListRecent(r.Context(), roomID)
	if err != nil {
		log.Error().Err(err).Str("room_id", roomID.String()).Msg("failed to list chat messages")
		web.Error(w, http.StatusInternalServerError, "failed to list messages")
		return
	}
	web.JSON(w, http.StatusOK, messages)
}

func (h *Handler) handlePostMessage(w http.ResponseWriter, r *http.Request) {
	roomID, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		web.Error(w, http.StatusBadRequest, "invalid room id")
		return
	}
	userID, err := web.UserID(r)
	if err != nil {
		web.Error(w, http.StatusUnauthorized, err.Error())
		return
	}

	var body PostMessageBody
	if err := web.Decode(r, &body); err != nil {
		web.Error(w, http.StatusBadRequest, "invalid request body")
		return
	}

	msg, err := h.app.PostMessage(r.Context(), roomID, userID, body.Body)
	switch {
	case errors.Is(err, ErrEmptyMessage):
		web.Error(w, http.StatusBadRequest, err.Error())
	case errors.Is(err, rooms.ErrNotMember):
		web.Error(w, http.StatusForbidden, "only room members can chat")
	case err != nil:
		log.Error().Err(err).Str("room_id", roomID.String()).Msg("failed to post chat message")
		web.Error(w, http.StatusInternalServerError, "failed to post message")
	default:
		web.JSON(w, http.StatusCreated, msg)
	}
}
