package invites

import (
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/rs/zerolog/log"

	"github.com/watchly/watchly/go/internal/rooms"
	"github.com/watchly/watchly/go/internal/web"
)

// SendInviteBody is the payload for creating a room invite
type SendInviteBody struct {
	ToUserID uuid.UUID `json:"to_user_id"`
}

// Handler exposes the invites HTTP API
type Handler struct {
	app *App
}

// NewHandler creates a new invites handler
func NewHandler(app *App) *Handler {
	return &Handler{app: app}
}

// RegisterRoutes mounts the invites routes on the router
func (h *Handler) RegisterRoutes(r chi.Router) {
	r.Post("/api/rooms/{id}/invites", h.handleSendInvite)
	r.Get("/api/invites", h.handleListPending)
	r.Post("/api/invites/{id}/accept", h.handleAccept)
	r.Post("/api/invites/{id}/decline", h.handleDecline)
}

func (h *Handler) handleSendInvite(w http.ResponseWriter, r *http.Request) {
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

	var body SendInviteBody
	if err := web.Decode(r, &body); err != nil {
		web.Error(w, http.StatusBadRequest, "invalid request body")
		return
	}

	inv, err := h.app.SendInvite(r.Context(), roomID, userID, body.ToUserID)
	switch {
	case errors.Is(err, rooms.ErrRoomNotFound):
		web.Error(w, http.StatusNotFound, "room not found")
	case errors.Is(err, rooms.ErrNotMember):
		web.Error(w, http.StatusForbidden, "only room members can invite")
	case errors.Is(err, ErrSelfInvite), errors.Is(err, ErrAlreadyInvited):
		web.Error(w, http.StatusConflict, err.Error())
	case err != nil:
		web.Error(w, http.StatusBadRequest, err.Error())
	default:
		web.JSON(w, http.StatusCreated, inv)
	}
}

func (h *Handler) handleListPending(w http.ResponseWriter, r *http.Request) {
	userID, err := web.UserID(r)
	if err != nil {
		web.Error(w, http.StatusUnauthorized, err.Error())
		return
	}

	invites, err := h.app.ListPendingFor(r.Context(), userID)
	if err != nil {
		log.Error().Err(err).Msg("failed to list pending invites")
		web.Error(w, http.StatusInternalServerError, "failed to list invites")
		return
	}
	web.JSON(w, http.StatusOK, invites)
}

func (h *Handler) handleAccept(w http.ResponseWriter, r *http.Request) {
	inviteID, userID, ok := h.inviteAndUser(w, r)
	if !ok {
		return
	}

	inv, err := h.app.Accept(r.Context(), inviteID, userID)
	switch {
	case errors.Is(err, ErrInviteNotFound):
		web.Error(w, http.StatusNotFound, "invite no longer exists")
	case errors.Is(err, ErrRoomGone):
		web.Error(w, http.StatusGone, "room no longer exists")
	case errors.Is(err, ErrNotInvitee):
		web.Error(w, http.StatusForbidden, "invite is not addressed to you")
	case err != nil:
		log.Error().Err(err).Msg("failed to accept room invite")
		web.Error(w, http.StatusInternalServerError, "failed to accept invite")
	default:
		web.JSON(w, http.StatusOK, inv)
	}
}

func (h *Handler) handleDecline(w http.ResponseWriter, r *http.Request) {
	inviteID, userID, ok := h.inviteAndUser(w, r)
	if !ok {
		return
	}

	err := h.app.Decline(r.Context(), inviteID, userID)
	switch {
	case errors.Is(err, ErrInviteNotFound):
		web.Error(w, http.StatusNotFound, "invite no longer exists")
	case errors.Is(err, ErrNotInvitee):
		web.Error(w, http.StatusForbidden, "invite is not addressed to you")
	case err != nil:
		log.Error().Err(err).Msg("failed to decline room invite")
		web.Error(w, http.StatusInternalServerError, "failed to decline invite")
	default:
		w.WriteHeader(http.StatusNoContent)
	}
}

func (h *Handler) inviteAndUser(w http.ResponseWriter, r *http.Request) (uuid.UUID, uuid.UUID, bool) {
	inviteID, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		web.Error(w, http.StatusBadRequest, "invalid invite id")
		return uuid.Nil, uuid.Nil, false
	}
	userID, err := web.UserID(r)
	if err != nil {
		web.Error(w, http.StatusUnauthorized, err.Error())
		return uuid.Nil, uuid.Nil, false
	}
	return inviteID, userID, true
}
