package friends

import (
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/rs/zerolog/log"

	"github.com/watchly/watchly/go/internal/web"
)

// SendRequestBody is the payload for creating a friend request
type SendRequestBody struct {
	ToUserID uuid.UUID `json:"to_user_id"`
}

// Handler exposes the friends HTTP API
type Handler struct {
	app *App
}

// NewHandler creates a new friends handler
func NewHandler(app *App) *Handler {
	return &Handler{app: app}
}

// RegisterRoutes mounts the friends routes on the router
func (h *Handler) RegisterRoutes(r chi.Router) {
	r.Post("/api/friends/requests", h.handleSendRequest)
	r.Get("/api/friends/requests", h.handleListPending)
	r.Post("/api/friends/requests/{id}/accept", h.handleAccept)
	r.Post("/api/friends/requests/{id}/decline", h.handleDecline)
}

func (h *Handler) handleSendRequest(w http.ResponseWriter, r *http.Request) {
	userID, err := web.UserID(r)
	if err != nil {
		web.Error(w, http.StatusUnauthorized, err.Error())
		return
	}

	var body SendRequestBody
	if err := web.Decode(r, &body); err != nil {
		web.Error(w, http.StatusBadRequest, "invalid request body")
		return
	}

	req, err := h.app.SendRequest(r.Context(), userID, body.ToUserID)
	switch {
	case errors.Is(err, ErrSelfRequest),
		errors.Is(err, ErrAlreadyFriends),
		errors.Is(err, ErrRequestPending):
		web.Error(w, http.StatusConflict, err.Error())
	case err != nil:
		web.Error(w, http.StatusBadRequest, err.Error())
	default:
		web.JSON(w, http.StatusCreated, req)
	}
}

func (h *Handler) handleListPending(w http.ResponseWriter, r *http.Request) {
	userID, err := web.UserID(r)
	if err != nil {
		web.Error(w, http.StatusUnauthorized, err.Error())
		return
	}

	requests, err := h.app.ListPendingFor(r.Context(), userID)
	if err != nil {
		log.Error().Err(err).Msg("failed to list pending requests")
		web.Error(w, http.StatusInternalServerError, "failed to list requests")
		return
	}
	web.JSON(w, http.StatusOK, requests)
}

func (h *Handler) handleAccept(w http.ResponseWriter, r *http.Request) {
	requestID, userID, ok := h.requestAndUser(w, r)
	if !ok {
		return
	}

	req, err := h.app.Accept(r.Context(), requestID, userID)
	switch {
	case errors.Is(err, ErrRequestNotFound):
		// Already resolved by a racing actor; nothing was mutated.
		web.Error(w, http.StatusNotFound, "friend request no longer exists")
	case errors.Is(err, ErrNotAddressee):
		web.Error(w, http.StatusForbidden, "request is not addressed to you")
	case err != nil:
		log.Error().Err(err).Msg("failed to accept friend request")
		web.Error(w, http.StatusInternalServerError, "failed to accept request")
	default:
		web.JSON(w, http.StatusOK, req)
	}
}

func (h *Handler) handleDecline(w http.ResponseWriter, r *http.Request) {
	requestID, userID, ok := h.requestAndUser(w, r)
	if !ok {
		return
	}

	err := h.app.Decline(r.Context(), requestID, userID)
	switch {
	case errors.Is(err, ErrRequestNotFound):
		web.Error(w, http.StatusNotFound, "friend request no longer exists")
	case errors.Is(err, ErrNotAddressee):
		web.Error(w, http.StatusForbidden, "request is not addressed to you")
	case err != nil:
		log.Error().Err(err).Msg("failed to decline friend request")
		web.Error(w, http.StatusInternalServerError, "failed to decline request")
	default:
		w.WriteHeader(http.StatusNoContent)
	}
}

func (h *Handler) requestAndUser(w http.ResponseWriter, r *http.Request) (uuid.UUID, uuid.UUID, bool) {
	requestID, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		web.Error(w, http.StatusBadRequest, "invalid request id")
		return uuid.Nil, uuid.Nil, false
	}
	userID, err := web.UserID(r)
	if err != nil {
		web.Error(w, http.StatusUnauthorized, err.Error())
		return uuid.Nil, uuid.Nil, false
	}
	return requestID, userID, true
}
