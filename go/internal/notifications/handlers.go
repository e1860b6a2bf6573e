package notifications

import (
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/rs/zerolog/log"

	"github.com/watchly/watchly/go/internal/models"
	"github.com/watchly/watchly/go/internal/web"
)

// Handler exposes the notifications HTTP API
type Handler struct {
	app *App
}

// NewHandler creates a new notifications handler
func NewHandler(app *App) *Handler {
	return &Handler{app: app}
}

// RegisterRoutes mounts the notifications routes on the router
func (h *Handler) RegisterRoutes(r chi.Router) {
	r.Get("/api/notifications/feed", h.handleFeed)
	r.Post("/api/notifications/{id}/read", h.handleMarkRead)
}

func (h *Handler) handleFeed(w http.ResponseWriter, r *http.Request) {
	userID, err := web.UserID(r)
	if err != nil {
		web.Error(w, http.StatusUnauthorized, err.Error())
		return
	}

	feed, err := h.app.Feed(r.Context(), userID)
	if err != nil {
		log.Error().Err(err).Msg("failed to build notification feed")
		web.Error(w, http.StatusInternalServerError, "failed to load feed")
		return
	}
	if feed == nil {
		feed = []models.FeedItem{}
	}
	web.JSON(w, http.StatusOK, feed)
}

func (h *Handler) handleMarkRead(w http.ResponseWriter, r *http.Request) {
	userID, err := web.UserID(r)
	if err != nil {
		web.Error(w, http.StatusUnauthorized, err.Error())
		return
	}

	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		web.Error(w, http.StatusBadRequest, "invalid notification id")
		return
	}

	if err := h.app.MarkRead(r.Context(), id, userID); err != nil {
		if errors.Is(err, ErrNotFound) {
			web.Error(w, http.StatusNotFound, "notification not found")
			return
		}
		web.Error(w, http.StatusInternalServerError, "failed to mark read")
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
