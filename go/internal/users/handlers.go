package users

import (
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/rs/zerolog/log"

	"github.com/watchly/watchly/go/internal/web"
)

// Handler exposes the users HTTP API
type Handler struct {
	app *App
}

// NewHandler creates a new users handler
func NewHandler(app *App) *Handler {
	return &Handler{app: app}
}

// RegisterRoutes mounts the users routes on the router
func (h *Handler) RegisterRoutes(r chi.Router) {
	r.Post("/api/users", h.handleCreateUser)
	r.Post("/api/login", h.handleLogin)
	r.Get("/api/users/{id}", h.handleGetUser)
	r.Put("/api/users/{id}", h.handleUpdateUser)
	r.Get("/api/users/{id}/friends", h.handleListFriends)
}

func (h *Handler) handleCreateUser(w http.ResponseWriter, r *http.Request) {
	var req CreateUserRequest
	if err := web.Decode(r, &req); err != nil {
		web.Error(w, http.StatusBadRequest, "invalid request body")
		return
	}

	user, err := h.app.CreateUser(r.Context(), req)
	if err != nil {
		web.Error(w, http.StatusBadRequest, err.Error())
		return
	}
	web.JSON(w, http.StatusCreated, user)
}

func (h *Handler) handleLogin(w http.ResponseWriter, r *http.Request) {
	var req LoginRequest
	if err := web.Decode(r, &req); err != nil {
		web.Error(w, http.StatusBadRequest, "invalid request body")
		return
	}

	user, err := h.app.Authenticate(r.Context(), req)
	if errors.Is(err, ErrInvalidCredentials) {
		web.Error(w, http.StatusUnauthorized, "invalid credentials")
		return
	}
	if err != nil {
		log.Error().Err(err).Msg("login failed")
		web.Error(w, http.StatusInternalServerError, "login failed")
		return
	}
	web.JSON(w, http.StatusOK, user)
}

func (h *Handler) handleGetUser(w http.ResponseWriter, r *http.Request) {
	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		web.Error(w, http.StatusBadRequest, "invalid user id")
		return
	}

	user, err := h.app.GetUser(r.Context(), id)
	if err != nil {
		web.Error(w, http.StatusNotFound, "user not found")
		return
	}
	web.JSON(w, http.StatusOK, user)
}

func (h *Handler) handleUpdateUser(w http.ResponseWriter, r *http.Request) {
	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		web.Error(w, http.StatusBadRequest, "invalid user id")
		return
	}

	var req UpdateUserRequest
	if err := web.Decode(r, &req); err != nil {
		web.Error(w, http.StatusBadRequest, "invalid request body")
		return
	}

	user, err := h.app.UpdateUser(r.Context(), id, req)
	if err != nil {
		web.Error(w, http.StatusBadRequest, err.Error())
		return
	}
	web.JSON(w, http.StatusOK, user)
}

func (h *Handler) handleListFriends(w http.ResponseWriter, r *http.Request) {
	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		web.Error(w, http.StatusBadRequest, "invalid user id")
		return
	}

	friends, err := h.app.ListFriends(r.Context(), id)
	if err != nil {
		web.Error(w, http.StatusInternalServerError, "failed to list friends")
		return
	}
	web.JSON(w, http.StatusOK, friends)
}
