package invites

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"

	"github.com/watchly/watchly/go/internal/models"
	"github.com/watchly/watchly/go/internal/rooms"
)

var (
	// ErrSelfInvite is returned when a user invites themselves.
	ErrSelfInvite = errors.New("cannot invite yourself")

	// ErrAlreadyInvited is returned when the user already has a pending
	// invite to the room.
	ErrAlreadyInvited = errors.New("an invite to this room is already pending")

	// ErrNotInvitee is returned when a user tries to resolve an invite that
	// is not addressed to them.
	ErrNotInvitee = errors.New("invite is not addressed to this user")

	// ErrRoomGone is returned when accepting an invite to a room that no
	// longer exists. The stale invite is cleaned up.
	ErrRoomGone = errors.New("room no longer exists")
)

// InvitesRepository defines what the app layer needs from the repository
type InvitesRepository interface {
	CreateInvite(ctx context.Context, roomID, fromUserID, toUserID uuid.UUID) (*models.RoomInvite, error)
	HasPendingFor(ctx context.Context, roomID, toUserID uuid.UUID) (bool, error)
	DeleteStale(ctx context.Context, id uuid.UUID) error
	ListPendingFor(ctx context.Context, userID uuid.UUID) ([]models.RoomInvite, error)
}

// RoomLookup resolves rooms and membership for invite validation.
type RoomLookup interface {
	GetRoom(ctx context.Context, id uuid.UUID) (*models.Room, error)
	IsHost(ctx context.Context, roomID, userID uuid.UUID) (bool, error)
}

// UserLookup resolves users for notification text.
type UserLookup interface {
	GetUser(ctx context.Context, id uuid.UUID) (*models.User, error)
}

// App handles the room invite lifecycle. Invites follow the same shape as
// friend requests: only pending rows exist, resolution deletes the row, and a
// raced resolution fails with ErrInviteNotFound without mutating anything.
type App struct {
	repo  InvitesRepository
	tx    TxRunner
	rooms RoomLookup
	users UserLookup
}

// NewApp creates a new invites App
func NewApp(repo InvitesRepository, tx TxRunner, roomLookup RoomLookup, users UserLookup) *App {
	return &App{repo: repo, tx: tx, rooms: roomLookup, users: users}
}

// SendInvite creates a pending invite and notifies the recipient. The inviter
// must be a member of the room.
func (a *App) SendInvite(ctx context.Context, roomID, fromUserID, toUserID uuid.UUID) (*models.RoomInvite, error) {
	if fromUserID == toUserID {
		return nil, ErrSelfInvite
	}

	room, err := a.rooms.GetRoom(ctx, roomID)
	if err != nil {
		return nil, err
	}
	// IsHost doubles as a membership check: it fails with ErrNotMember for
	// non-members regardless of the flag.
	if _, err := a.rooms.IsHost(ctx, roomID, fromUserID); err != nil {
		return nil, err
	}

	from, err := a.users.GetUser(ctx, fromUserID)
	if err != nil {
		return nil, fmt.Errorf("sender not found: %w", err)
	}
	if _, err := a.users.GetUser(ctx, toUserID); err != nil {
		return nil, fmt.Errorf("recipient not found: %w", err)
	}

	pending, err := a.repo.HasPendingFor(ctx, roomID, toUserID)
	if err != nil {
		return nil, err
	}
	if pending {
		return nil, ErrAlreadyInvited
	}

	inv, err := a.repo.CreateInvite(ctx, roomID, fromUserID, toUserID)
	if err != nil {
		return nil, err
	}
	inv.RoomName = room.Name
	inv.FromUsername = from.Username

	if err := a.tx.NotifyNow(ctx, toUserID, models.NotificationTypeRoomInvite,
		fmt.Sprintf("%s invited you to watch %q", from.Username, room.Name)); err != nil {
		log.Error().Err(err).Str("invite_id", inv.ID.String()).Msg("failed to notify invitee")
	}

	log.Info().
		Str("invite_id", inv.ID.String()).
		Str("room_id", roomID.String()).
		Str("to", toUserID.String()).
		Msg("sent room invite")
	return inv, nil
}

// Accept resolves a pending invite into room membership. If the room has been
// deleted since the invite was sent, the stale invite is removed and
// ErrRoomGone is returned instead of a hard failure.
func (a *App) Accept(ctx context.Context, inviteID, actingUserID uuid.UUID) (*models.RoomInvite, error) {
	var accepted *models.RoomInvite

	err := a.tx.RunTx(ctx, func(q TxQueries) error {
		inv, err := q.DeleteInvite(ctx, inviteID)
		if err != nil {
			return err
		}
		if inv.ToUserID != actingUserID {
			return ErrNotInvitee
		}

		if _, err := a.rooms.GetRoom(ctx, inv.RoomID); err != nil {
			if errors.Is(err, rooms.ErrRoomNotFound) {
				return ErrRoomGone
			}
			return err
		}

		if err := q.AddMember(ctx, inv.RoomID, inv.ToUserID); err != nil {
			return err
		}

		acceptor, err := a.users.GetUser(ctx, inv.ToUserID)
		name := "someone"
		if err == nil {
			name = acceptor.Username
		}
		if err := q.InsertNotification(ctx, inv.FromUserID, models.NotificationTypeSystem,
			fmt.Sprintf("%s accepted your room invite", name)); err != nil {
			return err
		}

		accepted = inv
		return nil
	})
	if errors.Is(err, ErrRoomGone) {
		// The room is never coming back, so the invite is dead weight.
		if cleanupErr := a.repo.DeleteStale(ctx, inviteID); cleanupErr != nil {
			log.Error().Err(cleanupErr).Str("invite_id", inviteID.String()).Msg("failed to clean up stale invite")
		}
		return nil, err
	}
	if err != nil {
		return nil, err
	}

	log.Info().
		Str("invite_id", inviteID.String()).
		Str("room_id", accepted.RoomID.String()).
		Str("user_id", accepted.ToUserID.String()).
		Msg("accepted room invite")
	return accepted, nil
}

// Decline resolves a pending invite by deleting it.
func (a *App) Decline(ctx context.Context, inviteID, actingUserID uuid.UUID) error {
	return a.tx.RunTx(ctx, func(q TxQueries) error {
		inv, err := q.DeleteInvite(ctx, inviteID)
		if err != nil {
			return err
		}
		if inv.ToUserID != actingUserID {
			return ErrNotInvitee
		}
		return nil
	})
}

// ListPendingFor returns the pending invites addressed to a user.
func (a *App) ListPendingFor(ctx context.Context, userID uuid.UUID) ([]models.RoomInvite, error) {
	return a.repo.ListPendingFor(ctx, userID)
}
