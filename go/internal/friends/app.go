package friends

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"

	"github.com/watchly/watchly/go/internal/models"
)

var (
	// ErrSelfRequest is returned when a user sends a request to themselves.
	ErrSelfRequest = errors.New("cannot send a friend request to yourself")

	// ErrAlreadyFriends is returned when the two users are already friends.
	ErrAlreadyFriends = errors.New("users are already friends")

	// ErrRequestPending is returned when a request between the two users
	// already exists in either direction.
	ErrRequestPending = errors.New("a friend request is already pending")

	// ErrNotAddressee is returned when a user tries to resolve a request
	// that is not addressed to them.
	ErrNotAddressee = errors.New("request is not addressed to this user")
)

// FriendsRepository defines what the app layer needs from the repository
type FriendsRepository interface {
	CreateRequest(ctx context.Context, fromUserID, toUserID uuid.UUID) (*models.FriendRequest, error)
	HasPendingBetween(ctx context.Context, a, b uuid.UUID) (bool, error)
	AreFriends(ctx context.Context, a, b uuid.UUID) (bool, error)
	ListPendingFor(ctx context.Context, userID uuid.UUID) ([]models.FriendRequest, error)
}

// UserLookup resolves users for validation and notification text.
type UserLookup interface {
	GetUser(ctx context.Context, id uuid.UUID) (*models.User, error)
}

// App handles the friend request lifecycle: pending to accepted or declined,
// where resolution deletes the request row. A raced resolution fails with
// ErrRequestNotFound and mutates nothing.
type App struct {
	repo  FriendsRepository
	tx    TxRunner
	users UserLookup
}

// NewApp creates a new friends App
func NewApp(repo FriendsRepository, tx TxRunner, users UserLookup) *App {
	return &App{repo: repo, tx: tx, users: users}
}

// SendRequest creates a pending friend request and notifies the recipient.
func (a *App) SendRequest(ctx context.Context, fromUserID, toUserID uuid.UUID) (*models.FriendRequest, error) {
	if fromUserID == toUserID {
		return nil, ErrSelfRequest
	}

	from, err := a.users.GetUser(ctx, fromUserID)
	if err != nil {
		return nil, fmt.Errorf("sender not found: %w", err)
	}
	if _, err := a.users.GetUser(ctx, toUserID); err != nil {
		return nil, fmt.Errorf("recipient not found: %w", err)
	}

	already, err := a.repo.AreFriends(ctx, fromUserID, toUserID)
	if err != nil {
		return nil, err
	}
	if already {
		return nil, ErrAlreadyFriends
	}

	pending, err := a.repo.HasPendingBetween(ctx, fromUserID, toUserID)
	if err != nil {
		return nil, err
	}
	if pending {
		return nil, ErrRequestPending
	}

	req, err := a.repo.CreateRequest(ctx, fromUserID, toUserID)
	if err != nil {
		return nil, err
	}
	req.FromUsername = from.Username

	if err := a.tx.NotifyNow(ctx, toUserID, models.NotificationTypeFriendRequest,
		fmt.Sprintf("%s sent you a friend request", from.Username)); err != nil {
		// The request itself stands; the recipient still sees it in the
		// pending feed.
		log.Error().Err(err).Str("request_id", req.ID.String()).Msg("failed to notify recipient")
	}

	log.Info().
		Str("request_id", req.ID.String()).
		Str("from", fromUserID.String()).
		Str("to", toUserID.String()).
		Msg("sent friend request")
	return req, nil
}

// Accept resolves a pending request into a friendship. The delete, both
// friend-list writes and the requester's notification commit atomically; if
// the request was already resolved, nothing is mutated and
// ErrRequestNotFound is returned.
func (a *App) Accept(ctx context.Context, requestID, actingUserID uuid.UUID) (*models.FriendRequest, error) {
	var accepted *models.FriendRequest

	err := a.tx.RunTx(ctx, func(q TxQueries) error {
		req, err := q.DeleteRequest(ctx, requestID)
		if err != nil {
			return err
		}
		if req.ToUserID != actingUserID {
			return ErrNotAddressee
		}

		if err := q.InsertFriendship(ctx, req.FromUserID, req.ToUserID); err != nil {
			return err
		}

		acceptor, err := a.users.GetUser(ctx, req.ToUserID)
		name := "someone"
		if err == nil {
			name = acceptor.Username
		}
		if err := q.InsertNotification(ctx, req.FromUserID, models.NotificationTypeFriendAccepted,
			fmt.Sprintf("%s accepted your friend request", name)); err != nil {
			return err
		}

		accepted = req
		return nil
	})
	if err != nil {
		return nil, err
	}

	log.Info().
		Str("request_id", requestID.String()).
		Str("from", accepted.FromUserID.String()).
		Str("to", accepted.ToUserID.String()).
		Msg("accepted friend request")
	return accepted, nil
}

// Decline resolves a pending request by deleting it. No lists are touched.
func (a *App) Decline(ctx context.Context, requestID, actingUserID uuid.UUID) error {
	return a.tx.RunTx(ctx, func(q TxQueries) error {
		req, err := q.DeleteRequest(ctx, requestID)
		if err != nil {
			return err
		}
		if req.ToUserID != actingUserID {
			return ErrNotAddressee
		}
		return nil
	})
}

// ListPendingFor returns the pending requests addressed to a user.
func (a *App) ListPendingFor(ctx context.Context, userID uuid.UUID) ([]models.FriendRequest, error) {
	return a.repo.ListPendingFor(ctx, userID)
}
