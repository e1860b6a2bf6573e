package notifications

import (
	"context"
	"fmt"
	"sort"

	"github.com/google/uuid"
	"github.com/watchly/watchly/go/internal/models"
)

const defaultFeedLimit = 50

// FriendRequestSource provides a user's pending friend requests for the
// merged feed.
type FriendRequestSource interface {
	ListPendingFor(ctx context.Context, userID uuid.UUID) ([]models.FriendRequest, error)
}

// InviteSource provides a user's pending room invites for the merged feed.
type InviteSource interface {
	ListPendingFor(ctx context.Context, userID uuid.UUID) ([]models.RoomInvite, error)
}

// NotificationsRepository defines what the app layer needs from the repository
type NotificationsRepository interface {
	ListForUser(ctx context.Context, userID uuid.UUID, limit int) ([]models.Notification, error)
	MarkRead(ctx context.Context, id, userID uuid.UUID) error
}

// App merges pending friend requests and room invites with the persisted
// notifications collection into one feed.
type App struct {
	repo     NotificationsRepository
	requests FriendRequestSource
	invites  InviteSource
}

// NewApp creates a new notifications App
func NewApp(repo NotificationsRepository, requests FriendRequestSource, invites InviteSource) *App {
	return &App{
		repo:     repo,
		requests: requests,
		invites:  invites,
	}
}

// Feed returns the unified notification feed, newest first.
func (a *App) Feed(ctx context.Context, userID uuid.UUID) ([]models.FeedItem, error) {
	var items []models.FeedItem

	requests, err := a.requests.ListPendingFor(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to load pending friend requests: %w", err)
	}
	for i := range requests {
		items = append(items, models.FeedItem{
			Kind:      models.FeedItemFriendRequest,
			CreatedAt: requests[i].CreatedAt,
			Request:   &requests[i],
		})
	}

	invites, err := a.invites.ListPendingFor(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to load pending invites: %w", err)
	}
	for i := range invites {
		items = append(items, models.FeedItem{
			Kind:      models.FeedItemRoomInvite,
			CreatedAt: invites[i].CreatedAt,
			Invite:    &invites[i],
		})
	}

	notes, err := a.repo.ListForUser(ctx, userID, defaultFeedLimit)
	if err != nil {
		return nil, fmt.Errorf("failed to load notifications: %w", err)
	}
	for i := range notes {
		items = append(items, models.FeedItem{
			Kind:      models.FeedItemNotification,
			CreatedAt: notes[i].CreatedAt,
			Note:      &notes[i],
		})
	}

	sort.SliceStable(items, func(i, j int) bool {
		return items[i].CreatedAt.After(items[j].CreatedAt)
	})
	return items, nil
}

// MarkRead flags one persisted notification as read.
func (a *App) MarkRead(ctx context.Context, id, userID uuid.UUID) error {
	return a.repo.MarkRead(ctx, id, userID)
}
