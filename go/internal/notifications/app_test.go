package notifications

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/watchly/watchly/go/internal/models"
)

type fakeRequests struct {
	requests []models.FriendRequest
}

func (f *fakeRequests) ListPendingFor(_ context.Context, _ uuid.UUID) ([]models.FriendRequest, error) {
	return f.requests, nil
}

type fakeInvites struct {
	invites []models.RoomInvite
}

func (f *fakeInvites) ListPendingFor(_ context.Context, _ uuid.UUID) ([]models.RoomInvite, error) {
	return f.invites, nil
}

type fakeNotes struct {
	notes  []models.Notification
	marked []uuid.UUID
}

func (f *fakeNotes) ListForUser(_ context.Context, _ uuid.UUID, _ int) ([]models.Notification, error) {
	return f.notes, nil
}

func (f *fakeNotes) MarkRead(_ context.Context, id, _ uuid.UUID) error {
	f.marked = append(f.marked, id)
	return nil
}

func TestFeedMergesSourcesNewestFirst(t *testing.T) {
	base := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	userID := uuid.New()

	requests := &fakeRequests{requests: []models.FriendRequest{
		{ID: uuid.New(), ToUserID: userID, FromUsername: "ben", CreatedAt: base.Add(2 * time.Minute)},
	}}
	invites := &fakeInvites{invites: []models.RoomInvite{
		{ID: uuid.New(), ToUserID: userID, RoomName: "movie night", CreatedAt: base.Add(3 * time.Minute)},
	}}
	notes := &fakeNotes{notes: []models.Notification{
		{ID: uuid.New(), UserID: userID, Type: models.NotificationTypeFriendAccepted, CreatedAt: base.Add(1 * time.Minute)},
		{ID: uuid.New(), UserID: userID, Type: models.NotificationTypeSystem, CreatedAt: base.Add(4 * time.Minute)},
	}}

	app := NewApp(notes, requests, invites)
	feed, err := app.Feed(context.Background(), userID)
	if err != nil {
		t.Fatalf("Feed: %v", err)
	}

	if len(feed) != 4 {
		t.Fatalf("expected 4 feed items, got %d", len(feed))
	}
	wantKinds := []models.FeedItemKind{
		models.FeedItemNotification,  // +4m
		models.FeedItemRoomInvite,    // +3m
		models.FeedItemFriendRequest, // +2m
		models.FeedItemNotification,  // +1m
	}
	for i, want := range wantKinds {
		if feed[i].Kind != want {
			t.Fatalf("item %d: expected kind %s, got %s", i, want, feed[i].Kind)
		}
	}
	for i := 1; i < len(feed); i++ {
		if feed[i].CreatedAt.After(feed[i-1].CreatedAt) {
			t.Fatalf("feed not sorted newest first at index %d", i)
		}
	}
}

func TestFeedEmptySources(t *testing.T) {
	app := NewApp(&fakeNotes{}, &fakeRequests{}, &fakeInvites{})

	feed, err := app.Feed(context.Background(), uuid.New())
	if err != nil {
		t.Fatalf("Feed: %v", err)
	}
	if len(feed) != 0 {
		t.Fatalf("expected empty feed, got %d items", len(feed))
	}
}

func TestMarkReadDelegates(t *testing.T) {
	notes := &fakeNotes{}
	app := NewApp(notes, &fakeRequests{}, &fakeInvites{})

	id := uuid.New()
	if err := app.MarkRead(context.Background(), id, uuid.New()); err != nil {
		t.Fatalf("MarkRead: %v", err)
	}
	if len(notes.marked) != 1 || notes.marked[0] != id {
		t.Fatalf("expected MarkRead delegated, got %v", notes.marked)
	}
}
