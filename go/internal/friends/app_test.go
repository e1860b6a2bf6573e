package friends

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/watchly/watchly/go/internal/models"
)

// fakeStore simulates the transactional store: mutations made inside a
// failed RunTx are discarded, mirroring a rollback.
type fakeStore struct {
	requests      map[uuid.UUID]*models.FriendRequest
	friendships   map[[2]uuid.UUID]bool
	notifications []string
}

func newFakeStore() *fakeStore {
	return &fakeStore{
		requests:    make(map[uuid.UUID]*models.FriendRequest),
		friendships: make(map[[2]uuid.UUID]bool),
	}
}

type fakeTx struct {
	store       *fakeStore
	deleted     []uuid.UUID
	friendships [][2]uuid.UUID
	notes       []string
}

func (t *fakeTx) DeleteRequest(_ context.Context, id uuid.UUID) (*models.FriendRequest, error) {
	req, ok := t.store.requests[id]
	if !ok {
		return nil, ErrRequestNotFound
	}
	t.deleted = append(t.deleted, id)
	return req, nil
}

func (t *fakeTx) InsertFriendship(_ context.Context, a, b uuid.UUID) error {
	t.friendships = append(t.friendships, [2]uuid.UUID{a, b}, [2]uuid.UUID{b, a})
	return nil
}

func (t *fakeTx) InsertNotification(_ context.Context, _ uuid.UUID, _ models.NotificationType, message string) error {
	t.notes = append(t.notes, message)
	return nil
}

func (s *fakeStore) RunTx(ctx context.Context, fn func(q TxQueries) error) error {
	tx := &fakeTx{store: s}
	if err := fn(tx); err != nil {
		return err
	}
	for _, id := range tx.deleted {
		delete(s.requests, id)
	}
	for _, f := range tx.friendships {
		s.friendships[f] = true
	}
	s.notifications = append(s.notifications, tx.notes...)
	return nil
}

func (s *fakeStore) NotifyNow(_ context.Context, _ uuid.UUID, _ models.NotificationType, message string) error {
	s.notifications = append(s.notifications, message)
	return nil
}

type fakeRepo struct {
	store *fakeStore
}

func (r *fakeRepo) CreateRequest(_ context.Context, from, to uuid.UUID) (*models.FriendRequest, error) {
	req := &models.FriendRequest{
		ID:         uuid.New(),
		FromUserID: from,
		ToUserID:   to,
		Status:     models.RequestStatusPending,
		CreatedAt:  time.Now(),
	}
	r.store.requests[req.ID] = req
	return req, nil
}

func (r *fakeRepo) HasPendingBetween(_ context.Context, a, b uuid.UUID) (bool, error) {
	for _, req := range r.store.requests {
		if (req.FromUserID == a && req.ToUserID == b) || (req.FromUserID == b && req.ToUserID == a) {
			return true, nil
		}
	}
	return false, nil
}

func (r *fakeRepo) AreFriends(_ context.Context, a, b uuid.UUID) (bool, error) {
	return r.store.friendships[[2]uuid.UUID{a, b}], nil
}

func (r *fakeRepo) ListPendingFor(_ context.Context, userID uuid.UUID) ([]models.FriendRequest, error) {
	var out []models.FriendRequest
	for _, req := range r.store.requests {
		if req.ToUserID == userID {
			out = append(out, *req)
		}
	}
	return out, nil
}

type fakeUsers struct {
	users map[uuid.UUID]*models.User
}

func (u *fakeUsers) GetUser(_ context.Context, id uuid.UUID) (*models.User, error) {
	user, ok := u.users[id]
	if !ok {
		return nil, errors.New("user not found")
	}
	return user, nil
}

func newTestApp() (*App, *fakeStore, uuid.UUID, uuid.UUID) {
	store := newFakeStore()
	repo := &fakeRepo{store: store}
	alice := uuid.New()
	bob := uuid.New()
	users := &fakeUsers{users: map[uuid.UUID]*models.User{
		alice: {ID: alice, Username: "alice"},
		bob:   {ID: bob, Username: "bob"},
	}}
	return NewApp(repo, store, users), store, alice, bob
}

func TestAcceptMutatesBothFriendLists(t *testing.T) {
	app, store, alice, bob := newTestApp()

	req, err := app.SendRequest(context.Background(), alice, bob)
	if err != nil {
		t.Fatalf("SendRequest: %v", err)
	}

	accepted, err := app.Accept(context.Background(), req.ID, bob)
	if err != nil {
		t.Fatalf("Accept: %v", err)
	}
	if accepted.FromUserID != alice || accepted.ToUserID != bob {
		t.Fatalf("unexpected accepted request %+v", accepted)
	}

	if !store.friendships[[2]uuid.UUID{alice, bob}] || !store.friendships[[2]uuid.UUID{bob, alice}] {
		t.Fatal("expected friendship rows in both directions")
	}
	if _, ok := store.requests[req.ID]; ok {
		t.Fatal("expected request deleted on accept")
	}
}

func TestAcceptDeletedRequestMutatesNothing(t *testing.T) {
	app, store, alice, bob := newTestApp()

	req, err := app.SendRequest(context.Background(), alice, bob)
	if err != nil {
		t.Fatalf("SendRequest: %v", err)
	}

	// Another actor resolves the request first.
	delete(store.requests, req.ID)
	notesBefore := len(store.notifications)

	_, err = app.Accept(context.Background(), req.ID, bob)
	if !errors.Is(err, ErrRequestNotFound) {
		t.Fatalf("expected ErrRequestNotFound, got %v", err)
	}

	if len(store.friendships) != 0 {
		t.Fatalf("raced accept must not mutate friend lists, got %v", store.friendships)
	}
	if len(store.notifications) != notesBefore {
		t.Fatalf("raced accept must not notify, got %v", store.notifications)
	}
}

func TestAcceptByWrongUserRollsBack(t *testing.T) {
	app, store, alice, bob := newTestApp()

	req, err := app.SendRequest(context.Background(), alice, bob)
	if err != nil {
		t.Fatalf("SendRequest: %v", err)
	}

	// The sender cannot accept their own request; the delete inside the
	// transaction must roll back with everything else.
	_, err = app.Accept(context.Background(), req.ID, alice)
	if !errors.Is(err, ErrNotAddressee) {
		t.Fatalf("expected ErrNotAddressee, got %v", err)
	}
	if _, ok := store.requests[req.ID]; !ok {
		t.Fatal("request must survive a rolled-back accept")
	}
	if len(store.friendships) != 0 {
		t.Fatal("rolled-back accept must not mutate friend lists")
	}
}

func TestDeclineDeletesWithoutFriendship(t *testing.T) {
	app, store, alice, bob := newTestApp()

	req, err := app.SendRequest(context.Background(), alice, bob)
	if err != nil {
		t.Fatalf("SendRequest: %v", err)
	}

	if err := app.Decline(context.Background(), req.ID, bob); err != nil {
		t.Fatalf("Decline: %v", err)
	}
	if _, ok := store.requests[req.ID]; ok {
		t.Fatal("expected request deleted on decline")
	}
	if len(store.friendships) != 0 {
		t.Fatal("decline must not create friendships")
	}

	// Declined is terminal: the request cannot be re-accepted.
	if _, err := app.Accept(context.Background(), req.ID, bob); !errors.Is(err, ErrRequestNotFound) {
		t.Fatalf("expected ErrRequestNotFound after decline, got %v", err)
	}
}

func TestSendRequestValidations(t *testing.T) {
	app, store, alice, bob := newTestApp()

	if _, err := app.SendRequest(context.Background(), alice, alice); !errors.Is(err, ErrSelfRequest) {
		t.Fatalf("expected ErrSelfRequest, got %v", err)
	}

	if _, err := app.SendRequest(context.Background(), alice, bob); err != nil {
		t.Fatalf("SendRequest: %v", err)
	}
	if _, err := app.SendRequest(context.Background(), bob, alice); !errors.Is(err, ErrRequestPending) {
		t.Fatalf("expected ErrRequestPending on reverse duplicate, got %v", err)
	}

	store.friendships[[2]uuid.UUID{alice, bob}] = true
	if _, err := app.SendRequest(context.Background(), alice, bob); !errors.Is(err, ErrAlreadyFriends) {
		t.Fatalf("expected ErrAlreadyFriends, got %v", err)
	}
}
