package signaling

import (
	"context"
	"encoding/json"
	"errors"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/watchly/watchly/go/internal/models"
)

type memStore struct {
	signals map[uuid.UUID]models.Signal
}

func newMemStore() *memStore {
	return &memStore{signals: make(map[uuid.UUID]models.Signal)}
}

func (s *memStore) InsertSignal(_ context.Context, roomID, from, target uuid.UUID, typ models.SignalType, payload json.RawMessage) (*models.Signal, error) {
	sig := models.Signal{
		ID:           uuid.New(),
		RoomID:       roomID,
		FromUserID:   from,
		TargetUserID: target,
		Type:         typ,
		Payload:      payload,
		CreatedAt:    time.Now(),
	}
	s.signals[sig.ID] = sig
	return &sig, nil
}

func (s *memStore) Delete(_ context.Context, id uuid.UUID) error {
	delete(s.signals, id)
	return nil
}

func (s *memStore) ConsumePending(_ context.Context, roomID, target uuid.UUID) ([]models.Signal, error) {
	var out []models.Signal
	for id, sig := range s.signals {
		if sig.RoomID == roomID && sig.TargetUserID == target {
			out = append(out, sig)
			delete(s.signals, id)
		}
	}
	return out, nil
}

func (s *memStore) DeleteForUser(_ context.Context, roomID, userID uuid.UUID) error {
	for id, sig := range s.signals {
		if sig.RoomID == roomID && (sig.FromUserID == userID || sig.TargetUserID == userID) {
			delete(s.signals, id)
		}
	}
	return nil
}

type fakeRooms struct {
	room    models.Room
	members map[uuid.UUID]bool
}

func (r *fakeRooms) GetRoom(_ context.Context, id uuid.UUID) (*models.Room, error) {
	if id != r.room.ID {
		return nil, errors.New("room not found")
	}
	room := r.room
	return &room, nil
}

func (r *fakeRooms) IsHost(_ context.Context, _ uuid.UUID, userID uuid.UUID) (bool, error) {
	if !r.members[userID] {
		return false, errors.New("not a room member")
	}
	return false, nil
}

type fakeRouter struct {
	online map[uuid.UUID]bool
	sent   []uuid.UUID
}

func (f *fakeRouter) SendToUser(_ uuid.UUID, userID uuid.UUID, _ string, _ any) bool {
	if !f.online[userID] {
		return false
	}
	f.sent = append(f.sent, userID)
	return true
}

func newTestRelay(voiceEnabled bool) (*Relay, *memStore, *fakeRouter, uuid.UUID, uuid.UUID, uuid.UUID) {
	roomID := uuid.New()
	alice := uuid.New()
	bob := uuid.New()
	store := newMemStore()
	router := &fakeRouter{online: make(map[uuid.UUID]bool)}
	lookup := &fakeRooms{
		room:    models.Room{ID: roomID, VoiceChatEnabled: voiceEnabled},
		members: map[uuid.UUID]bool{alice: true, bob: true},
	}
	return NewRelay(store, lookup, router), store, router, roomID, alice, bob
}

func TestSendConsumesOnDelivery(t *testing.T) {
	relay, store, router, roomID, alice, bob := newTestRelay(true)
	router.online[bob] = true

	sig, err := relay.Send(context.Background(), roomID, alice, bob, models.SignalTypeOffer, json.RawMessage(`{"sdp":"x"}`))
	if err != nil {
		t.Fatalf("Send: %v", err)
	}
	if len(router.sent) != 1 || router.sent[0] != bob {
		t.Fatalf("expected one delivery to target, got %v", router.sent)
	}
	if _, ok := store.signals[sig.ID]; ok {
		t.Fatal("delivered signal must be consumed")
	}
}

func TestSendKeepsPendingWhenTargetOffline(t *testing.T) {
	relay, store, _, roomID, alice, bob := newTestRelay(true)

	sig, err := relay.Send(context.Background(), roomID, alice, bob, models.SignalTypeCandidate, json.RawMessage(`{"c":1}`))
	if err != nil {
		t.Fatalf("Send: %v", err)
	}
	if _, ok := store.signals[sig.ID]; !ok {
		t.Fatal("undelivered signal must stay pending")
	}
}

func TestDrainPendingIsAtMostOnce(t *testing.T) {
	relay, _, _, roomID, alice, bob := newTestRelay(true)

	if _, err := relay.Send(context.Background(), roomID, alice, bob, models.SignalTypeOffer, json.RawMessage(`{}`)); err != nil {
		t.Fatalf("Send: %v", err)
	}
	if _, err := relay.Send(context.Background(), roomID, alice, bob, models.SignalTypeCandidate, json.RawMessage(`{}`)); err != nil {
		t.Fatalf("Send: %v", err)
	}

	first, err := relay.DrainPending(context.Background(), roomID, bob)
	if err != nil {
		t.Fatalf("DrainPending: %v", err)
	}
	if len(first) != 2 {
		t.Fatalf("expected 2 pending signals, got %d", len(first))
	}

	// Consume-after-delete: nothing left, and no error either.
	second, err := relay.DrainPending(context.Background(), roomID, bob)
	if err != nil {
		t.Fatalf("second DrainPending: %v", err)
	}
	if len(second) != 0 {
		t.Fatalf("expected drained queue to be empty, got %d", len(second))
	}
}

func TestPeerLeftClearsOnlyTheirRecords(t *testing.T) {
	relay, store, _, roomID, alice, bob := newTestRelay(true)
	carol := uuid.New()

	if _, err := relay.Send(context.Background(), roomID, alice, bob, models.SignalTypeOffer, json.RawMessage(`{}`)); err != nil {
		t.Fatalf("Send: %v", err)
	}
	// A record between a different pair, inserted directly.
	other, err := store.InsertSignal(context.Background(), roomID, carol, alice, models.SignalTypeOffer, json.RawMessage(`{}`))
	if err != nil {
		t.Fatalf("InsertSignal: %v", err)
	}

	relay.PeerLeft(context.Background(), roomID, bob)

	if len(store.signals) != 1 {
		t.Fatalf("expected only the unrelated record to survive, got %d", len(store.signals))
	}
	if _, ok := store.signals[other.ID]; !ok {
		t.Fatal("unrelated pair's record must survive a peer departure")
	}
}

func TestSendValidation(t *testing.T) {
	relay, _, _, roomID, alice, bob := newTestRelay(true)

	if _, err := relay.Send(context.Background(), roomID, alice, bob, "renegotiate", nil); !errors.Is(err, ErrInvalidSignalType) {
		t.Fatalf("expected ErrInvalidSignalType, got %v", err)
	}
	if _, err := relay.Send(context.Background(), roomID, alice, alice, models.SignalTypeOffer, nil); !errors.Is(err, ErrSelfSignal) {
		t.Fatalf("expected ErrSelfSignal, got %v", err)
	}

	disabled, _, _, disabledRoom, a2, b2 := newTestRelay(false)
	if _, err := disabled.Send(context.Background(), disabledRoom, a2, b2, models.SignalTypeOffer, nil); !errors.Is(err, ErrVoiceDisabled) {
		t.Fatalf("expected ErrVoiceDisabled, got %v", err)
	}
}
