package signaling

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"

	"github.com/watchly/watchly/go/internal/events"
	"github.com/watchly/watchly/go/internal/models"
)

var (
	// ErrInvalidSignalType is returned for signal types other than
	// offer, answer or candidate.
	ErrInvalidSignalType = errors.New("invalid signal type")

	// ErrSelfSignal is returned when a peer targets itself.
	ErrSelfSignal = errors.New("cannot signal yourself")

	// ErrVoiceDisabled is returned when the room has voice chat turned off.
	ErrVoiceDisabled = errors.New("voice chat is disabled in this room")
)

// SignalStore defines what the relay needs from the repository.
type SignalStore interface {
	InsertSignal(ctx context.Context, roomID, fromUserID, targetUserID uuid.UUID, typ models.SignalType, payload json.RawMessage) (*models.Signal, error)
	Delete(ctx context.Context, id uuid.UUID) error
	ConsumePending(ctx context.Context, roomID, targetUserID uuid.UUID) ([]models.Signal, error)
	DeleteForUser(ctx context.Context, roomID, userID uuid.UUID) error
}

// Router pushes an event to one connected user. Delivered reports whether the
// user had a live connection in the room.
type Router interface {
	SendToUser(roomID, userID uuid.UUID, eventType string, payload any) bool
}

// RoomLookup resolves rooms and membership for relay validation.
type RoomLookup interface {
	GetRoom(ctx context.Context, id uuid.UUID) (*models.Room, error)
	IsHost(ctx context.Context, roomID, userID uuid.UUID) (bool, error)
}

// Relay routes WebRTC handshake blobs between two peers in a room. The server
// never inspects payloads. A record is deleted once consumed, so each signal
// is delivered at most once; peers tolerate the duplicate window before the
// delete lands.
type Relay struct {
	store SignalStore
	rooms RoomLookup
	route Router
}

// NewRelay creates a new signaling relay.
func NewRelay(store SignalStore, roomLookup RoomLookup, route Router) *Relay {
	return &Relay{store: store, rooms: roomLookup, route: route}
}

// Send stores a signal and routes it to the target. If the target is
// connected the record is consumed immediately; otherwise it stays pending
// until the target reconnects and drains it.
func (rl *Relay) Send(ctx context.Context, roomID, fromUserID, targetUserID uuid.UUID, typ models.SignalType, payload json.RawMessage) (*models.Signal, error) {
	switch typ {
	case models.SignalTypeOffer, models.SignalTypeAnswer, models.SignalTypeCandidate:
	default:
		return nil, fmt.Errorf("%w: %q", ErrInvalidSignalType, typ)
	}
	if fromUserID == targetUserID {
		return nil, ErrSelfSignal
	}

	room, err := rl.rooms.GetRoom(ctx, roomID)
	if err != nil {
		return nil, err
	}
	if !room.VoiceChatEnabled {
		return nil, ErrVoiceDisabled
	}
	if _, err := rl.rooms.IsHost(ctx, roomID, fromUserID); err != nil {
		return nil, err
	}
	if _, err := rl.rooms.IsHost(ctx, roomID, targetUserID); err != nil {
		return nil, err
	}

	sig, err := rl.store.InsertSignal(ctx, roomID, fromUserID, targetUserID, typ, payload)
	if err != nil {
		return nil, err
	}

	delivered := rl.route.SendToUser(roomID, targetUserID, events.TypeVoiceSignal, payloadFor(sig))
	if delivered {
		if err := rl.store.Delete(ctx, sig.ID); err != nil {
			// The record outlives its delivery; the target will see it
			// again on reconnect and peers tolerate the duplicate.
			log.Warn().Err(err).Str("signal_id", sig.ID.String()).Msg("failed to consume delivered signal")
		}
	}
	return sig, nil
}

// DrainPending consumes and returns the signals waiting for a reconnecting
// user, oldest first. Draining twice returns nothing the second time.
func (rl *Relay) DrainPending(ctx context.Context, roomID, userID uuid.UUID) ([]events.VoiceSignalPayload, error) {
	signals, err := rl.store.ConsumePending(ctx, roomID, userID)
	if err != nil {
		return nil, err
	}
	payloads := make([]events.VoiceSignalPayload, 0, len(signals))
	for i := range signals {
		payloads = append(payloads, payloadFor(&signals[i]))
	}
	return payloads, nil
}

// PeerLeft clears the departed peer's records. Other pairs in the room keep
// their pending signals.
func (rl *Relay) PeerLeft(ctx context.Context, roomID, userID uuid.UUID) {
	if err := rl.store.DeleteForUser(ctx, roomID, userID); err != nil {
		log.Error().Err(err).
			Str("room_id", roomID.String()).
			Str("user_id", userID.String()).
			Msg("failed to clear signals for departed peer")
	}
}

func payloadFor(sig *models.Signal) events.VoiceSignalPayload {
	return events.VoiceSignalPayload{
		SignalID:     sig.ID.String(),
		FromUserID:   sig.FromUserID.String(),
		TargetUserID: sig.TargetUserID.String(),
		SignalType:   string(sig.Type),
		Signal:       sig.Payload,
	}
}
