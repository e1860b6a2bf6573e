package playback

import (
	"context"
	"errors"
	"fmt"
	"math"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/jonboulle/clockwork"
	"github.com/rs/zerolog/log"

	"github.com/watchly/watchly/go/internal/models"
)

// Role determines whether this client is authoritative for the room's
// shared playback state.
type Role string

const (
	RoleHost   Role = "HOST"
	RoleViewer Role = "VIEWER"
)

var (
	// ErrNotHost is returned when a non-host attempts a transport control.
	ErrNotHost = errors.New("playback: only the host can control playback")

	// ErrUnknownSchema is returned when a snapshot carries a schema version
	// this client does not understand.
	ErrUnknownSchema = errors.New("playback: unknown snapshot schema version")
)

const hostOnlyNotice = "only the host can control playback"

// Snapshot is the shared playback state as observed from the room record.
type Snapshot struct {
	RoomID        uuid.UUID `json:"room_id"`
	CurrentTime   float64   `json:"current_time"`
	IsPlaying     bool      `json:"is_playing"`
	SchemaVersion int       `json:"schema_version"`
	UpdatedAt     time.Time `json:"updated_at"`
}

// Player is the local media player handle the reconciler drives.
type Player interface {
	GetCurrentTime() float64
	SeekTo(seconds float64)
	Play()
	Pause()
}

// StateWriter persists shared playback state. Implementations write to the
// room record over the network; failures are surfaced, never retried.
type StateWriter interface {
	WritePlayback(ctx context.Context, roomID uuid.UUID, currentTime float64, isPlaying bool) error
}

// Notifier surfaces transient, user-facing notices (toasts).
type Notifier interface {
	Notify(message string)
}

// Config holds the reconciliation tuning knobs.
type Config struct {
	// BufferWindow is the tolerance in seconds below which local/remote
	// time differences are ignored.
	BufferWindow float64

	// CorrectionDebounce is the minimum interval between two corrections.
	CorrectionDebounce time.Duration

	// HeartbeatInterval is how often the host re-publishes its position
	// while playing.
	HeartbeatInterval time.Duration

	// SuppressionWindow is how long after a reconciler-issued command the
	// player's own play/pause events are treated as artifacts.
	SuppressionWindow time.Duration

	// EchoTimeout bounds how long the local-origin flag stays set when the
	// expected snapshot echo never arrives (e.g. the write failed).
	EchoTimeout time.Duration
}

// DefaultConfig returns the standard reconciliation tuning.
func DefaultConfig() Config {
	return Config{
		BufferWindow:       2.0,
		CorrectionDebounce: time.Second,
		HeartbeatInterval:  5 * time.Second,
		SuppressionWindow:  500 * time.Millisecond,
		EchoTimeout:        3 * time.Second,
	}
}

// Deps are the injected collaborators of a Reconciler. Clock defaults to the
// real clock; tests pass a clockwork.FakeClock.
type Deps struct {
	Player   Player
	Writer   StateWriter
	Notifier Notifier
	Clock    clockwork.Clock

	// OnEnded fires at most once per media load when the host's player
	// reaches end of media (queue advance hook).
	OnEnded func(ctx context.Context)
}

// Reconciler keeps a local player within a bounded drift of the room's
// shared playback state. The host's accepted intents propagate outward;
// viewers only correct inward. All methods are safe for concurrent use.
type Reconciler struct {
	mu     sync.Mutex
	cfg    Config
	roomID uuid.UUID
	role   Role

	player   Player
	writer   StateWriter
	notifier Notifier
	clock    clockwork.Clock
	onEnded  func(ctx context.Context)

	state           State
	localOrigin     bool
	localOriginAt   time.Time
	lastCorrection  time.Time
	suppressUntil   time.Time
	resumeAfterSeek bool
	endedFired      bool
	buffering       bool
	duration        float64
}

// NewReconciler creates a reconciler for one participant of one room.
func NewReconciler(roomID uuid.UUID, role Role, deps Deps, cfg Config) *Reconciler {
	clock := deps.Clock
	if clock == nil {
		clock = clockwork.NewRealClock()
	}
	return &Reconciler{
		cfg:      cfg,
		roomID:   roomID,
		role:     role,
		player:   deps.Player,
		writer:   deps.Writer,
		notifier: deps.Notifier,
		clock:    clock,
		onEnded:  deps.OnEnded,
		state:    StateIdle,
		duration: math.NaN(),
	}
}

// Role returns the participant's role.
func (r *Reconciler) Role() Role {
	return r.role
}

// State returns the current playback state.
func (r *Reconciler) State() State {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.state
}

// ApplySnapshot reconciles the local player against a remote room snapshot.
// The reconciler's own echo is skipped; foreign snapshots converge the
// play/pause mode and correct drift beyond the buffer window, at most once
// per debounce interval.
func (r *Reconciler) ApplySnapshot(ctx context.Context, snap Snapshot) error {
	if snap.SchemaVersion != models.RoomSchemaVersion {
		return fmt.Errorf("%w: got %d, want %d", ErrUnknownSchema, snap.SchemaVersion, models.RoomSchemaVersion)
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	now := r.clock.Now()

	if r.localOrigin {
		fresh := now.Sub(r.localOriginAt) <= r.cfg.EchoTimeout
		r.localOrigin = false
		if fresh {
			// Our own write coming back; applying it would be a
			// redundant self-seek.
			log.Debug().Str("room_id", r.roomID.String()).Msg("skipping snapshot echo")
			return nil
		}
	}

	// Converge play/pause mode before position so a paused viewer does not
	// drift further while waiting out the debounce.
	localPlaying := r.state == StatePlaying
	if snap.IsPlaying != localPlaying {
		if snap.IsPlaying {
			r.player.Play()
			r.transition(InputPlay)
		} else {
			r.player.Pause()
			r.transition(InputPause)
		}
		r.suppressUntil = now.Add(r.cfg.SuppressionWindow)
	}

	localTime := r.player.GetCurrentTime()
	drift := math.Abs(localTime - snap.CurrentTime)
	if drift <= r.cfg.BufferWindow {
		return nil
	}

	if !r.lastCorrection.IsZero() && now.Sub(r.lastCorrection) < r.cfg.CorrectionDebounce {
		log.Debug().
			Str("room_id", r.roomID.String()).
			Float64("drift_sec", drift).
			Msg("correction debounced")
		return nil
	}

	r.player.SeekTo(snap.CurrentTime)
	r.lastCorrection = now
	r.suppressUntil = now.Add(r.cfg.SuppressionWindow)
	log.Debug().
		Str("room_id", r.roomID.String()).
		Float64("local_sec", localTime).
		Float64("remote_sec", snap.CurrentTime).
		Msg("corrected playback drift")
	return nil
}

// TogglePlayPause handles the play/pause user intent. Host only.
func (r *Reconciler) TogglePlayPause(ctx context.Context) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if err := r.requireHost(); err != nil {
		return err
	}

	if r.state == StatePlaying {
		r.player.Pause()
		r.transition(InputPause)
	} else {
		r.player.Play()
		r.transition(InputPlay)
	}
	r.suppressUntil = r.clock.Now().Add(r.cfg.SuppressionWindow)
	r.writeShared(ctx, r.player.GetCurrentTime(), r.state == StatePlaying)
	return nil
}

// Skip handles the skip-forward/back user intent. Host only.
func (r *Reconciler) Skip(ctx context.Context, deltaSeconds float64) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if err := r.requireHost(); err != nil {
		return err
	}

	target := r.player.GetCurrentTime() + deltaSeconds
	if target < 0 {
		target = 0
	}
	r.player.SeekTo(target)
	r.suppressUntil = r.clock.Now().Add(r.cfg.SuppressionWindow)
	r.writeShared(ctx, target, r.state == StatePlaying)
	return nil
}

// HandleSeekStart marks the local user dragging the seek control.
func (r *Reconciler) HandleSeekStart() {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.resumeAfterSeek = r.state == StatePlaying
	r.transition(InputSeekStart)
}

// HandleSeekCommit handles the release of a drag-seek. Host only; a viewer's
// commit is a no-op plus a notice.
func (r *Reconciler) HandleSeekCommit(ctx context.Context, seconds float64) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if err := r.requireHost(); err != nil {
		return err
	}

	r.player.SeekTo(seconds)
	r.transition(InputSeekCommit)
	if r.resumeAfterSeek {
		r.player.Play()
		r.transition(InputPlay)
		r.resumeAfterSeek = false
	}
	r.suppressUntil = r.clock.Now().Add(r.cfg.SuppressionWindow)
	r.writeShared(ctx, seconds, r.state == StatePlaying)
	return nil
}

// HandlePlay processes the player's own play event. Events inside the
// suppression window are artifacts of a reconciler-issued command and are
// dropped so they cannot loop back into a write.
func (r *Reconciler) HandlePlay(ctx context.Context) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.suppressed() {
		return
	}
	r.transition(InputPlay)
	if r.role == RoleHost {
		r.writeShared(ctx, r.player.GetCurrentTime(), true)
	}
}

// HandlePause processes the player's own pause event.
func (r *Reconciler) HandlePause(ctx context.Context) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.suppressed() {
		return
	}
	r.transition(InputPause)
	if r.role == RoleHost {
		r.writeShared(ctx, r.player.GetCurrentTime(), false)
	}
}

// HandleEnded processes end of media. Only the host advances the queue, and
// at most once per media load even if the player fires the event repeatedly.
func (r *Reconciler) HandleEnded(ctx context.Context) {
	r.mu.Lock()
	if r.endedFired {
		r.mu.Unlock()
		return
	}
	r.endedFired = true
	r.transition(InputEnded)
	isHost := r.role == RoleHost
	r.mu.Unlock()

	if isHost && r.onEnded != nil {
		r.onEnded(ctx)
	}
}

// HandleDuration records the media duration once the player reports it.
func (r *Reconciler) HandleDuration(seconds float64) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.duration = seconds
}

// HandleBuffer and HandleBufferEnd track the local buffering spinner.
// Buffering is a UI signal only and never feeds the sync decision.
func (r *Reconciler) HandleBuffer() {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.buffering = true
}

func (r *Reconciler) HandleBufferEnd() {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.buffering = false
}

// Buffering reports whether the local player is buffering.
func (r *Reconciler) Buffering() bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.buffering
}

// Duration returns the known media duration, or NaN.
func (r *Reconciler) Duration() float64 {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.duration
}

// Reset prepares the reconciler for a new media load.
func (r *Reconciler) Reset() {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.transition(InputLoad)
	r.endedFired = false
	r.resumeAfterSeek = false
	r.duration = math.NaN()
}

// RunHeartbeat periodically re-publishes the host's position while playing,
// until ctx is cancelled. Viewers return immediately.
func (r *Reconciler) RunHeartbeat(ctx context.Context) {
	if r.role != RoleHost {
		return
	}

	ticker := r.clock.NewTicker(r.cfg.HeartbeatInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.Chan():
			r.mu.Lock()
			if r.state == StatePlaying {
				r.writeShared(ctx, r.player.GetCurrentTime(), true)
			}
			r.mu.Unlock()
		}
	}
}

// requireHost rejects transport controls from viewers. Callers hold r.mu.
func (r *Reconciler) requireHost() error {
	if r.role == RoleHost {
		return nil
	}
	if r.notifier != nil {
		r.notifier.Notify(hostOnlyNotice)
	}
	return ErrNotHost
}

// writeShared publishes the shared state, flagging the write as local origin
// so its echo is skipped. Write failures are logged and surfaced but never
// retried; local playback keeps going. Callers hold r.mu.
func (r *Reconciler) writeShared(ctx context.Context, currentTime float64, isPlaying bool) {
	r.localOrigin = true
	r.localOriginAt = r.clock.Now()

	if err := r.writer.WritePlayback(ctx, r.roomID, currentTime, isPlaying); err != nil {
		log.Error().
			Err(err).
			Str("room_id", r.roomID.String()).
			Msg("failed to write playback state")
		if r.notifier != nil {
			r.notifier.Notify("couldn't sync playback, others may fall behind")
		}
	}
}

// suppressed reports whether a player event falls in the window right after
// a reconciler-issued command. Callers hold r.mu.
func (r *Reconciler) suppressed() bool {
	return r.clock.Now().Before(r.suppressUntil)
}

// transition applies in to the state machine, logging illegal inputs rather
// than failing; an out-of-order player event must not wedge the reconciler.
// Callers hold r.mu.
func (r *Reconciler) transition(in Input) {
	next, err := Transition(r.state, in)
	if err != nil {
		log.Warn().
			Str("room_id", r.roomID.String()).
			Str("state", string(r.state)).
			Str("input", string(in)).
			Msg("ignoring illegal playback transition")
		return
	}
	r.state = next
}
