package playback

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/jonboulle/clockwork"

	"github.com/watchly/watchly/go/internal/models"
)

type fakePlayer struct {
	currentTime float64
	seeks       []float64
	playCalls   int
	pauseCalls  int
}

func (p *fakePlayer) GetCurrentTime() float64 { return p.currentTime }
func (p *fakePlayer) SeekTo(seconds float64) {
	p.seeks = append(p.seeks, seconds)
	p.currentTime = seconds
}
func (p *fakePlayer) Play()  { p.playCalls++ }
func (p *fakePlayer) Pause() { p.pauseCalls++ }

type writeCall struct {
	currentTime float64
	isPlaying   bool
}

type fakeWriter struct {
	writes []writeCall
	err    error
	ch     chan writeCall
}

func (w *fakeWriter) WritePlayback(_ context.Context, _ uuid.UUID, currentTime float64, isPlaying bool) error {
	call := writeCall{currentTime: currentTime, isPlaying: isPlaying}
	w.writes = append(w.writes, call)
	if w.ch != nil {
		w.ch <- call
	}
	return w.err
}

type fakeNotifier struct {
	notices []string
}

func (n *fakeNotifier) Notify(message string) {
	n.notices = append(n.notices, message)
}

func newTestReconciler(role Role) (*Reconciler, *fakePlayer, *fakeWriter, *fakeNotifier, *clockwork.FakeClock) {
	player := &fakePlayer{}
	writer := &fakeWriter{}
	notifier := &fakeNotifier{}
	clock := clockwork.NewFakeClock()
	r := NewReconciler(uuid.New(), role, Deps{
		Player:   player,
		Writer:   writer,
		Notifier: notifier,
		Clock:    clock,
	}, DefaultConfig())
	return r, player, writer, notifier, clock
}

func snapshot(currentTime float64, isPlaying bool) Snapshot {
	return Snapshot{
		CurrentTime:   currentTime,
		IsPlaying:     isPlaying,
		SchemaVersion: models.RoomSchemaVersion,
		UpdatedAt:     time.Now(),
	}
}

func TestApplySnapshotCorrectsDrift(t *testing.T) {
	r, player, _, _, _ := newTestReconciler(RoleViewer)
	player.currentTime = 10.0

	if err := r.ApplySnapshot(context.Background(), snapshot(15.0, true)); err != nil {
		t.Fatalf("ApplySnapshot: %v", err)
	}

	if len(player.seeks) != 1 || player.seeks[0] != 15.0 {
		t.Fatalf("expected exactly one seek to 15.0, got %v", player.seeks)
	}
	if player.playCalls != 1 {
		t.Fatalf("expected play to be issued to match remote isPlaying, got %d calls", player.playCalls)
	}
	if got := r.State(); got != StatePlaying {
		t.Fatalf("expected state PLAYING, got %s", got)
	}
}

func TestApplySnapshotNoOpWithinTolerance(t *testing.T) {
	r, player, _, _, _ := newTestReconciler(RoleViewer)
	player.currentTime = 10.0

	if err := r.ApplySnapshot(context.Background(), snapshot(11.5, false)); err != nil {
		t.Fatalf("ApplySnapshot: %v", err)
	}

	if len(player.seeks) != 0 {
		t.Fatalf("expected no seek within buffer window, got %v", player.seeks)
	}
}

func TestApplySnapshotSkipsOwnEcho(t *testing.T) {
	r, player, writer, _, _ := newTestReconciler(RoleHost)
	player.currentTime = 42.0

	if err := r.TogglePlayPause(context.Background()); err != nil {
		t.Fatalf("TogglePlayPause: %v", err)
	}
	if len(writer.writes) != 1 {
		t.Fatalf("expected one shared write, got %d", len(writer.writes))
	}

	// The store fires the writer's own snapshot back. A remote time far from
	// the local position proves nothing is applied, not merely tolerated.
	player.currentTime = 10.0
	if err := r.ApplySnapshot(context.Background(), snapshot(42.0, true)); err != nil {
		t.Fatalf("ApplySnapshot: %v", err)
	}

	if len(player.seeks) != 0 {
		t.Fatalf("echo must not trigger a self-seek, got %v", player.seeks)
	}
}

func TestApplySnapshotDebouncesCorrections(t *testing.T) {
	r, player, _, _, clock := newTestReconciler(RoleViewer)
	player.currentTime = 10.0

	if err := r.ApplySnapshot(context.Background(), snapshot(20.0, true)); err != nil {
		t.Fatalf("first ApplySnapshot: %v", err)
	}

	// Force drift again and deliver a second correction 500ms later.
	player.currentTime = 20.0
	clock.Advance(500 * time.Millisecond)
	if err := r.ApplySnapshot(context.Background(), snapshot(30.0, true)); err != nil {
		t.Fatalf("second ApplySnapshot: %v", err)
	}

	if len(player.seeks) != 1 {
		t.Fatalf("expected second correction to be debounced, got seeks %v", player.seeks)
	}

	// Past the debounce interval the correction goes through.
	clock.Advance(600 * time.Millisecond)
	if err := r.ApplySnapshot(context.Background(), snapshot(30.0, true)); err != nil {
		t.Fatalf("third ApplySnapshot: %v", err)
	}
	if len(player.seeks) != 2 {
		t.Fatalf("expected correction after debounce interval, got seeks %v", player.seeks)
	}
}

func TestViewerControlsRejected(t *testing.T) {
	r, player, writer, notifier, _ := newTestReconciler(RoleViewer)
	player.currentTime = 30.0

	if err := r.TogglePlayPause(context.Background()); !errors.Is(err, ErrNotHost) {
		t.Fatalf("expected ErrNotHost from toggle, got %v", err)
	}
	if err := r.Skip(context.Background(), 10); !errors.Is(err, ErrNotHost) {
		t.Fatalf("expected ErrNotHost from skip, got %v", err)
	}
	if err := r.HandleSeekCommit(context.Background(), 99); !errors.Is(err, ErrNotHost) {
		t.Fatalf("expected ErrNotHost from seek commit, got %v", err)
	}

	if len(writer.writes) != 0 {
		t.Fatalf("viewer intent must never reach the shared state, got %v", writer.writes)
	}
	if len(player.seeks) != 0 {
		t.Fatalf("viewer intent must not move the player, got %v", player.seeks)
	}
	if len(notifier.notices) != 3 {
		t.Fatalf("expected a notice per rejected intent, got %v", notifier.notices)
	}
}

func TestEndedFiresAtMostOnce(t *testing.T) {
	player := &fakePlayer{}
	writer := &fakeWriter{}
	clock := clockwork.NewFakeClock()
	advances := 0
	r := NewReconciler(uuid.New(), RoleHost, Deps{
		Player: player,
		Writer: writer,
		Clock:  clock,
		OnEnded: func(context.Context) {
			advances++
		},
	}, DefaultConfig())

	if err := r.TogglePlayPause(context.Background()); err != nil {
		t.Fatalf("TogglePlayPause: %v", err)
	}

	r.HandleEnded(context.Background())
	r.HandleEnded(context.Background())
	r.HandleEnded(context.Background())

	if advances != 1 {
		t.Fatalf("expected queue advance exactly once, got %d", advances)
	}

	// A new media load re-arms the guard.
	r.Reset()
	if err := r.TogglePlayPause(context.Background()); err != nil {
		t.Fatalf("TogglePlayPause after reset: %v", err)
	}
	r.HandleEnded(context.Background())
	if advances != 2 {
		t.Fatalf("expected queue advance after new load, got %d", advances)
	}
}

func TestViewerEndedDoesNotAdvance(t *testing.T) {
	player := &fakePlayer{}
	advances := 0
	r := NewReconciler(uuid.New(), RoleViewer, Deps{
		Player: player,
		Writer: &fakeWriter{},
		Clock:  clockwork.NewFakeClock(),
		OnEnded: func(context.Context) {
			advances++
		},
	}, DefaultConfig())

	if err := r.ApplySnapshot(context.Background(), snapshot(0, true)); err != nil {
		t.Fatalf("ApplySnapshot: %v", err)
	}
	r.HandleEnded(context.Background())

	if advances != 0 {
		t.Fatalf("viewer end-of-media must not advance the queue, got %d", advances)
	}
}

func TestSuppressionWindowDropsProgrammaticEvents(t *testing.T) {
	r, player, writer, _, clock := newTestReconciler(RoleHost)
	player.currentTime = 5.0

	if err := r.TogglePlayPause(context.Background()); err != nil {
		t.Fatalf("TogglePlayPause: %v", err)
	}
	writes := len(writer.writes)

	// The player fires its own play event as a result of the command.
	r.HandlePlay(context.Background())
	if len(writer.writes) != writes {
		t.Fatalf("suppressed player event must not produce a write, got %v", writer.writes)
	}

	// A genuine event past the window does.
	clock.Advance(time.Second)
	r.HandlePause(context.Background())
	if len(writer.writes) != writes+1 {
		t.Fatalf("expected genuine pause to write shared state, got %v", writer.writes)
	}
	if last := writer.writes[len(writer.writes)-1]; last.isPlaying {
		t.Fatalf("expected pause write with isPlaying=false, got %+v", last)
	}
}

func TestWriteFailureNotifiesWithoutRetry(t *testing.T) {
	player := &fakePlayer{}
	writer := &fakeWriter{err: errors.New("store unavailable")}
	notifier := &fakeNotifier{}
	r := NewReconciler(uuid.New(), RoleHost, Deps{
		Player:   player,
		Writer:   writer,
		Notifier: notifier,
		Clock:    clockwork.NewFakeClock(),
	}, DefaultConfig())

	if err := r.TogglePlayPause(context.Background()); err != nil {
		t.Fatalf("TogglePlayPause must not fail on a write error: %v", err)
	}
	if len(writer.writes) != 1 {
		t.Fatalf("expected exactly one write attempt, got %d", len(writer.writes))
	}
	if len(notifier.notices) != 1 {
		t.Fatalf("expected one transient failure notice, got %v", notifier.notices)
	}
	if got := r.State(); got != StatePlaying {
		t.Fatalf("local playback must keep going on write failure, got state %s", got)
	}
}

func TestHeartbeatPublishesWhilePlaying(t *testing.T) {
	player := &fakePlayer{currentTime: 7.0}
	writer := &fakeWriter{ch: make(chan writeCall, 4)}
	clock := clockwork.NewFakeClock()
	r := NewReconciler(uuid.New(), RoleHost, Deps{
		Player: player,
		Writer: writer,
		Clock:  clock,
	}, DefaultConfig())

	if err := r.TogglePlayPause(context.Background()); err != nil {
		t.Fatalf("TogglePlayPause: %v", err)
	}
	<-writer.ch // toggle's own write

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	done := make(chan struct{})
	go func() {
		r.RunHeartbeat(ctx)
		close(done)
	}()

	clock.BlockUntil(1)
	player.currentTime = 12.0
	clock.Advance(5 * time.Second)

	select {
	case call := <-writer.ch:
		if call.currentTime != 12.0 || !call.isPlaying {
			t.Fatalf("unexpected heartbeat write %+v", call)
		}
	case <-time.After(2 * time.Second):
		t.Fatal("expected a heartbeat write after the interval")
	}

	cancel()
	<-done
}

func TestHeartbeatViewerIsNoOp(t *testing.T) {
	r, _, writer, _, _ := newTestReconciler(RoleViewer)

	done := make(chan struct{})
	go func() {
		r.RunHeartbeat(context.Background())
		close(done)
	}()

	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("viewer heartbeat should return immediately")
	}
	if len(writer.writes) != 0 {
		t.Fatalf("viewer heartbeat must not write, got %v", writer.writes)
	}
}

func TestApplySnapshotRejectsUnknownSchema(t *testing.T) {
	r, player, _, _, _ := newTestReconciler(RoleViewer)

	snap := snapshot(50.0, true)
	snap.SchemaVersion = models.RoomSchemaVersion + 1
	if err := r.ApplySnapshot(context.Background(), snap); !errors.Is(err, ErrUnknownSchema) {
		t.Fatalf("expected ErrUnknownSchema, got %v", err)
	}
	if len(player.seeks) != 0 || player.playCalls != 0 {
		t.Fatal("rejected snapshot must not touch the player")
	}
}

func TestHostSeekCommitResumesPlayback(t *testing.T) {
	r, player, writer, _, _ := newTestReconciler(RoleHost)

	if err := r.TogglePlayPause(context.Background()); err != nil {
		t.Fatalf("TogglePlayPause: %v", err)
	}
	r.HandleSeekStart()
	if got := r.State(); got != StateSeeking {
		t.Fatalf("expected SEEKING during drag, got %s", got)
	}
	if err := r.HandleSeekCommit(context.Background(), 120.0); err != nil {
		t.Fatalf("HandleSeekCommit: %v", err)
	}

	if got := r.State(); got != StatePlaying {
		t.Fatalf("expected playback to resume after drag-seek, got %s", got)
	}
	last := writer.writes[len(writer.writes)-1]
	if last.currentTime != 120.0 || !last.isPlaying {
		t.Fatalf("expected seek commit write {120 true}, got %+v", last)
	}
	if player.currentTime != 120.0 {
		t.Fatalf("expected player moved to 120, got %v", player.currentTime)
	}
}

func TestBufferingIsUIOnly(t *testing.T) {
	r, player, _, _, _ := newTestReconciler(RoleViewer)
	player.currentTime = 10.0

	r.HandleBuffer()
	if !r.Buffering() {
		t.Fatal("expected buffering flag set")
	}

	// Sync decisions are unaffected by the buffering flag.
	if err := r.ApplySnapshot(context.Background(), snapshot(20.0, true)); err != nil {
		t.Fatalf("ApplySnapshot: %v", err)
	}
	if len(player.seeks) != 1 {
		t.Fatalf("expected drift correction while buffering, got %v", player.seeks)
	}

	r.HandleBufferEnd()
	if r.Buffering() {
		t.Fatal("expected buffering flag cleared")
	}
}
