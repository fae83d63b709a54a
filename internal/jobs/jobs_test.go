package jobs

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"slices"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/forgo/hangman/api/internal/model"
	"github.com/forgo/hangman/api/internal/service"
)

// ============================================================================
// Test Helpers
// ============================================================================

type mockPurger struct {
	calls atomic.Int32
	err   error
}

func (m *mockPurger) PurgeExpiredTokens(context.Context) (int, error) {
	m.calls.Add(1)
	return 1, m.err
}

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

type mockReconciler struct {
	calls atomic.Int32
	err   error
}

func (m *mockReconciler) ReconcileActive(context.Context) (int, error) {
	m.calls.Add(1)
	return 3, m.err
}

type mockGames struct {
	getByIDFunc           func(ctx context.Context, id string) (*model.Game, error)
	listFinishedSinceFunc func(ctx context.Context, since time.Time) ([]*model.Game, error)
}

func (m *mockGames) GetByID(ctx context.Context, id string) (*model.Game, error) {
	if m.getByIDFunc != nil {
		return m.getByIDFunc(ctx, id)
	}
	return nil, nil
}

func (m *mockGames) ListFinishedSince(ctx context.Context, since time.Time) ([]*model.Game, error) {
	if m.listFinishedSinceFunc != nil {
		return m.listFinishedSinceFunc(ctx, since)
	}
	return nil, nil
}

// recordingArchive remembers archived IDs. When gate is set, Record
// signals entered and then blocks until the gate is closed.
type recordingArchive struct {
	mu       sync.Mutex
	recorded []string
	done     chan struct{}
	entered  chan struct{}
	gate     chan struct{}
}

func (a *recordingArchive) Record(_ context.Context, g *model.Game) error {
	if a.gate != nil {
		a.entered <- struct{}{}
		<-a.gate
	}
	a.mu.Lock()
	a.recorded = append(a.recorded, g.ID)
	a.mu.Unlock()
	if a.done != nil {
		a.done <- struct{}{}
	}
	return nil
}

func (a *recordingArchive) Missing(_ context.Context, ids []string) ([]string, error) {
	a.mu.Lock()
	defer a.mu.Unlock()
	var missing []string
	for _, id := range ids {
		if !slices.Contains(a.recorded, id) {
			missing = append(missing, id)
		}
	}
	return missing, nil
}

func (a *recordingArchive) ids() []string {
	a.mu.Lock()
	defer a.mu.Unlock()
	return append([]string(nil), a.recorded...)
}

// finishedGames serves a fixed set of won games by ID and by finish time
func finishedGames(ids ...string) *mockGames {
	byID := make(map[string]*model.Game, len(ids))
	var all []*model.Game
	for _, id := range ids {
		g := &model.Game{ID: id, Status: model.GameStatusWon}
		byID[id] = g
		all = append(all, g)
	}
	return &mockGames{
		getByIDFunc: func(_ context.Context, id string) (*model.Game, error) {
			return byID[id], nil
		},
		listFinishedSinceFunc: func(context.Context, time.Time) ([]*model.Game, error) {
			return all, nil
		},
	}
}

func waitFor(t *testing.T, cond func() bool) {
	t.Helper()
	deadline := time.Now().Add(2 * time.Second)
	for !cond() {
		if time.Now().After(deadline) {
			t.Fatal("timed out waiting for condition")
		}
		time.Sleep(5 * time.Millisecond)
	}
}

// ============================================================================
// SessionReconciler Tests
// ============================================================================

func TestSessionReconciler_RunOnce(t *testing.T) {
	t.Parallel()
	m := &mockReconciler{}
	r := NewSessionReconciler(m, time.Minute, discardLogger())

	n, err := r.RunOnce(context.Background())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if n != 3 || m.calls.Load() != 1 {
		t.Errorf("expected one pass over 3 sessions, got n=%d calls=%d", n, m.calls.Load())
	}
}

func TestSessionReconciler_TicksUntilStopped(t *testing.T) {
	t.Parallel()
	m := &mockReconciler{err: errors.New("store down")}
	r := NewSessionReconciler(m, 10*time.Millisecond, discardLogger())
	r.startDelay = 0

	r.Start()
	r.Start()
	if !r.IsRunning() {
		t.Fatal("expected reconciler to be running")
	}

	deadline := time.Now().Add(2 * time.Second)
	for m.calls.Load() < 3 && time.Now().Before(deadline) {
		time.Sleep(5 * time.Millisecond)
	}
	r.Stop()
	r.Stop()

	if m.calls.Load() < 3 {
		t.Errorf("expected at least 3 passes despite errors, got %d", m.calls.Load())
	}
	if r.IsRunning() {
		t.Error("expected reconciler to be stopped")
	}

	after := m.calls.Load()
	time.Sleep(30 * time.Millisecond)
	if m.calls.Load() != after {
		t.Error("reconciler kept running after Stop")
	}
}

func TestSessionReconciler_StopBeforeFirstPass(t *testing.T) {
	t.Parallel()
	m := &mockReconciler{}
	r := NewSessionReconciler(m, time.Hour, discardLogger())

	r.Start()
	r.Stop()

	if m.calls.Load() != 0 {
		t.Errorf("expected no pass, got %d", m.calls.Load())
	}
}

// ============================================================================
// StatsArchiver Tests
// ============================================================================

func TestStatsArchiver_ArchivesCompletedGames(t *testing.T) {
	t.Parallel()
	hub := service.NewEventHub(10)
	games := &mockGames{getByIDFunc: func(_ context.Context, id string) (*model.Game, error) {
		return &model.Game{ID: id, Status: model.GameStatusWon}, nil
	}}
	archive := &recordingArchive{done: make(chan struct{}, 10)}

	a := NewStatsArchiver(hub, games, archive, 0, discardLogger())
	a.Start()
	defer a.Stop()

	hub.Publish(&service.Event{Type: service.EventSessionCompleted, SessionID: "session:1"})
	hub.Publish(&service.Event{Type: service.EventGameCompleted, GameID: "game:1"})
	hub.Publish(&service.Event{Type: service.EventGameCompleted, GameID: "game:2"})

	for i := 0; i < 2; i++ {
		select {
		case <-archive.done:
		case <-time.After(2 * time.Second):
			t.Fatal("timed out waiting for archive")
		}
	}

	ids := archive.ids()
	if len(ids) != 2 || ids[0] != "game:1" || ids[1] != "game:2" {
		t.Errorf("unexpected archived games: %v", ids)
	}
}

func TestStatsArchiver_ArchiveGame_MissingGame(t *testing.T) {
	t.Parallel()
	games := &mockGames{getByIDFunc: func(context.Context, string) (*model.Game, error) {
		return nil, nil
	}}
	archive := &recordingArchive{}
	a := NewStatsArchiver(service.NewEventHub(1), games, archive, 0, discardLogger())

	if err := a.ArchiveGame(context.Background(), "game:gone"); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(archive.ids()) != 0 {
		t.Errorf("expected nothing archived, got %v", archive.ids())
	}
}

func TestStatsArchiver_ArchiveGame_LoadError(t *testing.T) {
	t.Parallel()
	loadErr := errors.New("boom")
	games := &mockGames{getByIDFunc: func(context.Context, string) (*model.Game, error) {
		return nil, loadErr
	}}
	a := NewStatsArchiver(service.NewEventHub(1), games, &recordingArchive{}, 0, discardLogger())

	if err := a.ArchiveGame(context.Background(), "game:1"); !errors.Is(err, loadErr) {
		t.Errorf("expected load error, got %v", err)
	}
}

func TestStatsArchiver_StopUnsubscribes(t *testing.T) {
	t.Parallel()
	hub := service.NewEventHub(1)
	a := NewStatsArchiver(hub, &mockGames{}, &recordingArchive{}, time.Hour, discardLogger())

	a.Start()
	a.Start()
	a.Stop()
	a.Stop()

	if a.IsRunning() {
		t.Error("expected archiver to be stopped")
	}
	// Publishing after Stop must not reach the closed subscriber
	hub.Publish(&service.Event{Type: service.EventGameCompleted, GameID: "game:1"})
	if hub.Dropped() != 0 {
		t.Errorf("expected no deliveries after Stop, dropped=%d", hub.Dropped())
	}
}

func TestStatsArchiver_SweepRecoversDroppedEvents(t *testing.T) {
	t.Parallel()
	hub := service.NewEventHub(1)
	games := finishedGames("game:1", "game:2", "game:3", "game:4")
	gate := make(chan struct{})
	archive := &recordingArchive{entered: make(chan struct{}, 4), gate: gate}

	a := NewStatsArchiver(hub, games, archive, 0, discardLogger())
	a.Start()
	defer a.Stop()

	hub.Publish(&service.Event{Type: service.EventGameCompleted, GameID: "game:1"})
	select {
	case <-archive.entered:
	case <-time.After(2 * time.Second):
		t.Fatal("archiver never picked up the first event")
	}
	// game:2 fills the buffer while game:1 is being recorded
	for _, id := range []string{"game:2", "game:3", "game:4"} {
		hub.Publish(&service.Event{Type: service.EventGameCompleted, GameID: id})
	}
	if hub.Dropped() != 2 {
		t.Fatalf("expected 2 dropped events, got %d", hub.Dropped())
	}

	close(gate)
	waitFor(t, func() bool { return len(archive.ids()) == 2 })

	n, err := a.Sweep(context.Background())
	if err != nil {
		t.Fatalf("Sweep failed: %v", err)
	}
	if n != 2 {
		t.Errorf("expected the sweep to archive 2 games, got %d", n)
	}
	ids := archive.ids()
	slices.Sort(ids)
	if !slices.Equal(ids, []string{"game:1", "game:2", "game:3", "game:4"}) {
		t.Errorf("unexpected archived games: %v", ids)
	}

	// a second sweep has nothing left to do
	if n, err := a.Sweep(context.Background()); err != nil || n != 0 {
		t.Errorf("second Sweep = %d, %v", n, err)
	}
}

func TestStatsArchiver_Sweep_AdvancesWatermark(t *testing.T) {
	t.Parallel()
	var sinces []time.Time
	games := &mockGames{listFinishedSinceFunc: func(_ context.Context, since time.Time) ([]*model.Game, error) {
		sinces = append(sinces, since)
		return nil, nil
	}}
	a := NewStatsArchiver(service.NewEventHub(1), games, &recordingArchive{}, 0, discardLogger())
	now := time.Date(2026, 5, 10, 12, 0, 0, 0, time.UTC)
	a.now = func() time.Time { return now }

	for i := 0; i < 2; i++ {
		if _, err := a.Sweep(context.Background()); err != nil {
			t.Fatal(err)
		}
	}

	if len(sinces) != 2 || !sinces[0].IsZero() {
		t.Fatalf("first sweep must cover all history, got %v", sinces)
	}
	if !sinces[1].Equal(now.Add(-sweepGrace)) {
		t.Errorf("second sweep since = %v, want %v", sinces[1], now.Add(-sweepGrace))
	}
}

func TestStatsArchiver_Sweep_ListErrorKeepsWatermark(t *testing.T) {
	t.Parallel()
	listErr := errors.New("store down")
	var sinces []time.Time
	fail := true
	games := &mockGames{listFinishedSinceFunc: func(_ context.Context, since time.Time) ([]*model.Game, error) {
		sinces = append(sinces, since)
		if fail {
			return nil, listErr
		}
		return nil, nil
	}}
	a := NewStatsArchiver(service.NewEventHub(1), games, &recordingArchive{}, 0, discardLogger())

	if _, err := a.Sweep(context.Background()); !errors.Is(err, listErr) {
		t.Fatalf("expected list error, got %v", err)
	}
	fail = false
	if _, err := a.Sweep(context.Background()); err != nil {
		t.Fatal(err)
	}
	if !sinces[1].IsZero() {
		t.Errorf("a failed sweep must not advance the watermark, got %v", sinces[1])
	}
}

func TestStatsArchiver_SweepLoopBackfills(t *testing.T) {
	t.Parallel()
	archive := &recordingArchive{}
	a := NewStatsArchiver(service.NewEventHub(1), finishedGames("game:1", "game:2"), archive, 10*time.Millisecond, discardLogger())
	a.sweepDelay = 0

	a.Start()
	waitFor(t, func() bool { return len(archive.ids()) == 2 })
	a.Stop()

	if ids := archive.ids(); len(ids) != 2 {
		t.Errorf("expected each game archived once, got %v", ids)
	}
}

// ============================================================================
// TokenPurger Tests
// ============================================================================

func TestTokenPurger_PurgesUntilStopped(t *testing.T) {
	t.Parallel()
	m := &mockPurger{err: errors.New("store down")}
	p := NewTokenPurger(m, 10*time.Millisecond, discardLogger())

	p.Start()
	p.Start()
	if !p.IsRunning() {
		t.Fatal("expected purger to be running")
	}

	deadline := time.Now().Add(2 * time.Second)
	for m.calls.Load() < 2 && time.Now().Before(deadline) {
		time.Sleep(5 * time.Millisecond)
	}
	p.Stop()
	p.Stop()

	if m.calls.Load() < 2 {
		t.Errorf("expected at least 2 passes despite errors, got %d", m.calls.Load())
	}
	after := m.calls.Load()
	time.Sleep(30 * time.Millisecond)
	if m.calls.Load() != after {
		t.Error("purger kept running after Stop")
	}
}

func TestTokenPurger_StopBeforeFirstTick(t *testing.T) {
	t.Parallel()
	m := &mockPurger{}
	p := NewTokenPurger(m, time.Hour, discardLogger())

	p.Start()
	p.Stop()

	if m.calls.Load() != 0 || p.IsRunning() {
		t.Errorf("expected no pass and a stopped purger, got %d calls", m.calls.Load())
	}
}
