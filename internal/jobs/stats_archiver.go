package jobs

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/forgo/hangman/api/internal/model"
	"github.com/forgo/hangman/api/internal/service"
)

const (
	statsArchiverSubscriberID = "stats-archiver"

	// sweepGrace re-covers games that finished just before the previous
	// sweep but were written after its query
	sweepGrace = time.Minute
)

// GameSource loads games for archiving
type GameSource interface {
	GetByID(ctx context.Context, id string) (*model.Game, error)
	ListFinishedSince(ctx context.Context, since time.Time) ([]*model.Game, error)
}

// GameArchive stores finished games
type GameArchive interface {
	Record(ctx context.Context, game *model.Game) error
	Missing(ctx context.Context, gameIDs []string) ([]string, error)
}

// StatsArchiver copies finished games into the statistics archive. The
// game_completed events are the fast path; the hub drops events for slow
// subscribers, so a periodic sweep records any terminal game the archive
// is still missing. The first sweep covers the whole game history.
type StatsArchiver struct {
	hub           *service.EventHub
	games         GameSource
	archive       GameArchive
	timeout       time.Duration
	sweepInterval time.Duration
	sweepDelay    time.Duration
	now           func() time.Time
	logger        *slog.Logger

	sub       *service.Subscriber
	stop      chan struct{}
	wg        sync.WaitGroup
	running   bool
	mu        sync.Mutex
	sweepMu   sync.Mutex
	watermark time.Time
}

// NewStatsArchiver creates a new stats archiver job. A non-positive
// sweepInterval disables the sweep.
func NewStatsArchiver(hub *service.EventHub, games GameSource, archive GameArchive, sweepInterval time.Duration, logger *slog.Logger) *StatsArchiver {
	if logger == nil {
		logger = slog.Default()
	}
	return &StatsArchiver{
		hub:           hub,
		games:         games,
		archive:       archive,
		timeout:       10 * time.Second,
		sweepInterval: sweepInterval,
		sweepDelay:    5 * time.Second,
		now:           time.Now,
		logger:        logger,
	}
}

// Start subscribes to the event hub and begins archiving
func (a *StatsArchiver) Start() {
	a.mu.Lock()
	defer a.mu.Unlock()
	if a.running {
		return
	}
	a.running = true
	a.sub = a.hub.Subscribe(statsArchiverSubscriberID)
	a.stop = make(chan struct{})

	a.wg.Add(1)
	go a.run(a.sub)
	if a.sweepInterval > 0 {
		a.wg.Add(1)
		go a.sweepLoop(a.stop)
	}
	a.logger.Info("stats archiver started", slog.Duration("sweep_interval", a.sweepInterval))
}

// Stop unsubscribes and waits for in-flight work to finish
func (a *StatsArchiver) Stop() {
	a.mu.Lock()
	if !a.running {
		a.mu.Unlock()
		return
	}
	a.running = false
	close(a.stop)
	a.mu.Unlock()

	a.hub.Unsubscribe(statsArchiverSubscriberID)
	a.wg.Wait()
	a.logger.Info("stats archiver stopped")
}

func (a *StatsArchiver) run(sub *service.Subscriber) {
	defer a.wg.Done()

	for event := range sub.Events {
		if event.Type != service.EventGameCompleted {
			continue
		}
		ctx, cancel := context.WithTimeout(context.Background(), a.timeout)
		if err := a.ArchiveGame(ctx, event.GameID); err != nil {
			a.logger.Error("failed to archive game",
				slog.String("game_id", event.GameID),
				slog.Any("error", err),
			)
		}
		cancel()
	}
}

func (a *StatsArchiver) sweepLoop(stop <-chan struct{}) {
	defer a.wg.Done()

	select {
	case <-time.After(a.sweepDelay):
	case <-stop:
		return
	}

	ticker := time.NewTicker(a.sweepInterval)
	defer ticker.Stop()

	for {
		a.sweepLogged()
		select {
		case <-ticker.C:
		case <-stop:
			return
		}
	}
}

func (a *StatsArchiver) sweepLogged() {
	ctx, cancel := context.WithTimeout(context.Background(), a.sweepInterval)
	defer cancel()

	n, err := a.Sweep(ctx)
	if err != nil {
		a.logger.Error("stats sweep failed", slog.Any("error", err))
		return
	}
	if n > 0 {
		a.logger.Info("stats sweep archived missed games", slog.Int("count", n))
	}
}

// Sweep archives every terminal game finished since the previous
// successful sweep that the archive does not hold yet, and returns how
// many it recorded
func (a *StatsArchiver) Sweep(ctx context.Context) (int, error) {
	a.sweepMu.Lock()
	defer a.sweepMu.Unlock()

	started := a.now()
	games, err := a.games.ListFinishedSince(ctx, a.watermark)
	if err != nil {
		return 0, err
	}

	byID := make(map[string]*model.Game, len(games))
	ids := make([]string, 0, len(games))
	for _, g := range games {
		if !g.Status.IsTerminal() {
			continue
		}
		byID[g.ID] = g
		ids = append(ids, g.ID)
	}

	missing, err := a.archive.Missing(ctx, ids)
	if err != nil {
		return 0, err
	}
	for i, id := range missing {
		if err := a.archive.Record(ctx, byID[id]); err != nil {
			return i, err
		}
	}

	a.watermark = started.Add(-sweepGrace)
	return len(missing), nil
}

// ArchiveGame loads one game and records it if it has finished
func (a *StatsArchiver) ArchiveGame(ctx context.Context, gameID string) error {
	game, err := a.games.GetByID(ctx, gameID)
	if err != nil {
		return err
	}
	if game == nil {
		a.logger.Warn("completed game not found", slog.String("game_id", gameID))
		return nil
	}
	return a.archive.Record(ctx, game)
}

// IsRunning returns whether the archiver is subscribed
func (a *StatsArchiver) IsRunning() bool {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.running
}
