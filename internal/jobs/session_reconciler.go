package jobs

import (
	"context"
	"log/slog"
	"sync"
	"time"
)

// SessionReconcilerService is the part of the session service the
// reconciler drives
type SessionReconcilerService interface {
	ReconcileActive(ctx context.Context) (int, error)
}

// SessionReconciler periodically recomputes the counters of ACTIVE sessions
// from their game lists and completes sessions whose games have all
// finished. It repairs counters left stale by a failed write after a game
// was stored.
type SessionReconciler struct {
	sessions   SessionReconcilerService
	interval   time.Duration
	startDelay time.Duration
	logger     *slog.Logger
	stopCh     chan struct{}
	wg         sync.WaitGroup
	running    bool
	mu         sync.Mutex
}

// NewSessionReconciler creates a new session reconciler job
func NewSessionReconciler(sessions SessionReconcilerService, interval time.Duration, logger *slog.Logger) *SessionReconciler {
	if interval == 0 {
		interval = 5 * time.Minute
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &SessionReconciler{
		sessions:   sessions,
		interval:   interval,
		startDelay: 5 * time.Second,
		logger:     logger,
		stopCh:     make(chan struct{}),
	}
}

// Start begins the reconciliation loop
func (r *SessionReconciler) Start() {
	r.mu.Lock()
	if r.running {
		r.mu.Unlock()
		return
	}
	r.running = true
	r.mu.Unlock()

	r.wg.Add(1)
	go r.run()
	r.logger.Info("session reconciler started", slog.Duration("interval", r.interval))
}

// Stop gracefully stops the reconciliation loop
func (r *SessionReconciler) Stop() {
	r.mu.Lock()
	if !r.running {
		r.mu.Unlock()
		return
	}
	r.running = false
	r.mu.Unlock()

	close(r.stopCh)
	r.wg.Wait()
	r.logger.Info("session reconciler stopped")
}

func (r *SessionReconciler) run() {
	defer r.wg.Done()

	select {
	case <-time.After(r.startDelay):
		r.reconcile()
	case <-r.stopCh:
		return
	}

	ticker := time.NewTicker(r.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			r.reconcile()
		case <-r.stopCh:
			return
		}
	}
}

func (r *SessionReconciler) reconcile() {
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Minute)
	defer cancel()

	n, err := r.sessions.ReconcileActive(ctx)
	if err != nil {
		r.logger.Error("session reconciliation failed", slog.Any("error", err))
		return
	}
	r.logger.Debug("sessions reconciled", slog.Int("sessions", n))
}

// RunOnce runs one reconciliation pass (for testing or manual trigger)
func (r *SessionReconciler) RunOnce(ctx context.Context) (int, error) {
	return r.sessions.ReconcileActive(ctx)
}

// IsRunning returns whether the reconciler is running
func (r *SessionReconciler) IsRunning() bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.running
}
