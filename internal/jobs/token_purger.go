package jobs

import (
	"context"
	"log/slog"
	"sync"
	"time"
)

// TokenPurgerService deletes refresh tokens past their expiry
type TokenPurgerService interface {
	PurgeExpiredTokens(ctx context.Context) (int, error)
}

// TokenPurger periodically removes expired refresh tokens
type TokenPurger struct {
	auth     TokenPurgerService
	interval time.Duration
	logger   *slog.Logger
	stopCh   chan struct{}
	wg       sync.WaitGroup
	running  bool
	mu       sync.Mutex
}

// NewTokenPurger creates a new token purger job
func NewTokenPurger(auth TokenPurgerService, interval time.Duration, logger *slog.Logger) *TokenPurger {
	if interval == 0 {
		interval = time.Hour
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &TokenPurger{
		auth:     auth,
		interval: interval,
		logger:   logger,
		stopCh:   make(chan struct{}),
	}
}

// Start begins the purge loop
func (p *TokenPurger) Start() {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.running {
		return
	}
	p.running = true

	p.wg.Add(1)
	go p.run()
	p.logger.Info("token purger started", slog.Duration("interval", p.interval))
}

// Stop stops the purge loop and waits for a pass in flight
func (p *TokenPurger) Stop() {
	p.mu.Lock()
	if !p.running {
		p.mu.Unlock()
		return
	}
	p.running = false
	p.mu.Unlock()

	close(p.stopCh)
	p.wg.Wait()
	p.logger.Info("token purger stopped")
}

func (p *TokenPurger) run() {
	defer p.wg.Done()

	ticker := time.NewTicker(p.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			ctx, cancel := context.WithTimeout(context.Background(), time.Minute)
			n, err := p.auth.PurgeExpiredTokens(ctx)
			cancel()
			if err != nil {
				p.logger.Error("token purge failed", slog.Any("error", err))
				continue
			}
			if n > 0 {
				p.logger.Info("expired refresh tokens purged", slog.Int("count", n))
			}
		case <-p.stopCh:
			return
		}
	}
}

// IsRunning returns whether the purger is running
func (p *TokenPurger) IsRunning() bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.running
}
