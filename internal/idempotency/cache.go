package idempotency

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"golang.org/x/sync/singleflight"
)

// DefaultTTL is how long a stored response can be replayed
const DefaultTTL = 24 * time.Hour

// Config holds idempotency cache configuration
type Config struct {
	TTL           time.Duration // Default: 24h
	PurgeInterval time.Duration // Default: 1h
	Now           func() time.Time
	Logger        *slog.Logger
}

// Cache replays stored successful responses and collapses concurrent
// requests that share a key into one execution
type Cache struct {
	store    Store
	ttl      time.Duration
	purge    time.Duration
	now      func() time.Time
	logger   *slog.Logger
	group    singleflight.Group
	stopChan chan struct{}
	stopOnce sync.Once
}

// NewCache creates a cache over store. Call Start to run the purge loop.
func NewCache(store Store, cfg Config) *Cache {
	if cfg.TTL == 0 {
		cfg.TTL = DefaultTTL
	}
	if cfg.PurgeInterval == 0 {
		cfg.PurgeInterval = time.Hour
	}
	if cfg.Now == nil {
		cfg.Now = time.Now
	}
	if cfg.Logger == nil {
		cfg.Logger = slog.Default()
	}
	return &Cache{
		store:    store,
		ttl:      cfg.TTL,
		purge:    cfg.PurgeInterval,
		now:      cfg.Now,
		logger:   cfg.Logger,
		stopChan: make(chan struct{}),
	}
}

// Do returns the stored response for key, or runs fn and stores its
// response when it is a 2xx. The bool reports a replay and is true
// whenever fn did not run in this call.
func (c *Cache) Do(ctx context.Context, key string, fn func() (*Entry, error)) (*Entry, bool, error) {
	for {
		stored, err := c.store.Get(ctx, key)
		if err != nil {
			return nil, false, err
		}
		if stored != nil {
			return stored, true, nil
		}

		ran := false
		v, err, _ := c.group.Do(key, func() (interface{}, error) {
			ran = true
			return c.execute(ctx, key, fn)
		})
		if err != nil {
			if ran {
				return nil, false, err
			}
			// the leader failed; try again with a fresh leader
			continue
		}

		res := v.(*result)
		if ran {
			return res.entry, res.replayed, nil
		}
		if res.entry.Successful() {
			return res.entry, true, nil
		}
		// never share a failed response with waiting callers
		if ctx.Err() != nil {
			return nil, false, ctx.Err()
		}
	}
}

type result struct {
	entry    *Entry
	replayed bool
}

func (c *Cache) execute(ctx context.Context, key string, fn func() (*Entry, error)) (*result, error) {
	// a previous leader may have stored the entry after our lookup
	stored, err := c.store.Get(ctx, key)
	if err != nil {
		return nil, err
	}
	if stored != nil {
		return &result{entry: stored, replayed: true}, nil
	}

	entry, err := fn()
	if err != nil {
		return nil, err
	}
	if entry.CreatedAt.IsZero() {
		entry.CreatedAt = c.now().UTC()
	}
	if entry.Successful() {
		if err := c.store.Put(ctx, key, entry, c.ttl); err != nil {
			return nil, fmt.Errorf("failed to store response: %w", err)
		}
	}
	return &result{entry: entry}, nil
}

// Start runs the purge loop until Stop is called
func (c *Cache) Start() {
	go c.purgeLoop()
}

// Stop stops the purge loop
func (c *Cache) Stop() {
	c.stopOnce.Do(func() { close(c.stopChan) })
}

func (c *Cache) purgeLoop() {
	ticker := time.NewTicker(c.purge)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			removed, err := c.store.Purge(context.Background())
			if err != nil {
				c.logger.Warn("idempotency purge failed", slog.Any("error", err))
				continue
			}
			if removed > 0 {
				c.logger.Debug("idempotency entries purged", slog.Int("removed", removed))
			}
		case <-c.stopChan:
			return
		}
	}
}
