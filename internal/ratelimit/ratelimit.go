package ratelimit

import (
	"sync"
	"time"

	"golang.org/x/time/rate"
)

// Scope names one independently configured quota
type Scope string

const (
	ScopeGeneral       Scope = "general"
	ScopeSessionCreate Scope = "session_create"
	ScopeGameCreate    Scope = "game_create"
	ScopeLogin         Scope = "login" // failed logins per username
)

// Quota is a bucket capacity refilled evenly over Per
type Quota struct {
	Capacity int
	Per      time.Duration
}

func (q Quota) limit() rate.Limit {
	return rate.Limit(float64(q.Capacity) / q.Per.Seconds())
}

// Config holds rate limiter configuration
type Config struct {
	General       Quota         // Default: 60 per minute per actor
	SessionCreate Quota         // Default: 10 per minute per user
	GameCreate    Quota         // Default: 5 per minute per session
	Login         Quota         // Default: 5 failures per 15 minutes per username
	EvictAfter    time.Duration // Default: 5 minutes
	Disabled      bool
	Now           func() time.Time
}

// Decision is the outcome of a single check
type Decision struct {
	Scope      Scope
	Allowed    bool
	Limit      int
	Remaining  int
	RetryAfter time.Duration
}

type bucketKey struct {
	scope Scope
	id    string
}

type bucket struct {
	lim         *rate.Limiter
	lastUsed    time.Time
	tokensAfter float64
}

// fullAt returns when the bucket refills to capacity
func (b *bucket) fullAt() time.Time {
	missing := float64(b.lim.Burst()) - b.tokensAfter
	if missing <= 0 {
		return b.lastUsed
	}
	return b.lastUsed.Add(time.Duration(missing / float64(b.lim.Limit()) * float64(time.Second)))
}

// Limiter keeps one token bucket per (scope, identifier)
type Limiter struct {
	mu       sync.Mutex
	buckets  map[bucketKey]*bucket
	quotas   map[Scope]Quota
	evict    time.Duration
	disabled bool
	now      func() time.Time
	stopChan chan struct{}
	stopOnce sync.Once
}

// New creates a limiter. Call Start to run the eviction loop.
func New(cfg Config) *Limiter {
	if cfg.General.Capacity == 0 {
		cfg.General = Quota{Capacity: 60, Per: time.Minute}
	}
	if cfg.SessionCreate.Capacity == 0 {
		cfg.SessionCreate = Quota{Capacity: 10, Per: time.Minute}
	}
	if cfg.GameCreate.Capacity == 0 {
		cfg.GameCreate = Quota{Capacity: 5, Per: time.Minute}
	}
	if cfg.Login.Capacity == 0 {
		cfg.Login = Quota{Capacity: 5, Per: 15 * time.Minute}
	}
	if cfg.EvictAfter == 0 {
		cfg.EvictAfter = 5 * time.Minute
	}
	if cfg.Now == nil {
		cfg.Now = time.Now
	}

	quotas := map[Scope]Quota{
		ScopeGeneral:       cfg.General,
		ScopeSessionCreate: cfg.SessionCreate,
		ScopeGameCreate:    cfg.GameCreate,
		ScopeLogin:         cfg.Login,
	}
	for scope, q := range quotas {
		if q.Per <= 0 {
			q.Per = time.Minute
			quotas[scope] = q
		}
	}

	return &Limiter{
		buckets:  make(map[bucketKey]*bucket),
		quotas:   quotas,
		evict:    cfg.EvictAfter,
		disabled: cfg.Disabled,
		now:      cfg.Now,
		stopChan: make(chan struct{}),
	}
}

// Allow consumes one token from the (scope, id) bucket. A denied request
// leaves the bucket untouched.
func (l *Limiter) Allow(scope Scope, id string) Decision {
	quota := l.quotas[scope]
	if l.disabled {
		return Decision{Scope: scope, Allowed: true, Limit: quota.Capacity, Remaining: quota.Capacity}
	}

	l.mu.Lock()
	defer l.mu.Unlock()

	now := l.now()
	key := bucketKey{scope: scope, id: id}
	b, ok := l.buckets[key]
	if !ok {
		b = &bucket{lim: rate.NewLimiter(quota.limit(), quota.Capacity)}
		l.buckets[key] = b
	}

	d := Decision{Scope: scope, Limit: quota.Capacity}
	if b.lim.AllowN(now, 1) {
		b.lastUsed = now
		b.tokensAfter = b.lim.TokensAt(now)
		d.Allowed = true
		d.Remaining = int(b.tokensAfter)
		return d
	}

	tokens := b.lim.TokensAt(now)
	d.Remaining = max(int(tokens), 0)
	d.RetryAfter = time.Duration((1 - tokens) / float64(b.lim.Limit()) * float64(time.Second))
	return d
}

// Peek reports whether Allow would succeed without spending a token
func (l *Limiter) Peek(scope Scope, id string) Decision {
	quota := l.quotas[scope]
	if l.disabled {
		return Decision{Scope: scope, Allowed: true, Limit: quota.Capacity, Remaining: quota.Capacity}
	}

	l.mu.Lock()
	defer l.mu.Unlock()

	d := Decision{Scope: scope, Limit: quota.Capacity}
	b, ok := l.buckets[bucketKey{scope: scope, id: id}]
	if !ok {
		d.Allowed = true
		d.Remaining = quota.Capacity
		return d
	}

	tokens := b.lim.TokensAt(l.now())
	if tokens >= 1 {
		d.Allowed = true
		d.Remaining = int(tokens)
		return d
	}
	d.Remaining = max(int(tokens), 0)
	d.RetryAfter = time.Duration((1 - tokens) / float64(b.lim.Limit()) * float64(time.Second))
	return d
}

// Reset drops the bucket for (scope, id), refilling it to capacity
func (l *Limiter) Reset(scope Scope, id string) {
	l.mu.Lock()
	defer l.mu.Unlock()
	delete(l.buckets, bucketKey{scope: scope, id: id})
}

// Check is one tier of a tiered check
type Check struct {
	Scope Scope
	ID    string
}

// CheckAll runs the tiers in order and stops at the first denial, so later
// tiers spend nothing. It returns the denying decision, or the first
// tier's decision when every tier allows.
func (l *Limiter) CheckAll(checks ...Check) Decision {
	var first Decision
	for i, c := range checks {
		d := l.Allow(c.Scope, c.ID)
		if !d.Allowed {
			return d
		}
		if i == 0 {
			first = d
		}
	}
	if len(checks) == 0 {
		first.Allowed = true
	}
	return first
}

// Start runs the eviction loop until Stop is called
func (l *Limiter) Start() {
	go l.evictLoop()
}

// Stop stops the eviction loop
func (l *Limiter) Stop() {
	l.stopOnce.Do(func() { close(l.stopChan) })
}

func (l *Limiter) evictLoop() {
	ticker := time.NewTicker(l.evict)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			l.Evict()
		case <-l.stopChan:
			return
		}
	}
}

// Evict drops buckets that have been full for longer than the eviction
// interval and returns how many were removed
func (l *Limiter) Evict() int {
	l.mu.Lock()
	defer l.mu.Unlock()

	cutoff := l.now().Add(-l.evict)
	removed := 0
	for key, b := range l.buckets {
		if b.fullAt().Before(cutoff) {
			delete(l.buckets, key)
			removed++
		}
	}
	return removed
}

// Len returns the number of live buckets
func (l *Limiter) Len() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return len(l.buckets)
}
