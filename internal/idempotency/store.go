package idempotency

import (
	"context"
	"crypto/sha256"
	"encoding/binary"
	"encoding/hex"
	"sync"
	"time"
)

// Entry is a stored response
type Entry struct {
	StatusCode  int       `json:"status_code"`
	ContentType string    `json:"content_type,omitempty"`
	Body        []byte    `json:"body"`
	CreatedAt   time.Time `json:"created_at"`
}

// Successful reports whether the entry holds a 2xx response
func (e *Entry) Successful() bool {
	return e.StatusCode >= 200 && e.StatusCode < 300
}

// Store persists entries for a bounded time. Get returns (nil, nil) when
// the key is absent or expired.
type Store interface {
	Get(ctx context.Context, key string) (*Entry, error)
	Put(ctx context.Context, key string, entry *Entry, ttl time.Duration) error
	// Purge removes expired entries and returns how many were removed
	Purge(ctx context.Context) (int, error)
}

// Key derives the composite cache key. The body enters as its own hash so
// two payloads under the same client key never collide.
func Key(userID, operation, clientKey string, body []byte) string {
	bodySum := sha256.Sum256(body)

	h := sha256.New()
	for _, part := range []string{userID, operation, clientKey} {
		var n [4]byte
		binary.BigEndian.PutUint32(n[:], uint32(len(part)))
		h.Write(n[:])
		h.Write([]byte(part))
	}
	h.Write(bodySum[:])
	return hex.EncodeToString(h.Sum(nil))
}

// ===== Memory Store =====

type memoryEntry struct {
	entry     *Entry
	expiresAt time.Time
}

// MemoryStore keeps entries in process memory
type MemoryStore struct {
	mu      sync.RWMutex
	entries map[string]memoryEntry
	now     func() time.Time
}

// NewMemoryStore creates an empty memory store. now may be nil.
func NewMemoryStore(now func() time.Time) *MemoryStore {
	if now == nil {
		now = time.Now
	}
	return &MemoryStore{
		entries: make(map[string]memoryEntry),
		now:     now,
	}
}

// Get returns the live entry for key. Expired entries are dropped on read.
func (s *MemoryStore) Get(_ context.Context, key string) (*Entry, error) {
	s.mu.RLock()
	e, ok := s.entries[key]
	s.mu.RUnlock()
	if !ok {
		return nil, nil
	}
	if !s.now().Before(e.expiresAt) {
		s.mu.Lock()
		if cur, ok := s.entries[key]; ok && cur.expiresAt.Equal(e.expiresAt) {
			delete(s.entries, key)
		}
		s.mu.Unlock()
		return nil, nil
	}
	return e.entry, nil
}

// Put stores entry under key for ttl
func (s *MemoryStore) Put(_ context.Context, key string, entry *Entry, ttl time.Duration) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.entries[key] = memoryEntry{entry: entry, expiresAt: s.now().Add(ttl)}
	return nil
}

// Purge removes every expired entry
func (s *MemoryStore) Purge(_ context.Context) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	now := s.now()
	removed := 0
	for key, e := range s.entries {
		if !now.Before(e.expiresAt) {
			delete(s.entries, key)
			removed++
		}
	}
	return removed, nil
}

// Len returns the number of stored entries, expired or not
func (s *MemoryStore) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.entries)
}
