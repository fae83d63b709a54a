package memory

import (
	"context"
	"sync"

	"github.com/google/uuid"

	"github.com/forgo/hangman/api/internal/model"
)

// SessionRepository keeps sessions in process memory
type SessionRepository struct {
	mu       sync.RWMutex
	sessions map[string]*model.Session
	order    []string
}

// NewSessionRepository creates an empty session repository
func NewSessionRepository() *SessionRepository {
	return &SessionRepository{sessions: make(map[string]*model.Session)}
}

func cloneSession(s *model.Session) *model.Session {
	c := *s
	if s.FinishedAt != nil {
		t := *s.FinishedAt
		c.FinishedAt = &t
	}
	if s.Params.Seed != nil {
		seed := *s.Params.Seed
		c.Params.Seed = &seed
	}
	return &c
}

// Create stores a new session and assigns its ID
func (r *SessionRepository) Create(_ context.Context, session *model.Session) (*model.Session, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	stored := cloneSession(session)
	if stored.ID == "" {
		stored.ID = uuid.NewString()
	}
	r.sessions[stored.ID] = stored
	r.order = append(r.order, stored.ID)
	return cloneSession(stored), nil
}

// GetByID retrieves a session by ID
func (r *SessionRepository) GetByID(_ context.Context, id string) (*model.Session, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	s, ok := r.sessions[id]
	if !ok {
		return nil, nil
	}
	return cloneSession(s), nil
}

// Update applies patch and returns the new state
func (r *SessionRepository) Update(_ context.Context, id string, patch model.SessionPatch) (*model.Session, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	s, ok := r.sessions[id]
	if !ok {
		return nil, ErrNotFound
	}
	patch.Apply(s)
	return cloneSession(s), nil
}

func (r *SessionRepository) list(keep func(*model.Session) bool) []*model.Session {
	r.mu.RLock()
	defer r.mu.RUnlock()

	out := make([]*model.Session, 0)
	for _, id := range r.order {
		if s := r.sessions[id]; keep(s) {
			out = append(out, cloneSession(s))
		}
	}
	return out
}

// ListByUser returns a user's sessions in creation order
func (r *SessionRepository) ListByUser(_ context.Context, userID string) ([]*model.Session, error) {
	return r.list(func(s *model.Session) bool { return s.UserID == userID }), nil
}

// ListActive returns every ACTIVE session
func (r *SessionRepository) ListActive(_ context.Context) ([]*model.Session, error) {
	return r.list(func(s *model.Session) bool { return s.Status == model.SessionStatusActive }), nil
}

// CountActiveByUser counts a user's ACTIVE sessions
func (r *SessionRepository) CountActiveByUser(_ context.Context, userID string) (int, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	n := 0
	for _, s := range r.sessions {
		if s.UserID == userID && s.Status == model.SessionStatusActive {
			n++
		}
	}
	return n, nil
}

// Count returns the number of stored sessions
func (r *SessionRepository) Count(_ context.Context) (int, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.sessions), nil
}
