package memory

import (
	"context"
	"errors"
	"sync"

	"github.com/google/uuid"

	"github.com/forgo/hangman/api/internal/model"
)

var (
	// ErrNotFound is returned by updates of records that do not exist
	ErrNotFound = errors.New("record not found")
	// ErrDuplicate is returned when a unique field is already taken
	ErrDuplicate = errors.New("duplicate record")
)

// UserRepository keeps users in process memory
type UserRepository struct {
	mu         sync.RWMutex
	users      map[string]*model.User
	byUsername map[string]string
}

// NewUserRepository creates an empty user repository
func NewUserRepository() *UserRepository {
	return &UserRepository{
		users:      make(map[string]*model.User),
		byUsername: make(map[string]string),
	}
}

// Create stores a new user and assigns its ID
func (r *UserRepository) Create(_ context.Context, user *model.User) (*model.User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, taken := r.byUsername[user.Username]; taken {
		return nil, ErrDuplicate
	}
	stored := *user
	if stored.ID == "" {
		stored.ID = uuid.NewString()
	}
	r.users[stored.ID] = &stored
	r.byUsername[stored.Username] = stored.ID
	out := stored
	return &out, nil
}

// GetByID retrieves a user by ID
func (r *UserRepository) GetByID(_ context.Context, id string) (*model.User, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	u, ok := r.users[id]
	if !ok {
		return nil, nil
	}
	out := *u
	return &out, nil
}

// GetByUsername retrieves a user by username
func (r *UserRepository) GetByUsername(ctx context.Context, username string) (*model.User, error) {
	r.mu.RLock()
	id, ok := r.byUsername[username]
	r.mu.RUnlock()
	if !ok {
		return nil, nil
	}
	return r.GetByID(ctx, id)
}

// Count returns the number of registered users
func (r *UserRepository) Count(_ context.Context) (int, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.users), nil
}
