package memory

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/forgo/hangman/api/internal/model"
)

// TokenRepository keeps refresh tokens in process memory, keyed by hash
type TokenRepository struct {
	mu     sync.Mutex
	tokens map[string]*model.RefreshToken
}

// NewTokenRepository creates an empty token repository
func NewTokenRepository() *TokenRepository {
	return &TokenRepository{tokens: make(map[string]*model.RefreshToken)}
}

// CreateRefreshToken stores token and assigns its ID
func (r *TokenRepository) CreateRefreshToken(_ context.Context, token *model.RefreshToken) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, taken := r.tokens[token.TokenHash]; taken {
		return ErrDuplicate
	}
	if token.ID == "" {
		token.ID = uuid.NewString()
	}
	stored := *token
	r.tokens[token.TokenHash] = &stored
	return nil
}

// GetRefreshTokenByHash retrieves a token by its hash
func (r *TokenRepository) GetRefreshTokenByHash(_ context.Context, hash string) (*model.RefreshToken, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	t, ok := r.tokens[hash]
	if !ok {
		return nil, nil
	}
	out := *t
	return &out, nil
}

// RevokeRefreshToken revokes a live token. It reports false when the
// token is unknown or was already revoked.
func (r *TokenRepository) RevokeRefreshToken(_ context.Context, hash string) (bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	t, ok := r.tokens[hash]
	if !ok || t.Revoked {
		return false, nil
	}
	t.Revoked = true
	return true, nil
}

// RevokeAllUserTokens revokes every token of a user
func (r *TokenRepository) RevokeAllUserTokens(_ context.Context, userID string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	for _, t := range r.tokens {
		if t.UserID == userID {
			t.Revoked = true
		}
	}
	return nil
}

// DeleteExpiredTokens removes tokens that expired before now
func (r *TokenRepository) DeleteExpiredTokens(_ context.Context, now time.Time) (int, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	removed := 0
	for hash, t := range r.tokens {
		if t.ExpiresAt.Before(now) {
			delete(r.tokens, hash)
			removed++
		}
	}
	return removed, nil
}
