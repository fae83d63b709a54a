package service

import (
	"context"
	"time"

	"github.com/forgo/hangman/api/internal/model"
)

// Repository contracts consumed by the services. GetBy* methods return
// (nil, nil) when the record does not exist. Update methods return the
// stored state after the patch has been applied.

// UserRepository defines the interface for user storage
type UserRepository interface {
	Create(ctx context.Context, user *model.User) (*model.User, error)
	GetByID(ctx context.Context, id string) (*model.User, error)
	GetByUsername(ctx context.Context, username string) (*model.User, error)
	Count(ctx context.Context) (int, error)
}

// TokenRepository defines the interface for refresh token storage.
// Tokens are looked up by the SHA-256 hash of their value.
type TokenRepository interface {
	CreateRefreshToken(ctx context.Context, token *model.RefreshToken) error
	GetRefreshTokenByHash(ctx context.Context, hash string) (*model.RefreshToken, error)
	// RevokeRefreshToken revokes a live token and reports whether this
	// call was the one that revoked it
	RevokeRefreshToken(ctx context.Context, hash string) (bool, error)
	RevokeAllUserTokens(ctx context.Context, userID string) error
	// DeleteExpiredTokens removes tokens that expired before now
	DeleteExpiredTokens(ctx context.Context, now time.Time) (int, error)
}

// SessionRepository defines the interface for session storage
type SessionRepository interface {
	Create(ctx context.Context, session *model.Session) (*model.Session, error)
	GetByID(ctx context.Context, id string) (*model.Session, error)
	Update(ctx context.Context, id string, patch model.SessionPatch) (*model.Session, error)
	ListByUser(ctx context.Context, userID string) ([]*model.Session, error)
	ListActive(ctx context.Context) ([]*model.Session, error)
	CountActiveByUser(ctx context.Context, userID string) (int, error)
	Count(ctx context.Context) (int, error)
}

// GameRepository defines the interface for game and guess storage
type GameRepository interface {
	Create(ctx context.Context, game *model.Game) (*model.Game, error)
	GetByID(ctx context.Context, id string) (*model.Game, error)
	Update(ctx context.Context, id string, patch model.GamePatch) (*model.Game, error)
	// ListBySession returns games in creation order
	ListBySession(ctx context.Context, sessionID string) ([]*model.Game, error)
	// ListFinishedSince returns terminal games finished at or after since,
	// oldest first
	ListFinishedSince(ctx context.Context, since time.Time) ([]*model.Game, error)
	Count(ctx context.Context) (int, error)
	// Guesses
	AppendGuess(ctx context.Context, guess *model.Guess) error
	ListGuesses(ctx context.Context, gameID string) ([]*model.Guess, error)
}

// DictionaryRepository defines the interface for dictionary storage
type DictionaryRepository interface {
	Save(ctx context.Context, dict *model.Dictionary) (*model.Dictionary, error)
	GetByID(ctx context.Context, id string) (*model.Dictionary, error)
	List(ctx context.Context) ([]*model.Dictionary, error)
	Count(ctx context.Context) (int, error)
}
