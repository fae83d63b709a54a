package repository

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/forgo/hangman/api/internal/database"
	"github.com/forgo/hangman/api/internal/model"
)

// TokenRepository handles refresh token data access
type TokenRepository struct {
	db database.Database
}

// NewTokenRepository creates a new token repository
func NewTokenRepository(db database.Database) *TokenRepository {
	return &TokenRepository{db: db}
}

// CreateRefreshToken stores a new refresh token
func (r *TokenRepository) CreateRefreshToken(ctx context.Context, token *model.RefreshToken) error {
	query := `
		CREATE refresh_token CONTENT {
			user_id: $user_id,
			token_hash: $token_hash,
			expires_at: $expires_at,
			created_at: $created_at,
			revoked: false
		}
	`
	vars := map[string]interface{}{
		"user_id":    token.UserID,
		"token_hash": token.TokenHash,
		"expires_at": surrealTime(token.ExpiresAt),
		"created_at": surrealTime(token.CreatedAt),
	}

	result, err := r.db.QueryOne(ctx, query, vars)
	if err != nil {
		if isUniqueConstraintError(err) {
			return fmt.Errorf("%w: refresh token", database.ErrDuplicate)
		}
		return fmt.Errorf("failed to create refresh token: %w", err)
	}
	created, err := parseRefreshTokenResult(result)
	if err != nil {
		return err
	}
	token.ID = created.ID
	return nil
}

// GetRefreshTokenByHash retrieves a refresh token by its hash
func (r *TokenRepository) GetRefreshTokenByHash(ctx context.Context, hash string) (*model.RefreshToken, error) {
	query := `SELECT * FROM refresh_token WHERE token_hash = $hash LIMIT 1`
	result, err := r.db.QueryOne(ctx, query, map[string]interface{}{"hash": hash})
	if err != nil {
		if errors.Is(err, database.ErrNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return parseRefreshTokenResult(result)
}

// RevokeRefreshToken revokes a live token. The revoked = false guard makes
// concurrent rotations of one token succeed at most once.
func (r *TokenRepository) RevokeRefreshToken(ctx context.Context, hash string) (bool, error) {
	query := `UPDATE refresh_token SET revoked = true WHERE token_hash = $hash AND revoked = false RETURN AFTER`
	result, err := r.db.Query(ctx, query, map[string]interface{}{"hash": hash})
	if err != nil {
		return false, fmt.Errorf("failed to revoke refresh token: %w", err)
	}
	return len(extractQueryResults(result)) > 0, nil
}

// RevokeAllUserTokens revokes all refresh tokens for a user
func (r *TokenRepository) RevokeAllUserTokens(ctx context.Context, userID string) error {
	query := `UPDATE refresh_token SET revoked = true WHERE user_id = $user_id AND revoked = false`
	return r.db.Execute(ctx, query, map[string]interface{}{"user_id": userID})
}

// DeleteExpiredTokens removes tokens that expired before now
func (r *TokenRepository) DeleteExpiredTokens(ctx context.Context, now time.Time) (int, error) {
	query := `DELETE refresh_token WHERE expires_at < $now RETURN BEFORE`
	result, err := r.db.Query(ctx, query, map[string]interface{}{"now": surrealTime(now)})
	if err != nil {
		return 0, fmt.Errorf("failed to delete expired tokens: %w", err)
	}
	return len(extractQueryResults(result)), nil
}

func parseRefreshTokenResult(result interface{}) (*model.RefreshToken, error) {
	data, err := unwrapRecord(result)
	if err != nil {
		return nil, err
	}

	return &model.RefreshToken{
		ID:        getID(data, "id"),
		UserID:    getString(data, "user_id"),
		TokenHash: getString(data, "token_hash"),
		ExpiresAt: getTimeValue(data, "expires_at"),
		CreatedAt: getTimeValue(data, "created_at"),
		Revoked:   getBool(data, "revoked"),
	}, nil
}
