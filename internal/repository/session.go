package repository

import (
	"context"
	"errors"
	"fmt"

	"github.com/forgo/hangman/api/internal/database"
	"github.com/forgo/hangman/api/internal/model"
)

const sessionTable = "session"

// SessionRepository handles session data access
type SessionRepository struct {
	db database.Database
}

// NewSessionRepository creates a new session repository
func NewSessionRepository(db database.Database) *SessionRepository {
	return &SessionRepository{db: db}
}

// Create creates a new session
func (r *SessionRepository) Create(ctx context.Context, session *model.Session) (*model.Session, error) {
	query := `
		CREATE session CONTENT {
			user_id: $user_id,
			num_games: $num_games,
			params: {
				dictionary_id: $dictionary_id,
				difficulty: $difficulty,
				language: $language,
				max_misses: $max_misses,
				allow_word_guess: $allow_word_guess,
				seed: $seed
			},
			games_created: $games_created,
			games_won: $games_won,
			games_lost: $games_lost,
			status: $status,
			created_at: $created_at,
			finished_at: $finished_at
		}
	`

	var seed interface{}
	if session.Params.Seed != nil {
		seed = *session.Params.Seed
	}
	vars := map[string]interface{}{
		"user_id":          session.UserID,
		"num_games":        session.NumGames,
		"dictionary_id":    session.Params.DictionaryID,
		"difficulty":       string(session.Params.Difficulty),
		"language":         session.Params.Language,
		"max_misses":       session.Params.MaxMisses,
		"allow_word_guess": session.Params.AllowWordGuess,
		"seed":             seed,
		"games_created":    session.GamesCreated,
		"games_won":        session.GamesWon,
		"games_lost":       session.GamesLost,
		"status":           string(session.Status),
		"created_at":       surrealTime(session.CreatedAt),
		"finished_at":      surrealTimePtr(session.FinishedAt),
	}

	result, err := r.db.QueryOne(ctx, query, vars)
	if err != nil {
		return nil, fmt.Errorf("failed to create session: %w", err)
	}
	return parseSessionResult(result)
}

// GetByID retrieves a session by ID
func (r *SessionRepository) GetByID(ctx context.Context, id string) (*model.Session, error) {
	if !inTable(id, sessionTable) {
		return nil, nil
	}
	result, err := r.db.QueryOne(ctx, `SELECT * FROM type::record($id)`, map[string]interface{}{"id": id})
	if err != nil {
		if errors.Is(err, database.ErrNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return parseSessionResult(result)
}

// Update applies patch and returns the stored session
func (r *SessionRepository) Update(ctx context.Context, id string, patch model.SessionPatch) (*model.Session, error) {
	if !inTable(id, sessionTable) {
		return nil, database.ErrNotFound
	}

	vars := map[string]interface{}{"id": id}
	var fields []string
	if patch.Status != nil {
		fields = append(fields, "status")
		vars["status"] = string(*patch.Status)
	}
	if patch.FinishedAt != nil {
		fields = append(fields, "finished_at")
		vars["finished_at"] = surrealTime(*patch.FinishedAt)
	}
	if patch.GamesCreated != nil {
		fields = append(fields, "games_created")
		vars["games_created"] = *patch.GamesCreated
	}
	if patch.GamesWon != nil {
		fields = append(fields, "games_won")
		vars["games_won"] = *patch.GamesWon
	}
	if patch.GamesLost != nil {
		fields = append(fields, "games_lost")
		vars["games_lost"] = *patch.GamesLost
	}
	if len(fields) == 0 {
		session, err := r.GetByID(ctx, id)
		if err == nil && session == nil {
			err = database.ErrNotFound
		}
		return session, err
	}

	query := `UPDATE type::record($id) SET ` + setClause(fields) + ` RETURN AFTER`
	result, err := r.db.QueryOne(ctx, query, vars)
	if err != nil {
		return nil, fmt.Errorf("failed to update session: %w", err)
	}
	return parseSessionResult(result)
}

func (r *SessionRepository) list(ctx context.Context, query string, vars map[string]interface{}) ([]*model.Session, error) {
	result, err := r.db.Query(ctx, query, vars)
	if err != nil {
		return nil, err
	}
	rows := extractQueryResults(result)
	sessions := make([]*model.Session, 0, len(rows))
	for _, row := range rows {
		s, err := parseSessionResult(row)
		if err != nil {
			return nil, err
		}
		sessions = append(sessions, s)
	}
	return sessions, nil
}

// ListByUser returns a user's sessions in creation order
func (r *SessionRepository) ListByUser(ctx context.Context, userID string) ([]*model.Session, error) {
	return r.list(ctx, `SELECT * FROM session WHERE user_id = $user_id ORDER BY created_at ASC`,
		map[string]interface{}{"user_id": userID})
}

// ListActive returns every ACTIVE session
func (r *SessionRepository) ListActive(ctx context.Context) ([]*model.Session, error) {
	return r.list(ctx, `SELECT * FROM session WHERE status = $status ORDER BY created_at ASC`,
		map[string]interface{}{"status": string(model.SessionStatusActive)})
}

// CountActiveByUser counts a user's ACTIVE sessions
func (r *SessionRepository) CountActiveByUser(ctx context.Context, userID string) (int, error) {
	query := `SELECT count() FROM session WHERE user_id = $user_id AND status = $status GROUP ALL`
	return countQuery(ctx, r.db, query, map[string]interface{}{
		"user_id": userID,
		"status":  string(model.SessionStatusActive),
	})
}

// Count returns the number of stored sessions
func (r *SessionRepository) Count(ctx context.Context) (int, error) {
	return countQuery(ctx, r.db, `SELECT count() FROM session GROUP ALL`, nil)
}

// countQuery runs a GROUP ALL count; an empty result counts as zero
func countQuery(ctx context.Context, db database.Database, query string, vars map[string]interface{}) (int, error) {
	result, err := db.QueryOne(ctx, query, vars)
	if err != nil {
		if errors.Is(err, database.ErrNotFound) {
			return 0, nil
		}
		return 0, err
	}
	return extractCount(result), nil
}

func parseSessionResult(result interface{}) (*model.Session, error) {
	data, err := unwrapRecord(result)
	if err != nil {
		return nil, err
	}

	params := getMap(data, "params")
	return &model.Session{
		ID:       getID(data, "id"),
		UserID:   getString(data, "user_id"),
		NumGames: getInt(data, "num_games"),
		Params: model.SessionParams{
			DictionaryID:   getString(params, "dictionary_id"),
			Difficulty:     model.Difficulty(getString(params, "difficulty")),
			Language:       getString(params, "language"),
			MaxMisses:      getInt(params, "max_misses"),
			AllowWordGuess: getBool(params, "allow_word_guess"),
			Seed:           getInt64Ptr(params, "seed"),
		},
		GamesCreated: getInt(data, "games_created"),
		GamesWon:     getInt(data, "games_won"),
		GamesLost:    getInt(data, "games_lost"),
		Status:       model.SessionStatus(getString(data, "status")),
		CreatedAt:    getTimeValue(data, "created_at"),
		FinishedAt:   getTime(data, "finished_at"),
	}, nil
}
