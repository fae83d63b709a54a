package repository

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/forgo/hangman/api/internal/database"
	"github.com/forgo/hangman/api/internal/model"
)

const gameTable = "game"

// GameRepository handles game and guess data access
type GameRepository struct {
	db database.Database
}

// NewGameRepository creates a new game repository
func NewGameRepository(db database.Database) *GameRepository {
	return &GameRepository{db: db}
}

// Create creates a new game
func (r *GameRepository) Create(ctx context.Context, game *model.Game) (*model.Game, error) {
	query := `
		CREATE game CONTENT {
			session_id: $session_id,
			user_id: $user_id,
			game_index: $game_index,
			secret: $secret,
			language: $language,
			pattern: $pattern,
			guessed_letters: $guessed_letters,
			wrong_letters: $wrong_letters,
			max_misses: $max_misses,
			remaining_misses: $remaining_misses,
			total_guesses: $total_guesses,
			wrong_word_guesses: $wrong_word_guesses,
			status: $status,
			created_at: $created_at,
			finished_at: $finished_at,
			time_seconds: $time_seconds,
			score: $score
		}
	`

	vars := map[string]interface{}{
		"session_id":         game.SessionID,
		"user_id":            game.UserID,
		"game_index":         game.Index,
		"secret":             game.Secret,
		"language":           game.Language,
		"pattern":            game.Pattern,
		"guessed_letters":    nonNil(game.GuessedLetters),
		"wrong_letters":      nonNil(game.WrongLetters),
		"max_misses":         game.MaxMisses,
		"remaining_misses":   game.RemainingMisses,
		"total_guesses":      game.TotalGuesses,
		"wrong_word_guesses": game.WrongWordGuesses,
		"status":             string(game.Status),
		"created_at":         surrealTime(game.CreatedAt),
		"finished_at":        surrealTimePtr(game.FinishedAt),
		"time_seconds":       game.TimeSeconds,
		"score":              game.Score,
	}

	result, err := r.db.QueryOne(ctx, query, vars)
	if err != nil {
		if isUniqueConstraintError(err) {
			return nil, fmt.Errorf("%w: game %d of session %s", database.ErrDuplicate, game.Index, game.SessionID)
		}
		return nil, fmt.Errorf("failed to create game: %w", err)
	}
	return parseGameResult(result)
}

// GetByID retrieves a game by ID
func (r *GameRepository) GetByID(ctx context.Context, id string) (*model.Game, error) {
	if !inTable(id, gameTable) {
		return nil, nil
	}
	result, err := r.db.QueryOne(ctx, `SELECT * FROM type::record($id)`, map[string]interface{}{"id": id})
	if err != nil {
		if errors.Is(err, database.ErrNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return parseGameResult(result)
}

// Update applies patch and returns the stored game. The secret, owner and
// creation time are never written here.
func (r *GameRepository) Update(ctx context.Context, id string, patch model.GamePatch) (*model.Game, error) {
	if !inTable(id, gameTable) {
		return nil, database.ErrNotFound
	}

	vars := map[string]interface{}{"id": id}
	var fields []string
	set := func(field string, value interface{}) {
		fields = append(fields, field)
		vars[field] = value
	}
	if patch.Pattern != nil {
		set("pattern", *patch.Pattern)
	}
	if patch.GuessedLetters != nil {
		set("guessed_letters", patch.GuessedLetters)
	}
	if patch.WrongLetters != nil {
		set("wrong_letters", patch.WrongLetters)
	}
	if patch.RemainingMisses != nil {
		set("remaining_misses", *patch.RemainingMisses)
	}
	if patch.TotalGuesses != nil {
		set("total_guesses", *patch.TotalGuesses)
	}
	if patch.WrongWordGuesses != nil {
		set("wrong_word_guesses", *patch.WrongWordGuesses)
	}
	if patch.Status != nil {
		set("status", string(*patch.Status))
	}
	if patch.FinishedAt != nil {
		set("finished_at", surrealTime(*patch.FinishedAt))
	}
	if patch.TimeSeconds != nil {
		set("time_seconds", *patch.TimeSeconds)
	}
	if patch.Score != nil {
		set("score", *patch.Score)
	}
	if len(fields) == 0 {
		game, err := r.GetByID(ctx, id)
		if err == nil && game == nil {
			err = database.ErrNotFound
		}
		return game, err
	}

	query := `UPDATE type::record($id) SET ` + setClause(fields) + ` RETURN AFTER`
	result, err := r.db.QueryOne(ctx, query, vars)
	if err != nil {
		return nil, fmt.Errorf("failed to update game: %w", err)
	}
	return parseGameResult(result)
}

// ListBySession returns a session's games in creation order
func (r *GameRepository) ListBySession(ctx context.Context, sessionID string) ([]*model.Game, error) {
	query := `SELECT * FROM game WHERE session_id = $session_id ORDER BY game_index ASC`
	result, err := r.db.Query(ctx, query, map[string]interface{}{"session_id": sessionID})
	if err != nil {
		return nil, err
	}

	rows := extractQueryResults(result)
	games := make([]*model.Game, 0, len(rows))
	for _, row := range rows {
		g, err := parseGameResult(row)
		if err != nil {
			return nil, err
		}
		games = append(games, g)
	}
	return games, nil
}

// ListFinishedSince returns terminal games finished at or after since
func (r *GameRepository) ListFinishedSince(ctx context.Context, since time.Time) ([]*model.Game, error) {
	query := `
		SELECT * FROM game
		WHERE status != $in_progress AND finished_at != NONE AND finished_at >= $since
		ORDER BY finished_at ASC
	`
	vars := map[string]interface{}{
		"in_progress": string(model.GameStatusInProgress),
		"since":       surrealTime(since),
	}
	result, err := r.db.Query(ctx, query, vars)
	if err != nil {
		return nil, fmt.Errorf("failed to list finished games: %w", err)
	}

	rows := extractQueryResults(result)
	games := make([]*model.Game, 0, len(rows))
	for _, row := range rows {
		g, err := parseGameResult(row)
		if err != nil {
			return nil, err
		}
		games = append(games, g)
	}
	return games, nil
}

// Count returns the number of stored games
func (r *GameRepository) Count(ctx context.Context) (int, error) {
	return countQuery(ctx, r.db, `SELECT count() FROM game GROUP ALL`, nil)
}

// AppendGuess records one guess. The (game, seq) index rejects a second
// guess with the same sequence number.
func (r *GameRepository) AppendGuess(ctx context.Context, guess *model.Guess) error {
	query := `
		CREATE guess CONTENT {
			game_id: $game_id,
			seq: $seq,
			kind: $kind,
			value: $value,
			correct: $correct,
			pattern_after: $pattern_after,
			timestamp: $timestamp
		}
	`
	vars := map[string]interface{}{
		"game_id":       guess.GameID,
		"seq":           guess.Index,
		"kind":          string(guess.Kind),
		"value":         guess.Value,
		"correct":       guess.Correct,
		"pattern_after": guess.PatternAfter,
		"timestamp":     surrealTime(guess.Timestamp),
	}

	if err := r.db.Execute(ctx, query, vars); err != nil {
		if isUniqueConstraintError(err) {
			return fmt.Errorf("%w: guess %d already recorded", database.ErrDuplicate, guess.Index)
		}
		return fmt.Errorf("failed to record guess: %w", err)
	}
	return nil
}

// ListGuesses returns a game's guesses, oldest first
func (r *GameRepository) ListGuesses(ctx context.Context, gameID string) ([]*model.Guess, error) {
	query := `SELECT * FROM guess WHERE game_id = $game_id ORDER BY seq ASC`
	result, err := r.db.Query(ctx, query, map[string]interface{}{"game_id": gameID})
	if err != nil {
		return nil, err
	}

	rows := extractQueryResults(result)
	guesses := make([]*model.Guess, 0, len(rows))
	for _, row := range rows {
		guesses = append(guesses, parseGuessRow(row))
	}
	return guesses, nil
}

func parseGameResult(result interface{}) (*model.Game, error) {
	data, err := unwrapRecord(result)
	if err != nil {
		return nil, err
	}

	return &model.Game{
		ID:               getID(data, "id"),
		SessionID:        getString(data, "session_id"),
		UserID:           getString(data, "user_id"),
		Index:            getInt(data, "game_index"),
		Secret:           getString(data, "secret"),
		Language:         getString(data, "language"),
		Pattern:          getString(data, "pattern"),
		GuessedLetters:   getStringSlice(data, "guessed_letters"),
		WrongLetters:     getStringSlice(data, "wrong_letters"),
		MaxMisses:        getInt(data, "max_misses"),
		RemainingMisses:  getInt(data, "remaining_misses"),
		TotalGuesses:     getInt(data, "total_guesses"),
		WrongWordGuesses: getInt(data, "wrong_word_guesses"),
		Status:           model.GameStatus(getString(data, "status")),
		CreatedAt:        getTimeValue(data, "created_at"),
		FinishedAt:       getTime(data, "finished_at"),
		TimeSeconds:      getFloat(data, "time_seconds"),
		Score:            getFloat(data, "score"),
	}, nil
}

func parseGuessRow(data map[string]interface{}) *model.Guess {
	return &model.Guess{
		GameID:       getString(data, "game_id"),
		Index:        getInt(data, "seq"),
		Kind:         model.GuessKind(getString(data, "kind")),
		Value:        getString(data, "value"),
		Correct:      getBool(data, "correct"),
		PatternAfter: getString(data, "pattern_after"),
		Timestamp:    getTimeValue(data, "timestamp"),
	}
}

func nonNil(s []string) []string {
	if s == nil {
		return []string{}
	}
	return s
}
