package service

import (
	"context"
	"fmt"
	"log/slog"
	"math/rand/v2"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/samber/lo"

	"github.com/forgo/hangman/api/internal/model"
)

// wrongWordPenalty is how many misses a wrong word guess costs
const wrongWordPenalty = 2

// GameService runs games inside sessions and processes guesses
type GameService struct {
	sessions          SessionRepository
	games             GameRepository
	dictionaries      DictionaryRepository
	notifier          Notifier
	locks             *EntityLocks
	ledger            *sessionLedger
	defaultDictionary string
	now               func() time.Time
	logger            *slog.Logger
}

// GameServiceConfig holds configuration for the game service
type GameServiceConfig struct {
	SessionRepo         SessionRepository
	GameRepo            GameRepository
	DictionaryRepo      DictionaryRepository
	Notifier            Notifier
	Locks               *EntityLocks
	DefaultDictionaryID string
	Now                 func() time.Time
	Logger              *slog.Logger
}

// NewGameService creates a new game service
func NewGameService(cfg GameServiceConfig) *GameService {
	s := &GameService{
		sessions:          cfg.SessionRepo,
		games:             cfg.GameRepo,
		dictionaries:      cfg.DictionaryRepo,
		notifier:          cfg.Notifier,
		locks:             cfg.Locks,
		defaultDictionary: cfg.DefaultDictionaryID,
		now:               cfg.Now,
		logger:            cfg.Logger,
	}
	if s.notifier == nil {
		s.notifier = nopNotifier{}
	}
	if s.locks == nil {
		s.locks = NewEntityLocks()
	}
	if s.defaultDictionary == "" {
		s.defaultDictionary = model.DefaultDictionaryID
	}
	if s.now == nil {
		s.now = time.Now
	}
	if s.logger == nil {
		s.logger = slog.Default()
	}
	s.ledger = &sessionLedger{
		sessions: s.sessions,
		games:    s.games,
		notifier: s.notifier,
		locks:    s.locks,
		now:      s.now,
	}
	return s
}

// Create starts the next game of a session. The secret is drawn from the
// session's dictionary and never repeats within the session.
func (s *GameService) Create(ctx context.Context, sessionID, callerID string) (*model.Game, error) {
	unlock := s.locks.Session(sessionID)
	defer unlock()

	session, err := s.ownedSession(ctx, sessionID, callerID)
	if err != nil {
		return nil, err
	}
	if session.Status != model.SessionStatusActive {
		return nil, ErrSessionAlreadyFinished
	}

	games, err := s.games.ListBySession(ctx, sessionID)
	if err != nil {
		return nil, fmt.Errorf("failed to list session games: %w", err)
	}
	if len(games) >= session.NumGames {
		return nil, ErrGameLimitReached
	}

	dict, err := s.dictionaryFor(ctx, session.Params.DictionaryID)
	if err != nil {
		return nil, err
	}

	used := lo.Map(games, func(g *model.Game, _ int) string { return g.Secret })
	available := lo.Without(dict.Words, used...)
	if len(available) == 0 {
		return nil, ErrNoWordsAvailable
	}
	secret := pickWord(wordsForDifficulty(available, session.Params.Difficulty), session.Params.Seed, len(games))

	language := dict.Language
	if language == "" {
		language = session.Params.Language
	}

	game := &model.Game{
		SessionID:       session.ID,
		UserID:          session.UserID,
		Index:           len(games) + 1,
		Secret:          secret,
		Language:        language,
		Pattern:         strings.Repeat(string(model.PatternPlaceholder), utf8.RuneCountInString(secret)),
		GuessedLetters:  []string{},
		WrongLetters:    []string{},
		MaxMisses:       session.Params.MaxMisses,
		RemainingMisses: session.Params.MaxMisses,
		Status:          model.GameStatusInProgress,
		CreatedAt:       s.now().UTC(),
	}
	created, err := s.games.Create(ctx, game)
	if err != nil {
		return nil, fmt.Errorf("failed to create game: %w", err)
	}

	count := len(games) + 1
	if _, err := s.sessions.Update(ctx, sessionID, model.SessionPatch{GamesCreated: &count}); err != nil {
		return nil, fmt.Errorf("failed to update session counter: %w", err)
	}

	return created.Redacted(), nil
}

// pickWord draws one word. A seeded session draws from a source derived
// from the seed and the game index so replays pick the same words.
func pickWord(words []string, seed *int64, index int) string {
	if seed != nil {
		r := rand.New(rand.NewPCG(uint64(*seed), uint64(index)))
		return words[r.IntN(len(words))]
	}
	return words[rand.IntN(len(words))]
}

func (s *GameService) dictionaryFor(ctx context.Context, id string) (*model.Dictionary, error) {
	dict, err := s.dictionaries.GetByID(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("failed to get dictionary: %w", err)
	}
	if dict == nil && id != s.defaultDictionary {
		dict, err = s.dictionaries.GetByID(ctx, s.defaultDictionary)
		if err != nil {
			return nil, fmt.Errorf("failed to get default dictionary: %w", err)
		}
	}
	if dict == nil {
		return nil, ErrDictionaryNotFound
	}
	return dict, nil
}

// GuessLetter applies a single-letter guess
func (s *GameService) GuessLetter(ctx context.Context, gameID, letter, callerID string) (*model.GuessResult, error) {
	return s.applyGuess(ctx, gameID, callerID, func(g *model.Game, _ *model.Session) (*model.Guess, error) {
		folded, ok := normalizeLetter(letter, g.Language)
		if !ok {
			return nil, ErrInvalidLetter
		}
		if lo.Contains(g.GuessedLetters, folded) {
			return nil, ErrLetterAlreadyGuessed
		}

		pattern, correct := revealLetter(g.Secret, g.Pattern, folded, g.Language)
		g.GuessedLetters = append(g.GuessedLetters, folded)
		g.Pattern = pattern
		g.TotalGuesses++
		if !correct {
			g.WrongLetters = append(g.WrongLetters, folded)
			g.RemainingMisses--
		}

		switch {
		case g.Revealed():
			g.Status = model.GameStatusWon
		case g.RemainingMisses <= 0:
			g.RemainingMisses = 0
			g.Status = model.GameStatusLost
		}

		return &model.Guess{Kind: model.GuessKindLetter, Value: folded, Correct: correct}, nil
	})
}

// GuessWord applies a whole-word guess. A wrong word costs two misses.
func (s *GameService) GuessWord(ctx context.Context, gameID, word, callerID string) (*model.GuessResult, error) {
	return s.applyGuess(ctx, gameID, callerID, func(g *model.Game, session *model.Session) (*model.Guess, error) {
		if !session.Params.AllowWordGuess {
			return nil, ErrWordGuessNotAllowed
		}
		word = strings.TrimSpace(word)
		if word == "" {
			return nil, ErrEmptyWord
		}

		g.TotalGuesses++
		correct := sameWord(word, g.Secret, g.Language)
		if correct {
			g.Pattern = g.Secret
			g.Status = model.GameStatusWon
		} else {
			g.WrongWordGuesses++
			g.RemainingMisses = max(g.RemainingMisses-wrongWordPenalty, 0)
			if g.RemainingMisses == 0 {
				g.Status = model.GameStatusLost
			}
		}

		return &model.Guess{Kind: model.GuessKindWord, Value: Normalize(word, g.Language), Correct: correct}, nil
	})
}

type guessStep func(g *model.Game, session *model.Session) (*model.Guess, error)

// applyGuess runs step against a copy of the game under the game lock,
// persists the new state and the guess record, and settles the session
// once the lock is released.
func (s *GameService) applyGuess(ctx context.Context, gameID, callerID string, step guessStep) (*model.GuessResult, error) {
	unlock := s.locks.Game(gameID)
	game, guess, err := s.applyGuessLocked(ctx, gameID, callerID, step)
	unlock()
	if err != nil {
		return nil, err
	}

	if game.Status.IsTerminal() {
		s.completed(ctx, game)
	}
	return &model.GuessResult{Game: game.Redacted(), Guess: guess}, nil
}

func (s *GameService) applyGuessLocked(ctx context.Context, gameID, callerID string, step guessStep) (*model.Game, *model.Guess, error) {
	game, err := s.ownedGame(ctx, gameID, callerID)
	if err != nil {
		return nil, nil, err
	}
	if game.Status != model.GameStatusInProgress {
		return nil, nil, ErrGameAlreadyFinished
	}

	session, err := s.sessions.GetByID(ctx, game.SessionID)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to get session: %w", err)
	}
	if session == nil {
		return nil, nil, ErrSessionNotFound
	}

	next := game.Clone()
	guess, err := step(next, session)
	if err != nil {
		return nil, nil, err
	}

	now := s.now().UTC()
	if next.Status.IsTerminal() {
		finishGame(next, now)
	}

	updated, err := s.games.Update(ctx, gameID, model.PatchFrom(next))
	if err != nil {
		return nil, nil, fmt.Errorf("failed to update game: %w", err)
	}

	guess.GameID = gameID
	guess.Index = next.TotalGuesses
	guess.PatternAfter = next.Pattern
	guess.Timestamp = now
	if err := s.games.AppendGuess(ctx, guess); err != nil {
		return nil, nil, fmt.Errorf("failed to record guess: %w", err)
	}
	return updated, guess, nil
}

// finishGame stamps the finish time and freezes the score of a game that
// has just become terminal. Aborted games keep a zero score.
func finishGame(g *model.Game, at time.Time) {
	g.FinishedAt = &at
	g.TimeSeconds = at.Sub(g.CreatedAt).Seconds()
	if g.Status == model.GameStatusAborted {
		return
	}
	g.Score = Score(ScoreInput{
		Won:              g.Status == model.GameStatusWon,
		TotalGuesses:     g.TotalGuesses,
		WrongLetters:     len(g.WrongLetters),
		WrongWordGuesses: g.WrongWordGuesses,
		ElapsedSeconds:   g.TimeSeconds,
		WordLength:       utf8.RuneCountInString(g.Secret),
	})
}

// completed publishes the game event and settles the owning session. The
// game is already stored, so a settle failure is only logged; the
// reconciliation job repairs the counters later.
func (s *GameService) completed(ctx context.Context, game *model.Game) {
	s.notifier.Publish(&Event{
		Type:       EventGameCompleted,
		UserID:     game.UserID,
		SessionID:  game.SessionID,
		GameID:     game.ID,
		Status:     string(game.Status),
		Score:      game.Score,
		OccurredAt: *game.FinishedAt,
	})
	if _, err := s.ledger.settle(ctx, game.SessionID); err != nil {
		s.logger.Warn("failed to settle session",
			slog.String("session_id", game.SessionID),
			slog.String("game_id", game.ID),
			slog.Any("error", err),
		)
	}
}

// Abort ends a game that is still in progress. No score is computed.
func (s *GameService) Abort(ctx context.Context, gameID, callerID string) (*model.Game, error) {
	unlock := s.locks.Game(gameID)
	game, err := s.ownedGame(ctx, gameID, callerID)
	if err != nil {
		unlock()
		return nil, err
	}
	if game.Status != model.GameStatusInProgress {
		unlock()
		return nil, ErrGameAlreadyFinished
	}

	next := game.Clone()
	next.Status = model.GameStatusAborted
	finishGame(next, s.now().UTC())
	updated, err := s.games.Update(ctx, gameID, model.PatchFrom(next))
	unlock()
	if err != nil {
		return nil, fmt.Errorf("failed to abort game: %w", err)
	}

	s.completed(ctx, updated)
	return updated.Redacted(), nil
}

// Get returns a game owned by callerID. The secret is hidden until the game
// is over.
func (s *GameService) Get(ctx context.Context, gameID, callerID string) (*model.Game, error) {
	game, err := s.ownedGame(ctx, gameID, callerID)
	if err != nil {
		return nil, err
	}
	return game.Redacted(), nil
}

// List returns one page of a session's games in creation order
func (s *GameService) List(ctx context.Context, sessionID, callerID string, page, pageSize int) ([]*model.Game, model.PageInfo, error) {
	if _, err := s.ownedSession(ctx, sessionID, callerID); err != nil {
		return nil, model.PageInfo{}, err
	}
	games, err := s.games.ListBySession(ctx, sessionID)
	if err != nil {
		return nil, model.PageInfo{}, fmt.Errorf("failed to list games: %w", err)
	}

	info := model.NewPageInfo(page, pageSize, len(games))
	start, end := info.Bounds()
	return lo.Map(games[start:end], func(g *model.Game, _ int) *model.Game {
		return g.Redacted()
	}), info, nil
}

// History returns the guesses made in a game, oldest first
func (s *GameService) History(ctx context.Context, gameID, callerID string) ([]*model.Guess, error) {
	if _, err := s.ownedGame(ctx, gameID, callerID); err != nil {
		return nil, err
	}
	guesses, err := s.games.ListGuesses(ctx, gameID)
	if err != nil {
		return nil, fmt.Errorf("failed to list guesses: %w", err)
	}
	return guesses, nil
}

func (s *GameService) ownedSession(ctx context.Context, sessionID, callerID string) (*model.Session, error) {
	session, err := s.sessions.GetByID(ctx, sessionID)
	if err != nil {
		return nil, fmt.Errorf("failed to get session: %w", err)
	}
	if session == nil {
		return nil, ErrSessionNotFound
	}
	if session.UserID != callerID {
		return nil, ErrSessionAccessDenied
	}
	return session, nil
}

func (s *GameService) ownedGame(ctx context.Context, gameID, callerID string) (*model.Game, error) {
	game, err := s.games.GetByID(ctx, gameID)
	if err != nil {
		return nil, fmt.Errorf("failed to get game: %w", err)
	}
	if game == nil {
		return nil, ErrGameNotFound
	}
	if game.UserID != callerID {
		return nil, ErrGameAccessDenied
	}
	return game, nil
}
