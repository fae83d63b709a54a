package service

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/samber/lo"

	"github.com/forgo/hangman/api/internal/model"
)

// Session limits used when the config leaves them unset
const (
	DefaultMaxActiveSessionsPerUser = 10
	DefaultMaxGamesPerSession       = 100
)

var supportedLanguages = []string{model.LanguageRomanian, model.LanguageEnglish}

// SessionService manages the session lifecycle
type SessionService struct {
	sessions          SessionRepository
	games             GameRepository
	dictionaries      DictionaryRepository
	notifier          Notifier
	locks             *EntityLocks
	ledger            *sessionLedger
	maxActive         int
	maxGames          int
	defaultDictionary string
	now               func() time.Time
}

// SessionServiceConfig holds configuration for the session service
type SessionServiceConfig struct {
	SessionRepo              SessionRepository
	GameRepo                 GameRepository
	DictionaryRepo           DictionaryRepository
	Notifier                 Notifier
	Locks                    *EntityLocks
	MaxActiveSessionsPerUser int
	MaxGamesPerSession       int
	DefaultDictionaryID      string
	Now                      func() time.Time
}

// NewSessionService creates a new session service
func NewSessionService(cfg SessionServiceConfig) *SessionService {
	s := &SessionService{
		sessions:          cfg.SessionRepo,
		games:             cfg.GameRepo,
		dictionaries:      cfg.DictionaryRepo,
		notifier:          cfg.Notifier,
		locks:             cfg.Locks,
		maxActive:         cfg.MaxActiveSessionsPerUser,
		maxGames:          cfg.MaxGamesPerSession,
		defaultDictionary: cfg.DefaultDictionaryID,
		now:               cfg.Now,
	}
	if s.notifier == nil {
		s.notifier = nopNotifier{}
	}
	if s.locks == nil {
		s.locks = NewEntityLocks()
	}
	if s.maxActive <= 0 {
		s.maxActive = DefaultMaxActiveSessionsPerUser
	}
	if s.maxGames <= 0 {
		s.maxGames = DefaultMaxGamesPerSession
	}
	if s.defaultDictionary == "" {
		s.defaultDictionary = model.DefaultDictionaryID
	}
	if s.now == nil {
		s.now = time.Now
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

// Create opens a new ACTIVE session for userID
func (s *SessionService) Create(ctx context.Context, userID string, req *model.CreateSessionRequest) (*model.Session, error) {
	if req == nil {
		req = &model.CreateSessionRequest{}
	}
	numGames, params, err := s.resolveParams(req)
	if err != nil {
		return nil, err
	}

	dict, err := s.dictionaries.GetByID(ctx, params.DictionaryID)
	if err != nil {
		return nil, fmt.Errorf("failed to get dictionary: %w", err)
	}
	if dict == nil || !dict.Active {
		return nil, ErrDictionaryNotFound
	}

	unlock := s.locks.User(userID)
	defer unlock()

	active, err := s.sessions.CountActiveByUser(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to count active sessions: %w", err)
	}
	if active >= s.maxActive {
		return nil, ErrMaxSessionsExceeded
	}

	session := &model.Session{
		UserID:    userID,
		NumGames:  numGames,
		Params:    params,
		Status:    model.SessionStatusActive,
		CreatedAt: s.now().UTC(),
	}
	created, err := s.sessions.Create(ctx, session)
	if err != nil {
		return nil, fmt.Errorf("failed to create session: %w", err)
	}
	return created, nil
}

func (s *SessionService) resolveParams(req *model.CreateSessionRequest) (int, model.SessionParams, error) {
	numGames := req.NumGames
	if numGames == 0 {
		numGames = min(model.DefaultNumGames, s.maxGames)
	}
	if numGames < 1 || numGames > s.maxGames {
		return 0, model.SessionParams{}, ErrInvalidNumGames
	}

	params := model.SessionParams{
		DictionaryID:   strings.TrimSpace(req.DictionaryID),
		Difficulty:     req.Difficulty,
		Language:       strings.ToLower(strings.TrimSpace(req.Language)),
		MaxMisses:      model.DefaultMaxMisses,
		AllowWordGuess: true,
		Seed:           req.Seed,
	}
	if params.DictionaryID == "" {
		params.DictionaryID = s.defaultDictionary
	}
	if params.Difficulty == "" {
		params.Difficulty = model.DifficultyAuto
	}
	if !params.Difficulty.Valid() {
		return 0, model.SessionParams{}, ErrInvalidDifficulty
	}
	if params.Language == "" {
		params.Language = model.LanguageRomanian
	}
	if !lo.Contains(supportedLanguages, params.Language) {
		return 0, model.SessionParams{}, ErrInvalidLanguage
	}
	if req.MaxMisses != nil {
		params.MaxMisses = *req.MaxMisses
	}
	if params.MaxMisses < model.MinMaxMisses || params.MaxMisses > model.MaxMaxMisses {
		return 0, model.SessionParams{}, ErrInvalidMaxMisses
	}
	if req.AllowWordGuess != nil {
		params.AllowWordGuess = *req.AllowWordGuess
	}
	return numGames, params, nil
}

// Get returns a session owned by callerID
func (s *SessionService) Get(ctx context.Context, sessionID, callerID string) (*model.Session, error) {
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

// List returns the caller's sessions, newest first
func (s *SessionService) List(ctx context.Context, callerID string, filter model.SessionFilter) ([]*model.Session, model.PageInfo, error) {
	sessions, err := s.sessions.ListByUser(ctx, callerID)
	if err != nil {
		return nil, model.PageInfo{}, fmt.Errorf("failed to list sessions: %w", err)
	}
	if filter.Status != nil {
		sessions = lo.Filter(sessions, func(sess *model.Session, _ int) bool {
			return sess.Status == *filter.Status
		})
	}
	sort.SliceStable(sessions, func(i, j int) bool {
		return sessions[i].CreatedAt.After(sessions[j].CreatedAt)
	})

	page := model.NewPageInfo(filter.Page, filter.PageSize, len(sessions))
	start, end := page.Bounds()
	return sessions[start:end], page, nil
}

// Stats summarizes a session owned by callerID from its current game list
func (s *SessionService) Stats(ctx context.Context, sessionID, callerID string) (*model.SessionStats, error) {
	session, err := s.Get(ctx, sessionID, callerID)
	if err != nil {
		return nil, err
	}
	games, err := s.games.ListBySession(ctx, session.ID)
	if err != nil {
		return nil, fmt.Errorf("failed to list games: %w", err)
	}

	stats := &model.SessionStats{
		SessionID:    session.ID,
		Status:       session.Status,
		NumGames:     session.NumGames,
		GamesCreated: len(games),
	}
	var guesses, wrong int
	for _, g := range games {
		switch g.Status {
		case model.GameStatusWon:
			stats.GamesWon++
		case model.GameStatusLost:
			stats.GamesLost++
		case model.GameStatusAborted:
			stats.GamesAborted++
			continue
		default:
			stats.GamesInProgress++
			continue
		}
		guesses += g.TotalGuesses
		wrong += len(g.WrongLetters)
		stats.TotalScore += g.Score
		stats.TotalTimeSeconds += g.TimeSeconds
	}

	stats.GamesFinished = stats.GamesWon + stats.GamesLost
	if n := float64(stats.GamesFinished); n > 0 {
		stats.WinRate = float64(stats.GamesWon) / n * 100
		stats.AvgGuesses = float64(guesses) / n
		stats.AvgWrongLetters = float64(wrong) / n
		stats.AvgScore = stats.TotalScore / n
	}
	return stats, nil
}

// Abort ends an ACTIVE session and aborts every game still in progress.
// Games that already finished are left untouched.
func (s *SessionService) Abort(ctx context.Context, sessionID, callerID string) (*model.Session, error) {
	unlock := s.locks.Session(sessionID)
	defer unlock()

	session, err := s.Get(ctx, sessionID, callerID)
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

	now := s.now().UTC()
	for _, g := range games {
		if g.Status != model.GameStatusInProgress {
			continue
		}
		if err := s.abortGame(ctx, g.ID, now); err != nil {
			return nil, err
		}
	}

	status := model.SessionStatusAborted
	updated, err := s.sessions.Update(ctx, sessionID, model.SessionPatch{
		Status:     &status,
		FinishedAt: &now,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to abort session: %w", err)
	}

	s.notifier.Publish(&Event{
		Type:       EventSessionAborted,
		UserID:     updated.UserID,
		SessionID:  updated.ID,
		Status:     string(updated.Status),
		OccurredAt: now,
	})
	return updated, nil
}

// abortGame aborts one game under its own lock. A game that finished while
// waiting for the lock is left alone.
func (s *SessionService) abortGame(ctx context.Context, gameID string, at time.Time) error {
	unlock := s.locks.Game(gameID)
	defer unlock()

	game, err := s.games.GetByID(ctx, gameID)
	if err != nil {
		return fmt.Errorf("failed to get game: %w", err)
	}
	if game == nil || game.Status != model.GameStatusInProgress {
		return nil
	}

	next := game.Clone()
	next.Status = model.GameStatusAborted
	finishGame(next, at)
	updated, err := s.games.Update(ctx, gameID, model.PatchFrom(next))
	if err != nil {
		return fmt.Errorf("failed to abort game: %w", err)
	}

	s.notifier.Publish(&Event{
		Type:       EventGameCompleted,
		UserID:     updated.UserID,
		SessionID:  updated.SessionID,
		GameID:     updated.ID,
		Status:     string(updated.Status),
		OccurredAt: at,
	})
	return nil
}

// Reconcile recomputes a session's counters from its game list and
// completes it if every slot has been played.
func (s *SessionService) Reconcile(ctx context.Context, sessionID string) (*model.Session, error) {
	return s.ledger.settle(ctx, sessionID)
}

// ReconcileActive runs Reconcile over every ACTIVE session and returns how
// many sessions were visited.
func (s *SessionService) ReconcileActive(ctx context.Context) (int, error) {
	sessions, err := s.sessions.ListActive(ctx)
	if err != nil {
		return 0, fmt.Errorf("failed to list active sessions: %w", err)
	}
	for _, sess := range sessions {
		if ctx.Err() != nil {
			return 0, ctx.Err()
		}
		if _, err := s.ledger.settle(ctx, sess.ID); err != nil {
			return 0, fmt.Errorf("failed to reconcile session %s: %w", sess.ID, err)
		}
	}
	return len(sessions), nil
}
