// Package service implements the business logic layer for the Hangman API.
//
// The service package owns the session and game lifecycle, the guess state
// machine, scoring, locale folding and the event hub. Handlers call
// services; services read and write through the repository interfaces
// declared in repositories.go.
//
// # Service Pattern
//
// All services follow a consistent pattern:
//
//   - Constructor function (NewXxxService) accepts a config struct with repository dependencies
//   - Methods take the caller's user ID and check ownership themselves
//   - Errors are *Error sentinels (or wrapped storage errors) classified by Kind
//   - Context is passed through for cancellation and request-scoped values
//
// # Locking
//
// Session and game state is guarded by per-entity locks (EntityLocks).
// Locks are always taken in the order user, session, game. Guess handling
// releases the game lock before the session is settled, so a finished game
// never holds two locks at once.
//
// # Error Handling
//
// Services return sentinels such as ErrSessionNotFound or
// ErrGameAlreadyFinished. Use errors.Is to match a specific case and KindOf
// to classify:
//
//	switch service.KindOf(err) {
//	case service.KindNotFound:
//	    // 404
//	case service.KindInvalidState:
//	    // 409
//	}
//
// # Example Usage
//
//	sessions := NewSessionService(SessionServiceConfig{
//	    SessionRepo:    sessionRepository,
//	    GameRepo:       gameRepository,
//	    DictionaryRepo: dictionaryRepository,
//	    Notifier:       hub,
//	    Locks:          locks,
//	})
//	session, err := sessions.Create(ctx, userID, &model.CreateSessionRequest{NumGames: 5})
package service
