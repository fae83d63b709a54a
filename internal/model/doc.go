// Package model defines domain entities and data structures for the Hangman API.
//
// The model package contains the struct definitions for domain objects,
// request/response types and error definitions. Models are shared by every
// layer of the application and carry no business logic beyond small
// accessors.
//
// # Domain Entities
//
//   - User: a player account
//   - Session: a batch of N games played under one fixed rule set
//   - Game: one round with its own secret word, pattern and outcome
//   - Guess: an append-only record of a single letter or word guess
//   - Dictionary: a named word list secrets are drawn from
//
// # Lifecycles
//
// Sessions move from ACTIVE to ABORTED or COMPLETED. Games move from
// IN_PROGRESS to WON, LOST or ABORTED. Terminal states never change.
//
// # Error Types
//
// RFC 9457 Problem Details errors are defined in errors.go. Every problem
// carries a stable string code:
//
//	model.NewNotFoundError("session").WithCode(model.ErrCodeSessionNotFound)
package model
