// Package handler provides the HTTP handlers for the Hangman API.
//
// Each handler struct wraps one service interface (sessions, games,
// statistics, dictionaries, auth) so it can be served by the real service
// or a test double. NewRouter wires every handler onto a ServeMux together
// with the per-route middleware.
//
// # Response Format
//
//   - WriteData: a single resource under "data" with optional _links
//   - WritePage: a page of resources plus pagination, Link and X-Total-Count
//   - WriteError: an RFC 9457 Problem Details body
//
// Service errors are translated by MapServiceError. Anything the service
// layer did not classify becomes a 500 whose detail never leaks the cause.
//
// # Routes
//
//	POST /api/v1/auth/register                              register (idempotent)
//	POST /api/v1/auth/login                                 login
//	GET  /api/v1/users/me                                   current user
//	POST /api/v1/sessions                                   create session (idempotent)
//	GET  /api/v1/sessions                                   list sessions
//	GET  /api/v1/sessions/{sessionId}                       session state
//	POST /api/v1/sessions/{sessionId}/abort                 abort session
//	POST /api/v1/sessions/{sessionId}/games                 create game (idempotent)
//	GET  /api/v1/sessions/{sessionId}/games                 list games
//	GET  /api/v1/sessions/{sessionId}/games/{gameId}        game state
//	POST /api/v1/sessions/{sessionId}/games/{gameId}/guess  guess a letter or word
//	POST /api/v1/sessions/{sessionId}/games/{gameId}/abort  abort game
//	GET  /api/v1/sessions/{sessionId}/games/{gameId}/history guess history
//	GET  /api/v1/users/{userId}/stats                       own statistics
//	GET  /api/v1/stats/global                               global statistics
//	GET  /api/v1/leaderboard                                leaderboard
//	GET  /api/v1/dictionaries                               dictionaries
package handler
