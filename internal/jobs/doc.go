// Package jobs implements background work for the Hangman API.
//
// Jobs run independently of HTTP request handling, each in its own
// goroutine with Start and Stop methods:
//
//   - SessionReconciler: recomputes ACTIVE session counters on an interval
//   - StatsArchiver: copies finished games into the statistics archive from
//     game_completed events, with a periodic sweep for events the hub dropped
//   - TokenPurger: deletes expired refresh tokens
//
// Jobs log errors and keep running; a failed pass is retried on the next
// tick or the next event.
package jobs
