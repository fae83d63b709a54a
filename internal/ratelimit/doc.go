// Package ratelimit provides per-identifier token buckets for the request
// quotas of the Hangman API: a general per-actor quota, session creation
// per user and game creation per session. The login scope counts failed
// logins per username; Peek and Reset let the login flow check it without
// spending and clear it after a success.
//
// Buckets are golang.org/x/time/rate limiters keyed by (scope, id). A
// mutating request is checked tier by tier with CheckAll; the first denial
// ends the check without spending tokens at later tiers.
//
//	limiter := ratelimit.New(ratelimit.Config{})
//	limiter.Start()
//	defer limiter.Stop()
//
//	d := limiter.CheckAll(
//	    ratelimit.Check{Scope: ratelimit.ScopeGeneral, ID: userID},
//	    ratelimit.Check{Scope: ratelimit.ScopeSessionCreate, ID: userID},
//	)
//	if !d.Allowed {
//	    // reject, retry after d.RetryAfter
//	}
package ratelimit
