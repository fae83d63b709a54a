// Package middleware provides the HTTP middleware of the Hangman API.
//
// # Available Middleware
//
//   - RequestID, Logger, Recovery, CORS and Compress wrap the whole mux
//   - Auth and OptionalAuth resolve a bearer token to a user ID
//   - RateLimit charges one or more token-bucket tiers per route
//   - Idempotency replays stored create responses for a repeated
//     Idempotency-Key
//
// Route chains run Auth first so later tiers and the idempotency key can
// see the caller:
//
//	middleware.Chain(h,
//		middleware.Auth(authSvc),
//		middleware.RateLimit(limiter, middleware.GeneralTier,
//			middleware.UserTier(ratelimit.ScopeSessionCreate)),
//		middleware.Idempotency(cache, "create_session"),
//	)
//
// # Context Values
//
//   - GetUserID(ctx): authenticated user ID, empty when anonymous
//   - GetRequestID(ctx): request identifier
package middleware
