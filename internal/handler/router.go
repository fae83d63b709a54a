package handler

import (
	"log/slog"
	"net/http"

	"github.com/forgo/hangman/api/internal/idempotency"
	"github.com/forgo/hangman/api/internal/middleware"
	"github.com/forgo/hangman/api/internal/ratelimit"
)

// RouterConfig holds everything the HTTP surface is built from
type RouterConfig struct {
	Auth         *AuthHandler
	Sessions     *SessionHandler
	Games        *GameHandler
	Stats        *StatsHandler
	Dictionaries *DictionaryHandler
	Health       *HealthHandler

	Resolver       middleware.PrincipalResolver
	Limiter        *ratelimit.Limiter
	Idempotency    *idempotency.Cache
	AllowedOrigins []string
	Logger         *slog.Logger
}

// NewRouter registers every route and wraps the mux in the global
// middleware
func NewRouter(cfg RouterConfig) http.Handler {
	mux := http.NewServeMux()

	// route builds one endpoint's chain: optional auth, every rate limit
	// tier in a single check, then the idempotency cache for creates
	route := func(h http.HandlerFunc, authed bool, operation string, tiers ...middleware.Tier) http.Handler {
		var chain []middleware.Middleware
		if authed {
			chain = append(chain, middleware.Auth(cfg.Resolver))
		}
		tiers = append([]middleware.Tier{middleware.GeneralTier}, tiers...)
		chain = append(chain, middleware.RateLimit(cfg.Limiter, tiers...))
		if operation != "" {
			chain = append(chain, middleware.Idempotency(cfg.Idempotency, operation))
		}
		return middleware.Chain(h, chain...)
	}
	protected := func(h http.HandlerFunc) http.Handler { return route(h, true, "") }
	public := func(h http.HandlerFunc) http.Handler { return route(h, false, "") }

	// Health endpoints
	mux.HandleFunc("GET /healthz", cfg.Health.Health)
	mux.HandleFunc("GET /version", cfg.Health.Version)
	mux.HandleFunc("GET /time", cfg.Health.Time)

	// Auth endpoints
	mux.Handle("POST /api/v1/auth/register", route(cfg.Auth.Register, false, "register"))
	mux.Handle("POST /api/v1/auth/login", public(cfg.Auth.Login))
	mux.Handle("POST /api/v1/auth/refresh", public(cfg.Auth.Refresh))
	mux.Handle("POST /api/v1/auth/logout", protected(cfg.Auth.Logout))
	mux.Handle("GET /api/v1/users/me", protected(cfg.Auth.Me))

	// Dictionary endpoints
	mux.Handle("GET /api/v1/dictionaries", public(cfg.Dictionaries.List))
	mux.Handle("GET /api/v1/dictionaries/{dictionaryId}", public(cfg.Dictionaries.Get))

	// Session endpoints
	mux.Handle("POST /api/v1/sessions", route(cfg.Sessions.Create, true, "create_session",
		middleware.UserTier(ratelimit.ScopeSessionCreate)))
	mux.Handle("GET /api/v1/sessions", protected(cfg.Sessions.List))
	mux.Handle("GET /api/v1/sessions/{sessionId}", protected(cfg.Sessions.Get))
	mux.Handle("POST /api/v1/sessions/{sessionId}/abort", protected(cfg.Sessions.Abort))
	mux.Handle("GET /api/v1/sessions/{sessionId}/stats", protected(cfg.Sessions.Stats))

	// Game endpoints
	mux.Handle("POST /api/v1/sessions/{sessionId}/games", route(cfg.Games.Create, true, "create_game",
		middleware.PathTier(ratelimit.ScopeGameCreate, "sessionId")))
	mux.Handle("GET /api/v1/sessions/{sessionId}/games", protected(cfg.Games.List))
	mux.Handle("GET /api/v1/sessions/{sessionId}/games/{gameId}", protected(cfg.Games.Get))
	mux.Handle("GET /api/v1/sessions/{sessionId}/games/{gameId}/state", protected(cfg.Games.Get))
	mux.Handle("POST /api/v1/sessions/{sessionId}/games/{gameId}/guess", protected(cfg.Games.Guess))
	mux.Handle("POST /api/v1/sessions/{sessionId}/games/{gameId}/abort", protected(cfg.Games.Abort))
	mux.Handle("GET /api/v1/sessions/{sessionId}/games/{gameId}/history", protected(cfg.Games.History))

	// Statistics endpoints
	mux.Handle("GET /api/v1/users/{userId}/stats", protected(cfg.Stats.User))
	mux.Handle("GET /api/v1/stats/global", public(cfg.Stats.Global))
	mux.Handle("GET /api/v1/leaderboard", public(cfg.Stats.Leaderboard))

	return middleware.Chain(
		mux,
		middleware.RequestID,
		middleware.Logger(cfg.Logger),
		middleware.Recovery,
		middleware.CORS(cfg.AllowedOrigins),
		middleware.Compress,
	)
}
