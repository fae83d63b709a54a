// Package config manages application configuration for the Hangman API.
//
// Configuration is read from environment variables, after any .env file in
// the working directory has been loaded:
//
//	cfg, err := config.Load()
//	if err != nil { ... }
//	if err := cfg.Validate(); err != nil { ... }
//
// # Configuration Groups
//
//   - ServerConfig: HTTP server settings (port, timeouts, CORS)
//   - StoreConfig: memory or surreal backend, dictionary seed file
//   - DatabaseConfig: SurrealDB connection settings
//   - StatsConfig: statistics archive driver and DSN (sqlite, postgres)
//   - ValkeyConfig: shared idempotency store, optional
//   - AuthConfig: token signing and bcrypt cost
//   - GameConfig: session and game limits, reconciliation interval
//   - RateLimitConfig: per-minute quotas
//   - IdempotencyConfig: entry TTL and purge interval
//   - LogConfig: level, format and rotated file output
//
// # Environment Variables
//
// Key environment variables:
//
//	SERVER_PORT        - HTTP server port (default: 8080)
//	STORE_BACKEND      - memory or surreal (default: memory)
//	STATS_DRIVER       - sqlite or postgres (default: sqlite)
//	STATS_DSN          - archive database (default: hangman-stats.db)
//	VALKEY_ADDR        - Valkey host:port, empty for in-process entries
//	JWT_SECRET         - token signing secret, at least 32 bytes
//	LOG_DIR            - directory for rotated log files
//
// Validate reports every problem at once, joined with errors.Join.
package config
