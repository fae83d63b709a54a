package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

// Store backends
const (
	StoreMemory  = "memory"
	StoreSurreal = "surreal"
)

// Config holds all application configuration
type Config struct {
	Server      ServerConfig
	Store       StoreConfig
	Database    DatabaseConfig
	Stats       StatsConfig
	Valkey      ValkeyConfig
	Auth        AuthConfig
	Game        GameConfig
	RateLimit   RateLimitConfig
	Idempotency IdempotencyConfig
	Log         LogConfig
}

// ServerConfig holds HTTP server settings
type ServerConfig struct {
	Port            string
	Env             string
	Version         string
	ReadTimeout     time.Duration
	WriteTimeout    time.Duration
	ShutdownTimeout time.Duration
	AllowedOrigins  []string
}

// StoreConfig selects where sessions, games and users live
type StoreConfig struct {
	Backend        string
	DictionaryFile string
}

// DatabaseConfig holds SurrealDB connection settings
type DatabaseConfig struct {
	Host      string
	Port      string
	Namespace string
	Database  string
	User      string
	Password  string
}

// StatsConfig holds the statistics archive settings
type StatsConfig struct {
	Driver        string
	DSN           string
	SweepInterval time.Duration
}

// ValkeyConfig holds the shared idempotency store settings. An empty Addr
// keeps idempotency entries in process memory.
type ValkeyConfig struct {
	Addr        string
	Username    string
	Password    string
	DB          int
	DialTimeout time.Duration
	KeyPrefix   string
}

// Enabled reports whether a Valkey server is configured
func (v ValkeyConfig) Enabled() bool {
	return strings.TrimSpace(v.Addr) != ""
}

// AuthConfig holds token signing and password hashing settings
type AuthConfig struct {
	JWTSecret      string
	Issuer         string
	ExpirationMins     int
	RefreshTTL         time.Duration
	TokenPurgeInterval time.Duration
	BcryptCost         int
}

// GameConfig holds session and game limits
type GameConfig struct {
	MaxActiveSessionsPerUser int
	MaxGamesPerSession       int
	DefaultDictionaryID      string
	ReconcileInterval        time.Duration
}

// RateLimitConfig holds token bucket quotas, expressed per minute
type RateLimitConfig struct {
	Disabled            bool
	GeneralPerMin       int
	SessionCreatePerMin int
	GameCreatePerMin    int
	LoginMaxFailures    int
	LoginWindow         time.Duration
	EvictAfter          time.Duration
}

// IdempotencyConfig holds idempotency cache settings
type IdempotencyConfig struct {
	TTL           time.Duration
	PurgeInterval time.Duration
}

// LogConfig holds logging settings. An empty Dir logs to stdout only.
type LogConfig struct {
	Level      string
	Format     string
	Dir        string
	MaxSizeMB  int
	MaxBackups int
	MaxAgeDays int
	Compress   bool
}

// Load reads configuration from environment variables with sensible
// defaults. Any dotenv files given (".env" when none) are loaded first;
// missing files are skipped.
func Load(dotenvPaths ...string) (*Config, error) {
	if err := LoadDotenvIfPresent(dotenvPaths...); err != nil {
		return nil, err
	}

	return &Config{
		Server: ServerConfig{
			Port:            getEnv("SERVER_PORT", "8080"),
			Env:             getEnv("SERVER_ENV", "development"),
			Version:         getEnv("SERVER_VERSION", "dev"),
			ReadTimeout:     getDurationEnv("SERVER_READ_TIMEOUT", 15*time.Second),
			WriteTimeout:    getDurationEnv("SERVER_WRITE_TIMEOUT", 15*time.Second),
			ShutdownTimeout: getDurationEnv("SERVER_SHUTDOWN_TIMEOUT", 30*time.Second),
			AllowedOrigins:  getSliceEnv("CORS_ALLOWED_ORIGINS", []string{"http://localhost:3000"}),
		},
		Store: StoreConfig{
			Backend:        getEnv("STORE_BACKEND", StoreMemory),
			DictionaryFile: getEnv("DICTIONARY_FILE", ""),
		},
		Database: DatabaseConfig{
			Host:      getEnv("DB_HOST", "localhost"),
			Port:      getEnv("DB_PORT", "8000"),
			Namespace: getEnv("DB_NAMESPACE", "hangman"),
			Database:  getEnv("DB_DATABASE", "main"),
			User:      getEnv("DB_USER", "root"),
			Password:  getEnv("DB_PASSWORD", "root"),
		},
		Stats: StatsConfig{
			Driver:        getEnv("STATS_DRIVER", "sqlite"),
			DSN:           getEnv("STATS_DSN", "hangman-stats.db"),
			SweepInterval: getDurationEnv("STATS_SWEEP_INTERVAL", 10*time.Minute),
		},
		Valkey: ValkeyConfig{
			Addr:        getEnv("VALKEY_ADDR", ""),
			Username:    getEnv("VALKEY_USERNAME", ""),
			Password:    getEnv("VALKEY_PASSWORD", ""),
			DB:          getIntEnv("VALKEY_DB", 0),
			DialTimeout: getDurationEnv("VALKEY_DIAL_TIMEOUT", 5*time.Second),
			KeyPrefix:   getEnv("VALKEY_KEY_PREFIX", ""),
		},
		Auth: AuthConfig{
			JWTSecret:          getEnv("JWT_SECRET", ""),
			Issuer:             getEnv("JWT_ISSUER", "hangman.forgo.software"),
			ExpirationMins:     getIntEnv("JWT_EXPIRATION_MINS", 60),
			RefreshTTL:         getDurationEnv("JWT_REFRESH_TTL", 30*24*time.Hour),
			TokenPurgeInterval: getDurationEnv("TOKEN_PURGE_INTERVAL", time.Hour),
			BcryptCost:         getIntEnv("BCRYPT_COST", 12),
		},
		Game: GameConfig{
			MaxActiveSessionsPerUser: getIntEnv("MAX_ACTIVE_SESSIONS_PER_USER", 10),
			MaxGamesPerSession:       getIntEnv("MAX_GAMES_PER_SESSION", 100),
			DefaultDictionaryID:      getEnv("DEFAULT_DICTIONARY_ID", "dict_ro_basic"),
			ReconcileInterval:        getDurationEnv("RECONCILE_INTERVAL", 5*time.Minute),
		},
		RateLimit: RateLimitConfig{
			Disabled:            getBoolEnv("RATE_LIMIT_DISABLED", false),
			GeneralPerMin:       getIntEnv("RATE_LIMIT_GENERAL_PER_MIN", 60),
			SessionCreatePerMin: getIntEnv("RATE_LIMIT_SESSION_CREATE_PER_MIN", 10),
			GameCreatePerMin:    getIntEnv("RATE_LIMIT_GAME_CREATE_PER_MIN", 5),
			LoginMaxFailures:    getIntEnv("LOGIN_MAX_FAILURES", 5),
			LoginWindow:         getDurationEnv("LOGIN_LOCKOUT_WINDOW", 15*time.Minute),
			EvictAfter:          getDurationEnv("RATE_LIMIT_EVICT_AFTER", 5*time.Minute),
		},
		Idempotency: IdempotencyConfig{
			TTL:           getDurationEnv("IDEMPOTENCY_TTL", 24*time.Hour),
			PurgeInterval: getDurationEnv("IDEMPOTENCY_PURGE_INTERVAL", time.Hour),
		},
		Log: LogConfig{
			Level:      getEnv("LOG_LEVEL", "info"),
			Format:     getEnv("LOG_FORMAT", ""),
			Dir:        getEnv("LOG_DIR", ""),
			MaxSizeMB:  getIntEnv("LOG_MAX_SIZE_MB", 100),
			MaxBackups: getIntEnv("LOG_MAX_BACKUPS", 5),
			MaxAgeDays: getIntEnv("LOG_MAX_AGE_DAYS", 14),
			Compress:   getBoolEnv("LOG_COMPRESS", true),
		},
	}, nil
}

// LoadDotenvIfPresent loads each dotenv file that exists. Variables already
// set in the environment win.
func LoadDotenvIfPresent(paths ...string) error {
	if len(paths) == 0 {
		paths = []string{".env"}
	}

	for _, path := range paths {
		if _, err := os.Stat(path); err != nil {
			if errors.Is(err, os.ErrNotExist) {
				continue
			}
			return fmt.Errorf("stat dotenv file %s: %w", path, err)
		}
		if err := godotenv.Load(path); err != nil {
			return fmt.Errorf("load dotenv file %s: %w", path, err)
		}
	}
	return nil
}

// IsDevelopment returns true if running in development mode
func (c *Config) IsDevelopment() bool {
	return c.Server.Env == "development"
}

// IsProduction returns true if running in production mode
func (c *Config) IsProduction() bool {
	return c.Server.Env == "production"
}

// Validate checks that all required configuration values are present and valid.
// It returns an error describing all validation failures, or nil if valid.
func (c *Config) Validate() error {
	var errs []error

	// Server validation
	if c.Server.Port == "" {
		errs = append(errs, errors.New("SERVER_PORT is required"))
	}
	if c.Server.Env != "development" && c.Server.Env != "production" && c.Server.Env != "test" {
		errs = append(errs, fmt.Errorf("SERVER_ENV must be 'development', 'production', or 'test', got '%s'", c.Server.Env))
	}
	if len(c.Server.AllowedOrigins) == 0 {
		errs = append(errs, errors.New("CORS_ALLOWED_ORIGINS must have at least one origin"))
	}

	// Store validation
	switch c.Store.Backend {
	case StoreMemory:
	case StoreSurreal:
		if c.Database.Host == "" {
			errs = append(errs, errors.New("DB_HOST is required"))
		}
		if c.Database.Port == "" {
			errs = append(errs, errors.New("DB_PORT is required"))
		}
		if c.Database.Namespace == "" {
			errs = append(errs, errors.New("DB_NAMESPACE is required"))
		}
		if c.Database.Database == "" {
			errs = append(errs, errors.New("DB_DATABASE is required"))
		}
	default:
		errs = append(errs, fmt.Errorf("STORE_BACKEND must be 'memory' or 'surreal', got '%s'", c.Store.Backend))
	}

	// Stats validation
	if c.Stats.Driver != "sqlite" && c.Stats.Driver != "postgres" {
		errs = append(errs, fmt.Errorf("STATS_DRIVER must be 'sqlite' or 'postgres', got '%s'", c.Stats.Driver))
	}
	if c.Stats.DSN == "" {
		errs = append(errs, errors.New("STATS_DSN is required"))
	}
	if c.Stats.SweepInterval <= 0 {
		errs = append(errs, errors.New("STATS_SWEEP_INTERVAL must be positive"))
	}

	// Auth validation - the secret is critical everywhere but dev
	if len(c.Auth.JWTSecret) < 32 {
		if !c.IsDevelopment() || c.Auth.JWTSecret != "" {
			errs = append(errs, errors.New("JWT_SECRET must be at least 32 bytes"))
		}
	}
	if c.Auth.ExpirationMins <= 0 {
		errs = append(errs, errors.New("JWT_EXPIRATION_MINS must be positive"))
	}
	if c.Auth.RefreshTTL <= 0 {
		errs = append(errs, errors.New("JWT_REFRESH_TTL must be positive"))
	}
	if c.Auth.TokenPurgeInterval <= 0 {
		errs = append(errs, errors.New("TOKEN_PURGE_INTERVAL must be positive"))
	}
	if c.Auth.BcryptCost < 4 || c.Auth.BcryptCost > 31 {
		errs = append(errs, errors.New("BCRYPT_COST must be between 4 and 31"))
	}

	// Game validation
	if c.Game.MaxActiveSessionsPerUser <= 0 {
		errs = append(errs, errors.New("MAX_ACTIVE_SESSIONS_PER_USER must be positive"))
	}
	if c.Game.MaxGamesPerSession <= 0 {
		errs = append(errs, errors.New("MAX_GAMES_PER_SESSION must be positive"))
	}
	if c.Game.DefaultDictionaryID == "" {
		errs = append(errs, errors.New("DEFAULT_DICTIONARY_ID is required"))
	}
	if c.Game.ReconcileInterval <= 0 {
		errs = append(errs, errors.New("RECONCILE_INTERVAL must be positive"))
	}

	// Rate limit validation
	if !c.RateLimit.Disabled {
		if c.RateLimit.GeneralPerMin <= 0 || c.RateLimit.SessionCreatePerMin <= 0 || c.RateLimit.GameCreatePerMin <= 0 {
			errs = append(errs, errors.New("RATE_LIMIT_*_PER_MIN values must be positive"))
		}
		if c.RateLimit.LoginMaxFailures <= 0 || c.RateLimit.LoginWindow <= 0 {
			errs = append(errs, errors.New("LOGIN_MAX_FAILURES and LOGIN_LOCKOUT_WINDOW must be positive"))
		}
	}

	// Idempotency validation
	if c.Idempotency.TTL <= 0 {
		errs = append(errs, errors.New("IDEMPOTENCY_TTL must be positive"))
	}

	// Log validation
	if c.Log.Dir != "" && (c.Log.MaxSizeMB <= 0 || c.Log.MaxBackups <= 0 || c.Log.MaxAgeDays <= 0) {
		errs = append(errs, errors.New("LOG_MAX_SIZE_MB, LOG_MAX_BACKUPS and LOG_MAX_AGE_DAYS must be positive when LOG_DIR is set"))
	}

	if len(errs) > 0 {
		return errors.Join(errs...)
	}
	return nil
}

// Helper functions for reading environment variables

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getIntEnv(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if i, err := strconv.Atoi(value); err == nil {
			return i
		}
	}
	return defaultValue
}

func getDurationEnv(key string, defaultValue time.Duration) time.Duration {
	if value := os.Getenv(key); value != "" {
		if d, err := time.ParseDuration(value); err == nil {
			return d
		}
	}
	return defaultValue
}

func getSliceEnv(key string, defaultValue []string) []string {
	if value := os.Getenv(key); value != "" {
		parts := strings.Split(value, ",")
		out := parts[:0]
		for _, p := range parts {
			if p = strings.TrimSpace(p); p != "" {
				out = append(out, p)
			}
		}
		return out
	}
	return defaultValue
}

func getBoolEnv(key string, defaultValue bool) bool {
	if value := os.Getenv(key); value != "" {
		if b, err := strconv.ParseBool(value); err == nil {
			return b
		}
	}
	return defaultValue
}
