package main

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/forgo/hangman/api/internal/config"
	"github.com/forgo/hangman/api/internal/handler"
	"github.com/forgo/hangman/api/internal/idempotency"
	"github.com/forgo/hangman/api/internal/jobs"
	"github.com/forgo/hangman/api/internal/logging"
	"github.com/forgo/hangman/api/internal/ratelimit"
	"github.com/forgo/hangman/api/internal/service"
	"github.com/forgo/hangman/api/internal/stats"
	"github.com/forgo/hangman/api/pkg/jwt"
)

func main() {
	if err := run(); err != nil {
		slog.Error("server exited with error", slog.String("error", err.Error()))
		os.Exit(1)
	}
}

func run() error {
	// Load configuration
	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return fmt.Errorf("invalid configuration: %w", err)
	}

	// Initialize structured logging
	if cfg.Log.Format == "" {
		cfg.Log.Format = logging.FormatText
		if cfg.IsProduction() {
			cfg.Log.Format = logging.FormatJSON
		}
	}
	logger, logFile, err := logging.New(cfg.Log, os.Stdout)
	if err != nil {
		return fmt.Errorf("init logging: %w", err)
	}
	defer func() { _ = logFile.Close() }()
	slog.SetDefault(logger)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	// Open the game store
	st, err := openStores(ctx, cfg)
	if err != nil {
		return err
	}
	defer st.Close()

	checks := map[string]handler.HealthCheck{}
	if st.ping != nil {
		checks["database"] = st.ping
	}

	// Seed dictionaries
	dictionaryService := service.NewDictionaryService(st.dictionaries)
	seeded, err := dictionaryService.SeedDefaults(ctx, cfg.Store.DictionaryFile)
	if err != nil {
		return fmt.Errorf("seed dictionaries: %w", err)
	}
	slog.Info("dictionaries seeded", slog.Int("count", seeded))

	// Initialize JWT service
	secret := cfg.Auth.JWTSecret
	if secret == "" {
		secret, err = randomSecret()
		if err != nil {
			return err
		}
		slog.Warn("JWT_SECRET not set, using an ephemeral secret; tokens will not survive a restart")
	}
	jwtService, err := jwt.NewService(jwt.Config{
		Secret:         secret,
		Issuer:         cfg.Auth.Issuer,
		ExpirationMins: cfg.Auth.ExpirationMins,
	})
	if err != nil {
		return fmt.Errorf("init jwt service: %w", err)
	}

	// Rate limiter
	limiter := ratelimit.New(ratelimit.Config{
		General:       ratelimit.Quota{Capacity: cfg.RateLimit.GeneralPerMin, Per: time.Minute},
		SessionCreate: ratelimit.Quota{Capacity: cfg.RateLimit.SessionCreatePerMin, Per: time.Minute},
		GameCreate:    ratelimit.Quota{Capacity: cfg.RateLimit.GameCreatePerMin, Per: time.Minute},
		Login:         ratelimit.Quota{Capacity: cfg.RateLimit.LoginMaxFailures, Per: cfg.RateLimit.LoginWindow},
		EvictAfter:    cfg.RateLimit.EvictAfter,
		Disabled:      cfg.RateLimit.Disabled,
	})
	limiter.Start()
	defer limiter.Stop()

	// Initialize services
	hub := service.NewEventHub(256)
	defer hub.Close()
	locks := service.NewEntityLocks()

	authService := service.NewAuthService(service.AuthServiceConfig{
		UserRepo:   st.users,
		JWTService: jwtService,
		BcryptCost: cfg.Auth.BcryptCost,
		TokenRepo:  st.tokens,
		RefreshTTL: cfg.Auth.RefreshTTL,
		Throttle:   limiter,
	})
	sessionService := service.NewSessionService(service.SessionServiceConfig{
		SessionRepo:              st.sessions,
		GameRepo:                 st.games,
		DictionaryRepo:           st.dictionaries,
		Notifier:                 hub,
		Locks:                    locks,
		MaxActiveSessionsPerUser: cfg.Game.MaxActiveSessionsPerUser,
		MaxGamesPerSession:       cfg.Game.MaxGamesPerSession,
		DefaultDictionaryID:      cfg.Game.DefaultDictionaryID,
	})
	gameService := service.NewGameService(service.GameServiceConfig{
		SessionRepo:         st.sessions,
		GameRepo:            st.games,
		DictionaryRepo:      st.dictionaries,
		Notifier:            hub,
		Locks:               locks,
		DefaultDictionaryID: cfg.Game.DefaultDictionaryID,
		Logger:              logger,
	})

	// Statistics archive
	statsDB, err := stats.Open(cfg.Stats.Driver, cfg.Stats.DSN)
	if err != nil {
		return fmt.Errorf("open stats archive: %w", err)
	}
	archive := stats.NewArchive(statsDB, nil)
	defer func() { _ = archive.Close() }()
	if err := archive.AutoMigrate(ctx); err != nil {
		return fmt.Errorf("migrate stats archive: %w", err)
	}
	checks["stats"] = func(ctx context.Context) error {
		_, err := archive.Count(ctx)
		return err
	}
	statsService := service.NewStatsService(archive)

	// Background jobs
	archiver := jobs.NewStatsArchiver(hub, st.games, archive, cfg.Stats.SweepInterval, logger)
	archiver.Start()
	defer archiver.Stop()

	reconciler := jobs.NewSessionReconciler(sessionService, cfg.Game.ReconcileInterval, logger)
	reconciler.Start()
	defer reconciler.Stop()

	purger := jobs.NewTokenPurger(authService, cfg.Auth.TokenPurgeInterval, logger)
	purger.Start()
	defer purger.Stop()

	// Idempotency cache, shared through Valkey when configured
	var idemStore idempotency.Store = idempotency.NewMemoryStore(nil)
	if cfg.Valkey.Enabled() {
		client, err := idempotency.NewValkeyClient(idempotency.ValkeyConfig{
			Addr:        cfg.Valkey.Addr,
			Username:    cfg.Valkey.Username,
			Password:    cfg.Valkey.Password,
			DB:          cfg.Valkey.DB,
			DialTimeout: cfg.Valkey.DialTimeout,
		})
		if err != nil {
			return fmt.Errorf("connect valkey: %w", err)
		}
		defer client.Close()
		idemStore = idempotency.NewValkeyStore(client, cfg.Valkey.KeyPrefix)
		checks["valkey"] = func(ctx context.Context) error {
			return client.Do(ctx, client.B().Ping().Build()).Error()
		}
		slog.Info("idempotency store: valkey", slog.String("addr", cfg.Valkey.Addr))
	}
	idemCache := idempotency.NewCache(idemStore, idempotency.Config{
		TTL:           cfg.Idempotency.TTL,
		PurgeInterval: cfg.Idempotency.PurgeInterval,
		Logger:        logger,
	})
	idemCache.Start()
	defer idemCache.Stop()

	router := handler.NewRouter(handler.RouterConfig{
		Auth:           handler.NewAuthHandler(authService),
		Sessions:       handler.NewSessionHandler(sessionService),
		Games:          handler.NewGameHandler(gameService),
		Stats:          handler.NewStatsHandler(statsService),
		Dictionaries:   handler.NewDictionaryHandler(dictionaryService),
		Health:         handler.NewHealthHandler(cfg.Server.Version, checks),
		Resolver:       authService,
		Limiter:        limiter,
		Idempotency:    idemCache,
		AllowedOrigins: cfg.Server.AllowedOrigins,
		Logger:         logger,
	})

	// Create HTTP server
	server := &http.Server{
		Addr:         ":" + cfg.Server.Port,
		Handler:      router,
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
		IdleTimeout:  120 * time.Second,
	}

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		slog.Info("starting server",
			slog.String("port", cfg.Server.Port),
			slog.String("env", cfg.Server.Env),
			slog.String("store", cfg.Store.Backend),
		)
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("server error: %w", err)
		}
		return nil
	})
	g.Go(func() error {
		<-gctx.Done()
		slog.Info("shutting down server...")

		shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
		defer cancel()
		if err := server.Shutdown(shutdownCtx); err != nil {
			return fmt.Errorf("server forced to shutdown: %w", err)
		}
		return nil
	})

	if err := g.Wait(); err != nil {
		return err
	}
	slog.Info("server exited")
	return nil
}

func randomSecret() (string, error) {
	buf := make([]byte, jwt.MinSecretLength)
	if _, err := rand.Read(buf); err != nil {
		return "", fmt.Errorf("generate jwt secret: %w", err)
	}
	return hex.EncodeToString(buf), nil
}
