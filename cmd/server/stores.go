package main

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/forgo/hangman/api/internal/config"
	"github.com/forgo/hangman/api/internal/database"
	"github.com/forgo/hangman/api/internal/repository"
	"github.com/forgo/hangman/api/internal/repository/memory"
	"github.com/forgo/hangman/api/internal/service"
)

// stores is the repository set the services run on
type stores struct {
	users        service.UserRepository
	sessions     service.SessionRepository
	games        service.GameRepository
	dictionaries service.DictionaryRepository
	tokens       service.TokenRepository

	ping  func(ctx context.Context) error
	close func() error
}

func (s *stores) Close() {
	if s.close != nil {
		_ = s.close()
	}
}

func openStores(ctx context.Context, cfg *config.Config) (*stores, error) {
	if cfg.Store.Backend != config.StoreSurreal {
		slog.Info("using in-memory store")
		return &stores{
			users:        memory.NewUserRepository(),
			sessions:     memory.NewSessionRepository(),
			games:        memory.NewGameRepository(),
			dictionaries: memory.NewDictionaryRepository(),
			tokens:       memory.NewTokenRepository(),
		}, nil
	}

	db := database.NewSurrealDB(database.Config{
		Host:      cfg.Database.Host,
		Port:      cfg.Database.Port,
		User:      cfg.Database.User,
		Password:  cfg.Database.Password,
		Namespace: cfg.Database.Namespace,
		Database:  cfg.Database.Database,
	})
	if err := db.Connect(ctx); err != nil {
		return nil, fmt.Errorf("connect to database: %w", err)
	}
	if err := database.ApplySchema(ctx, db); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("apply schema: %w", err)
	}

	slog.Info("connected to database",
		slog.String("host", cfg.Database.Host),
		slog.String("database", cfg.Database.Database),
	)

	return &stores{
		users:        repository.NewUserRepository(db),
		sessions:     repository.NewSessionRepository(db),
		games:        repository.NewGameRepository(db),
		dictionaries: repository.NewDictionaryRepository(db),
		tokens:       repository.NewTokenRepository(db),
		ping:         db.Ping,
		close:        db.Close,
	}, nil
}
