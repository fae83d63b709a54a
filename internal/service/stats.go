package service

import (
	"context"

	"github.com/forgo/hangman/api/internal/model"
)

// StatsStore answers aggregate queries over archived games
type StatsStore interface {
	UserStats(ctx context.Context, userID string, period model.StatsPeriod) (*model.UserStats, error)
	GlobalStats(ctx context.Context, period model.StatsPeriod) (*model.GlobalStats, error)
	Leaderboard(ctx context.Context, period model.StatsPeriod, metric model.LeaderboardMetric, limit int) ([]model.LeaderboardEntry, error)
}

// StatsService validates statistics queries before they reach the archive
type StatsService struct {
	store StatsStore
}

// NewStatsService creates a new stats service
func NewStatsService(store StatsStore) *StatsService {
	return &StatsService{store: store}
}

func parsePeriod(raw string) (model.StatsPeriod, error) {
	if raw == "" {
		return model.PeriodAll, nil
	}
	p := model.StatsPeriod(raw)
	if !p.Valid() {
		return "", ErrInvalidPeriod
	}
	return p, nil
}

// User returns the caller's statistics for the period ("all" when empty)
func (s *StatsService) User(ctx context.Context, userID, period string) (*model.UserStats, error) {
	p, err := parsePeriod(period)
	if err != nil {
		return nil, err
	}
	return s.store.UserStats(ctx, userID, p)
}

// Global returns statistics across every player
func (s *StatsService) Global(ctx context.Context, period string) (*model.GlobalStats, error) {
	p, err := parsePeriod(period)
	if err != nil {
		return nil, err
	}
	return s.store.GlobalStats(ctx, p)
}

// Leaderboard ranks players by metric ("total_score" when empty)
func (s *StatsService) Leaderboard(ctx context.Context, period, metric string, limit int) ([]model.LeaderboardEntry, error) {
	p, err := parsePeriod(period)
	if err != nil {
		return nil, err
	}
	m := model.LeaderboardMetric(metric)
	if metric == "" {
		m = model.MetricTotalScore
	}
	if !m.Valid() {
		return nil, ErrInvalidMetric
	}
	if limit < 0 || limit > model.MaxLeaderboardLimit {
		return nil, ErrInvalidLimit
	}
	return s.store.Leaderboard(ctx, p, m, limit)
}
