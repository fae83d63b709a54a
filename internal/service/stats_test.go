package service

import (
	"context"
	"errors"
	"testing"

	"github.com/forgo/hangman/api/internal/model"
)

type mockStatsStore struct {
	userStatsFunc   func(ctx context.Context, userID string, period model.StatsPeriod) (*model.UserStats, error)
	globalStatsFunc func(ctx context.Context, period model.StatsPeriod) (*model.GlobalStats, error)
	leaderboardFunc func(ctx context.Context, period model.StatsPeriod, metric model.LeaderboardMetric, limit int) ([]model.LeaderboardEntry, error)
}

func (m *mockStatsStore) UserStats(ctx context.Context, userID string, period model.StatsPeriod) (*model.UserStats, error) {
	if m.userStatsFunc != nil {
		return m.userStatsFunc(ctx, userID, period)
	}
	return &model.UserStats{UserID: userID, Period: period}, nil
}

func (m *mockStatsStore) GlobalStats(ctx context.Context, period model.StatsPeriod) (*model.GlobalStats, error) {
	if m.globalStatsFunc != nil {
		return m.globalStatsFunc(ctx, period)
	}
	return &model.GlobalStats{Period: period}, nil
}

func (m *mockStatsStore) Leaderboard(ctx context.Context, period model.StatsPeriod, metric model.LeaderboardMetric, limit int) ([]model.LeaderboardEntry, error) {
	if m.leaderboardFunc != nil {
		return m.leaderboardFunc(ctx, period, metric, limit)
	}
	return nil, nil
}

func TestStatsService_UserDefaultsToAll(t *testing.T) {
	t.Parallel()
	svc := NewStatsService(&mockStatsStore{})

	stats, err := svc.User(context.Background(), "u1", "")
	if err != nil {
		t.Fatal(err)
	}
	if stats.Period != model.PeriodAll || stats.UserID != "u1" {
		t.Errorf("unexpected stats: %+v", stats)
	}

	stats, err = svc.User(context.Background(), "u1", "7d")
	if err != nil {
		t.Fatal(err)
	}
	if stats.Period != model.PeriodWeek {
		t.Errorf("Period = %s, want 7d", stats.Period)
	}
}

func TestStatsService_InvalidPeriod(t *testing.T) {
	t.Parallel()
	called := false
	svc := NewStatsService(&mockStatsStore{
		globalStatsFunc: func(context.Context, model.StatsPeriod) (*model.GlobalStats, error) {
			called = true
			return nil, nil
		},
	})

	if _, err := svc.User(context.Background(), "u1", "2w"); !errors.Is(err, ErrInvalidPeriod) {
		t.Errorf("User: expected ErrInvalidPeriod, got %v", err)
	}
	if _, err := svc.Global(context.Background(), "yesterday"); !errors.Is(err, ErrInvalidPeriod) {
		t.Errorf("Global: expected ErrInvalidPeriod, got %v", err)
	}
	if called {
		t.Error("store queried with an invalid period")
	}
}

func TestStatsService_Leaderboard(t *testing.T) {
	t.Parallel()
	var gotMetric model.LeaderboardMetric
	var gotLimit int
	svc := NewStatsService(&mockStatsStore{
		leaderboardFunc: func(_ context.Context, _ model.StatsPeriod, metric model.LeaderboardMetric, limit int) ([]model.LeaderboardEntry, error) {
			gotMetric, gotLimit = metric, limit
			return []model.LeaderboardEntry{{Rank: 1, UserID: "u1"}}, nil
		},
	})

	entries, err := svc.Leaderboard(context.Background(), "", "", 10)
	if err != nil {
		t.Fatal(err)
	}
	if len(entries) != 1 || gotMetric != model.MetricTotalScore || gotLimit != 10 {
		t.Errorf("entries=%v metric=%s limit=%d", entries, gotMetric, gotLimit)
	}

	tests := []struct {
		name   string
		period string
		metric string
		limit  int
		want   error
	}{
		{"unknown metric", "", "fastest", 10, ErrInvalidMetric},
		{"negative limit", "", "win_rate", -1, ErrInvalidLimit},
		{"limit above max", "", "win_rate", model.MaxLeaderboardLimit + 1, ErrInvalidLimit},
		{"bad period", "1y", "total_games", 10, ErrInvalidPeriod},
	}
	for _, tt := range tests {
		if _, err := svc.Leaderboard(context.Background(), tt.period, tt.metric, tt.limit); !errors.Is(err, tt.want) {
			t.Errorf("%s: expected %v, got %v", tt.name, tt.want, err)
		}
	}
}

func TestStatsService_StoreErrorPassesThrough(t *testing.T) {
	t.Parallel()
	boom := errors.New("archive unavailable")
	svc := NewStatsService(&mockStatsStore{
		userStatsFunc: func(context.Context, string, model.StatsPeriod) (*model.UserStats, error) {
			return nil, boom
		},
	})
	if _, err := svc.User(context.Background(), "u1", "all"); !errors.Is(err, boom) {
		t.Errorf("expected store error, got %v", err)
	}
}
