package handler

import (
	"context"
	"net/http"
	"strconv"

	"github.com/forgo/hangman/api/internal/middleware"
	"github.com/forgo/hangman/api/internal/model"
	"github.com/forgo/hangman/api/internal/service"
)

// StatsService is the statistics surface the stats handler needs
type StatsService interface {
	User(ctx context.Context, userID, period string) (*model.UserStats, error)
	Global(ctx context.Context, period string) (*model.GlobalStats, error)
	Leaderboard(ctx context.Context, period, metric string, limit int) ([]model.LeaderboardEntry, error)
}

// StatsHandler handles statistics endpoints
type StatsHandler struct {
	statsService StatsService
}

// NewStatsHandler creates a new stats handler
func NewStatsHandler(statsService StatsService) *StatsHandler {
	return &StatsHandler{statsService: statsService}
}

// LeaderboardResponse is one ranked page of players
type LeaderboardResponse struct {
	Metric  string                   `json:"metric"`
	Period  string                   `json:"period"`
	Entries []model.LeaderboardEntry `json:"entries"`
}

// User handles GET /api/v1/users/{userId}/stats. Players can only read
// their own statistics; "me" names the caller.
func (h *StatsHandler) User(w http.ResponseWriter, r *http.Request) {
	callerID := middleware.GetUserID(r.Context())
	userID := r.PathValue("userId")
	if userID == "me" {
		userID = callerID
	}
	if userID != callerID {
		WriteError(w, r, model.NewForbiddenError("statistics are private to their owner"))
		return
	}

	stats, err := h.statsService.User(r.Context(), userID, r.URL.Query().Get("period"))
	if err != nil {
		writeServiceError(w, r, err, "user stats")
		return
	}

	WriteData(w, http.StatusOK, stats, map[string]string{
		"self":        "/api/v1/users/" + userID + "/stats",
		"leaderboard": "/api/v1/leaderboard",
	})
}

// Global handles GET /api/v1/stats/global
func (h *StatsHandler) Global(w http.ResponseWriter, r *http.Request) {
	stats, err := h.statsService.Global(r.Context(), r.URL.Query().Get("period"))
	if err != nil {
		writeServiceError(w, r, err, "global stats")
		return
	}

	WriteData(w, http.StatusOK, stats, nil)
}

// Leaderboard handles GET /api/v1/leaderboard
func (h *StatsHandler) Leaderboard(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()

	limit := 0
	if raw := q.Get("limit"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n < 1 {
			writeServiceError(w, r, service.ErrInvalidLimit, "leaderboard")
			return
		}
		limit = n
	}

	period := q.Get("period")
	metric := q.Get("metric")
	entries, err := h.statsService.Leaderboard(r.Context(), period, metric, limit)
	if err != nil {
		writeServiceError(w, r, err, "leaderboard")
		return
	}

	if period == "" {
		period = string(model.PeriodAll)
	}
	if metric == "" {
		metric = string(model.MetricTotalScore)
	}
	if entries == nil {
		entries = []model.LeaderboardEntry{}
	}
	WriteData(w, http.StatusOK, LeaderboardResponse{
		Metric:  metric,
		Period:  period,
		Entries: entries,
	}, nil)
}
