package model

// StatsPeriod bounds statistics to a trailing time window
type StatsPeriod string

const (
	PeriodAll   StatsPeriod = "all"
	PeriodDay   StatsPeriod = "1d"
	PeriodWeek  StatsPeriod = "7d"
	PeriodMonth StatsPeriod = "30d"
)

// LeaderboardMetric selects how leaderboard entries are ranked
type LeaderboardMetric string

const (
	MetricTotalScore LeaderboardMetric = "total_score"
	MetricWinRate    LeaderboardMetric = "win_rate"
	MetricTotalGames LeaderboardMetric = "total_games"
)

// UserStats aggregates a player's finished games
type UserStats struct {
	UserID           string      `json:"user_id"`
	Period           StatsPeriod `json:"period"`
	TotalGames       int         `json:"total_games"`
	GamesWon         int         `json:"games_won"`
	GamesLost        int         `json:"games_lost"`
	GamesAborted     int         `json:"games_aborted"`
	WinRate          float64     `json:"win_rate"`
	AvgGuesses       float64     `json:"avg_guesses"`
	AvgScore         float64     `json:"avg_score"`
	BestScore        float64     `json:"best_score"`
	TotalScore       float64     `json:"total_score"`
	TotalTimeSeconds float64     `json:"total_time_sec"`
}

// SessionStats summarizes the games of one session. Averages cover WON
// and LOST games only.
type SessionStats struct {
	SessionID        string        `json:"session_id"`
	Status           SessionStatus `json:"status"`
	NumGames         int           `json:"num_games"`
	GamesCreated     int           `json:"games_created"`
	GamesFinished    int           `json:"games_finished"`
	GamesWon         int           `json:"games_won"`
	GamesLost        int           `json:"games_lost"`
	GamesAborted     int           `json:"games_aborted"`
	GamesInProgress  int           `json:"games_in_progress"`
	WinRate          float64       `json:"win_rate"`
	AvgGuesses       float64       `json:"avg_guesses"`
	AvgWrongLetters  float64       `json:"avg_wrong_letters"`
	AvgScore         float64       `json:"avg_score"`
	TotalScore       float64       `json:"total_score"`
	TotalTimeSeconds float64       `json:"total_time_sec"`
}

// GlobalStats aggregates every archived game
type GlobalStats struct {
	Period                 StatsPeriod `json:"period"`
	TotalUsers             int         `json:"total_users"`
	TotalSessions          int         `json:"total_sessions"`
	TotalGames             int         `json:"total_games"`
	GamesWon               int         `json:"games_won"`
	GamesLost              int         `json:"games_lost"`
	GamesAborted           int         `json:"games_aborted"`
	AvgGameDurationSeconds float64     `json:"avg_game_duration_sec"`
	MostActiveUser         string      `json:"most_active_user,omitempty"`
}

// LeaderboardEntry is one ranked row of the leaderboard
type LeaderboardEntry struct {
	Rank       int     `json:"rank"`
	UserID     string  `json:"user_id"`
	TotalGames int     `json:"total_games"`
	GamesWon   int     `json:"games_won"`
	WinRate    float64 `json:"win_rate"`
	AvgScore   float64 `json:"avg_score"`
	TotalScore float64 `json:"total_score"`
}

// Leaderboard limits
const (
	DefaultLeaderboardLimit = 10
	MaxLeaderboardLimit     = 100
)

// Days returns the length of the window, or 0 for PeriodAll
func (p StatsPeriod) Days() int {
	switch p {
	case PeriodDay:
		return 1
	case PeriodWeek:
		return 7
	case PeriodMonth:
		return 30
	}
	return 0
}

// Valid reports whether p is a known period
func (p StatsPeriod) Valid() bool {
	return p == PeriodAll || p.Days() > 0
}

// Valid reports whether m is a known metric
func (m LeaderboardMetric) Valid() bool {
	switch m {
	case MetricTotalScore, MetricWinRate, MetricTotalGames:
		return true
	}
	return false
}
