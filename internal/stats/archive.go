package stats

import (
	"cmp"
	"context"
	"errors"
	"fmt"
	"slices"
	"strings"
	"time"

	"github.com/glebarez/sqlite"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
	"gorm.io/gorm/logger"

	"github.com/forgo/hangman/api/internal/model"
)

// Supported archive drivers
const (
	DriverSQLite   = "sqlite"
	DriverPostgres = "postgres"
)

// ErrUnknownDriver is returned by Open for an unsupported driver name
var ErrUnknownDriver = errors.New("unknown stats driver")

// GameRecord is the archived, immutable summary of one finished game
type GameRecord struct {
	ID               uint64    `gorm:"column:id;primaryKey;autoIncrement"`
	GameID           string    `gorm:"column:game_id;not null;uniqueIndex"`
	SessionID        string    `gorm:"column:session_id;not null;index"`
	UserID           string    `gorm:"column:user_id;not null;index:idx_game_records_user,priority:1"`
	Status           string    `gorm:"column:status;not null"`
	Language         string    `gorm:"column:language;not null;default:''"`
	WordLength       int       `gorm:"column:word_length;not null;default:0"`
	TotalGuesses     int       `gorm:"column:total_guesses;not null;default:0"`
	WrongLetters     int       `gorm:"column:wrong_letters;not null;default:0"`
	WrongWordGuesses int       `gorm:"column:wrong_word_guesses;not null;default:0"`
	TimeSeconds      float64   `gorm:"column:time_seconds;not null;default:0"`
	Score            float64   `gorm:"column:score;not null;default:0"`
	CreatedAt        time.Time `gorm:"column:created_at;not null;index:idx_game_records_user,priority:2"`
	FinishedAt       time.Time `gorm:"column:finished_at;not null"`
}

func (GameRecord) TableName() string { return "game_records" }

// RecordFromGame builds the archive row for a terminal game
func RecordFromGame(g *model.Game) GameRecord {
	rec := GameRecord{
		GameID:           g.ID,
		SessionID:        g.SessionID,
		UserID:           g.UserID,
		Status:           string(g.Status),
		Language:         g.Language,
		WordLength:       g.Length(),
		TotalGuesses:     g.TotalGuesses,
		WrongLetters:     len(g.WrongLetters),
		WrongWordGuesses: g.WrongWordGuesses,
		TimeSeconds:      g.TimeSeconds,
		Score:            g.Score,
		CreatedAt:        g.CreatedAt.UTC(),
	}
	if g.FinishedAt != nil {
		rec.FinishedAt = g.FinishedAt.UTC()
	} else {
		rec.FinishedAt = rec.CreatedAt
	}
	return rec
}

// Open connects to the archive database. DSNs are passed to the driver
// unchanged; ":memory:" works for sqlite.
func Open(driver, dsn string) (*gorm.DB, error) {
	cfg := &gorm.Config{Logger: logger.Default.LogMode(logger.Silent)}

	driver = strings.ToLower(driver)
	var dialector gorm.Dialector
	switch driver {
	case DriverSQLite, "":
		dialector = sqlite.Open(dsn)
	case DriverPostgres:
		dialector = postgres.Open(dsn)
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnknownDriver, driver)
	}

	db, err := gorm.Open(dialector, cfg)
	if err != nil {
		return nil, fmt.Errorf("gorm open failed: %w", err)
	}
	if driver != DriverPostgres {
		// sqlite serializes writers; one connection keeps :memory: shared
		sqlDB, err := db.DB()
		if err != nil {
			return nil, fmt.Errorf("get sql db failed: %w", err)
		}
		sqlDB.SetMaxOpenConns(1)
	}
	return db, nil
}

// Archive stores finished games and answers statistics queries over them
type Archive struct {
	db  *gorm.DB
	now func() time.Time
}

// NewArchive creates an archive over db
func NewArchive(db *gorm.DB, now func() time.Time) *Archive {
	if now == nil {
		now = time.Now
	}
	return &Archive{db: db, now: now}
}

// AutoMigrate creates or updates the archive tables
func (a *Archive) AutoMigrate(ctx context.Context) error {
	if err := a.db.WithContext(ctx).AutoMigrate(&GameRecord{}); err != nil {
		return fmt.Errorf("auto migrate failed: %w", err)
	}
	return nil
}

// Close releases the underlying connection pool
func (a *Archive) Close() error {
	sqlDB, err := a.db.DB()
	if err != nil {
		return err
	}
	return sqlDB.Close()
}

// Record archives a terminal game. Games still in progress are ignored and
// a game that is already archived is left untouched.
func (a *Archive) Record(ctx context.Context, g *model.Game) error {
	if g == nil || !g.Status.IsTerminal() {
		return nil
	}
	rec := RecordFromGame(g)
	err := a.db.WithContext(ctx).
		Clauses(clause.OnConflict{Columns: []clause.Column{{Name: "game_id"}}, DoNothing: true}).
		Create(&rec).Error
	if err != nil {
		return fmt.Errorf("archive game %s: %w", g.ID, err)
	}
	return nil
}

// missingBatch bounds the IN list of one Missing query
const missingBatch = 500

// Missing returns the IDs in gameIDs that have no archived record, in
// input order
func (a *Archive) Missing(ctx context.Context, gameIDs []string) ([]string, error) {
	known := make(map[string]struct{}, len(gameIDs))
	for start := 0; start < len(gameIDs); start += missingBatch {
		chunk := gameIDs[start:min(start+missingBatch, len(gameIDs))]
		var found []string
		err := a.db.WithContext(ctx).Model(&GameRecord{}).
			Where("game_id IN ?", chunk).
			Pluck("game_id", &found).Error
		if err != nil {
			return nil, fmt.Errorf("lookup archived games: %w", err)
		}
		for _, id := range found {
			known[id] = struct{}{}
		}
	}

	var missing []string
	for _, id := range gameIDs {
		if _, ok := known[id]; !ok {
			missing = append(missing, id)
		}
	}
	return missing, nil
}

// Count returns the number of archived games
func (a *Archive) Count(ctx context.Context) (int64, error) {
	var n int64
	if err := a.db.WithContext(ctx).Model(&GameRecord{}).Count(&n).Error; err != nil {
		return 0, fmt.Errorf("count game_records: %w", err)
	}
	return n, nil
}

// totalsSelect aggregates one group of records. Averages are taken over
// WON and LOST games only; aborted games are only counted.
const totalsSelect = `count(*) as total_games,
	coalesce(sum(case when status = 'WON' then 1 else 0 end), 0) as games_won,
	coalesce(sum(case when status = 'LOST' then 1 else 0 end), 0) as games_lost,
	coalesce(sum(case when status = 'ABORTED' then 1 else 0 end), 0) as games_aborted,
	coalesce(sum(case when status <> 'ABORTED' then total_guesses else 0 end), 0) as total_guesses,
	coalesce(sum(case when status <> 'ABORTED' then score else 0 end), 0) as total_score,
	coalesce(max(case when status <> 'ABORTED' then score end), 0) as best_score,
	coalesce(sum(case when status <> 'ABORTED' then time_seconds else 0 end), 0) as total_time`

type totals struct {
	TotalGames   int
	GamesWon     int
	GamesLost    int
	GamesAborted int
	TotalGuesses int
	TotalScore   float64
	BestScore    float64
	TotalTime    float64
}

func (t totals) finished() int { return t.GamesWon + t.GamesLost }

func (t totals) winRate() float64 {
	if t.finished() == 0 {
		return 0
	}
	return float64(t.GamesWon) / float64(t.finished()) * 100
}

func (t totals) per(v float64) float64 {
	if t.finished() == 0 {
		return 0
	}
	return v / float64(t.finished())
}

// scoped applies the period window to q
func (a *Archive) scoped(q *gorm.DB, period model.StatsPeriod) *gorm.DB {
	if days := period.Days(); days > 0 {
		cutoff := a.now().UTC().Add(-time.Duration(days) * 24 * time.Hour)
		q = q.Where("created_at >= ?", cutoff)
	}
	return q
}

// UserStats aggregates a player's archived games within period
func (a *Archive) UserStats(ctx context.Context, userID string, period model.StatsPeriod) (*model.UserStats, error) {
	var t totals
	q := a.db.WithContext(ctx).Model(&GameRecord{}).Select(totalsSelect).Where("user_id = ?", userID)
	if err := a.scoped(q, period).Scan(&t).Error; err != nil {
		return nil, fmt.Errorf("aggregate user stats: %w", err)
	}

	return &model.UserStats{
		UserID:           userID,
		Period:           period,
		TotalGames:       t.TotalGames,
		GamesWon:         t.GamesWon,
		GamesLost:        t.GamesLost,
		GamesAborted:     t.GamesAborted,
		WinRate:          t.winRate(),
		AvgGuesses:       t.per(float64(t.TotalGuesses)),
		AvgScore:         t.per(t.TotalScore),
		BestScore:        t.BestScore,
		TotalScore:       t.TotalScore,
		TotalTimeSeconds: t.TotalTime,
	}, nil
}

// GlobalStats aggregates every archived game within period
func (a *Archive) GlobalStats(ctx context.Context, period model.StatsPeriod) (*model.GlobalStats, error) {
	var t totals
	q := a.db.WithContext(ctx).Model(&GameRecord{}).Select(totalsSelect)
	if err := a.scoped(q, period).Scan(&t).Error; err != nil {
		return nil, fmt.Errorf("aggregate global stats: %w", err)
	}

	var distinct struct {
		TotalUsers    int
		TotalSessions int
	}
	q = a.db.WithContext(ctx).Model(&GameRecord{}).
		Select("count(distinct user_id) as total_users, count(distinct session_id) as total_sessions")
	if err := a.scoped(q, period).Scan(&distinct).Error; err != nil {
		return nil, fmt.Errorf("count players: %w", err)
	}

	var active []struct {
		UserID string
		Games  int
	}
	q = a.db.WithContext(ctx).Model(&GameRecord{}).Select("user_id, count(*) as games")
	if err := a.scoped(q, period).
		Group("user_id").
		Order("games DESC, user_id ASC").
		Limit(1).
		Scan(&active).Error; err != nil {
		return nil, fmt.Errorf("find most active user: %w", err)
	}

	out := &model.GlobalStats{
		Period:                 period,
		TotalUsers:             distinct.TotalUsers,
		TotalSessions:          distinct.TotalSessions,
		TotalGames:             t.TotalGames,
		GamesWon:               t.GamesWon,
		GamesLost:              t.GamesLost,
		GamesAborted:           t.GamesAborted,
		AvgGameDurationSeconds: t.per(t.TotalTime),
	}
	if len(active) > 0 {
		out.MostActiveUser = active[0].UserID
	}
	return out, nil
}

// Leaderboard ranks players by metric over their WON and LOST games within
// period. Ties are broken by user ID so ranks are stable.
func (a *Archive) Leaderboard(ctx context.Context, period model.StatsPeriod, metric model.LeaderboardMetric, limit int) ([]model.LeaderboardEntry, error) {
	if limit <= 0 {
		limit = model.DefaultLeaderboardLimit
	}
	limit = min(limit, model.MaxLeaderboardLimit)

	var rows []struct {
		UserID     string
		TotalGames int
		GamesWon   int
		TotalScore float64
	}
	q := a.db.WithContext(ctx).Model(&GameRecord{}).
		Select(`user_id, count(*) as total_games,
			coalesce(sum(case when status = 'WON' then 1 else 0 end), 0) as games_won,
			coalesce(sum(score), 0) as total_score`).
		Where("status IN ?", []string{string(model.GameStatusWon), string(model.GameStatusLost)})
	if err := a.scoped(q, period).Group("user_id").Scan(&rows).Error; err != nil {
		return nil, fmt.Errorf("aggregate leaderboard: %w", err)
	}

	entries := make([]model.LeaderboardEntry, 0, len(rows))
	for _, r := range rows {
		e := model.LeaderboardEntry{
			UserID:     r.UserID,
			TotalGames: r.TotalGames,
			GamesWon:   r.GamesWon,
			TotalScore: r.TotalScore,
		}
		if r.TotalGames > 0 {
			e.WinRate = float64(r.GamesWon) / float64(r.TotalGames) * 100
			e.AvgScore = r.TotalScore / float64(r.TotalGames)
		}
		entries = append(entries, e)
	}

	slices.SortStableFunc(entries, func(x, y model.LeaderboardEntry) int {
		var c int
		switch metric {
		case model.MetricWinRate:
			c = cmp.Or(cmp.Compare(y.WinRate, x.WinRate), cmp.Compare(y.TotalGames, x.TotalGames))
		case model.MetricTotalGames:
			c = cmp.Compare(y.TotalGames, x.TotalGames)
		default:
			c = cmp.Compare(y.TotalScore, x.TotalScore)
		}
		return cmp.Or(c, strings.Compare(x.UserID, y.UserID))
	})

	if len(entries) > limit {
		entries = entries[:limit]
	}
	for i := range entries {
		entries[i].Rank = i + 1
	}
	return entries, nil
}
