// Package stats archives finished games into a relational database and
// aggregates player statistics from the archive.
//
// The archive is written through gorm so it can run on an embedded sqlite
// file during development and on PostgreSQL in production:
//
//	db, err := stats.Open(stats.DriverSQLite, "hangman-stats.db")
//	archive := stats.NewArchive(db, nil)
//	if err := archive.AutoMigrate(ctx); err != nil {
//	    return err
//	}
//
// Rows are immutable. Record ignores games that are still in progress and
// games that were archived before, so replaying completion events is safe.
//
// Periods ("1d", "7d", "30d") select games created within the trailing
// window; "all" applies no window. Win rates are percentages of WON and
// LOST games; aborted games count toward totals only.
package stats
