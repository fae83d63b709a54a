package database

import (
	"context"
	"fmt"
)

// schema defines the tables and indexes the repositories rely on. Tables
// are schemaless; the indexes carry the uniqueness and lookup paths.
var schema = []string{
	`DEFINE TABLE IF NOT EXISTS user SCHEMALESS`,
	`DEFINE INDEX IF NOT EXISTS user_username ON user FIELDS username UNIQUE`,

	`DEFINE TABLE IF NOT EXISTS session SCHEMALESS`,
	`DEFINE INDEX IF NOT EXISTS session_user ON session FIELDS user_id`,
	`DEFINE INDEX IF NOT EXISTS session_status ON session FIELDS status`,

	`DEFINE TABLE IF NOT EXISTS game SCHEMALESS`,
	`DEFINE INDEX IF NOT EXISTS game_session ON game FIELDS session_id, game_index UNIQUE`,
	`DEFINE INDEX IF NOT EXISTS game_finished ON game FIELDS finished_at`,

	`DEFINE TABLE IF NOT EXISTS guess SCHEMALESS`,
	`DEFINE INDEX IF NOT EXISTS guess_game ON guess FIELDS game_id, seq UNIQUE`,

	`DEFINE TABLE IF NOT EXISTS dictionary SCHEMALESS`,

	`DEFINE TABLE IF NOT EXISTS refresh_token SCHEMALESS`,
	`DEFINE INDEX IF NOT EXISTS refresh_token_hash ON refresh_token FIELDS token_hash UNIQUE`,
	`DEFINE INDEX IF NOT EXISTS refresh_token_user ON refresh_token FIELDS user_id`,
}

// SchemaBatch returns the schema statements as one atomic batch
func SchemaBatch() *AtomicBatch {
	batch := NewAtomicBatch()
	for _, stmt := range schema {
		batch.Add(stmt, nil)
	}
	return batch
}

// ApplySchema defines every table and index in one transaction. It is safe
// to run on every start.
func ApplySchema(ctx context.Context, db Database) error {
	if err := SchemaBatch().Execute(ctx, db); err != nil {
		return fmt.Errorf("failed to apply schema: %w", err)
	}
	return nil
}
