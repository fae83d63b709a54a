// Package repository implements the SurrealDB data access layer for the
// Hangman API.
//
// Each repository struct satisfies one of the storage interfaces declared
// in the service package. The memory subpackage provides the same
// contracts without a database.
//
// # Repository Pattern
//
// All repositories follow a consistent pattern:
//
//   - Constructor function (NewXxxRepository) accepts a database connection
//   - GetBy* methods return (nil, nil) when the record does not exist
//   - Update methods write only the patched fields and RETURN AFTER
//   - Results are parsed from generic maps into model structs
//
// # Record IDs
//
// IDs are full SurrealDB record IDs ("game:abc123"). A lookup with an ID
// from another table misses without querying. Dictionaries are the
// exception: they are keyed by their seed ID and exposed without the
// table prefix.
//
// # Timestamps
//
// Times are sent as models.CustomDateTime so they are stored as datetimes
// rather than strings, and parsed back from either form.
//
// # Example Usage
//
//	repo := NewGameRepository(db)
//	game, err := repo.GetByID(ctx, "game:abc123")
//	if err != nil {
//	    return err
//	}
//	if game == nil {
//	    // Handle not found
//	}
package repository
