// Package database provides SurrealDB connectivity for the Hangman API.
//
// The Database interface abstracts the query calls the repositories make,
// so repositories can be tested against a fake:
//
//	type Database interface {
//	    Query(ctx context.Context, query string, vars map[string]interface{}) ([]interface{}, error)
//	    QueryOne(ctx context.Context, query string, vars map[string]interface{}) (interface{}, error)
//	    Execute(ctx context.Context, query string, vars map[string]interface{}) error
//	    ...
//	}
//
// # Connection Management
//
//	db := database.NewSurrealDB(database.Config{
//	    Host:      "localhost",
//	    Port:      "8000",
//	    User:      "root",
//	    Password:  "root",
//	    Namespace: "hangman",
//	    Database:  "hangman",
//	})
//	if err := db.Connect(ctx); err != nil {
//	    return err
//	}
//	defer db.Close()
//	if err := database.ApplySchema(ctx, db); err != nil {
//	    return err
//	}
//
// # Transactions
//
// AtomicBatch accumulates statements and sends them in one
// BEGIN/COMMIT TRANSACTION block. There is no isolation between Add calls;
// all statements succeed or fail together at Execute time.
//
// # Error Types
//
//   - ErrNotFound: Record does not exist
//   - ErrDuplicate: Unique index violation
//   - ErrConnection: Database connection failed
//   - ErrQuery: Query execution failed
package database
