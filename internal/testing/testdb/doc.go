// Package testdb provides isolated SurrealDB databases for integration
// tests of the repository layer.
//
// Tests that call New are skipped unless TEST_DB_HOST is set, so the
// default test run needs no database:
//
//	TEST_DB_HOST=localhost go test ./internal/repository/...
//
// Each TestDB gets its own namespace with the schema applied, and Close
// removes the namespace again:
//
//	func TestSomething(t *testing.T) {
//	    tdb := testdb.New(t)
//	    defer tdb.Close()
//
//	    repo := repository.NewGameRepository(tdb.DB)
//	}
//
// Connection settings come from TEST_DB_HOST, TEST_DB_PORT (default 8000),
// TEST_DB_USER and TEST_DB_PASSWORD (both default root).
package testdb
