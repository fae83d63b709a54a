// Package memory provides in-process implementations of the repository
// contracts declared in the service package. Every method copies records
// in and out, so callers never share mutable state with the store.
//
// The memory store is the default backend for development and tests; the
// SurrealDB repositories in the parent package are used in production.
package memory
