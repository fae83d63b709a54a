package database

import (
	"context"
	"fmt"
	"net"
	"sync"

	"github.com/surrealdb/surrealdb.go"
)

const statusOK = "OK"

// SurrealDB is the websocket-backed Database used by the repositories.
// The connection may be closed while queries are in flight; later calls
// fail with ErrConnection.
type SurrealDB struct {
	cfg Config

	mu   sync.RWMutex
	conn *surrealdb.DB
}

// NewSurrealDB returns an unconnected store for cfg
func NewSurrealDB(cfg Config) *SurrealDB {
	return &SurrealDB{cfg: cfg}
}

// Endpoint is the websocket URL Connect dials
func (s *SurrealDB) Endpoint() string {
	return "ws://" + net.JoinHostPort(s.cfg.Host, s.cfg.Port)
}

// Connect dials the server, signs in as the configured root user and
// scopes the connection to the hangman namespace and database
func (s *SurrealDB) Connect(ctx context.Context) error {
	conn, err := surrealdb.FromEndpointURLString(ctx, s.Endpoint())
	if err != nil {
		return fmt.Errorf("%w: dial %s: %v", ErrConnection, s.Endpoint(), err)
	}

	if err := s.authenticate(ctx, conn); err != nil {
		_ = conn.Close(ctx)
		return err
	}

	s.mu.Lock()
	previous := s.conn
	s.conn = conn
	s.mu.Unlock()

	if previous != nil {
		_ = previous.Close(ctx)
	}
	return nil
}

func (s *SurrealDB) authenticate(ctx context.Context, conn *surrealdb.DB) error {
	creds := &surrealdb.Auth{Username: s.cfg.User, Password: s.cfg.Password}
	if _, err := conn.SignIn(ctx, creds); err != nil {
		return fmt.Errorf("%w: sign in as %q: %v", ErrConnection, s.cfg.User, err)
	}
	if err := conn.Use(ctx, s.cfg.Namespace, s.cfg.Database); err != nil {
		return fmt.Errorf("%w: use %s/%s: %v", ErrConnection, s.cfg.Namespace, s.cfg.Database, err)
	}
	return nil
}

// Close drops the connection. Closing twice is a no-op.
func (s *SurrealDB) Close() error {
	s.mu.Lock()
	conn := s.conn
	s.conn = nil
	s.mu.Unlock()

	if conn == nil {
		return nil
	}
	return conn.Close(context.Background())
}

// Ping asks the server for its version
func (s *SurrealDB) Ping(ctx context.Context) error {
	conn, err := s.current()
	if err != nil {
		return err
	}
	if _, err := conn.Version(ctx); err != nil {
		return fmt.Errorf("%w: version: %v", ErrConnection, err)
	}
	return nil
}

func (s *SurrealDB) current() (*surrealdb.DB, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.conn == nil {
		return nil, fmt.Errorf("%w: not connected", ErrConnection)
	}
	return s.conn, nil
}

// Query runs every statement of query and returns one
// {"status": "OK", "result": ...} map per statement. The first failed
// statement fails the whole call with ErrQuery.
func (s *SurrealDB) Query(ctx context.Context, query string, vars map[string]interface{}) ([]interface{}, error) {
	conn, err := s.current()
	if err != nil {
		return nil, err
	}

	statements, err := surrealdb.Query[interface{}](ctx, conn, query, vars)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrQuery, err)
	}
	if statements == nil {
		return nil, nil
	}

	out := make([]interface{}, len(*statements))
	for i, st := range *statements {
		if st.Status != statusOK {
			reason := st.Status
			if st.Error != nil {
				reason = st.Error.Message
			}
			return nil, fmt.Errorf("%w: statement %d: %s", ErrQuery, i+1, reason)
		}
		out[i] = map[string]interface{}{"status": st.Status, "result": st.Result}
	}
	return out, nil
}

// QueryOne returns the first record of the first statement
func (s *SurrealDB) QueryOne(ctx context.Context, query string, vars map[string]interface{}) (interface{}, error) {
	results, err := s.Query(ctx, query, vars)
	if err != nil {
		return nil, err
	}
	return FirstRecord(results)
}

// Execute runs query for its side effects
func (s *SurrealDB) Execute(ctx context.Context, query string, vars map[string]interface{}) error {
	_, err := s.Query(ctx, query, vars)
	return err
}

// FirstRecord picks the first record out of the first statement's result.
// Scalar results such as a count are returned unchanged; an empty record
// list is ErrNotFound.
func FirstRecord(results []interface{}) (interface{}, error) {
	if len(results) == 0 {
		return nil, ErrNotFound
	}

	stmt, ok := results[0].(map[string]interface{})
	if !ok || stmt["status"] != statusOK {
		return results[0], nil
	}

	switch rows := stmt["result"].(type) {
	case []interface{}:
		if len(rows) == 0 {
			return nil, ErrNotFound
		}
		return rows[0], nil
	default:
		return rows, nil
	}
}
