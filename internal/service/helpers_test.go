package service

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/forgo/hangman/api/internal/model"
	"github.com/forgo/hangman/api/internal/repository/memory"
)

// ============================================================================
// Shared Fixtures
// ============================================================================

var testEpoch = time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)

// fixedClock returns a clock frozen at t that tests can move forward
type fixedClock struct {
	mu sync.Mutex
	t  time.Time
}

func (c *fixedClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.t
}

func (c *fixedClock) Advance(d time.Duration) {
	c.mu.Lock()
	c.t = c.t.Add(d)
	c.mu.Unlock()
}

// recordingNotifier keeps every published event
type recordingNotifier struct {
	mu     sync.Mutex
	events []*Event
}

func (n *recordingNotifier) Publish(event *Event) {
	n.mu.Lock()
	n.events = append(n.events, event)
	n.mu.Unlock()
}

func (n *recordingNotifier) ofType(t EventType) []*Event {
	n.mu.Lock()
	defer n.mu.Unlock()
	var out []*Event
	for _, e := range n.events {
		if e.Type == t {
			out = append(out, e)
		}
	}
	return out
}

type engine struct {
	sessions     *memory.SessionRepository
	games        *memory.GameRepository
	dictionaries *memory.DictionaryRepository
	notifier     *recordingNotifier
	clock        *fixedClock
	sessionSvc   *SessionService
	gameSvc      *GameService
}

type engineOption func(*SessionServiceConfig)

// newEngine wires session and game services over memory repositories.
// Dictionary "single" holds only "python"; "basic" holds twelve words.
func newEngine(t *testing.T, opts ...engineOption) *engine {
	t.Helper()
	e := &engine{
		sessions:     memory.NewSessionRepository(),
		games:        memory.NewGameRepository(),
		dictionaries: memory.NewDictionaryRepository(),
		notifier:     &recordingNotifier{},
		clock:        &fixedClock{t: testEpoch},
	}

	ctx := context.Background()
	if _, err := e.dictionaries.Save(ctx, &model.Dictionary{
		ID: "single", Language: model.LanguageEnglish, Active: true, Words: []string{"python"},
	}); err != nil {
		t.Fatal(err)
	}
	if _, err := e.dictionaries.Save(ctx, &model.Dictionary{
		ID: "basic", Language: model.LanguageEnglish, Active: true,
		Words: []string{"apple", "banana", "cherry", "grape", "lemon", "mango", "melon", "olive", "peach", "pear", "plum", "python"},
	}); err != nil {
		t.Fatal(err)
	}

	locks := NewEntityLocks()
	cfg := SessionServiceConfig{
		SessionRepo:         e.sessions,
		GameRepo:            e.games,
		DictionaryRepo:      e.dictionaries,
		Notifier:            e.notifier,
		Locks:               locks,
		DefaultDictionaryID: "basic",
		Now:                 e.clock.Now,
	}
	for _, opt := range opts {
		opt(&cfg)
	}
	e.sessionSvc = NewSessionService(cfg)
	e.gameSvc = NewGameService(GameServiceConfig{
		SessionRepo:         e.sessions,
		GameRepo:            e.games,
		DictionaryRepo:      e.dictionaries,
		Notifier:            e.notifier,
		Locks:               locks,
		DefaultDictionaryID: "basic",
		Now:                 e.clock.Now,
	})
	return e
}

func (e *engine) newSession(t *testing.T, userID string, req *model.CreateSessionRequest) *model.Session {
	t.Helper()
	s, err := e.sessionSvc.Create(context.Background(), userID, req)
	if err != nil {
		t.Fatalf("create session: %v", err)
	}
	return s
}

func (e *engine) newGame(t *testing.T, sessionID, userID string) *model.Game {
	t.Helper()
	g, err := e.gameSvc.Create(context.Background(), sessionID, userID)
	if err != nil {
		t.Fatalf("create game: %v", err)
	}
	return g
}

func (e *engine) secret(t *testing.T, gameID string) string {
	t.Helper()
	g, err := e.games.GetByID(context.Background(), gameID)
	if err != nil || g == nil {
		t.Fatalf("load game %s: %v", gameID, err)
	}
	return g.Secret
}

func (e *engine) session(t *testing.T, sessionID string) *model.Session {
	t.Helper()
	s, err := e.sessions.GetByID(context.Background(), sessionID)
	if err != nil || s == nil {
		t.Fatalf("load session %s: %v", sessionID, err)
	}
	return s
}

func intPtr(n int) *int       { return &n }
func int64Ptr(n int64) *int64 { return &n }
func boolPtr(b bool) *bool    { return &b }
