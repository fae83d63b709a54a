package memory

import (
	"cmp"
	"context"
	"slices"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/forgo/hangman/api/internal/model"
)

// GameRepository keeps games and their guess history in process memory
type GameRepository struct {
	mu        sync.RWMutex
	games     map[string]*model.Game
	bySession map[string][]string
	guesses   map[string][]model.Guess
}

// NewGameRepository creates an empty game repository
func NewGameRepository() *GameRepository {
	return &GameRepository{
		games:     make(map[string]*model.Game),
		bySession: make(map[string][]string),
		guesses:   make(map[string][]model.Guess),
	}
}

// Create stores a new game and assigns its ID. A session holds at most
// one game per index.
func (r *GameRepository) Create(_ context.Context, game *model.Game) (*model.Game, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	for _, id := range r.bySession[game.SessionID] {
		if r.games[id].Index == game.Index {
			return nil, ErrDuplicate
		}
	}

	stored := game.Clone()
	if stored.ID == "" {
		stored.ID = uuid.NewString()
	}
	r.games[stored.ID] = stored
	r.bySession[stored.SessionID] = append(r.bySession[stored.SessionID], stored.ID)
	return stored.Clone(), nil
}

// GetByID retrieves a game by ID
func (r *GameRepository) GetByID(_ context.Context, id string) (*model.Game, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	g, ok := r.games[id]
	if !ok {
		return nil, nil
	}
	return g.Clone(), nil
}

// Update applies patch and returns the new state
func (r *GameRepository) Update(_ context.Context, id string, patch model.GamePatch) (*model.Game, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	g, ok := r.games[id]
	if !ok {
		return nil, ErrNotFound
	}
	patch.Apply(g)
	return g.Clone(), nil
}

// ListBySession returns a session's games in creation order
func (r *GameRepository) ListBySession(_ context.Context, sessionID string) ([]*model.Game, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	ids := r.bySession[sessionID]
	out := make([]*model.Game, 0, len(ids))
	for _, id := range ids {
		out = append(out, r.games[id].Clone())
	}
	return out, nil
}

// ListFinishedSince returns terminal games finished at or after since
func (r *GameRepository) ListFinishedSince(_ context.Context, since time.Time) ([]*model.Game, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	var out []*model.Game
	for _, g := range r.games {
		if !g.Status.IsTerminal() || g.FinishedAt == nil || g.FinishedAt.Before(since) {
			continue
		}
		out = append(out, g.Clone())
	}
	slices.SortFunc(out, func(a, b *model.Game) int {
		if c := a.FinishedAt.Compare(*b.FinishedAt); c != 0 {
			return c
		}
		return cmp.Compare(a.ID, b.ID)
	})
	return out, nil
}

// Count returns the number of stored games
func (r *GameRepository) Count(_ context.Context) (int, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.games), nil
}

// AppendGuess adds a guess to the end of a game's history
func (r *GameRepository) AppendGuess(_ context.Context, guess *model.Guess) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, ok := r.games[guess.GameID]; !ok {
		return ErrNotFound
	}
	r.guesses[guess.GameID] = append(r.guesses[guess.GameID], *guess)
	return nil
}

// ListGuesses returns a game's guesses, oldest first
func (r *GameRepository) ListGuesses(_ context.Context, gameID string) ([]*model.Guess, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	history := r.guesses[gameID]
	out := make([]*model.Guess, len(history))
	for i := range history {
		g := history[i]
		out[i] = &g
	}
	return out, nil
}
