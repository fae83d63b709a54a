package memory

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/forgo/hangman/api/internal/model"
	"github.com/forgo/hangman/api/internal/service"
)

var (
	_ service.UserRepository       = (*UserRepository)(nil)
	_ service.SessionRepository    = (*SessionRepository)(nil)
	_ service.GameRepository       = (*GameRepository)(nil)
	_ service.DictionaryRepository = (*DictionaryRepository)(nil)
	_ service.TokenRepository      = (*TokenRepository)(nil)
)

// ============================================================================
// SessionRepository Tests
// ============================================================================

func TestSessionRepository_CreateAssignsIDAndCopies(t *testing.T) {
	t.Parallel()
	repo := NewSessionRepository()
	ctx := context.Background()

	in := &model.Session{UserID: "u1", NumGames: 3, Status: model.SessionStatusActive}
	created, err := repo.Create(ctx, in)
	require.NoError(t, err)
	assert.NotEmpty(t, created.ID)
	assert.Empty(t, in.ID, "input must not be mutated")

	created.NumGames = 99
	got, err := repo.GetByID(ctx, created.ID)
	require.NoError(t, err)
	assert.Equal(t, 3, got.NumGames, "returned records are copies")
}

func TestSessionRepository_GetMissing_ReturnsNilNil(t *testing.T) {
	t.Parallel()
	got, err := NewSessionRepository().GetByID(context.Background(), "nope")

	assert.NoError(t, err)
	assert.Nil(t, got)
}

func TestSessionRepository_UpdateReturnsNewState(t *testing.T) {
	t.Parallel()
	repo := NewSessionRepository()
	ctx := context.Background()
	s, _ := repo.Create(ctx, &model.Session{UserID: "u1", Status: model.SessionStatusActive})

	status := model.SessionStatusAborted
	now := time.Now()
	updated, err := repo.Update(ctx, s.ID, model.SessionPatch{Status: &status, FinishedAt: &now})

	require.NoError(t, err)
	assert.Equal(t, model.SessionStatusAborted, updated.Status)
	require.NotNil(t, updated.FinishedAt)

	_, err = repo.Update(ctx, "missing", model.SessionPatch{})
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestSessionRepository_CountActiveByUser(t *testing.T) {
	t.Parallel()
	repo := NewSessionRepository()
	ctx := context.Background()

	_, _ = repo.Create(ctx, &model.Session{UserID: "u1", Status: model.SessionStatusActive})
	_, _ = repo.Create(ctx, &model.Session{UserID: "u1", Status: model.SessionStatusCompleted})
	_, _ = repo.Create(ctx, &model.Session{UserID: "u2", Status: model.SessionStatusActive})

	n, err := repo.CountActiveByUser(ctx, "u1")
	require.NoError(t, err)
	assert.Equal(t, 1, n)

	active, _ := repo.ListActive(ctx)
	assert.Len(t, active, 2)

	mine, _ := repo.ListByUser(ctx, "u1")
	assert.Len(t, mine, 2)
}

// ============================================================================
// GameRepository Tests
// ============================================================================

func TestGameRepository_ListBySession_CreationOrder(t *testing.T) {
	t.Parallel()
	repo := NewGameRepository()
	ctx := context.Background()

	for i := 1; i <= 3; i++ {
		_, err := repo.Create(ctx, &model.Game{SessionID: "s1", Index: i})
		require.NoError(t, err)
	}
	_, _ = repo.Create(ctx, &model.Game{SessionID: "s2", Index: 1})

	games, err := repo.ListBySession(ctx, "s1")
	require.NoError(t, err)
	require.Len(t, games, 3)
	for i, g := range games {
		assert.Equal(t, i+1, g.Index)
	}
}

func TestGameRepository_Create_DuplicateIndex(t *testing.T) {
	t.Parallel()
	repo := NewGameRepository()
	ctx := context.Background()

	_, err := repo.Create(ctx, &model.Game{SessionID: "s1", Index: 1})
	require.NoError(t, err)
	_, err = repo.Create(ctx, &model.Game{SessionID: "s1", Index: 1})
	assert.ErrorIs(t, err, ErrDuplicate)

	_, err = repo.Create(ctx, &model.Game{SessionID: "s2", Index: 1})
	assert.NoError(t, err)
}

func TestGameRepository_ListFinishedSince(t *testing.T) {
	t.Parallel()
	repo := NewGameRepository()
	ctx := context.Background()
	base := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)

	finish := func(index int, status model.GameStatus, at time.Time) {
		g, err := repo.Create(ctx, &model.Game{SessionID: "s1", Index: index, Status: model.GameStatusInProgress})
		require.NoError(t, err)
		if status == model.GameStatusInProgress {
			return
		}
		_, err = repo.Update(ctx, g.ID, model.GamePatch{Status: &status, FinishedAt: &at})
		require.NoError(t, err)
	}
	finish(1, model.GameStatusWon, base.Add(2*time.Minute))
	finish(2, model.GameStatusLost, base.Add(time.Minute))
	finish(3, model.GameStatusAborted, base.Add(-time.Minute))
	finish(4, model.GameStatusInProgress, time.Time{})

	games, err := repo.ListFinishedSince(ctx, base)
	require.NoError(t, err)
	require.Len(t, games, 2)
	assert.Equal(t, 2, games[0].Index)
	assert.Equal(t, 1, games[1].Index)

	all, err := repo.ListFinishedSince(ctx, time.Time{})
	require.NoError(t, err)
	assert.Len(t, all, 3)
}

func TestGameRepository_UpdateDoesNotAlias(t *testing.T) {
	t.Parallel()
	repo := NewGameRepository()
	ctx := context.Background()
	g, _ := repo.Create(ctx, &model.Game{SessionID: "s1", Pattern: "***"})

	letters := []string{"a"}
	_, err := repo.Update(ctx, g.ID, model.GamePatch{GuessedLetters: letters})
	require.NoError(t, err)
	letters[0] = "z"

	got, _ := repo.GetByID(ctx, g.ID)
	assert.Equal(t, []string{"a"}, got.GuessedLetters)
}

func TestGameRepository_Guesses_AppendOnlyInOrder(t *testing.T) {
	t.Parallel()
	repo := NewGameRepository()
	ctx := context.Background()
	g, _ := repo.Create(ctx, &model.Game{SessionID: "s1"})

	require.NoError(t, repo.AppendGuess(ctx, &model.Guess{GameID: g.ID, Index: 1, Value: "a"}))
	require.NoError(t, repo.AppendGuess(ctx, &model.Guess{GameID: g.ID, Index: 2, Value: "b"}))
	assert.ErrorIs(t, repo.AppendGuess(ctx, &model.Guess{GameID: "missing"}), ErrNotFound)

	history, err := repo.ListGuesses(ctx, g.ID)
	require.NoError(t, err)
	require.Len(t, history, 2)
	assert.Equal(t, "a", history[0].Value)
	assert.Equal(t, 2, history[1].Index)
}

// ============================================================================
// UserRepository Tests
// ============================================================================

func TestUserRepository_UsernameUnique(t *testing.T) {
	t.Parallel()
	repo := NewUserRepository()
	ctx := context.Background()

	u, err := repo.Create(ctx, &model.User{Username: "ana"})
	require.NoError(t, err)

	_, err = repo.Create(ctx, &model.User{Username: "ana"})
	assert.ErrorIs(t, err, ErrDuplicate)

	byName, err := repo.GetByUsername(ctx, "ana")
	require.NoError(t, err)
	assert.Equal(t, u.ID, byName.ID)

	missing, err := repo.GetByUsername(ctx, "bob")
	assert.NoError(t, err)
	assert.Nil(t, missing)
}

// ============================================================================
// DictionaryRepository Tests
// ============================================================================

func TestDictionaryRepository_SaveUpsertsAndCounts(t *testing.T) {
	t.Parallel()
	repo := NewDictionaryRepository()
	ctx := context.Background()

	_, _ = repo.Save(ctx, &model.Dictionary{ID: "b", Words: []string{"x"}})
	_, _ = repo.Save(ctx, &model.Dictionary{ID: "a", Words: []string{"x", "y"}})
	saved, err := repo.Save(ctx, &model.Dictionary{ID: "b", Words: []string{"x", "y", "z"}})
	require.NoError(t, err)
	assert.Equal(t, 3, saved.WordCount)

	list, _ := repo.List(ctx)
	require.Len(t, list, 2)
	assert.Equal(t, "a", list[0].ID)

	n, _ := repo.Count(ctx)
	assert.Equal(t, 2, n)
}

// ============================================================================
// TokenRepository Tests
// ============================================================================

func TestTokenRepository_RevokeOnce(t *testing.T) {
	t.Parallel()
	repo := NewTokenRepository()
	ctx := context.Background()
	now := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)

	token := &model.RefreshToken{UserID: "u1", TokenHash: "h1", ExpiresAt: now.Add(time.Hour)}
	require.NoError(t, repo.CreateRefreshToken(ctx, token))
	assert.NotEmpty(t, token.ID)
	assert.ErrorIs(t, repo.CreateRefreshToken(ctx, &model.RefreshToken{TokenHash: "h1"}), ErrDuplicate)

	revoked, err := repo.RevokeRefreshToken(ctx, "h1")
	require.NoError(t, err)
	assert.True(t, revoked)

	revoked, err = repo.RevokeRefreshToken(ctx, "h1")
	require.NoError(t, err)
	assert.False(t, revoked, "a token is revoked only once")

	got, err := repo.GetRefreshTokenByHash(ctx, "h1")
	require.NoError(t, err)
	assert.True(t, got.Revoked)

	missing, err := repo.GetRefreshTokenByHash(ctx, "h2")
	require.NoError(t, err)
	assert.Nil(t, missing)
}

func TestTokenRepository_RevokeAllAndExpire(t *testing.T) {
	t.Parallel()
	repo := NewTokenRepository()
	ctx := context.Background()
	now := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)

	require.NoError(t, repo.CreateRefreshToken(ctx, &model.RefreshToken{UserID: "u1", TokenHash: "a", ExpiresAt: now.Add(time.Hour)}))
	require.NoError(t, repo.CreateRefreshToken(ctx, &model.RefreshToken{UserID: "u1", TokenHash: "b", ExpiresAt: now.Add(-time.Hour)}))
	require.NoError(t, repo.CreateRefreshToken(ctx, &model.RefreshToken{UserID: "u2", TokenHash: "c", ExpiresAt: now.Add(time.Hour)}))

	require.NoError(t, repo.RevokeAllUserTokens(ctx, "u1"))
	a, _ := repo.GetRefreshTokenByHash(ctx, "a")
	c, _ := repo.GetRefreshTokenByHash(ctx, "c")
	assert.True(t, a.Revoked)
	assert.False(t, c.Revoked)

	n, err := repo.DeleteExpiredTokens(ctx, now)
	require.NoError(t, err)
	assert.Equal(t, 1, n)
	b, _ := repo.GetRefreshTokenByHash(ctx, "b")
	assert.Nil(t, b)
}
