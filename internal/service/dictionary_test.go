package service

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/forgo/hangman/api/internal/model"
	"github.com/forgo/hangman/api/internal/repository/memory"
)

func tenWords() []string {
	return []string{"alpha", "bravo", "charlie", "delta", "echo", "foxtrot", "golf", "hotel", "india", "juliet"}
}

func TestPrepareDictionary_CleansWords(t *testing.T) {
	t.Parallel()
	d := &model.Dictionary{
		ID:    "nato",
		Words: append(tenWords(), " ALPHA ", "Bravo", "two words", "r2d2", ""),
	}

	require.NoError(t, PrepareDictionary(d))
	assert.Equal(t, tenWords(), d.Words)
	assert.Equal(t, 10, d.WordCount)
	assert.Equal(t, model.LanguageRomanian, d.Language)
	assert.Equal(t, model.DifficultyAuto, d.Difficulty)
}

func TestPrepareDictionary_Rejections(t *testing.T) {
	t.Parallel()

	err := PrepareDictionary(&model.Dictionary{ID: "tiny", Words: []string{"a", "b"}})
	assert.ErrorIs(t, err, ErrDictionaryTooSmall)

	// duplicates do not count toward the minimum
	dupes := &model.Dictionary{ID: "dupes", Words: append(tenWords()[:9], "alpha", "ALPHA")}
	assert.ErrorIs(t, PrepareDictionary(dupes), ErrDictionaryTooSmall)

	assert.Error(t, PrepareDictionary(&model.Dictionary{ID: " ", Words: tenWords()}))
}

func TestDictionaryService_SeedAndList(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	repo := memory.NewDictionaryRepository()
	svc := NewDictionaryService(repo)

	require.NoError(t, svc.Seed(ctx, []*model.Dictionary{
		{ID: "on", Language: model.LanguageEnglish, Active: true, Words: tenWords()},
		{ID: "off", Language: model.LanguageEnglish, Active: false, Words: tenWords()},
	}))

	dicts, err := svc.List(ctx)
	require.NoError(t, err)
	require.Len(t, dicts, 1)
	assert.Equal(t, "on", dicts[0].ID)

	got, err := svc.Get(ctx, "off")
	require.NoError(t, err)
	assert.False(t, got.Active)

	_, err = svc.Get(ctx, "missing")
	assert.True(t, errors.Is(err, ErrDictionaryNotFound))

	err = svc.Seed(ctx, []*model.Dictionary{{ID: "small", Words: []string{"one"}}})
	assert.ErrorIs(t, err, ErrDictionaryTooSmall)
}

func TestDictionaryService_SeedDefaults(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	repo := memory.NewDictionaryRepository()
	svc := NewDictionaryService(repo)

	n, err := svc.SeedDefaults(ctx, "")
	require.NoError(t, err)
	assert.Positive(t, n)

	d, err := svc.Get(ctx, model.DefaultDictionaryID)
	require.NoError(t, err)
	assert.Equal(t, model.LanguageRomanian, d.Language)
	assert.GreaterOrEqual(t, d.WordCount, model.MinDictionaryWords)
}

func TestDictionaryService_SeedDefaultsFromFile(t *testing.T) {
	t.Parallel()
	path := filepath.Join(t.TempDir(), "dicts.yaml")
	content := "dictionaries:\n" +
		"  - id: nato\n" +
		"    name: NATO\n" +
		"    language: en\n" +
		"    active: true\n" +
		"    words: [alpha, bravo, charlie, delta, echo, foxtrot, golf, hotel, india, juliet, kilo]\n"
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))

	svc := NewDictionaryService(memory.NewDictionaryRepository())
	n, err := svc.SeedDefaults(context.Background(), path)
	require.NoError(t, err)
	assert.Equal(t, 1, n)

	d, err := svc.Get(context.Background(), "nato")
	require.NoError(t, err)
	assert.Equal(t, 11, d.WordCount)
	assert.Equal(t, "NATO", d.Name)

	_, err = svc.SeedDefaults(context.Background(), filepath.Join(t.TempDir(), "missing.yaml"))
	assert.Error(t, err)
}

func TestParseDictionaries_Malformed(t *testing.T) {
	t.Parallel()
	_, err := ParseDictionaries([]byte("dictionaries: [unclosed"))
	assert.Error(t, err)
}

func TestWordsForDifficulty(t *testing.T) {
	t.Parallel()
	words := []string{"mar", "casa", "fereastră", "python", "programare", "student"}

	tests := []struct {
		difficulty model.Difficulty
		want       []string
	}{
		{model.DifficultyAuto, words},
		{model.DifficultyEasy, []string{"mar", "casa", "python"}},
		{model.DifficultyNormal, []string{"python", "student"}},
		{model.DifficultyHard, []string{"fereastră", "programare"}},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, wordsForDifficulty(words, tt.difficulty), "difficulty %s", tt.difficulty)
	}

	// nothing fits the band, so every word stays in play
	assert.Equal(t, []string{"mar"}, wordsForDifficulty([]string{"mar"}, model.DifficultyHard))
}
