package repository

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/forgo/hangman/api/internal/database"
	"github.com/forgo/hangman/api/internal/model"
)

// DictionaryRepository handles dictionary data access. Dictionaries keep
// their seed ID as the record key (dictionary:dict_ro_basic) and are
// exposed by the bare key.
type DictionaryRepository struct {
	db database.Database
}

// NewDictionaryRepository creates a new dictionary repository
func NewDictionaryRepository(db database.Database) *DictionaryRepository {
	return &DictionaryRepository{db: db}
}

// Save inserts or replaces a dictionary
func (r *DictionaryRepository) Save(ctx context.Context, dict *model.Dictionary) (*model.Dictionary, error) {
	query := `
		UPSERT type::thing("dictionary", $key) CONTENT {
			name: $name,
			language: $language,
			difficulty: $difficulty,
			active: $active,
			words: $words
		}
	`
	vars := map[string]interface{}{
		"key":        dict.ID,
		"name":       dict.Name,
		"language":   dict.Language,
		"difficulty": string(dict.Difficulty),
		"active":     dict.Active,
		"words":      nonNil(dict.Words),
	}

	result, err := r.db.QueryOne(ctx, query, vars)
	if err != nil {
		return nil, fmt.Errorf("failed to save dictionary: %w", err)
	}
	return parseDictionaryResult(result)
}

// GetByID retrieves a dictionary by its key
func (r *DictionaryRepository) GetByID(ctx context.Context, id string) (*model.Dictionary, error) {
	if id == "" {
		return nil, nil
	}
	result, err := r.db.QueryOne(ctx, `SELECT * FROM type::thing("dictionary", $key)`,
		map[string]interface{}{"key": id})
	if err != nil {
		if errors.Is(err, database.ErrNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return parseDictionaryResult(result)
}

// List returns every dictionary ordered by key
func (r *DictionaryRepository) List(ctx context.Context) ([]*model.Dictionary, error) {
	result, err := r.db.Query(ctx, `SELECT * FROM dictionary ORDER BY id ASC`, nil)
	if err != nil {
		return nil, err
	}

	rows := extractQueryResults(result)
	dicts := make([]*model.Dictionary, 0, len(rows))
	for _, row := range rows {
		d, err := parseDictionaryResult(row)
		if err != nil {
			return nil, err
		}
		dicts = append(dicts, d)
	}
	return dicts, nil
}

// Count returns the number of stored dictionaries
func (r *DictionaryRepository) Count(ctx context.Context) (int, error) {
	return countQuery(ctx, r.db, `SELECT count() FROM dictionary GROUP ALL`, nil)
}

func parseDictionaryResult(result interface{}) (*model.Dictionary, error) {
	data, err := unwrapRecord(result)
	if err != nil {
		return nil, err
	}

	words := getStringSlice(data, "words")
	return &model.Dictionary{
		ID:         strings.TrimPrefix(getID(data, "id"), "dictionary:"),
		Name:       getString(data, "name"),
		Language:   getString(data, "language"),
		Difficulty: model.Difficulty(getString(data, "difficulty")),
		Active:     getBool(data, "active"),
		Words:      words,
		WordCount:  len(words),
	}, nil
}
