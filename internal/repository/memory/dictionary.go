package memory

import (
	"context"
	"sort"
	"sync"

	"github.com/forgo/hangman/api/internal/model"
)

// DictionaryRepository keeps dictionaries in process memory
type DictionaryRepository struct {
	mu    sync.RWMutex
	dicts map[string]*model.Dictionary
}

// NewDictionaryRepository creates an empty dictionary repository
func NewDictionaryRepository() *DictionaryRepository {
	return &DictionaryRepository{dicts: make(map[string]*model.Dictionary)}
}

func cloneDictionary(d *model.Dictionary) *model.Dictionary {
	c := *d
	c.Words = append([]string(nil), d.Words...)
	c.WordCount = len(c.Words)
	return &c
}

// Save inserts or replaces a dictionary
func (r *DictionaryRepository) Save(_ context.Context, dict *model.Dictionary) (*model.Dictionary, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	stored := cloneDictionary(dict)
	r.dicts[stored.ID] = stored
	return cloneDictionary(stored), nil
}

// GetByID retrieves a dictionary by ID
func (r *DictionaryRepository) GetByID(_ context.Context, id string) (*model.Dictionary, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	d, ok := r.dicts[id]
	if !ok {
		return nil, nil
	}
	return cloneDictionary(d), nil
}

// List returns every dictionary ordered by ID
func (r *DictionaryRepository) List(_ context.Context) ([]*model.Dictionary, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	out := make([]*model.Dictionary, 0, len(r.dicts))
	for _, d := range r.dicts {
		out = append(out, cloneDictionary(d))
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

// Count returns the number of stored dictionaries
func (r *DictionaryRepository) Count(_ context.Context) (int, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.dicts), nil
}
