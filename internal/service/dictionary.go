package service

import (
	"context"
	_ "embed"
	"errors"
	"fmt"
	"os"
	"strings"
	"unicode"
	"unicode/utf8"

	"github.com/samber/lo"
	"golang.org/x/text/cases"
	"golang.org/x/text/unicode/norm"
	"gopkg.in/yaml.v3"

	"github.com/forgo/hangman/api/internal/model"
)

//go:embed dictionaries/default.yaml
var defaultDictionaries []byte

// dictionaryFile is the YAML layout of a dictionary seed file
type dictionaryFile struct {
	Dictionaries []*model.Dictionary `yaml:"dictionaries"`
}

// Word length bands per difficulty, in runes
const (
	easyMaxLength   = 6
	normalMinLength = 5
	normalMaxLength = 8
	hardMinLength   = 8
)

// DictionaryService reads word lists and seeds them into storage
type DictionaryService struct {
	repo DictionaryRepository
}

// NewDictionaryService creates a new dictionary service
func NewDictionaryService(repo DictionaryRepository) *DictionaryService {
	return &DictionaryService{repo: repo}
}

// List returns every active dictionary
func (s *DictionaryService) List(ctx context.Context) ([]*model.Dictionary, error) {
	dicts, err := s.repo.List(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to list dictionaries: %w", err)
	}
	return lo.Filter(dicts, func(d *model.Dictionary, _ int) bool {
		return d.Active
	}), nil
}

// Get returns one dictionary by ID
func (s *DictionaryService) Get(ctx context.Context, id string) (*model.Dictionary, error) {
	dict, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("failed to get dictionary: %w", err)
	}
	if dict == nil {
		return nil, ErrDictionaryNotFound
	}
	return dict, nil
}

// Seed cleans and stores the given dictionaries, replacing any stored
// dictionary with the same ID.
func (s *DictionaryService) Seed(ctx context.Context, dicts []*model.Dictionary) error {
	for _, d := range dicts {
		if err := PrepareDictionary(d); err != nil {
			return fmt.Errorf("dictionary %q: %w", d.ID, err)
		}
		if _, err := s.repo.Save(ctx, d); err != nil {
			return fmt.Errorf("failed to save dictionary %q: %w", d.ID, err)
		}
	}
	return nil
}

// SeedDefaults loads the dictionaries from path, or the built-in set when
// path is empty.
func (s *DictionaryService) SeedDefaults(ctx context.Context, path string) (int, error) {
	var dicts []*model.Dictionary
	var err error
	if path == "" {
		dicts, err = DefaultDictionaries()
	} else {
		dicts, err = LoadDictionaryFile(path)
	}
	if err != nil {
		return 0, err
	}
	if err := s.Seed(ctx, dicts); err != nil {
		return 0, err
	}
	return len(dicts), nil
}

// DefaultDictionaries decodes the built-in dictionary set
func DefaultDictionaries() ([]*model.Dictionary, error) {
	return ParseDictionaries(defaultDictionaries)
}

// LoadDictionaryFile reads a YAML dictionary seed file
func LoadDictionaryFile(path string) ([]*model.Dictionary, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read dictionary file: %w", err)
	}
	return ParseDictionaries(data)
}

// ParseDictionaries decodes a YAML dictionary seed document
func ParseDictionaries(data []byte) ([]*model.Dictionary, error) {
	var file dictionaryFile
	if err := yaml.Unmarshal(data, &file); err != nil {
		return nil, fmt.Errorf("failed to parse dictionary file: %w", err)
	}
	return file.Dictionaries, nil
}

// PrepareDictionary trims, lower-cases and de-duplicates the words of d,
// drops words containing anything but letters, and checks the result is
// large enough to play with.
func PrepareDictionary(d *model.Dictionary) error {
	if strings.TrimSpace(d.ID) == "" {
		return errors.New("dictionary id is required")
	}
	if d.Language == "" {
		d.Language = model.LanguageRomanian
	}
	if d.Difficulty == "" {
		d.Difficulty = model.DifficultyAuto
	}
	lower := cases.Lower(languageTag(d.Language))
	words := lo.FilterMap(d.Words, func(w string, _ int) (string, bool) {
		w = norm.NFC.String(lower.String(strings.TrimSpace(w)))
		return w, isPlayableWord(w)
	})
	d.Words = lo.Uniq(words)
	d.WordCount = len(d.Words)
	if d.WordCount < model.MinDictionaryWords {
		return ErrDictionaryTooSmall
	}
	return nil
}

func isPlayableWord(w string) bool {
	if w == "" {
		return false
	}
	for _, r := range w {
		if !unicode.IsLetter(r) {
			return false
		}
	}
	return true
}

// wordsForDifficulty keeps the words whose length suits difficulty. When no
// word fits the band every word is returned.
func wordsForDifficulty(words []string, difficulty model.Difficulty) []string {
	var fits func(n int) bool
	switch difficulty {
	case model.DifficultyEasy:
		fits = func(n int) bool { return n <= easyMaxLength }
	case model.DifficultyNormal:
		fits = func(n int) bool { return n >= normalMinLength && n <= normalMaxLength }
	case model.DifficultyHard:
		fits = func(n int) bool { return n >= hardMinLength }
	default:
		return words
	}
	banded := lo.Filter(words, func(w string, _ int) bool {
		return fits(utf8.RuneCountInString(w))
	})
	if len(banded) == 0 {
		return words
	}
	return banded
}
