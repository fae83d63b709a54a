package model

// MinDictionaryWords is the smallest word list a dictionary may carry
const MinDictionaryWords = 10

// Dictionary is a named word list the game engine draws secrets from
type Dictionary struct {
	ID         string     `json:"dictionary_id" yaml:"id"`
	Name       string     `json:"name" yaml:"name"`
	Language   string     `json:"language" yaml:"language"`
	Difficulty Difficulty `json:"difficulty,omitempty" yaml:"difficulty"`
	Active     bool       `json:"active" yaml:"active"`
	Words      []string   `json:"-" yaml:"words"`
	WordCount  int        `json:"word_count" yaml:"-"`
}
