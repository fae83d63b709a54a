package model

import (
	"strings"
	"time"
)

// GameStatus is the lifecycle state of a game
type GameStatus string

const (
	GameStatusInProgress GameStatus = "IN_PROGRESS"
	GameStatusWon        GameStatus = "WON"
	GameStatusLost       GameStatus = "LOST"
	GameStatusAborted    GameStatus = "ABORTED"
)

// IsTerminal reports whether the game has finished
func (s GameStatus) IsTerminal() bool {
	return s == GameStatusWon || s == GameStatusLost || s == GameStatusAborted
}

// PatternPlaceholder marks an unrevealed cell of the pattern
const PatternPlaceholder = '*'

// Game is one round played inside a session
type Game struct {
	ID               string     `json:"game_id"`
	SessionID        string     `json:"session_id"`
	UserID           string     `json:"user_id"`
	Index            int        `json:"index"`
	Secret           string     `json:"secret,omitempty"`
	Language         string     `json:"language"`
	Pattern          string     `json:"pattern"`
	GuessedLetters   []string   `json:"guessed_letters"`
	WrongLetters     []string   `json:"wrong_letters"`
	MaxMisses        int        `json:"max_misses"`
	RemainingMisses  int        `json:"remaining_misses"`
	TotalGuesses     int        `json:"total_guesses"`
	WrongWordGuesses int        `json:"wrong_word_guesses"`
	Status           GameStatus `json:"status"`
	CreatedAt        time.Time  `json:"created_at"`
	FinishedAt       *time.Time `json:"finished_at,omitempty"`
	TimeSeconds      float64    `json:"time_seconds"`
	Score            float64    `json:"composite_score"`
}

// Length is the number of characters in the secret word
func (g *Game) Length() int {
	return len([]rune(g.Pattern))
}

// Revealed reports whether the pattern has no placeholder cells left
func (g *Game) Revealed() bool {
	return !strings.ContainsRune(g.Pattern, PatternPlaceholder)
}

// Clone returns a deep copy of the game
func (g *Game) Clone() *Game {
	c := *g
	c.GuessedLetters = append([]string(nil), g.GuessedLetters...)
	c.WrongLetters = append([]string(nil), g.WrongLetters...)
	if g.FinishedAt != nil {
		t := *g.FinishedAt
		c.FinishedAt = &t
	}
	return &c
}

// Redacted returns a copy with the secret removed while the game is still
// being played.
func (g *Game) Redacted() *Game {
	c := g.Clone()
	if !c.Status.IsTerminal() {
		c.Secret = ""
	}
	return c
}

// GuessKind distinguishes letter guesses from whole-word guesses
type GuessKind string

const (
	GuessKindLetter GuessKind = "LETTER"
	GuessKindWord   GuessKind = "WORD"
)

// Guess is one append-only entry in a game's history
type Guess struct {
	GameID       string    `json:"game_id"`
	Index        int       `json:"index"`
	Kind         GuessKind `json:"type"`
	Value        string    `json:"value"`
	Correct      bool      `json:"correct"`
	PatternAfter string    `json:"pattern_after"`
	Timestamp    time.Time `json:"timestamp"`
}

// GuessRequest represents a letter or word guess submitted by a player
type GuessRequest struct {
	Letter string `json:"letter,omitempty"`
	Word   string `json:"word,omitempty"`
}

// GuessResult is returned after a guess has been applied
type GuessResult struct {
	Game  *Game  `json:"game"`
	Guess *Guess `json:"guess"`
}

// GamePatch describes a change to a stored game. The secret, owner and
// creation time are write-once and cannot be patched.
type GamePatch struct {
	Pattern          *string
	GuessedLetters   []string
	WrongLetters     []string
	RemainingMisses  *int
	TotalGuesses     *int
	WrongWordGuesses *int
	Status           *GameStatus
	FinishedAt       *time.Time
	TimeSeconds      *float64
	Score            *float64
}

// Apply mutates g with the non-nil fields of p
func (p GamePatch) Apply(g *Game) {
	if p.Pattern != nil {
		g.Pattern = *p.Pattern
	}
	if p.GuessedLetters != nil {
		g.GuessedLetters = append([]string(nil), p.GuessedLetters...)
	}
	if p.WrongLetters != nil {
		g.WrongLetters = append([]string(nil), p.WrongLetters...)
	}
	if p.RemainingMisses != nil {
		g.RemainingMisses = *p.RemainingMisses
	}
	if p.TotalGuesses != nil {
		g.TotalGuesses = *p.TotalGuesses
	}
	if p.WrongWordGuesses != nil {
		g.WrongWordGuesses = *p.WrongWordGuesses
	}
	if p.Status != nil {
		g.Status = *p.Status
	}
	if p.FinishedAt != nil {
		t := *p.FinishedAt
		g.FinishedAt = &t
	}
	if p.TimeSeconds != nil {
		g.TimeSeconds = *p.TimeSeconds
	}
	if p.Score != nil {
		g.Score = *p.Score
	}
}

// PatchFrom builds a patch carrying every mutable field of g
func PatchFrom(g *Game) GamePatch {
	p := GamePatch{
		Pattern:          &g.Pattern,
		GuessedLetters:   g.GuessedLetters,
		WrongLetters:     g.WrongLetters,
		RemainingMisses:  &g.RemainingMisses,
		TotalGuesses:     &g.TotalGuesses,
		WrongWordGuesses: &g.WrongWordGuesses,
		Status:           &g.Status,
		TimeSeconds:      &g.TimeSeconds,
		Score:            &g.Score,
	}
	if p.GuessedLetters == nil {
		p.GuessedLetters = []string{}
	}
	if p.WrongLetters == nil {
		p.WrongLetters = []string{}
	}
	if g.FinishedAt != nil {
		p.FinishedAt = g.FinishedAt
	}
	return p
}
