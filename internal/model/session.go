package model

import "time"

// SessionStatus is the lifecycle state of a session
type SessionStatus string

const (
	SessionStatusActive    SessionStatus = "ACTIVE"
	SessionStatusAborted   SessionStatus = "ABORTED"
	SessionStatusCompleted SessionStatus = "COMPLETED"
)

// IsTerminal reports whether the status can no longer change
func (s SessionStatus) IsTerminal() bool {
	return s == SessionStatusAborted || s == SessionStatusCompleted
}

// Difficulty selects how hard the drawn words should be
type Difficulty string

const (
	DifficultyEasy   Difficulty = "easy"
	DifficultyNormal Difficulty = "normal"
	DifficultyHard   Difficulty = "hard"
	DifficultyAuto   Difficulty = "auto"
)

// Valid reports whether d is a known difficulty
func (d Difficulty) Valid() bool {
	switch d {
	case DifficultyEasy, DifficultyNormal, DifficultyHard, DifficultyAuto:
		return true
	}
	return false
}

// Supported languages
const (
	LanguageRomanian = "ro"
	LanguageEnglish  = "en"
)

// Session defaults and limits
const (
	DefaultNumGames     = 100
	DefaultDictionaryID = "dict_ro_basic"
	DefaultMaxMisses    = 6
	MinMaxMisses        = 1
	MaxMaxMisses        = 20
)

// SessionParams is the rule set fixed at session creation
type SessionParams struct {
	DictionaryID   string     `json:"dictionary_id"`
	Difficulty     Difficulty `json:"difficulty"`
	Language       string     `json:"language"`
	MaxMisses      int        `json:"max_misses"`
	AllowWordGuess bool       `json:"allow_word_guess"`
	Seed           *int64     `json:"seed,omitempty"`
}

// Session is a bounded batch of games played by one user under one rule set
type Session struct {
	ID           string        `json:"session_id"`
	UserID       string        `json:"user_id"`
	NumGames     int           `json:"num_games"`
	Params       SessionParams `json:"params"`
	GamesCreated int           `json:"games_created"`
	GamesWon     int           `json:"games_won"`
	GamesLost    int           `json:"games_lost"`
	Status       SessionStatus `json:"status"`
	CreatedAt    time.Time     `json:"created_at"`
	FinishedAt   *time.Time    `json:"finished_at,omitempty"`
}

// CreateSessionRequest represents the payload for opening a session.
// Nil pointer fields take their defaults.
type CreateSessionRequest struct {
	NumGames       int        `json:"num_games,omitempty"`
	DictionaryID   string     `json:"dictionary_id,omitempty"`
	Difficulty     Difficulty `json:"difficulty,omitempty"`
	Language       string     `json:"language,omitempty"`
	MaxMisses      *int       `json:"max_misses,omitempty"`
	AllowWordGuess *bool      `json:"allow_word_guess,omitempty"`
	Seed           *int64     `json:"seed,omitempty"`
}

// SessionPatch describes a change to a stored session. Nil fields are left
// unchanged.
type SessionPatch struct {
	Status       *SessionStatus
	FinishedAt   *time.Time
	GamesCreated *int
	GamesWon     *int
	GamesLost    *int
}

// Apply mutates s with the non-nil fields of p
func (p SessionPatch) Apply(s *Session) {
	if p.Status != nil {
		s.Status = *p.Status
	}
	if p.FinishedAt != nil {
		t := *p.FinishedAt
		s.FinishedAt = &t
	}
	if p.GamesCreated != nil {
		s.GamesCreated = *p.GamesCreated
	}
	if p.GamesWon != nil {
		s.GamesWon = *p.GamesWon
	}
	if p.GamesLost != nil {
		s.GamesLost = *p.GamesLost
	}
}

// SessionFilter narrows session listings
type SessionFilter struct {
	Status   *SessionStatus
	Page     int
	PageSize int
}
