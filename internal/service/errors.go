package service

import (
	"errors"
	"time"

	"github.com/forgo/hangman/api/internal/model"
)

// Centralized service layer errors.
// Every business failure returned by a service method is one of the
// sentinels below (possibly wrapped), so handlers can map them exhaustively
// by kind.

// Kind classifies a business failure
type Kind int

const (
	KindUnknown Kind = iota
	KindNotFound
	KindAccessDenied
	KindInvalidState
	KindInvalidGuess
	KindLimitReached
	KindQuotaExceeded
	KindRateLimited
	KindNoWordsAvailable
	KindUnauthenticated
	KindInvalid
	KindConflict
)

var kindNames = map[Kind]string{
	KindUnknown:          "Unknown",
	KindNotFound:         "NotFound",
	KindAccessDenied:     "AccessDenied",
	KindInvalidState:     "InvalidState",
	KindInvalidGuess:     "InvalidGuess",
	KindLimitReached:     "LimitReached",
	KindQuotaExceeded:    "QuotaExceeded",
	KindRateLimited:      "RateLimited",
	KindNoWordsAvailable: "NoWordsAvailable",
	KindUnauthenticated:  "Unauthenticated",
	KindInvalid:          "Invalid",
	KindConflict:         "Conflict",
}

func (k Kind) String() string {
	if name, ok := kindNames[k]; ok {
		return name
	}
	return kindNames[KindUnknown]
}

// Error is a classified business failure
type Error struct {
	Kind    Kind
	Code    model.ErrorCode
	Message string
	// RetryAfter is set on RateLimited errors that know when to retry
	RetryAfter time.Duration
}

func (e *Error) Error() string {
	return e.Message
}

func newError(kind Kind, code model.ErrorCode, msg string) *Error {
	return &Error{Kind: kind, Code: code, Message: msg}
}

// KindOf returns the kind of the first *Error in err's chain
func KindOf(err error) Kind {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind
	}
	return KindUnknown
}

// CodeOf returns the error code of the first *Error in err's chain
func CodeOf(err error) model.ErrorCode {
	var e *Error
	if errors.As(err, &e) {
		return e.Code
	}
	return model.ErrCodeInternal
}

// retryAfter returns a copy of e carrying d
func (e *Error) retryAfter(d time.Duration) *Error {
	c := *e
	c.RetryAfter = d
	return &c
}

// RetryAfterOf returns the retry hint of the first *Error in err's chain
func RetryAfterOf(err error) time.Duration {
	var e *Error
	if errors.As(err, &e) {
		return e.RetryAfter
	}
	return 0
}

// ===== Authentication Errors =====
var (
	ErrUnauthenticated    = newError(KindUnauthenticated, model.ErrCodeUnauthorized, "authentication required")
	ErrInvalidCredentials = newError(KindUnauthenticated, model.ErrCodeLoginFailed, "invalid username or password")
	ErrUsernameTaken      = newError(KindConflict, model.ErrCodeUsernameTaken, "username already registered")
	ErrUserNotFound       = newError(KindNotFound, model.ErrCodeUserNotFound, "user not found")
	ErrInvalidUsername    = newError(KindInvalid, model.ErrCodeValidation, "username must be 3-32 letters, digits, '_' or '-'")
	ErrPasswordTooShort   = newError(KindInvalid, model.ErrCodeValidation, "password must be at least 8 characters")
	ErrPasswordTooLong    = newError(KindInvalid, model.ErrCodeValidation, "password must be at most 72 bytes")
	ErrNicknameTooLong    = newError(KindInvalid, model.ErrCodeValidation, "nickname must be at most 64 characters")
	ErrLoginLocked        = newError(KindRateLimited, model.ErrCodeLoginLocked, "too many failed login attempts")

	ErrInvalidRefreshToken = newError(KindUnauthenticated, model.ErrCodeInvalidRefreshToken, "invalid refresh token")
	ErrRefreshTokenExpired = newError(KindUnauthenticated, model.ErrCodeInvalidRefreshToken, "refresh token expired")
	ErrRefreshTokenRevoked = newError(KindUnauthenticated, model.ErrCodeInvalidRefreshToken, "refresh token revoked")
)

// ===== Session Errors =====
var (
	ErrSessionNotFound        = newError(KindNotFound, model.ErrCodeSessionNotFound, "session not found")
	ErrSessionAccessDenied    = newError(KindAccessDenied, model.ErrCodeSessionAccessDenied, "session belongs to another user")
	ErrSessionAlreadyFinished = newError(KindInvalidState, model.ErrCodeSessionAlreadyFinished, "session is no longer active")
	ErrMaxSessionsExceeded    = newError(KindQuotaExceeded, model.ErrCodeMaxSessionsExceeded, "maximum number of active sessions reached")
	ErrInvalidNumGames        = newError(KindInvalid, model.ErrCodeValidation, "num_games is out of range")
	ErrInvalidMaxMisses       = newError(KindInvalid, model.ErrCodeValidation, "max_misses is out of range")
	ErrInvalidDifficulty      = newError(KindInvalid, model.ErrCodeValidation, "unknown difficulty")
	ErrInvalidLanguage        = newError(KindInvalid, model.ErrCodeValidation, "unsupported language")
)

// ===== Game Errors =====
var (
	ErrGameNotFound         = newError(KindNotFound, model.ErrCodeGameNotFound, "game not found")
	ErrGameAccessDenied     = newError(KindAccessDenied, model.ErrCodeGameAccessDenied, "game belongs to another user")
	ErrGameAlreadyFinished  = newError(KindInvalidState, model.ErrCodeGameAlreadyFinished, "game is already finished")
	ErrGameLimitReached     = newError(KindLimitReached, model.ErrCodeGameLimitReached, "session has no game slots left")
	ErrNoWordsAvailable     = newError(KindNoWordsAvailable, model.ErrCodeNoWordsAvailable, "no unused words left in dictionary")
	ErrInvalidLetter        = newError(KindInvalidGuess, model.ErrCodeInvalidGuess, "guess must be exactly one letter")
	ErrLetterAlreadyGuessed = newError(KindInvalidGuess, model.ErrCodeInvalidGuess, "letter already guessed")
	ErrEmptyWord            = newError(KindInvalidGuess, model.ErrCodeInvalidGuess, "word guess must not be empty")
	ErrWordGuessNotAllowed  = newError(KindInvalidGuess, model.ErrCodeInvalidGuess, "word guesses are disabled for this session")
	ErrGuessKindAmbiguous   = newError(KindInvalidGuess, model.ErrCodeInvalidGuess, "provide exactly one of letter or word")
)

// ===== Dictionary Errors =====
var (
	ErrDictionaryNotFound = newError(KindNotFound, model.ErrCodeDictionaryNotFound, "dictionary not found")
	ErrDictionaryTooSmall = newError(KindInvalid, model.ErrCodeValidation, "dictionary must contain at least 10 words")
)

// ===== Rate Limiting Errors =====
var (
	ErrRateLimited = newError(KindRateLimited, model.ErrCodeRateLimitExceeded, "rate limit exceeded")
)

// ===== Statistics Errors =====
var (
	ErrInvalidPeriod = newError(KindInvalid, model.ErrCodeValidation, "period must be one of all, 1d, 7d, 30d")
	ErrInvalidMetric = newError(KindInvalid, model.ErrCodeValidation, "metric must be one of total_score, win_rate, total_games")
	ErrInvalidLimit  = newError(KindInvalid, model.ErrCodeValidation, "limit is out of range")
)
