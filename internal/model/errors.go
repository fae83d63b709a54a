package model

import (
	"fmt"
	"net/http"
	"strconv"

	json "github.com/goccy/go-json"
)

// ErrorCode is the stable, machine-readable error identifier carried in
// problem responses.
type ErrorCode string

const (
	// Authentication
	ErrCodeUnauthorized        ErrorCode = "UNAUTHORIZED"
	ErrCodeLoginFailed         ErrorCode = "LOGIN_FAILED"
	ErrCodeLoginLocked         ErrorCode = "LOGIN_LOCKED"
	ErrCodeInvalidRefreshToken ErrorCode = "INVALID_REFRESH_TOKEN"

	// Sessions
	ErrCodeSessionNotFound        ErrorCode = "SESSION_NOT_FOUND"
	ErrCodeSessionAccessDenied    ErrorCode = "SESSION_ACCESS_DENIED"
	ErrCodeSessionAlreadyFinished ErrorCode = "SESSION_ALREADY_FINISHED"
	ErrCodeMaxSessionsExceeded    ErrorCode = "MAX_SESSIONS_EXCEEDED"

	// Games
	ErrCodeGameNotFound        ErrorCode = "GAME_NOT_FOUND"
	ErrCodeGameAccessDenied    ErrorCode = "GAME_ACCESS_DENIED"
	ErrCodeGameAlreadyFinished ErrorCode = "GAME_ALREADY_FINISHED"
	ErrCodeGameLimitReached    ErrorCode = "GAME_LIMIT_REACHED"
	ErrCodeInvalidGuess        ErrorCode = "INVALID_GUESS"
	ErrCodeNoWordsAvailable    ErrorCode = "NO_WORDS_AVAILABLE"

	// Dictionaries and users
	ErrCodeDictionaryNotFound ErrorCode = "DICTIONARY_NOT_FOUND"
	ErrCodeUserNotFound       ErrorCode = "USER_NOT_FOUND"
	ErrCodeUsernameTaken      ErrorCode = "USERNAME_TAKEN"

	// Generic
	ErrCodeNotFound          ErrorCode = "NOT_FOUND"
	ErrCodeForbidden         ErrorCode = "FORBIDDEN"
	ErrCodeConflict          ErrorCode = "CONFLICT"
	ErrCodeValidation        ErrorCode = "VALIDATION_ERROR"
	ErrCodeInvalidInput      ErrorCode = "INVALID_INPUT"
	ErrCodeRateLimitExceeded ErrorCode = "RATE_LIMIT_EXCEEDED"
	ErrCodeInternal          ErrorCode = "INTERNAL_ERROR"
)

const problemTypeBase = "https://hangman-api.forgo.software/errors/"

// ProblemDetails represents RFC 9457 Problem Details for HTTP APIs
type ProblemDetails struct {
	Type     string       `json:"type"`
	Title    string       `json:"title"`
	Status   int          `json:"status"`
	Detail   string       `json:"detail,omitempty"`
	Instance string       `json:"instance,omitempty"`
	Errors   []FieldError `json:"errors,omitempty"`
	// Extension fields
	Code       ErrorCode `json:"code,omitempty"`
	Limit      *int      `json:"limit,omitempty"`
	Current    *int      `json:"current,omitempty"`
	RetryAfter int       `json:"retry_after,omitempty"`
}

// FieldError represents a validation error on a specific field
type FieldError struct {
	Field   string `json:"field"`
	Message string `json:"message"`
}

// Error implements the error interface
func (p *ProblemDetails) Error() string {
	return fmt.Sprintf("[%d] %s: %s", p.Status, p.Title, p.Detail)
}

// WriteJSON writes the problem details as JSON response
func (p *ProblemDetails) WriteJSON(w http.ResponseWriter) {
	w.Header().Set("Content-Type", "application/problem+json")
	if p.RetryAfter > 0 {
		w.Header().Set("Retry-After", strconv.Itoa(p.RetryAfter))
	}
	w.WriteHeader(p.Status)
	_ = json.NewEncoder(w).Encode(p)
}

// WithCode returns the problem with its code replaced.
func (p *ProblemDetails) WithCode(code ErrorCode) *ProblemDetails {
	p.Code = code
	return p
}

func newProblem(slug, title string, status int, detail string, code ErrorCode) *ProblemDetails {
	return &ProblemDetails{
		Type:   problemTypeBase + slug,
		Title:  title,
		Status: status,
		Detail: detail,
		Code:   code,
	}
}

// Common error constructors

func NewUnauthorizedError(detail string) *ProblemDetails {
	return newProblem("unauthorized", "Unauthorized", http.StatusUnauthorized, detail, ErrCodeUnauthorized)
}

func NewForbiddenError(detail string) *ProblemDetails {
	return newProblem("forbidden", "Forbidden", http.StatusForbidden, detail, ErrCodeForbidden)
}

func NewNotFoundError(resource string) *ProblemDetails {
	return newProblem("not-found", "Not Found", http.StatusNotFound, fmt.Sprintf("%s not found", resource), ErrCodeNotFound)
}

func NewValidationError(errors []FieldError) *ProblemDetails {
	detail := "One or more fields failed validation"
	if len(errors) > 0 {
		detail = fmt.Sprintf("%s: %s", errors[0].Field, errors[0].Message)
		if len(errors) > 1 {
			detail = fmt.Sprintf("%s (and %d more errors)", detail, len(errors)-1)
		}
	}
	p := newProblem("validation", "Validation Error", http.StatusUnprocessableEntity, detail, ErrCodeValidation)
	p.Errors = errors
	return p
}

func NewLimitExceededError(resource string, limit, current int) *ProblemDetails {
	p := newProblem("limit-exceeded", "Limit Exceeded", http.StatusConflict,
		fmt.Sprintf("Maximum of %d %s reached", limit, resource), ErrCodeGameLimitReached)
	p.Limit = &limit
	p.Current = &current
	return p
}

func NewConflictError(detail string) *ProblemDetails {
	return newProblem("conflict", "Conflict", http.StatusConflict, detail, ErrCodeConflict)
}

func NewInternalError(detail string) *ProblemDetails {
	if detail == "" {
		detail = "An unexpected error occurred"
	}
	return newProblem("internal", "Internal Server Error", http.StatusInternalServerError, detail, ErrCodeInternal)
}

func NewBadRequestError(detail string) *ProblemDetails {
	return newProblem("bad-request", "Bad Request", http.StatusBadRequest, detail, ErrCodeInvalidInput)
}

// NewRateLimitError builds a 429 problem; retryAfter is in whole seconds.
func NewRateLimitError(retryAfter int) *ProblemDetails {
	if retryAfter < 1 {
		retryAfter = 1
	}
	p := newProblem("rate-limited", "Too Many Requests", http.StatusTooManyRequests,
		fmt.Sprintf("Rate limit exceeded. Retry after %d seconds", retryAfter), ErrCodeRateLimitExceeded)
	p.RetryAfter = retryAfter
	return p
}

// NewQuotaExceededError builds a 429 without Retry-After
func NewQuotaExceededError(detail string) *ProblemDetails {
	return newProblem("quota-exceeded", "Quota Exceeded", http.StatusTooManyRequests, detail, ErrCodeMaxSessionsExceeded)
}
