package handler

import (
	"context"
	"net/http"

	"github.com/forgo/hangman/api/internal/middleware"
	"github.com/forgo/hangman/api/internal/model"
)

// AuthService is the account surface the auth handler needs
type AuthService interface {
	Register(ctx context.Context, req *model.RegisterRequest) (*model.User, error)
	Login(ctx context.Context, req *model.LoginRequest) (*model.TokenPair, error)
	IssueToken(ctx context.Context, user *model.User) (*model.TokenPair, error)
	Refresh(ctx context.Context, refreshToken string) (*model.TokenPair, error)
	Logout(ctx context.Context, userID string) error
	GetUser(ctx context.Context, userID string) (*model.User, error)
}

// AuthHandler handles authentication endpoints
type AuthHandler struct {
	authService AuthService
}

// NewAuthHandler creates a new auth handler
func NewAuthHandler(authService AuthService) *AuthHandler {
	return &AuthHandler{authService: authService}
}

// AuthResponse is returned by register and login
type AuthResponse struct {
	User  *model.User      `json:"user,omitempty"`
	Token *model.TokenPair `json:"token"`
}

// Register handles POST /api/v1/auth/register
func (h *AuthHandler) Register(w http.ResponseWriter, r *http.Request) {
	var req model.RegisterRequest
	if err := DecodeJSON(w, r, &req); err != nil {
		WriteError(w, r, model.NewBadRequestError("invalid request body"))
		return
	}

	user, err := h.authService.Register(r.Context(), &req)
	if err != nil {
		writeServiceError(w, r, err, "register")
		return
	}

	token, err := h.authService.IssueToken(r.Context(), user)
	if err != nil {
		writeServiceError(w, r, err, "register")
		return
	}

	WriteData(w, http.StatusCreated, AuthResponse{User: user, Token: token}, map[string]string{
		"self": "/api/v1/users/me",
	})
}

// Login handles POST /api/v1/auth/login
func (h *AuthHandler) Login(w http.ResponseWriter, r *http.Request) {
	var req model.LoginRequest
	if err := DecodeJSON(w, r, &req); err != nil {
		WriteError(w, r, model.NewBadRequestError("invalid request body"))
		return
	}
	if req.Username == "" || req.Password == "" {
		WriteError(w, r, model.NewValidationError([]model.FieldError{
			{Field: "credentials", Message: "username and password are required"},
		}))
		return
	}

	token, err := h.authService.Login(r.Context(), &req)
	if err != nil {
		writeServiceError(w, r, err, "login")
		return
	}

	WriteData(w, http.StatusOK, AuthResponse{Token: token}, map[string]string{
		"self": "/api/v1/users/me",
	})
}

// Refresh handles POST /api/v1/auth/refresh
func (h *AuthHandler) Refresh(w http.ResponseWriter, r *http.Request) {
	var req model.RefreshRequest
	if err := DecodeJSON(w, r, &req); err != nil {
		WriteError(w, r, model.NewBadRequestError("invalid request body"))
		return
	}
	if req.RefreshToken == "" {
		WriteError(w, r, model.NewValidationError([]model.FieldError{
			{Field: "refresh_token", Message: "refresh_token is required"},
		}))
		return
	}

	token, err := h.authService.Refresh(r.Context(), req.RefreshToken)
	if err != nil {
		writeServiceError(w, r, err, "refresh token")
		return
	}

	WriteData(w, http.StatusOK, AuthResponse{Token: token}, map[string]string{
		"self": "/api/v1/users/me",
	})
}

// Logout handles POST /api/v1/auth/logout
func (h *AuthHandler) Logout(w http.ResponseWriter, r *http.Request) {
	if err := h.authService.Logout(r.Context(), middleware.GetUserID(r.Context())); err != nil {
		writeServiceError(w, r, err, "logout")
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// Me handles GET /api/v1/users/me
func (h *AuthHandler) Me(w http.ResponseWriter, r *http.Request) {
	userID := middleware.GetUserID(r.Context())
	if userID == "" {
		WriteError(w, r, model.NewUnauthorizedError("authentication required"))
		return
	}

	user, err := h.authService.GetUser(r.Context(), userID)
	if err != nil {
		writeServiceError(w, r, err, "get user")
		return
	}

	WriteData(w, http.StatusOK, user, map[string]string{
		"self":     "/api/v1/users/me",
		"stats":    "/api/v1/users/" + user.ID + "/stats",
		"sessions": "/api/v1/sessions",
	})
}
