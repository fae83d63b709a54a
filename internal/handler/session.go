package handler

import (
	"context"
	"net/http"

	"github.com/forgo/hangman/api/internal/middleware"
	"github.com/forgo/hangman/api/internal/model"
)

// SessionService is the session surface the session handler needs
type SessionService interface {
	Create(ctx context.Context, userID string, req *model.CreateSessionRequest) (*model.Session, error)
	Get(ctx context.Context, sessionID, callerID string) (*model.Session, error)
	List(ctx context.Context, callerID string, filter model.SessionFilter) ([]*model.Session, model.PageInfo, error)
	Abort(ctx context.Context, sessionID, callerID string) (*model.Session, error)
	Stats(ctx context.Context, sessionID, callerID string) (*model.SessionStats, error)
}

// SessionHandler handles session endpoints
type SessionHandler struct {
	sessionService SessionService
}

// NewSessionHandler creates a new session handler
func NewSessionHandler(sessionService SessionService) *SessionHandler {
	return &SessionHandler{sessionService: sessionService}
}

func sessionLinks(s *model.Session) map[string]string {
	self := "/api/v1/sessions/" + s.ID
	links := map[string]string{
		"self":  self,
		"games": self + "/games",
		"stats": self + "/stats",
	}
	if s.Status == model.SessionStatusActive {
		links["abort"] = self + "/abort"
	}
	return links
}

// Create handles POST /api/v1/sessions
func (h *SessionHandler) Create(w http.ResponseWriter, r *http.Request) {
	userID := middleware.GetUserID(r.Context())

	var req model.CreateSessionRequest
	if err := DecodeJSON(w, r, &req); err != nil {
		WriteError(w, r, model.NewBadRequestError("invalid request body"))
		return
	}

	session, err := h.sessionService.Create(r.Context(), userID, &req)
	if err != nil {
		writeServiceError(w, r, err, "create session")
		return
	}

	w.Header().Set("Location", "/api/v1/sessions/"+session.ID)
	WriteData(w, http.StatusCreated, session, sessionLinks(session))
}

// List handles GET /api/v1/sessions
func (h *SessionHandler) List(w http.ResponseWriter, r *http.Request) {
	userID := middleware.GetUserID(r.Context())

	page, err := queryInt(r, "page", 1)
	if err != nil {
		WriteError(w, r, model.NewBadRequestError(err.Error()))
		return
	}
	pageSize, err := queryInt(r, "page_size", model.DefaultPageSize)
	if err != nil {
		WriteError(w, r, model.NewBadRequestError(err.Error()))
		return
	}

	filter := model.SessionFilter{Page: page, PageSize: pageSize}
	if raw := r.URL.Query().Get("status"); raw != "" {
		status := model.SessionStatus(raw)
		switch status {
		case model.SessionStatusActive, model.SessionStatusAborted, model.SessionStatusCompleted:
			filter.Status = &status
		default:
			WriteError(w, r, model.NewValidationError([]model.FieldError{
				{Field: "status", Message: "must be one of ACTIVE, ABORTED, COMPLETED"},
			}))
			return
		}
	}

	sessions, info, err := h.sessionService.List(r.Context(), userID, filter)
	if err != nil {
		writeServiceError(w, r, err, "list sessions")
		return
	}

	WritePage(w, r, sessions, info)
}

// Get handles GET /api/v1/sessions/{sessionId}
func (h *SessionHandler) Get(w http.ResponseWriter, r *http.Request) {
	userID := middleware.GetUserID(r.Context())

	session, err := h.sessionService.Get(r.Context(), r.PathValue("sessionId"), userID)
	if err != nil {
		writeServiceError(w, r, err, "get session")
		return
	}

	WriteData(w, http.StatusOK, session, sessionLinks(session))
}

// Abort handles POST /api/v1/sessions/{sessionId}/abort
func (h *SessionHandler) Abort(w http.ResponseWriter, r *http.Request) {
	userID := middleware.GetUserID(r.Context())

	session, err := h.sessionService.Abort(r.Context(), r.PathValue("sessionId"), userID)
	if err != nil {
		writeServiceError(w, r, err, "abort session")
		return
	}

	WriteData(w, http.StatusOK, session, sessionLinks(session))
}

// Stats handles GET /api/v1/sessions/{sessionId}/stats
func (h *SessionHandler) Stats(w http.ResponseWriter, r *http.Request) {
	userID := middleware.GetUserID(r.Context())

	stats, err := h.sessionService.Stats(r.Context(), r.PathValue("sessionId"), userID)
	if err != nil {
		writeServiceError(w, r, err, "session stats")
		return
	}

	self := "/api/v1/sessions/" + stats.SessionID
	WriteData(w, http.StatusOK, stats, map[string]string{
		"self":    self + "/stats",
		"session": self,
	})
}
