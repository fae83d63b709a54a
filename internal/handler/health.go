package handler

import (
	"context"
	"net/http"
	"time"
)

// HealthCheck reports whether one dependency is reachable
type HealthCheck func(ctx context.Context) error

// HealthHandler serves liveness, version and clock endpoints
type HealthHandler struct {
	version string
	checks  map[string]HealthCheck
	now     func() time.Time
}

// NewHealthHandler creates a health handler. Checks run on every /healthz
// request with a short timeout.
func NewHealthHandler(version string, checks map[string]HealthCheck) *HealthHandler {
	return &HealthHandler{version: version, checks: checks, now: time.Now}
}

// HealthResponse is the /healthz body
type HealthResponse struct {
	OK     bool              `json:"ok"`
	Checks map[string]string `json:"checks,omitempty"`
}

// Health handles GET /healthz
func (h *HealthHandler) Health(w http.ResponseWriter, r *http.Request) {
	resp := HealthResponse{OK: true}
	if len(h.checks) > 0 {
		ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
		defer cancel()

		resp.Checks = make(map[string]string, len(h.checks))
		for name, check := range h.checks {
			if err := check(ctx); err != nil {
				resp.OK = false
				resp.Checks[name] = err.Error()
				continue
			}
			resp.Checks[name] = "ok"
		}
	}

	status := http.StatusOK
	if !resp.OK {
		status = http.StatusServiceUnavailable
	}
	WriteJSON(w, status, resp)
}

// Version handles GET /version
func (h *HealthHandler) Version(w http.ResponseWriter, r *http.Request) {
	WriteJSON(w, http.StatusOK, map[string]string{"version": h.version})
}

// Time handles GET /time
func (h *HealthHandler) Time(w http.ResponseWriter, r *http.Request) {
	WriteJSON(w, http.StatusOK, map[string]string{"time": h.now().UTC().Format(time.RFC3339)})
}
