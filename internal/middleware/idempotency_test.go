package middleware

import (
	"io"
	"net/http"
	"net/http/httptest"
	"strconv"
	"strings"
	"sync"
	"sync/atomic"
	"testing"

	"github.com/forgo/hangman/api/internal/idempotency"
)

// ============================================================================
// Test Helpers
// ============================================================================

func newTestCache() *idempotency.Cache {
	return idempotency.NewCache(idempotency.NewMemoryStore(nil), idempotency.Config{})
}

// countingHandler answers with status and counts executions
type countingHandler struct {
	status int
	calls  atomic.Int32
}

func (h *countingHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	n := h.calls.Add(1)
	body, _ := io.ReadAll(r.Body)
	w.Header().Set("Content-Type", "application/json")
	w.Header().Set("Location", "/api/v1/sessions/session:1")
	w.WriteHeader(h.status)
	_, _ = w.Write([]byte(`{"call":` + strconv.Itoa(int(n)) + `,"echo":"` + string(body) + `"}`))
}

func idemRequest(key, userID, body string) *http.Request {
	req := httptest.NewRequest(http.MethodPost, "/api/v1/sessions", strings.NewReader(body))
	req.RemoteAddr = "10.0.0.1:1234"
	if key != "" {
		req.Header.Set(IdempotencyKeyHeader, key)
	}
	if userID != "" {
		req = req.WithContext(WithUserID(req.Context(), userID))
	}
	return req
}

// ============================================================================
// Idempotency Tests
// ============================================================================

func TestIdempotency_NoHeader_PassesThrough(t *testing.T) {
	t.Parallel()
	next := &countingHandler{status: http.StatusCreated}
	handler := Idempotency(newTestCache(), "create_session")(next)

	serve(handler, idemRequest("", "user:alice", "{}"))
	rr := serve(handler, idemRequest("", "user:alice", "{}"))

	if next.calls.Load() != 2 {
		t.Errorf("expected 2 executions, got %d", next.calls.Load())
	}
	if rr.Header().Get(IdempotentReplayHeader) != "" {
		t.Error("unexpected replay header")
	}
}

func TestIdempotency_RepeatedKey_Replays(t *testing.T) {
	t.Parallel()
	next := &countingHandler{status: http.StatusCreated}
	handler := Idempotency(newTestCache(), "create_session")(next)

	first := serve(handler, idemRequest("key-1", "user:alice", "{}"))
	second := serve(handler, idemRequest("key-1", "user:alice", "{}"))

	if next.calls.Load() != 1 {
		t.Fatalf("expected 1 execution, got %d", next.calls.Load())
	}
	if first.Header().Get(IdempotentReplayHeader) != "" {
		t.Error("first response must not be marked as a replay")
	}
	if first.Header().Get("Location") == "" {
		t.Error("first response should carry the handler's headers")
	}
	if second.Header().Get(IdempotentReplayHeader) != "true" {
		t.Error("second response should be marked as a replay")
	}
	if second.Code != http.StatusCreated || second.Body.String() != first.Body.String() {
		t.Errorf("replay differs: %d %q vs %d %q", second.Code, second.Body.String(), first.Code, first.Body.String())
	}
	if second.Header().Get("Content-Type") != "application/json" {
		t.Errorf("expected stored content type, got %q", second.Header().Get("Content-Type"))
	}
}

func TestIdempotency_DifferentScope_NotReplayed(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name   string
		second *http.Request
	}{
		{"different body", idemRequest("key-1", "user:alice", `{"x":1}`)},
		{"different user", idemRequest("key-1", "user:bob", "{}")},
		{"different key", idemRequest("key-2", "user:alice", "{}")},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			next := &countingHandler{status: http.StatusCreated}
			handler := Idempotency(newTestCache(), "create_session")(next)

			serve(handler, idemRequest("key-1", "user:alice", "{}"))
			rr := serve(handler, tt.second)

			if next.calls.Load() != 2 {
				t.Errorf("expected 2 executions, got %d", next.calls.Load())
			}
			if rr.Header().Get(IdempotentReplayHeader) != "" {
				t.Error("unexpected replay header")
			}
		})
	}
}

func TestIdempotency_DifferentOperation_NotReplayed(t *testing.T) {
	t.Parallel()
	cache := newTestCache()
	next := &countingHandler{status: http.StatusCreated}

	serve(Idempotency(cache, "create_session")(next), idemRequest("key-1", "user:alice", "{}"))
	serve(Idempotency(cache, "create_game")(next), idemRequest("key-1", "user:alice", "{}"))

	if next.calls.Load() != 2 {
		t.Errorf("expected 2 executions, got %d", next.calls.Load())
	}
}

func TestIdempotency_FailedResponse_NotStored(t *testing.T) {
	t.Parallel()
	next := &countingHandler{status: http.StatusConflict}
	handler := Idempotency(newTestCache(), "create_session")(next)

	serve(handler, idemRequest("key-1", "user:alice", "{}"))
	rr := serve(handler, idemRequest("key-1", "user:alice", "{}"))

	if next.calls.Load() != 2 {
		t.Errorf("expected failed response to be re-executed, got %d executions", next.calls.Load())
	}
	if rr.Code != http.StatusConflict {
		t.Errorf("expected 409, got %d", rr.Code)
	}
}

func TestIdempotency_InvalidKey_Returns400(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name string
		key  string
	}{
		{"empty", ""},
		{"too long", strings.Repeat("k", MaxIdempotencyKeyLength+1)},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			next := &countingHandler{status: http.StatusCreated}
			req := idemRequest("", "user:alice", "{}")
			req.Header[IdempotencyKeyHeader] = []string{tt.key}

			rr := serve(Idempotency(newTestCache(), "create_session")(next), req)

			if rr.Code != http.StatusBadRequest {
				t.Errorf("expected 400, got %d", rr.Code)
			}
			if next.calls.Load() != 0 {
				t.Error("handler must not run")
			}
		})
	}
}

func TestIdempotency_MaxLengthKey_Accepted(t *testing.T) {
	t.Parallel()
	next := &countingHandler{status: http.StatusCreated}

	rr := serve(Idempotency(newTestCache(), "create_session")(next),
		idemRequest(strings.Repeat("k", MaxIdempotencyKeyLength), "user:alice", "{}"))

	if rr.Code != http.StatusCreated {
		t.Errorf("expected 201, got %d", rr.Code)
	}
}

func TestIdempotency_HandlerSeesBody(t *testing.T) {
	t.Parallel()
	next := &countingHandler{status: http.StatusCreated}

	rr := serve(Idempotency(newTestCache(), "create_session")(next), idemRequest("key-1", "user:alice", "hello"))

	if !strings.Contains(rr.Body.String(), `"echo":"hello"`) {
		t.Errorf("expected body passed through, got %q", rr.Body.String())
	}
}

func TestIdempotency_AnonymousScopedByIP(t *testing.T) {
	t.Parallel()
	next := &countingHandler{status: http.StatusCreated}
	handler := Idempotency(newTestCache(), "register")(next)

	serve(handler, idemRequest("key-1", "", "{}"))
	other := idemRequest("key-1", "", "{}")
	other.RemoteAddr = "10.0.0.2:1234"
	serve(handler, other)
	rr := serve(handler, idemRequest("key-1", "", "{}"))

	if next.calls.Load() != 2 {
		t.Errorf("expected 2 executions, got %d", next.calls.Load())
	}
	if rr.Header().Get(IdempotentReplayHeader) != "true" {
		t.Error("expected replay for the same address")
	}
}

func TestIdempotency_ConcurrentRequests_ExecuteOnce(t *testing.T) {
	t.Parallel()
	next := &countingHandler{status: http.StatusCreated}
	handler := Idempotency(newTestCache(), "create_session")(next)

	const n = 8
	var wg sync.WaitGroup
	codes := make([]int, n)
	for i := range n {
		wg.Add(1)
		go func() {
			defer wg.Done()
			codes[i] = serve(handler, idemRequest("key-1", "user:alice", "{}")).Code
		}()
	}
	wg.Wait()

	if next.calls.Load() != 1 {
		t.Errorf("expected 1 execution, got %d", next.calls.Load())
	}
	for i, code := range codes {
		if code != http.StatusCreated {
			t.Errorf("request %d: expected 201, got %d", i, code)
		}
	}
}
