package middleware

import (
	"bytes"
	"errors"
	"io"
	"log/slog"
	"net/http"

	"github.com/forgo/hangman/api/internal/idempotency"
	"github.com/forgo/hangman/api/internal/model"
)

// Idempotency headers
const (
	IdempotencyKeyHeader    = "Idempotency-Key"
	IdempotentReplayHeader  = "X-Idempotent-Replay"
	MaxIdempotencyKeyLength = 255
)

// maxIdempotentBody bounds how much of a request body is read to derive the
// cache key
const maxIdempotentBody = 1 << 20

// captureWriter buffers a response so it can be stored before it is sent
type captureWriter struct {
	header http.Header
	status int
	body   bytes.Buffer
}

func newCaptureWriter() *captureWriter {
	return &captureWriter{header: make(http.Header)}
}

func (c *captureWriter) Header() http.Header { return c.header }

func (c *captureWriter) WriteHeader(status int) {
	if c.status == 0 {
		c.status = status
	}
}

func (c *captureWriter) Write(b []byte) (int, error) {
	if c.status == 0 {
		c.status = http.StatusOK
	}
	return c.body.Write(b)
}

func (c *captureWriter) entry() *idempotency.Entry {
	status := c.status
	if status == 0 {
		status = http.StatusOK
	}
	return &idempotency.Entry{
		StatusCode:  status,
		ContentType: c.header.Get("Content-Type"),
		Body:        c.body.Bytes(),
	}
}

// Idempotency returns a middleware that replays the stored response of a
// request repeated with the same Idempotency-Key, caller, path and body.
// Requests without the header pass through untouched; only 2xx responses
// are stored.
func Idempotency(cache *idempotency.Cache, operation string) Middleware {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			values := r.Header.Values(IdempotencyKeyHeader)
			if len(values) == 0 {
				next.ServeHTTP(w, r)
				return
			}
			clientKey := values[0]
			if clientKey == "" || len(clientKey) > MaxIdempotencyKeyLength {
				model.NewBadRequestError("Idempotency-Key must be 1-255 characters").WriteJSON(w)
				return
			}

			body, err := io.ReadAll(http.MaxBytesReader(w, r.Body, maxIdempotentBody))
			if err != nil {
				var tooLarge *http.MaxBytesError
				if errors.As(err, &tooLarge) {
					model.NewBadRequestError("request body too large").WriteJSON(w)
					return
				}
				model.NewBadRequestError("failed to read request body").WriteJSON(w)
				return
			}

			userID := GetUserID(r.Context())
			if userID == "" {
				userID = "ip:" + ClientIP(r)
			}
			// the path carries the parent resource, so one key cannot
			// replay a response across sessions
			key := idempotency.Key(userID, operation+" "+r.URL.Path, clientKey, body)

			// headers of the response produced in this call, not a replay
			var produced http.Header
			entry, replayed, err := cache.Do(r.Context(), key, func() (*idempotency.Entry, error) {
				capture := newCaptureWriter()
				req := r.Clone(r.Context())
				req.Body = io.NopCloser(bytes.NewReader(body))
				next.ServeHTTP(capture, req)
				produced = capture.header
				return capture.entry(), nil
			})
			if err != nil {
				slog.ErrorContext(r.Context(), "idempotency cache failed",
					slog.String("operation", operation),
					slog.String("request_id", GetRequestID(r.Context())),
					slog.Any("error", err),
				)
				model.NewInternalError("").WriteJSON(w)
				return
			}

			if !replayed && produced != nil {
				for k, v := range produced {
					w.Header()[k] = v
				}
			} else if entry.ContentType != "" {
				w.Header().Set("Content-Type", entry.ContentType)
			}
			if replayed {
				w.Header().Set(IdempotentReplayHeader, "true")
			}
			w.WriteHeader(entry.StatusCode)
			_, _ = w.Write(entry.Body)
		})
	}
}
