package middleware

import (
	"bytes"
	"context"
	"encoding/json"
	"log/slog"
	"net/http"

	"github.com/onnwee/culturank/internal/idempotency"
)

// IdempotencyKeyHeader is the HTTP header name for idempotency keys.
const IdempotencyKeyHeader = "Idempotency-Key"

// idempotencyKeyContextKey is the context key for storing the idempotency key.
type idempotencyKeyContextKey struct{}

// idempotencyResponseWriter captures the response so a duplicate request can
// replay it byte for byte.
type idempotencyResponseWriter struct {
	http.ResponseWriter
	statusCode int
	body       *bytes.Buffer
	written    bool
}

func newIdempotencyResponseWriter(w http.ResponseWriter) *idempotencyResponseWriter {
	return &idempotencyResponseWriter{
		ResponseWriter: w,
		statusCode:     http.StatusOK,
		body:           &bytes.Buffer{},
	}
}

// WriteHeader captures the status code.
func (w *idempotencyResponseWriter) WriteHeader(statusCode int) {
	if !w.written {
		w.statusCode = statusCode
		w.written = true
	}
	w.ResponseWriter.WriteHeader(statusCode)
}

// Write captures the response body while writing it through.
func (w *idempotencyResponseWriter) Write(b []byte) (int, error) {
	n, err := w.ResponseWriter.Write(b)
	w.body.Write(b)
	return n, err
}

// SetIdempotencyKey stores the idempotency key in the context.
func SetIdempotencyKey(ctx context.Context, key string) context.Context {
	return context.WithValue(ctx, idempotencyKeyContextKey{}, key)
}

// GetIdempotencyKey retrieves the idempotency key from context. Returns empty string if not present.
func GetIdempotencyKey(ctx context.Context) string {
	if key, ok := ctx.Value(idempotencyKeyContextKey{}).(string); ok {
		return key
	}
	return ""
}

// writeIdempotencyError writes the standard error envelope. The middleware
// cannot use the api package's writer without an import cycle, so the
// envelope shape is duplicated here.
func writeIdempotencyError(w http.ResponseWriter, ctx context.Context, status int, code, message string) {
	SetErrorCode(ctx, code)
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(map[string]any{
		"error": map[string]string{
			"code":    code,
			"message": message,
		},
	})
}

// Idempotency returns a middleware that deduplicates feedback submissions.
// POST requests to the configured routes may carry an Idempotency-Key
// header; when a previously seen key arrives, the cached response is
// replayed instead of recording the interaction again. Requests without a
// key pass through unchanged.
func Idempotency(repo idempotency.Repository, logger *slog.Logger, routes map[string]bool) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if r.Method != http.MethodPost || !routes[r.URL.Path] {
				next.ServeHTTP(w, r)
				return
			}

			key := r.Header.Get(IdempotencyKeyHeader)
			if key == "" {
				next.ServeHTTP(w, r)
				return
			}

			if err := idempotency.ValidateKey(key); err != nil {
				code := "invalid_idempotency_key"
				message := "Invalid Idempotency-Key format"
				if err == idempotency.ErrKeyTooLong {
					code = "idempotency_key_too_long"
					message = "Idempotency-Key exceeds maximum length of 64 characters"
				}
				writeIdempotencyError(w, r.Context(), http.StatusBadRequest, code, message)
				return
			}

			ctx := SetIdempotencyKey(r.Context(), key)
			r = r.WithContext(ctx)

			existing, err := repo.Get(key)
			if err == nil {
				slog.InfoContext(ctx, "idempotency key found, replaying cached response",
					"key", key,
					"status", existing.ResponseStatusCode)
				w.Header().Set("Content-Type", "application/json")
				w.WriteHeader(existing.ResponseStatusCode)
				w.Write([]byte(existing.ResponseBody))
				return
			}
			if err != idempotency.ErrKeyNotFound {
				// Deduplication is best effort: record the interaction
				// rather than failing the request.
				logger.ErrorContext(ctx, "failed to check idempotency key", "key", key, "error", err)
				next.ServeHTTP(w, r)
				return
			}

			captureWriter := newIdempotencyResponseWriter(w)
			next.ServeHTTP(captureWriter, r)

			if captureWriter.statusCode >= 200 && captureWriter.statusCode < 300 {
				responseBody := captureWriter.body.String()
				record := &idempotency.IdempotencyKey{
					Key:                key,
					Method:             r.Method,
					Route:              r.URL.Path,
					ResponseHash:       idempotency.ComputeResponseHash(responseBody),
					Status:             idempotency.StatusCompleted,
					ResponseBody:       responseBody,
					ResponseStatusCode: captureWriter.statusCode,
				}
				if err := repo.Store(record); err != nil {
					// Response already sent; the duplicate window just stays open.
					logger.ErrorContext(ctx, "failed to store idempotency key", "key", key, "error", err)
				}
			}
		})
	}
}
