package middleware

import (
	"bytes"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net/http"

	"pgdeck/internal/security"
)

const (
	SignatureHeader = "X-Signature"
	TimestampHeader = "X-Timestamp"
)

// maxSignedBody bounds the body read for signature verification.
const maxSignedBody = 10 << 20

// Signature rejects requests whose HMAC signature does not verify against
// secret. An empty secret disables the check. WebSocket clients that cannot
// set headers may pass signature and timestamp as query parameters instead.
func Signature(secret string, logger *slog.Logger) func(http.Handler) http.Handler {
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}

	return func(next http.Handler) http.Handler {
		if secret == "" {
			return next
		}
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if r.Method == http.MethodOptions {
				next.ServeHTTP(w, r)
				return
			}

			body, err := io.ReadAll(io.LimitReader(r.Body, maxSignedBody+1))
			if err != nil {
				writeError(w, http.StatusBadRequest, "failed to read request body")
				return
			}
			if len(body) > maxSignedBody {
				writeError(w, http.StatusRequestEntityTooLarge, "request body too large")
				return
			}
			_ = r.Body.Close()
			r.Body = io.NopCloser(bytes.NewReader(body))

			signature := r.Header.Get(SignatureHeader)
			timestamp := r.Header.Get(TimestampHeader)
			if signature == "" {
				signature = r.URL.Query().Get("signature")
				timestamp = r.URL.Query().Get("timestamp")
			}

			err = security.VerifyHMAC(secret, r.Method, r.URL.Path, string(body), timestamp, signature)
			if err != nil {
				logger.Warn("Signature rejected", "path", r.URL.Path, "error", err)
				msg := "invalid request signature"
				if errors.Is(err, security.ErrRequestExpired) {
					msg = err.Error()
				}
				writeError(w, http.StatusUnauthorized, msg)
				return
			}

			next.ServeHTTP(w, r)
		})
	}
}

func writeError(w http.ResponseWriter, status int, msg string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(map[string]string{"error": msg})
}
