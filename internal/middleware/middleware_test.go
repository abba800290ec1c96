package middleware

import (
	"io"
	"net/http"
	"net/http/httptest"
	"strconv"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"pgdeck/internal/security"
	"pgdeck/internal/testutil"
)

func echoBody() http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		body, _ := io.ReadAll(r.Body)
		_, _ = w.Write(body)
	})
}

func TestCORS(t *testing.T) {
	tests := []struct {
		name       string
		allowed    []string
		origin     string
		wantOrigin string
	}{
		{"wildcard", []string{"*"}, "http://evil.example", "*"},
		{"listed", []string{"tauri://localhost", "http://localhost:1420"}, "http://localhost:1420", "http://localhost:1420"},
		{"unlisted", []string{"tauri://localhost"}, "http://evil.example", ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			h := CORS(tt.allowed, "development", testutil.NewTestLogger(t))(echoBody())
			req := httptest.NewRequest(http.MethodPost, "/invoke/pg_connect", strings.NewReader("x"))
			req.Header.Set("Origin", tt.origin)
			rec := httptest.NewRecorder()

			h.ServeHTTP(rec, req)
			assert.Equal(t, tt.wantOrigin, rec.Header().Get("Access-Control-Allow-Origin"))
			assert.Equal(t, "x", rec.Body.String())
		})
	}
}

func TestCORS_Preflight(t *testing.T) {
	called := false
	h := CORS([]string{"*"}, "production", nil)(http.HandlerFunc(func(http.ResponseWriter, *http.Request) {
		called = true
	}))
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodOptions, "/invoke/pg_query", nil))

	assert.Equal(t, http.StatusNoContent, rec.Code)
	assert.Contains(t, rec.Header().Get("Access-Control-Allow-Headers"), SignatureHeader)
	assert.False(t, called)
}

func TestSignature(t *testing.T) {
	const secret = "devsecret"
	body := `{"connectionString":"postgres://localhost/app","query":"SELECT 1"}`
	ts := strconv.FormatInt(time.Now().Unix(), 10)
	valid := security.Sign(secret, http.MethodPost, "/invoke/pg_query", body, ts)

	tests := []struct {
		name      string
		secret    string
		signature string
		timestamp string
		query     string
		want      int
	}{
		{name: "valid", secret: secret, signature: valid, timestamp: ts, want: http.StatusOK},
		{name: "disabled", secret: "", want: http.StatusOK},
		{name: "missing", secret: secret, want: http.StatusUnauthorized},
		{name: "tampered", secret: secret, signature: valid + "00", timestamp: ts, want: http.StatusUnauthorized},
		{name: "query params", secret: secret, query: "?signature=" + valid + "&timestamp=" + ts, want: http.StatusOK},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			h := Signature(tt.secret, testutil.NewTestLogger(t))(echoBody())
			req := httptest.NewRequest(http.MethodPost, "/invoke/pg_query"+tt.query, strings.NewReader(body))
			if tt.signature != "" {
				req.Header.Set(SignatureHeader, tt.signature)
				req.Header.Set(TimestampHeader, tt.timestamp)
			}
			rec := httptest.NewRecorder()

			h.ServeHTTP(rec, req)
			require.Equal(t, tt.want, rec.Code, rec.Body.String())
			if tt.want == http.StatusOK {
				// Body is restored for the next handler.
				assert.Equal(t, body, rec.Body.String())
			} else {
				assert.JSONEq(t, `{"error":"invalid request signature"}`, rec.Body.String())
			}
		})
	}
}

func TestSignature_Expired(t *testing.T) {
	ts := strconv.FormatInt(time.Now().Add(-time.Hour).Unix(), 10)
	sig := security.Sign("s", http.MethodGet, "/events", "", ts)

	h := Signature("s", nil)(echoBody())
	req := httptest.NewRequest(http.MethodGet, "/events", nil)
	req.Header.Set(SignatureHeader, sig)
	req.Header.Set(TimestampHeader, ts)
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusUnauthorized, rec.Code)
	assert.Contains(t, rec.Body.String(), "expired")
}

func TestRequestLogger(t *testing.T) {
	logger, buf := testutil.NewCaptureLogger()
	h := RequestLogger(logger)(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusTeapot)
	}))
	h.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/healthz", nil))

	out := buf.String()
	assert.Contains(t, out, `"path":"/healthz"`)
	assert.Contains(t, out, `"status":418`)
}
