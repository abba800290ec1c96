package security

import (
	"strconv"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestValidateReadOnly(t *testing.T) {
	tests := []struct {
		name    string
		query   string
		wantErr error
		errMsg  string
	}{
		{name: "select", query: "SELECT * FROM users"},
		{name: "lower case with trailing semicolon", query: "select id from users;"},
		{name: "cte", query: "WITH t AS (SELECT 1) SELECT * FROM t"},
		{name: "explain", query: "EXPLAIN SELECT 1"},
		{name: "show", query: "SHOW search_path"},
		{name: "values", query: "VALUES (1), (2)"},
		{name: "table", query: "TABLE users"},
		{name: "column containing keyword", query: "SELECT updated_at, deleted FROM users"},
		{name: "empty", query: "  ", wantErr: ErrEmptyQuery},
		{name: "just semicolon", query: ";", wantErr: ErrEmptyQuery},
		{name: "insert", query: "INSERT INTO users VALUES (1)", wantErr: ErrNotReadOnly},
		{name: "select prefix word", query: "SELECTED", wantErr: ErrNotReadOnly},
		{name: "stacked", query: "SELECT 1; DROP TABLE users", wantErr: ErrMultipleQueries},
		{name: "writable cte", query: "WITH d AS (DELETE FROM users RETURNING *) SELECT * FROM d", errMsg: "DELETE"},
		{name: "explain analyze update", query: "EXPLAIN ANALYZE UPDATE users SET name = 'x'", errMsg: "UPDATE"},
		{name: "select into", query: "SELECT * INTO stolen FROM users", errMsg: "INTO"},
		{name: "nextval", query: "SELECT nextval('users_id_seq')", errMsg: "NEXTVAL"},
		{name: "setval", query: "SELECT setval('users_id_seq', 1)", errMsg: "SETVAL"},
		{name: "terminate backend", query: "SELECT pg_terminate_backend(123)", errMsg: "PG_TERMINATE_BACKEND"},
		{name: "cancel backend", query: "SELECT pg_cancel_backend(123)", errMsg: "PG_CANCEL_BACKEND"},
		{name: "large object import", query: "SELECT lo_import('/etc/passwd')", errMsg: "LO_IMPORT"},
		{name: "large object export", query: "SELECT lo_export(1, '/tmp/x')", errMsg: "LO_EXPORT"},
		{name: "column containing into", query: "SELECT intox, currval_id FROM users"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := ValidateReadOnly(tt.query)
			switch {
			case tt.wantErr != nil:
				assert.ErrorIs(t, err, tt.wantErr)
			case tt.errMsg != "":
				require.Error(t, err)
				assert.Contains(t, err.Error(), tt.errMsg)
			default:
				assert.NoError(t, err)
			}
		})
	}
}

func TestContainsWord(t *testing.T) {
	assert.True(t, containsWord("SELECT 1", "SELECT"))
	assert.True(t, containsWord("A.DELETE", "DELETE"))
	assert.False(t, containsWord("IS_DELETED", "DELETE"))
	assert.False(t, containsWord("DELETED_AT", "DELETE"))
}

func TestVerifyHMAC(t *testing.T) {
	now := time.Unix(1_700_000_000, 0)
	ts := strconv.FormatInt(now.Unix(), 10)
	body := `{"connectionString":"postgres://localhost/app"}`
	sig := Sign("devsecret", "POST", "/invoke/pg_connect", body, ts)

	tests := []struct {
		name      string
		secret    string
		timestamp string
		signature string
		at        time.Time
		wantErr   error
		anyErr    bool
	}{
		{name: "valid", secret: "devsecret", timestamp: ts, signature: sig, at: now},
		{name: "secret disabled", secret: "", timestamp: "", signature: "", at: now},
		{name: "wrong signature", secret: "devsecret", timestamp: ts, signature: "deadbeef", at: now, wantErr: ErrInvalidSignature},
		{name: "wrong secret", secret: "other", timestamp: ts, signature: sig, at: now, wantErr: ErrInvalidSignature},
		{name: "expired", secret: "devsecret", timestamp: ts, signature: sig, at: now.Add(6 * time.Minute), wantErr: ErrRequestExpired},
		{name: "future", secret: "devsecret", timestamp: ts, signature: sig, at: now.Add(-6 * time.Minute), wantErr: ErrRequestExpired},
		{name: "bad timestamp", secret: "devsecret", timestamp: "yesterday", signature: sig, at: now, anyErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := verifyAt(tt.at, tt.secret, "POST", "/invoke/pg_connect", body, tt.timestamp, tt.signature)
			switch {
			case tt.wantErr != nil:
				assert.ErrorIs(t, err, tt.wantErr)
			case tt.anyErr:
				assert.Error(t, err)
			default:
				assert.NoError(t, err)
			}
		})
	}
}
