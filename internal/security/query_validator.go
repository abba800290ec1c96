package security

import (
	"errors"
	"strings"
)

var (
	ErrEmptyQuery      = errors.New("query is empty")
	ErrMultipleQueries = errors.New("multi-statement queries are not allowed in read-only mode")
	ErrNotReadOnly     = errors.New("only SELECT, WITH, SHOW, EXPLAIN, VALUES and TABLE statements are allowed in read-only mode")
)

// readOnlyPrefixes are the leading keywords of statements that cannot write.
var readOnlyPrefixes = []string{"SELECT", "WITH", "SHOW", "EXPLAIN", "VALUES", "TABLE"}

// forbidden keywords; a writable CTE or EXPLAIN ANALYZE of DML is caught here.
var forbidden = []string{
	"INSERT", "UPDATE", "DELETE", "MERGE", "DROP", "ALTER", "TRUNCATE", "CREATE",
	"GRANT", "REVOKE", "COPY", "CALL", "DO", "VACUUM", "REINDEX", "CLUSTER",
	"LOCK", "REFRESH", "SET", "RESET", "INTO",
	"NEXTVAL", "SETVAL", "PG_TERMINATE_BACKEND", "PG_CANCEL_BACKEND",
	"LO_IMPORT", "LO_EXPORT", "LO_UNLINK", "PG_RELOAD_CONF",
}

// ValidateReadOnly rejects statements that could modify the database:
//  1. Must start with a read-only keyword.
//  2. Must not contain a statement separator (a single trailing one is allowed).
//  3. Must not contain a DML/DDL keyword as a standalone word.
//  4. Must not use SELECT INTO or call a known side-effecting function
//     (sequence advance, backend signalling, large-object I/O).
//
// User-defined functions with side effects are not detected.
// Quoted identifiers and literals are not parsed, so a column named "update"
// written unquoted is rejected too.
func ValidateReadOnly(query string) error {
	q := strings.TrimSpace(query)
	q = strings.TrimSuffix(q, ";")
	if q == "" {
		return ErrEmptyQuery
	}
	qUpper := strings.ToUpper(q)

	readOnly := false
	for _, prefix := range readOnlyPrefixes {
		if hasKeywordPrefix(qUpper, prefix) {
			readOnly = true
			break
		}
	}
	if !readOnly {
		return ErrNotReadOnly
	}

	if strings.Contains(q, ";") {
		return ErrMultipleQueries
	}

	for _, word := range forbidden {
		if containsWord(qUpper, word) {
			return errors.New("forbidden keyword detected: " + word)
		}
	}

	return nil
}

func hasKeywordPrefix(s, keyword string) bool {
	if !strings.HasPrefix(s, keyword) {
		return false
	}
	return len(s) == len(keyword) || isBoundary(s[len(keyword)])
}

// containsWord checks if the word exists in s as a standalone word.
// It assumes s is already uppercase. "UPDATED_AT" does not match "UPDATE".
func containsWord(s, word string) bool {
	idx := 0
	for {
		i := strings.Index(s[idx:], word)
		if i == -1 {
			return false
		}
		start := idx + i
		end := start + len(word)

		isStartValid := start == 0 || isBoundary(s[start-1])
		isEndValid := end == len(s) || isBoundary(s[end])
		if isStartValid && isEndValid {
			return true
		}

		idx = start + 1
	}
}

func isBoundary(b byte) bool {
	return b == ' ' || b == '\t' || b == '\n' || b == '\r' ||
		b == '(' || b == ')' || b == ',' || b == '=' ||
		b == '<' || b == '>' || b == '.' || b == '"' ||
		b == '[' || b == ']' || b == ';'
}
