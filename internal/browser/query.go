package browser

import (
	"context"
	"database/sql"
	"encoding/json"
	"strings"

	orderedmap "github.com/wk8/go-ordered-map/v2"

	"pgdeck/internal/security"
)

// ExecuteQuery runs one statement with no bound parameters and returns the
// result serialized as JSON text.
func (s *Service) ExecuteQuery(ctx context.Context, target, query string) (string, error) {
	result, err := s.Query(ctx, target, query)
	if err != nil {
		return "", err
	}
	data, err := json.Marshal(result)
	if err != nil {
		return "", err
	}
	return string(data), nil
}

// Query runs one statement with no bound parameters and decodes every row.
// Column types are taken from the first row only, so a statement that returns
// no rows yields empty Columns.
func (s *Service) Query(ctx context.Context, target, query string) (*QueryResult, error) {
	if s.opts.ReadOnly {
		if err := security.ValidateReadOnly(query); err != nil {
			return nil, err
		}
	}

	sess, err := s.open(ctx, target)
	if err != nil {
		return nil, err
	}
	s.track(sess)
	defer sess.Release()

	rows, err := sess.QueryContext(ctx, query)
	if err != nil {
		return nil, err
	}
	defer func() { _ = rows.Close() }()

	result, err := collectRows(rows)
	if err != nil {
		return nil, err
	}
	s.logger.Debug("query executed", "rows", len(result.Rows), "columns", result.Columns.Len())
	return result, nil
}

func collectRows(rows *sql.Rows) (*QueryResult, error) {
	types, err := rows.ColumnTypes()
	if err != nil {
		return nil, err
	}

	names := make([]string, len(types))
	typeNames := make([]string, len(types))
	decs := make([]decoder, len(types))
	for i, ct := range types {
		names[i] = ct.Name()
		typeNames[i] = strings.ToLower(ct.DatabaseTypeName())
		decs[i] = decoderFor(typeNames[i])
	}

	result := NewQueryResult()
	dest := make([]any, len(decs))
	for rows.Next() {
		for i, d := range decs {
			dest[i] = d.dest()
		}
		if err := rows.Scan(dest...); err != nil {
			return nil, err
		}

		if len(result.Rows) == 0 {
			for i := range names {
				result.Columns.Set(names[i], typeNames[i])
			}
		}

		row := orderedmap.New[string, any]()
		for i, d := range decs {
			row.Set(names[i], d.value(dest[i]))
		}
		result.Rows = append(result.Rows, row)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	return result, nil
}
