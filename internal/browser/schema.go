package browser

import (
	"context"

	"pgdeck/internal/driver"
)

const (
	listTablesQuery = `SELECT table_schema, table_name FROM information_schema.tables`

	listColumnsQuery = `SELECT column_name, data_type FROM information_schema.columns WHERE table_name = $1`

	listQualifiedColumnsQuery = `SELECT column_name, data_type FROM information_schema.columns WHERE table_name = $1 AND table_schema = $2`
)

// Schemas enumerates every schema in the catalog with its tables and columns.
// Tables come from one listing query; columns from one follow-up query per
// table, issued in schema-major, table-minor order. Any failure discards the
// partial tree.
func (s *Service) Schemas(ctx context.Context, target string) ([]Schema, error) {
	sess, err := s.open(ctx, target)
	if err != nil {
		return nil, err
	}
	s.track(sess)
	defer sess.Release()

	schemas, err := listTables(ctx, sess)
	if err != nil {
		return nil, err
	}

	for i := range schemas {
		for j := range schemas[i].Tables {
			table := &schemas[i].Tables[j]
			columns, err := s.listColumns(ctx, sess, schemas[i].Name, table.Name)
			if err != nil {
				return nil, err
			}
			table.Columns = append(table.Columns, columns...)
		}
	}

	s.logger.Debug("schemas enumerated", "schemas", len(schemas))
	return schemas, nil
}

// listTables folds (schema, table) pairs into schema nodes in catalog order.
func listTables(ctx context.Context, q driver.Querier) ([]Schema, error) {
	rows, err := q.QueryContext(ctx, listTablesQuery)
	if err != nil {
		return nil, err
	}
	defer func() { _ = rows.Close() }()

	schemas := make([]Schema, 0)
	index := make(map[string]int)
	for rows.Next() {
		var schemaName, tableName string
		if err := rows.Scan(&schemaName, &tableName); err != nil {
			return nil, err
		}

		i, ok := index[schemaName]
		if !ok {
			i = len(schemas)
			index[schemaName] = i
			schemas = append(schemas, Schema{Name: schemaName, Tables: make([]Table, 0)})
		}
		schemas[i].Tables = append(schemas[i].Tables, Table{Name: tableName, Columns: make([]Column, 0)})
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	return schemas, nil
}

func (s *Service) listColumns(ctx context.Context, q driver.Querier, schema, table string) ([]Column, error) {
	query, args := listColumnsQuery, []any{table}
	if s.opts.QualifiedColumnLookup {
		query, args = listQualifiedColumnsQuery, []any{table, schema}
	}

	rows, err := q.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer func() { _ = rows.Close() }()

	var columns []Column
	for rows.Next() {
		var col Column
		if err := rows.Scan(&col.Name, &col.DataType); err != nil {
			return nil, err
		}
		columns = append(columns, col)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	return columns, nil
}
