package browser

import (
	orderedmap "github.com/wk8/go-ordered-map/v2"
)

// QueryResult is the display form of one executed statement.
// Columns maps column name to database type name in first-row order; each row
// carries exactly the keys of Columns in the same order.
type QueryResult struct {
	Columns *orderedmap.OrderedMap[string, string] `json:"columns"`
	Rows    []*orderedmap.OrderedMap[string, any]  `json:"rows"`
}

// NewQueryResult returns an empty result that encodes as {"columns":{},"rows":[]}.
func NewQueryResult() *QueryResult {
	return &QueryResult{
		Columns: orderedmap.New[string, string](),
		Rows:    make([]*orderedmap.OrderedMap[string, any], 0),
	}
}

// ColumnNames returns the column names in order.
func (r *QueryResult) ColumnNames() []string {
	names := make([]string, 0, r.Columns.Len())
	for pair := r.Columns.Oldest(); pair != nil; pair = pair.Next() {
		names = append(names, pair.Key)
	}
	return names
}

// Values returns the row at index i as a slice ordered like ColumnNames.
func (r *QueryResult) Values(i int) []any {
	row := r.Rows[i]
	values := make([]any, 0, row.Len())
	for pair := row.Oldest(); pair != nil; pair = pair.Next() {
		values = append(values, pair.Value)
	}
	return values
}

// Column is a catalog column with its declared type.
type Column struct {
	Name     string `json:"name"`
	DataType string `json:"data_type"`
}

// Table is a catalog table and its columns.
type Table struct {
	Name    string   `json:"name"`
	Columns []Column `json:"columns"`
}

// Schema is a catalog schema and its tables.
type Schema struct {
	Name   string  `json:"name"`
	Tables []Table `json:"tables"`
}
