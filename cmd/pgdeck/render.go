package main

import (
	"encoding/base64"
	"encoding/json"
	"fmt"
	"io"

	"github.com/jedib0t/go-pretty/v6/table"

	"pgdeck/internal/browser"
)

func renderResult(w io.Writer, result *browser.QueryResult) {
	if len(result.Rows) == 0 {
		_, _ = fmt.Fprintln(w, "(0 rows)")
		return
	}

	t := table.NewWriter()
	t.SetOutputMirror(w)
	t.SetStyle(table.StyleLight)

	header := make(table.Row, 0, result.Columns.Len())
	for _, name := range result.ColumnNames() {
		header = append(header, name)
	}
	t.AppendHeader(header)

	for i := range result.Rows {
		values := result.Values(i)
		row := make(table.Row, len(values))
		for j, v := range values {
			row[j] = formatValue(v)
		}
		t.AppendRow(row)
	}

	t.Render()
	_, _ = fmt.Fprintf(w, "(%d rows)\n", len(result.Rows))
}

func renderSchemas(w io.Writer, schemas []browser.Schema) {
	if len(schemas) == 0 {
		_, _ = fmt.Fprintln(w, "(no tables)")
		return
	}

	t := table.NewWriter()
	t.SetOutputMirror(w)
	t.SetStyle(table.StyleLight)
	t.AppendHeader(table.Row{"schema", "table", "column", "type"})

	for _, s := range schemas {
		for _, tbl := range s.Tables {
			if len(tbl.Columns) == 0 {
				t.AppendRow(table.Row{s.Name, tbl.Name, "", ""})
				continue
			}
			for _, col := range tbl.Columns {
				t.AppendRow(table.Row{s.Name, tbl.Name, col.Name, col.DataType})
			}
		}
		t.AppendSeparator()
	}

	t.Render()
}

func renderJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

func formatValue(v any) string {
	switch val := v.(type) {
	case nil:
		return "NULL"
	case json.RawMessage:
		return string(val)
	case []byte:
		return base64.StdEncoding.EncodeToString(val)
	default:
		return fmt.Sprintf("%v", val)
	}
}
