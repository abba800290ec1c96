package exporter

import (
	"encoding/json"
	"io"
	"strconv"

	orderedmap "github.com/wk8/go-ordered-map/v2"
)

// JSONEncoder implements RowEncoder for JSON Lines format.
// Each row is exported as a JSON object on its own line, keys in column order.
type JSONEncoder struct {
	w       io.Writer
	columns []string
	err     error
}

// NewJSONEncoder creates a new JSON Lines encoder.
func NewJSONEncoder(w io.Writer) *JSONEncoder {
	return &JSONEncoder{w: w}
}

// WriteHeader captures the column names to be used as JSON keys.
func (e *JSONEncoder) WriteHeader(columns []string) error {
	e.columns = columns
	return nil
}

func (e *JSONEncoder) WriteRow(values []any) error {
	if e.err != nil {
		return e.err
	}

	row := orderedmap.New[string, any](len(values))
	for i, v := range values {
		name := "column_" + strconv.Itoa(i+1)
		if i < len(e.columns) {
			name = e.columns[i]
		}
		row.Set(name, v)
	}

	data, err := json.Marshal(row)
	if err != nil {
		e.err = err
		return err
	}

	data = append(data, '\n')
	if _, err := e.w.Write(data); err != nil {
		e.err = err
		return err
	}
	return nil
}

func (e *JSONEncoder) Flush() error {
	return e.err
}

func (e *JSONEncoder) Error() error {
	return e.err
}

func (e *JSONEncoder) Close() error {
	return e.Flush()
}
