package exporter

import (
	"encoding/base64"
	"encoding/json"
	"fmt"
	"io"

	"github.com/xuri/excelize/v2"
)

// maxExcelRows is the worksheet hard limit.
const maxExcelRows = 1048576

// ExcelEncoder implements RowEncoder for Excel (.xlsx) files.
// It uses excelize.StreamWriter so rows are not held as cell objects.
type ExcelEncoder struct {
	f         *excelize.File
	sw        *excelize.StreamWriter
	w         io.Writer
	sheetName string
	rowIdx    int
	err       error
	flushed   bool
}

// NewExcelEncoder creates a new Excel encoder with a single "Result" sheet.
func NewExcelEncoder(w io.Writer) *ExcelEncoder {
	f := excelize.NewFile()
	sheetName := "Result"
	if err := f.SetSheetName("Sheet1", sheetName); err != nil {
		return &ExcelEncoder{f: f, err: err}
	}
	sw, err := f.NewStreamWriter(sheetName)
	if err != nil {
		return &ExcelEncoder{f: f, err: err}
	}

	return &ExcelEncoder{
		f:         f,
		sw:        sw,
		w:         w,
		sheetName: sheetName,
		rowIdx:    1,
	}
}

func (e *ExcelEncoder) WriteHeader(columns []string) error {
	row := make([]any, len(columns))
	for i, col := range columns {
		row[i] = guardFormula(col)
	}
	return e.setRow(row)
}

func (e *ExcelEncoder) WriteRow(values []any) error {
	row := make([]any, len(values))
	for i, v := range values {
		row[i] = cellValue(v)
	}
	return e.setRow(row)
}

func (e *ExcelEncoder) setRow(row []any) error {
	if e.err != nil {
		return e.err
	}
	if e.rowIdx > maxExcelRows {
		e.err = fmt.Errorf("excel row limit exceeded (%d rows)", maxExcelRows)
		return e.err
	}

	cell, err := excelize.CoordinatesToCellName(1, e.rowIdx)
	if err != nil {
		e.err = err
		return err
	}
	if err := e.sw.SetRow(cell, row); err != nil {
		e.err = err
		return err
	}

	e.rowIdx++
	return nil
}

// cellValue keeps numbers and booleans native and guards text cells.
func cellValue(v any) any {
	switch val := v.(type) {
	case nil:
		return nil
	case int32, int64, int, float64, bool:
		return val
	case string:
		return guardFormula(val)
	case json.RawMessage:
		return guardFormula(string(val))
	case []byte:
		return base64.StdEncoding.EncodeToString(val)
	default:
		return guardFormula(toString(val))
	}
}

// Flush writes the workbook to the underlying writer. It may only run once.
func (e *ExcelEncoder) Flush() error {
	if e.err != nil {
		return e.err
	}
	if e.flushed {
		return nil
	}
	e.flushed = true

	if err := e.sw.Flush(); err != nil {
		e.err = err
		return err
	}
	if err := e.f.Write(e.w); err != nil {
		e.err = err
		return err
	}
	return nil
}

func (e *ExcelEncoder) Error() error {
	return e.err
}

func (e *ExcelEncoder) Close() error {
	err := e.Flush()
	if e.f != nil {
		_ = e.f.Close()
	}
	return err
}
