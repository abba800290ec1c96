package exporter

import (
	"context"
	"fmt"
	"time"

	"pgdeck/internal/browser"
)

// ExportResult contains stats about the export.
type ExportResult struct {
	RowsProcessed int64
	Duration      time.Duration
}

// Export writes a decoded query result through encoder and closes it. On
// failure the encoder is left unclosed so no partial document is emitted.
// Values are written exactly as the browser decoded them; column order follows
// the result. Cancelling ctx stops the export between rows.
func Export(ctx context.Context, result *browser.QueryResult, encoder RowEncoder) (*ExportResult, error) {
	start := time.Now()

	if err := encoder.WriteHeader(result.ColumnNames()); err != nil {
		return nil, fmt.Errorf("failed to write header: %w", err)
	}

	var rowCount int64
	for i := range result.Rows {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		if err := encoder.WriteRow(result.Values(i)); err != nil {
			return nil, fmt.Errorf("failed to write row %d: %w", i+1, err)
		}
		rowCount++
	}

	if err := encoder.Close(); err != nil {
		return nil, fmt.Errorf("failed to finish export: %w", err)
	}
	if err := encoder.Error(); err != nil {
		return nil, fmt.Errorf("export encoding error: %w", err)
	}

	return &ExportResult{
		RowsProcessed: rowCount,
		Duration:      time.Since(start),
	}, nil
}
