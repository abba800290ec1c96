package api

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"time"

	"pgdeck/internal/browser"
	"pgdeck/internal/exporter"
)

// ExportRequest is the body of POST /export.
type ExportRequest struct {
	Args
	Format string `json:"format"`
}

// HandleExport runs a query and returns the result as a file download.
func (h *Handler) HandleExport(w http.ResponseWriter, r *http.Request) {
	var req ExportRequest
	if err := json.NewDecoder(io.LimitReader(r.Body, maxArgsBody)).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, errors.New("invalid request body"))
		return
	}

	format, err := exporter.ParseFormat(req.Format)
	if err != nil {
		writeError(w, http.StatusBadRequest, err)
		return
	}
	target, err := req.target(false)
	if err != nil {
		writeError(w, http.StatusBadRequest, err)
		return
	}
	if req.Query == "" {
		writeError(w, http.StatusBadRequest, ErrMissingQuery)
		return
	}

	out, err := h.pool.Do(r.Context(), "export", func(ctx context.Context) (any, error) {
		return h.svc.Query(ctx, target, req.Query)
	})
	if err != nil {
		writeError(w, statusFor(err), err)
		return
	}
	result := out.(*browser.QueryResult)

	var buf bytes.Buffer
	enc, err := exporter.NewEncoder(format, &buf)
	if err != nil {
		writeError(w, http.StatusBadRequest, err)
		return
	}
	stats, err := exporter.Export(r.Context(), result, enc)
	if err != nil {
		h.logger.Error("Export encoding failed", "format", format, "error", err)
		writeError(w, http.StatusInternalServerError, err)
		return
	}

	filename := fmt.Sprintf("export-%s.%s", time.Now().UTC().Format("20060102-150405"), format.Extension())
	w.Header().Set("Content-Type", format.ContentType())
	w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%q", filename))
	w.Header().Set("X-Row-Count", fmt.Sprint(stats.RowsProcessed))
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(buf.Bytes())

	h.logger.Info("Export served", "format", format, "rows", stats.RowsProcessed, "bytes", buf.Len())
}
