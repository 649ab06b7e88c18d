package web

import (
	"encoding/csv"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/avforge/catalogstd/internal/extract"
	"github.com/avforge/catalogstd/internal/logging"
	"github.com/avforge/catalogstd/internal/pipeline"
	"github.com/avforge/catalogstd/internal/schema"
	"github.com/avforge/catalogstd/internal/store"
)

// handleHealth reports liveness.
func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

// uploadResponse is the body returned after a successful upload.
type uploadResponse struct {
	SessionID string            `json:"session_id"`
	FileName  string            `json:"file_name"`
	Outcome   *pipeline.Outcome `json:"outcome"`
}

// handleUpload accepts a multipart catalog file, runs the full pipeline,
// and opens a review session holding the result.
func (s *Server) handleUpload(w http.ResponseWriter, r *http.Request) {
	log := logging.FromContext(r.Context())

	r.Body = http.MaxBytesReader(w, r.Body, s.cfg.Upload.MaxFileSize)
	if err := r.ParseMultipartForm(s.cfg.Upload.MaxFileSize); err != nil {
		writeJSON(w, http.StatusRequestEntityTooLarge, ErrorResponse{
			Error: fmt.Sprintf("file exceeds the %d byte limit", s.cfg.Upload.MaxFileSize),
			Code:  "file_too_large",
		})
		return
	}

	file, header, err := r.FormFile("file")
	if err != nil {
		writeJSON(w, http.StatusBadRequest, ErrorResponse{
			Error: "multipart field \"file\" is required",
			Code:  "missing_file",
		})
		return
	}
	defer file.Close()

	ext := strings.ToLower(strings.TrimPrefix(filepath.Ext(header.Filename), "."))
	if !s.allowedExtension(ext) {
		writeJSON(w, http.StatusBadRequest, ErrorResponse{
			Error: fmt.Sprintf("extension %q not allowed; accepted: %s",
				ext, strings.Join(s.cfg.Upload.AllowedExtensions, ", ")),
			Code: "unsupported_format",
		})
		return
	}

	// Extraction libraries read from disk, so spool the upload to a temp
	// file with the original extension preserved.
	tmp, err := os.CreateTemp("", "catalog-*."+ext)
	if err != nil {
		s.respondError(w, r, err)
		return
	}
	defer os.Remove(tmp.Name())
	if _, err := io.Copy(tmp, file); err != nil {
		tmp.Close()
		s.respondError(w, r, err)
		return
	}
	tmp.Close()

	started := time.Now()
	grid, err := extract.ForPath(tmp.Name())
	if err != nil {
		s.respondError(w, r, err)
		return
	}
	grid.Meta.FileName = header.Filename

	outcome := s.processor.ProcessGrid(r.Context(), grid)

	sess, err := s.sessions.Create(header.Filename, grid, outcome)
	if err != nil {
		s.respondError(w, r, err)
		return
	}

	s.recordRun(r, sess, time.Since(started))

	log.Info("catalog uploaded",
		"session_id", sess.ID,
		"file", header.Filename,
		"records", len(outcome.Records),
	)

	writeJSON(w, http.StatusCreated, uploadResponse{
		SessionID: sess.ID,
		FileName:  header.Filename,
		Outcome:   outcome,
	})
}

func (s *Server) allowedExtension(ext string) bool {
	for _, allowed := range s.cfg.Upload.AllowedExtensions {
		if strings.EqualFold(ext, allowed) {
			return true
		}
	}
	return false
}

// recordRun persists run history when a database is configured. Failures
// are logged, never surfaced to the client.
func (s *Server) recordRun(r *http.Request, sess *Session, took time.Duration) {
	if s.runs == nil {
		return
	}
	mapping, err := json.Marshal(sess.Outcome.Mapping)
	if err != nil {
		mapping = nil
	}
	run := &store.Run{
		FileName:     sess.FileName,
		Format:       sess.Grid.Meta.Format,
		RowCount:     len(sess.Grid.Rows),
		RecordCount:  len(sess.Outcome.Records),
		ValidCount:   sess.Outcome.Report.ValidCount,
		InvalidCount: sess.Outcome.Report.InvalidCount,
		Mapping:      mapping,
		Duration:     took,
	}
	if err := s.runs.RecordRun(r.Context(), run); err != nil {
		s.log.Error("record run failed", "error", err, "file", sess.FileName)
	}
}

// mappingsResponse exposes the inferred column mapping for review.
type mappingsResponse struct {
	SessionID    string                            `json:"session_id"`
	Headers      []string                          `json:"headers"`
	Mappings     map[string]pipeline.ColumnMapping `json:"mappings"`
	Manufacturer *pipeline.ManufacturerDetection   `json:"manufacturer,omitempty"`
}

func (s *Server) handleGetMappings(w http.ResponseWriter, r *http.Request) {
	sess, err := s.sessions.Get(chi.URLParam(r, "sessionID"))
	if err != nil {
		s.respondError(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, mappingsResponse{
		SessionID:    sess.ID,
		Headers:      sess.Grid.Headers,
		Mappings:     sess.Outcome.Mapping.Columns,
		Manufacturer: sess.Outcome.Mapping.Manufacturer,
	})
}

// mappingUpdate is the PUT body: source column to standard field. An empty
// standard field clears the assignment for that column.
type mappingUpdate struct {
	Mappings map[string]string `json:"mappings"`
}

// handleUpdateMappings applies manual mapping corrections and re-assembles
// the records from the retained grid. Inference is not re-run; structure
// and categories carry over from the original processing.
func (s *Server) handleUpdateMappings(w http.ResponseWriter, r *http.Request) {
	sess, err := s.sessions.Get(chi.URLParam(r, "sessionID"))
	if err != nil {
		s.respondError(w, r, err)
		return
	}

	var upd mappingUpdate
	if err := json.NewDecoder(r.Body).Decode(&upd); err != nil {
		writeJSON(w, http.StatusBadRequest, ErrorResponse{
			Error: "request body must be JSON with a \"mappings\" object",
			Code:  "bad_request",
		})
		return
	}

	headers := make(map[string]bool, len(sess.Grid.Headers))
	for _, h := range sess.Grid.Headers {
		headers[h] = true
	}

	for column, field := range upd.Mappings {
		if !headers[column] {
			writeJSON(w, http.StatusBadRequest, ErrorResponse{
				Error: fmt.Sprintf("unknown column %q", column),
				Code:  "unknown_column",
			})
			return
		}
		if field == "" {
			delete(sess.Outcome.Mapping.Columns, column)
			continue
		}
		if !schema.ValidField(field) {
			writeJSON(w, http.StatusBadRequest, ErrorResponse{
				Error: fmt.Sprintf("unknown standard field %q", field),
				Code:  "unknown_field",
			})
			return
		}
		sess.Outcome.Mapping.Columns[column] = pipeline.ColumnMapping{
			StandardField: field,
			Confidence:    1.0,
			Reasoning:     "manual assignment",
		}
	}

	// Re-assemble with the corrected mapping.
	norm := pipeline.NewNormalizer(s.log)
	records := pipeline.Assemble(sess.Grid.Rows, sess.Outcome.Structure,
		sess.Outcome.Mapping, sess.Outcome.Categories, norm)
	report := pipeline.Validate(records)
	sess.Outcome.Records = pipeline.Filter(records, report)
	sess.Outcome.Report = report

	if err := s.sessions.save(sess); err != nil {
		s.respondError(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, uploadResponse{
		SessionID: sess.ID,
		FileName:  sess.FileName,
		Outcome:   sess.Outcome,
	})
}

// handlePreview returns the first N standardized records with the
// validation report. Default limit is 10.
func (s *Server) handlePreview(w http.ResponseWriter, r *http.Request) {
	sess, err := s.sessions.Get(chi.URLParam(r, "sessionID"))
	if err != nil {
		s.respondError(w, r, err)
		return
	}

	limit := 10
	if q := r.URL.Query().Get("limit"); q != "" {
		n, err := strconv.Atoi(q)
		if err != nil || n < 1 {
			writeJSON(w, http.StatusBadRequest, ErrorResponse{
				Error: "limit must be a positive integer",
				Code:  "bad_request",
			})
			return
		}
		limit = n
	}
	records := sess.Outcome.Records
	if limit < len(records) {
		records = records[:limit]
	}

	writeJSON(w, http.StatusOK, map[string]any{
		"session_id": sess.ID,
		"records":    records,
		"total":      len(sess.Outcome.Records),
		"validation": sess.Outcome.Report,
	})
}

// handleExport streams the standardized records as CSV or JSON. CSV columns
// follow the canonical field order.
func (s *Server) handleExport(w http.ResponseWriter, r *http.Request) {
	sess, err := s.sessions.Get(chi.URLParam(r, "sessionID"))
	if err != nil {
		s.respondError(w, r, err)
		return
	}

	base := strings.TrimSuffix(sess.FileName, filepath.Ext(sess.FileName))

	switch format := r.URL.Query().Get("format"); format {
	case "", "csv":
		w.Header().Set("Content-Type", "text/csv")
		w.Header().Set("Content-Disposition",
			fmt.Sprintf("attachment; filename=%q", base+"_standardized.csv"))
		if err := writeRecordsCSV(w, sess.Outcome.Records); err != nil {
			s.log.Error("csv export failed", "error", err, "session_id", sess.ID)
		}
	case "json":
		w.Header().Set("Content-Disposition",
			fmt.Sprintf("attachment; filename=%q", base+"_standardized.json"))
		writeJSON(w, http.StatusOK, sess.Outcome.Records)
	default:
		writeJSON(w, http.StatusBadRequest, ErrorResponse{
			Error: fmt.Sprintf("unknown export format %q; use csv or json", format),
			Code:  "bad_request",
		})
	}
}

// writeRecordsCSV writes records in canonical field order, one header row
// then one row per record.
func writeRecordsCSV(w io.Writer, records []pipeline.Record) error {
	cw := csv.NewWriter(w)
	if err := cw.Write(schema.Fields); err != nil {
		return err
	}

	row := make([]string, len(schema.Fields))
	for _, rec := range records {
		for i, field := range schema.Fields {
			row[i] = formatCell(rec[field])
		}
		if err := cw.Write(row); err != nil {
			return err
		}
	}
	cw.Flush()
	return cw.Error()
}

// formatCell renders a normalized value for CSV output.
func formatCell(v any) string {
	switch x := v.(type) {
	case nil:
		return ""
	case string:
		return x
	case bool:
		return strconv.FormatBool(x)
	case float64:
		return strconv.FormatFloat(x, 'f', -1, 64)
	default:
		return fmt.Sprint(x)
	}
}

// handleListRuns returns processing-run history, newest first.
func (s *Server) handleListRuns(w http.ResponseWriter, r *http.Request) {
	if s.runs == nil {
		writeJSON(w, http.StatusNotFound, ErrorResponse{
			Error: "run history requires a configured database",
			Code:  "not_configured",
		})
		return
	}

	limit := 0
	if q := r.URL.Query().Get("limit"); q != "" {
		limit, _ = strconv.Atoi(q)
	}

	runs, err := s.runs.ListRuns(r.Context(), limit)
	if err != nil {
		s.respondError(w, r, err)
		return
	}
	if runs == nil {
		runs = []store.Run{}
	}
	writeJSON(w, http.StatusOK, runs)
}
