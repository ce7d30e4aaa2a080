package admin

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/rs/zerolog/log"

	"github.com/maxpert/mylite/catalog"
	"github.com/maxpert/mylite/db"
	"github.com/maxpert/mylite/protocol"
)

// Backend is the part of db.Translator the admin API reads from.
type Backend interface {
	Query(ctx context.Context, sqlText string, params ...any) (*db.Result, error)
	Reconstruct(ctx context.Context) error
	LastQueries() []db.ExecutedQuery
	CachedTranslations() int
	CatalogTables(ctx context.Context) (int, error)
	SQLiteVersion() string
}

var _ Backend = (*db.Translator)(nil)

// AdminHandlers serves the admin API for one translator
type AdminHandlers struct {
	backend Backend
}

// NewAdminHandlers creates a new AdminHandlers instance
func NewAdminHandlers(backend Backend) *AdminHandlers {
	return &AdminHandlers{backend: backend}
}

func (h *AdminHandlers) handleStats(w http.ResponseWriter, r *http.Request) {
	tables, err := h.backend.CatalogTables(r.Context())
	if err != nil {
		writeQueryError(w, err)
		return
	}
	writeJSONResponse(w, map[string]any{
		"sqlite_version":      h.backend.SQLiteVersion(),
		"cached_translations": h.backend.CachedTranslations(),
		"catalog_tables":      tables,
	})
}

func (h *AdminHandlers) handleLastQueries(w http.ResponseWriter, r *http.Request) {
	queries := h.backend.LastQueries()
	data := make([]map[string]any, 0, len(queries))
	for _, q := range queries {
		data = append(data, map[string]any{"sql": q.SQL, "params": q.Params})
	}
	writeJSONResponse(w, data)
}

func (h *AdminHandlers) handleReconstruct(w http.ResponseWriter, r *http.Request) {
	if err := h.backend.Reconstruct(r.Context()); err != nil {
		log.Error().Err(err).Msg("Catalog reconstruction failed")
		writeErrorResponse(w, http.StatusInternalServerError, err.Error())
		return
	}
	h.handleStats(w, r)
}

func (h *AdminHandlers) handleListTables(w http.ResponseWriter, r *http.Request) {
	res, err := h.backend.Query(r.Context(), "SHOW FULL TABLES")
	if err != nil {
		writeQueryError(w, err)
		return
	}
	writeJSONResponse(w, textMaps(res))
}

func (h *AdminHandlers) handleShowCreate(w http.ResponseWriter, r *http.Request) {
	table := chi.URLParam(r, "table")
	res, err := h.backend.Query(r.Context(), "SHOW CREATE TABLE "+catalog.QuoteIdent(table))
	if err != nil {
		writeQueryError(w, err)
		return
	}
	if len(res.Rows) == 0 || len(res.Rows[0]) < 2 {
		writeErrorResponse(w, http.StatusNotFound, "table not found")
		return
	}
	row := textMaps(res)[0]
	writeJSONResponse(w, map[string]any{"table": row["Table"], "create_table": row["Create Table"]})
}

func (h *AdminHandlers) handleColumns(w http.ResponseWriter, r *http.Request) {
	table := chi.URLParam(r, "table")
	res, err := h.backend.Query(r.Context(), "SHOW FULL COLUMNS FROM "+catalog.QuoteIdent(table))
	if err != nil {
		writeQueryError(w, err)
		return
	}
	writeJSONResponse(w, textMaps(res))
}

// textMaps returns the rows of res keyed by column with byte slices as
// strings, so TEXT values do not encode as base64.
func textMaps(res *db.Result) []map[string]any {
	rows := res.Maps()
	for _, row := range rows {
		for k, v := range row {
			if b, ok := v.([]byte); ok {
				row[k] = string(b)
			}
		}
	}
	return rows
}

// writeJSONResponse writes a successful JSON response
func writeJSONResponse(w http.ResponseWriter, data any) {
	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(map[string]any{"data": data}); err != nil {
		log.Error().Err(err).Msg("Failed to encode JSON response")
	}
}

// writeErrorResponse writes an error JSON response
func writeErrorResponse(w http.ResponseWriter, status int, message string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(map[string]any{"error": message}); err != nil {
		log.Error().Err(err).Msg("Failed to encode error response")
	}
}

// writeQueryError maps a translator error to a status. Missing tables are
// 404, other MySQL errors are the caller's fault.
func writeQueryError(w http.ResponseWriter, err error) {
	var mysqlErr *protocol.MySQLError
	if errors.As(err, &mysqlErr) {
		status := http.StatusBadRequest
		if mysqlErr.Code == protocol.ErrCodeNoSuchTable {
			status = http.StatusNotFound
		}
		writeErrorResponse(w, status, mysqlErr.Error())
		return
	}
	writeErrorResponse(w, http.StatusInternalServerError, err.Error())
}
