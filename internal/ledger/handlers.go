package ledger

import (
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"mime/multipart"
	"net/http"
	"path/filepath"
	"strings"

	"github.com/maceasy/maceasy/internal/catalog"
)

// corsError writes an error response with CORS headers set
func corsError(w http.ResponseWriter, message string, code int) {
	setCORSHeaders(w)
	http.Error(w, message, code)
}

// setCORSHeaders sets CORS headers on a response
func setCORSHeaders(w http.ResponseWriter) {
	w.Header().Set("Access-Control-Allow-Origin", "*")
	w.Header().Set("Access-Control-Allow-Methods", "GET, POST, PATCH, DELETE, OPTIONS")
	w.Header().Set("Access-Control-Allow-Headers", "Content-Type, Authorization")
	w.Header().Set("Access-Control-Max-Age", "3600")
}

func writeJSON(w http.ResponseWriter, code int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		slog.Error("Error encoding response", "error", err)
	}
}

func writeJSONError(w http.ResponseWriter, code int, message string) {
	setCORSHeaders(w)
	writeJSON(w, code, map[string]string{"error": message})
}

// handleIndex serves the review page
func (s *Server) handleIndex(w http.ResponseWriter, r *http.Request) {
	setCORSHeaders(w)
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.Write(indexHTML)
}

// handleUploadReceipts accepts a multipart batch of receipt files,
// runs each through scanning and normalization, and reports the
// aggregate outcome. One bad file does not fail the batch.
func (s *Server) handleUploadReceipts(w http.ResponseWriter, r *http.Request) {
	// A batch of phone photos can be large; individual files are still
	// capped at 10MB by the service.
	if err := r.ParseMultipartForm(64 << 20); err != nil {
		slog.Error("Error parsing multipart form", "error", err)
		writeJSONError(w, http.StatusBadRequest, "Error parsing form")
		return
	}

	var headers []*multipart.FileHeader
	if r.MultipartForm != nil {
		headers = append(headers, r.MultipartForm.File["files"]...)
		headers = append(headers, r.MultipartForm.File["file"]...)
	}
	if len(headers) == 0 {
		writeJSONError(w, http.StatusBadRequest, "No files were selected. Please choose at least one receipt.")
		return
	}

	uploads := make([]Upload, 0, len(headers))
	for _, header := range headers {
		f, err := header.Open()
		if err != nil {
			writeJSONError(w, http.StatusBadRequest, fmt.Sprintf("Error reading %s", header.Filename))
			return
		}
		data, err := io.ReadAll(f)
		f.Close()
		if err != nil {
			slog.Error("Error reading file data", "error", err, "filename", header.Filename)
			writeJSONError(w, http.StatusInternalServerError, fmt.Sprintf("Error reading %s", header.Filename))
			return
		}

		uploads = append(uploads, Upload{
			Filename:    header.Filename,
			Data:        data,
			ContentType: contentTypeFor(header),
		})
	}

	report, err := s.service.ProcessBatch(uploads)
	if err != nil {
		slog.Error("Error processing batch", "error", err)
		writeJSONError(w, http.StatusInternalServerError, "Internal server error")
		return
	}

	setCORSHeaders(w)
	writeJSON(w, http.StatusOK, report)
}

// contentTypeFor falls back to the file extension when the part
// carries no Content-Type header
func contentTypeFor(header *multipart.FileHeader) string {
	contentType := strings.ToLower(strings.TrimSpace(header.Header.Get("Content-Type")))
	if contentType != "" {
		return contentType
	}
	switch strings.ToLower(filepath.Ext(header.Filename)) {
	case ".jpg", ".jpeg":
		return "image/jpeg"
	case ".png":
		return "image/png"
	case ".pdf":
		return "application/pdf"
	default:
		return "application/octet-stream"
	}
}

// handleListLines returns all ledger lines with a summary
func (s *Server) handleListLines(w http.ResponseWriter, r *http.Request) {
	lines, summary, err := s.service.ListLines()
	if err != nil {
		slog.Error("Error listing lines", "error", err)
		corsError(w, "Internal server error", http.StatusInternalServerError)
		return
	}

	setCORSHeaders(w)
	writeJSON(w, http.StatusOK, map[string]any{
		"lines":   lines,
		"summary": summary,
	})
}

// handleUpdateLine applies a field edit to one line
func (s *Server) handleUpdateLine(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("id")
	if id == "" {
		corsError(w, "Line ID required", http.StatusBadRequest)
		return
	}

	var edit Edit
	if err := json.NewDecoder(r.Body).Decode(&edit); err != nil {
		writeJSONError(w, http.StatusBadRequest, "Invalid request body")
		return
	}

	if err := s.service.UpdateLine(id, edit); err != nil {
		slog.Error("Error updating line", "id", id, "error", err)
		corsError(w, "Internal server error", http.StatusInternalServerError)
		return
	}

	setCORSHeaders(w)
	w.WriteHeader(http.StatusNoContent)
}

// handleDeleteLine removes one line; unknown IDs are a no-op
func (s *Server) handleDeleteLine(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("id")
	if id == "" {
		corsError(w, "Line ID required", http.StatusBadRequest)
		return
	}

	if err := s.service.DeleteLine(id); err != nil {
		slog.Error("Error deleting line", "id", id, "error", err)
		corsError(w, "Internal server error", http.StatusInternalServerError)
		return
	}

	setCORSHeaders(w)
	w.WriteHeader(http.StatusNoContent)
}

// handleReset clears the ledger and supersedes the session
func (s *Server) handleReset(w http.ResponseWriter, r *http.Request) {
	if err := s.service.Reset(); err != nil {
		slog.Error("Error resetting ledger", "error", err)
		corsError(w, "Internal server error", http.StatusInternalServerError)
		return
	}

	setCORSHeaders(w)
	w.WriteHeader(http.StatusNoContent)
}

// handleExport streams the ledger as a Maconomy import CSV
func (s *Server) handleExport(w http.ResponseWriter, r *http.Request) {
	data, filename, err := s.service.Export()
	if err != nil {
		slog.Error("Error exporting ledger", "error", err)
		corsError(w, "Internal server error", http.StatusInternalServerError)
		return
	}

	setCORSHeaders(w)
	w.Header().Set("Content-Type", "text/csv; charset=utf-8")
	w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%q", filename))
	w.Write(data)
}

// handleListCategories returns the Maconomy category catalog
func (s *Server) handleListCategories(w http.ResponseWriter, r *http.Request) {
	setCORSHeaders(w)
	writeJSON(w, http.StatusOK, catalog.All())
}
