package ledger

import (
	"errors"
	"fmt"
	"log/slog"
	"path/filepath"
	"regexp"
	"strings"
	"time"

	"github.com/shopspring/decimal"

	"github.com/maceasy/maceasy/internal/scanning"
)

const (
	// maxUploadSize caps individual receipt files at 10 MB
	maxUploadSize = 10 << 20
)

var (
	// ErrUnsupportedType rejects anything but PDF, JPEG and PNG
	ErrUnsupportedType = errors.New("only PDF, JPEG and PNG files are allowed")

	// ErrFileTooLarge rejects files over the upload cap
	ErrFileTooLarge = errors.New("file is too large, maximum size is 10MB")
)

var allowedContentTypes = map[string]bool{
	"application/pdf": true,
	"image/jpeg":      true,
	"image/jpg":       true,
	"image/png":       true,
}

// TimeSource provides the current time
type TimeSource interface {
	Now() time.Time
}

type defaultTimeSource struct{}

func (t *defaultTimeSource) Now() time.Time {
	return time.Now()
}

// Upload is one file handed over by the upload boundary
type Upload struct {
	Filename    string
	Data        []byte
	ContentType string
}

// FileError reports one failed file in a batch
type FileError struct {
	File    string `json:"file"`
	Message string `json:"message"`
}

// BatchReport aggregates the outcome of a multi-file upload. A failed
// file never prevents the other files' lines from being appended.
type BatchReport struct {
	Processed  int           `json:"processed"`
	LinesAdded int           `json:"linesAdded"`
	Errors     []FileError   `json:"errors"`
	Lines      []ReceiptLine `json:"lines"`
}

// Summary is the ledger overview shown alongside the line list
type Summary struct {
	Count int    `json:"count"`
	Total string `json:"total"`
}

// Service orchestrates upload validation, scanning, normalization and
// the ledger store
type Service struct {
	store      Store
	scanner    scanning.Scanner
	storage    Storage
	timeSource TimeSource
}

// NewService creates a new Service with the default time source
func NewService(store Store, scanner scanning.Scanner, storage Storage) *Service {
	return &Service{
		store:      store,
		scanner:    scanner,
		storage:    storage,
		timeSource: &defaultTimeSource{},
	}
}

// NewServiceWithDeps creates a new Service with custom dependencies for testing
func NewServiceWithDeps(store Store, scanner scanning.Scanner, storage Storage, timeSrc TimeSource) *Service {
	return &Service{
		store:      store,
		scanner:    scanner,
		storage:    storage,
		timeSource: timeSrc,
	}
}

// sanitizeFilename cleans up a filename by removing special characters
// and truncating length (phone cameras produce very long names)
func sanitizeFilename(filename string) string {
	ext := filepath.Ext(filename)
	base := strings.TrimSuffix(filename, ext)

	reg := regexp.MustCompile(`[^a-zA-Z0-9\s\-_]`)
	base = reg.ReplaceAllString(base, "")
	reg = regexp.MustCompile(`\s+`)
	base = reg.ReplaceAllString(base, " ")
	base = strings.TrimSpace(base)

	maxLen := 50
	if len(base) > maxLen {
		base = base[:maxLen]
	}
	if base == "" {
		base = "kvitto"
	}
	return base + ext
}

// ValidateUpload enforces the upload boundary before anything is
// stored or any network call is made
func ValidateUpload(filename string, size int, contentType string) error {
	if !allowedContentTypes[strings.ToLower(strings.TrimSpace(contentType))] {
		return fmt.Errorf("%s: %w", filename, ErrUnsupportedType)
	}
	if size > maxUploadSize {
		return fmt.Errorf("%s: %w", filename, ErrFileTooLarge)
	}
	return nil
}

// ProcessFile validates, stores, scans and normalizes one uploaded
// receipt and appends the resulting lines to the session's ledger.
func (s *Service) ProcessFile(session string, up Upload) (*ExtractionResult, error) {
	if err := ValidateUpload(up.Filename, len(up.Data), up.ContentType); err != nil {
		return nil, err
	}

	// Batch tokens come from the store so they survive restarts; a
	// reissued token would mint line IDs already in the ledger.
	batch, err := s.store.NextBatch()
	if err != nil {
		return nil, fmt.Errorf("allocating batch token: %w", err)
	}
	cleanFilename := sanitizeFilename(up.Filename)

	savedPath, err := s.storage.Save(fmt.Sprintf("%s_%s", batch, cleanFilename), up.Data)
	if err != nil {
		return nil, fmt.Errorf("saving file: %w", err)
	}

	payload, err := s.scanner.ScanReceipt(up.Data, up.ContentType)
	if err != nil {
		slog.Error("Failed to scan receipt",
			"filename", up.Filename,
			"content_type", up.ContentType,
			"file_size", len(up.Data),
			"error", err,
		)
		// Keep storage consistent with the ledger
		s.storage.Delete(savedPath)
		return nil, fmt.Errorf("scanning receipt: %w", err)
	}

	normalized := scanning.Normalize(payload, s.timeSource.Now())

	result := &ExtractionResult{RawText: normalized.RawText}
	for i, nl := range normalized.Lines {
		result.Lines = append(result.Lines, ReceiptLine{
			ID:            fmt.Sprintf("%s-%d", batch, i),
			FileName:      up.Filename,
			Date:          nl.Date,
			Supplier:      nl.Supplier,
			Description:   nl.Description,
			Quantity:      nl.Quantity,
			UnitPrice:     nl.UnitPrice,
			Currency:      nl.Currency,
			VATRate:       nl.VATRate,
			Amount:        nl.Amount,
			AmountExclVat: nl.AmountExclVat,
			IsDomestic:    nl.IsDomestic,
			Category:      nl.Category,
		})
	}

	if err := s.store.AppendLines(session, result.Lines); err != nil {
		if errors.Is(err, ErrSessionSuperseded) {
			slog.Info("Discarding extraction for superseded session", "filename", up.Filename)
			// The ledger was reset; the stored file belongs to the old
			// session and would otherwise be orphaned.
			s.storage.Delete(savedPath)
			return nil, err
		}
		return nil, fmt.Errorf("appending lines: %w", err)
	}

	return result, nil
}

// ProcessBatch runs a multi-file upload sequentially in submission
// order. Per-file failures are collected; they never abort the rest of
// the batch. The session token is captured once so results landing
// after a reset are discarded.
func (s *Service) ProcessBatch(uploads []Upload) (*BatchReport, error) {
	session, err := s.store.Session()
	if err != nil {
		return nil, fmt.Errorf("reading session: %w", err)
	}

	report := &BatchReport{
		Errors: []FileError{},
		Lines:  []ReceiptLine{},
	}
	for _, up := range uploads {
		result, err := s.ProcessFile(session, up)
		if err != nil {
			if errors.Is(err, ErrSessionSuperseded) {
				// The whole batch belongs to the old session now
				continue
			}
			report.Errors = append(report.Errors, FileError{
				File:    up.Filename,
				Message: err.Error(),
			})
			continue
		}
		report.Processed++
		report.LinesAdded += len(result.Lines)
		report.Lines = append(report.Lines, result.Lines...)
	}
	return report, nil
}

// ListLines returns all ledger lines in insertion order with a summary
func (s *Service) ListLines() ([]ReceiptLine, Summary, error) {
	lines, err := s.store.ListLines()
	if err != nil {
		return nil, Summary{}, fmt.Errorf("listing lines: %w", err)
	}

	total := decimal.Zero
	for _, line := range lines {
		total = total.Add(line.Amount)
	}
	return lines, Summary{Count: len(lines), Total: total.StringFixed(2)}, nil
}

// UpdateLine applies a field edit through the recomputation engine.
// An absent ID is a no-op for the caller; it is only logged.
func (s *Service) UpdateLine(id string, e Edit) error {
	found, err := s.store.UpdateLine(id, e)
	if err != nil {
		return fmt.Errorf("updating line: %w", err)
	}
	if !found {
		slog.Warn("Update for unknown ledger line", "id", id)
	}
	return nil
}

// DeleteLine removes a line; deleting an unknown ID changes nothing
func (s *Service) DeleteLine(id string) error {
	if err := s.store.DeleteLine(id); err != nil {
		return fmt.Errorf("deleting line: %w", err)
	}
	return nil
}

// Reset clears the ledger and supersedes the current session
func (s *Service) Reset() error {
	if _, err := s.store.Reset(); err != nil {
		return fmt.Errorf("resetting ledger: %w", err)
	}
	return nil
}

// Export serializes the current ledger and suggests a download name
func (s *Service) Export() ([]byte, string, error) {
	lines, err := s.store.ListLines()
	if err != nil {
		return nil, "", fmt.Errorf("listing lines: %w", err)
	}
	data, err := Serialize(lines)
	if err != nil {
		return nil, "", fmt.Errorf("serializing ledger: %w", err)
	}
	return data, ExportFilename(s.timeSource.Now()), nil
}
