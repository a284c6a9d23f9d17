package store

import (
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"

	"sentinel/fraud-monitor/internal/domain"
)

// ReportFile holds the derived fraud report. It is never merged: Save always
// replaces the previous contents entirely.
type ReportFile struct {
	path string
}

// NewReportFile returns a ReportFile backed by the file at path.
func NewReportFile(path string) *ReportFile {
	return &ReportFile{path: path}
}

// Path returns the backing file path.
func (r *ReportFile) Path() string { return r.path }

// Save overwrites the report with entries.
func (r *ReportFile) Save(entries []domain.FraudReportEntry) error {
	if entries == nil {
		entries = []domain.FraudReportEntry{}
	}
	return writeJSONAtomic(r.path, entries)
}

// Load returns the last saved report. A report that was never written is
// reported as empty, not as an error.
func (r *ReportFile) Load() ([]domain.FraudReportEntry, error) {
	data, err := os.ReadFile(r.path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return []domain.FraudReportEntry{}, nil
		}
		return nil, fmt.Errorf("read report: %w", err)
	}

	var entries []domain.FraudReportEntry
	if err := json.Unmarshal(data, &entries); err != nil {
		return nil, fmt.Errorf("decode report: %w", err)
	}
	if entries == nil {
		entries = []domain.FraudReportEntry{}
	}
	return entries, nil
}
