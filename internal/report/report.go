// Package report accumulates patch records across a run and writes
// them out as a timestamped spreadsheet.
package report

import (
	"fmt"
	"path/filepath"
	"time"

	"github.com/google/uuid"
	"github.com/xuri/excelize/v2"

	"github.com/orafleet/patchscan/pkg/models"
)

// SheetName is the worksheet holding the inventory rows.
const SheetName = "Oracle Patch Info"

// Columns is the header row, in documented order.
var Columns = []string{
	"Hostname",
	"SID",
	"Oracle Home",
	"Oracle Version",
	"OPatch Version",
	"Database Release",
	"OJVM Release",
	"OCW Release",
}

// Report is the ordered record collection for one collection run. The
// caller owns it; per-host processing only appends.
type Report struct {
	RunID     string
	Generated time.Time

	records []models.PatchRecord
}

// New creates an empty report stamped with the current time and a
// fresh run ID.
func New() *Report {
	return &Report{
		RunID:     uuid.NewString(),
		Generated: time.Now(),
	}
}

// Append adds a record, preserving arrival order.
func (r *Report) Append(rec models.PatchRecord) {
	r.records = append(r.records, rec)
}

// Len returns the number of accumulated records.
func (r *Report) Len() int {
	return len(r.records)
}

// Records returns the accumulated records in arrival order.
func (r *Report) Records() []models.PatchRecord {
	return r.records
}

// Filename returns the timestamped spreadsheet name for this run.
func (r *Report) Filename() string {
	return fmt.Sprintf("oracle_patches_%s.xlsx", r.Generated.Format("20060102_150405"))
}

// WriteXLSX writes the report into dir and returns the file path. A
// report with zero records still produces a file with the header row.
func (r *Report) WriteXLSX(dir string) (string, error) {
	f := excelize.NewFile()
	defer f.Close()

	defaultSheet := f.GetSheetName(0)
	if err := f.SetSheetName(defaultSheet, SheetName); err != nil {
		return "", fmt.Errorf("naming sheet: %w", err)
	}

	header := make([]interface{}, len(Columns))
	for i, c := range Columns {
		header[i] = c
	}
	if err := f.SetSheetRow(SheetName, "A1", &header); err != nil {
		return "", fmt.Errorf("writing header: %w", err)
	}

	for i, rec := range r.records {
		row := []interface{}{
			rec.Hostname,
			rec.SID,
			rec.OracleHome,
			rec.OracleVersion,
			rec.OPatchVersion,
			rec.DatabaseRelease,
			rec.OJVMRelease,
			rec.OCWRelease,
		}
		cell := fmt.Sprintf("A%d", i+2)
		if err := f.SetSheetRow(SheetName, cell, &row); err != nil {
			return "", fmt.Errorf("writing row %d: %w", i+1, err)
		}
	}

	if err := f.SetDocProps(&excelize.DocProperties{
		Title:       "Oracle Patch Inventory",
		Description: "run " + r.RunID,
		Created:     r.Generated.Format(time.RFC3339),
	}); err != nil {
		return "", fmt.Errorf("setting document properties: %w", err)
	}

	path := filepath.Join(dir, r.Filename())
	if err := f.SaveAs(path); err != nil {
		return "", fmt.Errorf("saving %s: %w", path, err)
	}
	return path, nil
}
