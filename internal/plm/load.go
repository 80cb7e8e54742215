package plm

import (
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/KaramelBytes/plmview-cli/internal/analysis"
)

// Worksheet layout of the export.
const (
	SheetName = "Sheet1"
	// SkipRows is the banner region above the header row.
	SkipRows = 2
)

// LoadError is the single failure kind of loading: bad format, wrong sheet,
// missing columns or I/O. It carries the cause for display.
type LoadError struct {
	Source string
	Err    error
}

func (e *LoadError) Error() string {
	return fmt.Sprintf("error reading the Excel file: %v", e.Err)
}

func (e *LoadError) Unwrap() error { return e.Err }

// Load reads the fixed column subset of Sheet1 and maps it to rows.
// Every failure is returned as *LoadError; Load never panics on bad input.
func Load(r io.ReaderAt, size int64) (ds Dataset, tbl *analysis.Table, err error) {
	defer func() {
		if rec := recover(); rec != nil {
			ds, tbl = nil, nil
			err = &LoadError{Err: fmt.Errorf("parse workbook: %v", rec)}
		}
	}()
	tbl, err = analysis.ReadSheet(r, size, analysis.ReadOptions{
		Sheet:    SheetName,
		SkipRows: SkipRows,
		Columns:  Columns,
	})
	if err != nil {
		return nil, nil, &LoadError{Err: err}
	}
	return FromTable(tbl), tbl, nil
}

// LoadFile opens path and delegates to Load.
func LoadFile(path string) (Dataset, *analysis.Table, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, nil, &LoadError{Source: path, Err: err}
	}
	defer f.Close()
	st, err := f.Stat()
	if err != nil {
		return nil, nil, &LoadError{Source: path, Err: fmt.Errorf("stat: %w", err)}
	}
	ds, tbl, err := Load(f, st.Size())
	var le *LoadError
	if errors.As(err, &le) {
		le.Source = path
	}
	return ds, tbl, err
}
