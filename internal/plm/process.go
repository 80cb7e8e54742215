package plm

import (
	"errors"
	"io"

	"github.com/KaramelBytes/plmview-cli/internal/analysis"
	"github.com/google/uuid"
)

// Result is everything handed to a presenter for one uploaded file.
type Result struct {
	ID      string                 `json:"id"`
	Source  string                 `json:"source"`
	Table   *analysis.Table        `json:"-"`
	Stats   []analysis.ColumnStats `json:"-"`
	Dataset Dataset                `json:"-"`
	Summary Summary                `json:"summary"`
}

// Process loads one workbook and computes statistics and bucket counts.
// It keeps no state between calls.
func Process(r io.ReaderAt, size int64, source string) (*Result, error) {
	ds, tbl, err := Load(r, size)
	if err != nil {
		var le *LoadError
		if errors.As(err, &le) {
			le.Source = source
		}
		return nil, err
	}
	return newResult(source, ds, tbl), nil
}

// ProcessFile is Process for a path on disk.
func ProcessFile(path string) (*Result, error) {
	ds, tbl, err := LoadFile(path)
	if err != nil {
		return nil, err
	}
	return newResult(path, ds, tbl), nil
}

func newResult(source string, ds Dataset, tbl *analysis.Table) *Result {
	return &Result{
		ID:      uuid.NewString(),
		Source:  source,
		Table:   tbl,
		Stats:   analysis.Describe(tbl),
		Dataset: ds,
		Summary: Summarize(ds),
	}
}
