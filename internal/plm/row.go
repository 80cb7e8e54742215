// Package plm classifies problem-report rows from a tracker export into
// VOC, MR and Others buckets and counts what was analysed and solved.
package plm

import (
	"strings"

	"github.com/KaramelBytes/plmview-cli/internal/analysis"
)

// Column names read from the export.
const (
	ColTitle      = "Title"
	ColProblem    = "Problem"
	ColResolvedBy = "Resolved by"
	ColCLNumber   = "CL Number"
	ColComment    = "Comment"
)

// Columns lists the required header names.
var Columns = []string{ColTitle, ColProblem, ColResolvedBy, ColCLNumber, ColComment}

// Row is one problem report. Blank text cells are "". CLNumber is nil when
// the cell is absent or blank.
type Row struct {
	Title      string  `json:"title"`
	Problem    string  `json:"problem"`
	ResolvedBy string  `json:"resolved_by"`
	Comment    string  `json:"comment"`
	CLNumber   *string `json:"cl_number,omitempty"`
}

// Dataset is the ordered sequence of rows of one loaded file.
type Dataset []Row

// FromTable maps table rows to a Dataset by column name.
func FromTable(t *analysis.Table) Dataset {
	ds := make(Dataset, 0, t.Len())
	for i := 0; i < t.Len(); i++ {
		r := Row{
			Title:      t.Value(i, ColTitle),
			Problem:    t.Value(i, ColProblem),
			ResolvedBy: t.Value(i, ColResolvedBy),
			Comment:    t.Value(i, ColComment),
		}
		if cl := t.Value(i, ColCLNumber); strings.TrimSpace(cl) != "" {
			r.CLNumber = &cl
		}
		ds = append(ds, r)
	}
	return ds
}
