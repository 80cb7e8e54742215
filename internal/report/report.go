// Package report renders processed PLM exports: the loaded table, summary
// statistics, bucket sizes and counts, and one bar chart per bucket.
package report

import (
	"math"
	"strconv"

	"github.com/KaramelBytes/plmview-cli/internal/analysis"
	"github.com/KaramelBytes/plmview-cli/internal/plm"
)

// Presenter displays one processed file.
type Presenter interface {
	Present(res *plm.Result) error
}

// Options shared by the presenters.
type Options struct {
	// TableRows limits rows shown in the data table; 0 means all.
	TableRows int
}

// Metric labels.
const (
	LabelAnalysed = "Analysed"
	LabelSolved   = "Solved"
	LabelCL       = "CL counts"
	LabelSolvedCL = "Solved with CL Number"
)

// visibleRows returns the rows to print and whether the table was cut.
func visibleRows(t *analysis.Table, limit int) ([][]string, bool) {
	if t == nil {
		return nil, false
	}
	if limit <= 0 || len(t.Rows) <= limit {
		return t.Rows, false
	}
	return t.Rows[:limit], true
}

// statsGrid lays describe() output out as rows of statistics by column.
func statsGrid(stats []analysis.ColumnStats) (header []string, rows [][]string) {
	if len(stats) == 0 {
		return nil, nil
	}
	header = append(header, "")
	for _, s := range stats {
		header = append(header, s.Name)
	}
	type line struct {
		name string
		get  func(analysis.ColumnStats) string
	}
	var lines []line
	if stats[0].Kind == analysis.KindNumeric {
		lines = []line{
			{"count", func(s analysis.ColumnStats) string { return formatFloat(float64(s.Count)) }},
			{"mean", func(s analysis.ColumnStats) string { return formatFloat(s.Mean) }},
			{"std", func(s analysis.ColumnStats) string { return formatFloat(s.Std) }},
			{"min", func(s analysis.ColumnStats) string { return formatFloat(s.Min) }},
			{"25%", func(s analysis.ColumnStats) string { return formatFloat(s.Q1) }},
			{"50%", func(s analysis.ColumnStats) string { return formatFloat(s.Median) }},
			{"75%", func(s analysis.ColumnStats) string { return formatFloat(s.Q3) }},
			{"max", func(s analysis.ColumnStats) string { return formatFloat(s.Max) }},
		}
	} else {
		lines = []line{
			{"count", func(s analysis.ColumnStats) string { return strconv.Itoa(s.Count) }},
			{"unique", func(s analysis.ColumnStats) string { return strconv.Itoa(s.Unique) }},
			{"top", func(s analysis.ColumnStats) string {
				if s.Count == 0 {
					return "NaN"
				}
				return s.Top
			}},
			{"freq", func(s analysis.ColumnStats) string {
				if s.Count == 0 {
					return "NaN"
				}
				return strconv.Itoa(s.Freq)
			}},
		}
	}
	for _, l := range lines {
		row := []string{l.name}
		for _, s := range stats {
			row = append(row, l.get(s))
		}
		rows = append(rows, row)
	}
	return header, rows
}

func formatFloat(x float64) string {
	if math.IsNaN(x) {
		return "NaN"
	}
	return strconv.FormatFloat(x, 'f', 6, 64)
}

// BucketRow is one line of the per-bucket breakdown.
type BucketRow struct {
	Category plm.Category
	Label    string
	Size     int
	Metrics  plm.Metrics
}

// Buckets lists the summary in display order.
func Buckets(s plm.Summary) []BucketRow {
	out := make([]BucketRow, 0, len(plm.Categories))
	for _, c := range plm.Categories {
		out = append(out, BucketRow{Category: c, Label: c.Label(), Size: s.Sizes[c], Metrics: s.Metrics[c]})
	}
	return out
}
