package report

import (
	"fmt"
	"io"
	"strings"
	"unicode/utf8"

	"github.com/KaramelBytes/plmview-cli/internal/plm"
)

// SuccessMessage is shown before results when a file loaded.
const SuccessMessage = "File loaded successfully!"

// MarkdownPresenter writes the report as Markdown.
type MarkdownPresenter struct {
	W   io.Writer
	Opt Options
}

func (p MarkdownPresenter) Present(res *plm.Result) error {
	if _, err := io.WriteString(p.W, Markdown(res, p.Opt)); err != nil {
		return fmt.Errorf("write markdown: %w", err)
	}
	return nil
}

// Markdown renders the full report: data, column names, summary statistics,
// categories and per-bucket analysis.
func Markdown(res *plm.Result, opt Options) string {
	var b strings.Builder
	b.WriteString("# Excel Data Viewer\n\n")
	if res.Source != "" {
		b.WriteString(fmt.Sprintf("File: %s\n\n", res.Source))
	}
	b.WriteString(fmt.Sprintf("✓ %s\n\n", SuccessMessage))

	b.WriteString("### Data\n\n")
	rows, cut := visibleRows(res.Table, opt.TableRows)
	if res.Table != nil && len(res.Table.Columns) > 0 {
		writeTable(&b, res.Table.Columns, rows)
	}
	if cut {
		b.WriteString(fmt.Sprintf("\n_showing %d of %d rows_\n", len(rows), res.Table.Len()))
	}
	if len(rows) == 0 {
		b.WriteString("_no data rows_\n")
	}

	b.WriteString("\n### Column Names\n\n")
	if res.Table != nil {
		for _, c := range res.Table.Columns {
			b.WriteString("- ")
			b.WriteString(safeName(c))
			b.WriteString("\n")
		}
	}

	b.WriteString("\n### Summary Statistics\n\n")
	if header, grid := statsGrid(res.Stats); len(header) > 0 {
		writeTable(&b, header, grid)
	} else {
		b.WriteString("_no statistics_\n")
	}

	b.WriteString("\n### Categories\n\n")
	buckets := Buckets(res.Summary)
	for _, br := range buckets {
		b.WriteString(fmt.Sprintf("- %s: %d\n", br.Label, br.Size))
	}
	if n := res.Summary.Overlap; n > 0 {
		b.WriteString(fmt.Sprintf("\n> Note: %s\n", OverlapNote(n)))
	}

	for _, br := range buckets {
		b.WriteString(fmt.Sprintf("\n### Analysis for %s\n\n", br.Label))
		b.WriteString(fmt.Sprintf("- %s: %d\n", LabelAnalysed, br.Metrics.Analysed))
		b.WriteString(fmt.Sprintf("- %s: %d\n", LabelSolved, br.Metrics.Solved))
		b.WriteString(fmt.Sprintf("- %s: %d\n", LabelSolvedCL, br.Metrics.SolvedWithReference))
	}
	return b.String()
}

// OverlapNote explains rows counted in both VOC and MR.
func OverlapNote(n int) string {
	if n == 1 {
		return "1 row matches both VOC and MR and is counted in both buckets."
	}
	return fmt.Sprintf("%d rows match both VOC and MR and are counted in both buckets.", n)
}

func writeTable(b *strings.Builder, header []string, rows [][]string) {
	b.WriteString("| ")
	for i, h := range header {
		if i > 0 {
			b.WriteString(" | ")
		}
		b.WriteString(safeVal(h))
	}
	b.WriteString(" |\n|")
	for range header {
		b.WriteString(" --- |")
	}
	b.WriteString("\n")
	for _, row := range rows {
		b.WriteString("| ")
		for i := range header {
			if i > 0 {
				b.WriteString(" | ")
			}
			val := ""
			if i < len(row) {
				val = row[i]
			}
			b.WriteString(safeVal(truncate(val, maxCellRunes)))
		}
		b.WriteString(" |\n")
	}
}

const maxCellRunes = 80

// truncate shortens s to at most n runes, marking the cut with "...".
func truncate(s string, n int) string {
	if utf8.RuneCountInString(s) <= n {
		return s
	}
	r := []rune(s)
	return string(r[:n-3]) + "..."
}

func safeName(s string) string {
	s = strings.TrimSpace(s)
	if s == "" {
		return "(unnamed)"
	}
	return s
}

func safeVal(s string) string { return strings.ReplaceAll(strings.ReplaceAll(s, "\n", " "), "|", "/") }
