package analysis

import (
	"math"
	"sort"
	"strconv"
	"strings"
)

// Table is a rectangular slice of a worksheet: the selected header names and
// the data rows below them, both in sheet order. Blank cells are "".
type Table struct {
	Sheet   string
	Columns []string
	Rows    [][]string
}

// Index returns the position of the named column, or -1.
func (t *Table) Index(name string) int {
	if t == nil {
		return -1
	}
	for i, c := range t.Columns {
		if c == name {
			return i
		}
	}
	return -1
}

// Value returns the cell at row i for the named column, or "" when absent.
func (t *Table) Value(i int, name string) string {
	j := t.Index(name)
	if j < 0 || i < 0 || i >= len(t.Rows) || j >= len(t.Rows[i]) {
		return ""
	}
	return t.Rows[i][j]
}

// Len is the number of data rows.
func (t *Table) Len() int {
	if t == nil {
		return 0
	}
	return len(t.Rows)
}

// Stat kinds.
const (
	KindNumeric = "numeric"
	KindText    = "text"
)

// ColumnStats is one column of a describe() summary.
type ColumnStats struct {
	Name  string
	Kind  string // numeric|text
	Count int
	// Numeric stats
	Mean   float64
	Std    float64
	Min    float64
	Q1     float64
	Median float64
	Q3     float64
	Max    float64
	// Text stats
	Unique int
	Top    string
	Freq   int
}

// Describe computes summary statistics the way a dataframe describe() does:
// when at least one column is numeric only numeric columns are summarised
// (count, mean, sample std, min, quartiles, max); otherwise every column gets
// count, unique, top and freq. Blank cells are excluded from all counts.
func Describe(t *Table) []ColumnStats {
	if t == nil || len(t.Columns) == 0 {
		return nil
	}
	vals := make([][]string, len(t.Columns))
	for _, row := range t.Rows {
		for j := range t.Columns {
			if j >= len(row) {
				continue
			}
			if v := strings.TrimSpace(row[j]); v != "" {
				vals[j] = append(vals[j], v)
			}
		}
	}
	var numeric []ColumnStats
	for j, name := range t.Columns {
		if xs, ok := parseColumn(vals[j]); ok {
			numeric = append(numeric, describeNumeric(name, xs))
		}
	}
	if len(numeric) > 0 {
		return numeric
	}
	out := make([]ColumnStats, 0, len(t.Columns))
	for j, name := range t.Columns {
		out = append(out, describeText(name, vals[j]))
	}
	return out
}

// parseColumn reports whether every non-blank value is a number.
func parseColumn(vs []string) ([]float64, bool) {
	if len(vs) == 0 {
		return nil, false
	}
	xs := make([]float64, 0, len(vs))
	for _, v := range vs {
		x, ok := parseNumber(v)
		if !ok {
			return nil, false
		}
		xs = append(xs, x)
	}
	return xs, true
}

// parseNumber accepts finite decimal numbers only. ParseFloat also takes
// "NaN", "Inf" and hex floats, which a sheet holds as text.
func parseNumber(v string) (float64, bool) {
	if strings.ContainsAny(v, "xXpP") {
		return 0, false
	}
	x, err := strconv.ParseFloat(v, 64)
	if err != nil || math.IsNaN(x) || math.IsInf(x, 0) {
		return 0, false
	}
	return x, true
}

func describeNumeric(name string, xs []float64) ColumnStats {
	s := ColumnStats{Name: name, Kind: KindNumeric, Count: len(xs), Std: math.NaN()}
	// Welford
	var mean, m2 float64
	for i, x := range xs {
		delta := x - mean
		mean += delta / float64(i+1)
		m2 += delta * (x - mean)
	}
	s.Mean = mean
	if len(xs) > 1 {
		s.Std = math.Sqrt(m2 / float64(len(xs)-1))
	}
	sorted := make([]float64, len(xs))
	copy(sorted, xs)
	sort.Float64s(sorted)
	s.Min = sorted[0]
	s.Q1 = quantile(sorted, 0.25)
	s.Median = quantile(sorted, 0.5)
	s.Q3 = quantile(sorted, 0.75)
	s.Max = sorted[len(sorted)-1]
	return s
}

func describeText(name string, vs []string) ColumnStats {
	s := ColumnStats{Name: name, Kind: KindText, Count: len(vs)}
	counts := make(map[string]int, len(vs))
	for _, v := range vs {
		counts[v]++
		// ties go to the value that reached the count first
		if counts[v] > s.Freq {
			s.Top, s.Freq = v, counts[v]
		}
	}
	s.Unique = len(counts)
	return s
}

func quantile(sorted []float64, q float64) float64 {
	if len(sorted) == 0 {
		return 0
	}
	if q <= 0 {
		return sorted[0]
	}
	if q >= 1 {
		return sorted[len(sorted)-1]
	}
	pos := q * float64(len(sorted)-1)
	lo := int(math.Floor(pos))
	hi := int(math.Ceil(pos))
	if lo == hi {
		return sorted[lo]
	}
	w := pos - float64(lo)
	return sorted[lo]*(1-w) + sorted[hi]*w
}
