package report

import (
	"fmt"
	"io"
	"math"

	"github.com/KaramelBytes/plmview-cli/internal/analysis"
	"github.com/KaramelBytes/plmview-cli/internal/plm"
	"github.com/KaramelBytes/plmview-cli/internal/utils"
)

// JSONPresenter writes a machine-readable summary.
type JSONPresenter struct {
	W io.Writer
}

// JSONReport is the document written by JSONPresenter.
type JSONReport struct {
	ID      string       `json:"id"`
	Source  string       `json:"source"`
	Columns []string     `json:"columns"`
	Rows    int          `json:"rows"`
	Stats   []JSONStat   `json:"stats"`
	Buckets []JSONBucket `json:"buckets"`
	Overlap int          `json:"overlap"`
}

// JSONStat is one describe() column; numeric fields are null when undefined.
type JSONStat struct {
	Column string   `json:"column"`
	Kind   string   `json:"kind"`
	Count  int      `json:"count"`
	Mean   *float64 `json:"mean,omitempty"`
	Std    *float64 `json:"std,omitempty"`
	Min    *float64 `json:"min,omitempty"`
	Q1     *float64 `json:"25%,omitempty"`
	Median *float64 `json:"50%,omitempty"`
	Q3     *float64 `json:"75%,omitempty"`
	Max    *float64 `json:"max,omitempty"`
	Unique *int     `json:"unique,omitempty"`
	Top    *string  `json:"top,omitempty"`
	Freq   *int     `json:"freq,omitempty"`
}

// JSONBucket is one category with its size and counts.
type JSONBucket struct {
	Category plm.Category `json:"category"`
	Label    string       `json:"label"`
	Size     int          `json:"size"`
	plm.Metrics
}

func (p JSONPresenter) Present(res *plm.Result) error {
	b, err := utils.PrettyJSON(NewJSONReport(res))
	if err != nil {
		return err
	}
	if _, err := p.W.Write(append(b, '\n')); err != nil {
		return fmt.Errorf("write json: %w", err)
	}
	return nil
}

// NewJSONReport converts a result into its JSON document.
func NewJSONReport(res *plm.Result) JSONReport {
	rep := JSONReport{
		ID:      res.ID,
		Source:  res.Source,
		Rows:    res.Table.Len(),
		Overlap: res.Summary.Overlap,
		Stats:   []JSONStat{},
	}
	if res.Table != nil {
		rep.Columns = res.Table.Columns
	}
	for _, s := range res.Stats {
		rep.Stats = append(rep.Stats, jsonStat(s))
	}
	for _, br := range Buckets(res.Summary) {
		rep.Buckets = append(rep.Buckets, JSONBucket{Category: br.Category, Label: br.Label, Size: br.Size, Metrics: br.Metrics})
	}
	return rep
}

func jsonStat(s analysis.ColumnStats) JSONStat {
	out := JSONStat{Column: s.Name, Kind: s.Kind, Count: s.Count}
	if s.Kind == analysis.KindNumeric {
		out.Mean, out.Std, out.Min = num(s.Mean), num(s.Std), num(s.Min)
		out.Q1, out.Median, out.Q3, out.Max = num(s.Q1), num(s.Median), num(s.Q3), num(s.Max)
		return out
	}
	out.Unique = &s.Unique
	if s.Count > 0 {
		out.Top, out.Freq = &s.Top, &s.Freq
	}
	return out
}

func num(x float64) *float64 {
	if math.IsNaN(x) || math.IsInf(x, 0) {
		return nil
	}
	return &x
}
