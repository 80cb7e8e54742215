package report

import (
	"fmt"
	"html/template"
	"io"

	"github.com/KaramelBytes/plmview-cli/internal/plm"
)

// Page is the data of the viewer page. Exactly one of Result and Error is
// normally set; neither means the empty upload form.
type Page struct {
	Result *plm.Result
	Error  string
	// UploadURL enables the upload form when non-empty.
	UploadURL   string
	MaxUploadMB int
	Opt         Options
}

// HTMLPresenter writes a standalone HTML report without the upload form.
type HTMLPresenter struct {
	W   io.Writer
	Opt Options
}

func (p HTMLPresenter) Present(res *plm.Result) error {
	return RenderPage(p.W, Page{Result: res, Opt: p.Opt})
}

type pageView struct {
	Page
	Columns     []string
	Rows        [][]string
	TotalRows   int
	Truncated   bool
	StatsHeader []string
	StatsRows   [][]string
	Buckets     []BucketRow
	OverlapNote string
	Charts      []svgChart
	Success     string
}

// RenderPage writes the viewer page.
func RenderPage(w io.Writer, p Page) error {
	v := pageView{Page: p}
	if p.Result != nil {
		v.Success = SuccessMessage
		v.Rows, v.Truncated = visibleRows(p.Result.Table, p.Opt.TableRows)
		v.TotalRows = p.Result.Table.Len()
		if p.Result.Table != nil {
			v.Columns = p.Result.Table.Columns
		}
		v.StatsHeader, v.StatsRows = statsGrid(p.Result.Stats)
		v.Buckets = Buckets(p.Result.Summary)
		if n := p.Result.Summary.Overlap; n > 0 {
			v.OverlapNote = OverlapNote(n)
		}
		v.Charts = svgCharts(BuildCharts(p.Result.Summary))
	}
	if err := pageTmpl.Execute(w, v); err != nil {
		return fmt.Errorf("render page: %w", err)
	}
	return nil
}

// SVG geometry, in user units.
const (
	svgWidth  = 300.0
	svgHeight = 260.0
	svgLeft   = 40.0
	svgRight  = 10.0
	svgTop    = 34.0
	svgBottom = 36.0
)

type svgBar struct {
	X, Y, W, H   float64
	CX, ValueY   float64
	Color, Label string
	Value        int
}

type svgTick struct {
	Y, LabelY float64
	Value     int
}

type svgChart struct {
	Title               string
	Width, Height       float64
	Left, Right         float64
	Top, Bottom         float64
	TitleX, TickX, MidY float64
	LabelY              float64
	Bars                []svgBar
	Ticks               []svgTick
}

func svgCharts(cs ChartSet) []svgChart {
	plotW := svgWidth - svgLeft - svgRight
	plotH := svgHeight - svgTop - svgBottom
	yMax := float64(cs.YMax())
	yOf := func(v int) float64 { return svgTop + plotH - float64(v)/yMax*plotH }

	out := make([]svgChart, 0, len(cs.Charts))
	for _, ch := range cs.Charts {
		sc := svgChart{
			Title: ch.Title, Width: svgWidth, Height: svgHeight,
			Left: svgLeft, Right: svgLeft + plotW,
			Top: svgTop, Bottom: svgTop + plotH,
			TitleX: svgWidth / 2, TickX: svgLeft - 6, MidY: svgTop + plotH/2,
			LabelY: svgTop + plotH + 16,
		}
		slot := plotW / float64(len(ch.Bars))
		for i, b := range ch.Bars {
			y := yOf(b.Value)
			bw := slot * 0.6
			x := svgLeft + slot*float64(i) + (slot-bw)/2
			sc.Bars = append(sc.Bars, svgBar{
				X: x, Y: y, W: bw, H: sc.Bottom - y,
				CX: x + bw/2, ValueY: y - 4,
				Color: b.Color, Label: b.Label, Value: b.Value,
			})
		}
		for _, t := range cs.Ticks {
			sc.Ticks = append(sc.Ticks, svgTick{Y: yOf(t), LabelY: yOf(t) + 3, Value: t})
		}
		out = append(out, sc)
	}
	return out
}

var pageTmpl = template.Must(template.New("page").Funcs(template.FuncMap{
	"f": func(x float64) string { return fmt.Sprintf("%.1f", x) },
}).Parse(pageHTML))

const pageHTML = `<!DOCTYPE html>
<html lang="en">
<head>
<meta charset="utf-8">
<title>Excel Data Viewer</title>
<style>
body { font-family: sans-serif; margin: 2rem auto; max-width: 1100px; color: #222; }
table { border-collapse: collapse; font-size: 0.85rem; }
th, td { border: 1px solid #ccc; padding: 0.25rem 0.5rem; text-align: left; }
.ok { background: #e6f4ea; color: #1e6b34; padding: 0.75rem; border-radius: 4px; }
.err { background: #fdecea; color: #8a1c1c; padding: 0.75rem; border-radius: 4px; }
.note { color: #8a5a00; }
.charts { display: flex; gap: 1rem; }
.scroll { max-height: 24rem; overflow: auto; }
</style>
</head>
<body>
<h1>Excel Data Viewer</h1>
{{if .UploadURL}}
<form method="post" action="{{.UploadURL}}" enctype="multipart/form-data">
  <label>Choose an Excel file <input type="file" name="file" accept=".xlsx"></label>
  <button type="submit">Upload</button>
  {{if .MaxUploadMB}}<small>Limit {{.MaxUploadMB}} MB per file, XLSX</small>{{end}}
</form>
{{end}}
{{if .Error}}<p class="err" role="alert">{{.Error}}</p>{{end}}
{{if .Result}}
<p class="ok">{{.Success}}</p>
<h3>Data</h3>
<div class="scroll">
<table>
<thead><tr>{{range .Columns}}<th>{{.}}</th>{{end}}</tr></thead>
<tbody>{{range .Rows}}<tr>{{range .}}<td>{{.}}</td>{{end}}</tr>{{end}}</tbody>
</table>
</div>
{{if .Truncated}}<p><small>showing {{len .Rows}} of {{.TotalRows}} rows</small></p>{{end}}
<h3>Column Names</h3>
<ul>{{range .Columns}}<li>{{.}}</li>{{end}}</ul>
<h3>Summary Statistics</h3>
{{if .StatsHeader}}
<table>
<thead><tr>{{range .StatsHeader}}<th>{{.}}</th>{{end}}</tr></thead>
<tbody>{{range .StatsRows}}<tr>{{range .}}<td>{{.}}</td>{{end}}</tr>{{end}}</tbody>
</table>
{{else}}<p>No statistics.</p>{{end}}
<h3>Categories</h3>
<ul>{{range .Buckets}}<li>{{.Label}}: {{.Size}}</li>{{end}}</ul>
{{if .OverlapNote}}<p class="note">Note: {{.OverlapNote}}</p>{{end}}
{{range .Buckets}}
<h3>Analysis for {{.Label}}</h3>
<ul>
<li>Analysed: {{.Metrics.Analysed}}</li>
<li>Solved: {{.Metrics.Solved}}</li>
<li>Solved with CL Number: {{.Metrics.SolvedWithReference}}</li>
</ul>
{{end}}
<div class="charts">
{{range .Charts}}
<svg xmlns="http://www.w3.org/2000/svg" width="{{f .Width}}" height="{{f .Height}}" viewBox="0 0 {{f .Width}} {{f .Height}}" role="img" aria-label="{{.Title}}">
  <text x="{{f .TitleX}}" y="18" text-anchor="middle" font-size="12">{{.Title}}</text>
  {{- $c := .}}
  {{- range .Ticks}}
  <line x1="{{f $c.Left}}" x2="{{f $c.Right}}" y1="{{f .Y}}" y2="{{f .Y}}" stroke="#eee"/>
  <text x="{{f $c.TickX}}" y="{{f .LabelY}}" text-anchor="end" font-size="8">{{.Value}}</text>
  {{- end}}
  <line x1="{{f .Left}}" x2="{{f .Left}}" y1="{{f .Top}}" y2="{{f .Bottom}}" stroke="#333"/>
  <line x1="{{f .Left}}" x2="{{f .Right}}" y1="{{f .Bottom}}" y2="{{f .Bottom}}" stroke="#333"/>
  {{- range .Bars}}
  <rect x="{{f .X}}" y="{{f .Y}}" width="{{f .W}}" height="{{f .H}}" fill="{{.Color}}"><title>{{.Label}}: {{.Value}}</title></rect>
  <text x="{{f .CX}}" y="{{f .ValueY}}" text-anchor="middle" font-size="10">{{.Value}}</text>
  <text x="{{f .CX}}" y="{{f $c.LabelY}}" text-anchor="middle" font-size="8">{{.Label}}</text>
  {{- end}}
  <text x="12" y="{{f .MidY}}" font-size="9" text-anchor="middle" transform="rotate(-90 12 {{f .MidY}})">Count</text>
</svg>
{{end}}
</div>
{{end}}
</body>
</html>
`
