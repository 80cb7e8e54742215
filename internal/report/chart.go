package report

import (
	"github.com/KaramelBytes/plmview-cli/internal/plm"
	"github.com/samber/lo"
)

// Bar colors.
const (
	ColorAnalysed = "#0000FF"
	ColorSolved   = "#008000"
	ColorCL       = "#FFA500"
)

// Bar is one labelled value of a chart.
type Bar struct {
	Label string
	Value int
	Color string
}

// Chart is the bar chart of one bucket.
type Chart struct {
	Category plm.Category
	Title    string
	Bars     []Bar
}

// ChartSet is the three bucket charts drawn side by side on a shared y axis.
type ChartSet struct {
	Charts []Chart
	// Ticks are the integer y-axis ticks; the last one is the axis top.
	Ticks []int
}

// YMax is the top of the shared y axis.
func (cs ChartSet) YMax() int {
	if len(cs.Ticks) == 0 {
		return 1
	}
	return cs.Ticks[len(cs.Ticks)-1]
}

// BuildCharts builds one chart per bucket from the summary.
func BuildCharts(s plm.Summary) ChartSet {
	var cs ChartSet
	peak := 0
	for _, c := range plm.Categories {
		m := s.Metrics[c]
		ch := Chart{
			Category: c,
			Title:    string(c) + " PLM's",
			Bars: []Bar{
				{Label: LabelAnalysed, Value: m.Analysed, Color: ColorAnalysed},
				{Label: LabelSolved, Value: m.Solved, Color: ColorSolved},
				{Label: LabelCL, Value: m.SolvedWithReference, Color: ColorCL},
			},
		}
		peak = max(peak, lo.Max(lo.Map(ch.Bars, func(b Bar, _ int) int { return b.Value })))
		cs.Charts = append(cs.Charts, ch)
	}
	cs.Ticks = IntegerTicks(peak, 6)
	return cs
}

// IntegerTicks returns evenly spaced integer ticks from 0 that cover peak,
// using steps of 1, 2 or 5 times a power of ten and at most maxTicks values.
func IntegerTicks(peak, maxTicks int) []int {
	if maxTicks < 2 {
		maxTicks = 2
	}
	if peak <= 0 {
		return []int{0, 1}
	}
	step, mag, i := 1, 1, 0
	for ceilDiv(peak, step)+1 > maxTicks {
		i++
		if i == len(tickSteps) {
			i, mag = 0, mag*10
		}
		step = tickSteps[i] * mag
	}
	n := ceilDiv(peak, step)
	ticks := make([]int, 0, n+1)
	for i := 0; i <= n; i++ {
		ticks = append(ticks, i*step)
	}
	return ticks
}

var tickSteps = []int{1, 2, 5}

func ceilDiv(a, b int) int { return (a + b - 1) / b }
