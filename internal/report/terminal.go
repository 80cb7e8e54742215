package report

import (
	"fmt"
	"io"
	"math"
	"strconv"
	"strings"

	"github.com/KaramelBytes/plmview-cli/internal/plm"
	"github.com/charmbracelet/glamour"
	"github.com/charmbracelet/lipgloss"
)

const (
	barColWidth = 11
	barWidth    = 5
)

var chartTitleStyle = lipgloss.NewStyle().Bold(true)

// TerminalPresenter renders the Markdown report with glamour and draws the
// bucket charts below it.
type TerminalPresenter struct {
	W   io.Writer
	Opt Options
	// Style is a glamour standard style ("dark", "light", "notty"); empty picks automatically.
	Style       string
	Width       int
	ChartHeight int
}

func (p TerminalPresenter) Present(res *plm.Result) error {
	width := p.Width
	if width <= 0 {
		width = 120
	}
	opts := []glamour.TermRendererOption{glamour.WithWordWrap(width)}
	if p.Style != "" {
		opts = append(opts, glamour.WithStandardStyle(p.Style))
	} else {
		opts = append(opts, glamour.WithAutoStyle())
	}
	r, err := glamour.NewTermRenderer(opts...)
	if err != nil {
		return fmt.Errorf("init renderer: %w", err)
	}
	out, err := r.Render(Markdown(res, p.Opt))
	if err != nil {
		return fmt.Errorf("render markdown: %w", err)
	}
	if _, err := io.WriteString(p.W, out); err != nil {
		return fmt.Errorf("write report: %w", err)
	}
	if _, err := fmt.Fprintf(p.W, "\n%s\n", RenderCharts(BuildCharts(res.Summary), p.ChartHeight)); err != nil {
		return fmt.Errorf("write charts: %w", err)
	}
	return nil
}

// RenderCharts draws the charts side by side as text, each bar with its
// value printed on top and integer ticks on the y axis.
func RenderCharts(cs ChartSet, height int) string {
	if height < 2 {
		height = 10
	}
	gap := lipgloss.NewStyle().MarginRight(3)
	parts := make([]string, 0, len(cs.Charts))
	for _, ch := range cs.Charts {
		parts = append(parts, gap.Render(renderChart(ch, cs, height)))
	}
	return lipgloss.JoinHorizontal(lipgloss.Top, parts...)
}

func renderChart(ch Chart, cs ChartSet, height int) string {
	yMax := cs.YMax()
	axisW := len(strconv.Itoa(yMax))
	plotW := barColWidth * len(ch.Bars)

	tickAt := make(map[int]int, len(cs.Ticks))
	for _, v := range cs.Ticks {
		tickAt[height-scaleBar(v, yMax, height)] = v
	}

	lines := []string{strings.Repeat(" ", axisW+1) + chartTitleStyle.Render(lipgloss.PlaceHorizontal(plotW, lipgloss.Center, ch.Title))}
	for k := 0; k <= height; k++ {
		var sb strings.Builder
		if v, ok := tickAt[k]; ok {
			sb.WriteString(fmt.Sprintf("%*d┤", axisW, v))
		} else {
			sb.WriteString(strings.Repeat(" ", axisW) + "│")
		}
		for _, b := range ch.Bars {
			top := height - scaleBar(b.Value, yMax, height)
			cell := ""
			switch {
			case k == top:
				cell = strconv.Itoa(b.Value)
			case k > top:
				cell = lipgloss.NewStyle().Foreground(lipgloss.Color(b.Color)).Render(strings.Repeat("█", barWidth))
			}
			sb.WriteString(lipgloss.PlaceHorizontal(barColWidth, lipgloss.Center, cell))
		}
		lines = append(lines, sb.String())
	}
	lines = append(lines, strings.Repeat(" ", axisW)+"└"+strings.Repeat("─", plotW))
	var labels strings.Builder
	labels.WriteString(strings.Repeat(" ", axisW+1))
	for _, b := range ch.Bars {
		labels.WriteString(lipgloss.PlaceHorizontal(barColWidth, lipgloss.Center, b.Label))
	}
	lines = append(lines, labels.String())
	return strings.Join(lines, "\n")
}

// scaleBar maps v in [0, yMax] to a bar height in [0, height] lines.
func scaleBar(v, yMax, height int) int {
	if yMax <= 0 {
		return 0
	}
	return int(math.Round(float64(v) * float64(height) / float64(yMax)))
}
