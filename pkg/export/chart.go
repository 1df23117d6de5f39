package export

import (
	"fmt"
	"io"

	"github.com/go-echarts/go-echarts/v2/charts"
	"github.com/go-echarts/go-echarts/v2/opts"

	"github.com/Sumatoshi-tech/flowfang/pkg/flow"
)

const (
	areaOpacity = 0.5
	fullZoomPct = 100
)

// CFDChart builds an interactive stacked area chart of the cumulative-flow
// series: one band per status group over the sampled dates.
func CFDChart(points []flow.Point, groups []string) *charts.Line {
	line := charts.NewLine()
	line.SetGlobalOptions(
		charts.WithTitleOpts(opts.Title{
			Title:    "Cumulative Flow Diagram",
			Subtitle: "Issues per status group at the start of each day",
		}),
		charts.WithTooltipOpts(opts.Tooltip{
			Show:    opts.Bool(true),
			Trigger: "axis",
		}),
		charts.WithLegendOpts(opts.Legend{Show: opts.Bool(true), Type: "scroll", Top: "5px"}),
		charts.WithDataZoomOpts(opts.DataZoom{Type: "slider", Start: 0, End: fullZoomPct}, opts.DataZoom{Type: "inside"}),
		charts.WithXAxisOpts(opts.XAxis{Name: "Date"}),
		charts.WithYAxisOpts(opts.YAxis{Name: "Issues"}),
	)

	xLabels := make([]string, len(points))
	for i, p := range points {
		xLabels[i] = p.Date.Format(exportDateLayout)
	}

	line.SetXAxis(xLabels)

	for _, group := range groups {
		data := make([]opts.LineData, len(points))
		for i, p := range points {
			data[i] = opts.LineData{Value: p.Counts[group]}
		}

		line.AddSeries(
			group,
			data,
			charts.WithLineChartOpts(opts.LineChart{Stack: "total"}),
			charts.WithAreaStyleOpts(opts.AreaStyle{Opacity: opts.Float(areaOpacity)}),
		)
	}

	return line
}

// RenderCFDChart writes the cumulative-flow chart as a standalone HTML page.
func RenderCFDChart(w io.Writer, points []flow.Point, groups []string) error {
	if err := CFDChart(points, groups).Render(w); err != nil {
		return fmt.Errorf("render cfd chart: %w", err)
	}

	return nil
}

// TimingChart builds a bar chart of the average time spent per status group.
func TimingChart(rows []IssueTimesRow, groups []string, unit string) *charts.Bar {
	bar := charts.NewBar()
	bar.SetGlobalOptions(
		charts.WithTitleOpts(opts.Title{
			Title:    "Status Timing",
			Subtitle: fmt.Sprintf("Average %s per status group", unit),
		}),
		charts.WithTooltipOpts(opts.Tooltip{
			Show:    opts.Bool(true),
			Trigger: "axis",
		}),
		charts.WithXAxisOpts(opts.XAxis{Name: "Status group"}),
		charts.WithYAxisOpts(opts.YAxis{Name: unit}),
	)

	bar.SetXAxis(groups)

	data := make([]opts.BarData, len(groups))
	for i, group := range groups {
		data[i] = opts.BarData{Value: averageTiming(rows, group)}
	}

	bar.AddSeries("average", data)

	return bar
}

// RenderTimingChart writes the status-timing chart as a standalone HTML page.
func RenderTimingChart(w io.Writer, rows []IssueTimesRow, groups []string, unit string) error {
	if err := TimingChart(rows, groups, unit).Render(w); err != nil {
		return fmt.Errorf("render timing chart: %w", err)
	}

	return nil
}

func averageTiming(rows []IssueTimesRow, group string) float64 {
	if len(rows) == 0 {
		return 0
	}

	var sum float64
	for _, row := range rows {
		sum += row.Times[group]
	}

	return sum / float64(len(rows))
}
