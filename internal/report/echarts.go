// Package report renders an analysis as interactive HTML charts or
// static PNG trace plots.
package report

import (
	"fmt"
	"io"
	"math"

	"github.com/go-echarts/go-echarts/v2/charts"
	"github.com/go-echarts/go-echarts/v2/components"
	"github.com/go-echarts/go-echarts/v2/opts"

	"github.com/lapsight-data/lapsight/internal/coach"
	"github.com/lapsight-data/lapsight/internal/telemetry"
)

// maxChartPoints caps the samples per series so long tracks keep the
// page payload reasonable.
const maxChartPoints = 4000

// RenderHTML writes a self-contained page with the speed overlay and
// the cumulative delta trace, corner apexes marked on both.
func RenderHTML(w io.Writer, a *coach.Analysis, ref, comp telemetry.NormalizedLap) error {
	page := components.NewPage()
	page.PageTitle = fmt.Sprintf("%s: lap %d vs lap %d", a.Session.TrackName, ref.LapNumber, comp.LapNumber)
	page.AddCharts(speedChart(a, ref, comp), deltaChart(a))

	return page.Render(w)
}

func speedChart(a *coach.Analysis, ref, comp telemetry.NormalizedLap) *charts.Line {
	line := charts.NewLine()
	line.SetGlobalOptions(
		charts.WithInitializationOpts(opts.Initialization{Theme: "dark", Width: "1200px", Height: "480px"}),
		charts.WithTitleOpts(opts.Title{
			Title:    "Speed vs distance",
			Subtitle: fmt.Sprintf("%s, %s", a.Session.TrackName, a.Session.CarName),
		}),
		charts.WithTooltipOpts(opts.Tooltip{Show: opts.Bool(true), Trigger: "axis"}),
		charts.WithXAxisOpts(opts.XAxis{Name: "Distance (m)"}),
		charts.WithYAxisOpts(opts.YAxis{Name: "Speed (m/s)"}),
	)

	stride := strideFor(len(ref.Distance))
	line.SetXAxis(xLabels(ref.Distance, stride)).
		AddSeries(fmt.Sprintf("lap %d (reference)", ref.LapNumber), lineData(ref.Speed, stride)).
		AddSeries(fmt.Sprintf("lap %d", comp.LapNumber), lineData(comp.Speed, stride))

	if markers := apexMarkers(a, ref); len(markers) > 0 {
		scatter := charts.NewScatter()
		scatter.AddSeries("corner apexes", markers,
			charts.WithScatterChartOpts(opts.ScatterChart{SymbolSize: 10}))
		line.Overlap(scatter)
	}
	return line
}

func deltaChart(a *coach.Analysis) *charts.Line {
	line := charts.NewLine()
	line.SetGlobalOptions(
		charts.WithInitializationOpts(opts.Initialization{Theme: "dark", Width: "1200px", Height: "360px"}),
		charts.WithTitleOpts(opts.Title{
			Title:    "Cumulative delta",
			Subtitle: fmt.Sprintf("total %+.3fs over the common distance", a.Comparison.TotalDelta),
		}),
		charts.WithTooltipOpts(opts.Tooltip{Show: opts.Bool(true), Trigger: "axis"}),
		charts.WithXAxisOpts(opts.XAxis{Name: "Distance (m)"}),
		charts.WithYAxisOpts(opts.YAxis{Name: "Delta (s)"}),
	)

	stride := strideFor(len(a.Comparison.Distance))
	line.SetXAxis(xLabels(a.Comparison.Distance, stride)).
		AddSeries("delta to reference", lineData(a.Comparison.CumulativeDelta, stride))
	return line
}

// apexMarkers places one point per detected corner at its apex on the
// reference speed trace.
func apexMarkers(a *coach.Analysis, ref telemetry.NormalizedLap) []opts.ScatterData {
	var out []opts.ScatterData
	for _, c := range a.Segmentation.Corners {
		label := fmt.Sprintf("T%d", c.Number)
		if c.Name != "" {
			label = c.Name
		}
		out = append(out, opts.ScatterData{
			Name:  label,
			Value: []interface{}{fmt.Sprintf("%.0f", c.ApexDistance), c.ApexSpeed},
		})
	}
	return out
}

func strideFor(n int) int {
	if n <= maxChartPoints {
		return 1
	}
	return int(math.Ceil(float64(n) / float64(maxChartPoints)))
}

func xLabels(xs []float64, stride int) []string {
	out := make([]string, 0, len(xs)/stride+1)
	for i := 0; i < len(xs); i += stride {
		out = append(out, fmt.Sprintf("%.0f", xs[i]))
	}
	return out
}

func lineData(ys []float64, stride int) []opts.LineData {
	out := make([]opts.LineData, 0, len(ys)/stride+1)
	for i := 0; i < len(ys); i += stride {
		out = append(out, opts.LineData{Value: ys[i]})
	}
	return out
}
