package report

import (
	"fmt"
	"image/color"
	"os"
	"path/filepath"

	"gonum.org/v1/plot"
	"gonum.org/v1/plot/plotter"
	"gonum.org/v1/plot/vg"

	"github.com/lapsight-data/lapsight/internal/coach"
	"github.com/lapsight-data/lapsight/internal/telemetry"
)

// SaveTracePlots writes speed.png and delta.png under outputDir and
// returns the file paths.
func SaveTracePlots(outputDir string, a *coach.Analysis, ref, comp telemetry.NormalizedLap) ([]string, error) {
	if err := os.MkdirAll(outputDir, 0755); err != nil {
		return nil, fmt.Errorf("failed to create output dir: %w", err)
	}

	speedFile := filepath.Join(outputDir, "speed.png")
	if err := saveSpeedPlot(speedFile, a, ref, comp); err != nil {
		return nil, err
	}
	deltaFile := filepath.Join(outputDir, "delta.png")
	if err := saveDeltaPlot(deltaFile, a); err != nil {
		return nil, err
	}
	return []string{speedFile, deltaFile}, nil
}

func saveSpeedPlot(path string, a *coach.Analysis, ref, comp telemetry.NormalizedLap) error {
	p := plot.New()
	p.Title.Text = fmt.Sprintf("%s: speed vs distance", a.Session.TrackName)
	p.X.Label.Text = "Distance (m)"
	p.Y.Label.Text = "Speed (m/s)"

	refLine, err := plotter.NewLine(xyPoints(ref.Distance, ref.Speed))
	if err != nil {
		return err
	}
	refLine.Color = color.RGBA{R: 31, G: 119, B: 180, A: 255}
	p.Add(refLine)
	p.Legend.Add(fmt.Sprintf("lap %d (reference)", ref.LapNumber), refLine)

	compLine, err := plotter.NewLine(xyPoints(comp.Distance, comp.Speed))
	if err != nil {
		return err
	}
	compLine.Color = color.RGBA{R: 214, G: 39, B: 40, A: 255}
	p.Add(compLine)
	p.Legend.Add(fmt.Sprintf("lap %d", comp.LapNumber), compLine)

	if apexes := apexPoints(a); len(apexes) > 0 {
		marks, err := plotter.NewScatter(apexes)
		if err != nil {
			return err
		}
		p.Add(marks)
		p.Legend.Add("corner apexes", marks)
	}

	p.Legend.Top = true
	p.Legend.Left = false
	return p.Save(14*vg.Inch, 6*vg.Inch, path)
}

func saveDeltaPlot(path string, a *coach.Analysis) error {
	p := plot.New()
	p.Title.Text = fmt.Sprintf("Cumulative delta (total %+.3fs)", a.Comparison.TotalDelta)
	p.X.Label.Text = "Distance (m)"
	p.Y.Label.Text = "Delta (s)"

	deltaLine, err := plotter.NewLine(xyPoints(a.Comparison.Distance, a.Comparison.CumulativeDelta))
	if err != nil {
		return err
	}
	p.Add(deltaLine)

	if len(a.Comparison.Distance) == 0 {
		return p.Save(14*vg.Inch, 6*vg.Inch, path)
	}
	zero, err := plotter.NewLine(plotter.XYs{
		{X: a.Comparison.Distance[0], Y: 0},
		{X: a.Comparison.Distance[len(a.Comparison.Distance)-1], Y: 0},
	})
	if err != nil {
		return err
	}
	zero.Color = color.RGBA{R: 128, G: 128, B: 128, A: 255}
	zero.Dashes = []vg.Length{vg.Points(4), vg.Points(4)}
	p.Add(zero)

	return p.Save(14*vg.Inch, 6*vg.Inch, path)
}

func xyPoints(xs, ys []float64) plotter.XYs {
	n := len(xs)
	if len(ys) < n {
		n = len(ys)
	}
	pts := make(plotter.XYs, n)
	for i := 0; i < n; i++ {
		pts[i].X = xs[i]
		pts[i].Y = ys[i]
	}
	return pts
}

func apexPoints(a *coach.Analysis) plotter.XYs {
	pts := make(plotter.XYs, 0, len(a.Segmentation.Corners))
	for _, c := range a.Segmentation.Corners {
		pts = append(pts, plotter.XY{X: c.ApexDistance, Y: c.ApexSpeed})
	}
	return pts
}
