package profile

import (
	"fmt"

	"gonum.org/v1/plot"
	"gonum.org/v1/plot/plotter"
	"gonum.org/v1/plot/vg"
)

// SavePlot renders the difference sequence as a line plot PNG, pixel index on
// the x-axis and difference value on the y-axis. It complements the plain-text
// artifact written by Profile for quick visual triage of a failing frame.
func SavePlot(path, title string, diffs []float64) error {
	if len(diffs) == 0 {
		return ErrEmptyDiffs
	}

	pts := make(plotter.XYs, len(diffs))
	for i, v := range diffs {
		pts[i] = plotter.XY{X: float64(i), Y: v}
	}

	pl := plot.New()
	pl.Title.Text = title
	pl.X.Label.Text = "Pixel"
	pl.Y.Label.Text = "Difference"

	line, err := plotter.NewLine(pts)
	if err != nil {
		return fmt.Errorf("build diff line: %w", err)
	}
	line.Width = vg.Points(1)
	pl.Add(line)

	if err := pl.Save(14*vg.Inch, 6*vg.Inch, path); err != nil {
		return fmt.Errorf("save diff plot: %w", err)
	}
	return nil
}
