// Package plot is the rendering sink: it turns named curve sets into PNG
// artifacts on disk. Failures are surfaced, never recovered.
package plot

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/wcharczuk/go-chart/v2"
)

// Series is one named curve.
type Series struct {
	Name string
	X    []float64
	Y    []float64
}

// SaveLines renders the series on linear axes and writes a PNG to path,
// creating parent directories as needed.
func SaveLines(path string, series []Series) error {
	return save(path, series, false)
}

// SaveLogLog renders the series with both axes logarithmic.
func SaveLogLog(path string, series []Series) error {
	return save(path, series, true)
}

func save(path string, series []Series, logScale bool) error {
	if len(series) == 0 {
		return fmt.Errorf("plot: no series to render")
	}
	chartSeries := make([]chart.Series, 0, len(series))
	for _, s := range series {
		if len(s.X) != len(s.Y) {
			return fmt.Errorf("plot: series %q has %d x values but %d y values", s.Name, len(s.X), len(s.Y))
		}
		if len(s.X) < 2 {
			return fmt.Errorf("plot: series %q needs at least two points, got %d", s.Name, len(s.X))
		}
		chartSeries = append(chartSeries, chart.ContinuousSeries{
			Name:    s.Name,
			XValues: s.X,
			YValues: s.Y,
		})
	}

	graph := chart.Chart{
		Width:  800,
		Height: 600,
		Series: chartSeries,
	}
	if logScale {
		graph.XAxis = chart.XAxis{Range: &chart.LogarithmicRange{}}
		graph.YAxis = chart.YAxis{Range: &chart.LogarithmicRange{}}
	}
	graph.Elements = []chart.Renderable{chart.Legend(&graph)}

	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return fmt.Errorf("plot: creating output directory: %w", err)
	}
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("plot: creating %s: %w", path, err)
	}
	defer f.Close()

	if err := graph.Render(chart.PNG, f); err != nil {
		return fmt.Errorf("plot: rendering %s: %w", path, err)
	}
	return nil
}
