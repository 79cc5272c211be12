// Package plot renders the run's PNG artifacts: the age-distribution
// histogram, per-combination centile curves, and residual scatters.
package plot

import (
	"bytes"
	"fmt"
	"math"
	"os"

	"github.com/montanaflynn/stats"
	"github.com/wcharczuk/go-chart/v2"
	"github.com/wcharczuk/go-chart/v2/drawing"
)

// Config carries chart geometry shared by all renderers.
type Config struct {
	Width  int
	Height int
}

// DefaultConfig matches the report's 3:2 figure boxes.
var DefaultConfig = Config{Width: 1024, Height: 683}

// AgeDistribution renders overlapping semi-transparent histograms of age
// per sex label. All labels share one set of equal-width bin edges
// spanning the observed range. NaN entries (rows whose age did not
// parse) are skipped for binning but still belong to their label's
// legend count.
func AgeDistribution(ages map[string][]float64, order []string, bins int, cfg Config, path string) error {
	if bins < 2 {
		bins = 30
	}
	var all []float64
	for _, label := range order {
		all = append(all, finite(ages[label])...)
	}
	if len(all) == 0 {
		return fmt.Errorf("no age data to plot")
	}
	lo, _ := stats.Min(all)
	hi, _ := stats.Max(all)
	if hi <= lo {
		hi = lo + 1
	}
	edges := BinEdges(lo, hi, bins)

	graph := chart.Chart{
		Title:  "Age Distribution by Sex",
		Width:  cfg.Width,
		Height: cfg.Height,
		XAxis:  chart.XAxis{Name: "Age"},
		YAxis:  chart.YAxis{Name: "Frequency"},
	}
	graph.Series = histogramSeries(ages, order, edges)
	graph.Elements = []chart.Renderable{chart.Legend(&graph)}
	return render(graph, path)
}

// histogramSeries builds one filled staircase series per label. The
// legend N is the label's full sample count, matching the dataset's
// per-sex row counts rather than the binnable subset.
func histogramSeries(ages map[string][]float64, order []string, edges []float64) []chart.Series {
	out := make([]chart.Series, 0, len(order))
	for i, label := range order {
		counts := binCounts(finite(ages[label]), edges)
		col := chart.GetDefaultColor(i)
		xs, ys := staircase(edges, counts)
		out = append(out, chart.ContinuousSeries{
			Name:    fmt.Sprintf("%s (N=%d)", label, len(ages[label])),
			XValues: xs,
			YValues: ys,
			Style: chart.Style{
				StrokeColor: col,
				StrokeWidth: 1.5,
				FillColor:   col.WithAlpha(100),
			},
		})
	}
	return out
}

func finite(vals []float64) []float64 {
	out := make([]float64, 0, len(vals))
	for _, v := range vals {
		if !math.IsNaN(v) {
			out = append(out, v)
		}
	}
	return out
}

// BinEdges returns n+1 equal-width edges spanning [lo, hi].
func BinEdges(lo, hi float64, n int) []float64 {
	edges := make([]float64, n+1)
	width := (hi - lo) / float64(n)
	for i := range edges {
		edges[i] = lo + float64(i)*width
	}
	edges[n] = hi
	return edges
}

// binCounts tallies values into the bins defined by edges; the final bin
// is closed on the right so the maximum lands in it.
func binCounts(vals, edges []float64) []float64 {
	n := len(edges) - 1
	counts := make([]float64, n)
	for _, v := range vals {
		if v < edges[0] || v > edges[n] {
			continue
		}
		idx := n - 1
		for i := 0; i < n; i++ {
			if v < edges[i+1] {
				idx = i
				break
			}
		}
		counts[idx]++
	}
	return counts
}

// staircase expands bin edges and counts into step-outline coordinates.
func staircase(edges, counts []float64) (xs, ys []float64) {
	for i, c := range counts {
		xs = append(xs, edges[i], edges[i+1])
		ys = append(ys, c, c)
	}
	return xs, ys
}

// CentileCurves renders the fitted percentile curves over the
// observation scatter, with disease-cohort points overlaid when present.
// values[i] holds the curve for percentiles[i] across ages.
func CentileCurves(ages, percentiles []float64, values [][]float64, obsX, obsY, disX, disY []float64, title, yLabel string, cfg Config, path string) error {
	if len(ages) < 2 {
		return fmt.Errorf("not enough curve points to plot")
	}
	graph := chart.Chart{
		Title:  title,
		Width:  cfg.Width,
		Height: cfg.Height,
		XAxis:  chart.XAxis{Name: "Age"},
		YAxis:  chart.YAxis{Name: yLabel},
	}
	if len(obsX) > 0 {
		graph.Series = append(graph.Series, scatter("observations", obsX, obsY, chart.ColorAlternateGray))
	}
	for i := range percentiles {
		style := chart.Style{StrokeColor: chart.ColorBlue, StrokeWidth: 1}
		if percentiles[i] == 50 {
			style.StrokeWidth = 2.5
		} else {
			style.StrokeDashArray = []float64{4, 3}
		}
		graph.Series = append(graph.Series, chart.ContinuousSeries{
			Name:    fmt.Sprintf("P%g", percentiles[i]),
			XValues: ages,
			YValues: values[i],
			Style:   style,
		})
	}
	if len(disX) > 0 {
		graph.Series = append(graph.Series, scatter("disease", disX, disY, chart.ColorRed))
	}
	graph.Elements = []chart.Renderable{chart.Legend(&graph)}
	return render(graph, path)
}

// Residuals renders fitted-model residuals against age with a zero line.
func Residuals(x, resid []float64, title string, cfg Config, path string) error {
	if len(x) < 2 {
		return fmt.Errorf("not enough residual points to plot")
	}
	lo, _ := stats.Min(x)
	hi, _ := stats.Max(x)
	graph := chart.Chart{
		Title:  title,
		Width:  cfg.Width,
		Height: cfg.Height,
		XAxis:  chart.XAxis{Name: "Age"},
		YAxis:  chart.YAxis{Name: "Residual"},
		Series: []chart.Series{
			scatter("residuals", x, resid, chart.ColorBlue),
			chart.ContinuousSeries{
				XValues: []float64{lo, hi},
				YValues: []float64{0, 0},
				Style: chart.Style{
					StrokeColor:     chart.ColorAlternateGray,
					StrokeWidth:     1,
					StrokeDashArray: []float64{4, 3},
				},
			},
		},
	}
	return render(graph, path)
}

func scatter(name string, xs, ys []float64, col drawing.Color) chart.ContinuousSeries {
	return chart.ContinuousSeries{
		Name:    name,
		XValues: xs,
		YValues: ys,
		Style: chart.Style{
			StrokeWidth: chart.Disabled,
			DotWidth:    3,
			DotColor:    col.WithAlpha(140),
		},
	}
}

// render draws to a buffer first so a failed render leaves no partial
// file behind.
func render(graph chart.Chart, path string) error {
	buffer := bytes.NewBuffer([]byte{})
	if err := graph.Render(chart.PNG, buffer); err != nil {
		return fmt.Errorf("render chart: %w", err)
	}
	outFile, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("create %s: %w", path, err)
	}
	defer outFile.Close()
	if _, err := buffer.WriteTo(outFile); err != nil {
		return fmt.Errorf("write %s: %w", path, err)
	}
	return nil
}
