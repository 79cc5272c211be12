package plot

import (
	"math"
	"os"
	"path/filepath"
	"testing"

	"github.com/wcharczuk/go-chart/v2"
)

func TestBinEdges(t *testing.T) {
	edges := BinEdges(0, 10, 5)
	want := []float64{0, 2, 4, 6, 8, 10}
	if len(edges) != len(want) {
		t.Fatalf("edges = %v, want %v", edges, want)
	}
	for i := range want {
		if math.Abs(edges[i]-want[i]) > 1e-12 {
			t.Errorf("edges[%d] = %g, want %g", i, edges[i], want[i])
		}
	}
}

func TestBinCountsSumAndBoundaries(t *testing.T) {
	edges := BinEdges(0, 10, 5)
	vals := []float64{0, 1.9, 2, 5, 9.9, 10, 10, -1, 11}

	counts := binCounts(vals, edges)
	if len(counts) != 5 {
		t.Fatalf("counts = %v, want 5 bins", counts)
	}
	var sum float64
	for _, c := range counts {
		sum += c
	}
	// Out-of-range values are excluded; everything else lands exactly once.
	if sum != 7 {
		t.Errorf("total count = %g, want 7", sum)
	}
	// The maximum value belongs to the last bin, not a phantom sixth one.
	if counts[4] != 3 {
		t.Errorf("last bin = %g, want 3 (9.9 and both 10s)", counts[4])
	}
	if counts[0] != 2 {
		t.Errorf("first bin = %g, want 2 (0 and 1.9)", counts[0])
	}
	if counts[1] != 1 || counts[2] != 1 {
		t.Errorf("middle bins = %v, want [.. 1 1 ..]", counts)
	}
}

func TestBinCountsSharedEdgesAcrossGroups(t *testing.T) {
	// Two groups with different ranges histogrammed over shared edges
	// produce comparable bars: every value of both groups is tallied
	// against the same grid.
	female := []float64{21, 25, 33, 47, 60}
	male := []float64{30, 44, 52, 79}
	all := append(append([]float64{}, female...), male...)

	edges := BinEdges(21, 79, 6)
	fCounts := binCounts(female, edges)
	mCounts := binCounts(male, edges)
	allCounts := binCounts(all, edges)
	for i := range allCounts {
		if fCounts[i]+mCounts[i] != allCounts[i] {
			t.Errorf("bin %d: %g + %g != %g", i, fCounts[i], mCounts[i], allCounts[i])
		}
	}
}

func TestHistogramLegendCountsFullSample(t *testing.T) {
	// Unparseable ages arrive as NaN. They cannot be binned, but the
	// legend N still reflects the label's full row count.
	ages := map[string][]float64{
		"F": {21, math.NaN(), 33, 47, math.NaN()},
		"M": {30, 44},
	}
	edges := BinEdges(21, 47, 4)

	series := histogramSeries(ages, []string{"F", "M"}, edges)
	if len(series) != 2 {
		t.Fatalf("series = %d, want 2", len(series))
	}
	f := series[0].(chart.ContinuousSeries)
	if f.Name != "F (N=5)" {
		t.Errorf("legend = %q, want %q", f.Name, "F (N=5)")
	}
	var binned float64
	for _, c := range binCounts(finite(ages["F"]), edges) {
		binned += c
	}
	if binned != 3 {
		t.Errorf("binned F ages = %g, want 3", binned)
	}
	if m := series[1].(chart.ContinuousSeries); m.Name != "M (N=2)" {
		t.Errorf("legend = %q, want %q", m.Name, "M (N=2)")
	}
}

func TestAgeDistributionWithNaNEntries(t *testing.T) {
	path := filepath.Join(t.TempDir(), "ages.png")
	ages := map[string][]float64{
		"F": {21, 25, math.NaN(), 47},
		"M": {30, 44, 52},
	}
	if err := AgeDistribution(ages, []string{"F", "M"}, 5, DefaultConfig, path); err != nil {
		t.Fatalf("AgeDistribution: %v", err)
	}
	if _, err := os.Stat(path); err != nil {
		t.Errorf("stat: %v", err)
	}
}

func TestAgeDistributionWritesPNG(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "ages.png")
	ages := map[string][]float64{
		"F": {21, 25, 33, 47, 60, 61, 62},
		"M": {30, 44, 52, 79, 55},
	}
	if err := AgeDistribution(ages, []string{"F", "M"}, 10, DefaultConfig, path); err != nil {
		t.Fatalf("AgeDistribution: %v", err)
	}
	info, err := os.Stat(path)
	if err != nil {
		t.Fatalf("stat: %v", err)
	}
	if info.Size() == 0 {
		t.Errorf("wrote empty file")
	}
}

func TestAgeDistributionNoData(t *testing.T) {
	path := filepath.Join(t.TempDir(), "ages.png")
	err := AgeDistribution(map[string][]float64{}, nil, 10, DefaultConfig, path)
	if err == nil {
		t.Fatalf("expected error for empty input")
	}
	if _, statErr := os.Stat(path); !os.IsNotExist(statErr) {
		t.Errorf("no file should be written on failure")
	}
}

func TestCentileCurvesWritesPNG(t *testing.T) {
	path := filepath.Join(t.TempDir(), "centiles.png")
	ages := []float64{20, 40, 60, 80}
	percentiles := []float64{3, 50, 97}
	values := [][]float64{
		{0.30, 0.31, 0.32, 0.33},
		{0.40, 0.41, 0.42, 0.43},
		{0.50, 0.51, 0.52, 0.53},
	}
	obsX := []float64{25, 45, 70}
	obsY := []float64{0.38, 0.44, 0.41}
	err := CentileCurves(ages, percentiles, values, obsX, obsY, nil, nil,
		"WM FA (F)", "FA", DefaultConfig, path)
	if err != nil {
		t.Fatalf("CentileCurves: %v", err)
	}
	if _, err := os.Stat(path); err != nil {
		t.Errorf("stat: %v", err)
	}
}

func TestCentileCurvesTooFewPoints(t *testing.T) {
	err := CentileCurves([]float64{20}, []float64{50}, [][]float64{{0.4}},
		nil, nil, nil, nil, "t", "y", DefaultConfig, filepath.Join(t.TempDir(), "c.png"))
	if err == nil {
		t.Fatalf("expected error for single-point curve")
	}
}

func TestResidualsWritesPNG(t *testing.T) {
	path := filepath.Join(t.TempDir(), "resid.png")
	x := []float64{20, 30, 40, 50}
	r := []float64{0.01, -0.02, 0.005, -0.01}
	if err := Residuals(x, r, "residuals", DefaultConfig, path); err != nil {
		t.Fatalf("Residuals: %v", err)
	}
	if _, err := os.Stat(path); err != nil {
		t.Errorf("stat: %v", err)
	}
}
