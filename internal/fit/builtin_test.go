package fit

import (
	"math"
	"os"
	"path/filepath"
	"strconv"
	"testing"

	"github.com/KarissaChan1/gamlss-curve-optimization/internal/dataset"
)

// syntheticLinear builds observations following value = 2*age + 1 with a
// small deterministic wobble so sigma stays positive.
func syntheticLinear(n int) *dataset.Table {
	tbl := dataset.New([]string{"AGE", "WM_FA"}, nil)
	for i := 0; i < n; i++ {
		age := 10 + float64(i)
		wobble := 0.1
		if i%2 == 0 {
			wobble = -0.1
		}
		val := 2*age + 1 + wobble
		tbl.Rows = append(tbl.Rows, []string{
			formatFloat(age), formatFloat(val),
		})
	}
	return tbl
}

func formatFloat(v float64) string {
	return strconv.FormatFloat(v, 'f', -1, 64)
}

func TestBuiltinFitsLinearTrend(t *testing.T) {
	b := NewBuiltin(false)
	res, err := b.Fit(Request{
		Observations: syntheticLinear(40),
		AgeColumn:    "AGE",
		ValueColumn:  "WM_FA",
		Sex:          "F",
	})
	if err != nil {
		t.Fatalf("Fit: %v", err)
	}
	if res.Family != FamilyNO {
		t.Errorf("Family = %q, want %q", res.Family, FamilyNO)
	}
	if res.GAIC == nil || res.Mu == nil || res.Sigma == nil {
		t.Fatalf("expected GAIC, mu, sigma to be set: %+v", res)
	}
	if res.Nu != nil || res.Tau != nil {
		t.Errorf("nu/tau should be unset for family %s", res.Family)
	}

	slope, ok := res.Coefficients["age"]
	if !ok {
		t.Fatalf("coefficients missing 'age': %v", res.Coefficients)
	}
	if math.Abs(slope-2) > 0.05 {
		t.Errorf("slope = %.4f, want ~2", slope)
	}
	intercept := res.Coefficients["(Intercept)"]
	if math.Abs(intercept-1) > 1 {
		t.Errorf("intercept = %.4f, want ~1", intercept)
	}
}

func TestBuiltinCentileShape(t *testing.T) {
	b := NewBuiltin(false)
	res, err := b.Fit(Request{
		Observations: syntheticLinear(40),
		AgeColumn:    "AGE",
		ValueColumn:  "WM_FA",
		Sex:          "F",
	})
	if err != nil {
		t.Fatalf("Fit: %v", err)
	}
	c := res.Centiles
	if len(c.Percentiles) != 5 || len(c.Values) != 5 {
		t.Fatalf("centile curves = %d, want 5", len(c.Values))
	}
	if len(c.Ages) != curvePoints {
		t.Errorf("curve points = %d, want %d", len(c.Ages), curvePoints)
	}
	// Curves must be ordered P3 < P50 < P97 at every age.
	for j := range c.Ages {
		if !(c.Values[0][j] < c.Values[2][j] && c.Values[2][j] < c.Values[4][j]) {
			t.Fatalf("centiles out of order at age %.1f: %.3f %.3f %.3f",
				c.Ages[j], c.Values[0][j], c.Values[2][j], c.Values[4][j])
		}
	}
	// P50 tracks the fitted mean: 2*age + 1.
	mid := len(c.Ages) / 2
	want := 2*c.Ages[mid] + 1
	if math.Abs(c.Values[2][mid]-want) > 0.5 {
		t.Errorf("P50 at age %.1f = %.3f, want ~%.3f", c.Ages[mid], c.Values[2][mid], want)
	}
}

func TestBuiltinSmoothingUsesCubicGaussian(t *testing.T) {
	b := NewBuiltin(true)
	res, err := b.Fit(Request{
		Observations: syntheticLinear(40),
		AgeColumn:    "AGE",
		ValueColumn:  "WM_FA",
		Sex:          "M",
	})
	if err != nil {
		t.Fatalf("Fit: %v", err)
	}
	if res.Family != FamilyNO {
		t.Errorf("Family = %q, want %q", res.Family, FamilyNO)
	}
	if _, ok := res.Coefficients["age^3"]; !ok {
		t.Errorf("smoothing fit should carry a cubic term: %v", res.Coefficients)
	}
}

func TestBuiltinRejectsTinySamples(t *testing.T) {
	b := NewBuiltin(false)
	_, err := b.Fit(Request{
		Observations: syntheticLinear(4),
		AgeColumn:    "AGE",
		ValueColumn:  "WM_FA",
		Sex:          "F",
	})
	if err == nil {
		t.Errorf("expected error for undersized sample")
	}
}

func TestBuiltinWritesPlots(t *testing.T) {
	dir := t.TempDir()
	b := NewBuiltin(false)
	_, err := b.Fit(Request{
		Observations: syntheticLinear(40),
		AgeColumn:    "AGE",
		ValueColumn:  "WM_FA",
		Sex:          "F",
		SaveDir:      dir,
	})
	if err != nil {
		t.Fatalf("Fit: %v", err)
	}
	for _, name := range []string{
		CentilePlotName("F", "WM_FA", false),
		ResidualPlotName("F", "WM_FA"),
	} {
		if _, err := os.Stat(filepath.Join(dir, name)); err != nil {
			t.Errorf("expected plot %s: %v", name, err)
		}
	}
}
