// Package fit defines the model-fitting capability used by the
// combination loop, with two implementations: a self-contained
// parametric fitter and a bridge to an external fitting script.
package fit

import (
	"fmt"
	"math"
	"path/filepath"

	"github.com/KarissaChan1/gamlss-curve-optimization/internal/dataset"
)

// Percentiles is the fixed set of centile curves every fitter produces.
var Percentiles = []float64{3, 15, 50, 85, 97}

// Request carries one (sex, tissue, biomarker) combination's inputs.
// Observations must already be filtered to one sex and free of missing
// sex/biomarker values.
type Request struct {
	Observations *dataset.Table
	AgeColumn    string
	ValueColumn  string
	Sex          string

	// Disease is the combined disease-cohort subset for this biomarker
	// (age, value, tissue label), or nil when no disease data applies.
	Disease      *dataset.Table
	TissueColumn string
	TissueType   string

	// SaveDir is where the fitter writes its plot artifacts.
	SaveDir string
}

// Centiles is a table of percentile curves over age. Values[i][j] is the
// Percentiles[i] curve evaluated at Ages[j].
type Centiles struct {
	Ages        []float64   `json:"ages"`
	Percentiles []float64   `json:"percentiles"`
	Values      [][]float64 `json:"values"`
}

// Validate checks that the centile table is rectangular: one value row
// per percentile, each row as long as the age grid. External fitters
// hand back arbitrary JSON, so the shape is not guaranteed.
func (c Centiles) Validate() error {
	if len(c.Values) != len(c.Percentiles) {
		return fmt.Errorf("centiles: %d value rows for %d percentiles", len(c.Values), len(c.Percentiles))
	}
	for i, row := range c.Values {
		if len(row) != len(c.Ages) {
			return fmt.Errorf("centiles: P%g row has %d values for %d ages", c.Percentiles[i], len(row), len(c.Ages))
		}
	}
	return nil
}

// Result is the structured outcome of one fitting call. The four
// distribution parameters are optional: a family that does not use one
// leaves it nil.
type Result struct {
	Family       string             `json:"model_type"`
	GAIC         *float64           `json:"gaic"`
	Mu           *float64           `json:"mu"`
	Sigma        *float64           `json:"sigma"`
	Nu           *float64           `json:"nu"`
	Tau          *float64           `json:"tau"`
	Coefficients map[string]float64 `json:"coefficients"`
	Centiles     Centiles           `json:"centiles"`
}

// Fitter is the injected fitting capability. Implementations must treat
// the request tables as read-only.
type Fitter interface {
	Fit(req Request) (*Result, error)
}

// CentilePlotName returns the filename convention for a combination's
// centile plot; the report reconstructs these names to find images.
func CentilePlotName(sex, biomarker string, disease bool) string {
	if disease {
		return fmt.Sprintf("centile_plot_%s_%s_disease.png", sex, biomarker)
	}
	return fmt.Sprintf("centile_plot_%s_%s.png", sex, biomarker)
}

// ResidualPlotName returns the filename convention for a combination's
// residuals plot.
func ResidualPlotName(sex, biomarker string) string {
	return fmt.Sprintf("residuals_%s_%s.png", sex, biomarker)
}

func plotPath(dir, name string) string { return filepath.Join(dir, name) }

// pairedColumns extracts aligned (x, y) float pairs from a table,
// dropping rows where either value is missing or non-numeric.
func pairedColumns(t *dataset.Table, xcol, ycol string) (xs, ys []float64, err error) {
	xv, err := t.FloatColumn(xcol)
	if err != nil {
		return nil, nil, err
	}
	yv, err := t.FloatColumn(ycol)
	if err != nil {
		return nil, nil, err
	}
	for i := range xv {
		if math.IsNaN(xv[i]) || math.IsNaN(yv[i]) {
			continue
		}
		xs = append(xs, xv[i])
		ys = append(ys, yv[i])
	}
	return xs, ys, nil
}
