package fit

import (
	"fmt"
	"math"

	"gonum.org/v1/gonum/mat"
	"gonum.org/v1/gonum/stat/distuv"

	"github.com/KarissaChan1/gamlss-curve-optimization/internal/plot"
)

// Distribution families the builtin fitter can select between. NO is a
// gaussian fit on the raw scale; LOGNO fits on the log scale and is only
// eligible when every observed value is positive. Both use mu and sigma
// and leave nu/tau unset.
const (
	FamilyNO    = "NO"
	FamilyLOGNO = "LOGNO"
)

const curvePoints = 100

// Builtin fits polynomial location-scale models with gonum and renders
// the combination's plot artifacts itself. In model-selection mode it
// searches degrees 1..MaxDegree across both families and keeps the fit
// with the lowest GAIC; in smoothing mode it fixes a cubic gaussian fit.
type Builtin struct {
	Smoothing bool
	MaxDegree int
	Charts    plot.Config
}

// NewBuiltin returns a Builtin with the default search depth.
func NewBuiltin(smoothing bool) *Builtin {
	return &Builtin{Smoothing: smoothing, MaxDegree: 3, Charts: plot.DefaultConfig}
}

type candidate struct {
	family string
	degree int
	coefs  []float64
	sigma  float64
	gaic   float64
	logY   bool
}

func (b *Builtin) Fit(req Request) (*Result, error) {
	ages, values, err := pairedColumns(req.Observations, req.AgeColumn, req.ValueColumn)
	if err != nil {
		return nil, err
	}
	maxDeg := b.MaxDegree
	if maxDeg < 1 {
		maxDeg = 3
	}
	if len(ages) < maxDeg+3 {
		return nil, fmt.Errorf("not enough observations for %s (%s): have %d", req.ValueColumn, req.Sex, len(ages))
	}

	best, err := b.selectModel(ages, values, maxDeg)
	if err != nil {
		return nil, err
	}

	res := b.buildResult(best, ages, values)

	if req.SaveDir != "" {
		if err := b.renderPlots(req, best, ages, values, res.Centiles); err != nil {
			return nil, err
		}
	}
	return res, nil
}

func (b *Builtin) selectModel(ages, values []float64, maxDeg int) (*candidate, error) {
	if b.Smoothing {
		c, err := fitCandidate(FamilyNO, 3, ages, values)
		if err != nil {
			return nil, err
		}
		return c, nil
	}
	var best *candidate
	for _, family := range []string{FamilyNO, FamilyLOGNO} {
		if family == FamilyLOGNO && !allPositive(values) {
			continue
		}
		for deg := 1; deg <= maxDeg; deg++ {
			c, err := fitCandidate(family, deg, ages, values)
			if err != nil {
				continue
			}
			if best == nil || c.gaic < best.gaic {
				best = c
			}
		}
	}
	if best == nil {
		return nil, fmt.Errorf("no model family converged")
	}
	return best, nil
}

func (b *Builtin) buildResult(c *candidate, ages, values []float64) *Result {
	coefs := make(map[string]float64, len(c.coefs))
	for i, v := range c.coefs {
		coefs[coefName(i)] = v
	}

	fitted := evalPoly(c.coefs, ages)
	mu := mean(fitted)

	lo, hi := minMax(ages)
	grid := linspace(lo, hi, curvePoints)
	muGrid := evalPoly(c.coefs, grid)

	norm := distuv.Normal{Mu: 0, Sigma: 1}
	vals := make([][]float64, len(Percentiles))
	for i, p := range Percentiles {
		z := norm.Quantile(p / 100)
		row := make([]float64, len(grid))
		for j := range grid {
			q := muGrid[j] + z*c.sigma
			if c.logY {
				q = math.Exp(q)
			}
			row[j] = q
		}
		vals[i] = row
	}

	gaic := c.gaic
	sigma := c.sigma
	return &Result{
		Family:       c.family,
		GAIC:         &gaic,
		Mu:           &mu,
		Sigma:        &sigma,
		Coefficients: coefs,
		Centiles: Centiles{
			Ages:        grid,
			Percentiles: append([]float64(nil), Percentiles...),
			Values:      vals,
		},
	}
}

func (b *Builtin) renderPlots(req Request, c *candidate, ages, values []float64, cent Centiles) error {
	var disX, disY []float64
	hasDisease := req.Disease != nil && req.Disease.Len() > 0
	if hasDisease {
		var err error
		disX, disY, err = pairedColumns(req.Disease, req.AgeColumn, req.ValueColumn)
		if err != nil {
			return fmt.Errorf("disease subset: %w", err)
		}
		hasDisease = len(disX) > 0
	}

	title := fmt.Sprintf("%s centiles (%s)", req.ValueColumn, req.Sex)
	name := CentilePlotName(req.Sex, req.ValueColumn, hasDisease)
	if err := plot.CentileCurves(cent.Ages, cent.Percentiles, cent.Values,
		ages, values, disX, disY, title, req.ValueColumn, b.Charts, plotPath(req.SaveDir, name)); err != nil {
		return err
	}

	fitted := evalPoly(c.coefs, ages)
	resid := make([]float64, len(values))
	for i := range values {
		y := values[i]
		if c.logY {
			y = math.Log(y)
		}
		resid[i] = y - fitted[i]
	}
	title = fmt.Sprintf("%s residuals (%s)", req.ValueColumn, req.Sex)
	return plot.Residuals(ages, resid, title, b.Charts, plotPath(req.SaveDir, ResidualPlotName(req.Sex, req.ValueColumn)))
}

// fitCandidate runs a polynomial least-squares fit of value on age for
// one family/degree and scores it by GAIC (AIC with penalty 2).
func fitCandidate(family string, degree int, ages, values []float64) (*candidate, error) {
	logY := family == FamilyLOGNO
	y := values
	if logY {
		y = make([]float64, len(values))
		for i, v := range values {
			y[i] = math.Log(v)
		}
	}
	coefs, err := polyFit(ages, y, degree)
	if err != nil {
		return nil, err
	}
	fitted := evalPoly(coefs, ages)

	n := float64(len(y))
	var rss float64
	for i := range y {
		d := y[i] - fitted[i]
		rss += d * d
	}
	if rss <= 0 {
		rss = 1e-12
	}
	sigma2 := rss / n
	ll := -n / 2 * (math.Log(2*math.Pi*sigma2) + 1)
	if logY {
		// Jacobian of the log transform, so GAIC is comparable across
		// families on the observation scale.
		for _, v := range values {
			ll -= math.Log(v)
		}
	}
	k := float64(degree + 2) // coefficients plus sigma
	gaic := 2*k - 2*ll

	return &candidate{
		family: family,
		degree: degree,
		coefs:  coefs,
		sigma:  math.Sqrt(sigma2),
		gaic:   gaic,
		logY:   logY,
	}, nil
}

// polyFit solves the least-squares polynomial of the given degree via a
// QR decomposition of the Vandermonde matrix.
func polyFit(x, y []float64, degree int) ([]float64, error) {
	n := len(x)
	if n < degree+1 {
		return nil, fmt.Errorf("polyFit: %d points for degree %d", n, degree)
	}
	a := mat.NewDense(n, degree+1, nil)
	for i := 0; i < n; i++ {
		v := 1.0
		for j := 0; j <= degree; j++ {
			a.Set(i, j, v)
			v *= x[i]
		}
	}
	b := mat.NewDense(n, 1, append([]float64(nil), y...))

	var qr mat.QR
	qr.Factorize(a)
	var sol mat.Dense
	if err := qr.SolveTo(&sol, false, b); err != nil {
		return nil, fmt.Errorf("polyFit: %w", err)
	}
	coefs := make([]float64, degree+1)
	for j := range coefs {
		coefs[j] = sol.At(j, 0)
	}
	return coefs, nil
}

func evalPoly(coefs, xs []float64) []float64 {
	out := make([]float64, len(xs))
	for i, x := range xs {
		v := 0.0
		for j := len(coefs) - 1; j >= 0; j-- {
			v = v*x + coefs[j]
		}
		out[i] = v
	}
	return out
}

func coefName(i int) string {
	switch i {
	case 0:
		return "(Intercept)"
	case 1:
		return "age"
	}
	return fmt.Sprintf("age^%d", i)
}

func allPositive(vals []float64) bool {
	for _, v := range vals {
		if v <= 0 {
			return false
		}
	}
	return true
}

func mean(vals []float64) float64 {
	var s float64
	for _, v := range vals {
		s += v
	}
	return s / float64(len(vals))
}

func minMax(vals []float64) (lo, hi float64) {
	lo, hi = math.Inf(1), math.Inf(-1)
	for _, v := range vals {
		if v < lo {
			lo = v
		}
		if v > hi {
			hi = v
		}
	}
	return lo, hi
}

func linspace(lo, hi float64, n int) []float64 {
	out := make([]float64, n)
	step := (hi - lo) / float64(n-1)
	for i := range out {
		out[i] = lo + float64(i)*step
	}
	out[n-1] = hi
	return out
}
