// Package curves orchestrates the sex × tissue × biomarker combination
// loop: per-combination input assembly, fitting, and aggregation of the
// partially-missing results into the run snapshot.
package curves

import (
	"fmt"
	"log"
	"path/filepath"
	"time"

	"github.com/google/uuid"

	"github.com/KarissaChan1/gamlss-curve-optimization/internal/dataset"
	"github.com/KarissaChan1/gamlss-curve-optimization/internal/fit"
	"github.com/KarissaChan1/gamlss-curve-optimization/internal/plot"
)

// AgeDistributionFile is the fixed filename of the dataset histogram.
const AgeDistributionFile = "dataset_age_distribution.png"

// Options configures one compute run. Data must already have rows with
// missing sex or biomarker values dropped.
type Options struct {
	Data       *dataset.Table
	AgeColumn  string
	SexColumn  string
	SexLabels  []string
	Tissues    []string
	Biomarkers *dataset.BiomarkerSet

	// Disease inputs are optional; DiseaseTissueOf maps disease column
	// names to tissue types.
	Disease         *dataset.Table
	DiseaseTissueOf map[string]string

	SaveDir string
	Fitter  fit.Fitter

	HistogramBins int
	Charts        plot.Config

	// InputFile and DiseaseFile are recorded in the snapshot for the
	// report header.
	InputFile   string
	DiseaseFile string
}

// Compute runs the combination loop sequentially and returns the run
// snapshot. Individual combination failures are logged and skipped; an
// error return means the run could not start at all.
func Compute(opts Options) (*Snapshot, error) {
	if opts.Fitter == nil {
		return nil, fmt.Errorf("no fitter configured")
	}
	if opts.Disease != nil && !opts.Disease.HasColumn(opts.SexColumn) {
		return nil, fmt.Errorf("disease data has no column %q", opts.SexColumn)
	}
	start := time.Now()

	counts := opts.Data.ValueCounts(opts.SexColumn)
	log.Println("Sample counts by sex:")
	for _, s := range opts.SexLabels {
		log.Printf("  %s: %d", s, counts[s])
	}

	// The histogram is rendered before any fitting so the report can
	// still show it when every fit fails.
	if err := plotAgeDistribution(opts); err != nil {
		log.Printf("Warning: age distribution plot failed: %v", err)
	}

	snap := &Snapshot{
		RunID:       uuid.NewString(),
		CreatedAt:   start,
		InputFile:   opts.InputFile,
		DiseaseFile: opts.DiseaseFile,
		Results:     make(Results),
	}

	for _, sex := range opts.SexLabels {
		obs := opts.Data.FilterEq(opts.SexColumn, sex)

		var diseaseForSex *dataset.Table
		if opts.Disease != nil {
			diseaseForSex = opts.Disease.FilterEq(opts.SexColumn, sex)
			log.Printf("Disease rows for sex %s: %d", sex, diseaseForSex.Len())
			if diseaseForSex.Len() == 0 {
				diseaseForSex = nil
			}
		}

		for _, tissue := range opts.Tissues {
			for _, biomarker := range opts.Biomarkers.Columns {
				if opts.Biomarkers.TissueOf[biomarker] != tissue {
					continue
				}
				snap.Outcomes = append(snap.Outcomes,
					processCombination(opts, snap.Results, sex, tissue, biomarker, obs, diseaseForSex))
			}
		}
	}

	snap.RuntimeSeconds = time.Since(start).Seconds()
	return snap, nil
}

// processCombination assembles one combination's inputs, invokes the
// fitter, and stores the result. Every failure path is contained here:
// nothing from one combination reaches the next.
func processCombination(opts Options, results Results, sex, tissue, biomarker string, obs, diseaseForSex *dataset.Table) Outcome {
	log.Printf("Processing %s for %s sex...", biomarker, sex)
	out := Outcome{Tissue: tissue, Sex: sex, Biomarker: biomarker, Status: StatusOK}

	if obs.Len() == 0 {
		log.Printf("No observations for %s sex; skipping %s", sex, biomarker)
		out.Status = StatusNoData
		return out
	}

	req := fit.Request{
		Observations: obs,
		AgeColumn:    opts.AgeColumn,
		ValueColumn:  biomarker,
		Sex:          sex,
		TissueType:   tissue,
		SaveDir:      opts.SaveDir,
	}

	if diseaseForSex != nil {
		subset, err := MatchDisease(diseaseForSex, opts.DiseaseTissueOf, biomarker, opts.AgeColumn)
		if err != nil {
			// Malformed disease subset: a data error, not a fitting
			// failure, but the recovery is the same.
			log.Printf("Error processing %s for %s sex: disease data: %v", biomarker, sex, err)
			out.Status = StatusFailed
			out.Reason = fmt.Sprintf("disease data: %v", err)
			return out
		}
		if subset != nil {
			log.Printf("Matched %d disease rows for %s", subset.Len(), biomarker)
			req.Disease = subset
			req.TissueColumn = TissueColumn
		}
	}

	res, err := opts.Fitter.Fit(req)
	if err == nil && res == nil {
		err = fmt.Errorf("fitter returned no result")
	}
	if err == nil {
		if verr := res.Centiles.Validate(); verr != nil {
			err = fmt.Errorf("fitter returned malformed result: %w", verr)
		}
	}
	if err != nil {
		log.Printf("Error processing %s for %s sex: %v", biomarker, sex, err)
		out.Status = StatusFailed
		out.Reason = err.Error()
		return out
	}

	results.Insert(tissue, sex, biomarker, Entry{
		ModelParameters: ModelParameters{
			Family:       res.Family,
			GAIC:         res.GAIC,
			Mu:           res.Mu,
			Sigma:        res.Sigma,
			Nu:           res.Nu,
			Tau:          res.Tau,
			Coefficients: res.Coefficients,
		},
		Centiles: res.Centiles,
	})

	if err := ExportCentilesCSV(opts.SaveDir, sex, biomarker, res.Centiles); err != nil {
		log.Printf("Warning: centile export for %s (%s): %v", biomarker, sex, err)
	}
	return out
}

func plotAgeDistribution(opts Options) error {
	ages := make(map[string][]float64, len(opts.SexLabels))
	for _, sex := range opts.SexLabels {
		sub := opts.Data.FilterEq(opts.SexColumn, sex)
		// One entry per row, NaN included, so the legend N matches the
		// sex's row count even when some ages did not parse.
		vals, err := sub.FloatColumn(opts.AgeColumn)
		if err != nil {
			return err
		}
		ages[sex] = vals
	}
	bins := opts.HistogramBins
	if bins <= 0 {
		bins = 30
	}
	return plot.AgeDistribution(ages, opts.SexLabels, bins, opts.Charts, filepath.Join(opts.SaveDir, AgeDistributionFile))
}
