package cmd

import (
	"fmt"
	"log"
	"strings"
	"time"

	"github.com/spf13/cobra"

	cfgpkg "github.com/KarissaChan1/gamlss-curve-optimization/internal/config"
	"github.com/KarissaChan1/gamlss-curve-optimization/internal/curves"
	"github.com/KarissaChan1/gamlss-curve-optimization/internal/dataset"
	"github.com/KarissaChan1/gamlss-curve-optimization/internal/fit"
	"github.com/KarissaChan1/gamlss-curve-optimization/internal/plot"
	"github.com/KarissaChan1/gamlss-curve-optimization/internal/report"
	"github.com/KarissaChan1/gamlss-curve-optimization/internal/utils"
)

// cohortColumn is the fixed column name the --group filter applies to.
const cohortColumn = "Cohort"

var (
	runInput        string
	runAgeCol       string
	runTissues      []string
	runBiomarkers   []string
	runDisease      string
	runGroups       []string
	runSmoothing    bool
	runOut          string
	runFitter       string
	runFitterScript string
)

var runCmd = &cobra.Command{
	Use:   "run",
	Short: "Fit age curves for every sex x tissue x biomarker combination and render the report",
	RunE: func(cmd *cobra.Command, args []string) error {
		start := time.Now()
		if cfg == nil {
			cfg = &cfgpkg.Global{}
		}

		if err := utils.EnsureDir(runOut); err != nil {
			return fmt.Errorf("create save directory: %w", err)
		}

		data, err := dataset.Load(runInput)
		if err != nil {
			return err
		}

		if len(runGroups) > 0 {
			if !data.HasColumn(cohortColumn) {
				return fmt.Errorf("no column named %q", cohortColumn)
			}
			data = data.FilterIn(cohortColumn, runGroups)
			log.Printf("Filtered to cohort group(s) %s: %d rows", strings.Join(runGroups, ", "), data.Len())
		}

		sexCol, err := data.DetectSexColumn()
		if err != nil {
			return err
		}
		if !data.HasColumn(runAgeCol) {
			return fmt.Errorf("no column named %q", runAgeCol)
		}

		set, err := data.ResolveBiomarkers(runTissues, runBiomarkers)
		if err != nil {
			return err
		}
		if len(set.Missing) > 0 {
			log.Printf("Warning: the following expected columns were not found: %s", strings.Join(set.Missing, ", "))
		}

		data = data.DropMissing(append([]string{sexCol}, set.Columns...))
		if data.Len() == 0 {
			return fmt.Errorf("no rows left after removing missing sex/biomarker values")
		}
		sexLabels := data.UniqueValues(sexCol)

		if debug {
			for _, cs := range data.Summarize(append([]string{runAgeCol}, set.Columns...)) {
				log.Printf("%s: n=%d min=%.3f max=%.3f mean=%.3f std=%.3f",
					cs.Name, cs.Count, cs.Min, cs.Max, cs.Mean, cs.Std)
			}
		}

		var disease *dataset.Table
		var diseaseTissueOf map[string]string
		if runDisease != "" {
			disease, diseaseTissueOf, err = loadDiseaseData(runDisease, runBiomarkers)
			if err != nil {
				return err
			}
		}

		fitter, err := buildFitter()
		if err != nil {
			return err
		}

		charts := plot.Config{Width: cfg.ChartWidth, Height: cfg.ChartHeight}
		snap, err := curves.Compute(curves.Options{
			Data:            data,
			AgeColumn:       runAgeCol,
			SexColumn:       sexCol,
			SexLabels:       sexLabels,
			Tissues:         runTissues,
			Biomarkers:      set,
			Disease:         disease,
			DiseaseTissueOf: diseaseTissueOf,
			SaveDir:         runOut,
			Fitter:          fitter,
			HistogramBins:   cfg.HistogramBins,
			Charts:          charts,
			InputFile:       runInput,
			DiseaseFile:     runDisease,
		})
		if err != nil {
			return err
		}
		snap.RuntimeSeconds = time.Since(start).Seconds()

		if err := snap.Save(runOut); err != nil {
			return err
		}
		log.Printf("Results saved to %s", runOut)

		if err := report.Compose(runOut, snap); err != nil {
			return err
		}
		log.Printf("Report written to %s/%s", runOut, report.ReportFile)
		return nil
	},
}

// loadDiseaseData reads the disease spreadsheet and maps its biomarker
// columns to tissue types. Zero matching columns is a setup error.
func loadDiseaseData(path string, biomarkerTypes []string) (*dataset.Table, map[string]string, error) {
	disease, err := dataset.Load(path)
	if err != nil {
		return nil, nil, fmt.Errorf("disease data: %w", err)
	}

	var matched []string
	for _, bt := range biomarkerTypes {
		var cols []string
		for _, col := range disease.Columns {
			if strings.HasSuffix(col, "_"+bt) {
				cols = append(cols, col)
			}
		}
		if len(cols) == 0 {
			log.Printf("Warning: no columns found in disease data ending with '_%s'", bt)
		}
		matched = append(matched, cols...)
	}
	if len(matched) == 0 {
		return nil, nil, fmt.Errorf("no matching biomarker columns found in disease data")
	}

	tissueOf := make(map[string]string, len(matched))
	for _, col := range matched {
		tissueOf[col] = dataset.BiomarkerTissue(col)
	}
	return disease, tissueOf, nil
}

// buildFitter resolves the fitting backend from flags and config.
func buildFitter() (fit.Fitter, error) {
	name := runFitter
	if name == "" {
		name = cfg.Fitter
	}
	switch name {
	case "", "builtin":
		b := fit.NewBuiltin(runSmoothing)
		if cfg.MaxPolyDegree > 0 {
			b.MaxDegree = cfg.MaxPolyDegree
		}
		if cfg.ChartWidth > 0 && cfg.ChartHeight > 0 {
			b.Charts = plot.Config{Width: cfg.ChartWidth, Height: cfg.ChartHeight}
		}
		return b, nil
	case "rscript":
		script := runFitterScript
		if script == "" {
			script = cfg.FitterScript
		}
		rs := fit.NewRScript(script, runSmoothing)
		if cfg.RscriptCommand != "" {
			rs.Command = cfg.RscriptCommand
		}
		if err := rs.Available(); err != nil {
			return nil, err
		}
		return rs, nil
	}
	return nil, fmt.Errorf("unknown fitter %q (use 'builtin' or 'rscript')", name)
}

func init() {
	runCmd.Flags().StringVarP(&runInput, "input", "i", "", "input spreadsheet path (.csv, .xlsx, .xls)")
	runCmd.Flags().StringVarP(&runAgeCol, "age-col", "a", "", "age column name")
	runCmd.Flags().StringSliceVarP(&runTissues, "tissues", "t", []string{"GM", "WM"}, "tissue types to analyze")
	runCmd.Flags().StringSliceVarP(&runBiomarkers, "biomarkers", "b", nil, "biomarker types to analyze (combined with tissue types)")
	runCmd.Flags().StringVarP(&runDisease, "disease", "d", "", "disease patient spreadsheet path")
	runCmd.Flags().StringSliceVarP(&runGroups, "group", "g", nil, "diagnostic group labels to keep, matched against the Cohort column")
	runCmd.Flags().BoolVar(&runSmoothing, "smoothing", false, "use default smoothing parameters instead of model selection")
	runCmd.Flags().StringVarP(&runOut, "out", "o", "", "save directory")
	runCmd.Flags().StringVar(&runFitter, "fitter", "", "fitting backend: builtin or rscript (overrides config)")
	runCmd.Flags().StringVar(&runFitterScript, "fitter-script", "", "external fitting script path (rscript backend)")
	_ = runCmd.MarkFlagRequired("input")
	_ = runCmd.MarkFlagRequired("age-col")
	_ = runCmd.MarkFlagRequired("biomarkers")
	_ = runCmd.MarkFlagRequired("out")
	rootCmd.AddCommand(runCmd)
}
