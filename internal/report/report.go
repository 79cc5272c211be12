// Package report renders the final PDF from an aggregated-results
// snapshot and the image artifacts the compute stage left in the save
// directory. Missing images and absent parameters degrade to visible
// placeholders, never to errors.
package report

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/go-pdf/fpdf"

	"github.com/KarissaChan1/gamlss-curve-optimization/internal/curves"
	"github.com/KarissaChan1/gamlss-curve-optimization/internal/fit"
)

// ReportFile is the fixed output filename inside the save directory.
const ReportFile = "growth_curves_output_report.pdf"

const (
	pageMargin = 15.0
	figWidth   = 80.0
	figHeight  = 56.0
	figGap     = 8.0
)

type composer struct {
	pdf     *fpdf.Fpdf
	saveDir string
	snap    *curves.Snapshot
}

// Compose renders the PDF report for a snapshot into saveDir.
func Compose(saveDir string, snap *curves.Snapshot) error {
	pdf := fpdf.New("P", "mm", "Letter", "")
	pdf.SetMargins(pageMargin, pageMargin, pageMargin)
	pdf.SetAutoPageBreak(true, pageMargin)
	c := &composer{pdf: pdf, saveDir: saveDir, snap: snap}

	c.titlePage()
	c.modellingResults()

	if err := pdf.OutputFileAndClose(filepath.Join(saveDir, ReportFile)); err != nil {
		return fmt.Errorf("write report: %w", err)
	}
	return nil
}

func (c *composer) titlePage() {
	pdf := c.pdf
	pdf.AddPage()
	pdf.SetFont("Helvetica", "B", 18)
	pdf.CellFormat(0, 12, "GAMLSS Age Curves Report", "", 1, "C", false, 0, "")
	pdf.Ln(4)

	pdf.SetFont("Helvetica", "", 11)
	c.paragraph(fmt.Sprintf("This is the output report for fitted GAMLSS models ran on: %s",
		time.Now().Format("2006-01-02 15:04:05")))
	c.paragraph(fmt.Sprintf("Dataset filename: %s", filepath.Base(c.snap.InputFile)))
	if c.snap.DiseaseFile != "" {
		c.paragraph(fmt.Sprintf("Disease data filename: %s", filepath.Base(c.snap.DiseaseFile)))
	}
	c.paragraph(fmt.Sprintf("Run time: %s", formatRunTime(c.snap.RuntimeSeconds)))
	pdf.Ln(4)

	c.paragraph("This analysis uses Generalized Additive Models for Location, Scale and Shape (GAMLSS) " +
		"to construct normative age curves for the selected biomarkers. The data is stratified by sex and " +
		"tissue type, and models are optimized to characterize the relationship between age and each " +
		"biomarker, accounting for changes in both the mean trend and the spread of values across age. " +
		"Centile curves (3rd, 15th, 50th, 85th, and 97th percentiles) show the expected distribution of " +
		"values at each age.")
	pdf.Ln(6)

	agePath := filepath.Join(c.saveDir, curves.AgeDistributionFile)
	if fileExists(agePath) {
		c.centeredImage(agePath, 150, 100)
		c.caption("Age distribution between sexes in the dataset analyzed for age curves.")
	} else {
		c.placeholder("Age distribution plot not available")
	}
}

func (c *composer) modellingResults() {
	pdf := c.pdf
	pdf.AddPage()
	pdf.SetFont("Helvetica", "B", 14)
	pdf.CellFormat(0, 10, "Modelling Results", "", 1, "L", false, 0, "")

	results := c.snap.Results
	sexes := SexLabels(results)

	for _, tissue := range Tissues(results) {
		pdf.SetFont("Helvetica", "B", 12)
		pdf.CellFormat(0, 9, fmt.Sprintf("Age Curves for Tissue Type: %s", tissue), "", 1, "L", false, 0, "")
		pdf.Ln(2)

		for _, biomarker := range Biomarkers(results, tissue) {
			pdf.SetFont("Helvetica", "B", 11)
			pdf.CellFormat(0, 8, fmt.Sprintf("Biomarker: %s", biomarker), "", 1, "L", false, 0, "")

			c.caption(fmt.Sprintf("%s Optimized Model Parameters by Sex", biomarker))
			c.table(ParameterTable(results, tissue, biomarker, sexes))
			pdf.Ln(4)

			c.figureRow(sexes, func(sex string) string {
				if c.snap.DiseaseFile != "" {
					p := filepath.Join(c.saveDir, fit.CentilePlotName(sex, biomarker, true))
					if fileExists(p) {
						return p
					}
				}
				return filepath.Join(c.saveDir, fit.CentilePlotName(sex, biomarker, false))
			}, "No growth curve available for %s")
			c.caption(figureCaption(biomarker, tissue, c.snap.DiseaseFile != ""))

			// One biomarker per page spread: residuals start the next page.
			pdf.AddPage()

			c.figureRow(sexes, func(sex string) string {
				return filepath.Join(c.saveDir, fit.ResidualPlotName(sex, biomarker))
			}, "No residuals plot available for %s")
			c.caption(fmt.Sprintf("Residuals of %s age curves by sex in %s", displayName(biomarker), tissue))
			pdf.Ln(4)
		}
	}
}

// table renders rows produced by ParameterTable as a bordered grid with
// a shaded header row.
func (c *composer) table(rows [][]string) {
	if len(rows) == 0 {
		return
	}
	pdf := c.pdf
	pageW, _ := pdf.GetPageSize()
	usable := pageW - 2*pageMargin
	first := 50.0
	rest := (usable - first) / float64(len(rows[0])-1)

	pdf.SetFont("Helvetica", "B", 9)
	pdf.SetFillColor(128, 128, 128)
	pdf.SetTextColor(255, 255, 255)
	for i, cell := range rows[0] {
		w := rest
		if i == 0 {
			w = first
		}
		pdf.CellFormat(w, 7, cell, "1", 0, "C", true, 0, "")
	}
	pdf.Ln(-1)

	pdf.SetFont("Helvetica", "", 9)
	pdf.SetTextColor(0, 0, 0)
	for _, row := range rows[1:] {
		for i, cell := range row {
			w := rest
			if i == 0 {
				w = first
			}
			pdf.CellFormat(w, 7, cell, "1", 0, "C", false, 0, "")
		}
		pdf.Ln(-1)
	}
}

// figureRow lays one image per sex side by side, substituting a text
// placeholder for any missing file.
func (c *composer) figureRow(sexes []string, pathFor func(sex string) string, placeholderFmt string) {
	pdf := c.pdf
	y := pdf.GetY()
	for i, sex := range sexes {
		x := pageMargin + float64(i)*(figWidth+figGap)
		path := pathFor(sex)
		if fileExists(path) {
			pdf.ImageOptions(path, x, y, figWidth, figHeight, false, fpdf.ImageOptions{}, 0, "")
			continue
		}
		pdf.SetXY(x, y+figHeight/2)
		pdf.SetFont("Helvetica", "I", 9)
		pdf.MultiCell(figWidth, 5, fmt.Sprintf(placeholderFmt, sex), "", "C", false)
	}
	pdf.SetY(y + figHeight + 3)
}

func (c *composer) paragraph(text string) {
	c.pdf.SetFont("Helvetica", "", 11)
	c.pdf.MultiCell(0, 6, text, "", "L", false)
}

func (c *composer) caption(text string) {
	c.pdf.SetFont("Helvetica", "I", 9)
	c.pdf.MultiCell(0, 5, text, "", "C", false)
	c.pdf.Ln(2)
}

func (c *composer) placeholder(text string) {
	c.pdf.SetFont("Helvetica", "I", 10)
	c.pdf.MultiCell(0, 6, text, "", "C", false)
	c.pdf.Ln(2)
}

func (c *composer) centeredImage(path string, w, h float64) {
	pageW, _ := c.pdf.GetPageSize()
	x := (pageW - w) / 2
	c.pdf.ImageOptions(path, x, c.pdf.GetY(), w, h, false, fpdf.ImageOptions{}, 0, "")
	c.pdf.SetY(c.pdf.GetY() + h + 3)
}

func figureCaption(biomarker, tissue string, disease bool) string {
	text := fmt.Sprintf("Normative %s age curves by sex in %s", displayName(biomarker), tissue)
	if disease {
		text += " (disease cohort overlaid)"
	}
	return text
}

// displayName strips the tissue prefix from a biomarker column name for
// captions, as in "WM_FA" -> "FA".
func displayName(biomarker string) string {
	if parts := strings.SplitN(biomarker, "_", 2); len(parts) == 2 {
		return parts[1]
	}
	return biomarker
}

func fileExists(path string) bool {
	info, err := os.Stat(path)
	return err == nil && !info.IsDir()
}

// formatRunTime renders seconds as "X h X min X s".
func formatRunTime(seconds float64) string {
	total := int(seconds)
	h := total / 3600
	m := total % 3600 / 60
	s := total % 60
	return fmt.Sprintf("%d h %d min %d s", h, m, s)
}
