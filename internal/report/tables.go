package report

import (
	"fmt"
	"sort"

	"github.com/KarissaChan1/gamlss-curve-optimization/internal/curves"
)

// naCell marks values absent for a sex or unused by a model family.
const naCell = "N/A"

// SexLabels returns the union of sex labels across the whole result
// structure, sorted for deterministic table columns.
func SexLabels(r curves.Results) []string {
	set := make(map[string]struct{})
	for _, byTissue := range r {
		for sex := range byTissue {
			set[sex] = struct{}{}
		}
	}
	out := make([]string, 0, len(set))
	for s := range set {
		out = append(out, s)
	}
	sort.Strings(out)
	return out
}

// Tissues returns the result's tissue keys, sorted.
func Tissues(r curves.Results) []string {
	out := make([]string, 0, len(r))
	for t := range r {
		out = append(out, t)
	}
	sort.Strings(out)
	return out
}

// Biomarkers returns the union of biomarker keys across all sexes of one
// tissue, sorted. A biomarker present for any sex appears once.
func Biomarkers(r curves.Results, tissue string) []string {
	set := make(map[string]struct{})
	for _, byBiomarker := range r[tissue] {
		for b := range byBiomarker {
			set[b] = struct{}{}
		}
	}
	out := make([]string, 0, len(set))
	for b := range set {
		out = append(out, b)
	}
	sort.Strings(out)
	return out
}

// ParameterTable assembles the model-parameter table for one (tissue,
// biomarker) across the given sex columns. Sexes with no result for this
// biomarker keep their column, filled with N/A, so the table shape is
// stable across biomarkers. Row order: header, model family, GAIC,
// coefficients sorted by name, then mu/sigma/nu/tau.
func ParameterTable(r curves.Results, tissue, biomarker string, sexes []string) [][]string {
	params := make([]*curves.ModelParameters, len(sexes))
	for i, sex := range sexes {
		if e, ok := r.Lookup(tissue, sex, biomarker); ok {
			p := e.ModelParameters
			params[i] = &p
		}
	}

	header := make([]string, 0, len(sexes)+1)
	header = append(header, "Parameter")
	for _, sex := range sexes {
		header = append(header, fmt.Sprintf("Value (%s)", sex))
	}
	rows := [][]string{header}

	familyRow := []string{"Best model family"}
	gaicRow := []string{"GAIC"}
	for _, p := range params {
		if p == nil {
			familyRow = append(familyRow, naCell)
			gaicRow = append(gaicRow, naCell)
			continue
		}
		familyRow = append(familyRow, p.Family)
		if p.GAIC == nil {
			gaicRow = append(gaicRow, naCell)
		} else {
			gaicRow = append(gaicRow, fmt.Sprintf("%.2f", *p.GAIC))
		}
	}
	rows = append(rows, familyRow, gaicRow)

	nameSet := make(map[string]struct{})
	for _, p := range params {
		if p == nil {
			continue
		}
		for name := range p.Coefficients {
			nameSet[name] = struct{}{}
		}
	}
	names := make([]string, 0, len(nameSet))
	for name := range nameSet {
		names = append(names, name)
	}
	sort.Strings(names)
	for _, name := range names {
		row := []string{name}
		for _, p := range params {
			if p == nil {
				row = append(row, naCell)
				continue
			}
			if v, ok := p.Coefficients[name]; ok {
				row = append(row, fmt.Sprintf("%.6f", v))
			} else {
				row = append(row, naCell)
			}
		}
		rows = append(rows, row)
	}

	type distParam struct {
		name string
		get  func(*curves.ModelParameters) *float64
	}
	for _, dp := range []distParam{
		{"mu", func(p *curves.ModelParameters) *float64 { return p.Mu }},
		{"sigma", func(p *curves.ModelParameters) *float64 { return p.Sigma }},
		{"nu", func(p *curves.ModelParameters) *float64 { return p.Nu }},
		{"tau", func(p *curves.ModelParameters) *float64 { return p.Tau }},
	} {
		row := []string{dp.name}
		for _, p := range params {
			if p == nil || dp.get(p) == nil {
				row = append(row, naCell)
			} else {
				row = append(row, fmt.Sprintf("%.4f", *dp.get(p)))
			}
		}
		rows = append(rows, row)
	}
	return rows
}
