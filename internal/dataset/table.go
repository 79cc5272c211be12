package dataset

import (
	"fmt"
	"math"
	"sort"
	"strconv"
	"strings"

	"github.com/montanaflynn/stats"
)

// Table is an in-memory tabular dataset: an ordered header plus string
// cells, the way spreadsheets deliver them. Numeric interpretation is
// deferred to the call site via Float/FloatColumn.
type Table struct {
	Columns []string
	Rows    [][]string
}

// New builds a Table, normalizing ragged rows to the header width.
func New(columns []string, rows [][]string) *Table {
	ncol := len(columns)
	norm := make([][]string, 0, len(rows))
	for _, row := range rows {
		if len(row) != ncol {
			tmp := make([]string, ncol)
			copy(tmp, row)
			row = tmp
		}
		norm = append(norm, row)
	}
	return &Table{Columns: columns, Rows: norm}
}

// ColumnIndex returns the position of the named column, or -1.
func (t *Table) ColumnIndex(name string) int {
	for i, c := range t.Columns {
		if c == name {
			return i
		}
	}
	return -1
}

// HasColumn reports whether the named column exists.
func (t *Table) HasColumn(name string) bool { return t.ColumnIndex(name) >= 0 }

// Len returns the number of rows.
func (t *Table) Len() int { return len(t.Rows) }

// Cell returns the trimmed cell value at (row, column name). Empty string
// when the column does not exist.
func (t *Table) Cell(row int, name string) string {
	idx := t.ColumnIndex(name)
	if idx < 0 || row < 0 || row >= len(t.Rows) {
		return ""
	}
	return strings.TrimSpace(t.Rows[row][idx])
}

// IsMissing reports whether a cell value counts as missing data.
func IsMissing(v string) bool {
	switch strings.ToLower(strings.TrimSpace(v)) {
	case "", "na", "n/a", "nan", "null":
		return true
	}
	return false
}

// Float parses the cell at (row, name); NaN when missing or unparseable.
func (t *Table) Float(row int, name string) float64 {
	v := t.Cell(row, name)
	if IsMissing(v) {
		return math.NaN()
	}
	x, err := strconv.ParseFloat(v, 64)
	if err != nil {
		return math.NaN()
	}
	return x
}

// FloatColumn parses a whole column; missing cells come back as NaN so
// positions stay aligned with Rows.
func (t *Table) FloatColumn(name string) ([]float64, error) {
	if !t.HasColumn(name) {
		return nil, fmt.Errorf("no column named %q", name)
	}
	out := make([]float64, len(t.Rows))
	for i := range t.Rows {
		out[i] = t.Float(i, name)
	}
	return out, nil
}

// Filter returns a new Table containing the rows the predicate keeps.
// Row slices are shared, not copied.
func (t *Table) Filter(keep func(row int) bool) *Table {
	out := &Table{Columns: t.Columns}
	for i := range t.Rows {
		if keep(i) {
			out.Rows = append(out.Rows, t.Rows[i])
		}
	}
	return out
}

// FilterEq keeps rows whose cell in the named column equals value.
func (t *Table) FilterEq(name, value string) *Table {
	return t.Filter(func(i int) bool { return t.Cell(i, name) == value })
}

// FilterIn keeps rows whose cell in the named column is one of values.
func (t *Table) FilterIn(name string, values []string) *Table {
	set := make(map[string]struct{}, len(values))
	for _, v := range values {
		set[v] = struct{}{}
	}
	return t.Filter(func(i int) bool {
		_, ok := set[t.Cell(i, name)]
		return ok
	})
}

// DropMissing removes rows that have a missing value in any of the given
// columns. Applying it twice yields the same row set.
func (t *Table) DropMissing(cols []string) *Table {
	idxs := make([]int, 0, len(cols))
	for _, c := range cols {
		if i := t.ColumnIndex(c); i >= 0 {
			idxs = append(idxs, i)
		}
	}
	return t.Filter(func(i int) bool {
		for _, j := range idxs {
			if IsMissing(t.Rows[i][j]) {
				return false
			}
		}
		return true
	})
}

// UniqueValues returns the distinct non-missing values of a column in
// first-appearance order. Map iteration order would randomize the
// combination loop, so order is preserved explicitly.
func (t *Table) UniqueValues(name string) []string {
	seen := make(map[string]struct{})
	var out []string
	for i := range t.Rows {
		v := t.Cell(i, name)
		if IsMissing(v) {
			continue
		}
		if _, ok := seen[v]; ok {
			continue
		}
		seen[v] = struct{}{}
		out = append(out, v)
	}
	return out
}

// ValueCounts returns per-value row counts for a column.
func (t *Table) ValueCounts(name string) map[string]int {
	out := make(map[string]int)
	for i := range t.Rows {
		v := t.Cell(i, name)
		if IsMissing(v) {
			continue
		}
		out[v]++
	}
	return out
}

// ColumnSummary holds numeric summary statistics for one column.
type ColumnSummary struct {
	Name  string
	Count int
	Min   float64
	Max   float64
	Mean  float64
	Std   float64
}

// Summarize computes numeric summaries for the given columns, skipping
// missing cells. Columns with no numeric data are omitted.
func (t *Table) Summarize(cols []string) []ColumnSummary {
	var out []ColumnSummary
	for _, name := range cols {
		vals, err := t.FloatColumn(name)
		if err != nil {
			continue
		}
		finite := vals[:0:0]
		for _, v := range vals {
			if !math.IsNaN(v) {
				finite = append(finite, v)
			}
		}
		if len(finite) == 0 {
			continue
		}
		mn, _ := stats.Min(finite)
		mx, _ := stats.Max(finite)
		mean, _ := stats.Mean(finite)
		sd, _ := stats.StandardDeviationSample(finite)
		if math.IsNaN(sd) {
			sd = 0
		}
		out = append(out, ColumnSummary{Name: name, Count: len(finite), Min: mn, Max: mx, Mean: mean, Std: sd})
	}
	return out
}

// DetectSexColumn finds the first column whose name contains "sex" or
// "gender", case-insensitively.
func (t *Table) DetectSexColumn() (string, error) {
	for _, c := range t.Columns {
		lc := strings.ToLower(c)
		if strings.Contains(lc, "sex") || strings.Contains(lc, "gender") {
			return c, nil
		}
	}
	return "", fmt.Errorf("no column found for sex/gender - check column names")
}

// BiomarkerSet is the resolved set of biomarker columns for a run.
type BiomarkerSet struct {
	// Columns are the {tissue}_{type} column names present in the data,
	// in tissue-major order.
	Columns []string
	// TissueOf maps each resolved column to its tissue type.
	TissueOf map[string]string
	// Missing are the generated names absent from the data.
	Missing []string
}

// ResolveBiomarkers combines tissue types and biomarker types into
// {tissue}_{type} column names and partitions them into found/missing
// against the table header.
func (t *Table) ResolveBiomarkers(tissues, types []string) (*BiomarkerSet, error) {
	set := &BiomarkerSet{TissueOf: make(map[string]string)}
	for _, tissue := range tissues {
		for _, bt := range types {
			name := tissue + "_" + bt
			if t.HasColumn(name) {
				set.Columns = append(set.Columns, name)
				set.TissueOf[name] = tissue
			} else {
				set.Missing = append(set.Missing, name)
			}
		}
	}
	if len(set.Columns) == 0 {
		sort.Strings(set.Missing)
		return nil, fmt.Errorf("none of the expected biomarker columns were found in the input data (missing: %s)",
			strings.Join(set.Missing, ", "))
	}
	return set, nil
}

// BiomarkerType returns the type suffix of a {tissue}_{type} biomarker
// column name (the part after the last underscore).
func BiomarkerType(column string) string {
	if i := strings.LastIndex(column, "_"); i >= 0 {
		return column[i+1:]
	}
	return column
}

// BiomarkerTissue returns the tissue prefix of a {tissue}_{type} name
// (the part before the first underscore).
func BiomarkerTissue(column string) string {
	if i := strings.Index(column, "_"); i >= 0 {
		return column[:i]
	}
	return column
}
