package curves

import (
	"fmt"

	"github.com/KarissaChan1/gamlss-curve-optimization/internal/dataset"
)

// TissueColumn is the label column added to reshaped disease subsets.
const TissueColumn = "tissue_column"

// MatchDisease selects the disease-cohort columns applicable to one
// observation biomarker and reshapes them into the fitting schema.
//
// A disease column matches when its biomarker-type suffix equals the
// observation biomarker's type and its mapped tissue equals the
// biomarker's tissue prefix. Each match becomes a three-column subset
// (age, value renamed to the observation biomarker name, tissue label
// from tissueOf) with missing-value rows dropped; matches are
// concatenated in the disease table's column order.
//
// A nil return with nil error means no disease data applies to this
// combination; that is not a failure.
func MatchDisease(disease *dataset.Table, tissueOf map[string]string, biomarker, ageCol string) (*dataset.Table, error) {
	if disease == nil || disease.Len() == 0 {
		return nil, nil
	}
	if !disease.HasColumn(ageCol) {
		return nil, fmt.Errorf("disease data has no column %q", ageCol)
	}

	wantType := dataset.BiomarkerType(biomarker)
	wantTissue := dataset.BiomarkerTissue(biomarker)

	combined := dataset.New([]string{ageCol, biomarker, TissueColumn}, nil)
	for _, col := range disease.Columns {
		tissue, ok := tissueOf[col]
		if !ok {
			continue
		}
		if dataset.BiomarkerType(col) != wantType || tissue != wantTissue {
			continue
		}
		for i := 0; i < disease.Len(); i++ {
			age := disease.Cell(i, ageCol)
			val := disease.Cell(i, col)
			if dataset.IsMissing(age) || dataset.IsMissing(val) {
				continue
			}
			combined.Rows = append(combined.Rows, []string{age, val, tissue})
		}
	}
	if combined.Len() == 0 {
		return nil, nil
	}
	return combined, nil
}
