package curves

import (
	"testing"

	"github.com/KarissaChan1/gamlss-curve-optimization/internal/dataset"
)

func diseaseFixture() (*dataset.Table, map[string]string) {
	tbl := dataset.New(
		[]string{"AGE", "Sex", "GM_FA", "WM_FA"},
		[][]string{
			{"40", "F", "0.35", "0.45"},
			{"52", "F", "0.33", ""},
			{"61", "F", "", "0.41"},
		},
	)
	tissueOf := map[string]string{"GM_FA": "GM", "WM_FA": "WM"}
	return tbl, tissueOf
}

func TestMatchDiseaseSelectsOnlyMatchingTissue(t *testing.T) {
	disease, tissueOf := diseaseFixture()

	subset, err := MatchDisease(disease, tissueOf, "WM_FA", "AGE")
	if err != nil {
		t.Fatalf("MatchDisease: %v", err)
	}
	if subset == nil {
		t.Fatal("expected a subset")
	}
	// Rows with a missing WM_FA value are dropped; GM_FA never matches
	// the WM_FA key even though the type suffix is shared.
	if subset.Len() != 2 {
		t.Fatalf("rows = %d, want 2", subset.Len())
	}
	for i := 0; i < subset.Len(); i++ {
		if got := subset.Cell(i, TissueColumn); got != "WM" {
			t.Errorf("row %d tissue = %q, want WM", i, got)
		}
	}
	// The matched value is renamed to the observation biomarker name.
	if !subset.HasColumn("WM_FA") || subset.HasColumn("GM_FA") {
		t.Errorf("columns = %v", subset.Columns)
	}
	if subset.Cell(0, "WM_FA") != "0.45" || subset.Cell(1, "WM_FA") != "0.41" {
		t.Errorf("values = %q, %q", subset.Cell(0, "WM_FA"), subset.Cell(1, "WM_FA"))
	}
}

func TestMatchDiseaseNoMatchIsNotAnError(t *testing.T) {
	disease, tissueOf := diseaseFixture()

	subset, err := MatchDisease(disease, tissueOf, "WM_MD", "AGE")
	if err != nil {
		t.Fatalf("MatchDisease: %v", err)
	}
	if subset != nil {
		t.Errorf("expected no subset for unmatched biomarker, got %d rows", subset.Len())
	}
}

func TestMatchDiseaseAllRowsMissingIsNotAnError(t *testing.T) {
	disease := dataset.New(
		[]string{"AGE", "WM_FA"},
		[][]string{{"40", "NA"}, {"", "0.5"}},
	)
	subset, err := MatchDisease(disease, map[string]string{"WM_FA": "WM"}, "WM_FA", "AGE")
	if err != nil {
		t.Fatalf("MatchDisease: %v", err)
	}
	if subset != nil {
		t.Errorf("expected nil subset when every row has missing values")
	}
}

func TestMatchDiseaseMissingAgeColumn(t *testing.T) {
	disease := dataset.New([]string{"WM_FA"}, [][]string{{"0.5"}})
	_, err := MatchDisease(disease, map[string]string{"WM_FA": "WM"}, "WM_FA", "AGE")
	if err == nil {
		t.Errorf("expected error when disease data lacks the age column")
	}
}

func TestMatchDiseaseNilInput(t *testing.T) {
	subset, err := MatchDisease(nil, nil, "WM_FA", "AGE")
	if err != nil || subset != nil {
		t.Errorf("nil disease data should match nothing: %v, %v", subset, err)
	}
}
