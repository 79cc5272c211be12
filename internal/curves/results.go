package curves

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/gocarina/gocsv"

	"github.com/KarissaChan1/gamlss-curve-optimization/internal/fit"
	"github.com/KarissaChan1/gamlss-curve-optimization/internal/utils"
)

// SnapshotFile is the fixed name of the persisted results artifact; it
// is the sole contract between the compute and report stages.
const SnapshotFile = "results.json"

// ModelParameters are the fitted-model descriptors stored per
// combination. Distribution parameters unused by the model family stay
// nil and render as N/A.
type ModelParameters struct {
	Family       string             `json:"model_type"`
	GAIC         *float64           `json:"gaic"`
	Mu           *float64           `json:"mu"`
	Sigma        *float64           `json:"sigma"`
	Nu           *float64           `json:"nu"`
	Tau          *float64           `json:"tau"`
	Coefficients map[string]float64 `json:"coefficients"`
}

// Entry is the aggregated result leaf for one successful combination.
type Entry struct {
	ModelParameters ModelParameters `json:"model_parameters"`
	Centiles        fit.Centiles    `json:"centiles"`
}

// Results maps tissue → sex → biomarker → Entry. A key exists only for
// combinations that succeeded; absence distinguishes failed or
// unattempted combinations from empty ones.
type Results map[string]map[string]map[string]Entry

// Insert stores an entry, creating intermediate maps on first use.
func (r Results) Insert(tissue, sex, biomarker string, e Entry) {
	if r[tissue] == nil {
		r[tissue] = make(map[string]map[string]Entry)
	}
	if r[tissue][sex] == nil {
		r[tissue][sex] = make(map[string]Entry)
	}
	r[tissue][sex][biomarker] = e
}

// Lookup fetches an entry if the combination succeeded.
func (r Results) Lookup(tissue, sex, biomarker string) (Entry, bool) {
	e, ok := r[tissue][sex][biomarker]
	return e, ok
}

// Combination outcome statuses.
const (
	StatusOK     = "ok"
	StatusFailed = "failed"
	StatusNoData = "no_data"
)

// Outcome records how one combination ended. Failures and skips never
// abort the run; this list keeps them distinguishable afterwards.
type Outcome struct {
	Tissue    string `json:"tissue"`
	Sex       string `json:"sex"`
	Biomarker string `json:"biomarker"`
	Status    string `json:"status"`
	Reason    string `json:"reason,omitempty"`
}

// Snapshot is the durable artifact of one compute run.
type Snapshot struct {
	RunID          string    `json:"run_id"`
	CreatedAt      time.Time `json:"created_at"`
	InputFile      string    `json:"input_file"`
	DiseaseFile    string    `json:"disease_file,omitempty"`
	RuntimeSeconds float64   `json:"runtime_seconds"`
	Results        Results   `json:"results"`
	Outcomes       []Outcome `json:"outcomes,omitempty"`
}

// Save writes the snapshot to dir atomically under the fixed filename.
func (s *Snapshot) Save(dir string) error {
	b, err := utils.PrettyJSON(s)
	if err != nil {
		return err
	}
	if err := utils.SafeWriteFile(filepath.Join(dir, SnapshotFile), b); err != nil {
		return fmt.Errorf("save results: %w", err)
	}
	return nil
}

// LoadSnapshot reads a previously saved snapshot from dir.
func LoadSnapshot(dir string) (*Snapshot, error) {
	b, err := os.ReadFile(filepath.Join(dir, SnapshotFile))
	if err != nil {
		return nil, fmt.Errorf("load results: %w", err)
	}
	var s Snapshot
	if err := json.Unmarshal(b, &s); err != nil {
		return nil, fmt.Errorf("parse results: %w", err)
	}
	return &s, nil
}

// centileRow is the CSV export schema for the fixed five percentiles.
type centileRow struct {
	Age float64 `csv:"age"`
	P3  float64 `csv:"p3"`
	P15 float64 `csv:"p15"`
	P50 float64 `csv:"p50"`
	P85 float64 `csv:"p85"`
	P97 float64 `csv:"p97"`
}

// ExportCentilesCSV writes one combination's centile table next to the
// plots, for downstream use outside the report.
func ExportCentilesCSV(dir, sex, biomarker string, c fit.Centiles) error {
	if len(c.Values) != 5 {
		return fmt.Errorf("expected 5 percentile curves, have %d", len(c.Values))
	}
	if err := c.Validate(); err != nil {
		return err
	}
	rows := make([]*centileRow, len(c.Ages))
	for j, age := range c.Ages {
		rows[j] = &centileRow{
			Age: age,
			P3:  c.Values[0][j],
			P15: c.Values[1][j],
			P50: c.Values[2][j],
			P85: c.Values[3][j],
			P97: c.Values[4][j],
		}
	}
	path := filepath.Join(dir, fmt.Sprintf("centiles_%s_%s.csv", sex, biomarker))
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("create %s: %w", path, err)
	}
	defer f.Close()
	if err := gocsv.MarshalFile(&rows, f); err != nil {
		return fmt.Errorf("write centiles csv: %w", err)
	}
	return nil
}
