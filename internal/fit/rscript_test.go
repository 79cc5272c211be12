package fit

import (
	"os"
	"path/filepath"
	"runtime"
	"testing"

	"github.com/KarissaChan1/gamlss-curve-optimization/internal/dataset"
)

func TestRScriptAvailableFailsWithoutRuntime(t *testing.T) {
	rs := NewRScript("fitter.R", false)
	rs.Command = "definitely-not-a-real-binary"
	if err := rs.Available(); err == nil {
		t.Errorf("expected error when runtime binary is missing")
	}
}

func TestRScriptAvailableRequiresScript(t *testing.T) {
	rs := NewRScript("", false)
	rs.Command = "true" // always succeeds, so the script check is reached
	if runtime.GOOS == "windows" {
		t.Skip("needs a POSIX no-op binary")
	}
	if err := rs.Available(); err == nil {
		t.Errorf("expected error when no script is configured")
	}
}

// TestRScriptParsesResult runs the bridge against a stand-in script so
// the contract (CSV in, JSON out) is exercised without R installed.
func TestRScriptParsesResult(t *testing.T) {
	if runtime.GOOS == "windows" {
		t.Skip("uses /bin/sh")
	}
	dir := t.TempDir()
	script := filepath.Join(dir, "fake_fitter.sh")
	payload := `{"model_type":"BCCG","gaic":120.5,"mu":1.2,"sigma":0.3,"nu":-0.1,"tau":null,` +
		`"coefficients":{"(Intercept)":0.4,"age":0.01},` +
		`"centiles":{"ages":[10,20],"percentiles":[3,15,50,85,97],` +
		`"values":[[1,1],[2,2],[3,3],[4,4],[5,5]]}}`
	if err := os.WriteFile(script, []byte("#!/bin/sh\necho '"+payload+"'\n"), 0o755); err != nil {
		t.Fatal(err)
	}

	rs := NewRScript(script, true)
	rs.Command = "/bin/sh"
	res, err := rs.Fit(Request{
		Observations: dataset.New([]string{"AGE", "WM_FA"}, [][]string{{"10", "0.5"}}),
		AgeColumn:    "AGE",
		ValueColumn:  "WM_FA",
		Sex:          "F",
		SaveDir:      dir,
	})
	if err != nil {
		t.Fatalf("Fit: %v", err)
	}
	if res.Family != "BCCG" {
		t.Errorf("Family = %q", res.Family)
	}
	if res.Nu == nil || *res.Nu != -0.1 {
		t.Errorf("Nu = %v, want -0.1", res.Nu)
	}
	if res.Tau != nil {
		t.Errorf("Tau = %v, want nil", res.Tau)
	}
	if len(res.Centiles.Values) != 5 {
		t.Errorf("centile curves = %d", len(res.Centiles.Values))
	}
}

func TestRScriptReportsScriptFailure(t *testing.T) {
	if runtime.GOOS == "windows" {
		t.Skip("uses /bin/sh")
	}
	dir := t.TempDir()
	script := filepath.Join(dir, "broken.sh")
	if err := os.WriteFile(script, []byte("#!/bin/sh\necho 'model did not converge' >&2\nexit 1\n"), 0o755); err != nil {
		t.Fatal(err)
	}

	rs := NewRScript(script, false)
	rs.Command = "/bin/sh"
	_, err := rs.Fit(Request{
		Observations: dataset.New([]string{"AGE", "WM_FA"}, [][]string{{"10", "0.5"}}),
		AgeColumn:    "AGE",
		ValueColumn:  "WM_FA",
		Sex:          "F",
		SaveDir:      dir,
	})
	if err == nil {
		t.Fatalf("expected error from failing script")
	}
}
