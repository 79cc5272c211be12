package fit

import (
	"bytes"
	"encoding/json"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
)

// RScript bridges to an external GAMLSS fitting script run under
// Rscript. The observation and disease subsets are handed over as CSV
// files in a scratch directory and the script prints a JSON Result on
// stdout; plot artifacts are written by the script itself into the save
// directory using the shared filename conventions.
type RScript struct {
	// Command is the interpreter binary; defaults to "Rscript".
	Command string
	// Script is the fitting script path.
	Script string
	// Smoothing selects the default-smoothing script behavior instead
	// of model selection, passed through as a flag.
	Smoothing bool
}

// NewRScript returns an RScript fitter for the given script path.
func NewRScript(script string, smoothing bool) *RScript {
	return &RScript{Command: "Rscript", Script: script, Smoothing: smoothing}
}

func (r *RScript) command() string {
	if r.Command == "" {
		return "Rscript"
	}
	return r.Command
}

// Available verifies the external runtime can be invoked. It runs once
// before the combination loop; a missing runtime is a setup error.
func (r *RScript) Available() error {
	cmd := exec.Command(r.command(), "--version")
	cmd.Stdout = nil
	cmd.Stderr = nil
	if err := cmd.Run(); err != nil {
		return fmt.Errorf("external fitting runtime not available (%s): %w", r.command(), err)
	}
	if r.Script == "" {
		return fmt.Errorf("no fitting script configured")
	}
	if _, err := os.Stat(r.Script); err != nil {
		return fmt.Errorf("fitting script: %w", err)
	}
	return nil
}

func (r *RScript) Fit(req Request) (*Result, error) {
	scratch, err := os.MkdirTemp("", "growthcurves-fit-")
	if err != nil {
		return nil, fmt.Errorf("scratch dir: %w", err)
	}
	defer os.RemoveAll(scratch)

	obsPath := filepath.Join(scratch, "observations.csv")
	if err := req.Observations.WriteCSV(obsPath); err != nil {
		return nil, err
	}

	args := []string{
		r.Script,
		"--input", obsPath,
		"--age-col", req.AgeColumn,
		"--value-col", req.ValueColumn,
		"--sex", req.Sex,
		"--save-path", req.SaveDir,
	}
	if req.Disease != nil && req.Disease.Len() > 0 {
		disPath := filepath.Join(scratch, "disease.csv")
		if err := req.Disease.WriteCSV(disPath); err != nil {
			return nil, err
		}
		args = append(args,
			"--disease", disPath,
			"--tissue-col", req.TissueColumn,
			"--tissue-type", req.TissueType,
		)
	}
	if r.Smoothing {
		args = append(args, "--smoothing")
	}

	var stdout, stderr bytes.Buffer
	cmd := exec.Command(r.command(), args...)
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr
	if err := cmd.Run(); err != nil {
		msg := bytes.TrimSpace(stderr.Bytes())
		if len(msg) > 0 {
			return nil, fmt.Errorf("fitting script failed: %s: %w", msg, err)
		}
		return nil, fmt.Errorf("fitting script failed: %w", err)
	}

	var res Result
	if err := json.Unmarshal(stdout.Bytes(), &res); err != nil {
		return nil, fmt.Errorf("parse fitting result: %w", err)
	}
	if res.Family == "" {
		return nil, fmt.Errorf("fitting result missing model family")
	}
	return &res, nil
}
