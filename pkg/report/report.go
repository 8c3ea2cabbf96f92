// Package report defines the aggregate output of one sitescan run and its
// JSON persistence.
package report

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/entrhq/sitescan/pkg/analyzer"
)

// RunReport is the complete output for one process invocation. It is built
// incrementally during the run and serialized once at the end.
type RunReport struct {
	// Pages maps each visited URL to its analysis.
	Pages map[string]analyzer.AnalysisResult `json:"pages"`

	// SearchDetected is true iff the base page's analysis reported a
	// search form.
	SearchDetected bool `json:"search_detected"`

	// SearchDetails is the detected search form, or null.
	SearchDetails *analyzer.SearchForm `json:"search_details"`

	// SearchTestResults is the analysis of the search-results page, or
	// null when no search test ran (not detected, or input not found).
	SearchTestResults analyzer.AnalysisResult `json:"search_test_results"`
}

// New returns an empty report ready to be filled in.
func New() *RunReport {
	return &RunReport{
		Pages: make(map[string]analyzer.AnalysisResult),
	}
}

// Write serializes the report as pretty-printed JSON to path, fully
// replacing any previous file.
func (r *RunReport) Write(path string) error {
	data, err := json.MarshalIndent(r, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal report: %w", err)
	}
	data = append(data, '\n')

	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("failed to write report: %w", err)
	}
	return nil
}

// Read loads a previously written report.
func Read(path string) (*RunReport, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read report: %w", err)
	}

	var r RunReport
	if err := json.Unmarshal(data, &r); err != nil {
		return nil, fmt.Errorf("failed to parse report: %w", err)
	}
	return &r, nil
}
