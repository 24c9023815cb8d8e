package dto

import (
	"time"

	"github.com/dblab-dev/dblab/internal/domain/services"
)

// RuleOutcome is one rule's line in a validation report.
type RuleOutcome struct {
	Rule    string `json:"rule" yaml:"rule"`
	Message string `json:"message,omitempty" yaml:"message,omitempty"`
	Passed  bool   `json:"passed" yaml:"passed"`
}

// ValidationReport is the outcome of `dblab validate`.
type ValidationReport struct {
	GeneratedAt time.Time     `json:"generated_at" yaml:"generated_at"`
	Engine      string        `json:"engine" yaml:"engine"`
	Instance    string        `json:"instance,omitempty" yaml:"instance,omitempty"`
	Verb        string        `json:"verb" yaml:"verb"`
	ToolVersion string        `json:"dblab_version" yaml:"dblab_version"`
	RequestID   string        `json:"request_id,omitempty" yaml:"request_id,omitempty"`
	Results     []RuleOutcome `json:"results" yaml:"results"`
	Duration    time.Duration `json:"duration_ns" yaml:"duration_ns"`
}

// NewValidationReport builds a report from a ReportOnly resolution.
func NewValidationReport(resp *ResolveResponse, verb, toolVersion string) *ValidationReport {
	report := &ValidationReport{
		GeneratedAt: resp.Response.ProcessedAt,
		Engine:      resp.Config.Ref.Engine,
		Instance:    resp.Config.Ref.Instance,
		Verb:        verb,
		ToolVersion: toolVersion,
		RequestID:   resp.Response.RequestID,
		Duration:    resp.Response.Duration,
		Results:     make([]RuleOutcome, 0, len(resp.Results)),
	}
	for _, res := range resp.Results {
		report.Results = append(report.Results, outcome(res))
	}
	return report
}

func outcome(res services.RuleResult) RuleOutcome {
	return RuleOutcome{Rule: res.Rule, Message: res.Message, Passed: res.Passed}
}

// Failed counts the rules that did not pass.
func (r *ValidationReport) Failed() int {
	n := 0
	for _, res := range r.Results {
		if !res.Passed {
			n++
		}
	}
	return n
}

// Passed reports whether every rule passed.
func (r *ValidationReport) Passed() bool {
	return r.Failed() == 0
}
