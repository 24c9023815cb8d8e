package output

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/owenrumney/go-sarif/v3/pkg/report/v210/sarif"

	"github.com/dblab-dev/dblab/internal/application/dto"
)

// maxArtifactSize bounds metadata files embedded in the report.
const maxArtifactSize = 512 * 1024

type sarifMapper struct {
	report       *dto.ValidationReport
	metadataPath string
	cwd          string
}

func newSARIFMapper(report *dto.ValidationReport, metadataPath string) *sarifMapper {
	cwd, _ := os.Getwd() // best effort
	return &sarifMapper{
		report:       report,
		metadataPath: metadataPath,
		cwd:          cwd,
	}
}

// mapToRun populates the SARIF run with rules, results, artifacts, and invocations.
func (m *sarifMapper) mapToRun(run *sarif.Run) {
	m.addRules(run)
	m.addResults(run)
	m.addArtifact(run)
	m.addInvocation(run)

	props := sarif.NewPropertyBag()
	props.Add("total", len(m.report.Results))
	props.Add("failed", m.report.Failed())
	run.WithProperties(props)
}

func (m *sarifMapper) addRules(run *sarif.Run) {
	for _, res := range m.report.Results {
		name := res.Rule
		rule := sarif.NewReportingDescriptor().WithID(res.Rule).WithName(res.Rule)
		rule.WithShortDescription(&sarif.MultiformatMessageString{Text: &name})
		rule.WithDefaultConfiguration(&sarif.ReportingConfiguration{Level: "error"})
		run.Tool.Driver.AddRule(rule)
	}
}

func (m *sarifMapper) addResults(run *sarif.Run) {
	for _, res := range m.report.Results {
		result := sarif.NewRuleResult(res.Rule)
		if res.Passed {
			result.Level = "note"
			result.Kind = "pass"
		} else {
			result.Level = "error"
			result.Kind = "fail"
		}
		result.Message = sarif.NewTextMessage(m.message(res))

		if loc := m.location(); loc != nil {
			result.Locations = []*sarif.Location{loc}
		}

		props := sarif.NewPropertyBag()
		props.Add("engine", m.report.Engine)
		props.Add("verb", m.report.Verb)
		if m.report.Instance != "" {
			props.Add("instance", m.report.Instance)
		}
		result.WithProperties(props)

		run.AddResult(result)
	}
}

func (m *sarifMapper) message(res dto.RuleOutcome) string {
	switch {
	case res.Message != "":
		return res.Message
	case res.Passed:
		return fmt.Sprintf("Rule %s passed", res.Rule)
	default:
		return fmt.Sprintf("Rule %s failed", res.Rule)
	}
}

func (m *sarifMapper) location() *sarif.Location {
	if m.metadataPath == "" {
		return nil
	}
	pLoc := sarif.NewPhysicalLocation().
		WithArtifactLocation(sarif.NewArtifactLocation().WithURI(m.normalizeURI(m.metadataPath)))
	return sarif.NewLocation().WithPhysicalLocation(pLoc)
}

// normalizeURI converts a file path to a SARIF-compliant URI, relative to
// the working directory when possible.
func (m *sarifMapper) normalizeURI(path string) string {
	abs, err := filepath.Abs(path)
	if err != nil {
		return filepath.ToSlash(path)
	}

	if m.cwd != "" {
		if rel, err := filepath.Rel(m.cwd, abs); err == nil && !strings.HasPrefix(rel, "..") {
			return filepath.ToSlash(rel)
		}
	}

	return "file://" + filepath.ToSlash(abs)
}

// addArtifact embeds the metadata file so viewers can show the rules.
func (m *sarifMapper) addArtifact(run *sarif.Run) {
	if m.metadataPath == "" {
		return
	}

	artifact := sarif.NewArtifact().
		WithLocation(sarif.NewArtifactLocation().WithURI(m.normalizeURI(m.metadataPath)))

	if info, err := os.Stat(m.metadataPath); err == nil && !info.IsDir() && info.Size() < maxArtifactSize {
		//nolint:gosec // G304: the metadata path comes from the engines directory
		if content, err := os.ReadFile(m.metadataPath); err == nil {
			artifact.WithContents(sarif.NewArtifactContent().WithText(string(content)))
			artifact.WithLength(len(content))
		}
	}
	run.AddArtifact(artifact)
}

func (m *sarifMapper) addInvocation(run *sarif.Run) {
	invocation := sarif.NewInvocation()
	invocation.ExecutionSuccessful = ptrBool(true)

	start := m.report.GeneratedAt.UTC().Format("2006-01-02T15:04:05.000Z")
	end := m.report.GeneratedAt.Add(m.report.Duration).UTC().Format("2006-01-02T15:04:05.000Z")
	invocation.StartTimeUtc = &start
	invocation.EndTimeUtc = &end

	if hostname, err := os.Hostname(); err == nil {
		invocation.Machine = &hostname
	}
	if m.cwd != "" {
		invocation.WorkingDirectory = sarif.NewArtifactLocation().WithURI("file://" + filepath.ToSlash(m.cwd))
	}

	props := sarif.NewPropertyBag()
	props.Add("engine", m.report.Engine)
	props.Add("verb", m.report.Verb)
	if m.report.RequestID != "" {
		props.Add("requestId", m.report.RequestID)
	}
	invocation.WithProperties(props)

	run.AddInvocation(invocation)
}
