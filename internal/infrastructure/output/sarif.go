package output

import (
	"fmt"
	"io"

	"github.com/owenrumney/go-sarif/v3/pkg/report/v210/sarif"

	"github.com/dblab-dev/dblab/internal/application/dto"
)

// SARIFFormatter formats a validation report as SARIF 2.1.0 JSON. Rules
// map to SARIF rules and every evaluation to a result located at the
// engine metadata file.
type SARIFFormatter struct {
	writer       io.Writer
	metadataPath string
}

// NewSARIFFormatter creates a new SARIF formatter. metadataPath may be
// empty when the metadata came from the bundled copies.
func NewSARIFFormatter(writer io.Writer, metadataPath string) *SARIFFormatter {
	return &SARIFFormatter{
		writer:       writer,
		metadataPath: metadataPath,
	}
}

// Format writes the report as SARIF 2.1.0 JSON.
func (f *SARIFFormatter) Format(report *dto.ValidationReport) error {
	doc := sarif.NewReport()

	run := sarif.NewRunWithInformationURI("dblab", "https://github.com/dblab-dev/dblab")
	run.Tool.Driver.Version = &report.ToolVersion
	run.Tool.Driver.Organization = ptrString("dblab")

	newSARIFMapper(report, f.metadataPath).mapToRun(run)
	doc.AddRun(run)

	if err := doc.Write(f.writer); err != nil {
		return fmt.Errorf("failed to write SARIF output: %w", err)
	}

	_, err := io.WriteString(f.writer, "\n")
	return err
}

func ptrString(s string) *string {
	return &s
}

func ptrBool(b bool) *bool {
	return &b
}
