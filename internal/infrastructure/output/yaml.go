package output

import (
	"io"

	"github.com/goccy/go-yaml"

	"github.com/dblab-dev/dblab/internal/application/dto"
)

// YAMLFormatter formats a validation report as YAML.
type YAMLFormatter struct {
	writer io.Writer
}

// NewYAMLFormatter creates a new YAML formatter.
func NewYAMLFormatter(w io.Writer) *YAMLFormatter {
	return &YAMLFormatter{writer: w}
}

// Format writes the report as YAML.
func (f *YAMLFormatter) Format(report *dto.ValidationReport) error {
	return writeYAML(f.writer, report)
}

func writeYAML(w io.Writer, v any) error {
	encoder := yaml.NewEncoder(w, yaml.Indent(2))
	if err := encoder.Encode(v); err != nil {
		return err
	}
	return encoder.Close()
}
