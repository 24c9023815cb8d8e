package output

import (
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/dblab-dev/dblab/internal/application/dto"
)

const (
	colorReset  = "\033[0m"
	colorRed    = "\033[31m"
	colorGreen  = "\033[32m"
	colorYellow = "\033[33m"
	colorGray   = "\033[90m"
	colorBold   = "\033[1m"
)

const ruleWidth = 80

// TableFormatter formats a validation report for a terminal.
type TableFormatter struct {
	writer      io.Writer
	EnableColor bool
}

// NewTableFormatter creates a new table formatter with colors disabled.
func NewTableFormatter(w io.Writer) *TableFormatter {
	return &TableFormatter{writer: w}
}

func (f *TableFormatter) colorize(text, code string) string {
	if !f.EnableColor {
		return text
	}
	return code + text + colorReset
}

// Format writes the report.
//
//nolint:errcheck // Table formatting errors are non-critical (best-effort terminal output)
func (f *TableFormatter) Format(report *dto.ValidationReport) error {
	target := report.Engine
	if report.Instance != "" {
		target += "/" + report.Instance
	}

	fmt.Fprintln(f.writer, f.colorize(strings.Repeat("─", ruleWidth), colorGray))
	fmt.Fprintf(f.writer, "Instance: %s (verb %s)\n", f.colorize(target, colorBold), report.Verb)
	fmt.Fprintf(f.writer, "Checked:  %s\n", report.GeneratedAt.Format(time.RFC3339))
	fmt.Fprintln(f.writer)

	if len(report.Results) == 0 {
		fmt.Fprintln(f.writer, "No rules evaluated.")
		return nil
	}

	for _, res := range report.Results {
		symbol, color := statusInfo(res.Passed)
		fmt.Fprintf(f.writer, "%s %s\n", f.colorize(symbol, color), f.colorize(res.Rule, color))
		if res.Message != "" {
			fmt.Fprintf(f.writer, "    %s\n", f.colorize(res.Message, colorYellow))
		}
	}

	fmt.Fprintln(f.writer, f.colorize(strings.Repeat("─", ruleWidth), colorGray))
	failed := report.Failed()
	fmt.Fprintf(f.writer, "Rules: %d total\n", len(report.Results))
	fmt.Fprintf(f.writer, "  %s Passed: %d\n", f.colorize("✓", colorGreen), len(report.Results)-failed)
	fmt.Fprintf(f.writer, "  %s Failed: %d\n", f.colorize("✗", colorRed), failed)
	return nil
}

func statusInfo(passed bool) (string, string) {
	if passed {
		return "✓", colorGreen
	}
	return "✗", colorRed
}
