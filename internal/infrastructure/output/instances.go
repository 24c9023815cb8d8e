package output

import (
	"fmt"
	"io"
	"text/tabwriter"
	"time"

	"github.com/dblab-dev/dblab/internal/application/dto"
)

// instanceRow is the serialized form of a listing row.
type instanceRow struct {
	CreatedAt string `json:"created_at,omitempty" yaml:"created_at,omitempty"`
	Engine    string `json:"engine" yaml:"engine"`
	Instance  string `json:"instance" yaml:"instance"`
	ID        string `json:"id,omitempty" yaml:"id,omitempty"`
	Version   string `json:"version,omitempty" yaml:"version,omitempty"`
	Status    string `json:"status" yaml:"status"`
	Error     string `json:"error,omitempty" yaml:"error,omitempty"`
}

func toRow(s dto.InstanceSummary) instanceRow {
	row := instanceRow{
		Engine:   s.Ref.Engine,
		Instance: s.Ref.Instance,
		ID:       s.ID,
		Version:  s.Version,
		Status:   string(s.Status),
		Error:    s.Error,
	}
	if !s.CreatedAt.IsZero() {
		row.CreatedAt = s.CreatedAt.UTC().Format(time.RFC3339)
	}
	return row
}

// WriteInstances renders a listing as a table, json or yaml.
//
//nolint:errcheck // Best-effort terminal output
func WriteInstances(w io.Writer, rows []dto.InstanceSummary, format string) error {
	out := make([]instanceRow, 0, len(rows))
	for _, r := range rows {
		out = append(out, toRow(r))
	}

	switch format {
	case "table", "":
		if len(out) == 0 {
			fmt.Fprintln(w, "No instances found.")
			return nil
		}
		tw := tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)
		fmt.Fprintln(tw, "ENGINE\tINSTANCE\tVERSION\tSTATUS\tCREATED")
		for _, r := range out {
			status := r.Status
			if r.Error != "" {
				status += " (" + r.Error + ")"
			}
			fmt.Fprintf(tw, "%s\t%s\t%s\t%s\t%s\n", r.Engine, r.Instance, r.Version, status, r.CreatedAt)
		}
		return tw.Flush()
	case "json":
		return writeJSON(w, out, true)
	case "yaml":
		return writeYAML(w, out)
	default:
		return fmt.Errorf("unknown format: %s (supported: [table json yaml])", format)
	}
}

type statusView struct {
	Engine   string `json:"engine" yaml:"engine"`
	Instance string `json:"instance" yaml:"instance"`
	Status   string `json:"status" yaml:"status"`
	Recorded string `json:"recorded_status" yaml:"recorded_status"`
}

// WriteStatus renders the result of `dblab status`.
func WriteStatus(w io.Writer, resp *dto.InstanceResponse, format string) error {
	view := statusView{
		Engine:   resp.Ref.Engine,
		Instance: resp.Ref.Instance,
		Status:   string(resp.Status),
		Recorded: string(resp.RecordedStatus),
	}

	switch format {
	case "table", "":
		_, err := fmt.Fprintf(w, "%s/%s: %s (recorded: %s)\n", view.Engine, view.Instance, view.Status, view.Recorded)
		return err
	case "json":
		return writeJSON(w, view, true)
	case "yaml":
		return writeYAML(w, view)
	default:
		return fmt.Errorf("unknown format: %s (supported: [table json yaml])", format)
	}
}
