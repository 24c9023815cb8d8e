package output

import (
	"fmt"
	"io"
	"text/tabwriter"

	"github.com/dblab-dev/dblab/internal/domain/entities"
	"github.com/dblab-dev/dblab/internal/infrastructure/flatyaml"
)

// Config output formats.
const (
	ConfigFlat = "flat"
	ConfigYAML = "yaml"
	ConfigJSON = "json"
)

// ConfigFormats lists the accepted `config show` formats.
func ConfigFormats() []string {
	return []string{ConfigFlat, ConfigYAML, ConfigJSON}
}

// ConfigView is what `config show` prints: values already redacted and,
// optionally, the layer each came from.
type ConfigView struct {
	Values  entities.FlatDocument
	Sources map[string]entities.ConfigSource
}

type configTree struct {
	Values  map[string]any    `json:"values" yaml:"values"`
	Sources map[string]string `json:"sources" yaml:"sources"`
}

// WriteConfig renders view in format. Flat output lists one key per line in
// key order; yaml and json nest the dotted keys.
func WriteConfig(w io.Writer, view ConfigView, format string) error {
	switch format {
	case ConfigFlat, "":
		return writeFlat(w, view)
	case ConfigYAML:
		if view.Sources == nil {
			return writeYAML(w, flatyaml.Unflatten(view.Values))
		}
		return writeYAML(w, view.tree())
	case ConfigJSON:
		if view.Sources == nil {
			return writeJSON(w, flatyaml.Unflatten(view.Values), true)
		}
		return writeJSON(w, view.tree(), true)
	default:
		return fmt.Errorf("unknown config format: %s (supported: %v)", format, ConfigFormats())
	}
}

func (v ConfigView) tree() configTree {
	sources := make(map[string]string, len(v.Sources))
	for k, s := range v.Sources {
		if _, ok := v.Values[k]; ok {
			sources[k] = string(s)
		}
	}
	return configTree{Values: flatyaml.Unflatten(v.Values), Sources: sources}
}

func writeFlat(w io.Writer, view ConfigView) error {
	tw := tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)
	for _, k := range view.Values.Keys() {
		if view.Sources != nil {
			fmt.Fprintf(tw, "%s\t%s\t(%s)\n", k, view.Values[k], view.Sources[k])
			continue
		}
		fmt.Fprintf(tw, "%s\t%s\n", k, view.Values[k])
	}
	return tw.Flush()
}
