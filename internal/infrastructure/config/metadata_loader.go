// Package config loads the inputs of configuration resolution: engine
// metadata, env-files and process environment. It also hosts the
// placeholder interpolator applied to the merged result.
package config

import (
	"bytes"
	_ "embed"
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"slices"
	"sort"
	"strings"

	jsonschema "github.com/santhosh-tekuri/jsonschema/v5"

	"github.com/dblab-dev/dblab/engines"
	apperrors "github.com/dblab-dev/dblab/internal/application/errors"
	"github.com/dblab-dev/dblab/internal/domain/entities"
	"github.com/dblab-dev/dblab/internal/domain/values"
	"github.com/dblab-dev/dblab/internal/infrastructure/flatyaml"
)

// MetadataFileName is the metadata document inside an engine directory.
const MetadataFileName = engines.MetadataFile

//go:embed metadata_schema.json
var metadataSchema []byte

// MetadataLoader reads engine metadata documents.
// Sources are searched in order; the first one holding
// "<engine>/metadata.yml" wins.
type MetadataLoader struct {
	logger  *slog.Logger
	schema  *jsonschema.Schema
	sources []fs.FS
}

// NewMetadataLoader creates a loader over the given sources.
func NewMetadataLoader(logger *slog.Logger, sources ...fs.FS) (*MetadataLoader, error) {
	if logger == nil {
		logger = slog.Default()
	}

	compiler := jsonschema.NewCompiler()
	compiler.Draft = jsonschema.Draft2020
	if err := compiler.AddResource("metadata.schema.json", bytes.NewReader(metadataSchema)); err != nil {
		return nil, fmt.Errorf("failed to add metadata schema: %w", err)
	}
	schema, err := compiler.Compile("metadata.schema.json")
	if err != nil {
		return nil, fmt.Errorf("failed to compile metadata schema: %w", err)
	}

	return &MetadataLoader{
		logger:  logger,
		schema:  schema,
		sources: sources,
	}, nil
}

// Load reads and validates the metadata of engine.
func (l *MetadataLoader) Load(engine string) (*entities.EngineMetadata, error) {
	if _, err := values.NewResourceName("engine", engine); err != nil {
		return nil, apperrors.NewMetadataError(engine, "invalid engine name", err)
	}

	name := engine + "/" + MetadataFileName
	for _, src := range l.sources {
		data, err := fs.ReadFile(src, name)
		if errors.Is(err, fs.ErrNotExist) {
			continue
		}
		if err != nil {
			return nil, apperrors.NewMetadataError(engine, "cannot read metadata", err)
		}

		doc, stats := flatyaml.ParseBytes(data)
		if len(stats.Skipped) > 0 {
			l.logger.Warn("ignored unrecognized metadata lines",
				"engine", engine, "lines", stats.Skipped)
		}
		return l.Decode(engine, doc)
	}

	return nil, apperrors.NewMetadataError(engine, "metadata file not found", fs.ErrNotExist)
}

// Engines lists every engine available in any source.
func (l *MetadataLoader) Engines() ([]string, error) {
	seen := make(map[string]bool)
	for _, src := range l.sources {
		names, err := engines.Names(src)
		if err != nil {
			if errors.Is(err, fs.ErrNotExist) {
				continue
			}
			return nil, fmt.Errorf("failed to list engines: %w", err)
		}
		for _, n := range names {
			seen[n] = true
		}
	}

	names := make([]string, 0, len(seen))
	for n := range seen {
		names = append(names, n)
	}
	sort.Strings(names)
	return names, nil
}

// Decode validates a parsed metadata document and extracts its view.
func (l *MetadataLoader) Decode(engine string, doc entities.FlatDocument) (*entities.EngineMetadata, error) {
	if err := l.schema.Validate(flatyaml.Unflatten(doc)); err != nil {
		var verr *jsonschema.ValidationError
		if errors.As(err, &verr) {
			return nil, apperrors.NewMetadataError(engine, "invalid structure", formatSchemaError(verr))
		}
		return nil, apperrors.NewMetadataError(engine, "invalid structure", err)
	}

	if declared := doc.Get("engine"); declared != engine {
		return nil, apperrors.NewMetadataError(engine, fmt.Sprintf("document declares engine %q", declared), nil)
	}

	meta := &entities.EngineMetadata{
		Engine:            engine,
		Description:       doc.Get("description"),
		RequiredEnv:       doc.Array("required_env"),
		Defaults:          entities.NewFlatDocument(),
		SupportedVersions: doc.Array("version.supported"),
		DefaultVersion:    doc.Get("version.default"),
		FixedFields:       doc.Array("instance_fields.fixed"),
	}

	l.decodeDefaults(meta, doc)
	if meta.DefaultVersion != "" {
		if _, ok := meta.Defaults["version"]; !ok {
			meta.Defaults["version"] = meta.DefaultVersion
		}
	}

	for _, e := range doc.Elements("env_vars") {
		meta.EnvVars = append(meta.EnvVars, entities.EnvVarDescriptor{
			Name:        e.Get("name"),
			Description: e.Get("description"),
			MapsTo:      e.Get("map"),
			Required:    e.Bool("required"),
			Secret:      e.Bool("secret"),
		})
	}
	required, err := requiredFields(doc.Array("instance_fields.required"), meta)
	if err != nil {
		return nil, apperrors.NewMetadataError(engine, "invalid required_env", err)
	}
	meta.RequiredFields = required

	for _, a := range doc.Elements("cli.args") {
		meta.CLIArgs = append(meta.CLIArgs, entities.CLIArg{
			Name:        a.Get("name"),
			MapsTo:      a.Get("map"),
			Description: a.Get("description"),
		})
	}

	for _, r := range doc.Elements("validation.rules") {
		meta.Rules = append(meta.Rules, entities.ExprRuleSpec{
			Name:    r.Get("name"),
			Expr:    r.Get("expr"),
			Message: r.Get("message"),
		})
	}

	meta.Container = entities.ContainerTemplate{
		Port:      doc.Get("container.port"),
		DataMount: doc.Get("container.data_mount"),
		Env:       map[string]string(doc.Subtree("container.env")),
	}

	return meta, nil
}

// decodeDefaults keeps the defaults that defaults_map knows about, keyed by
// their internal key.
func (l *MetadataLoader) decodeDefaults(meta *entities.EngineMetadata, doc entities.FlatDocument) {
	mapping := doc.Subtree("defaults_map")
	for name, value := range doc.Subtree("defaults") {
		key := mapping.Get(name)
		if key == "" {
			l.logger.Debug("dropping unmapped default", "engine", meta.Engine, "name", name)
			continue
		}
		meta.Defaults[key] = value
	}
}

// requiredFields merges instance_fields.required with the targets of the
// env vars named in required_env or marked required, keeping first-seen
// order. Every required_env name must have a mapped env_vars entry; it is
// marked required so prompts enforce it too.
func requiredFields(declared []string, meta *entities.EngineMetadata) ([]string, error) {
	seen := make(map[string]bool, len(declared))
	out := make([]string, 0, len(declared))
	add := func(k string) {
		if k != "" && !seen[k] {
			seen[k] = true
			out = append(out, k)
		}
	}
	for _, k := range declared {
		add(k)
	}

	for _, name := range meta.RequiredEnv {
		d, ok := meta.Descriptor(name)
		if !ok {
			return nil, fmt.Errorf("%s has no env_vars entry", name)
		}
		if d.MapsTo == "" {
			return nil, fmt.Errorf("%s has no map target", name)
		}
	}
	for i := range meta.EnvVars {
		d := &meta.EnvVars[i]
		if slices.Contains(meta.RequiredEnv, d.Name) {
			d.Required = true
		}
		if d.Required {
			add(d.MapsTo)
		}
	}
	return out, nil
}
