// Package services contains domain services for the dblab domain model.
package services

import (
	apperrors "github.com/dblab-dev/dblab/internal/application/errors"
	"github.com/dblab-dev/dblab/internal/domain/entities"
)

// Layers holds the five configuration sources of one resolution.
// Any layer may be nil.
type Layers struct {
	Defaults        entities.FlatDocument
	InstanceRuntime entities.FlatDocument
	Env             entities.FlatDocument
	CLI             entities.FlatDocument
	InstanceFixed   entities.FlatDocument
}

// MergeOptions controls required-field enforcement.
type MergeOptions struct {
	// RequiredFields must be present and non-empty after the merge when
	// EnforceRequired is set.
	RequiredFields []string
	// EnforceRequired is false for commands that run without a concrete
	// instance.
	EnforceRequired bool
}

// LayerMerger combines configuration layers by strict precedence.
//
// Merge Semantics:
//   - defaults < instance runtime < env < cli < instance fixed
//   - a later layer replaces the value of an earlier one key by key
//   - instance fixed values always win
//   - inputs are never modified
type LayerMerger struct{}

// NewLayerMerger creates a new layer merger service.
func NewLayerMerger() *LayerMerger {
	return &LayerMerger{}
}

// Merge applies the layers in ascending priority and records the layer
// each final value came from. With EnforceRequired it fails with
// *apperrors.MissingRequiredFieldError listing every required key that is
// absent or empty.
func (m *LayerMerger) Merge(ref entities.InstanceRef, layers Layers, opts MergeOptions) (*entities.ResolvedConfig, error) {
	cfg := entities.NewResolvedConfig(ref)

	for _, l := range []struct {
		doc    entities.FlatDocument
		source entities.ConfigSource
	}{
		{layers.Defaults, entities.SourceDefaults},
		{layers.InstanceRuntime, entities.SourceInstanceRuntime},
		{layers.Env, entities.SourceEnv},
		{layers.CLI, entities.SourceCLI},
		{layers.InstanceFixed, entities.SourceInstanceFixed},
	} {
		for k, v := range l.doc {
			cfg.Values[k] = v
			cfg.Sources[k] = l.source
		}
	}

	if opts.EnforceRequired {
		if missing := MissingRequired(cfg.Values, opts.RequiredFields); len(missing) > 0 {
			return nil, apperrors.NewMissingRequiredFieldError(missing)
		}
	}
	return cfg, nil
}

// MissingRequired returns the required keys that are absent or empty in
// doc, in declaration order.
func MissingRequired(doc entities.FlatDocument, required []string) []string {
	var missing []string
	for _, k := range required {
		if doc.Get(k) == "" {
			missing = append(missing, k)
		}
	}
	return missing
}
