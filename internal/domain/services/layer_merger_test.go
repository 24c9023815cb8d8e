package services

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	apperrors "github.com/dblab-dev/dblab/internal/application/errors"
	"github.com/dblab-dev/dblab/internal/domain/entities"
)

var devRef = entities.InstanceRef{Engine: "postgres", Instance: "dev"}

func allLayers() Layers {
	return Layers{
		Defaults:        entities.FlatDocument{"k": "defaults", "only.defaults": "d"},
		InstanceRuntime: entities.FlatDocument{"k": "runtime"},
		Env:             entities.FlatDocument{"k": "env"},
		CLI:             entities.FlatDocument{"k": "cli"},
		InstanceFixed:   entities.FlatDocument{"k": "fixed"},
	}
}

func Test_LayerMerger_Precedence(t *testing.T) {
	t.Parallel()
	merger := NewLayerMerger()

	layers := allLayers()
	steps := []struct {
		want   string
		source entities.ConfigSource
		drop   func(*Layers)
	}{
		{"fixed", entities.SourceInstanceFixed, func(l *Layers) { l.InstanceFixed = nil }},
		{"cli", entities.SourceCLI, func(l *Layers) { l.CLI = nil }},
		{"env", entities.SourceEnv, func(l *Layers) { l.Env = nil }},
		{"runtime", entities.SourceInstanceRuntime, func(l *Layers) { l.InstanceRuntime = nil }},
		{"defaults", entities.SourceDefaults, func(*Layers) {}},
	}

	for _, step := range steps {
		cfg, err := merger.Merge(devRef, layers, MergeOptions{})
		require.NoError(t, err)
		assert.Equal(t, step.want, cfg.Get("k"))
		assert.Equal(t, step.source, cfg.Source("k"))
		assert.Equal(t, "d", cfg.Get("only.defaults"))
		step.drop(&layers)
	}
}

func Test_LayerMerger_DoesNotMutateInputs(t *testing.T) {
	t.Parallel()

	layers := allLayers()
	cfg, err := NewLayerMerger().Merge(devRef, layers, MergeOptions{})
	require.NoError(t, err)

	cfg.Values.Set("k", "changed")
	assert.Equal(t, "defaults", layers.Defaults.Get("k"))
	assert.Equal(t, "fixed", layers.InstanceFixed.Get("k"))
	assert.Equal(t, devRef, cfg.Ref)
}

func Test_LayerMerger_RequiredFields(t *testing.T) {
	t.Parallel()
	merger := NewLayerMerger()
	opts := MergeOptions{RequiredFields: []string{"db.password", "db.user"}, EnforceRequired: true}

	_, err := merger.Merge(devRef, Layers{
		Defaults: entities.FlatDocument{"db.user": "postgres"},
		Env:      entities.FlatDocument{"db.password": ""},
	}, opts)
	require.Error(t, err)

	var missing *apperrors.MissingRequiredFieldError
	require.True(t, errors.As(err, &missing))
	assert.Equal(t, "db.password", missing.Key)
	assert.Equal(t, []string{"db.password"}, missing.Missing)

	for name, layers := range map[string]Layers{
		"from env":     {Env: entities.FlatDocument{"db.password": "x", "db.user": "u"}},
		"from cli":     {CLI: entities.FlatDocument{"db.password": "x", "db.user": "u"}},
		"from fixed":   {InstanceFixed: entities.FlatDocument{"db.password": "x", "db.user": "u"}},
		"from runtime": {InstanceRuntime: entities.FlatDocument{"db.password": "x"}, Defaults: entities.FlatDocument{"db.user": "u"}},
	} {
		_, err := merger.Merge(devRef, layers, opts)
		assert.NoError(t, err, name)
	}
}

func Test_LayerMerger_ReportsAllMissing(t *testing.T) {
	t.Parallel()

	_, err := NewLayerMerger().Merge(devRef, Layers{}, MergeOptions{
		RequiredFields:  []string{"db.password", "db.user"},
		EnforceRequired: true,
	})

	var missing *apperrors.MissingRequiredFieldError
	require.True(t, errors.As(err, &missing))
	assert.Equal(t, []string{"db.password", "db.user"}, missing.Missing)
}

func Test_LayerMerger_SkipsEnforcementWithoutInstance(t *testing.T) {
	t.Parallel()

	cfg, err := NewLayerMerger().Merge(entities.InstanceRef{Engine: "postgres"}, Layers{}, MergeOptions{
		RequiredFields: []string{"db.password"},
	})
	require.NoError(t, err)
	assert.Empty(t, cfg.Values)
	assert.False(t, cfg.HasInstance())
}
