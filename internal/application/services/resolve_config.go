package services

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"maps"
	"time"

	"github.com/dblab-dev/dblab/internal/application/dto"
	apperrors "github.com/dblab-dev/dblab/internal/application/errors"
	"github.com/dblab-dev/dblab/internal/application/ports"
	"github.com/dblab-dev/dblab/internal/domain/entities"
	domainservices "github.com/dblab-dev/dblab/internal/domain/services"
)

// Keys seeded into the defaults layer so templates can refer to them.
const (
	KeyEngine   = "engine"
	KeyInstance = "instance"
)

// ResolveConfigUseCase runs the configuration resolution pipeline:
// metadata, instance document, environment, merge, interpolation and
// validation, strictly in that order.
type ResolveConfigUseCase struct {
	metadata     ports.MetadataRepository
	store        ports.InstanceStore
	env          ports.EnvironmentResolver
	interpolator ports.ConfigInterpolator
	merger       *domainservices.LayerMerger
	rules        *domainservices.RuleRegistry
	logger       *slog.Logger
}

// NewResolveConfigUseCase creates the resolution use case. A nil rules
// registry means the built-in rules.
func NewResolveConfigUseCase(
	metadata ports.MetadataRepository,
	store ports.InstanceStore,
	env ports.EnvironmentResolver,
	interpolator ports.ConfigInterpolator,
	rules *domainservices.RuleRegistry,
	logger *slog.Logger,
) *ResolveConfigUseCase {
	if logger == nil {
		logger = slog.Default()
	}
	if rules == nil {
		rules = domainservices.DefaultRuleRegistry()
	}

	return &ResolveConfigUseCase{
		metadata:     metadata,
		store:        store,
		env:          env,
		interpolator: interpolator,
		merger:       domainservices.NewLayerMerger(),
		rules:        rules,
		logger:       logger,
	}
}

// Execute resolves the configuration for req. It never causes a side
// effect outside reading files.
func (uc *ResolveConfigUseCase) Execute(_ context.Context, req dto.ResolveRequest) (*dto.ResolveResponse, error) {
	startTime := time.Now()
	ref := entities.InstanceRef{Engine: req.Engine, Instance: req.Instance}

	// 1. Metadata
	meta, err := uc.metadata.Load(req.Engine)
	if err != nil {
		return nil, err
	}

	// 2. Instance document
	record, err := uc.readRecord(ref)
	if err != nil {
		return nil, err
	}

	// 3. Environment
	envLayer, err := uc.env.Resolve(meta, req.EnvFiles)
	if err != nil {
		return nil, err
	}

	// 4. Merge
	layers := domainservices.Layers{
		Defaults: uc.defaultsLayer(meta, ref),
		Env:      envLayer,
		CLI:      cliLayer(meta, req.Overrides),
	}
	if record != nil {
		layers.InstanceRuntime = record.Runtime()
		layers.InstanceFixed = record.Fixed()
	}

	cfg, err := uc.merger.Merge(ref, layers, domainservices.MergeOptions{
		RequiredFields:  meta.RequiredFields,
		EnforceRequired: req.EnforceRequired && ref.Instance != "",
	})
	if err != nil {
		return nil, err
	}

	// 5. Interpolation
	uc.interpolator.Interpolate(cfg.Values)

	// 6. Validation
	registry, err := uc.registryFor(meta)
	if err != nil {
		return nil, err
	}
	input := domainservices.RuleInput{
		Config:   cfg.Values,
		Fixed:    entities.NewFlatDocument(),
		Metadata: meta,
		Engine:   req.Engine,
		Verb:     req.Verb,
	}
	if record != nil {
		input.Fixed = record.Fixed()
	}

	resp := &dto.ResolveResponse{
		Config:   cfg,
		Metadata: meta,
		Record:   record,
	}
	if req.ReportOnly {
		resp.Results = registry.Evaluate(input)
	} else if err := registry.RunAll(input); err != nil {
		return nil, err
	}

	resp.Response = dto.ResponseMetadata{
		RequestID:   req.Metadata.RequestID,
		ProcessedAt: time.Now(),
		Duration:    time.Since(startTime),
	}

	uc.logger.Debug("configuration resolved",
		"instance", ref.String(),
		"verb", req.Verb,
		"keys", len(cfg.Values),
		"existing", record != nil)

	return resp, nil
}

func (uc *ResolveConfigUseCase) readRecord(ref entities.InstanceRef) (*entities.InstanceRecord, error) {
	if ref.Instance == "" || !uc.store.Exists(ref.Engine, ref.Instance) {
		return nil, nil
	}
	record, err := uc.store.Read(ref.Engine, ref.Instance)
	if errors.Is(err, apperrors.ErrInstanceNotFound) {
		return nil, nil
	}
	return record, err
}

// defaultsLayer returns the metadata defaults plus the engine and instance
// names, so default templates such as "dblab-{engine}-{instance}" expand.
func (uc *ResolveConfigUseCase) defaultsLayer(meta *entities.EngineMetadata, ref entities.InstanceRef) entities.FlatDocument {
	defaults := meta.Defaults.Clone()
	defaults.Set(KeyEngine, ref.Engine)
	if ref.Instance != "" {
		defaults.Set(KeyInstance, ref.Instance)
	}
	return defaults
}

func (uc *ResolveConfigUseCase) registryFor(meta *entities.EngineMetadata) (*domainservices.RuleRegistry, error) {
	if len(meta.Rules) == 0 {
		return uc.rules, nil
	}
	extra, err := domainservices.MetadataRules(meta)
	if err != nil {
		return nil, err
	}
	return uc.rules.With(extra...), nil
}

// cliLayer maps --set names onto internal keys.
func cliLayer(meta *entities.EngineMetadata, overrides map[string]string) entities.FlatDocument {
	layer := entities.NewFlatDocument()
	for _, name := range sortedKeys(overrides) {
		layer.Set(meta.CLIArgKey(name), overrides[name])
	}
	return layer
}

// ResolveForInstance resolves the configuration of a named instance for a
// lifecycle verb. Required fields are enforced for "up" only; the other
// verbs act on an existing document and are checked by instance-exists.
func (uc *ResolveConfigUseCase) ResolveForInstance(ctx context.Context, verb string, req dto.InstanceRequest) (*dto.ResolveResponse, error) {
	if req.Instance == "" {
		return nil, fmt.Errorf("%s requires an instance name", verb)
	}
	return uc.Execute(ctx, dto.ResolveRequest{
		Engine:          req.Engine,
		Instance:        req.Instance,
		Verb:            verb,
		EnvFiles:        req.EnvFiles,
		Overrides:       maps.Clone(req.Overrides),
		Metadata:        req.Metadata,
		EnforceRequired: verb == domainservices.VerbUp,
	})
}
