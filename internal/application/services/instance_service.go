package services

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/dblab-dev/dblab/internal/application/dto"
	apperrors "github.com/dblab-dev/dblab/internal/application/errors"
	"github.com/dblab-dev/dblab/internal/application/ports"
	"github.com/dblab-dev/dblab/internal/domain/entities"
	domainservices "github.com/dblab-dev/dblab/internal/domain/services"
	"github.com/dblab-dev/dblab/internal/domain/values"
)

// defaultListConcurrency bounds parallel document reads in List.
const defaultListConcurrency = 8

// InstanceService runs the instance lifecycle on top of the resolution
// pipeline. Every action resolves and validates first, so a failure never
// reaches the container runtime.
type InstanceService struct {
	resolver     *ResolveConfigUseCase
	store        ports.InstanceStore
	runtime      ports.ContainerRuntime
	engines      *EngineRegistry
	interpolator ports.ConfigInterpolator
	logger       *slog.Logger
	now          func() time.Time
}

// NewInstanceService creates the instance lifecycle service.
func NewInstanceService(
	resolver *ResolveConfigUseCase,
	store ports.InstanceStore,
	runtime ports.ContainerRuntime,
	engines *EngineRegistry,
	interpolator ports.ConfigInterpolator,
	logger *slog.Logger,
) *InstanceService {
	if logger == nil {
		logger = slog.Default()
	}
	if engines == nil {
		engines = NewEngineRegistry()
	}

	return &InstanceService{
		resolver:     resolver,
		store:        store,
		runtime:      runtime,
		engines:      engines,
		interpolator: interpolator,
		logger:       logger,
		now:          time.Now,
	}
}

func (s *InstanceService) engineContext(resolved *dto.ResolveResponse) *ports.EngineContext {
	cfg := resolved.Config
	return &ports.EngineContext{
		Config:   cfg,
		Metadata: resolved.Metadata,
		Runtime:  s.runtime,
		Logger:   s.logger.With("instance", cfg.Ref.String()),
		Expand: func(tmpl string) string {
			return s.interpolator.ExpandString(tmpl, cfg.Values)
		},
	}
}

func (s *InstanceService) timestamp() string {
	return s.now().UTC().Format(time.RFC3339)
}

// Up resolves the instance, brings it up and records it. The instance
// document is created on the first successful up only.
func (s *InstanceService) Up(ctx context.Context, req dto.InstanceRequest) (*dto.InstanceResponse, error) {
	startTime := time.Now()

	resolved, err := s.resolver.ResolveForInstance(ctx, domainservices.VerbUp, req)
	if err != nil {
		return nil, err
	}

	ec := s.engineContext(resolved)
	if err := s.engines.ActionsFor(req.Engine).Upper.Up(ctx, ec); err != nil {
		return nil, err
	}

	created, err := s.store.CreateInitial(resolved.Config, resolved.Metadata.FixedFields)
	if err != nil {
		s.logger.Error("instance is up but its document could not be written",
			"instance", resolved.Config.Ref.String(), "error", err)
		return nil, err
	}
	if created {
		ec.Logger.Info("instance created")
	}

	if err := s.recordState(req.Engine, req.Instance, values.StatusRunning, entities.StateLastUp); err != nil {
		return nil, err
	}

	return &dto.InstanceResponse{
		Ref:            resolved.Config.Ref,
		Status:         values.StatusRunning,
		RecordedStatus: values.StatusRunning,
		Created:        created,
		Response:       responseMetadata(req.Metadata, startTime),
	}, nil
}

// Down stops a running instance and records it as stopped.
func (s *InstanceService) Down(ctx context.Context, req dto.InstanceRequest) (*dto.InstanceResponse, error) {
	startTime := time.Now()

	resolved, err := s.resolver.ResolveForInstance(ctx, domainservices.VerbDown, req)
	if err != nil {
		return nil, err
	}

	if err := s.engines.ActionsFor(req.Engine).Downer.Down(ctx, s.engineContext(resolved)); err != nil {
		return nil, err
	}

	if err := s.recordState(req.Engine, req.Instance, values.StatusStopped, entities.StateLastDown); err != nil {
		return nil, err
	}

	return &dto.InstanceResponse{
		Ref:            resolved.Config.Ref,
		Status:         values.StatusStopped,
		RecordedStatus: values.StatusStopped,
		Response:       responseMetadata(req.Metadata, startTime),
	}, nil
}

// Status reports the observed and recorded status of an instance. It
// writes nothing.
func (s *InstanceService) Status(ctx context.Context, req dto.InstanceRequest) (*dto.InstanceResponse, error) {
	startTime := time.Now()

	resolved, err := s.resolver.ResolveForInstance(ctx, domainservices.VerbStatus, req)
	if err != nil {
		return nil, err
	}

	recorded, err := values.ParseInstanceStatus(resolved.Record.Status())
	if err != nil {
		s.logger.Warn("instance document holds an unknown status", "error", err)
		recorded = values.StatusUnknown
	}

	observed, err := s.engines.ActionsFor(req.Engine).StatusReporter.Status(ctx, s.engineContext(resolved))
	if err != nil {
		return nil, err
	}

	return &dto.InstanceResponse{
		Ref:            resolved.Config.Ref,
		Status:         observed,
		RecordedStatus: recorded,
		Response:       responseMetadata(req.Metadata, startTime),
	}, nil
}

// Destroy removes the instance's runtime resources and its directory.
func (s *InstanceService) Destroy(ctx context.Context, req dto.InstanceRequest) (*dto.InstanceResponse, error) {
	startTime := time.Now()

	resolved, err := s.resolver.ResolveForInstance(ctx, domainservices.VerbDestroy, req)
	if err != nil {
		return nil, err
	}

	if err := s.engines.ActionsFor(req.Engine).Destroyer.Destroy(ctx, s.engineContext(resolved)); err != nil {
		return nil, err
	}
	if err := s.store.Remove(req.Engine, req.Instance); err != nil {
		return nil, err
	}

	s.logger.Info("instance destroyed", "instance", resolved.Config.Ref.String())
	return &dto.InstanceResponse{
		Ref:            resolved.Config.Ref,
		Status:         values.StatusMissing,
		RecordedStatus: values.StatusMissing,
		Response:       responseMetadata(req.Metadata, startTime),
	}, nil
}

// recordState writes the status and a timestamp. The runtime action has
// already happened when this runs; a failure is returned, not rolled back.
func (s *InstanceService) recordState(engine, instance string, status values.InstanceStatus, stampKey string) error {
	if err := s.store.UpdateState(engine, instance, entities.StateStatus, status.String()); err != nil {
		s.logger.Error("failed to record instance status", "engine", engine, "instance", instance, "error", err)
		return err
	}
	if err := s.store.UpdateState(engine, instance, stampKey, s.timestamp()); err != nil {
		s.logger.Error("failed to record instance timestamp", "engine", engine, "instance", instance, "error", err)
		return err
	}
	return nil
}

// SetRuntime persists or removes a runtime override of an existing
// instance. Fixed attributes cannot be overridden.
func (s *InstanceService) SetRuntime(_ context.Context, req dto.SetRuntimeRequest) error {
	meta, err := s.resolver.metadata.Load(req.Engine)
	if err != nil {
		return err
	}
	record, err := s.store.Read(req.Engine, req.Instance)
	if err != nil {
		return err
	}

	key := meta.CLIArgKey(req.Key)
	if _, fixed := record.Fixed()[key]; fixed || meta.IsFixed(key) {
		return apperrors.NewConfigurationError("config",
			fmt.Sprintf("%s is fixed for %s and cannot be changed", key, record.Ref), nil)
	}

	if req.Unset {
		removed, err := s.store.UnsetRuntime(req.Engine, req.Instance, key)
		if err != nil {
			return err
		}
		if !removed {
			s.logger.Info("no runtime override to remove", "key", key)
		}
		return nil
	}
	return s.store.SetRuntime(req.Engine, req.Instance, key, req.Value)
}

// List reads every instance document in parallel. Unreadable documents
// are reported in their row instead of failing the listing.
func (s *InstanceService) List(ctx context.Context, req dto.ListRequest) ([]dto.InstanceSummary, error) {
	refs, err := s.store.List()
	if err != nil {
		return nil, err
	}
	if req.Engine != "" {
		filtered := refs[:0]
		for _, ref := range refs {
			if ref.Engine == req.Engine {
				filtered = append(filtered, ref)
			}
		}
		refs = filtered
	}

	limit := req.Concurrency
	if limit <= 0 {
		limit = defaultListConcurrency
	}

	summaries := make([]dto.InstanceSummary, len(refs))
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(limit)
	for i, ref := range refs {
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}
			summaries[i] = s.summarize(ref)
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return summaries, nil
}

func (s *InstanceService) summarize(ref entities.InstanceRef) dto.InstanceSummary {
	summary := dto.InstanceSummary{Ref: ref, Status: values.StatusUnknown}

	record, err := s.store.Read(ref.Engine, ref.Instance)
	if err != nil {
		if errors.Is(err, apperrors.ErrInstanceNotFound) {
			summary.Status = values.StatusMissing
		}
		summary.Error = err.Error()
		return summary
	}

	summary.ID = record.ID()
	summary.Version = record.Document.Get(domainservices.KeyVersion)
	if created, err := record.CreatedAt(); err == nil {
		summary.CreatedAt = created
	}
	if status, err := values.ParseInstanceStatus(record.Status()); err == nil {
		summary.Status = status
	}
	return summary
}

func responseMetadata(meta dto.RequestMetadata, startTime time.Time) dto.ResponseMetadata {
	return dto.ResponseMetadata{
		RequestID:   meta.RequestID,
		ProcessedAt: time.Now(),
		Duration:    time.Since(startTime),
	}
}
