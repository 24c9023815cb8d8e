package services

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dblab-dev/dblab/internal/application/dto"
	apperrors "github.com/dblab-dev/dblab/internal/application/errors"
	"github.com/dblab-dev/dblab/internal/application/ports"
	"github.com/dblab-dev/dblab/internal/domain/entities"
	"github.com/dblab-dev/dblab/internal/domain/values"
)

type instanceFixture struct {
	store   *fakeStore
	runtime *fakeRuntime
	svc     *InstanceService
}

func newInstanceFixture(vars map[string]string, engines ...ports.Engine) *instanceFixture {
	store := newFakeStore()
	runtime := newFakeRuntime()
	svc := NewInstanceService(newResolver(store, vars), store, runtime, NewEngineRegistry(engines...), fakeInterpolator{}, nil)
	svc.now = func() time.Time { return time.Date(2026, 3, 4, 5, 6, 7, 0, time.UTC) }
	return &instanceFixture{store: store, runtime: runtime, svc: svc}
}

var devRequest = dto.InstanceRequest{Engine: "postgres", Instance: "dev"}

func TestInstanceService_UpCreatesOnce(t *testing.T) {
	f := newInstanceFixture(map[string]string{"DBLAB_PG_PASSWORD": "secret123"})
	ctx := context.Background()

	resp, err := f.svc.Up(ctx, devRequest)
	require.NoError(t, err)
	assert.True(t, resp.Created)
	assert.Equal(t, values.StatusRunning, resp.Status)

	require.Len(t, f.runtime.runs, 1)
	spec := f.runtime.runs[0]
	assert.Equal(t, "dblab-postgres-dev", spec.Name)
	assert.Equal(t, "postgres:16", spec.Image)
	assert.Equal(t, "dblab-postgres-dev", spec.Network)
	assert.Equal(t, map[string]string{"POSTGRES_USER": "postgres", "POSTGRES_PASSWORD": "secret123"}, spec.Env)
	assert.Empty(t, spec.Ports)
	assert.True(t, f.runtime.networks["dblab-postgres-dev"])

	doc := f.store.docs["postgres/dev"]
	assert.Equal(t, "secret123", doc.Get("db.password"))
	assert.Equal(t, "running", doc.Get("state.status"))
	assert.Equal(t, "2026-03-04T05:06:07Z", doc.Get("state.last_up"))

	resp, err = f.svc.Up(ctx, devRequest)
	require.NoError(t, err)
	assert.False(t, resp.Created)
	assert.Len(t, f.runtime.runs, 1, "running container is left alone")
}

func TestInstanceService_UpFailsBeforeRuntime(t *testing.T) {
	f := newInstanceFixture(nil)

	_, err := f.svc.Up(context.Background(), devRequest)

	var missing *apperrors.MissingRequiredFieldError
	require.True(t, errors.As(err, &missing))
	assert.Empty(t, f.runtime.calls)
	assert.Empty(t, f.store.docs)
}

func TestInstanceService_UpRuntimeFailureWritesNothing(t *testing.T) {
	f := newInstanceFixture(map[string]string{"DBLAB_PG_PASSWORD": "secret123"})
	f.runtime.runErr = errors.New("image not found")

	_, err := f.svc.Up(context.Background(), devRequest)

	var rtErr *apperrors.RuntimeError
	require.True(t, errors.As(err, &rtErr))
	assert.Empty(t, f.store.docs)
}

func TestInstanceService_StateWriteFailureIsReported(t *testing.T) {
	f := newInstanceFixture(map[string]string{"DBLAB_PG_PASSWORD": "secret123"})
	f.store.failOn = "update"

	_, err := f.svc.Up(context.Background(), devRequest)

	var stateErr *apperrors.StateError
	require.True(t, errors.As(err, &stateErr))
	assert.Len(t, f.runtime.runs, 1, "the container stays up")
}

func TestInstanceService_DownAndStatus(t *testing.T) {
	f := newInstanceFixture(map[string]string{"DBLAB_PG_PASSWORD": "secret123"})
	ctx := context.Background()

	_, err := f.svc.Up(ctx, devRequest)
	require.NoError(t, err)

	status, err := f.svc.Status(ctx, devRequest)
	require.NoError(t, err)
	assert.Equal(t, values.StatusRunning, status.Status)
	assert.Equal(t, values.StatusRunning, status.RecordedStatus)

	_, err = f.svc.Down(ctx, devRequest)
	require.NoError(t, err)
	assert.Contains(t, f.runtime.calls, "stop dblab-postgres-dev")
	assert.Equal(t, "stopped", f.store.docs["postgres/dev"].Get("state.status"))
	assert.Equal(t, "2026-03-04T05:06:07Z", f.store.docs["postgres/dev"].Get("state.last_down"))

	status, err = f.svc.Status(ctx, devRequest)
	require.NoError(t, err)
	assert.Equal(t, values.StatusStopped, status.Status)

	_, err = f.svc.Up(ctx, devRequest)
	require.NoError(t, err)
	assert.Contains(t, f.runtime.calls, "start dblab-postgres-dev")
}

func TestInstanceService_DownRequiresInstance(t *testing.T) {
	f := newInstanceFixture(map[string]string{"DBLAB_PG_PASSWORD": "secret123"})

	for name, action := range map[string]func(context.Context, dto.InstanceRequest) (*dto.InstanceResponse, error){
		"down":    f.svc.Down,
		"status":  f.svc.Status,
		"destroy": f.svc.Destroy,
	} {
		_, err := action(context.Background(), devRequest)
		var verrs *apperrors.ValidationErrors
		require.True(t, errors.As(err, &verrs), name)
		assert.Equal(t, []string{"instance-exists"}, verrs.Rules(), name)
	}
	assert.Empty(t, f.runtime.calls)
}

func TestInstanceService_Destroy(t *testing.T) {
	f := newInstanceFixture(map[string]string{"DBLAB_PG_PASSWORD": "secret123"})
	ctx := context.Background()

	_, err := f.svc.Up(ctx, devRequest)
	require.NoError(t, err)

	_, err = f.svc.Destroy(ctx, devRequest)
	require.NoError(t, err)
	assert.Empty(t, f.runtime.containers)
	assert.Empty(t, f.runtime.networks)
	assert.Empty(t, f.store.docs)
}

type upOnlyEngine struct {
	ups int
}

func (e *upOnlyEngine) Name() string { return "postgres" }

func (e *upOnlyEngine) Up(context.Context, *ports.EngineContext) error {
	e.ups++
	return nil
}

func TestInstanceService_EngineCapabilitiesFallBack(t *testing.T) {
	engine := &upOnlyEngine{}
	f := newInstanceFixture(map[string]string{"DBLAB_PG_PASSWORD": "secret123"}, engine)
	ctx := context.Background()

	_, err := f.svc.Up(ctx, devRequest)
	require.NoError(t, err)
	assert.Equal(t, 1, engine.ups)
	assert.Empty(t, f.runtime.runs, "custom Up replaces the container one")

	status, err := f.svc.Status(ctx, devRequest)
	require.NoError(t, err)
	assert.Equal(t, values.StatusMissing, status.Status, "status falls back to the container engine")
}

func TestInstanceService_SetRuntime(t *testing.T) {
	f := newInstanceFixture(map[string]string{"DBLAB_PG_PASSWORD": "secret123"})
	ctx := context.Background()

	_, err := f.svc.Up(ctx, devRequest)
	require.NoError(t, err)

	err = f.svc.SetRuntime(ctx, dto.SetRuntimeRequest{Engine: "postgres", Instance: "dev", Key: "port", Value: "6000"})
	require.NoError(t, err)
	assert.Equal(t, "6000", f.store.docs["postgres/dev"].Get("runtime.network.port"))

	err = f.svc.SetRuntime(ctx, dto.SetRuntimeRequest{Engine: "postgres", Instance: "dev", Key: "db.user", Value: "x"})
	var cfgErr *apperrors.ConfigurationError
	require.True(t, errors.As(err, &cfgErr))

	err = f.svc.SetRuntime(ctx, dto.SetRuntimeRequest{Engine: "postgres", Instance: "dev", Key: "port", Unset: true})
	require.NoError(t, err)
	_, ok := f.store.docs["postgres/dev"].Lookup("runtime.network.port")
	assert.False(t, ok)

	err = f.svc.SetRuntime(ctx, dto.SetRuntimeRequest{Engine: "postgres", Instance: "prod", Key: "port", Value: "1"})
	assert.ErrorIs(t, err, apperrors.ErrInstanceNotFound)
}

func TestInstanceService_List(t *testing.T) {
	f := newInstanceFixture(nil)
	f.store.docs["postgres/a"] = entities.FlatDocument{
		"id": "1", "version": "16", "created_at": "2026-01-02T03:04:05Z", "state.status": "running",
	}
	f.store.docs["postgres/b"] = entities.FlatDocument{"id": "2", "state.status": "bogus"}
	f.store.docs["mysql/c"] = entities.FlatDocument{"id": "3"}

	rows, err := f.svc.List(context.Background(), dto.ListRequest{Concurrency: 2})
	require.NoError(t, err)
	require.Len(t, rows, 3)

	assert.Equal(t, "mysql/c", rows[0].Ref.String())
	assert.Equal(t, values.StatusCreated, rows[0].Status)
	assert.Equal(t, "postgres/a", rows[1].Ref.String())
	assert.Equal(t, values.StatusRunning, rows[1].Status)
	assert.Equal(t, "16", rows[1].Version)
	assert.Equal(t, 2026, rows[1].CreatedAt.Year())
	assert.Equal(t, values.StatusUnknown, rows[2].Status)

	rows, err = f.svc.List(context.Background(), dto.ListRequest{Engine: "mysql"})
	require.NoError(t, err)
	require.Len(t, rows, 1)
	assert.Equal(t, "3", rows[0].ID)
}
