package container

import (
	"bytes"
	"context"
	"errors"
	"io"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dblab-dev/dblab/internal/application/dto"
	"github.com/dblab-dev/dblab/internal/domain/entities"
	domainservices "github.com/dblab-dev/dblab/internal/domain/services"
	"github.com/dblab-dev/dblab/internal/domain/values"
	"github.com/dblab-dev/dblab/internal/infrastructure/runtime"
)

func noRuntime(string) (string, error) {
	return "", errors.New("not on PATH")
}

func newTestContainer(t *testing.T, env map[string]string, stdout io.Writer) *Container {
	t.Helper()
	dir := t.TempDir()

	environ := make([]string, 0, len(env))
	for k, v := range env {
		environ = append(environ, k+"="+v)
	}

	c, err := New(Options{
		SystemConfigPath: filepath.Join(dir, "config.yaml"),
		DataRoot:         filepath.Join(dir, "data"),
		Stdout:           stdout,
		Environ:          func() []string { return environ },
		LookupEnv: func(key string) (string, bool) {
			v, ok := env[key]
			return v, ok
		},
		LookPath: noRuntime,
	})
	require.NoError(t, err)
	return c
}

func TestNew_Defaults(t *testing.T) {
	c := newTestContainer(t, nil, nil)

	assert.NotNil(t, c.ResolveConfigUseCase())
	assert.NotNil(t, c.InstanceService())
	assert.NotNil(t, c.RunSQLUseCase())
	assert.NotNil(t, c.Redactor())
	assert.NotNil(t, c.FormatterFactory())
	assert.Equal(t, "auto", c.RuntimeConfig().Runtime)
	assert.Positive(t, c.RuntimeConfig().ListConcurrency)

	_, unavailable := c.Runtime().(runtime.Unavailable)
	assert.True(t, unavailable, "no runtime on PATH")

	names, err := c.Metadata().Engines()
	require.NoError(t, err)
	assert.Contains(t, names, "postgres")
	assert.Contains(t, names, "sqlite")
}

func TestNew_SystemConfigFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte("data_root: "+filepath.Join(dir, "from-file")+"\nruntime: podman\n"), 0o600))

	c, err := New(Options{SystemConfigPath: path, LookPath: noRuntime})
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(dir, "from-file"), c.RuntimeConfig().DataRoot)
	assert.Equal(t, "podman", c.RuntimeConfig().Runtime)

	c, err = New(Options{SystemConfigPath: path, DataRoot: filepath.Join(dir, "flag"), LookPath: noRuntime})
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(dir, "flag"), c.RuntimeConfig().DataRoot, "options win over the file")
}

func TestNew_EnginesDirShadowsBundled(t *testing.T) {
	dir := t.TempDir()
	enginesDir := filepath.Join(dir, "engines")
	require.NoError(t, os.MkdirAll(filepath.Join(enginesDir, "postgres"), 0o755))
	require.NoError(t, os.WriteFile(filepath.Join(enginesDir, "postgres", "metadata.yml"), []byte(
		"engine: postgres\nrequired_env:\n  - DBLAB_PG_PASSWORD\ndefaults:\n  DBLAB_PG_USER: admin\ndefaults_map:\n  DBLAB_PG_USER: db.user\n"+
			"version:\n  default: \"15\"\n  supported:\n    - \"15\"\ninstance_fields:\n  fixed:\n    - db.user\n"+
			"env_vars:\n  - name: DBLAB_PG_PASSWORD\n    map: db.password\n"), 0o600))

	c, err := New(Options{
		SystemConfigPath: filepath.Join(dir, "config.yaml"),
		DataRoot:         filepath.Join(dir, "data"),
		EnginesDir:       enginesDir,
		LookPath:         noRuntime,
	})
	require.NoError(t, err)

	meta, err := c.Metadata().Load("postgres")
	require.NoError(t, err)
	assert.Equal(t, "15", meta.Defaults.Get("version"))
	assert.Equal(t, "admin", meta.Defaults.Get("db.user"))

	assert.Equal(t, filepath.Join(enginesDir, "postgres", "metadata.yml"), c.MetadataPath("postgres"))
	assert.Equal(t, "engines/sqlite/metadata.yml", c.MetadataPath("sqlite"))
}

// A fresh postgres instance resolves from the process environment, passes
// validation, and gets a document without runtime state.
func TestPostgresScenario(t *testing.T) {
	c := newTestContainer(t, map[string]string{"DBLAB_PG_PASSWORD": "secret123"}, nil)
	ctx := context.Background()

	resp, err := c.ResolveConfigUseCase().Execute(ctx, dto.ResolveRequest{
		Engine:          "postgres",
		Instance:        "dev",
		Verb:            domainservices.VerbUp,
		EnforceRequired: true,
	})
	require.NoError(t, err)

	cfg := resp.Config
	assert.Equal(t, "postgres", cfg.Get("db.user"))
	assert.Equal(t, "secret123", cfg.Get("db.password"))
	assert.Equal(t, "dblab-postgres-dev", cfg.Get("container.name"))
	assert.Equal(t, "docker.io/library/postgres:16", cfg.Get("image"))
	assert.Equal(t, filepath.Join(c.RuntimeConfig().DataRoot, "postgres", "dev", "data"), cfg.Get("storage.data"))

	report, err := c.ResolveConfigUseCase().Execute(ctx, dto.ResolveRequest{
		Engine:     "postgres",
		Instance:   "dev",
		Verb:       domainservices.VerbValidate,
		ReportOnly: true,
	})
	require.NoError(t, err)
	assert.True(t, report.Passed())

	created, err := c.Store().CreateInitial(cfg, resp.Metadata.FixedFields)
	require.NoError(t, err)
	assert.True(t, created)

	record, err := c.Store().Read("postgres", "dev")
	require.NoError(t, err)
	assert.Equal(t, "secret123", record.Fixed().Get("db.password"))
	assert.Empty(t, record.Status())
	_, hasStatus := record.State().Lookup(entities.StateStatus)
	assert.False(t, hasStatus)
}

func TestPostgresScenario_MissingPassword(t *testing.T) {
	c := newTestContainer(t, nil, nil)

	_, err := c.InstanceService().Up(context.Background(), dto.InstanceRequest{Engine: "postgres", Instance: "dev"})
	require.Error(t, err)
	assert.False(t, c.Store().Exists("postgres", "dev"), "nothing is written when resolution fails")
}

func TestSQLiteLifecycle(t *testing.T) {
	var stdout bytes.Buffer
	c := newTestContainer(t, nil, &stdout)
	ctx := context.Background()
	req := dto.InstanceRequest{Engine: "sqlite", Instance: "dev"}

	up, err := c.InstanceService().Up(ctx, req)
	require.NoError(t, err)
	assert.True(t, up.Created)

	dbFile := filepath.Join(c.RuntimeConfig().DataRoot, "sqlite", "dev", "data", "dev.db")
	assert.FileExists(t, dbFile)

	status, err := c.InstanceService().Status(ctx, req)
	require.NoError(t, err)
	assert.Equal(t, values.StatusRunning, status.Status)
	assert.Equal(t, values.StatusRunning, status.RecordedStatus)

	script := filepath.Join(t.TempDir(), "schema.sql")
	require.NoError(t, os.WriteFile(script, []byte("CREATE TABLE notes (body TEXT);"), 0o600))

	ran, err := c.RunSQLUseCase().Execute(ctx, dto.RunSQLRequest{Engine: "sqlite", Instance: "dev", Paths: []string{script}})
	require.NoError(t, err)
	assert.Equal(t, 1, ran.Executed)
	assert.Equal(t, dbFile, ran.DatabasePath)
	assert.Contains(t, stdout.String(), "Executing: "+script)

	_, err = c.InstanceService().Destroy(ctx, req)
	require.NoError(t, err)
	assert.NoFileExists(t, dbFile)
	assert.False(t, c.Store().Exists("sqlite", "dev"))
}
