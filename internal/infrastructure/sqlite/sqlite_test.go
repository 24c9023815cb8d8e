package sqlite

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	apperrors "github.com/dblab-dev/dblab/internal/application/errors"
	"github.com/dblab-dev/dblab/internal/application/ports"
	"github.com/dblab-dev/dblab/internal/domain/entities"
	"github.com/dblab-dev/dblab/internal/domain/values"
)

func writeScript(t *testing.T, dir, name, body string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	require.NoError(t, os.WriteFile(path, []byte(body), 0o600))
	return path
}

func TestExecutor_ExecFiles(t *testing.T) {
	dir := t.TempDir()
	dbPath := filepath.Join(dir, "app.db")
	files := []string{
		writeScript(t, dir, "01_schema.sql", "CREATE TABLE users (id INTEGER PRIMARY KEY, name TEXT);\nCREATE TABLE tags (name TEXT);"),
		writeScript(t, dir, "02_seed.sql", "INSERT INTO users (name) VALUES ('ada');\nINSERT INTO users (name) VALUES ('linus');"),
	}

	var lines []string
	exec := NewExecutor(slog.Default(), func(format string, args ...any) {
		lines = append(lines, strings.TrimSpace(fmt.Sprintf(format, args...)))
	})

	n, err := exec.ExecFiles(context.Background(), dbPath, files)
	require.NoError(t, err)
	assert.Equal(t, 2, n)
	assert.Equal(t, []string{
		"Connecting to SQLite DB: " + dbPath,
		"Executing: " + files[0],
		"Executing: " + files[1],
		"Execution complete.",
	}, lines)

	db, err := Open(dbPath)
	require.NoError(t, err)
	defer db.Close()

	var count int
	require.NoError(t, db.QueryRow("SELECT count(*) FROM users").Scan(&count))
	assert.Equal(t, 2, count)
}

func TestExecutor_StopsAtFailingFile(t *testing.T) {
	dir := t.TempDir()
	files := []string{
		writeScript(t, dir, "01.sql", "CREATE TABLE t (x INTEGER);"),
		writeScript(t, dir, "02.sql", "INSERT INTO missing VALUES (1);"),
		writeScript(t, dir, "03.sql", "INSERT INTO t VALUES (1);"),
	}

	n, err := NewExecutor(nil, nil).ExecFiles(context.Background(), filepath.Join(dir, "app.db"), files)
	require.Error(t, err)
	assert.Equal(t, 1, n)
	assert.Contains(t, err.Error(), "02.sql")
}

func engineContext(dbFile string) *ports.EngineContext {
	cfg := entities.NewResolvedConfig(entities.InstanceRef{Engine: EngineName, Instance: "dev"})
	if dbFile != "" {
		cfg.Values.Set(KeyDatabaseFile, dbFile)
	}
	return &ports.EngineContext{Config: cfg, Logger: slog.Default()}
}

func TestEngine_Lifecycle(t *testing.T) {
	dbFile := filepath.Join(t.TempDir(), "sqlite", "dev", "data", "dev.db")
	ec := engineContext(dbFile)
	ctx := context.Background()
	engine := Engine{}

	status, err := engine.Status(ctx, ec)
	require.NoError(t, err)
	assert.Equal(t, values.StatusMissing, status)

	require.NoError(t, engine.Up(ctx, ec))
	assert.FileExists(t, dbFile)

	status, err = engine.Status(ctx, ec)
	require.NoError(t, err)
	assert.Equal(t, values.StatusRunning, status)

	require.NoError(t, engine.Down(ctx, ec))
	assert.FileExists(t, dbFile)

	require.NoError(t, engine.Destroy(ctx, ec))
	assert.NoFileExists(t, dbFile)
	require.NoError(t, engine.Destroy(ctx, ec), "destroying twice is fine")
}

func TestEngine_RequiresDatabaseFile(t *testing.T) {
	err := Engine{}.Up(context.Background(), engineContext(""))
	var cfgErr *apperrors.ConfigurationError
	assert.True(t, errors.As(err, &cfgErr))
}
