package config

import (
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	apperrors "github.com/dblab-dev/dblab/internal/application/errors"
	"github.com/dblab-dev/dblab/internal/domain/entities"
)

func pgMetadata() *entities.EngineMetadata {
	return &entities.EngineMetadata{
		Engine: "postgres",
		EnvVars: []entities.EnvVarDescriptor{
			{Name: "DBLAB_PG_PASSWORD", MapsTo: "db.password", Required: true},
			{Name: "DBLAB_PG_USER", MapsTo: "db.user"},
			{Name: "DBLAB_PG_PORT", MapsTo: "network.port"},
		},
	}
}

func writeFile(t *testing.T, dir, name, content string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))
	return path
}

func environ(vars ...string) func() []string {
	return func() []string { return vars }
}

func TestEnvResolver_Precedence(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	first := writeFile(t, dir, "first.env", "DBLAB_PG_USER=first\nDBLAB_PG_PORT=5433\nDBLAB_PG_PASSWORD=file\n")
	second := writeFile(t, dir, "second.env", "DBLAB_PG_USER=second\n")

	r := NewEnvResolver(nil, environ("DBLAB_PG_PASSWORD=process", "HOME=/home/x"))
	layer, err := r.Resolve(pgMetadata(), []string{first, second})
	require.NoError(t, err)

	assert.Equal(t, entities.FlatDocument{
		"db.user":      "second",
		"network.port": "5433",
		"db.password":  "process",
	}, layer)
}

func TestEnvResolver_DropsUnmappedAndUnprefixed(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	file := writeFile(t, dir, ".env", "DBLAB_TYPO_USER=x\nPGPASSWORD=nope\nDBLAB_PG_USER=ok\n")

	r := NewEnvResolver(nil, environ("DBLAB_UNRELATED=1", "PATH=/bin"))
	layer, err := r.Resolve(pgMetadata(), []string{file})
	require.NoError(t, err)
	assert.Equal(t, entities.FlatDocument{"db.user": "ok"}, layer)
}

func TestEnvResolver_MissingFileIsFatal(t *testing.T) {
	t.Parallel()

	r := NewEnvResolver(nil, environ())
	_, err := r.Resolve(pgMetadata(), []string{filepath.Join(t.TempDir(), "missing.env")})
	require.Error(t, err)

	var ioErr *apperrors.ParseIOError
	assert.True(t, errors.As(err, &ioErr))
}

func TestEnvResolver_NoFiles(t *testing.T) {
	t.Parallel()

	r := NewEnvResolver(nil, environ("DBLAB_PG_PASSWORD=secret123"))
	layer, err := r.Resolve(pgMetadata(), nil)
	require.NoError(t, err)
	assert.Equal(t, entities.FlatDocument{"db.password": "secret123"}, layer)
}

func TestParseEnv(t *testing.T) {
	t.Parallel()

	data := []byte(`# comment
DBLAB_A=1

  DBLAB_B = two words
export DBLAB_C=x=y
DBLAB_D="quoted"
not a pair
=novalue
`)
	got := ParseEnv(data)
	assert.Equal(t, map[string]string{
		"DBLAB_A": "1",
		"DBLAB_B": "two words",
		"DBLAB_C": "x=y",
		"DBLAB_D": `"quoted"`,
	}, got)
}

func TestWriteEnvFile(t *testing.T) {
	t.Parallel()

	path := filepath.Join(t.TempDir(), "nested", ".env")
	require.NoError(t, WriteEnvFile(path, map[string]string{"B": "2", "A": "1"}, "generated"))

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t, "# generated\nA=1\nB=2\n", string(data))

	info, err := os.Stat(path)
	require.NoError(t, err)
	assert.Equal(t, os.FileMode(0o600), info.Mode().Perm())

	parsed, err := ParseEnvFile(path)
	require.NoError(t, err)
	assert.Equal(t, map[string]string{"A": "1", "B": "2"}, parsed)
}
