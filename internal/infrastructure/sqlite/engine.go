package sqlite

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"

	apperrors "github.com/dblab-dev/dblab/internal/application/errors"
	"github.com/dblab-dev/dblab/internal/application/ports"
	"github.com/dblab-dev/dblab/internal/domain/values"
)

// EngineName is the metadata name of the SQLite engine.
const EngineName = "sqlite"

// KeyDatabaseFile holds the resolved database file path.
const KeyDatabaseFile = "storage.db_file"

// Engine manages SQLite instances. An instance is a database file, so Down
// has nothing to stop and falls back to a no-op.
type Engine struct{}

var (
	_ ports.Upper          = Engine{}
	_ ports.Downer         = Engine{}
	_ ports.StatusReporter = Engine{}
	_ ports.Destroyer      = Engine{}
)

// Name returns "sqlite".
func (Engine) Name() string { return EngineName }

func dbFile(ec *ports.EngineContext) (string, error) {
	path := ec.Config.Get(KeyDatabaseFile)
	if path == "" {
		return "", apperrors.NewConfigurationError(KeyDatabaseFile, "sqlite instance has no database file configured", nil)
	}
	return path, nil
}

// Up creates the database file when missing and checks it opens.
func (Engine) Up(ctx context.Context, ec *ports.EngineContext) error {
	path, err := dbFile(ec)
	if err != nil {
		return err
	}

	//nolint:gosec // G301: the data directory is shared with database tooling
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return apperrors.NewRuntimeError("create", path, err)
	}

	db, err := Open(path)
	if err != nil {
		return apperrors.NewRuntimeError("open", path, err)
	}
	defer db.Close()

	if err := db.PingContext(ctx); err != nil {
		return apperrors.NewRuntimeError("open", path, err)
	}
	ec.Logger.Info("sqlite database ready", "path", path)
	return nil
}

// Down is a no-op.
func (Engine) Down(_ context.Context, ec *ports.EngineContext) error {
	ec.Logger.Debug("sqlite instances have nothing to stop", "instance", ec.Config.Ref.String())
	return nil
}

// Status reports running while the database file exists.
func (Engine) Status(_ context.Context, ec *ports.EngineContext) (values.InstanceStatus, error) {
	path, err := dbFile(ec)
	if err != nil {
		return values.StatusUnknown, err
	}
	_, err = os.Stat(path)
	switch {
	case err == nil:
		return values.StatusRunning, nil
	case errors.Is(err, fs.ErrNotExist):
		return values.StatusMissing, nil
	default:
		return values.StatusUnknown, fmt.Errorf("stat %s: %w", path, err)
	}
}

// Destroy removes the database file.
func (Engine) Destroy(_ context.Context, ec *ports.EngineContext) error {
	path, err := dbFile(ec)
	if err != nil {
		return err
	}
	if err := os.Remove(path); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return apperrors.NewRuntimeError("remove", path, err)
	}
	return nil
}
