package services

import (
	"context"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"slices"
	"strings"

	"github.com/dblab-dev/dblab/internal/application/dto"
	apperrors "github.com/dblab-dev/dblab/internal/application/errors"
	"github.com/dblab-dev/dblab/internal/application/ports"
	domainservices "github.com/dblab-dev/dblab/internal/domain/services"
)

// SQLitePathVariable names the database path in a .env file when run-sql
// is not pointed at an instance.
const SQLitePathVariable = "SQLITE_DB_PATH"

// KeyDatabaseFile is the resolved key holding a SQLite database path.
const KeyDatabaseFile = "storage.db_file"

// RunSQLUseCase executes .sql files against a SQLite database.
type RunSQLUseCase struct {
	resolver  *ResolveConfigUseCase
	executor  ports.SQLExecutor
	dotenv    ports.DotEnvLoader
	lookupEnv func(string) (string, bool)
	logger    *slog.Logger
}

// NewRunSQLUseCase creates the run-sql use case. lookupEnv nil means
// os.LookupEnv.
func NewRunSQLUseCase(
	resolver *ResolveConfigUseCase,
	executor ports.SQLExecutor,
	dotenv ports.DotEnvLoader,
	lookupEnv func(string) (string, bool),
	logger *slog.Logger,
) *RunSQLUseCase {
	if logger == nil {
		logger = slog.Default()
	}
	if lookupEnv == nil {
		lookupEnv = os.LookupEnv
	}
	return &RunSQLUseCase{
		resolver:  resolver,
		executor:  executor,
		dotenv:    dotenv,
		lookupEnv: lookupEnv,
		logger:    logger,
	}
}

// Execute locates the database, collects the scripts and runs them in
// order. Finding no script is not an error; the response then reports
// zero files.
func (uc *RunSQLUseCase) Execute(ctx context.Context, req dto.RunSQLRequest) (*dto.RunSQLResponse, error) {
	dbPath, err := uc.databasePath(ctx, req)
	if err != nil {
		return nil, err
	}

	//nolint:gosec // G301: the database directory is user data
	if err := os.MkdirAll(filepath.Dir(dbPath), 0o755); err != nil {
		return nil, fmt.Errorf("failed to create database directory: %w", err)
	}

	files, err := CollectSQLFiles(req.Paths, uc.logger)
	if err != nil {
		return nil, err
	}

	resp := &dto.RunSQLResponse{DatabasePath: dbPath, Files: files}
	if len(files) == 0 {
		return resp, nil
	}

	uc.logger.Info("executing sql files", "database", dbPath, "files", len(files))
	resp.Executed, err = uc.executor.ExecFiles(ctx, dbPath, files)
	if err != nil {
		return resp, err
	}
	return resp, nil
}

func (uc *RunSQLUseCase) databasePath(ctx context.Context, req dto.RunSQLRequest) (string, error) {
	if req.Instance != "" {
		resolved, err := uc.resolver.Execute(ctx, dto.ResolveRequest{
			Engine:   req.Engine,
			Instance: req.Instance,
			Verb:     domainservices.VerbSQL,
			EnvFiles: req.EnvFiles,
			Metadata: req.Metadata,
		})
		if err != nil {
			return "", err
		}
		path := resolved.Config.Get(KeyDatabaseFile)
		if path == "" {
			return "", apperrors.NewConfigurationError("run-sql",
				fmt.Sprintf("%s has no %s", resolved.Config.Ref, KeyDatabaseFile), nil)
		}
		return path, nil
	}

	envPath := req.DotEnvPath
	if envPath == "" {
		envPath = ".env"
	}
	found, err := uc.dotenv.Load(envPath)
	if err != nil {
		return "", fmt.Errorf("failed to load %s: %w", envPath, err)
	}
	if !found {
		uc.logger.Warn(".env file not found, proceeding with the process environment", "path", envPath)
	}

	path, ok := uc.lookupEnv(SQLitePathVariable)
	if !ok || path == "" {
		return "", apperrors.NewConfigurationError("run-sql",
			fmt.Sprintf("%s is not set in %s or the environment", SQLitePathVariable, envPath), nil)
	}
	return path, nil
}

// CollectSQLFiles expands paths into the .sql files they name: files with
// a .sql suffix as given, directories searched recursively. The result is
// sorted and free of duplicates. Paths that do not exist are skipped with
// a warning.
func CollectSQLFiles(paths []string, logger *slog.Logger) ([]string, error) {
	if logger == nil {
		logger = slog.Default()
	}

	var files []string
	for _, path := range paths {
		info, err := os.Stat(path)
		if err != nil {
			logger.Warn("skipping sql path", "path", path, "error", err)
			continue
		}

		if !info.IsDir() {
			if isSQLFile(path) {
				files = append(files, path)
			}
			continue
		}

		err = filepath.WalkDir(path, func(p string, d fs.DirEntry, err error) error {
			if err != nil {
				return err
			}
			if !d.IsDir() && isSQLFile(p) {
				files = append(files, p)
			}
			return nil
		})
		if err != nil {
			return nil, fmt.Errorf("failed to walk %s: %w", path, err)
		}
	}

	slices.Sort(files)
	return slices.Compact(files), nil
}

func isSQLFile(path string) bool {
	return strings.HasSuffix(path, ".sql")
}
