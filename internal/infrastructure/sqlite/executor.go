// Package sqlite implements the SQLite engine and script execution on top
// of the pure Go modernc driver.
package sqlite

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
	"os"

	_ "modernc.org/sqlite" // registers the "sqlite" driver

	"github.com/dblab-dev/dblab/internal/application/ports"
)

// DriverName is the database/sql driver registered by modernc.org/sqlite.
const DriverName = "sqlite"

// Executor runs SQL script files against a database file.
type Executor struct {
	logger *slog.Logger
	out    func(format string, args ...any)
}

var _ ports.SQLExecutor = (*Executor)(nil)

// NewExecutor creates an executor. progress receives one line per file
// executed; nil discards it.
func NewExecutor(logger *slog.Logger, progress func(format string, args ...any)) *Executor {
	if logger == nil {
		logger = slog.Default()
	}
	if progress == nil {
		progress = func(string, ...any) {}
	}
	return &Executor{logger: logger, out: progress}
}

// Open opens dbPath with a single connection.
func Open(dbPath string) (*sql.DB, error) {
	db, err := sql.Open(DriverName, dbPath)
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}
	db.SetMaxOpenConns(1)
	return db, nil
}

// ExecFiles executes each file as a script, in order, over one connection.
// It stops at the first failing file and returns how many succeeded.
func (e *Executor) ExecFiles(ctx context.Context, dbPath string, files []string) (int, error) {
	e.out("Connecting to SQLite DB: %s\n", dbPath)

	db, err := Open(dbPath)
	if err != nil {
		return 0, err
	}
	defer db.Close()

	conn, err := db.Conn(ctx)
	if err != nil {
		return 0, fmt.Errorf("connect %s: %w", dbPath, err)
	}
	defer conn.Close()

	for i, file := range files {
		script, err := os.ReadFile(file)
		if err != nil {
			return i, fmt.Errorf("read %s: %w", file, err)
		}

		e.out("Executing: %s\n", file)
		e.logger.Debug("executing sql script", "file", file, "bytes", len(script))
		if _, err := conn.ExecContext(ctx, string(script)); err != nil {
			return i, fmt.Errorf("execute %s: %w", file, err)
		}
	}

	e.out("Execution complete.\n")
	return len(files), nil
}
