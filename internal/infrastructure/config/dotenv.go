package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"

	"github.com/joho/godotenv"

	"github.com/dblab-dev/dblab/internal/application/ports"
)

// DotEnv loads a .env file into the process environment. Variables that
// are already set keep their value.
type DotEnv struct{}

var _ ports.DotEnvLoader = DotEnv{}

// Load reports false without error when path does not exist.
func (DotEnv) Load(path string) (bool, error) {
	if _, err := os.Stat(path); errors.Is(err, fs.ErrNotExist) {
		return false, nil
	}
	if err := godotenv.Load(path); err != nil {
		return false, fmt.Errorf("load %s: %w", path, err)
	}
	return true, nil
}
