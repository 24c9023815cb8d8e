// Package filesystem persists instance documents under the data root:
// <root>/<engine>/<instance>/instance.yml.
package filesystem

import (
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"github.com/google/uuid"

	apperrors "github.com/dblab-dev/dblab/internal/application/errors"
	"github.com/dblab-dev/dblab/internal/domain/entities"
	"github.com/dblab-dev/dblab/internal/domain/values"
	"github.com/dblab-dev/dblab/internal/infrastructure/flatyaml"
)

const lockFileName = ".lock"

// Keys copied from the resolved configuration into every new instance
// document, in addition to the engine's fixed fields and storage.* keys.
var baseKeys = []string{"version", "image", "network.mode", "network.name"}

// InstanceStore reads and writes instance documents.
//
// Every write renders the whole document to a sibling ".tmp" file and
// renames it over the target. Writers of the same instance serialize on an
// advisory lock file in the instance directory where the platform supports
// it.
type InstanceStore struct {
	logger *slog.Logger
	now    func() time.Time
	newID  func() string
	root   string
}

// Option configures an InstanceStore.
type Option func(*InstanceStore)

// WithClock overrides the creation timestamp source.
func WithClock(now func() time.Time) Option {
	return func(s *InstanceStore) { s.now = now }
}

// WithIDGenerator overrides the instance id source.
func WithIDGenerator(newID func() string) Option {
	return func(s *InstanceStore) { s.newID = newID }
}

// NewInstanceStore creates a store rooted at root.
func NewInstanceStore(root string, logger *slog.Logger, opts ...Option) *InstanceStore {
	if logger == nil {
		logger = slog.Default()
	}
	s := &InstanceStore{
		logger: logger,
		now:    time.Now,
		newID:  func() string { return uuid.NewString() },
		root:   root,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Root returns the data root.
func (s *InstanceStore) Root() string {
	return s.root
}

// Dir returns the directory owning the instance document.
func (s *InstanceStore) Dir(engine, instance string) (string, error) {
	if _, err := values.NewResourceName("engine", engine); err != nil {
		return "", err
	}
	if _, err := values.NewResourceName("instance", instance); err != nil {
		return "", err
	}
	return filepath.Join(s.root, engine, instance), nil
}

// Path returns the location of the instance document.
func (s *InstanceStore) Path(engine, instance string) (string, error) {
	dir, err := s.Dir(engine, instance)
	if err != nil {
		return "", err
	}
	return filepath.Join(dir, entities.InstanceFileName), nil
}

// Exists reports whether the instance document exists.
// Invalid names never exist.
func (s *InstanceStore) Exists(engine, instance string) bool {
	path, err := s.Path(engine, instance)
	if err != nil {
		return false
	}
	_, err = os.Stat(path)
	return err == nil
}

// Read loads the instance document. A missing document is reported as a
// *apperrors.StateError wrapping apperrors.ErrInstanceNotFound.
func (s *InstanceStore) Read(engine, instance string) (*entities.InstanceRecord, error) {
	path, err := s.Path(engine, instance)
	if err != nil {
		return nil, apperrors.NewStateError("read", engine+"/"+instance, err)
	}
	return s.read(entities.InstanceRef{Engine: engine, Instance: instance}, path)
}

func (s *InstanceStore) read(ref entities.InstanceRef, path string) (*entities.InstanceRecord, error) {
	doc, stats, err := flatyaml.ParseFile(path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, apperrors.NewStateError("read", path, apperrors.ErrInstanceNotFound)
		}
		return nil, apperrors.NewStateError("read", path, err)
	}
	if len(stats.Skipped) > 0 {
		s.logger.Warn("ignored unrecognized instance document lines",
			"instance", ref.String(), "lines", stats.Skipped)
	}
	return entities.NewInstanceRecord(ref, doc), nil
}

// CreateInitial writes the instance document for cfg unless one already
// exists. It reports whether a document was written.
//
// The document holds id, engine, instance, created_at, version, image,
// network mode and name, every fixed field present in cfg and every
// storage.* key. No state keys are written.
func (s *InstanceStore) CreateInitial(cfg *entities.ResolvedConfig, fixedFields []string) (bool, error) {
	dir, err := s.Dir(cfg.Ref.Engine, cfg.Ref.Instance)
	if err != nil {
		return false, apperrors.NewStateError("create", cfg.Ref.String(), err)
	}
	//nolint:gosec // G301: instance directories are traversed by container runtimes
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return false, apperrors.NewStateError("create", dir, err)
	}

	created := false
	err = s.withLock(dir, func() error {
		path := filepath.Join(dir, entities.InstanceFileName)
		if _, err := os.Stat(path); err == nil {
			return nil
		}

		doc := entities.NewFlatDocument()
		doc.Set(entities.KeyID, s.newID())
		doc.Set("engine", cfg.Ref.Engine)
		doc.Set("instance", cfg.Ref.Instance)
		doc.Set(entities.KeyCreatedAt, s.now().UTC().Format(time.RFC3339))
		for _, k := range baseKeys {
			if v, ok := cfg.Values.Lookup(k); ok {
				doc.Set(k, v)
			}
		}
		for _, k := range fixedFields {
			if v, ok := cfg.Values.Lookup(k); ok {
				doc.Set(k, v)
			}
		}
		for k, v := range cfg.Values {
			if strings.HasPrefix(k, "storage.") {
				doc.Set(k, v)
			}
		}

		if err := writeAtomic(path, doc); err != nil {
			return apperrors.NewStateError("create", path, err)
		}
		created = true
		return nil
	})
	if err != nil {
		return false, err
	}

	if created {
		s.logger.Info("created instance document", "instance", cfg.Ref.String())
	}
	return created, nil
}

// UpdateState sets state.<key> = value in an existing document.
func (s *InstanceStore) UpdateState(engine, instance, key, value string) error {
	return s.update(engine, instance, "update", func(doc entities.FlatDocument) error {
		if key == "" {
			return errors.New("state key cannot be empty")
		}
		doc.Set(entities.StateSection+"."+key, value)
		return nil
	})
}

// SetRuntime persists a mutable override as runtime.<key> = value.
func (s *InstanceStore) SetRuntime(engine, instance, key, value string) error {
	return s.update(engine, instance, "set-runtime", func(doc entities.FlatDocument) error {
		if key == "" {
			return errors.New("runtime key cannot be empty")
		}
		doc.Set(entities.RuntimeSection+"."+key, value)
		return nil
	})
}

// UnsetRuntime removes a persisted override. It reports whether the key existed.
func (s *InstanceStore) UnsetRuntime(engine, instance, key string) (bool, error) {
	removed := false
	err := s.update(engine, instance, "unset-runtime", func(doc entities.FlatDocument) error {
		full := entities.RuntimeSection + "." + key
		if _, ok := doc[full]; ok {
			delete(doc, full)
			removed = true
		}
		return nil
	})
	return removed, err
}

// update runs a read-modify-write cycle under the instance lock.
func (s *InstanceStore) update(engine, instance, op string, mutate func(entities.FlatDocument) error) error {
	dir, err := s.Dir(engine, instance)
	if err != nil {
		return apperrors.NewStateError(op, engine+"/"+instance, err)
	}
	path := filepath.Join(dir, entities.InstanceFileName)
	if _, err := os.Stat(path); err != nil {
		return apperrors.NewStateError(op, path, apperrors.ErrInstanceNotFound)
	}

	return s.withLock(dir, func() error {
		rec, err := s.read(entities.InstanceRef{Engine: engine, Instance: instance}, path)
		if err != nil {
			return err
		}
		if err := mutate(rec.Document); err != nil {
			return apperrors.NewStateError(op, path, err)
		}
		if err := writeAtomic(path, rec.Document); err != nil {
			return apperrors.NewStateError(op, path, err)
		}
		return nil
	})
}

// List returns every instance that has a document, sorted by engine then
// instance.
func (s *InstanceStore) List() ([]entities.InstanceRef, error) {
	engineDirs, err := os.ReadDir(s.root)
	if errors.Is(err, fs.ErrNotExist) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to list data root: %w", err)
	}

	var refs []entities.InstanceRef
	for _, e := range engineDirs {
		if !e.IsDir() {
			continue
		}
		instanceDirs, err := os.ReadDir(filepath.Join(s.root, e.Name()))
		if err != nil {
			return nil, fmt.Errorf("failed to list engine %s: %w", e.Name(), err)
		}
		for _, i := range instanceDirs {
			if i.IsDir() && s.Exists(e.Name(), i.Name()) {
				refs = append(refs, entities.InstanceRef{Engine: e.Name(), Instance: i.Name()})
			}
		}
	}

	sort.Slice(refs, func(a, b int) bool {
		if refs[a].Engine != refs[b].Engine {
			return refs[a].Engine < refs[b].Engine
		}
		return refs[a].Instance < refs[b].Instance
	})
	return refs, nil
}

// Remove deletes the instance directory and everything in it.
func (s *InstanceStore) Remove(engine, instance string) error {
	dir, err := s.Dir(engine, instance)
	if err != nil {
		return apperrors.NewStateError("remove", engine+"/"+instance, err)
	}
	if err := os.RemoveAll(dir); err != nil {
		return apperrors.NewStateError("remove", dir, err)
	}
	s.logger.Info("removed instance directory", "dir", dir)
	return nil
}

func (s *InstanceStore) withLock(dir string, fn func() error) error {
	unlock, err := lockFile(filepath.Join(dir, lockFileName))
	if err != nil {
		return apperrors.NewStateError("lock", dir, err)
	}
	defer unlock()
	return fn()
}

// writeAtomic renders doc next to path and renames it into place.
func writeAtomic(path string, doc entities.FlatDocument) error {
	tmp := path + ".tmp"
	if err := os.WriteFile(tmp, []byte(flatyaml.Render(doc)), 0o600); err != nil {
		return err
	}
	if err := os.Rename(tmp, path); err != nil {
		_ = os.Remove(tmp)
		return err
	}
	return nil
}
