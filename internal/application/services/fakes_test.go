package services

import (
	"context"
	"fmt"
	"io/fs"
	"sort"
	"strings"
	"sync"

	apperrors "github.com/dblab-dev/dblab/internal/application/errors"
	"github.com/dblab-dev/dblab/internal/application/ports"
	"github.com/dblab-dev/dblab/internal/domain/entities"
)

type fakeMetadata struct {
	engines map[string]*entities.EngineMetadata
}

func (f *fakeMetadata) Load(engine string) (*entities.EngineMetadata, error) {
	meta, ok := f.engines[engine]
	if !ok {
		return nil, apperrors.NewMetadataError(engine, "metadata not found", fs.ErrNotExist)
	}
	return meta, nil
}

func (f *fakeMetadata) Engines() ([]string, error) {
	var names []string
	for name := range f.engines {
		names = append(names, name)
	}
	sort.Strings(names)
	return names, nil
}

type fakeEnv struct {
	err  error
	vars map[string]string
}

func (f *fakeEnv) Resolve(meta *entities.EngineMetadata, _ []string) (entities.FlatDocument, error) {
	if f.err != nil {
		return nil, f.err
	}
	out := entities.NewFlatDocument()
	for _, d := range meta.EnvVars {
		if v, ok := f.vars[d.Name]; ok {
			out.Set(d.MapsTo, v)
		}
	}
	return out, nil
}

// fakeInterpolator expands {key} references one level deep.
type fakeInterpolator struct{}

func (fakeInterpolator) Interpolate(doc entities.FlatDocument) {
	for _, k := range doc.Keys() {
		doc[k] = fakeInterpolator{}.ExpandString(doc[k], doc)
	}
}

func (fakeInterpolator) ExpandString(s string, doc entities.FlatDocument) string {
	for _, k := range doc.Keys() {
		s = strings.ReplaceAll(s, "{"+k+"}", doc[k])
	}
	return s
}

type fakeStore struct {
	docs    map[string]entities.FlatDocument
	updates []string
	failOn  string
	mu      sync.Mutex
}

func newFakeStore() *fakeStore {
	return &fakeStore{docs: make(map[string]entities.FlatDocument)}
}

func refKey(engine, instance string) string { return engine + "/" + instance }

func (f *fakeStore) Exists(engine, instance string) bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	_, ok := f.docs[refKey(engine, instance)]
	return ok
}

func (f *fakeStore) Read(engine, instance string) (*entities.InstanceRecord, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	doc, ok := f.docs[refKey(engine, instance)]
	if !ok {
		return nil, apperrors.NewStateError("read", refKey(engine, instance), apperrors.ErrInstanceNotFound)
	}
	return entities.NewInstanceRecord(entities.InstanceRef{Engine: engine, Instance: instance}, doc.Clone()), nil
}

func (f *fakeStore) CreateInitial(cfg *entities.ResolvedConfig, fixedFields []string) (bool, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	key := cfg.Ref.String()
	if _, ok := f.docs[key]; ok {
		return false, nil
	}
	doc := entities.FlatDocument{
		"id":         "id-1",
		"engine":     cfg.Ref.Engine,
		"instance":   cfg.Ref.Instance,
		"created_at": "2026-01-02T03:04:05Z",
	}
	for _, k := range append([]string{"version", "image"}, fixedFields...) {
		if v, ok := cfg.Values.Lookup(k); ok {
			doc.Set(k, v)
		}
	}
	f.docs[key] = doc
	return true, nil
}

func (f *fakeStore) update(engine, instance, key, value, op string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if op == f.failOn {
		return apperrors.NewStateError(op, refKey(engine, instance), fmt.Errorf("disk full"))
	}
	doc, ok := f.docs[refKey(engine, instance)]
	if !ok {
		return apperrors.NewStateError(op, refKey(engine, instance), apperrors.ErrInstanceNotFound)
	}
	doc.Set(key, value)
	f.updates = append(f.updates, key+"="+value)
	return nil
}

func (f *fakeStore) UpdateState(engine, instance, key, value string) error {
	return f.update(engine, instance, "state."+key, value, "update")
}

func (f *fakeStore) SetRuntime(engine, instance, key, value string) error {
	return f.update(engine, instance, "runtime."+key, value, "set-runtime")
}

func (f *fakeStore) UnsetRuntime(engine, instance, key string) (bool, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	doc, ok := f.docs[refKey(engine, instance)]
	if !ok {
		return false, apperrors.NewStateError("unset-runtime", refKey(engine, instance), apperrors.ErrInstanceNotFound)
	}
	_, existed := doc["runtime."+key]
	delete(doc, "runtime."+key)
	return existed, nil
}

func (f *fakeStore) List() ([]entities.InstanceRef, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var refs []entities.InstanceRef
	for key := range f.docs {
		engine, instance, _ := strings.Cut(key, "/")
		refs = append(refs, entities.InstanceRef{Engine: engine, Instance: instance})
	}
	sort.Slice(refs, func(a, b int) bool { return refs[a].String() < refs[b].String() })
	return refs, nil
}

func (f *fakeStore) Remove(engine, instance string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	delete(f.docs, refKey(engine, instance))
	return nil
}

type fakeRuntime struct {
	containers map[string]*ports.ContainerState
	networks   map[string]bool
	runs       []ports.ContainerSpec
	calls      []string
	runErr     error
}

func newFakeRuntime() *fakeRuntime {
	return &fakeRuntime{
		containers: make(map[string]*ports.ContainerState),
		networks:   make(map[string]bool),
	}
}

func (f *fakeRuntime) RunContainer(_ context.Context, spec ports.ContainerSpec) error {
	f.calls = append(f.calls, "run "+spec.Name)
	if f.runErr != nil {
		return f.runErr
	}
	f.runs = append(f.runs, spec)
	f.containers[spec.Name] = &ports.ContainerState{Name: spec.Name, Status: "running", Exists: true, Running: true}
	return nil
}

func (f *fakeRuntime) StartContainer(_ context.Context, name string) error {
	f.calls = append(f.calls, "start "+name)
	f.containers[name].Running = true
	return nil
}

func (f *fakeRuntime) StopContainer(_ context.Context, name string) error {
	f.calls = append(f.calls, "stop "+name)
	f.containers[name].Running = false
	return nil
}

func (f *fakeRuntime) RemoveContainer(_ context.Context, name string) error {
	f.calls = append(f.calls, "rm "+name)
	delete(f.containers, name)
	return nil
}

func (f *fakeRuntime) InspectContainer(_ context.Context, name string) (*ports.ContainerState, error) {
	if state, ok := f.containers[name]; ok {
		copied := *state
		return &copied, nil
	}
	return &ports.ContainerState{Name: name}, nil
}

func (f *fakeRuntime) CreateNetwork(_ context.Context, name string) error {
	f.calls = append(f.calls, "network create "+name)
	f.networks[name] = true
	return nil
}

func (f *fakeRuntime) RemoveNetwork(_ context.Context, name string) error {
	f.calls = append(f.calls, "network rm "+name)
	delete(f.networks, name)
	return nil
}

func (f *fakeRuntime) InspectNetwork(_ context.Context, name string) (bool, error) {
	return f.networks[name], nil
}

type fakeExecutor struct {
	dbPath string
	files  []string
}

func (f *fakeExecutor) ExecFiles(_ context.Context, dbPath string, files []string) (int, error) {
	f.dbPath = dbPath
	f.files = files
	return len(files), nil
}

type fakeDotEnv struct {
	loaded []string
	found  bool
}

func (f *fakeDotEnv) Load(path string) (bool, error) {
	f.loaded = append(f.loaded, path)
	return f.found, nil
}

// postgresMetadata mirrors the bundled postgres document closely enough
// for the pipeline tests.
func postgresMetadata() *entities.EngineMetadata {
	return &entities.EngineMetadata{
		Engine:            "postgres",
		RequiredEnv:       []string{"DBLAB_PG_PASSWORD"},
		DefaultVersion:    "16",
		SupportedVersions: []string{"17", "16"},
		Defaults: entities.FlatDocument{
			"version":        "16",
			"db.user":        "postgres",
			"image":          "postgres:{version}",
			"network.mode":   "bridge",
			"network.name":   "dblab-{engine}-{instance}",
			"network.port":   "5432",
			"network.expose": "false",
			"container.name": "dblab-{engine}-{instance}",
		},
		FixedFields:    []string{"db.user", "db.password"},
		RequiredFields: []string{"db.password", "db.user"},
		EnvVars: []entities.EnvVarDescriptor{
			{Name: "DBLAB_PG_PASSWORD", MapsTo: "db.password", Required: true, Secret: true},
			{Name: "DBLAB_PG_USER", MapsTo: "db.user"},
		},
		CLIArgs: []entities.CLIArg{{Name: "port", MapsTo: "network.port"}},
		Container: entities.ContainerTemplate{
			Port: "5432",
			Env: map[string]string{
				"POSTGRES_USER":     "{db.user}",
				"POSTGRES_PASSWORD": "{db.password}",
			},
		},
	}
}
