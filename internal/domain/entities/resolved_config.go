package entities

// ConfigSource identifies the layer a resolved value came from.
type ConfigSource string

// Layers in ascending priority.
const (
	SourceDefaults        ConfigSource = "defaults"
	SourceInstanceRuntime ConfigSource = "instance-runtime"
	SourceEnv             ConfigSource = "env"
	SourceCLI             ConfigSource = "cli"
	SourceInstanceFixed   ConfigSource = "instance-fixed"
)

// ResolvedConfig is the merged configuration of one command invocation.
// Values is rewritten in place by interpolation; its key set never changes
// after the merge.
type ResolvedConfig struct {
	Values  FlatDocument
	Sources map[string]ConfigSource
	Ref     InstanceRef
}

// NewResolvedConfig creates an empty resolved configuration for ref.
func NewResolvedConfig(ref InstanceRef) *ResolvedConfig {
	return &ResolvedConfig{
		Values:  NewFlatDocument(),
		Sources: make(map[string]ConfigSource),
		Ref:     ref,
	}
}

// Get returns the value for key, or "" when absent.
func (c *ResolvedConfig) Get(key string) string {
	return c.Values.Get(key)
}

// Source returns the layer that supplied key.
func (c *ResolvedConfig) Source(key string) ConfigSource {
	return c.Sources[key]
}

// HasInstance reports whether the configuration was resolved for a
// concrete instance.
func (c *ResolvedConfig) HasInstance() bool {
	return c.Ref.Instance != ""
}
