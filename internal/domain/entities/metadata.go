package entities

// EnvVarDescriptor describes one public environment variable of an engine
// and the internal dotted key it feeds.
type EnvVarDescriptor struct {
	Name        string
	Description string
	MapsTo      string
	Required    bool
	Secret      bool
}

// CLIArg declares a short override name accepted by --set for an engine.
type CLIArg struct {
	Name        string
	MapsTo      string
	Description string
}

// ExprRuleSpec is a validation expression declared by engine metadata.
type ExprRuleSpec struct {
	Name    string
	Expr    string
	Message string
}

// ContainerTemplate describes how a container engine maps resolved
// configuration onto a container. Env values may hold {dotted.key}
// placeholders that are expanded against the resolved configuration.
type ContainerTemplate struct {
	Env       map[string]string
	Port      string
	DataMount string
}

// EngineMetadata is the read-only view over an engine's metadata document.
//
// Invariants:
//   - Engine matches the directory the document was read from
//   - RequiredEnv is non-empty
//   - Defaults only holds keys reached through defaults_map
type EngineMetadata struct {
	Defaults          FlatDocument
	Container         ContainerTemplate
	Engine            string
	Description       string
	DefaultVersion    string
	RequiredEnv       []string
	SupportedVersions []string
	FixedFields       []string
	RequiredFields    []string
	EnvVars           []EnvVarDescriptor
	CLIArgs           []CLIArg
	Rules             []ExprRuleSpec
}

// Descriptor returns the env var descriptor with the exact given name.
func (m *EngineMetadata) Descriptor(name string) (EnvVarDescriptor, bool) {
	for _, d := range m.EnvVars {
		if d.Name == name {
			return d, true
		}
	}
	return EnvVarDescriptor{}, false
}

// CLIArgKey resolves a --set name: a declared CLI arg alias maps to its
// internal key, anything else is taken as a dotted key.
func (m *EngineMetadata) CLIArgKey(name string) string {
	for _, a := range m.CLIArgs {
		if a.Name == name && a.MapsTo != "" {
			return a.MapsTo
		}
	}
	return name
}

// IsFixed reports whether key is declared fixed at instance creation.
func (m *EngineMetadata) IsFixed(key string) bool {
	for _, f := range m.FixedFields {
		if f == key {
			return true
		}
	}
	return false
}

// SecretKeys returns the internal keys fed by secret env vars.
func (m *EngineMetadata) SecretKeys() []string {
	var keys []string
	for _, d := range m.EnvVars {
		if d.Secret && d.MapsTo != "" {
			keys = append(keys, d.MapsTo)
		}
	}
	return keys
}
