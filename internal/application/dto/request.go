// Package dto contains data transfer objects for application layer use cases.
package dto

// ResolveRequest encapsulates all inputs needed to resolve the configuration
// of an instance.
type ResolveRequest struct {
	// Overrides are --set values keyed by CLI arg name or dotted key
	Overrides map[string]string
	Metadata  RequestMetadata
	Engine    string
	Instance  string
	Verb      string
	EnvFiles  []string

	// EnforceRequired fails resolution when a required field is empty.
	// It has no effect without an instance.
	EnforceRequired bool

	// ReportOnly evaluates every rule and returns the results instead of
	// failing on the first resolution with violations.
	ReportOnly bool
}

// InstanceRequest encapsulates the inputs of an instance lifecycle action.
type InstanceRequest struct {
	Overrides map[string]string
	Metadata  RequestMetadata
	Engine    string
	Instance  string
	EnvFiles  []string
}

// SetRuntimeRequest encapsulates a persisted runtime override change.
type SetRuntimeRequest struct {
	Engine   string
	Instance string
	Key      string
	Value    string
	Unset    bool
}

// RunSQLRequest encapsulates the inputs of run-sql.
type RunSQLRequest struct {
	Engine   string
	Instance string

	// DotEnvPath locates SQLITE_DB_PATH when no instance is given
	DotEnvPath string
	Paths      []string
	EnvFiles   []string
	Metadata   RequestMetadata
}

// ListRequest encapsulates the inputs of list.
type ListRequest struct {
	// Engine restricts the listing to one engine when set
	Engine      string
	Concurrency int
}

// RequestMetadata contains metadata for request tracking.
type RequestMetadata struct {
	// RequestID uniquely identifies this request
	RequestID string
}
