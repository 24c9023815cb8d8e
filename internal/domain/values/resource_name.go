package values

import (
	"fmt"
	"regexp"
	"strings"
)

var resourceNamePattern = regexp.MustCompile(`^[a-z0-9][a-z0-9_-]*$`)

// maxResourceNameLength keeps derived container and network names well
// under the runtime limits.
const maxResourceNameLength = 63

// ResourceName is a validated engine or instance name. Names become path
// segments under the data root and parts of container names, so they are
// restricted to lowercase letters, digits, '-' and '_'.
type ResourceName struct {
	value string
}

// NewResourceName creates a ResourceName with validation.
// kind names the thing being validated ("engine", "instance") in errors.
func NewResourceName(kind, name string) (ResourceName, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return ResourceName{}, fmt.Errorf("%s name cannot be empty", kind)
	}
	if len(name) > maxResourceNameLength {
		return ResourceName{}, fmt.Errorf("%s name %q exceeds %d characters", kind, name, maxResourceNameLength)
	}
	if !resourceNamePattern.MatchString(name) {
		return ResourceName{}, fmt.Errorf("invalid %s name %q: must match %s", kind, name, resourceNamePattern.String())
	}
	return ResourceName{value: name}, nil
}

// MustNewResourceName creates a ResourceName or panics (for tests/constants)
func MustNewResourceName(kind, name string) ResourceName {
	n, err := NewResourceName(kind, name)
	if err != nil {
		panic(err)
	}
	return n
}

// String returns the string representation
func (n ResourceName) String() string {
	return n.value
}

// IsEmpty returns true if this is the zero value
func (n ResourceName) IsEmpty() bool {
	return n.value == ""
}
