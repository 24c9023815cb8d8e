package values

import "fmt"

// NetworkMode is the container network attachment of an instance.
type NetworkMode string

const (
	// NetworkBridge attaches the container to a per-instance bridge network
	NetworkBridge NetworkMode = "bridge"
	// NetworkHost shares the host network namespace
	NetworkHost NetworkMode = "host"
	// NetworkNone runs without networking (file based engines)
	NetworkNone NetworkMode = "none"
)

// NetworkModes lists the accepted modes in display order.
func NetworkModes() []NetworkMode {
	return []NetworkMode{NetworkBridge, NetworkHost, NetworkNone}
}

// Validate returns an error if the mode is not one of the accepted modes
func (m NetworkMode) Validate() error {
	switch m {
	case NetworkBridge, NetworkHost, NetworkNone:
		return nil
	default:
		return fmt.Errorf("invalid network mode %q: must be one of bridge, host, none", string(m))
	}
}

// NeedsNetwork reports whether a dedicated runtime network must exist.
func (m NetworkMode) NeedsNetwork() bool {
	return m == NetworkBridge
}
