package services

import (
	"fmt"
	"regexp"
	"slices"
	"strconv"
	"strings"

	"github.com/Masterminds/semver/v3"

	"github.com/dblab-dev/dblab/internal/domain/values"
)

// Configuration keys inspected by the built-in rules.
const (
	KeyVersion          = "version"
	KeyNetworkMode      = "network.mode"
	KeyNetworkPort      = "network.port"
	KeyNetworkPublish   = "network.publish"
	KeyNetworkExpose    = "network.expose"
	KeyStorageEphemeral = "storage.ephemeral"
)

var portMappingPattern = regexp.MustCompile(`^(\d+):(\d+)$`)

// verbs that operate on an instance which must already exist
var existingInstanceVerbs = []string{VerbDown, VerbStatus, VerbDestroy, VerbSQL}

// BuiltinRules returns the built-in rules in evaluation order.
func BuiltinRules() []ValidationRule {
	return []ValidationRule{
		NewRuleFunc("version-supported", checkVersionSupported),
		NewRuleFunc("expose-ephemeral-exclusive", checkExposeEphemeral),
		NewRuleFunc("port-range", checkPortRange),
		NewRuleFunc("port-mapping", checkPortMapping),
		NewRuleFunc("instance-exists", checkInstanceExists),
		NewRuleFunc("network-mode", checkNetworkMode),
	}
}

// checkVersionSupported accepts a version listed verbatim in the engine's
// supported list. Entries written in constraint syntax (">= 16, < 18")
// also accept any version they match.
func checkVersionSupported(in RuleInput) error {
	if in.Metadata == nil || len(in.Metadata.SupportedVersions) == 0 {
		return nil
	}
	version := in.Config.Get(KeyVersion)
	supported := in.Metadata.SupportedVersions
	if slices.Contains(supported, version) {
		return nil
	}

	if v, err := semver.NewVersion(version); err == nil {
		for _, s := range supported {
			if !isConstraint(s) {
				continue
			}
			c, err := semver.NewConstraint(s)
			if err == nil && c.Check(v) {
				return nil
			}
		}
	}
	return fmt.Errorf("version %q is not supported by %s (supported: %s)",
		version, in.Engine, strings.Join(supported, ", "))
}

// isConstraint reports whether a supported-list entry uses constraint syntax
// rather than naming a single version.
func isConstraint(entry string) bool {
	return strings.ContainsAny(entry, "<>=~^*xX,| ")
}

func checkExposeEphemeral(in RuleInput) error {
	if in.Config.Bool(KeyNetworkExpose) && in.Config.Bool(KeyStorageEphemeral) {
		return fmt.Errorf("%s and %s cannot both be true", KeyNetworkExpose, KeyStorageEphemeral)
	}
	return nil
}

func checkPortRange(in RuleInput) error {
	port, ok := in.Config.Lookup(KeyNetworkPort)
	if !ok || port == "" {
		return nil
	}
	if _, err := parsePort(port); err != nil {
		return fmt.Errorf("%s: %w", KeyNetworkPort, err)
	}
	return nil
}

// checkPortMapping validates "host:container" pairs, comma separated.
func checkPortMapping(in RuleInput) error {
	publish, ok := in.Config.Lookup(KeyNetworkPublish)
	if !ok || publish == "" {
		return nil
	}
	for _, mapping := range strings.Split(publish, ",") {
		mapping = strings.TrimSpace(mapping)
		m := portMappingPattern.FindStringSubmatch(mapping)
		if m == nil {
			return fmt.Errorf("%s %q must look like <host-port>:<container-port>", KeyNetworkPublish, mapping)
		}
		for _, p := range m[1:] {
			if _, err := parsePort(p); err != nil {
				return fmt.Errorf("%s %q: %w", KeyNetworkPublish, mapping, err)
			}
		}
	}
	return nil
}

func checkInstanceExists(in RuleInput) error {
	if !slices.Contains(existingInstanceVerbs, in.Verb) {
		return nil
	}
	if len(in.Fixed) == 0 {
		return fmt.Errorf("%s requires an existing instance; run up first", in.Verb)
	}
	return nil
}

func checkNetworkMode(in RuleInput) error {
	mode, ok := in.Config.Lookup(KeyNetworkMode)
	if !ok {
		return nil
	}
	return values.NetworkMode(mode).Validate()
}

// parsePort parses a decimal TCP port in [1, 65535].
func parsePort(s string) (int, error) {
	for _, c := range s {
		if c < '0' || c > '9' {
			return 0, fmt.Errorf("port %q is not a decimal integer", s)
		}
	}
	n, err := strconv.Atoi(s)
	if err != nil || s == "" {
		return 0, fmt.Errorf("port %q is not a decimal integer", s)
	}
	if n < 1 || n > 65535 {
		return 0, fmt.Errorf("port %d is outside 1-65535", n)
	}
	return n, nil
}
