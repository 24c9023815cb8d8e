package config

import (
	"log/slog"
	"os"
	"path/filepath"
	"regexp"

	"github.com/dblab-dev/dblab/internal/domain/entities"
)

// maxExpansions bounds the fixed-point loop of one pass over one value.
const maxExpansions = 10

// Preset pattern: {HOME}
var presetPattern = regexp.MustCompile(`\{([A-Z][A-Z0-9_]*)\}`)

// Environment pattern: {env:VAR}
var envPattern = regexp.MustCompile(`\{env:([A-Za-z_][A-Za-z0-9_]*)\}`)

// Key reference pattern: {db.user}, {list[0]}
var keyPattern = regexp.MustCompile(`\{([A-Za-z0-9_][A-Za-z0-9_.\-\[\]]*)\}`)

// Shell-style pattern: ${VAR}
var shellPattern = regexp.MustCompile(`\$\{([A-Za-z_][A-Za-z0-9_]*)\}`)

// Interpolator expands placeholders in resolved configuration values.
//
// Four passes run in order, each to a fixed point per value and each over
// every key before the next pass starts:
//  1. {PRESET} for the known presets,
//  2. {env:VAR} from the process environment,
//  3. {dotted.key} from the document itself,
//  4. ${VAR} from the process environment.
//
// Undefined referents expand to "". Brace placeholders directly preceded by
// "$" belong to pass 4. Expansion is literal text replacement only.
type Interpolator struct {
	logger    *slog.Logger
	presets   map[string]string
	lookupEnv func(string) (string, bool)
}

// NewInterpolator creates an interpolator. lookupEnv nil means os.LookupEnv.
func NewInterpolator(logger *slog.Logger, presets map[string]string, lookupEnv func(string) (string, bool)) *Interpolator {
	if logger == nil {
		logger = slog.Default()
	}
	if lookupEnv == nil {
		lookupEnv = os.LookupEnv
	}
	if presets == nil {
		presets = map[string]string{}
	}
	return &Interpolator{
		logger:    logger,
		presets:   presets,
		lookupEnv: lookupEnv,
	}
}

// DefaultPresets derives the standard presets from the environment.
func DefaultPresets(dataRoot string, lookupEnv func(string) (string, bool)) map[string]string {
	if lookupEnv == nil {
		lookupEnv = os.LookupEnv
	}
	get := func(k string) string {
		v, _ := lookupEnv(k)
		return v
	}

	home := get("HOME")
	if home == "" {
		home, _ = os.UserHomeDir()
	}
	configHome := get("XDG_CONFIG_HOME")
	if configHome == "" && home != "" {
		configHome = filepath.Join(home, ".config")
	}
	dataHome := get("XDG_DATA_HOME")
	if dataHome == "" && home != "" {
		dataHome = filepath.Join(home, ".local", "share")
	}
	user := get("USER")
	if user == "" {
		user = get("LOGNAME")
	}

	return map[string]string{
		"HOME":            home,
		"USER":            user,
		"XDG_CONFIG_HOME": configHome,
		"XDG_DATA_HOME":   dataHome,
		"DATA_ROOT":       dataRoot,
	}
}

// Interpolate rewrites every value of doc in place. Keys are never added
// or removed.
func (i *Interpolator) Interpolate(doc entities.FlatDocument) {
	keys := doc.Keys()
	for _, pass := range i.passes(doc) {
		for _, key := range keys {
			doc[key] = i.fixedPoint(key, doc[key], pass)
		}
	}
}

// ExpandString expands s against doc without modifying doc.
func (i *Interpolator) ExpandString(s string, doc entities.FlatDocument) string {
	for _, pass := range i.passes(doc) {
		s = i.fixedPoint("", s, pass)
	}
	return s
}

// pass expands one placeholder kind in a value owned by key.
type pass func(key, value string) string

func (i *Interpolator) passes(doc entities.FlatDocument) []pass {
	return []pass{
		func(_, v string) string {
			return replaceUnprefixed(v, presetPattern, func(name string) (string, bool) {
				p, ok := i.presets[name]
				return p, ok
			})
		},
		func(_, v string) string {
			return replaceUnprefixed(v, envPattern, func(name string) (string, bool) {
				env, _ := i.lookupEnv(name)
				return env, true
			})
		},
		func(key, v string) string {
			return replaceUnprefixed(v, keyPattern, func(ref string) (string, bool) {
				if ref == key {
					return "", true
				}
				return doc[ref], true
			})
		},
		func(_, v string) string {
			return shellPattern.ReplaceAllStringFunc(v, func(m string) string {
				env, _ := i.lookupEnv(shellPattern.FindStringSubmatch(m)[1])
				return env
			})
		},
	}
}

func (i *Interpolator) fixedPoint(key, value string, p pass) string {
	for n := 0; n < maxExpansions; n++ {
		next := p(key, value)
		if next == value {
			return value
		}
		value = next
	}
	i.logger.Warn("placeholder expansion did not settle", "key", key, "value", value)
	return value
}

// replaceUnprefixed substitutes matches of re whose first group resolves
// through lookup, skipping matches directly preceded by "$". Unresolved
// matches are kept verbatim.
func replaceUnprefixed(s string, re *regexp.Regexp, lookup func(string) (string, bool)) string {
	matches := re.FindAllStringSubmatchIndex(s, -1)
	if matches == nil {
		return s
	}

	out := make([]byte, 0, len(s))
	last := 0
	for _, m := range matches {
		start, end := m[0], m[1]
		if start > 0 && s[start-1] == '$' {
			continue
		}
		repl, ok := lookup(s[m[2]:m[3]])
		if !ok {
			continue
		}
		out = append(out, s[last:start]...)
		out = append(out, repl...)
		last = end
	}
	out = append(out, s[last:]...)
	return string(out)
}
