// Package redaction masks secrets in resolved configuration and in log output.
package redaction

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"regexp"
	"slices"
	"strings"

	"github.com/spf13/viper"
	"github.com/zricethezav/gitleaks/v8/config"
	"github.com/zricethezav/gitleaks/v8/detect"

	"github.com/dblab-dev/dblab/internal/domain/entities"
)

// Marker replaces redacted values outside hash mode.
const Marker = "[REDACTED]"

// DefaultPaths are the key names redacted when no paths are configured.
var DefaultPaths = []string{"password", "secret", "token"}

// Redactor masks sensitive values.
// All fields are read-only after construction, making it safe for concurrent use.
type Redactor struct {
	// nil when gitleaks is disabled or failed to load
	gitleaksDetector *detect.Detector

	salt     string
	patterns []*regexp.Regexp
	paths    []string
	hashMode bool
}

// Config holds the configuration for the Redactor.
type Config struct {
	// Salt keys the HMAC in hash mode.
	Salt string
	// Custom patterns to redact (e.g. "INT-[A-Z0-9]{16}")
	Patterns []string
	// Key names always redacted, matched against the last key segment
	// (e.g. "password" matches "db.password" and "db.root_password").
	Paths []string
	// If true, replace with hash instead of [REDACTED]
	HashMode bool
	// If true, disable gitleaks detector and use only custom patterns
	DisableGitleaks bool
}

// New creates a Redactor. Empty Paths means DefaultPaths.
func New(cfg Config) (*Redactor, error) {
	paths := cfg.Paths
	if len(paths) == 0 {
		paths = DefaultPaths
	}

	r := &Redactor{
		paths:    paths,
		hashMode: cfg.HashMode,
		salt:     cfg.Salt,
		patterns: make([]*regexp.Regexp, 0, len(cfg.Patterns)+len(defaultPatterns)),
	}

	if !cfg.DisableGitleaks {
		// A detector that fails to load leaves the regex patterns in charge.
		if detector, err := newGitleaksDetector(); err == nil {
			r.gitleaksDetector = detector
		}
	}

	for _, p := range defaultPatterns {
		re, err := regexp.Compile(p)
		if err != nil {
			return nil, fmt.Errorf("failed to compile default pattern %s: %w", p, err)
		}
		r.patterns = append(r.patterns, re)
	}

	for _, p := range cfg.Patterns {
		re, err := regexp.Compile(p)
		if err != nil {
			return nil, fmt.Errorf("failed to compile custom pattern %s: %w", p, err)
		}
		r.patterns = append(r.patterns, re)
	}

	return r, nil
}

// newGitleaksDetector loads the gitleaks default rule set.
func newGitleaksDetector() (*detect.Detector, error) {
	v := viper.New()
	v.SetConfigType("toml")
	if err := v.ReadConfig(strings.NewReader(config.DefaultConfig)); err != nil {
		return nil, fmt.Errorf("failed to read gitleaks config: %w", err)
	}

	var vc config.ViperConfig
	if err := v.Unmarshal(&vc); err != nil {
		return nil, fmt.Errorf("failed to unmarshal gitleaks config: %w", err)
	}

	cfg, err := vc.Translate()
	if err != nil {
		return nil, fmt.Errorf("failed to translate gitleaks config: %w", err)
	}

	return detect.NewDetector(cfg), nil
}

// RedactDocument returns a copy of doc with sensitive values masked. A
// value is masked whole when its key is in secretKeys or matches a
// configured path; any other value is scrubbed for known secret formats.
func (r *Redactor) RedactDocument(doc entities.FlatDocument, secretKeys []string) entities.FlatDocument {
	out := make(entities.FlatDocument, len(doc))
	for k, v := range doc {
		if v != "" && (slices.Contains(secretKeys, k) || r.IsSensitiveKey(k)) {
			out[k] = r.mask(v)
			continue
		}
		out[k] = r.ScrubString(v)
	}
	return out
}

// ScrubString replaces secrets found by gitleaks and the regex patterns.
func (r *Redactor) ScrubString(input string) string {
	if input == "" {
		return ""
	}

	result := input

	if r.gitleaksDetector != nil {
		findings := r.gitleaksDetector.Detect(detect.Fragment{Raw: result})
		for _, finding := range findings {
			if finding.Secret == "" {
				continue
			}
			result = strings.ReplaceAll(result, finding.Secret, r.mask(finding.Secret))
		}
	}

	for _, re := range r.patterns {
		result = re.ReplaceAllStringFunc(result, r.mask)
	}

	return result
}

// IsSensitiveKey reports whether key matches one of the configured paths.
//
// Matching rules:
//   - Exact match: "db.password" matches "db.password"
//   - Segment match: "password" matches "db.password"
//   - Suffix match: "password" matches "db.root_password"
func (r *Redactor) IsSensitiveKey(key string) bool {
	last := key
	if i := strings.LastIndexByte(key, '.'); i >= 0 {
		last = key[i+1:]
	}
	for _, p := range r.paths {
		if p == key || p == last || strings.HasSuffix(key, "."+p) || strings.HasSuffix(last, "_"+p) {
			return true
		}
	}
	return false
}

func (r *Redactor) mask(secret string) string {
	if r.hashMode {
		return r.hash(secret)
	}
	return Marker
}

// hash returns a truncated HMAC-SHA256 of the secret, keyed by the salt.
// Format: [hmac:a1b2c3d4e5f6g7h8]
func (r *Redactor) hash(secret string) string {
	mac := hmac.New(sha256.New, []byte(r.salt))
	mac.Write([]byte(secret))
	sum := mac.Sum(nil)

	return fmt.Sprintf("[hmac:%s]", hex.EncodeToString(sum)[:16])
}

// defaultPatterns contains regexes for common secrets.
var defaultPatterns = []string{
	// AWS Access Key ID
	`\b((?:AKIA|ABIA|ACCA|ASIA)[0-9A-Z]{16})\b`,
	// Generic Private Key Header
	`-----BEGIN [A-Z ]+ PRIVATE KEY-----`,
	// Github Token
	`gh[pousr]_[A-Za-z0-9_]{36,255}`,
	// Slack Token
	`xox[baprs]-([0-9a-zA-Z]{10,48})?`,
	// Connection string credentials, e.g. postgres://user:pw@host
	`://[^:/\s]+:[^@/\s]+@`,
}
