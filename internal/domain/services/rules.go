package services

import (
	"fmt"
	"sync"

	apperrors "github.com/dblab-dev/dblab/internal/application/errors"
	"github.com/dblab-dev/dblab/internal/domain/entities"
)

// Command verbs seen by validation rules.
const (
	VerbUp       = "up"
	VerbDown     = "down"
	VerbStatus   = "status"
	VerbDestroy  = "destroy"
	VerbConfig   = "config"
	VerbValidate = "validate"
	VerbList     = "list"
	VerbSQL      = "run-sql"
)

// RuleInput is what a validation rule may inspect.
type RuleInput struct {
	Config   entities.FlatDocument
	Fixed    entities.FlatDocument
	Metadata *entities.EngineMetadata
	Engine   string
	Verb     string
}

// ValidationRule checks one constraint of a resolved configuration.
type ValidationRule interface {
	// Name identifies the rule in reports.
	Name() string
	// Check returns nil when the constraint holds, or an error describing
	// the violation.
	Check(in RuleInput) error
}

// RuleFunc adapts a function to ValidationRule.
type RuleFunc struct {
	fn   func(RuleInput) error
	name string
}

// NewRuleFunc creates a named rule from fn.
func NewRuleFunc(name string, fn func(RuleInput) error) *RuleFunc {
	return &RuleFunc{name: name, fn: fn}
}

// Name returns the rule name.
func (r *RuleFunc) Name() string { return r.name }

// Check runs the wrapped function.
func (r *RuleFunc) Check(in RuleInput) error { return r.fn(in) }

// RuleResult is the outcome of one rule in one run.
type RuleResult struct {
	Rule    string
	Message string
	Passed  bool
}

// RuleRegistry is an ordered, append-only list of validation rules.
type RuleRegistry struct {
	rules []ValidationRule
	mu    sync.RWMutex
}

// NewRuleRegistry creates a registry holding rules in the given order.
func NewRuleRegistry(rules ...ValidationRule) *RuleRegistry {
	return &RuleRegistry{rules: append([]ValidationRule(nil), rules...)}
}

// DefaultRuleRegistry creates a registry with the built-in rules.
func DefaultRuleRegistry() *RuleRegistry {
	return NewRuleRegistry(BuiltinRules()...)
}

// Register appends rule to the registry.
func (r *RuleRegistry) Register(rule ValidationRule) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.rules = append(r.rules, rule)
}

// Rules returns the registered rules in order.
func (r *RuleRegistry) Rules() []ValidationRule {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return append([]ValidationRule(nil), r.rules...)
}

// With returns a new registry holding the registered rules followed by extra.
// The receiver is not modified.
func (r *RuleRegistry) With(extra ...ValidationRule) *RuleRegistry {
	return NewRuleRegistry(append(r.Rules(), extra...)...)
}

// Evaluate runs every rule and reports each outcome.
func (r *RuleRegistry) Evaluate(in RuleInput) []RuleResult {
	rules := r.Rules()
	results := make([]RuleResult, 0, len(rules))
	for _, rule := range rules {
		res := RuleResult{Rule: rule.Name(), Passed: true}
		if err := checkSafely(rule, in); err != nil {
			res.Passed = false
			res.Message = err.Error()
		}
		results = append(results, res)
	}
	return results
}

// RunAll runs every rule and returns *apperrors.ValidationErrors holding
// all violations, or nil when every rule passes.
func (r *RuleRegistry) RunAll(in RuleInput) error {
	var violations []*apperrors.ValidationError
	for _, res := range r.Evaluate(in) {
		if !res.Passed {
			violations = append(violations, apperrors.NewValidationError(res.Rule, res.Message))
		}
	}
	if len(violations) == 0 {
		return nil
	}
	return &apperrors.ValidationErrors{
		Engine: in.Engine,
		Verb:   in.Verb,
		Errors: violations,
	}
}

// checkSafely turns a panicking rule into a violation of that rule.
func checkSafely(rule ValidationRule, in RuleInput) (err error) {
	defer func() {
		if p := recover(); p != nil {
			err = fmt.Errorf("rule panicked: %v", p)
		}
	}()
	return rule.Check(in)
}
