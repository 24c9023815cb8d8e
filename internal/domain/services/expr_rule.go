package services

import (
	"fmt"

	"github.com/expr-lang/expr"
	"github.com/expr-lang/expr/vm"

	apperrors "github.com/dblab-dev/dblab/internal/application/errors"
	"github.com/dblab-dev/dblab/internal/domain/entities"
)

// ExprRule is a validation rule declared in engine metadata as an expr
// expression over config, fixed, engine and verb.
type ExprRule struct {
	program *vm.Program
	name    string
	source  string
	message string
}

// exprEnv returns the evaluation environment for in.
func exprEnv(in RuleInput) map[string]any {
	return map[string]any{
		"config": map[string]string(in.Config),
		"fixed":  map[string]string(in.Fixed),
		"engine": in.Engine,
		"verb":   in.Verb,
	}
}

// NewExprRule compiles spec. The expression must yield a boolean.
func NewExprRule(spec entities.ExprRuleSpec) (*ExprRule, error) {
	program, err := expr.Compile(spec.Expr,
		expr.Env(exprEnv(RuleInput{})),
		expr.AsBool())
	if err != nil {
		return nil, fmt.Errorf("rule %s: %w", spec.Name, err)
	}
	return &ExprRule{
		program: program,
		name:    spec.Name,
		source:  spec.Expr,
		message: spec.Message,
	}, nil
}

// Name returns the rule name.
func (r *ExprRule) Name() string { return r.name }

// Check evaluates the expression against in.
func (r *ExprRule) Check(in RuleInput) error {
	output, err := expr.Run(r.program, exprEnv(in))
	if err != nil {
		return fmt.Errorf("expression %q failed: %w", r.source, err)
	}
	if ok, _ := output.(bool); ok {
		return nil
	}
	if r.message != "" {
		return fmt.Errorf("%s", r.message)
	}
	return fmt.Errorf("expression %q evaluated to false", r.source)
}

// MetadataRules compiles the expression rules declared by meta.
func MetadataRules(meta *entities.EngineMetadata) ([]ValidationRule, error) {
	rules := make([]ValidationRule, 0, len(meta.Rules))
	for _, spec := range meta.Rules {
		rule, err := NewExprRule(spec)
		if err != nil {
			return nil, apperrors.NewMetadataError(meta.Engine, "invalid validation rule", err)
		}
		rules = append(rules, rule)
	}
	return rules, nil
}
