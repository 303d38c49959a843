package access

import (
	"fmt"

	exprlang "github.com/expr-lang/expr"
	exprvm "github.com/expr-lang/expr/vm"
	celgo "github.com/google/cel-go/cel"
)

// Expression policies see three string variables: operation, dataset and
// principal. A result other than true, or an evaluation error, denies.

func policyEnv(op Operation, dataset, principal string) map[string]any {
	return map[string]any{
		"operation": string(op),
		"dataset":   dataset,
		"principal": principal,
	}
}

// ExprPolicy evaluates an expr-lang expression.
type ExprPolicy struct {
	expression string
	program    *exprvm.Program
}

// NewExprPolicy compiles expression, for example
//
//	principal == "admin" || operation == "query"
func NewExprPolicy(expression string) (*ExprPolicy, error) {
	if expression == "" {
		return nil, fmt.Errorf("expr policy: expression must not be empty")
	}
	program, err := exprlang.Compile(expression,
		exprlang.Env(policyEnv("", "", "")),
		exprlang.AsBool(),
	)
	if err != nil {
		return nil, fmt.Errorf("expr policy %q: %w", expression, err)
	}
	return &ExprPolicy{expression: expression, program: program}, nil
}

// Allow runs the compiled expression.
func (p *ExprPolicy) Allow(op Operation, dataset, principal string) bool {
	out, err := exprlang.Run(p.program, policyEnv(op, dataset, principal))
	if err != nil {
		return false
	}
	allowed, ok := out.(bool)
	return ok && allowed
}

// String returns the source expression.
func (p *ExprPolicy) String() string {
	return p.expression
}

// CELPolicy evaluates a CEL expression.
type CELPolicy struct {
	expression string
	program    celgo.Program
}

// NewCELPolicy compiles and type-checks expression, for example
//
//	principal in ["alice", "bob"] && operation != "drop"
//
// The expression must have type bool.
func NewCELPolicy(expression string) (*CELPolicy, error) {
	if expression == "" {
		return nil, fmt.Errorf("cel policy: expression must not be empty")
	}
	env, err := celgo.NewEnv(
		celgo.Variable("operation", celgo.StringType),
		celgo.Variable("dataset", celgo.StringType),
		celgo.Variable("principal", celgo.StringType),
	)
	if err != nil {
		return nil, fmt.Errorf("cel policy: %w", err)
	}
	ast, issues := env.Parse(expression)
	if issues != nil && issues.Err() != nil {
		return nil, fmt.Errorf("cel policy %q: %w", expression, issues.Err())
	}
	checked, issues := env.Check(ast)
	if issues != nil && issues.Err() != nil {
		return nil, fmt.Errorf("cel policy %q: %w", expression, issues.Err())
	}
	if !checked.OutputType().IsExactType(celgo.BoolType) {
		return nil, fmt.Errorf("cel policy %q: result type is %s, want bool", expression, checked.OutputType())
	}
	program, err := env.Program(checked)
	if err != nil {
		return nil, fmt.Errorf("cel policy %q: %w", expression, err)
	}
	return &CELPolicy{expression: expression, program: program}, nil
}

// Allow evaluates the program.
func (p *CELPolicy) Allow(op Operation, dataset, principal string) bool {
	out, _, err := p.program.Eval(policyEnv(op, dataset, principal))
	if err != nil {
		return false
	}
	allowed, ok := out.Value().(bool)
	return ok && allowed
}

// String returns the source expression.
func (p *CELPolicy) String() string {
	return p.expression
}
