package rules

import (
	"fmt"

	"github.com/google/cel-go/cel"
)

// Registry manages the CEL environment used for game rule expressions.
type Registry struct {
	env *cel.Env
}

// NewRegistry initializes the CEL environment with the headcount variables of a game.
func NewRegistry() (*Registry, error) {
	env, err := cel.NewEnv(
		cel.Variable("day", cel.IntType),
		cel.Variable("alive", cel.IntType),
		cel.Variable("wolves", cel.IntType),
		cel.Variable("villagers", cel.IntType),
		cel.Variable("third_party", cel.IntType),
		cel.Variable("lovers_alive", cel.IntType),
		cel.Variable("alive_roles", cel.MapType(cel.StringType, cel.IntType)),
	)
	if err != nil {
		return nil, err
	}
	return &Registry{env: env}, nil
}

// Compile checks an expression and prepares it for repeated evaluation.
func (r *Registry) Compile(expression string) (cel.Program, error) {
	ast, iss := r.env.Compile(expression)
	if iss.Err() != nil {
		return nil, iss.Err()
	}
	if !ast.OutputType().IsExactType(cel.BoolType) {
		return nil, fmt.Errorf("expression %q must be boolean, got %s", expression, ast.OutputType())
	}
	return r.env.Program(ast)
}
