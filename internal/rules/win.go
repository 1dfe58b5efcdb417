package rules

import (
	"fmt"

	"github.com/google/cel-go/cel"

	"github.com/suderio/werewolf-arena/internal/engine"
)

type compiledCondition struct {
	winner string
	prog   cel.Program
}

// WinEvaluator decides whether a state ends the game.
type WinEvaluator struct {
	roles      []string
	conditions []compiledCondition
}

// NewWinEvaluator compiles the conditions once. roles lists every role id the
// expressions may look up in alive_roles.
func NewWinEvaluator(reg *Registry, roles []string, conditions []WinCondition) (*WinEvaluator, error) {
	if len(conditions) == 0 {
		conditions = DefaultWinConditions()
	}
	w := &WinEvaluator{roles: roles}
	for _, c := range conditions {
		if c.Winner == "" {
			return nil, fmt.Errorf("%w: win condition without winner", engine.ErrConfig)
		}
		prog, err := reg.Compile(c.When)
		if err != nil {
			return nil, fmt.Errorf("%w: win condition for %s: %v", engine.ErrConfig, c.Winner, err)
		}
		w.conditions = append(w.conditions, compiledCondition{winner: c.Winner, prog: prog})
	}
	return w, nil
}

// Winner returns the first winner whose condition holds, or "" to continue.
func (w *WinEvaluator) Winner(state *engine.GameState) (string, error) {
	ctx := ContextFromState(state, w.roles)
	for _, c := range w.conditions {
		out, _, err := c.prog.Eval(ctx)
		if err != nil {
			return "", fmt.Errorf("evaluate win condition for %s: %w", c.winner, err)
		}
		if ok, _ := out.Value().(bool); ok {
			return c.winner, nil
		}
	}
	return "", nil
}
