package rules

import (
	"context"
	"fmt"
	"sort"

	"github.com/expr-lang/expr"
	"github.com/expr-lang/expr/vm"
)

// Engine runs a script's turn rules against the robot each turn. Rules fire
// in priority order; exclusive rules block lower-priority rules in the same
// category, so two rules never steer the same part of the robot.
type Engine struct {
	rules  []*Rule
	Memory map[string]any
}

// NewEngine compiles every condition and step and sorts rules by priority.
func NewEngine(rules []*Rule) (*Engine, error) {
	compiled, err := compileRules(rules)
	if err != nil {
		return nil, err
	}
	return &Engine{
		rules:  compiled,
		Memory: make(map[string]any),
	}, nil
}

// withMemory shares compiled rules with a fresh memory for a new round.
func (e *Engine) withMemory() *Engine {
	return &Engine{rules: e.rules, Memory: make(map[string]any)}
}

// Evaluate runs the rules once. It returns the names of the rules that
// fired, and an error only when a step ended the turn with one.
func (e *Engine) Evaluate(ctx context.Context, env Env, a Actuator) ([]string, error) {
	env.Memory = e.Memory
	blocked := make(map[string]bool) // category → exclusive rule already fired

	var fired []string
	for _, r := range e.rules {
		if blocked[r.Category] {
			continue
		}

		result, err := vm.Run(r.program, env)
		if err != nil {
			a.Diagnostics().Warn("rule condition error", "rule", r.Name, "error", err)
			continue
		}
		if match, ok := result.(bool); !ok || !match {
			continue
		}

		fired = append(fired, r.Name)
		if err := runSteps(ctx, a, env, r.Steps); err != nil {
			return fired, err
		}
		if r.Exclusive {
			blocked[r.Category] = true
		}
	}
	return fired, nil
}

func compileRules(rules []*Rule) ([]*Rule, error) {
	for _, r := range rules {
		src := r.ConditionSrc
		if src == "" {
			src = "true"
		}
		prog, err := expr.Compile(src, expr.Env(Env{}), expr.AsBool())
		if err != nil {
			return nil, fmt.Errorf("compile rule %q: %w", r.Name, err)
		}
		r.program = prog
		for i := range r.Steps {
			if err := r.Steps[i].compile(); err != nil {
				return nil, fmt.Errorf("compile rule %q: %w", r.Name, err)
			}
		}
	}
	sort.SliceStable(rules, func(i, j int) bool {
		return rules[i].Priority > rules[j].Priority
	})
	return rules, nil
}
