package rules

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"math"

	"github.com/expr-lang/expr"
	"github.com/expr-lang/expr/vm"
	"gopkg.in/yaml.v3"

	"github.com/nstehr/vimy/vimy-host/model"
)

// Actuator is the part of the robot controller that steps drive.
// *agent.Controller implements it.
type Actuator interface {
	SetMove(distance float64)
	SetBodyTurn(radians float64)
	SetGunTurn(radians float64)
	SetRadarTurn(radians float64)
	SetMaxVelocity(v float64)
	SetFire(power float64) *model.Bullet
	SetScan()
	SetDebugProperty(key, value string)
	BroadcastMessage(payload []byte) error
	SetInterruptible(interruptible bool)
	Execute(ctx context.Context) error
	Out() io.Writer
	Diagnostics() *slog.Logger
}

// Rule is a condition and the steps to take when it holds. Rules run in
// priority order; an exclusive rule that fires blocks the rest of its
// category for the turn.
type Rule struct {
	Name         string
	Priority     int
	Category     string
	Exclusive    bool
	ConditionSrc string
	program      *vm.Program
	Steps        []Step
}

// Op is a step's verb.
type Op string

const (
	OpMove          Op = "move"
	OpTurn          Op = "turn"
	OpTurnGun       Op = "turnGun"
	OpTurnRadar     Op = "turnRadar"
	OpMaxVelocity   Op = "maxVelocity"
	OpFire          Op = "fire"
	OpScan          Op = "scan"
	OpDebug         Op = "debug"
	OpSay           Op = "say"
	OpBroadcast     Op = "broadcast"
	OpRemember      Op = "remember"
	OpInterruptible Op = "interruptible"
	OpExecute       Op = "execute"
)

var knownOps = map[Op]bool{
	OpMove: true, OpTurn: true, OpTurnGun: true, OpTurnRadar: true, OpMaxVelocity: true,
	OpFire: true, OpScan: true, OpDebug: true, OpSay: true, OpBroadcast: true,
	OpRemember: true, OpInterruptible: true, OpExecute: true,
}

// Step is one action, written in a script as a single-key map:
//
//	- fire: "Event.Distance < 200 ? 3 : 1"
//	- debug: {target: "Event.Name"}
//
// Arg is an expr expression. Key names the debug property or memory slot.
// Angles are in degrees.
type Step struct {
	Op      Op
	Key     string
	Arg     string
	program *vm.Program
}

func (s *Step) UnmarshalYAML(node *yaml.Node) error {
	if node.Kind == yaml.ScalarNode {
		// Bare verbs such as "- scan".
		s.Op = Op(node.Value)
		return nil
	}
	if node.Kind != yaml.MappingNode || len(node.Content) != 2 {
		return fmt.Errorf("line %d: a step is a single-key map", node.Line)
	}
	s.Op = Op(node.Content[0].Value)
	val := node.Content[1]
	switch val.Kind {
	case yaml.ScalarNode:
		s.Arg = val.Value
	case yaml.MappingNode:
		if len(val.Content) != 2 {
			return fmt.Errorf("line %d: %s takes one key", val.Line, s.Op)
		}
		s.Key = val.Content[0].Value
		s.Arg = val.Content[1].Value
	default:
		return fmt.Errorf("line %d: bad argument for %s", val.Line, s.Op)
	}
	return nil
}

func (s *Step) compile() error {
	if !knownOps[s.Op] {
		return fmt.Errorf("unknown step %q", s.Op)
	}
	if (s.Op == OpDebug || s.Op == OpRemember) && s.Key == "" {
		return fmt.Errorf("%s needs a key", s.Op)
	}
	if s.Arg == "" {
		switch s.Op {
		case OpScan, OpExecute:
			return nil
		case OpInterruptible:
			s.Arg = "true"
		default:
			return fmt.Errorf("%s needs an argument", s.Op)
		}
	}
	prog, err := expr.Compile(s.Arg, expr.Env(Env{}))
	if err != nil {
		return fmt.Errorf("%s: %w", s.Op, err)
	}
	s.program = prog
	return nil
}

// run performs the step. Only OpExecute returns an error, and only the one
// from the turn itself.
func (s *Step) run(ctx context.Context, a Actuator, env Env) error {
	var val any
	if s.program != nil {
		out, err := vm.Run(s.program, env)
		if err != nil {
			a.Diagnostics().Warn("step failed", "step", string(s.Op), "error", err)
			return nil
		}
		val = out
	}

	switch s.Op {
	case OpMove:
		return s.number(a, val, a.SetMove)
	case OpTurn:
		return s.number(a, val, func(v float64) { a.SetBodyTurn(Rad(v)) })
	case OpTurnGun:
		return s.number(a, val, func(v float64) { a.SetGunTurn(Rad(v)) })
	case OpTurnRadar:
		return s.number(a, val, func(v float64) { a.SetRadarTurn(Rad(v)) })
	case OpMaxVelocity:
		return s.number(a, val, a.SetMaxVelocity)
	case OpFire:
		return s.number(a, val, func(v float64) { a.SetFire(v) })
	case OpScan:
		a.SetScan()
	case OpDebug:
		a.SetDebugProperty(s.Key, fmt.Sprint(val))
	case OpSay:
		fmt.Fprintln(a.Out(), val)
	case OpBroadcast:
		if err := a.BroadcastMessage([]byte(fmt.Sprint(val))); err != nil {
			a.Diagnostics().Warn("broadcast failed", "error", err)
		}
	case OpRemember:
		env.Memory[s.Key] = val
	case OpInterruptible:
		on, ok := val.(bool)
		if !ok {
			a.Diagnostics().Warn("interruptible needs a bool", "got", fmt.Sprintf("%T", val))
			return nil
		}
		a.SetInterruptible(on)
	case OpExecute:
		return a.Execute(ctx)
	}
	return nil
}

func (s *Step) number(a Actuator, val any, apply func(float64)) error {
	v, ok := toFloat(val)
	if !ok {
		a.Diagnostics().Warn("step needs a number", "step", string(s.Op), "got", fmt.Sprintf("%T", val))
		return nil
	}
	apply(v)
	return nil
}

func toFloat(v any) (float64, bool) {
	switch n := v.(type) {
	case float64:
		return n, !math.IsNaN(n)
	case float32:
		return float64(n), true
	case int:
		return float64(n), true
	case int32:
		return float64(n), true
	case int64:
		return float64(n), true
	case uint32:
		return float64(n), true
	}
	return 0, false
}

func runSteps(ctx context.Context, a Actuator, env Env, steps []Step) error {
	for i := range steps {
		if err := steps[i].run(ctx, a, env); err != nil {
			return err
		}
	}
	return nil
}
