// Package rules runs robots written as YAML scripts: turn rules and event
// handlers whose conditions and arguments are expr expressions.
package rules

import (
	"bytes"
	_ "embed"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/expr-lang/expr"
	"github.com/expr-lang/expr/vm"
	"gopkg.in/yaml.v3"

	"github.com/nstehr/vimy/vimy-host/agent"
	"github.com/nstehr/vimy/vimy-host/event"
	"github.com/nstehr/vimy/vimy-host/model"
)

//go:embed default.yaml
var defaultScript []byte

// Script is a robot as written in YAML.
type Script struct {
	Name              string            `yaml:"name"`
	Requires          []string          `yaml:"requires"`
	Colors            ColorSpec         `yaml:"colors"`
	AdjustGunForBody  bool              `yaml:"adjustGunForBody"`
	AdjustRadarForGun bool              `yaml:"adjustRadarForGun"`
	Priorities        map[string]int    `yaml:"priorities"`
	Conditions        []ConditionSpec   `yaml:"conditions"`
	Handlers          map[string][]Step `yaml:"handlers"`
	Rules             []RuleSpec        `yaml:"rules"`
}

// ColorSpec holds ARGB colors; zero keeps the default.
type ColorSpec struct {
	Body   uint32 `yaml:"body"`
	Gun    uint32 `yaml:"gun"`
	Radar  uint32 `yaml:"radar"`
	Bullet uint32 `yaml:"bullet"`
	Scan   uint32 `yaml:"scan"`
}

// ConditionSpec becomes a custom event tested every turn; Do runs when it
// is delivered.
type ConditionSpec struct {
	Name     string `yaml:"name"`
	Priority int    `yaml:"priority"`
	When     string `yaml:"when"`
	Do       []Step `yaml:"do"`
}

type RuleSpec struct {
	Name      string `yaml:"name"`
	Priority  int    `yaml:"priority"`
	Category  string `yaml:"category"`
	Exclusive bool   `yaml:"exclusive"`
	When      string `yaml:"when"`
	Do        []Step `yaml:"do"`
}

// Parse decodes a script, rejecting unknown fields.
func Parse(data []byte) (*Script, error) {
	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)
	var s Script
	if err := dec.Decode(&s); err != nil {
		if errors.Is(err, io.EOF) {
			return nil, errors.New("parse script: empty document")
		}
		return nil, fmt.Errorf("parse script: %w", err)
	}
	return &s, nil
}

// Program is a compiled script. It is read-only once built, so one Program
// serves every round and every connection.
type Program struct {
	Script     *Script
	requires   event.Capability
	engine     *Engine
	handlers   map[event.Kind][]Step
	conditions []*conditionProgram
}

type conditionProgram struct {
	name     string
	priority int
	program  *vm.Program
	steps    []Step
}

func Load(r io.Reader) (*Program, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return nil, fmt.Errorf("read script: %w", err)
	}
	s, err := Parse(data)
	if err != nil {
		return nil, err
	}
	return Compile(s)
}

func LoadFile(path string) (*Program, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()
	p, err := Load(f)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return p, nil
}

// Default is the built-in script used when none is configured.
func Default() (*Program, error) {
	return Load(bytes.NewReader(defaultScript))
}

// Compile checks and compiles every expression in s.
func Compile(s *Script) (*Program, error) {
	p := &Program{Script: s, handlers: make(map[event.Kind][]Step)}

	for _, name := range s.Requires {
		c, ok := capabilities[strings.ToLower(name)]
		if !ok {
			return nil, fmt.Errorf("unknown capability %q", name)
		}
		p.requires |= c
	}

	for class := range s.Priorities {
		if _, ok := event.KindByName(class); !ok {
			return nil, fmt.Errorf("priorities: unknown event class %q", class)
		}
	}

	for class, steps := range s.Handlers {
		k, ok := event.KindByName(class)
		if !ok {
			return nil, fmt.Errorf("handlers: unknown event class %q", class)
		}
		for i := range steps {
			if err := steps[i].compile(); err != nil {
				return nil, fmt.Errorf("handler %s: %w", class, err)
			}
		}
		p.handlers[k] = steps
	}

	seen := make(map[string]bool)
	for _, cs := range s.Conditions {
		if cs.Name == "" || seen[cs.Name] {
			return nil, fmt.Errorf("conditions: missing or duplicate name %q", cs.Name)
		}
		seen[cs.Name] = true
		prog, err := expr.Compile(cs.When, expr.Env(Env{}), expr.AsBool())
		if err != nil {
			return nil, fmt.Errorf("condition %q: %w", cs.Name, err)
		}
		for i := range cs.Do {
			if err := cs.Do[i].compile(); err != nil {
				return nil, fmt.Errorf("condition %q: %w", cs.Name, err)
			}
		}
		p.conditions = append(p.conditions, &conditionProgram{
			name:     cs.Name,
			priority: event.ClampPriority(cs.Priority),
			program:  prog,
			steps:    cs.Do,
		})
	}

	rules := make([]*Rule, 0, len(s.Rules))
	for _, rs := range s.Rules {
		rules = append(rules, &Rule{
			Name:         rs.Name,
			Priority:     rs.Priority,
			Category:     rs.Category,
			Exclusive:    rs.Exclusive,
			ConditionSrc: rs.When,
			Steps:        rs.Do,
		})
	}
	engine, err := NewEngine(rules)
	if err != nil {
		return nil, err
	}
	p.engine = engine
	return p, nil
}

var capabilities = map[string]event.Capability{
	"advanced":    event.Advanced,
	"interactive": event.Interactive,
	"paint":       event.Paint,
	"team":        event.Team,
}

// NewBot returns a robot running the script with fresh memory.
func (p *Program) NewBot() *Bot {
	return &Bot{prog: p, engine: p.engine.withMemory()}
}

// Factory builds one Bot per round for agent.Serve.
func (p *Program) Factory() agent.Factory {
	return func(*model.RobotStatics) (agent.Robot, error) {
		return p.NewBot(), nil
	}
}
