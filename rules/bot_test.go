package rules

import (
	"context"
	"io"
	"log/slog"
	"strings"
	"testing"
	"time"

	"github.com/nstehr/vimy/vimy-host/agent"
	"github.com/nstehr/vimy/vimy-host/event"
	"github.com/nstehr/vimy/vimy-host/model"
	"github.com/nstehr/vimy/vimy-host/turn"
)

// script plays back canned results and keeps the commands it was sent.
type script struct {
	results []*turn.ExecResults
	sent    []*turn.ExecCommands
}

func (s *script) SubmitCommands(_ context.Context, cmds *turn.ExecCommands) error {
	s.sent = append(s.sent, cmds)
	return nil
}

func (s *script) AwaitResult(context.Context) (*turn.ExecResults, error) {
	if len(s.results) == 0 {
		return nil, io.EOF
	}
	res := s.results[0]
	s.results = s.results[1:]
	return res, nil
}

func turnResult(t int64, energy float64, events ...event.Event) *turn.ExecResults {
	return &turn.ExecResults{
		Status: model.NewRobotStatus(model.StatusFields{Time: t, Energy: energy}),
		Events: events,
	}
}

const botScript = `
name: sample.Test
colors:
  body: 0xFF010203
priorities:
  ScannedRobotEvent: 12
conditions:
  - name: hurt
    priority: 60
    when: Energy < 50
    do:
      - say: '"hurt"'
handlers:
  ScannedRobotEvent:
    - fire: 3
    - debug: {target: Event.Name}
rules:
  - name: go
    when: DistanceRemaining == 0
    do:
      - move: 100
`

func TestBotPlaysARound(t *testing.T) {
	prog, err := Load(strings.NewReader(botScript))
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	robot, err := prog.Factory()(nil)
	if err != nil {
		t.Fatalf("Factory: %v", err)
	}

	eng := &script{results: []*turn.ExecResults{
		turnResult(0, 100),
		turnResult(1, 40, &event.ScannedRobotEvent{Name: "sample.Target", Distance: 90}),
		func() *turn.ExecResults { r := turnResult(2, 40); r.Halt = true; return r }(),
	}}
	c := agent.New(eng, &model.RobotStatics{Name: "sample.Test", Advanced: true},
		agent.WithLogger(slog.New(slog.NewTextHandler(io.Discard, nil))))

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := c.Run(ctx, robot); err != nil {
		t.Fatalf("Run: %v", err)
	}

	if len(eng.sent) != 2 {
		t.Fatalf("sent %d turns, want 2", len(eng.sent))
	}
	first, second := eng.sent[0], eng.sent[1]
	if first.BodyColor != 0xFF010203 || first.GunColor != turn.DefaultGunColor {
		t.Errorf("colors = %#x %#x", first.BodyColor, first.GunColor)
	}
	if !first.Moved || first.DistanceRemaining != 100 {
		t.Errorf("turn rule did not move: %+v", first)
	}
	if second.Moved {
		t.Error("turn rule fired again while still moving")
	}
	if len(second.Bullets) != 1 || second.Bullets[0].Power != 3 {
		t.Errorf("bullets = %+v", second.Bullets)
	}
	if len(second.DebugProperties) != 1 || second.DebugProperties[0].Value != "sample.Target" {
		t.Errorf("debug properties = %+v", second.DebugProperties)
	}
	if !strings.Contains(second.OutputText, "hurt") {
		t.Errorf("console = %q", second.OutputText)
	}
	if got := c.Events().EventPriority("ScannedRobotEvent"); got != 12 {
		t.Errorf("scanned robot priority = %d, want 12", got)
	}
}

func TestBotWarnsAboutMissingCapabilities(t *testing.T) {
	prog, err := Load(strings.NewReader("name: x\nrequires: [team]\n"))
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	eng := &script{results: []*turn.ExecResults{
		turnResult(0, 100),
		func() *turn.ExecResults { r := turnResult(1, 100); r.Halt = true; return r }(),
	}}
	c := agent.New(eng, &model.RobotStatics{Name: "x"},
		agent.WithLogger(slog.New(slog.NewTextHandler(io.Discard, nil))))
	if err := c.Run(context.Background(), prog.NewBot()); err != nil {
		t.Fatalf("Run: %v", err)
	}
	if out := eng.sent[0].OutputText; !strings.Contains(out, "script needs capabilities") {
		t.Errorf("console = %q", out)
	}
}
