package rules

import (
	"math"
	"testing"

	"github.com/nstehr/vimy/vimy-host/event"
	"github.com/nstehr/vimy/vimy-host/model"
)

func near(a, b float64) bool { return math.Abs(a-b) < 1e-9 }

func TestAngles(t *testing.T) {
	var env Env
	tests := []struct {
		in, rel, abs float64
	}{
		{0, 0, 0},
		{180, 180, 180},
		{-180, 180, 180},
		{270, -90, 270},
		{-90, -90, 270},
		{725, 5, 5},
	}
	for _, tt := range tests {
		if got := env.Relative(tt.in); !near(got, tt.rel) {
			t.Errorf("Relative(%v) = %v, want %v", tt.in, got, tt.rel)
		}
		if got := env.Absolute(tt.in); !near(got, tt.abs) {
			t.Errorf("Absolute(%v) = %v, want %v", tt.in, got, tt.abs)
		}
	}
	if !near(Deg(Rad(33)), 33) {
		t.Errorf("Deg(Rad(33)) = %v", Deg(Rad(33)))
	}
}

func TestGeometry(t *testing.T) {
	env := Env{X: 100, Y: 100, Heading: 90, Width: 800, Height: 600}
	if got := env.BearingTo(100, 200); !near(got, -90) {
		t.Errorf("BearingTo north = %v, want -90", got)
	}
	if got := env.BearingTo(200, 100); !near(got, 0) {
		t.Errorf("BearingTo east = %v, want 0", got)
	}
	if got := env.DistanceTo(103, 104); !near(got, 5) {
		t.Errorf("DistanceTo = %v, want 5", got)
	}
	if got := env.WallDistance(); got != 100 {
		t.Errorf("WallDistance = %v, want 100", got)
	}
	if got := env.Clamp(12, 0, 10); got != 10 {
		t.Errorf("Clamp = %v", got)
	}
}

type snapshot struct {
	status  *model.RobotStatus
	statics *model.RobotStatics
}

func (s snapshot) Status() *model.RobotStatus   { return s.status }
func (s snapshot) Statics() *model.RobotStatics { return s.statics }
func (s snapshot) Energy() float64              { return s.status.Energy() - 1 }
func (s snapshot) GunHeat() float64             { return s.status.GunHeat() + 1 }
func (s snapshot) DistanceRemaining() float64   { return 40 }
func (s snapshot) BodyTurnRemaining() float64   { return math.Pi }
func (s snapshot) GunTurnRemaining() float64    { return 0 }
func (s snapshot) RadarTurnRemaining() float64  { return -math.Pi / 2 }

func TestNewEnv(t *testing.T) {
	s := snapshot{
		status: model.NewRobotStatus(model.StatusFields{
			Time: 12, Energy: 50, GunHeat: 0.5, X: 10, Y: 20,
			BodyHeading: math.Pi / 2, Others: 3, RoundNum: 1,
		}),
		statics: &model.RobotStatics{Rules: model.BattleRules{Width: 800, Height: 600, NumRounds: 10}},
	}
	mem := map[string]any{"k": 1}
	env := newEnv(s, &event.ScannedRobotEvent{Name: "x", Bearing: math.Pi, Distance: 70}, mem)

	if env.Time != 12 || env.Round != 1 || env.Rounds != 10 || env.Others != 3 {
		t.Errorf("env = %+v", env)
	}
	if env.Energy != 49 || env.GunHeat != 1.5 || env.DistanceRemaining != 40 {
		t.Errorf("pending fire not reflected: %+v", env)
	}
	if !near(env.Heading, 90) || !near(env.TurnRemaining, 180) || !near(env.RadarTurnRemaining, -90) {
		t.Errorf("angles not in degrees: %+v", env)
	}
	if env.Width != 800 || env.Height != 600 {
		t.Errorf("battlefield = %vx%v", env.Width, env.Height)
	}
	if env.Event["Name"] != "x" || env.Event["Distance"] != 70.0 || !near(env.Event["Bearing"].(float64), 180) {
		t.Errorf("event = %v", env.Event)
	}
	if env.Event["Kind"] != "ScannedRobotEvent" {
		t.Errorf("kind = %v", env.Event["Kind"])
	}
	if !env.Has("k") || env.Recall("k") != 1 || env.Has("nope") {
		t.Errorf("memory = %v", env.Memory)
	}
}

func TestEventFields(t *testing.T) {
	if eventFields(nil) != nil {
		t.Error("nil event has fields")
	}
	cond := event.NewCondition("cornered", 50, nil)
	tests := []struct {
		e     event.Event
		key   string
		value any
	}{
		{&event.HitRobotEvent{Name: "r", AtFault: true}, "AtFault", true},
		{&event.HitByBulletEvent{Bullet: &model.Bullet{Owner: "o", Power: 2}}, "Name", "o"},
		{&event.BulletHitEvent{Name: "v", Energy: 3}, "Energy", 3.0},
		{&event.RobotDeathEvent{Name: "d"}, "Name", "d"},
		{&event.MessageEvent{Sender: "s", Payload: []byte("hi")}, "Message", "hi"},
		{&event.CustomEvent{Condition: cond}, "Name", "cornered"},
		{&event.SkippedTurnEvent{SkippedTurn: 4}, "Turn", int64(4)},
		{&event.RoundEndedEvent{Round: 2, Turns: 100}, "Turns", 100},
		{&event.BattleEndedEvent{Aborted: true}, "Aborted", true},
	}
	for _, tt := range tests {
		f := eventFields(tt.e)
		if f[tt.key] != tt.value {
			t.Errorf("%s[%s] = %v, want %v", tt.e.Kind(), tt.key, f[tt.key], tt.value)
		}
	}
}
