package turn

import (
	"bytes"
	"log/slog"
	"math"
	"reflect"
	"strings"
	"testing"

	"github.com/nstehr/vimy/vimy-host/event"
	"github.com/nstehr/vimy/vimy-host/model"
	"github.com/nstehr/vimy/vimy-host/wire"
)

const version = 0x01090500

func newSerializer(t *testing.T) *wire.Serializer {
	t.Helper()
	s, err := NewSerializer(version)
	if err != nil {
		t.Fatalf("NewSerializer: %v", err)
	}
	return s
}

func roundTrip(t *testing.T, s *wire.Serializer, tag byte, rec any) any {
	t.Helper()
	data, err := s.Marshal(tag, rec)
	if err != nil {
		t.Fatalf("Marshal: %v", err)
	}
	gotTag, got, err := s.Unmarshal(data)
	if err != nil {
		t.Fatalf("Unmarshal: %v", err)
	}
	if gotTag != tag {
		t.Fatalf("tag = %d, want %d", gotTag, tag)
	}
	return got
}

func TestNewExecCommandsDefaults(t *testing.T) {
	c := NewExecCommands()
	if c.BodyColor != 0xFF29298C || c.GunColor != 0xFF29298C || c.RadarColor != 0xFF29298C {
		t.Errorf("body/gun/radar colors = %#x %#x %#x", c.BodyColor, c.GunColor, c.RadarColor)
	}
	if c.ScanColor != 0xFF0000FF || c.BulletColor != 0xFFFFFFFF {
		t.Errorf("scan/bullet colors = %#x %#x", c.ScanColor, c.BulletColor)
	}
	if c.MaxTurnRate != TurnRateLimit || c.MaxVelocity != VelocityLimit {
		t.Errorf("limits = %v %v, want %v %v", c.MaxTurnRate, c.MaxVelocity, TurnRateLimit, VelocityLimit)
	}
}

func TestExecCommandsKeepsListOrder(t *testing.T) {
	s := newSerializer(t)
	c := NewExecCommands()
	c.DistanceRemaining = 100
	c.BodyTurnRemaining = -0.5
	c.AdjustRadarForGun = true
	c.Moved = true
	c.OutputText = "turning\n"
	c.GraphicsCalls = []byte{1, 2, 3}
	c.Bullets = []*model.BulletCommand{
		{Power: 1, BulletID: 1},
		{Power: 2, BulletID: 2, FireAssistValid: true, FireAssistAngle: 0.1},
		{Power: 3, BulletID: 3},
	}
	c.DebugProperties = []*model.DebugProperty{
		{Key: "target", Value: "Walls"},
		{Key: "mode", Value: "ram"},
	}
	c.TeamMessages = []*model.TeamMessage{{Sender: "me", Payload: []byte("hi")}}

	got := roundTrip(t, s, model.TagExecCommands, c).(*ExecCommands)
	if !reflect.DeepEqual(got, c) {
		t.Errorf("round trip = %+v, want %+v", got, c)
	}
	for i, b := range got.Bullets {
		if b.BulletID != int32(i+1) {
			t.Errorf("bullet %d has id %d", i, b.BulletID)
		}
	}
	if got.DebugProperties[0].Key != "target" || got.DebugProperties[1].Key != "mode" {
		t.Errorf("debug properties reordered: %+v", got.DebugProperties)
	}
}

func TestExecCommandsEmptyListsDecodeNil(t *testing.T) {
	s := newSerializer(t)
	c := NewExecCommands()
	c.Bullets = []*model.BulletCommand{}
	got := roundTrip(t, s, model.TagExecCommands, c).(*ExecCommands)
	if got.Bullets != nil || got.TeamMessages != nil || got.DebugProperties != nil {
		t.Errorf("empty lists decoded as %v %v %v", got.Bullets, got.TeamMessages, got.DebugProperties)
	}
	if got.OutputText != "" || got.GraphicsCalls != nil {
		t.Errorf("null text/bytes decoded as %q %v", got.OutputText, got.GraphicsCalls)
	}
}

func TestExecResultsRoundTrip(t *testing.T) {
	s := newSerializer(t)
	seed := NewExecCommands()
	seed.GunTurnRemaining = 0.75
	r := &ExecResults{
		ShouldWait:   true,
		PaintEnabled: true,
		Commands:     seed,
		Status: model.NewRobotStatus(model.StatusFields{
			Energy: 87.5, X: 400, Y: 300, Others: 3, RoundNum: 1, NumRounds: 10, Time: 42,
		}),
		Events: []event.Event{
			&event.ScannedRobotEvent{Name: "sample.Walls", Distance: 200},
			&event.BulletMissedEvent{BulletID: 2},
			&event.RoundEndedEvent{Round: 1, Turns: 42, TotalTurns: 1042},
		},
		TeamMessages:  []*model.TeamMessage{{Sender: "lead", Recipient: "me", Payload: []byte{9}}},
		BulletUpdates: []*model.BulletStatus{{BulletID: 2, X: 1, Y: 2, Active: false}},
	}

	got := roundTrip(t, s, model.TagExecResults, r).(*ExecResults)
	if !reflect.DeepEqual(got, r) {
		t.Errorf("round trip = %+v, want %+v", got, r)
	}
}

func TestExecResultsNilParts(t *testing.T) {
	s := newSerializer(t)
	r := &ExecResults{Halt: true}
	data, err := s.Marshal(model.TagExecResults, r)
	if err != nil {
		t.Fatalf("Marshal: %v", err)
	}
	// tag + 3 bools + 2 nil records + 3 empty lists
	if got, want := len(data)-wire.HeaderSize, 1+3+2+3; got != want {
		t.Errorf("payload = %d bytes, want %d", got, want)
	}
	_, rec, err := s.Unmarshal(data)
	if err != nil {
		t.Fatalf("Unmarshal: %v", err)
	}
	if got := rec.(*ExecResults); !reflect.DeepEqual(got, r) {
		t.Errorf("round trip = %+v, want %+v", got, r)
	}
}

func TestExecResultsDropsLocalEvents(t *testing.T) {
	s := newSerializer(t)
	r := &ExecResults{Events: []event.Event{&event.StatusEvent{}, &event.WinEvent{}}}
	got := roundTrip(t, s, model.TagExecResults, r).(*ExecResults)
	if len(got.Events) != 1 || got.Events[0].Kind() != event.KindWin {
		t.Errorf("events = %v, want only the win", got.Events)
	}
}

func TestCopy(t *testing.T) {
	c := NewExecCommands()
	c.DistanceRemaining = 50
	c.AdjustGunForBody = true
	c.BodyColor = 0xFF00FF00
	c.Scan = true
	c.Moved = true
	c.IsTryingToPaint = true
	c.OutputText = "x"
	c.Bullets = []*model.BulletCommand{{Power: 1}}

	seed := c.Copy(false)
	if seed.DistanceRemaining != 50 || !seed.AdjustGunForBody || seed.BodyColor != 0xFF00FF00 {
		t.Errorf("Copy(false) lost movement state: %+v", seed)
	}
	if seed.Scan || seed.Moved || seed.IsTryingToPaint || seed.OutputText != "" || seed.Bullets != nil {
		t.Errorf("Copy(false) carried per-turn payload: %+v", seed)
	}

	full := c.Copy(true)
	if !full.Scan || !full.Moved || !full.IsTryingToPaint || full.OutputText != "x" || len(full.Bullets) != 1 {
		t.Errorf("Copy(true) dropped payload: %+v", full)
	}
}

func TestValidate(t *testing.T) {
	var diag bytes.Buffer
	log := slog.New(slog.NewTextHandler(&diag, nil))

	c := NewExecCommands()
	c.MaxTurnRate = -1
	c.MaxVelocity = -20
	c.Validate(log)
	if c.MaxTurnRate != TurnRateLimit || c.MaxVelocity != VelocityLimit {
		t.Errorf("limits = %v %v", c.MaxTurnRate, c.MaxVelocity)
	}

	c.MaxVelocity = 3
	c.Validate(log)
	if c.MaxVelocity != 3 {
		t.Errorf("MaxVelocity = %v, want 3", c.MaxVelocity)
	}
	if diag.Len() != 0 {
		t.Errorf("unexpected diagnostics: %s", diag.String())
	}

	c.MaxTurnRate = math.NaN()
	c.Validate(log)
	if !strings.Contains(diag.String(), "invalid max turn rate") {
		t.Errorf("NaN not reported: %q", diag.String())
	}
}

func TestRegisterDefault(t *testing.T) {
	for i := 0; i < 2; i++ {
		if err := RegisterDefault(); err != nil {
			t.Fatalf("RegisterDefault #%d: %v", i, err)
		}
	}
	for _, tag := range []byte{model.TagExecCommands, model.TagExecResults, model.TagRobotStatus, event.TagScannedRobot} {
		if _, ok := wire.Default.Lookup(tag); !ok {
			t.Errorf("tag %d missing from the default registry", tag)
		}
	}
}
