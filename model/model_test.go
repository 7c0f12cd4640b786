package model

import (
	"reflect"
	"testing"

	"github.com/nstehr/vimy/vimy-host/wire"
)

func newSerializer(t *testing.T) *wire.Serializer {
	t.Helper()
	reg := wire.NewRegistry()
	if err := Register(reg); err != nil {
		t.Fatalf("Register: %v", err)
	}
	return wire.New(0x01090500, wire.WithRegistry(reg))
}

func TestRecordRoundTrip(t *testing.T) {
	s := newSerializer(t)

	tests := []struct {
		name string
		tag  byte
		rec  any
	}{
		{"bullet command", TagBulletCommand, &BulletCommand{Power: 3, FireAssistValid: true, FireAssistAngle: 0.25, BulletID: 17}},
		{"team message", TagTeamMessage, &TeamMessage{Sender: "alpha", Recipient: "bravo", Payload: []byte("go left")}},
		{"broadcast", TagTeamMessage, &TeamMessage{Sender: "alpha", Payload: []byte{}}},
		{"debug property", TagDebugProperty, &DebugProperty{Key: "target", Value: "Walls (1)"}},
		{"robot status", TagRobotStatus, NewRobotStatus(StatusFields{
			Energy: 100, X: 18, Y: 582.5, BodyHeading: 1.5, GunHeading: 2.5, RadarHeading: 3.5,
			Velocity: -8, BodyTurnRemaining: 0.1, RadarTurnRemaining: 0.2, GunTurnRemaining: 0.3,
			DistanceRemaining: 120, GunHeat: 1.2, Others: 5, NumSentries: 1, RoundNum: 2, NumRounds: 10,
			Time: 1234567,
		})},
		{"bullet status", TagBulletStatus, &BulletStatus{BulletID: 4, X: 10, Y: 20, Victim: "Walls", Active: false}},
		{"bullet", TagBullet, &Bullet{Heading: 0.7, X: 1, Y: 2, Power: 1.5, Owner: "me", Victim: "", Active: true, ID: 9}},
		{"battle results", TagBattleResults, &BattleResults{
			TeamLeaderName: "sample.Crazy", Rank: 1, Score: 1550.5,
			Scores:     []float64{700, 50, 300, 400, 60, 30, 10.5},
			ScoreNames: []string{"survival", "last survivor", "bullet damage", "", "ram damage"},
			Firsts:     3, Seconds: 1, Thirds: 0,
		}},
		{"battle results without names", TagBattleResults, &BattleResults{TeamLeaderName: "x", ScoreNames: []string{}}},
		{"robot statics", TagRobotStatics, &RobotStatics{
			Version: "1.9.5.0", Advanced: true, Team: true, TeamLeader: true, Paint: true,
			Name: "sample.MyFirstLeader (1)", ShortName: "MyFirstLeader (1)", VeryShortName: "MyFirstL (1)",
			FullClassName: "sample.MyFirstLeader", ShortClassName: "MyFirstLeader",
			Rules:     BattleRules{Width: 800, Height: 600, NumRounds: 10, GunCoolingRate: 0.1, InactivityTime: 450, SentryBorderSize: 100},
			Teammates: []string{"sample.MyFirstDroid (1)", "sample.MyFirstDroid (2)"},
			TeamName:  "sample.MyFirstTeam", RobotIndex: 2, TeamIndex: 0,
		}},
		{"robot statics solo", TagRobotStatics, &RobotStatics{Name: "sample.Walls"}},
		{"robot statics with an unnamed teammate", TagRobotStatics, &RobotStatics{
			Name: "sample.MyFirstDroid (1)", Team: true, Droid: true,
			Teammates: []string{"sample.MyFirstLeader (1)", "", "sample.MyFirstDroid (2)"},
			TeamName:  "sample.MyFirstTeam", RobotIndex: 1, TeamIndex: 3,
		}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			data, err := s.Marshal(tt.tag, tt.rec)
			if err != nil {
				t.Fatalf("Marshal: %v", err)
			}
			if got, want := s.SizeOf(tt.tag, tt.rec), len(data)-wire.HeaderSize; got != want {
				t.Errorf("SizeOf = %d, want %d", got, want)
			}
			tag, got, err := s.Unmarshal(data)
			if err != nil {
				t.Fatalf("Unmarshal: %v", err)
			}
			if tag != tt.tag {
				t.Errorf("tag = %d, want %d", tag, tt.tag)
			}
			if !reflect.DeepEqual(got, tt.rec) {
				t.Errorf("Unmarshal = %+v, want %+v", got, tt.rec)
			}
		})
	}
}

func TestRobotStatusGetters(t *testing.T) {
	st := NewRobotStatus(StatusFields{Energy: 42, X: 1, Y: 2, GunHeat: 0.5, Others: 3, Time: 99})
	if st.Energy() != 42 || st.X() != 1 || st.Y() != 2 {
		t.Errorf("position/energy getters = (%v, %v, %v)", st.Energy(), st.X(), st.Y())
	}
	if st.GunHeat() != 0.5 || st.Others() != 3 || st.Time() != 99 {
		t.Errorf("GunHeat/Others/Time = (%v, %v, %v)", st.GunHeat(), st.Others(), st.Time())
	}
	f := st.Fields()
	f.Energy = 0
	if st.Energy() != 42 {
		t.Error("mutating Fields() copy changed the status")
	}
}

func TestBulletUpdate(t *testing.T) {
	b := &Bullet{ID: 3, X: 1, Y: 1, Active: true, Owner: "me"}
	b.Update(&BulletStatus{BulletID: 3, X: 5, Y: 6, Victim: "Walls", Active: false})
	want := &Bullet{ID: 3, X: 5, Y: 6, Active: false, Owner: "me", Victim: "Walls"}
	if !reflect.DeepEqual(b, want) {
		t.Errorf("Update = %+v, want %+v", b, want)
	}
}

func TestRegisterIsIdempotent(t *testing.T) {
	reg := wire.NewRegistry()
	if err := Register(reg); err != nil {
		t.Fatalf("first Register: %v", err)
	}
	if err := Register(reg); err != nil {
		t.Errorf("second Register: %v", err)
	}
}

func TestTeamMessageBroadcast(t *testing.T) {
	if !(&TeamMessage{Sender: "a"}).Broadcast() {
		t.Error("message without recipient should be a broadcast")
	}
	if (&TeamMessage{Sender: "a", Recipient: "b"}).Broadcast() {
		t.Error("message with recipient should not be a broadcast")
	}
}
