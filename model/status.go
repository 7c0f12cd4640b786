// Package model holds the records exchanged with the battle engine and the
// codecs that persist them.
package model

import "github.com/nstehr/vimy/vimy-host/wire"

// Type tags shared with the engine. Event tags live in package event.
const (
	TagExecCommands  byte = 1
	TagBulletCommand byte = 2
	TagTeamMessage   byte = 3
	TagDebugProperty byte = 4
	TagExecResults   byte = 5
	TagRobotStatus   byte = 6
	TagBulletStatus  byte = 7
	TagBattleResults byte = 8
	TagBullet        byte = 9
	TagRobotStatics  byte = 10
)

// StatusFields is the plain form of a RobotStatus, used to build one.
type StatusFields struct {
	Energy             float64
	X                  float64
	Y                  float64
	BodyHeading        float64
	GunHeading         float64
	RadarHeading       float64
	Velocity           float64
	BodyTurnRemaining  float64
	RadarTurnRemaining float64
	GunTurnRemaining   float64
	DistanceRemaining  float64
	GunHeat            float64
	Others             int32
	NumSentries        int32
	RoundNum           int32
	NumRounds          int32
	Time               int64
}

// RobotStatus is the engine's view of a robot after a turn. It cannot be
// changed once built; headings are in radians.
type RobotStatus struct {
	f StatusFields
}

// NewRobotStatus is reserved for the codec and for engine-side code. Robot
// logic only ever reads a status it was handed.
func NewRobotStatus(f StatusFields) *RobotStatus {
	return &RobotStatus{f: f}
}

// Fields returns a copy of every value in the snapshot.
func (s *RobotStatus) Fields() StatusFields { return s.f }

func (s *RobotStatus) Energy() float64             { return s.f.Energy }
func (s *RobotStatus) X() float64                  { return s.f.X }
func (s *RobotStatus) Y() float64                  { return s.f.Y }
func (s *RobotStatus) BodyHeading() float64        { return s.f.BodyHeading }
func (s *RobotStatus) GunHeading() float64         { return s.f.GunHeading }
func (s *RobotStatus) RadarHeading() float64       { return s.f.RadarHeading }
func (s *RobotStatus) Velocity() float64           { return s.f.Velocity }
func (s *RobotStatus) BodyTurnRemaining() float64  { return s.f.BodyTurnRemaining }
func (s *RobotStatus) RadarTurnRemaining() float64 { return s.f.RadarTurnRemaining }
func (s *RobotStatus) GunTurnRemaining() float64   { return s.f.GunTurnRemaining }
func (s *RobotStatus) DistanceRemaining() float64  { return s.f.DistanceRemaining }
func (s *RobotStatus) GunHeat() float64            { return s.f.GunHeat }
func (s *RobotStatus) Others() int32               { return s.f.Others }
func (s *RobotStatus) NumSentries() int32          { return s.f.NumSentries }
func (s *RobotStatus) RoundNum() int32             { return s.f.RoundNum }
func (s *RobotStatus) NumRounds() int32            { return s.f.NumRounds }
func (s *RobotStatus) Time() int64                 { return s.f.Time }

var robotStatusCodec = wire.CodecOf(
	func(s *wire.Serializer, v *RobotStatus) int {
		return 12*wire.SizeFloat64 + 4*wire.SizeInt32 + wire.SizeInt64
	},
	func(w *wire.Writer, v *RobotStatus) {
		f := v.f
		w.Float64(f.Energy)
		w.Float64(f.X)
		w.Float64(f.Y)
		w.Float64(f.BodyHeading)
		w.Float64(f.GunHeading)
		w.Float64(f.RadarHeading)
		w.Float64(f.Velocity)
		w.Float64(f.BodyTurnRemaining)
		w.Float64(f.RadarTurnRemaining)
		w.Float64(f.GunTurnRemaining)
		w.Float64(f.DistanceRemaining)
		w.Float64(f.GunHeat)
		w.Int32(f.Others)
		w.Int32(f.NumSentries)
		w.Int32(f.RoundNum)
		w.Int32(f.NumRounds)
		w.Int64(f.Time)
	},
	func(r *wire.Reader) *RobotStatus {
		return NewRobotStatus(StatusFields{
			Energy:             r.Float64(),
			X:                  r.Float64(),
			Y:                  r.Float64(),
			BodyHeading:        r.Float64(),
			GunHeading:         r.Float64(),
			RadarHeading:       r.Float64(),
			Velocity:           r.Float64(),
			BodyTurnRemaining:  r.Float64(),
			RadarTurnRemaining: r.Float64(),
			GunTurnRemaining:   r.Float64(),
			DistanceRemaining:  r.Float64(),
			GunHeat:            r.Float64(),
			Others:             r.Int32(),
			NumSentries:        r.Int32(),
			RoundNum:           r.Int32(),
			NumRounds:          r.Int32(),
			Time:               r.Int64(),
		})
	},
)
