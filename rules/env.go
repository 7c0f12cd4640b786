package rules

import (
	"math"

	"github.com/nstehr/vimy/vimy-host/event"
	"github.com/nstehr/vimy/vimy-host/model"
)

// Env is what script expressions see: the robot's state this turn, the
// event being handled (nil outside handlers) and the round's memory.
// Headings and bearings are in degrees.
type Env struct {
	Time   int64
	Round  int
	Rounds int

	Energy       float64
	GunHeat      float64
	X            float64
	Y            float64
	Velocity     float64
	Heading      float64
	GunHeading   float64
	RadarHeading float64

	DistanceRemaining  float64
	TurnRemaining      float64
	GunTurnRemaining   float64
	RadarTurnRemaining float64

	Others int
	Width  float64
	Height float64

	Event  map[string]any
	Memory map[string]any
}

// Rad converts degrees to radians.
func Rad(deg float64) float64 { return deg * math.Pi / 180 }

// Deg converts radians to degrees.
func Deg(rad float64) float64 { return rad * 180 / math.Pi }

func (Env) Rad(deg float64) float64 { return Rad(deg) }
func (Env) Deg(rad float64) float64 { return Deg(rad) }

// Relative normalizes an angle to (-180, 180].
func (Env) Relative(deg float64) float64 {
	deg = math.Mod(deg, 360)
	if deg <= -180 {
		deg += 360
	} else if deg > 180 {
		deg -= 360
	}
	return deg
}

// Absolute normalizes an angle to [0, 360).
func (Env) Absolute(deg float64) float64 {
	deg = math.Mod(deg, 360)
	if deg < 0 {
		deg += 360
	}
	return deg
}

func (Env) Clamp(v, lo, hi float64) float64 { return math.Max(lo, math.Min(hi, v)) }

// BearingTo is the turn, in degrees, that points the body at x, y.
func (e Env) BearingTo(x, y float64) float64 {
	abs := Deg(math.Atan2(x-e.X, y-e.Y))
	return e.Relative(abs - e.Heading)
}

func (e Env) DistanceTo(x, y float64) float64 { return math.Hypot(x-e.X, y-e.Y) }

// WallDistance is the distance to the nearest wall.
func (e Env) WallDistance() float64 {
	return math.Min(math.Min(e.X, e.Width-e.X), math.Min(e.Y, e.Height-e.Y))
}

func (e Env) Has(key string) bool {
	_, ok := e.Memory[key]
	return ok
}

func (e Env) Recall(key string) any { return e.Memory[key] }

// Snapshot is the robot state an Env is built from.
type Snapshot interface {
	Status() *model.RobotStatus
	Statics() *model.RobotStatics
	Energy() float64
	GunHeat() float64
	DistanceRemaining() float64
	BodyTurnRemaining() float64
	GunTurnRemaining() float64
	RadarTurnRemaining() float64
}

func newEnv(s Snapshot, e event.Event, memory map[string]any) Env {
	st := s.Status()
	rules := s.Statics().Rules
	return Env{
		Time:               st.Time(),
		Round:              int(st.RoundNum()),
		Rounds:             int(rules.NumRounds),
		Energy:             s.Energy(),
		GunHeat:            s.GunHeat(),
		X:                  st.X(),
		Y:                  st.Y(),
		Velocity:           st.Velocity(),
		Heading:            Deg(st.BodyHeading()),
		GunHeading:         Deg(st.GunHeading()),
		RadarHeading:       Deg(st.RadarHeading()),
		DistanceRemaining:  s.DistanceRemaining(),
		TurnRemaining:      Deg(s.BodyTurnRemaining()),
		GunTurnRemaining:   Deg(s.GunTurnRemaining()),
		RadarTurnRemaining: Deg(s.RadarTurnRemaining()),
		Others:             int(st.Others()),
		Width:              float64(rules.Width),
		Height:             float64(rules.Height),
		Event:              eventFields(e),
		Memory:             memory,
	}
}

// eventFields flattens e for expressions; angles become degrees.
func eventFields(e event.Event) map[string]any {
	if e == nil {
		return nil
	}
	f := map[string]any{"Kind": e.Kind().String(), "Time": e.Time()}
	switch e := e.(type) {
	case *event.ScannedRobotEvent:
		f["Name"] = e.Name
		f["Energy"] = e.Energy
		f["Heading"] = Deg(e.Heading)
		f["Bearing"] = Deg(e.Bearing)
		f["Distance"] = e.Distance
		f["Velocity"] = e.Velocity
		f["Sentry"] = e.Sentry
	case *event.HitByBulletEvent:
		f["Bearing"] = Deg(e.Bearing)
		if e.Bullet != nil {
			f["Name"] = e.Bullet.Owner
			f["Power"] = e.Bullet.Power
		}
	case *event.HitWallEvent:
		f["Bearing"] = Deg(e.Bearing)
	case *event.HitRobotEvent:
		f["Name"] = e.Name
		f["Bearing"] = Deg(e.Bearing)
		f["Energy"] = e.Energy
		f["AtFault"] = e.AtFault
	case *event.BulletHitEvent:
		f["Name"] = e.Name
		f["Energy"] = e.Energy
	case *event.BulletHitBulletEvent:
		if e.HitBullet != nil {
			f["Name"] = e.HitBullet.Owner
		}
	case *event.RobotDeathEvent:
		f["Name"] = e.Name
	case *event.MessageEvent:
		f["Sender"] = e.Sender
		f["Message"] = string(e.Payload)
	case *event.CustomEvent:
		f["Name"] = e.Condition.Name()
	case *event.SkippedTurnEvent:
		f["Turn"] = e.SkippedTurn
	case *event.RoundEndedEvent:
		f["Round"] = int(e.Round)
		f["Turns"] = int(e.Turns)
	case *event.BattleEndedEvent:
		f["Aborted"] = e.Aborted
	}
	return f
}
