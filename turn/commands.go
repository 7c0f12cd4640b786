// Package turn holds the two batches exchanged once per turn: the robot's
// commands and the engine's results.
package turn

import (
	"log/slog"
	"math"

	"github.com/nstehr/vimy/vimy-host/model"
	"github.com/nstehr/vimy/vimy-host/wire"
)

// Default ARGB colors of a freshly built robot.
const (
	DefaultBodyColor   uint32 = 0xFF29298C
	DefaultGunColor    uint32 = 0xFF29298C
	DefaultRadarColor  uint32 = 0xFF29298C
	DefaultScanColor   uint32 = 0xFF0000FF
	DefaultBulletColor uint32 = 0xFFFFFFFF
)

// Physical limits the engine enforces anyway.
const (
	TurnRateLimit = 10 * math.Pi / 180
	VelocityLimit = 8.0
)

// ExecCommands is everything a robot asks of the engine for one turn.
type ExecCommands struct {
	BodyTurnRemaining  float64
	RadarTurnRemaining float64
	GunTurnRemaining   float64
	DistanceRemaining  float64

	AdjustGunForBody      bool
	AdjustRadarForGun     bool
	AdjustRadarForBody    bool
	AdjustRadarForBodySet bool

	BodyColor   uint32
	GunColor    uint32
	RadarColor  uint32
	ScanColor   uint32
	BulletColor uint32

	MaxTurnRate float64
	MaxVelocity float64

	Moved           bool
	Scan            bool
	IsIORobot       bool
	IsTryingToPaint bool

	OutputText      string
	GraphicsCalls   []byte
	Bullets         []*model.BulletCommand
	TeamMessages    []*model.TeamMessage
	DebugProperties []*model.DebugProperty
}

func NewExecCommands() *ExecCommands {
	c := &ExecCommands{
		BodyColor:   DefaultBodyColor,
		GunColor:    DefaultGunColor,
		RadarColor:  DefaultRadarColor,
		ScanColor:   DefaultScanColor,
		BulletColor: DefaultBulletColor,
	}
	c.SetMaxTurnRate(math.MaxFloat64)
	c.SetMaxVelocity(math.MaxFloat64)
	return c
}

// SetMaxTurnRate stores |v| capped at TurnRateLimit.
func (c *ExecCommands) SetMaxTurnRate(v float64) {
	c.MaxTurnRate = math.Min(math.Abs(v), TurnRateLimit)
}

// SetMaxVelocity stores |v| capped at VelocityLimit.
func (c *ExecCommands) SetMaxVelocity(v float64) {
	c.MaxVelocity = math.Min(math.Abs(v), VelocityLimit)
}

// Copy starts a new batch from c. The movement state, adjust flags, colors
// and limits always carry over. The per-turn payload (bullets, scan, moved,
// graphics, output, messages, debug properties, paint) only does when
// fromRobot is set, i.e. when the copy is the one handed to the engine.
func (c *ExecCommands) Copy(fromRobot bool) *ExecCommands {
	n := &ExecCommands{
		BodyTurnRemaining:     c.BodyTurnRemaining,
		RadarTurnRemaining:    c.RadarTurnRemaining,
		GunTurnRemaining:      c.GunTurnRemaining,
		DistanceRemaining:     c.DistanceRemaining,
		AdjustGunForBody:      c.AdjustGunForBody,
		AdjustRadarForGun:     c.AdjustRadarForGun,
		AdjustRadarForBody:    c.AdjustRadarForBody,
		AdjustRadarForBodySet: c.AdjustRadarForBodySet,
		BodyColor:             c.BodyColor,
		GunColor:              c.GunColor,
		RadarColor:            c.RadarColor,
		ScanColor:             c.ScanColor,
		BulletColor:           c.BulletColor,
		MaxTurnRate:           c.MaxTurnRate,
		MaxVelocity:           c.MaxVelocity,
	}
	if fromRobot {
		n.DebugProperties = c.DebugProperties
		n.Bullets = c.Bullets
		n.Scan = c.Scan
		n.Moved = c.Moved
		n.GraphicsCalls = c.GraphicsCalls
		n.OutputText = c.OutputText
		n.TeamMessages = c.TeamMessages
		n.IsTryingToPaint = c.IsTryingToPaint
	}
	return n
}

// Validate re-applies the limits to values robot code may have set
// directly. A NaN limit is reported to diag and validation stops there.
func (c *ExecCommands) Validate(diag *slog.Logger) {
	if math.IsNaN(c.MaxTurnRate) {
		diag.Warn("invalid max turn rate", "value", c.MaxTurnRate)
		return
	}
	c.SetMaxTurnRate(c.MaxTurnRate)

	if math.IsNaN(c.MaxVelocity) {
		diag.Warn("invalid max velocity", "value", c.MaxVelocity)
		return
	}
	c.SetMaxVelocity(c.MaxVelocity)
}

var execCommandsCodec = wire.CodecOf(
	func(s *wire.Serializer, v *ExecCommands) int {
		return 4*wire.SizeFloat64 +
			4*wire.SizeBool +
			5*wire.SizeInt32 +
			2*wire.SizeFloat64 +
			4*wire.SizeBool +
			s.SizeString(v.OutputText) +
			wire.SizeBytes(v.GraphicsCalls) +
			wire.SizeList(s, model.TagBulletCommand, v.Bullets) +
			wire.SizeList(s, model.TagTeamMessage, v.TeamMessages) +
			wire.SizeList(s, model.TagDebugProperty, v.DebugProperties)
	},
	func(w *wire.Writer, v *ExecCommands) {
		w.Float64(v.BodyTurnRemaining)
		w.Float64(v.RadarTurnRemaining)
		w.Float64(v.GunTurnRemaining)
		w.Float64(v.DistanceRemaining)

		w.Bool(v.AdjustGunForBody)
		w.Bool(v.AdjustRadarForGun)
		w.Bool(v.AdjustRadarForBody)
		w.Bool(v.AdjustRadarForBodySet)

		w.Int32(int32(v.BodyColor))
		w.Int32(int32(v.GunColor))
		w.Int32(int32(v.RadarColor))
		w.Int32(int32(v.ScanColor))
		w.Int32(int32(v.BulletColor))

		w.Float64(v.MaxTurnRate)
		w.Float64(v.MaxVelocity)

		w.Bool(v.Moved)
		w.Bool(v.Scan)
		w.Bool(v.IsIORobot)
		w.Bool(v.IsTryingToPaint)

		w.String(v.OutputText)
		w.Bytes(v.GraphicsCalls)
		wire.WriteList(w, model.TagBulletCommand, v.Bullets)
		wire.WriteList(w, model.TagTeamMessage, v.TeamMessages)
		wire.WriteList(w, model.TagDebugProperty, v.DebugProperties)
	},
	func(r *wire.Reader) *ExecCommands {
		v := &ExecCommands{
			BodyTurnRemaining:  r.Float64(),
			RadarTurnRemaining: r.Float64(),
			GunTurnRemaining:   r.Float64(),
			DistanceRemaining:  r.Float64(),

			AdjustGunForBody:      r.Bool(),
			AdjustRadarForGun:     r.Bool(),
			AdjustRadarForBody:    r.Bool(),
			AdjustRadarForBodySet: r.Bool(),

			BodyColor:   uint32(r.Int32()),
			GunColor:    uint32(r.Int32()),
			RadarColor:  uint32(r.Int32()),
			ScanColor:   uint32(r.Int32()),
			BulletColor: uint32(r.Int32()),

			MaxTurnRate: r.Float64(),
			MaxVelocity: r.Float64(),

			Moved:           r.Bool(),
			Scan:            r.Bool(),
			IsIORobot:       r.Bool(),
			IsTryingToPaint: r.Bool(),

			OutputText:    r.String(),
			GraphicsCalls: r.Bytes(),
		}
		v.Bullets = wire.ReadList[*model.BulletCommand](r)
		v.TeamMessages = wire.ReadList[*model.TeamMessage](r)
		v.DebugProperties = wire.ReadList[*model.DebugProperty](r)
		return v
	},
)
