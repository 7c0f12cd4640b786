package model

import "github.com/nstehr/vimy/vimy-host/wire"

// Bullet is a fired bullet as the robot tracks it between turns.
type Bullet struct {
	Heading float64
	X       float64
	Y       float64
	Power   float64
	Owner   string
	Victim  string
	Active  bool
	ID      int32
}

// Update applies the engine's latest view of the bullet.
func (b *Bullet) Update(st *BulletStatus) {
	b.X = st.X
	b.Y = st.Y
	b.Victim = st.Victim
	b.Active = st.Active
}

// BulletCommand asks the engine to fire. BulletID lets the engine's
// BulletStatus updates find their way back to the local Bullet.
type BulletCommand struct {
	Power           float64
	FireAssistValid bool
	FireAssistAngle float64
	BulletID        int32
}

type BulletStatus struct {
	BulletID int32
	X        float64
	Y        float64
	Victim   string
	Active   bool
}

var bulletCodec = wire.CodecOf(
	func(s *wire.Serializer, v *Bullet) int {
		return 4*wire.SizeFloat64 + s.SizeString(v.Owner) + s.SizeString(v.Victim) + wire.SizeBool + wire.SizeInt32
	},
	func(w *wire.Writer, v *Bullet) {
		w.Float64(v.Heading)
		w.Float64(v.X)
		w.Float64(v.Y)
		w.Float64(v.Power)
		w.String(v.Owner)
		w.String(v.Victim)
		w.Bool(v.Active)
		w.Int32(v.ID)
	},
	func(r *wire.Reader) *Bullet {
		return &Bullet{
			Heading: r.Float64(),
			X:       r.Float64(),
			Y:       r.Float64(),
			Power:   r.Float64(),
			Owner:   r.String(),
			Victim:  r.String(),
			Active:  r.Bool(),
			ID:      r.Int32(),
		}
	},
)

var bulletCommandCodec = wire.CodecOf(
	func(s *wire.Serializer, v *BulletCommand) int {
		return 2*wire.SizeFloat64 + wire.SizeBool + wire.SizeInt32
	},
	func(w *wire.Writer, v *BulletCommand) {
		w.Float64(v.Power)
		w.Bool(v.FireAssistValid)
		w.Float64(v.FireAssistAngle)
		w.Int32(v.BulletID)
	},
	func(r *wire.Reader) *BulletCommand {
		return &BulletCommand{
			Power:           r.Float64(),
			FireAssistValid: r.Bool(),
			FireAssistAngle: r.Float64(),
			BulletID:        r.Int32(),
		}
	},
)

var bulletStatusCodec = wire.CodecOf(
	func(s *wire.Serializer, v *BulletStatus) int {
		return wire.SizeInt32 + 2*wire.SizeFloat64 + s.SizeString(v.Victim) + wire.SizeBool
	},
	func(w *wire.Writer, v *BulletStatus) {
		w.Int32(v.BulletID)
		w.Float64(v.X)
		w.Float64(v.Y)
		w.String(v.Victim)
		w.Bool(v.Active)
	},
	func(r *wire.Reader) *BulletStatus {
		return &BulletStatus{
			BulletID: r.Int32(),
			X:        r.Float64(),
			Y:        r.Float64(),
			Victim:   r.String(),
			Active:   r.Bool(),
		}
	},
)
