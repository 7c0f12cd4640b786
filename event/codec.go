package event

import (
	"fmt"

	"github.com/nstehr/vimy/vimy-host/model"
	"github.com/nstehr/vimy/vimy-host/wire"
)

// SizeOf returns the encoded size of e including its tag, or 0 for kinds
// that never cross the boundary.
func SizeOf(s *wire.Serializer, e Event) int {
	tag := e.Kind().Tag()
	if tag == 0 {
		return 0
	}
	return s.SizeOf(tag, e)
}

// SizeList and WriteList handle a mixed, terminator-closed event list.
// Local-only events are skipped.
func SizeList(s *wire.Serializer, events []Event) int {
	n := wire.SizeTag
	for _, e := range events {
		if e != nil {
			n += SizeOf(s, e)
		}
	}
	return n
}

func WriteList(w *wire.Writer, events []Event) {
	for _, e := range events {
		if e == nil || e.Kind().Tag() == 0 {
			continue
		}
		w.Record(e.Kind().Tag(), e)
	}
	w.Terminate()
}

func ReadList(r *wire.Reader) []Event {
	return wire.ReadList[Event](r)
}

func empty[T any]() (func(*wire.Serializer, *T) int, func(*wire.Writer, *T), func(*wire.Reader) *T) {
	return func(*wire.Serializer, *T) int { return 0 },
		func(*wire.Writer, *T) {},
		func(*wire.Reader) *T { return new(T) }
}

const (
	sizeKey   = wire.SizeChar + 4*wire.SizeInt32 + wire.SizeInt64
	sizeMouse = 6*wire.SizeInt32 + wire.SizeInt64
)

func writeKey(w *wire.Writer, k KeyInput) {
	w.Char(k.Char)
	w.Int32(k.Code)
	w.Int32(k.Location)
	w.Int32(k.ID)
	w.Int32(k.Modifiers)
	w.Int64(k.When)
}

func readKey(r *wire.Reader) KeyInput {
	return KeyInput{
		Char:      r.Char(),
		Code:      r.Int32(),
		Location:  r.Int32(),
		ID:        r.Int32(),
		Modifiers: r.Int32(),
		When:      r.Int64(),
	}
}

func writeMouse(w *wire.Writer, m MouseInput) {
	w.Int32(m.Button)
	w.Int32(m.ClickCount)
	w.Int32(m.X)
	w.Int32(m.Y)
	w.Int32(m.ID)
	w.Int32(m.Modifiers)
	w.Int64(m.When)
}

func readMouse(r *wire.Reader) MouseInput {
	return MouseInput{
		Button:     r.Int32(),
		ClickCount: r.Int32(),
		X:          r.Int32(),
		Y:          r.Int32(),
		ID:         r.Int32(),
		Modifiers:  r.Int32(),
		When:       r.Int64(),
	}
}

func keyCodec[T any](input func(*T) *KeyInput) wire.Codec {
	return wire.CodecOf(
		func(*wire.Serializer, *T) int { return sizeKey },
		func(w *wire.Writer, v *T) { writeKey(w, *input(v)) },
		func(r *wire.Reader) *T {
			v := new(T)
			*input(v) = readKey(r)
			return v
		},
	)
}

func mouseCodec[T any](input func(*T) *MouseInput) wire.Codec {
	return wire.CodecOf(
		func(*wire.Serializer, *T) int { return sizeMouse },
		func(w *wire.Writer, v *T) { writeMouse(w, *input(v)) },
		func(r *wire.Reader) *T {
			v := new(T)
			*input(v) = readMouse(r)
			return v
		},
	)
}

var codecs = map[byte]wire.Codec{
	TagScannedRobot: wire.CodecOf(
		func(s *wire.Serializer, v *ScannedRobotEvent) int {
			return s.SizeString(v.Name) + 5*wire.SizeFloat64 + wire.SizeBool
		},
		func(w *wire.Writer, v *ScannedRobotEvent) {
			w.String(v.Name)
			w.Float64(v.Energy)
			w.Float64(v.Heading)
			w.Float64(v.Bearing)
			w.Float64(v.Distance)
			w.Float64(v.Velocity)
			w.Bool(v.Sentry)
		},
		func(r *wire.Reader) *ScannedRobotEvent {
			return &ScannedRobotEvent{
				Name:     r.String(),
				Energy:   r.Float64(),
				Heading:  r.Float64(),
				Bearing:  r.Float64(),
				Distance: r.Float64(),
				Velocity: r.Float64(),
				Sentry:   r.Bool(),
			}
		},
	),
	TagHitByBullet: wire.CodecOf(
		func(s *wire.Serializer, v *HitByBulletEvent) int {
			return s.SizeOf(model.TagBullet, v.Bullet) + wire.SizeFloat64
		},
		func(w *wire.Writer, v *HitByBulletEvent) {
			w.Record(model.TagBullet, v.Bullet)
			w.Float64(v.Bearing)
		},
		func(r *wire.Reader) *HitByBulletEvent {
			return &HitByBulletEvent{
				Bullet:  wire.RecordOf[*model.Bullet](r),
				Bearing: r.Float64(),
			}
		},
	),
	TagHitWall: wire.CodecOf(
		func(*wire.Serializer, *HitWallEvent) int { return wire.SizeFloat64 },
		func(w *wire.Writer, v *HitWallEvent) { w.Float64(v.Bearing) },
		func(r *wire.Reader) *HitWallEvent { return &HitWallEvent{Bearing: r.Float64()} },
	),
	TagHitRobot: wire.CodecOf(
		func(s *wire.Serializer, v *HitRobotEvent) int {
			return s.SizeString(v.Name) + 2*wire.SizeFloat64 + wire.SizeBool
		},
		func(w *wire.Writer, v *HitRobotEvent) {
			w.String(v.Name)
			w.Float64(v.Bearing)
			w.Float64(v.Energy)
			w.Bool(v.AtFault)
		},
		func(r *wire.Reader) *HitRobotEvent {
			return &HitRobotEvent{
				Name:    r.String(),
				Bearing: r.Float64(),
				Energy:  r.Float64(),
				AtFault: r.Bool(),
			}
		},
	),
	TagBulletHit: wire.CodecOf(
		func(s *wire.Serializer, v *BulletHitEvent) int {
			return wire.SizeInt32 + s.SizeString(v.Name) + wire.SizeFloat64
		},
		func(w *wire.Writer, v *BulletHitEvent) {
			w.Int32(v.BulletID)
			w.String(v.Name)
			w.Float64(v.Energy)
		},
		func(r *wire.Reader) *BulletHitEvent {
			return &BulletHitEvent{
				BulletID: r.Int32(),
				Name:     r.String(),
				Energy:   r.Float64(),
			}
		},
	),
	TagBulletHitBullet: wire.CodecOf(
		func(s *wire.Serializer, v *BulletHitBulletEvent) int {
			return wire.SizeInt32 + s.SizeOf(model.TagBullet, v.HitBullet)
		},
		func(w *wire.Writer, v *BulletHitBulletEvent) {
			w.Int32(v.BulletID)
			w.Record(model.TagBullet, v.HitBullet)
		},
		func(r *wire.Reader) *BulletHitBulletEvent {
			return &BulletHitBulletEvent{
				BulletID:  r.Int32(),
				HitBullet: wire.RecordOf[*model.Bullet](r),
			}
		},
	),
	TagBulletMissed: wire.CodecOf(
		func(*wire.Serializer, *BulletMissedEvent) int { return wire.SizeInt32 },
		func(w *wire.Writer, v *BulletMissedEvent) { w.Int32(v.BulletID) },
		func(r *wire.Reader) *BulletMissedEvent { return &BulletMissedEvent{BulletID: r.Int32()} },
	),
	TagRobotDeath: wire.CodecOf(
		func(s *wire.Serializer, v *RobotDeathEvent) int { return s.SizeString(v.Name) },
		func(w *wire.Writer, v *RobotDeathEvent) { w.String(v.Name) },
		func(r *wire.Reader) *RobotDeathEvent { return &RobotDeathEvent{Name: r.String()} },
	),
	TagWin:   wire.CodecOf[WinEvent](empty[WinEvent]()),
	TagDeath: wire.CodecOf[DeathEvent](empty[DeathEvent]()),
	TagSkippedTurn: wire.CodecOf(
		func(*wire.Serializer, *SkippedTurnEvent) int { return wire.SizeInt64 },
		func(w *wire.Writer, v *SkippedTurnEvent) { w.Int64(v.SkippedTurn) },
		func(r *wire.Reader) *SkippedTurnEvent { return &SkippedTurnEvent{SkippedTurn: r.Int64()} },
	),
	TagBattleEnded: wire.CodecOf(
		func(s *wire.Serializer, v *BattleEndedEvent) int {
			return wire.SizeBool + s.SizeOf(model.TagBattleResults, v.Results)
		},
		func(w *wire.Writer, v *BattleEndedEvent) {
			w.Bool(v.Aborted)
			w.Record(model.TagBattleResults, v.Results)
		},
		func(r *wire.Reader) *BattleEndedEvent {
			return &BattleEndedEvent{
				Aborted: r.Bool(),
				Results: wire.RecordOf[*model.BattleResults](r),
			}
		},
	),
	TagRoundEnded: wire.CodecOf(
		func(*wire.Serializer, *RoundEndedEvent) int { return 3 * wire.SizeInt32 },
		func(w *wire.Writer, v *RoundEndedEvent) {
			w.Int32(v.Round)
			w.Int32(v.Turns)
			w.Int32(v.TotalTurns)
		},
		func(r *wire.Reader) *RoundEndedEvent {
			return &RoundEndedEvent{Round: r.Int32(), Turns: r.Int32(), TotalTurns: r.Int32()}
		},
	),
	TagKeyPressed:   keyCodec(func(v *KeyPressedEvent) *KeyInput { return &v.KeyInput }),
	TagKeyReleased:  keyCodec(func(v *KeyReleasedEvent) *KeyInput { return &v.KeyInput }),
	TagKeyTyped:     keyCodec(func(v *KeyTypedEvent) *KeyInput { return &v.KeyInput }),
	TagMouseClicked: mouseCodec(func(v *MouseClickedEvent) *MouseInput { return &v.MouseInput }),
	TagMouseDragged: mouseCodec(func(v *MouseDraggedEvent) *MouseInput { return &v.MouseInput }),
	TagMouseEntered: mouseCodec(func(v *MouseEnteredEvent) *MouseInput { return &v.MouseInput }),
	TagMouseExited:  mouseCodec(func(v *MouseExitedEvent) *MouseInput { return &v.MouseInput }),
	TagMouseMoved:   mouseCodec(func(v *MouseMovedEvent) *MouseInput { return &v.MouseInput }),
	TagMousePressed: mouseCodec(func(v *MousePressedEvent) *MouseInput { return &v.MouseInput }),
	TagMouseReleased: mouseCodec(func(v *MouseReleasedEvent) *MouseInput {
		return &v.MouseInput
	}),
	TagMouseWheelMoved: wire.CodecOf(
		func(*wire.Serializer, *MouseWheelMovedEvent) int { return sizeMouse + 3*wire.SizeInt32 },
		func(w *wire.Writer, v *MouseWheelMovedEvent) {
			writeMouse(w, v.MouseInput)
			w.Int32(v.ScrollType)
			w.Int32(v.ScrollAmount)
			w.Int32(v.WheelRotation)
		},
		func(r *wire.Reader) *MouseWheelMovedEvent {
			return &MouseWheelMovedEvent{
				MouseInput:    readMouse(r),
				ScrollType:    r.Int32(),
				ScrollAmount:  r.Int32(),
				WheelRotation: r.Int32(),
			}
		},
	),
}

// Register adds the codecs of every engine-sent event to reg. The nested
// record codecs from package model must be registered as well.
func Register(reg *wire.Registry) error {
	for k := KindStatus; k < kindCount; k++ {
		tag := k.Tag()
		if tag == 0 {
			continue
		}
		c, ok := codecs[tag]
		if !ok {
			return fmt.Errorf("register event codecs: no codec for %s", k)
		}
		if err := reg.Register(tag, c); err != nil {
			return fmt.Errorf("register event codecs: %s: %w", k, err)
		}
	}
	return nil
}
