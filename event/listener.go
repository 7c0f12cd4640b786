package event

import (
	"strings"

	"github.com/nstehr/vimy/vimy-host/model"
)

// Capability is a set of event families a robot declares it can handle.
type Capability uint8

const (
	Basic Capability = 1 << iota
	Advanced
	Interactive
	Paint
	Team
)

func (c Capability) Has(o Capability) bool { return c&o == o }

func (c Capability) String() string {
	var parts []string
	for _, p := range []struct {
		c    Capability
		name string
	}{{Basic, "basic"}, {Advanced, "advanced"}, {Interactive, "interactive"}, {Paint, "paint"}, {Team, "team"}} {
		if c.Has(p.c) {
			parts = append(parts, p.name)
		}
	}
	if len(parts) == 0 {
		return "none"
	}
	return strings.Join(parts, "|")
}

// CapabilitiesOf derives the declared capability set from the descriptor
// the engine sent for the robot.
func CapabilitiesOf(st *model.RobotStatics) Capability {
	c := Basic
	if st == nil {
		return c
	}
	if st.Advanced {
		c |= Advanced
	}
	if st.Interactive {
		c |= Interactive
	}
	if st.Paint {
		c |= Paint
	}
	if st.Team {
		c |= Team
	}
	return c
}

type BasicListener interface {
	OnStatus(*StatusEvent) error
	OnScannedRobot(*ScannedRobotEvent) error
	OnHitByBullet(*HitByBulletEvent) error
	OnHitWall(*HitWallEvent) error
	OnHitRobot(*HitRobotEvent) error
	OnBulletHit(*BulletHitEvent) error
	OnBulletHitBullet(*BulletHitBulletEvent) error
	OnBulletMissed(*BulletMissedEvent) error
	OnRobotDeath(*RobotDeathEvent) error
	OnDeath(*DeathEvent) error
	OnWin(*WinEvent) error
}

type BattleListener interface {
	OnRoundEnded(*RoundEndedEvent) error
	OnBattleEnded(*BattleEndedEvent) error
}

type AdvancedListener interface {
	OnCustomEvent(*CustomEvent) error
	OnSkippedTurn(*SkippedTurnEvent) error
}

type InteractiveListener interface {
	OnKeyPressed(*KeyPressedEvent) error
	OnKeyReleased(*KeyReleasedEvent) error
	OnKeyTyped(*KeyTypedEvent) error
	OnMouseClicked(*MouseClickedEvent) error
	OnMouseDragged(*MouseDraggedEvent) error
	OnMouseEntered(*MouseEnteredEvent) error
	OnMouseExited(*MouseExitedEvent) error
	OnMouseMoved(*MouseMovedEvent) error
	OnMousePressed(*MousePressedEvent) error
	OnMouseReleased(*MouseReleasedEvent) error
	OnMouseWheelMoved(*MouseWheelMovedEvent) error
}

type PaintListener interface {
	OnPaint(*PaintEvent) error
}

type TeamListener interface {
	OnMessageReceived(*MessageEvent) error
}

type group uint8

const (
	basicGroup group = iota
	battleGroup
	advancedGroup
	interactiveGroup
	paintGroup
	teamGroup
)

// Listeners is a robot's callbacks resolved once against its declared
// capabilities. The zero value delivers nothing.
type Listeners struct {
	caps        Capability
	basic       BasicListener
	battle      BattleListener
	advanced    AdvancedListener
	interactive InteractiveListener
	paint       PaintListener
	team        TeamListener
}

// Bind looks up which listener interfaces robot implements. A family is
// only bound when caps declares it as well.
func Bind(robot any, caps Capability) Listeners {
	l := Listeners{caps: caps}
	if caps.Has(Basic) {
		l.basic, _ = robot.(BasicListener)
		l.battle, _ = robot.(BattleListener)
	}
	if caps.Has(Advanced) {
		l.advanced, _ = robot.(AdvancedListener)
	}
	if caps.Has(Interactive) {
		l.interactive, _ = robot.(InteractiveListener)
	}
	if caps.Has(Paint) {
		l.paint, _ = robot.(PaintListener)
	}
	if caps.Has(Team) {
		l.team, _ = robot.(TeamListener)
	}
	return l
}

func (l Listeners) Capabilities() Capability { return l.caps }

// Accepts reports whether events of kind k would reach a callback.
func (l Listeners) Accepts(k Kind) bool {
	if !k.Valid() || !l.caps.Has(kinds[k].capability) {
		return false
	}
	switch kinds[k].group {
	case basicGroup:
		return l.basic != nil
	case battleGroup:
		return l.battle != nil
	case advancedGroup:
		return l.advanced != nil
	case interactiveGroup:
		return l.interactive != nil
	case paintGroup:
		return l.paint != nil
	case teamGroup:
		return l.team != nil
	}
	return false
}

// Deliver hands e to its one callback. It reports false without error when
// the robot has no callback for the kind.
func (l Listeners) Deliver(e Event) (bool, error) {
	if e == nil || !l.Accepts(e.Kind()) {
		return false, nil
	}
	switch e := e.(type) {
	case *StatusEvent:
		return true, l.basic.OnStatus(e)
	case *ScannedRobotEvent:
		return true, l.basic.OnScannedRobot(e)
	case *HitByBulletEvent:
		return true, l.basic.OnHitByBullet(e)
	case *HitWallEvent:
		return true, l.basic.OnHitWall(e)
	case *HitRobotEvent:
		return true, l.basic.OnHitRobot(e)
	case *BulletHitEvent:
		return true, l.basic.OnBulletHit(e)
	case *BulletHitBulletEvent:
		return true, l.basic.OnBulletHitBullet(e)
	case *BulletMissedEvent:
		return true, l.basic.OnBulletMissed(e)
	case *RobotDeathEvent:
		return true, l.basic.OnRobotDeath(e)
	case *DeathEvent:
		return true, l.basic.OnDeath(e)
	case *WinEvent:
		return true, l.basic.OnWin(e)
	case *RoundEndedEvent:
		return true, l.battle.OnRoundEnded(e)
	case *BattleEndedEvent:
		return true, l.battle.OnBattleEnded(e)
	case *CustomEvent:
		return true, l.advanced.OnCustomEvent(e)
	case *SkippedTurnEvent:
		return true, l.advanced.OnSkippedTurn(e)
	case *PaintEvent:
		return true, l.paint.OnPaint(e)
	case *MessageEvent:
		return true, l.team.OnMessageReceived(e)
	case *KeyPressedEvent:
		return true, l.interactive.OnKeyPressed(e)
	case *KeyReleasedEvent:
		return true, l.interactive.OnKeyReleased(e)
	case *KeyTypedEvent:
		return true, l.interactive.OnKeyTyped(e)
	case *MouseClickedEvent:
		return true, l.interactive.OnMouseClicked(e)
	case *MouseDraggedEvent:
		return true, l.interactive.OnMouseDragged(e)
	case *MouseEnteredEvent:
		return true, l.interactive.OnMouseEntered(e)
	case *MouseExitedEvent:
		return true, l.interactive.OnMouseExited(e)
	case *MouseMovedEvent:
		return true, l.interactive.OnMouseMoved(e)
	case *MousePressedEvent:
		return true, l.interactive.OnMousePressed(e)
	case *MouseReleasedEvent:
		return true, l.interactive.OnMouseReleased(e)
	case *MouseWheelMovedEvent:
		return true, l.interactive.OnMouseWheelMoved(e)
	}
	return false, nil
}

// Nop implements every listener interface with callbacks that do nothing.
// Embed it to implement only the callbacks a robot cares about.
type Nop struct{}

func (Nop) OnStatus(*StatusEvent) error                   { return nil }
func (Nop) OnScannedRobot(*ScannedRobotEvent) error       { return nil }
func (Nop) OnHitByBullet(*HitByBulletEvent) error         { return nil }
func (Nop) OnHitWall(*HitWallEvent) error                 { return nil }
func (Nop) OnHitRobot(*HitRobotEvent) error               { return nil }
func (Nop) OnBulletHit(*BulletHitEvent) error             { return nil }
func (Nop) OnBulletHitBullet(*BulletHitBulletEvent) error { return nil }
func (Nop) OnBulletMissed(*BulletMissedEvent) error       { return nil }
func (Nop) OnRobotDeath(*RobotDeathEvent) error           { return nil }
func (Nop) OnDeath(*DeathEvent) error                     { return nil }
func (Nop) OnWin(*WinEvent) error                         { return nil }
func (Nop) OnRoundEnded(*RoundEndedEvent) error           { return nil }
func (Nop) OnBattleEnded(*BattleEndedEvent) error         { return nil }
func (Nop) OnCustomEvent(*CustomEvent) error              { return nil }
func (Nop) OnSkippedTurn(*SkippedTurnEvent) error         { return nil }
func (Nop) OnPaint(*PaintEvent) error                     { return nil }
func (Nop) OnMessageReceived(*MessageEvent) error         { return nil }
func (Nop) OnKeyPressed(*KeyPressedEvent) error           { return nil }
func (Nop) OnKeyReleased(*KeyReleasedEvent) error         { return nil }
func (Nop) OnKeyTyped(*KeyTypedEvent) error               { return nil }
func (Nop) OnMouseClicked(*MouseClickedEvent) error       { return nil }
func (Nop) OnMouseDragged(*MouseDraggedEvent) error       { return nil }
func (Nop) OnMouseEntered(*MouseEnteredEvent) error       { return nil }
func (Nop) OnMouseExited(*MouseExitedEvent) error         { return nil }
func (Nop) OnMouseMoved(*MouseMovedEvent) error           { return nil }
func (Nop) OnMousePressed(*MousePressedEvent) error       { return nil }
func (Nop) OnMouseReleased(*MouseReleasedEvent) error     { return nil }
func (Nop) OnMouseWheelMoved(*MouseWheelMovedEvent) error { return nil }
