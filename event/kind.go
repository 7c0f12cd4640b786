// Package event defines the closed set of events a robot can receive, their
// default priorities, and which listener callback each one is delivered to.
package event

import (
	"strings"
)

// Kind identifies an event variant.
type Kind uint8

const (
	KindStatus Kind = iota + 1
	KindScannedRobot
	KindHitByBullet
	KindHitWall
	KindHitRobot
	KindBulletHit
	KindBulletHitBullet
	KindBulletMissed
	KindRobotDeath
	KindMessage
	KindCustom
	KindPaint
	KindWin
	KindDeath
	KindSkippedTurn
	KindBattleEnded
	KindRoundEnded
	KindKeyPressed
	KindKeyReleased
	KindKeyTyped
	KindMouseClicked
	KindMouseDragged
	KindMouseEntered
	KindMouseExited
	KindMouseMoved
	KindMousePressed
	KindMouseReleased
	KindMouseWheelMoved

	kindCount
)

// Wire tags of the events the engine sends. Status, Custom, Message and
// Paint events are only ever created on the robot side.
const (
	TagBattleEnded     byte = 32
	TagBulletHitBullet byte = 33
	TagBulletHit       byte = 34
	TagBulletMissed    byte = 35
	TagDeath           byte = 36
	TagWin             byte = 37
	TagHitWall         byte = 38
	TagRobotDeath      byte = 39
	TagSkippedTurn     byte = 40
	TagScannedRobot    byte = 41
	TagHitByBullet     byte = 42
	TagHitRobot        byte = 43
	TagKeyPressed      byte = 44
	TagKeyReleased     byte = 45
	TagKeyTyped        byte = 46
	TagMouseClicked    byte = 47
	TagMouseDragged    byte = 48
	TagMouseEntered    byte = 49
	TagMouseExited     byte = 50
	TagMouseMoved      byte = 51
	TagMousePressed    byte = 52
	TagMouseReleased   byte = 53
	TagMouseWheelMoved byte = 54
	TagRoundEnded      byte = 55
)

// DefaultPriority is used for custom events and anything without an entry.
const DefaultPriority = 80

// classPrefix qualifies event class names the way robot code may spell them.
const classPrefix = "robocode."

type kindInfo struct {
	name       string
	priority   int
	critical   bool
	tag        byte
	capability Capability
	group      group
}

var kinds = [kindCount]kindInfo{
	KindStatus:          {name: "StatusEvent", priority: 99, capability: Basic, group: basicGroup},
	KindScannedRobot:    {name: "ScannedRobotEvent", priority: 10, tag: TagScannedRobot, capability: Basic, group: basicGroup},
	KindHitByBullet:     {name: "HitByBulletEvent", priority: 20, tag: TagHitByBullet, capability: Basic, group: basicGroup},
	KindHitWall:         {name: "HitWallEvent", priority: 30, tag: TagHitWall, capability: Basic, group: basicGroup},
	KindHitRobot:        {name: "HitRobotEvent", priority: 40, tag: TagHitRobot, capability: Basic, group: basicGroup},
	KindBulletHit:       {name: "BulletHitEvent", priority: 50, tag: TagBulletHit, capability: Basic, group: basicGroup},
	KindBulletHitBullet: {name: "BulletHitBulletEvent", priority: 55, tag: TagBulletHitBullet, capability: Basic, group: basicGroup},
	KindBulletMissed:    {name: "BulletMissedEvent", priority: 60, tag: TagBulletMissed, capability: Basic, group: basicGroup},
	KindRobotDeath:      {name: "RobotDeathEvent", priority: 70, tag: TagRobotDeath, capability: Basic, group: basicGroup},
	KindMessage:         {name: "MessageEvent", priority: 75, capability: Team, group: teamGroup},
	KindCustom:          {name: "CustomEvent", priority: DefaultPriority, capability: Advanced, group: advancedGroup},
	KindPaint:           {name: "PaintEvent", priority: 5, capability: Paint, group: paintGroup},
	KindWin:             {name: "WinEvent", priority: 100, critical: true, tag: TagWin, capability: Basic, group: basicGroup},
	KindDeath:           {name: "DeathEvent", priority: -1, critical: true, tag: TagDeath, capability: Basic, group: basicGroup},
	KindSkippedTurn:     {name: "SkippedTurnEvent", priority: 100, critical: true, tag: TagSkippedTurn, capability: Advanced, group: advancedGroup},
	KindBattleEnded:     {name: "BattleEndedEvent", priority: 100, critical: true, tag: TagBattleEnded, capability: Basic, group: battleGroup},
	KindRoundEnded:      {name: "RoundEndedEvent", priority: 110, critical: true, tag: TagRoundEnded, capability: Basic, group: battleGroup},
	KindKeyPressed:      {name: "KeyPressedEvent", priority: 98, tag: TagKeyPressed, capability: Interactive, group: interactiveGroup},
	KindKeyReleased:     {name: "KeyReleasedEvent", priority: 98, tag: TagKeyReleased, capability: Interactive, group: interactiveGroup},
	KindKeyTyped:        {name: "KeyTypedEvent", priority: 98, tag: TagKeyTyped, capability: Interactive, group: interactiveGroup},
	KindMouseClicked:    {name: "MouseClickedEvent", priority: 98, tag: TagMouseClicked, capability: Interactive, group: interactiveGroup},
	KindMouseDragged:    {name: "MouseDraggedEvent", priority: 98, tag: TagMouseDragged, capability: Interactive, group: interactiveGroup},
	KindMouseEntered:    {name: "MouseEnteredEvent", priority: 98, tag: TagMouseEntered, capability: Interactive, group: interactiveGroup},
	KindMouseExited:     {name: "MouseExitedEvent", priority: 98, tag: TagMouseExited, capability: Interactive, group: interactiveGroup},
	KindMouseMoved:      {name: "MouseMovedEvent", priority: 98, tag: TagMouseMoved, capability: Interactive, group: interactiveGroup},
	KindMousePressed:    {name: "MousePressedEvent", priority: 98, tag: TagMousePressed, capability: Interactive, group: interactiveGroup},
	KindMouseReleased:   {name: "MouseReleasedEvent", priority: 98, tag: TagMouseReleased, capability: Interactive, group: interactiveGroup},
	KindMouseWheelMoved: {name: "MouseWheelMovedEvent", priority: 98, tag: TagMouseWheelMoved, capability: Interactive, group: interactiveGroup},
}

var byName = func() map[string]Kind {
	m := make(map[string]Kind, 2*int(kindCount))
	for k := KindStatus; k < kindCount; k++ {
		m[kinds[k].name] = k
		m[classPrefix+kinds[k].name] = k
	}
	return m
}()

// Kinds lists every event kind in declaration order.
func Kinds() []Kind {
	out := make([]Kind, 0, kindCount-1)
	for k := KindStatus; k < kindCount; k++ {
		out = append(out, k)
	}
	return out
}

// KindByName resolves an event class name, bare ("HitWallEvent") or
// qualified ("robocode.HitWallEvent").
func KindByName(name string) (Kind, bool) {
	k, ok := byName[strings.TrimSpace(name)]
	return k, ok
}

func (k Kind) Valid() bool { return k >= KindStatus && k < kindCount }

func (k Kind) String() string {
	if !k.Valid() {
		return "UnknownEvent"
	}
	return kinds[k].name
}

// DefaultPriority is the priority the kind starts with. For critical kinds
// it never changes.
func (k Kind) DefaultPriority() int {
	if !k.Valid() {
		return DefaultPriority
	}
	return kinds[k].priority
}

// Critical kinds survive age eviction and partial clears. Their priority
// is fixed.
func (k Kind) Critical() bool { return k.Valid() && kinds[k].critical }

// Tag is the wire tag, 0 for kinds that never cross the boundary.
func (k Kind) Tag() byte {
	if !k.Valid() {
		return 0
	}
	return kinds[k].tag
}

// Capability is what the robot must declare to receive the kind.
func (k Kind) Capability() Capability {
	if !k.Valid() {
		return 0
	}
	return kinds[k].capability
}
