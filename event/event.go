package event

import (
	"github.com/nstehr/vimy/vimy-host/model"
)

// Event is implemented by every variant in this package and by nothing
// else: the unexported method closes the set.
type Event interface {
	Kind() Kind
	Time() int64
	Priority() int
	header() *Header
}

// Header is the state shared by all events. Time and priority are stamped
// by the dispatch engine when the event is queued; neither travels on the
// wire.
type Header struct {
	time     int64
	priority int
	queued   bool
}

func (h *Header) Time() int64     { return h.time }
func (h *Header) Priority() int   { return h.priority }
func (h *Header) header() *Header { return h }

// SetTime moves the event into the future before it is queued. It reports
// false once the event is in a queue.
func (h *Header) SetTime(t int64) bool {
	if h.queued {
		return false
	}
	h.time = t
	return true
}

// Admit marks e as queued at turn now with the given priority. An event
// already stamped with a later time keeps it.
func Admit(e Event, now int64, priority int) {
	h := e.header()
	if h.time < now {
		h.time = now
	}
	h.priority = priority
	h.queued = true
}

// Queued reports whether e has been admitted to a queue.
func Queued(e Event) bool { return e.header().queued }

// Critical reports whether e belongs to a critical kind.
func Critical(e Event) bool { return e.Kind().Critical() }

// StatusEvent is raised every turn with the robot's new status.
type StatusEvent struct {
	Header
	Status *model.RobotStatus
}

type ScannedRobotEvent struct {
	Header
	Name     string
	Energy   float64
	Heading  float64
	Bearing  float64
	Distance float64
	Velocity float64
	Sentry   bool
}

type HitByBulletEvent struct {
	Header
	Bullet  *model.Bullet
	Bearing float64
}

type HitWallEvent struct {
	Header
	Bearing float64
}

type HitRobotEvent struct {
	Header
	Name    string
	Bearing float64
	Energy  float64
	AtFault bool
}

// BulletHitEvent reports one of this robot's bullets hitting Name. Bullet
// is filled in locally from BulletID.
type BulletHitEvent struct {
	Header
	BulletID int32
	Name     string
	Energy   float64
	Bullet   *model.Bullet
}

// BulletHitBulletEvent reports one of this robot's bullets colliding with
// HitBullet. Bullet is filled in locally from BulletID.
type BulletHitBulletEvent struct {
	Header
	BulletID  int32
	HitBullet *model.Bullet
	Bullet    *model.Bullet
}

type BulletMissedEvent struct {
	Header
	BulletID int32
	Bullet   *model.Bullet
}

type RobotDeathEvent struct {
	Header
	Name string
}

// MessageEvent delivers a team message received this turn.
type MessageEvent struct {
	Header
	Sender  string
	Payload []byte
}

// CustomEvent is raised when a registered condition tests true.
type CustomEvent struct {
	Header
	Condition Condition
}

// PaintEvent asks the robot to paint its debug graphics for this turn.
type PaintEvent struct {
	Header
}

type WinEvent struct {
	Header
}

type DeathEvent struct {
	Header
}

// SkippedTurnEvent tells the robot the engine gave up waiting for it.
type SkippedTurnEvent struct {
	Header
	SkippedTurn int64
}

type BattleEndedEvent struct {
	Header
	Aborted bool
	Results *model.BattleResults
}

type RoundEndedEvent struct {
	Header
	Round      int32
	Turns      int32
	TotalTurns int32
}

// KeyInput is a keyboard event forwarded from the engine's battle view.
type KeyInput struct {
	Char      uint16
	Code      int32
	Location  int32
	ID        int32
	Modifiers int32
	When      int64
}

// MouseInput is a mouse event in battlefield coordinates.
type MouseInput struct {
	Button     int32
	ClickCount int32
	X          int32
	Y          int32
	ID         int32
	Modifiers  int32
	When       int64
}

type KeyPressedEvent struct {
	Header
	KeyInput
}

type KeyReleasedEvent struct {
	Header
	KeyInput
}

type KeyTypedEvent struct {
	Header
	KeyInput
}

type MouseClickedEvent struct {
	Header
	MouseInput
}

type MouseDraggedEvent struct {
	Header
	MouseInput
}

type MouseEnteredEvent struct {
	Header
	MouseInput
}

type MouseExitedEvent struct {
	Header
	MouseInput
}

type MouseMovedEvent struct {
	Header
	MouseInput
}

type MousePressedEvent struct {
	Header
	MouseInput
}

type MouseReleasedEvent struct {
	Header
	MouseInput
}

type MouseWheelMovedEvent struct {
	Header
	MouseInput
	ScrollType    int32
	ScrollAmount  int32
	WheelRotation int32
}

func (*StatusEvent) Kind() Kind          { return KindStatus }
func (*ScannedRobotEvent) Kind() Kind    { return KindScannedRobot }
func (*HitByBulletEvent) Kind() Kind     { return KindHitByBullet }
func (*HitWallEvent) Kind() Kind         { return KindHitWall }
func (*HitRobotEvent) Kind() Kind        { return KindHitRobot }
func (*BulletHitEvent) Kind() Kind       { return KindBulletHit }
func (*BulletHitBulletEvent) Kind() Kind { return KindBulletHitBullet }
func (*BulletMissedEvent) Kind() Kind    { return KindBulletMissed }
func (*RobotDeathEvent) Kind() Kind      { return KindRobotDeath }
func (*MessageEvent) Kind() Kind         { return KindMessage }
func (*CustomEvent) Kind() Kind          { return KindCustom }
func (*PaintEvent) Kind() Kind           { return KindPaint }
func (*WinEvent) Kind() Kind             { return KindWin }
func (*DeathEvent) Kind() Kind           { return KindDeath }
func (*SkippedTurnEvent) Kind() Kind     { return KindSkippedTurn }
func (*BattleEndedEvent) Kind() Kind     { return KindBattleEnded }
func (*RoundEndedEvent) Kind() Kind      { return KindRoundEnded }
func (*KeyPressedEvent) Kind() Kind      { return KindKeyPressed }
func (*KeyReleasedEvent) Kind() Kind     { return KindKeyReleased }
func (*KeyTypedEvent) Kind() Kind        { return KindKeyTyped }
func (*MouseClickedEvent) Kind() Kind    { return KindMouseClicked }
func (*MouseDraggedEvent) Kind() Kind    { return KindMouseDragged }
func (*MouseEnteredEvent) Kind() Kind    { return KindMouseEntered }
func (*MouseExitedEvent) Kind() Kind     { return KindMouseExited }
func (*MouseMovedEvent) Kind() Kind      { return KindMouseMoved }
func (*MousePressedEvent) Kind() Kind    { return KindMousePressed }
func (*MouseReleasedEvent) Kind() Kind   { return KindMouseReleased }
func (*MouseWheelMovedEvent) Kind() Kind { return KindMouseWheelMoved }
