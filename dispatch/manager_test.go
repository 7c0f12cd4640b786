package dispatch

import (
	"bytes"
	"errors"
	"fmt"
	"log/slog"
	"reflect"
	"strings"
	"testing"

	"github.com/nstehr/vimy/vimy-host/event"
)

type fakeHost struct {
	now     int64
	testing []bool
}

func (h *fakeHost) Time() int64                { return h.now }
func (h *fakeHost) SetTestingCondition(t bool) { h.testing = append(h.testing, t) }

// robot records what it was handed. handle, when set, runs for every
// callback and decides its result.
type robot struct {
	event.Nop
	got    []string
	handle func(e event.Event) error
}

func label(e event.Event) string {
	switch e := e.(type) {
	case *event.HitWallEvent:
		return fmt.Sprintf("wall%.0f", e.Bearing)
	case *event.ScannedRobotEvent:
		return "scan:" + e.Name
	case *event.CustomEvent:
		return "custom:" + e.Condition.Name()
	}
	return e.Kind().String()
}

func (r *robot) on(e event.Event) error {
	r.got = append(r.got, label(e))
	if r.handle != nil {
		return r.handle(e)
	}
	return nil
}

func (r *robot) OnScannedRobot(e *event.ScannedRobotEvent) error { return r.on(e) }
func (r *robot) OnHitWall(e *event.HitWallEvent) error           { return r.on(e) }
func (r *robot) OnBulletHit(e *event.BulletHitEvent) error       { return r.on(e) }
func (r *robot) OnRobotDeath(e *event.RobotDeathEvent) error     { return r.on(e) }
func (r *robot) OnWin(e *event.WinEvent) error                   { return r.on(e) }
func (r *robot) OnDeath(e *event.DeathEvent) error               { return r.on(e) }
func (r *robot) OnCustomEvent(e *event.CustomEvent) error        { return r.on(e) }

func newManager(t *testing.T, r *robot) (*Manager, *fakeHost, *bytes.Buffer) {
	t.Helper()
	var diag bytes.Buffer
	host := &fakeHost{}
	log := slog.New(slog.NewTextHandler(&diag, nil))
	return New(host, event.Bind(r, event.Basic|event.Advanced), log), host, &diag
}

func mustAdd(t *testing.T, m *Manager, e event.Event) {
	t.Helper()
	if err := m.Add(e); err != nil {
		t.Fatalf("Add(%s): %v", e.Kind(), err)
	}
}

func TestProcessEventsOrdersByPriorityThenArrival(t *testing.T) {
	r := &robot{}
	m, _, _ := newManager(t, r)

	mustAdd(t, m, &event.ScannedRobotEvent{Name: "a"})
	mustAdd(t, m, &event.HitWallEvent{Bearing: 1})
	mustAdd(t, m, &event.BulletHitEvent{})
	mustAdd(t, m, &event.HitWallEvent{Bearing: 2})
	mustAdd(t, m, &event.ScannedRobotEvent{Name: "b"})

	if err := m.ProcessEvents(); err != nil {
		t.Fatalf("ProcessEvents: %v", err)
	}
	want := []string{"BulletHitEvent", "wall1", "wall2", "scan:a", "scan:b"}
	if !reflect.DeepEqual(r.got, want) {
		t.Errorf("delivered %v, want %v", r.got, want)
	}
	if m.Len() != 0 {
		t.Errorf("Len = %d after drain", m.Len())
	}
	if m.TopPriority() != NoPriority {
		t.Errorf("TopPriority = %d after drain, want none", m.TopPriority())
	}
}

func TestProcessEventsEvictsStaleButKeepsCritical(t *testing.T) {
	r := &robot{}
	m, host, _ := newManager(t, r)

	host.now = 5
	mustAdd(t, m, &event.HitWallEvent{Bearing: 5})
	mustAdd(t, m, &event.WinEvent{})
	host.now = 6
	mustAdd(t, m, &event.HitWallEvent{Bearing: 6})

	host.now = 7
	if err := m.ProcessEvents(); err != nil {
		t.Fatalf("ProcessEvents: %v", err)
	}
	want := []string{"WinEvent", "wall6"}
	if !reflect.DeepEqual(r.got, want) {
		t.Errorf("delivered %v, want %v", r.got, want)
	}
}

func TestDeathEventRunsBelowEveryPriority(t *testing.T) {
	r := &robot{}
	m, _, _ := newManager(t, r)
	mustAdd(t, m, &event.DeathEvent{})
	mustAdd(t, m, &event.ScannedRobotEvent{Name: "x"})
	if err := m.ProcessEvents(); err != nil {
		t.Fatalf("ProcessEvents: %v", err)
	}
	if want := []string{"scan:x", "DeathEvent"}; !reflect.DeepEqual(r.got, want) {
		t.Errorf("delivered %v, want %v", r.got, want)
	}
}

func TestEqualPriorityWaitsForRunningHandler(t *testing.T) {
	r := &robot{}
	m, host, _ := newManager(t, r)

	host.now = 0
	mustAdd(t, m, &event.ScannedRobotEvent{Name: "A"})
	host.now = 1
	b := &event.ScannedRobotEvent{Name: "B"}
	m.SetEventPriority("ScannedRobotEvent", 50)
	mustAdd(t, m, b)
	m.SetEventPriority("ScannedRobotEvent", 10)

	r.handle = func(e event.Event) error {
		if e != b {
			return nil
		}
		c := &event.ScannedRobotEvent{Name: "C"}
		c.SetTime(2)
		m.SetEventPriority("ScannedRobotEvent", 50)
		mustAdd(t, m, c)
		// A turn boundary inside B: C must not preempt it.
		if err := m.ProcessEvents(); err != nil {
			t.Errorf("nested ProcessEvents: %v", err)
		}
		if got := len(r.got); got != 1 {
			t.Errorf("nested cycle delivered %d events, want none", got-1)
		}
		return nil
	}

	if err := m.ProcessEvents(); err != nil {
		t.Fatalf("ProcessEvents: %v", err)
	}
	if want := []string{"scan:B", "scan:C", "scan:A"}; !reflect.DeepEqual(r.got, want) {
		t.Errorf("delivered %v, want %v", r.got, want)
	}
}

func TestHigherPriorityPreemptsAtTurnBoundary(t *testing.T) {
	r := &robot{}
	m, _, _ := newManager(t, r)

	r.handle = func(e event.Event) error {
		if label(e) != "scan:slow" {
			return nil
		}
		mustAdd(t, m, &event.HitWallEvent{Bearing: 9})
		if err := m.ProcessEvents(); err != nil {
			return err
		}
		r.got = append(r.got, "slow-done")
		return nil
	}
	mustAdd(t, m, &event.ScannedRobotEvent{Name: "slow"})
	if err := m.ProcessEvents(); err != nil {
		t.Fatalf("ProcessEvents: %v", err)
	}
	if want := []string{"scan:slow", "wall9", "slow-done"}; !reflect.DeepEqual(r.got, want) {
		t.Errorf("delivered %v, want %v", r.got, want)
	}
}

func TestInterruptibleHandlerRestarts(t *testing.T) {
	r := &robot{}
	m, host, _ := newManager(t, r)

	calls := 0
	var interrupted error
	r.handle = func(e event.Event) error {
		calls++
		if calls > 1 {
			if m.Interruptible(10) {
				t.Error("interruptible flag survived into the next invocation")
			}
			return nil
		}
		m.SetCurrentInterruptible(true)
		host.now++
		mustAdd(t, m, &event.ScannedRobotEvent{Name: "second"})
		interrupted = m.ProcessEvents()
		if !errors.Is(interrupted, ErrInterrupted) {
			return interrupted
		}
		// Still unwinding: further turn boundaries keep failing.
		if err := m.ProcessEvents(); !errors.Is(err, ErrInterrupted) {
			t.Errorf("ProcessEvents while unwinding = %v", err)
		}
		return interrupted
	}

	mustAdd(t, m, &event.ScannedRobotEvent{Name: "first"})
	if err := m.ProcessEvents(); err != nil {
		t.Fatalf("ProcessEvents leaked %v", err)
	}

	var ie *InterruptedError
	if !errors.As(interrupted, &ie) || ie.Priority != 10 {
		t.Fatalf("nested ProcessEvents = %v, want interruption at 10", interrupted)
	}
	if want := []string{"scan:first", "scan:second"}; !reflect.DeepEqual(r.got, want) {
		t.Errorf("delivered %v, want %v", r.got, want)
	}
	if m.Interrupting() != nil {
		t.Error("interruption still pending after the loop absorbed it")
	}
	if m.TopPriority() != NoPriority || m.TopEvent() != nil {
		t.Errorf("top = %d %v after drain", m.TopPriority(), m.TopEvent())
	}
}

func TestSwallowedInterruptionIsStillAbsorbed(t *testing.T) {
	r := &robot{}
	m, _, diag := newManager(t, r)

	r.handle = func(e event.Event) error {
		if label(e) != "wall1" {
			return nil
		}
		m.SetCurrentInterruptible(true)
		mustAdd(t, m, &event.HitWallEvent{Bearing: 2})
		_ = m.ProcessEvents()
		return nil
	}
	mustAdd(t, m, &event.HitWallEvent{Bearing: 1})
	if err := m.ProcessEvents(); err != nil {
		t.Fatalf("ProcessEvents: %v", err)
	}
	if want := []string{"wall1", "wall2"}; !reflect.DeepEqual(r.got, want) {
		t.Errorf("delivered %v, want %v", r.got, want)
	}
	if diag.Len() != 0 {
		t.Errorf("unexpected diagnostics: %s", diag)
	}
}

func TestQueueCap(t *testing.T) {
	m, _, diag := newManager(t, &robot{})
	dropped := 0
	for i := 0; i < 300; i++ {
		if err := m.Add(&event.HitWallEvent{Bearing: float64(i)}); err != nil {
			if !errors.Is(err, ErrQueueFull) {
				t.Fatalf("Add: %v", err)
			}
			dropped++
		}
	}
	if m.Len() != MaxQueueSize || dropped != 300-MaxQueueSize {
		t.Errorf("Len = %d dropped = %d", m.Len(), dropped)
	}
	last := m.AllEvents()[MaxQueueSize-1].(*event.HitWallEvent)
	if last.Bearing != MaxQueueSize-1 {
		t.Errorf("newest retained bearing = %v, want the oldest 256 kept", last.Bearing)
	}
	if !strings.Contains(diag.String(), "event queue full") {
		t.Errorf("no overflow warning in %q", diag)
	}
}

func TestListenerFailuresAreContained(t *testing.T) {
	r := &robot{}
	m, _, diag := newManager(t, r)
	r.handle = func(e event.Event) error {
		switch e.(type) {
		case *event.HitWallEvent:
			return errors.New("wall handler broke")
		case *event.ScannedRobotEvent:
			panic("scanner exploded")
		}
		return nil
	}
	mustAdd(t, m, &event.HitWallEvent{Bearing: 1})
	mustAdd(t, m, &event.ScannedRobotEvent{Name: "x"})
	mustAdd(t, m, &event.RobotDeathEvent{Name: "y"})

	if err := m.ProcessEvents(); err != nil {
		t.Fatalf("ProcessEvents: %v", err)
	}
	if want := []string{"RobotDeathEvent", "wall1", "scan:x"}; !reflect.DeepEqual(r.got, want) {
		t.Errorf("delivered %v, want %v", r.got, want)
	}
	out := diag.String()
	for _, s := range []string{"wall handler broke", "scanner exploded"} {
		if !strings.Contains(out, s) {
			t.Errorf("diagnostics missing %q", s)
		}
	}
}

func TestCustomConditions(t *testing.T) {
	r := &robot{}
	m, host, diag := newManager(t, r)

	fired := event.NewCondition("low-energy", 65, func() bool { return true })
	quiet := event.NewCondition("never", 90, func() bool { return false })
	broken := event.NewCondition("broken", 90, func() bool { panic("bad test") })
	m.AddCondition(fired)
	m.AddCondition(quiet)
	m.AddCondition(broken)
	mustAdd(t, m, &event.BulletHitEvent{})

	if err := m.ProcessEvents(); err != nil {
		t.Fatalf("ProcessEvents: %v", err)
	}
	if want := []string{"custom:low-energy", "BulletHitEvent"}; !reflect.DeepEqual(r.got, want) {
		t.Errorf("delivered %v, want %v", r.got, want)
	}
	if want := []bool{true, false, true, false, true, false}; !reflect.DeepEqual(host.testing, want) {
		t.Errorf("testing flag %v, want %v", host.testing, want)
	}
	if !strings.Contains(diag.String(), "bad test") {
		t.Error("condition panic not reported")
	}

	m.RemoveCondition(fired)
	if got := len(m.Conditions()); got != 2 {
		t.Errorf("conditions after remove = %d, want 2", got)
	}
}

func TestPriorityAPI(t *testing.T) {
	m, _, diag := newManager(t, &robot{})

	m.SetEventPriority("robocode.HitWallEvent", 150)
	if got := m.EventPriority("HitWallEvent"); got != 99 {
		t.Errorf("clamped priority = %d, want 99", got)
	}
	m.SetEventPriority("HitWallEvent", -3)
	if got := m.EventPriority("HitWallEvent"); got != 0 {
		t.Errorf("clamped priority = %d, want 0", got)
	}

	m.SetEventPriority("WinEvent", 5)
	if got := m.EventPriority("WinEvent"); got != 100 {
		t.Errorf("critical priority changed to %d", got)
	}
	m.SetEventPriority("NoSuchEvent", 5)
	if got := m.EventPriority("NoSuchEvent"); got != -1 {
		t.Errorf("unknown class priority = %d, want -1", got)
	}
	if got := m.EventPriority("ScannedRobotEvent"); got != 10 {
		t.Errorf("default priority = %d, want 10", got)
	}

	out := diag.String()
	for _, s := range []string{"between 0 and 99", "system event", "unknown event class"} {
		if !strings.Contains(out, s) {
			t.Errorf("diagnostics missing %q", s)
		}
	}

	queued := &event.ScannedRobotEvent{}
	mustAdd(t, m, queued)
	m.SetEventPriority("ScannedRobotEvent", 70)
	if queued.Priority() != 10 {
		t.Errorf("queued event priority changed to %d", queued.Priority())
	}
}

func TestInterruptibleBounds(t *testing.T) {
	m, _, _ := newManager(t, &robot{})
	m.SetInterruptible(99, true)
	m.SetInterruptible(100, true)
	m.SetInterruptible(-1, true)
	if !m.Interruptible(99) {
		t.Error("Interruptible(99) = false")
	}
	for _, p := range []int{100, -1, 1000} {
		if m.Interruptible(p) {
			t.Errorf("Interruptible(%d) = true", p)
		}
	}
	// Nothing is running, so this is a no-op.
	m.SetCurrentInterruptible(true)
}

func TestClearAndReset(t *testing.T) {
	m, host, _ := newManager(t, &robot{})
	host.now = 3
	mustAdd(t, m, &event.HitWallEvent{})
	mustAdd(t, m, &event.BattleEndedEvent{})
	mustAdd(t, m, &event.ScannedRobotEvent{})
	m.AddCondition(event.NewCondition("c", 50, func() bool { return false }))

	if got := len(m.EventsOf(event.KindHitWall)); got != 1 {
		t.Errorf("EventsOf(HitWall) = %d", got)
	}
	snap := m.AllEvents()
	snap[0] = nil
	if m.AllEvents()[0] == nil {
		t.Error("AllEvents exposed the live queue")
	}

	m.ClearBefore(3)
	if m.Len() != 1 {
		t.Errorf("Len after ClearBefore = %d, want 1", m.Len())
	}

	mustAdd(t, m, &event.HitWallEvent{})
	m.Reset()
	if m.Len() != 1 || len(m.EventsOf(event.KindBattleEnded)) != 1 {
		t.Errorf("Reset kept %d events, want only the critical one", m.Len())
	}
	if len(m.Conditions()) != 0 {
		t.Error("Reset kept custom conditions")
	}

	m.Clear(true)
	if m.Len() != 0 {
		t.Errorf("Len after Clear(true) = %d", m.Len())
	}
}
