// Package dispatch buffers a robot's events and delivers them in priority
// order, one turn at a time.
package dispatch

import (
	"errors"
	"fmt"
	"log/slog"
	"math"
	"runtime/debug"
	"sort"
	"sync"

	"github.com/nstehr/vimy/vimy-host/event"
)

const (
	MaxQueueSize = 256

	// MaxEventStack is how many turns a non-critical event may wait before
	// it is evicted unseen.
	MaxEventStack = 2

	MaxPriority = 100

	// NoPriority is the watermark when no handler is running.
	NoPriority = math.MinInt
)

var (
	ErrQueueFull   = errors.New("dispatch: event queue full")
	ErrInterrupted = errors.New("dispatch: event handler interrupted")
)

// InterruptedError unwinds a handler that marked its priority interruptible
// when a new event of the same priority arrives. Handlers must return it
// as-is (or wrapped); the dispatch loop that started the handler absorbs it.
type InterruptedError struct {
	Priority int
}

func (e *InterruptedError) Error() string {
	return fmt.Sprintf("dispatch: handler at priority %d interrupted", e.Priority)
}

func (e *InterruptedError) Unwrap() error { return ErrInterrupted }

// Host is the robot-side controller the engine works for.
type Host interface {
	// Time is the current turn.
	Time() int64
	// SetTestingCondition brackets custom condition tests.
	SetTestingCondition(testing bool)
}

// Manager is the per-robot event queue and dispatch loop. Robot logic and
// the loop run on one goroutine; the queue itself may be read and appended
// from others.
type Manager struct {
	host Host
	log  *slog.Logger

	mu         sync.Mutex
	listeners  event.Listeners
	queue      []event.Event
	conditions []event.Condition
	priorities map[event.Kind]int

	interruptible [MaxPriority + 1]bool
	topPriority   int
	topEvent      event.Event
	interrupt     *InterruptedError
}

// New builds a manager. log receives the robot's diagnostics; listeners may
// be bound later with SetListeners.
func New(host Host, listeners event.Listeners, log *slog.Logger) *Manager {
	if log == nil {
		log = slog.Default()
	}
	m := &Manager{
		host:        host,
		log:         log,
		listeners:   listeners,
		priorities:  make(map[event.Kind]int),
		topPriority: NoPriority,
	}
	for _, k := range event.Kinds() {
		if !k.Critical() {
			m.priorities[k] = k.DefaultPriority()
		}
	}
	return m
}

func (m *Manager) SetListeners(l event.Listeners) {
	m.mu.Lock()
	m.listeners = l
	m.mu.Unlock()
}

func (m *Manager) Listeners() event.Listeners {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.listeners
}

// Add queues e at the current priority of its class. Critical events keep
// their fixed priority and custom events that of their condition.
func (m *Manager) Add(e event.Event) error {
	if e == nil {
		return nil
	}
	return m.add(e, m.admitPriority(e))
}

func (m *Manager) add(e event.Event, priority int) error {
	now := m.host.Time()

	m.mu.Lock()
	defer m.mu.Unlock()
	if len(m.queue) >= MaxQueueSize {
		m.log.Warn("event queue full, dropping event", "event", e.Kind().String(), "max", MaxQueueSize)
		return fmt.Errorf("add %s: %w", e.Kind(), ErrQueueFull)
	}
	event.Admit(e, now, priority)
	m.queue = append(m.queue, e)
	return nil
}

// AllEvents returns a snapshot of the pending events.
func (m *Manager) AllEvents() []event.Event {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]event.Event, len(m.queue))
	copy(out, m.queue)
	return out
}

// EventsOf returns a snapshot of the pending events of one kind.
func (m *Manager) EventsOf(k event.Kind) []event.Event {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []event.Event
	for _, e := range m.queue {
		if e.Kind() == k {
			out = append(out, e)
		}
	}
	return out
}

func (m *Manager) Len() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.queue)
}

// Clear empties the queue. Critical events stay unless includingCritical.
func (m *Manager) Clear(includingCritical bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if includingCritical {
		m.queue = nil
		return
	}
	m.filter(func(e event.Event) bool { return event.Critical(e) })
}

// ClearBefore drops non-critical events stamped at or before t.
func (m *Manager) ClearBefore(t int64) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.filter(func(e event.Event) bool { return event.Critical(e) || e.Time() > t })
}

// filter keeps the events for which keep is true. Callers hold m.mu.
func (m *Manager) filter(keep func(event.Event) bool) {
	kept := m.queue[:0]
	for _, e := range m.queue {
		if keep(e) {
			kept = append(kept, e)
		}
	}
	for i := len(kept); i < len(m.queue); i++ {
		m.queue[i] = nil
	}
	m.queue = kept
}

// Reset prepares the manager for a fresh round: non-critical events and
// every custom condition go, and no handler is considered active.
func (m *Manager) Reset() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.filter(func(e event.Event) bool { return event.Critical(e) })
	m.conditions = nil
	m.topPriority = NoPriority
	m.topEvent = nil
	m.interrupt = nil
}

func (m *Manager) AddCondition(c event.Condition) {
	if c == nil {
		return
	}
	m.mu.Lock()
	m.conditions = append(m.conditions, c)
	m.mu.Unlock()
}

// RemoveCondition unregisters every registration of c.
func (m *Manager) RemoveCondition(c event.Condition) {
	m.mu.Lock()
	defer m.mu.Unlock()
	kept := m.conditions[:0]
	for _, x := range m.conditions {
		if x != c {
			kept = append(kept, x)
		}
	}
	m.conditions = kept
}

func (m *Manager) ResetConditions() {
	m.mu.Lock()
	m.conditions = nil
	m.mu.Unlock()
}

func (m *Manager) Conditions() []event.Condition {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]event.Condition, len(m.conditions))
	copy(out, m.conditions)
	return out
}

// TopPriority is the priority of the handler currently running, or
// NoPriority.
func (m *Manager) TopPriority() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.topPriority
}

// TopEvent is the event whose handler is currently running, or nil.
func (m *Manager) TopEvent() event.Event {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.topEvent
}

// Interrupting reports whether an interrupted handler is still unwinding.
func (m *Manager) Interrupting() error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.interrupt == nil {
		return nil
	}
	return m.interrupt
}

// ProcessEvents runs one dispatch cycle: evict stale events, test custom
// conditions, sort, then deliver while the best pending event outranks the
// running handler. It returns an *InterruptedError when the running
// handler must unwind; listener failures are reported to the diagnostics
// log and never returned.
func (m *Manager) ProcessEvents() error {
	if err := m.Interrupting(); err != nil {
		return err
	}

	now := m.host.Time()
	m.ClearBefore(now - MaxEventStack)
	m.testConditions()
	m.sort()

	for {
		e, prev, err := m.next()
		if err != nil {
			return err
		}
		if e == nil {
			return nil
		}

		m.dispatch(e, now)

		m.mu.Lock()
		if m.interrupt != nil {
			// The handler we started was the one interrupted.
			m.interrupt = nil
		} else {
			m.setInterruptible(m.topPriority, false)
		}
		m.topPriority, m.topEvent = prev.priority, prev.event
		m.mu.Unlock()
	}
}

// top is the running handler the watermark describes.
type top struct {
	priority int
	event    event.Event
}

// next pops the event to dispatch and raises the watermark to it, returning
// the watermark it replaced. It returns nil when nothing outranks the
// running handler, and the interruption when an equal-priority event
// arrives for an interruptible handler.
func (m *Manager) next() (event.Event, top, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	prev := top{priority: m.topPriority, event: m.topEvent}
	i := m.head()
	if i < 0 {
		return nil, prev, nil
	}
	e := m.queue[i]
	p := e.Priority()
	if p < m.topPriority {
		return nil, prev, nil
	}
	if p == m.topPriority {
		if m.topPriority != NoPriority && m.isInterruptible(m.topPriority) {
			m.setInterruptible(m.topPriority, false)
			m.interrupt = &InterruptedError{Priority: p}
			return nil, prev, m.interrupt
		}
		return nil, prev, nil
	}

	m.topPriority = p
	m.topEvent = e
	m.queue = append(m.queue[:i], m.queue[i+1:]...)
	return e, prev, nil
}

// head is the index of the first event with the highest priority. Callers
// hold m.mu.
func (m *Manager) head() int {
	best := -1
	for i, e := range m.queue {
		if best < 0 || e.Priority() > m.queue[best].Priority() {
			best = i
		}
	}
	return best
}

func (m *Manager) sort() {
	m.mu.Lock()
	defer m.mu.Unlock()
	sort.SliceStable(m.queue, func(i, j int) bool {
		return m.queue[i].Priority() > m.queue[j].Priority()
	})
}

func (m *Manager) testConditions() {
	for _, c := range m.Conditions() {
		if m.test(c) {
			// A full queue is already reported by add.
			_ = m.add(&event.CustomEvent{Condition: c}, c.Priority())
		}
	}
}

func (m *Manager) test(c event.Condition) (ok bool) {
	m.host.SetTestingCondition(true)
	defer m.host.SetTestingCondition(false)
	defer func() {
		if r := recover(); r != nil {
			m.log.Error("condition test panicked", "condition", c.Name(), "panic", r)
			ok = false
		}
	}()
	return c.Test()
}

// dispatch delivers e unless it went stale while waiting. Listener errors
// and panics stop here.
func (m *Manager) dispatch(e event.Event, now int64) {
	if !event.Critical(e) && e.Time() <= now-MaxEventStack {
		return
	}
	err := m.deliver(e)
	if err == nil {
		return
	}
	if errors.Is(err, ErrInterrupted) && m.Interrupting() != nil {
		return
	}
	m.log.Error("event handler failed", "event", e.Kind().String(), "error", err)
}

func (m *Manager) deliver(e event.Event) (err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("panic in %s handler: %v\n%s", e.Kind(), r, debug.Stack())
		}
	}()
	_, err = m.Listeners().Deliver(e)
	return err
}
