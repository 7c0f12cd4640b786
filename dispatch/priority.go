package dispatch

import (
	"github.com/nstehr/vimy/vimy-host/event"
)

// priorityOf is the priority a new event of kind k is queued at.
func (m *Manager) priorityOf(k event.Kind) int {
	if k.Critical() {
		return k.DefaultPriority()
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	if p, ok := m.priorities[k]; ok {
		return p
	}
	return event.DefaultPriority
}

// admitPriority also honours a custom event's own condition priority.
func (m *Manager) admitPriority(e event.Event) int {
	if ce, ok := e.(*event.CustomEvent); ok && ce.Condition != nil {
		return ce.Condition.Priority()
	}
	return m.priorityOf(e.Kind())
}

// EventPriority returns the priority new events of the named class get, or
// -1 when the name is not an event class.
func (m *Manager) EventPriority(class string) int {
	k, ok := event.KindByName(class)
	if !ok {
		return -1
	}
	return m.priorityOf(k)
}

// SetEventPriority changes the priority of future events of the named
// class. Unknown and critical classes are left alone; out-of-range values
// are clamped. Problems go to the robot's diagnostics, not the caller.
func (m *Manager) SetEventPriority(class string, priority int) {
	k, ok := event.KindByName(class)
	if !ok {
		m.log.Warn("unknown event class, priority unchanged", "class", class)
		return
	}
	if k.Critical() {
		m.log.Warn("priority of a system event cannot change", "class", k.String())
		return
	}
	if p := event.ClampPriority(priority); p != priority {
		m.log.Warn("priority must be between 0 and 99", "class", k.String(), "requested", priority, "using", p)
		priority = p
	}
	m.mu.Lock()
	m.priorities[k] = priority
	m.mu.Unlock()
}

// SetInterruptible marks whether a handler running at priority may be
// restarted by a newer event of the same priority. Only 0..99 can be set.
func (m *Manager) SetInterruptible(priority int, interruptible bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.setInterruptible(priority, interruptible)
}

func (m *Manager) setInterruptible(priority int, interruptible bool) {
	if priority < 0 || priority >= MaxPriority {
		return
	}
	m.interruptible[priority] = interruptible
}

// SetCurrentInterruptible applies SetInterruptible to the running handler.
func (m *Manager) SetCurrentInterruptible(interruptible bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.setInterruptible(m.topPriority, interruptible)
}

func (m *Manager) Interruptible(priority int) bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.isInterruptible(priority)
}

func (m *Manager) isInterruptible(priority int) bool {
	if priority < 0 || priority > MaxPriority {
		return false
	}
	return m.interruptible[priority]
}
