package event

// Condition is tested once per turn by the dispatch engine; when Test
// returns true a CustomEvent carrying it is queued at Priority.
type Condition interface {
	Name() string
	Priority() int
	Test() bool
}

// FuncCondition adapts a plain function to Condition.
type FuncCondition struct {
	name     string
	priority int
	test     func() bool
}

// NewCondition clamps priority to 0..99, the range open to robot code.
func NewCondition(name string, priority int, test func() bool) *FuncCondition {
	return &FuncCondition{name: name, priority: ClampPriority(priority), test: test}
}

func (c *FuncCondition) Name() string  { return c.name }
func (c *FuncCondition) Priority() int { return c.priority }

func (c *FuncCondition) Test() bool {
	if c.test == nil {
		return false
	}
	return c.test()
}

// ClampPriority limits a robot-assigned priority to 0..99. 100 and above
// belong to critical events.
func ClampPriority(p int) int {
	if p < 0 {
		return 0
	}
	if p > 99 {
		return 99
	}
	return p
}
