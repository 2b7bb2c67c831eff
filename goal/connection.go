package goal

// Condition is a named predicate over collected data. Connections carrying a
// condition are evaluated as soon as extraction completes the source goal,
// before any confirmation prompt.
type Condition struct {
	Name string
	Test func(data map[string]any) bool
}

// Connection is a directed edge between two goals. UserGoal is the
// natural-language trigger the decision collaborator matches against, e.g.
// "to cancel the current order".
type Connection struct {
	Source   *Goal
	Target   *Goal
	UserGoal string

	// HandOver makes the target reply contextually on arrival instead of
	// emitting its canned opener.
	HandOver bool
	// KeepMessages makes the target inherit the source's message history.
	KeepMessages bool

	Condition *Condition
}

type ConnectOption func(*Connection)

func WithHandOver() ConnectOption {
	return func(c *Connection) { c.HandOver = true }
}

func WithKeepMessages() ConnectOption {
	return func(c *Connection) { c.KeepMessages = true }
}

// WithCondition gates the edge on a predicate over the collected data
// instead of a user trigger.
func WithCondition(name string, test func(data map[string]any) bool) ConnectOption {
	return func(c *Connection) {
		c.Condition = &Condition{Name: name, Test: test}
	}
}

// ConnectionSpec is the prompt-facing description of an outgoing edge.
type ConnectionSpec struct {
	Target  string `json:"target"`
	Trigger string `json:"trigger"`
}

func (c *Connection) Spec() ConnectionSpec {
	return ConnectionSpec{Target: c.Target.Label, Trigger: c.UserGoal}
}
