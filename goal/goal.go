package goal

import (
	"fmt"
	"strings"
)

// Goal is a node in the routing graph: a conversational sub-task with the
// fields it wants filled and the edges leading away from it. Goals are built
// once and shared read-only across conversations; all per-conversation state
// lives in the orchestrator.
type Goal struct {
	Label      string
	Statement  string
	Opener     string
	OutOfScope string

	// Confirm gates data emission behind an explicit user yes/no.
	Confirm bool

	// Model and JSONModel name the completion profiles collaborators should
	// use for free-text and structured calls. Opaque to this package.
	Model     string
	JSONModel string

	fields      []Field
	fieldIndex  map[string]int
	connections []*Connection
	action      *Action
}

type Option func(*Goal)

func WithOutOfScope(instruction string) Option {
	return func(g *Goal) { g.OutOfScope = instruction }
}

// WithoutConfirm emits data immediately once all required fields are filled.
func WithoutConfirm() Option {
	return func(g *Goal) { g.Confirm = false }
}

func WithModel(model string) Option {
	return func(g *Goal) { g.Model = model }
}

func WithJSONModel(model string) Option {
	return func(g *Goal) { g.JSONModel = model }
}

func WithFields(fields ...Field) Option {
	return func(g *Goal) {
		for _, f := range fields {
			if err := g.AddField(f); err != nil {
				panic(err)
			}
		}
	}
}

func New(label, statement, opener string, opts ...Option) *Goal {
	g := &Goal{
		Label:      label,
		Statement:  statement,
		Opener:     opener,
		Confirm:    true,
		fieldIndex: make(map[string]int),
	}
	for _, opt := range opts {
		opt(g)
	}
	return g
}

// AddField appends a field declaration. Field names are used verbatim as
// keys in extracted data, so they must be unique within the goal.
func (g *Goal) AddField(f Field) error {
	if f.Name == "" {
		return fmt.Errorf("goal %q: field name must not be empty", g.Label)
	}
	if _, exists := g.fieldIndex[f.Name]; exists {
		return fmt.Errorf("goal %q: field %q already declared", g.Label, f.Name)
	}
	g.fieldIndex[f.Name] = len(g.fields)
	g.fields = append(g.fields, f)
	return nil
}

// Fields returns the field declarations in declaration order.
func (g *Goal) Fields() []Field {
	out := make([]Field, len(g.fields))
	copy(out, g.fields)
	return out
}

func (g *Goal) Field(name string) (Field, bool) {
	idx, ok := g.fieldIndex[name]
	if !ok {
		return Field{}, false
	}
	return g.fields[idx], true
}

// IsRoutingHub reports whether the goal declares no fields and therefore
// only routes; it never collects data or finalizes.
func (g *Goal) IsRoutingHub() bool {
	return len(g.fields) == 0
}

// Connect registers a directed edge to target and returns the receiver so
// several edges can be chained off the same source. Re-declaring an edge
// with the same trigger to the same target is documentation of a symmetric
// flow, not extra multiplicity: the first declaration wins.
func (g *Goal) Connect(target *Goal, userGoal string, opts ...ConnectOption) *Goal {
	conn := &Connection{
		Source:   g,
		Target:   target,
		UserGoal: userGoal,
	}
	for _, opt := range opts {
		opt(conn)
	}
	for _, existing := range g.connections {
		if existing.Target == conn.Target && sameTrigger(existing.UserGoal, conn.UserGoal) {
			return g
		}
	}
	g.connections = append(g.connections, conn)
	return g
}

// ConnectIf registers a condition-gated edge to target. The predicate is
// evaluated over the collected data as soon as the goal completes, before
// any confirmation prompt.
func (g *Goal) ConnectIf(name string, test func(data map[string]any) bool, target *Goal, opts ...ConnectOption) *Goal {
	opts = append(opts, WithCondition(name, test))
	return g.Connect(target, "", opts...)
}

func sameTrigger(a, b string) bool {
	return strings.EqualFold(strings.TrimSpace(a), strings.TrimSpace(b))
}

// Connections returns the outgoing edges in declaration order.
func (g *Goal) Connections() []*Connection {
	out := make([]*Connection, len(g.connections))
	copy(out, g.connections)
	return out
}

// ConnectionTo resolves an outgoing edge by target label. Trigger-routable
// edges are preferred; condition-gated edges only match if no plain edge
// points at the label.
func (g *Goal) ConnectionTo(label string) (*Connection, bool) {
	var gated *Connection
	for _, conn := range g.connections {
		if conn.Target.Label != label {
			continue
		}
		if conn.Condition == nil {
			return conn, true
		}
		if gated == nil {
			gated = conn
		}
	}
	if gated != nil {
		return gated, true
	}
	return nil, false
}

// ConditionalConnections returns the condition-gated edges in declaration
// order.
func (g *Goal) ConditionalConnections() []*Connection {
	var out []*Connection
	for _, conn := range g.connections {
		if conn.Condition != nil {
			out = append(out, conn)
		}
	}
	return out
}

// Then attaches the terminal action run when this goal finalizes.
func (g *Goal) Then(a *Action) *Action {
	g.action = a
	return a
}

func (g *Goal) Action() *Action {
	return g.action
}

// RequiredSatisfied reports whether every non-optional field has an entry in
// data.
func (g *Goal) RequiredSatisfied(data map[string]any) bool {
	for _, f := range g.fields {
		if f.Optional {
			continue
		}
		if _, ok := data[f.Name]; !ok {
			return false
		}
	}
	return true
}

// MissingFields returns the non-optional fields without an entry in data, in
// declaration order.
func (g *Goal) MissingFields(data map[string]any) []Field {
	var missing []Field
	for _, f := range g.fields {
		if f.Optional {
			continue
		}
		if _, ok := data[f.Name]; !ok {
			missing = append(missing, f)
		}
	}
	return missing
}
