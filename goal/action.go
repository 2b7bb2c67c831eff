package goal

// Action is a terminal node: it runs once the owning goal's data is
// finalized, optionally renders a closing response, and may chain the
// conversation into a follow-up goal.
type Action struct {
	// Func transforms the finalized data, e.g. to attach an order number.
	// A nil Func passes the data through unchanged.
	Func func(data map[string]any) (map[string]any, error)

	// ResponseTemplate is a Jinja2 template rendered against the action's
	// result. Empty means the orchestrator falls back to a data response.
	ResponseTemplate string

	// Rephrase asks the dialogue collaborator to restate the rendered
	// response in voice consistent with the conversation.
	Rephrase bool

	// End marks the conversation as finished after this action.
	End bool

	next       *Goal
	conditions []conditionalNext
}

type conditionalNext struct {
	name string
	test func(result map[string]any) bool
	goal *Goal
}

type ActionOption func(*Action)

func WithResponseTemplate(template string) ActionOption {
	return func(a *Action) { a.ResponseTemplate = template }
}

func WithRephrase() ActionOption {
	return func(a *Action) { a.Rephrase = true }
}

func EndsConversation() ActionOption {
	return func(a *Action) { a.End = true }
}

func NewAction(fn func(data map[string]any) (map[string]any, error), opts ...ActionOption) *Action {
	a := &Action{Func: fn}
	for _, opt := range opts {
		opt(a)
	}
	return a
}

// Then routes to g unconditionally after the action runs, unless a
// conditional route fired first. Returns g for further chaining.
func (a *Action) Then(g *Goal) *Goal {
	a.next = g
	return g
}

// ThenIf routes to g when test holds on the action's result. Conditions are
// checked in registration order before the unconditional route.
func (a *Action) ThenIf(name string, test func(result map[string]any) bool, g *Goal) *Action {
	a.conditions = append(a.conditions, conditionalNext{name: name, test: test, goal: g})
	return a
}

// Execute runs the action's function over the finalized data.
func (a *Action) Execute(data map[string]any) (map[string]any, error) {
	if a.Func == nil {
		return data, nil
	}
	return a.Func(data)
}

// NextGoal resolves where the conversation goes after the action, or nil if
// it stays put.
func (a *Action) NextGoal(result map[string]any) *Goal {
	for _, c := range a.conditions {
		if c.test(result) {
			return c.goal
		}
	}
	return a.next
}

// ReachableGoals lists every goal the action can route to, for graph walks.
func (a *Action) ReachableGoals() []*Goal {
	var out []*Goal
	for _, c := range a.conditions {
		out = append(out, c.goal)
	}
	if a.next != nil {
		out = append(out, a.next)
	}
	return out
}
