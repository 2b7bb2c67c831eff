package goal

// PromptContext is the snapshot of a goal the prompt layer reasons over:
// label, statement, field specs, opener, out-of-scope instruction, and the
// reachable connection triggers. It is rebuilt from the live goal on every
// turn so it can never diverge from the graph.
type PromptContext struct {
	Label       string           `json:"label"`
	Statement   string           `json:"statement"`
	Opener      string           `json:"opener"`
	OutOfScope  string           `json:"out_of_scope,omitempty"`
	Confirm     bool             `json:"confirm"`
	Fields      []FieldSpec      `json:"fields,omitempty"`
	Connections []ConnectionSpec `json:"connections,omitempty"`
	Model       string           `json:"model,omitempty"`
	JSONModel   string           `json:"json_model,omitempty"`
}

func (g *Goal) PromptContext() *PromptContext {
	ctx := &PromptContext{
		Label:      g.Label,
		Statement:  g.Statement,
		Opener:     g.Opener,
		OutOfScope: g.OutOfScope,
		Confirm:    g.Confirm,
		Model:      g.Model,
		JSONModel:  g.JSONModel,
	}
	for _, f := range g.fields {
		ctx.Fields = append(ctx.Fields, f.Spec())
	}
	seen := make(map[string]struct{}, len(g.connections))
	for _, conn := range g.connections {
		if conn.Condition != nil {
			continue
		}
		spec := conn.Spec()
		if _, dup := seen[spec.Target]; dup {
			continue
		}
		seen[spec.Target] = struct{}{}
		ctx.Connections = append(ctx.Connections, spec)
	}
	return ctx
}

// RouteLabels returns the target labels the decision collaborator may pick.
func (c *PromptContext) RouteLabels() []string {
	labels := make([]string, 0, len(c.Connections))
	for _, conn := range c.Connections {
		labels = append(labels, conn.Target)
	}
	return labels
}
