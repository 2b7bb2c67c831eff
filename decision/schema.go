package decision

import (
	"github.com/cloudwego/eino/schema"
	"github.com/eino-contrib/jsonschema"

	"github.com/goalchain/goalchain/goal"
)

const (
	decisionToolName = "conversation_decision"
	decisionToolDesc = "Record the decision for the latest user message: route the conversation, extract field values, settle a pending confirmation, or mark the message out of scope."
)

// decisionArgs mirrors the tool parameters; it is what the model's tool-call
// arguments must unmarshal into.
type decisionArgs struct {
	Route      string         `json:"route,omitempty"`
	Fields     map[string]any `json:"extracted_fields,omitempty"`
	OutOfScope bool           `json:"out_of_scope,omitempty"`
	Confirmed  *bool          `json:"confirmed,omitempty"`
}

// decisionToolInfo builds the tool schema for one goal. The route property
// carries an enum of the labels actually reachable from the active goal, and
// extracted_fields only admits the goal's declared field names, so the model
// cannot invent edges or slots.
func decisionToolInfo(pc *goal.PromptContext) *schema.ToolInfo {
	props := jsonschema.NewProperties()

	routeSchema := &jsonschema.Schema{
		Type:        "string",
		Description: "Label of the connection the user wants to follow. Leave empty to stay in the current goal.",
	}
	for _, label := range pc.RouteLabels() {
		routeSchema.Enum = append(routeSchema.Enum, label)
	}
	props.Set("route", routeSchema)

	fieldProps := jsonschema.NewProperties()
	for _, f := range pc.Fields {
		desc := f.Description
		if f.FormatHint != "" {
			desc += " (" + f.FormatHint + ")"
		}
		fieldProps.Set(f.Name, &jsonschema.Schema{Description: desc})
	}
	props.Set("extracted_fields", &jsonschema.Schema{
		Type:        "object",
		Description: "Field values explicitly provided by the user. Use null to retract a previously given value. Omit fields the user did not mention.",
		Properties:  fieldProps,
	})

	props.Set("out_of_scope", &jsonschema.Schema{
		Type:        "boolean",
		Description: "True when the message matches neither information to gather nor any route.",
	})
	props.Set("confirmed", &jsonschema.Schema{
		Type:        "boolean",
		Description: "Only while a confirmation is pending: true for an affirmative, false for a refusal.",
	})

	js := &jsonschema.Schema{
		Type:       "object",
		Properties: props,
		Required:   []string{"out_of_scope"},
	}
	return &schema.ToolInfo{
		Name:        decisionToolName,
		Desc:        decisionToolDesc,
		ParamsOneOf: schema.NewParamsOneOfByJSONSchema(js),
	}
}
