// Package prompts holds the Jinja2 templates the collaborators reason over
// and a thin rendering helper on top of eino's prompt component. The
// orchestrator never concatenates prompt strings itself; it assembles
// context objects and the templates do the rest.
package prompts

import (
	"context"
	"fmt"

	"github.com/cloudwego/eino/components/prompt"
	"github.com/cloudwego/eino/schema"

	"github.com/goalchain/goalchain/goal"
)

// Render formats a single Jinja2 template against vars and returns the
// resulting text.
func Render(ctx context.Context, template string, vars map[string]any) (string, error) {
	tpl := prompt.FromMessages(schema.Jinja2, schema.UserMessage(template))
	msgs, err := tpl.Format(ctx, vars)
	if err != nil {
		return "", fmt.Errorf("render template: %w", err)
	}
	if len(msgs) == 0 {
		return "", fmt.Errorf("render template: no message produced")
	}
	return msgs[0].Content, nil
}

// ContextVars flattens a goal's prompt context into template variables.
func ContextVars(pc *goal.PromptContext) map[string]any {
	fields := make([]map[string]any, 0, len(pc.Fields))
	for _, f := range pc.Fields {
		fields = append(fields, map[string]any{
			"name":        f.Name,
			"description": f.Description,
			"format_hint": f.FormatHint,
			"optional":    f.Optional,
		})
	}
	connections := make([]map[string]any, 0, len(pc.Connections))
	for _, c := range pc.Connections {
		connections = append(connections, map[string]any{
			"target":  c.Target,
			"trigger": c.Trigger,
		})
	}
	return map[string]any{
		"label":        pc.Label,
		"statement":    pc.Statement,
		"opener":       pc.Opener,
		"out_of_scope": pc.OutOfScope,
		"confirm":      pc.Confirm,
		"fields":       fields,
		"connections":  connections,
	}
}

// DecisionSystem frames the structured decision call: what to gather, where
// the conversation may route, and when to treat input as out of scope.
const DecisionSystem = `Your role is to analyze the latest user message of the conversation below and decide the next step.
Goal: {{ statement }}
{% if fields %}
Information to be gathered:
{% for field in fields %}
- {{ field.name }}: {{ field.description }}{% if field.format_hint %} ({{ field.format_hint }}){% endif %}{% if field.optional %} [optional]{% endif %}
{% endfor %}
This is all of the information to gather, do not extract anything else.
{% endif %}
{% if connections %}
The conversation can route elsewhere:
{% for connection in connections %}
- route "{{ connection.target }}" if the user wants {{ connection.trigger }}
{% endfor %}
{% endif %}
{% if confirming %}
The user was just asked to confirm the gathered information. Decide whether they confirmed, declined, or revised a value.
{% endif %}
If the message matches neither information to gather nor a route, mark it out of scope.`

// DecisionStatus summarizes the live collection state for the decision call.
const DecisionStatus = `Collected so far: {{ collected }}
{% if missing %}
Still missing:
{% for field in missing %}
- {{ field.name }}: {{ field.description }}
{% endfor %}
{% endif %}
{% if feedback %}
The previous values were rejected:
{% for error in feedback %}
- {{ error }}
{% endfor %}
{% endif %}`

// ValidationReply turns validator rejections into a natural re-prompt. Kept
// close to the source material: explain the problems, do not invent fixes.
const ValidationReply = `Your role is to continue the conversation below as the Assistant.
Unfortunately you had trouble processing the user's request because of the following problems:
{% for error in errors %}
* {{ error }}
{% endfor %}
Continue the conversation naturally, and explain the problems.
Do not be creative. Do not make suggestions as to how to fix the problems.`

// OutOfScopeReply relays the goal's out-of-scope instruction and restates
// the outstanding question so the conversation does not stall.
const OutOfScopeReply = `Your role is to continue the conversation below as the Assistant.
The user's message is outside the scope of the current goal.
{% if out_of_scope %}
Instruction for out-of-scope requests: {{ out_of_scope }}
{% endif %}
{% if question %}
After addressing that, restate the open question: {{ question }}
{% endif %}
Do not be creative.`

// ConfirmReply summarizes the gathered values and asks for a yes or no.
const ConfirmReply = `Your role is to continue the conversation below as the Assistant.
All required information has been gathered:
{% for item in items %}
- {{ item.name }}: {{ item.value }}
{% endfor %}
Summarize these values for the user and ask them to confirm with a yes or no.
Do not ask for anything else.`

// RephraseReply restates a canned response in voice consistent with the
// conversation so far.
const RephraseReply = `Your role is to continue the conversation below as the Assistant.
Normally you respond with: {{ response }}
{% if has_history %}
Goal: {{ statement }}
But now you need to take into account the conversation so far and tailor your response accordingly.
Continue the conversation naturally. Do not be creative.
{% else %}
Simply rephrase your response as the Assistant.
{% endif %}`

// CollectReply asks for whatever is still missing after an extraction.
const CollectReply = `Your role is to continue the conversation below as the Assistant.
Goal: {{ statement }}
{% if missing %}
Information still to be gathered:
{% for field in missing %}
- {{ field.name }}: {{ field.description }}{% if field.format_hint %} ({{ field.format_hint }}){% endif %}
{% endfor %}
Ask for it naturally, and don't repeat yourself.
{% else %}
Continue the conversation naturally, and don't repeat yourself.
{% endif %}`
