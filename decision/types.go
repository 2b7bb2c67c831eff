package decision

import (
	"context"

	"github.com/cloudwego/eino/schema"

	"github.com/goalchain/goalchain/goal"
	"github.com/goalchain/goalchain/types"
)

// Decision is the structured verdict the completion collaborator returns for
// one user utterance: route somewhere, extract field values, flag the input
// as out of scope, or settle a pending confirmation.
type Decision struct {
	Route      string         `json:"route,omitempty"`
	Fields     map[string]any `json:"extracted_fields,omitempty"`
	OutOfScope bool           `json:"out_of_scope,omitempty"`
	Confirmed  *bool          `json:"confirmed,omitempty"`
}

// Request carries everything a generator may reason over. History already
// ends with the user's latest message; UserInput repeats it for
// implementations that do not consume history.
type Request struct {
	Context *goal.PromptContext
	Phase   types.Phase

	Data    map[string]any
	Missing []goal.FieldSpec
	// Feedback holds validator messages from the previous turn so the model
	// knows which values were rejected.
	Feedback []string

	History   []*schema.Message
	UserInput string
}

type Generator interface {
	Decide(ctx context.Context, req *Request) (*Decision, error)
}
