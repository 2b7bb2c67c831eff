package dialogue

import (
	"context"

	"github.com/cloudwego/eino/schema"

	"github.com/goalchain/goalchain/goal"
	"github.com/goalchain/goalchain/types"
)

// Kind names the reply the orchestrator needs for this point in the turn.
type Kind string

const (
	// KindOpener produces a contextual greeting after a hand-over; the
	// canned opener arrives in Content as the baseline.
	KindOpener Kind = "opener"
	// KindCollect asks for whatever is still missing.
	KindCollect Kind = "collect"
	// KindValidation explains rejected values and re-asks.
	KindValidation Kind = "validation"
	// KindOutOfScope relays the goal's out-of-scope instruction and restates
	// the open question.
	KindOutOfScope Kind = "out_of_scope"
	// KindConfirm summarizes collected values and asks for a yes/no.
	KindConfirm Kind = "confirm"
	// KindRephrase restates Content in voice consistent with the history.
	KindRephrase Kind = "rephrase"
)

// Item is one collected name/value pair, in field declaration order.
type Item struct {
	Name  string `json:"name"`
	Value any    `json:"value"`
}

type Request struct {
	Kind    Kind
	Context *goal.PromptContext
	Phase   types.Phase

	// Content is the canned text for opener/rephrase kinds, or the open
	// question for out-of-scope.
	Content string
	Errors  []string
	Missing []goal.FieldSpec
	Items   []Item

	History   []*schema.Message
	UserInput string
}

type Generator interface {
	Reply(ctx context.Context, req *Request) (string, error)
}
