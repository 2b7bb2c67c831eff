package decision

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/goalchain/goalchain/goal"
	"github.com/goalchain/goalchain/internal/modeltest"
	"github.com/goalchain/goalchain/types"
)

func orderRequest() *Request {
	g := goal.New(
		"product_order",
		"to obtain information on an order to be made",
		"I see you are trying to order a product, how can I help you?",
		goal.WithFields(
			goal.NewField("customer_email", "customer email"),
			goal.NewField("quantity", "quantity of product", goal.WithFormatHint("an integer")),
		),
	)
	g.Connect(goal.New("cancel_current_order", "s", "o"), "to cancel the current order")
	return &Request{
		Context:   g.PromptContext(),
		Phase:     types.PhaseCollecting,
		Data:      map[string]any{"customer_email": "john@x.com"},
		Missing:   []goal.FieldSpec{{Name: "quantity", Description: "quantity of product"}},
		UserInput: "two please",
	}
}

func TestToolBasedDecideParsesArguments(t *testing.T) {
	cm := modeltest.New(modeltest.Reply{
		ToolName:  "conversation_decision",
		Arguments: `{"extracted_fields":{"quantity":2},"out_of_scope":false}`,
	})
	gen := NewToolBasedGenerator(cm)

	dec, err := gen.Decide(context.Background(), orderRequest())
	require.NoError(t, err)
	assert.Empty(t, dec.Route)
	assert.False(t, dec.OutOfScope)
	assert.Nil(t, dec.Confirmed)
	assert.Equal(t, float64(2), dec.Fields["quantity"])

	// the system prompt is assembled from the live goal context
	require.Len(t, cm.Requests, 1)
	system := cm.Requests[0][0].Content
	assert.Contains(t, system, "to obtain information on an order to be made")
	assert.Contains(t, system, "to cancel the current order")
	assert.Contains(t, system, "quantity of product")
	assert.Contains(t, system, `"customer_email":"john@x.com"`)
}

func TestToolBasedDecideFeedbackReachesPrompt(t *testing.T) {
	cm := modeltest.New(modeltest.Reply{
		ToolName:  "conversation_decision",
		Arguments: `{"out_of_scope":false}`,
	})
	gen := NewToolBasedGenerator(cm)

	req := orderRequest()
	req.Feedback = []string{"Quantity cannot be greater than 100"}
	_, err := gen.Decide(context.Background(), req)
	require.NoError(t, err)
	assert.Contains(t, cm.Requests[0][0].Content, "Quantity cannot be greater than 100")
}

func TestToolBasedDecideMalformedArguments(t *testing.T) {
	cm := modeltest.New(modeltest.Reply{
		ToolName:  "conversation_decision",
		Arguments: `{"extracted_fields":`,
	})
	gen := NewToolBasedGenerator(cm)

	_, err := gen.Decide(context.Background(), orderRequest())
	var parseErr *types.CompletionParseError
	require.ErrorAs(t, err, &parseErr)
}

func TestToolBasedDecideMissingToolCall(t *testing.T) {
	cm := modeltest.New(modeltest.Reply{Content: "sure, noted!"})
	gen := NewToolBasedGenerator(cm)

	_, err := gen.Decide(context.Background(), orderRequest())
	var parseErr *types.CompletionParseError
	require.ErrorAs(t, err, &parseErr)
	assert.Equal(t, "sure, noted!", parseErr.Raw)
}

func TestToolBasedDecideModelError(t *testing.T) {
	cm := modeltest.New(modeltest.Reply{Err: errors.New("rate limited")})
	gen := NewToolBasedGenerator(cm)

	_, err := gen.Decide(context.Background(), orderRequest())
	require.Error(t, err)
	var parseErr *types.CompletionParseError
	assert.False(t, errors.As(err, &parseErr))
}

func TestToolBasedDecideUsesProfileModel(t *testing.T) {
	fallback := modeltest.New(modeltest.Reply{
		ToolName:  "conversation_decision",
		Arguments: `{"out_of_scope":false}`,
	})
	profiled := modeltest.New(modeltest.Reply{
		ToolName:  "conversation_decision",
		Arguments: `{"out_of_scope":true}`,
	})
	gen := NewToolBasedGenerator(fallback, WithProfile("json-strict", profiled))

	req := orderRequest()
	req.Context.JSONModel = "json-strict"
	dec, err := gen.Decide(context.Background(), req)
	require.NoError(t, err)
	assert.True(t, dec.OutOfScope)
	assert.Empty(t, fallback.Requests)
	assert.Len(t, profiled.Requests, 1)
}
