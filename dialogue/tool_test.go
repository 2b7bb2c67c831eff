package dialogue

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/goalchain/goalchain/goal"
	"github.com/goalchain/goalchain/internal/modeltest"
	"github.com/goalchain/goalchain/types"
)

func cancelContext() *goal.PromptContext {
	g := goal.New(
		"cancel_current_order",
		"to obtain the reason for the cancellation",
		"I see you are trying to cancel the current order, how can I help you?",
		goal.WithOutOfScope("Ask the user to contact the support team at support@acme.com"),
	)
	return g.PromptContext()
}

func TestToolBasedReply(t *testing.T) {
	cm := modeltest.New(modeltest.Reply{
		ToolName:  "compose_reply",
		Arguments: `{"message":"No problem, why do you want to cancel?"}`,
	})
	gen, err := NewToolBasedGenerator(cm)
	require.NoError(t, err)

	reply, err := gen.Reply(context.Background(), &Request{
		Kind:    KindOpener,
		Context: cancelContext(),
		Phase:   types.PhaseCollecting,
		Content: "I see you are trying to cancel the current order, how can I help you?",
	})
	require.NoError(t, err)
	assert.Equal(t, "No problem, why do you want to cancel?", reply)

	require.Len(t, cm.Requests, 1)
	system := cm.Requests[0][0].Content
	assert.Contains(t, system, "I see you are trying to cancel the current order")
}

func TestToolBasedReplyValidationInstruction(t *testing.T) {
	cm := modeltest.New(modeltest.Reply{
		ToolName:  "compose_reply",
		Arguments: `{"message":"That quantity is too large, could you pick 100 or fewer?"}`,
	})
	gen, err := NewToolBasedGenerator(cm)
	require.NoError(t, err)

	_, err = gen.Reply(context.Background(), &Request{
		Kind:    KindValidation,
		Context: cancelContext(),
		Errors:  []string{"Quantity cannot be greater than 100"},
	})
	require.NoError(t, err)
	assert.Contains(t, cm.Requests[0][0].Content, "Quantity cannot be greater than 100")
}

func TestToolBasedReplyEmptyMessage(t *testing.T) {
	cm := modeltest.New(modeltest.Reply{
		ToolName:  "compose_reply",
		Arguments: `{"message":""}`,
	})
	gen, err := NewToolBasedGenerator(cm)
	require.NoError(t, err)

	_, err = gen.Reply(context.Background(), &Request{Kind: KindCollect, Context: cancelContext()})
	var parseErr *types.CompletionParseError
	require.ErrorAs(t, err, &parseErr)
}

func TestToolBasedReplyMissingToolCall(t *testing.T) {
	cm := modeltest.New(modeltest.Reply{Content: "plain text"})
	gen, err := NewToolBasedGenerator(cm)
	require.NoError(t, err)

	_, err = gen.Reply(context.Background(), &Request{Kind: KindCollect, Context: cancelContext()})
	var parseErr *types.CompletionParseError
	require.ErrorAs(t, err, &parseErr)
}
