package chain

import (
	"context"
	"fmt"

	"github.com/bytedance/sonic"
	"github.com/cloudwego/eino/adk"
	"github.com/cloudwego/eino/schema"

	"github.com/goalchain/goalchain/types"
)

var _ adk.Agent = (*Agent)(nil)

// Agent exposes a GoalChain as an eino adk agent so a conversation graph
// can run inside a larger multi-agent setup.
type Agent struct {
	name        string
	description string
	chain       *GoalChain
}

func NewAgent(name, description string, chain *GoalChain) *Agent {
	return &Agent{
		name:        name,
		description: description,
		chain:       chain,
	}
}

func (a *Agent) Name(ctx context.Context) string {
	return a.name
}

func (a *Agent) Description(ctx context.Context) string {
	return a.description
}

func (a *Agent) Run(ctx context.Context, input *adk.AgentInput, options ...adk.AgentRunOption) *adk.AsyncIterator[*adk.AgentEvent] {
	iter, gen := adk.NewAsyncIteratorPair[*adk.AgentEvent]()
	go func() {
		defer func() {
			e := recover()
			if e != nil {
				gen.Send(&adk.AgentEvent{
					Err: fmt.Errorf("recover from panic: %v", e),
				})
			}
			gen.Close()
		}()
		var userInput string
		if len(input.Messages) > 0 {
			userInput = input.Messages[len(input.Messages)-1].Content
		}
		resp, err := a.chain.GetResponse(ctx, userInput)
		if err != nil {
			gen.Send(&adk.AgentEvent{
				Err: fmt.Errorf("turn failed: %w", err),
			})
			return
		}
		content := resp.Content
		if resp.Type == types.ResponseData {
			content, err = sonic.MarshalString(resp.Data)
			if err != nil {
				gen.Send(&adk.AgentEvent{
					Err: fmt.Errorf("marshal data response: %w", err),
				})
				return
			}
		}
		gen.Send(&adk.AgentEvent{
			Output: &adk.AgentOutput{
				MessageOutput: &adk.MessageVariant{
					IsStreaming: false,
					Message: &schema.Message{
						Role:    schema.Assistant,
						Content: content,
					},
					Role: schema.Assistant,
				},
			},
		})
	}()
	return iter
}
