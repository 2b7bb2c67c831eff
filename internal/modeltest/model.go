// Package modeltest provides a scripted chat model for exercising the
// tool-based collaborators without network calls.
package modeltest

import (
	"context"
	"errors"
	"sync"

	"github.com/cloudwego/eino/components/model"
	"github.com/cloudwego/eino/schema"
)

// Reply is one scripted model answer. When ToolName is set the answer is a
// tool call with the given arguments, otherwise plain content.
type Reply struct {
	ToolName  string
	Arguments string
	Content   string
	Err       error
}

// ChatModel replays scripted replies in order; the last reply is sticky.
// Every request is recorded for assertions.
type ChatModel struct {
	mu       sync.Mutex
	replies  []Reply
	next     int
	Requests [][]*schema.Message
}

var _ model.ToolCallingChatModel = (*ChatModel)(nil)

func New(replies ...Reply) *ChatModel {
	return &ChatModel{replies: replies}
}

func (m *ChatModel) Generate(ctx context.Context, input []*schema.Message, opts ...model.Option) (*schema.Message, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	recorded := make([]*schema.Message, len(input))
	copy(recorded, input)
	m.Requests = append(m.Requests, recorded)

	if len(m.replies) == 0 {
		return nil, errors.New("modeltest: no scripted replies")
	}
	reply := m.replies[m.next]
	if m.next < len(m.replies)-1 {
		m.next++
	}
	if reply.Err != nil {
		return nil, reply.Err
	}
	msg := &schema.Message{
		Role:    schema.Assistant,
		Content: reply.Content,
	}
	if reply.ToolName != "" {
		msg.ToolCalls = []schema.ToolCall{
			{
				ID: "call_0",
				Function: schema.FunctionCall{
					Name:      reply.ToolName,
					Arguments: reply.Arguments,
				},
			},
		}
	}
	return msg, nil
}

func (m *ChatModel) Stream(ctx context.Context, input []*schema.Message, opts ...model.Option) (*schema.StreamReader[*schema.Message], error) {
	msg, err := m.Generate(ctx, input, opts...)
	if err != nil {
		return nil, err
	}
	return schema.StreamReaderFromArray([]*schema.Message{msg}), nil
}

func (m *ChatModel) WithTools(tools []*schema.ToolInfo) (model.ToolCallingChatModel, error) {
	return m, nil
}
