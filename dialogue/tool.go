package dialogue

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/bytedance/sonic"
	"github.com/cloudwego/eino/components/model"
	"github.com/cloudwego/eino/components/tool/utils"
	"github.com/cloudwego/eino/schema"

	"github.com/goalchain/goalchain/prompts"
	"github.com/goalchain/goalchain/types"
)

const (
	replyToolName = "compose_reply"
	replyToolDesc = "Compose the assistant's next conversational reply. Keep it concise and natural."
)

type replyArgs struct {
	Message string `json:"message" jsonschema:"required,description=The reply to show the user"`
}

// ToolBasedGenerator forces the chat model to answer through the
// compose_reply tool so the reply text always arrives in a known shape.
type ToolBasedGenerator struct {
	chatModel model.ToolCallingChatModel
	profiles  map[string]model.ToolCallingChatModel
	toolInfo  *schema.ToolInfo
}

type ToolOption func(*ToolBasedGenerator)

// WithProfile registers an alternative chat model under the name a goal
// refers to via its model identifier.
func WithProfile(name string, cm model.ToolCallingChatModel) ToolOption {
	return func(g *ToolBasedGenerator) { g.profiles[name] = cm }
}

func NewToolBasedGenerator(chatModel model.ToolCallingChatModel, opts ...ToolOption) (*ToolBasedGenerator, error) {
	toolInfo, err := utils.GoStruct2ToolInfo[replyArgs](replyToolName, replyToolDesc)
	if err != nil {
		return nil, fmt.Errorf("build %s tool info: %w", replyToolName, err)
	}
	g := &ToolBasedGenerator{
		chatModel: chatModel,
		profiles:  make(map[string]model.ToolCallingChatModel),
		toolInfo:  toolInfo,
	}
	for _, opt := range opts {
		opt(g)
	}
	return g, nil
}

func (g *ToolBasedGenerator) resolve(profile string) model.ToolCallingChatModel {
	if cm, ok := g.profiles[profile]; ok {
		return cm
	}
	return g.chatModel
}

func (g *ToolBasedGenerator) Reply(ctx context.Context, req *Request) (string, error) {
	instruction, err := instructionFor(ctx, req)
	if err != nil {
		return "", err
	}

	messages := make([]*schema.Message, 0, len(req.History)+1)
	messages = append(messages, schema.SystemMessage(instruction))
	messages = append(messages, req.History...)

	resp, err := g.resolve(req.Context.Model).Generate(ctx, messages,
		model.WithTools([]*schema.ToolInfo{g.toolInfo}),
		model.WithToolChoice(schema.ToolChoiceForced, replyToolName),
	)
	if err != nil {
		return "", fmt.Errorf("dialogue model call failed: %w", err)
	}

	var args string
	for _, tc := range resp.ToolCalls {
		if tc.Function.Name == replyToolName {
			args = tc.Function.Arguments
			break
		}
	}
	if args == "" {
		return "", &types.CompletionParseError{
			Raw: resp.Content,
			Err: errors.New("model did not call the " + replyToolName + " tool"),
		}
	}

	var parsed replyArgs
	if err := sonic.UnmarshalString(args, &parsed); err != nil {
		return "", &types.CompletionParseError{Raw: args, Err: err}
	}
	if parsed.Message == "" {
		return "", &types.CompletionParseError{Raw: args, Err: errors.New("empty reply message")}
	}
	slog.Debug("dialogue reply", "goal", req.Context.Label, "kind", req.Kind, "len", len(parsed.Message))
	return parsed.Message, nil
}

// instructionFor renders the system instruction matching the request kind.
func instructionFor(ctx context.Context, req *Request) (string, error) {
	switch req.Kind {
	case KindValidation:
		return prompts.Render(ctx, prompts.ValidationReply, map[string]any{
			"errors": req.Errors,
		})
	case KindOutOfScope:
		return prompts.Render(ctx, prompts.OutOfScopeReply, map[string]any{
			"out_of_scope": req.Context.OutOfScope,
			"question":     req.Content,
		})
	case KindConfirm:
		items := make([]map[string]any, 0, len(req.Items))
		for _, item := range req.Items {
			items = append(items, map[string]any{"name": item.Name, "value": item.Value})
		}
		return prompts.Render(ctx, prompts.ConfirmReply, map[string]any{
			"items": items,
		})
	case KindOpener, KindRephrase:
		return prompts.Render(ctx, prompts.RephraseReply, map[string]any{
			"response":    req.Content,
			"statement":   req.Context.Statement,
			"has_history": len(req.History) > 0,
		})
	default: // KindCollect and anything unrecognized keeps gathering
		missing := make([]map[string]any, 0, len(req.Missing))
		for _, f := range req.Missing {
			missing = append(missing, map[string]any{
				"name":        f.Name,
				"description": f.Description,
				"format_hint": f.FormatHint,
			})
		}
		return prompts.Render(ctx, prompts.CollectReply, map[string]any{
			"statement": req.Context.Statement,
			"missing":   missing,
		})
	}
}
