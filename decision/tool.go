package decision

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/bytedance/sonic"
	"github.com/cloudwego/eino/components/model"
	"github.com/cloudwego/eino/schema"

	"github.com/goalchain/goalchain/prompts"
	"github.com/goalchain/goalchain/types"
)

// ToolBasedGenerator forces the chat model to answer through the
// conversation_decision tool and parses the arguments into a Decision.
type ToolBasedGenerator struct {
	chatModel model.ToolCallingChatModel
	profiles  map[string]model.ToolCallingChatModel
}

type ToolOption func(*ToolBasedGenerator)

// WithProfile registers an alternative chat model under the name a goal
// refers to via its json_model identifier.
func WithProfile(name string, cm model.ToolCallingChatModel) ToolOption {
	return func(g *ToolBasedGenerator) { g.profiles[name] = cm }
}

func NewToolBasedGenerator(chatModel model.ToolCallingChatModel, opts ...ToolOption) *ToolBasedGenerator {
	g := &ToolBasedGenerator{
		chatModel: chatModel,
		profiles:  make(map[string]model.ToolCallingChatModel),
	}
	for _, opt := range opts {
		opt(g)
	}
	return g
}

func (g *ToolBasedGenerator) resolve(profile string) model.ToolCallingChatModel {
	if cm, ok := g.profiles[profile]; ok {
		return cm
	}
	return g.chatModel
}

func (g *ToolBasedGenerator) Decide(ctx context.Context, req *Request) (*Decision, error) {
	system, err := g.systemPrompt(ctx, req)
	if err != nil {
		return nil, err
	}

	messages := make([]*schema.Message, 0, len(req.History)+1)
	messages = append(messages, schema.SystemMessage(system))
	messages = append(messages, req.History...)

	info := decisionToolInfo(req.Context)
	resp, err := g.resolve(req.Context.JSONModel).Generate(ctx, messages,
		model.WithTools([]*schema.ToolInfo{info}),
		model.WithToolChoice(schema.ToolChoiceForced, info.Name),
	)
	if err != nil {
		return nil, fmt.Errorf("decision model call failed: %w", err)
	}

	var args string
	for _, tc := range resp.ToolCalls {
		if tc.Function.Name == decisionToolName {
			args = tc.Function.Arguments
			break
		}
	}
	if args == "" {
		return nil, &types.CompletionParseError{
			Raw: resp.Content,
			Err: errors.New("model did not call the " + decisionToolName + " tool"),
		}
	}

	var parsed decisionArgs
	if err := sonic.UnmarshalString(args, &parsed); err != nil {
		return nil, &types.CompletionParseError{Raw: args, Err: err}
	}
	slog.Debug("decision parsed",
		"goal", req.Context.Label,
		"route", parsed.Route,
		"fields", len(parsed.Fields),
		"out_of_scope", parsed.OutOfScope,
		"has_verdict", parsed.Confirmed != nil)
	return &Decision{
		Route:      parsed.Route,
		Fields:     parsed.Fields,
		OutOfScope: parsed.OutOfScope,
		Confirmed:  parsed.Confirmed,
	}, nil
}

func (g *ToolBasedGenerator) systemPrompt(ctx context.Context, req *Request) (string, error) {
	vars := prompts.ContextVars(req.Context)
	vars["confirming"] = req.Phase == types.PhaseConfirming
	system, err := prompts.Render(ctx, prompts.DecisionSystem, vars)
	if err != nil {
		return "", err
	}

	collected, err := sonic.MarshalString(req.Data)
	if err != nil {
		return "", fmt.Errorf("marshal collected data: %w", err)
	}
	missing := make([]map[string]any, 0, len(req.Missing))
	for _, f := range req.Missing {
		missing = append(missing, map[string]any{
			"name":        f.Name,
			"description": f.Description,
		})
	}
	status, err := prompts.Render(ctx, prompts.DecisionStatus, map[string]any{
		"collected": collected,
		"missing":   missing,
		"feedback":  req.Feedback,
	})
	if err != nil {
		return "", err
	}
	return system + "\n\n" + status, nil
}
