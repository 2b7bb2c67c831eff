package dialogue

import (
	"context"
	"fmt"
	"strings"
)

// LocalGenerator produces deterministic replies without a model call. Used
// as a failback behind the tool-based generator and in offline setups.
type LocalGenerator struct{}

func NewLocalGenerator() *LocalGenerator {
	return &LocalGenerator{}
}

func (g *LocalGenerator) Reply(ctx context.Context, req *Request) (string, error) {
	switch req.Kind {
	case KindOpener, KindRephrase:
		return req.Content, nil

	case KindValidation:
		var sb strings.Builder
		sb.WriteString("I couldn't accept some of that:\n")
		for _, msg := range req.Errors {
			sb.WriteString("- ")
			sb.WriteString(msg)
			sb.WriteString("\n")
		}
		sb.WriteString("Could you try again?")
		return sb.String(), nil

	case KindOutOfScope:
		var sb strings.Builder
		if req.Context.OutOfScope != "" {
			sb.WriteString(req.Context.OutOfScope)
		} else {
			sb.WriteString("I can't help with that here.")
		}
		if req.Content != "" {
			sb.WriteString(" In the meantime, ")
			sb.WriteString(req.Content)
			sb.WriteString(".")
		}
		return sb.String(), nil

	case KindConfirm:
		var sb strings.Builder
		sb.WriteString("Here's what I have:\n")
		for _, item := range req.Items {
			sb.WriteString(fmt.Sprintf("- %s: %v\n", item.Name, item.Value))
		}
		sb.WriteString("Is everything correct? (yes/no)")
		return sb.String(), nil

	default:
		if len(req.Missing) > 0 {
			return fmt.Sprintf("Could you tell me %s?", req.Missing[0].Description), nil
		}
		return "How can I help you further?", nil
	}
}

// Failback tries each generator in order and returns the first success.
type Failback struct {
	generators []Generator
}

func NewFailback(generators ...Generator) *Failback {
	return &Failback{generators: generators}
}

func (g *Failback) Reply(ctx context.Context, req *Request) (string, error) {
	var lastErr error
	for _, generator := range g.generators {
		reply, err := generator.Reply(ctx, req)
		if err == nil {
			return reply, nil
		}
		lastErr = err
	}
	return "", fmt.Errorf("all dialogue generators failed: %w", lastErr)
}
