package decision

import (
	"context"
	"fmt"
	"strings"

	"github.com/goalchain/goalchain/types"
)

// LocalGenerator is a degraded, model-free fallback. It settles pending
// confirmations by keyword and routes on literal trigger mentions; it never
// extracts field values.
type LocalGenerator struct {
	AffirmKeywords []string
	NegateKeywords []string
}

func NewLocalGenerator() *LocalGenerator {
	return &LocalGenerator{
		AffirmKeywords: []string{"yes", "yep", "correct", "confirm", "ok", "sure", "right"},
		NegateKeywords: []string{"no", "nope", "wrong", "cancel", "change"},
	}
}

func (g *LocalGenerator) Decide(ctx context.Context, req *Request) (*Decision, error) {
	normalized := strings.ToLower(strings.TrimSpace(req.UserInput))

	for _, conn := range req.Context.Connections {
		trigger := strings.ToLower(strings.TrimSpace(conn.Trigger))
		if trigger != "" && strings.Contains(normalized, trigger) {
			return &Decision{Route: conn.Target}, nil
		}
	}

	if req.Phase == types.PhaseConfirming {
		for _, keyword := range g.AffirmKeywords {
			if containsWord(normalized, keyword) {
				verdict := true
				return &Decision{Confirmed: &verdict}, nil
			}
		}
		for _, keyword := range g.NegateKeywords {
			if containsWord(normalized, keyword) {
				verdict := false
				return &Decision{Confirmed: &verdict}, nil
			}
		}
	}

	return &Decision{}, nil
}

func containsWord(s, word string) bool {
	for _, part := range strings.FieldsFunc(s, func(r rune) bool {
		return r == ' ' || r == ',' || r == '.' || r == '!' || r == '?'
	}) {
		if part == word {
			return true
		}
	}
	return false
}

// Failback tries each generator in order and returns the first success.
type Failback struct {
	generators []Generator
}

func NewFailback(generators ...Generator) *Failback {
	return &Failback{generators: generators}
}

func (g *Failback) Decide(ctx context.Context, req *Request) (*Decision, error) {
	var lastErr error
	for _, generator := range g.generators {
		decision, err := generator.Decide(ctx, req)
		if err == nil {
			return decision, nil
		}
		lastErr = err
	}
	return nil, fmt.Errorf("all decision generators failed: %w", lastErr)
}
