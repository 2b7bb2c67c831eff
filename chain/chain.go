// Package chain drives goal-oriented conversations: it owns the active goal,
// the collected data and the per-goal histories of one conversation, asks
// the decision collaborator what each user utterance means, and turns the
// verdict into state transitions and replies.
package chain

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/cloudwego/eino/components/model"
	"github.com/cloudwego/eino/schema"

	"github.com/goalchain/goalchain/decision"
	"github.com/goalchain/goalchain/dialogue"
	"github.com/goalchain/goalchain/goal"
	"github.com/goalchain/goalchain/prompts"
	"github.com/goalchain/goalchain/types"
)

// DefaultMaxHandOvers bounds how many hand-over edges one turn may traverse
// with the same user input.
const DefaultMaxHandOvers = 8

const defaultHistoryLimit = 50

// GoalChain is the per-conversation orchestrator. One instance owns exactly
// one conversation and processes turns synchronously; the goal graph itself
// is shared read-only.
type GoalChain struct {
	start  *goal.Goal
	active *goal.Goal

	data     map[string]any
	phase    types.Phase
	feedback []string

	histories *HistoryStore
	decider   decision.Generator
	replier   dialogue.Generator

	maxHandOvers int
}

type Option func(*GoalChain)

func WithMaxHandOvers(n int) Option {
	return func(c *GoalChain) { c.maxHandOvers = n }
}

func WithHistoryStore(store *HistoryStore) Option {
	return func(c *GoalChain) { c.histories = store }
}

func New(start *goal.Goal, decider decision.Generator, replier dialogue.Generator, opts ...Option) *GoalChain {
	c := &GoalChain{
		start:        start,
		active:       start,
		data:         map[string]any{},
		phase:        types.PhaseAwaitingInput,
		histories:    NewMemoryHistoryStore(KeepLastN{N: defaultHistoryLimit}),
		decider:      decider,
		replier:      replier,
		maxHandOvers: DefaultMaxHandOvers,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// NewToolBased wires both collaborators to the same chat model.
func NewToolBased(start *goal.Goal, chatModel model.ToolCallingChatModel, opts ...Option) (*GoalChain, error) {
	replier, err := dialogue.NewToolBasedGenerator(chatModel)
	if err != nil {
		return nil, fmt.Errorf("create dialogue generator: %w", err)
	}
	return New(start, decision.NewToolBasedGenerator(chatModel), replier, opts...), nil
}

func (c *GoalChain) ActiveGoal() *goal.Goal { return c.active }

func (c *GoalChain) Phase() types.Phase { return c.phase }

// CollectedData returns a copy of the active episode's validated values.
func (c *GoalChain) CollectedData() map[string]any {
	out := make(map[string]any, len(c.data))
	for k, v := range c.data {
		out[k] = v
	}
	return out
}

// GetResponse processes one turn. An empty userInput emits the active goal's
// canned opener without invoking any collaborator. Turns are all-or-nothing:
// on error the conversation state is exactly what it was before the call.
func (c *GoalChain) GetResponse(ctx context.Context, userInput string) (*types.Response, error) {
	if userInput == "" {
		if c.phase == types.PhaseAwaitingInput {
			c.phase = types.PhaseCollecting
		}
		return c.say(ctx, c.active, c.active.Opener)
	}

	saved, err := c.stash(ctx)
	if err != nil {
		return nil, fmt.Errorf("snapshot conversation state: %w", err)
	}
	resp, err := c.runTurn(ctx, userInput, 0)
	if err != nil {
		if restoreErr := c.unstash(ctx, saved); restoreErr != nil {
			slog.Error("failed to roll back turn state", "err", restoreErr)
		}
		return nil, err
	}
	return resp, nil
}

// SimulateResponse injects a system-originated assistant message into the
// active goal's history. It never touches routing or collected data.
func (c *GoalChain) SimulateResponse(ctx context.Context, content string, rephrase bool) (*types.Response, error) {
	text := content
	if rephrase {
		hist, err := c.histories.Load(ctx, c.active.Label)
		if err != nil {
			return nil, err
		}
		text, err = c.replier.Reply(ctx, &dialogue.Request{
			Kind:    dialogue.KindRephrase,
			Context: c.active.PromptContext(),
			Phase:   c.phase,
			Content: content,
			History: hist,
		})
		if err != nil {
			return nil, fmt.Errorf("rephrase response: %w", err)
		}
	}
	return c.say(ctx, c.active, text)
}

func (c *GoalChain) runTurn(ctx context.Context, userInput string, depth int) (*types.Response, error) {
	if depth > c.maxHandOvers {
		return nil, &types.RoutingLoopError{Goal: c.active.Label, Depth: depth}
	}
	switch c.phase {
	case types.PhaseAwaitingInput:
		c.phase = types.PhaseCollecting
	case types.PhaseDone:
		// previous episode finished; new input opens a fresh one
		c.phase = types.PhaseCollecting
		c.data = map[string]any{}
	}

	hist, err := c.histories.Append(ctx, c.active.Label, schema.UserMessage(userInput))
	if err != nil {
		return nil, err
	}

	pc := c.active.PromptContext()
	dec, err := c.decider.Decide(ctx, &decision.Request{
		Context:   pc,
		Phase:     c.phase,
		Data:      c.CollectedData(),
		Missing:   missingSpecs(c.active, c.data),
		Feedback:  c.feedback,
		History:   hist,
		UserInput: userInput,
	})
	if err != nil {
		return nil, fmt.Errorf("decide next step: %w", err)
	}
	slog.Debug("turn decision",
		"goal", c.active.Label,
		"phase", c.phase,
		"route", dec.Route,
		"fields", len(dec.Fields),
		"out_of_scope", dec.OutOfScope,
		"has_verdict", dec.Confirmed != nil,
		"depth", depth)

	if dec.Route != "" {
		conn, ok := c.active.ConnectionTo(dec.Route)
		if !ok {
			unknown := &types.UnknownConnectionError{Goal: c.active.Label, Route: dec.Route}
			slog.Warn("decision proposed unknown route, treating as out of scope", "err", unknown)
			return c.outOfScope(ctx, pc, hist, userInput)
		}
		if err := c.switchTo(ctx, conn); err != nil {
			return nil, err
		}
		if conn.HandOver {
			return c.runTurn(ctx, userInput, depth+1)
		}
		return c.say(ctx, c.active, c.active.Opener)
	}

	if dec.OutOfScope {
		return c.outOfScope(ctx, pc, hist, userInput)
	}

	if len(dec.Fields) > 0 && !c.active.IsRoutingHub() {
		return c.extract(ctx, pc, dec.Fields, hist, userInput)
	}

	if c.phase == types.PhaseConfirming && dec.Confirmed != nil {
		if *dec.Confirmed {
			return c.finalize(ctx)
		}
		// declined without a correction: keep collecting
		c.phase = types.PhaseCollecting
		return c.reply(ctx, &dialogue.Request{
			Kind:      dialogue.KindCollect,
			Context:   pc,
			Phase:     c.phase,
			Missing:   missingSpecs(c.active, c.data),
			History:   hist,
			UserInput: userInput,
		})
	}

	// nothing actionable; restate the outstanding question
	if c.phase == types.PhaseConfirming {
		return c.confirmPrompt(ctx, pc, hist, userInput)
	}
	return c.reply(ctx, &dialogue.Request{
		Kind:      dialogue.KindCollect,
		Context:   pc,
		Phase:     c.phase,
		Missing:   missingSpecs(c.active, c.data),
		History:   hist,
		UserInput: userInput,
	})
}

// extract validates the proposed values field by field. Valid values merge
// into the collected data; rejections become a natural-language re-prompt
// and the goal stays in collecting.
func (c *GoalChain) extract(ctx context.Context, pc *goal.PromptContext, proposed map[string]any, hist []*schema.Message, userInput string) (*types.Response, error) {
	delta := make(map[string]any)
	var rejections []string
	for _, f := range c.active.Fields() {
		raw, ok := proposed[f.Name]
		if !ok {
			continue
		}
		if raw == nil {
			// explicit retraction of a previously collected value
			delta[f.Name] = nil
			continue
		}
		value, err := f.Validate(raw)
		if err != nil {
			var ve *types.ValidationError
			if errors.As(err, &ve) {
				rejections = append(rejections, ve.Message)
				continue
			}
			return nil, fmt.Errorf("validate field %q: %w", f.Name, err)
		}
		delta[f.Name] = value
	}

	if len(delta) > 0 {
		merged, err := applyFieldDelta(c.data, delta)
		if err != nil {
			return nil, err
		}
		c.data = merged
	}

	if len(rejections) > 0 {
		c.feedback = rejections
		c.phase = types.PhaseCollecting
		return c.reply(ctx, &dialogue.Request{
			Kind:      dialogue.KindValidation,
			Context:   pc,
			Phase:     c.phase,
			Errors:    rejections,
			Missing:   missingSpecs(c.active, c.data),
			History:   hist,
			UserInput: userInput,
		})
	}
	c.feedback = nil

	if !c.active.RequiredSatisfied(c.data) {
		// a retraction during confirmation reopens collection
		c.phase = types.PhaseCollecting
		return c.reply(ctx, &dialogue.Request{
			Kind:      dialogue.KindCollect,
			Context:   pc,
			Phase:     c.phase,
			Missing:   missingSpecs(c.active, c.data),
			History:   hist,
			UserInput: userInput,
		})
	}

	// condition-gated edges fire before any confirmation prompt
	for _, conn := range c.active.ConditionalConnections() {
		if conn.Condition.Test(c.CollectedData()) {
			slog.Debug("condition rerouted conversation",
				"condition", conn.Condition.Name,
				"from", c.active.Label,
				"to", conn.Target.Label)
			return c.arrive(ctx, conn)
		}
	}

	if c.active.Confirm {
		c.phase = types.PhaseConfirming
		return c.confirmPrompt(ctx, pc, hist, userInput)
	}
	return c.finalize(ctx)
}

// finalize emits the completed goal's data, running its terminal action if
// one is attached.
func (c *GoalChain) finalize(ctx context.Context) (*types.Response, error) {
	data := c.CollectedData()
	act := c.active.Action()
	c.phase = types.PhaseDone

	if act == nil {
		return types.NewDataResponse(c.active.Label, data), nil
	}

	result, err := act.Execute(data)
	if err != nil {
		return nil, fmt.Errorf("action for goal %q failed: %w", c.active.Label, err)
	}
	if result == nil {
		result = data
	}

	var content string
	if act.ResponseTemplate != "" {
		content, err = prompts.Render(ctx, act.ResponseTemplate, result)
		if err != nil {
			return nil, fmt.Errorf("render action response: %w", err)
		}
		if act.Rephrase {
			hist, histErr := c.histories.Load(ctx, c.active.Label)
			if histErr != nil {
				return nil, histErr
			}
			content, err = c.replier.Reply(ctx, &dialogue.Request{
				Kind:    dialogue.KindRephrase,
				Context: c.active.PromptContext(),
				Phase:   c.phase,
				Content: content,
				History: hist,
			})
			if err != nil {
				return nil, fmt.Errorf("rephrase action response: %w", err)
			}
		}
	}

	if next := act.NextGoal(result); next != nil {
		hop := &goal.Connection{Source: c.active, Target: next}
		if err := c.switchTo(ctx, hop); err != nil {
			return nil, err
		}
		return c.say(ctx, c.active, c.active.Opener)
	}

	if content == "" {
		return types.NewDataResponse(c.active.Label, result), nil
	}
	if _, err := c.histories.Append(ctx, c.active.Label, schema.AssistantMessage(content, nil)); err != nil {
		return nil, err
	}
	if act.End {
		return types.NewEndResponse(c.active.Label, content, result), nil
	}
	resp := types.NewMessageResponse(c.active.Label, content)
	resp.Data = result
	return resp, nil
}

// switchTo moves the conversation onto conn's target: collected data is
// scoped to a goal and never carries over, message history only does when
// the edge says so.
func (c *GoalChain) switchTo(ctx context.Context, conn *goal.Connection) error {
	inheritHistory := conn.KeepMessages && conn.Source != conn.Target
	var inherited []*schema.Message
	if inheritHistory {
		hist, err := c.histories.Load(ctx, conn.Source.Label)
		if err != nil {
			return err
		}
		inherited = hist
	}

	c.active = conn.Target
	c.data = map[string]any{}
	c.feedback = nil
	c.phase = types.PhaseCollecting

	if conn.KeepMessages {
		if inheritHistory {
			if _, err := c.histories.Append(ctx, conn.Target.Label, inherited...); err != nil {
				return err
			}
		}
		return nil
	}
	return c.histories.Clear(ctx, conn.Target.Label)
}

// arrive lands on a condition-gated target without new user input: the
// target greets with its opener, contextually if the edge hands over.
func (c *GoalChain) arrive(ctx context.Context, conn *goal.Connection) (*types.Response, error) {
	if err := c.switchTo(ctx, conn); err != nil {
		return nil, err
	}
	if !conn.HandOver {
		return c.say(ctx, c.active, c.active.Opener)
	}
	hist, err := c.histories.Load(ctx, c.active.Label)
	if err != nil {
		return nil, err
	}
	text, err := c.replier.Reply(ctx, &dialogue.Request{
		Kind:    dialogue.KindOpener,
		Context: c.active.PromptContext(),
		Phase:   c.phase,
		Content: c.active.Opener,
		History: hist,
	})
	if err != nil {
		return nil, fmt.Errorf("contextual opener: %w", err)
	}
	return c.say(ctx, c.active, text)
}

func (c *GoalChain) outOfScope(ctx context.Context, pc *goal.PromptContext, hist []*schema.Message, userInput string) (*types.Response, error) {
	return c.reply(ctx, &dialogue.Request{
		Kind:      dialogue.KindOutOfScope,
		Context:   pc,
		Phase:     c.phase,
		Content:   c.outstandingQuestion(),
		Missing:   missingSpecs(c.active, c.data),
		History:   hist,
		UserInput: userInput,
	})
}

// outstandingQuestion names what the conversation is still waiting on, so an
// out-of-scope detour does not stall it.
func (c *GoalChain) outstandingQuestion() string {
	if c.phase == types.PhaseConfirming {
		return "could you confirm the information provided so far"
	}
	if missing := c.active.MissingFields(c.data); len(missing) > 0 {
		return "could you provide " + missing[0].Description
	}
	return ""
}

func (c *GoalChain) confirmPrompt(ctx context.Context, pc *goal.PromptContext, hist []*schema.Message, userInput string) (*types.Response, error) {
	var items []dialogue.Item
	for _, f := range c.active.Fields() {
		if value, ok := c.data[f.Name]; ok {
			items = append(items, dialogue.Item{Name: f.Name, Value: value})
		}
	}
	return c.reply(ctx, &dialogue.Request{
		Kind:      dialogue.KindConfirm,
		Context:   pc,
		Phase:     c.phase,
		Items:     items,
		History:   hist,
		UserInput: userInput,
	})
}

func (c *GoalChain) reply(ctx context.Context, req *dialogue.Request) (*types.Response, error) {
	text, err := c.replier.Reply(ctx, req)
	if err != nil {
		return nil, fmt.Errorf("compose reply: %w", err)
	}
	return c.say(ctx, c.active, text)
}

func (c *GoalChain) say(ctx context.Context, g *goal.Goal, content string) (*types.Response, error) {
	if _, err := c.histories.Append(ctx, g.Label, schema.AssistantMessage(content, nil)); err != nil {
		return nil, err
	}
	return types.NewMessageResponse(g.Label, content), nil
}

type turnStash struct {
	active    *goal.Goal
	phase     types.Phase
	data      map[string]any
	feedback  []string
	histories map[string][]*schema.Message
}

func (c *GoalChain) stash(ctx context.Context) (*turnStash, error) {
	histories, err := c.histories.Snapshot(ctx)
	if err != nil {
		return nil, err
	}
	return &turnStash{
		active:    c.active,
		phase:     c.phase,
		data:      c.CollectedData(),
		feedback:  append([]string(nil), c.feedback...),
		histories: histories,
	}, nil
}

func (c *GoalChain) unstash(ctx context.Context, s *turnStash) error {
	c.active = s.active
	c.phase = s.phase
	c.data = s.data
	c.feedback = s.feedback
	return c.histories.Restore(ctx, s.histories)
}

func missingSpecs(g *goal.Goal, data map[string]any) []goal.FieldSpec {
	fields := g.MissingFields(data)
	specs := make([]goal.FieldSpec, 0, len(fields))
	for _, f := range fields {
		specs = append(specs, f.Spec())
	}
	return specs
}
