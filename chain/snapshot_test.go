package chain

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/goalchain/goalchain/dialogue"
	"github.com/goalchain/goalchain/goal"
	"github.com/goalchain/goalchain/types"
)

func TestSnapshotRoundTripAcrossChains(t *testing.T) {
	g := buildOrderGraph()
	decider := decide(
		fields(map[string]any{"customer_email": "john@x.com"}),
		route("cancel_current_order"),
		fields(nil),
	)
	c := New(g.order, decider, dialogue.NewLocalGenerator())
	ctx := context.Background()

	_, err := c.GetResponse(ctx, "my email is john@x.com")
	require.NoError(t, err)
	_, err = c.GetResponse(ctx, "actually, cancel my order")
	require.NoError(t, err)
	require.Equal(t, "cancel_current_order", c.ActiveGoal().Label)

	snap, err := c.Snapshot(ctx)
	require.NoError(t, err)
	raw, err := snap.Marshal()
	require.NoError(t, err)

	restored, err := UnmarshalSnapshot(raw)
	require.NoError(t, err)

	// a fresh chain over the same graph resumes exactly where we left off
	resumeDecider := decide(fields(map[string]any{"reason": "changed my mind"}))
	fresh := New(g.order, resumeDecider, dialogue.NewLocalGenerator())
	require.NoError(t, fresh.Restore(ctx, restored))
	assert.Equal(t, "cancel_current_order", fresh.ActiveGoal().Label)
	assert.Equal(t, types.PhaseCollecting, fresh.Phase())

	resp, err := fresh.GetResponse(ctx, "I changed my mind")
	require.NoError(t, err)
	assert.Equal(t, types.ResponseData, resp.Type)
	assert.Equal(t, map[string]any{"reason": "changed my mind"}, resp.Data)
}

func TestSnapshotCarriesCollectedData(t *testing.T) {
	g := buildOrderGraph()
	decider := decide(fields(map[string]any{"customer_email": "john@x.com"}))
	c := New(g.order, decider, dialogue.NewLocalGenerator())
	ctx := context.Background()

	_, err := c.GetResponse(ctx, "john@x.com")
	require.NoError(t, err)

	snap, err := c.Snapshot(ctx)
	require.NoError(t, err)
	assert.Equal(t, "1", snap.Version)
	assert.Equal(t, "product_order", snap.Goal)
	assert.Equal(t, types.PhaseCollecting, snap.Phase)
	assert.Equal(t, "john@x.com", snap.Data["customer_email"])
	assert.False(t, snap.Timestamp.IsZero())
}

func TestRestoreRejectsUnknownGoal(t *testing.T) {
	g := buildOrderGraph()
	c := New(g.order, decide(fields(nil)), dialogue.NewLocalGenerator())

	err := c.Restore(context.Background(), &Snapshot{Version: "1", Goal: "refund_order"})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "refund_order")
}

func TestRestoreRejectsUnknownVersion(t *testing.T) {
	g := buildOrderGraph()
	c := New(g.order, decide(fields(nil)), dialogue.NewLocalGenerator())

	err := c.Restore(context.Background(), &Snapshot{Version: "2", Goal: "product_order"})
	require.Error(t, err)
}

func TestRestoreFindsActionTargets(t *testing.T) {
	g := buildOrderGraph()
	survey := goal.New("survey", "to collect a satisfaction score", "How did we do today?")
	g.order.Action().Then(survey)

	// reachable only through the action's follow-up route
	c := New(g.order, decide(fields(nil)), dialogue.NewLocalGenerator())
	err := c.Restore(context.Background(), &Snapshot{Version: "1", Goal: "survey"})
	require.NoError(t, err)
	assert.Equal(t, "survey", c.ActiveGoal().Label)
	assert.Equal(t, types.PhaseCollecting, c.Phase())
}
