package decision

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/goalchain/goalchain/goal"
	"github.com/goalchain/goalchain/types"
)

func TestLocalRoutesOnTriggerMention(t *testing.T) {
	gen := NewLocalGenerator()
	req := orderRequest()
	req.UserInput = "actually I want to cancel the current order"

	dec, err := gen.Decide(context.Background(), req)
	require.NoError(t, err)
	assert.Equal(t, "cancel_current_order", dec.Route)
}

func TestLocalSettlesConfirmation(t *testing.T) {
	gen := NewLocalGenerator()

	req := orderRequest()
	req.Phase = types.PhaseConfirming
	req.UserInput = "yes, that's right"
	dec, err := gen.Decide(context.Background(), req)
	require.NoError(t, err)
	require.NotNil(t, dec.Confirmed)
	assert.True(t, *dec.Confirmed)

	req.UserInput = "no, change it"
	dec, err = gen.Decide(context.Background(), req)
	require.NoError(t, err)
	require.NotNil(t, dec.Confirmed)
	assert.False(t, *dec.Confirmed)
}

func TestLocalIgnoresAffirmationsWhileCollecting(t *testing.T) {
	gen := NewLocalGenerator()
	req := orderRequest()
	req.UserInput = "yes"

	dec, err := gen.Decide(context.Background(), req)
	require.NoError(t, err)
	assert.Nil(t, dec.Confirmed)
	assert.Empty(t, dec.Route)
	assert.Empty(t, dec.Fields)
}

type failingGenerator struct{ err error }

func (g failingGenerator) Decide(ctx context.Context, req *Request) (*Decision, error) {
	return nil, g.err
}

func TestFailbackFallsThrough(t *testing.T) {
	gen := NewFailback(
		failingGenerator{err: errors.New("model offline")},
		NewLocalGenerator(),
	)
	req := orderRequest()
	req.Phase = types.PhaseConfirming
	req.UserInput = "confirm"

	dec, err := gen.Decide(context.Background(), req)
	require.NoError(t, err)
	require.NotNil(t, dec.Confirmed)
	assert.True(t, *dec.Confirmed)
}

func TestFailbackReportsLastError(t *testing.T) {
	boom := errors.New("still offline")
	gen := NewFailback(
		failingGenerator{err: errors.New("model offline")},
		failingGenerator{err: boom},
	)

	_, err := gen.Decide(context.Background(), &Request{Context: (&goal.Goal{}).PromptContext()})
	require.ErrorIs(t, err, boom)
}
