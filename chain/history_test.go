package chain

import (
	"context"
	"testing"

	"github.com/cloudwego/eino/schema"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAppendDeduplicatesConsecutiveTurns(t *testing.T) {
	store := NewMemoryHistoryStore(nil)
	ctx := context.Background()

	hist, err := store.Append(ctx, "order",
		schema.UserMessage("hello"),
		schema.UserMessage("hello"),
		schema.AssistantMessage("hi there", nil),
		schema.UserMessage("hello"),
	)
	require.NoError(t, err)
	require.Len(t, hist, 3)
	assert.Equal(t, "hello", hist[0].Content)
	assert.Equal(t, "hi there", hist[1].Content)
	assert.Equal(t, "hello", hist[2].Content)
}

func TestAppendTrims(t *testing.T) {
	store := NewMemoryHistoryStore(KeepLastN{N: 2})
	ctx := context.Background()

	_, err := store.Append(ctx, "order", schema.UserMessage("one"))
	require.NoError(t, err)
	_, err = store.Append(ctx, "order", schema.AssistantMessage("two", nil))
	require.NoError(t, err)
	hist, err := store.Append(ctx, "order", schema.UserMessage("three"))
	require.NoError(t, err)

	require.Len(t, hist, 2)
	assert.Equal(t, "two", hist[0].Content)
	assert.Equal(t, "three", hist[1].Content)
}

func TestHistoriesAreScopedByLabel(t *testing.T) {
	store := NewMemoryHistoryStore(nil)
	ctx := context.Background()

	_, err := store.Append(ctx, "order", schema.UserMessage("order talk"))
	require.NoError(t, err)
	_, err = store.Append(ctx, "cancel", schema.UserMessage("cancel talk"))
	require.NoError(t, err)

	orderHist, err := store.Load(ctx, "order")
	require.NoError(t, err)
	cancelHist, err := store.Load(ctx, "cancel")
	require.NoError(t, err)
	require.Len(t, orderHist, 1)
	require.Len(t, cancelHist, 1)
	assert.Equal(t, "order talk", orderHist[0].Content)
	assert.Equal(t, "cancel talk", cancelHist[0].Content)

	require.NoError(t, store.Clear(ctx, "order"))
	orderHist, err = store.Load(ctx, "order")
	require.NoError(t, err)
	assert.Empty(t, orderHist)
	cancelHist, err = store.Load(ctx, "cancel")
	require.NoError(t, err)
	assert.Len(t, cancelHist, 1)
}

func TestSnapshotRestoreRoundTrip(t *testing.T) {
	store := NewMemoryHistoryStore(nil)
	ctx := context.Background()

	_, err := store.Append(ctx, "order", schema.UserMessage("before"))
	require.NoError(t, err)
	saved, err := store.Snapshot(ctx)
	require.NoError(t, err)

	_, err = store.Append(ctx, "order", schema.UserMessage("after"))
	require.NoError(t, err)
	_, err = store.Append(ctx, "cancel", schema.UserMessage("new goal"))
	require.NoError(t, err)

	require.NoError(t, store.Restore(ctx, saved))
	hist, err := store.Load(ctx, "order")
	require.NoError(t, err)
	require.Len(t, hist, 1)
	assert.Equal(t, "before", hist[0].Content)
	gone, err := store.Load(ctx, "cancel")
	require.NoError(t, err)
	assert.Empty(t, gone)
}

func TestSnapshotIsolation(t *testing.T) {
	store := NewMemoryHistoryStore(nil)
	ctx := context.Background()

	_, err := store.Append(ctx, "order", schema.UserMessage("one"))
	require.NoError(t, err)
	saved, err := store.Snapshot(ctx)
	require.NoError(t, err)

	// mutating the snapshot must not leak into the store
	saved["order"][0] = schema.UserMessage("tampered")
	_, err = store.Append(ctx, "order", schema.UserMessage("two"))
	require.NoError(t, err)
	hist, err := store.Load(ctx, "order")
	require.NoError(t, err)
	assert.Equal(t, "one", hist[0].Content)
}
