package chain

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestApplyFieldDeltaMerges(t *testing.T) {
	base := map[string]any{"customer_email": "john@x.com", "quantity": 2}
	merged, err := applyFieldDelta(base, map[string]any{"product_name": "Widget"})
	require.NoError(t, err)
	assert.Equal(t, "john@x.com", merged["customer_email"])
	assert.Equal(t, "Widget", merged["product_name"])
	// the input map is left alone
	_, ok := base["product_name"]
	assert.False(t, ok)
}

func TestApplyFieldDeltaRetracts(t *testing.T) {
	base := map[string]any{"customer_email": "john@x.com", "product_name": "Widget"}
	merged, err := applyFieldDelta(base, map[string]any{"product_name": nil})
	require.NoError(t, err)
	_, ok := merged["product_name"]
	assert.False(t, ok)
	assert.Equal(t, "john@x.com", merged["customer_email"])
}

func TestApplyFieldDeltaPreservesValidatorTypes(t *testing.T) {
	merged, err := applyFieldDelta(map[string]any{}, map[string]any{"quantity": 7})
	require.NoError(t, err)
	assert.Equal(t, 7, merged["quantity"])
}

func TestApplyFieldDeltaNilBase(t *testing.T) {
	merged, err := applyFieldDelta(nil, map[string]any{"quantity": 1})
	require.NoError(t, err)
	assert.Equal(t, 1, merged["quantity"])
}

func TestApplyFieldDeltaEmptyDelta(t *testing.T) {
	base := map[string]any{"quantity": 1}
	merged, err := applyFieldDelta(base, nil)
	require.NoError(t, err)
	assert.Equal(t, base, merged)
}
