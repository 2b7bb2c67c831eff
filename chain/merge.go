package chain

import (
	"fmt"

	"github.com/bytedance/sonic"
	jsonpatch "github.com/evanphx/json-patch/v5"
)

// applyFieldDelta folds validated field values into the collected data using
// RFC 7386 merge-patch semantics: a nil value retracts a previously
// collected field. Validator outputs are reapplied on top of the structural
// merge so typed values survive the JSON round trip.
func applyFieldDelta(base, delta map[string]any) (map[string]any, error) {
	if base == nil {
		base = map[string]any{}
	}
	if len(delta) == 0 {
		return base, nil
	}

	baseJSON, err := sonic.Marshal(base)
	if err != nil {
		return nil, fmt.Errorf("marshal collected data: %w", err)
	}
	deltaJSON, err := sonic.Marshal(delta)
	if err != nil {
		return nil, fmt.Errorf("marshal field delta: %w", err)
	}
	mergedJSON, err := jsonpatch.MergePatch(baseJSON, deltaJSON)
	if err != nil {
		return nil, fmt.Errorf("apply merge patch: %w", err)
	}

	var merged map[string]any
	if err := sonic.Unmarshal(mergedJSON, &merged); err != nil {
		return nil, fmt.Errorf("unmarshal merged data: %w", err)
	}
	for name, value := range delta {
		if value != nil {
			merged[name] = value
		}
	}
	return merged, nil
}
