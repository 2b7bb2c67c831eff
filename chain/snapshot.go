package chain

import (
	"context"
	"fmt"
	"time"

	"github.com/bytedance/sonic"
	"github.com/cloudwego/eino/schema"

	"github.com/goalchain/goalchain/goal"
	"github.com/goalchain/goalchain/types"
)

const snapshotVersion = "1"

// Snapshot is the host-persistence hook: everything a conversation needs to
// resume on a fresh GoalChain built over the same goal graph.
type Snapshot struct {
	Version   string                       `json:"version"`
	Goal      string                       `json:"goal"`
	Phase     types.Phase                  `json:"phase"`
	Data      map[string]any               `json:"data,omitempty"`
	Histories map[string][]*schema.Message `json:"histories,omitempty"`
	Timestamp time.Time                    `json:"timestamp"`
}

func (s *Snapshot) Marshal() ([]byte, error) {
	return sonic.Marshal(s)
}

func UnmarshalSnapshot(data []byte) (*Snapshot, error) {
	var snap Snapshot
	if err := sonic.Unmarshal(data, &snap); err != nil {
		return nil, fmt.Errorf("unmarshal snapshot: %w", err)
	}
	return &snap, nil
}

func (c *GoalChain) Snapshot(ctx context.Context) (*Snapshot, error) {
	histories, err := c.histories.Snapshot(ctx)
	if err != nil {
		return nil, err
	}
	return &Snapshot{
		Version:   snapshotVersion,
		Goal:      c.active.Label,
		Phase:     c.phase,
		Data:      c.CollectedData(),
		Histories: histories,
		Timestamp: time.Now(),
	}, nil
}

// Restore rewinds the conversation to a snapshot. The snapshot's goal label
// must resolve within the graph reachable from the chain's starting goal.
func (c *GoalChain) Restore(ctx context.Context, snap *Snapshot) error {
	if snap.Version != snapshotVersion {
		return fmt.Errorf("unsupported snapshot version %q", snap.Version)
	}
	active, ok := c.findGoal(snap.Goal)
	if !ok {
		return fmt.Errorf("snapshot goal %q not reachable from %q", snap.Goal, c.start.Label)
	}
	if err := c.histories.Restore(ctx, snap.Histories); err != nil {
		return err
	}
	c.active = active
	c.phase = snap.Phase
	if c.phase == "" {
		c.phase = types.PhaseCollecting
	}
	c.data = make(map[string]any, len(snap.Data))
	for k, v := range snap.Data {
		c.data[k] = v
	}
	c.feedback = nil
	return nil
}

// findGoal walks the graph from the starting goal over connections and
// action routes.
func (c *GoalChain) findGoal(label string) (*goal.Goal, bool) {
	visited := make(map[*goal.Goal]struct{})
	queue := []*goal.Goal{c.start}
	for len(queue) > 0 {
		g := queue[0]
		queue = queue[1:]
		if _, seen := visited[g]; seen {
			continue
		}
		visited[g] = struct{}{}
		if g.Label == label {
			return g, true
		}
		for _, conn := range g.Connections() {
			queue = append(queue, conn.Target)
		}
		if act := g.Action(); act != nil {
			queue = append(queue, act.ReachableGoals()...)
		}
	}
	return nil, false
}
