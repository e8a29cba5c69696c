package daemon

import (
	"context"
	"sync"

	"cadbridge/bridge"
	"cadbridge/snmp"
)

// TreeSource adapts the engine to the pass_persist server. The rendered
// tree is cached per snapshot, so the dozens of getnext calls in one SNMP
// walk render it once.
type TreeSource struct {
	engine *bridge.Engine

	mu       sync.Mutex
	lastSnap *bridge.Snapshot
	lastTree *snmp.Tree
}

func NewTreeSource(engine *bridge.Engine) *TreeSource {
	return &TreeSource{engine: engine}
}

// Tree returns the sub-tree for the current snapshot, polling through the
// engine's cache policy. A degraded snapshot yields an empty tree: every
// OID answers "no such object" until upstream recovers.
func (t *TreeSource) Tree(ctx context.Context) *snmp.Tree {
	snap := t.engine.Snapshot(ctx)

	t.mu.Lock()
	defer t.mu.Unlock()

	if snap == t.lastSnap && t.lastTree != nil {
		return t.lastTree
	}

	rows := make([]snmp.Row, len(snap.Rows))
	for i, row := range snap.Rows {
		rows[i] = snmp.Row{Index: row.Index, Metric: row.Metric}
	}

	t.lastSnap = snap
	t.lastTree = snmp.BuildTree(rows)
	return t.lastTree
}
