package snmp

import (
	"sort"
	"strconv"

	"cadbridge"
)

// Root is the managed sub-tree, under a private-enterprise arc. Each
// container occupies <Root>.<index>.<field>.
var Root = OID{1, 3, 6, 1, 4, 1, 424242, 2, 1}

// Per-container field arcs, walked in ascending order within each index.
const (
	fieldName        = 1 // string
	fieldState       = 2 // integer, State.Code()
	fieldCPU         = 3 // integer, hundredths of a percent
	fieldMemoryUsed  = 4 // counter64, bytes
	fieldMemoryLimit = 5 // counter64, bytes
	fieldRestarts    = 6 // counter32
)

// Value types as pass_persist spells them.
const (
	TypeString    = "string"
	TypeInteger   = "integer"
	TypeCounter32 = "counter32"
	TypeCounter64 = "counter64"
)

// Row is one container's place in the sub-tree.
type Row struct {
	Index  int
	Metric cadbridge.DerivedMetric
}

// Node is one addressable value.
type Node struct {
	OID   OID
	Type  string
	Value string
}

// Tree is an immutable, ordered snapshot of the managed sub-tree. Rendered
// once per poll and shared by reference; never mutated after construction.
type Tree struct {
	nodes []Node
}

// BuildTree renders rows into an ordered tree: container index outer, field
// inner, both ascending.
func BuildTree(rows []Row) *Tree {
	sorted := make([]Row, len(rows))
	copy(sorted, rows)
	sort.Slice(sorted, func(i, j int) bool { return sorted[i].Index < sorted[j].Index })

	nodes := make([]Node, 0, len(sorted)*6)
	for _, row := range sorted {
		base := Root.Child(row.Index)
		m := row.Metric
		nodes = append(nodes,
			Node{OID: base.Child(fieldName), Type: TypeString, Value: m.Name},
			Node{OID: base.Child(fieldState), Type: TypeInteger, Value: strconv.Itoa(m.State.Code())},
			Node{OID: base.Child(fieldCPU), Type: TypeInteger, Value: strconv.Itoa(m.CPUHundredths())},
			Node{OID: base.Child(fieldMemoryUsed), Type: TypeCounter64, Value: strconv.FormatUint(m.MemoryUsed, 10)},
			Node{OID: base.Child(fieldMemoryLimit), Type: TypeCounter64, Value: strconv.FormatUint(m.MemoryLimit, 10)},
			Node{OID: base.Child(fieldRestarts), Type: TypeCounter32, Value: strconv.Itoa(m.Restarts)},
		)
	}
	return &Tree{nodes: nodes}
}

// Len reports the number of addressable values.
func (t *Tree) Len() int { return len(t.nodes) }

// Get returns the node at exactly the given OID.
func (t *Tree) Get(oid OID) (Node, bool) {
	i := sort.Search(len(t.nodes), func(i int) bool {
		return t.nodes[i].OID.Compare(oid) >= 0
	})
	if i < len(t.nodes) && t.nodes[i].OID.Compare(oid) == 0 {
		return t.nodes[i], true
	}
	return Node{}, false
}

// Next returns the first node whose OID is strictly greater than the given
// one. The second return is false at end of tree. A requested OID at or
// below Root naturally yields the first node.
func (t *Tree) Next(oid OID) (Node, bool) {
	i := sort.Search(len(t.nodes), func(i int) bool {
		return t.nodes[i].OID.Compare(oid) > 0
	})
	if i < len(t.nodes) {
		return t.nodes[i], true
	}
	return Node{}, false
}
