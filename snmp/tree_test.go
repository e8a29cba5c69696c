package snmp

import (
	"testing"

	"cadbridge"
)

func testRows() []Row {
	return []Row{
		{Index: 2, Metric: cadbridge.DerivedMetric{
			Name:        "db",
			State:       cadbridge.StateRunning,
			CPUPercent:  12.34,
			MemoryUsed:  2048,
			MemoryLimit: 4096,
			Restarts:    1,
		}},
		{Index: 1, Metric: cadbridge.DerivedMetric{
			Name:       "web",
			State:      cadbridge.StateStopped,
			MemoryUsed: 1024,
		}},
	}
}

func TestBuildTreeOrdersIndexOuterFieldInner(t *testing.T) {
	tree := BuildTree(testRows())

	if got, want := tree.Len(), 12; got != want {
		t.Fatalf("tree size: got %d, want %d", got, want)
	}

	// Walk from the root and record every visited OID.
	var walked []string
	oid := Root
	for {
		node, ok := tree.Next(oid)
		if !ok {
			break
		}
		walked = append(walked, node.OID.String())
		oid = node.OID
	}

	if len(walked) != tree.Len() {
		t.Fatalf("walk visited %d nodes, want %d", len(walked), tree.Len())
	}

	base := Root.String()
	want := []string{
		base + ".1.1", base + ".1.2", base + ".1.3", base + ".1.4", base + ".1.5", base + ".1.6",
		base + ".2.1", base + ".2.2", base + ".2.3", base + ".2.4", base + ".2.5", base + ".2.6",
	}
	for i := range want {
		if walked[i] != want[i] {
			t.Fatalf("walk position %d: got %s, want %s", i, walked[i], want[i])
		}
	}
}

func TestTreeGet(t *testing.T) {
	tree := BuildTree(testRows())

	node, ok := tree.Get(Root.Child(1, 1))
	if !ok {
		t.Fatal("expected name node for index 1")
	}
	if node.Type != TypeString || node.Value != "web" {
		t.Fatalf("name node: got (%s, %s), want (string, web)", node.Type, node.Value)
	}

	node, ok = tree.Get(Root.Child(2, 3))
	if !ok {
		t.Fatal("expected cpu node for index 2")
	}
	if node.Type != TypeInteger || node.Value != "1234" {
		t.Fatalf("cpu node: got (%s, %s), want (integer, 1234)", node.Type, node.Value)
	}

	if _, ok := tree.Get(Root.Child(3, 1)); ok {
		t.Fatal("index 3 does not exist")
	}
	if _, ok := tree.Get(Root); ok {
		t.Fatal("the root itself is not addressable")
	}
}

func TestTreeNextFromRootAndPastEnd(t *testing.T) {
	tree := BuildTree(testRows())

	node, ok := tree.Next(Root)
	if !ok {
		t.Fatal("next from root should yield the first node")
	}
	if got, want := node.OID.String(), Root.String()+".1.1"; got != want {
		t.Fatalf("first node: got %s, want %s", got, want)
	}

	if _, ok := tree.Next(Root.Child(2, 6)); ok {
		t.Fatal("next past the last node should signal end of tree")
	}
	if _, ok := tree.Next(Root.Child(99)); ok {
		t.Fatal("next beyond the sub-tree should signal end of tree")
	}
}

func TestEmptyTree(t *testing.T) {
	tree := BuildTree(nil)

	if tree.Len() != 0 {
		t.Fatalf("empty tree size: got %d, want 0", tree.Len())
	}
	if _, ok := tree.Next(Root); ok {
		t.Fatal("empty tree has no next node")
	}
}

func TestTreeCounterValues(t *testing.T) {
	tree := BuildTree(testRows())

	node, _ := tree.Get(Root.Child(2, 4))
	if node.Type != TypeCounter64 || node.Value != "2048" {
		t.Fatalf("memory used node: got (%s, %s), want (counter64, 2048)", node.Type, node.Value)
	}
	node, _ = tree.Get(Root.Child(2, 6))
	if node.Type != TypeCounter32 || node.Value != "1" {
		t.Fatalf("restarts node: got (%s, %s), want (counter32, 1)", node.Type, node.Value)
	}
	node, _ = tree.Get(Root.Child(1, 2))
	if node.Type != TypeInteger || node.Value != "2" {
		t.Fatalf("state node: got (%s, %s), want (integer, 2)", node.Type, node.Value)
	}
}
