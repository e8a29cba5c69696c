package snmp

import (
	"context"
	"strings"
	"testing"

	"cadbridge"
)

type staticSource struct {
	tree *Tree
}

func (s staticSource) Tree(context.Context) *Tree { return s.tree }

func singleRowTree() *Tree {
	return BuildTree([]Row{{
		Index: 1,
		Metric: cadbridge.DerivedMetric{
			Name:        "web",
			State:       cadbridge.StateRunning,
			CPUPercent:  2.5,
			MemoryUsed:  1024,
			MemoryLimit: 2048,
			Restarts:    3,
		},
	}})
}

// transcript runs a full session: feed the input, wait for EOF, return the
// response lines.
func transcript(t *testing.T, tree *Tree, input string) []string {
	t.Helper()

	var out strings.Builder
	srv := NewServer(staticSource{tree: tree}, strings.NewReader(input), &out)
	if err := srv.Serve(context.Background()); err != nil {
		t.Fatalf("serve: %v", err)
	}

	got := strings.Split(strings.TrimRight(out.String(), "\n"), "\n")
	if len(got) == 1 && got[0] == "" {
		return nil
	}
	return got
}

func TestServerPing(t *testing.T) {
	got := transcript(t, singleRowTree(), "PING\n")
	if len(got) != 1 || got[0] != "PONG" {
		t.Fatalf("ping response: got %q, want [PONG]", got)
	}
}

func TestServerGetHit(t *testing.T) {
	base := Root.String()
	got := transcript(t, singleRowTree(), "get\n."+base+".1.1\n")
	want := []string{base + ".1.1", "string", "web"}
	if len(got) != len(want) {
		t.Fatalf("get response: got %q, want %q", got, want)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Fatalf("get response line %d: got %q, want %q", i, got[i], want[i])
		}
	}
}

func TestServerGetMiss(t *testing.T) {
	got := transcript(t, singleRowTree(), "get\n."+Root.String()+".9.9\n")
	if len(got) != 1 || got[0] != "NONE" {
		t.Fatalf("miss response: got %q, want [NONE]", got)
	}
}

func TestServerGetInlineArgument(t *testing.T) {
	base := Root.String()
	got := transcript(t, singleRowTree(), "get ."+base+".1.3\n")
	want := []string{base + ".1.3", "integer", "250"}
	for i := range want {
		if got[i] != want[i] {
			t.Fatalf("inline get line %d: got %q, want %q", i, got[i], want[i])
		}
	}
}

func TestServerGetnextWalk(t *testing.T) {
	base := Root.String()
	input := "getnext\n." + base + "\n" +
		"getnext\n." + base + ".1.1\n" +
		"getnext\n." + base + ".1.6\n"
	got := transcript(t, singleRowTree(), input)

	want := []string{
		base + ".1.1", "string", "web",
		base + ".1.2", "integer", "1",
		"NONE",
	}
	if len(got) != len(want) {
		t.Fatalf("walk transcript: got %d lines, want %d: %q", len(got), len(want), got)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Fatalf("walk line %d: got %q, want %q", i, got[i], want[i])
		}
	}
}

func TestServerGetbulk(t *testing.T) {
	base := Root.String()

	// Bare form: non-repeaters and max-repetitions on their own lines.
	got := transcript(t, singleRowTree(), "getbulk\n0\n5\n."+base+"\n")
	if len(got) != 3 || got[0] != base+".1.1" {
		t.Fatalf("getbulk response: got %q, want first node", got)
	}

	// Inline form.
	got = transcript(t, singleRowTree(), "getbulk 0 5 ."+base+".1.5\n")
	if len(got) != 3 || got[0] != base+".1.6" {
		t.Fatalf("inline getbulk response: got %q, want restarts node", got)
	}
}

func TestServerSetNotWritable(t *testing.T) {
	base := Root.String()
	got := transcript(t, singleRowTree(), "set\n."+base+".1.1\nstring hacked\nPING\n")
	want := []string{"not-writable", "PONG"}
	if len(got) != len(want) {
		t.Fatalf("set transcript: got %q, want %q", got, want)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Fatalf("set line %d: got %q, want %q", i, got[i], want[i])
		}
	}
}

func TestServerUnknownCommand(t *testing.T) {
	got := transcript(t, singleRowTree(), "reload\nPING\n")
	want := []string{"NONE", "PONG"}
	for i := range want {
		if got[i] != want[i] {
			t.Fatalf("line %d: got %q, want %q", i, got[i], want[i])
		}
	}
}

func TestServerMalformedOID(t *testing.T) {
	got := transcript(t, singleRowTree(), "get\nnot-an-oid\n")
	if len(got) != 1 || got[0] != "NONE" {
		t.Fatalf("malformed oid response: got %q, want [NONE]", got)
	}
}

func TestServerEmptyTree(t *testing.T) {
	got := transcript(t, BuildTree(nil), "getnext\n."+Root.String()+"\n")
	if len(got) != 1 || got[0] != "NONE" {
		t.Fatalf("empty tree response: got %q, want [NONE]", got)
	}
}

func TestServerContextCancel(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	// A reader that never produces input; cancellation must still return.
	srv := NewServer(staticSource{tree: BuildTree(nil)}, blockedReader{}, &strings.Builder{})
	if err := srv.Serve(ctx); err != context.Canceled {
		t.Fatalf("serve after cancel: got %v, want context.Canceled", err)
	}
}

type blockedReader struct{}

func (blockedReader) Read([]byte) (int, error) { select {} }
