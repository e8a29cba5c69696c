package snmp

import "testing"

func TestParseOID(t *testing.T) {
	tests := []struct {
		in      string
		want    string
		wantErr bool
	}{
		{".1.3.6.1", "1.3.6.1", false},
		{"1.3.6.1", "1.3.6.1", false},
		{"  .1.2.3  ", "1.2.3", false},
		{"", "", true},
		{".", "", true},
		{"1.x.3", "", true},
		{"1.-2.3", "", true},
	}
	for _, tt := range tests {
		oid, err := ParseOID(tt.in)
		if tt.wantErr {
			if err == nil {
				t.Errorf("ParseOID(%q): expected error, got %v", tt.in, oid)
			}
			continue
		}
		if err != nil {
			t.Errorf("ParseOID(%q): %v", tt.in, err)
			continue
		}
		if got := oid.String(); got != tt.want {
			t.Errorf("ParseOID(%q).String(): got %q, want %q", tt.in, got, tt.want)
		}
	}
}

func TestOIDCompare(t *testing.T) {
	tests := []struct {
		a, b string
		want int
	}{
		{"1.2.3", "1.2.3", 0},
		{"1.2.3", "1.2.4", -1},
		{"1.2.4", "1.2.3", 1},
		{"1.2", "1.2.1", -1}, // a prefix sorts before its extensions
		{"1.2.1", "1.2", 1},
		{"1.10", "1.9", 1}, // numeric, not lexical
	}
	for _, tt := range tests {
		a, err := ParseOID(tt.a)
		if err != nil {
			t.Fatal(err)
		}
		b, err := ParseOID(tt.b)
		if err != nil {
			t.Fatal(err)
		}
		if got := a.Compare(b); got != tt.want {
			t.Errorf("Compare(%q, %q): got %d, want %d", tt.a, tt.b, got, tt.want)
		}
	}
}

func TestOIDChildDoesNotAliasParent(t *testing.T) {
	parent := OID{1, 2}
	c1 := parent.Child(3)
	c2 := parent.Child(4)

	if c1.String() != "1.2.3" || c2.String() != "1.2.4" {
		t.Fatalf("children: got %s and %s, want 1.2.3 and 1.2.4", c1, c2)
	}
}
