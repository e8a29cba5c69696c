// Package snmp implements the bridge's managed OID sub-tree and the
// net-snmp pass_persist line protocol used to serve it.
package snmp

import (
	"fmt"
	"strconv"
	"strings"
)

// OID is a dotted-numeric object identifier.
type OID []int

// ParseOID parses a dotted OID string. A leading dot is tolerated; net-snmp
// sends absolute OIDs with one.
func ParseOID(s string) (OID, error) {
	s = strings.TrimPrefix(strings.TrimSpace(s), ".")
	if s == "" {
		return nil, fmt.Errorf("empty OID")
	}

	parts := strings.Split(s, ".")
	oid := make(OID, 0, len(parts))
	for _, p := range parts {
		n, err := strconv.Atoi(p)
		if err != nil || n < 0 {
			return nil, fmt.Errorf("invalid OID component %q", p)
		}
		oid = append(oid, n)
	}
	return oid, nil
}

// String renders the OID without a leading dot, the form pass_persist
// responses use.
func (o OID) String() string {
	var sb strings.Builder
	for i, n := range o {
		if i > 0 {
			sb.WriteByte('.')
		}
		sb.WriteString(strconv.Itoa(n))
	}
	return sb.String()
}

// Compare orders OIDs the way an SNMP walk does: component-wise numeric,
// with a strict prefix sorting before its extensions.
func (o OID) Compare(other OID) int {
	for i := 0; i < len(o) && i < len(other); i++ {
		switch {
		case o[i] < other[i]:
			return -1
		case o[i] > other[i]:
			return 1
		}
	}
	switch {
	case len(o) < len(other):
		return -1
	case len(o) > len(other):
		return 1
	}
	return 0
}

// Child returns a new OID extended by the given components.
func (o OID) Child(components ...int) OID {
	child := make(OID, 0, len(o)+len(components))
	child = append(child, o...)
	return append(child, components...)
}
