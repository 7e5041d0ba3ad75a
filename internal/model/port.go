package model

import "strings"

// PortKind is a bit set describing how a port is accessed.
type PortKind int

const (
	PortRead      PortKind = 1 << 1
	PortWrite     PortKind = 1 << 2
	PortReadWrite          = PortRead | PortWrite
)

// CanRead reports whether the port allows reads.
func (k PortKind) CanRead() bool { return k&PortRead != 0 }

// CanWrite reports whether the port allows writes.
func (k PortKind) CanWrite() bool { return k&PortWrite != 0 }

// Valid reports whether k is a non-empty combination of known flags.
func (k PortKind) Valid() bool {
	return k != 0 && k&^PortReadWrite == 0
}

func (k PortKind) String() string {
	var parts []string
	if k.CanRead() {
		parts = append(parts, "Read")
	}
	if k.CanWrite() {
		parts = append(parts, "Write")
	}
	if len(parts) == 0 {
		return "None"
	}
	return strings.Join(parts, "")
}

// Port is an access point exposed by an application or component.
type Port struct {
	ID       string   `json:"id"`
	Object   string   `json:"object,omitempty"`
	Kind     PortKind `json:"kind"`
	Protocol string   `json:"protocol,omitempty"`
}
