// Package relay contains the relay orchestration engine: device matching,
// the relay gate, per-device relay loops, the shortcut toggler, and the
// controller supervising all of them.
package relay

import (
	"fmt"
	"regexp"
	"strings"
)

// IdentifierKind classifies what a configured identifier string refers to.
type IdentifierKind int

const (
	IdentifierPath IdentifierKind = iota
	IdentifierMAC
	IdentifierName
)

func (k IdentifierKind) String() string {
	switch k {
	case IdentifierPath:
		return "path"
	case IdentifierMAC:
		return "MAC"
	case IdentifierName:
		return "name"
	}
	return "unknown"
}

var (
	pathRegex = regexp.MustCompile(`^/dev/input/event.*$`)
	macRegex  = regexp.MustCompile(`^([0-9a-fA-F]{2}[:-]){5}([0-9a-fA-F]{2})$`)
)

// Identifier matches an input device by path (/dev/input/eventX), MAC
// address (colon- or dash-delimited), or case-insensitive name substring.
// Classification happens once at construction and is total: anything that is
// neither a path nor a MAC is a name fragment.
type Identifier struct {
	value      string
	kind       IdentifierKind
	normalized string
}

// NewIdentifier classifies the raw configuration string.
func NewIdentifier(value string) Identifier {
	id := Identifier{value: value}
	switch {
	case pathRegex.MatchString(value):
		id.kind = IdentifierPath
		id.normalized = value
	case macRegex.MatchString(value):
		id.kind = IdentifierMAC
		id.normalized = strings.ReplaceAll(strings.ToLower(value), "-", ":")
	default:
		id.kind = IdentifierName
		id.normalized = strings.ToLower(value)
	}
	return id
}

// Value returns the raw configuration string.
func (id Identifier) Value() string { return id.value }

// Kind returns the identifier classification.
func (id Identifier) Kind() IdentifierKind { return id.kind }

// Normalized returns the canonical comparison form.
func (id Identifier) Normalized() string { return id.normalized }

func (id Identifier) String() string {
	return fmt.Sprintf("%s %q", id.kind, id.value)
}

// Matches reports whether the identifier matches the device: exact path
// equality, case-insensitive MAC equality against the device's unique id, or
// substring match against the device name.
func (id Identifier) Matches(dev InputDevice) bool {
	switch id.kind {
	case IdentifierPath:
		return id.value == dev.Path()
	case IdentifierMAC:
		return id.normalized == strings.ReplaceAll(strings.ToLower(dev.UniqueID()), "-", ":")
	default:
		return strings.Contains(strings.ToLower(dev.Name()), id.normalized)
	}
}
