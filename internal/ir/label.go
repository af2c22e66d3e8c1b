package ir

import (
	"strconv"
	"sync/atomic"
)

var labelCounter uint64

// Label is either a freshly minted unique jump target or a named label
// (e.g. "Lmain", "L_halloc", "LFoo$bar"). Two named Labels with the same
// name compare equal; two anonymous Labels are never equal to each other.
type Label struct {
	name string
	anon uint64
}

// NewLabel mints a fresh anonymous internal jump target.
func NewLabel() Label {
	return Label{anon: atomic.AddUint64(&labelCounter, 1)}
}

// NamedLabel builds a Label referring to an externally meaningful name, such
// as a method entry point or a runtime collaborator like L_halloc.
func NamedLabel(name string) Label {
	return Label{name: name}
}

// Equal reports whether two Labels denote the same jump target.
func (l Label) Equal(o Label) bool {
	if l.name != "" || o.name != "" {
		return l.name == o.name
	}
	return l.anon == o.anon
}

func (l Label) String() string {
	if l.name != "" {
		return l.name
	}
	return "L" + strconv.FormatUint(l.anon, 10)
}
