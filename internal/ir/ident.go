// Package ir implements the tree-style intermediate representation produced
// by the MiniJava translator: temporaries, memory operations, labels and
// calls, plus the canonicalization and tracing passes that turn it into the
// linear form the x86 muncher expects.
package ir

import (
	"strconv"
	"sync/atomic"
)

// Ident is a process-unique handle for a temporary or virtual register.
// Equality is identity; two Idents are equal iff they were produced by the
// same call to NewIdent.
type Ident struct {
	id uint64
}

var identCounter uint64

// NewIdent mints a fresh, globally unique Ident. The counter is process-wide:
// uniqueness only needs to hold within a single compilation run.
func NewIdent() Ident {
	return Ident{id: atomic.AddUint64(&identCounter, 1)}
}

// Num returns the Ident's underlying counter value. Used by the x86 muncher
// to map an Ident onto a virtual register number (Ident i -> register i+8).
func (id Ident) Num() uint64 {
	return id.id
}

func (id Ident) String() string {
	return "t" + strconv.FormatUint(id.id, 10)
}
