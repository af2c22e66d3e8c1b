// Package pipeline wires the compiler stages C1-C10 into the single
// translate/canonicalize/trace/munge/allocate/emit sequence the driver runs
// once per input file (spec.md §2 System Overview).
package pipeline

import (
	"io"

	"minijavac/internal/ast"
	"minijavac/internal/ir"
	"minijavac/internal/regalloc"
	"minijavac/internal/symbols"
	"minijavac/internal/x86"
)

// Compile runs the full back end over a checked program and writes the
// resulting assembly text to w.
func Compile(prg *ast.Prg, w io.Writer) error {
	st, err := symbols.NewTable(prg)
	if err != nil {
		return err
	}

	translated := ir.NewTranslator(st).Process(prg)
	canonical := ir.NewCanonizer().Process(translated)
	traced := ir.NewTracer().Process(canonical)

	x86prg := x86.NewMuncher().Process(traced)
	regalloc.Allocate(x86prg, x86.RegClass)

	return x86prg.Emit(w)
}
