package x86

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/require"

	"minijavac/internal/ir"
	"minijavac/internal/regalloc"
)

// TestMunchMoveConstZeroUsesXor checks the XOR-zeroing peephole (spec.md
// §4.6): moving the literal 0 into a register should prefer xor reg, reg
// over mov reg, 0.
func TestMunchMoveConstZeroUsesXor(t *testing.T) {
	x := ir.NewIdent()
	fn := ir.Function{
		Name: ir.NamedLabel("Lzero"),
		Body: []ir.Stm{
			ir.Move{Dst: ir.Temp{Ident: x}, Src: ir.Const{Value: 0}},
		},
		Ret: x,
	}

	m := NewMuncher()
	out := m.function(fn)

	found := false
	for _, instr := range out.Instrs {
		if instr.Kind == KindBinary && instr.BinaryOp == XOR {
			d, dok := instr.Dst.IsReg()
			s, sok := instr.Src.IsReg()
			if dok && sok && d == s {
				found = true
			}
		}
	}
	require.True(t, found, "munching Move(Temp, Const(0)) must emit xor reg, reg")
}

// TestEndToEndFunctionAllocatesAndEmits runs a small add-two-params
// function through munching, register allocation, and emission, then
// checks the output is syntactically sane Intel-syntax assembly with a
// balanced prologue/epilogue.
func TestEndToEndFunctionAllocatesAndEmits(t *testing.T) {
	a, b, sum := ir.NewIdent(), ir.NewIdent(), ir.NewIdent()
	fn := ir.Function{
		Name:    ir.NamedLabel("Ladd"),
		NParams: 2,
		Body: []ir.Stm{
			ir.Move{Dst: ir.Temp{Ident: a}, Src: ir.Param{Index: 0}},
			ir.Move{Dst: ir.Temp{Ident: b}, Src: ir.Param{Index: 1}},
			ir.Move{Dst: ir.Temp{Ident: sum}, Src: ir.BinExp{Op: ir.Plus, Left: ir.Temp{Ident: a}, Right: ir.Temp{Ident: b}}},
		},
		Ret: sum,
	}
	prg := ir.Prg{Functions: []ir.Function{fn}}

	x86prg := NewMuncher().Process(prg)
	regalloc.Allocate(x86prg, RegClass)

	out := x86prg.String()
	require.True(t, strings.Contains(out, "Ladd:"), "emitted assembly must label the function entry")
	require.True(t, strings.Contains(out, "push ebp"))
	require.True(t, strings.Contains(out, "pop ebp"))
	require.True(t, strings.Contains(out, "RET"))

	for _, instr := range x86prg.Funcs[0].Instrs {
		for _, u := range instr.Uses() {
			require.True(t, u.IsPhysical(), "every register must be allocated to a physical register after Allocate, found %v", u)
		}
		for _, d := range instr.Defs() {
			require.True(t, d.IsPhysical(), "every register must be allocated to a physical register after Allocate, found %v", d)
		}
	}
}
