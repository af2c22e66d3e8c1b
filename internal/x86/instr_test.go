package x86

import (
	"testing"

	"github.com/stretchr/testify/require"

	"minijavac/internal/ir"
	"minijavac/internal/platform"
)

func regSet(rs []Register) map[Register]bool {
	m := make(map[Register]bool, len(rs))
	for _, r := range rs {
		m[r] = true
	}
	return m
}

func TestMovRegRegUsesOnlySrc(t *testing.T) {
	i := Binary(MOV, Reg(EAX), Reg(EBX))
	uses := regSet(castRegs(i.Uses()))
	require.True(t, uses[EBX])
	require.False(t, uses[EAX], "a register-to-register mov must not report its destination as a use")

	defs := castRegs(i.Defs())
	require.Equal(t, []Register{EAX}, defs)
}

func TestMovToMemoryUsesBothSides(t *testing.T) {
	i := Binary(MOV, Mem(EffectiveAddress{Base: &EBP}), Reg(EAX))
	uses := regSet(castRegs(i.Uses()))
	require.True(t, uses[EBP], "storing to memory must count the base register as a use")
	require.True(t, uses[EAX])
	require.Empty(t, i.Defs(), "a store to memory defines no register")
}

func TestIdivImplicitUsesAndDefs(t *testing.T) {
	i := Unary(IDIV, Reg(ECX))
	uses := regSet(castRegs(i.Uses()))
	require.True(t, uses[ECX])
	require.True(t, uses[EAX], "idiv implicitly reads the dividend in EAX:EDX")
	require.True(t, uses[EDX])

	defs := regSet(castRegs(i.Defs()))
	require.True(t, defs[EAX], "idiv writes the quotient into EAX")
	require.True(t, defs[EDX], "idiv writes the remainder into EDX")
}

func TestCallDefinesCallerSaveAndEAX(t *testing.T) {
	i := CALL(ir.NamedLabel("Lf"))
	defs := regSet(castRegs(i.Defs()))
	require.True(t, defs[EAX])
	for _, r := range CallerSave {
		require.True(t, defs[r], "CALL must define every caller-save register %v", r)
	}
}

func TestRetUsesCalleeSaveAndEAX(t *testing.T) {
	uses := regSet(castRegs(RET.Uses()))
	require.True(t, uses[EAX])
	for _, r := range CalleeSave {
		require.True(t, uses[r], "RET must use every callee-save register %v", r)
	}
}

func TestMoveBetweenTempsDetection(t *testing.T) {
	mov := Binary(MOV, Reg(EAX), Reg(EBX))
	d, s, ok := mov.IsMoveBetweenTemps()
	require.True(t, ok)
	require.Equal(t, EAX, d)
	require.Equal(t, EBX, s)

	add := Binary(ADD, Reg(EAX), Reg(EBX))
	_, _, ok = add.IsMoveBetweenTemps()
	require.False(t, ok)
}

func TestRenameRewritesOperands(t *testing.T) {
	i := Binary(MOV, Reg(EAX), Reg(EBX))
	sigma := func(r Register) Register {
		if r == EBX {
			return ECX
		}
		return r
	}
	i.Rename(func(r platform.Reg) platform.Reg { return sigma(r.(Register)) })
	require.Equal(t, ECX, i.Src.Reg)
	require.Equal(t, EAX, i.Dst.Reg)
}

func castRegs(rs []platform.Reg) []Register {
	out := make([]Register, len(rs))
	for i, r := range rs {
		out[i] = r.(Register)
	}
	return out
}
