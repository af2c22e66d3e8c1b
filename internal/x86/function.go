package x86

import (
	"fmt"

	"minijavac/internal/ir"
	"minijavac/internal/platform"
)

// Function is a munged x86 function body: an instruction list still
// addressed with virtual registers, plus the stack slots assigned to
// spilled temporaries (spec.md §4.7).
type Function struct {
	FnName  ir.Label
	NParams uint32
	Instrs  []*Instruction

	// frameWords counts 4-byte local slots reserved below the frame
	// pointer, growing by one each time Spill assigns a fresh slot.
	frameWords int
	slotOf     map[Register]int
}

// NewFunction wraps a munged instruction sequence.
func NewFunction(name ir.Label, nParams uint32, instrs []*Instruction) *Function {
	return &Function{FnName: name, NParams: nParams, Instrs: instrs, slotOf: make(map[Register]int)}
}

// Name implements platform.Function.
func (f *Function) Name() ir.Label { return f.FnName }

// Body implements platform.Function.
func (f *Function) Body() []platform.Instr {
	out := make([]platform.Instr, len(f.Instrs))
	for i, in := range f.Instrs {
		out[i] = in
	}
	return out
}

// Size reports the frame size in bytes reserved for spill slots, used to
// resolve FrameSize operands at emission time.
func (f *Function) Size() int32 { return int32(f.frameWords * WordSize)}

// WordSize is the machine word size this target's frame layout uses.
const WordSize = 4

// slotAddress builds the [ebp - offset] effective address of a spill slot.
func (f *Function) slotAddress(slot int) EffectiveAddress {
	ebp := EBP
	return EffectiveAddress{Base: &ebp, Displacement: -int32((slot + 1) * WordSize)}
}

// Spill implements platform.Function: every register in toSpill is given a
// fresh stack slot, and every instruction referencing it is rewritten to
// reload into (or store from) a scratch virtual temp immediately around its
// use, per spec.md §4.7's allocator-spill contract.
func (f *Function) Spill(toSpill []platform.Reg) {
	spillSet := make(map[Register]bool, len(toSpill))
	for _, r := range toSpill {
		reg := r.(Register)
		if _, assigned := f.slotOf[reg]; !assigned {
			f.slotOf[reg] = f.frameWords
			f.frameWords++
		}
		spillSet[reg] = true
	}
	if len(spillSet) == 0 {
		return
	}

	var out []*Instruction
	for _, instr := range f.Instrs {
		out = append(out, f.spillInstr(instr, spillSet)...)
	}
	f.Instrs = out
}

// spillInstr rewrites a single instruction, inserting reload/store pairs
// around every spilled operand it references.
//
// A MOV between two temps where it isn't the case that both sides are
// spilled collapses to a single instruction instead (spec.md §4.7): each
// side is rewritten directly to its spill-slot memory operand, or left as
// the original register if it wasn't spilled, producing one `MOV mem, reg`
// or `MOV reg, mem` rather than a load/store pair through a scratch temp.
func (f *Function) spillInstr(instr *Instruction, spillSet map[Register]bool) []*Instruction {
	if dst, src, ok := instr.IsMoveBetweenTemps(); ok {
		dstReg, srcReg := dst.(Register), src.(Register)
		if !(spillSet[dstReg] && spillSet[srcReg]) {
			return []*Instruction{Binary(MOV, f.spillOperand(dstReg, spillSet), f.spillOperand(srcReg, spillSet))}
		}
	}

	refs := collectSpilledRegs(instr, spillSet)
	if len(refs) == 0 {
		return []*Instruction{instr}
	}

	var pre, post []*Instruction
	fresh := make(map[Register]Register, len(refs))
	for _, r := range refs {
		scratch := f.freshScratch()
		fresh[r] = scratch
		addr := f.slotAddress(f.slotOf[r])
		isDef := regIn(instr.Defs(), r)
		isUse := regIn(instr.Uses(), r)
		if isUse {
			pre = append(pre, Binary(MOV, Reg(scratch), Mem(addr)))
		}
		if isDef {
			post = append(post, Binary(MOV, Mem(addr), Reg(scratch)))
		}
	}

	instr.Rename(func(r platform.Reg) platform.Reg {
		reg := r.(Register)
		if s, ok := fresh[reg]; ok {
			return s
		}
		return reg
	})

	out := make([]*Instruction, 0, len(pre)+1+len(post))
	out = append(out, pre...)
	out = append(out, instr)
	out = append(out, post...)
	return out
}

// scratchBase separates spill-reload scratch registers from Ident-derived
// virtual registers (physicalCount..scratchBase-1), so the two numbering
// spaces never collide.
const scratchBase = 1 << 30

var scratchCounter int

// freshScratch mints a new virtual register guaranteed distinct from every
// Ident-derived temp.
func (f *Function) freshScratch() Register {
	scratchCounter++
	return Register{Number: scratchBase + scratchCounter}
}

// spillOperand resolves a register to its spill-slot memory operand if it
// was spilled, or leaves it as a plain register operand otherwise.
func (f *Function) spillOperand(r Register, spillSet map[Register]bool) Operand {
	if spillSet[r] {
		return Mem(f.slotAddress(f.slotOf[r]))
	}
	return Reg(r)
}

func collectSpilledRegs(instr *Instruction, spillSet map[Register]bool) []Register {
	seen := make(map[Register]bool)
	var out []Register
	add := func(rs []platform.Reg) {
		for _, pr := range rs {
			r := pr.(Register)
			if spillSet[r] && !seen[r] {
				seen[r] = true
				out = append(out, r)
			}
		}
	}
	add(instr.Uses())
	add(instr.Defs())
	return out
}

func regIn(rs []platform.Reg, target Register) bool {
	for _, pr := range rs {
		if pr.(Register) == target {
			return true
		}
	}
	return false
}

// Rename implements platform.Function: sigma is applied across every
// instruction, and any MOV whose source and destination now coincide is
// dropped (post-coloring move coalescing).
func (f *Function) Rename(sigma func(platform.Reg) platform.Reg) {
	var out []*Instruction
	for _, instr := range f.Instrs {
		instr.Rename(sigma)
		if d, s, ok := instr.IsMoveBetweenTemps(); ok {
			if d.(Register) == s.(Register) {
				continue
			}
		}
		out = append(out, instr)
	}
	f.Instrs = out
}

func (f *Function) String() string {
	return fmt.Sprintf("%s (%d instrs)", f.FnName, len(f.Instrs))
}
