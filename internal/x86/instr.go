package x86

import (
	"minijavac/internal/ir"
	"minijavac/internal/platform"
)

// UnaryOp enumerates one-operand x86 instructions this backend emits.
type UnaryOp int

const (
	PUSH UnaryOp = iota
	POP
	NEG
	NOT
	INC
	DEC
	IDIV
)

var unaryNames = map[UnaryOp]string{
	PUSH: "push", POP: "pop", NEG: "neg", NOT: "not", INC: "inc", DEC: "dec", IDIV: "idiv",
}

func (o UnaryOp) String() string { return unaryNames[o] }

// BinaryOp enumerates two-operand x86 instructions this backend emits.
type BinaryOp int

const (
	MOV BinaryOp = iota
	ADD
	SUB
	SHL
	SHR
	SAL
	SAR
	AND
	OR
	XOR
	TEST
	CMP
	LEA
	IMUL
)

var binaryNames = map[BinaryOp]string{
	MOV: "mov", ADD: "add", SUB: "sub", SHL: "shl", SHR: "shr", SAL: "sal", SAR: "sar",
	AND: "and", OR: "or", XOR: "xor", TEST: "test", CMP: "cmp", LEA: "lea", IMUL: "imul",
}

func (o BinaryOp) String() string { return binaryNames[o] }

// JumpCond enumerates the conditional-jump suffixes used by J.
type JumpCond int

const (
	CondE JumpCond = iota
	CondNE
	CondL
	CondLE
	CondG
	CondGE
)

var jumpCondNames = map[JumpCond]string{
	CondE: "e", CondNE: "ne", CondL: "l", CondLE: "le", CondG: "g", CondGE: "ge",
}

func (c JumpCond) String() string { return jumpCondNames[c] }

// relOpToCond maps an ir.RelOp onto the x86 conditional-jump suffix that
// tests "left <op> right" after a CMP left, right.
func relOpToCond(op ir.RelOp) JumpCond {
	switch op {
	case ir.EQ:
		return CondE
	case ir.NE:
		return CondNE
	case ir.LT:
		return CondL
	case ir.GT:
		return CondG
	case ir.LE:
		return CondLE
	case ir.GE:
		return CondGE
	default:
		panic("x86: relation not supported")
	}
}

// Scale is an x86 effective-address index scale.
type Scale int

const (
	Scale1 Scale = 1
	Scale2 Scale = 2
	Scale4 Scale = 4
	Scale8 Scale = 8
)

// ScaleOf validates an integer as a legal x86 scale.
func ScaleOf(n int32) (Scale, bool) {
	switch n {
	case 1, 2, 4, 8:
		return Scale(n), true
	default:
		return 0, false
	}
}

// IndexScale pairs an index register with its scale.
type IndexScale struct {
	Index Register
	Scale Scale
}

// EffectiveAddress is an x86 address computation base + index*scale + disp.
type EffectiveAddress struct {
	Base         *Register
	IndexScale   *IndexScale
	Displacement int32
}

func (ea *EffectiveAddress) addUses(uses []Register) []Register {
	if ea.Base != nil {
		uses = append(uses, *ea.Base)
	}
	if ea.IndexScale != nil {
		uses = append(uses, ea.IndexScale.Index)
	}
	return uses
}

func (ea *EffectiveAddress) rename(sigma func(Register) Register) {
	if ea.Base != nil {
		b := sigma(*ea.Base)
		ea.Base = &b
	}
	if ea.IndexScale != nil {
		i := sigma(ea.IndexScale.Index)
		ea.IndexScale = &IndexScale{Index: i, Scale: ea.IndexScale.Scale}
	}
}

// OperandKind discriminates Operand's variants.
type OperandKind int

const (
	OperandImm OperandKind = iota
	OperandReg
	OperandMem
	OperandFrameSize // resolved to the function's byte frame size at emission
)

// Operand is an x86 instruction operand.
type Operand struct {
	Kind OperandKind
	Imm  int32
	Reg  Register
	Mem  EffectiveAddress
}

func Imm(n int32) Operand   { return Operand{Kind: OperandImm, Imm: n} }
func Reg(r Register) Operand { return Operand{Kind: OperandReg, Reg: r} }
func Mem(ea EffectiveAddress) Operand { return Operand{Kind: OperandMem, Mem: ea} }

var FrameSize = Operand{Kind: OperandFrameSize}

func (o Operand) addUses(uses []Register) []Register {
	switch o.Kind {
	case OperandReg:
		return append(uses, o.Reg)
	case OperandMem:
		return o.Mem.addUses(uses)
	default:
		return uses
	}
}

func (o *Operand) rename(sigma func(Register) Register) {
	switch o.Kind {
	case OperandReg:
		o.Reg = sigma(o.Reg)
	case OperandMem:
		o.Mem.rename(sigma)
	}
}

// IsReg reports whether this operand is a bare register, returning it.
func (o Operand) IsReg() (Register, bool) {
	if o.Kind == OperandReg {
		return o.Reg, true
	}
	return Register{}, false
}

// InstrKind discriminates Instruction's variants.
type InstrKind int

const (
	KindUnary InstrKind = iota
	KindBinary
	KindLabel
	KindJMP
	KindCALL
	KindJ
	KindRET
)

// Instruction is a single x86 machine instruction with infinite virtual
// registers, as produced by the muncher (spec.md §3.3).
type Instruction struct {
	Kind InstrKind

	UnaryOp  UnaryOp
	BinaryOp BinaryOp
	Src, Dst Operand // for Unary, Src only is used; for Binary, Dst/Src both used

	Label Label
	Cond  JumpCond
}

// Label aliases ir.Label: x86 jump targets are the same Labels the tree IR
// uses, unified by the muncher.
type Label = ir.Label

func Unary(op UnaryOp, o Operand) *Instruction {
	return &Instruction{Kind: KindUnary, UnaryOp: op, Src: o}
}

func Binary(op BinaryOp, dst, src Operand) *Instruction {
	return &Instruction{Kind: KindBinary, BinaryOp: op, Dst: dst, Src: src}
}

func LabelInstr(l Label) *Instruction { return &Instruction{Kind: KindLabel, Label: l} }
func JMP(l Label) *Instruction        { return &Instruction{Kind: KindJMP, Label: l} }
func CALL(l Label) *Instruction       { return &Instruction{Kind: KindCALL, Label: l} }
func J(cond JumpCond, l Label) *Instruction {
	return &Instruction{Kind: KindJ, Cond: cond, Label: l}
}

var RET = &Instruction{Kind: KindRET}

// Uses implements platform.Instr.
func (i *Instruction) Uses() []platform.Reg {
	var uses []Register
	switch i.Kind {
	case KindUnary:
		switch i.UnaryOp {
		case POP:
			// no uses
		case IDIV:
			uses = i.Src.addUses(uses)
			uses = append(uses, EAX, EDX)
		default:
			uses = i.Src.addUses(uses)
		}
	case KindBinary:
		switch i.BinaryOp {
		case XOR:
			if dr, ok := i.Dst.IsReg(); ok {
				if sr, ok := i.Src.IsReg(); ok && sr != dr {
					uses = append(uses, sr)
				}
			} else {
				uses = i.Dst.addUses(uses)
				uses = i.Src.addUses(uses)
			}
		case MOV, LEA:
			if _, ok := i.Dst.IsReg(); ok {
				uses = i.Src.addUses(uses)
			} else {
				uses = i.Dst.addUses(uses)
				uses = i.Src.addUses(uses)
			}
		default:
			uses = i.Dst.addUses(uses)
			uses = i.Src.addUses(uses)
		}
	case KindRET:
		uses = append(uses, CalleeSave...)
		uses = append(uses, EAX)
	}
	uses = dedupRegisters(uses)
	out := make([]platform.Reg, len(uses))
	for i, r := range uses {
		out[i] = r
	}
	return out
}

// Defs implements platform.Instr.
func (i *Instruction) Defs() []platform.Reg {
	var defs []Register
	switch i.Kind {
	case KindUnary:
		switch i.UnaryOp {
		case PUSH:
			// no defs
		case IDIV:
			defs = append(defs, EAX, EDX)
		default:
			if r, ok := i.Src.IsReg(); ok {
				defs = append(defs, r)
			}
		}
	case KindBinary:
		switch i.BinaryOp {
		case CMP, TEST:
			// no defs
		default:
			if r, ok := i.Dst.IsReg(); ok {
				defs = append(defs, r)
			}
		}
	case KindCALL:
		defs = append(defs, CallerSave...)
		defs = append(defs, EAX)
	}
	out := make([]platform.Reg, len(defs))
	for i, r := range defs {
		out[i] = r
	}
	return out
}

// IsFallThrough implements platform.Instr.
func (i *Instruction) IsFallThrough() bool {
	return i.Kind != KindJMP && i.Kind != KindRET
}

// Jumps implements platform.Instr.
func (i *Instruction) Jumps() []ir.Label {
	switch i.Kind {
	case KindJ, KindJMP:
		return []ir.Label{i.Label}
	default:
		return nil
	}
}

// IsMoveBetweenTemps implements platform.Instr.
func (i *Instruction) IsMoveBetweenTemps() (platform.Reg, platform.Reg, bool) {
	if i.Kind == KindBinary && i.BinaryOp == MOV {
		if d, ok := i.Dst.IsReg(); ok {
			if s, ok := i.Src.IsReg(); ok {
				return d, s, true
			}
		}
	}
	return nil, nil, false
}

// IsLabel implements platform.Instr.
func (i *Instruction) IsLabel() (ir.Label, bool) {
	if i.Kind == KindLabel {
		return i.Label, true
	}
	return ir.Label{}, false
}

// Rename implements platform.Instr.
func (i *Instruction) Rename(sigma func(platform.Reg) platform.Reg) {
	wrap := func(r Register) Register {
		out := sigma(r)
		return out.(Register)
	}
	switch i.Kind {
	case KindUnary:
		i.Src.rename(wrap)
	case KindBinary:
		i.Dst.rename(wrap)
		i.Src.rename(wrap)
	}
}

func dedupRegisters(rs []Register) []Register {
	seen := make(map[Register]bool, len(rs))
	out := rs[:0]
	for _, r := range rs {
		if !seen[r] {
			seen[r] = true
			out = append(out, r)
		}
	}
	return out
}
