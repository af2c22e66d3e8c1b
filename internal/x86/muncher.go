package x86

import (
	"sort"

	"minijavac/internal/ir"
)

// Muncher performs tree-tiling instruction selection ("munching") over
// canonical, traced tree IR, grounded directly on the reference muncher:
// each IR node is matched against a small set of x86 tiles and lowered to
// one or more instructions over freshly-minted virtual registers
// (spec.md §3.3 and §4.6).
type Muncher struct {
	code []*Instruction
}

// NewMuncher creates a Muncher. It carries no state between functions.
func NewMuncher() *Muncher {
	return &Muncher{}
}

// Process munges a whole traced program into an x86 program.
func (m *Muncher) Process(p ir.Prg) *Prg {
	prg := &Prg{}
	for _, f := range p.Functions {
		prg.Funcs = append(prg.Funcs, m.function(f))
	}
	return prg
}

func reg(id ir.Ident) Operand { return Reg(FromIdent(id)) }

// function munges one IR function into an x86 Function, wrapping the body
// with the standard prologue/epilogue: callee-save registers are stashed in
// fresh virtual temps (not the stack) so the allocator is free to color
// them, and restored before return.
func (m *Muncher) function(f ir.Function) *Function {
	m.code = nil

	m.emit(Unary(PUSH, Reg(EBP)))
	m.emit(Binary(MOV, Reg(EBP), Reg(ESP)))
	m.emit(Binary(SUB, Reg(ESP), FrameSize))

	ebxSave, esiSave, ediSave := ir.NewIdent(), ir.NewIdent(), ir.NewIdent()
	m.emit(Binary(MOV, reg(ebxSave), Reg(EBX)))
	m.emit(Binary(MOV, reg(esiSave), Reg(ESI)))
	m.emit(Binary(MOV, reg(ediSave), Reg(EDI)))

	for _, s := range f.Body {
		m.stm(s)
	}

	m.emit(Binary(MOV, Reg(EAX), reg(f.Ret)))
	m.emit(Binary(MOV, Reg(EBX), reg(ebxSave)))
	m.emit(Binary(MOV, Reg(ESI), reg(esiSave)))
	m.emit(Binary(MOV, Reg(EDI), reg(ediSave)))
	m.emit(Binary(MOV, Reg(ESP), Reg(EBP)))
	m.emit(Unary(POP, Reg(EBP)))
	m.emit(RET)

	code := m.code
	m.code = nil
	return NewFunction(f.Name, f.NParams, code)
}

func (m *Muncher) stm(s ir.Stm) {
	switch n := s.(type) {
	case ir.Move:
		d, sOp := m.lexp(n.Dst), m.exp(n.Src)
		dReg, dIsReg := d.IsReg()
		if imm := sOp; dIsReg && imm.Kind == OperandImm && imm.Imm == 0 {
			m.emit(Binary(XOR, Reg(dReg), Reg(dReg)))
			return
		}
		if d.Kind == OperandMem && sOp.Kind == OperandMem {
			t := ir.NewIdent()
			m.emit(Binary(MOV, reg(t), sOp))
			m.emit(Binary(MOV, d, reg(t)))
			return
		}
		m.emit(Binary(MOV, d, sOp))
	case ir.Jump:
		if name, ok := n.Target.(ir.Name); ok {
			m.emit(JMP(name.Label))
			return
		}
		panic("munch: indirect jump not supported")
	case ir.CJump:
		cond := relOpToCond(n.Op)
		l, r := m.exp(n.Left), m.exp(n.Right)
		switch {
		case l.Kind == OperandImm:
			t := ir.NewIdent()
			m.emit(Binary(MOV, reg(t), l))
			m.emit(Binary(CMP, reg(t), r))
		case l.Kind == OperandMem && r.Kind == OperandMem:
			t := ir.NewIdent()
			m.emit(Binary(MOV, reg(t), l))
			m.emit(Binary(CMP, reg(t), r))
		default:
			m.emit(Binary(CMP, l, r))
		}
		m.emit(J(cond, n.True))
	case ir.Seq:
		for _, sub := range n.Stms {
			m.stm(sub)
		}
	case ir.LabelStm:
		m.emit(LabelInstr(n.Label))
	default:
		panic("munch: unhandled statement")
	}
}

// lexp munges an expression used as a Move's destination (an l-value):
// only Temp, Mem and Param are legal here, matching canonical form.
func (m *Muncher) lexp(e ir.Exp) Operand {
	switch n := e.(type) {
	case ir.Temp:
		return reg(n.Ident)
	case ir.Mem:
		return m.effectiveAddress(n.Addr)
	case ir.Param:
		return paramOperand(n.Index)
	default:
		panic("munch: unexpected lvalue")
	}
}

// paramOperand addresses positional parameter n above the frame pointer:
// return address and saved EBP occupy the first 8 bytes above EBP.
func paramOperand(n uint32) Operand {
	ebp := EBP
	return Mem(EffectiveAddress{Base: &ebp, Displacement: int32(8 + WordSize*n)})
}

// effectiveAddress munges a Mem's address subexpression, first attempting
// the linear-combination LEA fold; on failure it falls back to evaluating
// the address into a fresh register and addressing through it directly.
func (m *Muncher) effectiveAddress(e ir.Exp) Operand {
	if lc, ok := munchLinear(e); ok {
		if ea, ok := lc.intoEffectiveAddress(); ok {
			return Mem(ea)
		}
	}
	o := m.exp(e)
	r := ir.NewIdent()
	m.emit(Binary(MOV, reg(r), o))
	return Mem(EffectiveAddress{Base: ptrReg(FromIdent(r))})
}

func ptrReg(r Register) *Register { return &r }

// exp munges a value-producing expression, trying the linear-combination
// LEA fold first whenever it would fold two-or-more address terms into a
// single instruction.
func (m *Muncher) exp(e ir.Exp) Operand {
	if lc, ok := munchLinear(e); ok {
		if ea, ok := lc.intoEffectiveAddress(); ok {
			terms := 0
			if ea.Base != nil {
				terms++
			}
			if ea.IndexScale != nil {
				terms++
			}
			if ea.Displacement != 0 {
				terms++
			}
			if terms > 1 {
				t := ir.NewIdent()
				m.emit(Binary(LEA, reg(t), Mem(ea)))
				return reg(t)
			}
		}
	}

	switch n := e.(type) {
	case ir.Const:
		return Imm(n.Value)
	case ir.Name:
		panic("munch: bare Name not supported as a value")
	case ir.Temp:
		return reg(n.Ident)
	case ir.Param:
		return paramOperand(n.Index)
	case ir.Mem:
		return m.effectiveAddress(n.Addr)
	case ir.BinExp:
		return m.binExp(n)
	case ir.Call:
		return m.call(n)
	case ir.ESeq:
		panic("munch: ESeq not canonicalized")
	default:
		panic("munch: unhandled expression")
	}
}

func (m *Muncher) binExp(n ir.BinExp) Operand {
	l := m.exp(n.Left)
	r := m.exp(n.Right)
	generic := func(op BinaryOp) Operand {
		t := ir.NewIdent()
		m.emit(Binary(MOV, reg(t), l))
		m.emit(Binary(op, reg(t), r))
		return reg(t)
	}
	switch n.Op {
	case ir.Plus:
		return generic(ADD)
	case ir.Minus:
		return generic(SUB)
	case ir.Mul:
		return generic(IMUL)
	case ir.And:
		return generic(AND)
	case ir.Or:
		return generic(OR)
	case ir.LShift:
		return generic(SHL)
	case ir.RShift:
		return generic(SHR)
	case ir.ARShift:
		return generic(SAR)
	case ir.Xor:
		return generic(XOR)
	case ir.Div:
		return m.div(l, r)
	default:
		panic("munch: unhandled binop")
	}
}

// div lowers integer division, special-casing division by 2 into a
// branch-free shift-and-round sequence and otherwise using IDIV with a
// sign-extended dividend in EDX:EAX.
func (m *Muncher) div(l, r Operand) Operand {
	if r.Kind == OperandImm && r.Imm == 2 {
		t1, t2 := ir.NewIdent(), ir.NewIdent()
		m.emit(Binary(MOV, reg(t2), l))
		m.emit(Binary(MOV, reg(t1), reg(t2)))
		m.emit(Binary(SHR, reg(t1), Imm(31)))
		m.emit(Binary(ADD, reg(t2), reg(t1)))
		m.emit(Binary(SAR, reg(t2), Imm(1)))
		return reg(t2)
	}
	m.emit(Binary(MOV, Reg(EAX), l))
	m.emit(Binary(MOV, Reg(EDX), Reg(EAX)))
	m.emit(Binary(SAR, Reg(EDX), Imm(31)))
	if r.Kind == OperandImm {
		t := ir.NewIdent()
		m.emit(Binary(MOV, reg(t), r))
		m.emit(Unary(IDIV, reg(t)))
	} else {
		m.emit(Unary(IDIV, r))
	}
	s := ir.NewIdent()
	m.emit(Binary(MOV, reg(s), Reg(EAX)))
	return reg(s)
}

// call lowers a Call by pushing arguments right-to-left (cdecl-like),
// invoking the callee, capturing EAX, and popping the argument space.
func (m *Muncher) call(n ir.Call) Operand {
	name, ok := n.Fn.(ir.Name)
	if !ok {
		panic("munch: indirect call not supported")
	}
	for i := len(n.Args) - 1; i >= 0; i-- {
		o := m.exp(n.Args[i])
		m.emit(Unary(PUSH, o))
	}
	m.emit(CALL(name.Label))
	r := ir.NewIdent()
	m.emit(Binary(MOV, reg(r), Reg(EAX)))
	if len(n.Args) > 0 {
		m.emit(Binary(ADD, Reg(ESP), Imm(int32(WordSize*len(n.Args)))))
	}
	return reg(r)
}

func (m *Muncher) emit(i *Instruction) { m.code = append(m.code, i) }

// linearCombination is an affine combination of registers with integer
// coefficients, built bottom-up over Const/Temp/BinOp(+,-,*) nodes so that
// Mem addresses can be folded into a single base+index*scale+displacement
// effective address wherever the shape allows (spec.md §4.6's LEA-folding
// note).
type linearCombination struct {
	constant     int32
	coefficients map[Register]int32
	order        []Register // insertion order; intoEffectiveAddress sorts by register number to pick base/index
}

func newConstLC(n int32) *linearCombination {
	return &linearCombination{constant: n, coefficients: make(map[Register]int32)}
}

func newVarLC(r Register) *linearCombination {
	lc := &linearCombination{constant: 0, coefficients: map[Register]int32{r: 1}, order: []Register{r}}
	return lc
}

func munchLinear(e ir.Exp) (*linearCombination, bool) {
	switch n := e.(type) {
	case ir.Const:
		return newConstLC(n.Value), true
	case ir.Temp:
		return newVarLC(FromIdent(n.Ident)), true
	case ir.BinExp:
		l, ok := munchLinear(n.Left)
		if !ok {
			return nil, false
		}
		r, ok := munchLinear(n.Right)
		if !ok {
			return nil, false
		}
		switch n.Op {
		case ir.Plus:
			l.add(r)
		case ir.Mul:
			if !l.mul(r) {
				return nil, false
			}
		case ir.Minus:
			r.mul(newConstLC(-1))
			l.add(r)
		default:
			return nil, false
		}
		return l, true
	default:
		return nil, false
	}
}

func (l *linearCombination) add(o *linearCombination) {
	l.constant += o.constant
	for _, r := range o.order {
		if _, present := l.coefficients[r]; !present {
			l.order = append(l.order, r)
		}
		l.coefficients[r] += o.coefficients[r]
	}
}

// mul multiplies two linear combinations; only valid when at most one side
// carries any register coefficients (the result must stay linear).
func (l *linearCombination) mul(o *linearCombination) bool {
	if len(l.coefficients) > 0 && len(o.coefficients) > 0 {
		return false
	}
	newConstant := l.constant * o.constant
	for r := range l.coefficients {
		l.coefficients[r] *= o.constant
	}
	for _, r := range o.order {
		if _, present := l.coefficients[r]; !present {
			l.order = append(l.order, r)
			l.coefficients[r] = o.coefficients[r]
		}
		l.coefficients[r] *= l.constant
	}
	l.constant = newConstant
	return true
}

// intoEffectiveAddress converts the combination to an x86 EffectiveAddress,
// failing when more than two distinct registers appear or a coefficient is
// not a legal x86 scale. With two registers the lower-numbered one is always
// taken as the base, so the fold also fails when its coefficient is not 1.
func (l *linearCombination) intoEffectiveAddress() (EffectiveAddress, bool) {
	regs := make([]Register, len(l.order))
	copy(regs, l.order)
	sort.Slice(regs, func(i, j int) bool { return regs[i].Number < regs[j].Number })

	switch len(regs) {
	case 0:
		return EffectiveAddress{Displacement: l.constant}, true
	case 1:
		i := regs[0]
		scale, ok := ScaleOf(l.coefficients[i])
		if !ok {
			return EffectiveAddress{}, false
		}
		idx := i
		return EffectiveAddress{IndexScale: &IndexScale{Index: idx, Scale: scale}, Displacement: l.constant}, true
	case 2:
		base, index := regs[0], regs[1]
		if l.coefficients[base] != 1 {
			return EffectiveAddress{}, false
		}
		scale, ok := ScaleOf(l.coefficients[index])
		if !ok {
			return EffectiveAddress{}, false
		}
		b := base
		return EffectiveAddress{Base: &b, IndexScale: &IndexScale{Index: index, Scale: scale}, Displacement: l.constant}, true
	default:
		return EffectiveAddress{}, false
	}
}
