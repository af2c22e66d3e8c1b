package ir

import (
	"fmt"

	"minijavac/internal/ast"
	"minijavac/internal/symbols"
)

// WordSize is the target machine's word size in bytes. The only target this
// module implements is 32-bit x86 (spec.md §1 Non-goals), so this is a
// constant rather than threaded through a Platform type parameter.
const WordSize = 4

// Translator lowers a checked MiniJava AST into unrestricted tree IR. It is
// a stateful visitor: current class/method info plus a fresh-name counter,
// mirroring the teacher's single-pass, switch-driven interpreters.
type Translator struct {
	symbols *symbols.Table

	currentClass  *symbols.ClassInfo
	currentMethod *symbols.MethodInfo

	names *NamingContext
}

// NewTranslator creates a Translator bound to a checked program's symbol
// table.
func NewTranslator(st *symbols.Table) *Translator {
	return &Translator{symbols: st}
}

func methodName(className, method string) string {
	return fmt.Sprintf("L%s$%s", className, method)
}

func (tr *Translator) raiseBlockName() Label {
	return NamedLabel(fmt.Sprintf("L%s$%s$raise", tr.currentClass.Name, tr.currentMethod.Name))
}

func (tr *Translator) newClass(className string) Exp {
	alloc := NamedLabel("L_halloc")
	ci, ok := tr.symbols.Class(className)
	if !ok {
		panic("internal: unknown class " + className)
	}
	size := 1 + ci.Fields.Len()
	return Call{Fn: Name{Label: alloc}, Args: []Exp{Const{Value: int32(size * WordSize)}}}
}

func (tr *Translator) newArray(elemCount Exp) Exp {
	alloc := NamedLabel("L_halloc")
	lenT := NewIdent()
	baseT := NewIdent()
	len1 := BinExp{Op: Plus, Left: Temp{Ident: lenT}, Right: Const{Value: 1}}
	size := BinExp{Op: Mul, Left: len1, Right: Const{Value: WordSize}}
	return ESeq{
		Stms: []Stm{
			Move{Dst: Temp{Ident: lenT}, Src: elemCount},
			Move{Dst: Temp{Ident: baseT}, Src: Call{Fn: Name{Label: alloc}, Args: []Exp{size}}},
			Move{Dst: Mem{Addr: Temp{Ident: baseT}}, Src: Temp{Ident: lenT}},
		},
		Value: Temp{Ident: baseT},
	}
}

func (tr *Translator) thisAddress() Exp {
	return Param{Index: 0}
}

func (tr *Translator) paramIndex(name string) uint32 {
	i, ok := tr.currentMethod.Parameters.Position(name)
	if !ok {
		panic("internal: parameter " + name + " not found")
	}
	return uint32(i) + 1
}

func (tr *Translator) fieldAddress(receiver Exp, field string) Exp {
	i, ok := tr.currentClass.Fields.Position(field)
	if !ok {
		panic("internal: field " + field + " not found")
	}
	pos := int32(i+1) * WordSize
	return BinExp{Op: Plus, Left: receiver, Right: Const{Value: pos}}
}

func (tr *Translator) arrayAddr(base, index Exp) Exp {
	return BinExp{Op: Plus, Left: base,
		Right: BinExp{Op: Mul, Left: BinExp{Op: Plus, Left: index, Right: Const{Value: 1}}, Right: Const{Value: WordSize}}}
}

func (tr *Translator) arrayAddrConst(base Exp, index uint32) Exp {
	return BinExp{Op: Plus, Left: base, Right: Const{Value: int32((index + 1) * WordSize)}}
}

func (tr *Translator) arrayLength(base Exp) Exp {
	return Mem{Addr: base}
}

// arrayDeref emits the bounds-check code for one array dereference,
// returning the statements to run before reading/writing the element, and
// the element's address expression itself.
func (tr *Translator) arrayDeref(base, index Exp, raise Label) ([]Stm, Exp) {
	ok := NewLabel()
	if c, isConst := index.(Const); isConst {
		if c.Value < 0 {
			return []Stm{Jump{Target: Name{Label: raise}, Dests: []Label{raise}}}, Temp{Ident: NewIdent()}
		}
		ta := NewIdent()
		stms := []Stm{
			Move{Dst: Temp{Ident: ta}, Src: base},
			CJump{Op: GE, Left: Const{Value: c.Value}, Right: tr.arrayLength(Temp{Ident: ta}), True: raise, False: ok},
			LabelStm{Label: ok},
		}
		return stms, Mem{Addr: tr.arrayAddrConst(Temp{Ident: ta}, uint32(c.Value))}
	}

	ta, ti := NewIdent(), NewIdent()
	checkLower := NewLabel()
	stms := []Stm{
		Move{Dst: Temp{Ident: ta}, Src: base},
		Move{Dst: Temp{Ident: ti}, Src: index},
		CJump{Op: GE, Left: Temp{Ident: ti}, Right: tr.arrayLength(Temp{Ident: ta}), True: raise, False: checkLower},
		LabelStm{Label: checkLower},
		CJump{Op: LT, Left: Temp{Ident: ti}, Right: Const{Value: 0}, True: raise, False: ok},
		LabelStm{Label: ok},
	}
	return stms, Mem{Addr: tr.arrayAddr(Temp{Ident: ta}, Temp{Ident: ti})}
}

func (tr *Translator) arrayGet(base, index Exp) Exp {
	raise := tr.raiseBlockName()
	stms, val := tr.arrayDeref(base, index, raise)
	return ESeq{Stms: stms, Value: val}
}

func (tr *Translator) arrayPut(base, index, value Exp) Stm {
	raise := tr.raiseBlockName()
	stms, addr := tr.arrayDeref(base, index, raise)
	stms = append(stms, Move{Dst: addr, Src: value})
	return Seq{Stms: stms}
}

// appendRaiseBlock wraps a method body with the trailing per-method
// "raise" block invoked on array-bounds violation. It never returns, so the
// Move that targets it exists only to keep the IR well-typed (spec.md §9).
func (tr *Translator) appendRaiseBlock(body Stm) Stm {
	raise := tr.raiseBlockName()
	raiseFn := NamedLabel("L_raise")
	end := NewLabel()
	return Seq{Stms: []Stm{
		body,
		Jump{Target: Name{Label: end}, Dests: []Label{end}},
		LabelStm{Label: raise},
		Move{Dst: Temp{Ident: NewIdent()}, Src: Call{Fn: Name{Label: raiseFn}, Args: []Exp{Const{Value: -1}}}},
		LabelStm{Label: end},
	}}
}

func (tr *Translator) varLexp(name string) Exp {
	if _, ok := tr.currentMethod.Locals.Get(name); ok {
		return Temp{Ident: tr.names.IdentOfName(name)}
	}
	if _, ok := tr.currentMethod.Parameters.Get(name); ok {
		return Param{Index: tr.paramIndex(name)}
	}
	if _, ok := tr.currentClass.Fields.Get(name); ok {
		return Mem{Addr: tr.fieldAddress(tr.thisAddress(), name)}
	}
	panic("internal: variable " + name + " not defined")
}

func binOpOf(o ast.Binop) (BinOp, bool) {
	switch o {
	case ast.Add:
		return Plus, true
	case ast.Sub:
		return Minus, true
	case ast.Mul:
		return Mul, true
	case ast.Div:
		return Div, true
	default:
		return 0, false
	}
}

// cond lowers a boolean-valued AST expression to conditional code: control
// jumps to lt if the expression is true, else to lf. Short-circuit && and <
// are compiled this way rather than through arithmetic.
func (tr *Translator) cond(e ast.Exp, lt, lf Label) Stm {
	switch n := e.(type) {
	case *ast.OpExp:
		switch n.Op {
		case ast.StrictAnd:
			li := NewLabel()
			t1 := tr.cond(n.Left, li, lf)
			t2 := tr.cond(n.Right, lt, lf)
			return Seq{Stms: []Stm{t1, LabelStm{Label: li}, t2}}
		case ast.Lt:
			l := tr.exp(n.Left)
			r := tr.exp(n.Right)
			return CJump{Op: GE, Left: l, Right: r, True: lf, False: lt}
		default:
			t1 := tr.exp(e)
			return CJump{Op: NE, Left: t1, Right: Const{Value: 0}, True: lt, False: lf}
		}
	case *ast.TrueExp:
		return Jump{Target: Name{Label: lt}, Dests: []Label{lt}}
	case *ast.FalseExp:
		return Jump{Target: Name{Label: lf}, Dests: []Label{lf}}
	case *ast.NegExp:
		return tr.cond(n.Exp, lf, lt)
	default:
		t1 := tr.exp(e)
		return CJump{Op: NE, Left: t1, Right: Const{Value: 0}, True: lt, False: lf}
	}
}

func (tr *Translator) exp(e ast.Exp) Exp {
	switch n := e.(type) {
	case *ast.IdExp:
		return tr.varLexp(n.Name)
	case *ast.NumberExp:
		return Const{Value: n.Value}
	case *ast.OpExp:
		if o, ok := binOpOf(n.Op); ok {
			return BinExp{Op: o, Left: tr.exp(n.Left), Right: tr.exp(n.Right)}
		}
		// boolean-producing: materialise 0/1 via cond
		i := NewIdent()
		l1, l2 := NewLabel(), NewLabel()
		return ESeq{
			Stms: []Stm{
				Move{Dst: Temp{Ident: i}, Src: Const{Value: 0}},
				tr.cond(n, l1, l2),
				LabelStm{Label: l1},
				Move{Dst: Temp{Ident: i}, Src: Const{Value: 1}},
				LabelStm{Label: l2},
			},
			Value: Temp{Ident: i},
		}
	case *ast.InvokeExp:
		tf := tr.exp(n.Receiver)
		targs := make([]Exp, 0, len(n.Args)+1)
		targs = append(targs, tf)
		for _, a := range n.Args {
			targs = append(targs, tr.exp(a))
		}
		if n.ClassID == nil {
			panic("internal: type checker did not fill in class id")
		}
		className, ok := tr.symbols.ClassNameOfID(symbols.ClassIDFromInt(*n.ClassID))
		if !ok {
			panic("internal: unknown class id")
		}
		addr := NamedLabel(methodName(className, n.Method))
		return Call{Fn: Name{Label: addr}, Args: targs}
	case *ast.TrueExp:
		return Const{Value: 1}
	case *ast.FalseExp:
		return Const{Value: 0}
	case *ast.ThisExp:
		return tr.thisAddress()
	case *ast.ArrayGetExp:
		return tr.arrayGet(tr.exp(n.Array), tr.exp(n.Index))
	case *ast.ArrayLengthExp:
		return tr.arrayLength(tr.exp(n.Array))
	case *ast.NewExp:
		return tr.newClass(n.ClassName)
	case *ast.NewIntArrayExp:
		return tr.newArray(tr.exp(n.Size))
	case *ast.NegExp:
		return BinExp{Op: Minus, Left: Const{Value: 1}, Right: tr.exp(n.Exp)}
	case *ast.ReadExp:
		return Call{Fn: Name{Label: NamedLabel("L_read")}, Args: nil}
	default:
		panic(fmt.Sprintf("internal: unhandled expression %T", e))
	}
}

func (tr *Translator) stm(s ast.Stm) Stm {
	switch n := s.(type) {
	case *ast.AssignmentStm:
		le := tr.varLexp(n.Name)
		t := tr.exp(n.Exp)
		return Move{Dst: le, Src: t}
	case *ast.ArrayAssignmentStm:
		ti := tr.exp(n.Index)
		tv := tr.exp(n.Value)
		tx := tr.varLexp(n.Name)
		return tr.arrayPut(tx, ti, tv)
	case *ast.IfStm:
		lfalse, ltrue, lend := NewLabel(), NewLabel(), NewLabel()
		tc := tr.cond(n.Cond, ltrue, lfalse)
		tst := tr.stm(n.Then)
		tsf := tr.stm(n.Else)
		return Seq{Stms: []Stm{
			tc,
			LabelStm{Label: ltrue}, tst, Jump{Target: Name{Label: lend}, Dests: []Label{lend}},
			LabelStm{Label: lfalse}, tsf,
			LabelStm{Label: lend},
		}}
	case *ast.WhileStm:
		lloop, lbody, lend := NewLabel(), NewLabel(), NewLabel()
		tc := tr.cond(n.Cond, lbody, lend)
		tbody := tr.stm(n.Body)
		return Seq{Stms: []Stm{
			LabelStm{Label: lloop}, tc,
			LabelStm{Label: lbody}, tbody, Jump{Target: Name{Label: lloop}, Dests: []Label{lloop}},
			LabelStm{Label: lend},
		}}
	case *ast.WriteStm:
		t := tr.exp(n.Exp)
		x := NewIdent()
		return Move{Dst: Temp{Ident: x}, Src: Call{Fn: Name{Label: NamedLabel("L_write")}, Args: []Exp{t}}}
	case *ast.PrintlnStm:
		t := tr.exp(n.Exp)
		x := NewIdent()
		return Move{Dst: Temp{Ident: x}, Src: Call{Fn: Name{Label: NamedLabel("L_println_int")}, Args: []Exp{t}}}
	case *ast.SeqStm:
		stms := make([]Stm, 0, len(n.Stms))
		for _, s := range n.Stms {
			stms = append(stms, tr.stm(s))
		}
		return Seq{Stms: stms}
	default:
		panic(fmt.Sprintf("internal: unhandled statement %T", s))
	}
}

func (tr *Translator) method(cd *ast.ClassDecl, md *ast.MethodDecl) Function {
	ci, _ := tr.symbols.Class(cd.Name)
	mi, _ := ci.Methods.Get(md.Name)
	tr.currentClass = ci
	tr.currentMethod = mi
	tr.names = NewNamingContext()

	body := tr.stm(md.Body)
	body = tr.appendRaiseBlock(body)
	ret := tr.exp(md.Ret)
	t := NewIdent()
	return Function{
		Name:    NamedLabel(methodName(cd.Name, md.Name)),
		NParams: uint32(1 + mi.Parameters.Len()),
		Body:    []Stm{body, Move{Dst: Temp{Ident: t}, Src: ret}},
		Ret:     t,
	}
}

func (tr *Translator) main(prg *ast.Prg) Function {
	ci, _ := tr.symbols.Class(prg.MainClass)
	mi, _ := ci.Methods.Get("main")
	tr.currentClass = ci
	tr.currentMethod = mi
	tr.names = NewNamingContext()

	body := tr.stm(prg.MainBody)
	body = tr.appendRaiseBlock(body)
	t := NewIdent()
	return Function{
		Name:    NamedLabel("Lmain"),
		NParams: 1,
		Body:    []Stm{body, Move{Dst: Temp{Ident: t}, Src: Const{Value: 0}}},
		Ret:     t,
	}
}

// Process lowers a whole checked program to tree IR.
func (tr *Translator) Process(prg *ast.Prg) Prg {
	var functions []Function
	for i := range prg.Classes {
		cd := &prg.Classes[i]
		for j := range cd.Methods {
			functions = append(functions, tr.method(cd, &cd.Methods[j]))
		}
	}
	functions = append(functions, tr.main(prg))
	return Prg{Names: tr.names, Functions: functions}
}

