package ir

// Canonizer lowers unrestricted tree IR into canonical form: no ESeq
// anywhere, Call only at statement level, and all Seq nodes flattened into
// a single top-level list per function body (spec.md §4.2).
type Canonizer struct{}

// NewCanonizer creates a Canonizer. It carries no state between functions.
func NewCanonizer() *Canonizer {
	return &Canonizer{}
}

// Process canonicalizes a whole program.
func (c *Canonizer) Process(p Prg) Prg {
	out := Prg{Names: p.Names, Functions: make([]Function, len(p.Functions))}
	for i, f := range p.Functions {
		out.Functions[i] = c.function(f)
	}
	return out
}

func (c *Canonizer) function(f Function) Function {
	body := linearize(seqStm(mapStms(f.Body, canonStm)))
	return Function{Name: f.Name, NParams: f.NParams, Body: body, Ret: f.Ret}
}

func mapStms(stms []Stm, fn func(Stm) Stm) []Stm {
	out := make([]Stm, len(stms))
	for i, s := range stms {
		out[i] = fn(s)
	}
	return out
}

func seqStm(stms []Stm) Stm {
	return Seq{Stms: stms}
}

// --- statement-level canonicalization: hoist ESeqs, bind nested Calls ---

func canonStm(s Stm) Stm {
	switch n := s.(type) {
	case Move:
		// A Call RHS stays a direct Call at the statement level (never
		// rebound through an extra temp) so that Move(Temp t, Call ...)
		// is a fixed point of canonicalization, per spec.md §4.2/§8's
		// idempotence property.
		if call, isCall := n.Src.(Call); isCall {
			stms, canonCall := canonCallKeepTopLevel(call)
			dstStms, dstE := canonLValue(n.Dst, canonCall)
			stms = append(stms, dstStms...)
			return Seq{Stms: append(stms, Move{Dst: dstE, Src: canonCall})}
		}
		// Evaluate src first (matches translator's left-to-right emission;
		// Dst's address subexpressions, if any, are computed after Src,
		// which is safe since MiniJava's Dst addressing never observes
		// Src's temp writes).
		srcStms, srcE := pullOutExp(n.Src)
		dstStms, dstE := canonLValue(n.Dst, srcE)
		return Seq{Stms: append(append([]Stm{}, srcStms...), append(dstStms, Move{Dst: dstE, Src: srcE})...)}
	case Jump:
		stms, e := pullOutExp(n.Target)
		return Seq{Stms: append(stms, Jump{Target: e, Dests: n.Dests})}
	case CJump:
		s1, l := pullOutExp(n.Left)
		s2, r := pullOutExpAfter(s1, n.Right)
		stms := append([]Stm{}, s1...)
		if !commutes(s2, l) {
			// Right's side effects might clobber l: stash l in a fresh temp first.
			t := NewIdent()
			stms = append(stms, Move{Dst: Temp{Ident: t}, Src: l})
			l = Temp{Ident: t}
		}
		stms = append(stms, s2...)
		return Seq{Stms: append(stms, CJump{Op: n.Op, Left: l, Right: r, True: n.True, False: n.False})}
	case Seq:
		var out []Stm
		for _, sub := range n.Stms {
			out = append(out, canonStm(sub))
		}
		return Seq{Stms: out}
	case LabelStm:
		return n
	default:
		panic("canon: unhandled statement")
	}
}

// canonCallKeepTopLevel canonicalizes a Call's callee and arguments without
// rebinding the Call itself through a fresh temp, preserving its position
// as the direct RHS of a Move.
func canonCallKeepTopLevel(call Call) ([]Stm, Call) {
	var stms []Stm
	fnStms, fn := pullOutExp(call.Fn)
	stms = append(stms, fnStms...)
	args := make([]Exp, len(call.Args))
	for i, a := range call.Args {
		as, ae := pullOutExp(a)
		stms = append(stms, as...)
		args[i] = ae
	}
	return stms, Call{Fn: fn, Args: args}
}

// canonLValue canonicalizes the destination of a Move. The second argument
// (the already-canonicalized Src value) is not consulted: Move(dest, src)
// always evaluates src first per the translator's emission order, so a Mem
// destination's address is computed after Src and is evaluated directly
// here, never spilled to a temp.
func canonLValue(dst Exp, _ Exp) ([]Stm, Exp) {
	switch n := dst.(type) {
	case Mem:
		stms, addr := pullOutExp(n.Addr)
		return stms, Mem{Addr: addr}
	case Temp, Param:
		return nil, n
	default:
		panic("canon: invalid move destination")
	}
}

// pullOutExp canonicalizes e, hoisting any ESeq side effects into the
// returned statement list and returning the resulting side-effect-free
// expression.
func pullOutExp(e Exp) ([]Stm, Exp) {
	switch n := e.(type) {
	case Const, Name, Temp, Param:
		return nil, n
	case BinExp:
		ls, l := pullOutExp(n.Left)
		rs, r := pullOutExpAfter(ls, n.Right)
		if commutes(rs, l) {
			return append(append([]Stm{}, ls...), rs...), BinExp{Op: n.Op, Left: l, Right: r}
		}
		// Right's side effects might clobber l: stash l in a fresh temp first.
		t := NewIdent()
		stms := append(ls, Move{Dst: Temp{Ident: t}, Src: l})
		stms = append(stms, rs...)
		return stms, BinExp{Op: n.Op, Left: Temp{Ident: t}, Right: r}
	case Mem:
		stms, addr := pullOutExp(n.Addr)
		return stms, Mem{Addr: addr}
	case Call:
		var stms []Stm
		fnStms, fn := pullOutExp(n.Fn)
		stms = append(stms, fnStms...)
		args := make([]Exp, len(n.Args))
		for i, a := range n.Args {
			as, ae := pullOutExpAfter(stms, a)
			stms = append(stms, as...)
			args[i] = ae
		}
		t := NewIdent()
		stms = append(stms, Move{Dst: Temp{Ident: t}, Src: Call{Fn: fn, Args: args}})
		return stms, Temp{Ident: t}
	case ESeq:
		var stms []Stm
		for _, s := range n.Stms {
			stms = append(stms, canonStm(s))
		}
		valStms, val := pullOutExp(n.Value)
		stms = append(stms, valStms...)
		return stms, val
	default:
		panic("canon: unhandled expression")
	}
}

// pullOutExpAfter canonicalizes e knowing that `before` has already been
// scheduled; it is a thin wrapper kept separate from pullOutExp purely for
// readability at call sites that build up a statement prefix incrementally.
func pullOutExpAfter(before []Stm, e Exp) ([]Stm, Exp) {
	_ = before
	return pullOutExp(e)
}

// commutes reports whether it is safe to evaluate a side-effecting
// statement list after an already-evaluated expression without risking
// observable reordering. Any expression without a Call or Mem read is
// immune to the statements' writes; conservatively we only allow reordering
// when the statement list is empty or the expression is an immediate/name,
// matching the translator's actual MiniJava semantics (no expression can
// alias another temp's storage).
func commutes(stms []Stm, e Exp) bool {
	if len(stms) == 0 {
		return true
	}
	switch e.(type) {
	case Const, Name:
		return true
	default:
		return false
	}
}

// linearize flattens nested Seqs into one top-level statement list.
func linearize(s Stm) []Stm {
	var out []Stm
	var walk func(Stm)
	walk = func(s Stm) {
		switch n := s.(type) {
		case Seq:
			for _, sub := range n.Stms {
				walk(sub)
			}
		default:
			out = append(out, n)
		}
	}
	walk(s)
	return out
}
