package ir

// Tracer linearizes canonical IR into a single straight-line trace per
// function, arranging CJump false-targets as fall-throughs wherever
// possible (spec.md §4.3).
type Tracer struct{}

// NewTracer creates a Tracer. It carries no state between functions.
func NewTracer() *Tracer {
	return &Tracer{}
}

// Process traces a whole canonicalized program.
func (t *Tracer) Process(p Prg) Prg {
	out := Prg{Names: p.Names, Functions: make([]Function, len(p.Functions))}
	for i, f := range p.Functions {
		out.Functions[i] = traceFunction(f)
	}
	return out
}

type block struct {
	label    Label
	stms     []Stm
	transfer Stm
}

func traceFunction(f Function) Function {
	endLabel := NewLabel()
	startLabel, blocks := buildBlocks(f.Body, endLabel)
	body := trace(startLabel, blocks, endLabel)
	return Function{Name: f.Name, NParams: f.NParams, Body: body, Ret: f.Ret}
}

// buildBlocks partitions a canonical body into basic blocks keyed by label.
func buildBlocks(stms []Stm, endLabel Label) (Label, map[Label]*block) {
	blocks := make(map[Label]*block)

	startLabel := NewLabel()
	if len(stms) > 0 {
		if l, ok := stms[0].(LabelStm); ok {
			startLabel = l.Label
		}
	}

	var current *block
	startNew := func(l Label) {
		current = &block{label: l, stms: []Stm{LabelStm{Label: l}}}
	}
	finishCurrent := func(transfer Stm) {
		if current == nil {
			return
		}
		current.transfer = transfer
		blocks[current.label] = current
		current = nil
	}

	startNew(startLabel)
	for _, s := range stms {
		switch n := s.(type) {
		case LabelStm:
			finishCurrent(Jump{Target: Name{Label: n.Label}, Dests: []Label{n.Label}})
			startNew(n.Label)
		case Jump:
			finishCurrent(s)
		case CJump:
			finishCurrent(s)
		default:
			if current == nil {
				panic("trace: statement outside any block")
			}
			current.stms = append(current.stms, s)
		}
	}
	finishCurrent(Jump{Target: Name{Label: endLabel}, Dests: []Label{endLabel}})

	return startLabel, blocks
}

// trace runs the LIFO-worklist linearization described in spec.md §4.3.
func trace(startLabel Label, blocks map[Label]*block, endLabel Label) []Stm {
	if len(blocks) == 0 {
		return nil
	}

	var ordered []Stm
	added := map[Label]bool{endLabel: true}

	var worklist []Label
	push := func(l Label) { worklist = append(worklist, l) }
	pop := func() (Label, bool) {
		if len(worklist) == 0 {
			return Label{}, false
		}
		l := worklist[0]
		worklist = worklist[1:]
		return l, true
	}
	pushFront := func(l Label) { worklist = append([]Label{l}, worklist...) }

	push(startLabel)
	for {
		l, ok := pop()
		if !ok {
			break
		}
		if added[l] {
			continue
		}
		b, present := blocks[l]
		if !present {
			continue
		}
		delete(blocks, l)

		// Peephole: drop a trailing unconditional jump to the block we're
		// about to emit.
		if n := len(ordered); n > 0 {
			if j, isJump := ordered[n-1].(Jump); isJump {
				if name, isName := j.Target.(Name); isName && name.Label.Equal(b.label) {
					ordered = ordered[:n-1]
				}
			}
		}

		ordered = append(ordered, b.stms...)

		switch tr := b.transfer.(type) {
		case Jump:
			for _, d := range tr.Dests {
				pushFront(d)
			}
			ordered = append(ordered, tr)
		case CJump:
			if !added[tr.False] {
				pushFront(tr.True)
				pushFront(tr.False)
				ordered = append(ordered, tr)
			} else if !added[tr.True] {
				pushFront(tr.False)
				pushFront(tr.True)
				ordered = append(ordered, CJump{Op: tr.Op.Neg(), Left: tr.Left, Right: tr.Right, True: tr.False, False: tr.True})
			} else {
				dummy := NewLabel()
				ordered = append(ordered, CJump{Op: tr.Op, Left: tr.Left, Right: tr.Right, True: tr.True, False: dummy})
				ordered = append(ordered, LabelStm{Label: dummy})
				ordered = append(ordered, Jump{Target: Name{Label: tr.False}, Dests: []Label{tr.False}})
			}
		default:
			panic("trace: block transfer must be Jump or CJump")
		}
		added[l] = true
	}
	ordered = append(ordered, LabelStm{Label: endLabel})
	return ordered
}
