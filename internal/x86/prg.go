package x86

import "minijavac/internal/platform"

// Prg is a whole munged x86 program.
type Prg struct {
	Funcs []*Function
}

// Functions implements platform.Prg.
func (p *Prg) Functions() []platform.Function {
	out := make([]platform.Function, len(p.Funcs))
	for i, f := range p.Funcs {
		out[i] = f
	}
	return out
}

// SetFunction implements platform.Prg.
func (p *Prg) SetFunction(i int, f platform.Function) {
	p.Funcs[i] = f.(*Function)
}
