// Package regalloc implements Chaitin-style graph-coloring register
// allocation over the platform abstraction, grounded on backend::regalloc.
package regalloc

import (
	"minijavac/internal/flow"
	"minijavac/internal/interference"
	"minijavac/internal/liveness"
	"minijavac/internal/platform"
)

// Allocate runs register allocation over every function of p in place.
func Allocate(p platform.Prg, rc platform.RegisterClass) {
	fns := p.Functions()
	for i, f := range fns {
		allocFunction(f, rc)
		p.SetFunction(i, f)
	}
}

func allocFunction(f platform.Function, rc platform.RegisterClass) {
	result := color(f, rc)
	if len(result.spills) == 0 {
		sigma := func(r platform.Reg) platform.Reg {
			if c, ok := result.colouring[r]; ok {
				return c
			}
			return r
		}
		f.Rename(sigma)
		return
	}
	f.Spill(result.spills)
	allocFunction(f, rc)
}

type colourResult struct {
	colouring map[platform.Reg]platform.Reg
	spills    []platform.Reg
}

// color runs one simplify/spill/select round, returning either a complete
// coloring or the set of registers that must be spilled before retrying.
func color(f platform.Function, rc platform.RegisterClass) colourResult {
	fg := flow.New(f)
	live := liveness.New(fg)
	interf := interference.New(f, live, rc)
	g := interf.G

	k := len(rc.GeneralPurpose())

	var stack []platform.Reg
	var lowDegree []platform.Reg
	highDegree := make(map[platform.Reg]int)

	for _, t := range g.Nodes() {
		if t.IsPhysical() {
			continue
		}
		deg := g.OutDegree(t)
		if deg >= k {
			highDegree[t] = deg
		} else {
			lowDegree = append(lowDegree, t)
		}
	}

	// Simplify and spill: repeatedly remove a node of degree < k (simplify),
	// or — once none remain — the highest-degree node as an optimistic
	// spill candidate, per spec.md §4.7.
	for len(lowDegree)+len(highDegree) > 0 {
		var next platform.Reg
		if n := len(lowDegree); n > 0 {
			next = lowDegree[n-1]
			lowDegree = lowDegree[:n-1]
		} else {
			var maxDegree = -1
			for t, deg := range highDegree {
				if deg > maxDegree {
					next, maxDegree = t, deg
				}
			}
			delete(highDegree, next)
		}

		stack = append(stack, next)
		for _, t := range g.Successors(next) {
			deg, present := highDegree[t]
			if !present {
				continue
			}
			deg--
			if deg < k {
				delete(highDegree, t)
				lowDegree = append(lowDegree, t)
			} else {
				highDegree[t] = deg
			}
		}
	}

	// Select: pop the stack, assigning each node a color none of its
	// already-colored neighbors hold.
	colouring := make(map[platform.Reg]platform.Reg)
	for _, t := range rc.Physical() {
		colouring[t] = t
	}

	gp := rc.GeneralPurpose()

	var spills []platform.Reg
	for i := len(stack) - 1; i >= 0; i-- {
		s := stack[i]
		used := make(map[platform.Reg]struct{})
		for _, t := range g.Successors(s) {
			if c, ok := colouring[t]; ok {
				used[c] = struct{}{}
			}
		}
		assigned := false
		for _, c := range gp {
			if _, taken := used[c]; !taken {
				colouring[s] = c
				assigned = true
				break
			}
		}
		if !assigned {
			spills = append(spills, s)
		}
	}

	return colourResult{colouring: colouring, spills: spills}
}
