// Package liveness computes per-instruction live-in/live-out register sets
// over a function's flow graph, grounded on backend::liveness::Liveness.
package liveness

import "minijavac/internal/flow"
import "minijavac/internal/platform"

// Liveness holds, for every instruction index in Function.Body(), the set
// of registers live immediately before (In) and immediately after (Out) it.
type Liveness struct {
	Function platform.Function
	In, Out  []map[platform.Reg]struct{}
}

// New runs the backward liveness dataflow to a fixpoint over flow's graph.
// Each round scans instructions in reverse program order, which converges
// in far fewer iterations than forward order for backward problems.
func New(fg *flow.Graph) *Liveness {
	body := fg.Function.Body()
	n := len(body)

	in := make([]map[platform.Reg]struct{}, n)
	out := make([]map[platform.Reg]struct{}, n)
	for i := range in {
		in[i] = make(map[platform.Reg]struct{})
		out[i] = make(map[platform.Reg]struct{})
	}

	changed := true
	for changed {
		changed = false
		for a := n - 1; a >= 0; a-- {
			before := len(in[a])

			for _, m := range fg.G.Successors(a) {
				for t := range in[m] {
					if _, present := out[a][t]; !present {
						out[a][t] = struct{}{}
						changed = true
						in[a][t] = struct{}{}
					}
				}
			}
			for _, t := range body[a].Defs() {
				delete(in[a], t)
			}
			for _, t := range body[a].Uses() {
				in[a][t] = struct{}{}
			}

			if len(in[a]) > before {
				changed = true
			}
		}
	}

	return &Liveness{Function: fg.Function, In: in, Out: out}
}
