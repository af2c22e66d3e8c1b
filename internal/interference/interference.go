// Package interference builds the register interference graph a function's
// liveness implies, grounded on backend::interference::Interference.
package interference

import (
	"minijavac/internal/graph"
	"minijavac/internal/liveness"
	"minijavac/internal/platform"
)

// Interference is the interference graph: an edge between two registers
// means they must not be assigned the same physical register.
type Interference struct {
	G *graph.Graph[platform.Reg]
}

// New builds the interference graph from a function's liveness, ignoring
// physical registers outside the allocatable general-purpose set (e.g. EBP,
// ESP) since they are never candidates for coloring.
func New(f platform.Function, live *liveness.Liveness, rc platform.RegisterClass) *Interference {
	ignore := make(map[platform.Reg]struct{})
	gp := make(map[platform.Reg]struct{}, len(rc.GeneralPurpose()))
	for _, r := range rc.GeneralPurpose() {
		gp[r] = struct{}{}
	}
	for _, r := range rc.Physical() {
		if _, ok := gp[r]; !ok {
			ignore[r] = struct{}{}
		}
	}

	body := f.Body()
	g := graph.New[platform.Reg]()

	for i := range body {
		for _, b := range body[i].Defs() {
			if _, skip := ignore[b]; skip {
				continue
			}
			g.AddNode(b)
			_, moveSrc, isMove := body[i].IsMoveBetweenTemps()
			for c := range live.Out[i] {
				g.AddNode(c)
				if b == c {
					continue
				}
				if _, skip := ignore[c]; skip {
					continue
				}
				if isMove && moveSrc == c {
					continue
				}
				g.AddEdge(b, c)
				g.AddEdge(c, b)
			}
		}
	}

	return &Interference{G: g}
}
