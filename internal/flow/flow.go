// Package flow builds the control-flow graph of a single machine function's
// instruction sequence, grounded on backend::flow::FlowGraph.
package flow

import (
	"minijavac/internal/graph"
	"minijavac/internal/platform"
)

// Graph is the control-flow graph over instruction indices of one function.
type Graph struct {
	Function platform.Function
	G        *graph.Graph[int]
}

// New builds the flow graph of f: every label definition becomes a jump
// target, every fall-through instruction gets an edge to the next
// instruction, and every jump/conditional-jump gets an edge to its target's
// defining instruction.
func New(f platform.Function) *Graph {
	body := f.Body()
	n := len(body)
	g := graph.New[int]()

	targets := make(map[string]int, n)
	for i := 0; i < n; i++ {
		g.AddNode(i)
		if l, ok := body[i].IsLabel(); ok {
			targets[l.String()] = i
		}
	}

	for i := 0; i < n; i++ {
		if i+1 < n && body[i].IsFallThrough() {
			g.AddEdge(i, i+1)
		}
		for _, l := range body[i].Jumps() {
			if t, ok := targets[l.String()]; ok {
				g.AddEdge(i, t)
			}
		}
	}

	return &Graph{Function: f, G: g}
}
