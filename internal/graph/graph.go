// Package graph implements the small directed graph used by the backend's
// flow and interference analyses (spec.md §9 "Platform abstraction" design
// note): nodes plus adjacency sets, nothing more.
package graph

// Graph is a directed graph over comparable node values T, grounded on the
// reference compiler's backend::graph::Graph (flow.rs/interference.rs use
// it as a plain adjacency-set structure).
type Graph[T comparable] struct {
	succ  map[T]map[T]struct{}
	order []T
}

// New creates an empty Graph.
func New[T comparable]() *Graph[T] {
	return &Graph[T]{succ: make(map[T]map[T]struct{})}
}

// AddNode registers t, if not already present, with no successors.
func (g *Graph[T]) AddNode(t T) {
	if _, ok := g.succ[t]; !ok {
		g.succ[t] = make(map[T]struct{})
		g.order = append(g.order, t)
	}
}

// AddEdge adds a directed edge from -> to, registering both endpoints as
// nodes if needed.
func (g *Graph[T]) AddEdge(from, to T) {
	g.AddNode(from)
	g.AddNode(to)
	g.succ[from][to] = struct{}{}
}

// Nodes returns every node, in insertion order.
func (g *Graph[T]) Nodes() []T {
	out := make([]T, len(g.order))
	copy(out, g.order)
	return out
}

// Successors returns t's direct successors, in insertion order.
func (g *Graph[T]) Successors(t T) []T {
	succ := g.succ[t]
	out := make([]T, 0, len(succ))
	for _, n := range g.order {
		if _, ok := succ[n]; ok {
			out = append(out, n)
		}
	}
	return out
}

// OutDegree returns the number of direct successors of t.
func (g *Graph[T]) OutDegree(t T) int {
	return len(g.succ[t])
}
