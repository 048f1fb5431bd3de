// Package graph builds the candidate pair graph over features: an arena of
// edges addressed by index plus per-feature adjacency lists.
package graph

import (
	"sort"

	"github.com/ChrisMcGann/decharger/pkg/explain"
)

// Rejection tells why an edge is inactive.
type Rejection int

const (
	RejectNone Rejection = iota
	RejectComplex
	RejectIntensity
)

func (r Rejection) String() string {
	switch r {
	case RejectComplex:
		return "complex"
	case RejectIntensity:
		return "intensity"
	}
	return "none"
}

// Edge links two features (A < B, positions in RT order) under assumed
// charges and a composition descriptor.
type Edge struct {
	A, B       int
	ChargeA    int
	ChargeB    int
	Descriptor explain.Descriptor
	MassError  float64 // observed difference minus descriptor mass
	Score      float64 // exp(descriptor score), in (0,1]
	Active     bool
	Rejection  Rejection
	Inferred   bool
	Selected   bool
}

// Touches reports whether feature i is an endpoint.
func (e *Edge) Touches(i int) bool {
	return e.A == i || e.B == i
}

// Other returns the endpoint opposite to i.
func (e *Edge) Other(i int) int {
	if e.A == i {
		return e.B
	}
	return e.A
}

// ChargeOf returns the charge the edge assigns to endpoint i.
func (e *Edge) ChargeOf(i int) int {
	if e.A == i {
		return e.ChargeA
	}
	return e.ChargeB
}

// SideOf returns the composition the edge assigns to endpoint i.
func (e *Edge) SideOf(i int) []explain.Term {
	if e.A == i {
		return e.Descriptor.SideA
	}
	return e.Descriptor.SideB
}

// CompositionOf returns the composition label for endpoint i.
func (e *Edge) CompositionOf(i int) string {
	if e.A == i {
		return e.Descriptor.LabelA
	}
	return e.Descriptor.LabelB
}

// AdductMassOf returns the summed adduct ion mass for endpoint i.
func (e *Edge) AdductMassOf(i int) float64 {
	if e.A == i {
		return e.Descriptor.MassA
	}
	return e.Descriptor.MassB
}

// Assignment is the (charge, composition) an edge implies for one feature.
type Assignment struct {
	Charge      int
	Composition string
}

// AssignmentOf returns the assignment the edge implies for endpoint i.
func (e *Edge) AssignmentOf(i int) Assignment {
	return Assignment{Charge: e.ChargeOf(i), Composition: e.CompositionOf(i)}
}

// Graph is the edge arena. Adj[i] lists the indices of edges touching
// feature i in ascending order. Edges are never removed.
type Graph struct {
	Nodes int
	Edges []Edge
	Adj   [][]int
}

// New builds a graph over n features from an edge list.
func New(n int, edges []Edge) *Graph {
	g := &Graph{
		Nodes: n,
		Edges: edges,
		Adj:   make([][]int, n),
	}
	for idx := range edges {
		e := &edges[idx]
		g.Adj[e.A] = append(g.Adj[e.A], idx)
		g.Adj[e.B] = append(g.Adj[e.B], idx)
	}
	return g
}

// CountActive returns the number of active edges.
func (g *Graph) CountActive() int {
	n := 0
	for i := range g.Edges {
		if g.Edges[i].Active {
			n++
		}
	}
	return n
}

// Components returns the connected components of the subgraph formed by
// edges for which keep returns true. Components are ordered by their lowest
// feature index and members are sorted ascending; isolated features form
// components of size one.
func (g *Graph) Components(keep func(*Edge) bool) [][]int {
	seen := make([]bool, g.Nodes)
	var comps [][]int

	for start := 0; start < g.Nodes; start++ {
		if seen[start] {
			continue
		}
		seen[start] = true
		comp := []int{start}
		for head := 0; head < len(comp); head++ {
			v := comp[head]
			for _, idx := range g.Adj[v] {
				e := &g.Edges[idx]
				if !keep(e) {
					continue
				}
				w := e.Other(v)
				if !seen[w] {
					seen[w] = true
					comp = append(comp, w)
				}
			}
		}
		sort.Ints(comp)
		comps = append(comps, comp)
	}
	return comps
}

// IsActive selects active edges.
func IsActive(e *Edge) bool { return e.Active }

// IsSelected selects edges chosen by the optimizer.
func IsSelected(e *Edge) bool { return e.Selected }
