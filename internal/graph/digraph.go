// Package graph implements the citation graph: a directed graph with
// idempotent mutation primitives and the depth-bounded build engine on top.
package graph

import (
	"sort"

	"github.com/matsen/citgraph/internal/paper"
)

// EdgeAttrs holds the attributes of a directed edge. Weight is optional;
// HasWeight distinguishes "no weight set" from a zero weight.
type EdgeAttrs struct {
	Weight    int
	HasWeight bool
}

// EdgeRecord is one directed edge in enumeration order, parent cites child.
type EdgeRecord struct {
	Parent paper.ScopusID
	Child  paper.ScopusID
	Attrs  EdgeAttrs
}

// DiGraph is a directed graph keyed by ScopusID with paper metadata as node
// attributes. Nodes and edges are only ever added, never removed.
type DiGraph struct {
	nodes map[paper.ScopusID]paper.Paper
	succ  map[paper.ScopusID]map[paper.ScopusID]EdgeAttrs
	edges int
}

// NewDiGraph returns an empty directed graph.
func NewDiGraph() *DiGraph {
	return &DiGraph{
		nodes: make(map[paper.ScopusID]paper.Paper),
		succ:  make(map[paper.ScopusID]map[paper.ScopusID]EdgeAttrs),
	}
}

// NodeCount returns the number of nodes.
func (g *DiGraph) NodeCount() int { return len(g.nodes) }

// EdgeCount returns the number of directed edges.
func (g *DiGraph) EdgeCount() int { return g.edges }

// HasNode reports whether id is a node of the graph.
func (g *DiGraph) HasNode(id paper.ScopusID) bool {
	_, ok := g.nodes[id]
	return ok
}

// Node returns the stored attributes for id.
func (g *DiGraph) Node(id paper.ScopusID) (paper.Paper, bool) {
	p, ok := g.nodes[id]
	return p, ok
}

// HasEdge reports whether the directed edge parent->child exists.
func (g *DiGraph) HasEdge(parent, child paper.ScopusID) bool {
	_, ok := g.succ[parent][child]
	return ok
}

// Edge returns the attributes of the directed edge parent->child.
func (g *DiGraph) Edge(parent, child paper.ScopusID) (EdgeAttrs, bool) {
	attrs, ok := g.succ[parent][child]
	return attrs, ok
}

// UpsertNode adds id with the given attributes if it is not already a node.
// Attributes of an existing node are never overwritten.
func (g *DiGraph) UpsertNode(id paper.ScopusID, props paper.Paper) {
	if _, ok := g.nodes[id]; !ok {
		g.nodes[id] = props
	}
}

// UpsertEdge ensures both endpoints exist (UpsertNode semantics) and that
// the directed edge parent->child exists. A non-nil weight overwrites any
// prior weight unconditionally; this is the one attribute an existing edge
// accepts updates to.
func (g *DiGraph) UpsertEdge(parent paper.ScopusID, parentProps paper.Paper, child paper.ScopusID, childProps paper.Paper, weight *int) {
	g.UpsertNode(parent, parentProps)
	g.UpsertNode(child, childProps)

	out, ok := g.succ[parent]
	if !ok {
		out = make(map[paper.ScopusID]EdgeAttrs)
		g.succ[parent] = out
	}

	attrs, exists := out[child]
	if !exists {
		g.edges++
	}
	if weight != nil {
		attrs.Weight = *weight
		attrs.HasWeight = true
	}
	out[child] = attrs
}

// Nodes returns all node attributes sorted by ScopusID.
func (g *DiGraph) Nodes() []paper.Paper {
	out := make([]paper.Paper, 0, len(g.nodes))
	for _, p := range g.nodes {
		out = append(out, p)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ScopusID < out[j].ScopusID })
	return out
}

// Edges returns all edges sorted by (parent, child).
func (g *DiGraph) Edges() []EdgeRecord {
	out := make([]EdgeRecord, 0, g.edges)
	for parent, children := range g.succ {
		for child, attrs := range children {
			out = append(out, EdgeRecord{Parent: parent, Child: child, Attrs: attrs})
		}
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Parent != out[j].Parent {
			return out[i].Parent < out[j].Parent
		}
		return out[i].Child < out[j].Child
	})
	return out
}
