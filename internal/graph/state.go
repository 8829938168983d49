package graph

import (
	"fmt"

	"github.com/matsen/citgraph/internal/paper"
)

// StateEdge is the serializable form of one directed edge.
type StateEdge struct {
	Parent paper.ScopusID `json:"parent"`
	Child  paper.ScopusID `json:"child"`
	Weight *int           `json:"weight,omitempty"`
}

// State is a complete serializable view of a CitationGraph: the metadata
// block, the node list with attributes, the edge list, and the per-depth
// frontier map. Snapshot and store backends persist this, not the graph's
// in-memory representation.
type State struct {
	Name             string                `json:"name"`
	UseDOI           bool                  `json:"use_doi"`
	IterDepth        int                   `json:"iter_depth"`
	RetrievalsTotal  int                   `json:"retrievals_total"`
	RetrievalsFailed int                   `json:"retrievals_failed"`
	PapersByDepth    map[int][]paper.Paper `json:"papers_by_iter_depth"`
	Nodes            []paper.Paper         `json:"nodes"`
	Edges            []StateEdge           `json:"edges"`
}

// State captures the graph as a serializable value. The capture is deep:
// later mutation of the graph does not affect it.
func (cg *CitationGraph) State() State {
	byDepth := make(map[int][]paper.Paper, len(cg.papersByDepth))
	for d, papers := range cg.papersByDepth {
		byDepth[d] = append([]paper.Paper(nil), papers...)
	}

	records := cg.graph.Edges()
	edges := make([]StateEdge, len(records))
	for i, rec := range records {
		e := StateEdge{Parent: rec.Parent, Child: rec.Child}
		if rec.Attrs.HasWeight {
			w := rec.Attrs.Weight
			e.Weight = &w
		}
		edges[i] = e
	}

	return State{
		Name:             cg.name,
		UseDOI:           cg.useDOI,
		IterDepth:        cg.iterDepth,
		RetrievalsTotal:  cg.retrievalsTotal,
		RetrievalsFailed: cg.retrievalsFailed,
		PapersByDepth:    byDepth,
		Nodes:            cg.graph.Nodes(),
		Edges:            edges,
	}
}

// FromState reconstructs a citation graph from a persisted state, validating
// the structural invariants a build guarantees.
func FromState(st State, opts ...Option) (*CitationGraph, error) {
	if err := validateState(st); err != nil {
		return nil, err
	}

	cg := New(st.Name, opts...)
	cg.useDOI = st.UseDOI
	cg.iterDepth = st.IterDepth
	cg.retrievalsTotal = st.RetrievalsTotal
	cg.retrievalsFailed = st.RetrievalsFailed
	cg.built = true

	for d, papers := range st.PapersByDepth {
		cg.papersByDepth[d] = freezeFrontier(append([]paper.Paper(nil), papers...))
	}
	for _, p := range st.Nodes {
		cg.graph.UpsertNode(p.ScopusID, p)
	}
	for _, e := range st.Edges {
		parent, ok := cg.graph.Node(e.Parent)
		if !ok {
			return nil, fmt.Errorf("edge %d->%d: parent is not a node", e.Parent, e.Child)
		}
		child, ok := cg.graph.Node(e.Child)
		if !ok {
			return nil, fmt.Errorf("edge %d->%d: child is not a node", e.Parent, e.Child)
		}
		cg.graph.UpsertEdge(e.Parent, parent, e.Child, child, e.Weight)
	}

	return cg, nil
}

// validateState checks counter consistency, depth contiguity and frontier
// disjointness before a state is admitted.
func validateState(st State) error {
	if st.RetrievalsFailed > st.RetrievalsTotal {
		return fmt.Errorf("retrievals_failed %d exceeds retrievals_total %d",
			st.RetrievalsFailed, st.RetrievalsTotal)
	}
	if st.IterDepth < 0 {
		return fmt.Errorf("negative iter_depth %d", st.IterDepth)
	}

	for d := 0; d <= st.IterDepth; d++ {
		if _, ok := st.PapersByDepth[d]; !ok {
			return fmt.Errorf("missing frontier for depth %d", d)
		}
	}
	if len(st.PapersByDepth) != st.IterDepth+1 {
		return fmt.Errorf("frontier map has %d depths, want %d",
			len(st.PapersByDepth), st.IterDepth+1)
	}

	seen := make(map[paper.ScopusID]int)
	for d, papers := range st.PapersByDepth {
		for _, p := range papers {
			if prev, dup := seen[p.ScopusID]; dup {
				return fmt.Errorf("paper %d discovered at depth %d and depth %d",
					p.ScopusID, prev, d)
			}
			seen[p.ScopusID] = d
		}
	}

	return nil
}
