package graph

import (
	"testing"

	"github.com/matsen/citgraph/internal/paper"
)

func testPaper(id paper.ScopusID, title string) paper.Paper {
	return paper.Paper{
		ScopusID: id,
		Title:    title,
		Year:     2020,
	}
}

func TestUpsertNodeKeepsFirstAttributes(t *testing.T) {
	g := NewDiGraph()

	g.UpsertNode(1, testPaper(1, "first"))
	g.UpsertNode(1, testPaper(1, "second"))

	if got := g.NodeCount(); got != 1 {
		t.Fatalf("NodeCount = %d, want 1", got)
	}
	p, ok := g.Node(1)
	if !ok {
		t.Fatal("Node(1) not found")
	}
	if p.Title != "first" {
		t.Errorf("Title = %q, want %q (attributes must not be overwritten)", p.Title, "first")
	}
}

func TestUpsertEdgeCreatesEndpoints(t *testing.T) {
	g := NewDiGraph()

	g.UpsertEdge(1, testPaper(1, "parent"), 2, testPaper(2, "child"), nil)

	if !g.HasNode(1) || !g.HasNode(2) {
		t.Fatal("both endpoints should exist after UpsertEdge")
	}
	if !g.HasEdge(1, 2) {
		t.Fatal("edge 1->2 should exist")
	}
	if g.HasEdge(2, 1) {
		t.Error("edge 2->1 should not exist, edges are directed")
	}
	if got := g.EdgeCount(); got != 1 {
		t.Errorf("EdgeCount = %d, want 1", got)
	}
}

func TestUpsertEdgeIdempotent(t *testing.T) {
	g := NewDiGraph()

	g.UpsertEdge(1, testPaper(1, "a"), 2, testPaper(2, "b"), nil)
	g.UpsertEdge(1, testPaper(1, "a"), 2, testPaper(2, "b"), nil)
	g.UpsertEdge(1, testPaper(1, "a"), 2, testPaper(2, "b"), nil)

	if got := g.EdgeCount(); got != 1 {
		t.Errorf("EdgeCount = %d after repeated upserts, want 1", got)
	}
	if got := g.NodeCount(); got != 2 {
		t.Errorf("NodeCount = %d, want 2", got)
	}
}

func TestUpsertEdgeWeight(t *testing.T) {
	g := NewDiGraph()

	// No weight given: edge exists but carries none.
	g.UpsertEdge(1, testPaper(1, "a"), 2, testPaper(2, "b"), nil)
	attrs, ok := g.Edge(1, 2)
	if !ok {
		t.Fatal("edge 1->2 should exist")
	}
	if attrs.HasWeight {
		t.Error("edge should have no weight before one is set")
	}

	// A later upsert with a weight sets it.
	w := 3
	g.UpsertEdge(1, testPaper(1, "a"), 2, testPaper(2, "b"), &w)
	attrs, _ = g.Edge(1, 2)
	if !attrs.HasWeight || attrs.Weight != 3 {
		t.Errorf("edge weight = %+v, want weight 3", attrs)
	}

	// A later upsert without a weight leaves the stored weight alone.
	g.UpsertEdge(1, testPaper(1, "a"), 2, testPaper(2, "b"), nil)
	attrs, _ = g.Edge(1, 2)
	if !attrs.HasWeight || attrs.Weight != 3 {
		t.Errorf("edge weight = %+v after nil upsert, want weight 3 retained", attrs)
	}

	// A new weight overwrites unconditionally.
	w2 := 7
	g.UpsertEdge(1, testPaper(1, "a"), 2, testPaper(2, "b"), &w2)
	attrs, _ = g.Edge(1, 2)
	if attrs.Weight != 7 {
		t.Errorf("edge weight = %d, want 7", attrs.Weight)
	}

	if got := g.EdgeCount(); got != 1 {
		t.Errorf("EdgeCount = %d, want 1", got)
	}
}

func TestSelfLoop(t *testing.T) {
	g := NewDiGraph()

	g.UpsertEdge(1, testPaper(1, "self"), 1, testPaper(1, "self"), nil)

	if got := g.NodeCount(); got != 1 {
		t.Errorf("NodeCount = %d, want 1", got)
	}
	if got := g.EdgeCount(); got != 1 {
		t.Errorf("EdgeCount = %d, want 1", got)
	}
	if !g.HasEdge(1, 1) {
		t.Error("self loop 1->1 should exist")
	}
}

func TestNodesAndEdgesSorted(t *testing.T) {
	g := NewDiGraph()

	g.UpsertEdge(3, testPaper(3, "c"), 1, testPaper(1, "a"), nil)
	g.UpsertEdge(3, testPaper(3, "c"), 2, testPaper(2, "b"), nil)
	g.UpsertEdge(1, testPaper(1, "a"), 2, testPaper(2, "b"), nil)

	nodes := g.Nodes()
	if len(nodes) != 3 {
		t.Fatalf("len(Nodes) = %d, want 3", len(nodes))
	}
	for i := 1; i < len(nodes); i++ {
		if nodes[i-1].ScopusID >= nodes[i].ScopusID {
			t.Fatalf("Nodes not sorted: %d before %d", nodes[i-1].ScopusID, nodes[i].ScopusID)
		}
	}

	edges := g.Edges()
	want := []EdgeRecord{
		{Parent: 1, Child: 2},
		{Parent: 3, Child: 1},
		{Parent: 3, Child: 2},
	}
	if len(edges) != len(want) {
		t.Fatalf("len(Edges) = %d, want %d", len(edges), len(want))
	}
	for i, e := range edges {
		if e.Parent != want[i].Parent || e.Child != want[i].Child {
			t.Errorf("Edges[%d] = %d->%d, want %d->%d",
				i, e.Parent, e.Child, want[i].Parent, want[i].Child)
		}
	}
}
