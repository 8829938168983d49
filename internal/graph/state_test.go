package graph

import (
	"context"
	"testing"

	"github.com/matsen/citgraph/internal/paper"
)

func builtGraph(t *testing.T) *CitationGraph {
	t.Helper()
	lookup := &fakeLookup{
		papers: map[string]paper.Paper{
			"10.1/a": seedPaper(1, "10.1/a"),
			"10.1/b": seedPaper(2, "10.1/b"),
		},
		refs:   map[paper.ScopusID][]uint64{1: {3}, 2: {3, 4}},
		broken: map[paper.ScopusID]int{2: 1},
	}
	cg := New("roundtrip")
	if err := cg.BuildFromIDs(context.Background(), lookup, []string{"10.1/a", "10.1/b"}, true, 1); err != nil {
		t.Fatalf("BuildFromIDs: %v", err)
	}
	return cg
}

func TestStateRoundTrip(t *testing.T) {
	cg := builtGraph(t)
	st := cg.State()

	restored, err := FromState(st)
	if err != nil {
		t.Fatalf("FromState: %v", err)
	}

	if restored.Name() != cg.Name() {
		t.Errorf("Name = %q, want %q", restored.Name(), cg.Name())
	}
	if restored.UseDOI() != cg.UseDOI() {
		t.Errorf("UseDOI = %v, want %v", restored.UseDOI(), cg.UseDOI())
	}
	if restored.IterDepth() != cg.IterDepth() {
		t.Errorf("IterDepth = %d, want %d", restored.IterDepth(), cg.IterDepth())
	}
	if restored.RetrievalsTotal() != cg.RetrievalsTotal() ||
		restored.RetrievalsFailed() != cg.RetrievalsFailed() {
		t.Errorf("counters = %d/%d, want %d/%d",
			restored.RetrievalsTotal(), restored.RetrievalsFailed(),
			cg.RetrievalsTotal(), cg.RetrievalsFailed())
	}
	if restored.Graph().NodeCount() != cg.Graph().NodeCount() {
		t.Errorf("NodeCount = %d, want %d", restored.Graph().NodeCount(), cg.Graph().NodeCount())
	}
	if restored.Graph().EdgeCount() != cg.Graph().EdgeCount() {
		t.Errorf("EdgeCount = %d, want %d", restored.Graph().EdgeCount(), cg.Graph().EdgeCount())
	}
	for _, d := range cg.Depths() {
		if got, want := len(restored.PapersAtDepth(d)), len(cg.PapersAtDepth(d)); got != want {
			t.Errorf("len(PapersAtDepth(%d)) = %d, want %d", d, got, want)
		}
	}
}

func TestStateIsDeepCopy(t *testing.T) {
	cg := builtGraph(t)
	st := cg.State()

	nodesBefore := len(st.Nodes)
	cg.graph.UpsertNode(99, paper.Paper{ScopusID: 99, Title: "late"})

	if len(st.Nodes) != nodesBefore {
		t.Error("mutating the graph changed a captured state")
	}
}

func TestStateRestoredGraphRejectsBuild(t *testing.T) {
	cg := builtGraph(t)

	restored, err := FromState(cg.State())
	if err != nil {
		t.Fatalf("FromState: %v", err)
	}
	buildErr := restored.BuildFromIDs(context.Background(), &fakeLookup{}, []string{"10.1/x"}, true, 0)
	if buildErr != ErrAlreadyBuilt {
		t.Fatalf("err = %v, want ErrAlreadyBuilt", buildErr)
	}
}

func TestFromStateValidation(t *testing.T) {
	valid := builtGraph(t).State()

	tests := []struct {
		name   string
		mutate func(*State)
	}{
		{
			name:   "failed exceeds total",
			mutate: func(st *State) { st.RetrievalsFailed = st.RetrievalsTotal + 1 },
		},
		{
			name:   "negative depth",
			mutate: func(st *State) { st.IterDepth = -1 },
		},
		{
			name:   "missing frontier depth",
			mutate: func(st *State) { delete(st.PapersByDepth, 1) },
		},
		{
			name: "frontier beyond iter depth",
			mutate: func(st *State) {
				st.PapersByDepth[st.IterDepth+1] = []paper.Paper{}
			},
		},
		{
			name: "paper at two depths",
			mutate: func(st *State) {
				p := st.PapersByDepth[0][0]
				st.PapersByDepth[1] = append(st.PapersByDepth[1], p)
			},
		},
		{
			name: "edge with unknown endpoint",
			mutate: func(st *State) {
				st.Edges = append(st.Edges, StateEdge{Parent: 1, Child: 999})
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			st := builtGraph(t).State()
			tt.mutate(&st)
			if _, err := FromState(st); err == nil {
				t.Error("FromState accepted an invalid state")
			}
		})
	}

	if _, err := FromState(valid); err != nil {
		t.Fatalf("FromState rejected a valid state: %v", err)
	}
}

func TestStateEdgeWeights(t *testing.T) {
	cg := New("weights")
	w := 5
	cg.graph.UpsertEdge(1, paper.Paper{ScopusID: 1}, 2, paper.Paper{ScopusID: 2}, &w)
	cg.graph.UpsertEdge(1, paper.Paper{ScopusID: 1}, 3, paper.Paper{ScopusID: 3}, nil)
	cg.papersByDepth[0] = []paper.Paper{}

	st := cg.State()
	if len(st.Edges) != 2 {
		t.Fatalf("len(Edges) = %d, want 2", len(st.Edges))
	}
	// Edges are sorted by (parent, child): 1->2 first.
	if st.Edges[0].Weight == nil || *st.Edges[0].Weight != 5 {
		t.Errorf("edge 1->2 weight = %v, want 5", st.Edges[0].Weight)
	}
	if st.Edges[1].Weight != nil {
		t.Errorf("edge 1->3 weight = %v, want nil", st.Edges[1].Weight)
	}

	restored, err := FromState(st)
	if err != nil {
		t.Fatalf("FromState: %v", err)
	}
	attrs, ok := restored.Graph().Edge(1, 2)
	if !ok || !attrs.HasWeight || attrs.Weight != 5 {
		t.Errorf("restored edge 1->2 attrs = %+v, want weight 5", attrs)
	}
	attrs, _ = restored.Graph().Edge(1, 3)
	if attrs.HasWeight {
		t.Errorf("restored edge 1->3 should carry no weight, got %+v", attrs)
	}
}
