// Package viz builds export documents for visualization tools from a built
// citation graph. All transforms are pure: they construct new values and
// never mutate the source graph.
package viz

import (
	"encoding/json"
	"fmt"

	"github.com/matsen/citgraph/internal/graph"
)

// GraphistryGraph is the node-link form consumed by Graphistry uploads.
type GraphistryGraph struct {
	Name  string           `json:"name"`
	Nodes []GraphistryNode `json:"nodes"`
	Edges []GraphistryEdge `json:"edges"`
}

// GraphistryNode carries a node's attributes with two adjustments for the
// target tool: scopus_id is rendered as text because Graphistry truncates
// large integers, and the title attribute is renamed paper_title because
// "title" is part of Graphistry's reserved vocabulary.
type GraphistryNode struct {
	ScopusID   string `json:"scopus_id"`
	PaperTitle string `json:"paper_title"`
	Authors    string `json:"authors"`
	Year       int    `json:"year"`
	IterDepth  int    `json:"iter_depth"`
	DOI        string `json:"doi"`
	EID        string `json:"eid"`
	ScopusURL  string `json:"scopus_url"`
	PubName    string `json:"pub_name"`
}

// GraphistryEdge is one directed citation edge, source cites destination.
type GraphistryEdge struct {
	Source      string `json:"source"`
	Destination string `json:"destination"`
	Weight      *int   `json:"weight,omitempty"`
}

// Graphistry builds the Graphistry export form of a citation graph.
func Graphistry(cg *graph.CitationGraph) *GraphistryGraph {
	g := cg.Graph()

	out := &GraphistryGraph{
		Name:  cg.Name(),
		Nodes: make([]GraphistryNode, 0, g.NodeCount()),
		Edges: make([]GraphistryEdge, 0, g.EdgeCount()),
	}

	for _, p := range g.Nodes() {
		out.Nodes = append(out.Nodes, GraphistryNode{
			ScopusID:   p.ScopusID.String(),
			PaperTitle: p.Title,
			Authors:    p.Authors,
			Year:       p.Year,
			IterDepth:  p.IterDepth,
			DOI:        p.DOI,
			EID:        p.EID,
			ScopusURL:  p.ScopusURL,
			PubName:    p.PubName,
		})
	}

	for _, e := range g.Edges() {
		edge := GraphistryEdge{
			Source:      e.Parent.String(),
			Destination: e.Child.String(),
		}
		if e.Attrs.HasWeight {
			w := e.Attrs.Weight
			edge.Weight = &w
		}
		out.Edges = append(out.Edges, edge)
	}

	return out
}

// ToJSON renders the export as formatted JSON.
func (g *GraphistryGraph) ToJSON() ([]byte, error) {
	data, err := json.MarshalIndent(g, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("marshaling Graphistry export: %w", err)
	}
	return data, nil
}
