package viz

import (
	"encoding/json"
	"fmt"

	"github.com/matsen/citgraph/internal/graph"
)

// CytoscapeElements represents the Cytoscape.js data format.
type CytoscapeElements struct {
	Nodes []CytoscapeNode `json:"nodes"`
	Edges []CytoscapeEdge `json:"edges"`
}

// CytoscapeNode represents a node in Cytoscape.js format.
type CytoscapeNode struct {
	Data CytoscapeNodeData `json:"data"`
}

// CytoscapeNodeData contains the node data fields.
type CytoscapeNodeData struct {
	ID        string `json:"id"`
	Label     string `json:"label"`
	Authors   string `json:"authors,omitempty"`
	Year      int    `json:"year,omitempty"`
	IterDepth int    `json:"iterDepth"`
	DOI       string `json:"doi,omitempty"`
}

// CytoscapeEdge represents an edge in Cytoscape.js format.
type CytoscapeEdge struct {
	Data CytoscapeEdgeData `json:"data"`
}

// CytoscapeEdgeData contains the edge data fields.
type CytoscapeEdgeData struct {
	ID     string `json:"id"`
	Source string `json:"source"`
	Target string `json:"target"`
	Weight *int   `json:"weight,omitempty"`
}

// Cytoscape builds the Cytoscape.js elements form of a citation graph.
func Cytoscape(cg *graph.CitationGraph) *CytoscapeElements {
	g := cg.Graph()

	elements := &CytoscapeElements{
		Nodes: make([]CytoscapeNode, 0, g.NodeCount()),
		Edges: make([]CytoscapeEdge, 0, g.EdgeCount()),
	}

	for _, p := range g.Nodes() {
		elements.Nodes = append(elements.Nodes, CytoscapeNode{
			Data: CytoscapeNodeData{
				ID:        p.ScopusID.String(),
				Label:     p.Title,
				Authors:   p.Authors,
				Year:      p.Year,
				IterDepth: p.IterDepth,
				DOI:       p.DOI,
			},
		})
	}

	for i, e := range g.Edges() {
		edge := CytoscapeEdge{
			Data: CytoscapeEdgeData{
				ID:     edgeID(e.Parent.String(), e.Child.String(), i),
				Source: e.Parent.String(),
				Target: e.Child.String(),
			},
		}
		if e.Attrs.HasWeight {
			w := e.Attrs.Weight
			edge.Data.Weight = &w
		}
		elements.Edges = append(elements.Edges, edge)
	}

	return elements
}

// ToJSON renders the elements as compact JSON for embedding.
func (e *CytoscapeElements) ToJSON() ([]byte, error) {
	data, err := json.Marshal(e)
	if err != nil {
		return nil, fmt.Errorf("marshaling Cytoscape elements: %w", err)
	}
	return data, nil
}

// edgeID generates a unique edge ID for the current export.
// IDs are based on slice position and are not stable across graph builds.
func edgeID(source, target string, index int) string {
	return fmt.Sprintf("%s-%s-%d", source, target, index)
}
