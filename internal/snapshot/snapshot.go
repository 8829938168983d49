// Package snapshot persists citation graphs as versioned JSON documents.
//
// The format is an explicit schema rather than an opaque blob: a version
// marker, the traversal metadata block, the node list with attributes, the
// edge list, and the per-depth frontier map. Loads of a future version fail
// loudly instead of misreading the data.
package snapshot

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/matsen/citgraph/internal/graph"
)

// Version is the current snapshot schema version.
const Version = 1

// DefaultExt is appended to snapshot paths that carry no extension.
const DefaultExt = ".json"

// Document is the on-disk envelope around a graph state.
type Document struct {
	Version int         `json:"version"`
	Graph   graph.State `json:"graph"`
}

// PrepPath normalizes a snapshot path, appending the default extension when
// the path has none.
func PrepPath(path string) string {
	if filepath.Ext(path) == "" {
		return path + DefaultExt
	}
	return path
}

// Save writes the graph to path as a versioned JSON snapshot.
func Save(path string, cg *graph.CitationGraph) error {
	path = PrepPath(path)

	doc := Document{
		Version: Version,
		Graph:   cg.State(),
	}
	data, err := json.MarshalIndent(doc, "", "  ")
	if err != nil {
		return fmt.Errorf("encoding snapshot: %w", err)
	}

	if err := os.WriteFile(path, append(data, '\n'), 0644); err != nil {
		return fmt.Errorf("writing snapshot: %w", err)
	}
	return nil
}

// Load reads a snapshot from path and reconstructs the citation graph.
func Load(path string, opts ...graph.Option) (*graph.CitationGraph, error) {
	path = PrepPath(path)

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading snapshot: %w", err)
	}

	var doc Document
	if err := json.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("parsing snapshot: %w", err)
	}
	if doc.Version != Version {
		return nil, fmt.Errorf("unsupported snapshot version %d (supported: %d)", doc.Version, Version)
	}

	cg, err := graph.FromState(doc.Graph, opts...)
	if err != nil {
		return nil, fmt.Errorf("restoring graph from %s: %w", filepath.Base(path), err)
	}
	return cg, nil
}

// IsSnapshot reports whether a path looks like a snapshot file.
func IsSnapshot(path string) bool {
	return strings.EqualFold(filepath.Ext(PrepPath(path)), DefaultExt)
}
