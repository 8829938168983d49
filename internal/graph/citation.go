package graph

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"sort"

	"github.com/matsen/citgraph/internal/paper"
)

// Errors returned by BuildFromIDs before any external call is made.
var (
	// ErrNegativeDepth indicates a negative target iteration depth.
	ErrNegativeDepth = errors.New("target depth must be non-negative")

	// ErrAlreadyBuilt indicates the graph has already gone through a build.
	// Extending a built graph is not supported; rebuilding would corrupt
	// the per-depth frontier bookkeeping.
	ErrAlreadyBuilt = errors.New("citation graph already built")
)

// RefPair is one citation edge reported by the lookup collaborator. Child is
// nil when the referenced document could not be resolved to full metadata.
type RefPair struct {
	Parent paper.Paper
	Child  *paper.Paper
}

// Lookup resolves identifiers and reference lists against the bibliographic
// database. Implementations own pagination, auth, rate limiting and caching.
type Lookup interface {
	// Resolve turns a seed identifier into paper metadata retrieved at the
	// given depth. A nil paper with a nil error signals "not found"; the
	// caller counts it as a failed retrieval and moves on. A non-nil error
	// is fatal and aborts the build.
	Resolve(ctx context.Context, identifier string, idType paper.IDType, depth int) (*paper.Paper, error)

	// References returns every outgoing citation of each frontier paper,
	// with unresolved targets carried as nil children rather than errors.
	References(ctx context.Context, frontier []paper.Paper, depth int) ([]RefPair, error)
}

// CitationGraph is a directed citation graph plus traversal state: the
// current iteration depth, the papers first discovered at each depth, and
// running retrieval counters. It owns its DiGraph rather than extending it.
type CitationGraph struct {
	name  string
	graph *DiGraph

	useDOI        bool
	iterDepth     int
	papersByDepth map[int][]paper.Paper
	built         bool

	retrievalsTotal  int
	retrievalsFailed int

	log *slog.Logger
}

// Option configures a CitationGraph.
type Option func(*CitationGraph)

// WithLogger sets the logger used for build progress events.
func WithLogger(log *slog.Logger) Option {
	return func(cg *CitationGraph) {
		cg.log = log
	}
}

// New creates an empty citation graph with the given name at depth 0.
func New(name string, opts ...Option) *CitationGraph {
	cg := &CitationGraph{
		name:          name,
		graph:         NewDiGraph(),
		papersByDepth: make(map[int][]paper.Paper),
		log:           slog.New(slog.NewTextHandler(io.Discard, nil)),
	}
	for _, opt := range opts {
		opt(cg)
	}
	return cg
}

// Name returns the immutable graph label.
func (cg *CitationGraph) Name() string { return cg.name }

// UseDOI reports which identifier scheme seeded the graph.
func (cg *CitationGraph) UseDOI() bool { return cg.useDOI }

// IterDepth returns the current iteration depth.
func (cg *CitationGraph) IterDepth() int { return cg.iterDepth }

// RetrievalsTotal returns the number of retrievals attempted so far.
func (cg *CitationGraph) RetrievalsTotal() int { return cg.retrievalsTotal }

// RetrievalsFailed returns the number of retrievals that failed so far.
func (cg *CitationGraph) RetrievalsFailed() int { return cg.retrievalsFailed }

// Graph exposes the underlying directed graph for read access.
func (cg *CitationGraph) Graph() *DiGraph { return cg.graph }

// PapersAtDepth returns the papers first discovered at the given depth,
// sorted by ScopusID. The returned slice must not be modified.
func (cg *CitationGraph) PapersAtDepth(depth int) []paper.Paper {
	return cg.papersByDepth[depth]
}

// Depths returns the recorded iteration depths in ascending order.
func (cg *CitationGraph) Depths() []int {
	depths := make([]int, 0, len(cg.papersByDepth))
	for d := range cg.papersByDepth {
		depths = append(depths, d)
	}
	sort.Ints(depths)
	return depths
}

// BuildFromIDs seeds the graph from the given identifiers and expands it
// breadth-first for exactly targetDepth passes. The identifiers must all use
// the same scheme: DOIs when useDOI is true, EIDs otherwise.
//
// A lookup failure for a single item is counted and skipped; a fatal lookup
// error aborts the build at the last fully completed pass and is returned.
func (cg *CitationGraph) BuildFromIDs(ctx context.Context, lookup Lookup, ids []string, useDOI bool, targetDepth int) error {
	if targetDepth < 0 {
		return fmt.Errorf("%w: %d", ErrNegativeDepth, targetDepth)
	}
	if cg.built {
		return ErrAlreadyBuilt
	}
	cg.built = true

	if targetDepth == 0 {
		cg.log.Info("target depth is 0, only initialising with given document IDs")
	}
	cg.log.Info("building citation graph",
		"name", cg.name, "target_depth", targetDepth, "use_doi", useDOI, "seeds", len(ids))

	if err := cg.initialize(ctx, lookup, ids, useDOI); err != nil {
		return err
	}
	cg.log.Info("initialisation completed",
		"resolved", len(cg.papersByDepth[0]), "failed", cg.retrievalsFailed)

	for it := 1; it <= targetDepth; it++ {
		cg.log.Info("starting iteration", "depth", it)
		if err := cg.iterate(ctx, lookup); err != nil {
			return fmt.Errorf("iteration %d: %w", it, err)
		}
		cg.log.Info("iteration completed",
			"depth", it, "discovered", len(cg.papersByDepth[it]),
			"nodes", cg.graph.NodeCount(), "edges", cg.graph.EdgeCount())
	}

	cg.log.Info("citation graph completed",
		"depth", cg.iterDepth, "nodes", cg.graph.NodeCount(), "edges", cg.graph.EdgeCount(),
		"retrievals_total", cg.retrievalsTotal, "retrievals_failed", cg.retrievalsFailed)
	return nil
}

// initialize resolves each seed identifier at depth 0 so that papers without
// any reference data are still retained as nodes. Duplicate seeds are
// absorbed silently; they should not occur in database exports but are
// tolerated for consistency with the expansion passes.
func (cg *CitationGraph) initialize(ctx context.Context, lookup Lookup, ids []string, useDOI bool) error {
	cg.useDOI = useDOI

	idType := paper.IDTypeEID
	if useDOI {
		idType = paper.IDTypeDOI
	}

	seen := make(map[paper.Paper]struct{})
	var frontier []paper.Paper

	for _, identifier := range ids {
		p, err := lookup.Resolve(ctx, identifier, idType, cg.iterDepth)
		cg.retrievalsTotal++
		if err != nil {
			return fmt.Errorf("resolving seed %q: %w", identifier, err)
		}
		if p == nil {
			cg.retrievalsFailed++
			cg.log.Debug("seed not resolved", "identifier", identifier)
			continue
		}

		cg.graph.UpsertNode(p.ScopusID, *p)
		if _, dup := seen[*p]; !dup {
			seen[*p] = struct{}{}
			frontier = append(frontier, *p)
		}
		cg.log.Debug("seed resolved", "identifier", identifier, "scopus_id", p.ScopusID)
	}

	cg.papersByDepth[cg.iterDepth] = freezeFrontier(frontier)
	return nil
}

// iterate runs one expansion pass: it consumes the frontier of the current
// depth and produces the frontier of depth+1. Every reported citation edge
// is recorded, but only papers not yet known to the graph count as newly
// discovered.
func (cg *CitationGraph) iterate(ctx context.Context, lookup Lookup) error {
	targetDepth := cg.iterDepth + 1
	frontier := cg.papersByDepth[cg.iterDepth]

	pairs, err := lookup.References(ctx, frontier, targetDepth)
	if err != nil {
		return err
	}

	seen := make(map[paper.Paper]struct{})
	var next []paper.Paper

	for _, pair := range pairs {
		cg.retrievalsTotal++
		if pair.Child == nil {
			cg.retrievalsFailed++
			cg.log.Debug("reference not resolved", "parent", pair.Parent.ScopusID)
			continue
		}
		child := *pair.Child

		if _, dup := seen[child]; !dup && !cg.graph.HasNode(child.ScopusID) {
			seen[child] = struct{}{}
			next = append(next, child)
		}

		// The edge is recorded regardless of whether the child is newly
		// discovered: a paper known from an earlier depth still gains an
		// edge from this parent.
		cg.graph.UpsertEdge(pair.Parent.ScopusID, pair.Parent, child.ScopusID, child, nil)
		cg.log.Debug("edge recorded", "parent", pair.Parent.ScopusID, "child", child.ScopusID)
	}

	cg.iterDepth = targetDepth
	cg.papersByDepth[targetDepth] = freezeFrontier(next)
	return nil
}

// freezeFrontier pins a frontier into its stored form: sorted by ScopusID
// so that passes and exports are deterministic.
func freezeFrontier(papers []paper.Paper) []paper.Paper {
	sort.Slice(papers, func(i, j int) bool { return papers[i].ScopusID < papers[j].ScopusID })
	if papers == nil {
		papers = []paper.Paper{}
	}
	return papers
}
