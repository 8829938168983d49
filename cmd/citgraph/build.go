package main

import (
	"context"
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/matsen/citgraph/internal/config"
	"github.com/matsen/citgraph/internal/graph"
	"github.com/matsen/citgraph/internal/scopus"
	"github.com/matsen/citgraph/internal/seeds"
	"github.com/matsen/citgraph/internal/snapshot"
	"github.com/matsen/citgraph/internal/storage"
)

var (
	buildCSV    string
	buildPDFDir string
	buildEID    bool
	buildLimit  int
	buildDepth  int
	buildName   string
	buildOut    string
	buildDB     string
)

var buildCmd = &cobra.Command{
	Use:   "build [identifiers...]",
	Short: "Build a citation graph from seed identifiers",
	Long: `Build a citation graph from seed document identifiers.

Seeds can be given as arguments, read from a Scopus CSV export (--csv),
or extracted from the PDFs in a directory (--pdf-dir). All seeds must use
one identifier scheme: DOIs by default, EIDs with --eid. The graph is
expanded breadth-first for --depth passes and written as a JSON snapshot.

Examples:
  citgraph build 10.1093/sysbio/syy032 --depth 1 --out demo
  citgraph build --csv scopus_export.csv --depth 2 --name review --out review.json
  citgraph build --pdf-dir ~/papers --depth 1 --out papers.json --db papers.db`,
	RunE: runBuild,
}

func init() {
	rootCmd.AddCommand(buildCmd)
	buildCmd.Flags().StringVar(&buildCSV, "csv", "", "Scopus CSV export to read seed identifiers from")
	buildCmd.Flags().StringVar(&buildPDFDir, "pdf-dir", "", "Directory of PDFs to extract seed DOIs from")
	buildCmd.Flags().BoolVar(&buildEID, "eid", false, "Treat identifiers as EIDs instead of DOIs")
	buildCmd.Flags().IntVar(&buildLimit, "limit", 0, "Maximum seeds to read from --csv (0 = all)")
	buildCmd.Flags().IntVarP(&buildDepth, "depth", "d", 1, "Target iteration depth")
	buildCmd.Flags().StringVar(&buildName, "name", "CitationGraph", "Graph name")
	buildCmd.Flags().StringVarP(&buildOut, "out", "o", "citgraph.json", "Snapshot output path")
	buildCmd.Flags().StringVar(&buildDB, "db", "", "Also mirror the graph into this SQLite database")
}

// BuildResult is the JSON output of the build command.
type BuildResult struct {
	Name             string      `json:"name"`
	Seeds            int         `json:"seeds"`
	IterDepth        int         `json:"iter_depth"`
	Nodes            int         `json:"nodes"`
	Edges            int         `json:"edges"`
	RetrievalsTotal  int         `json:"retrievals_total"`
	RetrievalsFailed int         `json:"retrievals_failed"`
	PapersByDepth    map[int]int `json:"papers_by_iter_depth"`
	Snapshot         string      `json:"snapshot"`
	Database         string      `json:"database,omitempty"`
	SkippedPDFs      []string    `json:"skipped_pdfs,omitempty"`
}

func runBuild(cmd *cobra.Command, args []string) error {
	useDOI := !buildEID

	ids, skippedPDFs, err := gatherSeeds(args, useDOI)
	if err != nil {
		exitWithError(ExitDataError, "%v", err)
	}
	if len(ids) == 0 {
		exitWithError(ExitDataError, "no seed identifiers: give arguments, --csv, or --pdf-dir")
	}

	apiKey := config.GetScopusAPIKey()
	if apiKey == "" {
		exitWithError(ExitConfigError, "%s", config.HelpfulConfigMessage())
	}

	opts := []scopus.ClientOption{
		scopus.WithAPIKey(apiKey),
		scopus.WithInstToken(config.GetScopusInstToken()),
	}
	if base := config.GetBaseURL(); base != "" {
		opts = append(opts, scopus.WithBaseURL(base))
	}
	client := scopus.NewClient(opts...)

	cg := graph.New(buildName, graph.WithLogger(buildLogger()))
	err = cg.BuildFromIDs(context.Background(), client, ids, useDOI, buildDepth)
	if err != nil {
		switch {
		case errors.Is(err, graph.ErrNegativeDepth):
			exitWithError(ExitDataError, "%v", err)
		case scopus.IsAuthError(err) || scopus.IsRateLimited(err):
			exitWithError(ExitAPIError, "building graph: %v", err)
		default:
			exitWithError(ExitError, "building graph: %v", err)
		}
	}

	outPath := snapshot.PrepPath(buildOut)
	if err := snapshot.Save(outPath, cg); err != nil {
		exitWithError(ExitError, "saving snapshot: %v", err)
	}

	if buildDB != "" {
		if err := mirrorToDB(buildDB, cg); err != nil {
			exitWithError(ExitError, "mirroring to database: %v", err)
		}
	}

	result := BuildResult{
		Name:             cg.Name(),
		Seeds:            len(ids),
		IterDepth:        cg.IterDepth(),
		Nodes:            cg.Graph().NodeCount(),
		Edges:            cg.Graph().EdgeCount(),
		RetrievalsTotal:  cg.RetrievalsTotal(),
		RetrievalsFailed: cg.RetrievalsFailed(),
		PapersByDepth:    make(map[int]int),
		Snapshot:         outPath,
		Database:         buildDB,
		SkippedPDFs:      skippedPDFs,
	}
	for _, d := range cg.Depths() {
		result.PapersByDepth[d] = len(cg.PapersAtDepth(d))
	}

	if humanOutput {
		outputBuildHuman(result)
		return nil
	}
	return outputJSON(result)
}

// gatherSeeds collects seed identifiers from arguments, the CSV export, and
// the PDF directory, in that order.
func gatherSeeds(args []string, useDOI bool) (ids []string, skippedPDFs []string, err error) {
	ids = append(ids, args...)

	if buildCSV != "" {
		csvIDs, err := seeds.ReadCSV(buildCSV, useDOI, buildLimit)
		if err != nil {
			return nil, nil, err
		}
		ids = append(ids, csvIDs...)
	}

	if buildPDFDir != "" {
		if !useDOI {
			return nil, nil, fmt.Errorf("--pdf-dir yields DOIs and cannot be combined with --eid")
		}
		dois, skipped, errs := seeds.ExtractDOIs(buildPDFDir)
		if len(errs) > 0 {
			return nil, nil, fmt.Errorf("extracting DOIs from PDFs: %v", errs[0])
		}
		ids = append(ids, dois...)
		skippedPDFs = skipped
	}

	return ids, skippedPDFs, nil
}

// mirrorToDB writes the built graph into a SQLite database.
func mirrorToDB(path string, cg *graph.CitationGraph) error {
	db, err := storage.OpenDB(path)
	if err != nil {
		return err
	}
	defer db.Close()
	return db.SaveGraph(cg.State())
}

func outputBuildHuman(result BuildResult) {
	outputHuman("Built %s to depth %d: %d nodes, %d edges\n",
		result.Name, result.IterDepth, result.Nodes, result.Edges)
	outputHuman("Retrievals: %d total, %d failed\n",
		result.RetrievalsTotal, result.RetrievalsFailed)
	for _, d := range sortedDepths(result.PapersByDepth) {
		outputHuman("  depth %d: %d papers\n", d, result.PapersByDepth[d])
	}
	outputHuman("Snapshot: %s\n", result.Snapshot)
	if result.Database != "" {
		outputHuman("Database: %s\n", result.Database)
	}
	for _, name := range result.SkippedPDFs {
		outputHuman("No DOI found in %s\n", name)
	}
}
