package main

import (
	"sort"

	"github.com/spf13/cobra"

	"github.com/matsen/citgraph/internal/snapshot"
)

var infoIn string

var infoCmd = &cobra.Command{
	Use:   "info",
	Short: "Show metadata and statistics of a graph snapshot",
	Long: `Show metadata and statistics of a saved citation graph snapshot:
node and edge counts, retrieval counters, and the number of papers first
discovered at each iteration depth.

Examples:
  citgraph info --in review.json
  citgraph info --in review.json --human`,
	RunE: runInfo,
}

func init() {
	rootCmd.AddCommand(infoCmd)
	infoCmd.Flags().StringVarP(&infoIn, "in", "i", "citgraph.json", "Snapshot path")
}

// InfoResult is the JSON output of the info command.
type InfoResult struct {
	Name             string      `json:"name"`
	UseDOI           bool        `json:"use_doi"`
	IterDepth        int         `json:"iter_depth"`
	Nodes            int         `json:"nodes"`
	Edges            int         `json:"edges"`
	RetrievalsTotal  int         `json:"retrievals_total"`
	RetrievalsFailed int         `json:"retrievals_failed"`
	PapersByDepth    map[int]int `json:"papers_by_iter_depth"`
}

func runInfo(cmd *cobra.Command, args []string) error {
	cg, err := snapshot.Load(infoIn)
	if err != nil {
		exitWithError(ExitDataError, "loading snapshot: %v", err)
	}

	result := InfoResult{
		Name:             cg.Name(),
		UseDOI:           cg.UseDOI(),
		IterDepth:        cg.IterDepth(),
		Nodes:            cg.Graph().NodeCount(),
		Edges:            cg.Graph().EdgeCount(),
		RetrievalsTotal:  cg.RetrievalsTotal(),
		RetrievalsFailed: cg.RetrievalsFailed(),
		PapersByDepth:    make(map[int]int),
	}
	for _, d := range cg.Depths() {
		result.PapersByDepth[d] = len(cg.PapersAtDepth(d))
	}

	if humanOutput {
		outputInfoHuman(result)
		return nil
	}
	return outputJSON(result)
}

func outputInfoHuman(result InfoResult) {
	scheme := "EID"
	if result.UseDOI {
		scheme = "DOI"
	}
	outputHuman("%s (seeded by %s)\n", result.Name, scheme)
	outputHuman("Depth %d, %d nodes, %d edges\n", result.IterDepth, result.Nodes, result.Edges)
	outputHuman("Retrievals: %d total, %d failed\n", result.RetrievalsTotal, result.RetrievalsFailed)
	for _, d := range sortedDepths(result.PapersByDepth) {
		outputHuman("  depth %d: %d papers\n", d, result.PapersByDepth[d])
	}
}

// sortedDepths returns the keys of a depth-count map in ascending order.
func sortedDepths(m map[int]int) []int {
	depths := make([]int, 0, len(m))
	for d := range m {
		depths = append(depths, d)
	}
	sort.Ints(depths)
	return depths
}
