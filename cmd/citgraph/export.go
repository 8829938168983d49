package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/matsen/citgraph/internal/snapshot"
	"github.com/matsen/citgraph/internal/viz"
)

var (
	exportIn     string
	exportOut    string
	exportFormat string
)

var exportCmd = &cobra.Command{
	Use:   "export",
	Short: "Export a graph snapshot for a visualization tool",
	Long: `Export a saved citation graph for a visualization tool.

Formats:
  graphistry  node-link JSON with stringified Scopus IDs and titles
              renamed to paper_title (Graphistry reserves "title")
  cytoscape   Cytoscape.js elements JSON

The export is built from a copy of the graph; the snapshot is not modified.

Examples:
  citgraph export --in review.json --format graphistry --out review_graphistry.json
  citgraph export --in review.json --format cytoscape`,
	RunE: runExport,
}

func init() {
	rootCmd.AddCommand(exportCmd)
	exportCmd.Flags().StringVarP(&exportIn, "in", "i", "citgraph.json", "Snapshot path")
	exportCmd.Flags().StringVarP(&exportOut, "out", "o", "", "Output path (default: stdout)")
	exportCmd.Flags().StringVarP(&exportFormat, "format", "f", "graphistry", "Export format: graphistry or cytoscape")
}

func runExport(cmd *cobra.Command, args []string) error {
	cg, err := snapshot.Load(exportIn)
	if err != nil {
		exitWithError(ExitDataError, "loading snapshot: %v", err)
	}

	var data []byte
	switch exportFormat {
	case "graphistry":
		data, err = viz.Graphistry(cg).ToJSON()
	case "cytoscape":
		data, err = viz.Cytoscape(cg).ToJSON()
	default:
		exitWithError(ExitDataError, "unknown export format: %s (valid: graphistry, cytoscape)", exportFormat)
	}
	if err != nil {
		exitWithError(ExitError, "building export: %v", err)
	}

	if exportOut == "" {
		fmt.Println(string(data))
		return nil
	}
	if err := os.WriteFile(exportOut, append(data, '\n'), 0644); err != nil {
		exitWithError(ExitError, "writing export: %v", err)
	}

	if humanOutput {
		outputHuman("Wrote %s export to %s\n", exportFormat, exportOut)
		return nil
	}
	return outputJSON(map[string]string{"status": "ok", "format": exportFormat, "path": exportOut})
}
