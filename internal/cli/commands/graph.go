package commands

import (
	"encoding/json"
	"fmt"
	"io"
	"strings"

	"github.com/spf13/cobra"

	"github.com/dartfront/dartfront/internal/graph"
)

// GraphOptions holds options for the graph command.
type GraphOptions struct {
	Format string // Output format: text, json
}

// NewGraphCommand creates the graph command.
func NewGraphCommand(getConfig ConfigGetter) *cobra.Command {
	opts := &GraphOptions{}
	cmd := &cobra.Command{
		Use:   "graph <entry>",
		Short: "Show the import graph",
		Long: `Load a program and display its import graph: which library imports
which, a dependency-first ordering, and any import cycles. Import
cycles are legal and reported for information only.`,
		Example: `  # Show the import graph
  dartfront graph app/main.lib.yaml

  # Output as JSON
  dartfront graph app/main.lib.yaml --format json`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runGraph(cmd, getConfig, opts, args[0])
		},
	}

	cmd.Flags().StringVarP(&opts.Format, "format", "f", "text", "Output format: text, json")

	return cmd
}

func runGraph(cmd *cobra.Command, getConfig ConfigGetter, opts *GraphOptions, entry string) error {
	cfg := getConfig(cmd.Context())

	session, err := newSession(cfg, entry, nil)
	if err != nil {
		return err
	}
	g := graph.FromLoader(session.Loader)

	switch opts.Format {
	case "json":
		return graphJSON(cmd.OutOrStdout(), g)
	default:
		graphText(cmd.OutOrStdout(), g)
		return nil
	}
}

func graphText(w io.Writer, g *graph.Graph) {
	fmt.Fprintf(w, "%d libraries, %d import edges\n\n", len(g.Nodes()), g.EdgeCount())
	for _, uri := range g.Nodes() {
		deps := g.Imports(uri)
		if len(deps) == 0 {
			fmt.Fprintf(w, "%s\n", uri)
			continue
		}
		fmt.Fprintf(w, "%s -> %s\n", uri, strings.Join(deps, ", "))
	}

	if cycles := g.Cycles(); len(cycles) > 0 {
		fmt.Fprintf(w, "\n%d import cycle(s):\n", len(cycles))
		for _, cycle := range cycles {
			fmt.Fprintf(w, "  %s\n", strings.Join(cycle, " <-> "))
		}
	}

	fmt.Fprintf(w, "\nDependency order:\n")
	for _, uri := range g.Order() {
		fmt.Fprintf(w, "  %s\n", uri)
	}
}

type graphReport struct {
	Libraries int                 `json:"libraries"`
	Edges     int                 `json:"edges"`
	Imports   map[string][]string `json:"imports"`
	Cycles    [][]string          `json:"cycles,omitempty"`
	Order     []string            `json:"order"`
}

func graphJSON(w io.Writer, g *graph.Graph) error {
	report := graphReport{
		Libraries: len(g.Nodes()),
		Edges:     g.EdgeCount(),
		Imports:   make(map[string][]string),
		Cycles:    g.Cycles(),
		Order:     g.Order(),
	}
	for _, uri := range g.Nodes() {
		if deps := g.Imports(uri); len(deps) > 0 {
			report.Imports[uri] = deps
		}
	}
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(report)
}
