package commands

import (
	"fmt"
	"io"

	"github.com/gobwas/glob"
	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"github.com/dartfront/dartfront/pkg/builder"
)

// DumpOptions holds options for the dump command.
type DumpOptions struct {
	Format string // Output format: text, yaml
	Filter string // Glob over library URIs
}

// NewDumpCommand creates the dump command.
func NewDumpCommand(getConfig ConfigGetter) *cobra.Command {
	opts := &DumpOptions{}
	cmd := &cobra.Command{
		Use:   "dump <entry>",
		Short: "Dump the final library scopes",
		Long: `Load a program and print the symbol table of every library:
local declarations, setters, and the names each library exports.`,
		Example: `  # Dump every library
  dartfront dump app/main.lib.yaml

  # Only libraries matching a glob
  dartfront dump app/main.lib.yaml --filter 'file://*/src/*'

  # Dump as YAML
  dartfront dump app/main.lib.yaml --format yaml`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runDump(cmd, getConfig, opts, args[0])
		},
	}

	cmd.Flags().StringVarP(&opts.Format, "format", "f", "text", "Output format: text, yaml")
	cmd.Flags().StringVar(&opts.Filter, "filter", "", "Glob matched against library URIs")

	return cmd
}

// libraryDump is the serialized symbol table of one library.
type libraryDump struct {
	URI          string            `yaml:"uri"`
	Name         string            `yaml:"name,omitempty"`
	Declarations []declarationDump `yaml:"declarations,omitempty"`
	Setters      []declarationDump `yaml:"setters,omitempty"`
	Exports      []string          `yaml:"exports,omitempty"`
}

type declarationDump struct {
	Name       string `yaml:"name"`
	Kind       string `yaml:"kind"`
	Duplicates int    `yaml:"duplicates,omitempty"`
}

func runDump(cmd *cobra.Command, getConfig ConfigGetter, opts *DumpOptions, entry string) error {
	cfg := getConfig(cmd.Context())

	var matcher glob.Glob
	if opts.Filter != "" {
		g, err := glob.Compile(opts.Filter)
		if err != nil {
			return fmt.Errorf("invalid filter %q: %w", opts.Filter, err)
		}
		matcher = g
	}

	session, err := newSession(cfg, entry, nil)
	if err != nil {
		return err
	}

	var dumps []libraryDump
	for _, b := range session.Loader.Builders() {
		if b.IsPart() || b.IsSynthetic() {
			continue
		}
		if matcher != nil && !matcher.Match(b.URI) {
			continue
		}
		dumps = append(dumps, dumpLibrary(b))
	}

	switch opts.Format {
	case "yaml":
		enc := yaml.NewEncoder(cmd.OutOrStdout())
		enc.SetIndent(2)
		if err := enc.Encode(dumps); err != nil {
			return err
		}
		return enc.Close()
	default:
		dumpText(cmd.OutOrStdout(), dumps)
		return nil
	}
}

func dumpLibrary(b *builder.LibraryBuilder) libraryDump {
	d := libraryDump{URI: b.URI, Name: b.Name}
	scope := b.Scope()
	for _, name := range scope.Names() {
		chain := scope.Local(name)
		d.Declarations = append(d.Declarations, declarationDump{
			Name:       name,
			Kind:       chain.Head().Kind.String(),
			Duplicates: chain.Len() - 1,
		})
	}
	for _, name := range scope.SetterNames() {
		chain := scope.LocalSetter(name)
		d.Setters = append(d.Setters, declarationDump{
			Name:       name,
			Kind:       chain.Head().Kind.String(),
			Duplicates: chain.Len() - 1,
		})
	}
	export := b.ExportScope()
	for _, name := range export.Names() {
		d.Exports = append(d.Exports, name)
	}
	for _, name := range export.SetterNames() {
		d.Exports = append(d.Exports, name+"=")
	}
	return d
}

func dumpText(w io.Writer, dumps []libraryDump) {
	for i, d := range dumps {
		if i > 0 {
			fmt.Fprintln(w)
		}
		fmt.Fprintf(w, "library %s", d.URI)
		if d.Name != "" {
			fmt.Fprintf(w, " (%s)", d.Name)
		}
		fmt.Fprintln(w)
		for _, decl := range d.Declarations {
			fmt.Fprintf(w, "  %-10s %s", decl.Kind, decl.Name)
			if decl.Duplicates > 0 {
				fmt.Fprintf(w, " (+%d duplicate)", decl.Duplicates)
			}
			fmt.Fprintln(w)
		}
		for _, decl := range d.Setters {
			fmt.Fprintf(w, "  %-10s %s=\n", decl.Kind, decl.Name)
		}
		if len(d.Exports) > 0 {
			fmt.Fprintf(w, "  exports: %d name(s)\n", len(d.Exports))
		}
	}
}
