package commands

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/fsnotify/fsnotify"
	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/spf13/cobra"

	"github.com/dartfront/dartfront/pkg/problems"
)

// CheckOptions holds options for the check command.
type CheckOptions struct {
	Format   string // Output format: table, json
	Severity string // Minimum severity: error, warning, info
	Watch    bool   // Re-run on outline file changes
}

// NewCheckCommand creates the check command.
func NewCheckCommand(getConfig ConfigGetter) *cobra.Command {
	opts := &CheckOptions{}
	cmd := &cobra.Command{
		Use:   "check <entry>",
		Short: "Load a program and report problems",
		Long: `Load the program rooted at an entry library outline, run every
pipeline phase, and report the problems found.

The exit status is non-zero when any error-severity problem was
reported.`,
		Example: `  # Check a program
  dartfront check app/main.lib.yaml

  # Output as JSON
  dartfront check app/main.lib.yaml --format json

  # Only report errors
  dartfront check app/main.lib.yaml --severity error

  # Re-check whenever an outline changes
  dartfront check app/main.lib.yaml --watch`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runCheck(cmd, getConfig, opts, args[0])
		},
	}

	cmd.Flags().StringVarP(&opts.Format, "format", "f", "", "Output format: table, json")
	cmd.Flags().StringVar(&opts.Severity, "severity", "info", "Minimum severity: error, warning, info")
	cmd.Flags().BoolVarP(&opts.Watch, "watch", "w", false, "Re-run when outline files change")

	return cmd
}

func runCheck(cmd *cobra.Command, getConfig ConfigGetter, opts *CheckOptions, entry string) error {
	cfg := getConfig(cmd.Context())
	format := opts.Format
	if format == "" {
		format = cfg.Format
	}

	runOnce := func() error {
		session, err := newSession(cfg, entry, nil)
		if err != nil {
			return err
		}
		ps := atLeast(session.Collector.Problems, opts.Severity)
		switch format {
		case "json":
			if err := checkJSON(cmd, session, ps); err != nil {
				return err
			}
		default:
			checkTable(cmd, session, ps)
		}
		if n := len(session.Collector.Errors()); n > 0 {
			return fmt.Errorf("%d error(s) found", n)
		}
		return nil
	}

	if !opts.Watch {
		return runOnce()
	}
	return watchAndRun(cmd.Context(), cmd, entry, runOnce)
}

func checkTable(cmd *cobra.Command, session *Session, ps []problems.Problem) {
	out := cmd.OutOrStdout()
	if len(ps) == 0 {
		fmt.Fprintf(out, "No problems found (%d libraries, %d declarations built)\n",
			len(session.Loader.Builders()), session.Built)
		return
	}

	t := table.NewWriter()
	t.SetOutputMirror(out)
	t.SetStyle(table.StyleLight)
	t.AppendHeader(table.Row{"Severity", "Code", "Location", "Message"})
	for _, p := range ps {
		t.AppendRow(table.Row{p.Severity.String(), string(p.Code), location(p), p.Message})
	}
	t.Render()
	fmt.Fprintf(out, "%d problem(s)\n", len(ps))
}

type checkReport struct {
	Libraries int             `json:"libraries"`
	Built     int             `json:"declarations_built"`
	Problems  []problemReport `json:"problems"`
}

type problemReport struct {
	Severity string `json:"severity"`
	Code     string `json:"code"`
	URI      string `json:"uri,omitempty"`
	Offset   int    `json:"offset"`
	Length   int    `json:"length"`
	Message  string `json:"message"`
}

func checkJSON(cmd *cobra.Command, session *Session, ps []problems.Problem) error {
	report := checkReport{
		Libraries: len(session.Loader.Builders()),
		Built:     session.Built,
		Problems:  make([]problemReport, 0, len(ps)),
	}
	for _, p := range ps {
		report.Problems = append(report.Problems, problemReport{
			Severity: p.Severity.String(),
			Code:     string(p.Code),
			URI:      p.URI,
			Offset:   p.Offset,
			Length:   p.Length,
			Message:  p.Message,
		})
	}
	enc := json.NewEncoder(cmd.OutOrStdout())
	enc.SetIndent("", "  ")
	return enc.Encode(report)
}

// watchAndRun re-runs the check whenever an outline or config file under
// the entry's directory changes. Events are debounced because editors
// produce bursts of writes.
func watchAndRun(ctx context.Context, cmd *cobra.Command, entry string, run func() error) error {
	if err := run(); err != nil {
		fmt.Fprintf(cmd.ErrOrStderr(), "%v\n", err)
	}

	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("failed to create watcher: %w", err)
	}
	defer func() { _ = watcher.Close() }()

	root := filepath.Dir(entry)
	if err := watchDir(watcher, root); err != nil {
		return fmt.Errorf("failed to watch %s: %w", root, err)
	}

	fmt.Fprintf(cmd.ErrOrStderr(), "Watching %s for changes. Press Ctrl+C to stop.\n", root)

	var debounce *time.Timer
	rerun := make(chan struct{}, 1)
	for {
		select {
		case <-ctx.Done():
			return nil
		case <-rerun:
			if err := run(); err != nil {
				fmt.Fprintf(cmd.ErrOrStderr(), "%v\n", err)
			}
		case event, ok := <-watcher.Events:
			if !ok {
				return nil
			}
			if event.Op&(fsnotify.Write|fsnotify.Create) == 0 {
				continue
			}
			ext := filepath.Ext(event.Name)
			if ext != ".yaml" && ext != ".yml" {
				continue
			}
			if event.Op&fsnotify.Create != 0 {
				if info, statErr := os.Stat(event.Name); statErr == nil && info.IsDir() {
					_ = watchDir(watcher, event.Name)
					continue
				}
			}
			if debounce != nil {
				debounce.Stop()
			}
			name := filepath.Base(event.Name)
			debounce = time.AfterFunc(100*time.Millisecond, func() {
				fmt.Fprintf(cmd.ErrOrStderr(), "Change detected: %s\n", name)
				select {
				case rerun <- struct{}{}:
				default:
				}
			})
		case watchErr, ok := <-watcher.Errors:
			if !ok {
				return nil
			}
			fmt.Fprintf(cmd.ErrOrStderr(), "watch error: %v\n", watchErr)
		}
	}
}

// watchDir recursively adds a directory tree to the watcher, skipping
// hidden directories.
func watchDir(watcher *fsnotify.Watcher, dir string) error {
	return filepath.Walk(dir, func(path string, info os.FileInfo, err error) error {
		if err != nil {
			return err
		}
		if info.IsDir() {
			if name := info.Name(); len(name) > 1 && name[0] == '.' {
				return filepath.SkipDir
			}
			return watcher.Add(path)
		}
		return nil
	})
}
