// Package commands implements the dartfront subcommands.
package commands

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"strings"

	"github.com/dartfront/dartfront/internal/config"
	"github.com/dartfront/dartfront/internal/outline"
	"github.com/dartfront/dartfront/pkg/builder"
	"github.com/dartfront/dartfront/pkg/core"
	"github.com/dartfront/dartfront/pkg/loader"
	"github.com/dartfront/dartfront/pkg/problems"
)

// ConfigGetter retrieves the loaded configuration from a command context.
type ConfigGetter func(ctx context.Context) *config.Config

// Session is one complete front-end run over a program: a fresh loader,
// the problems it collected, and the entry library. Loaders cache for the
// life of the process, so watch mode starts a new session per run instead
// of reusing one.
type Session struct {
	Cfg       *config.Config
	Loader    *loader.Loader
	Collector *problems.Collector
	Entry     *builder.LibraryBuilder
	Built     int
}

// newSession loads the program rooted at entry and drives it through every
// pipeline phase, building at the end. entry may be a filesystem path or a
// URI that the source can already load.
func newSession(cfg *config.Config, entry string, logger *slog.Logger) (*Session, error) {
	entryURI, err := entryURI(entry)
	if err != nil {
		return nil, err
	}

	source := &outline.FileSource{
		Libraries: cfg.SDK.Libraries,
		Root:      cfg.ProjectRoot,
	}
	driver := outline.NewDriver(source)
	collector := problems.NewCollector()

	if logger == nil {
		logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	if cfg.Verbose {
		logger = slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{
			Level: slog.LevelDebug,
		}))
	}

	l := loader.New(loader.Config{
		Platform: loader.Platform{
			CoreLibrary:          cfg.SDK.CoreLibrary,
			Libraries:            cfg.SDK.Supported(),
			StrongMode:           cfg.SDK.StrongMode,
			DisableTypeInference: cfg.SDK.DisableTypeInference,
		},
		Parse:     driver.Parse,
		Translate: source.Translate,
		Reporter:  collector,
		Logger:    logger,
	})

	first := l.LoadProgram(entryURI)
	built := l.Build(func(_ *core.Declaration, _ *builder.LibraryBuilder) {})

	return &Session{
		Cfg:       cfg,
		Loader:    l,
		Collector: collector,
		Entry:     first,
		Built:     built,
	}, nil
}

// entryURI maps a command-line entry argument to a library URI. Anything
// carrying a scheme passes through untouched.
func entryURI(entry string) (string, error) {
	if strings.Contains(entry, ":") {
		return entry, nil
	}
	uri, err := outline.FileURI(entry)
	if err != nil {
		return "", fmt.Errorf("cannot resolve entry %s: %w", entry, err)
	}
	return uri, nil
}

// location formats a problem position for display.
func location(p problems.Problem) string {
	if p.URI == "" {
		return ""
	}
	if p.Offset < 0 {
		return p.URI
	}
	return fmt.Sprintf("%s:%d", p.URI, p.Offset)
}

// atLeast filters problems below the minimum severity. Unknown minimums
// keep everything.
func atLeast(ps []problems.Problem, minimum string) []problems.Problem {
	minSev, ok := problems.ParseSeverity(minimum)
	if !ok {
		return ps
	}
	var out []problems.Problem
	for _, p := range ps {
		if p.Severity <= minSev {
			out = append(out, p)
		}
	}
	return out
}
